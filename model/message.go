package model

import "time"

// Message roles. A "tool" message must directly follow the assistant
// message whose tool calls it answers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-emitted request to invoke a registered capability.
// It lives for one orchestration round only and is never persisted as-is.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message represents a single chat message in a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Reasoning  string     `json:"reasoning,omitempty"` // secondary reasoning channel (DeepSeek-style)
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on RoleTool messages
	Timestamp  time.Time  `json:"timestamp"`
}

// HasToolCalls reports whether the message carries tool-call requests.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// TokenUsage accumulates token accounting reported by providers.
type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Total      int `json:"total_tokens"`
}

// Add merges another usage report into the running totals.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Prompt += other.Prompt
	u.Completion += other.Completion
	u.Total += other.Total
}

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	Name         string // display name (vendor prefix stripped where applicable)
	InternalName string // full name used in API calls
	Size         int64  // bytes, 0 when the provider does not report size
	Provider     string // provider ID this model belongs to
}
