// Package agent is the orchestration loop: it resolves each user
// message through the shortcut matcher, then the response cache, then
// one or more streaming model rounds with tool execution in between,
// and reports progress over an ordered update channel.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/NieAnim/MayaAgent/cache"
	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
	"github.com/NieAnim/MayaAgent/prompt"
	"github.com/NieAnim/MayaAgent/shortcut"
	"github.com/NieAnim/MayaAgent/storage"
	"github.com/NieAnim/MayaAgent/tool"
)

// ErrRequestInFlight rejects a send while another request for the same
// session is still running. Interleaving two requests into one
// conversation would corrupt the call/response pairing.
var ErrRequestInFlight = errors.New("a request is already in flight for this session")

// Resolution records which path answered a request.
type Resolution int

const (
	ResolutionShortcut Resolution = iota
	ResolutionCache
	ResolutionHistory
	ResolutionModel
)

func (r Resolution) String() string {
	switch r {
	case ResolutionShortcut:
		return "shortcut"
	case ResolutionCache:
		return "cache"
	case ResolutionHistory:
		return "history"
	case ResolutionModel:
		return "model"
	}
	return "unknown"
}

// UpdateKind identifies an engine progress event.
type UpdateKind int

const (
	// UpdateTextDelta carries incremental assistant text.
	UpdateTextDelta UpdateKind = iota
	// UpdateReasoningDelta carries incremental reasoning-channel text.
	UpdateReasoningDelta
	// UpdateToolCall announces a tool call about to execute.
	UpdateToolCall
	// UpdateToolResult carries one finished tool execution.
	UpdateToolResult
	// UpdateUsage carries token accounting for one model round.
	UpdateUsage
	// UpdateNotice carries an informational line for the user (cache
	// hit, round limit).
	UpdateNotice
	// UpdateFinal is terminal: the request resolved to an assistant
	// message.
	UpdateFinal
	// UpdateFailed is terminal: the request failed.
	UpdateFailed
	// UpdateCancelled is terminal: the caller stopped the request.
	// Partial text already delivered stands as-is.
	UpdateCancelled
)

// Update is one entry on the engine's ordered progress channel.
// Exactly one terminal update (Final, Failed, or Cancelled) closes
// every request.
type Update struct {
	Kind       UpdateKind
	Text       string
	Call       *model.ToolCall
	Result     *tool.ExecutionResult
	Usage      *model.TokenUsage
	Message    *model.Message
	Resolution Resolution
	Err        error
}

// Terminal reports whether the update closes the request.
func (u Update) Terminal() bool {
	switch u.Kind {
	case UpdateFinal, UpdateFailed, UpdateCancelled:
		return true
	}
	return false
}

// Engine composes the resolution layers for one session. The response
// cache may be shared across engines; everything else is per-session.
type Engine struct {
	provider  model.Provider
	registry  *tool.Registry
	executor  *tool.Executor
	matcher   *shortcut.Matcher
	cache     *cache.ResponseCache
	policy    cache.FingerprintPolicy
	assembler *prompt.Assembler
	fetcher   host.ContextFetcher
	history   *storage.HistoryStore

	maxRounds int

	mu       sync.Mutex
	session  *model.Session
	inFlight bool
}

// NewEngine wires an engine from its collaborators. The response cache
// is created from cfg unless one is attached later with SetCache.
func NewEngine(cfg *config.Config, provider model.Provider, registry *tool.Registry, executor *tool.Executor, fetcher host.ContextFetcher) (*Engine, error) {
	respCache, err := cache.NewResponseCache(cfg.CacheCapacity, cache.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 8
	}

	return &Engine{
		provider:  provider,
		registry:  registry,
		executor:  executor,
		matcher:   shortcut.NewMatcher(),
		cache:     respCache,
		assembler: prompt.NewAssembler(registry),
		fetcher:   fetcher,
		maxRounds: maxRounds,
		session:   model.NewSession(),
	}, nil
}

// SetCache replaces the response cache, for sharing one process-wide
// instance between sessions.
func (e *Engine) SetCache(c *cache.ResponseCache) { e.cache = c }

// SetHistory attaches the persistent history log. Without it the
// similar-Q&A layer is skipped and rounds are not recorded.
func (e *Engine) SetHistory(h *storage.HistoryStore) { e.history = h }

// Session returns the engine's current session.
func (e *Engine) Session() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Reset starts a new conversation and returns the previous session so
// the caller can persist it.
func (e *Engine) Reset() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.session
	e.session = model.NewSession()
	return old
}

// Resume replaces the current session with one loaded from storage.
func (e *Engine) Resume(session *model.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = session
}

// Send resolves one user message. It returns an ordered update channel
// that is closed after exactly one terminal update, or
// ErrRequestInFlight if a request is already running. Cancelling ctx
// stops the request at the next event boundary.
func (e *Engine) Send(ctx context.Context, text string) (<-chan Update, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty message")
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	e.inFlight = true
	e.mu.Unlock()

	updates := make(chan Update, 16)
	go e.run(ctx, text, updates)
	return updates, nil
}

func (e *Engine) run(ctx context.Context, text string, updates chan<- Update) {
	defer close(updates)
	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	e.session.Append(model.Message{Role: model.RoleUser, Content: text})

	// Layer 1: local command shortcut, zero latency.
	if action := e.matcher.Match(text); action != nil {
		e.runShortcut(ctx, action, updates)
		return
	}

	snap := e.snapshot(ctx)
	fingerprint := e.policy.Fingerprint(text, snap)

	// Layer 2: response cache.
	if msg, ok := e.cache.Get(fingerprint); ok {
		e.session.Append(msg)
		updates <- Update{Kind: UpdateNotice, Text: "（来自本地缓存）"}
		e.record(text, msg.Content, nil, false, nil)
		updates <- Update{Kind: UpdateFinal, Message: &msg, Resolution: ResolutionCache}
		return
	}

	// Layer 2b: fuzzy match against the persistent history.
	if e.history != nil {
		if reply, ok := e.history.FindSimilarReply(text); ok {
			msg := model.Message{Role: model.RoleAssistant, Content: reply}
			e.session.Append(msg)
			updates <- Update{Kind: UpdateNotice, Text: "（来自历史问答）"}
			e.record(text, reply, nil, false, nil)
			updates <- Update{Kind: UpdateFinal, Message: &msg, Resolution: ResolutionHistory}
			return
		}
	}

	// Layer 3: model rounds with tool execution in between.
	e.runModelRounds(ctx, text, fingerprint, updates)
}

// runShortcut executes a matched command directly, no network. The
// shortcut skips the model, not the consent step: a mutating tool still
// goes through the Confirmer inside Execute.
func (e *Engine) runShortcut(ctx context.Context, action *shortcut.ResolvedAction, updates chan<- Update) {
	call := model.ToolCall{
		ID:        "shortcut_" + uuid.New().String()[:8],
		Name:      action.ToolName,
		Arguments: action.Args,
	}
	updates <- Update{Kind: UpdateToolCall, Call: &call}

	res := e.executor.Execute(ctx, call)
	updates <- Update{Kind: UpdateToolResult, Result: &res}

	var content string
	switch res.Status {
	case tool.StatusSuccess:
		content = fmt.Sprintf("已执行 %s: %s", action.ToolName, res.Output)
	case tool.StatusDeclined:
		content = fmt.Sprintf("已取消执行 %s。", action.ToolName)
	default:
		content = fmt.Sprintf("执行 %s 失败: %s", action.ToolName, res.ErrorDetail)
	}
	msg := model.Message{Role: model.RoleAssistant, Content: content}
	e.session.Append(msg)
	e.record(action.Matched, msg.Content, []string{action.ToolName}, true, nil)
	updates <- Update{Kind: UpdateFinal, Message: &msg, Resolution: ResolutionShortcut}
}

func (e *Engine) runModelRounds(ctx context.Context, text, fingerprint string, updates chan<- Update) {
	usedTools := false
	var toolNames []string
	var usage model.TokenUsage

	for round := 0; ; round++ {
		// Safety net on the last allowed round: withhold the tool
		// catalog so the model can only produce text.
		var tools []mcptypes.Tool
		if round < e.maxRounds-1 {
			tools = tool.MCPTools(e.registry.AllSpecs())
		}

		msg, ok := e.streamRound(ctx, tools, &usage, updates)
		if !ok {
			return
		}
		e.session.Append(msg)

		if !msg.HasToolCalls() {
			if !usedTools {
				// Put enforces its own cacheability rules.
				_ = e.cache.Put(fingerprint, msg)
			}
			e.session.Usage.Add(usage)
			e.record(text, msg.Content, toolNames, false, roundUsage(usage))
			updates <- Update{Kind: UpdateFinal, Message: &msg, Resolution: ResolutionModel}
			return
		}

		usedTools = true
		for _, call := range msg.ToolCalls {
			if ctx.Err() != nil {
				updates <- Update{Kind: UpdateCancelled}
				return
			}
			toolNames = appendUnique(toolNames, call.Name)

			updates <- Update{Kind: UpdateToolCall, Call: &call}
			res := e.executor.Execute(ctx, call)
			updates <- Update{Kind: UpdateToolResult, Result: &res}

			e.session.Append(model.Message{
				Role:       model.RoleTool,
				Content:    res.Content(),
				ToolCallID: call.ID,
			})
		}

		if round+1 >= e.maxRounds {
			notice := fmt.Sprintf("已达到工具调用轮次上限 (%d)，终止循环。", e.maxRounds)
			final := model.Message{Role: model.RoleAssistant, Content: notice}
			e.session.Append(final)
			e.session.Usage.Add(usage)
			e.record(text, notice, toolNames, false, roundUsage(usage))
			updates <- Update{Kind: UpdateNotice, Text: notice}
			updates <- Update{Kind: UpdateFinal, Message: &final, Resolution: ResolutionModel}
			return
		}
	}
}

// streamRound sends one provider request and assembles the streamed
// response into an assistant message. ok is false when a Failed or
// Cancelled terminal was forwarded and the loop must stop.
func (e *Engine) streamRound(ctx context.Context, tools []mcptypes.Tool, usage *model.TokenUsage, updates chan<- Update) (model.Message, bool) {
	// Snapshot per round: an earlier tool call may have changed the
	// scene.
	snap := e.snapshot(ctx)
	messages := e.assembler.BuildMessages(e.session.Messages, snap)

	var content, reasoning strings.Builder
	var calls []model.ToolCall

	for ev := range e.provider.ChatStream(ctx, messages, tools) {
		switch ev.Kind {
		case model.EventTextDelta:
			content.WriteString(ev.Text)
			updates <- Update{Kind: UpdateTextDelta, Text: ev.Text}
		case model.EventReasoningDelta:
			reasoning.WriteString(ev.Text)
			updates <- Update{Kind: UpdateReasoningDelta, Text: ev.Text}
		case model.EventToolCall:
			calls = append(calls, *ev.Call)
		case model.EventUsage:
			usage.Add(*ev.Usage)
			updates <- Update{Kind: UpdateUsage, Usage: ev.Usage}
		case model.EventCompleted:
			return model.Message{
				Role:      model.RoleAssistant,
				Content:   content.String(),
				Reasoning: reasoning.String(),
				ToolCalls: calls,
			}, true
		case model.EventFailed:
			updates <- Update{Kind: UpdateFailed, Err: ev.Err}
			return model.Message{}, false
		case model.EventCancelled:
			updates <- Update{Kind: UpdateCancelled}
			return model.Message{}, false
		}
	}

	// The provider closed the stream without a terminal event; treat as
	// a failure rather than guessing at a message.
	updates <- Update{Kind: UpdateFailed, Err: errors.New("provider stream ended without a terminal event")}
	return model.Message{}, false
}

func (e *Engine) snapshot(ctx context.Context) *host.SceneSnapshot {
	if e.fetcher == nil {
		return nil
	}
	snap, err := e.fetcher.Snapshot(ctx)
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Engine] scene snapshot failed: %v", err)
		}
		return nil
	}
	return snap
}

func (e *Engine) record(userInput, reply string, toolsUsed []string, isShortcut bool, usage *model.TokenUsage) {
	if e.history == nil {
		return
	}
	err := e.history.Append(storage.Record{
		SessionID:      e.session.ID,
		UserInput:      userInput,
		AssistantReply: reply,
		ToolsUsed:      toolsUsed,
		IsShortcut:     isShortcut,
		Usage:          usage,
	})
	if err != nil && config.Debug {
		config.DebugLog.Printf("[Engine] history append failed: %v", err)
	}
}

// roundUsage copies the accumulated usage for the history record, or
// nil when the provider reported none.
func roundUsage(usage model.TokenUsage) *model.TokenUsage {
	if usage.Total == 0 {
		return nil
	}
	u := usage
	return &u
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
