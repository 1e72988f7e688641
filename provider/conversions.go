package provider

import (
	"encoding/json"

	"github.com/openai/openai-go/v3"

	"github.com/NieAnim/MayaAgent/model"
)

// ToOpenAIMessages converts the assembled conversation to the OpenAI
// wire shape. Tool results keep their call id, and assistant messages
// that carried tool calls are replayed with them so the provider sees
// a valid call-and-response pairing. Reasoning text is replayed as the
// non-standard reasoning_content field some providers require on
// follow-up turns.
func ToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleUser:
			result = append(result, openai.UserMessage(msg.Content))
		case model.RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case model.RoleAssistant:
			if !msg.HasToolCalls() {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls))
			for i, call := range msg.ToolCalls {
				calls[i] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: EncodeToolArguments(call.Arguments),
						},
					},
				}
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			if msg.Reasoning != "" {
				assistant.SetExtraFields(map[string]any{
					"reasoning_content": msg.Reasoning,
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// ParseToolArguments decodes a tool call's JSON argument string. The
// second return is false when the payload is not a JSON object, which
// callers treat as a malformed stream.
func ParseToolArguments(argsJSON string) (map[string]any, bool) {
	if argsJSON == "" {
		return map[string]any{}, true
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, false
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, true
}

// EncodeToolArguments is the inverse, used when replaying assistant
// tool calls back to the provider.
func EncodeToolArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
