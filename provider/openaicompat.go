// Package provider implements the streaming client side of the engine.
// Every backend (OpenAI, DeepSeek, OpenRouter, a local Ollama server)
// is reached through the same OpenAI-compatible chat completion wire
// contract; per-backend differences are limited to endpoints, model
// listing, and capability quirks handled by graceful fallback.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/model"
	"github.com/NieAnim/MayaAgent/tool"
)

// eventBuffer sizes the ordered event channel between the network
// worker and the consuming loop.
const eventBuffer = 64

// OpenAICompatProvider talks to any OpenAI-compatible streaming
// completion endpoint. One instance is bound to one ProviderConfig.
type OpenAICompatProvider struct {
	client    openai.Client
	id        string
	baseURL   string
	maxTokens int64

	mu    sync.Mutex
	model string
	// includeUsage starts true and is permanently disabled for this
	// provider the first time it rejects stream_options with a 400.
	includeUsage bool
}

// NewOpenAICompatProvider builds a client for one provider endpoint.
// The SDK's own retry layer is disabled; retry policy lives here so
// attempts, backoff, and capability fallback stay observable.
func NewOpenAICompatProvider(id, baseURL, apiKey, modelName string, maxTokens int64) (*OpenAICompatProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider %s: base URL is required", id)
	}
	if apiKey == "" && id != config.ProviderOllama {
		return nil, fmt.Errorf("provider %s: API key is required", id)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxToken
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(requestTimeout*time.Second),
	)

	return &OpenAICompatProvider{
		client:       client,
		id:           id,
		baseURL:      baseURL,
		maxTokens:    maxTokens,
		model:        modelName,
		includeUsage: true,
	}, nil
}

// ID returns the provider identifier this client is bound to.
func (p *OpenAICompatProvider) ID() string { return p.id }

// ChatStream implements model.Provider. The request runs on its own
// goroutine; the returned channel delivers events in wire order and is
// closed after exactly one terminal event.
func (p *OpenAICompatProvider) ChatStream(ctx context.Context, messages []model.Message, tools []mcptypes.Tool) <-chan model.StreamEvent {
	events := make(chan model.StreamEvent, eventBuffer)
	go func() {
		defer close(events)
		p.run(ctx, messages, tools, events)
	}()
	return events
}

// run executes the retry loop. Only failures that occur before any
// event reached the caller are retried; a stream that already delivered
// text fails outright, since replaying it would duplicate output.
func (p *OpenAICompatProvider) run(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, events chan<- model.StreamEvent) {
	params := p.buildParams(messages, tools)

	var lastErr error
	usageFallbackDone := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			events <- model.StreamEvent{Kind: model.EventCancelled}
			return
		}

		delivered, err := p.streamOnce(ctx, params, events)
		if err == nil {
			return // terminal event already sent
		}
		if ctx.Err() != nil {
			events <- model.StreamEvent{Kind: model.EventCancelled}
			return
		}

		// Capability fallback: a 400 while stream_options is set means
		// the provider does not support in-stream usage. Disable it for
		// this provider and retry once without consuming an attempt.
		if statusCode(err) == 400 && p.usageEnabled() && !usageFallbackDone {
			p.disableUsage()
			params.StreamOptions = openai.ChatCompletionStreamOptionsParam{}
			usageFallbackDone = true
			attempt--
			if config.Debug {
				config.DebugLog.Printf("[Provider:%s] stream_options rejected, retrying without usage", p.id)
			}
			continue
		}

		if delivered || !retryable(err) || attempt == maxAttempts-1 {
			events <- model.StreamEvent{Kind: model.EventFailed, Err: wrapRequestError(err)}
			return
		}

		lastErr = err
		wait := time.Duration(backoffBase*float64(int(1)<<attempt)*1000) * time.Millisecond
		if config.Debug {
			config.DebugLog.Printf("[Provider:%s] attempt %d/%d failed (%v), retrying in %s", p.id, attempt+1, maxAttempts, err, wait)
		}
		select {
		case <-ctx.Done():
			events <- model.StreamEvent{Kind: model.EventCancelled}
			return
		case <-time.After(wait):
		}
	}

	events <- model.StreamEvent{Kind: model.EventFailed, Err: wrapRequestError(lastErr)}
}

func (p *OpenAICompatProvider) buildParams(messages []model.Message, tools []mcptypes.Tool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:  ToOpenAIMessages(messages),
		Model:     openai.ChatModel(p.GetModel()),
		MaxTokens: openai.Int(p.maxTokens),
	}
	if len(tools) > 0 {
		specs := make([]tool.Spec, len(tools))
		for i, t := range tools {
			specs[i] = tool.Spec{Tool: t}
		}
		params.Tools = tool.ToOpenAIFormat(specs)
	}
	if p.usageEnabled() {
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
	}
	return params
}

// streamOnce performs one attempt. It returns a nil error after sending
// a terminal event, or the failure plus whether any event was already
// delivered to the caller.
func (p *OpenAICompatProvider) streamOnce(ctx context.Context, params openai.ChatCompletionNewParams, events chan<- model.StreamEvent) (delivered bool, err error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if finished, ok := acc.JustFinishedToolCall(); ok {
			args, valid := ParseToolArguments(finished.Arguments)
			if !valid {
				_ = stream.Close()
				events <- model.StreamEvent{Kind: model.EventFailed, Err: &MalformedStreamError{
					Detail: fmt.Sprintf("tool call %s carries invalid argument JSON", finished.Name),
				}}
				return true, nil
			}
			id := accumulatedCallID(acc, finished.Index)
			if id == "" {
				id = fmt.Sprintf("call_%d", finished.Index)
			}
			events <- model.StreamEvent{Kind: model.EventToolCall, Call: &model.ToolCall{
				ID:        id,
				Name:      finished.Name,
				Arguments: args,
			}}
			delivered = true
		}

		if len(chunk.Choices) > 0 {
			delta := chunk.Choices[0].Delta
			if delta.Content != "" {
				events <- model.StreamEvent{Kind: model.EventTextDelta, Text: delta.Content}
				delivered = true
			}
			if reasoning := extractReasoningDelta(delta); reasoning != "" {
				events <- model.StreamEvent{Kind: model.EventReasoningDelta, Text: reasoning}
				delivered = true
			}
		}
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			events <- model.StreamEvent{Kind: model.EventCancelled}
			return true, nil
		}
		return delivered, err
	}

	if err := validateAssembledCalls(acc); err != nil {
		events <- model.StreamEvent{Kind: model.EventFailed, Err: err}
		return true, nil
	}

	if usage := acc.Usage; usage.TotalTokens > 0 {
		events <- model.StreamEvent{Kind: model.EventUsage, Usage: &model.TokenUsage{
			Prompt:     int(usage.PromptTokens),
			Completion: int(usage.CompletionTokens),
			Total:      int(usage.TotalTokens),
		}}
	}

	events <- model.StreamEvent{Kind: model.EventCompleted}
	return true, nil
}

// accumulatedCallID reads the provider-assigned call id out of the
// accumulator; finished-call notifications only carry name, arguments,
// and index.
func accumulatedCallID(acc openai.ChatCompletionAccumulator, index int) string {
	if len(acc.Choices) == 0 {
		return ""
	}
	calls := acc.Choices[0].Message.ToolCalls
	if index < 0 || index >= len(calls) {
		return ""
	}
	return calls[index].ID
}

// validateAssembledCalls rejects a stream that ended with tool-call
// fragments never closed by a finish event.
func validateAssembledCalls(acc openai.ChatCompletionAccumulator) error {
	if len(acc.Choices) == 0 {
		return nil
	}
	choice := acc.Choices[0]
	for _, call := range choice.Message.ToolCalls {
		if call.Function.Name == "" {
			return &MalformedStreamError{Detail: "tool call fragment without a name was never completed"}
		}
		if !json.Valid([]byte(argsOrEmpty(call.Function.Arguments))) {
			return &MalformedStreamError{Detail: fmt.Sprintf("tool call %s left unterminated argument JSON", call.Function.Name)}
		}
	}
	return nil
}

func argsOrEmpty(args string) string {
	if strings.TrimSpace(args) == "" {
		return "{}"
	}
	return args
}

// extractReasoningDelta pulls the non-standard reasoning channel
// (reasoning_content, or reasoning on some gateways) out of a chunk
// delta's extra fields.
func extractReasoningDelta(delta openai.ChatCompletionChunkChoiceDelta) string {
	for _, key := range []string{"reasoning_content", "reasoning"} {
		field, ok := delta.JSON.ExtraFields[key]
		if !ok {
			continue
		}
		raw := field.Raw()
		if raw == "" || raw == "null" {
			continue
		}
		var text string
		if err := json.Unmarshal([]byte(raw), &text); err != nil {
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}

func (p *OpenAICompatProvider) usageEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.includeUsage
}

func (p *OpenAICompatProvider) disableUsage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.includeUsage = false
}

// ListModels implements model.Provider via the /models endpoint.
func (p *OpenAICompatProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s models: %w", p.id, err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			Name:         displayName(m.ID),
			InternalName: m.ID,
			Provider:     p.id,
		})
	}
	return result, nil
}

// GetModel implements model.Provider.
func (p *OpenAICompatProvider) GetModel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// GetDisplayName implements model.Provider.
func (p *OpenAICompatProvider) GetDisplayName() string {
	return displayName(p.GetModel())
}

// SetModel implements model.Provider.
func (p *OpenAICompatProvider) SetModel(modelName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = modelName
}

// Ping implements model.Provider by listing models.
func (p *OpenAICompatProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", p.id, err)
	}
	return nil
}

// displayName strips a vendor prefix (openrouter-style
// "vendor/model-name") for display.
func displayName(modelID string) string {
	if i := strings.LastIndex(modelID, "/"); i >= 0 {
		return modelID[i+1:]
	}
	return modelID
}
