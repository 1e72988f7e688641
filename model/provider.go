package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts an LLM backend reached through an OpenAI-compatible
// streaming completion endpoint.
//
// The interface lives in the model package (not provider) to avoid import
// cycles: provider implementations import model, and every other package
// can accept a Provider without importing the provider package.
type Provider interface {
	// ChatStream sends the assembled messages (optionally with a tool
	// catalog) and returns an ordered event channel. The channel is
	// closed after exactly one terminal event. Cancelling ctx transitions
	// the request to EventCancelled at the next event boundary.
	ChatStream(ctx context.Context, messages []Message, tools []mcptypes.Tool) <-chan StreamEvent

	// ListModels returns the models available from this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name (the internal
	// name used in API calls).
	GetModel() string

	// GetDisplayName returns the model name formatted for display
	// (vendor prefix stripped where the provider uses one).
	GetDisplayName() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}
