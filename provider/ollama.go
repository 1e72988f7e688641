package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/model"
)

// OllamaProvider serves a local Ollama instance. Chat goes through the
// server's OpenAI-compatible endpoint (/v1) like every other provider;
// only model discovery and health checks use the native API, which
// reports model sizes the compatibility layer omits.
type OllamaProvider struct {
	*OpenAICompatProvider
	native *api.Client
}

// NewOllamaProvider builds a provider for an Ollama server base URL
// such as "http://localhost:11434".
func NewOllamaProvider(baseURL, modelName string, maxTokens int64) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = config.DefaultOllamaURL
	}
	if modelName == "" {
		modelName = config.DefaultOllamaModel
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	native := api.NewClient(parsed, http.DefaultClient)

	compat, err := NewOpenAICompatProvider(
		config.ProviderOllama,
		strings.TrimRight(baseURL, "/")+"/v1",
		"ollama", // the compat endpoint ignores the key but the SDK wants one
		modelName,
		maxTokens,
	)
	if err != nil {
		return nil, err
	}

	return &OllamaProvider{OpenAICompatProvider: compat, native: native}, nil
}

// ListModels overrides the compat implementation with the native list
// call, which includes local model sizes.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := p.native.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ollama models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		result = append(result, model.ModelInfo{
			Name:         m.Name,
			InternalName: m.Name,
			Size:         m.Size,
			Provider:     config.ProviderOllama,
		})
	}
	return result, nil
}

// Ping overrides the compat implementation with the native version
// endpoint, which works even when no models are pulled yet.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	if _, err := p.native.Version(ctx); err != nil {
		return fmt.Errorf("ollama ping failed: %w", err)
	}
	return nil
}
