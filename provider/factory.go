package provider

import (
	"fmt"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/model"
)

// NewProvider creates a provider bound to one ProviderConfig.
//
// Every supported backend speaks the OpenAI-compatible wire contract,
// so openai, deepseek, and openrouter share one implementation with
// different endpoints; ollama adds native model discovery on top.
func NewProvider(cfg config.ProviderConfig) (model.Provider, error) {
	switch cfg.ID {
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	case config.ProviderOpenAI, config.ProviderDeepSeek, config.ProviderOpenRouter:
		return NewOpenAICompatProvider(cfg.ID, cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.ID)
	}
}
