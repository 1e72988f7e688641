package config

// Supported provider identifiers.
const (
	ProviderOpenAI     = "openai"
	ProviderDeepSeek   = "deepseek"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// Default endpoints and models.
const (
	DefaultOpenAIURL     = "https://api.openai.com/v1"
	DefaultDeepSeekURL   = "https://api.deepseek.com/v1"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	DefaultOpenAIModel     = "gpt-4o"
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultOllamaModel     = "qwen2.5:14b"
	DefaultOpenRouterModel = "anthropic/claude-sonnet-4"

	DefaultMaxTokens = 4096
)

// ProviderConfig holds one provider's settings. All configured
// providers are co-resident; switching the active provider never
// mutates the others.
type ProviderConfig struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	MaxTokens int64  `toml:"max_tokens"`

	// APIKey is resolved from the credential store at runtime and is
	// never written to the settings file.
	APIKey string `toml:"-"`
}

// DefaultConfig returns the built-in configuration with every
// supported provider preconfigured.
func DefaultConfig() *Config {
	return &Config{
		DataDirectory:  "~/.local/share/mayagent",
		ActiveProvider: ProviderDeepSeek,
		MaxRounds:      8,
		CacheCapacity:  200,
		Providers: map[string]*ProviderConfig{
			ProviderOpenAI: {
				ID:        ProviderOpenAI,
				Name:      "OpenAI",
				BaseURL:   DefaultOpenAIURL,
				Model:     DefaultOpenAIModel,
				MaxTokens: DefaultMaxTokens,
			},
			ProviderDeepSeek: {
				ID:        ProviderDeepSeek,
				Name:      "DeepSeek",
				BaseURL:   DefaultDeepSeekURL,
				Model:     DefaultDeepSeekModel,
				MaxTokens: DefaultMaxTokens,
			},
			ProviderOllama: {
				ID:        ProviderOllama,
				Name:      "Ollama",
				BaseURL:   DefaultOllamaURL,
				Model:     DefaultOllamaModel,
				MaxTokens: DefaultMaxTokens,
			},
			ProviderOpenRouter: {
				ID:        ProviderOpenRouter,
				Name:      "OpenRouter",
				BaseURL:   DefaultOpenRouterURL,
				Model:     DefaultOpenRouterModel,
				MaxTokens: DefaultMaxTokens,
			},
		},
	}
}
