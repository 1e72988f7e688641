package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings is the on-disk shape of settings.toml.
type Settings struct {
	DataDirectory  string `toml:"data_directory"`
	ActiveProvider string `toml:"active_provider"`
	MaxRounds      int    `toml:"max_rounds"`
	CacheCapacity  int    `toml:"cache_capacity"`

	SecurityMethod string `toml:"security_method"`
	SSHKeyPath     string `toml:"ssh_key_path"`

	Providers []ProviderConfig `toml:"providers"`
}

// LoadSettings reads settings.toml, creating the default template on
// first run.
func LoadSettings() (*Settings, error) {
	settings := &Settings{SecurityMethod: string(SecurityPlainText)}
	path := GetSettingsFilePath()

	if !FileExists(path) {
		if err := CreateDefaultSettings(); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return settings, nil
	}

	if _, err := toml.DecodeFile(path, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.SecurityMethod == "" {
		settings.SecurityMethod = string(SecurityPlainText)
	}
	return settings, nil
}

// SaveSettings writes settings.toml with owner-only permissions.
func SaveSettings(settings *Settings) error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(GetSettingsFilePath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

// CreateDefaultSettings writes the commented template on first run.
func CreateDefaultSettings() error {
	if err := EnsureDir(GetConfigDir()); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := GetSettingsFilePath()
	if FileExists(path) {
		return nil
	}
	if err := os.WriteFile(path, []byte(settingsTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

const settingsTemplate = `# MayaAgent Configuration
# Location: ~/.config/mayagent/settings.toml
# This file uses TOML format: https://toml.io

# Directory where sessions, history, and credentials are stored
data_directory = "~/.local/share/mayagent"

# Active LLM provider: "openai", "deepseek", "ollama", or "openrouter".
# Each provider keeps its own settings below; switching the active
# provider never changes the others.
active_provider = "deepseek"

# Maximum tool-execution round trips per request
max_rounds = 8

# Response cache capacity (entries)
cache_capacity = 200

# Credential storage: "plaintext" (credentials.toml) or "ssh_key"
# (AES-256-GCM, key derived from an SSH key signature)
security_method = "plaintext"
# ssh_key_path = "~/.ssh/mayagent_ed25519"

[[providers]]
id = "deepseek"
name = "DeepSeek"
base_url = "https://api.deepseek.com/v1"
model = "deepseek-chat"
max_tokens = 4096

[[providers]]
id = "openai"
name = "OpenAI"
base_url = "https://api.openai.com/v1"
model = "gpt-4o"
max_tokens = 4096

[[providers]]
id = "ollama"
name = "Ollama"
base_url = "http://localhost:11434"
model = "qwen2.5:14b"
max_tokens = 4096

[[providers]]
id = "openrouter"
name = "OpenRouter"
base_url = "https://openrouter.ai/api/v1"
model = "anthropic/claude-sonnet-4"
max_tokens = 4096
`
