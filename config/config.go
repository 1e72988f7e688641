// Package config loads and persists engine settings: the active
// provider, per-provider endpoints and models, cache tuning, and the
// credential store. Settings live in TOML files under the user's config
// and data directories, with MAYAGENT_* environment overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDirectory  string
	ActiveProvider string
	Providers      map[string]*ProviderConfig

	// Orchestration tuning.
	MaxRounds     int
	CacheCapacity int

	CredentialStore *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Provider returns the active ProviderConfig with its API key resolved
// from the credential store. Switching the active provider selects a
// different entry; the others keep their settings untouched.
func (c *Config) Provider() (*ProviderConfig, error) {
	pc, ok := c.Providers[c.ActiveProvider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", c.ActiveProvider)
	}
	if pc.APIKey == "" && c.CredentialStore != nil {
		pc.APIKey = c.CredentialStore.Get(pc.ID)
	}
	return pc, nil
}

// SetActiveProvider switches providers. Only the selector changes;
// every ProviderConfig keeps its own endpoint, model, and key.
func (c *Config) SetActiveProvider(id string) error {
	if _, ok := c.Providers[id]; !ok {
		return fmt.Errorf("unknown provider: %s", id)
	}
	c.ActiveProvider = id
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("MAYAGENT_DATA_DIR"); dir != "" {
		c.DataDirectory = dir
	}
	if id := os.Getenv("MAYAGENT_PROVIDER"); id != "" {
		c.ActiveProvider = id
	}
	if pc, ok := c.Providers[c.ActiveProvider]; ok {
		if base := os.Getenv("MAYAGENT_API_BASE"); base != "" {
			pc.BaseURL = base
		}
		if key := os.Getenv("MAYAGENT_API_KEY"); key != "" {
			pc.APIKey = key
		}
		if m := os.Getenv("MAYAGENT_MODEL"); m != "" {
			pc.Model = m
		}
	}
}

// CheckDebug reports whether debug logging is requested.
func CheckDebug() bool {
	debug := os.Getenv("MAYAGENT_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens the debug log under the data directory. The file
// is 0600 since debug output can include request details.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (MAYAGENT_DEBUG=%s) ===", os.Getenv("MAYAGENT_DEBUG"))
}

// Load resolves the full configuration: defaults, then the settings
// files, then environment overrides. The data directory is created
// with owner-only permissions on first run.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	settings, err := LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.DataDirectory != "" {
		cfg.DataDirectory = settings.DataDirectory
	}
	if settings.ActiveProvider != "" {
		cfg.ActiveProvider = settings.ActiveProvider
	}
	if settings.MaxRounds > 0 {
		cfg.MaxRounds = settings.MaxRounds
	}
	if settings.CacheCapacity > 0 {
		cfg.CacheCapacity = settings.CacheCapacity
	}
	for _, pc := range settings.Providers {
		known, ok := cfg.Providers[pc.ID]
		if !ok {
			cfg.Providers[pc.ID] = clonedProvider(pc)
			continue
		}
		if pc.BaseURL != "" {
			known.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			known.Model = pc.Model
		}
		if pc.MaxTokens > 0 {
			known.MaxTokens = pc.MaxTokens
		}
	}

	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	store := NewCredentialStore(SecurityMethod(settings.SecurityMethod), settings.SSHKeyPath)
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store

	return cfg, nil
}

func clonedProvider(pc ProviderConfig) *ProviderConfig {
	clone := pc
	return &clone
}
