package config

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestDefaultConfigProviders(t *testing.T) {
	cfg := DefaultConfig()

	for _, id := range []string{ProviderOpenAI, ProviderDeepSeek, ProviderOllama, ProviderOpenRouter} {
		pc, ok := cfg.Providers[id]
		if !ok {
			t.Fatalf("missing default provider %q", id)
		}
		if pc.BaseURL == "" || pc.Model == "" {
			t.Errorf("provider %q has empty defaults: %+v", id, pc)
		}
	}

	if cfg.ActiveProvider != ProviderDeepSeek {
		t.Errorf("ActiveProvider = %q, want %q", cfg.ActiveProvider, ProviderDeepSeek)
	}
	if cfg.MaxRounds != 8 {
		t.Errorf("MaxRounds = %d, want 8", cfg.MaxRounds)
	}
}

func TestSetActiveProvider(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.SetActiveProvider(ProviderOllama); err != nil {
		t.Fatalf("SetActiveProvider(ollama) failed: %v", err)
	}
	if cfg.ActiveProvider != ProviderOllama {
		t.Errorf("ActiveProvider = %q, want %q", cfg.ActiveProvider, ProviderOllama)
	}

	if err := cfg.SetActiveProvider("nonexistent"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if cfg.ActiveProvider != ProviderOllama {
		t.Error("failed switch should not change the active provider")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAYAGENT_PROVIDER", ProviderOpenAI)
	t.Setenv("MAYAGENT_API_BASE", "http://localhost:9999/v1")
	t.Setenv("MAYAGENT_API_KEY", "sk-test")
	t.Setenv("MAYAGENT_MODEL", "gpt-test")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.ActiveProvider != ProviderOpenAI {
		t.Errorf("ActiveProvider = %q, want %q", cfg.ActiveProvider, ProviderOpenAI)
	}
	pc := cfg.Providers[ProviderOpenAI]
	if pc.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %q", pc.BaseURL)
	}
	if pc.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", pc.APIKey)
	}
	if pc.Model != "gpt-test" {
		t.Errorf("Model = %q", pc.Model)
	}

	// Other providers keep their settings.
	if cfg.Providers[ProviderDeepSeek].Model != DefaultDeepSeekModel {
		t.Error("env override leaked into another provider")
	}
}

func TestProviderResolvesKeyFromStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CredentialStore = NewCredentialStore(SecurityPlainText, "")
	cfg.CredentialStore.Set(ProviderDeepSeek, "sk-stored")

	pc, err := cfg.Provider()
	if err != nil {
		t.Fatalf("Provider() failed: %v", err)
	}
	if pc.APIKey != "sk-stored" {
		t.Errorf("APIKey = %q, want key from credential store", pc.APIKey)
	}
}

func TestCredentialStorePlainTextRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore(SecurityPlainText, "")
	store.Set("deepseek", "sk-aaa")
	store.Set("openrouter", "sk-bbb")
	store.Delete("openrouter")

	if err := store.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewCredentialStore(SecurityPlainText, "")
	if err := reloaded.Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := reloaded.Get("deepseek"); got != "sk-aaa" {
		t.Errorf("Get(deepseek) = %q, want sk-aaa", got)
	}
	if got := reloaded.Get("openrouter"); got != "" {
		t.Errorf("deleted key survived reload: %q", got)
	}
}

func TestCredentialStoreLoadMissingFile(t *testing.T) {
	store := NewCredentialStore(SecurityPlainText, "")
	if err := store.Load(t.TempDir()); err != nil {
		t.Fatalf("missing credentials file should not be an error: %v", err)
	}
	if got := store.Get("anything"); got != "" {
		t.Errorf("empty store returned %q", got)
	}
}

func TestAESGCMRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	plaintext := []byte(`{"deepseek":"sk-secret"}`)

	encrypted, err := encryptAESGCM(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(encrypted, []byte("sk-secret")) {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := decryptAESGCM(encrypted, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip mismatch: %q", decrypted)
	}
}

func TestAESGCMTamperDetection(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)

	encrypted, err := encryptAESGCM([]byte("payload"), key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	encrypted[len(encrypted)-1] ^= 0xff

	if _, err := decryptAESGCM(encrypted, key); err == nil {
		t.Error("tampered ciphertext decrypted without error")
	}
}

func TestAESGCMShortCiphertext(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	if _, err := decryptAESGCM([]byte{1, 2, 3}, key); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
}

func TestDeriveAESKeyDeterministic(t *testing.T) {
	// ED25519 signatures are deterministic, so the same key must
	// always derive the same AES key.
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	k1, err := deriveAESKeyFromSSH(signer)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	k2, err := deriveAESKeyFromSSH(signer)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("derived keys differ across calls")
	}
	if len(k1) != 32 {
		t.Errorf("derived key length = %d, want 32", len(k1))
	}
}

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()
	if home == "" {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~/.local/share/mayagent", home + "/.local/share/mayagent"},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
