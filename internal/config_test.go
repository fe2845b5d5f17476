package internal

import (
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func TestNewDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestConfigValidate_PortBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should fail validation")
	}
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("port 70000 should fail validation")
	}
}

func TestConfigValidate_LLMKeyRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("openai without api_key should fail")
	}
	cfg.LLM.APIKey = "sk-x"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfigValidate_AuthToken(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	if err := cfg.Validate(); err == nil {
		t.Error("token mode without token should fail")
	}
	cfg.Auth.Token = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !cfg.Auth.AuthEnabled() {
		t.Error("AuthEnabled should be true in token mode")
	}
}

func TestConfigValidate_EmptyAuthModeNormalized(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want disabled", cfg.Auth.Mode)
	}
}

func TestLoadConfig_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_ANSUZ_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: INFO
  workers: 2
  http:
    port: 9090
input:
  path: ./in
  include_patterns: ["*.txt"]
  chunk_size: 4000
vault:
  path: ./vault
sqlite:
  path: ./test.db
llm:
  provider: ollama
  model: llama3.2
linker:
  similarity_threshold: 0.4
  max_links: 3
auth:
  mode: token
  token: ${TEST_ANSUZ_TOKEN}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	if cfg.Linker.MaxLinks != 3 {
		t.Errorf("max_links = %d, want 3", cfg.Linker.MaxLinks)
	}
}

func TestLoadConfig_InvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "app:\n  http:\n    port: -5\nvault:\n  path: ./v\nsqlite:\n  path: ./d\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err == nil {
		t.Error("invalid port should fail validation during load")
	}
}
