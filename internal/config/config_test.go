package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
  api_key: secret
llm:
  base_url: http://localhost:11434/v1
  model: llama3
store:
  database_path: ./data/chunks.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("expected debug true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("unexpected api key %q", cfg.Server.APIKey)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("unexpected model %q", cfg.LLM.Model)
	}
	// "./" paths are relative to the config directory.
	want := filepath.Join(dir, "data/chunks.db")
	if cfg.Store.DatabasePath != want {
		t.Errorf("database path = %q, want %q", cfg.Store.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("default top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.KeywordWeight != 0.5 || cfg.Retrieval.SemanticWeight != 0.5 {
		t.Errorf("default weights = %v/%v, want 0.5/0.5", cfg.Retrieval.KeywordWeight, cfg.Retrieval.SemanticWeight)
	}
	if cfg.Embedding.BaseURL != cfg.LLM.BaseURL {
		t.Error("embedding base URL should default to LLM base URL")
	}
	if cfg.LLM.MaxTokens == 0 {
		t.Error("expected default max tokens")
	}
}
