package config

import (
	"strings"
	"testing"
)

func TestLoadFromReader_Full(t *testing.T) {
	yml := `
log_level: debug
providers:
  text:
    primary: gemini
    fallback: openai
  embedding:
    primary: openai
credentials:
  GEMINI_API_KEY: from-file
retrieval:
  max_queries: 3
  top_n: 7
vector_store:
  postgres_dsn: postgres://localhost/ragcore
  embedding_dimensions: 1536
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.Text.Primary != "gemini" || cfg.Providers.Text.Fallback != "openai" {
		t.Errorf("text chain = %+v", cfg.Providers.Text)
	}
	if cfg.Credentials["GEMINI_API_KEY"] != "from-file" {
		t.Errorf("credentials = %v", cfg.Credentials)
	}
	r := cfg.Retrieval.WithDefaults()
	if r.MaxQueries != 3 || r.TopN != 7 {
		t.Errorf("explicit retrieval values lost: %+v", r)
	}
	if r.ChunksPerQuery != DefaultChunksPerQuery || r.MinScoreThreshold != DefaultMinScoreThreshold {
		t.Errorf("defaults not applied: %+v", r)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty config should load: %v", err)
	}
	r := cfg.Retrieval.WithDefaults()
	if r.MaxQueries != 4 || r.MaxInputChars != 2000 || r.ChunksPerQuery != 10 || r.TopN != 5 || r.MinScoreThreshold != 40 {
		t.Errorf("defaults = %+v", r)
	}
}

func TestLoadFromReader_InvalidLogLevel(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("log_level: loud\n"))
	if err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("no_such_field: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown yaml field")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TEXT_PROVIDER":          "anthropic",
		"TEXT_PROVIDER_FALLBACK": "mistral",
		"EMBEDDING_PROVIDER":     "ollama",
		"OPENAI_API_KEY":         "sk-env",
	}
	cfg := &Config{
		Providers: ProvidersConfig{
			Text: TextChainConfig{Primary: "gemini"},
		},
		Credentials: map[string]string{"OPENAI_API_KEY": "sk-file"},
	}
	ApplyEnv(cfg, func(k string) string { return env[k] })

	if cfg.Providers.Text.Primary != "anthropic" {
		t.Errorf("Primary = %q, want env to win over file", cfg.Providers.Text.Primary)
	}
	if cfg.Providers.Text.Fallback != "mistral" {
		t.Errorf("Fallback = %q", cfg.Providers.Text.Fallback)
	}
	if cfg.Providers.Embedding.Primary != "ollama" {
		t.Errorf("Embedding = %q", cfg.Providers.Embedding.Primary)
	}
	if cfg.Credentials["OPENAI_API_KEY"] != "sk-env" {
		t.Errorf("credential = %q, want sk-env", cfg.Credentials["OPENAI_API_KEY"])
	}
}

func TestProviderDefaults(t *testing.T) {
	cfg := &Config{Providers: ProvidersConfig{
		Text:      TextChainConfig{Primary: "gemini"},
		Embedding: SelectionConfig{Primary: "openai"},
	}}
	d := cfg.ProviderDefaults()
	if d["text"] != "gemini" || d["embedding"] != "openai" {
		t.Errorf("defaults = %v", d)
	}
}
