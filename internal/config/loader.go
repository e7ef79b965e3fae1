package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doclinea/ragcore/pkg/provider"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Credentials == nil {
		cfg.Credentials = map[string]string{}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment-style values onto cfg using lookup
// (typically os.Getenv). Recognised keys:
//
//	TEXT_PROVIDER               default text provider id
//	TEXT_PROVIDER_FALLBACK      secondary text provider id
//	EMBEDDING_PROVIDER          default embedding provider id
//	<PROVIDER credential key>   e.g. OPENAI_API_KEY, GEMINI_API_KEY, OLLAMA_HOST
//
// Environment values win over file values, so a deployment can override a
// checked-in config without editing it.
func ApplyEnv(cfg *Config, lookup func(string) string) {
	if v := lookup("TEXT_PROVIDER"); v != "" {
		cfg.Providers.Text.Primary = v
	}
	if v := lookup("TEXT_PROVIDER_FALLBACK"); v != "" {
		cfg.Providers.Text.Fallback = v
	}
	if v := lookup("EMBEDDING_PROVIDER"); v != "" {
		cfg.Providers.Embedding.Primary = v
	}
	if cfg.Credentials == nil {
		cfg.Credentials = map[string]string{}
	}
	for _, d := range provider.Registry() {
		if v := lookup(d.CredentialKey); v != "" {
			cfg.Credentials[d.CredentialKey] = v
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// Hard errors are joined and returned; recoverable oddities are logged.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	warnUnknownProvider("providers.text.primary", cfg.Providers.Text.Primary)
	warnUnknownProvider("providers.text.fallback", cfg.Providers.Text.Fallback)
	warnUnknownProvider("providers.embedding.primary", cfg.Providers.Embedding.Primary)

	if cfg.Retrieval.MaxQueries < 0 {
		errs = append(errs, fmt.Errorf("retrieval.max_queries must not be negative"))
	}
	if cfg.Retrieval.MinScoreThreshold > 100 {
		errs = append(errs, fmt.Errorf("retrieval.min_score_threshold %d is out of range [0, 100]", cfg.Retrieval.MinScoreThreshold))
	}

	if cfg.VectorStore.PostgresDSN != "" && cfg.VectorStore.EmbeddingDimensions <= 0 {
		slog.Warn("vector_store.postgres_dsn is set but vector_store.embedding_dimensions is not; defaulting to 1536")
	}

	return errors.Join(errs...)
}

func warnUnknownProvider(field, id string) {
	if id == "" {
		return
	}
	if _, ok := provider.Lookup(provider.Sanitize(id)); !ok {
		slog.Warn("config references an unknown provider id",
			"field", field,
			"provider", id)
	}
}
