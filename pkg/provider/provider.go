// Package provider defines the static registry of AI providers known to ragcore
// and the resolver that maps a logical capability (text generation or embedding
// generation) to one concrete, credential-validated provider + model pair.
//
// Descriptors are immutable compile-time data. Everything dynamic — which
// provider is the default for a capability, which credentials are present —
// flows in through the [Resolver], so business logic never reads the
// environment directly.
package provider

// Capability is a logical function a provider may support.
type Capability string

const (
	// CapabilityText is plain prompt → text content generation.
	CapabilityText Capability = "text"

	// CapabilityEmbedding is text → dense vector generation.
	CapabilityEmbedding Capability = "embedding"
)

// IsValid reports whether c is a recognised capability.
func (c Capability) IsValid() bool {
	return c == CapabilityText || c == CapabilityEmbedding
}

// Descriptor is the immutable identity of one provider configuration.
type Descriptor struct {
	// ID is the stable identifier used in config, env overrides, and
	// per-request overrides (e.g., "openai", "gemini-pro").
	ID string

	// Label is the human-readable display name.
	Label string

	// Description is public-safe metadata shown by ListProviders.
	Description string

	// Models maps each supported capability to the model used for it.
	Models map[Capability]string

	// FallbackModels maps a capability to a cheaper/faster tier of the same
	// provider, tried exactly once when the primary model fails with an
	// auth-invalid signature. Absent entries mean no downgrade is available.
	FallbackModels map[Capability]string

	// CredentialKey names the credential looked up for this provider
	// (e.g., "OPENAI_API_KEY").
	CredentialKey string
}

// Supports reports whether the descriptor offers a model for c.
func (d Descriptor) Supports(c Capability) bool {
	return d.Models[c] != ""
}

// registry is the ordered table of all known providers. Order matters: when no
// default is configured for a capability, the first entry supporting it wins.
var registry = []Descriptor{
	{
		ID:          "openai",
		Label:       "OpenAI",
		Description: "OpenAI GPT models for generation and text-embedding-3 for retrieval vectors.",
		Models: map[Capability]string{
			CapabilityText:      "gpt-4o-mini",
			CapabilityEmbedding: "text-embedding-3-small",
		},
		CredentialKey: "OPENAI_API_KEY",
	},
	{
		ID:          "gemini",
		Label:       "Google Gemini",
		Description: "Gemini Flash, the low-latency default for text generation.",
		Models: map[Capability]string{
			CapabilityText: "gemini-2.5-flash",
		},
		CredentialKey: "GEMINI_API_KEY",
	},
	{
		ID:          "gemini-pro",
		Label:       "Google Gemini Pro",
		Description: "Gemini Pro for higher-quality generation; downgrades to Flash on key-permission failures.",
		Models: map[Capability]string{
			CapabilityText: "gemini-2.5-pro",
		},
		FallbackModels: map[Capability]string{
			CapabilityText: "gemini-2.5-flash",
		},
		CredentialKey: "GEMINI_API_KEY",
	},
	{
		ID:          "anthropic",
		Label:       "Anthropic",
		Description: "Claude Haiku for fast text generation.",
		Models: map[Capability]string{
			CapabilityText: "claude-3-5-haiku-latest",
		},
		CredentialKey: "ANTHROPIC_API_KEY",
	},
	{
		ID:          "mistral",
		Label:       "Mistral AI",
		Description: "Mistral Small for text generation.",
		Models: map[Capability]string{
			CapabilityText: "mistral-small-latest",
		},
		CredentialKey: "MISTRAL_API_KEY",
	},
	{
		ID:          "ollama",
		Label:       "Ollama",
		Description: "Local inference via an Ollama server; credential key holds the server base URL.",
		Models: map[Capability]string{
			CapabilityText:      "llama3.1",
			CapabilityEmbedding: "nomic-embed-text",
		},
		CredentialKey: "OLLAMA_HOST",
	},
}

// Registry returns the ordered provider table. The returned slice is shared;
// callers must not mutate it.
func Registry() []Descriptor {
	return registry
}

// Lookup returns the descriptor registered under id.
func Lookup(id string) (Descriptor, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
