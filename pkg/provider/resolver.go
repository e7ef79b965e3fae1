package provider

import (
	"fmt"
	"strings"
)

// CredentialSource looks up a credential value by its key (e.g.,
// "OPENAI_API_KEY"). An empty return value means the credential is absent.
// Implementations must never fail; absence is the only error mode.
type CredentialSource func(key string) string

// Resolution is a fully resolved provider binding for one capability: the
// descriptor identity plus the concrete credential and model. Resolutions are
// created per call and never persisted.
type Resolution struct {
	ID     string
	Label  string
	APIKey string
	Model  string

	// FallbackModel is the cheaper tier tried once on auth-invalid failures,
	// or "" when the provider has none for this capability.
	FallbackModel string

	Capability Capability
}

// Resolver maps (capability, optional override) to a [Resolution].
//
// Defaults are injected at construction (typically from the host
// application's config) rather than read from the environment ad hoc.
// A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	creds    CredentialSource
	defaults map[Capability]string
}

// NewResolver creates a Resolver. defaults maps a capability to the configured
// default provider id for it (the `<CAPABILITY>_PROVIDER` surface); missing or
// invalid entries fall back to hardcoded defaults.
func NewResolver(creds CredentialSource, defaults map[Capability]string) *Resolver {
	if creds == nil {
		creds = func(string) string { return "" }
	}
	d := make(map[Capability]string, len(defaults))
	for c, id := range defaults {
		d[c] = Sanitize(id)
	}
	return &Resolver{creds: creds, defaults: d}
}

// Sanitize normalises a caller-supplied provider id: trimmed and lower-cased.
// It never fails; unusable input becomes "".
func Sanitize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// hardcodedDefault is the built-in default provider per capability, used when
// no configured default names a registered provider supporting the capability.
func hardcodedDefault(c Capability) string {
	switch c {
	case CapabilityEmbedding:
		return "openai"
	case CapabilityText:
		return "gemini"
	}
	return ""
}

// DefaultProviderID returns the provider id used for c when no override is
// supplied. Precedence: configured default (if it names a registered provider
// supporting c) → hardcoded default (same check) → first registry entry
// supporting c → "".
func (r *Resolver) DefaultProviderID(c Capability) string {
	if id := r.defaults[c]; id != "" {
		if d, ok := Lookup(id); ok && d.Supports(c) {
			return d.ID
		}
	}
	if id := hardcodedDefault(c); id != "" {
		if d, ok := Lookup(id); ok && d.Supports(c) {
			return d.ID
		}
	}
	for _, d := range registry {
		if d.Supports(c) {
			return d.ID
		}
	}
	return ""
}

// Resolve returns the credential-validated [Resolution] for capability c.
// override, when non-empty, selects a specific provider id; otherwise the
// default for c is used.
//
// Failure modes are exactly the configuration error sentinels:
// [ErrUnsupportedProvider], [ErrCapabilityUnsupported], [ErrMissingCredential].
// On success every field of the Resolution is populated (FallbackModel may be
// empty).
func (r *Resolver) Resolve(c Capability, override string) (Resolution, error) {
	id := Sanitize(override)
	if id == "" {
		id = r.DefaultProviderID(c)
	}
	if id == "" {
		return Resolution{}, fmt.Errorf("%w: no provider offers capability %q", ErrUnsupportedProvider, c)
	}

	d, ok := Lookup(id)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, id)
	}
	model := d.Models[c]
	if model == "" {
		return Resolution{}, fmt.Errorf("%w: %q does not support %q", ErrCapabilityUnsupported, id, c)
	}
	key := strings.TrimSpace(r.creds(d.CredentialKey))
	if key == "" {
		return Resolution{}, fmt.Errorf("%w: %s is not set for provider %q", ErrMissingCredential, d.CredentialKey, id)
	}

	return Resolution{
		ID:            d.ID,
		Label:         d.Label,
		APIKey:        key,
		Model:         model,
		FallbackModel: d.FallbackModels[c],
		Capability:    c,
	}, nil
}

// Info is the public-safe provider metadata returned by [Resolver.ListProviders].
// It deliberately carries no credential material.
type Info struct {
	ID            string       `json:"id"`
	Label         string       `json:"label"`
	Description   string       `json:"description"`
	Capabilities  []Capability `json:"capabilities"`
	HasCredential bool         `json:"has_credential"`
}

// ListProviders returns metadata for every registered provider, in registry
// order. HasCredential reports presence only — the value itself is never
// exposed.
func (r *Resolver) ListProviders() []Info {
	infos := make([]Info, 0, len(registry))
	for _, d := range registry {
		var caps []Capability
		for _, c := range []Capability{CapabilityText, CapabilityEmbedding} {
			if d.Supports(c) {
				caps = append(caps, c)
			}
		}
		infos = append(infos, Info{
			ID:            d.ID,
			Label:         d.Label,
			Description:   d.Description,
			Capabilities:  caps,
			HasCredential: strings.TrimSpace(r.creds(d.CredentialKey)) != "",
		})
	}
	return infos
}
