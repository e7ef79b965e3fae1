package provider

import "errors"

// Configuration errors. All of them are fatal to the call that triggered them
// and are never retried.
var (
	// ErrMissingCredential indicates the provider resolved but its credential
	// lookup yielded nothing.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrUnsupportedProvider indicates the requested provider id is not in the
	// registry.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrCapabilityUnsupported indicates the provider exists but offers no model
	// for the requested capability.
	ErrCapabilityUnsupported = errors.New("capability not supported by provider")

	// ErrNoProviderConfigured indicates that no provider could be resolved at
	// all for a request (empty fallback chain).
	ErrNoProviderConfigured = errors.New("no provider configured")
)
