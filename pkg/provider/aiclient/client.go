// Package aiclient provides the uniform client over heterogeneous AI provider
// back ends. A [Client] is bound to one (provider, model) pair resolved by
// [provider.Resolver] and exposes content generation and embedding generation
// with resilience built in: bounded exponential-backoff retry for transient
// failures and a one-shot model-tier downgrade when the provider rejects the
// credential for the premium tier only.
//
// Text generation is backed by github.com/mozilla-ai/any-llm-go, the unified
// multi-provider interface. Embeddings are backed by the OpenAI API
// (github.com/openai/openai-go) or a local Ollama server.
//
// Clients are cached process-wide by (provider id, model) via [Cache]; they are
// stateless apart from the bound credential and the active model, so reuse for
// the process lifetime needs no teardown.
package aiclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/doclinea/ragcore/internal/resilience"
	"github.com/doclinea/ragcore/pkg/provider"
)

// TextBackend is the minimal surface of a content-generation back end.
type TextBackend interface {
	// Complete sends prompt and returns the full text of the model's reply.
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbedBackend is the minimal surface of an embedding back end.
type EmbedBackend interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, with result[i] corresponding to
	// texts[i] regardless of how the provider orders its batch response.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TextBackendFactory builds a [TextBackend] for a (provider, model, key)
// triple. The client keeps the factory so it can rebuild the backend when it
// downgrades to a fallback model tier.
type TextBackendFactory func(providerID, model, apiKey string) (TextBackend, error)

// Client is a capability-bearing AI client bound to one (provider, model) pair.
// Safe for concurrent use.
type Client struct {
	providerID    string
	apiKey        string
	fallbackModel string
	policy        resilience.Policy
	newText       TextBackendFactory
	embed         EmbedBackend

	mu         sync.Mutex
	model      string
	text       TextBackend
	downgraded bool
}

// Option configures a [Client].
type Option func(*options)

type options struct {
	policy      *resilience.Policy
	textFactory TextBackendFactory
	embed       EmbedBackend
}

// WithRetryPolicy overrides the default retry policy (5 attempts, 2s initial
// delay, 30s cap).
func WithRetryPolicy(p resilience.Policy) Option {
	return func(o *options) { o.policy = &p }
}

// WithTextBackendFactory overrides how text back ends are constructed.
// Used by tests to inject fakes.
func WithTextBackendFactory(f TextBackendFactory) Option {
	return func(o *options) { o.textFactory = f }
}

// WithEmbedBackend overrides the embedding back end. Used by tests.
func WithEmbedBackend(b EmbedBackend) Option {
	return func(o *options) { o.embed = b }
}

// New constructs a [Client] for the given resolution. It fails fast with
// [provider.ErrMissingCredential] when the resolution carries no credential.
func New(res provider.Resolution, opts ...Option) (*Client, error) {
	if strings.TrimSpace(res.APIKey) == "" {
		return nil, fmt.Errorf("aiclient: %w: provider %q", provider.ErrMissingCredential, res.ID)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		providerID:    res.ID,
		apiKey:        res.APIKey,
		model:         res.Model,
		fallbackModel: res.FallbackModel,
		policy:        resilience.DefaultPolicy(),
		newText:       o.textFactory,
		embed:         o.embed,
	}
	if o.policy != nil {
		c.policy = *o.policy
	}
	if c.newText == nil {
		c.newText = newTextBackend
	}

	switch res.Capability {
	case provider.CapabilityText:
		backend, err := c.newText(res.ID, res.Model, res.APIKey)
		if err != nil {
			return nil, fmt.Errorf("aiclient: create text backend for %q: %w", res.ID, err)
		}
		c.text = backend

	case provider.CapabilityEmbedding:
		if c.embed == nil {
			backend, err := newEmbedBackend(res.ID, res.Model, res.APIKey)
			if err != nil {
				return nil, fmt.Errorf("aiclient: create embedding backend for %q: %w", res.ID, err)
			}
			c.embed = backend
		}

	default:
		return nil, fmt.Errorf("aiclient: unknown capability %q", res.Capability)
	}

	return c, nil
}

// ProviderID returns the bound provider id.
func (c *Client) ProviderID() string { return c.providerID }

// ActiveModel returns the model currently in use. It differs from the
// constructed model after a tier downgrade.
func (c *Client) ActiveModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// GenerateContent sends prompt to the bound model and returns the response
// text. Transient failures (HTTP >= 500, 429, network-pattern errors, request
// timeouts) are retried with exponential backoff + jitter per the client's
// retry policy; other failures are returned immediately.
//
// When the call fails with an auth-invalid signature and the provider declares
// a cheaper model tier, the same request is retried once against that tier. If
// the downgraded tier fails the same way, a [*AuthInvalidError] is returned
// carrying the original failure as cause. The downgrade is a single,
// non-looping attempt, distinct from transient-failure retries.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	backend := c.text
	model := c.model
	c.mu.Unlock()
	if backend == nil {
		return "", fmt.Errorf("aiclient: provider %q is not bound for text generation", c.providerID)
	}

	out, err := c.completeWithRetry(ctx, backend, prompt)
	if err == nil || !IsAuthInvalid(err) {
		return out, err
	}

	fallback, ok := c.beginDowngrade()
	if !ok {
		return "", &AuthInvalidError{
			Provider: c.providerID,
			Code:     CodeProviderAuthInvalid,
			Message:  fmt.Sprintf("provider %q rejected the configured API key; check your credentials", c.providerID),
			Cause:    err,
		}
	}

	slog.Warn("auth-invalid on premium tier, downgrading model",
		"provider", c.providerID,
		"from", model,
		"to", fallback)

	downgradedBackend, berr := c.newText(c.providerID, fallback, c.apiKey)
	if berr != nil {
		return "", fmt.Errorf("aiclient: create downgraded backend %q/%q: %w", c.providerID, fallback, berr)
	}
	c.mu.Lock()
	c.text = downgradedBackend
	c.model = fallback
	c.mu.Unlock()

	out, err2 := c.completeWithRetry(ctx, downgradedBackend, prompt)
	if err2 == nil {
		return out, nil
	}
	if IsAuthInvalid(err2) {
		return "", &AuthInvalidError{
			Provider: c.providerID,
			Code:     CodeProviderAuthInvalid,
			Message:  fmt.Sprintf("provider %q rejected the configured API key on both model tiers; check your credentials", c.providerID),
			Cause:    err,
		}
	}
	return "", err2
}

// beginDowngrade claims the one-shot downgrade. It reports false when no
// fallback tier exists or the downgrade was already used.
func (c *Client) beginDowngrade() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallbackModel == "" || c.downgraded {
		return "", false
	}
	c.downgraded = true
	return c.fallbackModel, true
}

func (c *Client) completeWithRetry(ctx context.Context, backend TextBackend, prompt string) (string, error) {
	return resilience.Retry(ctx, c.policy, IsRetryable, func(ctx context.Context) (string, error) {
		return backend.Complete(ctx, prompt)
	})
}

// GenerateEmbedding returns the embedding vector for a single text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.embed == nil {
		return nil, fmt.Errorf("aiclient: provider %q is not bound for embeddings", c.providerID)
	}
	return resilience.Retry(ctx, c.policy, IsRetryable, func(ctx context.Context) ([]float32, error) {
		return c.embed.Embed(ctx, text)
	})
}

// GenerateEmbeddingBatch returns one vector per input text. result[i] always
// corresponds to texts[i]; back ends re-sort by the provider-reported index
// because batch APIs do not guarantee input order.
func (c *Client) GenerateEmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embed == nil {
		return nil, fmt.Errorf("aiclient: provider %q is not bound for embeddings", c.providerID)
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := resilience.Retry(ctx, c.policy, IsRetryable, func(ctx context.Context) ([][]float32, error) {
		return c.embed.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("aiclient: provider %q returned %d embeddings for %d inputs", c.providerID, len(vecs), len(texts))
	}
	return vecs, nil
}
