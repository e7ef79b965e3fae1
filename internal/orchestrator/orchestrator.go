// Package orchestrator builds and executes provider fallback chains on top of
// the resolver and the AI client cache.
//
// Text generation walks an ordered chain (explicit override → configured
// primary → configured fallback), returning the first success; each entry is
// guarded by its own circuit breaker so a provider that keeps failing is
// skipped without a network call. Embedding generation is deliberately not
// chained: silently switching embedding providers would mix vector spaces of
// different dimensionality in the same index, corrupting downstream search.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/observe"
	"github.com/doclinea/ragcore/internal/resilience"
	"github.com/doclinea/ragcore/pkg/provider"
	"github.com/doclinea/ragcore/pkg/provider/aiclient"
)

// TextRequest carries one text-generation request through the orchestrator.
type TextRequest struct {
	// Prompt is the full prompt text. Must be non-empty.
	Prompt string

	// Provider optionally forces a specific provider id, placed at the head
	// of the fallback chain.
	Provider string
}

// Orchestrator owns the client cache and the per-provider circuit breakers.
// Safe for concurrent use.
type Orchestrator struct {
	resolver    *provider.Resolver
	clients     *aiclient.Cache
	chain       config.TextChainConfig
	metrics     *observe.Metrics
	callTimeout time.Duration

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithCallTimeout bounds each provider call so a hung back end cannot stall
// the pipeline. Default: 90s. Timeout expiry is classified like any other
// transient failure.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// New creates an Orchestrator. chain holds the configured text-generation
// primary/fallback provider ids; clients is the shared client cache.
func New(resolver *provider.Resolver, clients *aiclient.Cache, chain config.TextChainConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:    resolver,
		clients:     clients,
		chain:       chain,
		callTimeout: 90 * time.Second,
		breakers:    make(map[string]*resilience.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// textChain resolves the ordered, deduplicated fallback chain for a request:
// explicit override, then the configured primary, then the configured
// fallback. Entries that fail to resolve are skipped.
func (o *Orchestrator) textChain(override string) []provider.Resolution {
	var chain []provider.Resolution
	seen := make(map[string]bool, 3)
	for _, id := range []string{override, o.chain.Primary, o.chain.Fallback} {
		id = provider.Sanitize(id)
		if id == "" {
			continue
		}
		res, err := o.resolver.Resolve(provider.CapabilityText, id)
		if err != nil {
			slog.Debug("skipping unresolvable chain entry",
				"provider", id, "error", err)
			continue
		}
		if seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		chain = append(chain, res)
	}
	return chain
}

// GenerateText runs req against the fallback chain and returns the first
// successful response. When every entry fails, the error of the last entry is
// returned as-is so callers see the most recent concrete failure. An empty
// chain fails with [provider.ErrNoProviderConfigured].
func (o *Orchestrator) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	chain := o.textChain(req.Provider)
	if len(chain) == 0 {
		return "", fmt.Errorf("orchestrator: %w for text generation", provider.ErrNoProviderConfigured)
	}

	var lastErr error
	for _, res := range chain {
		client, err := o.clients.Get(res)
		if err != nil {
			slog.Warn("cannot build client, trying next provider",
				"provider", res.ID, "error", err)
			lastErr = err
			continue
		}

		var out string
		start := time.Now()
		err = o.breaker(res).Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
			defer cancel()
			var callErr error
			out, callErr = client.GenerateContent(callCtx, req.Prompt)
			return callErr
		})
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			o.metrics.RecordProviderCall(ctx, res.ID, "text", time.Since(start).Seconds(), err)
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, resilience.ErrCircuitOpen) {
			slog.Debug("skipping provider (circuit open)", "provider", res.ID)
		} else {
			slog.Warn("provider failed, trying next",
				"provider", res.ID, "model", client.ActiveModel(), "error", err)
		}
	}
	return "", lastErr
}

// GenerateEmbedding resolves exactly one embedding provider (configured
// default, else hardcoded default) and returns the vector for text. Failures
// propagate immediately — there is no fallback chain for embeddings.
func (o *Orchestrator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	client, res, err := o.embeddingClient()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	vec, err := client.GenerateEmbedding(callCtx, text)
	o.metrics.RecordProviderCall(ctx, res.ID, "embedding", time.Since(start).Seconds(), err)
	return vec, err
}

// GenerateEmbeddingBatch is the batched variant of [GenerateEmbedding].
// result[i] corresponds to texts[i].
func (o *Orchestrator) GenerateEmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	client, res, err := o.embeddingClient()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	vecs, err := client.GenerateEmbeddingBatch(callCtx, texts)
	o.metrics.RecordProviderCall(ctx, res.ID, "embedding", time.Since(start).Seconds(), err)
	return vecs, err
}

func (o *Orchestrator) embeddingClient() (*aiclient.Client, provider.Resolution, error) {
	res, err := o.resolver.Resolve(provider.CapabilityEmbedding, "")
	if err != nil {
		return nil, provider.Resolution{}, fmt.Errorf("orchestrator: resolve embedding provider: %w", err)
	}
	client, err := o.clients.Get(res)
	if err != nil {
		return nil, provider.Resolution{}, fmt.Errorf("orchestrator: embedding client for %q: %w", res.ID, err)
	}
	return client, res, nil
}

func (o *Orchestrator) breaker(res provider.Resolution) *resilience.CircuitBreaker {
	key := res.ID + "/" + res.Model
	o.mu.Lock()
	defer o.mu.Unlock()
	cb, ok := o.breakers[key]
	if !ok {
		cb = resilience.NewCircuitBreaker(resilience.BreakerConfig{Name: key})
		o.breakers[key] = cb
	}
	return cb
}
