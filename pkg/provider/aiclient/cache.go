package aiclient

import (
	"sync"

	"github.com/doclinea/ragcore/pkg/provider"
)

type cacheKey struct {
	providerID string
	model      string
	capability provider.Capability
}

// Cache holds one [Client] per (provider id, model) pair. Clients are created
// lazily on first request and reused for the process lifetime. The cache is
// owned by the orchestrator's construction scope rather than being a package
// global, so its lifetime and options are explicit.
//
// Safe for concurrent use. Construction is idempotent: the same key always
// yields an equivalent client, so losing a construction race is harmless.
type Cache struct {
	opts []Option

	mu      sync.Mutex
	clients map[cacheKey]*Client
}

// NewCache creates an empty cache. opts are applied to every client it builds.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:    opts,
		clients: make(map[cacheKey]*Client),
	}
}

// Get returns the cached client for res, constructing it on first use.
// Repeated calls with the same (provider, model) return the same instance.
func (c *Cache) Get(res provider.Resolution) (*Client, error) {
	key := cacheKey{providerID: res.ID, model: res.Model, capability: res.Capability}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[key]; ok {
		return client, nil
	}
	client, err := New(res, c.opts...)
	if err != nil {
		return nil, err
	}
	c.clients[key] = client
	return client, nil
}
