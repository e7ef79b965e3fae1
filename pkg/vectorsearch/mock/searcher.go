// Package mock provides an in-memory [vectorsearch.Searcher] for tests.
package mock

import (
	"context"
	"sync"

	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

// Searcher is a configurable fake. Set SearchFunc for full control, or leave
// it nil and populate Chunks to return the same ranked list for every call.
// Calls are recorded and retrievable via [Searcher.Calls].
type Searcher struct {
	SearchFunc func(ctx context.Context, p vectorsearch.Params) ([]vectorsearch.Chunk, error)
	Chunks     []vectorsearch.Chunk

	mu    sync.Mutex
	calls []vectorsearch.Params
}

var _ vectorsearch.Searcher = (*Searcher)(nil)

// Search implements [vectorsearch.Searcher].
func (s *Searcher) Search(ctx context.Context, p vectorsearch.Params) ([]vectorsearch.Chunk, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()

	if s.SearchFunc != nil {
		return s.SearchFunc(ctx, p)
	}
	chunks := s.Chunks
	if p.Limit > 0 && len(chunks) > p.Limit {
		chunks = chunks[:p.Limit]
	}
	return append([]vectorsearch.Chunk(nil), chunks...), nil
}

// Calls returns a copy of every Params value passed to Search so far.
func (s *Searcher) Calls() []vectorsearch.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vectorsearch.Params(nil), s.calls...)
}
