// Package vectorsearch defines the scoped vector-search contract used by the
// retrieval pipeline: a query embedding plus workspace/project scope in, a
// similarity-ranked list of knowledge-base chunks out.
//
// The canonical implementation is [postgres.Store]; the mock subpackage
// provides an in-memory fake for tests.
package vectorsearch

import (
	"context"
	"fmt"
)

// Params are the inputs for one scoped similarity search.
type Params struct {
	// Embedding is the query vector. Its dimension must match the index.
	Embedding []float32

	// WorkspaceID scopes the search to one workspace. Required.
	WorkspaceID string

	// ProjectID optionally narrows the search to one canonical project scope
	// id. Empty means "all projects in the workspace".
	ProjectID string

	// Limit caps the number of returned chunks.
	Limit int
}

// Chunk is one unit of indexed knowledge-base content returned by a search.
type Chunk struct {
	// ID uniquely identifies the chunk across queries. Content for a given
	// id is stable.
	ID string

	// Content is the chunk text.
	Content string

	// Similarity is the cosine similarity to the query embedding, in [0, 1],
	// higher is closer.
	Similarity float64

	// Metadata carries arbitrary per-chunk attributes from indexing time,
	// e.g. the source document name.
	Metadata map[string]any
}

// SourceLabel returns a human-readable origin for the chunk: the metadata
// source field when present, otherwise a positional placeholder using the
// 1-based position n.
func (c Chunk) SourceLabel(n int) string {
	for _, key := range []string{"source", "source_file", "file_name"} {
		if v, ok := c.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("Unknown Source %d", n)
}

// Searcher is the vector-search surface consumed by the retriever.
type Searcher interface {
	// Search returns up to p.Limit chunks ranked by descending similarity.
	// No matches is a nil/empty slice, not an error.
	Search(ctx context.Context, p Params) ([]Chunk, error)
}
