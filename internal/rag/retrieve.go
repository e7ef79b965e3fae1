package rag

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

// Retriever fans one embedding + vector search out per query and merges the
// results into a deduplicated candidate list.
type Retriever struct {
	embedder       Embedder
	searcher       vectorsearch.Searcher
	chunksPerQuery int
}

// NewRetriever creates a Retriever. cfg should already have defaults applied.
func NewRetriever(embedder Embedder, searcher vectorsearch.Searcher, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		embedder:       embedder,
		searcher:       searcher,
		chunksPerQuery: cfg.ChunksPerQuery,
	}
}

// Retrieve runs all queries concurrently against the vector store, scoped to
// workspaceID and the optional canonical projectID, and returns the merged
// candidates.
//
// Failures are isolated per query: a query whose embedding or search fails
// contributes zero chunks and is logged, without cancelling its siblings.
// Merge order is deterministic: chunks appear in query order, and the first
// occurrence of a chunk id wins.
func (r *Retriever) Retrieve(ctx context.Context, queries []string, workspaceID, projectID string) []vectorsearch.Chunk {
	if len(queries) == 0 {
		return nil
	}

	// Index-addressed so concurrent completion cannot scramble query order.
	perQuery := make([][]vectorsearch.Chunk, len(queries))

	var g errgroup.Group
	for i, query := range queries {
		g.Go(func() error {
			embedding, err := r.embedder.GenerateEmbedding(ctx, query)
			if err != nil {
				slog.Warn("embedding failed, query contributes no chunks",
					"query", query, "error", err)
				return nil
			}
			if len(embedding) == 0 {
				slog.Warn("empty embedding, query contributes no chunks", "query", query)
				return nil
			}

			chunks, err := r.searcher.Search(ctx, vectorsearch.Params{
				Embedding:   embedding,
				WorkspaceID: workspaceID,
				ProjectID:   projectID,
				Limit:       r.chunksPerQuery,
			})
			if err != nil {
				slog.Warn("vector search failed, query contributes no chunks",
					"query", query, "error", err)
				return nil
			}
			perQuery[i] = chunks
			return nil
		})
	}
	// Goroutines only ever return nil; errgroup is used for the join.
	_ = g.Wait()

	return dedupeChunks(perQuery)
}

// dedupeChunks flattens per-query results in query order, keeping the first
// occurrence of each chunk id. Chunk content for a given id is stable across
// queries, so the winner choice only needs to be deterministic.
func dedupeChunks(perQuery [][]vectorsearch.Chunk) []vectorsearch.Chunk {
	var merged []vectorsearch.Chunk
	seen := make(map[string]bool)
	for _, chunks := range perQuery {
		for _, c := range chunks {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}
	return merged
}
