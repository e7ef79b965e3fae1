// Package postgres provides the PostgreSQL + pgvector implementation of
// [vectorsearch.Searcher].
//
// Chunks live in a single kb_chunks table with an HNSW cosine index. The
// pgvector extension must be available in the target database; [Migrate]
// installs it automatically via CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer store.Close()
//
//	chunks, err := store.Search(ctx, vectorsearch.Params{…})
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

var _ vectorsearch.Searcher = (*Store)(nil)

// Store is the PostgreSQL-backed knowledge-base chunk store. It holds a single
// [pgxpool.Pool]; all methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at dsn,
// registers pgvector types on every connection, and runs [Migrate] to ensure
// the kb_chunks table and its indexes exist.
//
// embeddingDimensions must match the output dimension of the configured
// embedding model (e.g., 1536 for OpenAI text-embedding-3-small, 768 for
// nomic-embed-text). Changing this value after the first migration requires a
// manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("chunk store: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so vector columns can
	// be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("chunk store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("chunk store: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("chunk store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Search implements [vectorsearch.Searcher]. Similarity is computed as
// 1 - cosine distance, so results are ordered most-similar first.
func (s *Store) Search(ctx context.Context, p vectorsearch.Params) ([]vectorsearch.Chunk, error) {
	queryVec := pgvector.NewVector(p.Embedding)

	args := []any{queryVec, p.WorkspaceID}
	projectClause := ""
	if p.ProjectID != "" {
		args = append(args, p.ProjectID)
		projectClause = fmt.Sprintf("AND project_id = $%d", len(args))
	}
	args = append(args, p.Limit)
	limitArg := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`
		SELECT id, content, metadata,
		       1 - (embedding <=> $1) AS similarity
		FROM   kb_chunks
		WHERE  workspace_id = $2
		%s
		ORDER  BY embedding <=> $1
		LIMIT  %s`, projectClause, limitArg)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("chunk store: search: %w", err)
	}

	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vectorsearch.Chunk, error) {
		var c vectorsearch.Chunk
		if err := row.Scan(&c.ID, &c.Content, &c.Metadata, &c.Similarity); err != nil {
			return vectorsearch.Chunk{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("chunk store: scan rows: %w", err)
	}
	if chunks == nil {
		chunks = []vectorsearch.Chunk{}
	}
	return chunks, nil
}

// IndexChunk upserts a pre-embedded chunk into the store. A chunk with the
// same id is completely replaced.
func (s *Store) IndexChunk(ctx context.Context, workspaceID, projectID string, chunk vectorsearch.Chunk, embedding []float32) error {
	const q = `
		INSERT INTO kb_chunks (id, workspace_id, project_id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    workspace_id = EXCLUDED.workspace_id,
		    project_id   = EXCLUDED.project_id,
		    content      = EXCLUDED.content,
		    embedding    = EXCLUDED.embedding,
		    metadata     = EXCLUDED.metadata`

	_, err := s.pool.Exec(ctx, q,
		chunk.ID,
		workspaceID,
		projectID,
		chunk.Content,
		pgvector.NewVector(embedding),
		chunk.Metadata,
	)
	if err != nil {
		return fmt.Errorf("chunk store: index chunk: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
