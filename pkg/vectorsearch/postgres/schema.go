package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlChunks returns the kb_chunks DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlChunks(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS kb_chunks (
    id            TEXT         PRIMARY KEY,
    workspace_id  TEXT         NOT NULL,
    project_id    TEXT         NOT NULL DEFAULT '',
    content       TEXT         NOT NULL,
    embedding     vector(%d),
    metadata      JSONB        NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_kb_chunks_workspace
    ON kb_chunks (workspace_id);

CREATE INDEX IF NOT EXISTS idx_kb_chunks_workspace_project
    ON kb_chunks (workspace_id, project_id);

CREATE INDEX IF NOT EXISTS idx_kb_chunks_embedding
    ON kb_chunks USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures the kb_chunks table, its scope indexes, and the
// HNSW vector index exist. It is idempotent and safe to call on every
// application start.
//
// embeddingDimensions must match the vector model configured for your
// deployment. Changing it after the first migration requires a manual schema
// update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	if _, err := pool.Exec(ctx, ddlChunks(embeddingDimensions)); err != nil {
		return fmt.Errorf("chunk store migrate: %w", err)
	}
	return nil
}
