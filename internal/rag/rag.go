// Package rag implements the retrieval-augmented context pipeline: raw input
// is transformed into search queries, queries are classified into a scoring
// intent, chunks are retrieved concurrently from the vector store, re-ranked
// against an intent-specific rubric, and assembled into a single context
// block.
//
// Every LLM-backed stage is soft-failing: a provider outage degrades the
// result quality but never aborts the pipeline. The only top-level entry
// point is [Engine.BuildContext].
package rag

import (
	"context"

	"github.com/doclinea/ragcore/internal/orchestrator"
)

// TextGenerator is the text-generation surface the pipeline stages consume.
// Satisfied by [*orchestrator.Orchestrator].
type TextGenerator interface {
	GenerateText(ctx context.Context, req orchestrator.TextRequest) (string, error)
}

// Embedder is the embedding surface the retriever consumes.
// Satisfied by [*orchestrator.Orchestrator].
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// AI combines the two provider surfaces the engine needs.
type AI interface {
	TextGenerator
	Embedder
}
