package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/observe"
	"github.com/doclinea/ragcore/internal/scope"
	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

// Request carries one context-assembly request through the pipeline.
type Request struct {
	// RawInput is the source material to build context for, e.g. a meeting
	// transcript or document excerpt.
	RawInput string

	// WorkspaceID scopes retrieval to one workspace. Empty means there is
	// nothing to search; the engine returns an empty context.
	WorkspaceID string

	// ProjectID optionally narrows retrieval to one project. Accepts either
	// a project UUID or a human-readable name; see [scope.CanonicalProjectID].
	ProjectID string

	// Focus optionally steers query generation toward a topic.
	Focus string

	// Notes optionally adds free-form guidance for query generation.
	Notes string
}

// Engine is the top-level retrieval pipeline. Construct with [NewEngine];
// safe for concurrent use.
type Engine struct {
	transformer *Transformer
	classifier  *Classifier
	retriever   *Retriever
	reranker    *Reranker
	metrics     *observe.Metrics
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine wires the pipeline stages: ai serves every LLM-backed stage,
// searcher serves retrieval, and cfg supplies the stage limits (defaults are
// applied here).
func NewEngine(ai AI, searcher vectorsearch.Searcher, cfg config.RetrievalConfig, opts ...EngineOption) *Engine {
	cfg = cfg.WithDefaults()
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	e.transformer = NewTransformer(ai, cfg)
	e.classifier = NewClassifier(ai)
	e.retriever = NewRetriever(ai, searcher, cfg)
	e.reranker = NewReranker(ai, cfg, e.metrics)
	return e
}

// BuildContext runs the full pipeline and returns the assembled context
// block. "No usable context" — empty workspace, no queries, no matching
// chunks — returns "" with a nil error; the LLM-backed stages degrade
// internally rather than failing, so an error here is exceptional.
func (e *Engine) BuildContext(ctx context.Context, req Request) (string, error) {
	if req.WorkspaceID == "" {
		slog.Warn("context retrieval skipped: empty workspace id")
		return "", nil
	}
	start := time.Now()

	projectID := scope.CanonicalProjectID(req.ProjectID)

	queries := e.transformer.Transform(ctx, req.RawInput, req.Focus, req.Notes)
	if len(queries) == 0 {
		slog.Info("no search queries produced, returning empty context")
		return "", nil
	}

	intent := e.classifier.Classify(ctx, queries)

	candidates := e.retriever.Retrieve(ctx, queries, req.WorkspaceID, projectID)
	if e.metrics.ChunksRetrieved != nil {
		e.metrics.ChunksRetrieved.Record(ctx, int64(len(candidates)))
	}

	selected := e.reranker.Rerank(ctx, intent, candidates)

	out := AssembleContext(selected)
	if e.metrics.RetrievalDuration != nil {
		e.metrics.RetrievalDuration.Record(ctx, time.Since(start).Seconds())
	}
	slog.Info("context assembled",
		"workspace", req.WorkspaceID,
		"project", projectID,
		"queries", len(queries),
		"intent", intent,
		"candidates", len(candidates),
		"selected", len(selected))
	return out, nil
}
