package rag

import (
	"context"
	"log/slog"
	"sort"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/observe"
	"github.com/doclinea/ragcore/internal/orchestrator"
	"github.com/doclinea/ragcore/internal/prompt"
	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

// previewChars bounds each candidate excerpt in the re-ranking prompt so a
// large candidate set stays within a single prompt.
const previewChars = 500

// Reranker selects the final top-N chunks using an intent-specific rubric.
type Reranker struct {
	ai       TextGenerator
	topN     int
	minScore int
	metrics  *observe.Metrics
}

// NewReranker creates a Reranker. cfg should already have defaults applied.
func NewReranker(ai TextGenerator, cfg config.RetrievalConfig, metrics *observe.Metrics) *Reranker {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Reranker{
		ai:       ai,
		topN:     cfg.TopN,
		minScore: cfg.MinScoreThreshold,
		metrics:  metrics,
	}
}

// Rerank returns at most topN candidates, best first. Candidate sets that
// already fit within topN are returned unchanged — there is nothing to filter
// and an LLM call would be pure cost. Any re-ranking failure (provider outage,
// malformed response) degrades to raw similarity ordering so the pipeline
// always terminates with a ranked result.
func (r *Reranker) Rerank(ctx context.Context, intent Intent, candidates []vectorsearch.Chunk) []vectorsearch.Chunk {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) <= r.topN {
		return append([]vectorsearch.Chunk(nil), candidates...)
	}

	selected, err := r.rerankLLM(ctx, intent, candidates)
	if err != nil {
		slog.Warn("re-ranking failed, falling back to similarity ordering",
			"intent", intent, "candidates", len(candidates), "error", err)
		if r.metrics.RerankFallbacks != nil {
			r.metrics.RerankFallbacks.Add(ctx, 1)
		}
		return r.similarityFallback(candidates)
	}
	return selected
}

// rankEntry is one parsed {id, score} element of the model's JSON reply.
// Parsed as loose maps first so a single malformed entry is dropped instead of
// poisoning the whole array.
type rankEntry struct {
	id    int
	score float64
}

func (r *Reranker) rerankLLM(ctx context.Context, intent Intent, candidates []vectorsearch.Chunk) ([]vectorsearch.Chunk, error) {
	rb := rubricFor(intent)

	rows := make([]prompt.RerankCandidate, len(candidates))
	for i, c := range candidates {
		rows[i] = prompt.RerankCandidate{
			Index:   i,
			Preview: truncateRunes(c.Content, previewChars),
		}
	}
	p, err := prompt.Rerank(prompt.RerankData{
		Persona:    rb.persona,
		Tiers:      rb.tiers,
		Candidates: rows,
	})
	if err != nil {
		return nil, err
	}

	resp, err := r.ai.GenerateText(ctx, orchestrator.TextRequest{Prompt: p})
	if err != nil {
		return nil, err
	}

	raw, err := ParseJSONArray[map[string]any](resp)
	if err != nil {
		return nil, err
	}

	var entries []rankEntry
	for _, m := range raw {
		id, okID := m["id"].(float64)
		score, okScore := m["score"].(float64)
		if !okID || !okScore {
			continue
		}
		if score < float64(r.minScore) {
			continue
		}
		entries = append(entries, rankEntry{id: int(id), score: score})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	var selected []vectorsearch.Chunk
	picked := make(map[int]bool)
	for _, e := range entries {
		if len(selected) == r.topN {
			break
		}
		if e.id < 0 || e.id >= len(candidates) || picked[e.id] {
			continue
		}
		picked[e.id] = true
		selected = append(selected, candidates[e.id])
	}
	return selected, nil
}

// similarityFallback orders all candidates by their raw similarity score
// descending (missing similarity sorts as 0) and keeps the first topN.
func (r *Reranker) similarityFallback(candidates []vectorsearch.Chunk) []vectorsearch.Chunk {
	sorted := append([]vectorsearch.Chunk(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Similarity > sorted[j].Similarity })
	if len(sorted) > r.topN {
		sorted = sorted[:r.topN]
	}
	return sorted
}
