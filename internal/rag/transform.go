package rag

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/orchestrator"
	"github.com/doclinea/ragcore/internal/prompt"
)

// fallbackQuery is the last-resort query used when the transformer has
// literally nothing usable to search with. A non-empty query keeps the
// pipeline moving instead of stalling on an empty search.
const fallbackQuery = "informazioni generali pertinenti"

// substringFallbackChars is how much of the raw input survives into the
// deterministic fallback query when the LLM is unavailable.
const substringFallbackChars = 150

// minQueryChars and minQueryTokens filter out LLM filler lines ("Sure!",
// "Here are the queries:") that are too short to be real search queries.
const (
	minQueryChars  = 10
	minQueryTokens = 3
)

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)

// Transformer turns raw input plus optional focus/notes into a small set of
// focused search queries.
type Transformer struct {
	ai            TextGenerator
	maxQueries    int
	maxInputChars int
}

// NewTransformer creates a Transformer. cfg should already have defaults
// applied via [config.RetrievalConfig.WithDefaults].
func NewTransformer(ai TextGenerator, cfg config.RetrievalConfig) *Transformer {
	return &Transformer{
		ai:            ai,
		maxQueries:    cfg.MaxQueries,
		maxInputChars: cfg.MaxInputChars,
	}
}

// Transform produces at most maxQueries search queries for the given input.
// It never fails: when the LLM is unavailable it degrades to a deterministic
// query set built from the inputs themselves. All-empty input yields nil.
func (t *Transformer) Transform(ctx context.Context, rawInput, focus, notes string) []string {
	rawInput = truncateRunes(rawInput, t.maxInputChars)

	if strings.TrimSpace(rawInput) == "" && strings.TrimSpace(focus) == "" && strings.TrimSpace(notes) == "" {
		return nil
	}

	p, err := prompt.QueryTransform(prompt.QueryTransformData{
		RawInput:   rawInput,
		Focus:      focus,
		Notes:      notes,
		MaxQueries: t.maxQueries,
	})
	if err != nil {
		slog.Error("render query-transform prompt", "error", err)
		return t.deterministicFallback(rawInput, focus, notes)
	}

	resp, err := t.ai.GenerateText(ctx, orchestrator.TextRequest{Prompt: p})
	if err != nil {
		slog.Warn("query transformation LLM unavailable, using deterministic fallback", "error", err)
		return t.deterministicFallback(rawInput, focus, notes)
	}

	queries := t.parseQueries(resp)
	if len(queries) == 0 {
		if head := strings.TrimSpace(truncateRunes(rawInput, 100)); head != "" {
			return []string{head}
		}
		return t.deterministicFallback(rawInput, focus, notes)
	}
	return queries
}

// parseQueries splits an LLM response into candidate query lines, stripping
// bullet markers and dropping lines too short to be real queries.
func (t *Transformer) parseQueries(resp string) []string {
	var queries []string
	for _, line := range strings.Split(resp, "\n") {
		q := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if len(q) <= minQueryChars || len(strings.Fields(q)) < minQueryTokens {
			continue
		}
		queries = append(queries, q)
		if len(queries) == t.maxQueries {
			break
		}
	}
	return queries
}

// deterministicFallback builds queries without any LLM call: focus, notes,
// and a leading slice of the raw input, empties dropped.
func (t *Transformer) deterministicFallback(rawInput, focus, notes string) []string {
	var queries []string
	for _, q := range []string{focus, notes, truncateRunes(rawInput, substringFallbackChars)} {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return []string{fallbackQuery}
	}
	return queries
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
