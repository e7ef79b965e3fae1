package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/doclinea/ragcore/internal/orchestrator"
	"github.com/doclinea/ragcore/internal/prompt"
)

// Intent is the rubric category the re-ranker scores against.
type Intent string

const (
	IntentFinance           Intent = "FINANCE"
	IntentLegal             Intent = "LEGAL"
	IntentProjectManagement Intent = "PROJECT_MANAGEMENT"
	IntentBusinessAnalysis  Intent = "BUSINESS_ANALYSIS"
	IntentGeneral           Intent = "GENERAL"
)

// intentCategories is the closed set of labels the classifier may return,
// in prompt presentation order.
var intentCategories = []Intent{
	IntentFinance,
	IntentLegal,
	IntentProjectManagement,
	IntentBusinessAnalysis,
	IntentGeneral,
}

func knownIntent(label string) (Intent, bool) {
	for _, c := range intentCategories {
		if Intent(label) == c {
			return c, true
		}
	}
	return "", false
}

// classifierProvider is the provider forced for classification calls.
// Classification is a cheap single-label task, so it always prefers the fast
// tier regardless of the configured text chain.
const classifierProvider = "gemini"

// Classifier picks the scoring rubric category for a set of search queries.
type Classifier struct {
	ai TextGenerator
}

// NewClassifier creates a Classifier.
func NewClassifier(ai TextGenerator) *Classifier {
	return &Classifier{ai: ai}
}

// Classify returns the intent category for queries. It never fails: empty
// input, provider failure, and unrecognized labels all degrade to
// [IntentGeneral].
func (c *Classifier) Classify(ctx context.Context, queries []string) Intent {
	if len(queries) == 0 {
		return IntentGeneral
	}

	categories := make([]string, len(intentCategories))
	for i, cat := range intentCategories {
		categories[i] = string(cat)
	}
	p, err := prompt.IntentClassify(prompt.IntentClassifyData{
		Queries:    queries,
		Categories: categories,
	})
	if err != nil {
		slog.Error("render intent-classify prompt", "error", err)
		return IntentGeneral
	}

	resp, err := c.ai.GenerateText(ctx, orchestrator.TextRequest{
		Prompt:   p,
		Provider: classifierProvider,
	})
	if err != nil {
		slog.Warn("intent classification failed, defaulting to GENERAL", "error", err)
		return IntentGeneral
	}

	label := strings.ToUpper(strings.TrimSpace(resp))
	intent, ok := knownIntent(label)
	if !ok {
		slog.Warn("classifier returned unknown category, defaulting to GENERAL", "label", label)
		return IntentGeneral
	}
	return intent
}
