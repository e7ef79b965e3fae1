package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/orchestrator"
)

// fakeAI scripts the text and embedding surfaces and records every request.
type fakeAI struct {
	textFunc  func(req orchestrator.TextRequest) (string, error)
	embedFunc func(text string) ([]float32, error)

	mu       sync.Mutex
	requests []orchestrator.TextRequest
}

func (f *fakeAI) GenerateText(ctx context.Context, req orchestrator.TextRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.textFunc == nil {
		return "", errors.New("no text scripted")
	}
	return f.textFunc(req)
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.embedFunc == nil {
		return nil, errors.New("no embedding scripted")
	}
	return f.embedFunc(text)
}

func (f *fakeAI) textCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{}.WithDefaults()
}

func TestTransform_ParsesAndFiltersLLMResponse(t *testing.T) {
	ai := &fakeAI{textFunc: func(orchestrator.TextRequest) (string, error) {
		return strings.Join([]string{
			"Queries:",
			"- quarterly revenue figures for 2025",
			"* payment terms in the supplier contract",
			"2. project milestone delivery dates",
			"ok",
			"   ",
			"risk register entries for open blockers",
			"stakeholder requirements for the rollout",
		}, "\n"), nil
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	got := tr.Transform(context.Background(), "long meeting transcript about several topics", "", "")
	want := []string{
		"quarterly revenue figures for 2025",
		"payment terms in the supplier contract",
		"project milestone delivery dates",
		"risk register entries for open blockers",
	}
	if len(got) != len(want) {
		t.Fatalf("queries = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("queries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransform_AllEmptyInputIsNoOp(t *testing.T) {
	ai := &fakeAI{}
	tr := NewTransformer(ai, testRetrievalConfig())

	if got := tr.Transform(context.Background(), "", "  ", ""); got != nil {
		t.Errorf("queries = %q, want nil for all-empty input", got)
	}
	if ai.textCalls() != 0 {
		t.Error("no LLM call expected for all-empty input")
	}
}

func TestTransform_NothingSurvivesFiltering(t *testing.T) {
	ai := &fakeAI{textFunc: func(orchestrator.TextRequest) (string, error) {
		return "ok\nsure\nno", nil
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	raw := strings.Repeat("x", 300)
	got := tr.Transform(context.Background(), raw, "", "")
	if len(got) != 1 || got[0] != raw[:100] {
		t.Errorf("queries = %q, want single first-100-chars fallback", got)
	}
}

func TestTransform_LLMFailureSubstringFallback(t *testing.T) {
	ai := &fakeAI{textFunc: func(orchestrator.TextRequest) (string, error) {
		return "", errors.New("all providers exhausted")
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	got := tr.Transform(context.Background(), "Solo trascrizione.", "", "")
	if len(got) != 1 || got[0] != "Solo trascrizione." {
		t.Errorf("queries = %q, want [\"Solo trascrizione.\"]", got)
	}
}

func TestTransform_LLMFailureUsesFocusAndNotes(t *testing.T) {
	ai := &fakeAI{textFunc: func(orchestrator.TextRequest) (string, error) {
		return "", errors.New("down")
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	got := tr.Transform(context.Background(), "transcript body here", "budget review", "Q3 only")
	want := []string{"budget review", "Q3 only", "transcript body here"}
	if len(got) != 3 {
		t.Fatalf("queries = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("queries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransform_LiteralFallbackQuery(t *testing.T) {
	ai := &fakeAI{textFunc: func(orchestrator.TextRequest) (string, error) {
		return "", errors.New("down")
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	got := tr.deterministicFallback("  ", "", "")
	if len(got) != 1 || got[0] != "informazioni generali pertinenti" {
		t.Errorf("fallback = %q, want the literal fallback query", got)
	}
}

func TestTransform_TruncatesRawInput(t *testing.T) {
	var sawPrompt string
	ai := &fakeAI{textFunc: func(req orchestrator.TextRequest) (string, error) {
		sawPrompt = req.Prompt
		return "a perfectly valid generated search query", nil
	}}
	tr := NewTransformer(ai, testRetrievalConfig())

	raw := strings.Repeat("a", 2500)
	tr.Transform(context.Background(), raw, "", "")
	if strings.Contains(sawPrompt, strings.Repeat("a", 2001)) {
		t.Error("raw input was not truncated to maxInputChars before templating")
	}
	if !strings.Contains(sawPrompt, strings.Repeat("a", 2000)) {
		t.Error("truncated raw input missing from prompt")
	}
}
