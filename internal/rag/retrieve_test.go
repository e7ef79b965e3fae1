package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/doclinea/ragcore/pkg/vectorsearch"
	"github.com/doclinea/ragcore/pkg/vectorsearch/mock"
)

func chunk(id string, similarity float64) vectorsearch.Chunk {
	return vectorsearch.Chunk{ID: id, Content: "content " + id, Similarity: similarity}
}

func TestRetrieve_MergesAndDeduplicates(t *testing.T) {
	// Encode the query identity into the embedding so the searcher can route
	// on it; Params carry no query text.
	queries := []string{"q one", "q two"}
	ai := &fakeAI{embedFunc: func(text string) ([]float32, error) {
		if text == "q one" {
			return []float32{1}, nil
		}
		return []float32{2}, nil
	}}
	searcher := &mock.Searcher{SearchFunc: func(ctx context.Context, p vectorsearch.Params) ([]vectorsearch.Chunk, error) {
		if p.Embedding[0] == 1 {
			return []vectorsearch.Chunk{chunk("a", 0.9), chunk("b", 0.8)}, nil
		}
		return []vectorsearch.Chunk{chunk("b", 0.8), chunk("c", 0.7)}, nil
	}}

	r := NewRetriever(ai, searcher, testRetrievalConfig())
	got := r.Retrieve(context.Background(), queries, "ws-1", "")

	wantIDs := []string{"a", "b", "c"}
	if len(got) != len(wantIDs) {
		t.Fatalf("chunks = %v, want ids %v", got, wantIDs)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("chunks[%d].ID = %q, want %q (deterministic first-wins merge)", i, got[i].ID, id)
		}
	}
}

func TestRetrieve_PerQueryFailureIsolation(t *testing.T) {
	ai := &fakeAI{embedFunc: func(text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("embedding provider down")
		}
		return []float32{1}, nil
	}}
	searcher := &mock.Searcher{Chunks: []vectorsearch.Chunk{chunk("a", 0.9)}}

	r := NewRetriever(ai, searcher, testRetrievalConfig())
	got := r.Retrieve(context.Background(), []string{"bad", "good"}, "ws-1", "")

	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("chunks = %v, want the good query's single chunk", got)
	}
}

func TestRetrieve_SearchFailureIsolation(t *testing.T) {
	ai := &fakeAI{embedFunc: func(text string) ([]float32, error) {
		return []float32{1}, nil
	}}
	calls := 0
	searcher := &mock.Searcher{SearchFunc: func(ctx context.Context, p vectorsearch.Params) ([]vectorsearch.Chunk, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rpc failed")
		}
		return []vectorsearch.Chunk{chunk("x", 0.5)}, nil
	}}

	r := NewRetriever(ai, searcher, testRetrievalConfig())
	got := r.Retrieve(context.Background(), []string{"one"}, "ws-1", "")
	got2 := r.Retrieve(context.Background(), []string{"two"}, "ws-1", "")

	if len(got) != 0 {
		t.Errorf("first retrieval = %v, want zero chunks on RPC error", got)
	}
	if len(got2) != 1 {
		t.Errorf("second retrieval = %v, want one chunk", got2)
	}
}

func TestRetrieve_EmptyEmbedding(t *testing.T) {
	ai := &fakeAI{embedFunc: func(text string) ([]float32, error) {
		return []float32{}, nil
	}}
	searcher := &mock.Searcher{Chunks: []vectorsearch.Chunk{chunk("a", 0.9)}}

	r := NewRetriever(ai, searcher, testRetrievalConfig())
	if got := r.Retrieve(context.Background(), []string{"q"}, "ws-1", ""); len(got) != 0 {
		t.Errorf("chunks = %v, want none for empty embedding", got)
	}
	if len(searcher.Calls()) != 0 {
		t.Error("search must not run with an empty embedding")
	}
}

func TestRetrieve_PassesScope(t *testing.T) {
	ai := &fakeAI{embedFunc: func(text string) ([]float32, error) {
		return []float32{1}, nil
	}}
	searcher := &mock.Searcher{}

	r := NewRetriever(ai, searcher, testRetrievalConfig())
	r.Retrieve(context.Background(), []string{"q"}, "ws-9", "proj-7")

	calls := searcher.Calls()
	if len(calls) != 1 {
		t.Fatalf("search calls = %d, want 1", len(calls))
	}
	p := calls[0]
	if p.WorkspaceID != "ws-9" || p.ProjectID != "proj-7" || p.Limit != 10 {
		t.Errorf("params = %+v", p)
	}
}
