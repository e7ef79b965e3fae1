package aiclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/doclinea/ragcore/internal/resilience"
	"github.com/doclinea/ragcore/pkg/provider"
)

// fakeText is a scriptable TextBackend. Each call pops the next result.
type fakeText struct {
	model   string
	results []fakeResult
	calls   int
}

type fakeResult struct {
	out string
	err error
}

func (f *fakeText) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if len(f.results) == 0 {
		return "", errors.New("fakeText: no scripted results left")
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.out, r.err
}

type fakeEmbed struct {
	vectors map[string][]float32
	batch   func(texts []string) ([][]float32, error)
	err     error
}

func (f *fakeEmbed) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func (f *fakeEmbed) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch(texts)
}

func textResolution(id, model, fallback string) provider.Resolution {
	return provider.Resolution{
		ID:            id,
		Label:         id,
		APIKey:        "test-key",
		Model:         model,
		FallbackModel: fallback,
		Capability:    provider.CapabilityText,
	}
}

func TestNew_MissingCredential(t *testing.T) {
	res := textResolution("gemini", "gemini-2.5-flash", "")
	res.APIKey = "   "
	_, err := New(res)
	if !errors.Is(err, provider.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestGenerateContent_RetriesTransientThenSucceeds(t *testing.T) {
	backend := &fakeText{results: []fakeResult{
		{err: errors.New("status 503: upstream unavailable")},
		{err: errors.New("status 429: rate limited")},
		{out: "done"},
	}}
	c := mustClient(t, textResolution("gemini", "gemini-2.5-flash", ""), backend, nil)

	out, err := c.GenerateContent(context.Background(), "ciao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Errorf("out = %q, want done", out)
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

func TestGenerateContent_NonRetryableFailsFast(t *testing.T) {
	backend := &fakeText{results: []fakeResult{
		{err: errors.New("status 400: malformed request")},
	}}
	c := mustClient(t, textResolution("gemini", "gemini-2.5-flash", ""), backend, nil)

	_, err := c.GenerateContent(context.Background(), "ciao")
	if err == nil {
		t.Fatal("expected error")
	}
	if backend.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries on 4xx)", backend.calls)
	}
}

func authInvalidErr() error {
	return &APIStatusError{
		Provider:   "gemini-pro",
		StatusCode: 400,
		Status:     "INVALID_ARGUMENT",
		Message:    "API key not valid. Please pass a valid API key.",
		Details:    []ErrorDetail{{Type: "type.googleapis.com/google.rpc.ErrorInfo", Reason: "API_KEY_INVALID"}},
	}
}

// Auth-invalid on gemini-2.5-pro downgrades once to gemini-2.5-flash and the
// client's active model switches over.
func TestGenerateContent_TierDowngradeSucceeds(t *testing.T) {
	backends := map[string]*fakeText{
		"gemini-2.5-pro":   {results: []fakeResult{{err: authInvalidErr()}}},
		"gemini-2.5-flash": {results: []fakeResult{{out: "flash says hi"}}},
	}
	factory := func(_, model, _ string) (TextBackend, error) {
		b, ok := backends[model]
		if !ok {
			return nil, fmt.Errorf("unexpected model %q", model)
		}
		b.model = model
		return b, nil
	}

	c, err := New(textResolution("gemini-pro", "gemini-2.5-pro", "gemini-2.5-flash"),
		WithTextBackendFactory(factory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := c.GenerateContent(context.Background(), "ciao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "flash says hi" {
		t.Errorf("out = %q, want the flash response", out)
	}
	if got := c.ActiveModel(); got != "gemini-2.5-flash" {
		t.Errorf("ActiveModel = %q, want gemini-2.5-flash", got)
	}
	if backends["gemini-2.5-pro"].calls != 1 {
		t.Errorf("pro tier called %d times, want 1 (auth-invalid is not retried)", backends["gemini-2.5-pro"].calls)
	}
}

func TestGenerateContent_TierDowngradeBothFail(t *testing.T) {
	factory := func(_, model, _ string) (TextBackend, error) {
		return &fakeText{model: model, results: []fakeResult{{err: authInvalidErr()}}}, nil
	}
	c, err := New(textResolution("gemini-pro", "gemini-2.5-pro", "gemini-2.5-flash"),
		WithTextBackendFactory(factory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.GenerateContent(context.Background(), "ciao")
	var authErr *AuthInvalidError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthInvalidError", err)
	}
	if authErr.Code != CodeProviderAuthInvalid {
		t.Errorf("Code = %q, want %q", authErr.Code, CodeProviderAuthInvalid)
	}
	if authErr.Cause == nil {
		t.Error("Cause is nil, want the original error preserved")
	}
}

func TestGenerateContent_NoFallbackTierRaisesAuthInvalid(t *testing.T) {
	backend := &fakeText{results: []fakeResult{{err: authInvalidErr()}}}
	c := mustClient(t, textResolution("gemini", "gemini-2.5-flash", ""), backend, nil)

	_, err := c.GenerateContent(context.Background(), "ciao")
	var authErr *AuthInvalidError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthInvalidError", err)
	}
	if backend.calls != 1 {
		t.Errorf("calls = %d, want 1", backend.calls)
	}
}

func TestGenerateEmbeddingBatch_LengthMismatch(t *testing.T) {
	embed := &fakeEmbed{batch: func(texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}
	c := mustEmbedClient(t, embed)

	_, err := c.GenerateEmbeddingBatch(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error on truncated batch response")
	}
}

func TestGenerateEmbeddingBatch_PreservesOrder(t *testing.T) {
	embed := &fakeEmbed{batch: func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(len(texts[i]))}
		}
		return out, nil
	}}
	c := mustEmbedClient(t, embed)

	vecs, err := c.GenerateEmbeddingBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []float32{1, 2, 3} {
		if vecs[i][0] != want {
			t.Errorf("vecs[%d] = %v, want [%v]", i, vecs[i], want)
		}
	}
}

func TestCache_ReturnsSameInstance(t *testing.T) {
	factory := func(_, model, _ string) (TextBackend, error) {
		return &fakeText{model: model}, nil
	}
	cache := NewCache(WithTextBackendFactory(factory))

	res := textResolution("gemini", "gemini-2.5-flash", "")
	c1, err := cache.Get(res)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	c2, err := cache.Get(res)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c1 != c2 {
		t.Error("cache returned distinct clients for the same (provider, model)")
	}

	other := textResolution("gemini-pro", "gemini-2.5-pro", "gemini-2.5-flash")
	c3, err := cache.Get(other)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c3 == c1 {
		t.Error("cache shared a client across different models")
	}
}

// mustClient builds a text client around a single scripted backend with
// non-sleeping retries.
func mustClient(t *testing.T, res provider.Resolution, backend TextBackend, _ any) *Client {
	t.Helper()
	p := resilience.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	c, err := New(res,
		WithTextBackendFactory(func(_, _, _ string) (TextBackend, error) { return backend, nil }),
		WithRetryPolicy(p))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func mustEmbedClient(t *testing.T, embed EmbedBackend) *Client {
	t.Helper()
	p := resilience.DefaultPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	c, err := New(provider.Resolution{
		ID:         "openai",
		APIKey:     "test-key",
		Model:      "text-embedding-3-small",
		Capability: provider.CapabilityEmbedding,
	}, WithEmbedBackend(embed), WithRetryPolicy(p))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
