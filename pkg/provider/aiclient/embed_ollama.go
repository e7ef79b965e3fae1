package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaEmbed is the [EmbedBackend] backed by a local Ollama server's native
// /api/embed endpoint. The server preserves input order in its batch
// responses, so no index re-sort is needed here.
type ollamaEmbed struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newOllamaEmbed(model, baseURL string) *ollamaEmbed {
	return &ollamaEmbed{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements [EmbedBackend].
func (p *ollamaEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("ollama embeddings: empty response")
	}
	return vecs[0], nil
}

// EmbedBatch implements [EmbedBackend].
func (p *ollamaEmbed) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := p.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: expected %d embeddings, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}

func (p *ollamaEmbed) embed(ctx context.Context, input any) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama embeddings: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama embeddings: decode response: %w", err)
	}
	return out.Embeddings, nil
}

// newEmbedBackend builds the embedding back end for a registered provider id.
func newEmbedBackend(providerID, model, apiKey string) (EmbedBackend, error) {
	switch providerID {
	case "openai":
		return newOpenAIEmbed(model, apiKey), nil
	case "ollama":
		return newOllamaEmbed(model, apiKey), nil
	default:
		return nil, fmt.Errorf("no embedding backend for provider %q", providerID)
	}
}
