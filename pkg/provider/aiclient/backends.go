package aiclient

import (
	"context"
	"fmt"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

// anyllmText is the production [TextBackend], backed by
// github.com/mozilla-ai/any-llm-go.
type anyllmText struct {
	providerID string
	backend    anyllmlib.Provider
	model      string
}

// newTextBackend builds the text back end for a registered provider id.
// For Ollama the credential value is the server base URL rather than a key.
func newTextBackend(providerID, model, apiKey string) (TextBackend, error) {
	var (
		backend anyllmlib.Provider
		err     error
	)
	switch providerID {
	case "openai":
		backend, err = anyllmoai.New(anyllmlib.WithAPIKey(apiKey))
	case "gemini", "gemini-pro":
		backend, err = gemini.New(anyllmlib.WithAPIKey(apiKey))
	case "anthropic":
		backend, err = anthropic.New(anyllmlib.WithAPIKey(apiKey))
	case "mistral":
		backend, err = mistral.New(anyllmlib.WithAPIKey(apiKey))
	case "ollama":
		backend, err = ollama.New(anyllmlib.WithBaseURL(apiKey))
	default:
		return nil, fmt.Errorf("no text backend for provider %q", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("create %q backend: %w", providerID, err)
	}
	return &anyllmText{providerID: providerID, backend: backend, model: model}, nil
}

// Complete implements [TextBackend].
func (t *anyllmText) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := t.backend.Completion(ctx, anyllmlib.CompletionParams{
		Model: t.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", decorateProviderError(t.providerID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", t.providerID)
	}
	return resp.Choices[0].Message.ContentString(), nil
}
