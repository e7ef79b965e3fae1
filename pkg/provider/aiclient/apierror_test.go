package aiclient

import (
	"errors"
	"fmt"
	"testing"
)

func TestDecorateProviderError_GoogleEnvelope(t *testing.T) {
	raw := errors.New(`completion: unexpected response: {"error":{"code":400,"status":"INVALID_ARGUMENT","message":"API key not valid. Please pass a valid API key.","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID","domain":"googleapis.com"}]}}`)

	err := decorateProviderError("gemini-pro", raw)
	var statusErr *APIStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %T, want *APIStatusError", err)
	}
	if statusErr.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", statusErr.StatusCode)
	}
	if len(statusErr.Details) != 1 || statusErr.Details[0].Reason != "API_KEY_INVALID" {
		t.Errorf("Details = %+v, want one API_KEY_INVALID entry", statusErr.Details)
	}
	if !errors.Is(err, raw) {
		t.Error("decorated error no longer unwraps to the original")
	}
}

func TestDecorateProviderError_NoPayload(t *testing.T) {
	raw := errors.New("connection refused")
	if got := decorateProviderError("openai", raw); got != raw {
		t.Errorf("decorateProviderError changed a payload-free error: %v", got)
	}
}

func TestIsAuthInvalid(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"structured detail", authInvalidErr(), true},
		{"flattened message", errors.New("gemini: API_KEY_INVALID: bad key"), true},
		{"human message", errors.New("API key not valid. Please pass a valid API key."), true},
		{"plain 500", errors.New("status 500: boom"), false},
		{"wrapped", fmt.Errorf("outer: %w", authInvalidErr()), true},
	}
	for _, c := range cases {
		if got := IsAuthInvalid(c.err); got != c.want {
			t.Errorf("%s: IsAuthInvalid = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"500 in message", errors.New("unexpected status code: 503"), true},
		{"429 in message", errors.New("HTTP 429 too many requests"), true},
		{"404 in message", errors.New("status 404: not found"), false},
		{"structured 502", &APIStatusError{StatusCode: 502, Status: "BAD_GATEWAY"}, true},
		{"structured 401", &APIStatusError{StatusCode: 401, Status: "UNAUTHENTICATED"}, false},
		{"network pattern", errors.New("dial tcp: connection refused"), true},
		{"auth invalid never retryable", authInvalidErr(), false},
		{"plain failure", errors.New("something else entirely"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}
