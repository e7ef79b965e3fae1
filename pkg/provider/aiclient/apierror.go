package aiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CodeProviderAuthInvalid is the stable error code carried by
// [AuthInvalidError]. Callers branch on it to show an actionable
// "check your API key" message instead of a generic failure.
const CodeProviderAuthInvalid = "PROVIDER_AUTH_INVALID"

// reasonAPIKeyInvalid is the structured reason code providers attach to
// credential rejections (Google-style ErrorInfo detail).
const reasonAPIKeyInvalid = "API_KEY_INVALID"

// AuthInvalidError is returned when a provider rejects the configured
// credential on the premium tier and, where a downgrade exists, on the
// fallback tier too. It is distinct from transient failures: retrying will
// not help until the key is fixed.
type AuthInvalidError struct {
	Provider string
	Code     string
	Message  string
	Cause    error
}

func (e *AuthInvalidError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthInvalidError) Unwrap() error { return e.Cause }

// ErrorDetail is one structured entry in a provider error payload.
type ErrorDetail struct {
	Type   string `json:"@type"`
	Reason string `json:"reason"`
	Domain string `json:"domain"`
}

// APIStatusError is a provider error with its structured payload decoded.
// Back ends produce it via [decorateProviderError] so that classification
// (retryable vs auth-invalid) can inspect status codes and detail reasons
// instead of scraping message strings.
type APIStatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
	Details    []ErrorDetail
	cause      error
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s: %s", e.Provider, e.StatusCode, e.Status, e.Message)
}

func (e *APIStatusError) Unwrap() error { return e.cause }

// jsonObjectPattern extracts the JSON payload that provider SDKs embed in
// flattened error strings.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// errorEnvelope matches the Google-style wire shape:
//
//	{"error": {"code": 400, "status": "INVALID_ARGUMENT", "message": "...", "details": [...]}}
type errorEnvelope struct {
	Error *struct {
		Code    int           `json:"code"`
		Status  string        `json:"status"`
		Message string        `json:"message"`
		Details []ErrorDetail `json:"details"`
	} `json:"error"`
}

// decorateProviderError upgrades err to an [*APIStatusError] when its message
// carries a decodable structured payload; otherwise err is returned unchanged.
func decorateProviderError(providerID string, err error) error {
	if err == nil {
		return nil
	}
	raw := jsonObjectPattern.FindString(err.Error())
	if raw == "" {
		return err
	}
	var env errorEnvelope
	if jerr := json.Unmarshal([]byte(raw), &env); jerr != nil || env.Error == nil {
		return err
	}
	if env.Error.Code == 0 && env.Error.Status == "" {
		return err
	}
	return &APIStatusError{
		Provider:   providerID,
		StatusCode: env.Error.Code,
		Status:     env.Error.Status,
		Message:    env.Error.Message,
		Details:    env.Error.Details,
		cause:      err,
	}
}

// IsAuthInvalid reports whether err carries the invalid-credential signature:
// a structured detail entry with reason API_KEY_INVALID, or (for SDKs that
// flatten the payload) the equivalent message text. This is the trigger for
// the one-shot model-tier downgrade and must not be confused with ordinary
// retryable classification.
func IsAuthInvalid(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *APIStatusError
	if errors.As(err, &statusErr) {
		for _, d := range statusErr.Details {
			if d.Reason == reasonAPIKeyInvalid {
				return true
			}
		}
	}
	msg := err.Error()
	return strings.Contains(msg, reasonAPIKeyInvalid) || strings.Contains(msg, "API key not valid")
}
