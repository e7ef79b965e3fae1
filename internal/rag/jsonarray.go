package rag

import (
	"encoding/json"
	"errors"
	"regexp"
)

// ErrNoJSONArray is returned by [ParseJSONArray] when text contains nothing
// shaped like a JSON array.
var ErrNoJSONArray = errors.New("rag: no JSON array found in response")

// jsonArrayPattern matches from the first '[' to the last ']' so surrounding
// prose and markdown fences are ignored.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseJSONArray extracts the first JSON-array-shaped substring from free-form
// LLM output and unmarshals it into a slice of T. Models regularly wrap their
// JSON in commentary or code fences, so callers must not assume the response
// is pure JSON; this is the single boundary where that mess gets handled. It
// never panics: malformed input yields an error.
func ParseJSONArray[T any](text string) ([]T, error) {
	raw := jsonArrayPattern.FindString(text)
	if raw == "" {
		return nil, ErrNoJSONArray
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
