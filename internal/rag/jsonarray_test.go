package rag

import (
	"errors"
	"testing"
)

func TestParseJSONArray_SurroundingProse(t *testing.T) {
	text := "Sure! Here is the ranking:\n```json\n[{\"id\": 0, \"score\": 90}, {\"id\": 2, \"score\": 45}]\n```\nLet me know if you need anything else."
	got, err := ParseJSONArray[map[string]any](text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %v", got)
	}
	if got[0]["id"].(float64) != 0 || got[1]["score"].(float64) != 45 {
		t.Errorf("entries = %v", got)
	}
}

func TestParseJSONArray_PureJSON(t *testing.T) {
	got, err := ParseJSONArray[int]("[1, 2, 3]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestParseJSONArray_NoArray(t *testing.T) {
	_, err := ParseJSONArray[int]("I could not produce a ranking.")
	if !errors.Is(err, ErrNoJSONArray) {
		t.Errorf("err = %v, want ErrNoJSONArray", err)
	}
}

func TestParseJSONArray_Malformed(t *testing.T) {
	_, err := ParseJSONArray[int]("[1, 2,")
	if !errors.Is(err, ErrNoJSONArray) {
		t.Errorf("err = %v, want ErrNoJSONArray for an unclosed array", err)
	}

	if _, err := ParseJSONArray[int]("[1, 2, oops]"); err == nil {
		t.Error("expected error for malformed array body")
	}
}
