package rag

import (
	"fmt"
	"strings"

	"github.com/doclinea/ragcore/pkg/vectorsearch"
)

const contextPreamble = "The following documents are the most relevant supporting material retrieved for this request. Treat them as the primary context when responding.\n\n"

const sectionSeparator = "\n\n---\n\n"

// AssembleContext formats the final ranked chunks into a single context
// block: an instructional preamble followed by one labeled section per chunk,
// in ranked order. An empty chunk list yields an empty string — representing
// "no context" is the caller's decision, not this formatter's.
//
// The output is a pure function of its input: the same chunk list always
// produces identical text.
func AssembleContext(chunks []vectorsearch.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	sections := make([]string, len(chunks))
	for i, c := range chunks {
		n := i + 1
		sections[i] = fmt.Sprintf("[Document %d | Source: %s]\n%s", n, c.SourceLabel(n), c.Content)
	}
	return contextPreamble + strings.Join(sections, sectionSeparator)
}
