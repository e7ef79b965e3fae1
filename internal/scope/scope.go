// Package scope canonicalizes caller-supplied project identifiers into
// deterministic UUID scope ids for vector search.
//
// Callers pass whatever they have — a real project UUID or a human-readable
// name like "Discovery Phase". Both must land on a stable scope id without a
// registration step, so non-UUID input is hashed into a name-based (version 5)
// UUID under a fixed namespace.
package scope

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// projectNamespace is the fixed UUIDv5 namespace for derived project scope
// ids. Changing it would silently re-scope every derived project, so it is a
// constant for the lifetime of the index.
var projectNamespace = uuid.MustParse("b9c1f3a6-52de-4c1e-9e52-7f9d4a8c0e31")

var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// junkLiterals are stringified non-values that upstream glue code is known to
// leak into project-id fields. They mean "no project scope", not a project
// named "null".
var junkLiterals = map[string]bool{
	"null":            true,
	"undefined":       true,
	"[object object]": true,
}

// CanonicalProjectID maps raw to its canonical scope id.
//
// Empty, whitespace-only, and junk-literal input return "" (no project
// scope). Input that already looks like a UUID is returned lower-cased.
// Anything else is derived deterministically: the same name always yields the
// same UUID.
func CanonicalProjectID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || junkLiterals[strings.ToLower(s)] {
		return ""
	}
	if canonicalUUID.MatchString(s) {
		return strings.ToLower(s)
	}
	return uuid.NewSHA1(projectNamespace, []byte(strings.ToLower(s))).String()
}
