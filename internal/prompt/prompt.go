// Package prompt holds the prompt templates for the LLM-backed pipeline stages
// and typed render helpers around them. Templates are parsed once at package
// init; rendering never touches the network.
package prompt

import (
	"strings"
	"text/template"
)

// inc makes the tier list 1-based in the rendered prompt while candidate
// indices stay 0-based, matching what the parser maps back.
var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
{{- define "query_transform" -}}
You generate search queries for a document knowledge base.

Rewrite the material below into at most {{.MaxQueries}} focused search queries.
Each query must be a standalone line of plain text. No numbering, no bullets,
no commentary, no quotes. One query per line.

{{if .Focus}}Focus area: {{.Focus}}
{{end -}}
{{if .Notes}}Additional notes: {{.Notes}}
{{end -}}
Material:
{{.RawInput}}
{{- end -}}

{{- define "intent_classify" -}}
Classify the dominant intent of the following search queries.

Answer with exactly one of these category labels and nothing else:
{{range .Categories}}{{.}}
{{end}}
Queries:
{{range .Queries}}- {{.}}
{{end -}}
{{- end -}}

{{- define "rerank" -}}
{{.Persona}}

Score each candidate document from 0 to 100 for its usefulness, using these
priorities from most to least important:
{{range $i, $tier := .Tiers}}{{inc $i}}. {{$tier}}
{{end}}
Candidates:
{{range .Candidates}}[{{.Index}}] {{.Preview}}
{{end}}
Reply with ONLY a JSON array, no other text, in the form:
[{"id": <candidate index>, "score": <0-100>}, ...]
Include every candidate exactly once.
{{- end -}}
`))

// QueryTransformData parameterizes the query-transformation prompt.
type QueryTransformData struct {
	RawInput   string
	Focus      string
	Notes      string
	MaxQueries int
}

// IntentClassifyData parameterizes the intent-classification prompt.
type IntentClassifyData struct {
	Queries    []string
	Categories []string
}

// RerankCandidate is one candidate row in the re-ranking prompt. Index is the
// zero-based position in the candidate slice; Preview is a truncated excerpt.
type RerankCandidate struct {
	Index   int
	Preview string
}

// RerankData parameterizes the re-ranking prompt.
type RerankData struct {
	Persona    string
	Tiers      []string
	Candidates []RerankCandidate
}

// QueryTransform renders the query-transformation prompt.
func QueryTransform(d QueryTransformData) (string, error) {
	return render("query_transform", d)
}

// IntentClassify renders the intent-classification prompt.
func IntentClassify(d IntentClassifyData) (string, error) {
	return render("intent_classify", d)
}

// Rerank renders the rubric-driven re-ranking prompt.
func Rerank(d RerankData) (string, error) {
	return render("rerank", d)
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
