// Package ai provides provider-independent helpers around LLM calls: the
// model fallback coordinator and structured-output extraction.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
)

// Strategy proposes JSON candidates from free-form model text, in the order
// they should be tried.
type Strategy struct {
	Name       string
	Candidates func(text string) []string
}

// fencedJSON matches blocks tagged exactly "json"; tags such as jsonl or
// json5 are not JSON objects.
var fencedJSON = regexp.MustCompile("(?is)```json\\b[ \\t]*(.*?)```")

// ExtractionChain is tried in order; stricter strategies come first and the
// first candidate that parses into a JSON object wins.
var ExtractionChain = []Strategy{
	{Name: "direct", Candidates: directCandidates},
	{Name: "fenced", Candidates: fencedCandidates},
	{Name: "brace_span", Candidates: braceSpanCandidates},
}

// ExtractJSON recovers a JSON object from text, or returns nil when no
// strategy yields one. It never fails.
func ExtractJSON(text string) map[string]any {
	obj, _ := ExtractJSONWithStrategy(text)
	return obj
}

// ExtractJSONWithStrategy is ExtractJSON that also reports which strategy
// succeeded ("none" when all failed).
func ExtractJSONWithStrategy(text string) (map[string]any, string) {
	if strings.TrimSpace(text) == "" {
		observability.ExtractionsTotal.WithLabelValues("none").Inc()
		return nil, "none"
	}
	for _, s := range ExtractionChain {
		for _, candidate := range s.Candidates(text) {
			if obj, ok := parseObject(candidate); ok {
				observability.ExtractionsTotal.WithLabelValues(s.Name).Inc()
				return obj, s.Name
			}
		}
	}
	observability.ExtractionsTotal.WithLabelValues("none").Inc()
	return nil, "none"
}

func directCandidates(text string) []string {
	return []string{text}
}

// fencedCandidates returns every json-tagged block, first to last.
func fencedCandidates(text string) []string {
	matches := fencedJSON.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// braceSpanCandidates takes everything between the first '{' and the last '}'.
func braceSpanCandidates(text string) []string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}
	return []string{text[start : end+1]}
}

// parseObject only accepts a top-level JSON object.
func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
