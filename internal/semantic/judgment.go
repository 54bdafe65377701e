// Package semantic asks a language model whether two notes should be
// linked, going beyond literal mentions and keyword overlap.
package semantic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Judgment is the structured verdict returned by a classifier for one
// ordered pair of notes.
type Judgment struct {
	ShouldLink       bool    `json:"should_link"`
	RelationshipType string  `json:"relationship_type"`
	Explanation      string  `json:"explanation"`
	Confidence       float64 `json:"confidence"`
	SuggestedContext string  `json:"suggested_context"`
}

// ParseJudgment decodes a model response into a Judgment. Models often
// wrap JSON in a fenced code block or surround it with prose, so the
// decoder looks for the outermost object before unmarshalling.
func ParseJudgment(raw string) (*Judgment, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("semantic: no JSON object in response")
	}

	var j Judgment
	if err := json.Unmarshal([]byte(s[start:end+1]), &j); err != nil {
		return nil, fmt.Errorf("semantic: decode judgment: %w", err)
	}
	if j.Confidence < 0 || j.Confidence > 1 {
		return nil, fmt.Errorf("semantic: confidence %v out of range", j.Confidence)
	}
	return &j, nil
}
