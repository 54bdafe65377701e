// Package suggest computes link and structure suggestions for notes.
package suggest

import (
	"sort"
	"strings"

	"github.com/vaultlens/vaultlens/internal/models"
)

const (
	// MentionConfidence is assigned to suggestions backed by a literal
	// occurrence of the target note's name.
	MentionConfidence = 0.9
	// OverlapThreshold is the minimum Jaccard similarity of topic
	// keywords for a topic-overlap suggestion.
	OverlapThreshold = 0.3
	// MaxSuggestions caps the per-note suggestion list.
	MaxSuggestions = 10

	maxMentionContext = 200
	maxTopicContext   = 150
	maxTopicSnippets  = 3
)

// LinkSuggestion is a candidate directed edge from the analyzed note to
// Target, with supporting context snippets.
type LinkSuggestion struct {
	Target       string   `json:"target"`
	Confidence   float64  `json:"confidence"`
	MentionCount int      `json:"mention_count"`
	Contexts     []string `json:"contexts,omitempty"`
}

// FindLinkSuggestions scores every other note as a link candidate for
// note. Literal name mentions win over topic overlap for the same target:
// a target scored by mention is never scored again by overlap. Results
// are sorted by confidence descending and capped at MaxSuggestions.
func FindLinkSuggestions(note *models.Note, notes map[string]*models.Note) []LinkSuggestion {
	others := make([]string, 0, len(notes))
	for name := range notes {
		if name != note.Name {
			others = append(others, name)
		}
	}
	sort.Strings(others)

	var suggestions []LinkSuggestion
	for _, other := range others {
		if note.HasLink(other) {
			continue
		}

		if mentions := titleMentions(note.Content, other); len(mentions) > 0 {
			suggestions = append(suggestions, LinkSuggestion{
				Target:       other,
				Confidence:   MentionConfidence,
				MentionCount: len(mentions),
				Contexts:     mentions,
			})
			continue
		}

		overlap, shared := topicOverlap(note, notes[other])
		if overlap <= OverlapThreshold {
			continue
		}
		contexts := topicContexts(note.Content, shared)
		if len(contexts) == 0 {
			continue
		}
		suggestions = append(suggestions, LinkSuggestion{
			Target:       other,
			Confidence:   overlap,
			MentionCount: len(contexts),
			Contexts:     contexts,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// titleMentions finds case-insensitive literal occurrences of title in
// content, line by line, returning one context snippet per matching line
// (the line plus one line before and after, truncated).
func titleMentions(content, title string) []string {
	lines := strings.Split(content, "\n")
	titleLower := strings.ToLower(title)

	var mentions []string
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), titleLower) {
			mentions = append(mentions, contextAround(lines, i, maxMentionContext))
		}
	}
	return mentions
}

// topicOverlap computes the Jaccard similarity of the two notes' topic
// keyword sets, ignoring categories, and returns the shared keywords.
func topicOverlap(a, b *models.Note) (float64, map[string]struct{}) {
	ka := a.TopicKeywords()
	kb := b.TopicKeywords()
	if len(ka) == 0 || len(kb) == 0 {
		return 0, nil
	}

	shared := make(map[string]struct{})
	union := len(kb)
	for kw := range ka {
		if _, ok := kb[kw]; ok {
			shared[kw] = struct{}{}
		} else {
			union++
		}
	}
	return float64(len(shared)) / float64(union), shared
}

// topicContexts returns up to maxTopicSnippets snippets from lines that
// mention any shared topic keyword, deduplicated by snippet text.
func topicContexts(content string, shared map[string]struct{}) []string {
	keywords := make([]string, 0, len(shared))
	for kw := range shared {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	lines := strings.Split(content, "\n")
	seen := make(map[string]struct{})
	var snippets []string

	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, kw := range keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			snippet := contextAround(lines, i, maxTopicContext)
			if _, dup := seen[snippet]; !dup {
				seen[snippet] = struct{}{}
				snippets = append(snippets, snippet)
			}
			break
		}
		if len(snippets) == maxTopicSnippets {
			break
		}
	}
	return snippets
}

// contextAround joins the line at i with one line before and after, and
// truncates the result to limit characters.
func contextAround(lines []string, i, limit int) string {
	start := i - 1
	if start < 0 {
		start = 0
	}
	end := i + 2
	if end > len(lines) {
		end = len(lines)
	}
	return truncate(strings.TrimSpace(strings.Join(lines[start:end], " ")), limit)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
