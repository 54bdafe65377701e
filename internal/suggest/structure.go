package suggest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/vaultlens/vaultlens/internal/models"
)

// Structure check categories.
const (
	CategoryAddHeadings      = "add_headings"
	CategoryHeadingHierarchy = "heading_hierarchy"
	CategoryCodeOrganization = "code_organization"
	CategoryCodeLanguageTags = "code_language_tags"
	CategoryTopicSections    = "topic_sections"
	CategoryAddTags          = "add_tags"
)

// StructureSuggestion is an advisory finding about a note's layout. It is
// never auto-applied.
type StructureSuggestion struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// AnalyzeStructure runs the stateless structure checks against fixed
// thresholds. Each check is independent; all matching suggestions are
// returned in a stable order.
func AnalyzeStructure(note *models.Note) []StructureSuggestion {
	var out []StructureSuggestion

	if note.WordCount > 300 && len(note.Headings) == 0 {
		out = append(out, StructureSuggestion{
			Category:    CategoryAddHeadings,
			Description: "This note is long but has no headings. Consider adding structure.",
			Examples:    []string{"## Overview", "## Implementation", "## Examples", "## Related Topics"},
		})
	}

	if len(note.Headings) > 1 {
		hasTop := false
		hasDeep := false
		for _, h := range note.Headings {
			if h.Level == 1 {
				hasTop = true
			}
			if h.Level > 2 {
				hasDeep = true
			}
		}
		if hasDeep && !hasTop {
			out = append(out, StructureSuggestion{
				Category:    CategoryHeadingHierarchy,
				Description: "Consider adding a main H1 heading to establish document hierarchy.",
			})
		}
	}

	if len(note.CodeBlocks) > 3 {
		out = append(out, StructureSuggestion{
			Category:    CategoryCodeOrganization,
			Description: "Multiple code blocks found. Consider organizing them under headings.",
			Examples:    []string{"## Setup", "## Implementation", "## Testing", "## Usage Examples"},
		})
	}

	unlabeled := 0
	for _, cb := range note.CodeBlocks {
		if cb.Language == "" {
			unlabeled++
		}
	}
	if unlabeled > 0 {
		out = append(out, StructureSuggestion{
			Category:    CategoryCodeLanguageTags,
			Description: fmt.Sprintf("Found %d code blocks without language tags. Add language for better syntax highlighting.", unlabeled),
			Examples:    []string{"```python", "```javascript", "```bash"},
		})
	}

	if len(note.Topics) > 5 {
		categories := make(map[string]struct{})
		for t := range note.Topics {
			categories[t.Category] = struct{}{}
		}
		if len(categories) > 2 {
			names := make([]string, 0, len(categories))
			for c := range categories {
				names = append(names, c)
			}
			sort.Strings(names)
			examples := make([]string, len(names))
			for i, c := range names {
				examples[i] = "## " + capitalize(c)
			}
			out = append(out, StructureSuggestion{
				Category:    CategoryTopicSections,
				Description: "This note covers multiple topic areas. Consider organizing into sections.",
				Examples:    examples,
			})
		}
	}

	var missing []string
	for kw := range note.TopicKeywords() {
		if _, tagged := note.Tags[kw]; !tagged {
			missing = append(missing, kw)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		if len(missing) > 5 {
			missing = missing[:5]
		}
		examples := make([]string, len(missing))
		for i, kw := range missing {
			examples[i] = "#" + kw
		}
		out = append(out, StructureSuggestion{
			Category:    CategoryAddTags,
			Description: "Consider adding tags for better discoverability.",
			Examples:    examples,
		})
	}

	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return strings.ReplaceAll(string(r), "_", " ")
}
