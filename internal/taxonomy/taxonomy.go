// Package taxonomy provides the fixed category→keyword dictionary used
// for topic identification.
package taxonomy

import (
	"sort"
	"strings"

	"github.com/vaultlens/vaultlens/internal/models"
)

// Taxonomy maps a category name to the keywords it covers. It is treated
// as an immutable configuration value: build one, pass it to the loader,
// never mutate it afterwards.
type Taxonomy map[string][]string

// Default returns the built-in coding taxonomy.
func Default() Taxonomy {
	return Taxonomy{
		"languages":  {"python", "javascript", "java", "cpp", "rust", "go", "ruby", "php", "swift", "kotlin", "typescript", "scala"},
		"frameworks": {"react", "django", "flask", "spring", "express", "vue", "angular", "laravel", "rails", "nextjs"},
		"concepts":   {"algorithm", "data structure", "design pattern", "api", "database", "testing", "debugging", "optimization", "security"},
		"tools":      {"git", "docker", "kubernetes", "jenkins", "aws", "azure", "terraform", "ansible", "webpack"},
	}
}

// Identify returns the set of (category, keyword) pairs whose keyword
// occurs in content, matched case-insensitively. Multiple occurrences of
// the same keyword count once.
func (t Taxonomy) Identify(content string) map[models.Topic]struct{} {
	lower := strings.ToLower(content)
	topics := make(map[models.Topic]struct{})
	for category, keywords := range t {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics[models.Topic{Category: category, Keyword: kw}] = struct{}{}
			}
		}
	}
	return topics
}

// Categories returns the category names in sorted order.
func (t Taxonomy) Categories() []string {
	out := make([]string, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
