// Package parser extracts wikilinks, tags, headings, and fenced code
// blocks from Markdown content.
package parser

import (
	"regexp"
	"strings"

	"github.com/vaultlens/vaultlens/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)
	tagRe      = regexp.MustCompile(`#(\w+(?:/\w+)*)`)
	headingRe  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	backtickRe = regexp.MustCompile("(?s)```" + `(\w+)?` + "\n(.*?)\n```")
	tildeRe    = regexp.MustCompile(`(?s)~~~(\w+)?` + "\n(.*?)\n~~~")
)

// Result holds the structural signals extracted from one note.
type Result struct {
	Links      map[string]struct{}
	Tags       map[string]struct{}
	Headings   []models.Heading
	CodeBlocks []models.CodeBlock
	WordCount  int
	LineCount  int
}

// Parse extracts all structural signals from raw Markdown content.
// Extraction is purely pattern-based; self-links are not filtered.
func Parse(content string) *Result {
	return &Result{
		Links:      ExtractLinks(content),
		Tags:       ExtractTags(content),
		Headings:   ExtractHeadings(content),
		CodeBlocks: ExtractCodeBlocks(content),
		WordCount:  len(strings.Fields(content)),
		LineCount:  strings.Count(content, "\n") + 1,
	}
}

// ExtractLinks returns the deduplicated set of wikilink targets. For
// aliased links [[Target|Display]] only Target is captured.
func ExtractLinks(content string) map[string]struct{} {
	links := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(content, -1) {
		links[m[1]] = struct{}{}
	}
	return links
}

// ExtractTags returns the set of #tag and #tag/sub tokens, case preserved.
func ExtractTags(content string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, m := range tagRe.FindAllStringSubmatch(content, -1) {
		tags[m[1]] = struct{}{}
	}
	return tags
}

// ExtractHeadings returns headings in document order. The level is the
// number of leading # markers.
func ExtractHeadings(content string) []models.Heading {
	var out []models.Heading
	for _, m := range headingRe.FindAllStringSubmatch(content, -1) {
		out = append(out, models.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return out
}

// ExtractCodeBlocks returns fenced code regions delimited by triple
// backticks or triple tildes, in that scan order, with their optional
// language tag.
func ExtractCodeBlocks(content string) []models.CodeBlock {
	var out []models.CodeBlock
	for _, re := range []*regexp.Regexp{backtickRe, tildeRe} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			out = append(out, models.CodeBlock{
				Language: m[1],
				Body:     m[2],
			})
		}
	}
	return out
}
