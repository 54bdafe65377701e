// Package models defines the domain types for Vaultlens.
package models

// Heading is a Markdown heading with its marker depth.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// CodeBlock is a fenced code region. Language is empty when the fence
// carries no language tag.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Body     string `json:"body"`
}

// Topic is a (category, keyword) pair matched against the taxonomy.
type Topic struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// Note represents a loaded Markdown file. A Note is immutable after the
// load pass; when the backing file is rewritten it must be reloaded.
type Note struct {
	Name       string              `json:"name"`
	Path       string              `json:"path"`   // vault-relative path
	Folder     string              `json:"folder"` // vault-relative folder, "Root" at top level
	Content    string              `json:"-"`
	WordCount  int                 `json:"word_count"`
	LineCount  int                 `json:"line_count"`
	Links      map[string]struct{} `json:"-"` // outgoing wikilink targets, deduplicated
	Tags       map[string]struct{} `json:"-"`
	Headings   []Heading           `json:"headings,omitempty"`
	CodeBlocks []CodeBlock         `json:"-"`
	Topics     map[Topic]struct{}  `json:"-"`
}

// HasLink reports whether the note already links to target.
func (n *Note) HasLink(target string) bool {
	_, ok := n.Links[target]
	return ok
}

// TopicKeywords returns the set of topic keywords, ignoring categories.
func (n *Note) TopicKeywords() map[string]struct{} {
	kws := make(map[string]struct{}, len(n.Topics))
	for t := range n.Topics {
		kws[t.Keyword] = struct{}{}
	}
	return kws
}
