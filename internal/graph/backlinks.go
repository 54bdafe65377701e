// Package graph derives the backlink index and connectivity metrics from
// a loaded note set.
package graph

import (
	"sort"

	"github.com/vaultlens/vaultlens/internal/models"
)

// BacklinkIndex maps a note name to the set of note names linking to it.
// Links to names without a corresponding note are excluded, so dangling
// links are invisible to graph metrics.
type BacklinkIndex map[string]map[string]struct{}

// BuildBacklinks inverts all outgoing links in the note set. It is a pure
// function of its input and is recomputed whenever the note set changes.
func BuildBacklinks(notes map[string]*models.Note) BacklinkIndex {
	idx := make(BacklinkIndex, len(notes))
	for name, note := range notes {
		for target := range note.Links {
			if _, exists := notes[target]; !exists {
				continue
			}
			if idx[target] == nil {
				idx[target] = make(map[string]struct{})
			}
			idx[target][name] = struct{}{}
		}
	}
	return idx
}

// Backlinks returns the sorted list of notes linking to name.
func (idx BacklinkIndex) Backlinks(name string) []string {
	sources := idx[name]
	out := make([]string, 0, len(sources))
	for s := range sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HasBacklinks reports whether any note links to name.
func (idx BacklinkIndex) HasBacklinks(name string) bool {
	return len(idx[name]) > 0
}

// Orphans returns the sorted names of notes with zero backlinks and zero
// outgoing links. A note that links out, even if nothing links to it, is
// not orphaned.
func Orphans(notes map[string]*models.Note, idx BacklinkIndex) []string {
	var out []string
	for name, note := range notes {
		if !idx.HasBacklinks(name) && len(note.Links) == 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
