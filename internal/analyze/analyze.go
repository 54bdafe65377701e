// Package analyze composes per-folder statistics and the vault-wide
// health snapshot from a loaded note set and its backlink index.
package analyze

import (
	"sort"
	"strings"
	"time"

	"github.com/vaultlens/vaultlens/internal/graph"
	"github.com/vaultlens/vaultlens/internal/models"
)

const topTopicCount = 10

// TopicCount is a "category:keyword" key with its note frequency.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// FolderStats is a read-only snapshot of one folder.
type FolderStats struct {
	Name          string       `json:"name"`
	NoteCount     int          `json:"note_count"`
	TotalWords    int          `json:"total_words"`
	TotalLinks    int          `json:"total_links"`
	NotesWithCode int          `json:"notes_with_code"`
	OrphanedNotes []string     `json:"orphaned_notes"`
	TopTopics     []TopicCount `json:"top_topics"`
	Notes         []string     `json:"notes"`
}

// HealthBreakdown shows the sub-ratios of the health formula, each
// clamped to [0,1].
type HealthBreakdown struct {
	Linking     float64 `json:"linking"`
	NonOrphaned float64 `json:"non_orphaned"`
	CrossFolder float64 `json:"cross_folder"`
	Structure   float64 `json:"structure"`
}

// VaultAnalysis is the full vault snapshot computed at one point in time.
type VaultAnalysis struct {
	VaultPath       string              `json:"vault_path"`
	AnalyzedAt      time.Time           `json:"analyzed_at"`
	TotalFolders    int                 `json:"total_folders"`
	TotalNotes      int                 `json:"total_notes"`
	TotalWords      int                 `json:"total_words"`
	TotalLinks      int                 `json:"total_links"`
	OrphanedNotes   int                 `json:"orphaned_notes"`
	Folders         []FolderStats       `json:"folders"`
	CrossFolder     map[string][]string `json:"cross_folder_suggestions"`
	HealthScore     float64             `json:"health_score"`
	HealthBreakdown HealthBreakdown     `json:"health_breakdown"`
}

// Run computes the complete vault analysis. It is a pure function of the
// note set: no caching, no side effects.
func Run(vaultPath string, notes map[string]*models.Note, idx graph.BacklinkIndex) *VaultAnalysis {
	folders := groupByFolder(notes)
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)

	a := &VaultAnalysis{
		VaultPath:   vaultPath,
		AnalyzedAt:  time.Now(),
		TotalNotes:  len(notes),
		CrossFolder: CrossFolderConnections(notes),
	}
	for _, name := range names {
		fs := folderStats(name, folders[name], idx)
		a.Folders = append(a.Folders, fs)
		a.TotalWords += fs.TotalWords
		a.TotalLinks += fs.TotalLinks
	}
	a.TotalFolders = len(a.Folders)
	a.OrphanedNotes = len(graph.Orphans(notes, idx))
	a.HealthScore, a.HealthBreakdown = healthScore(notes, idx, a.CrossFolder)
	return a
}

func groupByFolder(notes map[string]*models.Note) map[string]map[string]*models.Note {
	out := make(map[string]map[string]*models.Note)
	for name, note := range notes {
		if out[note.Folder] == nil {
			out[note.Folder] = make(map[string]*models.Note)
		}
		out[note.Folder][name] = note
	}
	return out
}

// folderStats builds the snapshot for one folder. Orphan detection uses
// the global backlink index: a link from another folder keeps a note out
// of the orphan list.
func folderStats(folder string, notes map[string]*models.Note, idx graph.BacklinkIndex) FolderStats {
	fs := FolderStats{Name: folder, NoteCount: len(notes)}

	names := sortedNames(notes)
	fs.Notes = names

	counts := make(map[string]int)
	var firstSeen []string
	for _, name := range names {
		note := notes[name]
		fs.TotalWords += note.WordCount
		fs.TotalLinks += len(note.Links)
		if len(note.CodeBlocks) > 0 {
			fs.NotesWithCode++
		}
		for _, key := range sortedTopicKeys(note) {
			if counts[key] == 0 {
				firstSeen = append(firstSeen, key)
			}
			counts[key]++
		}
	}

	order := make(map[string]int, len(firstSeen))
	for i, key := range firstSeen {
		order[key] = i
	}
	sort.SliceStable(firstSeen, func(i, j int) bool {
		if counts[firstSeen[i]] != counts[firstSeen[j]] {
			return counts[firstSeen[i]] > counts[firstSeen[j]]
		}
		return order[firstSeen[i]] < order[firstSeen[j]]
	})
	for i, key := range firstSeen {
		if i == topTopicCount {
			break
		}
		fs.TopTopics = append(fs.TopTopics, TopicCount{Topic: key, Count: counts[key]})
	}

	fs.OrphanedNotes = []string{}
	for _, name := range names {
		if !idx.HasBacklinks(name) && len(notes[name].Links) == 0 {
			fs.OrphanedNotes = append(fs.OrphanedNotes, name)
		}
	}
	return fs
}

// CrossFolderConnections finds, for every note, names of notes in other
// folders that are mentioned (plain substring, case-insensitive) in its
// content and not already linked. Unlike same-folder link suggestion this
// deliberately applies no word-boundary check.
func CrossFolderConnections(notes map[string]*models.Note) map[string][]string {
	names := sortedNames(notes)

	out := make(map[string][]string)
	for _, source := range names {
		src := notes[source]
		content := strings.ToLower(src.Content)
		for _, target := range names {
			if target == source {
				continue
			}
			tgt := notes[target]
			if tgt.Folder == src.Folder {
				continue
			}
			if src.HasLink(target) {
				continue
			}
			if strings.Contains(content, strings.ToLower(target)) {
				out[source] = append(out[source], target+" (in "+tgt.Folder+")")
			}
		}
	}
	return out
}

func sortedNames(notes map[string]*models.Note) []string {
	out := make([]string, 0, len(notes))
	for name := range notes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedTopicKeys(note *models.Note) []string {
	keys := make([]string, 0, len(note.Topics))
	for t := range note.Topics {
		keys = append(keys, t.Category+":"+t.Keyword)
	}
	sort.Strings(keys)
	return keys
}
