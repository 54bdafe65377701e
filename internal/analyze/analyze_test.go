package analyze

import (
	"math"
	"strings"
	"testing"

	"github.com/vaultlens/vaultlens/internal/graph"
	"github.com/vaultlens/vaultlens/internal/models"
)

func mk(name, folder, content string, links ...string) *models.Note {
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l] = struct{}{}
	}
	return &models.Note{
		Name:      name,
		Folder:    folder,
		Content:   content,
		WordCount: len(strings.Fields(content)),
		Links:     set,
		Tags:      map[string]struct{}{},
		Topics:    map[models.Topic]struct{}{},
	}
}

func withHeading(n *models.Note) *models.Note {
	n.Headings = []models.Heading{{Level: 1, Text: n.Name}}
	return n
}

// Ten notes, five with outgoing links, two orphaned, one cross-folder
// mention, three with headings. Pins the health arithmetic:
// 100*(0.3*0.5 + 0.3*0.8 + 0.2*0.1 + 0.2*0.3) = 47.0.
func healthFixture() map[string]*models.Note {
	return map[string]*models.Note{
		"A1": withHeading(mk("A1", "Alpha", "body", "A2")),
		"A2": withHeading(mk("A2", "Alpha", "body", "A1")),
		"A3": mk("A3", "Alpha", "body", "B1"),
		"A4": mk("A4", "Alpha", "body", "B2"),
		"A5": mk("A5", "Alpha", "body", "B3"),
		"B1": withHeading(mk("B1", "Beta", "body")),
		"B2": mk("B2", "Beta", "body"),
		"B3": mk("B3", "Beta", "body"),
		"B4": mk("B4", "Beta", "see A1 here"), // cross-folder mention
		"B5": mk("B5", "Beta", "body"),
	}
}

func TestRun_HealthScoreFormula(t *testing.T) {
	notes := healthFixture()
	idx := graph.BuildBacklinks(notes)

	a := Run("/vault", notes, idx)

	if a.TotalNotes != 10 {
		t.Fatalf("TotalNotes = %d", a.TotalNotes)
	}
	if a.OrphanedNotes != 2 {
		t.Fatalf("OrphanedNotes = %d, want 2 (B4 mention target does not count as a link)", a.OrphanedNotes)
	}

	b := a.HealthBreakdown
	if math.Abs(b.Linking-0.5) > 1e-9 {
		t.Errorf("Linking = %v, want 0.5", b.Linking)
	}
	if math.Abs(b.NonOrphaned-0.8) > 1e-9 {
		t.Errorf("NonOrphaned = %v, want 0.8", b.NonOrphaned)
	}
	if math.Abs(b.CrossFolder-0.1) > 1e-9 {
		t.Errorf("CrossFolder = %v, want 0.1", b.CrossFolder)
	}
	if math.Abs(b.Structure-0.3) > 1e-9 {
		t.Errorf("Structure = %v, want 0.3", b.Structure)
	}
	if a.HealthScore != 47.0 {
		t.Errorf("HealthScore = %v, want 47.0", a.HealthScore)
	}
}

func TestRun_EmptyVault(t *testing.T) {
	a := Run("/vault", map[string]*models.Note{}, graph.BacklinkIndex{})
	if a.HealthScore != 0 || a.TotalNotes != 0 {
		t.Errorf("empty vault: score = %v, notes = %d", a.HealthScore, a.TotalNotes)
	}
}

func TestCrossFolderConnections(t *testing.T) {
	notes := map[string]*models.Note{
		"Docker":  mk("Docker", "Tools", "container basics"),
		"Intro":   mk("Intro", "Guides", "Read about docker here"),
		"Linked":  mk("Linked", "Guides", "docker again", "Docker"),
		"Sibling": mk("Sibling", "Tools", "docker docker docker"),
	}

	cross := CrossFolderConnections(notes)

	got, ok := cross["Intro"]
	if !ok || len(got) != 1 || got[0] != "Docker (in Tools)" {
		t.Errorf("cross[Intro] = %v", got)
	}
	if _, ok := cross["Linked"]; ok {
		t.Error("already-linked target must be skipped")
	}
	if _, ok := cross["Sibling"]; ok {
		t.Error("same-folder mention must be skipped")
	}
}

func TestFolderStats_TopTopicsAndOrphans(t *testing.T) {
	python := models.Topic{Category: "languages", Keyword: "python"}
	docker := models.Topic{Category: "tools", Keyword: "docker"}

	n1 := mk("N1", "F", "body", "N2")
	n1.Topics = map[models.Topic]struct{}{python: {}, docker: {}}
	n2 := mk("N2", "F", "body")
	n2.Topics = map[models.Topic]struct{}{python: {}}
	n3 := mk("N3", "F", "body") // orphan
	notes := map[string]*models.Note{"N1": n1, "N2": n2, "N3": n3}
	idx := graph.BuildBacklinks(notes)

	fs := folderStats("F", notes, idx)

	if fs.NoteCount != 3 {
		t.Errorf("NoteCount = %d", fs.NoteCount)
	}
	if len(fs.TopTopics) != 2 || fs.TopTopics[0].Topic != "languages:python" || fs.TopTopics[0].Count != 2 {
		t.Errorf("TopTopics = %v", fs.TopTopics)
	}
	if len(fs.OrphanedNotes) != 1 || fs.OrphanedNotes[0] != "N3" {
		t.Errorf("OrphanedNotes = %v", fs.OrphanedNotes)
	}
}

func TestExportMarkdown(t *testing.T) {
	notes := healthFixture()
	idx := graph.BuildBacklinks(notes)
	a := Run("/vault", notes, idx)

	report := ExportMarkdown(a)
	for _, want := range []string{
		"# Vault Analysis Report",
		"**Health Score:** 47.0/100",
		"| Total Notes | 10 |",
		"## Folder Analysis",
		"### Alpha",
		"Cross-Folder Connection Opportunities",
		"**B4** could link to:",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
