package suggest

import (
	"math"
	"strings"
	"testing"

	"github.com/vaultlens/vaultlens/internal/models"
	"github.com/vaultlens/vaultlens/internal/parser"
	"github.com/vaultlens/vaultlens/internal/taxonomy"
)

func buildNote(name, content string) *models.Note {
	res := parser.Parse(content)
	return &models.Note{
		Name:       name,
		Content:    content,
		WordCount:  res.WordCount,
		LineCount:  res.LineCount,
		Links:      res.Links,
		Tags:       res.Tags,
		Headings:   res.Headings,
		CodeBlocks: res.CodeBlocks,
		Topics:     taxonomy.Default().Identify(content),
	}
}

func TestFindLinkSuggestions_LiteralMention(t *testing.T) {
	notes := map[string]*models.Note{
		"A": buildNote("A", "See B for details"),
		"B": buildNote("B", "intro"),
	}

	got := FindLinkSuggestions(notes["A"], notes)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.Target != "B" {
		t.Errorf("target = %q, want B", s.Target)
	}
	if s.Confidence != MentionConfidence {
		t.Errorf("confidence = %v, want %v", s.Confidence, MentionConfidence)
	}
	if s.MentionCount != 1 {
		t.Errorf("mention count = %d, want 1", s.MentionCount)
	}
}

func TestFindLinkSuggestions_AlreadyLinkedSkipped(t *testing.T) {
	notes := map[string]*models.Note{
		"A": buildNote("A", "See [[B]] and also B again"),
		"B": buildNote("B", "intro"),
	}
	got := FindLinkSuggestions(notes["A"], notes)
	if len(got) != 0 {
		t.Errorf("already-linked target must not be suggested: %+v", got)
	}
}

func TestFindLinkSuggestions_TopicOverlapJaccard(t *testing.T) {
	// Shared keywords {python, api}; union of 4 keywords → Jaccard 0.5.
	notes := map[string]*models.Note{
		"Frontend Stack":  buildNote("Frontend Stack", "Using python and react for the api"),
		"Deploy Pipeline": buildNote("Deploy Pipeline", "Deploy with docker, python and the api"),
	}

	got := FindLinkSuggestions(notes["Frontend Stack"], notes)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.Target != "Deploy Pipeline" {
		t.Errorf("target = %q", s.Target)
	}
	if math.Abs(s.Confidence-0.5) > 1e-9 {
		t.Errorf("confidence = %v, want 0.5", s.Confidence)
	}
	if len(s.Contexts) == 0 || len(s.Contexts) > maxTopicSnippets {
		t.Errorf("contexts = %v", s.Contexts)
	}
}

func TestFindLinkSuggestions_PairScoredOnce(t *testing.T) {
	// Target name appears literally AND topics overlap; the literal
	// mention must win and the pair must appear exactly once.
	notes := map[string]*models.Note{
		"Source": buildNote("Source", "Notes on python api design.\nCompare with Docker Guide."),
		"Docker Guide": buildNote("Docker Guide", "docker with python api"),
	}
	got := FindLinkSuggestions(notes["Source"], notes)
	if len(got) != 1 {
		t.Fatalf("pair appeared %d times, want 1: %+v", len(got), got)
	}
	if got[0].Confidence != MentionConfidence {
		t.Errorf("confidence = %v, want literal-mention 0.9", got[0].Confidence)
	}
}

func TestFindLinkSuggestions_SortedAndCapped(t *testing.T) {
	notes := map[string]*models.Note{
		"Hub": buildNote("Hub", strings.Repeat("Alpha Beta Gamma Delta Epsilon Zeta Eta Theta Iota Kappa Lambda Mu\n", 2)),
	}
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta", "Iota", "Kappa", "Lambda", "Mu"} {
		notes[name] = buildNote(name, "content")
	}

	got := FindLinkSuggestions(notes["Hub"], notes)
	if len(got) != MaxSuggestions {
		t.Fatalf("len = %d, want %d", len(got), MaxSuggestions)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("suggestions not sorted by confidence at %d", i)
		}
	}
}

func TestTitleMentions_ContextTruncated(t *testing.T) {
	long := strings.Repeat("x", 300) + " Target " + strings.Repeat("y", 300)
	mentions := titleMentions(long, "Target")
	if len(mentions) != 1 {
		t.Fatalf("len = %d, want 1", len(mentions))
	}
	if !strings.HasSuffix(mentions[0], "...") {
		t.Error("long context must be truncated with ellipsis")
	}
	if len([]rune(mentions[0])) != maxMentionContext+3 {
		t.Errorf("context length = %d", len([]rune(mentions[0])))
	}
}

func TestTopicOverlap_EmptySets(t *testing.T) {
	a := buildNote("a", "no tech words here")
	b := buildNote("b", "python api docker react")
	overlap, _ := topicOverlap(a, b)
	if overlap != 0 {
		t.Errorf("overlap = %v, want 0 for empty set", overlap)
	}
}
