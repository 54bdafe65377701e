package analyze

import (
	"math"

	"github.com/vaultlens/vaultlens/internal/graph"
	"github.com/vaultlens/vaultlens/internal/models"
)

// Health score weights. The canonical formula is the whole-vault single
// pass: 100 * (0.3*linking + 0.3*nonOrphaned + 0.2*crossFolder +
// 0.2*structure), rounded to one decimal.
const (
	weightLinking     = 0.3
	weightNonOrphaned = 0.3
	weightCrossFolder = 0.2
	weightStructure   = 0.2
)

// healthScore computes the 0-100 vault health score.
//
// Sub-ratios, each clamped to [0,1]:
//   - linking: share of notes with at least one outgoing link
//   - nonOrphaned: 1 minus the share of orphaned notes
//   - crossFolder: share of notes with at least one cross-folder
//     mention opportunity
//   - structure: share of notes with at least one heading
func healthScore(notes map[string]*models.Note, idx graph.BacklinkIndex, cross map[string][]string) (float64, HealthBreakdown) {
	total := float64(len(notes))
	if total == 0 {
		return 0, HealthBreakdown{}
	}

	withLinks := 0
	withHeadings := 0
	for _, note := range notes {
		if len(note.Links) > 0 {
			withLinks++
		}
		if len(note.Headings) > 0 {
			withHeadings++
		}
	}
	orphaned := len(graph.Orphans(notes, idx))

	b := HealthBreakdown{
		Linking:     clamp(float64(withLinks) / total),
		NonOrphaned: clamp(1 - float64(orphaned)/total),
		CrossFolder: clamp(float64(len(cross)) / total),
		Structure:   clamp(float64(withHeadings) / total),
	}

	score := 100 * (weightLinking*b.Linking +
		weightNonOrphaned*b.NonOrphaned +
		weightCrossFolder*b.CrossFolder +
		weightStructure*b.Structure)
	return math.Round(score*10) / 10, b
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
