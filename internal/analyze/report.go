package analyze

import (
	"fmt"
	"sort"
	"strings"
)

// ExportMarkdown renders the analysis as a human-readable Markdown
// report: overview table, per-folder breakdown, ranked cross-folder
// opportunities, and threshold-based recommendations.
func ExportMarkdown(a *VaultAnalysis) string {
	var b strings.Builder

	b.WriteString("# Vault Analysis Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", a.AnalyzedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Vault Path:** `%s`\n", a.VaultPath)
	fmt.Fprintf(&b, "**Health Score:** %.1f/100\n\n", a.HealthScore)

	b.WriteString("## Overview\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Folders | %d |\n", a.TotalFolders)
	fmt.Fprintf(&b, "| Total Notes | %d |\n", a.TotalNotes)
	fmt.Fprintf(&b, "| Total Words | %d |\n", a.TotalWords)
	fmt.Fprintf(&b, "| Total Links | %d |\n", a.TotalLinks)
	fmt.Fprintf(&b, "| Orphaned Notes | %d |\n\n", a.OrphanedNotes)

	b.WriteString("## Folder Analysis\n\n")
	folders := make([]FolderStats, len(a.Folders))
	copy(folders, a.Folders)
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].NoteCount > folders[j].NoteCount
	})
	for _, f := range folders {
		fmt.Fprintf(&b, "### %s\n\n", f.Name)
		fmt.Fprintf(&b, "- **Notes:** %d\n", f.NoteCount)
		fmt.Fprintf(&b, "- **Words:** %d\n", f.TotalWords)
		fmt.Fprintf(&b, "- **Links:** %d\n", f.TotalLinks)
		fmt.Fprintf(&b, "- **Orphaned:** %d\n", len(f.OrphanedNotes))
		fmt.Fprintf(&b, "- **With Code:** %d\n", f.NotesWithCode)
		if len(f.TopTopics) > 0 {
			topics := make([]string, 0, len(f.TopTopics))
			for _, tc := range f.TopTopics {
				topics = append(topics, tc.Topic)
			}
			fmt.Fprintf(&b, "- **Top Topics:** %s\n", strings.Join(topics, ", "))
		}
		b.WriteString("\n")
	}

	if len(a.CrossFolder) > 0 {
		b.WriteString("## Cross-Folder Connection Opportunities\n\n")
		sources := make([]string, 0, len(a.CrossFolder))
		for s := range a.CrossFolder {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		if len(sources) > 10 {
			sources = sources[:10]
		}
		for _, source := range sources {
			fmt.Fprintf(&b, "**%s** could link to:\n", source)
			targets := a.CrossFolder[source]
			if len(targets) > 3 {
				targets = targets[:3]
			}
			for _, target := range targets {
				fmt.Fprintf(&b, "- %s\n", target)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Recommendations\n\n")
	switch {
	case a.HealthScore >= 80:
		b.WriteString("Excellent health score. The vault is well connected and organized.\n")
	case a.HealthScore >= 60:
		b.WriteString("Good health score. Solid structure with room for improvement.\n")
	case a.HealthScore >= 40:
		b.WriteString("Moderate health score. The vault needs some attention.\n")
	default:
		b.WriteString("Low health score. The vault needs significant improvement.\n")
	}
	b.WriteString("\n")

	if a.TotalNotes > 0 {
		if float64(a.OrphanedNotes) > float64(a.TotalNotes)*0.2 {
			fmt.Fprintf(&b, "- Connect orphaned notes: %d notes have no connections (%.1f%% of vault)\n",
				a.OrphanedNotes, float64(a.OrphanedNotes)/float64(a.TotalNotes)*100)
		}
		if len(a.CrossFolder) > 0 {
			fmt.Fprintf(&b, "- Cross-folder linking: %d notes could link into other folders\n", len(a.CrossFolder))
		}
		if float64(a.TotalLinks) < float64(a.TotalNotes)*0.5 {
			fmt.Fprintf(&b, "- Increase linking: average of %.1f links per note (aim for 2-3)\n",
				float64(a.TotalLinks)/float64(a.TotalNotes))
		}
	}

	return b.String()
}
