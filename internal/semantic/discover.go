package semantic

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vaultlens/vaultlens/internal/models"
	"github.com/vaultlens/vaultlens/internal/suggest"
)

// minConfidence is the floor below which a positive verdict is still
// discarded as noise.
const minConfidence = 0.5

// DiscoverConnections runs the classifier over every unordered pair of
// notes that is not already linked and converts accepted verdicts into
// link suggestions keyed by source note. Individual classifier failures
// are logged and skipped so one bad pair cannot sink the sweep.
func DiscoverConnections(ctx context.Context, c Classifier, notes map[string]*models.Note, logger *slog.Logger) map[string][]suggest.LinkSuggestion {
	names := make([]string, 0, len(notes))
	for name := range notes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]suggest.LinkSuggestion)
	for i, aName := range names {
		for _, bName := range names[i+1:] {
			a, b := notes[aName], notes[bName]
			if a.HasLink(bName) || b.HasLink(aName) {
				continue
			}
			if ctx.Err() != nil {
				return out
			}

			j, err := c.Judge(ctx, a, b)
			if err != nil {
				logger.Warn("semantic: pair skipped",
					slog.String("a", aName),
					slog.String("b", bName),
					slog.String("error", err.Error()))
				continue
			}
			if !j.ShouldLink || j.Confidence <= minConfidence {
				continue
			}

			var contexts []string
			if j.SuggestedContext != "" {
				contexts = append(contexts, j.SuggestedContext)
			} else if j.Explanation != "" {
				contexts = append(contexts, j.Explanation)
			}
			out[aName] = append(out[aName], suggest.LinkSuggestion{
				Target:     bName,
				Confidence: j.Confidence,
				Contexts:   contexts,
			})
		}
	}

	for name := range out {
		sort.SliceStable(out[name], func(i, j int) bool {
			return out[name][i].Confidence > out[name][j].Confidence
		})
	}
	return out
}
