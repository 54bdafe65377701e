package autolink

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vaultlens/vaultlens/internal/apperr"
	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/suggest"
	"github.com/vaultlens/vaultlens/internal/vault"
)

// lookaround is the window checked on each side of a match for existing
// [[ ]] markers, to avoid double-linking or corrupting a link.
const lookaround = 10

// DefaultThreshold is the minimum suggestion confidence applied when a
// caller does not choose one. It admits literal title mentions and only
// the strongest topic overlaps.
const DefaultThreshold = 0.7

// Linker applies accepted link suggestions to note files.
type Linker struct {
	store      *storage.FS
	loader     *vault.Loader
	tier       Tier
	backupRoot string
	logger     *slog.Logger
}

// New creates a Linker. backupRoot is the directory that holds safety
// backups; it lives outside the vault so backups never shadow notes.
func New(store *storage.FS, loader *vault.Loader, tier Tier, backupRoot string, logger *slog.Logger) *Linker {
	return &Linker{store: store, loader: loader, tier: tier, backupRoot: backupRoot, logger: logger}
}

// Options configures one batch run.
type Options struct {
	Folder              string
	ConfidenceThreshold float64
	DryRun              bool
}

// Result summarises one batch run. An empty Changes map with a nil error
// means no suggestions cleared the threshold; a safety-ceiling violation
// is reported as an error instead.
type Result struct {
	Changes      map[string][]string `json:"changes"`
	BackupID     string              `json:"backup_id,omitempty"`
	FilesChanged int                 `json:"files_changed"`
	TotalChanges int                 `json:"total_changes"`
	DryRun       bool                `json:"dry_run"`
}

// Run executes the batch: analyze, safety check, backup, apply, summary.
// The whole batch is rejected with apperr.ErrSafetyLimit before any
// write when either tier ceiling is exceeded.
func (l *Linker) Run(opts Options) (*Result, error) {
	limits, err := l.tier.Limits()
	if err != nil {
		return nil, err
	}

	notes, err := l.loader.Load(opts.Folder)
	if err != nil {
		return nil, err
	}

	result := &Result{Changes: map[string][]string{}, DryRun: opts.DryRun}
	if len(notes) == 0 {
		return result, nil
	}

	// ANALYZE: collect suggestions that clear the threshold.
	accepted := make(map[string][]suggest.LinkSuggestion)
	pending := 0
	for name, note := range notes {
		var keep []suggest.LinkSuggestion
		for _, s := range suggest.FindLinkSuggestions(note, notes) {
			if s.Confidence >= opts.ConfidenceThreshold {
				keep = append(keep, s)
			}
		}
		if len(keep) > 0 {
			accepted[name] = keep
			pending += len(keep)
		}
	}
	if len(accepted) == 0 {
		l.logger.Info("autolink: no suggestions above threshold",
			slog.Float64("threshold", opts.ConfidenceThreshold))
		return result, nil
	}

	// SAFETY_CHECK: hard gate, no partial application.
	if len(accepted) > limits.MaxFiles || pending > limits.MaxChanges {
		return nil, fmt.Errorf("autolink: batch of %d files / %d changes exceeds %s tier (max %d files / %d changes): %w",
			len(accepted), pending, l.tier, limits.MaxFiles, limits.MaxChanges, apperr.ErrSafetyLimit)
	}

	names := make([]string, 0, len(accepted))
	for name := range accepted {
		names = append(names, name)
	}
	sort.Strings(names)

	// BACKUP: skipped entirely in dry-run mode. A backup failure blocks
	// the mutation.
	if !opts.DryRun {
		paths := make([]string, 0, len(names))
		for _, name := range names {
			paths = append(paths, notes[name].Path)
		}
		manifest, backupErr := createBackup(l.store, l.backupRoot, l.tier, paths, time.Now())
		if backupErr != nil {
			return nil, backupErr
		}
		result.BackupID = manifest.BackupID
		l.logger.Info("autolink: backup created",
			slog.String("backup_id", manifest.BackupID),
			slog.Int("files", len(manifest.Files)))
	}

	// APPLY: all-or-nothing per file; a failed write leaves the original
	// intact (atomic replace) and excludes the note from the results.
	for _, name := range names {
		note := notes[name]
		targets := make([]string, 0, len(accepted[name]))
		for _, s := range accepted[name] {
			targets = append(targets, s.Target)
		}

		updated, changes := insertLinks(note.Content, targets)
		if len(changes) == 0 {
			continue
		}
		if !opts.DryRun {
			if writeErr := l.store.Write(note.Path, []byte(updated)); writeErr != nil {
				l.logger.Warn("autolink: write failed, note skipped",
					slog.String("path", note.Path),
					slog.String("error", writeErr.Error()))
				continue
			}
		}
		result.Changes[name] = changes
		result.FilesChanged++
		result.TotalChanges += len(changes)
	}

	l.logger.Info("autolink: batch complete",
		slog.Int("files", result.FilesChanged),
		slog.Int("changes", result.TotalChanges),
		slog.Bool("dry_run", opts.DryRun))
	return result, nil
}

// insertLinks rewrites content so every target is wrapped as a wikilink.
// For each target it collects all case-insensitive word-boundary matches,
// drops those already enclosed by [[ ]] markers, and rebuilds the string
// once from the surviving spans. Targets whose bracketed link is already
// present are skipped.
func insertLinks(content string, targets []string) (string, []string) {
	var changes []string
	for _, target := range targets {
		if strings.Contains(content, "[["+target+"]]") {
			continue
		}

		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(target) + `\b`)
		if err != nil {
			continue
		}
		var spans [][]int
		for _, m := range re.FindAllStringIndex(content, -1) {
			if !alreadyLinked(content, m[0], m[1]) {
				spans = append(spans, m)
			}
		}
		if len(spans) == 0 {
			continue
		}

		var b strings.Builder
		prev := 0
		for _, sp := range spans {
			b.WriteString(content[prev:sp[0]])
			b.WriteString("[[" + target + "]]")
			prev = sp[1]
			changes = append(changes, fmt.Sprintf("linked %q at offset %d", target, sp[0]))
		}
		b.WriteString(content[prev:])
		content = b.String()
	}
	return content, changes
}

// alreadyLinked reports whether the match at [start,end) appears to sit
// inside an existing wikilink, using a small lookaround window.
func alreadyLinked(content string, start, end int) bool {
	back := start - lookaround
	if back < 0 {
		back = 0
	}
	ahead := end + lookaround
	if ahead > len(content) {
		ahead = len(content)
	}
	return strings.Contains(content[back:start], "[[") &&
		strings.Contains(content[end:ahead], "]]")
}
