package api

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vaultlens/vaultlens/internal/analyze"
	"github.com/vaultlens/vaultlens/internal/apperr"
	"github.com/vaultlens/vaultlens/internal/autolink"
	"github.com/vaultlens/vaultlens/internal/graph"
	"github.com/vaultlens/vaultlens/internal/semantic"
	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/suggest"
	"github.com/vaultlens/vaultlens/internal/vault"
)

// Service executes vault analysis operations for the HTTP layer. Every
// request re-reads the vault from disk; the flat files are the single
// source of truth and vaults are small enough that a fresh pass is
// cheaper than cache invalidation.
type Service struct {
	store      *storage.FS
	loader     *vault.Loader
	tier       autolink.Tier
	backupRoot string
	classifier semantic.Classifier
	logger     *slog.Logger
}

// NewService creates a Service. classifier may be nil, which disables
// semantic discovery.
func NewService(store *storage.FS, loader *vault.Loader, tier autolink.Tier, backupRoot string, classifier semantic.Classifier, logger *slog.Logger) *Service {
	return &Service{store: store, loader: loader, tier: tier, backupRoot: backupRoot, classifier: classifier, logger: logger}
}

// Analysis loads the whole vault and runs a full analysis.
func (s *Service) Analysis(ctx context.Context) (*analyze.VaultAnalysis, error) {
	notes, err := s.loader.Load("")
	if err != nil {
		return nil, fmt.Errorf("api: load vault: %w", err)
	}
	idx := graph.BuildBacklinks(notes)
	return analyze.Run(s.store.Root(), notes, idx), nil
}

// NoteSuggestions holds the suggestion bundle for one note.
type NoteSuggestions struct {
	Note      string                        `json:"note"`
	Links     []suggest.LinkSuggestion      `json:"links"`
	Structure []suggest.StructureSuggestion `json:"structure"`
	Backlinks []string                      `json:"backlinks"`
	Orphaned  bool                          `json:"orphaned"`
}

// Suggestions returns link and structure suggestions for one note.
func (s *Service) Suggestions(ctx context.Context, name string) (*NoteSuggestions, error) {
	notes, err := s.loader.Load("")
	if err != nil {
		return nil, fmt.Errorf("api: load vault: %w", err)
	}
	note, ok := notes[name]
	if !ok {
		return nil, fmt.Errorf("api: note %q: %w", name, apperr.ErrNotFound)
	}

	idx := graph.BuildBacklinks(notes)
	backlinks := idx.Backlinks(name)
	return &NoteSuggestions{
		Note:      name,
		Links:     suggest.FindLinkSuggestions(note, notes),
		Structure: suggest.AnalyzeStructure(note),
		Backlinks: backlinks,
		Orphaned:  len(backlinks) == 0 && len(note.Links) == 0,
	}, nil
}

// ApplyLinks runs an autolink batch through the safety pipeline.
func (s *Service) ApplyLinks(ctx context.Context, opts autolink.Options) (*autolink.Result, error) {
	linker := autolink.New(s.store, s.loader, s.tier, s.backupRoot, s.logger)
	return linker.Run(opts)
}

// Discover runs the LLM classifier over every unlinked note pair and
// returns the accepted suggestions keyed by source note.
func (s *Service) Discover(ctx context.Context) (map[string][]suggest.LinkSuggestion, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("api: semantic discovery: %w", apperr.ErrClassifierDisabled)
	}
	notes, err := s.loader.Load("")
	if err != nil {
		return nil, fmt.Errorf("api: load vault: %w", err)
	}
	return semantic.DiscoverConnections(ctx, s.classifier, notes, s.logger), nil
}

// Backups lists backup manifests, newest first.
func (s *Service) Backups(ctx context.Context) ([]autolink.Manifest, error) {
	return autolink.ListBackups(s.backupRoot)
}

// Folders returns per-folder statistics sorted by note count.
func (s *Service) Folders(ctx context.Context) ([]analyze.FolderStats, error) {
	a, err := s.Analysis(ctx)
	if err != nil {
		return nil, err
	}
	folders := a.Folders
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].NoteCount > folders[j].NoteCount
	})
	return folders, nil
}
