// Package vault loads Markdown notes from disk into structured records.
package vault

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vaultlens/vaultlens/internal/models"
	"github.com/vaultlens/vaultlens/internal/parser"
	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/taxonomy"
)

// RootFolder is the display name for notes that live directly under the
// vault root.
const RootFolder = "Root"

// Loader walks the vault and produces Note records keyed by name.
type Loader struct {
	store  *storage.FS
	tax    taxonomy.Taxonomy
	logger *slog.Logger
}

// NewLoader creates a Loader. The taxonomy is treated as immutable.
func NewLoader(store *storage.FS, tax taxonomy.Taxonomy, logger *slog.Logger) *Loader {
	return &Loader{store: store, tax: tax, logger: logger}
}

// Load reads every note under dir (vault-relative, "" for the whole
// vault) and returns a mapping from note name to Note. The name is the
// filename stem; when two files share a stem the later load overwrites
// the earlier one and a warning is logged. A missing folder yields an
// empty map, and individual unreadable or non-UTF-8 files are skipped
// with a warning.
func (l *Loader) Load(dir string) (map[string]*models.Note, error) {
	paths, err := l.store.List(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("loader: folder not found", slog.String("dir", dir))
			return map[string]*models.Note{}, nil
		}
		return nil, err
	}

	notes := make(map[string]*models.Note, len(paths))
	for _, rel := range paths {
		data, readErr := l.store.Read(rel)
		if readErr != nil {
			l.logger.Warn("loader: read failed",
				slog.String("path", rel),
				slog.String("error", readErr.Error()))
			continue
		}
		if !utf8.Valid(data) {
			l.logger.Warn("loader: not valid UTF-8, skipping", slog.String("path", rel))
			continue
		}

		name := stem(rel, l.store.Extension())
		if prev, ok := notes[name]; ok {
			l.logger.Warn("loader: note name collision, later file wins",
				slog.String("name", name),
				slog.String("kept", rel),
				slog.String("shadowed", prev.Path))
		}
		notes[name] = l.buildNote(name, rel, string(data))
	}

	l.logger.Info("loader: vault loaded",
		slog.String("dir", dir),
		slog.Int("notes", len(notes)))
	return notes, nil
}

func (l *Loader) buildNote(name, rel, content string) *models.Note {
	res := parser.Parse(content)
	return &models.Note{
		Name:       name,
		Path:       rel,
		Folder:     folderOf(rel),
		Content:    content,
		WordCount:  res.WordCount,
		LineCount:  res.LineCount,
		Links:      res.Links,
		Tags:       res.Tags,
		Headings:   res.Headings,
		CodeBlocks: res.CodeBlocks,
		Topics:     l.tax.Identify(content),
	}
}

func stem(rel, ext string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, ext)
}

func folderOf(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return RootFolder
	}
	return dir
}
