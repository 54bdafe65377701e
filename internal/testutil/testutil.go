// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/taxonomy"
	"github.com/vaultlens/vaultlens/internal/vault"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestVault creates a temporary vault directory populated with the given
// files (vault-relative path to content) and returns its storage.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	for rel, content := range files {
		WriteNote(t, vaultDir, rel, content)
	}
	store, err := storage.NewFS(vaultDir, ".md", nil)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestLoader creates a loader over the given storage, with the default
// taxonomy and a silent logger.
func TestLoader(t *testing.T, store *storage.FS) *vault.Loader {
	t.Helper()
	return vault.NewLoader(store, taxonomy.Default(), Logger())
}

// WriteNote writes a note file under root, creating parent directories.
func WriteNote(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
