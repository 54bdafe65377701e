package autolink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vaultlens/vaultlens/internal/apperr"
	"github.com/vaultlens/vaultlens/internal/checksum"
	"github.com/vaultlens/vaultlens/internal/storage"
)

const manifestName = "manifest.json"

// FileRecord describes one file captured in a backup.
type FileRecord struct {
	Path string `json:"path"` // vault-relative
	Hash string `json:"hash"` // hex SHA-256 of the content
	Size int64  `json:"size"`
}

// Manifest is the JSON document written alongside the copied files. A
// backup is immutable once written; it is only read during rollback,
// verification, or listing.
type Manifest struct {
	BackupID   string       `json:"backup_id"`
	Timestamp  string       `json:"timestamp"`
	SafetyTier string       `json:"safety_tier"`
	Files      []FileRecord `json:"files"`
}

// createBackup copies every listed vault file verbatim into a
// timestamp-named directory under backupRoot and writes the manifest.
// Any failure aborts: a backup that cannot be completed must block the
// mutation that follows it.
func createBackup(store *storage.FS, backupRoot string, tier Tier, paths []string, now time.Time) (*Manifest, error) {
	ts := now.Format("20060102_150405")
	id := "backup_" + ts
	dir := filepath.Join(backupRoot, id)

	if err := os.MkdirAll(backupRoot, 0o755); err != nil {
		return nil, fmt.Errorf("autolink: create backup root: %w", err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("autolink: create backup dir: %w", err)
	}

	m := &Manifest{BackupID: id, Timestamp: ts, SafetyTier: string(tier)}
	for _, rel := range paths {
		data, err := store.Read(rel)
		if err != nil {
			return nil, fmt.Errorf("autolink: backup read %s: %w", rel, err)
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("autolink: backup mkdir: %w", err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("autolink: backup write %s: %w", rel, err)
		}
		m.Files = append(m.Files, FileRecord{
			Path: rel,
			Hash: checksum.Sum(data),
			Size: int64(len(data)),
		})
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("autolink: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), raw, 0o644); err != nil {
		return nil, fmt.Errorf("autolink: write manifest: %w", err)
	}
	return m, nil
}

// readManifest loads a backup's manifest by identifier.
func readManifest(backupRoot, backupID string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(backupRoot, backupID, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("autolink: backup %s: %w", backupID, apperr.ErrBackupNotFound)
		}
		return nil, fmt.Errorf("autolink: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("autolink: decode manifest: %w", err)
	}
	return &m, nil
}

// ListBackups returns the manifests of all backups under backupRoot,
// newest first. A missing backup root yields an empty list.
func ListBackups(backupRoot string) ([]Manifest, error) {
	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("autolink: list backups: %w", err)
	}

	var out []Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, mErr := readManifest(backupRoot, e.Name())
		if mErr != nil {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

// VerifyBackup recomputes the hash of every copied file and compares it
// against the manifest.
func VerifyBackup(backupRoot, backupID string) error {
	m, err := readManifest(backupRoot, backupID)
	if err != nil {
		return err
	}
	dir := filepath.Join(backupRoot, backupID)
	for _, f := range m.Files {
		sum, sumErr := checksum.SumFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		if sumErr != nil {
			return fmt.Errorf("autolink: verify %s: %w", f.Path, sumErr)
		}
		if sum != f.Hash {
			return fmt.Errorf("autolink: verify %s: hash mismatch", f.Path)
		}
	}
	return nil
}

// Rollback copies every recorded file back from the backup directory to
// its original vault-relative path. It requires explicit confirmation,
// returns the number of files restored, and never deletes the backup.
func Rollback(store *storage.FS, backupRoot, backupID string, confirm bool, logger *slog.Logger) (int, error) {
	if !confirm {
		return 0, fmt.Errorf("autolink: rollback of %s: %w", backupID, apperr.ErrConfirmationRequired)
	}
	m, err := readManifest(backupRoot, backupID)
	if err != nil {
		return 0, err
	}

	dir := filepath.Join(backupRoot, backupID)
	restored := 0
	for _, f := range m.Files {
		data, readErr := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		if readErr != nil {
			logger.Warn("rollback: backup copy unreadable",
				slog.String("path", f.Path),
				slog.String("error", readErr.Error()))
			continue
		}
		if writeErr := store.Write(f.Path, data); writeErr != nil {
			logger.Warn("rollback: restore failed",
				slog.String("path", f.Path),
				slog.String("error", writeErr.Error()))
			continue
		}
		restored++
	}

	logger.Info("rollback: complete",
		slog.String("backup_id", backupID),
		slog.Int("restored", restored))
	return restored, nil
}
