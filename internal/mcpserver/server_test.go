package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vaultlens/vaultlens/internal/api"
	"github.com/vaultlens/vaultlens/internal/autolink"
	"github.com/vaultlens/vaultlens/internal/models"
	"github.com/vaultlens/vaultlens/internal/semantic"
	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/testutil"
)

func testServer(t *testing.T, files map[string]string) (*Server, *storage.FS) {
	t.Helper()

	_, store := testutil.TestVault(t, files)
	logger := testutil.Logger()
	loader := testutil.TestLoader(t, store)
	backupRoot := filepath.Join(t.TempDir(), "backups")
	svc := api.NewService(store, loader, autolink.TierBalanced, backupRoot, nil, logger)
	return New(svc, store, backupRoot, logger), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "analyze_vault":
		result, err = srv.analyzeVault(ctx, req)
	case "vault_report":
		result, err = srv.vaultReport(ctx, req)
	case "suggest_links":
		result, err = srv.suggestLinks(ctx, req)
	case "note_structure":
		result, err = srv.noteStructure(ctx, req)
	case "discover_connections":
		result, err = srv.discoverConnections(ctx, req)
	case "apply_links":
		result, err = srv.applyLinks(ctx, req)
	case "list_backups":
		result, err = srv.listBackups(ctx, req)
	case "rollback_backup":
		result, err = srv.rollbackBackup(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAnalyzeVault(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"Alpha/One.md": "links to [[Two]]",
		"Alpha/Two.md": "# Two\nbody",
	})

	r := callTool(t, srv, "analyze_vault", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"total_notes": 2`) {
		t.Errorf("analysis output = %q", text)
	}

	r = callTool(t, srv, "vault_report", map[string]interface{}{})
	if !strings.Contains(resultText(r), "# Vault Analysis Report") {
		t.Errorf("report output = %q", resultText(r))
	}
}

func TestSuggestLinks(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"Source.md": "See Target for details",
		"Target.md": "standalone body",
	})

	r := callTool(t, srv, "suggest_links", map[string]interface{}{"note": "Source"})
	text := resultText(r)
	if !strings.Contains(text, `"target": "Target"`) {
		t.Errorf("suggestions = %q", text)
	}

	r = callTool(t, srv, "suggest_links", map[string]interface{}{"note": "Missing"})
	if !r.IsError {
		t.Error("expected error for unknown note")
	}
}

func TestApplyLinks_DryRunByDefault(t *testing.T) {
	srv, store := testServer(t, map[string]string{
		"Source.md": "See Target for details",
		"Target.md": "standalone body",
	})

	r := callTool(t, srv, "apply_links", map[string]interface{}{"threshold": "0.9"})
	text := resultText(r)
	if !strings.Contains(text, `"dry_run": true`) {
		t.Errorf("apply result = %q", text)
	}
	got, _ := store.Read("Source.md")
	if string(got) != "See Target for details" {
		t.Errorf("dry run modified the file: %q", got)
	}
}

func TestApplyAndRollback(t *testing.T) {
	srv, store := testServer(t, map[string]string{
		"Source.md": "See Target for details",
		"Target.md": "standalone body",
	})

	r := callTool(t, srv, "apply_links", map[string]interface{}{
		"threshold": "0.9",
		"apply":     "true",
	})
	if r.IsError {
		t.Fatalf("apply failed: %q", resultText(r))
	}
	got, _ := store.Read("Source.md")
	if string(got) != "See [[Target]] for details" {
		t.Fatalf("content = %q", got)
	}

	r = callTool(t, srv, "list_backups", map[string]interface{}{})
	text := resultText(r)
	idx := strings.Index(text, `"backup_id": "`)
	if idx < 0 {
		t.Fatalf("no backup listed: %q", text)
	}
	rest := text[idx+len(`"backup_id": "`):]
	backupID := rest[:strings.Index(rest, `"`)]

	// Rollback must be explicit.
	r = callTool(t, srv, "rollback_backup", map[string]interface{}{
		"backup_id": backupID,
		"confirm":   "no",
	})
	if !r.IsError {
		t.Error("unconfirmed rollback should fail")
	}

	r = callTool(t, srv, "rollback_backup", map[string]interface{}{
		"backup_id": backupID,
		"confirm":   "true",
	})
	if r.IsError {
		t.Fatalf("rollback failed: %q", resultText(r))
	}
	got, _ = store.Read("Source.md")
	if string(got) != "See Target for details" {
		t.Errorf("content after rollback = %q", got)
	}
}

type stubClassifier struct {
	judgment *semantic.Judgment
}

func (s stubClassifier) Judge(_ context.Context, _, _ *models.Note) (*semantic.Judgment, error) {
	return s.judgment, nil
}

func TestDiscoverConnections(t *testing.T) {
	_, store := testutil.TestVault(t, map[string]string{
		"Alpha.md": "notes on deployment",
		"Beta.md":  "more deployment notes",
	})
	logger := testutil.Logger()
	loader := testutil.TestLoader(t, store)
	backupRoot := filepath.Join(t.TempDir(), "backups")

	classifier := stubClassifier{judgment: &semantic.Judgment{
		ShouldLink: true, Confidence: 0.8, Explanation: "same topic",
	}}
	svc := api.NewService(store, loader, autolink.TierBalanced, backupRoot, classifier, logger)
	srv := New(svc, store, backupRoot, logger)

	r := callTool(t, srv, "discover_connections", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("discover failed: %q", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"target": "Beta"`) {
		t.Errorf("connections = %q", text)
	}
}

func TestDiscoverConnections_NoClassifier(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"One.md": "body"})
	r := callTool(t, srv, "discover_connections", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without a configured classifier")
	}
}

func TestApplyLinks_BadThreshold(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"One.md": "body"})
	r := callTool(t, srv, "apply_links", map[string]interface{}{"threshold": "two"})
	if !r.IsError {
		t.Error("expected error for unparseable threshold")
	}
}
