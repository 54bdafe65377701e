// Package mcpserver exposes vault analysis tools to LLM clients over
// the Model Context Protocol via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vaultlens/vaultlens/internal/analyze"
	"github.com/vaultlens/vaultlens/internal/api"
	"github.com/vaultlens/vaultlens/internal/autolink"
	"github.com/vaultlens/vaultlens/internal/storage"
)

// Server wraps the MCP server with vault analysis tools.
type Server struct {
	mcp        *server.MCPServer
	svc        *api.Service
	store      *storage.FS
	backupRoot string
	logger     *slog.Logger
}

// New creates a new MCP server with all tools registered.
func New(svc *api.Service, store *storage.FS, backupRoot string, logger *slog.Logger) *Server {
	s := &Server{svc: svc, store: store, backupRoot: backupRoot, logger: logger}

	s.mcp = server.NewMCPServer(
		"VaultLens",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_vault",
		mcp.WithDescription("Run a full vault analysis: folder statistics, orphaned notes, cross-folder opportunities, and the health score."),
	), s.analyzeVault)

	s.mcp.AddTool(mcp.NewTool("vault_report",
		mcp.WithDescription("Render the full vault analysis as a Markdown report."),
	), s.vaultReport)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Suggest wikilink targets for one note, ranked by confidence (literal title mentions score highest)."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note name (filename without extension)")),
	), s.suggestLinks)

	s.mcp.AddTool(mcp.NewTool("note_structure",
		mcp.WithDescription("Suggest structural improvements for one note: headings, code block organization, tags."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note name (filename without extension)")),
	), s.noteStructure)

	s.mcp.AddTool(mcp.NewTool("discover_connections",
		mcp.WithDescription("Ask the configured LLM classifier which unlinked note pairs should be connected. Fails when no classifier is configured."),
	), s.discoverConnections)

	s.mcp.AddTool(mcp.NewTool("apply_links",
		mcp.WithDescription("Insert suggested wikilinks into note files. Runs as a dry run unless apply is \"true\"; real runs take a backup first and respect the configured safety tier."),
		mcp.WithString("folder", mcp.Description("Optional folder to restrict the batch to")),
		mcp.WithString("threshold", mcp.Description("Minimum confidence between 0 and 1 (default 0.7)")),
		mcp.WithString("apply", mcp.Description("\"true\" to write changes; anything else is a dry run")),
	), s.applyLinks)

	s.mcp.AddTool(mcp.NewTool("list_backups",
		mcp.WithDescription("List safety backups, newest first."),
	), s.listBackups)

	s.mcp.AddTool(mcp.NewTool("rollback_backup",
		mcp.WithDescription("Restore every file recorded in a backup. Requires confirm=\"true\"."),
		mcp.WithString("backup_id", mcp.Required(), mcp.Description("Backup identifier, e.g. backup_20250314_092653")),
		mcp.WithString("confirm", mcp.Required(), mcp.Description("Must be \"true\" to proceed")),
	), s.rollbackBackup)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) analyzeVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.svc.Analysis(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) vaultReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.svc.Analysis(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(analyze.ExportMarkdown(a)), nil
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sugg, err := s.svc.Suggestions(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sugg.Links, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) noteStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sugg, err := s.svc.Suggestions(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sugg.Structure, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) discoverConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	connections, err := s.svc.Discover(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(connections, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	threshold := autolink.DefaultThreshold
	if raw, err := req.RequireString("threshold"); err == nil && raw != "" {
		parsed, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil || parsed < 0 || parsed > 1 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid threshold %q", raw)), nil
		}
		threshold = parsed
	}

	apply := false
	if raw, err := req.RequireString("apply"); err == nil {
		apply = raw == "true"
	}

	res, err := s.svc.ApplyLinks(ctx, autolink.Options{
		Folder:              folder,
		ConfidenceThreshold: threshold,
		DryRun:              !apply,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listBackups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	backups, err := autolink.ListBackups(s.backupRoot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if backups == nil {
		backups = []autolink.Manifest{}
	}
	out, _ := json.MarshalIndent(backups, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) rollbackBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	backupID, err := req.RequireString("backup_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	confirm, err := req.RequireString("confirm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	restored, err := autolink.Rollback(s.store, s.backupRoot, backupID, confirm == "true", s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored %d files from %s", restored, backupID)), nil
}
