package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/vaultlens/vaultlens/internal"
	"github.com/vaultlens/vaultlens/internal/analyze"
	"github.com/vaultlens/vaultlens/internal/api"
	"github.com/vaultlens/vaultlens/internal/apperr"
	"github.com/vaultlens/vaultlens/internal/autolink"
	"github.com/vaultlens/vaultlens/internal/graph"
	"github.com/vaultlens/vaultlens/internal/mcpserver"
	"github.com/vaultlens/vaultlens/internal/semantic"
	"github.com/vaultlens/vaultlens/internal/storage"
	"github.com/vaultlens/vaultlens/internal/suggest"
	"github.com/vaultlens/vaultlens/internal/taxonomy"
	"github.com/vaultlens/vaultlens/internal/vault"
	pkgconfig "github.com/vaultlens/vaultlens/pkg/config"
)

// env bundles the pieces every CLI command needs.
type env struct {
	cfg    *internal.Config
	store  *storage.FS
	loader *vault.Loader
	logger *slog.Logger
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if tier := cmd.String("tier"); tier != "" {
		cfg.Safety.Tier = tier
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEnv builds the storage/loader pair used by the one-shot commands.
// Logs go to stderr as text so stdout stays clean for command output.
func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	store, err := storage.NewFS(cfg.Vault.Path, cfg.Vault.Extension, cfg.Vault.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		store:  store,
		loader: vault.NewLoader(store, taxonomy.Default(), logger),
		logger: logger,
	}, nil
}

// classifierFromConfig returns the LLM classifier client, or nil when
// the feature is disabled.
func classifierFromConfig(cfg *internal.Config) semantic.Classifier {
	if !cfg.Classifier.Enabled {
		return nil
	}
	return semantic.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.APIKey, cfg.Classifier.Model)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	notes, err := e.loader.Load(cmd.String("folder"))
	if err != nil {
		return err
	}
	a := analyze.Run(e.store.Root(), notes, graph.BuildBacklinks(notes))

	if out := cmd.String("report"); out != "" {
		if err := os.WriteFile(out, []byte(analyze.ExportMarkdown(a)), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		e.logger.Info("report written", slog.String("path", out))
		return nil
	}
	return printJSON(a)
}

func runSuggest(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: suggest <note>")
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	notes, err := e.loader.Load("")
	if err != nil {
		return err
	}
	note, ok := notes[name]
	if !ok {
		return fmt.Errorf("note not found: %s", name)
	}
	return printJSON(map[string]any{
		"note":      name,
		"links":     suggest.FindLinkSuggestions(note, notes),
		"structure": suggest.AnalyzeStructure(note),
	})
}

func runDiscover(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	classifier := classifierFromConfig(e.cfg)
	if classifier == nil {
		return fmt.Errorf("set classifier.enabled with base_url and model in the config: %w", apperr.ErrClassifierDisabled)
	}

	notes, err := e.loader.Load(cmd.String("folder"))
	if err != nil {
		return err
	}
	connections := semantic.DiscoverConnections(ctx, classifier, notes, e.logger)
	return printJSON(map[string]any{"connections": connections})
}

func runLink(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	threshold := cmd.Float("threshold")
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}

	linker := autolink.New(e.store, e.loader, autolink.Tier(e.cfg.Safety.Tier), e.cfg.Safety.BackupDir, e.logger)
	res, err := linker.Run(autolink.Options{
		Folder:              cmd.String("folder"),
		ConfidenceThreshold: threshold,
		DryRun:              !cmd.Bool("apply"),
	})
	if err != nil {
		return err
	}
	if res.DryRun {
		e.logger.Info("dry run only, pass --apply to write changes")
	}
	return printJSON(res)
}

func runRollback(ctx context.Context, cmd *cli.Command) error {
	backupID := cmd.Args().First()
	if backupID == "" {
		return fmt.Errorf("usage: rollback <backup-id> --confirm")
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	restored, err := autolink.Rollback(e.store, e.cfg.Safety.BackupDir, backupID, cmd.Bool("confirm"), e.logger)
	if err != nil {
		return err
	}
	fmt.Printf("restored %d files from %s\n", restored, backupID)
	return nil
}

func runBackups(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	backups, err := autolink.ListBackups(e.cfg.Safety.BackupDir)
	if err != nil {
		return err
	}
	if backups == nil {
		backups = []autolink.Manifest{}
	}
	return printJSON(backups)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	svc := api.NewService(e.store, e.loader, autolink.Tier(e.cfg.Safety.Tier), e.cfg.Safety.BackupDir, classifierFromConfig(e.cfg), e.logger)
	srv := mcpserver.New(svc, e.store, e.cfg.Safety.BackupDir, e.logger)
	return srv.ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "vaultlens",
		Usage: "Analyze a Markdown vault's link graph, suggest connections, and apply them safely",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides config)",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
			&cli.StringFlag{
				Name:  "tier",
				Usage: "Safety tier: paranoid, conservative, balanced, aggressive (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Analyze the vault and print statistics or write a Markdown report",
				Action: runAnalyze,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Restrict analysis to one folder"},
					&cli.StringFlag{Name: "report", Usage: "Write a Markdown report to this path"},
				},
			},
			{
				Name:      "suggest",
				Usage:     "Print link and structure suggestions for one note",
				ArgsUsage: "<note>",
				Action:    runSuggest,
			},
			{
				Name:   "discover",
				Usage:  "Ask the configured LLM classifier which unlinked notes should connect",
				Action: runDiscover,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Restrict discovery to one folder"},
				},
			},
			{
				Name:   "link",
				Usage:  "Insert suggested wikilinks (dry run unless --apply)",
				Action: runLink,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Restrict the batch to one folder"},
					&cli.FloatFlag{Name: "threshold", Usage: "Minimum suggestion confidence", Value: autolink.DefaultThreshold},
					&cli.BoolFlag{Name: "apply", Usage: "Write changes instead of previewing them"},
				},
			},
			{
				Name:      "rollback",
				Usage:     "Restore files from a backup",
				ArgsUsage: "<backup-id>",
				Action:    runRollback,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "confirm", Usage: "Required to actually restore"},
				},
			},
			{
				Name:   "backups",
				Usage:  "List safety backups, newest first",
				Action: runBackups,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server with live vault watching",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault tools over the Model Context Protocol on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
