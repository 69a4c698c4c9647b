package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultpress/internal"
	"github.com/starford/vaultpress/internal/console"
	"github.com/starford/vaultpress/internal/convert"
	"github.com/starford/vaultpress/internal/picker"
	"github.com/starford/vaultpress/internal/press"
	pkgconfig "github.com/starford/vaultpress/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func openApp(cfg *internal.Config, opts ...internal.Option) (*internal.App, error) {
	app, err := internal.New(append([]internal.Option{internal.WithConfig(cfg)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("app init error: %w", err)
	}
	return app, nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return cli.Exit("usage: vaultpress convert <input.md> [slug] [vault]", 2)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v := cmd.Args().Get(2); v != "" {
		cfg.Vault.Path = v
	}

	features, err := press.ParseFeatures(cmd.String("feature"))
	if err != nil {
		return err
	}

	var opts []internal.Option
	interactive := cmd.Bool("interactive")
	if interactive {
		opts = append(opts, internal.WithPicker(picker.NewTerminal(os.Stdin, os.Stderr)))
	}
	app, err := openApp(cfg, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	rep, err := app.Press().Publish(ctx, press.PublishRequest{
		Input:   cmd.Args().Get(0),
		Slug:    cmd.Args().Get(1),
		Policy:  cmd.String("policy"),
		Feature: features,
		Pick:    interactive,
		DryRun:  cmd.Bool("dry-run"),
		Force:   cmd.Bool("force"),
	})
	if err != nil {
		if errors.Is(err, picker.ErrCancelled) {
			return cli.Exit("cancelled", 1)
		}
		return err
	}
	console.New(os.Stdout).Publish(rep)
	return nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	rep, err := app.Press().Migrate(ctx, press.MigrateRequest{
		Pattern: cmd.Args().First(),
		Policy:  cmd.String("policy"),
		DryRun:  cmd.Bool("dry-run"),
		Workers: int(cmd.Int("workers")),
	})
	if rep != nil {
		console.New(os.Stdout).Migrate(rep)
	}
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d bundle(s) failed", rep.Failed), 1)
	}
	return nil
}

func runPosts(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	posts, total, err := app.Press().Posts(int(cmd.Int("limit")), int(cmd.Int("offset")), cmd.String("query"))
	if err != nil {
		return err
	}
	console.New(os.Stdout).Posts(posts, total)
	return nil
}

func runRuns(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	runs, err := app.Press().Runs(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	console.New(os.Stdout).Runs(runs)
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := console.New(os.Stdout)
	return app.Watch(ctx, func(path string, rep *press.Report, err error) {
		switch {
		case err != nil:
			out.Error(fmt.Errorf("%s: %w", path, err))
		case !rep.Unchanged:
			out.Publish(rep)
		}
	})
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

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.ServeMCP()
}

func policyFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "policy",
		Aliases: []string{"p"},
		Usage:   fmt.Sprintf("Frontmatter policy %v (default from config)", convert.PolicyNames()),
	}
}

func dryRunFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"n"},
		Usage:   "Show a diff instead of writing",
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "vaultpress",
		Usage: "Publish Obsidian notes as Hugo page bundles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert a note into a page bundle",
				ArgsUsage: "<input.md> [slug] [vault]",
				Action:    runConvert,
				Flags: []cli.Flag{
					policyFlag(),
					&cli.StringFlag{
						Name:  "feature",
						Usage: "Comma separated 1-based positions of feature images, e.g. 1,3 (legacy policy)",
					},
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Choose feature images interactively (legacy policy)",
					},
					dryRunFlag(),
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite a bundle published from another note",
					},
				},
			},
			{
				Name:      "migrate",
				Usage:     "Re-normalize the frontmatter of existing bundles",
				ArgsUsage: "[pattern]",
				Action:    runMigrate,
				Flags: []cli.Flag{
					policyFlag(),
					dryRunFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Bundles processed in parallel",
						Value: 4,
					},
				},
			},
			{
				Name:   "posts",
				Usage:  "List published posts",
				Action: runPosts,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search title, slug or source"},
					&cli.IntFlag{Name: "limit", Value: 50, Usage: "Page size"},
					&cli.IntFlag{Name: "offset", Usage: "Page offset"},
				},
			},
			{
				Name:   "runs",
				Usage:  "List recent migration runs",
				Action: runRuns,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max runs"},
				},
			},
			{
				Name:   "watch",
				Usage:  "Publish drafts as they change",
				Action: runWatch,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
