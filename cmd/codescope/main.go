package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/codescope/codescope/internal/analyzer"
	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/debug"
	"github.com/codescope/codescope/internal/mcp"
	"github.com/codescope/codescope/internal/types"
	"github.com/codescope/codescope/pkg/pathutil"
)

var Version = "0.2.0"

// loadConfigWithOverrides loads project config and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context, root string) (config.Config, error) {
	cfg, source, err := config.Load(root)
	if err != nil {
		return cfg, err
	}
	if source != "" {
		debug.Log("CONFIG", "loaded %s\n", source)
	}

	if c.IsSet("include-tests") {
		cfg.Analysis.IncludeTests = c.Bool("include-tests")
	}
	if c.IsSet("depth") {
		cfg.Analysis.Depth = types.ParseDepth(c.String("depth"))
	}
	if langs := c.StringSlice("language"); len(langs) > 0 {
		cfg.Analysis.Languages = langs
	}
	if ignores := c.StringSlice("ignore"); len(ignores) > 0 {
		cfg.Analysis.IgnorePatterns = append(cfg.Analysis.IgnorePatterns, ignores...)
	}

	return cfg, cfg.Validate()
}

func newAnalyzer(cfg config.Config) *analyzer.ProjectAnalyzer {
	return analyzer.NewProjectAnalyzer(
		analyzer.WithCache(cache.New(
			time.Duration(cfg.CacheTTLMinutes)*time.Minute,
			cfg.CacheMaxEntries,
		)),
		analyzer.WithWatchDebounce(time.Duration(cfg.WatchDebounceMs)*time.Millisecond),
	)
}

func resolveRoot(c *cli.Context) (string, error) {
	root := c.Args().First()
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if debug.IsDebugEnabled() {
		debug.SetDebugOutput(os.Stderr)
	}

	app := &cli.App{
		Name:                   "codescope",
		Usage:                  "Lightweight static analysis for project dashboards and AI assistants",
		Version:                Version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Aliases:   []string{"a"},
				Usage:     "Analyze a project tree",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "include-tests",
						Aliases: []string{"t"},
						Usage:   "Include test files and test directories",
					},
					&cli.StringFlag{
						Name:    "depth",
						Aliases: []string{"d"},
						Usage:   "Analysis depth: basic, medium or deep",
						Value:   "medium",
					},
					&cli.StringSliceFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Usage:   "Restrict to languages or extensions (e.g., -l python -l ts)",
					},
					&cli.StringSliceFlag{
						Name:  "ignore",
						Usage: "Extra exclusion globs (e.g., --ignore '**/generated/**')",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Print progress to stderr while analyzing",
					},
					&cli.BoolFlag{
						Name:  "relative",
						Usage: "Report file paths relative to the project root",
					},
				},
				Action: runAnalyze,
			},
			{
				Name:      "file",
				Aliases:   []string{"f"},
				Usage:     "Analyze a single file",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "depth",
						Aliases: []string{"d"},
						Usage:   "Analysis depth: basic, medium or deep",
						Value:   "deep",
					},
				},
				Action: runFile,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a file's import specifiers to project files",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Project root the specifiers resolve against",
						Value:   ".",
					},
				},
				Action: runResolve,
			},
			{
				Name:      "stats",
				Aliases:   []string{"s"},
				Usage:     "Quick bounded-sample stats for a project",
				ArgsUsage: "[path]",
				Action:    runStats,
			},
			{
				Name:      "clear-cache",
				Usage:     "Drop cached analyses (all, or one project)",
				ArgsUsage: "[path]",
				Action:    runClearCache,
			},
			{
				Name:  "serve",
				Usage: "Serve analysis tools over MCP stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Project root to watch for cache invalidation",
					},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfigWithOverrides(c, root)
	if err != nil {
		return err
	}

	pa := newAnalyzer(cfg)
	ctx := signalContext()

	var progress analyzer.ProgressFunc
	if c.Bool("progress") {
		progress = func(percent float64, currentFile string) {
			if currentFile != "" {
				fmt.Fprintf(os.Stderr, "\r%.0f%% %s", percent, pathutil.ToRelative(currentFile, root))
			} else {
				fmt.Fprintf(os.Stderr, "\r%.0f%%\n", percent)
			}
		}
	}

	var analysis types.ProjectAnalysis
	if progress != nil {
		analysis, err = pa.AnalyzeWithProgress(ctx, root, cfg.Analysis, progress)
	} else {
		analysis, err = pa.Analyze(ctx, root, cfg.Analysis)
	}
	if err != nil {
		return err
	}

	if c.Bool("relative") {
		analysis.Files = pathutil.ToRelativeFiles(analysis.Files, root)
		analysis.Todos = pathutil.ToRelativeTodos(analysis.Todos, root)
	}

	return printJSON(analysis)
}

func runFile(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("file path required")
	}

	pa := analyzer.NewProjectAnalyzer()
	record, err := pa.AnalyzeFile(signalContext(), path, types.ParseDepth(c.String("depth")))
	if err != nil {
		return err
	}
	return printJSON(record)
}

func runResolve(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("file path required")
	}

	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return err
	}

	pa := analyzer.NewProjectAnalyzer()
	bindings, err := pa.ResolveImports(signalContext(), root, path)
	if err != nil {
		return err
	}
	return printJSON(bindings)
}

func runStats(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	pa := analyzer.NewProjectAnalyzer()
	stats, err := pa.QuickStats(signalContext(), root)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runClearCache(c *cli.Context) error {
	pa := analyzer.NewProjectAnalyzer()
	cleared := pa.ClearCache(c.Args().First())
	return printJSON(map[string]interface{}{"cleared": cleared})
}

func runServe(c *cli.Context) error {
	cfg, _, err := config.Load(".")
	if err != nil {
		return err
	}

	pa := newAnalyzer(cfg)
	if watchRoot := c.String("watch"); watchRoot != "" {
		if err := pa.WatchInvalidate(watchRoot); err != nil {
			return fmt.Errorf("failed to watch %s: %w", watchRoot, err)
		}
	}

	server := mcp.NewServer(pa)
	return server.Run(signalContext())
}

// signalContext cancels on SIGINT/SIGTERM so analyses stop cleanly.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}
