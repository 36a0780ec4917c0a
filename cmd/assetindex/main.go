package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/config"
	"github.com/tqbf/assetindex/pkg/index"
)

const appVersion = "0.1.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "assetindex",
		Usage: "write assets/index.json listing every shippable asset",
		Before: func(c *cli.Context) error {
			configureLogging(c.Bool("verbose"))
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				EnvVars: []string{"ASSETINDEX_DIR"},
				Usage:   "working directory (default: current directory)",
			},
			&cli.StringFlag{
				Name:    "root",
				EnvVars: []string{"ASSETINDEX_ROOT"},
				Usage:   "assets root, relative to --dir (default: assets)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				EnvVars: []string{"ASSETINDEX_OUTPUT"},
				Usage:   "index file (default: <root>/index.json)",
			},
			&cli.StringSliceFlag{
				Name:    "skip",
				EnvVars: []string{"ASSETINDEX_SKIP"},
				Usage:   "skip directories whose path contains this (repeatable, default: assets/server)",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				EnvVars: []string{"ASSETINDEX_EXCLUDE"},
				Usage:   "exclude glob pattern (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "slash",
				EnvVars: []string{"ASSETINDEX_SLASH"},
				Usage:   "record paths with forward slashes",
			},
			&cli.BoolFlag{
				Name:    "indent",
				EnvVars: []string{"ASSETINDEX_INDENT"},
				Usage:   "pretty-print the index",
			},
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{"ASSETINDEX_CONFIG"},
				Usage:   "config file (default: <dir>/" + config.FileName + " if present)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
		},
		Action: buildAction,
		Commands: []*cli.Command{
			buildCmd(),
			checkCmd(),
			watchCmd(),
			serveCmd(),
			bundleCmd(),
			{
				Name:  "version",
				Usage: "print version",
				Action: func(c *cli.Context) error {
					fmt.Println(appVersion)
					return nil
				},
			},
		},
	}
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}),
	))
}

// loadConfig layers flags and env over the config file over defaults.
func loadConfig(c *cli.Context) (config.Config, string, error) {
	dir := c.String("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, "", fmt.Errorf("getwd: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("resolve dir: %w", err)
	}

	path := c.String("config")
	required := path != ""
	if !required {
		path = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, dir, err
	}

	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("skip") {
		cfg.Skip = c.StringSlice("skip")
	}
	if c.IsSet("exclude") {
		cfg.Exclude = c.StringSlice("exclude")
	}
	if c.IsSet("slash") {
		cfg.Slash = c.Bool("slash")
	}
	if c.IsSet("indent") {
		cfg.Indent = c.Bool("indent")
	}
	if c.IsSet("debounce") {
		cfg.Watch.Debounce = c.Duration("debounce")
	}
	slog.Debug("config",
		"dir", dir,
		"root", cfg.Root,
		"output", cfg.OutputPath(dir),
		"skip", cfg.Skip,
		"exclude", cfg.Exclude,
	)
	return cfg, dir, cfg.Validate()
}

// writeIndex is the whole default run: walk the root, write the index.
func writeIndex(
	cfg config.Config, dir string,
) (*index.Manifest, string, error) {
	m, err := index.Build(cfg.RootPath(dir), cfg.IndexOptions(dir))
	if err != nil {
		return nil, "", fmt.Errorf("build index: %w", err)
	}
	out := cfg.OutputPath(dir)
	if err := index.Write(m, out, cfg.Indent); err != nil {
		return nil, "", fmt.Errorf("write index: %w", err)
	}
	return m, out, nil
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf(
			"%.1f MB", float64(n)/(1<<20),
		)
	case n >= 1<<10:
		return fmt.Sprintf(
			"%.1f KB", float64(n)/(1<<10),
		)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
