package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/index"
)

var errStale = errors.New("index is out of date")

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "report whether the index matches the assets tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "JSON output",
			},
		},
		Action: checkAction,
	}
}

type checkJSON struct {
	UpToDate     bool         `json:"up_to_date"`
	AddedDirs    []string     `json:"added_dirs"`
	RemovedDirs  []string     `json:"removed_dirs"`
	AddedFiles   []string     `json:"added_files"`
	RemovedFiles []string     `json:"removed_files"`
	Summary      checkSummary `json:"summary"`
}

type checkSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

func checkAction(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}

	out := cfg.OutputPath(dir)
	prev, err := index.Read(out)
	switch {
	case os.IsNotExist(err):
		slog.Debug("no index yet", "path", out)
		prev = index.NewManifest()
	case err != nil:
		return fmt.Errorf("read index: %w", err)
	}

	cur, err := index.Build(cfg.RootPath(dir), cfg.IndexOptions(dir))
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	diff := index.Diff(prev, cur)
	if c.Bool("json") {
		if err := printCheckJSON(diff); err != nil {
			return err
		}
	} else {
		printCheck(diff, out)
	}

	if !diff.Empty() {
		return errStale
	}
	return nil
}

func printCheck(diff index.DiffResult, out string) {
	if diff.Empty() {
		fmt.Printf("%s is up to date.\n", out)
		return
	}

	var b strings.Builder
	for _, d := range diff.AddedDirs {
		fmt.Fprintf(&b, "  + %s/\n", d)
	}
	for _, f := range diff.AddedFiles {
		fmt.Fprintf(&b, "  + %s\n", f)
	}
	for _, d := range diff.RemovedDirs {
		fmt.Fprintf(&b, "  - %s/\n", d)
	}
	for _, f := range diff.RemovedFiles {
		fmt.Fprintf(&b, "  - %s\n", f)
	}
	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b,
		"%d added, %d removed; run assetindex to update %s\n",
		len(diff.AddedDirs)+len(diff.AddedFiles),
		len(diff.RemovedDirs)+len(diff.RemovedFiles),
		out,
	)
	fmt.Print(b.String())
}

func printCheckJSON(diff index.DiffResult) error {
	out := checkJSON{
		UpToDate:     diff.Empty(),
		AddedDirs:    orEmpty(diff.AddedDirs),
		RemovedDirs:  orEmpty(diff.RemovedDirs),
		AddedFiles:   orEmpty(diff.AddedFiles),
		RemovedFiles: orEmpty(diff.RemovedFiles),
		Summary: checkSummary{
			Added:   len(diff.AddedDirs) + len(diff.AddedFiles),
			Removed: len(diff.RemovedDirs) + len(diff.RemovedFiles),
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
