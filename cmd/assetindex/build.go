package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/index"
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Usage:  "write the index (the default when no command is given)",
		Action: buildAction,
	}
}

func buildAction(c *cli.Context) error {
	if c.NArg() != 0 {
		return fmt.Errorf(
			"unexpected argument %q (usage: assetindex [build])",
			c.Args().First(),
		)
	}
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}

	m, out, err := writeIndex(cfg, dir)
	if err != nil {
		return err
	}
	slog.Debug("wrote index", "path", out)
	printSummary(m, out)
	return nil
}

func printSummary(m *index.Manifest, out string) {
	fmt.Printf(
		"Indexed %d entries (%d dirs, %d files) into %s\n",
		m.Len(), len(m.Dirs), len(m.Files), out,
	)
}
