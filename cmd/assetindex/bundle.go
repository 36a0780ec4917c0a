package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/bundle"
	"github.com/tqbf/assetindex/pkg/index"
)

func bundleCmd() *cli.Command {
	return &cli.Command{
		Name:      "bundle",
		Usage:     "pack index.json and every indexed file into a tarball",
		ArgsUsage: "<out.tar[.gz]>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "compress",
				Value: true,
				Usage: "gzip the tarball",
			},
		},
		Action: bundleAction,
	}
}

func bundleAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: assetindex bundle <out.tar[.gz]>")
	}
	dest, err := filepath.Abs(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}

	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}

	root := cfg.RootPath(dir)
	opts := cfg.IndexOptions(dir)
	opts.Ignore = append(opts.Ignore, dest)
	m, err := index.Build(root, opts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	count, err := bundle.Write(root, m, f, c.Bool("compress"))
	closeErr := f.Close()
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("bundle: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", dest, closeErr)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dest, err)
	}
	fmt.Printf(
		"Bundled %d files (%s) into %s\n",
		count, humanBytes(info.Size()), dest,
	)
	return nil
}
