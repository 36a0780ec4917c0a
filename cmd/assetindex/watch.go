package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/config"
	"github.com/tqbf/assetindex/pkg/watch"
)

func debounceFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "debounce",
		Usage: "quiet period before rebuilding (default: 200ms)",
	}
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "rewrite the index whenever the assets tree changes",
		Flags:  []cli.Flag{debounceFlag()},
		Action: watchAction,
	}
}

func newWatcher(cfg config.Config, dir string) (*watch.Watcher, error) {
	w, err := watch.New(cfg.RootPath(dir), watch.Options{
		Debounce: cfg.Watch.Debounce,
		Skip:     cfg.Skip,
		Ignore:   []string{cfg.OutputPath(dir)},
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.RootPath(dir), err)
	}
	return w, nil
}

func watchAction(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}

	m, out, err := writeIndex(cfg, dir)
	if err != nil {
		return err
	}
	printSummary(m, out)

	w, err := newWatcher(cfg, dir)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	slog.Info("watching", "root", cfg.RootPath(dir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Events:
			if !ok {
				return nil
			}
			slog.Debug("assets changed", "paths", batch)
			m, out, err := writeIndex(cfg, dir)
			if err != nil {
				slog.Error("rebuild failed", "err", err)
				continue
			}
			printSummary(m, out)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
