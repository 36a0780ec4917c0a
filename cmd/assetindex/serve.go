package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tqbf/assetindex/pkg/devserver"
	"github.com/tqbf/assetindex/pkg/watch"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the assets and a live index over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				EnvVars: []string{"ASSETINDEX_ADDR"},
				Usage:   "listen address (default: 127.0.0.1:8080)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "URL prefix for assets (default: /assets/)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: true,
				Usage: "rebuild the index when files change",
			},
			debounceFlag(),
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Serve.Addr = c.String("addr")
	}
	if c.IsSet("prefix") {
		cfg.Serve.Prefix = c.String("prefix")
	}

	root := cfg.RootPath(dir)
	srv, err := devserver.New(root, cfg.IndexOptions(dir))
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if c.Bool("watch") {
		w, err := newWatcher(cfg, dir)
		if err != nil {
			return err
		}
		defer w.Close()
		go rebuildOnChange(ctx, w, srv)
	}

	hs := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv.Handler(cfg.Serve.Prefix),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()

	m := srv.Manifest()
	fmt.Printf(
		"Serving %s (%d dirs, %d files) on http://%s%s\n",
		root, len(m.Dirs), len(m.Files),
		cfg.Serve.Addr, cfg.Serve.Prefix,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), 5*time.Second,
	)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func rebuildOnChange(
	ctx context.Context,
	w *watch.Watcher,
	srv *devserver.Server,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.Events:
			if !ok {
				return
			}
			m, err := srv.Rebuild()
			if err != nil {
				slog.Error("rebuild failed", "err", err)
				continue
			}
			slog.Info("index rebuilt",
				"changed", len(batch),
				"dirs", len(m.Dirs),
				"files", len(m.Files),
				"clients", srv.Subscribers(),
			)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
