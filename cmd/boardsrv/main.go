// Command boardsrv serves balanced boards over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/turbo-catan/internal/api"
	"github.com/talgya/turbo-catan/internal/config"
	"github.com/talgya/turbo-catan/internal/entropy"
	"github.com/talgya/turbo-catan/internal/persistence"
	"github.com/talgya/turbo-catan/internal/render"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(stdout, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// --- Generation log ---
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening generation log: %w", err)
	}
	defer db.Close()
	if err := db.MarkStarted(ctx, time.Now()); err != nil {
		return fmt.Errorf("marking start: %w", err)
	}
	logger.Info("database opened", "path", cfg.DBPath)

	// --- Seeds ---
	ent := entropy.NewClient(cfg.RandomOrgAPIKey)
	if ent.Enabled() {
		logger.Info("seeding from random.org")
	} else {
		logger.Warn("RANDOM_ORG_API_KEY not set, seeding from crypto/rand")
	}

	// --- HTTP Server ---
	srv := api.New(logger, api.Deps{
		Config:   cfg,
		Log:      db,
		Entropy:  ent,
		Renderer: render.NewRenderer(render.DefaultOptions()),
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "max_players", cfg.MaxPlayers)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
