package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArnabMallick12/Video-Editor/internal/config"
	"github.com/ArnabMallick12/Video-Editor/internal/workspace"
)

// WorkspaceSweeper removes workspaces left behind by crashed or killed
// service processes.
type WorkspaceSweeper struct {
	root     *workspace.Root
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

func NewWorkspaceSweeper(root *workspace.Root, interval, maxAge time.Duration, logger *slog.Logger) *WorkspaceSweeper {
	return &WorkspaceSweeper{
		root:     root,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

func (ws *WorkspaceSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(ws.interval)
	defer ticker.Stop()

	ws.logger.Info("Workspace sweeper started",
		"root", ws.root.Dir(),
		"interval", ws.interval.String(),
		"max_age", ws.maxAge.String())

	// Run once immediately on startup
	ws.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			ws.logger.Info("Workspace sweeper shutting down")
			return
		case <-ticker.C:
			ws.sweep(ctx)
		}
	}
}

func (ws *WorkspaceSweeper) sweep(ctx context.Context) {
	startTime := time.Now()

	count, err := ws.root.Sweep(ctx, ws.maxAge)
	if err != nil {
		ws.logger.Error("Failed to sweep workspaces",
			"error", err.Error(),
			"workspaces_removed", count,
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)

	ws.logger.Info("Completed workspace sweep",
		"workspaces_removed", count,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Sweep reports cleanup failures through the root's logger.
	root, err := workspace.NewRoot(cfg.Workspace.Root, logger)
	if err != nil {
		log.Fatal("Failed to open workspace root:", err)
	}

	sweeper := NewWorkspaceSweeper(root, cfg.Workspace.SweepInterval, cfg.Workspace.MaxAge, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	sweeper.Start(ctx)

	slog.Info("Workspace sweeper stopped")
}
