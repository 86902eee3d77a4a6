package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	settingsPath := flag.String("settings", "", "Path to a settings YAML file reloaded on change (empty = static)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Save a population snapshot on each bookmark (empty = disabled)")
	hallPath := flag.String("hall", "", "Seed and reseed from a hall_of_fame.json written by an earlier run")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *hallPath != "" {
		cfg.HallOfFame.ReseedFromHall = true
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Seed:           rngSeed,
		Config:         cfg,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		HallOfFamePath: *hallPath,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *settingsPath != "" {
		watcher, err := config.NewSettingsWatcher(*settingsPath, cfg.Settings)
		if err != nil {
			slog.Error("failed to load settings", "error", err)
			os.Exit(1)
		}
		if err := watcher.Start(ctx); err != nil {
			slog.Error("failed to watch settings", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				slog.Error("failed to stop settings watcher", "error", err)
			}
		}()
		opts.Settings = watcher
	}

	g := game.NewGameWithOptions(opts)
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"stats_window", *statsWindow,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", g.Tick())
			return
		default:
		}

		g.UpdateHeadless()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick(), "cells", g.CellCount())
			return
		}
	}
}
