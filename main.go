package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Crop catalog YAML overlaid on the built-in one")
	layoutSeed := flag.Int64("layout-seed", 0, "Field layout seed (0 = time-based)")
	offline := flag.Duration("offline", 0, "Simulate this much offline time in one catch-up (e.g. 72h)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N drive calls (0 = unlimited)")
	step := flag.Float64("step", 60, "Simulated seconds per drive call when not realtime")
	starterSeeds := flag.Float64("starter-seeds", 200, "Seeds granted for the starter farm (0 = empty field)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulated seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	realtime := flag.Duration("realtime", 0, "Drive from the wall clock at this interval instead of stepping")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	seed := *layoutSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := game.NewGame(game.Options{
		Catalog:        cat,
		LayoutSeed:     seed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	})
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	if *starterSeeds > 0 {
		n := g.PlantStarter(*starterSeeds, game.DefaultStarterPattern)
		slog.Info("starter farm queued", "crops", n)
	}

	slog.Info("starting simulation",
		"layout_seed", seed,
		"catalog", cat.Digest(),
		"crops", cat.Len(),
		"offline", offline.String(),
		"max_steps", *maxSteps,
	)

	if *offline > 0 {
		started := time.Now()
		res := g.Advance(offline.Seconds())
		game.LogDrive(res)
		slog.Info("offline catch-up complete",
			"simulated", offline.String(),
			"sub_steps", telemetry.FormatCount(res.SubSteps),
			"events", telemetry.FormatCount(res.Events),
			"wall", time.Since(started).String(),
		)
		g.LogState()
		if *realtime == 0 && *maxSteps == 0 {
			return
		}
	}

	if *realtime > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := g.Run(ctx, *realtime); err != nil && err != context.Canceled {
			slog.Error("run stopped", "error", err)
		}
		g.LogState()
		return
	}

	for i := 0; *maxSteps == 0 || i < *maxSteps; i++ {
		res := g.Advance(*step)
		game.LogDrive(res)
		if *logStats && i%60 == 0 {
			g.LogState()
		}
	}
	g.LogState()
}
