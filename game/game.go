// Package game drives the farming economy: it owns the state, runs the
// precompute, scheduler and integrator sub-steps and feeds telemetry.
package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Options configures a new game.
type Options struct {
	// Config defaults to config.Cfg().
	Config *config.Config
	// Catalog defaults to the embedded crop catalog.
	Catalog *catalog.Catalog
	// LayoutSeed seeds the rock layout of the field.
	LayoutSeed int64

	LogStats       bool    // Output window stats and perf via slog
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // CSV output directory (empty = disabled)

	// StatsCallback is called with every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the engine state and systems. It is owned by one goroutine and
// not safe for concurrent use; collaborators queue intents.
type Game struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	state   *state.State

	// Last precompute; rebuilt every sub-step.
	pf *systems.PreField

	// Systems
	prefield   *systems.PreFieldSystem
	scheduler  *systems.Scheduler
	growth     *systems.GrowthSystem
	intents    *systems.IntentSystem
	automation *systems.AutomationSystem

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
}

// NewGame creates a game with an empty field.
func NewGame(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	automation := systems.NewAutomationSystem(cfg, cat)
	g := &Game{
		cfg:        cfg,
		catalog:    cat,
		state:      state.New(cfg, opts.LayoutSeed),
		prefield:   systems.NewPreFieldSystem(cfg, cat),
		scheduler:  systems.NewScheduler(cfg, automation),
		growth:     systems.NewGrowthSystem(cfg),
		intents:    systems.NewIntentSystem(cat),
		automation: automation,

		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)
	g.prefield.Perf = g.perfCollector

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
			info := telemetry.RunInfo{
				LayoutSeed:    opts.LayoutSeed,
				CatalogDigest: cat.Digest(),
				Crops:         cat.Len(),
				Started:       time.Now().UTC().Format(time.RFC3339),
			}
			if err := om.WriteRunInfo(info); err != nil {
				slog.Error("failed to write run info", "error", err)
			}
		}
	}

	return g
}

// State returns the game state. Callers may read it between drive calls;
// changes go through Queue.
func (g *Game) State() *state.State {
	return g.state
}

// Catalog returns the crop catalog in use.
func (g *Game) Catalog() *catalog.Catalog {
	return g.catalog
}

// Queue adds an intent, applied at the start of the next sub-step.
func (g *Game) Queue(in state.Intent) {
	g.state.Intents.Queue(in)
}

// refresh rebuilds the precompute from the current state.
func (g *Game) refresh() *systems.PreField {
	g.pf = g.prefield.Precompute(g.state, g.pf)
	return g.pf
}

// NextEvent returns how long the caller may wait before the state next
// changes discretely.
func (g *Game) NextEvent() systems.NextEvent {
	return g.scheduler.Next(g.state, g.refresh(), g.cfg.Driver.MinStep)
}

// Explain returns the production and boost breakdown of the cell at (x, y).
func (g *Game) Explain(x, y int) systems.Breakdown {
	return g.prefield.Explain(g.state, g.refresh(), x, y)
}

// Rates returns the current per-second yield of the field.
func (g *Game) Rates() components.Vector {
	return g.refresh().Total
}

// OutputDir returns the telemetry output directory, empty when disabled.
func (g *Game) OutputDir() string {
	return g.outputManager.Dir()
}

// Close flushes and closes telemetry output.
func (g *Game) Close() error {
	return g.outputManager.Close()
}
