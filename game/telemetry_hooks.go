package game

import (
	"log/slog"

	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// recordEvents counts events for the window, logs them and appends them to
// events.csv.
func (g *Game) recordEvents(events []systems.Event) {
	if len(events) == 0 {
		return
	}

	var records []telemetry.EventRecord
	if g.outputManager != nil {
		records = make([]telemetry.EventRecord, 0, len(events))
	}
	for _, e := range events {
		g.collector.RecordEvent(e)

		// Per-cell events are frequent; keep them out of the default log level
		if telemetry.IsCellEvent(e) {
			slog.Debug("event", "event", e)
		} else {
			slog.Info("event", "event", e)
		}

		if records != nil {
			records = append(records, telemetry.NewEventRecord(e))
		}
	}

	if err := g.outputManager.WriteEvents(records); err != nil {
		slog.Error("failed to write events", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	now := g.state.Elapsed
	if !g.collector.ShouldFlush(now) {
		return
	}

	stats := g.collector.Flush(now, g.sampleField())
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// sampleField collects the state summary for a stats window.
func (g *Game) sampleField() telemetry.FieldSample {
	st := g.state
	sample := telemetry.FieldSample{
		Season:        st.Season,
		TreeLevel:     st.TreeLevel,
		Crops:         st.Field.CountCrops(),
		Resources:     st.Resources,
		LifetimeResin: st.LifetimeResin,
	}
	if g.pf == nil {
		return sample
	}

	sample.Rates = g.pf.Total
	for i := range g.pf.Cells {
		pc := &g.pf.Cells[i]
		if pc.Crop && pc.Demand.Sign() > 0 {
			sample.Satisfied = append(sample.Satisfied, pc.Satisfied)
		}
	}
	return sample
}
