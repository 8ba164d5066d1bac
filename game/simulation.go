package game

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// DriveResult summarizes one drive call.
type DriveResult struct {
	// Applied is the simulated seconds integrated by this call.
	Applied float64
	// SubSteps counts the integrated slices.
	SubSteps int
	// Debt is the backwards clock movement still to be repaid.
	Debt float64
	// Clamped is set when the delta exceeded driver.max_delta.
	Clamped bool
	// Degraded is set when the iteration cap widened the minimum step.
	Degraded bool
	// Events counts the discrete changes applied.
	Events int
}

// Drive advances the game to the wall-clock time now. The first call only
// records the clock. Backwards clock movement is banked as debt and repaid
// from later deltas.
func (g *Game) Drive(now time.Time) DriveResult {
	clock := &g.state.Clock
	if clock.LastTick.IsZero() {
		clock.LastTick = now
		return DriveResult{Debt: clock.Debt}
	}
	delta := now.Sub(clock.LastTick).Seconds()
	clock.LastTick = now
	return g.advance(delta)
}

// Advance integrates seconds of simulated time without consulting the
// clock, for offline catch-up.
func (g *Game) Advance(seconds float64) DriveResult {
	return g.advance(seconds)
}

func (g *Game) advance(delta float64) DriveResult {
	clock := &g.state.Clock
	var res DriveResult

	if delta < 0 {
		clock.Debt -= delta
		slog.Debug("clock went backwards", "delta", delta, "debt", clock.Debt)
		delta = 0
	} else if clock.Debt > 0 {
		repaid := math.Min(delta, clock.Debt)
		clock.Debt -= repaid
		delta -= repaid
	}

	if maxDelta := g.cfg.Driver.MaxDelta; maxDelta > 0 && delta > maxDelta {
		slog.Warn("clamping delta", "delta", delta, "max_delta", maxDelta)
		delta = maxDelta
		res.Clamped = true
	}
	res.Debt = clock.Debt

	minStep := g.cfg.Driver.MinStep
	remaining := delta
	iterations := 0
	for {
		dt, events := g.subStep(remaining, minStep)
		res.SubSteps++
		res.Events += events
		res.Applied += dt
		remaining -= dt
		if remaining <= 0 {
			break
		}

		iterations++
		if iterations >= g.cfg.Driver.MaxIterations {
			minStep = math.Max(minStep, g.cfg.Driver.FastPathStep) * 2
			iterations = 0
			res.Degraded = true
			g.collector.RecordDegraded()
			slog.Warn("iteration cap reached, widening step",
				"min_step", minStep,
				"remaining", remaining,
			)
		}
	}
	return res
}

// subStep applies queued intents and automation, precomputes the field and
// integrates one slice of at most remaining seconds. It returns the slice
// length and the number of events.
func (g *Game) subStep(remaining, minStep float64) (float64, int) {
	st := g.state
	perf := g.perfCollector
	perf.StartStep()

	perf.StartPhase(telemetry.PhaseIntents)
	events := g.intents.Apply(st, st.Intents.Drain())

	if g.automation.Enabled() {
		// Player intents may have reshaped the field since the last precompute
		if len(events) > 0 || g.pf == nil {
			perf.StartPhase(telemetry.PhasePrecompute)
			g.refresh()
		}
		perf.StartPhase(telemetry.PhaseAutomation)
		if planned := g.automation.Plan(st, g.pf); len(planned) > 0 {
			events = append(events, g.intents.Apply(st, planned)...)
		}
	}

	perf.StartPhase(telemetry.PhasePrecompute)
	pf := g.refresh()

	perf.StartPhase(telemetry.PhaseSchedule)
	dt := remaining
	trigger := systems.TriggerNone
	if remaining > g.cfg.Driver.LongTickThreshold {
		next := g.scheduler.Next(st, pf, minStep)
		step := next.Step
		if minStep > g.cfg.Driver.MinStep {
			// Degraded: the widened floor also overrides the fast path
			step = math.Max(step, minStep)
		}
		if step+g.cfg.Driver.StepEpsilon < remaining {
			dt = step + g.cfg.Driver.StepEpsilon
			trigger = next.Trigger
		}
	}

	perf.StartPhase(telemetry.PhaseIntegrate)
	events = append(events, g.growth.Integrate(st, pf, dt)...)

	perf.StartPhase(telemetry.PhaseTelemetry)
	if dt > 0 {
		g.collector.RecordSubStep(dt, trigger)
	}
	g.recordEvents(events)
	g.flushTelemetry()

	perf.EndStep()
	return dt, len(events)
}

// Run drives the game from the wall clock every interval until ctx is done.
func (g *Game) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.Drive(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			g.Drive(now)
		}
	}
}
