package telemetry

import (
	"math"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
)

// Collector accumulates driver sub-steps and events within windows of
// simulated time and produces WindowStats.
type Collector struct {
	windowDuration float64

	// Current window tracking
	windowStart float64

	steps    []float64
	degraded int
	triggers map[systems.Trigger]int
	events   map[systems.EventKind]int
}

// NewCollector creates a new stats collector.
// windowDuration: how long each stats window lasts in simulated seconds.
func NewCollector(windowDuration float64) *Collector {
	if windowDuration <= 0 {
		windowDuration = 3600
	}
	return &Collector{
		windowDuration: windowDuration,
		triggers:       make(map[systems.Trigger]int),
		events:         make(map[systems.EventKind]int),
	}
}

// RecordSubStep records one integrated slice and what bounded it.
func (c *Collector) RecordSubStep(dt float64, trigger systems.Trigger) {
	c.steps = append(c.steps, dt)
	c.triggers[trigger]++
}

// RecordDegraded records a drive call that hit the iteration cap.
func (c *Collector) RecordDegraded() {
	c.degraded++
}

// RecordEvent records a discrete state change.
func (c *Collector) RecordEvent(e systems.Event) {
	c.events[e.Kind]++
}

// ShouldFlush returns true if enough simulated time has passed to flush the
// window.
func (c *Collector) ShouldFlush(now float64) bool {
	return now-c.windowStart >= c.windowDuration
}

// FieldSample is the state the caller samples at flush time.
type FieldSample struct {
	Season        components.Season
	TreeLevel     int
	Crops         int
	Resources     components.Vector
	Rates         components.Vector
	LifetimeResin bignum.Decimal
	// Satisfied holds the ratio of every seed consumer.
	Satisfied []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(now float64, sample FieldSample) WindowStats {
	stepMean, stepStd, stepP50, stepMax := ComputeStepStats(c.steps)
	satMean, satP10, satP50 := ComputeSatisfactionStats(sample.Satisfied)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   now,

		SubSteps: len(c.steps),
		StepMean: stepMean,
		StepStd:  stepStd,
		StepP50:  stepP50,
		StepMax:  stepMax,
		Degraded: c.degraded,

		ByEffect:     c.triggers[systems.TriggerEffect],
		ByGrowth:     c.triggers[systems.TriggerGrowth],
		BySeason:     c.triggers[systems.TriggerSeason],
		ByLevelUp:    c.triggers[systems.TriggerLevelUp],
		ByAutomation: c.triggers[systems.TriggerAutomation],
		ByFastPath:   c.triggers[systems.TriggerFastPath],

		Matured:         c.events[systems.EventMatured],
		Expired:         c.events[systems.EventExpired],
		Withered:        c.events[systems.EventWithered],
		SeasonChanges:   c.events[systems.EventSeasonChanged],
		LevelUps:        c.events[systems.EventLevelUp],
		EffectsExpired:  c.events[systems.EventEffectExpired],
		IntentsApplied:  c.events[systems.EventIntentApplied],
		IntentsRejected: c.events[systems.EventIntentRejected],

		Season:        sample.Season.String(),
		TreeLevel:     sample.TreeLevel,
		Crops:         sample.Crops,
		Seeds:         sample.Resources.Get(components.Seeds),
		Spores:        sample.Resources.Get(components.Spores),
		Resin:         sample.Resources.Get(components.Resin),
		Twigs:         sample.Resources.Get(components.Twigs),
		Essence:       sample.Resources.Get(components.Essence),
		LifetimeResin: sample.LifetimeResin,

		SeedRate:    sample.Rates.Get(components.Seeds),
		SporeRate:   sample.Rates.Get(components.Spores),
		ResinRate:   sample.Rates.Get(components.Resin),
		TwigRate:    sample.Rates.Get(components.Twigs),
		EssenceRate: sample.Rates.Get(components.Essence),
		LogYield:    LogYield(sample.Rates),

		Consumers:     len(sample.Satisfied),
		SatisfiedMean: satMean,
		SatisfiedP10:  satP10,
		SatisfiedP50:  satP50,
	}

	// Reset for next window
	c.windowStart = now
	c.steps = c.steps[:0]
	c.degraded = 0
	clear(c.triggers)
	clear(c.events)

	return stats
}

// WindowDuration returns the simulated seconds per window.
func (c *Collector) WindowDuration() float64 {
	return c.windowDuration
}

// LogYield sums log10(1+rate) over the produced channels of v. It stays
// finite for rates far beyond float64.
func LogYield(v components.Vector) float64 {
	sum := 0.0
	for _, x := range v {
		if x.Sign() <= 0 || !x.IsFinite() {
			continue
		}
		if x.Exponent() > 15 {
			sum += x.Log10()
		} else {
			sum += math.Log10(1 + x.Float64())
		}
	}
	return sum
}
