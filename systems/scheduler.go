package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

// Trigger names the pending event that bounded a scheduled step.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	TriggerEffect
	TriggerGrowth
	TriggerSeason
	TriggerLevelUp
	TriggerAutomation
	TriggerFastPath
)

func (t Trigger) String() string {
	switch t {
	case TriggerNone:
		return "none"
	case TriggerEffect:
		return "effect"
	case TriggerGrowth:
		return "growth"
	case TriggerSeason:
		return "season"
	case TriggerLevelUp:
		return "level_up"
	case TriggerAutomation:
		return "automation"
	case TriggerFastPath:
		return "fast_path"
	}
	return fmt.Sprintf("trigger(%d)", t)
}

// NextEvent is the scheduler's answer: how long rates stay constant.
type NextEvent struct {
	// Step is the floored delay, +Inf when nothing is pending.
	Step float64
	// Raw is the unfloored minimum.
	Raw     float64
	Trigger Trigger
}

// Scheduler computes the time until the next discontinuity so the driver
// can integrate in constant-rate slices.
type Scheduler struct {
	cfg        *config.Config
	automation *AutomationSystem
}

// NewScheduler creates a scheduler. automation may be nil.
func NewScheduler(cfg *config.Config, automation *AutomationSystem) *Scheduler {
	return &Scheduler{cfg: cfg, automation: automation}
}

// Next returns the delay until the earliest pending event given the
// current state and its precompute, floored at minStep. While yields vary
// continuously it returns the fixed fast-path step instead.
func (s *Scheduler) Next(st *state.State, pf *PreField, minStep float64) NextEvent {
	best := math.Inf(1)
	trigger := TriggerNone
	consider := func(t float64, tr Trigger) {
		if t >= 0 && t < best {
			best, trigger = t, tr
		}
	}

	consider(st.Effects.NextExpiry(), TriggerEffect)
	consider(s.growthRemaining(st, pf), TriggerGrowth)
	consider(st.SeasonRemaining, TriggerSeason)

	threshold := bignum.FromFloat(s.cfg.LevelThreshold(st.TreeLevel))
	consider(thresholdTime(st.LifetimeResin, pf.Total.Get(components.Resin), threshold), TriggerLevelUp)

	if s.automation != nil {
		consider(s.automation.TimeToNextAction(st, pf), TriggerAutomation)
	}

	next := NextEvent{Step: best, Raw: best, Trigger: trigger}
	if !math.IsInf(best, 1) && best < minStep {
		next.Step = minStep
	}
	if s.varying(st, pf) && next.Step > s.cfg.Driver.FastPathStep {
		next.Step = s.cfg.Driver.FastPathStep
		next.Trigger = TriggerFastPath
	}
	return next
}

// growthRemaining returns the shortest time until a crop matures or a
// short-lived crop expires, using the same rates as integration.
func (s *Scheduler) growthRemaining(st *state.State, pf *PreField) float64 {
	best := math.Inf(1)
	for i := range st.Field.Cells {
		cell := &st.Field.Cells[i]
		crop := pf.Crops[i]
		if !cell.HasCrop() || crop == nil || crop.Growth <= 0 {
			continue
		}
		var t float64
		switch {
		case crop.Category.ShortLived():
			t = cell.Growth * crop.Growth
		case cell.Withering:
			t = cell.Growth * s.cfg.Growth.WitherDuration
		case cell.Growth < 1:
			t = (1 - cell.Growth) * crop.Growth
		default:
			continue
		}
		best = math.Min(best, t)
	}
	return best
}

// varying reports whether some yield changes continuously with time in a
// way the event times above do not capture.
func (s *Scheduler) varying(st *state.State, pf *PreField) bool {
	if !st.Challenge.Withering {
		return false
	}
	for i := range st.Field.Cells {
		if pf.Crops[i] != nil && !pf.Crops[i].Category.ShortLived() {
			return true
		}
	}
	return false
}
