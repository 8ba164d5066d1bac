package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

func schedule(t *testing.T, cfg *config.Config, st *state.State, minStep float64) NextEvent {
	t.Helper()
	pf := precompute(t, cfg, st)
	return NewScheduler(cfg, nil).Next(st, pf, minStep)
}

func TestScheduler_NothingPending(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.SeasonRemaining = math.Inf(1)

	next := schedule(t, cfg, st, cfg.Driver.MinStep)
	if !math.IsInf(next.Step, 1) || next.Trigger != TriggerNone {
		t.Errorf("next = %+v, want +Inf with no trigger", next)
	}
}

func TestScheduler_Triggers(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		setup   func(st *state.State)
		want    float64
		trigger Trigger
	}{
		{
			name:    "season",
			setup:   func(st *state.State) {},
			want:    cfg.Seasons.Duration,
			trigger: TriggerSeason,
		},
		{
			name: "effect",
			setup: func(st *state.State) {
				st.Effects.Activate(components.Effect{Kind: components.EffectFruit, Magnitude: 1}, 42)
			},
			want:    42,
			trigger: TriggerEffect,
		},
		{
			name:    "maturity",
			setup:   func(st *state.State) { st.SetCrop(0, 0, "berry_t", 0.25) },
			want:    7.5,
			trigger: TriggerGrowth,
		},
		{
			name:    "copier expiry",
			setup:   func(st *state.State) { st.SetCrop(0, 0, "watercress_t", 0.5) },
			want:    50,
			trigger: TriggerGrowth,
		},
		{
			name: "level up",
			setup: func(st *state.State) {
				st.SetCrop(2, 2, "mistletoe_t", 1)
				st.LifetimeResin = bignum.FromFloat(40)
			},
			want:    cfg.LevelThreshold(0) - 40,
			trigger: TriggerLevelUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New(cfg, 1)
			tt.setup(st)
			next := schedule(t, cfg, st, cfg.Driver.MinStep)
			if next.Trigger != tt.trigger {
				t.Errorf("trigger = %s, want %s", next.Trigger, tt.trigger)
			}
			if math.Abs(next.Step-tt.want) > 1e-9 {
				t.Errorf("step = %v, want %v", next.Step, tt.want)
			}
		})
	}
}

func TestScheduler_FloorsAtMinStep(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.Effects.Activate(components.Effect{Kind: components.EffectFruit, Magnitude: 1}, 1e-6)

	next := schedule(t, cfg, st, 0.001)
	if next.Step != 0.001 {
		t.Errorf("step = %v, want floor 0.001", next.Step)
	}
	if next.Raw != 1e-6 {
		t.Errorf("raw = %v, want 1e-6", next.Raw)
	}
	if next.Trigger != TriggerEffect {
		t.Errorf("trigger = %s", next.Trigger)
	}
}

func TestScheduler_FastPathWhileWithering(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.Challenge.Withering = true
	st.SetCrop(0, 0, "berry_t", 1)

	next := schedule(t, cfg, st, cfg.Driver.MinStep)
	if next.Trigger != TriggerFastPath || next.Step != cfg.Driver.FastPathStep {
		t.Errorf("next = %+v, want fast path step %v", next, cfg.Driver.FastPathStep)
	}

	// Only short-lived crops: yields are constant again
	st = state.New(cfg, 1)
	st.Challenge.Withering = true
	st.SetCrop(0, 0, "watercress_t", 1)
	next = schedule(t, cfg, st, cfg.Driver.MinStep)
	if next.Trigger == TriggerFastPath {
		t.Errorf("fast path with only short-lived crops: %+v", next)
	}
}

func TestScheduler_WitheringCropCountsDown(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 0.5)
	st.Field.At(0, 0).Withering = true

	next := schedule(t, cfg, st, cfg.Driver.MinStep)
	if want := 0.5 * cfg.Growth.WitherDuration; math.Abs(next.Raw-want) > 1e-9 {
		t.Errorf("raw = %v, want %v", next.Raw, want)
	}
}

func TestTrigger_String(t *testing.T) {
	if TriggerLevelUp.String() != "level_up" || TriggerFastPath.String() != "fast_path" {
		t.Errorf("unexpected names %s %s", TriggerLevelUp, TriggerFastPath)
	}
	if Trigger(99).String() != "trigger(99)" {
		t.Errorf("unknown trigger = %s", Trigger(99))
	}
}
