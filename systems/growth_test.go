package systems

import (
	"testing"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/state"
)

func countEvents(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestIntegrate_MaturesOnce(t *testing.T) {
	cfg := testConfig()
	sys := NewPreFieldSystem(cfg, testCatalog(t))
	growth := NewGrowthSystem(cfg)
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 0)

	var pf *PreField
	matured := 0
	prev := 0.0
	for i := 0; i < 6; i++ {
		pf = sys.Precompute(st, pf)
		matured += countEvents(growth.Integrate(st, pf, 2.5), EventMatured)
		g := st.Field.At(0, 0).Growth
		if g < prev {
			t.Fatalf("growth went backwards: %v -> %v", prev, g)
		}
		prev = g
	}
	if matured != 1 {
		t.Errorf("matured %d times, want 1", matured)
	}
	if prev != 1 {
		t.Errorf("growth = %v, want 1", prev)
	}
	if st.Elapsed != 15 {
		t.Errorf("elapsed = %v, want 15", st.Elapsed)
	}
}

func TestIntegrate_AccumulatesResources(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 1)
	pf := precompute(t, cfg, st)

	NewGrowthSystem(cfg).Integrate(st, pf, 3)
	approx(t, "seeds", st.Resources.Get(components.Seeds), 30)
}

func TestIntegrate_ZeroStepIsNoop(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 0.5)
	pf := precompute(t, cfg, st)

	if events := NewGrowthSystem(cfg).Integrate(st, pf, 0); events != nil {
		t.Errorf("events = %v", events)
	}
	if st.Field.At(0, 0).Growth != 0.5 || st.Elapsed != 0 {
		t.Errorf("state changed on zero step")
	}
}

func TestIntegrate_CopierExpires(t *testing.T) {
	cfg := testConfig()
	growth := NewGrowthSystem(cfg)
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "watercress_t", 1)

	pf := precompute(t, cfg, st)
	if n := countEvents(growth.Integrate(st, pf, 50), EventExpired); n != 0 {
		t.Fatalf("expired early")
	}
	if g := st.Field.At(0, 0).Growth; g != 0.5 {
		t.Errorf("remaining lifetime = %v, want 0.5", g)
	}

	if n := countEvents(growth.Integrate(st, pf, 50), EventExpired); n != 1 {
		t.Fatalf("expired %d times, want 1", n)
	}
	cell := st.Field.At(0, 0)
	if cell.Occupant.Kind != components.OccupantRemainder || cell.Occupant.CropID != "" {
		t.Errorf("occupant = %+v, want remainder", cell.Occupant)
	}
}

func TestIntegrate_Withering(t *testing.T) {
	cfg := testConfig()
	growth := NewGrowthSystem(cfg)
	st := state.New(cfg, 1)
	st.Challenge.Withering = true
	st.SetCrop(0, 0, "berry_t", 1)

	pf := precompute(t, cfg, st)
	growth.Integrate(st, pf, 1)
	if !st.Field.At(0, 0).Withering {
		t.Fatal("mature crop not withering under the challenge")
	}

	pf = precompute(t, cfg, st)
	growth.Integrate(st, pf, cfg.Growth.WitherDuration/2)
	if g := st.Field.At(0, 0).Growth; g < 0.5-1e-9 || g > 0.5+1e-9 {
		t.Errorf("growth = %v, want 0.5", g)
	}

	pf = precompute(t, cfg, st)
	events := growth.Integrate(st, pf, cfg.Growth.WitherDuration/2)
	if countEvents(events, EventWithered) != 1 {
		t.Fatalf("events = %v, want one withered", events)
	}
	if st.Field.At(0, 0).Occupant.Kind != components.OccupantRemainder {
		t.Errorf("withered crop left %s", st.Field.At(0, 0).Occupant.Kind)
	}
}

func TestIntegrate_SeasonsWrap(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.SeasonRemaining = 10
	pf := precompute(t, cfg, st)

	events := NewGrowthSystem(cfg).Integrate(st, pf, 10+2*cfg.Seasons.Duration)
	if n := countEvents(events, EventSeasonChanged); n != 3 {
		t.Errorf("season changes = %d, want 3", n)
	}
	if st.Season != components.Winter {
		t.Errorf("season = %s, want winter", st.Season)
	}
	if st.SeasonRemaining != cfg.Seasons.Duration {
		t.Errorf("season remaining = %v", st.SeasonRemaining)
	}
}

func TestIntegrate_LevelUp(t *testing.T) {
	cfg := testConfig()
	growth := NewGrowthSystem(cfg)
	st := state.New(cfg, 1)
	st.SetCrop(2, 2, "mistletoe_t", 1)
	pf := precompute(t, cfg, st)

	events := growth.Integrate(st, pf, cfg.LevelThreshold(0))
	if countEvents(events, EventLevelUp) != 1 || st.TreeLevel != 1 {
		t.Fatalf("level = %d, events = %v", st.TreeLevel, events)
	}
	approx(t, "lifetime resin", st.LifetimeResin, cfg.LevelThreshold(0))

	// Spending resin does not lower lifetime resin
	st.Resources[components.Resin] = bignum.Zero
	growth.Integrate(st, pf, 1)
	approx(t, "lifetime resin", st.LifetimeResin, cfg.LevelThreshold(0)+1)
	if st.TreeLevel != 1 {
		t.Errorf("level = %d, want 1", st.TreeLevel)
	}
}

func TestIntegrate_EffectExpiry(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.Effects.Activate(components.Effect{Kind: components.EffectWeather, Weather: components.WeatherSun}, 5)
	pf := precompute(t, cfg, st)

	events := NewGrowthSystem(cfg).Integrate(st, pf, 5)
	if countEvents(events, EventEffectExpired) != 1 {
		t.Fatalf("events = %v", events)
	}
	if st.Effects.Len() != 0 {
		t.Errorf("effects left: %d", st.Effects.Len())
	}
}
