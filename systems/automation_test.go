package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

func automationConfig() *config.Config {
	cfg := testConfig()
	cfg.Automation.Enabled = true
	cfg.Automation.SpendFraction = 0.25
	cfg.Automation.ReplantCopiers = true
	cfg.Automation.CopierCrop = "watercress_t"
	cfg.Automation.UpgradePriority = []string{"berry_t", "nettle_t", "cactus_1"}
	return cfg
}

func TestAutomationPlan_Disabled(t *testing.T) {
	cfg := testConfig()
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(1000)

	auto := NewAutomationSystem(cfg, testCatalog(t))
	if intents := auto.Plan(st, nil); intents != nil {
		t.Errorf("disabled policy planned %v", intents)
	}
	if got := auto.TimeToNextAction(st, precompute(t, cfg, st)); !math.IsInf(got, 1) {
		t.Errorf("disabled policy wakes at %v", got)
	}
}

func TestAutomationPlan_SpendsWithinFraction(t *testing.T) {
	cfg := automationConfig()
	cat := testCatalog(t)
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(100)
	for x := 0; x < 3; x++ {
		st.Field.At(x, 6).Occupant.Kind = components.OccupantRemainder
	}

	auto := NewAutomationSystem(cfg, cat)
	intents := auto.Plan(st, nil)

	var upgrades, plants int
	for _, in := range intents {
		if in.Source != "automation" {
			t.Errorf("intent source = %q", in.Source)
		}
		switch in.Kind {
		case state.IntentPurchaseUpgrade:
			upgrades++
		case state.IntentPlant:
			plants++
		}
	}
	// Budget 25: upgrades cost 1+2+4+8, leaving 10 for two copiers
	if upgrades != 4 || plants != 2 {
		t.Errorf("planned %d upgrades and %d plants, want 4 and 2", upgrades, plants)
	}

	events := NewIntentSystem(cat).Apply(st, intents)
	if n := countEvents(events, EventIntentRejected); n != 0 {
		t.Errorf("%d planned intents rejected", n)
	}
	if spent := 100 - st.Resources.Get(components.Seeds).Float64(); spent > 25+1e-9 {
		t.Errorf("spent %v, more than a quarter of 100", spent)
	}
}

func TestAutomationPlan_ReplantsBestRemainderFirst(t *testing.T) {
	cfg := automationConfig()
	cfg.Automation.UpgradePriority = nil
	cat := testCatalog(t)
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(20) // budget for one copier
	st.Field.At(0, 0).Occupant.Kind = components.OccupantRemainder
	st.Field.At(6, 6).Occupant.Kind = components.OccupantRemainder
	st.SetCrop(6, 5, "berry_t", 1)

	auto := NewAutomationSystem(cfg, cat)
	pf := precompute(t, cfg, st)
	intents := auto.Plan(st, pf)
	if len(intents) != 1 {
		t.Fatalf("intents = %v, want one plant", intents)
	}
	if in := intents[0]; in.Kind != state.IntentPlant || in.X != 6 || in.Y != 6 || in.CropID != "watercress_t" {
		t.Errorf("intent = %+v, want copier at (6,6)", in)
	}
}

func TestAutomation_TimeToNextAction(t *testing.T) {
	cfg := automationConfig()
	cat := testCatalog(t)
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 1)
	pf := precompute(t, cfg, st)

	auto := NewAutomationSystem(cfg, cat)
	// First upgrade costs 1 and may use a quarter of the pool: 4 seeds at 10/s
	if got := auto.TimeToNextAction(st, pf); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("time to next action = %v, want 0.4", got)
	}

	next := NewScheduler(cfg, auto).Next(st, pf, cfg.Driver.MinStep)
	if next.Trigger != TriggerAutomation || math.Abs(next.Raw-0.4) > 1e-9 {
		t.Errorf("next = %+v, want automation at 0.4", next)
	}
	if next.Step != cfg.Driver.MinStep {
		t.Errorf("step = %v, want the %v floor", next.Step, cfg.Driver.MinStep)
	}
}

func TestTimeUntil(t *testing.T) {
	tests := []struct {
		name             string
		have, rate, goal components.Vector
		want             float64
	}{
		{"already there", components.Of(components.Seeds, 5), components.Vector{}, components.Of(components.Seeds, 5), 0},
		{"slowest channel wins",
			components.Of(components.Seeds, 0).Add(components.Of(components.Resin, 0)),
			components.Of(components.Seeds, 1).Add(components.Of(components.Resin, 2)),
			components.Of(components.Seeds, 4).Add(components.Of(components.Resin, 10)),
			5},
		{"not growing", components.Vector{}, components.Of(components.Seeds, -1), components.Of(components.Seeds, 1), math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeUntil(tt.have, tt.rate, tt.goal)
			if got != tt.want && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("timeUntil = %v, want %v", got, tt.want)
			}
		})
	}
}
