package systems

import (
	"errors"
	"testing"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/state"
)

func TestIntentApply_Errors(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	tx, ty := 3, 2 // tree top

	tests := []struct {
		name    string
		setup   func(st *state.State)
		intent  state.Intent
		wantErr error
	}{
		{"plant out of bounds", nil, state.Plant(-1, 0, "berry_t"), ErrOutOfBounds},
		{"plant on tree", nil, state.Plant(tx, ty, "berry_t"), ErrNotPlantable},
		{"plant on crop", func(st *state.State) { st.SetCrop(0, 0, "berry_t", 1) }, state.Plant(0, 0, "berry_t"), ErrNotPlantable},
		{"plant unknown", nil, state.Plant(0, 0, "cactus_1"), ErrUnknownCrop},
		{"plant unaffordable", nil, state.Plant(0, 0, "berry_t"), ErrUnaffordable},
		{"delete empty", nil, state.Delete(0, 0), ErrNoCrop},
		{"delete tree", nil, state.Delete(tx, ty), ErrNoCrop},
		{"replace empty", nil, state.Replace(0, 0, "berry_t"), ErrNoCrop},
		{"upgrade unknown", nil, state.PurchaseUpgrade("cactus_1"), ErrUnknownCrop},
		{"upgrade missing", nil, state.PurchaseUpgrade("nettle_t"), ErrNoUpgrade},
		{"upgrade unaffordable", nil, state.PurchaseUpgrade("berry_t"), ErrUnaffordable},
		{"ability without duration", nil, state.ActivateAbility(components.Effect{Kind: components.EffectFruit}, 0), ErrBadAbility},
		{"ability negative magnitude", nil, state.ActivateAbility(components.Effect{Kind: components.EffectFruit, Magnitude: -1}, 10), ErrBadAbility},
		{"weather without kind", nil, state.ActivateAbility(components.Effect{Kind: components.EffectWeather}, 10), ErrBadAbility},
		{"unknown intent", nil, state.Intent{Kind: state.IntentKind(99)}, ErrUnknownIntent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New(cfg, 1)
			if tt.setup != nil {
				tt.setup(st)
			}
			before := st.Resources
			err := sys.apply(st, tt.intent)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if st.Resources != before {
				t.Errorf("rejected intent changed resources: %s", st.Resources)
			}
		})
	}
}

func TestIntentApply_PlantAndDelete(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(10)

	events := sys.Apply(st, []state.Intent{
		state.Plant(0, 0, "berry_t"),
		state.Plant(1, 0, "watercress_t"),
		state.Plant(1, 0, "berry_t"), // occupied now
	})
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Kind != EventIntentApplied || events[1].Kind != EventIntentApplied {
		t.Errorf("plants rejected: %v", events[:2])
	}
	if events[2].Kind != EventIntentRejected {
		t.Errorf("plant on occupied cell applied")
	}
	approx(t, "seeds", st.Resources.Get(components.Seeds), 4)

	if c := st.Field.At(0, 0); c.Occupant.CropID != "berry_t" || c.Growth != 0 {
		t.Errorf("berry cell = %+v", c)
	}
	if c := st.Field.At(1, 0); c.Occupant.CropID != "watercress_t" || c.Growth != 1 {
		t.Errorf("copier cell = %+v, want full lifetime", c)
	}

	events = sys.Apply(st, []state.Intent{state.Delete(0, 0)})
	if events[0].Kind != EventIntentApplied || st.Field.At(0, 0).HasCrop() {
		t.Errorf("delete failed: %v", events)
	}
}

func TestIntentApply_PlantOnRemainder(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(10)
	st.Field.At(0, 0).Occupant.Kind = components.OccupantRemainder

	if err := sys.apply(st, state.Plant(0, 0, "watercress_t")); err != nil {
		t.Fatalf("plant on remainder: %v", err)
	}
}

func TestIntentApply_Replace(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)
	st.SetCrop(0, 0, "berry_t", 1)

	if err := sys.apply(st, state.Replace(0, 0, "flower_t")); err != nil {
		t.Fatal(err)
	}
	if c := st.Field.At(0, 0); c.Occupant.CropID != "flower_t" || c.Growth != 0 {
		t.Errorf("cell = %+v", c)
	}
}

func TestIntentApply_PurchaseUpgrades(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(10)

	// Costs 1, 2, 4, then 8 is out of reach
	for i := 0; i < 4; i++ {
		sys.Apply(st, []state.Intent{state.PurchaseUpgrade("berry_t")})
	}
	if st.Upgrades["berry_t"] != 3 {
		t.Errorf("upgrades = %d, want 3", st.Upgrades["berry_t"])
	}
	approx(t, "seeds", st.Resources.Get(components.Seeds), 3)
}

func TestIntentApply_ExactBudgetAffordsLastPlant(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)
	st.Resources[components.Seeds] = bignum.FromFloat(20)

	// Upgrades cost 1+2+4+8, leaving exactly the 5 a watercress costs
	var intents []state.Intent
	for i := 0; i < 4; i++ {
		intents = append(intents, state.PurchaseUpgrade("berry_t"))
	}
	intents = append(intents, state.Plant(0, 0, "watercress_t"))

	events := sys.Apply(st, intents)
	if n := countEvents(events, EventIntentRejected); n != 0 {
		t.Fatalf("%d intents rejected: %v", n, events)
	}
	if st.Upgrades["berry_t"] != 4 {
		t.Errorf("upgrades = %d, want 4", st.Upgrades["berry_t"])
	}
	if !st.Field.At(0, 0).HasCrop() {
		t.Error("watercress not planted")
	}
	if got := st.Resources.Get(components.Seeds); !got.IsZero() {
		t.Errorf("seeds left = %s, want 0", got)
	}
}

func TestIntentApply_ActivateAbility(t *testing.T) {
	cfg := testConfig()
	sys := NewIntentSystem(testCatalog(t))
	st := state.New(cfg, 1)

	events := sys.Apply(st, []state.Intent{
		state.ActivateAbility(components.Effect{Kind: components.EffectWeather, Weather: components.WeatherRain}, 30),
		state.ActivateAbility(components.Effect{Kind: components.EffectWeather, Weather: components.WeatherSun}, 30),
	})
	if countEvents(events, EventIntentApplied) != 2 {
		t.Fatalf("events = %v", events)
	}
	if st.Effects.Len() != 1 || st.Effects.Weather() != components.WeatherSun {
		t.Errorf("weather = %s with %d effects, want sun alone", st.Effects.Weather(), st.Effects.Len())
	}
}
