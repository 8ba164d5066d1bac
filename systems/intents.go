package systems

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/state"
)

var (
	ErrOutOfBounds   = errors.New("cell out of bounds")
	ErrNotPlantable  = errors.New("cell is not plantable")
	ErrNoCrop        = errors.New("cell holds no crop")
	ErrUnknownCrop   = errors.New("unknown crop")
	ErrNoUpgrade     = errors.New("crop has no upgrade")
	ErrUnaffordable  = errors.New("not enough resources")
	ErrBadAbility    = errors.New("invalid ability")
	ErrUnknownIntent = errors.New("unknown intent")
)

// IntentSystem applies queued intents at the start of a tick. Invalid
// intents are rejected and reported as events; they never fail the tick.
type IntentSystem struct {
	catalog *catalog.Catalog
}

// NewIntentSystem creates the intent applier.
func NewIntentSystem(cat *catalog.Catalog) *IntentSystem {
	return &IntentSystem{catalog: cat}
}

// Apply applies intents in order and returns one event per intent.
func (s *IntentSystem) Apply(st *state.State, intents []state.Intent) []Event {
	events := make([]Event, 0, len(intents))
	for _, in := range intents {
		ev := Event{Kind: EventIntentApplied, Time: st.Elapsed, X: in.X, Y: in.Y, Crop: in.CropID, Detail: in.Kind.String()}
		if err := s.apply(st, in); err != nil {
			ev.Kind = EventIntentRejected
			ev.Detail = fmt.Sprintf("%s: %v", in.Kind, err)
			slog.Warn("intent rejected", "intent", in.Kind.String(), "source", in.Source, "crop", in.CropID, "x", in.X, "y", in.Y, "error", err)
		}
		events = append(events, ev)
	}
	return events
}

func (s *IntentSystem) apply(st *state.State, in state.Intent) error {
	switch in.Kind {
	case state.IntentPlant:
		cell, err := s.cell(st, in)
		if err != nil {
			return err
		}
		if !cell.Occupant.Kind.Plantable() {
			return fmt.Errorf("%w: %s", ErrNotPlantable, cell.Occupant.Kind)
		}
		return s.plant(st, cell, in.CropID)

	case state.IntentDelete:
		cell, err := s.cell(st, in)
		if err != nil {
			return err
		}
		if !cell.HasCrop() {
			return ErrNoCrop
		}
		st.ClearCell(cell.X, cell.Y)
		return nil

	case state.IntentReplace:
		cell, err := s.cell(st, in)
		if err != nil {
			return err
		}
		if !cell.HasCrop() {
			return ErrNoCrop
		}
		return s.plant(st, cell, in.CropID)

	case state.IntentPurchaseUpgrade:
		crop, ok := s.catalog.Get(in.CropID)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownCrop, in.CropID)
		}
		if crop.Upgrade == nil {
			return ErrNoUpgrade
		}
		cost := crop.Upgrade.CostAt(st.Upgrades[crop.ID])
		if !st.Resources.AllGTE(cost) {
			return ErrUnaffordable
		}
		st.Resources = st.Resources.Sub(cost).ClampNonNegative()
		st.Upgrades[crop.ID]++
		return nil

	case state.IntentActivateAbility:
		if in.Duration <= 0 || in.Effect.Magnitude < 0 {
			return ErrBadAbility
		}
		if in.Effect.Kind == components.EffectWeather && in.Effect.Weather == components.WeatherNone {
			return ErrBadAbility
		}
		st.Effects.Activate(in.Effect, in.Duration)
		return nil
	}
	return ErrUnknownIntent
}

func (s *IntentSystem) cell(st *state.State, in state.Intent) (*components.Cell, error) {
	cell := st.Field.At(in.X, in.Y)
	if cell == nil {
		return nil, ErrOutOfBounds
	}
	return cell, nil
}

// plant pays for and places a crop. Short-lived crops start with their full
// lifetime, others at zero growth.
func (s *IntentSystem) plant(st *state.State, cell *components.Cell, id string) error {
	crop, ok := s.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCrop, id)
	}
	if !st.Resources.AllGTE(crop.Cost) {
		return ErrUnaffordable
	}
	st.Resources = st.Resources.Sub(crop.Cost).ClampNonNegative()
	growth := 0.0
	if crop.Category.ShortLived() {
		growth = 1
	}
	st.SetCrop(cell.X, cell.Y, crop.ID, growth)
	return nil
}
