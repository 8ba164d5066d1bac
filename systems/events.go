package systems

import (
	"fmt"
	"log/slog"
)

// EventKind classifies a discrete state change.
type EventKind uint8

const (
	EventMatured EventKind = iota
	EventExpired           // short-lived crop reached the end of its lifetime
	EventWithered
	EventSeasonChanged
	EventLevelUp
	EventEffectExpired
	EventIntentApplied
	EventIntentRejected
)

func (k EventKind) String() string {
	switch k {
	case EventMatured:
		return "matured"
	case EventExpired:
		return "expired"
	case EventWithered:
		return "withered"
	case EventSeasonChanged:
		return "season_changed"
	case EventLevelUp:
		return "level_up"
	case EventEffectExpired:
		return "effect_expired"
	case EventIntentApplied:
		return "intent_applied"
	case EventIntentRejected:
		return "intent_rejected"
	}
	return fmt.Sprintf("event(%d)", k)
}

// Event is a discrete change emitted while advancing the state.
type Event struct {
	Kind EventKind
	// Time is the simulated second at which the event was applied.
	Time   float64
	X, Y   int
	Crop   string
	Detail string
}

// LogValue implements slog.LogValuer.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.Float64("time", e.Time),
	}
	if e.Crop != "" {
		attrs = append(attrs, slog.String("crop", e.Crop), slog.Int("x", e.X), slog.Int("y", e.Y))
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	return slog.GroupValue(attrs...)
}
