// Package telemetry provides economy health tracking, bookmarks and CSV
// experiment output.
package telemetry

import "github.com/pthm-cable/meadow/systems"

// EventRecord is one row of events.csv.
type EventRecord struct {
	Time   float64 `csv:"time"`
	Kind   string  `csv:"kind"`
	X      int     `csv:"x"`
	Y      int     `csv:"y"`
	Crop   string  `csv:"crop"`
	Detail string  `csv:"detail"`
}

// NewEventRecord flattens a driver event for CSV export.
func NewEventRecord(e systems.Event) EventRecord {
	return EventRecord{
		Time:   e.Time,
		Kind:   e.Kind.String(),
		X:      e.X,
		Y:      e.Y,
		Crop:   e.Crop,
		Detail: e.Detail,
	}
}

// IsCellEvent reports whether the event concerns a single field cell.
func IsCellEvent(e systems.Event) bool {
	switch e.Kind {
	case systems.EventMatured, systems.EventExpired, systems.EventWithered:
		return true
	}
	return false
}
