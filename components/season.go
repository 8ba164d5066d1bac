package components

import "fmt"

// Season cycles Spring → Summer → Autumn → Winter → Spring.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
	NumSeasons
)

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	case Winter:
		return "winter"
	}
	return fmt.Sprintf("season(%d)", s)
}

// Next returns the following season.
func (s Season) Next() Season {
	return (s + 1) % NumSeasons
}

// ParseSeason resolves a season name.
func ParseSeason(name string) (Season, error) {
	for s := Spring; s < NumSeasons; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown season %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Season) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config maps can be
// keyed by season name.
func (s *Season) UnmarshalText(b []byte) error {
	parsed, err := ParseSeason(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
