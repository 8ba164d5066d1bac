package components

import (
	"fmt"
	"strings"
)

// Category is a crop's functional role.
type Category uint8

const (
	CategoryBerry      Category = iota // produces seeds
	CategoryMushroom                   // turns seeds into spores
	CategoryFlower                     // boosts adjacent berries
	CategoryNettle                     // boosts mushrooms, maluses berries and flowers
	CategoryBee                        // amplifies adjacent flowers' boost
	CategoryWatercress                 // short-lived, copies neighbor output
	CategoryMistletoe                  // produces resin next to the tree
	CategoryHive                       // hive-chain challenge booster
	NumCategories
)

var categoryNames = [NumCategories]string{
	"berry", "mushroom", "flower", "nettle", "bee", "watercress", "mistletoe", "hive",
}

func (c Category) String() string {
	if c < NumCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// ParseCategory resolves a category name.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config maps can be
// keyed by category name.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ShortLived reports whether growth counts down remaining lifetime.
func (c Category) ShortLived() bool {
	return c == CategoryWatercress
}

// OccupantKind says what sits on a cell.
type OccupantKind uint8

const (
	OccupantEmpty OccupantKind = iota
	OccupantTreeTop
	OccupantTreeBottom
	OccupantRock
	OccupantRemainder // left behind by an expired short-lived crop
	OccupantCrop
)

func (k OccupantKind) String() string {
	switch k {
	case OccupantEmpty:
		return "empty"
	case OccupantTreeTop:
		return "tree_top"
	case OccupantTreeBottom:
		return "tree_bottom"
	case OccupantRock:
		return "rock"
	case OccupantRemainder:
		return "remainder"
	case OccupantCrop:
		return "crop"
	}
	return fmt.Sprintf("occupant(%d)", k)
}

// IsTree reports whether the occupant is part of the central tree.
func (k OccupantKind) IsTree() bool {
	return k == OccupantTreeTop || k == OccupantTreeBottom
}

// Plantable reports whether a crop may be placed on the cell.
func (k OccupantKind) Plantable() bool {
	return k == OccupantEmpty || k == OccupantRemainder
}

// Occupant is what a cell holds. CropID is set only for OccupantCrop.
type Occupant struct {
	Kind   OccupantKind
	CropID string
}

// Cell is one field position. Growth is in [0,1]: 1 means mature, except for
// short-lived crops where it is the remaining lifetime fraction.
type Cell struct {
	X, Y     int
	Occupant Occupant
	Growth   float64
	// Withering is set once a crop matured under the withering challenge;
	// its growth then counts down to death.
	Withering bool
}

// HasCrop reports whether the cell holds a crop.
func (c *Cell) HasCrop() bool {
	return c.Occupant.Kind == OccupantCrop
}

// Mature reports whether a growing crop has finished growing.
func (c *Cell) Mature() bool {
	return c.Growth >= 1
}
