// Package state holds the mutable game state the engine reads and advances:
// the field, resource pools, unlocks, timers and the intent queue.
package state

import (
	"time"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// Unlocks are meta-progression flags that change bonus rules.
type Unlocks struct {
	DiagonalTree bool // tree adjacency includes diagonals
	Multiplicity bool // tier-diversity bonus
	TreeBlessing bool // tree-adjacent crops get a production bonus
}

// Challenge describes the active challenge mode, if any.
type Challenge struct {
	Hive      bool
	Withering bool
	Bonus     map[components.Category]float64
}

// Clock tracks wall-clock bookkeeping for the tick driver.
type Clock struct {
	LastTick time.Time
	// Debt is seconds of backwards clock movement still to be repaid.
	Debt float64
}

// State is the game state. It is owned by one driver and not safe for
// concurrent use.
type State struct {
	Field *Field

	Resources     components.Vector
	LifetimeResin bignum.Decimal
	TreeLevel     int

	Season          components.Season
	SeasonRemaining float64
	// Elapsed is simulated seconds since the state was created.
	Elapsed float64

	Upgrades map[string]int
	Unlocks  Unlocks
	Medals   int
	Ethereal map[components.Category]float64

	Challenge Challenge
	Effects   *Effects
	Intents   Intents
	Clock     Clock
}

// New creates a fresh state with an empty field laid out from cfg and seed.
func New(cfg *config.Config, seed int64) *State {
	return &State{
		Field:           NewField(cfg.Field.Width, cfg.Field.Height, seed, cfg.Field.RockDensity, cfg.Field.RockScale),
		Season:          components.Spring,
		SeasonRemaining: cfg.Seasons.Duration,
		Upgrades:        make(map[string]int),
		Ethereal:        make(map[components.Category]float64),
		Challenge:       Challenge{Bonus: make(map[components.Category]float64)},
		Effects:         NewEffects(),
	}
}

// SetCrop places crop id at (x, y) with the given growth, bypassing costs.
// Setups and tests use it; play goes through intents.
func (s *State) SetCrop(x, y int, id string, growth float64) {
	c := s.Field.At(x, y)
	if c == nil || c.Occupant.Kind.IsTree() {
		return
	}
	c.Occupant = components.Occupant{Kind: components.OccupantCrop, CropID: id}
	c.Growth = growth
	c.Withering = false
}

// ClearCell empties the cell at (x, y) unless it is part of the tree.
func (s *State) ClearCell(x, y int) {
	c := s.Field.At(x, y)
	if c == nil || c.Occupant.Kind.IsTree() {
		return
	}
	c.Occupant = components.Occupant{}
	c.Growth = 0
	c.Withering = false
}
