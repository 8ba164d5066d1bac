package components

import "github.com/pthm-cable/meadow/bignum"

// PreCell holds the tick-scoped values derived for one field cell. It is
// rebuilt from scratch every precompute and never persisted.
type PreCell struct {
	// Crop is false for markers and empty cells; every other field is then zero.
	Crop     bool
	Category Category
	Tier     int

	// Set by the tree adjacency stage.
	TreeAdjacent bool

	// Malus is a multiplicative penalty, 1 when no malus emitter is adjacent.
	Malus bignum.Decimal
	// BoostBoost is the additive amplification received from bees.
	BoostBoost bignum.Decimal
	// HiveBoost is what a bee received from adjacent hives.
	HiveBoost bignum.Decimal
	// Boost is the effective boost this cell radiates to qualifying neighbors.
	Boost bignum.Decimal

	// Indices into the field of seed producers (for consumers) and seed
	// consumers (for producers).
	Producers []int
	Consumers []int

	// Leech is the sum of copy ratios registered against this cell.
	Leech float64
	// LeechRatio and LeechSources are set on copier cells.
	LeechRatio   float64
	LeechSources []int

	// Base is the unconstrained production before seed distribution.
	Base Vector
	// Supply and Demand are the seed amounts offered to and requested from
	// the distribution solver; Allocated is what a consumer received.
	Supply    bignum.Decimal
	Demand    bignum.Decimal
	Allocated bignum.Decimal
	// Satisfied is Allocated/Demand in [0,1], 0 when Demand is 0.
	Satisfied float64

	// Output is the final per-second yield after distribution and leech.
	Output Vector

	// Score is a heuristic for automation only.
	Score float64
}

// Reset clears the cell for a new tick.
func (p *PreCell) Reset() {
	producers, consumers, sources := p.Producers[:0], p.Consumers[:0], p.LeechSources[:0]
	*p = PreCell{
		Malus:        bignum.One,
		Producers:    producers,
		Consumers:    consumers,
		LeechSources: sources,
	}
}
