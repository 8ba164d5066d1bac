package systems

import (
	"math"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

// Calculator evaluates the production and boost chains of single cells.
// Its methods are pure functions of the state and the precompute stages
// that already ran.
type Calculator struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	nbuf    []int
}

// NewCalculator creates a calculator.
func NewCalculator(cfg *config.Config, cat *catalog.Catalog) *Calculator {
	return &Calculator{cfg: cfg, catalog: cat, nbuf: make([]int, 0, 8)}
}

// growthRamp returns the yield multiplier for a growth fraction. Short-lived
// crops yield fully for their whole lifetime.
func (c *Calculator) growthRamp(st *state.State, crop *catalog.Crop, g float64) bignum.Decimal {
	if crop.Category.ShortLived() {
		return bignum.One
	}
	exp := c.cfg.Growth.RampExponent
	if st.Challenge.Withering {
		exp = c.cfg.Growth.WitheringExponent
	}
	if g >= 1 {
		return bignum.One
	}
	if g <= 0 {
		return bignum.Zero
	}
	return bignum.FromFloat(math.Pow(g, exp))
}

// upgradeStack returns the multiplier of the purchased upgrades of crop,
// truncated to the largest count with a finite result.
func upgradeStack(crop *catalog.Crop, n int) (bignum.Decimal, int) {
	if crop.Upgrade == nil || n <= 0 {
		return bignum.One, 0
	}
	if m := crop.Upgrade.Stack(n); m.IsFinite() {
		return m, n
	}
	lo, hi := 0, n
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if crop.Upgrade.Stack(mid).IsFinite() {
			lo = mid
		} else {
			hi = mid
		}
	}
	return crop.Upgrade.Stack(lo), lo
}

// Production runs the production chain of cell i up to and including the
// challenge bonus. Distribution and leech are applied by later stages.
// Requires the tree adjacency, malus and primary boost stages.
func (c *Calculator) Production(st *state.State, pf *PreField, i int, rec *[]Step) components.Vector {
	crop := pf.Crops[i]
	pc := &pf.Cells[i]
	cell := &st.Field.Cells[i]
	cat := crop.Category

	base := crop.Production
	if p, ok := BehaviorOf(cat).(Producer); ok && !p.CanProduce(pc) {
		base = components.Vector{}
	}
	ch := newVecChain(base, rec)
	if ch.total.IsZero() {
		return ch.total
	}
	cfg := c.cfg

	ch.mul("growth", c.growthRamp(st, crop, cell.Growth))

	if m, n := upgradeStack(crop, st.Upgrades[crop.ID]); n > 0 {
		ch.mul("upgrades", m)
	}

	ch.mul("achievements", bignum.FromFloat(1+cfg.Bonuses.AchievementPerMedal*float64(st.Medals)))

	if fruit := st.Effects.FruitBonus(cat); fruit != 0 {
		ch.mul("fruit", bignum.FromFloat(1+fruit))
	}

	if e := st.Ethereal[cat]; e != 0 {
		ch.mul("ethereal", bignum.FromFloat(1+e))
	}

	if k := cfg.Bonuses.UnusedBufferK; k != 0 {
		essence := st.Resources.Get(components.Essence)
		if essence.Sign() > 0 {
			ch.mul("unused essence", bignum.FromFloat(1+k*essence.Add(bignum.One).Log10()))
		}
	}

	season := bignum.FromFloat(cfg.Derived.SeasonProduction[st.Season][cat])
	if cfg.Derived.SeasonPositiveOnly[st.Season][cat] {
		ch.mulPositive(st.Season.String(), season)
	} else {
		ch.mul(st.Season.String(), season)
	}

	if st.Unlocks.TreeBlessing && pc.TreeAdjacent {
		ch.mul("tree blessing", bignum.FromFloat(1+cfg.Tree.BlessingBonus))
	}

	if boost, ok := c.neighborBoost(st, pf, i); ok {
		ch.mul("neighbor boost", bignum.One.Add(boost))
	}
	ch.mulPositive("malus", pc.Malus)

	if st.Unlocks.Multiplicity {
		if n := pf.multiplicity(cat, crop.Tier); n > 0 {
			ch.mul("multiplicity", bignum.FromFloat(1+cfg.Bonuses.MultiplicityPerTier*float64(n)))
		}
	}

	ch.mul("tree level", bignum.FromFloat(1+cfg.Tree.LevelBonus*float64(st.TreeLevel)))

	if w := st.Effects.Weather(); w != components.WeatherNone {
		ch.mul(w.String(), bignum.FromFloat(cfg.Derived.WeatherMult[w][cat]))
	}

	if b := st.Challenge.Bonus[cat]; b != 0 {
		ch.mul("challenge", bignum.FromFloat(1+b))
	}

	return ch.total
}

// neighborBoost sums the boosts of adjacent emitters that boost cell i.
func (c *Calculator) neighborBoost(st *state.State, pf *PreField, i int) (bignum.Decimal, bool) {
	cat := pf.Cells[i].Category
	sum := bignum.Zero
	found := false
	c.nbuf = st.Field.Neighbors4(i, c.nbuf[:0])
	for _, j := range c.nbuf {
		if !pf.Cells[j].Crop {
			continue
		}
		e, ok := BehaviorOf(pf.Cells[j].Category).(BoostEmitter)
		if !ok || !e.Boosts(cat) {
			continue
		}
		sum = sum.Add(pf.Cells[j].Boost)
		found = true
	}
	return sum, found
}

// Boost runs the shorter chain of boost-emitting and amplifying crops:
// base, growth, upgrades, ethereal and the season boost modifier.
func (c *Calculator) Boost(st *state.State, pf *PreField, i int, rec *[]Step) bignum.Decimal {
	crop := pf.Crops[i]
	cell := &st.Field.Cells[i]
	cat := crop.Category

	ch := newScalarChain(bignum.FromFloat(crop.Boost), rec)
	if ch.value.IsZero() {
		return ch.value
	}
	ch.mul("growth", c.growthRamp(st, crop, cell.Growth))
	if m, n := upgradeStack(crop, st.Upgrades[crop.ID]); n > 0 {
		ch.mul("upgrades", m)
	}
	if e := st.Ethereal[cat]; e != 0 {
		ch.mul("ethereal", bignum.FromFloat(1+e))
	}
	ch.mul(st.Season.String(), bignum.FromFloat(c.cfg.Derived.SeasonBoost[st.Season][cat]))
	return ch.value
}

// Leech returns the copy ratio of a copier when count copiers are planted:
// (base + leech fruit) / (1 + (count-1)·k).
func (c *Calculator) Leech(st *state.State, count int) float64 {
	ratio := c.cfg.Leech.Base + st.Effects.LeechBonus()
	if count > 1 {
		ratio /= 1 + float64(count-1)*c.cfg.Leech.StackPenalty
	}
	return ratio
}
