package systems

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
)

// Op is how a chain step combined with the running total.
type Op uint8

const (
	OpBase         Op = iota // starting value
	OpMul                    // every channel × factor
	OpMulPositive            // produced channels × factor, consumption untouched
	OpAdd                    // + delta
)

func (o Op) String() string {
	switch o {
	case OpBase:
		return "base"
	case OpMul:
		return "×"
	case OpMulPositive:
		return "×+"
	case OpAdd:
		return "+"
	}
	return fmt.Sprintf("op(%d)", o)
}

// Step is one entry of a breakdown.
type Step struct {
	Label  string
	Op     Op
	Factor bignum.Decimal
	Delta  components.Vector
	// Total is the running production; Value the running scalar of a boost chain.
	Total components.Vector
	Value bignum.Decimal
}

// Breakdown is the ordered list of chain steps behind a cell's values, for
// tooltips.
type Breakdown struct {
	X, Y       int
	Crop       string
	Production []Step
	Boost      []Step
	Output     components.Vector
}

// vecChain applies production steps in order. Non-finite results are
// dropped and the previous total kept.
type vecChain struct {
	total components.Vector
	steps *[]Step
}

func newVecChain(base components.Vector, rec *[]Step) *vecChain {
	c := &vecChain{total: base, steps: rec}
	c.record(Step{Label: "base", Op: OpBase, Factor: bignum.One})
	return c
}

func (c *vecChain) record(s Step) {
	if c.steps == nil {
		return
	}
	s.Total = c.total
	*c.steps = append(*c.steps, s)
}

func (c *vecChain) apply(label string, op Op, f bignum.Decimal, next components.Vector) {
	if !next.IsFinite() {
		slog.Debug("non-finite production step skipped", "step", label, "factor", f.String())
		return
	}
	c.total = next
	c.record(Step{Label: label, Op: op, Factor: f})
}

// mul scales every channel. Identity factors are not recorded.
func (c *vecChain) mul(label string, f bignum.Decimal) {
	if f.Cmp(bignum.One) == 0 {
		return
	}
	c.apply(label, OpMul, f, c.total.ScaleDecimal(f))
}

// mulPositive scales only produced channels.
func (c *vecChain) mulPositive(label string, f bignum.Decimal) {
	if f.Cmp(bignum.One) == 0 {
		return
	}
	c.apply(label, OpMulPositive, f, c.total.ScalePositive(f))
}

func (c *vecChain) add(label string, delta components.Vector) {
	if delta.IsZero() {
		return
	}
	next := c.total.Add(delta)
	if !next.IsFinite() {
		slog.Debug("non-finite production step skipped", "step", label)
		return
	}
	c.total = next
	c.record(Step{Label: label, Op: OpAdd, Delta: delta})
}

// scalarChain is the boost counterpart of vecChain.
type scalarChain struct {
	value bignum.Decimal
	steps *[]Step
}

func newScalarChain(base bignum.Decimal, rec *[]Step) *scalarChain {
	c := &scalarChain{value: base, steps: rec}
	c.record(Step{Label: "base", Op: OpBase, Factor: bignum.One})
	return c
}

func (c *scalarChain) record(s Step) {
	if c.steps == nil {
		return
	}
	s.Value = c.value
	*c.steps = append(*c.steps, s)
}

func (c *scalarChain) mul(label string, f bignum.Decimal) {
	if f.Cmp(bignum.One) == 0 {
		return
	}
	next := c.value.Mul(f)
	if !next.IsFinite() {
		slog.Debug("non-finite boost step skipped", "step", label, "factor", f.String())
		return
	}
	c.value = next
	c.record(Step{Label: label, Op: OpMul, Factor: f})
}
