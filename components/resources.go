// Package components defines the data model shared by the engine: resource
// vectors, field cells, per-tick precomputed cells and ECS effect components.
package components

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/meadow/bignum"
)

// Resource identifies one channel of a Vector.
type Resource uint8

const (
	Seeds Resource = iota
	Spores
	Resin
	Twigs
	Essence
	NumResources
)

var resourceNames = [NumResources]string{"seeds", "spores", "resin", "twigs", "essence"}

// String returns the lowercase channel name used in yaml and csv.
func (r Resource) String() string {
	if r < NumResources {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", r)
}

// ParseResource resolves a channel name.
func ParseResource(name string) (Resource, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range resourceNames {
		if n == name {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// Vector holds one Decimal per resource channel.
type Vector [NumResources]bignum.Decimal

// VectorFromMap builds a vector from channel names, as found in yaml files.
func VectorFromMap(m map[string]float64) (Vector, error) {
	var v Vector
	for name, amount := range m {
		r, err := ParseResource(name)
		if err != nil {
			return v, err
		}
		v[r] = bignum.FromFloat(amount)
	}
	return v, nil
}

// Of returns a vector with a single non-zero channel.
func Of(r Resource, amount float64) Vector {
	var v Vector
	v[r] = bignum.FromFloat(amount)
	return v
}

// Get returns channel r.
func (v Vector) Get(r Resource) bignum.Decimal { return v[r] }

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	for i := range v {
		v[i] = v[i].Add(o[i])
	}
	return v
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	for i := range v {
		v[i] = v[i].Sub(o[i])
	}
	return v
}

// Scale multiplies every channel by f.
func (v Vector) Scale(f float64) Vector {
	return v.ScaleDecimal(bignum.FromFloat(f))
}

// ScaleDecimal multiplies every channel by d.
func (v Vector) ScaleDecimal(d bignum.Decimal) Vector {
	for i := range v {
		v[i] = v[i].Mul(d)
	}
	return v
}

// ScalePositive multiplies only the positive channels by d, leaving
// consumption untouched. Penalties use it so they never soften costs and
// bonuses use it so they never amplify consumption.
func (v Vector) ScalePositive(d bignum.Decimal) Vector {
	for i := range v {
		if v[i].Sign() > 0 {
			v[i] = v[i].Mul(d)
		}
	}
	return v
}

// PositivePart zeroes every negative channel.
func (v Vector) PositivePart() Vector {
	for i := range v {
		if v[i].Sign() < 0 {
			v[i] = bignum.Zero
		}
	}
	return v
}

// NegativePart returns the magnitudes of the negative channels.
func (v Vector) NegativePart() Vector {
	var out Vector
	for i := range v {
		if v[i].Sign() < 0 {
			out[i] = v[i].Neg()
		}
	}
	return out
}

// Min returns the channel-wise minimum.
func (v Vector) Min(o Vector) Vector {
	for i := range v {
		v[i] = bignum.Min(v[i], o[i])
	}
	return v
}

// Max returns the channel-wise maximum.
func (v Vector) Max(o Vector) Vector {
	for i := range v {
		v[i] = bignum.Max(v[i], o[i])
	}
	return v
}

// affordTol is the relative slack AllGTE allows for accumulated rounding.
const affordTol = 1e-12

// AllGTE reports whether every channel of v is >= the matching channel of o,
// within a relative tolerance of 1e-12.
func (v Vector) AllGTE(o Vector) bool {
	for i := range v {
		if !v[i].GTE(o[i], affordTol) {
			return false
		}
	}
	return true
}

// IsZero reports whether every channel is zero.
func (v Vector) IsZero() bool {
	for i := range v {
		if !v[i].IsZero() {
			return false
		}
	}
	return true
}

// IsFinite reports whether every channel is finite.
func (v Vector) IsFinite() bool {
	for i := range v {
		if !v[i].IsFinite() {
			return false
		}
	}
	return true
}

// ClampNonNegative raises negative channels to zero. Pools use it after
// integration to absorb rounding.
func (v Vector) ClampNonNegative() Vector {
	return v.PositivePart()
}

// String formats the non-zero channels.
func (v Vector) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i := range v {
		if v[i].IsZero() {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %s", Resource(i), v[i].Format(4))
	}
	b.WriteByte('}')
	return b.String()
}
