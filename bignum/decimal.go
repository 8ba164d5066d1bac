// Package bignum provides a mantissa/exponent decimal for quantities that
// outgrow float64. Late-game resource pools pass 1e308 long before anything
// else in the simulation breaks, so every pool and rate is carried as a Decimal.
package bignum

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxExp bounds the base-10 exponent. Anything beyond it is treated as
// infinite (or zero, below -maxExp) so exponent arithmetic never wraps.
const maxExp = int64(1) << 53

// exactExp is the largest power of ten float64 holds exactly.
const exactExp = 22

var pow10tab = func() (t [exactExp + 1]float64) {
	t[0] = 1
	for i := 1; i <= exactExp; i++ {
		t[i] = t[i-1] * 10
	}
	return t
}()

// Decimal is m × 10^e with 1 <= |m| < 10, or m == 0, or m non-finite.
// The zero value is 0.
type Decimal struct {
	m float64
	e int64
}

var (
	Zero = Decimal{}
	One  = Decimal{m: 1}
)

// New returns m × 10^e, normalized.
func New(m float64, e int64) Decimal {
	return normalize(m, e)
}

// FromFloat converts a float64.
func FromFloat(f float64) Decimal {
	return normalize(f, 0)
}

// FromInt converts an integer.
func FromInt(i int64) Decimal {
	return normalize(float64(i), 0)
}

// Inf returns +Inf for sign >= 0 and -Inf otherwise.
func Inf(sign int) Decimal {
	return Decimal{m: math.Inf(sign)}
}

// NaN returns a non-finite marker value.
func NaN() Decimal {
	return Decimal{m: math.NaN()}
}

// Pow10 returns 10^l for a real exponent l.
func Pow10(l float64) Decimal {
	switch {
	case math.IsNaN(l):
		return NaN()
	case l > float64(maxExp):
		return Inf(1)
	case l < -float64(maxExp):
		return Zero
	}
	e := math.Floor(l)
	return normalize(math.Pow(10, l-e), int64(e))
}

func normalize(m float64, e int64) Decimal {
	if m == 0 {
		return Decimal{}
	}
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return Decimal{m: m}
	}
	// Subnormals lose precision in Log10; lift them first.
	if math.Abs(m) < 1e-300 {
		m *= 1e300
		e -= 300
	}
	shift := int64(math.Floor(math.Log10(math.Abs(m))))
	if shift > 0 {
		m /= math.Pow(10, float64(shift))
	} else if shift < 0 {
		m *= math.Pow(10, float64(-shift))
	}
	e += shift
	if a := math.Abs(m); a >= 10 {
		m /= 10
		e++
	} else if a < 1 {
		m *= 10
		e--
	}
	if e > maxExp {
		return Inf(sign(m))
	}
	if e < -maxExp {
		return Decimal{}
	}
	return Decimal{m: m, e: e}
}

func sign(f float64) int {
	if f < 0 {
		return -1
	}
	return 1
}

// Mantissa returns the normalized mantissa.
func (a Decimal) Mantissa() float64 { return a.m }

// Exponent returns the base-10 exponent.
func (a Decimal) Exponent() int64 { return a.e }

// IsZero reports whether a == 0.
func (a Decimal) IsZero() bool { return a.m == 0 }

// IsFinite reports whether a is neither NaN nor infinite.
func (a Decimal) IsFinite() bool {
	return !math.IsNaN(a.m) && !math.IsInf(a.m, 0)
}

// IsNaN reports whether a is NaN.
func (a Decimal) IsNaN() bool { return math.IsNaN(a.m) }

// Sign returns -1, 0 or +1. NaN reports 0.
func (a Decimal) Sign() int {
	switch {
	case a.m > 0:
		return 1
	case a.m < 0:
		return -1
	}
	return 0
}

// Neg returns -a.
func (a Decimal) Neg() Decimal {
	return Decimal{m: -a.m, e: a.e}
}

// Abs returns |a|.
func (a Decimal) Abs() Decimal {
	return Decimal{m: math.Abs(a.m), e: a.e}
}

// Add returns a + b.
func (a Decimal) Add(b Decimal) Decimal {
	if !a.IsFinite() || !b.IsFinite() {
		return FromFloat(a.m + b.m)
	}
	if a.m == 0 {
		return b
	}
	if b.m == 0 {
		return a
	}
	if a.e < b.e {
		a, b = b, a
	}
	// Within the exact power range the sum is taken on the plain values, so
	// integer budgets add and subtract without drift.
	if af, ok := a.plain(); ok {
		if bf, ok := b.plain(); ok {
			return FromFloat(af + bf)
		}
	}
	d := a.e - b.e
	if d > 17 {
		return a
	}
	return normalize(a.m+b.m/math.Pow(10, float64(d)), a.e)
}

// plain returns a as a float64 when its exponent is within the range of
// exactly representable powers of ten.
func (a Decimal) plain() (float64, bool) {
	switch {
	case a.e >= 0 && a.e <= exactExp:
		return a.m * pow10tab[a.e], true
	case a.e < 0 && a.e >= -exactExp:
		return a.m / pow10tab[-a.e], true
	}
	return 0, false
}

// Sub returns a - b.
func (a Decimal) Sub(b Decimal) Decimal {
	return a.Add(b.Neg())
}

// Mul returns a × b.
func (a Decimal) Mul(b Decimal) Decimal {
	if !a.IsFinite() || !b.IsFinite() || a.m == 0 || b.m == 0 {
		return FromFloat(a.m * b.m)
	}
	return normalize(a.m*b.m, a.e+b.e)
}

// Div returns a / b. Division by zero yields a non-finite value.
func (a Decimal) Div(b Decimal) Decimal {
	if !a.IsFinite() || !b.IsFinite() || b.m == 0 {
		return FromFloat(a.m / b.m)
	}
	if a.m == 0 {
		return Zero
	}
	return normalize(a.m/b.m, a.e-b.e)
}

// Scale returns a × f.
func (a Decimal) Scale(f float64) Decimal {
	return a.Mul(FromFloat(f))
}

// Log10 returns log10(a) as a float64. Zero gives -Inf, negatives NaN.
func (a Decimal) Log10() float64 {
	switch {
	case !a.IsFinite():
		if math.IsInf(a.m, 1) {
			return math.Inf(1)
		}
		return math.NaN()
	case a.m == 0:
		return math.Inf(-1)
	case a.m < 0:
		return math.NaN()
	}
	return math.Log10(a.m) + float64(a.e)
}

// Pow returns a^p. Negative bases only accept integral powers.
func (a Decimal) Pow(p float64) Decimal {
	switch {
	case p == 0:
		return One
	case !a.IsFinite():
		return FromFloat(math.Pow(a.m, p))
	case a.m == 0:
		if p > 0 {
			return Zero
		}
		return Inf(1)
	}
	if l := a.Abs().Log10() * p; math.Abs(l) < 300 {
		return FromFloat(math.Pow(a.Float64(), p))
	}
	switch {
	case a.m < 0:
		if p != math.Trunc(p) {
			return NaN()
		}
		r := a.Neg().Pow(p)
		if math.Mod(p, 2) != 0 {
			return r.Neg()
		}
		return r
	}
	return Pow10(a.Log10() * p)
}

// Cmp returns -1, 0 or +1. NaN compares equal to everything.
func (a Decimal) Cmp(b Decimal) int {
	if a.IsNaN() || b.IsNaN() {
		return 0
	}
	if !a.IsFinite() || !b.IsFinite() {
		fa, fb := a.m, b.m
		if a.IsFinite() {
			fa = float64(a.Sign())
		}
		if b.IsFinite() {
			fb = float64(b.Sign())
		}
		return cmpFloat(fa, fb)
	}
	sa, sb := a.Sign(), b.Sign()
	if sa != sb {
		return cmpInt(int64(sa), int64(sb))
	}
	if sa == 0 {
		return 0
	}
	if a.e != b.e {
		if sa > 0 {
			return cmpInt(a.e, b.e)
		}
		return cmpInt(b.e, a.e)
	}
	return cmpFloat(a.m, b.m)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// GTE reports a >= b, treating values within relative tolerance tol as
// equal. Affordability checks use it so rounding never blocks an exact budget.
func (a Decimal) GTE(b Decimal, tol float64) bool {
	return a.Cmp(b) >= 0 || ApproxEqual(a, b, tol)
}

// LessThan reports a < b.
func (a Decimal) LessThan(b Decimal) bool { return a.Cmp(b) < 0 }

// GreaterThan reports a > b.
func (a Decimal) GreaterThan(b Decimal) bool { return a.Cmp(b) > 0 }

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Sum adds all values.
func Sum(vals ...Decimal) Decimal {
	var s Decimal
	for _, v := range vals {
		s = s.Add(v)
	}
	return s
}

// Float64 converts to float64. Finite values beyond the float64 range
// saturate to ±math.MaxFloat64; tiny values underflow to 0.
func (a Decimal) Float64() float64 {
	if !a.IsFinite() || a.m == 0 {
		return a.m
	}
	if a.e > 308 {
		return float64(a.Sign()) * math.MaxFloat64
	}
	if a.e < -340 {
		return 0
	}
	if f, ok := a.plain(); ok {
		return f
	}
	var f float64
	if a.e >= 0 {
		f = a.m * math.Pow(10, float64(a.e))
	} else {
		f = a.m / math.Pow(10, float64(-a.e))
	}
	if math.IsInf(f, 0) {
		return float64(a.Sign()) * math.MaxFloat64
	}
	return f
}

// ApproxEqual reports whether a and b agree within relative tolerance tol.
func ApproxEqual(a, b Decimal, tol float64) bool {
	if a.Cmp(b) == 0 && a.IsFinite() && b.IsFinite() {
		return true
	}
	scale := Max(a.Abs(), b.Abs())
	if scale.IsZero() {
		return true
	}
	diff := a.Sub(b).Abs()
	return diff.Div(scale).Float64() <= tol
}

// String formats small exponents as plain floats and large ones as
// "<mantissa>e<exponent>". Parse accepts both forms.
func (a Decimal) String() string {
	switch {
	case a.IsNaN():
		return "NaN"
	case math.IsInf(a.m, 1):
		return "+Inf"
	case math.IsInf(a.m, -1):
		return "-Inf"
	case a.m == 0:
		return "0"
	case a.e > -7 && a.e < 21:
		return strconv.FormatFloat(a.Float64(), 'g', -1, 64)
	}
	return strconv.FormatFloat(a.m, 'g', -1, 64) + "e" + strconv.FormatInt(a.e, 10)
}

// Format renders a with the given number of significant digits.
func (a Decimal) Format(digits int) string {
	if !a.IsFinite() || a.m == 0 || (a.e > -7 && a.e < 21) {
		if !a.IsFinite() || a.m == 0 {
			return a.String()
		}
		return strconv.FormatFloat(a.Float64(), 'g', digits, 64)
	}
	return strconv.FormatFloat(a.m, 'f', max(digits-1, 0), 64) + "e" + strconv.FormatInt(a.e, 10)
}

// Parse reads the String format, plain floats included.
func Parse(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "NaN":
		return NaN(), nil
	case "+Inf", "Inf":
		return Inf(1), nil
	case "-Inf":
		return Inf(-1), nil
	}
	i := strings.LastIndexAny(s, "eE")
	if i < 0 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Zero, fmt.Errorf("bignum: parsing %q: %w", s, err)
		}
		return FromFloat(f), nil
	}
	m, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Zero, fmt.Errorf("bignum: parsing mantissa %q: %w", s, err)
	}
	e, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("bignum: parsing exponent %q: %w", s, err)
	}
	return normalize(m, e), nil
}

// MarshalText implements encoding.TextMarshaler (yaml, json). It always
// uses the mantissa/exponent form so values round-trip exactly.
func (a Decimal) MarshalText() ([]byte, error) {
	if !a.IsFinite() || a.m == 0 {
		return []byte(a.String()), nil
	}
	return []byte(strconv.FormatFloat(a.m, 'g', -1, 64) + "e" + strconv.FormatInt(a.e, 10)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Decimal) UnmarshalText(b []byte) error {
	d, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = d
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (a Decimal) MarshalCSV() (string, error) {
	b, err := a.MarshalText()
	return string(b), err
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (a *Decimal) UnmarshalCSV(s string) error {
	return a.UnmarshalText([]byte(s))
}
