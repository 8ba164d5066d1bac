package telemetry

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/meadow/bignum"
)

// FormatAmount renders a resource amount for logs: SI prefixes while the
// value fits them, scientific notation beyond.
func FormatAmount(d bignum.Decimal) string {
	if !d.IsFinite() || d.IsZero() {
		return d.String()
	}
	if e := d.Exponent(); e >= -24 && e < 27 {
		return strings.TrimSpace(humanize.SIWithDigits(d.Float64(), 2, ""))
	}
	return d.Format(3)
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
