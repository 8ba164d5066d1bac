package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/bignum"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeStepStats(t *testing.T) {
	steps := []float64{4, 1, 3, 2, 5}
	mean, std, p50, max := ComputeStepStats(steps)

	if math.Abs(mean-3) > 1e-12 {
		t.Errorf("mean = %v, want 3", mean)
	}
	// Sample standard deviation of 1..5
	if math.Abs(std-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(2.5))
	}
	if p50 != 3 || max != 5 {
		t.Errorf("p50 = %v, max = %v", p50, max)
	}
	if steps[0] != 4 {
		t.Error("input slice was reordered")
	}
}

func TestComputeStepStatsSmall(t *testing.T) {
	if mean, std, p50, max := ComputeStepStats(nil); mean != 0 || std != 0 || p50 != 0 || max != 0 {
		t.Error("expected zeros for no steps")
	}
	if mean, std, p50, max := ComputeStepStats([]float64{7}); mean != 7 || std != 0 || p50 != 7 || max != 7 {
		t.Errorf("single step = %v %v %v %v", mean, std, p50, max)
	}
}

func TestComputeSatisfactionStats(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, p10, p50 := ComputeSatisfactionStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name string
		in   bignum.Decimal
		want string
	}{
		{"zero", bignum.Zero, "0"},
		{"kilo", bignum.FromFloat(1500), "1.5 k"},
		{"plain", bignum.FromFloat(12), "12"},
		{"beyond prefixes", bignum.New(2.5, 400), "2.50e400"},
		{"inf", bignum.Inf(1), "+Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.in); got != tt.want {
				t.Errorf("FormatAmount = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount = %q", got)
	}
}
