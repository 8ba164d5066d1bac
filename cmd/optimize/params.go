package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/pthm-cable/meadow/config"
)

// knob is one tunable value. The optimizer sees it in [0,1]; set writes the
// bounded value into a config.
type knob struct {
	name     string
	lo, hi   float64
	initial  float64
	integral bool
	set      func(cfg *config.Config, v float64)
}

// Knobs is the ordered set of tuned values.
type Knobs []knob

// policyKnobs tunes the automation policy and the solver round count it
// depends on.
func policyKnobs() Knobs {
	return Knobs{
		{
			name: "spend_fraction", lo: 0.01, hi: 1, initial: 0.25,
			set: func(cfg *config.Config, v float64) { cfg.Automation.SpendFraction = v },
		},
		{
			name: "replant_copiers", lo: 0, hi: 1, initial: 1,
			set: func(cfg *config.Config, v float64) { cfg.Automation.ReplantCopiers = v >= 0.5 },
		},
		{
			name: "solver_rounds", lo: 1, hi: 12, initial: 4, integral: true,
			set: func(cfg *config.Config, v float64) { cfg.Solver.Rounds = int(v) },
		},
	}
}

// Start returns the initial point in unit coordinates.
func (ks Knobs) Start() []float64 {
	x := make([]float64, len(ks))
	for i, k := range ks {
		x[i] = (k.initial - k.lo) / (k.hi - k.lo)
	}
	return x
}

// Values maps unit coordinates to bounded knob values. Nelder-Mead is
// unconstrained, so points outside [0,1] are pinned to the nearest bound.
func (ks Knobs) Values(x []float64) []float64 {
	v := make([]float64, len(ks))
	for i, k := range ks {
		u := min(max(x[i], 0), 1)
		v[i] = k.lo + u*(k.hi-k.lo)
		if k.integral {
			v[i] = math.Round(v[i])
		}
	}
	return v
}

// Apply enables automation on cfg and writes the knob values into it.
func (ks Knobs) Apply(cfg *config.Config, values []float64) {
	cfg.Automation.Enabled = true
	for i, k := range ks {
		k.set(cfg, values[i])
	}
}

// Describe renders values as "name=value" pairs for logs.
func (ks Knobs) Describe(values []float64) string {
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = fmt.Sprintf("%s=%.4g", k.name, values[i])
	}
	return strings.Join(parts, " ")
}
