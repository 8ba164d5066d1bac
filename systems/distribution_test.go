package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/meadow/bignum"
)

func decimals(vals ...float64) []bignum.Decimal {
	out := make([]bignum.Decimal, len(vals))
	for i, v := range vals {
		out[i] = bignum.FromFloat(v)
	}
	return out
}

func floatsOf(ds []bignum.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.Float64()
	}
	return out
}

func TestDistribute_Cases(t *testing.T) {
	tests := []struct {
		name          string
		supply        []float64
		demand        []float64
		links         [][]int
		wantAllocated []float64
		wantRemaining []float64
	}{
		{
			name:          "shared supplier split evenly",
			supply:        []float64{10},
			demand:        []float64{6, 6},
			links:         [][]int{{0}, {0}},
			wantAllocated: []float64{5, 5},
			wantRemaining: []float64{0},
		},
		{
			name:          "private supplier first",
			supply:        []float64{4, 6},
			demand:        []float64{6, 6},
			links:         [][]int{{0, 1}, {1}},
			wantAllocated: []float64{6, 4},
			wantRemaining: []float64{0, 0},
		},
		{
			name:          "surplus stays with supplier",
			supply:        []float64{10},
			demand:        []float64{3},
			links:         [][]int{{0}},
			wantAllocated: []float64{3},
			wantRemaining: []float64{7},
		},
		{
			name:          "zero demand",
			supply:        []float64{5},
			demand:        []float64{0},
			links:         [][]int{{0}},
			wantAllocated: []float64{0},
			wantRemaining: []float64{5},
		},
		{
			name:          "consumer without suppliers",
			supply:        []float64{5},
			demand:        []float64{4, 4},
			links:         [][]int{{0}, nil},
			wantAllocated: []float64{4, 0},
			wantRemaining: []float64{1},
		},
		{
			name:          "no supply",
			supply:        []float64{0},
			demand:        []float64{4},
			links:         [][]int{{0}},
			wantAllocated: []float64{0},
			wantRemaining: []float64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSolver(4).Distribute(decimals(tt.supply...), decimals(tt.demand...), tt.links)
			if !floats.EqualApprox(floatsOf(got.Allocated), tt.wantAllocated, 1e-9) {
				t.Errorf("allocated = %v, want %v", floatsOf(got.Allocated), tt.wantAllocated)
			}
			if !floats.EqualApprox(floatsOf(got.Remaining), tt.wantRemaining, 1e-9) {
				t.Errorf("remaining = %v, want %v", floatsOf(got.Remaining), tt.wantRemaining)
			}
		})
	}
}

func TestDistribute_SatisfiedRatio(t *testing.T) {
	got := NewSolver(4).Distribute(decimals(10), decimals(6, 6, 0), [][]int{{0}, {0}, {0}})
	want := []float64{5.0 / 6.0, 5.0 / 6.0, 0}
	if !floats.EqualApprox(got.Satisfied, want, 1e-12) {
		t.Errorf("satisfied = %v, want %v", got.Satisfied, want)
	}
}

func TestDistribute_SingleGreedyRound(t *testing.T) {
	// With one round everything is greedy and scan order decides
	got := NewSolver(1).Distribute(decimals(10), decimals(6, 6), [][]int{{0}, {0}})
	if !floats.EqualApprox(floatsOf(got.Allocated), []float64{6, 4}, 1e-9) {
		t.Errorf("allocated = %v, want [6 4]", floatsOf(got.Allocated))
	}
}

func TestDistribute_HugeMagnitudes(t *testing.T) {
	supply := []bignum.Decimal{bignum.New(1, 500)}
	demand := []bignum.Decimal{bignum.New(3, 499), bignum.New(3, 499)}
	got := NewSolver(4).Distribute(supply, demand, [][]int{{0}, {0}})

	for c, a := range got.Allocated {
		if !bignum.ApproxEqual(a, demand[c], 1e-9) {
			t.Errorf("consumer %d got %s, want %s", c, a, demand[c])
		}
	}
	if !bignum.ApproxEqual(got.Remaining[0], bignum.New(4, 499), 1e-9) {
		t.Errorf("remaining = %s, want 4e499", got.Remaining[0])
	}
}

// TestDistribute_RandomConservation checks the solver's bounds on random
// graphs: nobody exceeds demand, no supplier goes negative and every seed is
// either allocated or left over.
func TestDistribute_RandomConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		nS, nC := 1+rng.Intn(6), 1+rng.Intn(6)
		supply := make([]float64, nS)
		for i := range supply {
			supply[i] = math.Floor(rng.Float64() * 20)
		}
		demand := make([]float64, nC)
		links := make([][]int, nC)
		for c := range demand {
			demand[c] = math.Floor(rng.Float64() * 20)
			for p := 0; p < nS; p++ {
				if rng.Float64() < 0.5 {
					links[c] = append(links[c], p)
				}
			}
		}

		got := NewSolver(4).Distribute(decimals(supply...), decimals(demand...), links)
		alloc := floatsOf(got.Allocated)
		rem := floatsOf(got.Remaining)

		for c := range demand {
			if alloc[c] > demand[c]+1e-9 {
				t.Fatalf("trial %d: consumer %d got %v > demand %v", trial, c, alloc[c], demand[c])
			}
			reachable := 0.0
			for _, p := range links[c] {
				reachable += supply[p]
			}
			if alloc[c] > reachable+1e-9 {
				t.Fatalf("trial %d: consumer %d got %v from reachable %v", trial, c, alloc[c], reachable)
			}
			if got.Satisfied[c] < 0 || got.Satisfied[c] > 1 {
				t.Fatalf("trial %d: satisfied %v out of range", trial, got.Satisfied[c])
			}
		}
		for p := range supply {
			if rem[p] < -1e-9 || rem[p] > supply[p]+1e-9 {
				t.Fatalf("trial %d: supplier %d remaining %v of %v", trial, p, rem[p], supply[p])
			}
		}
		if diff := floats.Sum(supply) - floats.Sum(alloc) - floats.Sum(rem); math.Abs(diff) > 1e-6 {
			t.Fatalf("trial %d: %v seeds unaccounted", trial, diff)
		}

		// The greedy round leaves no consumer short while a linked supplier
		// still has seeds
		for c := range demand {
			if demand[c]-alloc[c] <= 1e-9 {
				continue
			}
			for _, p := range links[c] {
				if rem[p] > 1e-9 {
					t.Fatalf("trial %d: consumer %d short by %v while supplier %d keeps %v",
						trial, c, demand[c]-alloc[c], p, rem[p])
				}
			}
		}
	}
}
