package systems

import (
	"math"

	"github.com/pthm-cable/meadow/bignum"
)

// Allocation is the result of a seed distribution.
type Allocation struct {
	// Allocated is what each consumer received.
	Allocated []bignum.Decimal
	// Remaining is what each supplier has left over.
	Remaining []bignum.Decimal
	// Satisfied is Allocated/demand in [0,1], 0 for zero demand.
	Satisfied []float64
}

// Solver shares scarce supplier seeds among adjacent consumers with a
// bounded heuristic instead of an exact flow solve:
//
//  1. suppliers adjacent to a single consumer are drained into it first;
//  2. fair-share rounds exchange min(demand/suppliers, supply/consumers)
//     per pair, scanning consumers in alternating direction;
//  3. the last round is greedy so no reachable supply is left unused.
//
// The greedy round favors consumers scanned first. That bias is accepted.
type Solver struct {
	rounds int
}

// NewSolver creates a solver running the given number of rounds, the last
// of which is greedy.
func NewSolver(rounds int) *Solver {
	if rounds < 1 {
		rounds = 1
	}
	return &Solver{rounds: rounds}
}

// Distribute allocates supply among consumers. links[c] lists the supplier
// indices adjacent to consumer c. No consumer receives more than its demand
// and no supplier gives more than its supply.
func (s *Solver) Distribute(supply, demand []bignum.Decimal, links [][]int) Allocation {
	remS := make([]bignum.Decimal, len(supply))
	copy(remS, supply)
	remD := make([]bignum.Decimal, len(demand))
	copy(remD, demand)
	alloc := make([]bignum.Decimal, len(demand))

	consumersOf := make([][]int, len(supply))
	for c, ps := range links {
		for _, p := range ps {
			consumersOf[p] = append(consumersOf[p], c)
		}
	}

	transfer := func(p, c int, amount bignum.Decimal) {
		if amount.Sign() <= 0 {
			return
		}
		remS[p] = remS[p].Sub(amount)
		remD[c] = remD[c].Sub(amount)
		alloc[c] = alloc[c].Add(amount)
		// Absorb rounding below zero
		if remS[p].Sign() < 0 {
			remS[p] = bignum.Zero
		}
		if remD[c].Sign() < 0 {
			remD[c] = bignum.Zero
		}
	}

	// Private suppliers first
	for c, ps := range links {
		for _, p := range ps {
			if len(consumersOf[p]) == 1 {
				transfer(p, c, bignum.Min(remS[p], remD[c]))
			}
		}
	}

	activeSuppliers := make([]int, len(demand))
	activeConsumers := make([]int, len(supply))
	startS := make([]bignum.Decimal, len(supply))
	startD := make([]bignum.Decimal, len(demand))

	for round := 0; round < s.rounds; round++ {
		greedy := round == s.rounds-1

		// Shares are computed from the state at the start of the round
		copy(startS, remS)
		copy(startD, remD)
		for c, ps := range links {
			activeSuppliers[c] = 0
			for _, p := range ps {
				if remS[p].Sign() > 0 {
					activeSuppliers[c]++
				}
			}
		}
		for p, cs := range consumersOf {
			activeConsumers[p] = 0
			for _, c := range cs {
				if remD[c].Sign() > 0 {
					activeConsumers[p]++
				}
			}
		}

		for n := 0; n < len(links); n++ {
			c := n
			if round%2 == 1 {
				c = len(links) - 1 - n
			}
			if remD[c].Sign() <= 0 || activeSuppliers[c] == 0 {
				continue
			}
			want := startD[c].Div(bignum.FromInt(int64(activeSuppliers[c])))
			for _, p := range links[c] {
				if remS[p].Sign() <= 0 || remD[c].Sign() <= 0 {
					continue
				}
				amount := bignum.Min(remS[p], remD[c])
				if !greedy && activeConsumers[p] > 0 {
					offer := startS[p].Div(bignum.FromInt(int64(activeConsumers[p])))
					amount = bignum.Min(amount, bignum.Min(want, offer))
				}
				transfer(p, c, amount)
			}
		}
	}

	satisfied := make([]float64, len(demand))
	for c := range demand {
		satisfied[c] = satisfiedRatio(alloc[c], demand[c])
	}
	return Allocation{Allocated: alloc, Remaining: remS, Satisfied: satisfied}
}

// satisfiedRatio is allocated/demand clamped to [0,1]; 0 when demand is 0.
func satisfiedRatio(allocated, demand bignum.Decimal) float64 {
	if demand.Sign() <= 0 {
		return 0
	}
	r := allocated.Div(demand).Float64()
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
