package systems

import (
	"math"
	"sort"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

// maxPurchasesPerStep bounds how many upgrades one step may queue.
const maxPurchasesPerStep = 32

// AutomationSystem is a simple stand-in for the player: it buys upgrades in
// a fixed priority order and replants copiers on remainder cells, never
// spending more than a configured fraction of each resource per step.
type AutomationSystem struct {
	cfg     *config.Config
	catalog *catalog.Catalog
}

// NewAutomationSystem creates the automation policy.
func NewAutomationSystem(cfg *config.Config, cat *catalog.Catalog) *AutomationSystem {
	return &AutomationSystem{cfg: cfg, catalog: cat}
}

// Enabled reports whether the policy acts at all.
func (s *AutomationSystem) Enabled() bool {
	return s.cfg.Automation.Enabled && s.cfg.Automation.SpendFraction > 0
}

// Plan returns the intents to apply this step. pf should be a precompute of
// the current field and may be nil; it only orders replant candidates.
func (s *AutomationSystem) Plan(st *state.State, pf *PreField) []state.Intent {
	if !s.Enabled() {
		return nil
	}
	var intents []state.Intent
	budget := st.Resources.Scale(s.cfg.Automation.SpendFraction)

	pending := make(map[string]int)
	for bought := 0; bought < maxPurchasesPerStep; {
		progress := false
		for _, id := range s.cfg.Automation.UpgradePriority {
			crop, ok := s.catalog.Get(id)
			if !ok || crop.Upgrade == nil {
				continue
			}
			cost := crop.Upgrade.CostAt(st.Upgrades[id] + pending[id])
			if !budget.AllGTE(cost) {
				continue
			}
			budget = budget.Sub(cost)
			pending[id]++
			in := state.PurchaseUpgrade(id)
			in.Source = "automation"
			intents = append(intents, in)
			progress = true
			if bought++; bought >= maxPurchasesPerStep {
				break
			}
		}
		if !progress {
			break
		}
	}

	if s.cfg.Automation.ReplantCopiers {
		if copier, ok := s.catalog.Get(s.cfg.Automation.CopierCrop); ok {
			for _, i := range s.remainderCells(st, pf) {
				if !budget.AllGTE(copier.Cost) {
					break
				}
				budget = budget.Sub(copier.Cost)
				cell := &st.Field.Cells[i]
				in := state.Plant(cell.X, cell.Y, copier.ID)
				in.Source = "automation"
				intents = append(intents, in)
			}
		}
	}
	return intents
}

// remainderCells returns remainder cell indices, best copy spot first.
func (s *AutomationSystem) remainderCells(st *state.State, pf *PreField) []int {
	var cells []int
	for i := range st.Field.Cells {
		if st.Field.Cells[i].Occupant.Kind == components.OccupantRemainder {
			cells = append(cells, i)
		}
	}
	if pf != nil && len(pf.Cells) == len(st.Field.Cells) {
		sort.SliceStable(cells, func(a, b int) bool {
			return pf.Cells[cells[a]].Score > pf.Cells[cells[b]].Score
		})
	}
	return cells
}

// TimeToNextAction returns the seconds until the policy could afford its
// next action at the current rates, or +Inf.
func (s *AutomationSystem) TimeToNextAction(st *state.State, pf *PreField) float64 {
	if !s.Enabled() {
		return math.Inf(1)
	}
	frac := s.cfg.Automation.SpendFraction
	next := math.Inf(1)

	for _, id := range s.cfg.Automation.UpgradePriority {
		crop, ok := s.catalog.Get(id)
		if !ok || crop.Upgrade == nil {
			continue
		}
		cost := crop.Upgrade.CostAt(st.Upgrades[id])
		next = math.Min(next, timeUntil(st.Resources, pf.Total, cost.Scale(1/frac)))
	}

	if s.cfg.Automation.ReplantCopiers && len(s.remainderCells(st, nil)) > 0 {
		if copier, ok := s.catalog.Get(s.cfg.Automation.CopierCrop); ok {
			next = math.Min(next, timeUntil(st.Resources, pf.Total, copier.Cost.Scale(1/frac)))
		}
	}
	return next
}

// timeUntil returns when have, growing at rate, first reaches target in
// every channel.
func timeUntil(have, rate, target components.Vector) float64 {
	t := 0.0
	for r := components.Resource(0); r < components.NumResources; r++ {
		gap := target[r].Sub(have[r])
		if gap.Sign() <= 0 {
			continue
		}
		if rate[r].Sign() <= 0 {
			return math.Inf(1)
		}
		t = math.Max(t, gap.Div(rate[r]).Float64())
	}
	return t
}

// thresholdTime returns seconds until value, growing at rate, reaches target.
func thresholdTime(value, rate, target bignum.Decimal) float64 {
	gap := target.Sub(value)
	if gap.Sign() <= 0 {
		return 0
	}
	if rate.Sign() <= 0 {
		return math.Inf(1)
	}
	return gap.Div(rate).Float64()
}
