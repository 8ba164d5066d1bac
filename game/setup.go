package game

import (
	"sort"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/state"
)

// DefaultStarterPattern is planted around the tree, nearest cells first.
var DefaultStarterPattern = []string{"berry_1", "berry_1", "mushroom_1", "berry_1", "flower_1"}

// PlantStarter grants seeds and queues plant intents cycling through
// pattern on the plantable cells nearest the tree, while the seeds last.
// It returns the number of intents queued.
func (g *Game) PlantStarter(seeds float64, pattern []string) int {
	st := g.state
	st.Resources = st.Resources.Add(components.Of(components.Seeds, seeds))
	if len(pattern) == 0 {
		return 0
	}

	tx, ty := st.Field.TreeTop()
	var cells []*components.Cell
	for i := range st.Field.Cells {
		if c := &st.Field.Cells[i]; c.Occupant.Kind.Plantable() {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return treeDistance(cells[i], tx, ty) < treeDistance(cells[j], tx, ty)
	})

	budget := st.Resources
	queued := 0
	for i, c := range cells {
		id := pattern[i%len(pattern)]
		crop, ok := g.catalog.Get(id)
		if !ok {
			continue
		}
		if !budget.AllGTE(crop.Cost) {
			break
		}
		budget = budget.Sub(crop.Cost)

		in := state.Plant(c.X, c.Y, id)
		in.Source = "starter"
		g.Queue(in)
		queued++
	}
	return queued
}

// treeDistance is the Manhattan distance from c to the nearer tree cell.
func treeDistance(c *components.Cell, tx, ty int) int {
	dx := abs(c.X - tx)
	return dx + min(abs(c.Y-ty), abs(c.Y-ty-1))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
