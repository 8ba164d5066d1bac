package systems

import (
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

// PreField is the tick-scoped grid of derived values, same shape as the
// field. It is rebuilt by every Precompute and never persisted.
type PreField struct {
	W, H  int
	Cells []components.PreCell
	// Crops holds the definition of each crop cell, nil elsewhere.
	Crops []*catalog.Crop

	// Total is the summed per-second Output of the field.
	Total components.Vector
	// CopierCount is the number of copier crops planted.
	CopierCount int

	tiers [components.NumCategories]map[int]int
}

// At returns the precomputed cell at (x, y).
func (pf *PreField) At(x, y int) *components.PreCell {
	if x < 0 || y < 0 || x >= pf.W || y >= pf.H {
		return nil
	}
	return &pf.Cells[y*pf.W+x]
}

// multiplicity counts the other crops of cat whose tier is within one of
// tier. The crop itself is excluded.
func (pf *PreField) multiplicity(cat components.Category, tier int) int {
	counts := pf.tiers[cat]
	return max(counts[tier-1]+counts[tier]+counts[tier+1]-1, 0)
}

// StageRecorder receives the wall time of each precompute stage.
type StageRecorder interface {
	RecordPhase(name string, d time.Duration)
}

type stage struct {
	name string
	run  func(st *state.State, pf *PreField)
}

// PreFieldSystem resolves the field in a fixed order of named stages. Each
// stage reads only values written by the stages before it.
type PreFieldSystem struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	calc    *Calculator
	solver  *Solver
	stages  []stage
	nbuf    []int

	// Perf, if set, is told how long each stage took.
	Perf StageRecorder
}

// NewPreFieldSystem creates the precompute pipeline.
func NewPreFieldSystem(cfg *config.Config, cat *catalog.Catalog) *PreFieldSystem {
	s := &PreFieldSystem{
		cfg:     cfg,
		catalog: cat,
		calc:    NewCalculator(cfg, cat),
		solver:  NewSolver(cfg.Solver.Rounds),
		nbuf:    make([]int, 0, 8),
	}
	s.stages = []stage{
		{"hive_chain", s.stageHiveChain},
		{"tree_adjacency", s.stageTreeAdjacency},
		{"malus", s.stageMalus},
		{"boost_boost", s.stageBoostBoost},
		{"primary_boost", s.stagePrimaryBoost},
		{"leech_registration", s.stageLeechRegistration},
		{"base_production", s.stageBaseProduction},
		{"distribution", s.stageDistribution},
		{"output", s.stageOutput},
		{"score", s.stageScore},
	}
	return s
}

// Calculator returns the chain calculator used by the stages.
func (s *PreFieldSystem) Calculator() *Calculator {
	return s.calc
}

// StageNames returns the stage names in execution order.
func (s *PreFieldSystem) StageNames() []string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.name
	}
	return names
}

// Precompute rebuilds pf from st and returns it. A nil or mis-sized pf is
// replaced by a fresh one.
func (s *PreFieldSystem) Precompute(st *state.State, pf *PreField) *PreField {
	f := st.Field
	if pf == nil || pf.W != f.W || pf.H != f.H {
		pf = &PreField{
			W:     f.W,
			H:     f.H,
			Cells: make([]components.PreCell, len(f.Cells)),
			Crops: make([]*catalog.Crop, len(f.Cells)),
		}
	}
	s.reset(st, pf)

	for _, stg := range s.stages {
		if s.Perf == nil {
			stg.run(st, pf)
			continue
		}
		start := time.Now()
		stg.run(st, pf)
		s.Perf.RecordPhase(stg.name, time.Since(start))
	}
	return pf
}

// reset clears every cell and resolves crop definitions.
// Provides: Crop, Category, Tier, Malus=1, tier counts, CopierCount.
func (s *PreFieldSystem) reset(st *state.State, pf *PreField) {
	pf.Total = components.Vector{}
	pf.CopierCount = 0
	for cat := range pf.tiers {
		if pf.tiers[cat] == nil {
			pf.tiers[cat] = make(map[int]int)
		}
		clear(pf.tiers[cat])
	}

	for i := range st.Field.Cells {
		pc := &pf.Cells[i]
		pc.Reset()
		pf.Crops[i] = nil

		cell := &st.Field.Cells[i]
		if !cell.HasCrop() {
			continue
		}
		crop, ok := s.catalog.Get(cell.Occupant.CropID)
		if !ok {
			slog.Warn("unknown crop on field", "x", cell.X, "y", cell.Y, "crop", cell.Occupant.CropID)
			continue
		}
		pf.Crops[i] = crop
		pc.Crop = true
		pc.Category = crop.Category
		pc.Tier = crop.Tier
		pf.tiers[crop.Category][crop.Tier]++
		if _, ok := BehaviorOf(crop.Category).(Copier); ok {
			pf.CopierCount++
		}
	}
}

// neighbors returns the crop-bearing orthogonal neighbors of i. The slice is
// reused by the next call.
func (s *PreFieldSystem) neighbors(st *state.State, pf *PreField, i int) []int {
	all := st.Field.Neighbors4(i, s.nbuf[:0])
	n := 0
	for _, j := range all {
		if pf.Cells[j].Crop {
			all[n] = j
			n++
		}
	}
	s.nbuf = all[:n]
	return s.nbuf
}

// stageHiveChain resolves chain boosters while their challenge is active.
// Requires: reset. Provides: Boost on chain boosters, HiveBoost on the cells
// they feed.
func (s *PreFieldSystem) stageHiveChain(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		if !pf.Cells[i].Crop {
			continue
		}
		cb, ok := BehaviorOf(pf.Cells[i].Category).(ChainBooster)
		if !ok || !cb.ChainActive(st) {
			continue
		}
		fed, via := cb.Links()

		var linked []int
		for _, j := range s.neighbors(st, pf, i) {
			if pf.Cells[j].Category == fed {
				linked = append(linked, j)
			}
		}
		count := 0
		for _, j := range linked {
			for _, k := range s.neighbors(st, pf, j) {
				if pf.Cells[k].Category == via {
					count++
					break
				}
			}
		}

		boost := s.calc.Boost(st, pf, i, nil).Mul(bignum.FromInt(int64(count)))
		pf.Cells[i].Boost = boost
		for _, j := range linked {
			pf.Cells[j].HiveBoost = pf.Cells[j].HiveBoost.Add(boost)
		}
	}
}

// stageTreeAdjacency marks crops next to the tree, diagonals included once
// unlocked. Requires: reset. Provides: TreeAdjacent.
func (s *PreFieldSystem) stageTreeAdjacency(st *state.State, pf *PreField) {
	f := st.Field
	for i := range pf.Cells {
		if !pf.Cells[i].Crop {
			continue
		}
		if st.Unlocks.DiagonalTree {
			s.nbuf = f.Neighbors8(i, s.nbuf[:0])
		} else {
			s.nbuf = f.Neighbors4(i, s.nbuf[:0])
		}
		for _, j := range s.nbuf {
			if f.Cells[j].Occupant.Kind.IsTree() {
				pf.Cells[i].TreeAdjacent = true
				break
			}
		}
	}
}

// stageMalus compounds the divisive malus of adjacent emitters:
// malus *= 1/(1+boost) per emitter. Requires: reset. Provides: Malus.
func (s *PreFieldSystem) stageMalus(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		for _, j := range s.neighbors(st, pf, i) {
			e, ok := BehaviorOf(pf.Cells[j].Category).(BoostEmitter)
			if !ok || !e.Maluses(pc.Category) {
				continue
			}
			b := s.calc.Boost(st, pf, j, nil)
			pc.Malus = pc.Malus.Mul(bignum.One.Div(bignum.One.Add(b)))
		}
	}
}

// stageBoostBoost sums what adjacent amplifiers add to each emitter:
// amplifier × (1 + its hive boost). Requires: hive chain. Provides: BoostBoost.
func (s *PreFieldSystem) stageBoostBoost(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		for _, j := range s.neighbors(st, pf, i) {
			a, ok := BehaviorOf(pf.Cells[j].Category).(Amplifier)
			if !ok || !a.Amplifies(pc.Category) {
				continue
			}
			amp := s.calc.Boost(st, pf, j, nil).Mul(bignum.One.Add(pf.Cells[j].HiveBoost))
			pc.BoostBoost = pc.BoostBoost.Add(amp)
		}
	}
}

// stagePrimaryBoost computes each emitter's effective boost:
// getBoost × (1+BoostBoost) × Malus. Amplifiers get their own amplification
// for display. Requires: malus, boost boost. Provides: Boost.
func (s *PreFieldSystem) stagePrimaryBoost(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		switch BehaviorOf(pc.Category).(type) {
		case BoostEmitter:
			b := s.calc.Boost(st, pf, i, nil)
			pc.Boost = b.Mul(bignum.One.Add(pc.BoostBoost)).Mul(pc.Malus)
		case Amplifier:
			pc.Boost = s.calc.Boost(st, pf, i, nil).Mul(bignum.One.Add(pc.HiveBoost))
		}
	}
}

// stageLeechRegistration registers each copier's ratio against the
// producers next to it. Requires: reset (CopierCount). Provides: LeechRatio,
// LeechSources, Leech.
func (s *PreFieldSystem) stageLeechRegistration(st *state.State, pf *PreField) {
	if pf.CopierCount == 0 {
		return
	}
	ratio := s.calc.Leech(st, pf.CopierCount)
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		cp, ok := BehaviorOf(pc.Category).(Copier)
		if !ok {
			continue
		}
		pc.LeechRatio = ratio
		for _, j := range s.neighbors(st, pf, i) {
			if !cp.Copies(BehaviorOf(pf.Cells[j].Category)) {
				continue
			}
			pc.LeechSources = append(pc.LeechSources, j)
			pf.Cells[j].Leech += ratio
		}
	}
}

// stageBaseProduction runs the production chain of every producer and links
// seed suppliers with adjacent consumers. Requires: tree adjacency, primary
// boost. Provides: Base, Supply, Demand, Producers, Consumers.
func (s *PreFieldSystem) stageBaseProduction(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		p, ok := BehaviorOf(pc.Category).(Producer)
		if !ok {
			if _, copier := BehaviorOf(pc.Category).(Copier); copier {
				pc.Base = s.calc.Production(st, pf, i, nil)
			}
			continue
		}
		pc.Base = s.calc.Production(st, pf, i, nil)
		seeds := pc.Base.Get(components.Seeds)

		switch p.SeedRole() {
		case SeedSupplier:
			if seeds.Sign() > 0 {
				pc.Supply = seeds
			}
			for _, j := range s.neighbors(st, pf, i) {
				if c, ok := BehaviorOf(pf.Cells[j].Category).(Producer); ok && c.SeedRole() == SeedConsumer {
					pc.Consumers = append(pc.Consumers, j)
				}
			}
		case SeedConsumer:
			if seeds.Sign() < 0 {
				pc.Demand = seeds.Neg()
			}
			for _, j := range s.neighbors(st, pf, i) {
				if c, ok := BehaviorOf(pf.Cells[j].Category).(Producer); ok && c.SeedRole() == SeedSupplier {
					pc.Producers = append(pc.Producers, j)
				}
			}
		}
	}
}

// stageDistribution allocates supplier seeds to consumers. Requires: base
// production. Provides: Allocated, Satisfied, and suppliers' leftover in
// Supply.
func (s *PreFieldSystem) stageDistribution(st *state.State, pf *PreField) {
	var suppliers, consumers []int
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		if p, ok := BehaviorOf(pc.Category).(Producer); ok {
			switch p.SeedRole() {
			case SeedSupplier:
				suppliers = append(suppliers, i)
			case SeedConsumer:
				consumers = append(consumers, i)
			}
		}
	}
	if len(consumers) == 0 {
		return
	}

	slot := make(map[int]int, len(suppliers))
	supply := make([]bignum.Decimal, len(suppliers))
	for k, i := range suppliers {
		slot[i] = k
		supply[k] = pf.Cells[i].Supply
	}
	demand := make([]bignum.Decimal, len(consumers))
	links := make([][]int, len(consumers))
	for k, i := range consumers {
		demand[k] = pf.Cells[i].Demand
		for _, j := range pf.Cells[i].Producers {
			links[k] = append(links[k], slot[j])
		}
	}

	alloc := s.solver.Distribute(supply, demand, links)
	for k, i := range consumers {
		pf.Cells[i].Allocated = alloc.Allocated[k]
		pf.Cells[i].Satisfied = alloc.Satisfied[k]
	}
	for k, i := range suppliers {
		pf.Cells[i].Supply = alloc.Remaining[k]
	}
}

// stageOutput turns distribution results into final yields and adds leech.
// Copiers read producers' distributed Output, never Base. Requires:
// distribution, leech registration. Provides: Output, Total.
func (s *PreFieldSystem) stageOutput(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			continue
		}
		p, ok := BehaviorOf(pc.Category).(Producer)
		if !ok {
			pc.Output = pc.Base
			continue
		}
		switch p.SeedRole() {
		case SeedSupplier:
			pc.Output = pc.Base
			if pc.Base.Get(components.Seeds).Sign() > 0 {
				pc.Output[components.Seeds] = pc.Supply
			}
		case SeedConsumer:
			pc.Output = consumerOutput(pc)
		default:
			pc.Output = pc.Base
		}
	}

	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop || len(pc.LeechSources) == 0 {
			continue
		}
		pc.Output = pc.Output.Add(leechCopy(pf, pc))
	}

	for i := range pf.Cells {
		if pf.Cells[i].Crop {
			pf.Total = pf.Total.Add(pf.Cells[i].Output)
		}
	}
}

// consumerOutput scales a consumer's yield by its allocation. Its seed
// consumption has already been taken out of the suppliers.
func consumerOutput(pc *components.PreCell) components.Vector {
	var out components.Vector
	if pc.Demand.Sign() > 0 {
		out = pc.Base.ScaleDecimal(pc.Allocated.Div(pc.Demand))
	} else {
		out = pc.Base
	}
	out[components.Seeds] = bignum.Zero
	return out
}

func leechCopy(pf *PreField, pc *components.PreCell) components.Vector {
	var sum components.Vector
	for _, j := range pc.LeechSources {
		sum = sum.Add(pf.Cells[j].Output.PositivePart())
	}
	return sum.Scale(pc.LeechRatio)
}

// stageScore rates cells for the automation policy: log-yield for producers,
// boost for emitters, copy potential for copiers and free remainder cells.
// Requires: output. Provides: Score.
func (s *PreFieldSystem) stageScore(st *state.State, pf *PreField) {
	for i := range pf.Cells {
		pc := &pf.Cells[i]
		if !pc.Crop {
			kind := st.Field.Cells[i].Occupant.Kind
			if kind == components.OccupantRemainder || kind == components.OccupantEmpty {
				pc.Score = s.copyPotential(st, pf, i)
			}
			continue
		}
		switch BehaviorOf(pc.Category).(type) {
		case Producer, Copier:
			pc.Score = logYield(pc.Output)
		default:
			pc.Score = pc.Boost.Float64()
		}
	}
}

func (s *PreFieldSystem) copyPotential(st *state.State, pf *PreField, i int) float64 {
	score := 0.0
	for _, j := range s.neighbors(st, pf, i) {
		if _, ok := BehaviorOf(pf.Cells[j].Category).(Producer); ok {
			score += logYield(pf.Cells[j].Output)
		}
	}
	return score
}

func logYield(v components.Vector) float64 {
	sum := 0.0
	for _, x := range v.PositivePart() {
		if x.Sign() > 0 {
			sum += math.Log10(1 + x.Float64())
		}
	}
	return sum
}

// Explain recomputes the chains of the cell at (x, y) against an already
// resolved pf and returns the recorded steps.
func (s *PreFieldSystem) Explain(st *state.State, pf *PreField, x, y int) Breakdown {
	b := Breakdown{X: x, Y: y}
	if !st.Field.InBounds(x, y) {
		return b
	}
	i := st.Field.Index(x, y)
	pc := &pf.Cells[i]
	if !pc.Crop {
		return b
	}
	b.Crop = pf.Crops[i].ID
	b.Output = pc.Output

	behavior := BehaviorOf(pc.Category)
	switch behavior.(type) {
	case BoostEmitter, Amplifier, ChainBooster:
		s.calc.Boost(st, pf, i, &b.Boost)
	}

	_, producer := behavior.(Producer)
	_, copier := behavior.(Copier)
	if !producer && !copier {
		return b
	}

	total := s.calc.Production(st, pf, i, &b.Production)
	ch := &vecChain{total: total, steps: &b.Production}
	if p, ok := behavior.(Producer); ok {
		switch p.SeedRole() {
		case SeedSupplier:
			given := total.Get(components.Seeds).Sub(pc.Supply)
			if given.Sign() > 0 {
				ch.add("seeds to consumers", seedVector(given.Neg()))
			}
		case SeedConsumer:
			if pc.Demand.Sign() > 0 {
				ch.mul("satisfied", pc.Allocated.Div(pc.Demand))
			}
			ch.add("seeds drawn", seedVector(ch.total.Get(components.Seeds).Neg()))
		}
	}
	if len(pc.LeechSources) > 0 {
		ch.add("leech", leechCopy(pf, pc))
	}
	return b
}

func seedVector(d bignum.Decimal) components.Vector {
	var v components.Vector
	v[components.Seeds] = d
	return v
}
