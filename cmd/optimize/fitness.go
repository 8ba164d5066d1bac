package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

// FitnessEvaluator runs headless farms and computes fitness.
type FitnessEvaluator struct {
	knobs        Knobs
	duration     float64 // simulated seconds per run
	step         float64 // simulated seconds per drive call
	starterSeeds float64
	seeds        []int64
	baseConfig   *config.Config
	catalog      *catalog.Catalog
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(knobs Knobs, duration, starterSeeds float64, seeds []int64, baseCfg *config.Config, cat *catalog.Catalog) *FitnessEvaluator {
	return &FitnessEvaluator{
		knobs:        knobs,
		duration:     duration,
		step:         600,
		starterSeeds: starterSeeds,
		seeds:        seeds,
		baseConfig:   baseCfg,
		catalog:      cat,
	}
}

// runResult holds the results from a single run.
type runResult struct {
	logYield    float64 // log yield of the final rates
	resin       bignum.Decimal
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate plays every layout with the given knob values and returns the
// mean fitness (lower = better) and mean quality.
func (fe *FitnessEvaluator) Evaluate(values []float64) (float64, float64) {
	fitness := make([]float64, len(fe.seeds))
	quality := make([]float64, len(fe.seeds))

	// Layout seeds run in parallel; each game is independent
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(values, s)
			quality[idx] = computeQuality(result.windowStats)
			fitness[idx] = computeFitness(result, quality[idx])
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for i := range fe.seeds {
		totalFitness += fitness[i]
		totalQuality += quality[i]
	}
	n := float64(len(fe.seeds))
	return totalFitness / n, totalQuality / n
}

// runSimulation plays one starter farm for the configured duration.
func (fe *FitnessEvaluator) runSimulation(values []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.knobs.Apply(cfg, values)

	result := &runResult{}
	g := game.NewGame(game.Options{
		Config:     cfg,
		Catalog:    fe.catalog,
		LayoutSeed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	g.PlantStarter(fe.starterSeeds, game.DefaultStarterPattern)

	for elapsed := 0.0; elapsed < fe.duration; elapsed += fe.step {
		g.Advance(math.Min(fe.step, fe.duration-elapsed))
	}

	result.logYield = telemetry.LogYield(g.Rates())
	result.resin = g.State().LifetimeResin
	return result
}

// copyConfig returns a copy of the base config. Maps and slices are shared
// and must not be modified.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(logYield + log10(1 + lifetime resin) + 0.2 × quality)
func computeFitness(r *runResult, quality float64) float64 {
	resin := 0.0
	if r.resin.Sign() > 0 {
		resin = math.Log10(1 + r.resin.Float64())
		if math.IsInf(resin, 1) {
			resin = r.resin.Log10()
		}
	}
	return -(r.logYield + resin + 0.2*quality)
}

// computeQuality is the mean consumer satisfaction over windows that had
// consumers, in [0,1].
func computeQuality(windows []telemetry.WindowStats) float64 {
	var sum float64
	var n int
	for _, w := range windows {
		if w.Consumers == 0 {
			continue
		}
		sum += w.SatisfiedMean
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
