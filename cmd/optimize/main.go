// Package main tunes the automation policy with Nelder-Mead to maximize the
// yield a starter farm reaches in a fixed amount of simulated time.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/meadow/catalog"
	"github.com/pthm-cable/meadow/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Crop catalog YAML overlaid on the built-in one")
	duration := flag.Duration("duration", 24*time.Hour, "Simulated time per run")
	starterSeeds := flag.Float64("starter-seeds", 200, "Seeds granted for the starter farm")
	layouts := flag.Int("seeds", 3, "Number of layout seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *catalogPath, *outputDir, duration.Seconds(), *starterSeeds, *layouts, *maxEvals); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath, outputDir string, duration, starterSeeds float64, layouts, maxEvals int) error {
	if outputDir == "" {
		return errMissingOutput
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if err := config.Init(configPath); err != nil {
		return err
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	layoutSeeds := make([]int64, layouts)
	for i := range layoutSeeds {
		layoutSeeds[i] = int64(7919*i + 11)
	}

	knobs := policyKnobs()
	evaluator := NewFitnessEvaluator(knobs, duration, starterSeeds, layoutSeeds, config.Cfg(), cat)

	evalLog, err := newEvalLog(filepath.Join(outputDir, "optimize_log.csv"))
	if err != nil {
		return err
	}
	defer evalLog.Close()

	var (
		evals       int
		best        = EvalRecord{Fitness: 1e9}
		bestValues  []float64
		startedWall = time.Now()
	)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := knobs.Values(x)
			fitness, quality := evaluator.Evaluate(values)
			evals++

			rec := EvalRecord{Eval: evals, Fitness: fitness, Quality: quality, Params: knobs.Describe(values)}
			if fitness < best.Fitness {
				best, bestValues = rec, values
			}
			if err := evalLog.Write(rec); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			perEval := time.Since(startedWall) / time.Duration(evals)
			slog.Info("eval",
				"n", evals,
				"of", maxEvals,
				"score", -fitness,
				"quality", quality,
				"best", -best.Fitness,
				"params", rec.Params,
				"eta", (time.Duration(maxEvals-evals) * perEval).Round(time.Second).String(),
			)
			return fitness
		},
	}

	slog.Info("starting nelder-mead", "knobs", len(knobs), "max_evals", maxEvals, "layouts", layouts, "simulated", duration)
	_, err = optimize.Minimize(problem, knobs.Start(), &optimize.Settings{FuncEvaluations: maxEvals}, &optimize.NelderMead{SimplexSize: 0.2})
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestValues == nil {
		return errNoEvaluation
	}

	slog.Info("optimization complete",
		"evals", evals,
		"wall", time.Since(startedWall).Round(time.Second).String(),
		"best_score", -best.Fitness,
		"best_params", best.Params,
	)

	bestCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	knobs.Apply(bestCfg, bestValues)
	out := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		return err
	}
	slog.Info("best config saved", "path", out)
	return nil
}
