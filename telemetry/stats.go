package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/meadow/bignum"
)

// WindowStats holds aggregated statistics for a window of simulated time.
type WindowStats struct {
	WindowStart float64 `csv:"-"`
	WindowEnd   float64 `csv:"window_end"`

	// Driver sub-steps during the window
	SubSteps int     `csv:"sub_steps"`
	StepMean float64 `csv:"step_mean"`
	StepStd  float64 `csv:"step_std"`
	StepP50  float64 `csv:"step_p50"`
	StepMax  float64 `csv:"step_max"`
	Degraded int     `csv:"degraded"` // iteration cap hits

	// What bounded each sub-step
	ByEffect     int `csv:"by_effect"`
	ByGrowth     int `csv:"by_growth"`
	BySeason     int `csv:"by_season"`
	ByLevelUp    int `csv:"by_level_up"`
	ByAutomation int `csv:"by_automation"`
	ByFastPath   int `csv:"by_fast_path"`

	// Events during window
	Matured         int `csv:"matured"`
	Expired         int `csv:"expired"`
	Withered        int `csv:"withered"`
	SeasonChanges   int `csv:"season_changes"`
	LevelUps        int `csv:"level_ups"`
	EffectsExpired  int `csv:"effects_expired"`
	IntentsApplied  int `csv:"intents_applied"`
	IntentsRejected int `csv:"intents_rejected"`

	// State at window end
	Season        string         `csv:"season"`
	TreeLevel     int            `csv:"tree_level"`
	Crops         int            `csv:"crops"`
	Seeds         bignum.Decimal `csv:"seeds"`
	Spores        bignum.Decimal `csv:"spores"`
	Resin         bignum.Decimal `csv:"resin"`
	Twigs         bignum.Decimal `csv:"twigs"`
	Essence       bignum.Decimal `csv:"essence"`
	LifetimeResin bignum.Decimal `csv:"lifetime_resin"`

	// Per-second yields at window end
	SeedRate    bignum.Decimal `csv:"seed_rate"`
	SporeRate   bignum.Decimal `csv:"spore_rate"`
	ResinRate   bignum.Decimal `csv:"resin_rate"`
	TwigRate    bignum.Decimal `csv:"twig_rate"`
	EssenceRate bignum.Decimal `csv:"essence_rate"`
	LogYield    float64        `csv:"log_yield"` // Σ log10(1+rate) over produced channels

	// Seed distribution among consumers
	Consumers     int     `csv:"consumers"`
	SatisfiedMean float64 `csv:"satisfied_mean"`
	SatisfiedP10  float64 `csv:"satisfied_p10"`
	SatisfiedP50  float64 `csv:"satisfied_p50"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStepStats calculates mean, standard deviation, median and maximum
// of sub-step lengths.
func ComputeStepStats(steps []float64) (mean, std, p50, max float64) {
	n := len(steps)
	if n == 0 {
		return 0, 0, 0, 0
	}
	if n == 1 {
		return steps[0], 0, steps[0], steps[0]
	}

	mean, std = stat.MeanStdDev(steps, nil)

	sorted := make([]float64, n)
	copy(sorted, steps)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.50), floats.Max(sorted)
}

// ComputeSatisfactionStats calculates mean and percentiles of consumer
// satisfaction ratios.
func ComputeSatisfactionStats(values []float64) (mean, p10, p50 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_start", s.WindowStart),
		slog.Float64("window_end", s.WindowEnd),
		slog.Int("sub_steps", s.SubSteps),
		slog.Float64("step_mean", s.StepMean),
		slog.Float64("step_max", s.StepMax),
		slog.Int("degraded", s.Degraded),
		slog.Int("matured", s.Matured),
		slog.Int("expired", s.Expired),
		slog.Int("withered", s.Withered),
		slog.Int("level_ups", s.LevelUps),
		slog.String("season", s.Season),
		slog.Int("tree_level", s.TreeLevel),
		slog.Int("crops", s.Crops),
		slog.String("seeds", FormatAmount(s.Seeds)),
		slog.String("spores", FormatAmount(s.Spores)),
		slog.String("resin", FormatAmount(s.Resin)),
		slog.String("seed_rate", FormatAmount(s.SeedRate)),
		slog.String("resin_rate", FormatAmount(s.ResinRate)),
		slog.Float64("log_yield", s.LogYield),
		slog.Float64("satisfied_mean", s.SatisfiedMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"sub_steps", FormatCount(s.SubSteps),
		"step_mean", s.StepMean,
		"step_p50", s.StepP50,
		"step_max", s.StepMax,
		"degraded", s.Degraded,
		"by_effect", s.ByEffect,
		"by_growth", s.ByGrowth,
		"by_season", s.BySeason,
		"by_level_up", s.ByLevelUp,
		"by_automation", s.ByAutomation,
		"by_fast_path", s.ByFastPath,
		"matured", s.Matured,
		"expired", s.Expired,
		"withered", s.Withered,
		"season_changes", s.SeasonChanges,
		"level_ups", s.LevelUps,
		"intents_applied", s.IntentsApplied,
		"intents_rejected", s.IntentsRejected,
		"season", s.Season,
		"tree_level", s.TreeLevel,
		"crops", s.Crops,
		"seeds", FormatAmount(s.Seeds),
		"spores", FormatAmount(s.Spores),
		"resin", FormatAmount(s.Resin),
		"twigs", FormatAmount(s.Twigs),
		"essence", FormatAmount(s.Essence),
		"seed_rate", FormatAmount(s.SeedRate),
		"spore_rate", FormatAmount(s.SporeRate),
		"resin_rate", FormatAmount(s.ResinRate),
		"log_yield", s.LogYield,
		"consumers", s.Consumers,
		"satisfied_mean", s.SatisfiedMean,
		"satisfied_p10", s.SatisfiedP10,
	)
}
