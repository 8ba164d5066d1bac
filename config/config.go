// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/meadow/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine tuning parameters.
type Config struct {
	Field      FieldConfig      `yaml:"field"`
	Driver     DriverConfig     `yaml:"driver"`
	Solver     SolverConfig     `yaml:"solver"`
	Growth     GrowthConfig     `yaml:"growth"`
	Leech      LeechConfig      `yaml:"leech"`
	Seasons    SeasonsConfig    `yaml:"seasons"`
	Tree       TreeConfig       `yaml:"tree"`
	Bonuses    BonusConfig      `yaml:"bonuses"`
	Weather    WeatherConfig    `yaml:"weather"`
	Automation AutomationConfig `yaml:"automation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig holds field allocation parameters.
type FieldConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	RockDensity float64 `yaml:"rock_density"` // Fraction of noise range turned into rocks (0 = none)
	RockScale   float64 `yaml:"rock_scale"`   // Noise frequency per cell
}

// DriverConfig holds tick driver parameters.
type DriverConfig struct {
	LongTickThreshold float64 `yaml:"long_tick_threshold"` // Seconds; shorter deltas skip the scheduler
	StepEpsilon       float64 `yaml:"step_epsilon"`        // Added to scheduler output so boundaries land inside the step
	MinStep           float64 `yaml:"min_step"`            // Scheduler floor in seconds
	FastPathStep      float64 `yaml:"fast_path_step"`      // Fixed step when yields vary continuously
	MaxIterations     int     `yaml:"max_iterations"`      // Sub-steps per drive call before the floor widens
	MaxDelta          float64 `yaml:"max_delta"`           // Implausibly large deltas are clamped to this (0 = no clamp)
}

// SolverConfig holds distribution solver parameters.
type SolverConfig struct {
	Rounds int `yaml:"rounds"` // Fair-share rounds; the last one is greedy
}

// GrowthConfig holds growth ramp parameters.
type GrowthConfig struct {
	RampExponent      float64 `yaml:"ramp_exponent"`      // Yield × growth^this while immature
	WitheringExponent float64 `yaml:"withering_exponent"` // Ramp exponent during the withering challenge
	WitherDuration    float64 `yaml:"wither_duration"`    // Seconds for a mature crop to wither away
}

// LeechConfig holds copier parameters.
type LeechConfig struct {
	Base         float64 `yaml:"base"`          // One-for-one copy at 1.0
	StackPenalty float64 `yaml:"stack_penalty"` // k in 1/(1+(count-1)k)
}

// SeasonModifier scales one category during one season.
type SeasonModifier struct {
	Production   float64 `yaml:"production"`
	Boost        float64 `yaml:"boost"`
	PositiveOnly bool    `yaml:"positive_only"` // Only scale produced channels, never consumption
}

// SeasonsConfig holds season timing and modifiers.
type SeasonsConfig struct {
	Duration  float64                                                        `yaml:"duration"` // Seconds per season
	Modifiers map[components.Season]map[components.Category]SeasonModifier `yaml:"modifiers"`
}

// TreeConfig holds tree level parameters.
type TreeConfig struct {
	LevelBonus      float64 `yaml:"level_bonus"`      // Global production +this per level
	BaseThreshold   float64 `yaml:"base_threshold"`   // Lifetime resin needed for level 1
	ThresholdGrowth float64 `yaml:"threshold_growth"` // Each level multiplies the threshold by this
	BlessingBonus   float64 `yaml:"blessing_bonus"`   // Tree-adjacent production bonus once unlocked
}

// BonusConfig holds global bonus parameters.
type BonusConfig struct {
	AchievementPerMedal float64 `yaml:"achievement_per_medal"`
	UnusedBufferK       float64 `yaml:"unused_buffer_k"`      // × (1 + k·log10(1+essence))
	MultiplicityPerTier float64 `yaml:"multiplicity_per_tier"`
}

// WeatherConfig holds per-category multipliers of each weather ability.
type WeatherConfig struct {
	Rain map[components.Category]float64 `yaml:"rain"`
	Sun  map[components.Category]float64 `yaml:"sun"`
	Wind map[components.Category]float64 `yaml:"wind"`
}

// AutomationConfig holds the stand-in automation policy.
type AutomationConfig struct {
	Enabled         bool     `yaml:"enabled"`
	SpendFraction   float64  `yaml:"spend_fraction"` // Never spend more than this share of a pool
	ReplantCopiers  bool     `yaml:"replant_copiers"`
	CopierCrop      string   `yaml:"copier_crop"`
	UpgradePriority []string `yaml:"upgrade_priority"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Simulated seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SeasonProduction   [components.NumSeasons][components.NumCategories]float64
	SeasonBoost        [components.NumSeasons][components.NumCategories]float64
	SeasonPositiveOnly [components.NumSeasons][components.NumCategories]bool
	WeatherMult        [4][components.NumCategories]float64 // indexed by components.Weather
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the engine cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Field.Width < 3 || c.Field.Height < 3:
		return fmt.Errorf("field must be at least 3x3, got %dx%d", c.Field.Width, c.Field.Height)
	case c.Solver.Rounds < 1:
		return fmt.Errorf("solver.rounds must be >= 1, got %d", c.Solver.Rounds)
	case c.Driver.MinStep <= 0 || c.Driver.FastPathStep <= 0:
		return fmt.Errorf("driver steps must be positive")
	case c.Driver.MaxIterations < 1:
		return fmt.Errorf("driver.max_iterations must be >= 1")
	case c.Seasons.Duration <= 0:
		return fmt.Errorf("seasons.duration must be positive")
	case c.Automation.SpendFraction < 0 || c.Automation.SpendFraction > 1:
		return fmt.Errorf("automation.spend_fraction must be in [0,1], got %v", c.Automation.SpendFraction)
	case c.Tree.ThresholdGrowth < 1:
		return fmt.Errorf("tree.threshold_growth must be >= 1")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	for s := components.Season(0); s < components.NumSeasons; s++ {
		for cat := components.Category(0); cat < components.NumCategories; cat++ {
			c.Derived.SeasonProduction[s][cat] = 1
			c.Derived.SeasonBoost[s][cat] = 1
			c.Derived.SeasonPositiveOnly[s][cat] = false
		}
		for cat, mod := range c.Seasons.Modifiers[s] {
			// Zero means "not specified" for yaml overlays
			if mod.Production != 0 {
				c.Derived.SeasonProduction[s][cat] = mod.Production
			}
			if mod.Boost != 0 {
				c.Derived.SeasonBoost[s][cat] = mod.Boost
			}
			c.Derived.SeasonPositiveOnly[s][cat] = mod.PositiveOnly
		}
	}

	weather := [4]map[components.Category]float64{
		components.WeatherRain: c.Weather.Rain,
		components.WeatherSun:  c.Weather.Sun,
		components.WeatherWind: c.Weather.Wind,
	}
	for w := range weather {
		for cat := components.Category(0); cat < components.NumCategories; cat++ {
			c.Derived.WeatherMult[w][cat] = 1
		}
		for cat, mult := range weather[w] {
			c.Derived.WeatherMult[w][cat] = mult
		}
	}

	if c.Telemetry.PerfCollectorWindow < 1 {
		c.Telemetry.PerfCollectorWindow = 60
	}
}

// LevelThreshold returns the lifetime resin needed to reach level+1.
func (c *Config) LevelThreshold(level int) float64 {
	t := c.Tree.BaseThreshold
	for i := 0; i < level; i++ {
		t *= c.Tree.ThresholdGrowth
	}
	return t
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
