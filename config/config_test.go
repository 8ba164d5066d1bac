package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/meadow/components"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Solver.Rounds != 4 {
		t.Errorf("solver.rounds = %d, want 4", cfg.Solver.Rounds)
	}
	if cfg.Growth.RampExponent != 2 {
		t.Errorf("growth.ramp_exponent = %v, want 2", cfg.Growth.RampExponent)
	}
	if cfg.Driver.FastPathStep != 2 {
		t.Errorf("driver.fast_path_step = %v, want 2", cfg.Driver.FastPathStep)
	}
	if cfg.Automation.CopierCrop == "" {
		t.Error("automation.copier_crop should have a default")
	}
}

func TestDerivedSeasonModifiers(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	d := cfg.Derived
	if got := d.SeasonProduction[components.Winter][components.CategoryBerry]; got != 0.5 {
		t.Errorf("winter berry production = %v, want 0.5", got)
	}
	if !d.SeasonPositiveOnly[components.Winter][components.CategoryBerry] {
		t.Error("winter berry should be positive-only")
	}
	if got := d.SeasonProduction[components.Spring][components.CategoryBerry]; got != 1 {
		t.Errorf("unspecified modifier = %v, want 1", got)
	}
	if got := d.SeasonBoost[components.Spring][components.CategoryFlower]; got != 1.25 {
		t.Errorf("spring flower boost = %v, want 1.25", got)
	}
	if got := d.WeatherMult[components.WeatherRain][components.CategoryBerry]; got != 1.5 {
		t.Errorf("rain berry = %v, want 1.5", got)
	}
	if got := d.WeatherMult[components.WeatherNone][components.CategoryBerry]; got != 1 {
		t.Errorf("no weather = %v, want 1", got)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	overlay := []byte(`
solver:
  rounds: 7
seasons:
  modifiers:
    summer:
      bee:
        boost: 2
`)
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	if cfg.Solver.Rounds != 7 {
		t.Errorf("solver.rounds = %d, want 7", cfg.Solver.Rounds)
	}
	// Untouched sections keep their defaults
	if cfg.Driver.MinStep != 3 {
		t.Errorf("driver.min_step = %v, want 3", cfg.Driver.MinStep)
	}
	if got := cfg.Derived.SeasonBoost[components.Summer][components.CategoryBee]; got != 2 {
		t.Errorf("summer bee boost = %v, want 2", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
	}{
		{"zero rounds", "solver:\n  rounds: 0\n"},
		{"tiny field", "field:\n  width: 2\n"},
		{"spend over one", "automation:\n  spend_fraction: 1.5\n"},
		{"unknown season", "seasons:\n  modifiers:\n    monsoon:\n      berry:\n        production: 2\n"},
		{"unknown category", "weather:\n  rain:\n    cactus: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.overlay), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %q", tt.overlay)
			}
		})
	}
}

func TestLevelThreshold(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	base := cfg.Tree.BaseThreshold
	if got := cfg.LevelThreshold(0); got != base {
		t.Errorf("LevelThreshold(0) = %v, want %v", got, base)
	}
	if got := cfg.LevelThreshold(2); got != base*cfg.Tree.ThresholdGrowth*cfg.Tree.ThresholdGrowth {
		t.Errorf("LevelThreshold(2) = %v", got)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if again.Derived != cfg.Derived {
		t.Error("derived values changed after snapshot round trip")
	}
}
