package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/telemetry"
)

// LogState logs the current field summary.
func (g *Game) LogState() {
	st := g.state
	rates := g.Rates()

	attrs := []any{
		"elapsed", st.Elapsed,
		"season", st.Season.String(),
		"tree_level", st.TreeLevel,
		"crops", st.Field.CountCrops(),
		"lifetime_resin", telemetry.FormatAmount(st.LifetimeResin),
	}
	for r := components.Resource(0); r < components.NumResources; r++ {
		attrs = append(attrs,
			r.String(), telemetry.FormatAmount(st.Resources.Get(r)),
			r.String()+"_rate", telemetry.FormatAmount(rates.Get(r)),
		)
	}
	if st.Clock.Debt > 0 {
		attrs = append(attrs, "debt", st.Clock.Debt)
	}
	slog.Info("field", attrs...)
}

// LogDrive logs a drive result at debug level, or at warn when it degraded.
func LogDrive(res DriveResult) {
	level := slog.LevelDebug
	if res.Degraded || res.Clamped {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "drive",
		"applied", res.Applied,
		"sub_steps", res.SubSteps,
		"events", res.Events,
		"debt", res.Debt,
		"clamped", res.Clamped,
		"degraded", res.Degraded,
	)
}
