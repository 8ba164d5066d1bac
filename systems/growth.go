package systems

import (
	"strconv"

	"github.com/pthm-cable/meadow/bignum"
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/state"
)

// growthEpsilon snaps growth that lands within float drift of a boundary.
const growthEpsilon = 1e-9

// GrowthSystem integrates a precomputed field over a time slice: resource
// yields, growth and lifetimes, effect timers, seasons and tree levels.
// Rates are constant within a slice; boundaries the scheduler aimed at fall
// at its end.
type GrowthSystem struct {
	cfg *config.Config
}

// NewGrowthSystem creates the integrator.
func NewGrowthSystem(cfg *config.Config) *GrowthSystem {
	return &GrowthSystem{cfg: cfg}
}

// Integrate advances st by dt seconds using the yields in pf and returns
// the events that occurred.
func (s *GrowthSystem) Integrate(st *state.State, pf *PreField, dt float64) []Event {
	if dt <= 0 {
		return nil
	}
	var events []Event
	end := st.Elapsed + dt

	st.Resources = st.Resources.Add(pf.Total.Scale(dt)).ClampNonNegative()
	if resin := pf.Total.Get(components.Resin); resin.Sign() > 0 {
		st.LifetimeResin = st.LifetimeResin.Add(resin.Mul(bignum.FromFloat(dt)))
	}

	events = s.advanceGrowth(st, pf, dt, end, events)

	for _, eff := range st.Effects.Advance(dt) {
		events = append(events, Event{Kind: EventEffectExpired, Time: end, Detail: effectName(eff)})
	}

	st.SeasonRemaining -= dt
	for st.SeasonRemaining <= growthEpsilon {
		st.Season = st.Season.Next()
		st.SeasonRemaining += s.cfg.Seasons.Duration
		events = append(events, Event{Kind: EventSeasonChanged, Time: end, Detail: st.Season.String()})
	}

	for st.LifetimeResin.Float64() >= s.cfg.LevelThreshold(st.TreeLevel)*(1-growthEpsilon) {
		st.TreeLevel++
		events = append(events, Event{Kind: EventLevelUp, Time: end, Detail: levelName(st.TreeLevel)})
	}

	st.Elapsed = end
	return events
}

// advanceGrowth moves growth forward for normal crops and backward for
// short-lived and withering ones. Maturity is reported once, on crossing.
func (s *GrowthSystem) advanceGrowth(st *state.State, pf *PreField, dt, end float64, events []Event) []Event {
	for i := range st.Field.Cells {
		cell := &st.Field.Cells[i]
		crop := pf.Crops[i]
		if !cell.HasCrop() || crop == nil || crop.Growth <= 0 {
			continue
		}

		switch {
		case crop.Category.ShortLived():
			cell.Growth -= dt / crop.Growth
			if cell.Growth <= growthEpsilon {
				events = append(events, cropEvent(EventExpired, end, cell))
				cell.Occupant = components.Occupant{Kind: components.OccupantRemainder}
				cell.Growth = 0
			}

		case cell.Withering:
			cell.Growth -= dt / s.cfg.Growth.WitherDuration
			if cell.Growth <= growthEpsilon {
				events = append(events, cropEvent(EventWithered, end, cell))
				cell.Occupant = components.Occupant{Kind: components.OccupantRemainder}
				cell.Growth = 0
				cell.Withering = false
			}

		case cell.Growth < 1:
			cell.Growth += dt / crop.Growth
			if cell.Growth >= 1-growthEpsilon {
				cell.Growth = 1
				events = append(events, cropEvent(EventMatured, end, cell))
				if st.Challenge.Withering {
					cell.Withering = true
				}
			}

		case st.Challenge.Withering:
			// Mature before the challenge started
			cell.Withering = true
		}
	}
	return events
}

func cropEvent(kind EventKind, t float64, cell *components.Cell) Event {
	return Event{Kind: kind, Time: t, X: cell.X, Y: cell.Y, Crop: cell.Occupant.CropID}
}

func effectName(eff components.Effect) string {
	switch eff.Kind {
	case components.EffectFruit:
		return eff.Kind.String() + ":" + eff.Category.String()
	case components.EffectWeather:
		return eff.Weather.String()
	}
	return eff.Kind.String()
}

func levelName(level int) string {
	return "level " + strconv.Itoa(level)
}
