package state

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
)

// expiryEpsilon absorbs float drift when a step lands exactly on an expiry.
const expiryEpsilon = 1e-9

// Effects holds the active temporary abilities as entities in an ECS world.
type Effects struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Effect, components.Timer]
	filter *ecs.Filter2[components.Effect, components.Timer]
}

// ActiveEffect is a snapshot of one running ability.
type ActiveEffect struct {
	Effect    components.Effect
	Remaining float64
}

// NewEffects creates an empty effect world.
func NewEffects() *Effects {
	world := ecs.NewWorld()
	return &Effects{
		world:  world,
		mapper: ecs.NewMap2[components.Effect, components.Timer](world),
		filter: ecs.NewFilter2[components.Effect, components.Timer](world),
	}
}

// Activate starts an ability for duration seconds. A new weather replaces the
// active one.
func (e *Effects) Activate(eff components.Effect, duration float64) {
	if duration <= 0 {
		return
	}
	if eff.Kind == components.EffectWeather {
		e.removeWhere(func(other *components.Effect, _ *components.Timer) bool {
			return other.Kind == components.EffectWeather
		})
	}
	timer := components.Timer{Remaining: duration}
	e.mapper.NewEntity(&eff, &timer)
}

// Advance counts every timer down by dt and removes and returns the effects
// that expired.
func (e *Effects) Advance(dt float64) []components.Effect {
	var expired []components.Effect
	query := e.filter.Query()
	for query.Next() {
		eff, timer := query.Get()
		timer.Remaining -= dt
		if timer.Remaining <= expiryEpsilon {
			expired = append(expired, *eff)
		}
	}
	if len(expired) > 0 {
		e.removeWhere(func(_ *components.Effect, timer *components.Timer) bool {
			return timer.Remaining <= expiryEpsilon
		})
	}
	return expired
}

// removeWhere collects matching entities first; the world is locked while a
// query is open.
func (e *Effects) removeWhere(match func(*components.Effect, *components.Timer) bool) {
	var toRemove []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		eff, timer := query.Get()
		if match(eff, timer) {
			toRemove = append(toRemove, query.Entity())
		}
	}
	for _, entity := range toRemove {
		e.world.RemoveEntity(entity)
	}
}

// NextExpiry returns the seconds until the first effect expires, or +Inf.
func (e *Effects) NextExpiry() float64 {
	next := math.Inf(1)
	query := e.filter.Query()
	for query.Next() {
		_, timer := query.Get()
		next = math.Min(next, timer.Remaining)
	}
	return next
}

// FruitBonus returns the summed fruit magnitude for cat.
func (e *Effects) FruitBonus(cat components.Category) float64 {
	sum := 0.0
	query := e.filter.Query()
	for query.Next() {
		eff, _ := query.Get()
		if eff.Kind == components.EffectFruit && eff.Category == cat {
			sum += eff.Magnitude
		}
	}
	return sum
}

// LeechBonus returns the summed leech fruit magnitude.
func (e *Effects) LeechBonus() float64 {
	sum := 0.0
	query := e.filter.Query()
	for query.Next() {
		eff, _ := query.Get()
		if eff.Kind == components.EffectLeechFruit {
			sum += eff.Magnitude
		}
	}
	return sum
}

// Weather returns the active weather, or WeatherNone.
func (e *Effects) Weather() components.Weather {
	w := components.WeatherNone
	query := e.filter.Query()
	for query.Next() {
		eff, _ := query.Get()
		if eff.Kind == components.EffectWeather {
			w = eff.Weather
		}
	}
	return w
}

// Len returns the number of active effects.
func (e *Effects) Len() int {
	n := 0
	query := e.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Active returns the running effects ordered by remaining time.
func (e *Effects) Active() []ActiveEffect {
	var out []ActiveEffect
	query := e.filter.Query()
	for query.Next() {
		eff, timer := query.Get()
		out = append(out, ActiveEffect{Effect: *eff, Remaining: timer.Remaining})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Remaining != out[j].Remaining {
			return out[i].Remaining < out[j].Remaining
		}
		return out[i].Effect.Kind < out[j].Effect.Kind
	})
	return out
}
