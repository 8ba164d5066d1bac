package components

import "fmt"

// EffectKind classifies a temporary ability.
type EffectKind uint8

const (
	// EffectFruit adds Magnitude to the production multiplier of Category.
	EffectFruit EffectKind = iota
	// EffectLeechFruit adds Magnitude to the base leech ratio.
	EffectLeechFruit
	// EffectWeather applies the Weather multiplier; at most one is active.
	EffectWeather
)

func (k EffectKind) String() string {
	switch k {
	case EffectFruit:
		return "fruit"
	case EffectLeechFruit:
		return "leech_fruit"
	case EffectWeather:
		return "weather"
	}
	return fmt.Sprintf("effect(%d)", k)
}

// Weather is a weather ability.
type Weather uint8

const (
	WeatherNone Weather = iota
	WeatherRain
	WeatherSun
	WeatherWind
)

func (w Weather) String() string {
	switch w {
	case WeatherNone:
		return "none"
	case WeatherRain:
		return "rain"
	case WeatherSun:
		return "sun"
	case WeatherWind:
		return "wind"
	}
	return fmt.Sprintf("weather(%d)", w)
}

// Effect is the ECS component describing an active ability.
type Effect struct {
	Kind      EffectKind
	Category  Category
	Weather   Weather
	Magnitude float64
}

// Timer is the ECS component holding remaining seconds of an effect.
type Timer struct {
	Remaining float64
}
