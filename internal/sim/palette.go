package sim

import (
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// maxTemperatureHue caps the temperature scale short of wrapping back to red.
	maxTemperatureHue = 324.0
	// temperatureSpan is how many multiples of the target speed, above half of
	// it, it takes to reach the hottest hue.
	temperatureSpan = 3.0
	// minHueDistance is the smallest hue gap, in degrees, between the healthy
	// and the infected colour.
	minHueDistance = 72.0
)

// randomColor returns a fully saturated colour of uniformly random hue.
func randomColor(rng *rand.Rand) colorful.Color {
	return colorful.Hsv(rng.Float64()*360, 1, 1)
}

// randomDistinctColor picks a random saturated colour whose hue is at least
// minHueDistance away from other's.
func randomDistinctColor(rng *rand.Rand, other colorful.Color) colorful.Color {
	h, _, _ := other.Hsv()
	offset := minHueDistance + rng.Float64()*(360-2*minHueDistance)
	return colorful.Hsv(math.Mod(h+offset, 360), 1, 1)
}

// TemperatureHue maps a speed to a hue in degrees. Balls at or below half of
// the target speed are red (0); hue rises monotonically with speed up to
// maxTemperatureHue.
func TemperatureHue(speed, target float64) float64 {
	norm := speed
	if target > 0 {
		norm = speed / target
	}
	t := (norm - 0.5) / temperatureSpan
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		t = 1
	}
	return t * maxTemperatureHue
}

// densityAlpha fades sparse regions out: the square of the population
// relative to target, saturating at 1.
func densityAlpha(count int, target float64) float64 {
	if !(target > 0) {
		return 1
	}
	a := float64(count) / target
	if a > 1 {
		a = 1
	}
	return a * a
}
