// Package geometry holds the numeric helpers used to normalize camera and coordinate values.
// Every function is total over finite inputs.
package geometry

import "math"

// Clamp returns value limited to the closed range [minV, maxV].
func Clamp(value, minV, maxV float64) float64 {
	return math.Max(minV, math.Min(maxV, value))
}

// Wrap constrains value to the half-open range [minV, maxV) via modular arithmetic.
// Values already in range are returned unchanged. Otherwise the second modulo turns
// the truncated remainder of math.Mod into a floored one, so negative inputs land in
// the same range as positive ones.
func Wrap(value, minV, maxV float64) float64 {
	if value >= minV && value < maxV {
		return value
	}

	delta := maxV - minV

	firstMod := math.Mod(value-minV, delta)
	secondMod := math.Mod(firstMod+delta, delta)

	return secondMod + minV
}

// Round rounds value to the given number of decimal places, ties away from zero.
//
// Only meant for small magnitudes such as latitude and longitude: value*10^places
// overflows to ±Inf for large inputs and the result is then not meaningful.
func Round(value float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))

	return math.Round(value*multiplier) / multiplier
}
