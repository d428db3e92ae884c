// Package geom holds the vector and box primitives shared by the physics core.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the world-space vector used for positions, velocities and extents.
type Vec2 = mgl64.Vec2

// AreaIndex identifies a broad-phase grid cell. It is coarser than a tile index.
type AreaIndex struct {
	X int
	Y int
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Sign returns -1, 0 or 1. Zero maps to zero so a shared center yields no push.
func Sign(value float64) float64 {
	switch {
	case value < 0:
		return -1
	case value > 0:
		return 1
	default:
		return 0
	}
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec interpolates component-wise between a and b.
func LerpVec(a, b Vec2, t float64) Vec2 {
	return Vec2{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t)}
}

// RoundVec rounds both components half away from zero.
func RoundVec(v Vec2) Vec2 {
	return Vec2{math.Round(v[0]), math.Round(v[1])}
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
