// Package types contains common value types used across the simulation.
package types

import "math"

// Vec3 is a position in scene space. Gameplay only uses the x/z plane; y is
// carried through for the scene collaborator.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// PlanarDistance returns the distance between a and b on the x/z plane.
func PlanarDistance(a, b Vec3) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}

// MoveToward returns from moved toward to on the x/z plane by step units.
// It never overshoots to.
func MoveToward(from, to Vec3, step float64) Vec3 {
	d := PlanarDistance(from, to)
	if d == 0 || step <= 0 {
		return from
	}
	if step >= d {
		return Vec3{X: to.X, Y: from.Y, Z: to.Z}
	}
	return Vec3{
		X: from.X + (to.X-from.X)/d*step,
		Y: from.Y,
		Z: from.Z + (to.Z-from.Z)/d*step,
	}
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
