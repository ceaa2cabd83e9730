package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// ClampFloat clamps v into [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
