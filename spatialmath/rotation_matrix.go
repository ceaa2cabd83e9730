package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 rotation stored row-major. Row i is the i-th axis of the rotated frame expressed in the
// parent frame.
type RotationMatrix struct {
	mat [9]float64
}

// QuatToRotationMatrix converts a quaternion into a rotation matrix. q is normalized first.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}}
}

// Row returns the i-th axis of the rotated frame.
func (rm *RotationMatrix) Row(i int) r3.Vector {
	return r3.Vector{X: rm.mat[3*i], Y: rm.mat[3*i+1], Z: rm.mat[3*i+2]}
}

// At returns the entry at row, col.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}
