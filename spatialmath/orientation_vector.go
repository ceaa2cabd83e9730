package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationVectorDegrees is the orientation vector between two objects, but expressed in degrees rather than radians.
// OX, OY, OZ is the direction the local z axis points to and Theta is the rotation about that axis.
type OrientationVectorDegrees struct {
	Theta float64 `json:"th"`
	OX    float64 `json:"x"`
	OY    float64 `json:"y"`
	OZ    float64 `json:"z"`
}

// NewOrientationVectorDegrees creates a zero-initialized OrientationVectorDegrees pointing along +Z.
func NewOrientationVectorDegrees() *OrientationVectorDegrees {
	return &OrientationVectorDegrees{OZ: 1}
}

// Quaternion returns orientation in quaternion representation.
func (ovd *OrientationVectorDegrees) Quaternion() quat.Number {
	return ovd.ToQuat()
}

// OrientationVectorDegrees returns itself.
func (ovd *OrientationVectorDegrees) OrientationVectorDegrees() *OrientationVectorDegrees {
	return ovd
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ovd *OrientationVectorDegrees) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ovd.Quaternion())
}

// AxisAngles returns the orientation in axis angle representation.
func (ovd *OrientationVectorDegrees) AxisAngles() *R4AA {
	aa := QuatToR4AA(ovd.ToQuat())
	return &aa
}

// ToQuat converts an orientation vector in degrees to a quaternion.
func (ovd *OrientationVectorDegrees) ToQuat() quat.Number {
	dir := r3.Vector{X: ovd.OX, Y: ovd.OY, Z: ovd.OZ}
	if dir.Norm() == 0 {
		dir = r3.Vector{Z: 1}
	}
	dir = dir.Normalize()

	lat := math.Acos(ClampFloat(dir.Z, -1, 1))
	lon := 0.
	if 1-math.Abs(dir.Z) > angleEpsilon {
		lon = math.Atan2(dir.Y, dir.X)
	}
	th := ovd.Theta * math.Pi / 180

	// intrinsic z-y-z rotation: longitude, then latitude, then theta about the new z axis
	q := quat.Mul(quat.Mul(axisRotation(r3.Vector{Z: 1}, lon), axisRotation(r3.Vector{Y: 1}, lat)), axisRotation(r3.Vector{Z: 1}, th))
	return normalize(q)
}

func axisRotation(axis r3.Vector, angle float64) quat.Number {
	aa := R4AA{Theta: angle, RX: axis.X, RY: axis.Y, RZ: axis.Z}
	return aa.ToQuat()
}

// QuatToOVD converts a quaternion to an orientation vector in degrees.
func QuatToOVD(q quat.Number) *OrientationVectorDegrees {
	xAxis := quat.Number{Imag: -1}
	zAxis := quat.Number{Kmag: 1}
	// Get the transform of our +X and +Z points
	newX := quat.Mul(quat.Mul(q, xAxis), quat.Conj(q))
	newZ := quat.Mul(quat.Mul(q, zAxis), quat.Conj(q))
	ov := &OrientationVectorDegrees{OX: newZ.Imag, OY: newZ.Jmag, OZ: newZ.Kmag}

	theta := 0.
	if 1-math.Abs(newZ.Kmag) < angleEpsilon {
		// pointing straight along the z axis
		theta = -math.Atan2(newX.Jmag, -newX.Imag)
		if newZ.Kmag < 0 {
			theta = -math.Atan2(newX.Jmag, newX.Imag)
		}
	} else {
		v1 := r3.Vector{X: newZ.Imag, Y: newZ.Jmag, Z: newZ.Kmag}
		v2 := r3.Vector{X: newX.Imag, Y: newX.Jmag, Z: newX.Kmag}

		// normal of the local-x, local-z plane and of the global-z, local-z plane
		norm1 := v1.Cross(v2)
		norm2 := v1.Cross(r3.Vector{Z: 1})

		cosTheta := ClampFloat(norm1.Dot(norm2)/(norm1.Norm()*norm2.Norm()), -1, 1)
		theta = math.Acos(cosTheta)
		if theta > angleEpsilon {
			// Acos is always positive; rotate by -theta and see whether the planes line up to pick a sign.
			q2 := axisRotation(v1, -theta)
			testZ := quat.Mul(quat.Mul(q2, zAxis), quat.Conj(q2))
			norm3 := v1.Cross(r3.Vector{X: testZ.Imag, Y: testZ.Jmag, Z: testZ.Kmag})
			cosTest := norm1.Dot(norm3) / (norm1.Norm() * norm3.Norm())
			if 1-cosTest < angleEpsilon*angleEpsilon {
				theta = -theta
			}
		} else {
			theta = 0
		}
	}
	ov.Theta = theta * 180 / math.Pi
	return ov
}
