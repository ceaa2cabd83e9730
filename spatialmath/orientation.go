package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// If two angles differ by less than this amount, we consider them the same for the purpose of doing
// math around the poles of orientation.
const angleEpsilon = 0.01 // radians

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	OrientationVectorDegrees() *OrientationVectorDegrees
	AxisAngles() *R4AA
	RotationMatrix() *RotationMatrix
}

// NewZeroOrientation returns an orientatation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &Quaternion{Real: 1}
}

// OrientationAlmostEqual will return a bool describing whether 2 poses have approximately the same orientation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// OrientationBetween returns the orientation representing the difference between the two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := Quaternion(quat.Mul(quat.Conj(o1.Quaternion()), o2.Quaternion()))
	return &q
}

// Quaternion is an Orientation stored as a unit quaternion.
type Quaternion quat.Number

// NewQuaternionFromXYZW builds a normalized quaternion from components in x, y, z, w order, the order used by the
// interchange messages and the text scene format. An all-zero input yields the identity.
func NewQuaternionFromXYZW(x, y, z, w float64) *Quaternion {
	q := Quaternion(normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}))
	return &q
}

// Quaternion returns the quaternion itself.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (q *Quaternion) OrientationVectorDegrees() *OrientationVectorDegrees {
	return QuatToOVD(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *Quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// AxisAngles returns the orientation in axis angle representation.
func (q *Quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// XYZW returns the components in x, y, z, w order.
func (q *Quaternion) XYZW() (float64, float64, float64, float64) {
	return q.Imag, q.Jmag, q.Kmag, q.Real
}

func normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// QuaternionAlmostEqual returns whether two quaternions describe the same rotation within tol. q and -q are the
// same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := math.Abs(a.Real-b.Real) < tol && math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol && math.Abs(a.Kmag-b.Kmag) < tol
	if same {
		return true
	}
	return math.Abs(a.Real+b.Real) < tol && math.Abs(a.Imag+b.Imag) < tol &&
		math.Abs(a.Jmag+b.Jmag) < tol && math.Abs(a.Kmag+b.Kmag) < tol
}

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// Quaternion returns orientation in quaternion representation.
func (r4 *R4AA) Quaternion() quat.Number {
	return r4.ToQuat()
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (r4 *R4AA) OrientationVectorDegrees() *OrientationVectorDegrees {
	return QuatToOVD(r4.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(r4.Quaternion())
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// ToR3 converts an R4 angle axis to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion. A zero axis is the identity rotation.
func (r4 *R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta / 2)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX / norm * sinA,
		Jmag: r4.RY / norm * sinA,
		Kmag: r4.RZ / norm * sinA,
	}
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
func QuatToR4AA(q quat.Number) R4AA {
	denom := imagNorm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{angle, 1, 0, 0}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatToRotationVector returns the rotation as a vector whose direction is the rotation axis and whose length is
// the rotation angle, with the angle taken in [-pi, pi].
func QuatToRotationVector(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	aa := QuatToR4AA(q)
	return aa.ToR3()
}

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space,
// applied as roll about x, then pitch about y, then yaw about z (extrinsic).
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	cr, sr := math.Cos(ea.Roll/2), math.Sin(ea.Roll/2)
	cp, sp := math.Cos(ea.Pitch/2), math.Sin(ea.Pitch/2)
	cy, sy := math.Cos(ea.Yaw/2), math.Sin(ea.Yaw/2)
	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (ea *EulerAngles) OrientationVectorDegrees() *OrientationVectorDegrees {
	return QuatToOVD(ea.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ea.Quaternion())
}

// AxisAngles returns the orientation in axis angle representation.
func (ea *EulerAngles) AxisAngles() *R4AA {
	aa := QuatToR4AA(ea.Quaternion())
	return &aa
}

func imagNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}
