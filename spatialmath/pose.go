// Package spatialmath defines spatial mathematical operations: rigid transforms (poses), orientations and the
// helpers needed to compose and compare them.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a rigid transform in 3D space: a translation and an orientation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion is the Pose implementation used everywhere in this module. The real part holds the rotation and
// the dual part holds half the translation premultiplied by the rotation.
type dualQuaternion struct {
	dualquat.Number
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return &dualQuaternion{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewPose builds a pose from a translation and an orientation. A nil orientation is treated as no rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	rot := quat.Number{Real: 1}
	if o != nil {
		rot = normalize(o.Quaternion())
	}
	dq := &dualQuaternion{dualquat.Number{Real: rot}}
	dq.setTranslation(p)
	return dq
}

// NewPoseFromPoint builds a pose with the given translation and no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return NewPose(p, nil)
}

// NewPoseFromOrientation builds a pose with the given rotation and no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if dq, ok := p.(*dualQuaternion); ok {
		return &dualQuaternion{dq.Number}
	}
	return NewPose(p.Point(), p.Orientation()).(*dualQuaternion)
}

func (q *dualQuaternion) setTranslation(pt r3.Vector) {
	q.Dual = quat.Scale(0.5, quat.Mul(quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}, q.Real))
}

// Point returns the translation of the pose.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Mul(quat.Scale(2, q.Dual), quat.Conj(q.Real))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation of the pose.
func (q *dualQuaternion) Orientation() Orientation {
	o := Quaternion(q.Real)
	return &o
}

func (q *dualQuaternion) String() string {
	pt := q.Point()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f W:%.4f I:%.4f J:%.4f K:%.4f}",
		pt.X, pt.Y, pt.Z, q.Real.Real, q.Real.Imag, q.Real.Jmag, q.Real.Kmag)
}

// Compose returns the transform a*b, i.e. b expressed in the frame in which a is expressed.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(newDualQuaternionFromPose(a).Number, newDualQuaternionFromPose(b).Number)}
	// Re-normalizing the rotation keeps long chains of compositions from drifting.
	norm := quat.Abs(result.Real)
	if norm > 0 && math.Abs(norm-1) > 1e-12 {
		pt := result.Point()
		result.Real = quat.Scale(1/norm, result.Real)
		result.setTranslation(pt)
	}
	return result
}

// PoseInverse returns the transform that undoes p.
func PoseInverse(p Pose) Pose {
	return &dualQuaternion{dualquat.ConjQuat(newDualQuaternionFromPose(p).Number)}
}

// PoseBetween returns the transform from a to b, such that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint applies the pose to a point.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return Compose(p, NewPoseFromPoint(pt)).Point()
}

// PoseAlmostEqual returns whether two poses are equal up to a default tolerance.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps returns whether two poses are equal up to the given tolerance, in both translation and rotation.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// IsIdentity returns whether the pose is (almost) the identity transform.
func IsIdentity(p Pose) bool {
	return PoseAlmostEqualEps(p, NewZeroPose(), 1e-9)
}
