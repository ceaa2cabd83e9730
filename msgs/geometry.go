// Package msgs defines the interchange messages a planning scene is synchronized through: collision objects,
// attached objects, robot states, occupancy maps and whole or differential scene snapshots.
package msgs

import (
	"github.com/golang/geo/r3"

	"go.viam.com/planningscene/spatialmath"
)

// Header carries the frame a message's poses are expressed in.
type Header struct {
	FrameID string `json:"frame_id"`
}

// Quaternion is a rotation in x, y, z, w order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a position and an orientation. The zero value (including a zero quaternion) is the "empty" pose.
type Pose struct {
	Position    r3.Vector  `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// IdentityPose returns a pose with no translation and a unit quaternion.
func IdentityPose() Pose {
	return Pose{Orientation: Quaternion{W: 1}}
}

// IsEmpty returns whether every component of the pose, including the quaternion, is zero.
func (p Pose) IsEmpty() bool {
	return p == Pose{}
}

// ToPose converts the message into a rigid transform. A zero quaternion is treated as no rotation.
func (p Pose) ToPose() spatialmath.Pose {
	q := p.Orientation
	return spatialmath.NewPose(p.Position, spatialmath.NewQuaternionFromXYZW(q.X, q.Y, q.Z, q.W))
}

// PoseFromSpatial converts a rigid transform into its message form.
func PoseFromSpatial(p spatialmath.Pose) Pose {
	q := p.Orientation().Quaternion()
	return Pose{
		Position:    p.Point(),
		Orientation: Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real},
	}
}

// TransformStamped is a fixed transform from Header.FrameID to ChildFrameID.
type TransformStamped struct {
	Header       Header `json:"header"`
	ChildFrameID string `json:"child_frame_id"`
	Transform    Pose   `json:"transform"`
}
