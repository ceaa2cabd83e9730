package spatialmath

import (
	"github.com/golang/geo/r3"
	commonpb "go.viam.com/api/common/v1"
)

// MetersToMM is the scale between scene units and the units of the viam API messages.
const MetersToMM = 1000.

// PoseToProtobuf converts a pose expressed in meters to a viam Pose message expressed in millimeters.
func PoseToProtobuf(p Pose) *commonpb.Pose {
	pt := p.Point().Mul(MetersToMM)
	ovd := p.Orientation().OrientationVectorDegrees()
	return &commonpb.Pose{
		X:     pt.X,
		Y:     pt.Y,
		Z:     pt.Z,
		OX:    ovd.OX,
		OY:    ovd.OY,
		OZ:    ovd.OZ,
		Theta: ovd.Theta,
	}
}

// NewPoseFromProtobuf converts a viam Pose message (millimeters) into a pose in meters.
func NewPoseFromProtobuf(pos *commonpb.Pose) Pose {
	if pos == nil {
		return NewZeroPose()
	}
	pt := r3.Vector{X: pos.GetX(), Y: pos.GetY(), Z: pos.GetZ()}.Mul(1 / MetersToMM)
	ovd := &OrientationVectorDegrees{OX: pos.GetOX(), OY: pos.GetOY(), OZ: pos.GetOZ(), Theta: pos.GetTheta()}
	return NewPose(pt, ovd)
}

// BoxToProtobuf builds a box geometry message from full side lengths in meters.
func BoxToProtobuf(center Pose, dims r3.Vector, label string) *commonpb.Geometry {
	dims = dims.Mul(MetersToMM)
	return &commonpb.Geometry{
		Center: PoseToProtobuf(center),
		GeometryType: &commonpb.Geometry_Box{
			Box: &commonpb.RectangularPrism{DimsMm: &commonpb.Vector3{X: dims.X, Y: dims.Y, Z: dims.Z}},
		},
		Label: label,
	}
}

// SphereToProtobuf builds a sphere geometry message from a radius in meters.
func SphereToProtobuf(center Pose, radius float64, label string) *commonpb.Geometry {
	return &commonpb.Geometry{
		Center: PoseToProtobuf(center),
		GeometryType: &commonpb.Geometry_Sphere{
			Sphere: &commonpb.Sphere{RadiusMm: radius * MetersToMM},
		},
		Label: label,
	}
}

// CapsuleToProtobuf builds a capsule geometry message from a radius and total length in meters.
func CapsuleToProtobuf(center Pose, radius, length float64, label string) *commonpb.Geometry {
	return &commonpb.Geometry{
		Center: PoseToProtobuf(center),
		GeometryType: &commonpb.Geometry_Capsule{
			Capsule: &commonpb.Capsule{RadiusMm: radius * MetersToMM, LengthMm: length * MetersToMM},
		},
		Label: label,
	}
}
