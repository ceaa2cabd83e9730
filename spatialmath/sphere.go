package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

type sphere struct {
	pose   Pose
	center r3.Vector
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (Geometry, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	return &sphere{pose: pose, center: pose.Point(), radius: radius, label: label}, nil
}

// String returns a human readable string that represents the sphere.
func (s *sphere) String() string {
	return fmt.Sprintf("Type: Sphere | Position: X:%.3f, Y:%.3f, Z:%.3f | Radius: %.3f",
		s.center.X, s.center.Y, s.center.Z, s.radius)
}

// Label returns the label of this sphere.
func (s *sphere) Label() string {
	return s.label
}

// Pose returns the pose of the sphere.
func (s *sphere) Pose() Pose {
	return s.pose
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to be moved in space.
func (s *sphere) Transform(toPremultiply Pose) Geometry {
	p := Compose(toPremultiply, s.pose)
	return &sphere{pose: p, center: p.Point(), radius: s.radius, label: s.label}
}

// CollidesWith checks if the given sphere collides with the given geometry.
func (s *sphere) CollidesWith(g Geometry) (bool, error) {
	return collidesWith(s, g)
}

// DistanceFrom returns the distance from the sphere to the given geometry, negative when they overlap.
func (s *sphere) DistanceFrom(g Geometry) (float64, error) {
	return distanceFrom(s, g)
}

func (s *sphere) extentAlong(r3.Vector) float64 {
	return s.radius
}

// sphereVsBoxSeparation measures a sphere of radius around center against b. The normal points from the box to the
// sphere. A center inside the box penetrates by its depth below the nearest face plus the radius.
func sphereVsBoxSeparation(b *box, center r3.Vector, radius float64) Separation {
	boxPt := b.closestPoint(center)
	delta := center.Sub(boxPt)
	if dist := delta.Norm(); dist > floatEpsilon {
		return Separation{Distance: dist - radius, Point: boxPt, Normal: delta.Mul(1 / dist)}
	}
	depth, n := b.pointPenetration(center)
	return Separation{Distance: -(depth + radius), Point: boxPt, Normal: n}
}
