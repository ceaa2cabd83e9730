package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
)

// capsule is a collision geometry that represents a capsule, it has a pose and a radius that fully define it.
//
// ....___________________
// .../                   \
// .x|  |-------O-------|  |x
// ...\___________________/
//
// Length is the distance between the x's, or internal segment length + 2*radius.
type capsule struct {
	// pose of the center; the capsule extends along the z axis of the pose
	pose   Pose
	radius float64
	length float64 // total length of the capsule, tip to tip
	label  string

	segA   r3.Vector // proximal endpoint of the inner segment
	segB   r3.Vector // distal endpoint of the inner segment
	center r3.Vector
	capVec r3.Vector // from center to segB

	rotMatrix *RotationMatrix
	once      sync.Once
}

// NewCapsule instantiates a new capsule Geometry. A capsule exactly twice as long as its radius is a sphere.
func NewCapsule(offset Pose, radius, length float64, label string) (Geometry, error) {
	if radius <= 0 || length <= 0 {
		return nil, newBadGeometryDimensionsError(&capsule{})
	}
	if length < radius*2 {
		return nil, newBadCapsuleLengthError(length, radius)
	}
	if length == radius*2 {
		return NewSphere(offset, radius, label)
	}
	return newCapsuleWithSegPoints(offset, radius, length, label), nil
}

func newCapsuleWithSegPoints(offset Pose, radius, length float64, label string) *capsule {
	segA := Compose(offset, NewPoseFromPoint(r3.Vector{Z: -length/2 + radius})).Point()
	segB := Compose(offset, NewPoseFromPoint(r3.Vector{Z: length/2 - radius})).Point()
	center := offset.Point()
	return &capsule{
		pose:   offset,
		radius: radius,
		length: length,
		label:  label,
		segA:   segA,
		segB:   segB,
		center: center,
		capVec: segB.Sub(center),
	}
}

// String returns a human readable string that represents the capsule.
func (c *capsule) String() string {
	return fmt.Sprintf("Type: Capsule, Radius: %.3f, Length: %.3f", c.radius, c.length)
}

// Label returns the label of this capsule.
func (c *capsule) Label() string {
	return c.label
}

// Pose returns the pose of the capsule.
func (c *capsule) Pose() Pose {
	return c.pose
}

// Transform premultiplies the capsule pose with a transform, allowing the capsule to be moved in space.
func (c *capsule) Transform(toPremultiply Pose) Geometry {
	return newCapsuleWithSegPoints(Compose(toPremultiply, c.pose), c.radius, c.length, c.label)
}

// CollidesWith checks if the given capsule collides with the given geometry.
func (c *capsule) CollidesWith(g Geometry) (bool, error) {
	return collidesWith(c, g)
}

// DistanceFrom returns the distance from the capsule to the given geometry, negative when they overlap.
func (c *capsule) DistanceFrom(g Geometry) (float64, error) {
	return distanceFrom(c, g)
}

func (c *capsule) extentAlong(n r3.Vector) float64 {
	return math.Abs(c.capVec.Dot(n)) + c.radius
}

// rotationMatrix returns the cached matrix if it exists, and generates it if not.
func (c *capsule) rotationMatrix() *RotationMatrix {
	c.once.Do(func() { c.rotMatrix = c.pose.Orientation().RotationMatrix() })
	return c.rotMatrix
}

// capsuleVsPointSeparation measures c against a sphere of radius around pt. The normal points from the capsule.
func capsuleVsPointSeparation(c *capsule, pt r3.Vector, radius float64) Separation {
	return sphereVsSphereSeparation(ClosestPointSegmentPoint(c.segA, c.segB, pt), c.radius, pt, radius)
}

// capsuleVsBoxSeparation models the capsule as a 0x0xN box, where N = (length/2)-radius, for the separating axis
// test. When the inner segment misses the box, the exact distance comes from the closest of the segment endpoints
// against the box and the segment against each box edge. The normal points from the capsule to the box.
func capsuleVsBoxSeparation(c *capsule, b *box) Separation {
	capLen := c.length/2 - c.radius
	gap, axis := obbSATMaxGap(c.rotationMatrix(), b.rotationMatrix(), [3]float64{0, 0, capLen}, b.halfSize,
		b.centerPt.Sub(c.center))
	if gap <= 0 {
		return Separation{Distance: gap - c.radius, Point: b.closestPoint(c.center), Normal: axis}
	}

	best := math.Inf(1)
	var segPt r3.Vector
	consider := func(p, q r3.Vector) {
		if d := q.Sub(p).Norm(); d < best {
			best, segPt = d, p
		}
	}
	consider(c.segA, b.closestPoint(c.segA))
	consider(c.segB, b.closestPoint(c.segB))
	verts := b.vertices()
	for _, e := range boxEdgeIndices {
		consider(ClosestPointsSegmentSegment(c.segA, c.segB, verts[e[0]], verts[e[1]]))
	}
	s := sphereVsBoxSeparation(b, segPt, c.radius)
	s.Normal = s.Normal.Mul(-1)
	return s
}
