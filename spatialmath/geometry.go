package spatialmath

import (
	"github.com/golang/geo/r3"
)

// CollisionBuffer is the distance under which two geometries are considered to be in collision.
const CollisionBuffer = 1e-8

const floatEpsilon = 1e-9

// Geometry is a solid placed in 3D space: a box, a sphere or a capsule.
type Geometry interface {
	Pose() Pose
	Label() string
	// Transform premultiplies the pose of the geometry with toPremultiply.
	Transform(toPremultiply Pose) Geometry
	// CollidesWith returns whether the two geometries are closer than CollisionBuffer.
	CollidesWith(g Geometry) (bool, error)
	// DistanceFrom returns the distance between the two geometries, or the negated penetration depth when they
	// overlap.
	DistanceFrom(g Geometry) (float64, error)
	// extentAlong is half the length of the projection of the geometry on unit vector n.
	extentAlong(n r3.Vector) float64
}

// Separation describes how two geometries relate. Distance is positive when they are apart and the negated
// penetration depth when they overlap. Point lies between them and Normal points from the first towards the second.
type Separation struct {
	Distance float64
	Point    r3.Vector
	Normal   r3.Vector
}

// SeparationBetween returns the separation of a and b.
func SeparationBetween(a, b Geometry) (Separation, error) {
	flip := func(s Separation, err error) (Separation, error) {
		s.Normal = s.Normal.Mul(-1)
		return s, err
	}
	switch ga := a.(type) {
	case *sphere:
		switch gb := b.(type) {
		case *sphere:
			return sphereVsSphereSeparation(ga.center, ga.radius, gb.center, gb.radius), nil
		case *box:
			return flip(sphereVsBoxSeparation(gb, ga.center, ga.radius), nil)
		case *capsule:
			return flip(capsuleVsPointSeparation(gb, ga.center, ga.radius), nil)
		}
	case *box:
		switch gb := b.(type) {
		case *sphere:
			return sphereVsBoxSeparation(ga, gb.center, gb.radius), nil
		case *box:
			return boxVsBoxSeparation(ga, gb), nil
		case *capsule:
			return flip(capsuleVsBoxSeparation(gb, ga), nil)
		}
	case *capsule:
		switch gb := b.(type) {
		case *sphere:
			return capsuleVsPointSeparation(ga, gb.center, gb.radius), nil
		case *box:
			return capsuleVsBoxSeparation(ga, gb), nil
		case *capsule:
			p, q := ClosestPointsSegmentSegment(ga.segA, ga.segB, gb.segA, gb.segB)
			return sphereVsSphereSeparation(p, ga.radius, q, gb.radius), nil
		}
	}
	return Separation{}, newCollisionTypeUnsupportedError(a, b)
}

// ProjectedExtent is half the length of the projection of g on unit vector n.
func ProjectedExtent(g Geometry, n r3.Vector) float64 {
	return g.extentAlong(n)
}

// BoundingBox returns the corners of the axis aligned box around g.
func BoundingBox(g Geometry) (r3.Vector, r3.Vector) {
	ext := r3.Vector{
		X: g.extentAlong(r3.Vector{X: 1}),
		Y: g.extentAlong(r3.Vector{Y: 1}),
		Z: g.extentAlong(r3.Vector{Z: 1}),
	}
	c := g.Pose().Point()
	return c.Sub(ext), c.Add(ext)
}

func distanceFrom(a, b Geometry) (float64, error) {
	s, err := SeparationBetween(a, b)
	if err != nil {
		return 0, err
	}
	return s.Distance, nil
}

func collidesWith(a, b Geometry) (bool, error) {
	d, err := distanceFrom(a, b)
	if err != nil {
		return true, err
	}
	return d <= CollisionBuffer, nil
}

// sphereVsSphereSeparation is also the separation of any two geometries reduced to their closest points ca and cb.
func sphereVsSphereSeparation(ca r3.Vector, ra float64, cb r3.Vector, rb float64) Separation {
	delta := cb.Sub(ca)
	d := delta.Norm()
	n := r3.Vector{Z: 1}
	if d > floatEpsilon {
		n = delta.Mul(1 / d)
	}
	dist := d - ra - rb
	return Separation{Distance: dist, Point: ca.Add(n.Mul(ra + dist/2)), Normal: n}
}
