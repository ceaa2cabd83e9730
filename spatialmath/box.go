package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// The 12 edges of a box, as pairs of vertex indices (vertices differing in exactly one coordinate).
var boxEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// box is a collision geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
type box struct {
	center          Pose
	centerPt        r3.Vector
	halfSize        [3]float64
	boundingSphereR float64
	label           string
	rotMatrix       *RotationMatrix
	once            sync.Once
}

// NewBox instantiates a new box Geometry. dims are the full side lengths.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Zero dimensions are allowed for bounding boxes, etc.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	halfSize := dims.Mul(0.5)
	return &box{
		center:          pose,
		centerPt:        pose.Point(),
		halfSize:        [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		boundingSphereR: halfSize.Norm(),
		label:           label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *box) String() string {
	return fmt.Sprintf("Type: Box | Position: X:%.3f, Y:%.3f, Z:%.3f | Dims: X:%.3f, Y:%.3f, Z:%.3f",
		b.centerPt.X, b.centerPt.Y, b.centerPt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.center
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	p := Compose(toPremultiply, b.center)
	return &box{
		center:          p,
		centerPt:        p.Point(),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// CollidesWith checks if the given box collides with the given geometry.
func (b *box) CollidesWith(g Geometry) (bool, error) {
	if other, ok := g.(*box); ok {
		return boxVsBoxCollision(b, other, CollisionBuffer), nil
	}
	return collidesWith(b, g)
}

// DistanceFrom returns the distance from the box to the given geometry, negative when they overlap.
func (b *box) DistanceFrom(g Geometry) (float64, error) {
	return distanceFrom(b, g)
}

func (b *box) extentAlong(n r3.Vector) float64 {
	rm := b.rotationMatrix()
	sum := 0.
	for i := 0; i < 3; i++ {
		sum += math.Abs(rm.Row(i).Mul(b.halfSize[i]).Dot(n))
	}
	return sum
}

// closestPoint returns the closest point on the specified box to the specified point
// Reference: https://github.com/gszauer/GamePhysicsCookbook/blob/a0b8ee0c39fed6d4b90bb6d2195004dfcf5a1115/Code/Geometry3D.cpp#L165
func (b *box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.centerPt
	direction := pt.Sub(result)
	rm := b.rotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Row(i)
		result = result.Add(axis.Mul(ClampFloat(direction.Dot(axis), -b.halfSize[i], b.halfSize[i])))
	}
	return result
}

// pointPenetration returns the minimum distance needed to move a pt inside the box to the edge of the box, and the
// outward normal of the face it would leave through.
func (b *box) pointPenetration(pt r3.Vector) (float64, r3.Vector) {
	direction := pt.Sub(b.centerPt)
	rm := b.rotationMatrix()
	depth := math.Inf(1)
	normal := r3.Vector{Z: 1}
	for i := 0; i < 3; i++ {
		axis := rm.Row(i)
		projection := direction.Dot(axis)
		if d := math.Abs(projection - b.halfSize[i]); d < depth {
			depth, normal = d, axis
		}
		if d := math.Abs(projection + b.halfSize[i]); d < depth {
			depth, normal = d, axis.Mul(-1)
		}
	}
	return depth, normal
}

// vertices returns the vertices defining the box.
func (b *box) vertices() []r3.Vector {
	rm := b.rotationMatrix()
	verts := make([]r3.Vector, 0, 8)
	for _, vert := range boxVertices {
		v := b.centerPt
		v = v.Add(rm.Row(0).Mul(vert.X * b.halfSize[0]))
		v = v.Add(rm.Row(1).Mul(vert.Y * b.halfSize[1]))
		v = v.Add(rm.Row(2).Mul(vert.Z * b.halfSize[2]))
		verts = append(verts, v)
	}
	return verts
}

// rotationMatrix returns the cached matrix if it exists, and generates it if not.
func (b *box) rotationMatrix() *RotationMatrix {
	b.once.Do(func() { b.rotMatrix = b.center.Orientation().RotationMatrix() })
	return b.rotMatrix
}

func (b *box) satGap(other *box) (float64, r3.Vector) {
	return obbSATMaxGap(b.rotationMatrix(), other.rotationMatrix(), b.halfSize, other.halfSize, other.centerPt.Sub(b.centerPt))
}

// boxVsBoxCollision returns whether two boxes are within collisionBuffer of each other. The separating axis test exits
// on the bounding spheres first, so it is cheaper than boxVsBoxSeparation.
func boxVsBoxCollision(a, b *box, collisionBuffer float64) bool {
	centerDist := b.centerPt.Sub(a.centerPt)
	if centerDist.Norm()-(a.boundingSphereR+b.boundingSphereR) > collisionBuffer {
		return false
	}
	gap, _ := a.satGap(b)
	return gap <= collisionBuffer
}

// boxVsBoxSeparation uses the separating axis test for the penetration depth of overlapping boxes, and the closest
// vertex to box and edge to edge pairs for the exact distance between separated ones.
func boxVsBoxSeparation(a, b *box) Separation {
	gap, axis := a.satGap(b)
	if gap <= 0 {
		mid := a.closestPoint(b.centerPt).Add(b.closestPoint(a.centerPt)).Mul(0.5)
		return Separation{Distance: gap, Point: mid, Normal: axis}
	}

	vertsA := a.vertices()
	vertsB := b.vertices()
	best := math.Inf(1)
	var pa, pb r3.Vector
	consider := func(p, q r3.Vector) {
		if d := q.Sub(p).Norm(); d < best {
			best, pa, pb = d, p, q
		}
	}
	for _, v := range vertsA {
		consider(v, b.closestPoint(v))
	}
	for _, v := range vertsB {
		consider(a.closestPoint(v), v)
	}
	for _, ea := range boxEdgeIndices {
		for _, eb := range boxEdgeIndices {
			consider(ClosestPointsSegmentSegment(vertsA[ea[0]], vertsA[ea[1]], vertsB[eb[0]], vertsB[eb[1]]))
		}
	}
	n := axis
	if best > floatEpsilon {
		n = pb.Sub(pa).Mul(1 / best)
	}
	return Separation{Distance: best, Point: pa.Add(pb).Mul(0.5), Normal: n}
}
