// Package shapes defines the closed set of collision geometry a world object or robot body can be made of.
package shapes

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/planningscene/octree"
)

// Kind identifies a concrete shape.
type Kind string

// Known shape kinds, spelled as in the text format.
const (
	KindBox      = Kind("box")
	KindSphere   = Kind("sphere")
	KindCylinder = Kind("cylinder")
	KindCone     = Kind("cone")
	KindMesh     = Kind("mesh")
	KindPlane    = Kind("plane")
	KindOcTree   = Kind("octree")
)

// Shape is a piece of collision geometry centered on its own origin.
type Shape interface {
	Kind() Kind
	// BoundingRadius is the radius of a sphere at the shape origin that contains the shape.
	BoundingRadius() float64
	Clone() Shape
}

// Box is an axis aligned box with full side lengths Size.
type Box struct {
	Size r3.Vector
}

// Sphere is a sphere of the given radius.
type Sphere struct {
	Radius float64
}

// Cylinder is a cylinder along z with total length Length.
type Cylinder struct {
	Radius float64
	Length float64
}

// Cone is a cone along z with total length Length, its base at -Length/2.
type Cone struct {
	Radius float64
	Length float64
}

// Mesh is a triangle mesh.
type Mesh struct {
	Vertices  []r3.Vector
	Triangles [][3]int
}

// Plane is the plane A x + B y + C z + D = 0. Points with a negative signed distance are inside.
type Plane struct {
	A, B, C, D float64
}

// OcTree wraps an occupancy tree. Shapes holding the same *octree.Octree are the same geometry.
type OcTree struct {
	Tree *octree.Octree
}

// NewBox returns a box with the given full side lengths.
func NewBox(x, y, z float64) *Box {
	return &Box{Size: r3.Vector{X: x, Y: y, Z: z}}
}

// NewSphere returns a sphere.
func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

// NewCylinder returns a cylinder.
func NewCylinder(radius, length float64) *Cylinder {
	return &Cylinder{Radius: radius, Length: length}
}

// NewCone returns a cone.
func NewCone(radius, length float64) *Cone {
	return &Cone{Radius: radius, Length: length}
}

// NewPlane returns a plane.
func NewPlane(a, b, c, d float64) *Plane {
	return &Plane{A: a, B: b, C: c, D: d}
}

// NewOcTree wraps a tree.
func NewOcTree(tree *octree.Octree) *OcTree {
	return &OcTree{Tree: tree}
}

// Kind implements Shape.
func (b *Box) Kind() Kind { return KindBox }

// Kind implements Shape.
func (s *Sphere) Kind() Kind { return KindSphere }

// Kind implements Shape.
func (c *Cylinder) Kind() Kind { return KindCylinder }

// Kind implements Shape.
func (c *Cone) Kind() Kind { return KindCone }

// Kind implements Shape.
func (m *Mesh) Kind() Kind { return KindMesh }

// Kind implements Shape.
func (p *Plane) Kind() Kind { return KindPlane }

// Kind implements Shape.
func (o *OcTree) Kind() Kind { return KindOcTree }

// BoundingRadius implements Shape.
func (b *Box) BoundingRadius() float64 { return b.Size.Norm() / 2 }

// BoundingRadius implements Shape.
func (s *Sphere) BoundingRadius() float64 { return s.Radius }

// BoundingRadius implements Shape.
func (c *Cylinder) BoundingRadius() float64 { return math.Hypot(c.Radius, c.Length/2) }

// BoundingRadius implements Shape.
func (c *Cone) BoundingRadius() float64 { return math.Hypot(c.Radius, c.Length/2) }

// BoundingRadius implements Shape.
func (m *Mesh) BoundingRadius() float64 {
	r := 0.
	for _, v := range m.Vertices {
		r = math.Max(r, v.Norm())
	}
	return r
}

// BoundingRadius implements Shape. Planes are unbounded.
func (p *Plane) BoundingRadius() float64 { return math.Inf(1) }

// BoundingRadius implements Shape.
func (o *OcTree) BoundingRadius() float64 {
	r := 0.
	if o.Tree == nil {
		return r
	}
	centers, sizes := o.Tree.OccupiedCenters()
	for i, c := range centers {
		r = math.Max(r, c.Norm()+sizes[i]*math.Sqrt(3)/2)
	}
	return r
}

// Clone implements Shape.
func (b *Box) Clone() Shape { c := *b; return &c }

// Clone implements Shape.
func (s *Sphere) Clone() Shape { c := *s; return &c }

// Clone implements Shape.
func (c *Cylinder) Clone() Shape { cp := *c; return &cp }

// Clone implements Shape.
func (c *Cone) Clone() Shape { cp := *c; return &cp }

// Clone implements Shape.
func (m *Mesh) Clone() Shape {
	return &Mesh{
		Vertices:  append([]r3.Vector(nil), m.Vertices...),
		Triangles: append([][3]int(nil), m.Triangles...),
	}
}

// Clone implements Shape.
func (p *Plane) Clone() Shape { c := *p; return &c }

// Clone shares the underlying tree so that identity comparisons keep working.
func (o *OcTree) Clone() Shape { return &OcTree{Tree: o.Tree} }

// SignedDistance returns the signed distance of pt to the plane, in units of the normal's length.
func (p *Plane) SignedDistance(pt r3.Vector) float64 {
	n := r3.Vector{X: p.A, Y: p.B, Z: p.C}
	norm := n.Norm()
	if norm == 0 {
		return math.Inf(1)
	}
	return (n.Dot(pt) + p.D) / norm
}

// Normal returns the unit normal of the plane.
func (p *Plane) Normal() r3.Vector {
	n := r3.Vector{X: p.A, Y: p.B, Z: p.C}
	if n.Norm() == 0 {
		return r3.Vector{Z: 1}
	}
	return n.Normalize()
}

func vec(v []float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
