package msgs

import "github.com/golang/geo/r3"

// Shape is the closed set of geometry messages: *SolidPrimitive, *Mesh and *Plane.
type Shape interface {
	isShape()
}

// PrimitiveType enumerates solid primitive kinds.
type PrimitiveType uint8

// Solid primitive kinds. Dimensions are box [x, y, z], sphere [radius], cylinder and cone [height, radius].
const (
	PrimitiveBox PrimitiveType = iota + 1
	PrimitiveSphere
	PrimitiveCylinder
	PrimitiveCone
)

// Indices into SolidPrimitive.Dimensions.
const (
	BoxX           = 0
	BoxY           = 1
	BoxZ           = 2
	SphereRadius   = 0
	CylinderHeight = 0
	CylinderRadius = 1
	ConeHeight     = 0
	ConeRadius     = 1
)

// SolidPrimitive is a box, sphere, cylinder or cone.
type SolidPrimitive struct {
	Type       PrimitiveType `json:"type"`
	Dimensions []float64     `json:"dimensions"`
}

// MeshTriangle indexes three mesh vertices.
type MeshTriangle [3]uint32

// Mesh is a triangle mesh.
type Mesh struct {
	Triangles []MeshTriangle `json:"triangles"`
	Vertices  []r3.Vector    `json:"vertices"`
}

// Plane is the plane ax + by + cz + d = 0.
type Plane struct {
	Coef [4]float64 `json:"coef"`
}

func (*SolidPrimitive) isShape() {}
func (*Mesh) isShape()           {}
func (*Plane) isShape()          {}
