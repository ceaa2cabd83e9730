package shapes

import (
	"github.com/pkg/errors"

	"go.viam.com/planningscene/msgs"
)

// FromMsg builds a shape from its message form, validating dimensions.
func FromMsg(m msgs.Shape) (Shape, error) {
	switch v := m.(type) {
	case *msgs.SolidPrimitive:
		return fromPrimitive(v)
	case *msgs.Mesh:
		mesh := &Mesh{Vertices: append(v.Vertices[:0:0], v.Vertices...)}
		for i, tri := range v.Triangles {
			for _, idx := range tri {
				if int(idx) >= len(v.Vertices) {
					return nil, errors.Errorf("mesh triangle %d references vertex %d of %d", i, idx, len(v.Vertices))
				}
			}
			mesh.Triangles = append(mesh.Triangles, [3]int{int(tri[0]), int(tri[1]), int(tri[2])})
		}
		return mesh, nil
	case *msgs.Plane:
		return NewPlane(v.Coef[0], v.Coef[1], v.Coef[2], v.Coef[3]), nil
	default:
		return nil, errors.Errorf("unknown shape message %T", m)
	}
}

func fromPrimitive(p *msgs.SolidPrimitive) (Shape, error) {
	need := map[msgs.PrimitiveType]int{
		msgs.PrimitiveBox:      3,
		msgs.PrimitiveSphere:   1,
		msgs.PrimitiveCylinder: 2,
		msgs.PrimitiveCone:     2,
	}
	n, ok := need[p.Type]
	if !ok {
		return nil, errors.Errorf("unknown primitive type %d", p.Type)
	}
	if len(p.Dimensions) < n {
		return nil, errors.Errorf("primitive type %d needs %d dimensions, got %d", p.Type, n, len(p.Dimensions))
	}
	for _, d := range p.Dimensions[:n] {
		if d < 0 {
			return nil, errors.Errorf("primitive dimensions must not be negative, got %v", p.Dimensions)
		}
	}
	d := p.Dimensions
	switch p.Type {
	case msgs.PrimitiveBox:
		return NewBox(d[msgs.BoxX], d[msgs.BoxY], d[msgs.BoxZ]), nil
	case msgs.PrimitiveSphere:
		return NewSphere(d[msgs.SphereRadius]), nil
	case msgs.PrimitiveCylinder:
		return NewCylinder(d[msgs.CylinderRadius], d[msgs.CylinderHeight]), nil
	default:
		return NewCone(d[msgs.ConeRadius], d[msgs.ConeHeight]), nil
	}
}

// ToMsg returns the message form of a shape. Occupancy trees have no shape message.
func ToMsg(s Shape) (msgs.Shape, error) {
	switch v := s.(type) {
	case *Box:
		return &msgs.SolidPrimitive{Type: msgs.PrimitiveBox, Dimensions: []float64{v.Size.X, v.Size.Y, v.Size.Z}}, nil
	case *Sphere:
		return &msgs.SolidPrimitive{Type: msgs.PrimitiveSphere, Dimensions: []float64{v.Radius}}, nil
	case *Cylinder:
		return &msgs.SolidPrimitive{Type: msgs.PrimitiveCylinder, Dimensions: []float64{v.Length, v.Radius}}, nil
	case *Cone:
		return &msgs.SolidPrimitive{Type: msgs.PrimitiveCone, Dimensions: []float64{v.Length, v.Radius}}, nil
	case *Mesh:
		m := &msgs.Mesh{Vertices: append(v.Vertices[:0:0], v.Vertices...)}
		for _, tri := range v.Triangles {
			m.Triangles = append(m.Triangles, msgs.MeshTriangle{uint32(tri[0]), uint32(tri[1]), uint32(tri[2])})
		}
		return m, nil
	case *Plane:
		return &msgs.Plane{Coef: [4]float64{v.A, v.B, v.C, v.D}}, nil
	default:
		return nil, errors.Errorf("%s shapes have no message form", s.Kind())
	}
}
