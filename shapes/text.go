package shapes

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// TokenReader yields whitespace separated tokens.
type TokenReader interface {
	Token() (string, error)
}

// SaveAsText writes the text form of a shape: its kind on one line followed by its parameters.
// Occupancy trees have no text form.
func SaveAsText(s Shape, w io.Writer) error {
	var err error
	switch v := s.(type) {
	case *Box:
		_, err = fmt.Fprintf(w, "box\n%v %v %v\n", v.Size.X, v.Size.Y, v.Size.Z)
	case *Sphere:
		_, err = fmt.Fprintf(w, "sphere\n%v\n", v.Radius)
	case *Cylinder:
		_, err = fmt.Fprintf(w, "cylinder\n%v %v\n", v.Radius, v.Length)
	case *Cone:
		_, err = fmt.Fprintf(w, "cone\n%v %v\n", v.Radius, v.Length)
	case *Plane:
		_, err = fmt.Fprintf(w, "plane\n%v %v %v %v\n", v.A, v.B, v.C, v.D)
	case *Mesh:
		if _, err = fmt.Fprintf(w, "mesh\n%d %d\n", len(v.Vertices), len(v.Triangles)); err != nil {
			return err
		}
		for _, p := range v.Vertices {
			if _, err = fmt.Fprintf(w, "%v %v %v\n", p.X, p.Y, p.Z); err != nil {
				return err
			}
		}
		for _, tri := range v.Triangles {
			if _, err = fmt.Fprintf(w, "%d %d %d\n", tri[0], tri[1], tri[2]); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("%s shapes have no text form", s.Kind())
	}
	return err
}

// ConstructShapeFromText reads one shape in the form written by SaveAsText.
func ConstructShapeFromText(tr TokenReader) (Shape, error) {
	kind, err := tr.Token()
	if err != nil {
		return nil, err
	}
	switch Kind(kind) {
	case KindBox:
		v, err := ReadFloats(tr, 3)
		if err != nil {
			return nil, err
		}
		return NewBox(v[0], v[1], v[2]), nil
	case KindSphere:
		v, err := ReadFloats(tr, 1)
		if err != nil {
			return nil, err
		}
		return NewSphere(v[0]), nil
	case KindCylinder:
		v, err := ReadFloats(tr, 2)
		if err != nil {
			return nil, err
		}
		return NewCylinder(v[0], v[1]), nil
	case KindCone:
		v, err := ReadFloats(tr, 2)
		if err != nil {
			return nil, err
		}
		return NewCone(v[0], v[1]), nil
	case KindPlane:
		v, err := ReadFloats(tr, 4)
		if err != nil {
			return nil, err
		}
		return NewPlane(v[0], v[1], v[2], v[3]), nil
	case KindMesh:
		return meshFromText(tr)
	default:
		return nil, errors.Errorf("unknown shape type %q", kind)
	}
}

func meshFromText(tr TokenReader) (Shape, error) {
	counts, err := ReadInts(tr, 2)
	if err != nil {
		return nil, err
	}
	nv, nt := counts[0], counts[1]
	if nv < 0 || nt < 0 {
		return nil, errors.Errorf("invalid mesh sizes %d %d", nv, nt)
	}
	m := &Mesh{}
	for i := 0; i < nv; i++ {
		v, err := ReadFloats(tr, 3)
		if err != nil {
			return nil, err
		}
		m.Vertices = append(m.Vertices, vec(v))
	}
	for i := 0; i < nt; i++ {
		idx, err := ReadInts(tr, 3)
		if err != nil {
			return nil, err
		}
		for _, j := range idx {
			if j < 0 || j >= nv {
				return nil, errors.Errorf("mesh triangle %d references vertex %d of %d", i, j, nv)
			}
		}
		m.Triangles = append(m.Triangles, [3]int{idx[0], idx[1], idx[2]})
	}
	return m, nil
}

// ReadFloats reads n floating point tokens.
func ReadFloats(tr TokenReader, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		tok, err := tr.Token()
		if err != nil {
			return nil, err
		}
		out[i], err = strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "expected a number, got %q", tok)
		}
	}
	return out, nil
}

// ReadInts reads n integer tokens.
func ReadInts(tr TokenReader, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		tok, err := tr.Token()
		if err != nil {
			return nil, err
		}
		out[i], err = strconv.Atoi(tok)
		if err != nil {
			return nil, errors.Wrapf(err, "expected an integer, got %q", tok)
		}
	}
	return out, nil
}
