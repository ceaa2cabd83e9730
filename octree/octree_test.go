package octree

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNew(t *testing.T) {
	_, err := New(0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(-1)
	test.That(t, err, test.ShouldNotBeNil)

	o, err := New(0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Resolution(), test.ShouldEqual, 0.1)
	test.That(t, o.Size(), test.ShouldEqual, 0)
	test.That(t, o.NumLeaves(), test.ShouldEqual, 0)
}

func TestUpdateAndSearch(t *testing.T) {
	o, err := New(0.5)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, o.UpdateNode(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, true), test.ShouldBeNil)
	test.That(t, o.UpdateNode(r3.Vector{X: -0.7, Y: 2, Z: 0}, false), test.ShouldBeNil)

	test.That(t, o.IsOccupied(r3.Vector{X: 0.4, Y: 0.2, Z: 0.3}), test.ShouldBeTrue)
	test.That(t, o.IsOccupied(r3.Vector{X: -0.6, Y: 2.1, Z: 0.2}), test.ShouldBeFalse)
	_, ok := o.Search(r3.Vector{X: -0.6, Y: 2.1, Z: 0.2})
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = o.Search(r3.Vector{X: 10, Y: 10, Z: 10})
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, o.NumLeaves(), test.ShouldEqual, 2)
	test.That(t, o.Size(), test.ShouldEqual, 1)

	centers, sizes := o.OccupiedCenters()
	test.That(t, len(centers), test.ShouldEqual, 1)
	test.That(t, centers[0].X, test.ShouldAlmostEqual, 0.25)
	test.That(t, centers[0].Y, test.ShouldAlmostEqual, 0.25)
	test.That(t, centers[0].Z, test.ShouldAlmostEqual, 0.25)
	test.That(t, sizes[0], test.ShouldAlmostEqual, 0.5)

	// repeated misses clear the voxel again
	for i := 0; i < 10; i++ {
		test.That(t, o.UpdateNode(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, false), test.ShouldBeNil)
	}
	test.That(t, o.IsOccupied(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}), test.ShouldBeFalse)
	v, _ := o.Search(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})
	test.That(t, v, test.ShouldEqual, clampingMin)

	test.That(t, o.UpdateNode(r3.Vector{X: 1e9}, true), test.ShouldNotBeNil)
}

func TestClone(t *testing.T) {
	o, _ := New(1)
	test.That(t, o.SetNodeValue(r3.Vector{X: 3}, 2), test.ShouldBeNil)
	c := o.Clone()
	test.That(t, c.SetNodeValue(r3.Vector{X: 3}, -1), test.ShouldBeNil)
	test.That(t, o.IsOccupied(r3.Vector{X: 3}), test.ShouldBeTrue)
	test.That(t, c.IsOccupied(r3.Vector{X: 3}), test.ShouldBeFalse)
}

func buildTree(t *testing.T) *Octree {
	t.Helper()
	o, err := New(0.25)
	test.That(t, err, test.ShouldBeNil)
	for _, p := range []r3.Vector{{X: 1}, {Y: -1}, {Z: 3}, {X: -2, Y: -2, Z: -2}} {
		test.That(t, o.UpdateNode(p, true), test.ShouldBeNil)
	}
	test.That(t, o.UpdateNode(r3.Vector{X: 5}, false), test.ShouldBeNil)
	return o
}

func TestBinaryEncoding(t *testing.T) {
	o := buildTree(t)
	data, err := o.MarshalBinary()
	test.That(t, err, test.ShouldBeNil)

	decoded, err := UnmarshalBinary(0.25, data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Size(), test.ShouldEqual, 4)
	test.That(t, decoded.NumLeaves(), test.ShouldEqual, 5)
	test.That(t, decoded.IsOccupied(r3.Vector{Z: 3}), test.ShouldBeTrue)
	test.That(t, decoded.IsOccupied(r3.Vector{X: 5}), test.ShouldBeFalse)

	_, err = UnmarshalBinary(0.25, data[:len(data)-1])
	test.That(t, err, test.ShouldNotBeNil)
	_, err = UnmarshalBinary(0.25, append(data, 0, 0))
	test.That(t, err, test.ShouldNotBeNil)

	empty, err := UnmarshalBinary(0.25, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty.Size(), test.ShouldEqual, 0)
}

func TestFullEncoding(t *testing.T) {
	o := buildTree(t)
	data, err := o.MarshalFull()
	test.That(t, err, test.ShouldBeNil)

	decoded, err := UnmarshalFull(0.25, data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Size(), test.ShouldEqual, 4)
	v1, _ := o.Search(r3.Vector{X: 1})
	v2, _ := decoded.Search(r3.Vector{X: 1})
	test.That(t, v2, test.ShouldEqual, v1)

	_, err = UnmarshalFull(0.25, data[:3])
	test.That(t, err, test.ShouldNotBeNil)
}
