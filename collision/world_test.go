package collision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

func TestWorldAddMoveRemove(t *testing.T) {
	w := NewWorld()
	var seen []Action
	h := w.AddObserver(func(_ *Object, a Action) { seen = append(seen, a) })

	box := shapes.NewBox(1, 1, 1)
	w.AddToObject("box", spatial.NewPoseFromPoint(r3.Vector{X: 1}), []shapes.Shape{box}, []spatial.Pose{spatial.NewZeroPose()})
	test.That(t, w.HasObject("box"), test.ShouldBeTrue)
	test.That(t, w.Size(), test.ShouldEqual, 1)

	sphere := shapes.NewSphere(0.5)
	w.AddToObject("box", spatial.NewPoseFromPoint(r3.Vector{X: 2}), []shapes.Shape{sphere},
		[]spatial.Pose{spatial.NewPoseFromPoint(r3.Vector{Z: 1})})
	obj, ok := w.Object("box")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(obj.Shapes), test.ShouldEqual, 2)
	test.That(t, spatial.R3VectorAlmostEqual(obj.GlobalShapePoses[1].Point(), r3.Vector{X: 2, Z: 1}, 1e-9), test.ShouldBeTrue)

	test.That(t, w.MoveShapesInObject("box", []spatial.Pose{spatial.NewZeroPose()}), test.ShouldBeFalse)
	test.That(t, w.SetObjectPose("box", spatial.NewPoseFromPoint(r3.Vector{Y: 3})), test.ShouldBeTrue)
	test.That(t, w.RemoveShapeFromObject("box", sphere), test.ShouldBeTrue)
	test.That(t, w.RemoveShapeFromObject("box", box), test.ShouldBeTrue)
	test.That(t, w.HasObject("box"), test.ShouldBeFalse)
	test.That(t, w.RemoveObject("box"), test.ShouldBeFalse)

	test.That(t, seen, test.ShouldResemble, []Action{
		ActionCreate | ActionAddShape, ActionAddShape, ActionMove, ActionRemoveShape, ActionDestroy,
	})

	w.RemoveObserver(h)
	w.AddToObject("other", spatial.NewZeroPose(), []shapes.Shape{box}, []spatial.Pose{spatial.NewZeroPose()})
	test.That(t, len(seen), test.ShouldEqual, 5)
}

func TestWorldSnapshotsAreImmutable(t *testing.T) {
	w := NewWorld()
	w.AddToObject("a", spatial.NewZeroPose(), []shapes.Shape{shapes.NewSphere(1)}, []spatial.Pose{spatial.NewZeroPose()})
	before, _ := w.Object("a")
	w.MoveObject("a", spatial.NewPoseFromPoint(r3.Vector{X: 1}))
	after, _ := w.Object("a")
	test.That(t, spatial.IsIdentity(before.Pose), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(after.Pose.Point(), r3.Vector{X: 1}, 1e-9), test.ShouldBeTrue)

	clone := w.Clone()
	w.RemoveObject("a")
	test.That(t, clone.HasObject("a"), test.ShouldBeTrue)
}

func TestWorldSubframeTransforms(t *testing.T) {
	w := NewWorld()
	w.AddToObject("a", spatial.NewPoseFromPoint(r3.Vector{X: 1}), []shapes.Shape{shapes.NewSphere(1)},
		[]spatial.Pose{spatial.NewZeroPose()})
	test.That(t, w.SetSubframesOfObject("a", map[string]spatial.Pose{"tip": spatial.NewPoseFromPoint(r3.Vector{Z: 2})}),
		test.ShouldBeTrue)
	test.That(t, w.SetSubframesOfObject("missing", nil), test.ShouldBeFalse)

	p, ok := w.Transform("a/tip")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Z: 2}, 1e-9), test.ShouldBeTrue)
	test.That(t, w.KnowsTransform("a"), test.ShouldBeTrue)
	test.That(t, w.KnowsTransform("a/nope"), test.ShouldBeFalse)
	test.That(t, w.KnowsTransform("b"), test.ShouldBeFalse)
}

func TestWorldDiff(t *testing.T) {
	w := NewWorld()
	w.AddToObject("old", spatial.NewZeroPose(), []shapes.Shape{shapes.NewSphere(1)}, []spatial.Pose{spatial.NewZeroPose()})
	d := NewWorldDiff(w)
	test.That(t, d.Len(), test.ShouldEqual, 0)

	w.AddToObject("new", spatial.NewZeroPose(), []shapes.Shape{shapes.NewSphere(1)}, []spatial.Pose{spatial.NewZeroPose()})
	w.MoveObject("new", spatial.NewPoseFromPoint(r3.Vector{X: 1}))
	w.RemoveObject("old")

	a, ok := d.Get("new")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, a, test.ShouldEqual, ActionCreate|ActionAddShape|ActionMove)
	a, _ = d.Get("old")
	test.That(t, a, test.ShouldEqual, ActionDestroy)
	test.That(t, d.IDs(), test.ShouldResemble, []string{"new", "old"})
	test.That(t, a.String(), test.ShouldEqual, "DESTROY")

	d.Detach()
	w.RemoveObject("new")
	a, _ = d.Get("new")
	test.That(t, a, test.ShouldEqual, ActionCreate|ActionAddShape|ActionMove)

	other := NewWorld()
	d.Reset(other)
	test.That(t, d.Len(), test.ShouldEqual, 0)
	test.That(t, d.World(), test.ShouldEqual, other)
}
