package planningscene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
	spatial "go.viam.com/planningscene/spatialmath"
)

// The base is a 0.2 cube at the origin and the arm a sphere of radius 0.1 sliding along x.
const botJSON = `{
	"name": "bot",
	"links": [
		{"id": "base", "geometry": [{"type": "box", "x": 0.2, "y": 0.2, "z": 0.2}]},
		{"id": "arm", "parent": "base",
		 "joint": {"id": "slide", "type": "prismatic", "axis": {"x": 1}, "min": -5, "max": 5},
		 "geometry": [{"type": "sphere", "r": 0.1}]}
	],
	"groups": {"arm": ["arm"]},
	"disabled_collisions": [["base", "arm"]]
}`

func botModel(t *testing.T) *referenceframe.Model {
	t.Helper()
	m, err := referenceframe.UnmarshalModelJSON([]byte(botJSON), "")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func newScene(t *testing.T, opts ...Option) *Scene {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewTestLogger(t))}, opts...)
	s, err := New(botModel(t), opts...)
	test.That(t, err, test.ShouldBeNil)
	return s
}

func boxMsg(id string, at r3.Vector, size float64) msgs.CollisionObject {
	return msgs.CollisionObject{
		Header: msgs.Header{FrameID: "base"},
		ID:     id,
		Pose:   msgs.Pose{Position: at, Orientation: msgs.Quaternion{W: 1}},
		Primitives: []msgs.SolidPrimitive{
			{Type: msgs.PrimitiveBox, Dimensions: []float64{size, size, size}},
		},
		Operation: msgs.OperationAdd,
	}
}

func addBox(t *testing.T, s *Scene, id string, at r3.Vector, size float64) {
	t.Helper()
	test.That(t, s.ProcessCollisionObjectMsg(boxMsg(id, at, size)), test.ShouldBeNil)
}

func setSlide(t *testing.T, s *Scene, v float64) {
	t.Helper()
	st := s.MutableCurrentState()
	test.That(t, st.SetJointPosition("slide", v), test.ShouldBeNil)
	st.Update()
}

func slide(t *testing.T, st *robotstate.State) float64 {
	t.Helper()
	v, ok := st.JointPosition("slide")
	test.That(t, ok, test.ShouldBeTrue)
	return v
}

// assertDisjoint checks that no id is both a world object and an attached body.
func assertDisjoint(t *testing.T, s *Scene) {
	t.Helper()
	for _, ab := range s.CurrentState().AttachedBodies() {
		test.That(t, s.World().HasObject(ab.Name()), test.ShouldBeFalse)
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	test.That(t, err, test.ShouldNotBeNil)

	s := newScene(t)
	test.That(t, s.Name(), test.ShouldEqual, DefaultSceneName)
	test.That(t, s.PlanningFrame(), test.ShouldEqual, "base")
	test.That(t, s.Parent(), test.ShouldBeNil)
	test.That(t, s.WorldDiff(), test.ShouldBeNil)
	test.That(t, s.ActiveCollisionDetectorName(), test.ShouldEqual, collision.BoundingAllocatorName)

	allowed, ok := s.AllowedCollisionMatrix().Entry("base", "arm")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, allowed, test.ShouldEqual, collision.Always)

	named := newScene(t, WithName("kitchen"))
	test.That(t, named.Name(), test.ShouldEqual, "kitchen")
}

func TestForkReadsThroughParent(t *testing.T) {
	root := newScene(t, WithName("root"))
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)
	setSlide(t, root, 0.5)

	f := root.Fork()
	test.That(t, f.Name(), test.ShouldEqual, "root+")
	test.That(t, f.Parent(), test.ShouldEqual, root)
	test.That(t, f.World().HasObject("table"), test.ShouldBeTrue)
	test.That(t, f.CurrentState(), test.ShouldEqual, root.CurrentState())
	test.That(t, f.AllowedCollisionMatrix(), test.ShouldEqual, root.AllowedCollisionMatrix())
	test.That(t, f.Transforms(), test.ShouldEqual, root.Transforms())

	setSlide(t, f, 2)
	test.That(t, slide(t, f.CurrentState()), test.ShouldEqual, 2)
	test.That(t, slide(t, root.CurrentState()), test.ShouldEqual, 0.5)

	addBox(t, f, "crate", r3.Vector{Y: 1}, 0.2)
	test.That(t, root.World().HasObject("crate"), test.ShouldBeFalse)
	action, ok := f.WorldDiff().Get("crate")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, action&collision.ActionCreate, test.ShouldNotEqual, 0)

	unnamed := newScene(t, WithName(""))
	test.That(t, unnamed.Fork().Name(), test.ShouldEqual, "")
}

func TestPushDiffs(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)
	addBox(t, root, "chair", r3.Vector{X: -1}, 0.3)

	f := root.Fork()
	addBox(t, f, "crate", r3.Vector{Y: 1}, 0.2)
	test.That(t, f.ProcessCollisionObjectMsg(msgs.CollisionObject{ID: "chair", Operation: msgs.OperationRemove}),
		test.ShouldBeNil)
	test.That(t, f.SetObjectColor("crate", msgs.ColorRGBA{R: 1, A: 1}), test.ShouldBeNil)
	setSlide(t, f, 1.5)
	f.MutableAllowedCollisionMatrix().SetEntry("crate", "arm", true)
	f.CollisionEnv().SetLinkPadding(map[string]float64{"arm": 0.05})

	f.PushDiffs(root)
	test.That(t, root.CollisionObjectIDs(), test.ShouldResemble, []string{"crate", "table"})
	test.That(t, slide(t, root.CurrentState()), test.ShouldEqual, 1.5)
	c, ok := root.ObjectColor("crate")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldResemble, msgs.ColorRGBA{R: 1, A: 1})
	allowed, ok := root.AllowedCollisionMatrix().Entry("crate", "arm")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, allowed, test.ShouldEqual, collision.Always)
	test.That(t, root.CollisionEnv().LinkPadding()["arm"], test.ShouldEqual, 0.05)
	test.That(t, root.CollisionEnvUnpadded().LinkPadding()["arm"], test.ShouldEqual, 0)

	// pushing the same diff again changes nothing
	f.PushDiffs(root)
	test.That(t, root.CollisionObjectIDs(), test.ShouldResemble, []string{"crate", "table"})
	test.That(t, slide(t, root.CurrentState()), test.ShouldEqual, 1.5)

	// a root scene has nothing to push
	other := newScene(t)
	root.PushDiffs(other)
	test.That(t, other.CollisionObjectIDs(), test.ShouldBeEmpty)
}

func TestClearDiffs(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)

	f := root.Fork()
	addBox(t, f, "crate", r3.Vector{Y: 1}, 0.2)
	setSlide(t, f, 3)
	test.That(t, f.SetObjectColor("table", msgs.ColorRGBA{G: 1, A: 1}), test.ShouldBeNil)

	f.ClearDiffs()
	test.That(t, f.CollisionObjectIDs(), test.ShouldResemble, []string{"table"})
	test.That(t, f.CurrentState(), test.ShouldEqual, root.CurrentState())
	test.That(t, f.HasObjectColor("table"), test.ShouldBeFalse)
	test.That(t, f.WorldDiff().Len(), test.ShouldEqual, 0)

	// changes made after clearing are tracked again
	addBox(t, f, "crate", r3.Vector{Y: 1}, 0.2)
	_, ok := f.WorldDiff().Get("crate")
	test.That(t, ok, test.ShouldBeTrue)
}

func TestDecoupleAndClone(t *testing.T) {
	root := newScene(t, WithName("root"))
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)
	test.That(t, root.SetObjectColor("table", msgs.ColorRGBA{B: 1, A: 1}), test.ShouldBeNil)
	root.SetObjectType("table", msgs.ObjectType{Key: "furniture", DB: "home"})

	c := root.Clone()
	test.That(t, c.Name(), test.ShouldEqual, "root")
	test.That(t, c.Parent(), test.ShouldBeNil)
	test.That(t, c.WorldDiff(), test.ShouldBeNil)
	test.That(t, c.HasObjectColor("table"), test.ShouldBeTrue)
	typ, ok := c.ObjectType("table")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, typ.Key, test.ShouldEqual, "furniture")

	// the clone no longer sees its source
	test.That(t, root.ProcessCollisionObjectMsg(msgs.CollisionObject{ID: "table", Operation: msgs.OperationRemove}),
		test.ShouldBeNil)
	setSlide(t, root, 1)
	test.That(t, c.World().HasObject("table"), test.ShouldBeTrue)
	test.That(t, slide(t, c.CurrentState()), test.ShouldEqual, 0)
	test.That(t, c.HasObjectColor("table"), test.ShouldBeTrue)
}

func TestObjectCallbackFollowsForks(t *testing.T) {
	root := newScene(t)
	var seen []string
	root.SetCollisionObjectUpdateCallback(func(obj *collision.Object, action collision.Action) {
		seen = append(seen, obj.ID)
	})
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)
	test.That(t, seen, test.ShouldResemble, []string{"table"})

	f := root.Fork()
	addBox(t, f, "crate", r3.Vector{Y: 1}, 0.2)
	test.That(t, seen, test.ShouldResemble, []string{"table", "crate"})

	root.SetCollisionObjectUpdateCallback(nil)
	addBox(t, root, "chair", r3.Vector{Y: -1}, 0.2)
	test.That(t, seen, test.ShouldHaveLength, 2)
}

func TestFrameTransform(t *testing.T) {
	s := newScene(t)
	setSlide(t, s, 1)
	co := boxMsg("table", r3.Vector{X: 2}, 0.5)
	co.SubframeNames = []string{"top"}
	co.SubframePoses = []msgs.Pose{{Position: r3.Vector{Z: 0.25}, Orientation: msgs.Quaternion{W: 1}}}
	test.That(t, s.ProcessCollisionObjectMsg(co), test.ShouldBeNil)
	test.That(t, s.MutableTransforms().SetTransformMsgs([]msgs.TransformStamped{{
		Header:       msgs.Header{FrameID: "base"},
		ChildFrameID: "camera",
		Transform:    msgs.Pose{Position: r3.Vector{Z: 2}, Orientation: msgs.Quaternion{W: 1}},
	}}), test.ShouldBeNil)

	for _, tc := range []struct {
		frame string
		want  r3.Vector
	}{
		{"", r3.Vector{}},
		{"base", r3.Vector{}},
		{"/arm", r3.Vector{X: 1}},
		{"table", r3.Vector{X: 2}},
		{"table/top", r3.Vector{X: 2, Z: 0.25}},
		{"camera", r3.Vector{Z: 2}},
	} {
		p, err := s.FrameTransform(tc.frame)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatial.R3VectorAlmostEqual(p.Point(), tc.want, 1e-9), test.ShouldBeTrue)
	}

	_, err := s.FrameTransform("nowhere")
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)
	test.That(t, s.KnowsFrameTransform("camera"), test.ShouldBeTrue)
	test.That(t, s.KnowsFrameTransform("nowhere"), test.ShouldBeFalse)
}

func TestSetActiveCollisionDetector(t *testing.T) {
	s := newScene(t)
	s.CollisionEnv().SetLinkPadding(map[string]float64{"arm": 0.2})
	s.CollisionEnv().SetLinkScale(map[string]float64{"arm": 2})
	s.CollisionEnvUnpadded().SetLinkScale(map[string]float64{"arm": 2})

	s.SetActiveCollisionDetector(collision.NewBoundingAllocator())
	test.That(t, s.CollisionEnv().LinkPadding()["arm"], test.ShouldEqual, 0.2)
	test.That(t, s.CollisionEnv().LinkScale()["arm"], test.ShouldEqual, 2)
	test.That(t, s.CollisionEnvUnpadded().LinkScale()["arm"], test.ShouldEqual, 2)
}
