package planningscene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/msgs"
	spatial "go.viam.com/planningscene/spatialmath"
)

func assertSameScene(t *testing.T, want, got *Scene) {
	t.Helper()
	test.That(t, got.CollisionObjectIDs(), test.ShouldResemble, want.CollisionObjectIDs())
	for _, id := range want.CollisionObjectIDs() {
		w, _ := want.World().Object(id)
		g, _ := got.World().Object(id)
		test.That(t, spatial.PoseAlmostEqual(g.Pose, w.Pose), test.ShouldBeTrue)
		test.That(t, g.Shapes, test.ShouldHaveLength, len(w.Shapes))
	}
	test.That(t, slide(t, got.CurrentState()), test.ShouldAlmostEqual, slide(t, want.CurrentState()))
	wantBodies := want.CurrentState().AttachedBodies()
	gotBodies := got.CurrentState().AttachedBodies()
	test.That(t, gotBodies, test.ShouldHaveLength, len(wantBodies))
	for i, ab := range wantBodies {
		test.That(t, gotBodies[i].Name(), test.ShouldEqual, ab.Name())
		test.That(t, gotBodies[i].AttachedLinkName(), test.ShouldEqual, ab.AttachedLinkName())
		test.That(t, spatial.PoseAlmostEqual(gotBodies[i].GlobalPose(), ab.GlobalPose()), test.ShouldBeTrue)
	}
	test.That(t, got.KnownObjectColors(), test.ShouldResemble, want.KnownObjectColors())
	_, _, wantOctomap := want.Octomap()
	_, _, gotOctomap := got.Octomap()
	test.That(t, gotOctomap, test.ShouldEqual, wantOctomap)
	assertDisjoint(t, got)
}

func TestDiffMsgMatchesPushDiffs(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "table", r3.Vector{X: 1}, 0.5)
	addBox(t, root, "chair", r3.Vector{X: 1.3}, 0.1)
	addBox(t, root, "lamp", r3.Vector{Y: 2}, 0.1)
	addBox(t, root, "mug", r3.Vector{Z: 1}, 0.1)
	test.That(t, root.ProcessAttachedCollisionObjectMsg(attachMsg("mug", "base", msgs.OperationAdd)), test.ShouldBeNil)
	test.That(t, root.World().HasObject("mug"), test.ShouldBeFalse)

	f := root.Fork()
	setSlide(t, f, 1)
	addBox(t, f, "cup", r3.Vector{Y: -1}, 0.1)
	test.That(t, f.SetObjectColor("cup", msgs.ColorRGBA{G: 1, A: 1}), test.ShouldBeNil)
	test.That(t, f.ProcessCollisionObjectMsg(msgs.CollisionObject{ID: "lamp", Operation: msgs.OperationRemove}),
		test.ShouldBeNil)
	test.That(t, f.ProcessCollisionObjectMsg(msgs.CollisionObject{
		Header:    msgs.Header{FrameID: "base"},
		ID:        "table",
		Pose:      msgs.Pose{Position: r3.Vector{X: 3}, Orientation: msgs.Quaternion{W: 1}},
		Operation: msgs.OperationMove,
	}), test.ShouldBeNil)
	test.That(t, f.ProcessAttachedCollisionObjectMsg(attachMsg("chair", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	test.That(t, f.ProcessAttachedCollisionObjectMsg(attachMsg("mug", "", msgs.OperationRemove)), test.ShouldBeNil)

	m := f.PlanningSceneDiffMsg()
	test.That(t, m.IsDiff, test.ShouldBeTrue)
	test.That(t, m.RobotState.IsDiff, test.ShouldBeTrue)
	removed := opIDs(m.World.CollisionObjects, msgs.OperationRemove)
	test.That(t, removed, test.ShouldResemble, []string{"lamp"})

	applied := root.Clone()
	test.That(t, applied.SetPlanningSceneDiffMsg(m), test.ShouldBeNil)
	f.PushDiffs(root)

	test.That(t, root.CollisionObjectIDs(), test.ShouldResemble, []string{"cup", "mug", "table"})
	test.That(t, root.CurrentState().HasAttachedBody("chair"), test.ShouldBeTrue)
	assertSameScene(t, root, applied)
}

// opIDs lists the ids of the objects with operation op.
func opIDs(objects []msgs.CollisionObject, op msgs.Operation) []string {
	var ids []string
	for _, co := range objects {
		if co.Operation == op {
			ids = append(ids, co.ID)
		}
	}
	return ids
}

func TestDiffMsgClearedOctomap(t *testing.T) {
	root := newScene(t)
	addOctomap(t, root, 0.1, r3.Vector{X: 3})

	f := root.Fork()
	test.That(t, f.ProcessOctomapMsg(msgs.Octomap{ID: OcTreeID}), test.ShouldBeNil)
	m := f.PlanningSceneDiffMsg()
	test.That(t, m.World.Octomap.Octomap.ID, test.ShouldEqual, "cleared")

	applied := root.Clone()
	test.That(t, applied.SetPlanningSceneDiffMsg(m), test.ShouldBeNil)
	_, _, ok := applied.Octomap()
	test.That(t, ok, test.ShouldBeFalse)

	// an octomap replaced in the fork travels whole
	g := root.Fork()
	addOctomap(t, g, 0.05, r3.Vector{Y: 1})
	m = g.PlanningSceneDiffMsg()
	test.That(t, m.World.Octomap.Octomap.ID, test.ShouldEqual, OcTreeID)
	test.That(t, m.World.Octomap.Octomap.Resolution, test.ShouldEqual, 0.05)
}

func TestPlanningSceneMsgRoundTrip(t *testing.T) {
	s := newScene(t, WithName("bench"))
	setSlide(t, s, 1)
	addBox(t, s, "table", r3.Vector{X: 2}, 0.5)
	addBox(t, s, "cup", r3.Vector{X: 1.2}, 0.1)
	test.That(t, s.SetObjectColor("table", msgs.ColorRGBA{R: 1, A: 1}), test.ShouldBeNil)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	addOctomap(t, s, 0.1, r3.Vector{Z: 2})
	s.MutableAllowedCollisionMatrix().SetEntry("table", "arm", true)
	s.CollisionEnv().SetLinkPadding(map[string]float64{"arm": 0.05})

	m := s.PlanningSceneMsg()
	test.That(t, m.IsDiff, test.ShouldBeFalse)
	test.That(t, m.Name, test.ShouldEqual, "bench")
	test.That(t, m.RobotModelName, test.ShouldEqual, "bot")
	test.That(t, m.RobotState.AttachedCollisionObjects, test.ShouldHaveLength, 1)

	other := newScene(t)
	addBox(t, other, "stale", r3.Vector{Y: 4}, 0.1)
	test.That(t, other.SetObjectColor("stale", msgs.ColorRGBA{B: 1, A: 1}), test.ShouldBeNil)
	test.That(t, other.SetPlanningSceneMsg(m), test.ShouldBeNil)

	test.That(t, other.Name(), test.ShouldEqual, "bench")
	assertSameScene(t, s, other)
	allowed, ok := other.AllowedCollisionMatrix().Entry("table", "arm")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, allowed, test.ShouldEqual, collision.Always)
	test.That(t, other.CollisionEnv().LinkPadding()["arm"], test.ShouldAlmostEqual, 0.05)

	m.IsDiff = true
	err := other.SetPlanningSceneMsg(m)
	test.That(t, errors.Is(err, ErrMalformed), test.ShouldBeTrue)

	// UsePlanningSceneMsg dispatches on the diff flag
	fresh := newScene(t)
	test.That(t, fresh.UsePlanningSceneMsg(m), test.ShouldBeNil)
	test.That(t, fresh.CollisionObjectIDs(), test.ShouldResemble, []string{"table"})
}

func TestSetPlanningSceneMsgDecouples(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "table", r3.Vector{X: 2}, 0.5)
	f := root.Fork()

	m := newScene(t).PlanningSceneMsg()
	test.That(t, f.SetPlanningSceneMsg(m), test.ShouldBeNil)
	test.That(t, f.Parent(), test.ShouldBeNil)
	test.That(t, f.CollisionObjectIDs(), test.ShouldBeEmpty)
	test.That(t, root.CollisionObjectIDs(), test.ShouldResemble, []string{"table"})
}

func TestPlanningSceneMsgComponents(t *testing.T) {
	s := newScene(t)
	addBox(t, s, "table", r3.Vector{X: 2}, 0.5)
	s.SetObjectType("table", msgs.ObjectType{Key: "table"})
	addBox(t, s, "cup", r3.Vector{X: 1.2}, 0.1)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	addOctomap(t, s, 0.1, r3.Vector{Z: 2})

	m := s.PlanningSceneMsgComponents(msgs.ComponentWorldObjectNames | msgs.ComponentRobotState)
	test.That(t, m.World.CollisionObjects, test.ShouldHaveLength, 1)
	test.That(t, m.World.CollisionObjects[0].ID, test.ShouldEqual, "table")
	test.That(t, m.World.CollisionObjects[0].Type.Key, test.ShouldEqual, "table")
	test.That(t, m.World.CollisionObjects[0].Primitives, test.ShouldBeEmpty)
	test.That(t, m.RobotState.JointState.Name, test.ShouldContain, "slide")
	test.That(t, m.RobotState.AttachedCollisionObjects, test.ShouldBeEmpty)
	test.That(t, m.World.Octomap.Octomap.Data, test.ShouldBeEmpty)
	test.That(t, m.AllowedCollisionMatrix.EntryNames, test.ShouldBeEmpty)

	m = s.PlanningSceneMsgComponents(msgs.ComponentWorldObjectGeometry | msgs.ComponentRobotStateAttachedObjects |
		msgs.ComponentOctomap | msgs.ComponentAllowedCollisionMatrix | msgs.ComponentSceneSettings)
	test.That(t, m.World.CollisionObjects[0].Primitives, test.ShouldHaveLength, 1)
	test.That(t, m.RobotState.AttachedCollisionObjects, test.ShouldHaveLength, 1)
	test.That(t, m.World.Octomap.Octomap.Data, test.ShouldNotBeEmpty)
	test.That(t, m.AllowedCollisionMatrix.EntryNames, test.ShouldNotBeEmpty)
	test.That(t, m.RobotModelName, test.ShouldEqual, "bot")
}

func TestSetCurrentStateMsg(t *testing.T) {
	s := newScene(t)
	addBox(t, s, "cup", r3.Vector{X: 1}, 0.1)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)

	rs := msgs.RobotState{
		JointState:               msgs.JointState{Name: []string{"slide"}, Position: []float64{2}},
		AttachedCollisionObjects: []msgs.AttachedCollisionObject{attachMsg("cup", "", msgs.OperationRemove)},
	}

	// a full state replaces the attached bodies and ignores anything but ADD
	updated, err := s.CurrentStateUpdated(rs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slide(t, updated), test.ShouldEqual, 2)
	test.That(t, updated.HasAttachedBody("cup"), test.ShouldBeFalse)
	test.That(t, slide(t, s.CurrentState()), test.ShouldEqual, 0)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeTrue)

	rs.IsDiff = true
	updated, err = s.CurrentStateUpdated(rs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated.HasAttachedBody("cup"), test.ShouldBeFalse)
	test.That(t, s.World().HasObject("cup"), test.ShouldBeFalse)

	test.That(t, s.SetCurrentStateMsg(rs), test.ShouldBeNil)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeFalse)
	test.That(t, s.World().HasObject("cup"), test.ShouldBeTrue)

	test.That(t, s.SetCurrentStateMsg(msgs.RobotState{
		AttachedCollisionObjects: []msgs.AttachedCollisionObject{attachMsg("cup", "arm", msgs.OperationAdd)},
	}), test.ShouldBeNil)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeTrue)
	assertDisjoint(t, s)

	err = s.SetCurrentStateMsg(msgs.RobotState{
		JointState: msgs.JointState{Name: []string{"elbow"}, Position: []float64{1}},
	})
	test.That(t, errors.Is(err, ErrMalformed), test.ShouldBeTrue)
}

func TestCurrentStateUpdatedLeavesSceneUntouched(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	test.That(t, err, test.ShouldBeNil)
	s := newScene(t, WithMetrics(m))
	addBox(t, s, "cup", r3.Vector{X: 1}, 0.1)

	var events []string
	s.SetCollisionObjectUpdateCallback(func(obj *collision.Object, action collision.Action) {
		events = append(events, obj.ID+":"+action.String())
	})
	updated, err := s.CurrentStateUpdated(msgs.RobotState{
		AttachedCollisionObjects: []msgs.AttachedCollisionObject{attachMsg("cup", "arm", msgs.OperationAdd)},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, updated.HasAttachedBody("cup"), test.ShouldBeTrue)
	test.That(t, events, test.ShouldBeEmpty)
	test.That(t, s.World().HasObject("cup"), test.ShouldBeTrue)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeFalse)
	test.That(t, testutil.ToFloat64(m.mutations.WithLabelValues("attach", "ok")), test.ShouldEqual, 0)
}

func TestSetPlanningSceneMsgDropsStaleBodies(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "cup", r3.Vector{X: 1}, 0.1)
	test.That(t, root.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)

	for _, s := range []*Scene{root.Fork(), root} {
		m := msgs.PlanningScene{
			Name:  "replaced",
			World: msgs.PlanningSceneWorld{CollisionObjects: []msgs.CollisionObject{boxMsg("cup", r3.Vector{X: 3}, 0.1)}},
		}
		test.That(t, s.SetPlanningSceneMsg(m), test.ShouldBeNil)
		test.That(t, s.World().HasObject("cup"), test.ShouldBeTrue)
		test.That(t, s.CurrentState().AttachedBodies(), test.ShouldBeEmpty)
		assertDisjoint(t, s)
	}
}

func TestSetPlanningSceneDiffMsgCombinesErrors(t *testing.T) {
	s := newScene(t)
	m := msgs.PlanningScene{
		IsDiff: true,
		World: msgs.PlanningSceneWorld{CollisionObjects: []msgs.CollisionObject{
			{ID: "ghost", Operation: msgs.OperationRemove},
			boxMsg("table", r3.Vector{X: 2}, 0.5),
			boxMsg(OctomapNS, r3.Vector{}, 0.1),
		}},
	}
	err := s.SetPlanningSceneDiffMsg(m)
	test.That(t, errors.Is(err, ErrObjectNotFound), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrReservedID), test.ShouldBeTrue)
	test.That(t, s.CollisionObjectIDs(), test.ShouldResemble, []string{"table"})
}

func TestDiffFromMsg(t *testing.T) {
	root := newScene(t)
	m := msgs.PlanningScene{
		Name:   "changed",
		IsDiff: true,
		World:  msgs.PlanningSceneWorld{CollisionObjects: []msgs.CollisionObject{boxMsg("table", r3.Vector{X: 2}, 0.5)}},
	}
	f, err := root.DiffFromMsg(m)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Parent(), test.ShouldEqual, root)
	test.That(t, f.Name(), test.ShouldEqual, "changed")
	test.That(t, f.CollisionObjectIDs(), test.ShouldResemble, []string{"table"})
	test.That(t, root.CollisionObjectIDs(), test.ShouldBeEmpty)
}
