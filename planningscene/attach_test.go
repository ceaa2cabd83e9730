package planningscene

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/robotstate"
	spatial "go.viam.com/planningscene/spatialmath"
)

func attachMsg(id, link string, op msgs.Operation) msgs.AttachedCollisionObject {
	return msgs.AttachedCollisionObject{
		LinkName: link,
		Object:   msgs.CollisionObject{ID: id, Operation: op},
	}
}

func TestAttachWorldObject(t *testing.T) {
	s := newScene(t)
	setSlide(t, s, 1)
	addBox(t, s, "cup", r3.Vector{X: 1.2}, 0.1)
	blue := msgs.ColorRGBA{B: 1, A: 1}
	test.That(t, s.SetObjectColor("cup", blue), test.ShouldBeNil)

	var events []string
	s.SetAttachedBodyUpdateCallback(func(ab *robotstate.AttachedBody, attached bool) {
		events = append(events, ab.Name())
	})

	aco := attachMsg("cup", "arm", msgs.OperationAdd)
	aco.TouchLinks = []string{"base"}
	test.That(t, s.ProcessAttachedCollisionObjectMsg(aco), test.ShouldBeNil)
	test.That(t, s.World().HasObject("cup"), test.ShouldBeFalse)
	ab, ok := s.CurrentState().AttachedBody("cup")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ab.AttachedLinkName(), test.ShouldEqual, "arm")
	test.That(t, ab.Touches("base"), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(ab.Pose().Point(), r3.Vector{X: 0.2}, 1e-9), test.ShouldBeTrue)
	test.That(t, events, test.ShouldResemble, []string{"cup"})
	assertDisjoint(t, s)

	// the body follows the link and keeps its identity as a frame
	setSlide(t, s, 2)
	p, err := s.FrameTransform("cup")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(p.Point(), r3.Vector{X: 2.2}, 1e-9), test.ShouldBeTrue)

	test.That(t, s.SetObjectColor("cup", msgs.ColorRGBA{R: 1, A: 1}), test.ShouldBeNil)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "", msgs.OperationRemove)), test.ShouldBeNil)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeFalse)
	obj, ok := s.World().Object("cup")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(obj.Pose.Point(), r3.Vector{X: 2.2}, 1e-9), test.ShouldBeTrue)
	c, _ := s.ObjectColor("cup")
	test.That(t, c, test.ShouldResemble, blue)
	assertDisjoint(t, s)
}

func TestAttachFromMessageGeometry(t *testing.T) {
	s := newScene(t)
	setSlide(t, s, 1)
	aco := msgs.AttachedCollisionObject{
		LinkName: "arm",
		Object:   boxMsg("tool", r3.Vector{X: 1, Z: 0.3}, 0.05),
	}
	aco.Object.SubframeNames = []string{"tip"}
	aco.Object.SubframePoses = []msgs.Pose{{Position: r3.Vector{Z: 0.1}, Orientation: msgs.Quaternion{W: 1}}}
	test.That(t, s.ProcessAttachedCollisionObjectMsg(aco), test.ShouldBeNil)

	ab, ok := s.CurrentState().AttachedBody("tool")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(ab.Pose().Point(), r3.Vector{Z: 0.3}, 1e-9), test.ShouldBeTrue)
	test.That(t, ab.HasSubframe("tip"), test.ShouldBeTrue)

	// APPEND keeps the old shapes and pose and merges touch links
	more := msgs.AttachedCollisionObject{
		LinkName:   "arm",
		Object:     boxMsg("tool", r3.Vector{}, 0.02),
		TouchLinks: []string{"base"},
	}
	more.Object.Pose = msgs.Pose{}
	more.Object.PrimitivePoses = []msgs.Pose{msgs.IdentityPose()}
	more.Object.Operation = msgs.OperationAppend
	test.That(t, s.ProcessAttachedCollisionObjectMsg(more), test.ShouldBeNil)
	ab, _ = s.CurrentState().AttachedBody("tool")
	test.That(t, ab.Shapes(), test.ShouldHaveLength, 2)
	test.That(t, ab.Touches("base"), test.ShouldBeTrue)
	test.That(t, ab.HasSubframe("tip"), test.ShouldBeTrue)

	msg, ok := s.AttachedCollisionObjectMsg("tool")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, msg.LinkName, test.ShouldEqual, "arm")
	test.That(t, s.AttachedCollisionObjectMsgs(), test.ShouldHaveLength, 1)
}

func TestAttachErrors(t *testing.T) {
	s := newScene(t)
	addBox(t, s, "cup", r3.Vector{X: 1}, 0.1)

	for _, tc := range []struct {
		name string
		aco  msgs.AttachedCollisionObject
		want error
	}{
		{"unknown link", attachMsg("cup", "wrist", msgs.OperationAdd), ErrUnknownLink},
		{"reserved id", attachMsg(OctomapNS, "arm", msgs.OperationAdd), ErrReservedID},
		{"detach reserved id", attachMsg(OctomapNS, "", msgs.OperationRemove), ErrReservedID},
		{"move", attachMsg("cup", "arm", msgs.OperationMove), ErrUnsupportedOperation},
		{"unknown operation", attachMsg("cup", "arm", msgs.Operation(9)), ErrUnknownOperation},
		{"no geometry", attachMsg("ghost", "arm", msgs.OperationAdd), ErrNoGeometry},
		{"detach unknown", attachMsg("ghost", "", msgs.OperationRemove), ErrObjectNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := s.ProcessAttachedCollisionObjectMsg(tc.aco)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, tc.want), test.ShouldBeTrue)
		})
	}
	test.That(t, s.World().HasObject("cup"), test.ShouldBeTrue)
	test.That(t, s.CurrentState().AttachedBodies(), test.ShouldBeEmpty)

	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	err := s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "base", msgs.OperationRemove))
	test.That(t, errors.Is(err, ErrLinkMismatch), test.ShouldBeTrue)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeTrue)
}

func TestDetachByLinkAndAll(t *testing.T) {
	s := newScene(t)
	addBox(t, s, "a", r3.Vector{X: 1}, 0.1)
	addBox(t, s, "b", r3.Vector{X: 2}, 0.1)
	addBox(t, s, "c", r3.Vector{X: 3}, 0.1)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("a", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("b", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("c", "base", msgs.OperationAdd)), test.ShouldBeNil)

	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("", "arm", msgs.OperationRemove)), test.ShouldBeNil)
	test.That(t, s.CollisionObjectIDs(), test.ShouldResemble, []string{"a", "b"})
	test.That(t, s.CurrentState().HasAttachedBody("c"), test.ShouldBeTrue)

	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("", "", msgs.OperationRemove)), test.ShouldBeNil)
	test.That(t, s.CollisionObjectIDs(), test.ShouldResemble, []string{"a", "b", "c"})
	assertDisjoint(t, s)
}

func TestDetachKeepsExistingWorldObject(t *testing.T) {
	s := newScene(t)
	addBox(t, s, "cup", r3.Vector{X: 1}, 0.1)
	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	addBox(t, s, "cup", r3.Vector{X: 4}, 0.3)

	test.That(t, s.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationRemove)), test.ShouldBeNil)
	test.That(t, s.CurrentState().HasAttachedBody("cup"), test.ShouldBeFalse)
	obj, _ := s.World().Object("cup")
	test.That(t, spatial.R3VectorAlmostEqual(obj.Pose.Point(), r3.Vector{X: 4}, 1e-9), test.ShouldBeTrue)
}

func TestAttachInForkPushes(t *testing.T) {
	root := newScene(t)
	addBox(t, root, "cup", r3.Vector{X: 1}, 0.1)

	f := root.Fork()
	test.That(t, f.ProcessAttachedCollisionObjectMsg(attachMsg("cup", "arm", msgs.OperationAdd)), test.ShouldBeNil)
	test.That(t, root.World().HasObject("cup"), test.ShouldBeTrue)
	test.That(t, root.CurrentState().HasAttachedBody("cup"), test.ShouldBeFalse)
	assertDisjoint(t, f)

	f.PushDiffs(root)
	test.That(t, root.World().HasObject("cup"), test.ShouldBeFalse)
	test.That(t, root.CurrentState().HasAttachedBody("cup"), test.ShouldBeTrue)
	assertDisjoint(t, root)
}
