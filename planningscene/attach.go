package planningscene

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/robotstate"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// ProcessAttachedCollisionObjectMsg attaches an object to a robot link (ADD, APPEND) or releases attached bodies
// back into the world (REMOVE). An object is never in the world and attached at the same time.
func (s *Scene) ProcessAttachedCollisionObjectMsg(object msgs.AttachedCollisionObject) error {
	op := "attach"
	if object.Object.Operation == msgs.OperationRemove {
		op = "detach"
	}
	err := s.processAttachedCollisionObject(object)
	if err != nil {
		s.logger.Errorw("attached collision object not processed",
			"id", object.Object.ID, "link", object.LinkName, "operation", object.Object.Operation, "error", err)
	}
	return s.metrics.mutation(op, err)
}

func (s *Scene) processAttachedCollisionObject(object msgs.AttachedCollisionObject) error {
	id := object.Object.ID
	if object.Object.Operation == msgs.OperationAdd && !s.model.HasLink(object.LinkName) {
		return errors.Wrapf(ErrUnknownLink, "cannot attach %q to link %q", id, object.LinkName)
	}
	if id == OctomapNS {
		return errors.Wrapf(ErrReservedID, "attached collision object %q", id)
	}

	switch object.Object.Operation {
	case msgs.OperationAdd, msgs.OperationAppend:
		return s.attachObject(object)
	case msgs.OperationRemove:
		return s.detachObjects(object)
	case msgs.OperationMove:
		return errors.Wrapf(ErrUnsupportedOperation, "cannot move attached collision object %q", id)
	default:
		return errors.Wrapf(ErrUnknownOperation, "attached collision object operation %d", object.Object.Operation)
	}
}

func (s *Scene) attachObject(object msgs.AttachedCollisionObject) error {
	id := object.Object.ID
	if !s.model.HasLink(object.LinkName) {
		return errors.Wrapf(ErrUnknownLink, "cannot append to %q on link %q", id, object.LinkName)
	}
	linkPose, err := s.CurrentState().GlobalLinkTransform(object.LinkName)
	if err != nil {
		return errors.Wrapf(ErrUnknownLink, "%v", err)
	}
	linkInv := spatial.PoseInverse(linkPose)

	// the geometry comes from the world object of the same id only when an ADD carries none
	var (
		poseInLink spatial.Pose
		bodyShapes []shapes.Shape
		shapePoses []spatial.Pose
		subframes  map[string]spatial.Pose
	)
	worldObj, inWorld := s.world.Object(id)
	if object.Object.Operation == msgs.OperationAdd && object.Object.NumShapes() == 0 {
		if !inWorld {
			return errors.Wrapf(ErrNoGeometry, "attaching %q to link %q: no geometry given and no such world object",
				id, object.LinkName)
		}
		s.logger.Debugw("attaching world object", "id", id, "link", object.LinkName)
		poseInLink = spatial.Compose(linkInv, worldObj.Pose)
		bodyShapes = worldObj.Shapes
		shapePoses = worldObj.ShapePoses
		subframes = worldObj.Subframes
	} else {
		g, err := geometryFromMsg(object.Object)
		if err != nil {
			return err
		}
		header, err := s.FrameTransform(object.Object.Header.FrameID)
		if err != nil {
			return errors.Wrapf(err, "attached collision object %q", id)
		}
		poseInLink = spatial.Compose(spatial.Compose(linkInv, header), g.pose)
		bodyShapes = g.shapes
		shapePoses = g.shapePoses
		subframes = g.subframes
	}
	if len(bodyShapes) == 0 {
		return errors.Wrapf(ErrNoGeometry, "nothing to attach to link %q as %q", object.LinkName, id)
	}

	if !object.Object.Type.IsEmpty() {
		s.SetObjectType(id, object.Object.Type)
	}

	state := s.MutableCurrentState()
	if inWorld && s.world.RemoveObject(id) {
		if object.Object.Operation == msgs.OperationAdd {
			s.logger.Debugw("removed world object with the same name as the attached object", "id", id)
		} else {
			s.logger.Warnw("appending to an attached object that is a world object, world geometry is ignored", "id", id)
		}
	}

	old, attached := state.AttachedBody(id)
	if object.Object.Operation == msgs.OperationAdd || !attached {
		if state.ClearAttachedBody(id) {
			s.logger.Debugw("replaced attached object", "id", id, "link", object.LinkName)
		}
		state.AttachBody(robotstate.NewAttachedBody(
			object.LinkName, id, poseInLink, bodyShapes, shapePoses, object.TouchLinks, object.DetachPosture, subframes,
		))
		s.logger.Debugw("attached object", "id", id, "link", object.LinkName)
		return nil
	}

	if object.Object.Pose.IsEmpty() {
		poseInLink = old.Pose()
	}
	bodyShapes = append(append([]shapes.Shape(nil), bodyShapes...), old.Shapes()...)
	shapePoses = append(append([]spatial.Pose(nil), shapePoses...), old.ShapePoses()...)
	subframes = lo.Assign(old.Subframes(), subframes)
	detachPosture := object.DetachPosture
	if len(detachPosture.JointNames) == 0 {
		detachPosture = old.DetachPosture()
	}
	touchLinks := lo.Union(old.TouchLinks(), object.TouchLinks)

	state.ClearAttachedBody(id)
	state.AttachBody(robotstate.NewAttachedBody(
		object.LinkName, id, poseInLink, bodyShapes, shapePoses, touchLinks, detachPosture, subframes,
	))
	s.logger.Debugw("appended to attached object", "id", id, "link", object.LinkName)
	return nil
}

func (s *Scene) detachObjects(object msgs.AttachedCollisionObject) error {
	id := object.Object.ID
	state := s.MutableCurrentState()

	var bodies []*robotstate.AttachedBody
	switch {
	case id == "" && object.LinkName != "" && s.model.HasLink(object.LinkName):
		bodies = state.AttachedBodiesOnLink(object.LinkName)
	case id == "":
		bodies = state.AttachedBodies()
	default:
		if ab, ok := state.AttachedBody(id); ok {
			if object.LinkName != "" && ab.AttachedLinkName() != object.LinkName {
				return errors.Wrapf(ErrLinkMismatch, "%q is attached to %q, not %q", id, ab.AttachedLinkName(), object.LinkName)
			}
			bodies = append(bodies, ab)
		}
	}

	for _, ab := range bodies {
		name := ab.Name()
		if s.world.HasObject(name) {
			s.logger.Warnw("world already has an object with the name of the detached body, not adding it to the world",
				"id", name)
		} else {
			s.world.AddToObject(name, ab.GlobalPose(), ab.Shapes(), ab.ShapePoses())
			s.world.SetSubframesOfObject(name, ab.Subframes())
			if c, ok := s.OriginalObjectColor(name); ok {
				//nolint:errcheck
				s.SetObjectColor(name, c)
			}
			s.logger.Debugw("detached object into the world", "id", name, "link", ab.AttachedLinkName())
		}
		state.ClearAttachedBody(name)
	}
	if len(bodies) == 0 && id != "" {
		return errors.Wrapf(ErrObjectNotFound, "no attached body %q to detach", id)
	}
	return nil
}

// AttachedCollisionObjectMsg describes an attached body as an ADD request.
func (s *Scene) AttachedCollisionObjectMsg(id string) (msgs.AttachedCollisionObject, bool) {
	ab, ok := s.CurrentState().AttachedBody(id)
	if !ok {
		return msgs.AttachedCollisionObject{}, false
	}
	aco := robotstate.AttachedBodyToMsg(ab)
	if t, ok := s.ObjectType(id); ok {
		aco.Object.Type = t
	}
	return aco, true
}

// AttachedCollisionObjectMsgs describes every attached body, sorted by id.
func (s *Scene) AttachedCollisionObjectMsgs() []msgs.AttachedCollisionObject {
	bodies := s.CurrentState().AttachedBodies()
	out := make([]msgs.AttachedCollisionObject, 0, len(bodies))
	for _, ab := range bodies {
		aco, _ := s.AttachedCollisionObjectMsg(ab.Name())
		out = append(out, aco)
	}
	return out
}
