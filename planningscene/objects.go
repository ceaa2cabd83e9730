package planningscene

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// ProcessCollisionObjectMsg adds, appends to, removes or moves a world object. A failed request leaves the object
// as it was.
func (s *Scene) ProcessCollisionObjectMsg(object msgs.CollisionObject) error {
	err := s.processCollisionObject(object)
	if err != nil {
		s.logger.Errorw("collision object not processed", "id", object.ID, "operation", object.Operation, "error", err)
	}
	return s.metrics.mutation(strings.ToLower(object.Operation.String()), err)
}

func (s *Scene) processCollisionObject(object msgs.CollisionObject) error {
	if object.ID == OctomapNS {
		return errors.Wrapf(ErrReservedID, "collision object %q", object.ID)
	}
	switch object.Operation {
	case msgs.OperationAdd, msgs.OperationAppend:
		return s.addCollisionObject(object)
	case msgs.OperationRemove:
		return s.removeCollisionObject(object)
	case msgs.OperationMove:
		return s.moveCollisionObject(object)
	default:
		return errors.Wrapf(ErrUnknownOperation, "collision object operation %d", object.Operation)
	}
}

// placedGeometry is the geometry of a collision object message, expressed in the object frame.
type placedGeometry struct {
	pose       spatial.Pose
	shapes     []shapes.Shape
	shapePoses []spatial.Pose
	subframes  map[string]spatial.Pose
}

// geometryFromMsg converts the shapes, poses and subframes of object. A single shape given without an object pose
// becomes the object pose, leaving the shape at the object origin.
func geometryFromMsg(object msgs.CollisionObject) (placedGeometry, error) {
	g := placedGeometry{pose: object.Pose.ToPose(), subframes: map[string]spatial.Pose{}}
	if len(object.PrimitivePoses) > len(object.Primitives) ||
		len(object.MeshPoses) > len(object.Meshes) ||
		len(object.PlanePoses) > len(object.Planes) {
		return g, errors.Wrapf(ErrPoseCountMismatch, "collision object %q has more shape poses than shapes", object.ID)
	}
	if len(object.SubframeNames) != len(object.SubframePoses) {
		return g, errors.Wrapf(ErrMalformed, "collision object %q names %d subframes but has %d subframe poses",
			object.ID, len(object.SubframeNames), len(object.SubframePoses))
	}

	switchPose := object.NumShapes() == 1 && object.Pose.IsEmpty()
	add := func(m msgs.Shape, poses []msgs.Pose, i int) error {
		sh, err := shapes.FromMsg(m)
		if err != nil {
			return errors.Wrapf(ErrMalformed, "collision object %q: %v", object.ID, err)
		}
		pose := spatial.NewZeroPose()
		if i < len(poses) {
			pose = poses[i].ToPose()
		}
		if switchPose {
			g.pose = pose
			pose = spatial.NewZeroPose()
		}
		g.shapes = append(g.shapes, sh)
		g.shapePoses = append(g.shapePoses, pose)
		return nil
	}
	for i := range object.Primitives {
		if err := add(&object.Primitives[i], object.PrimitivePoses, i); err != nil {
			return g, err
		}
	}
	for i := range object.Meshes {
		if err := add(&object.Meshes[i], object.MeshPoses, i); err != nil {
			return g, err
		}
	}
	for i := range object.Planes {
		if err := add(&object.Planes[i], object.PlanePoses, i); err != nil {
			return g, err
		}
	}
	for i, name := range object.SubframeNames {
		g.subframes[name] = object.SubframePoses[i].ToPose()
	}
	return g, nil
}

func (s *Scene) addCollisionObject(object msgs.CollisionObject) error {
	if object.NumShapes() == 0 {
		if object.Operation == msgs.OperationAdd {
			return errors.Wrapf(ErrNoShapes, "collision object %q", object.ID)
		}
		return s.appendPoseOnly(object)
	}
	header, err := s.FrameTransform(object.Header.FrameID)
	if err != nil {
		return errors.Wrapf(err, "collision object %q", object.ID)
	}
	g, err := geometryFromMsg(object)
	if err != nil {
		return err
	}
	if object.Operation == msgs.OperationAdd {
		s.world.RemoveObject(object.ID)
	}
	s.world.AddToObject(object.ID, spatial.Compose(header, g.pose), g.shapes, g.shapePoses)
	if !object.Type.IsEmpty() {
		s.SetObjectType(object.ID, object.Type)
	}
	s.world.SetSubframesOfObject(object.ID, g.subframes)
	return nil
}

// appendPoseOnly handles an APPEND without shapes, which only moves the existing object.
func (s *Scene) appendPoseOnly(object msgs.CollisionObject) error {
	if !s.world.HasObject(object.ID) {
		return errors.Wrapf(ErrNoShapes, "nothing to append to collision object %q", object.ID)
	}
	header, err := s.FrameTransform(object.Header.FrameID)
	if err != nil {
		return errors.Wrapf(err, "collision object %q", object.ID)
	}
	if !object.Pose.IsEmpty() {
		s.world.SetObjectPose(object.ID, spatial.Compose(header, object.Pose.ToPose()))
	}
	if !object.Type.IsEmpty() {
		s.SetObjectType(object.ID, object.Type)
	}
	return nil
}

func (s *Scene) removeCollisionObject(object msgs.CollisionObject) error {
	if object.ID == "" {
		s.RemoveAllCollisionObjects()
		return nil
	}
	if !s.world.RemoveObject(object.ID) {
		return errors.Wrapf(ErrObjectNotFound, "cannot remove collision object %q", object.ID)
	}
	s.RemoveObjectColor(object.ID)
	s.RemoveObjectType(object.ID)
	s.MutableAllowedCollisionMatrix().RemoveEntries(object.ID)
	return nil
}

// RemoveAllCollisionObjects removes every world object except the octomap, with its color, type and ACM entries.
func (s *Scene) RemoveAllCollisionObjects() {
	for _, id := range s.world.ObjectIDs() {
		if id == OctomapNS {
			continue
		}
		s.world.RemoveObject(id)
		s.RemoveObjectColor(id)
		s.RemoveObjectType(id)
		s.MutableAllowedCollisionMatrix().RemoveEntries(id)
	}
}

func (s *Scene) moveCollisionObject(object msgs.CollisionObject) error {
	obj, ok := s.world.Object(object.ID)
	if !ok {
		return errors.Wrapf(ErrObjectNotFound, "cannot move collision object %q", object.ID)
	}
	if object.NumShapes() > 0 {
		s.logger.Warnw("move request carries geometry, only poses are used", "id", object.ID)
	}
	header, err := s.FrameTransform(object.Header.FrameID)
	if err != nil {
		return errors.Wrapf(err, "collision object %q", object.ID)
	}

	var shapePoses []spatial.Pose
	for _, list := range [][]msgs.Pose{object.PrimitivePoses, object.MeshPoses, object.PlanePoses} {
		for _, p := range list {
			shapePoses = append(shapePoses, p.ToPose())
		}
	}
	if len(shapePoses) > 0 && len(shapePoses) != len(obj.Shapes) {
		return errors.Wrapf(ErrPoseCountMismatch, "moving collision object %q with %d shapes using %d shape poses",
			object.ID, len(obj.Shapes), len(shapePoses))
	}

	s.world.SetObjectPose(object.ID, spatial.Compose(header, object.Pose.ToPose()))
	if len(shapePoses) > 0 {
		s.world.MoveShapesInObject(object.ID, shapePoses)
	}
	return nil
}

// CollisionObjectIDs returns the sorted ids of the world objects other than the octomap.
func (s *Scene) CollisionObjectIDs() []string {
	return lo.Without(s.world.ObjectIDs(), OctomapNS)
}

// PrintKnownObjects writes the ids of the world objects and of the attached bodies.
func (s *Scene) PrintKnownObjects(w io.Writer) error {
	var b strings.Builder
	b.WriteString("-----------------------------------------\n")
	b.WriteString("PlanningScene Known Objects:\n")
	b.WriteString("  - Collision World Objects:\n ")
	for _, id := range s.world.ObjectIDs() {
		fmt.Fprintf(&b, "\t- %s\n", id)
	}
	b.WriteString("  - Attached Bodies:\n")
	for _, ab := range s.CurrentState().AttachedBodies() {
		fmt.Fprintf(&b, "\t- %s\n", ab.Name())
	}
	b.WriteString("-----------------------------------------\n")
	_, err := io.WriteString(w, b.String())
	return err
}
