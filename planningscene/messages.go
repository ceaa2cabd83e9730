package planningscene

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
	"go.viam.com/planningscene/shapes"
)

// clearedOctomapID marks a diff that removed the octomap.
const clearedOctomapID = "cleared"

// CollisionObjectMsg describes a world object as an ADD request in the planning frame. Occupancy trees are left
// out.
func (s *Scene) CollisionObjectMsg(id string) (msgs.CollisionObject, bool) {
	obj, ok := s.world.Object(id)
	if !ok {
		return msgs.CollisionObject{}, false
	}
	co := msgs.CollisionObject{
		Header:    msgs.Header{FrameID: s.PlanningFrame()},
		Pose:      msgs.PoseFromSpatial(obj.Pose),
		ID:        id,
		Operation: msgs.OperationAdd,
	}
	for i, sh := range obj.Shapes {
		if sh.Kind() == shapes.KindOcTree {
			continue
		}
		m, err := shapes.ToMsg(sh)
		if err != nil {
			s.logger.Debugw("shape has no message form", "id", id, "kind", sh.Kind(), "error", err)
			continue
		}
		co.AddShape(m, msgs.PoseFromSpatial(obj.ShapePoses[i]))
	}
	if co.NumShapes() > 0 {
		if t, ok := s.ObjectType(id); ok {
			co.Type = t
		}
	}
	for _, name := range sortedKeys(obj.Subframes) {
		co.SubframeNames = append(co.SubframeNames, name)
		co.SubframePoses = append(co.SubframePoses, msgs.PoseFromSpatial(obj.Subframes[name]))
	}
	return co, true
}

// CollisionObjectMsgs describes every world object except the octomap.
func (s *Scene) CollisionObjectMsgs() []msgs.CollisionObject {
	ids := s.CollisionObjectIDs()
	out := make([]msgs.CollisionObject, 0, len(ids))
	for _, id := range ids {
		co, _ := s.CollisionObjectMsg(id)
		out = append(out, co)
	}
	return out
}

func (s *Scene) robotStateMsg(withAttached bool) msgs.RobotState {
	rs := s.CurrentState().ToMsg(false)
	if withAttached {
		rs.AttachedCollisionObjects = s.AttachedCollisionObjectMsgs()
	}
	return rs
}

// PlanningSceneMsg describes the whole scene.
func (s *Scene) PlanningSceneMsg() msgs.PlanningScene {
	m := msgs.PlanningScene{
		Name:                   s.name,
		RobotModelName:         s.model.Name(),
		FixedFrameTransforms:   s.Transforms().ToMsgs(),
		RobotState:             s.robotStateMsg(true),
		AllowedCollisionMatrix: s.AllowedCollisionMatrix().ToMsg(),
		LinkPadding:            s.detector.padded.PaddingMsgs(),
		LinkScale:              s.detector.padded.ScaleMsgs(),
		ObjectColors:           colorMsgs(s.KnownObjectColors()),
	}
	m.World.CollisionObjects = s.CollisionObjectMsgs()
	m.World.Octomap, _ = s.OctomapMsg()
	return m
}

// PlanningSceneMsgComponents describes the parts of the scene selected by comps.
func (s *Scene) PlanningSceneMsgComponents(comps msgs.PlanningSceneComponents) msgs.PlanningScene {
	m := msgs.PlanningScene{Name: s.name}
	if comps.Has(msgs.ComponentSceneSettings) {
		m.RobotModelName = s.model.Name()
	}
	if comps.Has(msgs.ComponentTransforms) {
		m.FixedFrameTransforms = s.Transforms().ToMsgs()
	}
	switch {
	case comps.Has(msgs.ComponentRobotStateAttachedObjects):
		m.RobotState = s.robotStateMsg(true)
	case comps.Has(msgs.ComponentRobotState):
		m.RobotState = s.robotStateMsg(false)
	}
	if comps.Has(msgs.ComponentAllowedCollisionMatrix) {
		m.AllowedCollisionMatrix = s.AllowedCollisionMatrix().ToMsg()
	}
	if comps.Has(msgs.ComponentLinkPaddingAndScaling) {
		m.LinkPadding = s.detector.padded.PaddingMsgs()
		m.LinkScale = s.detector.padded.ScaleMsgs()
	}
	if comps.Has(msgs.ComponentObjectColors) {
		m.ObjectColors = colorMsgs(s.KnownObjectColors())
	}
	switch {
	case comps.Has(msgs.ComponentWorldObjectGeometry):
		m.World.CollisionObjects = s.CollisionObjectMsgs()
	case comps.Has(msgs.ComponentWorldObjectNames):
		for _, id := range s.CollisionObjectIDs() {
			co := msgs.CollisionObject{ID: id, Operation: msgs.OperationAdd}
			if t, ok := s.ObjectType(id); ok {
				co.Type = t
			}
			m.World.CollisionObjects = append(m.World.CollisionObjects, co)
		}
	}
	if comps.Has(msgs.ComponentOctomap) {
		m.World.Octomap, _ = s.OctomapMsg()
	}
	return m
}

// PlanningSceneDiffMsg describes what s changed since it was forked. Applying it with SetPlanningSceneDiffMsg to
// the parent has the same effect as PushDiffs.
func (s *Scene) PlanningSceneDiffMsg() msgs.PlanningScene {
	m := msgs.PlanningScene{Name: s.name, RobotModelName: s.model.Name(), IsDiff: true}
	if s.transforms != nil {
		m.FixedFrameTransforms = s.transforms.ToMsgs()
	}
	if s.state != nil {
		m.RobotState = s.robotStateMsg(true)
	}
	m.RobotState.IsDiff = true
	if s.acm != nil {
		m.AllowedCollisionMatrix = s.acm.ToMsg()
	}
	m.LinkPadding = s.detector.padded.PaddingMsgs()
	m.LinkScale = s.detector.padded.ScaleMsgs()
	m.ObjectColors = colorMsgs(s.objectColors)

	if s.worldDiff != nil {
		includeOctomap := false
		for _, id := range s.worldDiff.IDs() {
			action, _ := s.worldDiff.Get(id)
			switch {
			case id == OctomapNS:
				if action == collision.ActionDestroy {
					m.World.Octomap.Octomap.ID = clearedOctomapID
				} else {
					includeOctomap = true
				}
			case action == collision.ActionDestroy:
				// an object that became attached is not removed here
				reattached := lo.ContainsBy(m.RobotState.AttachedCollisionObjects, func(aco msgs.AttachedCollisionObject) bool {
					return aco.Object.ID == id && aco.Object.Operation == msgs.OperationAdd
				})
				if !reattached {
					m.World.CollisionObjects = append(m.World.CollisionObjects, msgs.CollisionObject{
						Header:    msgs.Header{FrameID: s.PlanningFrame()},
						ID:        id,
						Operation: msgs.OperationRemove,
					})
				}
			default:
				if co, ok := s.CollisionObjectMsg(id); ok {
					m.World.CollisionObjects = append(m.World.CollisionObjects, co)
				}
			}
		}
		if includeOctomap {
			m.World.Octomap, _ = s.OctomapMsg()
		}
	}

	// bodies attached in the parent that are back in the world must be detached there explicitly
	if s.parent != nil {
		parentState := s.parent.CurrentState()
		for _, co := range m.World.CollisionObjects {
			if parentState.HasAttachedBody(co.ID) {
				m.RobotState.AttachedCollisionObjects = append(m.RobotState.AttachedCollisionObjects,
					msgs.AttachedCollisionObject{Object: msgs.CollisionObject{ID: co.ID, Operation: msgs.OperationRemove}})
			}
		}
	}
	return m
}

// SetCurrentStateMsg applies the joint values of m to the current state, then its attached objects through
// ProcessAttachedCollisionObjectMsg. Unless m is a diff, the bodies already attached are cleared and only ADD entries
// are accepted.
func (s *Scene) SetCurrentStateMsg(m msgs.RobotState) error {
	state := s.MutableCurrentState()
	if !m.IsDiff {
		state.ClearAttachedBodies()
	}
	if len(m.JointState.Name) > 0 {
		if err := state.SetJointState(m.JointState); err != nil {
			return errors.Wrapf(ErrMalformed, "robot state: %v", err)
		}
		state.Update()
	}
	var errs error
	for _, aco := range m.AttachedCollisionObjects {
		if !m.IsDiff && aco.Object.Operation != msgs.OperationAdd {
			s.logger.Errorw("robot state is not a diff, only ADD is supported for its attached objects, object ignored",
				"id", aco.Object.ID, "operation", aco.Object.Operation)
			continue
		}
		errs = multierr.Append(errs, s.ProcessAttachedCollisionObjectMsg(aco))
	}
	return errs
}

// CurrentStateUpdated returns a copy of the current state with the joint values and attached objects of m applied.
// Observers and metrics of s see nothing of it.
func (s *Scene) CurrentStateUpdated(m msgs.RobotState) (*robotstate.State, error) {
	f := s.Fork()
	f.SetCollisionObjectUpdateCallback(nil)
	f.metrics = nil
	if err := f.SetCurrentStateMsg(m); err != nil {
		return nil, err
	}
	return f.CurrentState().Clone(), nil
}

// UsePlanningSceneMsg applies m as a diff or as a whole scene, depending on m.IsDiff.
func (s *Scene) UsePlanningSceneMsg(m msgs.PlanningScene) error {
	if m.IsDiff {
		return s.SetPlanningSceneDiffMsg(m)
	}
	return s.SetPlanningSceneMsg(m)
}

func (s *Scene) warnModelMismatch(name string) {
	if name != "" && name != s.model.Name() {
		s.logger.Warnw("scene message is for another robot model", "message_model", name, "model", s.model.Name())
	}
}

func (s *Scene) transformsFromMsgs(list []msgs.TransformStamped) (*referenceframe.Transforms, error) {
	t := referenceframe.NewTransforms(s.PlanningFrame())
	if err := t.SetTransformMsgs(list); err != nil {
		return nil, errors.Wrapf(ErrUnknownFrame, "%v", err)
	}
	return t, nil
}

// SetPlanningSceneDiffMsg applies the parts of m that are set. Every item is attempted; the returned error combines
// the failures and nothing already applied is rolled back.
func (s *Scene) SetPlanningSceneDiffMsg(m msgs.PlanningScene) error {
	s.logger.Debugw("applying planning scene diff", "name", m.Name)
	if m.Name != "" {
		s.name = m.Name
	}
	s.warnModelMismatch(m.RobotModelName)

	var errs error
	if len(m.FixedFrameTransforms) > 0 {
		t, err := s.transformsFromMsgs(m.FixedFrameTransforms)
		if err == nil {
			s.transforms = t
		}
		errs = multierr.Append(errs, err)
	}
	if len(m.RobotState.JointState.Name) > 0 || len(m.RobotState.AttachedCollisionObjects) > 0 {
		errs = multierr.Append(errs, s.SetCurrentStateMsg(m.RobotState))
	}
	if len(m.AllowedCollisionMatrix.EntryNames) > 0 {
		s.acm = collision.FromMsg(m.AllowedCollisionMatrix)
	}
	if len(m.LinkPadding) > 0 || len(m.LinkScale) > 0 {
		s.detector.padded.SetPaddingMsgs(m.LinkPadding)
		s.detector.padded.SetScaleMsgs(m.LinkScale)
		s.detector.unpadded.SetScaleMsgs(m.LinkScale)
	}
	for _, oc := range m.ObjectColors {
		errs = multierr.Append(errs, s.SetObjectColor(oc.ID, oc.Color))
	}
	for _, co := range m.World.CollisionObjects {
		errs = multierr.Append(errs, s.ProcessCollisionObjectMsg(co))
	}
	if m.World.Octomap.Octomap.ID != "" {
		errs = multierr.Append(errs, s.ProcessOctomapWithPoseMsg(m.World.Octomap))
	}
	return errs
}

// SetPlanningSceneMsg replaces the whole scene with m, decoupling s from its parent first. m must not be a diff.
func (s *Scene) SetPlanningSceneMsg(m msgs.PlanningScene) error {
	if m.IsDiff {
		return errors.Wrap(ErrMalformed, "cannot set a whole planning scene from a diff")
	}
	s.logger.Debugw("setting planning scene", "name", m.Name)
	s.name = m.Name
	s.warnModelMismatch(m.RobotModelName)
	if s.parent != nil {
		s.DecoupleParent()
	}

	var errs error
	s.objectTypes = map[string]msgs.ObjectType{}
	t, err := s.transformsFromMsgs(m.FixedFrameTransforms)
	if err == nil {
		s.transforms = t
	}
	errs = multierr.Append(errs, err)
	errs = multierr.Append(errs, s.SetCurrentStateMsg(m.RobotState))
	s.acm = collision.FromMsg(m.AllowedCollisionMatrix)
	s.detector.padded.SetPaddingMsgs(m.LinkPadding)
	s.detector.padded.SetScaleMsgs(m.LinkScale)
	s.detector.unpadded.SetScaleMsgs(m.LinkScale)
	s.objectColors = map[string]msgs.ColorRGBA{}
	s.originalColors = map[string]msgs.ColorRGBA{}
	for _, oc := range m.ObjectColors {
		errs = multierr.Append(errs, s.SetObjectColor(oc.ID, oc.Color))
	}
	s.world.ClearObjects()
	return multierr.Append(errs, s.ProcessPlanningSceneWorldMsg(m.World))
}

// ProcessPlanningSceneWorldMsg applies every collision object of w, then replaces the octomap with the one of w.
func (s *Scene) ProcessPlanningSceneWorldMsg(w msgs.PlanningSceneWorld) error {
	var errs error
	for _, co := range w.CollisionObjects {
		errs = multierr.Append(errs, s.ProcessCollisionObjectMsg(co))
	}
	return multierr.Append(errs, s.ProcessOctomapWithPoseMsg(w.Octomap))
}

// DiffFromMsg forks s and applies m to the fork as a diff.
func (s *Scene) DiffFromMsg(m msgs.PlanningScene) (*Scene, error) {
	f := s.Fork()
	if err := f.SetPlanningSceneDiffMsg(m); err != nil {
		return f, err
	}
	return f, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
