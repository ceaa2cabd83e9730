package planningscene

import (
	"go.viam.com/planningscene/collision"
)

// PushDiffs replays onto target everything s changed since it was forked: the fields written locally, the link
// padding and scale, and every world object touched. Root scenes have nothing to push.
func (s *Scene) PushDiffs(target *Scene) {
	if s.parent == nil {
		return
	}

	if s.transforms != nil {
		target.transforms = s.transforms.Clone()
	}

	if s.state != nil {
		target.SetCurrentState(s.state)
		for _, ab := range s.state.AttachedBodies() {
			s.pushObjectProperties(target, ab.Name())
		}
	}

	if s.acm != nil {
		target.acm = s.acm.Clone()
	}

	target.detector.padded.SetLinkPadding(s.detector.padded.LinkPadding())
	target.detector.padded.SetLinkScale(s.detector.padded.LinkScale())
	target.detector.unpadded.SetLinkScale(s.detector.padded.LinkScale())

	if s.worldDiff == nil {
		return
	}
	for _, id := range s.worldDiff.IDs() {
		action, _ := s.worldDiff.Get(id)
		if action == collision.ActionDestroy {
			target.world.RemoveObject(id)
			target.RemoveObjectColor(id)
			target.RemoveObjectType(id)
			// the ACM entry still serves the attached body
			if !target.CurrentState().HasAttachedBody(id) {
				target.MutableAllowedCollisionMatrix().RemoveEntries(id)
			}
			continue
		}
		obj, ok := s.world.Object(id)
		if !ok {
			continue
		}
		target.world.RemoveObject(id)
		target.world.AddToObject(id, obj.Pose, obj.Shapes, obj.ShapePoses)
		target.world.SetSubframesOfObject(id, obj.Subframes)
		s.pushObjectProperties(target, id)
	}
}

func (s *Scene) pushObjectProperties(target *Scene, id string) {
	if t, ok := s.ObjectType(id); ok {
		target.SetObjectType(id, t)
	}
	if c, ok := s.ObjectColor(id); ok {
		//nolint:errcheck
		target.SetObjectColor(id, c)
	}
}

// ClearDiffs drops every local change of a fork: its world becomes a fresh copy of the parent's and every field
// reads through to the parent again. Root scenes are left alone.
func (s *Scene) ClearDiffs() {
	if s.parent == nil {
		return
	}
	s.world = s.parent.world.Clone()
	s.worldDiff.Reset(s.world)
	if s.objectCallback != nil {
		s.objectCallbackHandle = s.world.AddObserver(s.objectCallback)
	}
	s.detector = s.parent.detector.copyFor(s.world)

	s.transforms = nil
	s.state = nil
	s.acm = nil
	s.objectColors = nil
	s.originalColors = nil
	s.objectTypes = nil
}

// DecoupleParent copies every field s still reads from its parent and forgets the parent. The world diff is
// dropped.
func (s *Scene) DecoupleParent() {
	if s.parent == nil {
		return
	}
	s.MutableTransforms()
	s.MutableCurrentState()
	s.MutableAllowedCollisionMatrix()
	if s.worldDiff != nil {
		s.worldDiff.Detach()
		s.worldDiff = nil
	}

	colors := s.parent.KnownObjectColors()
	originals := s.parent.knownOriginalColors()
	types := s.parent.KnownObjectTypes()
	for id, c := range s.objectColors {
		colors[id] = c
	}
	for id, c := range s.originalColors {
		originals[id] = c
	}
	for id, t := range s.objectTypes {
		types[id] = t
	}
	s.objectColors = colors
	s.originalColors = originals
	s.objectTypes = types
	s.parent = nil
}
