// Package robotstate holds a robot configuration: joint values, the link transforms they imply, and the bodies
// attached to links.
package robotstate

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	spatial "go.viam.com/planningscene/spatialmath"
)

// AttachedBodyCallback is invoked whenever a body is attached (true) or cleared (false).
type AttachedBodyCallback func(body *AttachedBody, attached bool)

// State is a robot configuration. Link transforms are recomputed lazily after joint values change and attached body
// transforms after link transforms change.
type State struct {
	model          *referenceframe.Model
	positions      map[string]float64
	linkTransforms map[string]spatial.Pose
	dirtyLinks     bool
	dirtyBodies    bool
	attached       map[string]*AttachedBody
	callback       AttachedBodyCallback
}

// New returns a state of model at its default positions.
func New(model *referenceframe.Model) *State {
	return &State{
		model:       model,
		positions:   model.DefaultPositions(),
		dirtyLinks:  true,
		dirtyBodies: true,
		attached:    map[string]*AttachedBody{},
	}
}

// Model returns the robot model.
func (s *State) Model() *referenceframe.Model { return s.model }

// Clone returns an independent copy, including attached bodies and the attach callback.
func (s *State) Clone() *State {
	c := &State{
		model:       s.model,
		positions:   lo.Assign(s.positions),
		dirtyLinks:  s.dirtyLinks,
		dirtyBodies: s.dirtyBodies,
		attached:    make(map[string]*AttachedBody, len(s.attached)),
		callback:    s.callback,
	}
	if s.linkTransforms != nil {
		c.linkTransforms = lo.Assign(s.linkTransforms)
	}
	for id, ab := range s.attached {
		c.attached[id] = ab.Clone()
	}
	return c
}

// SetJointPosition sets the value of one joint.
func (s *State) SetJointPosition(joint string, value float64) error {
	if !s.model.HasJoint(joint) {
		return referenceframe.NewUnknownJointError(s.model.Name(), joint)
	}
	s.positions[joint] = value
	s.dirtyLinks = true
	s.dirtyBodies = true
	return nil
}

// SetVariablePositions sets several joints at once. Nothing is applied if any joint is unknown.
func (s *State) SetVariablePositions(positions map[string]float64) error {
	for j := range positions {
		if !s.model.HasJoint(j) {
			return referenceframe.NewUnknownJointError(s.model.Name(), j)
		}
	}
	for j, v := range positions {
		s.positions[j] = v
	}
	s.dirtyLinks = true
	s.dirtyBodies = true
	return nil
}

// SetJointState applies a joint state message.
func (s *State) SetJointState(js msgs.JointState) error {
	if len(js.Name) != len(js.Position) {
		return errors.Errorf("joint state names %d joints but has %d positions", len(js.Name), len(js.Position))
	}
	positions := make(map[string]float64, len(js.Name))
	for i, name := range js.Name {
		positions[name] = js.Position[i]
	}
	return s.SetVariablePositions(positions)
}

// SetToDefaultValues resets every joint to its default.
func (s *State) SetToDefaultValues() {
	s.positions = s.model.DefaultPositions()
	s.dirtyLinks = true
	s.dirtyBodies = true
}

// JointPosition returns the value of one joint.
func (s *State) JointPosition(joint string) (float64, bool) {
	v, ok := s.positions[joint]
	return v, ok
}

// VariablePositions returns a copy of every joint value.
func (s *State) VariablePositions() map[string]float64 {
	return lo.Assign(s.positions)
}

// SatisfiesBounds returns whether every joint is within its limit.
func (s *State) SatisfiesBounds() bool {
	for j, v := range s.positions {
		if lim, ok := s.model.JointLimit(j); ok && !lim.Contains(v) {
			return false
		}
	}
	return true
}

// EnforceBounds clamps every joint into its limit.
func (s *State) EnforceBounds() {
	for j, v := range s.positions {
		if lim, ok := s.model.JointLimit(j); ok {
			s.positions[j] = lim.Clamp(v)
		}
	}
	s.dirtyLinks = true
	s.dirtyBodies = true
}

// Dirty returns whether link transforms need recomputing.
func (s *State) Dirty() bool { return s.dirtyLinks }

// DirtyCollisionBodyTransforms returns whether link or attached body transforms need recomputing.
func (s *State) DirtyCollisionBodyTransforms() bool { return s.dirtyLinks || s.dirtyBodies }

// UpdateLinkTransforms recomputes link transforms if joint values changed.
func (s *State) UpdateLinkTransforms() {
	if !s.dirtyLinks {
		return
	}
	tfs, err := s.model.ComputeLinkTransforms(s.positions)
	if err != nil {
		// model joints always accept exactly one input
		panic(err)
	}
	s.linkTransforms = tfs
	s.dirtyLinks = false
	s.dirtyBodies = true
}

// UpdateCollisionBodyTransforms recomputes link transforms and attached body transforms if needed.
func (s *State) UpdateCollisionBodyTransforms() {
	s.UpdateLinkTransforms()
	if !s.dirtyBodies {
		return
	}
	for _, ab := range s.attached {
		ab.computeTransform(s.linkTransforms[ab.link])
	}
	s.dirtyBodies = false
}

// Update brings every cached transform up to date.
func (s *State) Update() {
	s.UpdateCollisionBodyTransforms()
}

// GlobalLinkTransform returns the pose of a link in the model frame.
func (s *State) GlobalLinkTransform(link string) (spatial.Pose, error) {
	s.UpdateLinkTransforms()
	p, ok := s.linkTransforms[referenceframe.StripFrame(link)]
	if !ok {
		return nil, referenceframe.NewUnknownLinkError(s.model.Name(), link)
	}
	return p, nil
}

// KnowsFrameTransform returns whether frame is a link, an attached body or a subframe of an attached body.
func (s *State) KnowsFrameTransform(frame string) bool {
	_, err := s.FrameTransform(frame)
	return err == nil
}

// FrameTransform resolves a link, an attached body id or an "<body>/<subframe>" name to a pose in the model frame.
func (s *State) FrameTransform(frame string) (spatial.Pose, error) {
	frame = referenceframe.StripFrame(frame)
	if s.model.HasLink(frame) {
		return s.GlobalLinkTransform(frame)
	}
	s.UpdateCollisionBodyTransforms()
	if ab, ok := s.attached[frame]; ok {
		return ab.GlobalPose(), nil
	}
	if idx := strings.Index(frame, "/"); idx > 0 {
		if ab, ok := s.attached[frame[:idx]]; ok {
			if p, ok := ab.GlobalSubframeTransform(frame[idx+1:]); ok {
				return p, nil
			}
		}
	}
	return nil, referenceframe.NewFrameMissingError(frame)
}

// SetAttachedBodyUpdateCallback sets the function notified on attach and detach.
func (s *State) SetAttachedBodyUpdateCallback(cb AttachedBodyCallback) {
	s.callback = cb
}

// AttachBody attaches a body, replacing any body with the same id.
func (s *State) AttachBody(ab *AttachedBody) {
	if old, ok := s.attached[ab.id]; ok && s.callback != nil {
		s.callback(old, false)
	}
	s.UpdateLinkTransforms()
	ab.computeTransform(s.linkTransforms[ab.link])
	s.attached[ab.id] = ab
	if s.callback != nil {
		s.callback(ab, true)
	}
}

// ClearAttachedBody removes one body and reports whether it existed.
func (s *State) ClearAttachedBody(id string) bool {
	ab, ok := s.attached[id]
	if !ok {
		return false
	}
	delete(s.attached, id)
	if s.callback != nil {
		s.callback(ab, false)
	}
	return true
}

// ClearAttachedBodies removes every body.
func (s *State) ClearAttachedBodies() {
	for _, ab := range s.AttachedBodies() {
		s.ClearAttachedBody(ab.id)
	}
}

// HasAttachedBody returns whether a body with id is attached.
func (s *State) HasAttachedBody(id string) bool {
	_, ok := s.attached[id]
	return ok
}

// AttachedBody returns the body with id.
func (s *State) AttachedBody(id string) (*AttachedBody, bool) {
	s.UpdateCollisionBodyTransforms()
	ab, ok := s.attached[id]
	return ab, ok
}

// AttachedBodies returns every body, sorted by id.
func (s *State) AttachedBodies() []*AttachedBody {
	s.UpdateCollisionBodyTransforms()
	ids := lo.Keys(s.attached)
	sort.Strings(ids)
	return lo.Map(ids, func(id string, _ int) *AttachedBody { return s.attached[id] })
}

// AttachedBodiesOnLink returns the bodies attached to link, sorted by id.
func (s *State) AttachedBodiesOnLink(link string) []*AttachedBody {
	return lo.Filter(s.AttachedBodies(), func(ab *AttachedBody, _ int) bool { return ab.link == link })
}

// JointStateMsg returns the joint values as a message, in model joint order.
func (s *State) JointStateMsg() msgs.JointState {
	js := msgs.JointState{Header: msgs.Header{FrameID: s.model.ModelFrame()}}
	for _, j := range s.model.JointNames() {
		js.Name = append(js.Name, j)
		js.Position = append(js.Position, s.positions[j])
	}
	return js
}
