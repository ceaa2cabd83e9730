// Package planningscene maintains the state a motion planner checks candidate motions against: the collision world,
// the current robot state with the bodies attached to it, the allowed collision matrix and the collision
// environments built over them. Scenes form a hierarchy: a fork reads through to its parent until it writes a field
// locally, and records the changes it makes to its world so they can be pushed back or discarded.
//
// A Scene is not safe for concurrent use. A parent must not be modified while forks read through it. Checks on a fork
// that has not written its current state run against the parent's state and may refresh its cached transforms.
package planningscene

import (
	"github.com/pkg/errors"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/logging"
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
	spatial "go.viam.com/planningscene/spatialmath"
)

const (
	// OctomapNS is the id of the world object holding the occupancy map. No other object may use it.
	OctomapNS = "<octomap>"
	// DefaultSceneName is the name of a scene nobody named.
	DefaultSceneName = "(noname)"
)

// StateFeasibilityFn decides whether a state is feasible beyond collisions and constraints.
type StateFeasibilityFn func(state *robotstate.State, verbose bool) bool

// MotionFeasibilityFn decides whether moving directly between two states is feasible.
type MotionFeasibilityFn func(from, to *robotstate.State, verbose bool) bool

// detector is the collision back end bound to a scene: one environment with link padding, one without.
type detector struct {
	alloc    collision.Allocator
	padded   collision.Env
	unpadded collision.Env
}

func newDetector(alloc collision.Allocator, world *collision.World, model *referenceframe.Model) *detector {
	return &detector{
		alloc:    alloc,
		padded:   alloc.AllocateEnv(world, model),
		unpadded: alloc.AllocateEnv(world, model),
	}
}

// copyFor builds environments over world that carry the link parameters of d.
func (d *detector) copyFor(world *collision.World) *detector {
	return &detector{
		alloc:    d.alloc,
		padded:   d.alloc.AllocateEnvFrom(d.padded, world),
		unpadded: d.alloc.AllocateEnvFrom(d.unpadded, world),
	}
}

// Scene is a planning scene. The transforms, current state, allowed collision matrix and object color and type
// tables of a fork are nil until written locally; until then they are read from the parent.
type Scene struct {
	name    string
	parent  *Scene
	model   *referenceframe.Model
	logger  logging.Logger
	metrics *Metrics

	transforms     *referenceframe.Transforms
	state          *robotstate.State
	acm            *collision.AllowedCollisionMatrix
	objectColors   map[string]msgs.ColorRGBA
	originalColors map[string]msgs.ColorRGBA
	objectTypes    map[string]msgs.ObjectType

	world     *collision.World
	worldDiff *collision.WorldDiff
	detector  *detector

	objectCallback       collision.Observer
	objectCallbackHandle collision.ObserverHandle
	attachedBodyCallback robotstate.AttachedBodyCallback

	stateFeasible  StateFeasibilityFn
	motionFeasible MotionFeasibilityFn
}

// New returns a root scene for model.
func New(model *referenceframe.Model, opts ...Option) (*Scene, error) {
	if model == nil {
		return nil, errors.New("a planning scene needs a robot model")
	}
	o := options{
		name:      DefaultSceneName,
		allocator: collision.NewBoundingAllocator(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("planningscene")
	}
	if o.world == nil {
		o.world = collision.NewWorld()
	}

	s := &Scene{
		name:           o.name,
		model:          model,
		logger:         o.logger,
		metrics:        o.metrics,
		transforms:     referenceframe.NewTransforms(model.ModelFrame()),
		state:          robotstate.New(model),
		acm:            defaultACM(model),
		objectColors:   map[string]msgs.ColorRGBA{},
		originalColors: map[string]msgs.ColorRGBA{},
		objectTypes:    map[string]msgs.ObjectType{},
		world:          o.world,
		detector:       newDetector(o.allocator, o.world, model),
	}
	s.state.Update()
	return s, nil
}

// defaultACM disallows every collision between links with geometry except the pairs the model disables.
func defaultACM(model *referenceframe.Model) *collision.AllowedCollisionMatrix {
	acm := collision.NewAllowedCollisionMatrixFromNames(model.LinkNamesWithGeometry(), false)
	for _, pair := range model.DisabledCollisionPairs() {
		acm.SetEntry(pair[0], pair[1], true)
	}
	return acm
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// SetName renames the scene.
func (s *Scene) SetName(name string) { s.name = name }

// Model returns the robot model.
func (s *Scene) Model() *referenceframe.Model { return s.model }

// PlanningFrame returns the frame world objects are expressed in.
func (s *Scene) PlanningFrame() string { return s.model.ModelFrame() }

// Parent returns the scene this one was forked from, nil for root and decoupled scenes.
func (s *Scene) Parent() *Scene { return s.parent }

// Logger returns the scene logger.
func (s *Scene) Logger() logging.Logger { return s.logger }

// World returns the collision world. Changes made through it are recorded in the world diff of a fork.
func (s *Scene) World() *collision.World { return s.world }

// WorldDiff returns the log of world changes since the fork, nil for root and decoupled scenes.
func (s *Scene) WorldDiff() *collision.WorldDiff { return s.worldDiff }

// Fork returns a scene that reads through to s until written. s must outlive the fork or the fork must be
// decoupled first.
func (s *Scene) Fork() *Scene {
	name := ""
	if s.name != "" {
		name = s.name + "+"
	}
	f := &Scene{
		name:           name,
		parent:         s,
		model:          s.model,
		logger:         s.logger.Sublogger("fork"),
		metrics:        s.metrics,
		world:          s.world.Clone(),
		stateFeasible:  s.stateFeasible,
		motionFeasible: s.motionFeasible,
	}
	f.worldDiff = collision.NewWorldDiff(f.world)
	f.detector = s.detector.copyFor(f.world)
	if s.objectCallback != nil {
		f.SetCollisionObjectUpdateCallback(s.objectCallback)
	}
	return f
}

// Clone returns an independent copy of s with the same name.
func (s *Scene) Clone() *Scene {
	c := s.Fork()
	c.DecoupleParent()
	c.SetName(s.name)
	return c
}

// Transforms returns the fixed transform table. It must not be modified; use MutableTransforms.
func (s *Scene) Transforms() *referenceframe.Transforms {
	if s.transforms == nil {
		return s.parent.Transforms()
	}
	return s.transforms
}

// MutableTransforms returns a fixed transform table owned by s.
func (s *Scene) MutableTransforms() *referenceframe.Transforms {
	if s.transforms == nil {
		s.transforms = s.parent.Transforms().Clone()
	}
	return s.transforms
}

// CurrentState returns the current robot state. It must not be modified; use MutableCurrentState.
func (s *Scene) CurrentState() *robotstate.State {
	if s.state == nil {
		return s.parent.CurrentState()
	}
	return s.state
}

// MutableCurrentState returns a current state owned by s.
func (s *Scene) MutableCurrentState() *robotstate.State {
	if s.state == nil {
		s.state = s.parent.CurrentState().Clone()
		s.state.SetAttachedBodyUpdateCallback(s.attachedBodyCallback)
	}
	s.state.Update()
	return s.state
}

// SetCurrentState replaces the joint values and attached bodies of the current state with those of state.
func (s *Scene) SetCurrentState(state *robotstate.State) {
	cs := s.MutableCurrentState()
	if err := cs.SetVariablePositions(state.VariablePositions()); err != nil {
		s.logger.Errorw("current state not updated", "error", err)
		return
	}
	bodies := state.AttachedBodies()
	cs.ClearAttachedBodies()
	for _, ab := range bodies {
		cs.AttachBody(ab.Clone())
	}
	cs.Update()
}

// AllowedCollisionMatrix returns the allowed collision matrix. It must not be modified; use
// MutableAllowedCollisionMatrix.
func (s *Scene) AllowedCollisionMatrix() *collision.AllowedCollisionMatrix {
	if s.acm == nil {
		return s.parent.AllowedCollisionMatrix()
	}
	return s.acm
}

// MutableAllowedCollisionMatrix returns an allowed collision matrix owned by s.
func (s *Scene) MutableAllowedCollisionMatrix() *collision.AllowedCollisionMatrix {
	if s.acm == nil {
		s.acm = s.parent.AllowedCollisionMatrix().Clone()
	}
	return s.acm
}

// CollisionEnv returns the environment with link padding.
func (s *Scene) CollisionEnv() collision.Env { return s.detector.padded }

// CollisionEnvUnpadded returns the environment without link padding.
func (s *Scene) CollisionEnvUnpadded() collision.Env { return s.detector.unpadded }

// ActiveCollisionDetectorName returns the name of the allocator the environments were built with.
func (s *Scene) ActiveCollisionDetectorName() string { return s.detector.alloc.Name() }

// SetActiveCollisionDetector rebuilds both environments with alloc, keeping their link padding and scale.
func (s *Scene) SetActiveCollisionDetector(alloc collision.Allocator) {
	old := s.detector
	d := newDetector(alloc, s.world, s.model)
	d.padded.SetLinkPadding(old.padded.LinkPadding())
	d.padded.SetLinkScale(old.padded.LinkScale())
	d.unpadded.SetLinkScale(old.unpadded.LinkScale())
	s.detector = d
}

// SetCollisionObjectUpdateCallback replaces the function notified of world changes. nil removes it.
func (s *Scene) SetCollisionObjectUpdateCallback(cb collision.Observer) {
	if s.objectCallback != nil {
		s.world.RemoveObserver(s.objectCallbackHandle)
	}
	s.objectCallback = cb
	if cb != nil {
		s.objectCallbackHandle = s.world.AddObserver(cb)
	}
}

// SetAttachedBodyUpdateCallback replaces the function notified when bodies are attached to or cleared from the
// current state.
func (s *Scene) SetAttachedBodyUpdateCallback(cb robotstate.AttachedBodyCallback) {
	s.attachedBodyCallback = cb
	if s.state != nil {
		s.state.SetAttachedBodyUpdateCallback(cb)
	}
}

// SetStateFeasibilityPredicate replaces the state feasibility check. Forks made afterwards inherit it.
func (s *Scene) SetStateFeasibilityPredicate(fn StateFeasibilityFn) { s.stateFeasible = fn }

// StateFeasibilityPredicate returns the state feasibility check, nil if none is set.
func (s *Scene) StateFeasibilityPredicate() StateFeasibilityFn { return s.stateFeasible }

// SetMotionFeasibilityPredicate replaces the motion feasibility check. Forks made afterwards inherit it.
func (s *Scene) SetMotionFeasibilityPredicate(fn MotionFeasibilityFn) { s.motionFeasible = fn }

// MotionFeasibilityPredicate returns the motion feasibility check, nil if none is set.
func (s *Scene) MotionFeasibilityPredicate() MotionFeasibilityFn { return s.motionFeasible }

// FrameTransform resolves frame in the current state.
func (s *Scene) FrameTransform(frame string) (spatial.Pose, error) {
	return s.FrameTransformFromState(s.CurrentState(), frame)
}

// FrameTransformFromState resolves frame to a pose in the planning frame. Robot links and attached bodies come
// first, then world objects and their subframes, then the fixed transform table. An empty frame is the planning
// frame.
func (s *Scene) FrameTransformFromState(state *robotstate.State, frame string) (spatial.Pose, error) {
	frame = referenceframe.StripFrame(frame)
	if frame == "" {
		return spatial.NewZeroPose(), nil
	}
	if p, err := state.FrameTransform(frame); err == nil {
		return p, nil
	}
	if p, ok := s.world.Transform(frame); ok {
		return p, nil
	}
	p, err := s.Transforms().Transform(frame)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownFrame, "%q", frame)
	}
	return p, nil
}

// KnowsFrameTransform returns whether FrameTransform can resolve frame.
func (s *Scene) KnowsFrameTransform(frame string) bool {
	_, err := s.FrameTransform(frame)
	return err == nil
}
