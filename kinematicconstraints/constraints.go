// Package kinematicconstraints evaluates joint, position and orientation constraints on robot states.
package kinematicconstraints

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

const defaultEpsilon = 1e-9

// FrameResolver resolves a frame name to a pose in the model frame.
type FrameResolver interface {
	FrameTransform(frame string) (spatial.Pose, error)
}

// Constraint decides whether a robot state satisfies it. The returned distance is zero when satisfied exactly and
// grows with the violation.
type Constraint interface {
	Name() string
	Decide(state *robotstate.State) (bool, float64)
}

// JointConstraint bounds one joint.
type JointConstraint struct {
	joint    string
	position float64
	above    float64
	below    float64
	weight   float64
}

// NewJointConstraint builds a joint constraint on model.
func NewJointConstraint(model *referenceframe.Model, m msgs.JointConstraint) (*JointConstraint, error) {
	if !model.HasJoint(m.JointName) {
		return nil, referenceframe.NewUnknownJointError(model.Name(), m.JointName)
	}
	if m.ToleranceAbove < 0 || m.ToleranceBelow < 0 {
		return nil, errors.Errorf("joint constraint on %q has a negative tolerance", m.JointName)
	}
	return &JointConstraint{
		joint:    m.JointName,
		position: m.Position,
		above:    m.ToleranceAbove,
		below:    m.ToleranceBelow,
		weight:   weightOrOne(m.Weight),
	}, nil
}

// Name returns a description of the constraint.
func (c *JointConstraint) Name() string {
	return fmt.Sprintf("joint(%s)", c.joint)
}

// Decide checks the joint value against its tolerances.
func (c *JointConstraint) Decide(state *robotstate.State) (bool, float64) {
	v, _ := state.JointPosition(c.joint)
	dev := v - c.position
	ok := dev <= c.above+defaultEpsilon && -dev <= c.below+defaultEpsilon
	return ok, c.weight * math.Abs(dev)
}

// region is one primitive of a bounding volume in the model frame.
type region struct {
	shape shapes.Shape
	pose  spatial.Pose
}

func (r region) contains(pt r3.Vector) bool {
	local := spatial.TransformPoint(spatial.PoseInverse(r.pose), pt)
	switch s := r.shape.(type) {
	case *shapes.Box:
		return math.Abs(local.X) <= s.Size.X/2+defaultEpsilon &&
			math.Abs(local.Y) <= s.Size.Y/2+defaultEpsilon &&
			math.Abs(local.Z) <= s.Size.Z/2+defaultEpsilon
	case *shapes.Sphere:
		return local.Norm() <= s.Radius+defaultEpsilon
	case *shapes.Cylinder:
		return math.Abs(local.Z) <= s.Length/2+defaultEpsilon && math.Hypot(local.X, local.Y) <= s.Radius+defaultEpsilon
	case *shapes.Cone:
		if math.Abs(local.Z) > s.Length/2+defaultEpsilon || s.Length == 0 {
			return false
		}
		// radius shrinks linearly from the base at -Length/2 to the tip
		allowed := s.Radius * (s.Length/2 - local.Z) / s.Length
		return math.Hypot(local.X, local.Y) <= allowed+defaultEpsilon
	}
	return false
}

// PositionConstraint requires a point on a link to lie inside one of several regions.
type PositionConstraint struct {
	link    string
	offset  r3.Vector
	regions []region
	weight  float64
}

// NewPositionConstraint builds a position constraint, resolving the region frame through frames.
func NewPositionConstraint(
	model *referenceframe.Model, frames FrameResolver, m msgs.PositionConstraint,
) (*PositionConstraint, error) {
	if !model.HasLink(m.LinkName) {
		return nil, referenceframe.NewUnknownLinkError(model.Name(), m.LinkName)
	}
	vol := m.ConstraintRegion
	if len(vol.Primitives) == 0 {
		return nil, errors.Errorf("position constraint on %q has no region", m.LinkName)
	}
	if len(vol.PrimitivePoses) != len(vol.Primitives) {
		return nil, errors.Errorf("position constraint on %q has %d primitives but %d poses",
			m.LinkName, len(vol.Primitives), len(vol.PrimitivePoses))
	}
	base, err := frames.FrameTransform(m.Header.FrameID)
	if err != nil {
		return nil, errors.Wrapf(err, "position constraint on %q", m.LinkName)
	}
	c := &PositionConstraint{
		link:   referenceframe.StripFrame(m.LinkName),
		offset: m.TargetPointOffset,
		weight: weightOrOne(m.Weight),
	}
	for i := range vol.Primitives {
		s, err := shapes.FromMsg(&vol.Primitives[i])
		if err != nil {
			return nil, err
		}
		c.regions = append(c.regions, region{shape: s, pose: spatial.Compose(base, vol.PrimitivePoses[i].ToPose())})
	}
	return c, nil
}

// Name returns a description of the constraint.
func (c *PositionConstraint) Name() string {
	return fmt.Sprintf("position(%s)", c.link)
}

// Decide checks whether the offset point of the link lies in any region. The distance is to the nearest region
// center.
func (c *PositionConstraint) Decide(state *robotstate.State) (bool, float64) {
	linkPose, err := state.GlobalLinkTransform(c.link)
	if err != nil {
		return false, math.Inf(1)
	}
	pt := spatial.TransformPoint(linkPose, c.offset)
	dist := math.Inf(1)
	for _, r := range c.regions {
		if r.contains(pt) {
			return true, 0
		}
		dist = math.Min(dist, pt.Sub(r.pose.Point()).Norm())
	}
	return false, c.weight * dist
}

// OrientationConstraint bounds the rotation of a link away from a desired orientation, per axis of the rotation
// vector between them.
type OrientationConstraint struct {
	link      string
	desired   spatial.Orientation
	tolerance r3.Vector
	weight    float64
}

// NewOrientationConstraint builds an orientation constraint, resolving the desired orientation frame through frames.
func NewOrientationConstraint(
	model *referenceframe.Model, frames FrameResolver, m msgs.OrientationConstraint,
) (*OrientationConstraint, error) {
	if !model.HasLink(m.LinkName) {
		return nil, referenceframe.NewUnknownLinkError(model.Name(), m.LinkName)
	}
	base, err := frames.FrameTransform(m.Header.FrameID)
	if err != nil {
		return nil, errors.Wrapf(err, "orientation constraint on %q", m.LinkName)
	}
	q := m.Orientation
	desired := spatial.Compose(base, spatial.NewPoseFromOrientation(spatial.NewQuaternionFromXYZW(q.X, q.Y, q.Z, q.W)))
	return &OrientationConstraint{
		link:    referenceframe.StripFrame(m.LinkName),
		desired: desired.Orientation(),
		tolerance: r3.Vector{
			X: math.Abs(m.AbsoluteXAxisTolerance),
			Y: math.Abs(m.AbsoluteYAxisTolerance),
			Z: math.Abs(m.AbsoluteZAxisTolerance),
		},
		weight: weightOrOne(m.Weight),
	}, nil
}

// Name returns a description of the constraint.
func (c *OrientationConstraint) Name() string {
	return fmt.Sprintf("orientation(%s)", c.link)
}

// Decide compares the link orientation against the desired one.
func (c *OrientationConstraint) Decide(state *robotstate.State) (bool, float64) {
	linkPose, err := state.GlobalLinkTransform(c.link)
	if err != nil {
		return false, math.Inf(1)
	}
	diff := spatial.OrientationBetween(c.desired, linkPose.Orientation())
	rv := spatial.QuatToRotationVector(diff.Quaternion())
	ok := math.Abs(rv.X) <= c.tolerance.X+defaultEpsilon &&
		math.Abs(rv.Y) <= c.tolerance.Y+defaultEpsilon &&
		math.Abs(rv.Z) <= c.tolerance.Z+defaultEpsilon
	return ok, c.weight * rv.Norm()
}

func weightOrOne(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}

// ConstraintSet is a conjunction of constraints.
type ConstraintSet struct {
	model       *referenceframe.Model
	constraints []Constraint
}

// NewConstraintSet returns an empty set for model.
func NewConstraintSet(model *referenceframe.Model) *ConstraintSet {
	return &ConstraintSet{model: model}
}

// Add appends every constraint of a message. Constraints that cannot be built are skipped and reported together.
func (cs *ConstraintSet) Add(m msgs.Constraints, frames FrameResolver) error {
	var errs error
	for _, jc := range m.JointConstraints {
		c, err := NewJointConstraint(cs.model, jc)
		errs = multierr.Combine(errs, err)
		if err == nil {
			cs.constraints = append(cs.constraints, c)
		}
	}
	for _, pc := range m.PositionConstraints {
		c, err := NewPositionConstraint(cs.model, frames, pc)
		errs = multierr.Combine(errs, err)
		if err == nil {
			cs.constraints = append(cs.constraints, c)
		}
	}
	for _, oc := range m.OrientationConstraints {
		c, err := NewOrientationConstraint(cs.model, frames, oc)
		errs = multierr.Combine(errs, err)
		if err == nil {
			cs.constraints = append(cs.constraints, c)
		}
	}
	return errs
}

// AddConstraint appends a constraint.
func (cs *ConstraintSet) AddConstraint(c Constraint) {
	cs.constraints = append(cs.constraints, c)
}

// Empty returns whether the set has no constraints.
func (cs *ConstraintSet) Empty() bool {
	return cs == nil || len(cs.constraints) == 0
}

// Constraints lists the constraint names, sorted.
func (cs *ConstraintSet) Constraints() []string {
	names := lo.Map(cs.constraints, func(c Constraint, _ int) string { return c.Name() })
	sort.Strings(names)
	return names
}

// Decide checks every constraint and sums their distances. An empty set is always satisfied.
func (cs *ConstraintSet) Decide(state *robotstate.State) (bool, float64) {
	if cs.Empty() {
		return true, 0
	}
	ok, total := true, 0.
	for _, c := range cs.constraints {
		pass, dist := c.Decide(state)
		ok = ok && pass
		total += dist
	}
	return ok, total
}

// NewConstraintSetFromMsg builds a set from a message.
func NewConstraintSetFromMsg(model *referenceframe.Model, frames FrameResolver, m msgs.Constraints) (*ConstraintSet, error) {
	cs := NewConstraintSet(model)
	if err := cs.Add(m, frames); err != nil {
		return nil, err
	}
	return cs, nil
}
