// Package referenceframe defines frames, the kinematic model of a robot as a tree of links connected by joints,
// and tables of named fixed transforms.
package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/planningscene/spatialmath"
)

// OOBErrString is a string that all OOB errors should contain, so that they can be checked for distinct from other Transform errors.
const OOBErrString = "input out of bounds"

// Input wraps the input to a mutable frame, e.g. a joint angle or a prismatic position.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in meters.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// Limit represents the limits of motion for a frame.
type Limit struct {
	Min float64
	Max float64
}

// Clamp returns v restricted to the limit.
func (l Limit) Clamp(v float64) float64 {
	return math.Max(l.Min, math.Min(l.Max, v))
}

// Contains returns whether v lies within the limit.
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Frame represents a reference frame, e.g. a joint or a fixed offset.
type Frame interface {
	// Name returns the name of the frame.
	Name() string

	// Transform is the pose (rotation and translation) that goes FROM current frame TO parent's frame.
	Transform([]Input) (spatial.Pose, error)

	// DoF will return a slice with length equal to the number of joints/degrees of freedom.
	// For frames that don't move, it returns an empty slice.
	DoF() []Limit
}

// a static Frame is a simple coordinate system that encodes a fixed translation and rotation
// from the current Frame to the parent frame.
type staticFrame struct {
	name      string
	transform spatial.Pose
}

// NewStaticFrame creates a frame given a pose relative to its parent. The pose is fixed for all time.
// Pose is not allowed to be nil.
func NewStaticFrame(name string, pose spatial.Pose) (Frame, error) {
	if pose == nil {
		return nil, errors.New("pose is not allowed to be nil")
	}
	return &staticFrame{name, pose}, nil
}

// NewZeroStaticFrame creates a frame with no translation or orientation changes.
func NewZeroStaticFrame(name string) Frame {
	return &staticFrame{name, spatial.NewZeroPose()}
}

// Name is the name of the frame.
func (sf *staticFrame) Name() string {
	return sf.name
}

// Transform returns the pose associated with this static frame.
func (sf *staticFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 0 {
		return nil, NewIncorrectDoFError(len(input), 0)
	}
	return sf.transform, nil
}

// DoF are the degrees of freedom of the transform. In the staticFrame, it is always 0.
func (sf *staticFrame) DoF() []Limit {
	return []Limit{}
}

// a translational Frame is a frame that can translate without rotation along one axis.
type translationalFrame struct {
	name      string
	transAxis r3.Vector
	limit     []Limit
}

// NewTranslationalFrame creates a frame given a name and the axis in which to translate.
func NewTranslationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as translation axis")
	}
	return &translationalFrame{name: name, transAxis: axis.Normalize(), limit: []Limit{limit}}, nil
}

// Name is the name of the frame.
func (pf *translationalFrame) Name() string {
	return pf.name
}

// Transform returns a pose translated by the amount specified in the inputs.
func (pf *translationalFrame) Transform(input []Input) (spatial.Pose, error) {
	var err error
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	// We allow out-of-bounds calculations, but will return a non-nil error
	if !pf.limit[0].Contains(input[0].Value) {
		err = fmt.Errorf("%.5f %s %v", input[0].Value, OOBErrString, pf.limit[0])
	}
	return spatial.NewPoseFromPoint(pf.transAxis.Mul(input[0].Value)), err
}

// DoF are the degrees of freedom of the transform.
func (pf *translationalFrame) DoF() []Limit {
	return pf.limit
}

// a rotational Frame rotates about one axis through its origin.
type rotationalFrame struct {
	name    string
	rotAxis r3.Vector
	limit   []Limit
}

// NewRotationalFrame creates a new rotationalFrame struct.
// A standard revolute joint will have 1 DoF.
func NewRotationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as rotation axis")
	}
	return &rotationalFrame{name: name, rotAxis: axis.Normalize(), limit: []Limit{limit}}, nil
}

// Name is the name of the frame.
func (rf *rotationalFrame) Name() string {
	return rf.name
}

// Transform returns the Pose representing the frame's 6DoF motion in space. Requires a slice
// of inputs that has length equal to the degrees of freedom of the frame.
func (rf *rotationalFrame) Transform(input []Input) (spatial.Pose, error) {
	var err error
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	// We allow out-of-bounds calculations, but will return a non-nil error
	if !rf.limit[0].Contains(input[0].Value) {
		err = fmt.Errorf("%.5f %s %v", input[0].Value, OOBErrString, rf.limit[0])
	}
	return spatial.NewPoseFromOrientation(&spatial.R4AA{
		Theta: input[0].Value,
		RX:    rf.rotAxis.X,
		RY:    rf.rotAxis.Y,
		RZ:    rf.rotAxis.Z,
	}), err
}

// DoF returns the number of degrees of freedom that a joint has in Euclidean space.
func (rf *rotationalFrame) DoF() []Limit {
	return rf.limit
}
