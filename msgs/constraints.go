package msgs

import "github.com/golang/geo/r3"

// JointConstraint bounds one joint to [Position-ToleranceBelow, Position+ToleranceAbove].
type JointConstraint struct {
	JointName      string  `json:"joint_name"`
	Position       float64 `json:"position"`
	ToleranceAbove float64 `json:"tolerance_above"`
	ToleranceBelow float64 `json:"tolerance_below"`
	Weight         float64 `json:"weight"`
}

// BoundingVolume is a union of primitives, each at a pose.
type BoundingVolume struct {
	Primitives     []SolidPrimitive `json:"primitives"`
	PrimitivePoses []Pose           `json:"primitive_poses"`
}

// PositionConstraint requires a point on a link to lie within a region.
type PositionConstraint struct {
	Header            Header         `json:"header"`
	LinkName          string         `json:"link_name"`
	TargetPointOffset r3.Vector      `json:"target_point_offset"`
	ConstraintRegion  BoundingVolume `json:"constraint_region"`
	Weight            float64        `json:"weight"`
}

// OrientationConstraint bounds the rotation of a link about each axis, as a rotation vector.
type OrientationConstraint struct {
	Header                 Header     `json:"header"`
	Orientation            Quaternion `json:"orientation"`
	LinkName               string     `json:"link_name"`
	AbsoluteXAxisTolerance float64    `json:"absolute_x_axis_tolerance"`
	AbsoluteYAxisTolerance float64    `json:"absolute_y_axis_tolerance"`
	AbsoluteZAxisTolerance float64    `json:"absolute_z_axis_tolerance"`
	Weight                 float64    `json:"weight"`
}

// Constraints is a conjunction of kinematic constraints.
type Constraints struct {
	Name                   string                  `json:"name"`
	JointConstraints       []JointConstraint       `json:"joint_constraints,omitempty"`
	PositionConstraints    []PositionConstraint    `json:"position_constraints,omitempty"`
	OrientationConstraints []OrientationConstraint `json:"orientation_constraints,omitempty"`
}

// IsEmpty returns whether there is nothing to satisfy.
func (c Constraints) IsEmpty() bool {
	return len(c.JointConstraints) == 0 && len(c.PositionConstraints) == 0 && len(c.OrientationConstraints) == 0
}
