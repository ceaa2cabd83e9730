package msgs

import "time"

// JointState holds named joint positions.
type JointState struct {
	Header   Header    `json:"header"`
	Name     []string  `json:"name"`
	Position []float64 `json:"position"`
}

// JointTrajectoryPoint is one waypoint of a joint trajectory.
type JointTrajectoryPoint struct {
	Positions     []float64     `json:"positions"`
	TimeFromStart time.Duration `json:"time_from_start"`
}

// JointTrajectory is a timed sequence of joint positions.
type JointTrajectory struct {
	Header     Header                 `json:"header"`
	JointNames []string               `json:"joint_names,omitempty"`
	Points     []JointTrajectoryPoint `json:"points,omitempty"`
}

// IsEmpty returns whether the trajectory names no joints and has no points.
func (jt JointTrajectory) IsEmpty() bool {
	return len(jt.JointNames) == 0 && len(jt.Points) == 0
}

// RobotState is a robot configuration plus the objects attached to it.
type RobotState struct {
	JointState               JointState                `json:"joint_state"`
	AttachedCollisionObjects []AttachedCollisionObject `json:"attached_collision_objects,omitempty"`
	IsDiff                   bool                      `json:"is_diff"`
}
