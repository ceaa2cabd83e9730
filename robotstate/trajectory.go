package robotstate

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
)

// Trajectory is an ordered list of states, each reached some duration after the previous one.
type Trajectory struct {
	model     *referenceframe.Model
	group     string
	waypoints []*State
	durations []time.Duration
}

// NewTrajectory returns an empty trajectory of model for group. An empty group means the whole robot.
func NewTrajectory(model *referenceframe.Model, group string) *Trajectory {
	return &Trajectory{model: model, group: group}
}

// Group returns the group the trajectory moves.
func (t *Trajectory) Group() string { return t.group }

// AddSuffixWayPoint appends a waypoint reached dt after the previous one.
func (t *Trajectory) AddSuffixWayPoint(s *State, dt time.Duration) *Trajectory {
	t.waypoints = append(t.waypoints, s)
	t.durations = append(t.durations, dt)
	return t
}

// WayPointCount returns the number of waypoints.
func (t *Trajectory) WayPointCount() int { return len(t.waypoints) }

// Empty returns whether there are no waypoints.
func (t *Trajectory) Empty() bool { return len(t.waypoints) == 0 }

// WayPoint returns waypoint i.
func (t *Trajectory) WayPoint(i int) *State { return t.waypoints[i] }

// FirstWayPoint returns the first waypoint, nil if empty.
func (t *Trajectory) FirstWayPoint() *State {
	if t.Empty() {
		return nil
	}
	return t.waypoints[0]
}

// LastWayPoint returns the last waypoint, nil if empty.
func (t *Trajectory) LastWayPoint() *State {
	if t.Empty() {
		return nil
	}
	return t.waypoints[len(t.waypoints)-1]
}

// WayPointDuration returns the time between waypoint i-1 and waypoint i.
func (t *Trajectory) WayPointDuration(i int) time.Duration { return t.durations[i] }

// SetFromJointTrajectory replaces the waypoints with one copy of start per trajectory point, with the named joints
// set from the point.
func (t *Trajectory) SetFromJointTrajectory(start *State, jt msgs.JointTrajectory) error {
	waypoints := make([]*State, 0, len(jt.Points))
	durations := make([]time.Duration, 0, len(jt.Points))
	var last time.Duration
	for i, pt := range jt.Points {
		if len(pt.Positions) != len(jt.JointNames) {
			return errors.Errorf("trajectory point %d has %d positions for %d joints", i, len(pt.Positions), len(jt.JointNames))
		}
		s := start.Clone()
		positions := make(map[string]float64, len(pt.Positions))
		for j, name := range jt.JointNames {
			positions[name] = pt.Positions[j]
		}
		if err := s.SetVariablePositions(positions); err != nil {
			return errors.Wrapf(err, "trajectory point %d", i)
		}
		waypoints = append(waypoints, s)
		durations = append(durations, pt.TimeFromStart-last)
		last = pt.TimeFromStart
	}
	t.waypoints = waypoints
	t.durations = durations
	return nil
}
