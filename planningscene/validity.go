package planningscene

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/kinematicconstraints"
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/robotstate"
)

// IsStateFeasible runs the state feasibility predicate. Without one every state is feasible.
func (s *Scene) IsStateFeasible(state *robotstate.State, verbose bool) bool {
	if s.stateFeasible == nil {
		return true
	}
	return s.stateFeasible(state, verbose)
}

// IsMotionFeasible runs the motion feasibility predicate. Without one every motion is feasible.
func (s *Scene) IsMotionFeasible(from, to *robotstate.State, verbose bool) bool {
	if s.motionFeasible == nil {
		return true
	}
	return s.motionFeasible(from, to, verbose)
}

// constraintSet builds a constraint set, keeping the constraints that could be built.
func (s *Scene) constraintSet(m msgs.Constraints) *kinematicconstraints.ConstraintSet {
	cs := kinematicconstraints.NewConstraintSet(s.model)
	if err := cs.Add(m, s); err != nil {
		s.logger.Warnw("some constraints were ignored", "constraints", m.Name, "error", err)
	}
	return cs
}

// IsStateConstrained returns whether state satisfies every constraint of m. No constraints are always satisfied.
func (s *Scene) IsStateConstrained(state *robotstate.State, m msgs.Constraints, verbose bool) bool {
	return s.IsStateConstrainedBy(state, s.constraintSet(m), verbose)
}

// IsStateConstrainedBy returns whether state satisfies cs.
func (s *Scene) IsStateConstrainedBy(state *robotstate.State, cs *kinematicconstraints.ConstraintSet, verbose bool) bool {
	if cs.Empty() {
		return true
	}
	ok, dist := cs.Decide(state)
	if !ok && verbose {
		s.logger.Infow("state violates constraints", "distance", dist, "constraints", cs.Constraints())
	}
	return ok
}

// IsStateValid returns whether state is free of collisions in group, feasible and within m, checked in that order.
func (s *Scene) IsStateValid(state *robotstate.State, m msgs.Constraints, group string, verbose bool) bool {
	if s.IsStateColliding(state, group, verbose) {
		return false
	}
	if !s.IsStateFeasible(state, verbose) {
		return false
	}
	return s.IsStateConstrained(state, m, verbose)
}

// IsPathValid checks every waypoint of traj like IsStateValid does, with pathConstraints as the constraints. The
// last waypoint must also satisfy at least one of goalConstraints, if any are given. With a nil invalidIndex the
// check stops at the first invalid waypoint; otherwise the index of every invalid waypoint is appended to it, and
// the last index once more if the goal is not met.
func (s *Scene) IsPathValid(
	traj *robotstate.Trajectory,
	pathConstraints msgs.Constraints,
	goalConstraints []msgs.Constraints,
	group string,
	verbose bool,
	invalidIndex *[]int,
) bool {
	if invalidIndex != nil {
		*invalidIndex = (*invalidIndex)[:0]
	}
	path := s.constraintSet(pathConstraints)
	valid := true
	n := traj.WayPointCount()
	for i := 0; i < n; i++ {
		st := traj.WayPoint(i)
		stateValid := !s.IsStateColliding(st, group, verbose) &&
			s.IsStateFeasible(st, verbose) &&
			s.IsStateConstrainedBy(st, path, verbose)
		if !stateValid {
			if invalidIndex == nil {
				return false
			}
			*invalidIndex = append(*invalidIndex, i)
			valid = false
		}

		if i == n-1 && len(goalConstraints) > 0 {
			reached := lo.ContainsBy(goalConstraints, func(g msgs.Constraints) bool {
				return s.IsStateConstrained(st, g, verbose)
			})
			if !reached {
				if verbose {
					s.logger.Info("goal not satisfied")
				}
				if invalidIndex != nil {
					*invalidIndex = append(*invalidIndex, i)
				}
				valid = false
			}
		}
	}
	return valid
}

// IsPathValidMsg builds a trajectory for group from start and a joint trajectory and checks it with IsPathValid.
func (s *Scene) IsPathValidMsg(
	start msgs.RobotState,
	jt msgs.JointTrajectory,
	pathConstraints msgs.Constraints,
	goalConstraints []msgs.Constraints,
	group string,
	verbose bool,
	invalidIndex *[]int,
) (bool, error) {
	startState, err := s.CurrentStateUpdated(start)
	if err != nil {
		return false, errors.Wrap(err, "path start state")
	}
	traj := robotstate.NewTrajectory(s.model, group)
	if err := traj.SetFromJointTrajectory(startState, jt); err != nil {
		return false, errors.Wrapf(ErrMalformed, "path: %v", err)
	}
	return s.IsPathValid(traj, pathConstraints, goalConstraints, group, verbose, invalidIndex), nil
}

// StateCostSources returns the costliest collision regions of state in group, at most maxCosts of them.
func (s *Scene) StateCostSources(state *robotstate.State, maxCosts int, group string) []collision.CostSource {
	req := collision.DefaultRequest()
	req.Cost = true
	req.MaxCostSources = maxCosts
	req.GroupName = group
	res := collision.NewResult()
	s.CheckCollisionWith(req, res, state, s.AllowedCollisionMatrix())
	return res.CostSources
}

// CostSources gathers the collision regions of every waypoint of traj, keeps the maxCosts costliest, then drops
// those already present at the start and those overlapping a costlier one by at least overlapFraction of their
// volume.
func (s *Scene) CostSources(
	traj *robotstate.Trajectory,
	maxCosts int,
	group string,
	overlapFraction float64,
) []collision.CostSource {
	var all, start []collision.CostSource
	for i := 0; i < traj.WayPointCount(); i++ {
		sources := s.StateCostSources(traj.WayPoint(i), maxCosts, group)
		all = append(all, sources...)
		if i == 0 {
			start = sources
		}
	}
	all = lo.Uniq(all)
	collision.SortCostSources(all)
	if len(all) > maxCosts {
		all = all[:maxCosts]
	}
	all = collision.RemoveCostSources(all, start, overlapFraction)
	return collision.RemoveOverlapping(all, overlapFraction)
}
