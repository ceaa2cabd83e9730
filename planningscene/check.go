package planningscene

import (
	"sort"

	"github.com/samber/lo"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/robotstate"
)

// CheckCollision checks the current state against the world and itself using the scene ACM.
func (s *Scene) CheckCollision(req collision.Request, res *collision.Result) {
	s.CheckCollisionWith(req, res, s.CurrentState(), s.AllowedCollisionMatrix())
}

// CheckCollisionWith checks state against the world and then itself. The world check uses the padded environment
// when req.PadEnvironmentCollisions is set; the self check uses it when req.PadSelfCollisions is set. The self check is
// skipped once the world check found all the contacts it was asked for.
func (s *Scene) CheckCollisionWith(
	req collision.Request,
	res *collision.Result,
	state *robotstate.State,
	acm *collision.AllowedCollisionMatrix,
) {
	if state.DirtyCollisionBodyTransforms() {
		state.UpdateCollisionBodyTransforms()
	}
	robotEnv := s.detector.unpadded
	if req.PadEnvironmentCollisions {
		robotEnv = s.detector.padded
	}
	s.metrics.collisionCheck(checkKindRobot)
	robotEnv.CheckRobotCollision(req, res, state, acm)
	if res.Collision && (!req.Contacts || res.ContactCount >= req.MaxContacts) {
		return
	}
	s.checkSelfCollision(req, res, state, acm)
}

// CheckCollisionUnpadded checks the current state without padding against the world.
func (s *Scene) CheckCollisionUnpadded(req collision.Request, res *collision.Result) {
	s.CheckCollisionUnpaddedWith(req, res, s.CurrentState(), s.AllowedCollisionMatrix())
}

// CheckCollisionUnpaddedWith is CheckCollisionWith with environment padding turned off.
func (s *Scene) CheckCollisionUnpaddedWith(
	req collision.Request,
	res *collision.Result,
	state *robotstate.State,
	acm *collision.AllowedCollisionMatrix,
) {
	req.PadEnvironmentCollisions = false
	s.CheckCollisionWith(req, res, state, acm)
}

// CheckSelfCollision checks the current state against itself using the scene ACM.
func (s *Scene) CheckSelfCollision(req collision.Request, res *collision.Result) {
	s.CheckSelfCollisionWith(req, res, s.CurrentState(), s.AllowedCollisionMatrix())
}

// CheckSelfCollisionWith checks state against itself.
func (s *Scene) CheckSelfCollisionWith(
	req collision.Request,
	res *collision.Result,
	state *robotstate.State,
	acm *collision.AllowedCollisionMatrix,
) {
	if state.DirtyCollisionBodyTransforms() {
		state.UpdateCollisionBodyTransforms()
	}
	s.checkSelfCollision(req, res, state, acm)
}

func (s *Scene) checkSelfCollision(
	req collision.Request,
	res *collision.Result,
	state *robotstate.State,
	acm *collision.AllowedCollisionMatrix,
) {
	env := s.detector.unpadded
	if req.PadSelfCollisions {
		env = s.detector.padded
	}
	s.metrics.collisionCheck(checkKindSelf)
	env.CheckSelfCollision(req, res, state, acm)
}

// IsStateColliding returns whether state collides with the world or itself when restricted to group.
func (s *Scene) IsStateColliding(state *robotstate.State, group string, verbose bool) bool {
	req := collision.DefaultRequest()
	req.GroupName = group
	req.Verbose = verbose
	res := collision.NewResult()
	s.CheckCollisionWith(req, res, state, s.AllowedCollisionMatrix())
	return res.Collision
}

// CollidingPairs returns every contact of state restricted to group, up to one per body pair. A nil state means the
// current state and a nil acm the scene ACM.
func (s *Scene) CollidingPairs(
	state *robotstate.State,
	acm *collision.AllowedCollisionMatrix,
	group string,
) map[collision.ContactKey][]collision.Contact {
	if state == nil {
		state = s.CurrentState()
	}
	if acm == nil {
		acm = s.AllowedCollisionMatrix()
	}
	req := collision.DefaultRequest()
	req.Contacts = true
	req.MaxContacts = len(s.model.LinkNamesWithGeometry()) + 1
	req.MaxContactsPerPair = 1
	req.GroupName = group
	res := collision.NewResult()
	s.CheckCollisionWith(req, res, state, acm)
	return res.Contacts
}

// CollidingLinks returns the sorted names of the robot links in contact in state. A nil state means the current
// state and a nil acm the scene ACM.
func (s *Scene) CollidingLinks(state *robotstate.State, acm *collision.AllowedCollisionMatrix) []string {
	var links []string
	for _, contacts := range s.CollidingPairs(state, acm, "") {
		for _, c := range contacts {
			if c.BodyType1 == collision.RobotLink {
				links = append(links, c.Body1)
			}
			if c.BodyType2 == collision.RobotLink {
				links = append(links, c.Body2)
			}
		}
	}
	links = lo.Uniq(links)
	sort.Strings(links)
	return links
}
