package planningscene

import (
	"github.com/pkg/errors"

	"go.viam.com/planningscene/collision"
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/octree"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// OcTreeID is the only octomap type a scene accepts.
const OcTreeID = "OcTree"

func decodeOctomap(m msgs.Octomap) (*octree.Octree, error) {
	if m.ID != OcTreeID {
		return nil, errors.Wrapf(ErrNotOcTree, "octomap type %q", m.ID)
	}
	var (
		tree *octree.Octree
		err  error
	)
	if m.Binary {
		tree, err = octree.UnmarshalBinary(m.Resolution, m.Data)
	} else {
		tree, err = octree.UnmarshalFull(m.Resolution, m.Data)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decoding octomap: %v", err)
	}
	return tree, nil
}

// ProcessOctomapMsg replaces the occupancy map with m, placed at the origin of its header frame. An octomap without
// data only clears the current one.
func (s *Scene) ProcessOctomapMsg(m msgs.Octomap) error {
	return s.processOctomap(m.Header.FrameID, msgs.Pose{}, m)
}

// ProcessOctomapWithPoseMsg replaces the occupancy map with m. An octomap without data only clears the current one.
func (s *Scene) ProcessOctomapWithPoseMsg(m msgs.OctomapWithPose) error {
	return s.processOctomap(m.Header.FrameID, m.Origin, m.Octomap)
}

func (s *Scene) processOctomap(frame string, origin msgs.Pose, m msgs.Octomap) error {
	s.world.RemoveObject(OctomapNS)
	if len(m.Data) == 0 {
		return s.metrics.mutation("octomap", nil)
	}
	err := func() error {
		tree, err := decodeOctomap(m)
		if err != nil {
			return err
		}
		header, err := s.FrameTransform(frame)
		if err != nil {
			return errors.Wrap(err, "octomap")
		}
		s.addOctomap(tree, spatial.Compose(header, origin.ToPose()))
		return nil
	}()
	if err != nil {
		s.logger.Errorw("octomap not processed", "error", err)
	}
	return s.metrics.mutation("octomap", err)
}

// addOctomap stores the tree as the only shape of the octomap object. The pose is the shape pose; the object itself
// stays at the origin.
func (s *Scene) addOctomap(tree *octree.Octree, pose spatial.Pose) {
	s.world.AddToObject(OctomapNS, spatial.NewZeroPose(), []shapes.Shape{shapes.NewOcTree(tree)}, []spatial.Pose{pose})
}

// ProcessOctomap places tree at pose as the occupancy map. Submitting the tree already in place only moves it, or
// marks it changed when the pose is the same too.
func (s *Scene) ProcessOctomap(tree *octree.Octree, pose spatial.Pose) {
	if obj, ok := s.world.Object(OctomapNS); ok && len(obj.Shapes) == 1 {
		if o, ok := obj.Shapes[0].(*shapes.OcTree); ok && o.Tree == tree {
			if spatial.PoseAlmostEqualEps(obj.ShapePoses[0], pose, 1e-12) {
				if s.worldDiff != nil {
					s.worldDiff.Set(OctomapNS, collision.ActionDestroy|collision.ActionCreate|collision.ActionAddShape)
				}
			} else {
				s.world.MoveShapeInObject(OctomapNS, obj.Shapes[0], pose)
			}
			return
		}
	}
	s.world.RemoveObject(OctomapNS)
	s.addOctomap(tree, pose)
}

// Octomap returns the occupancy tree and its pose, if there is one.
func (s *Scene) Octomap() (*octree.Octree, spatial.Pose, bool) {
	obj, ok := s.world.Object(OctomapNS)
	if !ok || len(obj.Shapes) != 1 {
		return nil, nil, false
	}
	o, ok := obj.Shapes[0].(*shapes.OcTree)
	if !ok {
		return nil, nil, false
	}
	return o.Tree, spatial.Compose(obj.Pose, obj.ShapePoses[0]), true
}

// OctomapMsg describes the occupancy map in full encoding, in the planning frame.
func (s *Scene) OctomapMsg() (msgs.OctomapWithPose, bool) {
	out := msgs.OctomapWithPose{Header: msgs.Header{FrameID: s.PlanningFrame()}}
	obj, ok := s.world.Object(OctomapNS)
	if !ok {
		return out, false
	}
	tree, pose, ok := s.Octomap()
	if !ok {
		s.logger.Errorw("octomap object does not hold exactly one occupancy tree, not describing it",
			"shapes", len(obj.Shapes))
		return out, false
	}
	data, err := tree.MarshalFull()
	if err != nil {
		s.logger.Errorw("cannot encode octomap", "error", err)
		return out, false
	}
	out.Octomap = msgs.Octomap{
		Header:     msgs.Header{FrameID: s.PlanningFrame()},
		ID:         OcTreeID,
		Resolution: tree.Resolution(),
		Data:       data,
	}
	out.Origin = msgs.PoseFromSpatial(pose)
	return out, true
}
