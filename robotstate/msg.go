package robotstate

import (
	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/shapes"
)

// AttachedBodyToMsg describes a body as an ADD request relative to its link.
func AttachedBodyToMsg(ab *AttachedBody) msgs.AttachedCollisionObject {
	aco := msgs.AttachedCollisionObject{
		LinkName:      ab.link,
		TouchLinks:    ab.TouchLinks(),
		DetachPosture: ab.detachPosture,
		Object: msgs.CollisionObject{
			Header:    msgs.Header{FrameID: ab.link},
			ID:        ab.id,
			Pose:      msgs.PoseFromSpatial(ab.pose),
			Operation: msgs.OperationAdd,
		},
	}
	for i, s := range ab.shapes {
		m, err := shapes.ToMsg(s)
		if err != nil {
			continue
		}
		aco.Object.AddShape(m, msgs.PoseFromSpatial(ab.shapePoses[i]))
	}
	for _, name := range sortedKeys(ab.subframes) {
		aco.Object.SubframeNames = append(aco.Object.SubframeNames, name)
		aco.Object.SubframePoses = append(aco.Object.SubframePoses, msgs.PoseFromSpatial(ab.subframes[name]))
	}
	return aco
}

// ToMsg returns the joint values and, if requested, the attached bodies.
func (s *State) ToMsg(copyAttachedBodies bool) msgs.RobotState {
	rs := msgs.RobotState{JointState: s.JointStateMsg()}
	if copyAttachedBodies {
		for _, ab := range s.AttachedBodies() {
			rs.AttachedCollisionObjects = append(rs.AttachedCollisionObjects, AttachedBodyToMsg(ab))
		}
	}
	return rs
}
