package robotstate

import (
	"sort"

	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// AttachedBody is geometry rigidly bound to a robot link. Shape poses and subframes are relative to the body frame,
// and the body frame is relative to the link frame.
type AttachedBody struct {
	id            string
	link          string
	pose          spatial.Pose
	shapes        []shapes.Shape
	shapePoses    []spatial.Pose
	touchLinks    map[string]struct{}
	detachPosture msgs.JointTrajectory
	subframes     map[string]spatial.Pose

	globalPose       spatial.Pose
	globalShapePoses []spatial.Pose
}

// NewAttachedBody builds a body attached to link at pose.
func NewAttachedBody(
	link, id string,
	pose spatial.Pose,
	bodyShapes []shapes.Shape,
	shapePoses []spatial.Pose,
	touchLinks []string,
	detachPosture msgs.JointTrajectory,
	subframes map[string]spatial.Pose,
) *AttachedBody {
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	ab := &AttachedBody{
		id:            id,
		link:          link,
		pose:          pose,
		shapes:        append([]shapes.Shape(nil), bodyShapes...),
		shapePoses:    append([]spatial.Pose(nil), shapePoses...),
		touchLinks:    map[string]struct{}{},
		detachPosture: detachPosture,
		subframes:     lo.Assign(subframes),
	}
	for _, l := range touchLinks {
		ab.touchLinks[l] = struct{}{}
	}
	ab.computeTransform(spatial.NewZeroPose())
	return ab
}

// Name returns the id of the body.
func (ab *AttachedBody) Name() string { return ab.id }

// AttachedLinkName returns the link the body is attached to.
func (ab *AttachedBody) AttachedLinkName() string { return ab.link }

// Pose returns the body pose in the link frame.
func (ab *AttachedBody) Pose() spatial.Pose { return ab.pose }

// Shapes returns the body geometry.
func (ab *AttachedBody) Shapes() []shapes.Shape { return ab.shapes }

// ShapePoses returns the shape poses in the body frame.
func (ab *AttachedBody) ShapePoses() []spatial.Pose { return ab.shapePoses }

// TouchLinks returns the sorted links the body may touch.
func (ab *AttachedBody) TouchLinks() []string {
	return sortedKeys(ab.touchLinks)
}

// Touches returns whether the body may touch link.
func (ab *AttachedBody) Touches(link string) bool {
	_, ok := ab.touchLinks[link]
	return ok
}

// DetachPosture returns the posture to return to when the body is released.
func (ab *AttachedBody) DetachPosture() msgs.JointTrajectory { return ab.detachPosture }

// Subframes returns a copy of the subframe poses in the body frame.
func (ab *AttachedBody) Subframes() map[string]spatial.Pose { return lo.Assign(ab.subframes) }

// GlobalPose returns the body pose in the model frame as of the last transform update.
func (ab *AttachedBody) GlobalPose() spatial.Pose { return ab.globalPose }

// GlobalCollisionBodyTransforms returns the shape poses in the model frame as of the last transform update.
func (ab *AttachedBody) GlobalCollisionBodyTransforms() []spatial.Pose { return ab.globalShapePoses }

// HasSubframe returns whether the body defines the named subframe.
func (ab *AttachedBody) HasSubframe(name string) bool {
	_, ok := ab.subframes[name]
	return ok
}

// GlobalSubframeTransform returns the pose of a subframe in the model frame.
func (ab *AttachedBody) GlobalSubframeTransform(name string) (spatial.Pose, bool) {
	p, ok := ab.subframes[name]
	if !ok {
		return nil, false
	}
	return spatial.Compose(ab.globalPose, p), true
}

func (ab *AttachedBody) computeTransform(linkGlobal spatial.Pose) {
	ab.globalPose = spatial.Compose(linkGlobal, ab.pose)
	ab.globalShapePoses = make([]spatial.Pose, len(ab.shapePoses))
	for i, p := range ab.shapePoses {
		ab.globalShapePoses[i] = spatial.Compose(ab.globalPose, p)
	}
}

// Clone returns an independent copy. Shapes are immutable and shared.
func (ab *AttachedBody) Clone() *AttachedBody {
	c := NewAttachedBody(ab.link, ab.id, ab.pose, ab.shapes, ab.shapePoses, ab.TouchLinks(), ab.detachPosture, ab.subframes)
	c.globalPose = ab.globalPose
	c.globalShapePoses = append([]spatial.Pose(nil), ab.globalShapePoses...)
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
