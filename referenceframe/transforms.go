package referenceframe

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	spatial "go.viam.com/planningscene/spatialmath"
)

// Transforms is a table of frames fixed relative to a target frame.
type Transforms struct {
	target string
	table  map[string]spatial.Pose
}

// NewTransforms returns a table that knows only the target frame.
func NewTransforms(target string) *Transforms {
	return &Transforms{target: target, table: map[string]spatial.Pose{}}
}

// StripFrame removes the leading slash some producers put in front of frame names.
func StripFrame(frame string) string {
	return strings.TrimPrefix(frame, "/")
}

// TargetFrame returns the frame every stored transform is expressed in.
func (t *Transforms) TargetFrame() string {
	return t.target
}

// IsFixedFrame returns whether frame is the target or has a stored transform.
func (t *Transforms) IsFixedFrame(frame string) bool {
	frame = StripFrame(frame)
	if frame == t.target {
		return true
	}
	_, ok := t.table[frame]
	return ok
}

// Transform returns the pose of frame in the target frame.
func (t *Transforms) Transform(frame string) (spatial.Pose, error) {
	frame = StripFrame(frame)
	if frame == t.target {
		return spatial.NewZeroPose(), nil
	}
	p, ok := t.table[frame]
	if !ok {
		return nil, NewFrameMissingError(frame)
	}
	return p, nil
}

// SetTransform stores the pose of frame in the target frame.
func (t *Transforms) SetTransform(frame string, pose spatial.Pose) {
	frame = StripFrame(frame)
	if frame == t.target {
		return
	}
	t.table[frame] = pose
}

// SetTransformMsg stores a stamped transform. Its parent must be the target or an already known frame.
func (t *Transforms) SetTransformMsg(ts msgs.TransformStamped) error {
	parent, err := t.Transform(ts.Header.FrameID)
	if err != nil {
		return errors.Wrapf(err, "transform for %q", ts.ChildFrameID)
	}
	t.SetTransform(ts.ChildFrameID, spatial.Compose(parent, ts.Transform.ToPose()))
	return nil
}

// SetTransformMsgs stores a list of stamped transforms, stopping at the first failure.
func (t *Transforms) SetTransformMsgs(list []msgs.TransformStamped) error {
	for _, ts := range list {
		if err := t.SetTransformMsg(ts); err != nil {
			return err
		}
	}
	return nil
}

// FrameNames returns the sorted names of the stored frames.
func (t *Transforms) FrameNames() []string {
	names := lo.Keys(t.table)
	sort.Strings(names)
	return names
}

// ToMsgs returns every stored transform, sorted by frame name.
func (t *Transforms) ToMsgs() []msgs.TransformStamped {
	out := make([]msgs.TransformStamped, 0, len(t.table))
	for _, name := range t.FrameNames() {
		out = append(out, msgs.TransformStamped{
			Header:       msgs.Header{FrameID: t.target},
			ChildFrameID: name,
			Transform:    msgs.PoseFromSpatial(t.table[name]),
		})
	}
	return out
}

// Clone returns an independent copy.
func (t *Transforms) Clone() *Transforms {
	return &Transforms{target: t.target, table: lo.Assign(t.table)}
}
