package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// ModelConfigJSON represents all supported fields in a kinematics JSON file.
type ModelConfigJSON struct {
	Name               string              `json:"name"`
	Links              []LinkConfig        `json:"links"`
	Groups             map[string][]string `json:"groups,omitempty"`
	DisabledCollisions [][2]string         `json:"disabled_collisions,omitempty"`
}

// LinkConfig describes one link, the joint attaching it to its parent and its collision geometry.
type LinkConfig struct {
	ID          string                  `json:"id"`
	Parent      string                  `json:"parent,omitempty"`
	Translation r3.Vector               `json:"translation"`
	Orientation *spatial.RawOrientation `json:"orientation,omitempty"`
	Joint       *JointConfig            `json:"joint,omitempty"`
	Geometry    []GeometryConfig        `json:"geometry,omitempty"`
}

// JointConfig describes a joint. Type is one of fixed, revolute or prismatic.
type JointConfig struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Axis    r3.Vector `json:"axis"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	Default float64   `json:"default,omitempty"`
}

// GeometryConfig describes one collision shape of a link. Boxes use X, Y, Z; spheres R; cylinders and cones R and L.
type GeometryConfig struct {
	Type        string                  `json:"type"`
	X           float64                 `json:"x,omitempty"`
	Y           float64                 `json:"y,omitempty"`
	Z           float64                 `json:"z,omitempty"`
	R           float64                 `json:"r,omitempty"`
	L           float64                 `json:"l,omitempty"`
	Translation r3.Vector               `json:"translation"`
	Orientation *spatial.RawOrientation `json:"orientation,omitempty"`
}

// Joint types.
const (
	FixedJoint     = "fixed"
	RevoluteJoint  = "revolute"
	PrismaticJoint = "prismatic"
)

// UnmarshalModelJSON will parse the given JSON data into a kinematics model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Model, error) {
	// empty data probably means that there is no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	m := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return m.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a full Model with the name modelName.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	links := make([]*Link, 0, len(cfg.Links))
	for _, lc := range cfg.Links {
		l, err := lc.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "link %q", lc.ID)
		}
		links = append(links, l)
	}
	return NewModel(modelName, links, cfg.Groups, cfg.DisabledCollisions)
}

func parsePose(translation r3.Vector, ro *spatial.RawOrientation) (spatial.Pose, error) {
	if ro == nil {
		return spatial.NewPoseFromPoint(translation), nil
	}
	o, err := spatial.ParseOrientation(*ro)
	if err != nil {
		return nil, err
	}
	return spatial.NewPose(translation, o), nil
}

// ParseConfig converts a LinkConfig into a Link.
func (lc *LinkConfig) ParseConfig() (*Link, error) {
	origin, err := parsePose(lc.Translation, lc.Orientation)
	if err != nil {
		return nil, err
	}
	var geometry []CollisionShape
	for i, gc := range lc.Geometry {
		cs, err := gc.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "geometry %d", i)
		}
		geometry = append(geometry, cs)
	}
	var joint Frame
	if lc.Joint != nil {
		joint, err = lc.Joint.ToFrame(lc.ID)
		if err != nil {
			return nil, err
		}
	}
	l := NewLink(lc.ID, lc.Parent, origin, joint, geometry...)
	if lc.Joint != nil {
		l.SetDefaultPosition(lc.Joint.Default)
	}
	return l, nil
}

// ToFrame converts a JointConfig into a joint frame. Fixed joints yield a nil frame. Unnamed joints are named after
// their link.
func (jc *JointConfig) ToFrame(linkID string) (Frame, error) {
	id := jc.ID
	if id == "" {
		id = linkID + "_joint"
	}
	limit := Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	if jc.Min != nil {
		limit.Min = *jc.Min
	}
	if jc.Max != nil {
		limit.Max = *jc.Max
	}
	if limit.Min > limit.Max {
		return nil, errors.Errorf("joint %q has min %v above max %v", id, limit.Min, limit.Max)
	}
	switch jc.Type {
	case FixedJoint, "":
		return nil, nil
	case RevoluteJoint:
		return NewRotationalFrame(id, jc.Axis, limit)
	case PrismaticJoint:
		return NewTranslationalFrame(id, jc.Axis, limit)
	default:
		return nil, errors.Errorf("unsupported joint type %q", jc.Type)
	}
}

// ParseConfig converts a GeometryConfig into a collision shape.
func (gc *GeometryConfig) ParseConfig() (CollisionShape, error) {
	pose, err := parsePose(gc.Translation, gc.Orientation)
	if err != nil {
		return CollisionShape{}, err
	}
	var s shapes.Shape
	switch shapes.Kind(gc.Type) {
	case shapes.KindBox:
		s = shapes.NewBox(gc.X, gc.Y, gc.Z)
	case shapes.KindSphere:
		s = shapes.NewSphere(gc.R)
	case shapes.KindCylinder:
		s = shapes.NewCylinder(gc.R, gc.L)
	case shapes.KindCone:
		s = shapes.NewCone(gc.R, gc.L)
	default:
		return CollisionShape{}, errors.Errorf("unsupported geometry type %q", gc.Type)
	}
	return CollisionShape{Shape: s, Pose: pose}, nil
}
