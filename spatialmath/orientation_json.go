package spatialmath

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// OrientationType defines what orientation representations are known.
type OrientationType string

// The set of allowed representations for orientation.
const (
	NoOrientationType            = OrientationType("")
	OrientationVectorDegreesType = OrientationType("ov_degrees")
	EulerAnglesType              = OrientationType("euler_angles")
	AxisAnglesType               = OrientationType("axis_angles")
	QuaternionType               = OrientationType("quaternion")
)

// RawOrientation holds the underlying type of orientation, and the value.
type RawOrientation struct {
	Type  OrientationType `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseOrientation will use the Type in RawOrientation to unmarshal the Value into the correct struct that implements
// Orientation. An empty type is no rotation.
func ParseOrientation(j RawOrientation) (Orientation, error) {
	var o Orientation
	switch j.Type {
	case NoOrientationType:
		return NewZeroOrientation(), nil
	case OrientationVectorDegreesType:
		o = NewOrientationVectorDegrees()
	case EulerAnglesType:
		o = &EulerAngles{}
	case AxisAnglesType:
		o = &R4AA{}
	case QuaternionType:
		var q quaternionJSON
		if err := json.Unmarshal(j.Value, &q); err != nil {
			return nil, err
		}
		return NewQuaternionFromXYZW(q.X, q.Y, q.Z, q.W), nil
	default:
		return nil, errors.Errorf("orientation type %s not recognized", j.Type)
	}
	if len(j.Value) == 0 {
		return o, nil
	}
	if err := json.Unmarshal(j.Value, o); err != nil {
		return nil, err
	}
	return o, nil
}

// OrientationMap encodes the orientation interface to something serializable and human readable.
func OrientationMap(o Orientation) (map[string]interface{}, error) {
	switch v := o.(type) {
	case *R4AA:
		return map[string]interface{}{"type": string(AxisAnglesType), "value": v}, nil
	case *OrientationVectorDegrees:
		return map[string]interface{}{"type": string(OrientationVectorDegreesType), "value": v}, nil
	case *EulerAngles:
		return map[string]interface{}{"type": string(EulerAnglesType), "value": v}, nil
	case *Quaternion:
		return map[string]interface{}{
			"type":  string(QuaternionType),
			"value": quaternionJSON{W: v.Real, X: v.Imag, Y: v.Jmag, Z: v.Kmag},
		}, nil
	default:
		return nil, errors.Errorf("do not know how to map Orientation type %T to json fields", o)
	}
}
