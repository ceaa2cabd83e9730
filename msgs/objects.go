package msgs

// Operation is the mutation a collision object message requests.
type Operation uint8

// Collision object operations.
const (
	OperationAdd Operation = iota
	OperationRemove
	OperationAppend
	OperationMove
)

func (op Operation) String() string {
	switch op {
	case OperationAdd:
		return "ADD"
	case OperationRemove:
		return "REMOVE"
	case OperationAppend:
		return "APPEND"
	case OperationMove:
		return "MOVE"
	default:
		return "UNKNOWN"
	}
}

// ObjectType identifies what an object is, as recognized by some database.
type ObjectType struct {
	Key string `json:"key"`
	DB  string `json:"db"`
}

// IsEmpty returns whether neither field is set.
func (t ObjectType) IsEmpty() bool {
	return t.Key == "" && t.DB == ""
}

// CollisionObject adds, removes, appends to or moves an object of the collision world.
type CollisionObject struct {
	Header         Header           `json:"header"`
	Pose           Pose             `json:"pose"`
	ID             string           `json:"id"`
	Type           ObjectType       `json:"type"`
	Primitives     []SolidPrimitive `json:"primitives,omitempty"`
	PrimitivePoses []Pose           `json:"primitive_poses,omitempty"`
	Meshes         []Mesh           `json:"meshes,omitempty"`
	MeshPoses      []Pose           `json:"mesh_poses,omitempty"`
	Planes         []Plane          `json:"planes,omitempty"`
	PlanePoses     []Pose           `json:"plane_poses,omitempty"`
	SubframeNames  []string         `json:"subframe_names,omitempty"`
	SubframePoses  []Pose           `json:"subframe_poses,omitempty"`
	Operation      Operation        `json:"operation"`
}

// NumShapes returns the number of primitives, meshes and planes in the message.
func (co *CollisionObject) NumShapes() int {
	return len(co.Primitives) + len(co.Meshes) + len(co.Planes)
}

// AddShape appends a shape and its pose to the matching list.
func (co *CollisionObject) AddShape(s Shape, pose Pose) {
	switch v := s.(type) {
	case *SolidPrimitive:
		co.Primitives = append(co.Primitives, *v)
		co.PrimitivePoses = append(co.PrimitivePoses, pose)
	case *Mesh:
		co.Meshes = append(co.Meshes, *v)
		co.MeshPoses = append(co.MeshPoses, pose)
	case *Plane:
		co.Planes = append(co.Planes, *v)
		co.PlanePoses = append(co.PlanePoses, pose)
	}
}

// AttachedCollisionObject attaches an object to, or detaches it from, a robot link.
type AttachedCollisionObject struct {
	LinkName      string          `json:"link_name"`
	Object        CollisionObject `json:"object"`
	TouchLinks    []string        `json:"touch_links,omitempty"`
	DetachPosture JointTrajectory `json:"detach_posture"`
	Weight        float64         `json:"weight,omitempty"`
}

// ObjectColor assigns a display color to an object id.
type ObjectColor struct {
	ID    string    `json:"id"`
	Color ColorRGBA `json:"color"`
}
