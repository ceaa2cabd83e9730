package msgs

// AllowedCollisionEntry is one row of an allowed collision matrix message.
type AllowedCollisionEntry struct {
	Enabled []bool `json:"enabled"`
}

// AllowedCollisionMatrix is the message form of a collision matrix: a square table over EntryNames plus a default
// per name.
type AllowedCollisionMatrix struct {
	EntryNames         []string                `json:"entry_names"`
	EntryValues        []AllowedCollisionEntry `json:"entry_values"`
	DefaultEntryNames  []string                `json:"default_entry_names,omitempty"`
	DefaultEntryValues []bool                  `json:"default_entry_values,omitempty"`
}

// LinkPadding is the padding applied to one link.
type LinkPadding struct {
	LinkName string  `json:"link_name"`
	Padding  float64 `json:"padding"`
}

// LinkScale is the scale applied to one link.
type LinkScale struct {
	LinkName string  `json:"link_name"`
	Scale    float64 `json:"scale"`
}

// Octomap is a serialized occupancy tree. Binary trees only carry occupied and free voxels.
type Octomap struct {
	Header     Header  `json:"header"`
	Binary     bool    `json:"binary"`
	ID         string  `json:"id"`
	Resolution float64 `json:"resolution"`
	Data       []byte  `json:"data,omitempty"`
}

// OctomapWithPose is an occupancy tree placed at Origin in Header.FrameID.
type OctomapWithPose struct {
	Header  Header  `json:"header"`
	Origin  Pose    `json:"origin"`
	Octomap Octomap `json:"octomap"`
}

// PlanningSceneWorld is the collision world part of a scene message.
type PlanningSceneWorld struct {
	CollisionObjects []CollisionObject `json:"collision_objects,omitempty"`
	Octomap          OctomapWithPose   `json:"octomap"`
}

// PlanningScene is a complete scene, or the difference to apply to one when IsDiff is set.
type PlanningScene struct {
	Name                   string                 `json:"name"`
	RobotState             RobotState             `json:"robot_state"`
	RobotModelName         string                 `json:"robot_model_name"`
	FixedFrameTransforms   []TransformStamped     `json:"fixed_frame_transforms,omitempty"`
	AllowedCollisionMatrix AllowedCollisionMatrix `json:"allowed_collision_matrix"`
	LinkPadding            []LinkPadding          `json:"link_padding,omitempty"`
	LinkScale              []LinkScale            `json:"link_scale,omitempty"`
	ObjectColors           []ObjectColor          `json:"object_colors,omitempty"`
	World                  PlanningSceneWorld     `json:"world"`
	IsDiff                 bool                   `json:"is_diff"`
}

// PlanningSceneComponents selects which parts of a scene to export.
type PlanningSceneComponents uint32

// Scene components.
const (
	ComponentSceneSettings PlanningSceneComponents = 1 << iota
	ComponentRobotState
	ComponentRobotStateAttachedObjects
	ComponentWorldObjectNames
	ComponentWorldObjectGeometry
	ComponentOctomap
	ComponentTransforms
	ComponentAllowedCollisionMatrix
	ComponentLinkPaddingAndScaling
	ComponentObjectColors
)

// Has returns whether every bit of c is set.
func (p PlanningSceneComponents) Has(c PlanningSceneComponents) bool {
	return p&c == c
}
