package referenceframe

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// World is the reserved name of the frame every model hangs from.
const World = "world"

// CollisionShape is a piece of link geometry placed relative to the link frame.
type CollisionShape struct {
	Shape shapes.Shape
	Pose  spatial.Pose
}

// Link is one rigid body of a model. Its frame is reached from the parent link frame through Origin and then through
// the joint, if the link is not fixed to its parent.
type Link struct {
	name       string
	parent     string
	origin     spatial.Pose
	joint      Frame
	defaultPos float64
	geometry   []CollisionShape
	children   []string
}

// NewLink builds a link. A nil joint fixes the link to its parent; a nil origin is the identity.
func NewLink(name, parent string, origin spatial.Pose, joint Frame, geometry ...CollisionShape) *Link {
	if origin == nil {
		origin = spatial.NewZeroPose()
	}
	l := &Link{name: name, parent: parent, origin: origin, joint: joint, geometry: geometry}
	l.SetDefaultPosition(0)
	return l
}

// SetDefaultPosition sets the joint value used when none is given, clamped into the joint limit.
func (l *Link) SetDefaultPosition(v float64) *Link {
	if l.joint != nil {
		v = l.joint.DoF()[0].Clamp(v)
	}
	l.defaultPos = v
	return l
}

// Name returns the name of the link.
func (l *Link) Name() string { return l.name }

// Parent returns the parent link name, empty for the root.
func (l *Link) Parent() string { return l.parent }

// Origin returns the fixed offset from the parent link frame to the joint frame.
func (l *Link) Origin() spatial.Pose { return l.origin }

// Joint returns the joint frame, nil for fixed links.
func (l *Link) Joint() Frame { return l.joint }

// JointName returns the name of the joint moving this link, empty for fixed links.
func (l *Link) JointName() string {
	if l.joint == nil {
		return ""
	}
	return l.joint.Name()
}

// DefaultPosition returns the joint value used when none is given.
func (l *Link) DefaultPosition() float64 { return l.defaultPos }

// Geometry returns the collision shapes of the link.
func (l *Link) Geometry() []CollisionShape { return l.geometry }

// Children returns the names of the child links.
func (l *Link) Children() []string { return l.children }

// Model is the kinematic tree of a robot.
type Model struct {
	name     string
	root     string
	links    []*Link
	byName   map[string]*Link
	joints   map[string]*Link
	jointIDs []string
	groups   map[string][]string
	disabled [][2]string
}

// NewModel assembles links into a tree. Exactly one link must have no parent. groups maps a group name to the links it
// contains, disabled lists link pairs that never need collision checking against each other.
func NewModel(name string, links []*Link, groups map[string][]string, disabled [][2]string) (*Model, error) {
	m := &Model{
		name:   name,
		byName: map[string]*Link{},
		joints: map[string]*Link{},
		groups: map[string][]string{},
	}
	if len(links) == 0 {
		return nil, ErrNoModelInformation
	}
	for _, l := range links {
		if l.name == "" {
			return nil, errors.New("links must be named")
		}
		if l.name == World {
			return nil, NewReservedWordError("link", World)
		}
		if _, ok := m.byName[l.name]; ok {
			return nil, errors.Errorf("duplicate link %q", l.name)
		}
		m.byName[l.name] = l
		l.children = nil
	}
	var roots []string
	for _, l := range links {
		if l.parent == "" {
			roots = append(roots, l.name)
			continue
		}
		parent, ok := m.byName[l.parent]
		if !ok {
			return nil, errors.Wrapf(NewUnknownLinkError(name, l.parent), "parent of link %q", l.name)
		}
		parent.children = append(parent.children, l.name)
		if j := l.JointName(); j != "" {
			if _, dup := m.joints[j]; dup {
				return nil, errors.Errorf("duplicate joint %q", j)
			}
			m.joints[j] = l
		}
	}
	if len(roots) != 1 {
		return nil, errors.Errorf("model %q needs exactly one root link, have %v", name, roots)
	}
	m.root = roots[0]

	// breadth first so parents always precede children
	queue := []string{m.root}
	for len(queue) > 0 {
		l := m.byName[queue[0]]
		queue = queue[1:]
		m.links = append(m.links, l)
		if j := l.JointName(); j != "" {
			m.jointIDs = append(m.jointIDs, j)
		}
		queue = append(queue, l.children...)
	}
	if len(m.links) != len(links) {
		return nil, ErrCircularReference
	}

	for group, members := range groups {
		for _, member := range members {
			if _, ok := m.byName[member]; !ok {
				return nil, errors.Wrapf(NewUnknownLinkError(name, member), "group %q", group)
			}
		}
		m.groups[group] = append([]string(nil), members...)
	}
	for _, pair := range disabled {
		for _, member := range pair {
			if _, ok := m.byName[member]; !ok {
				return nil, errors.Wrap(NewUnknownLinkError(name, member), "disabled collision pair")
			}
		}
		m.disabled = append(m.disabled, pair)
	}
	return m, nil
}

// Name returns the name of the model.
func (m *Model) Name() string { return m.name }

// ModelFrame returns the frame every link transform is expressed in: the root link.
func (m *Model) ModelFrame() string { return m.root }

// Links returns the links, parents before children.
func (m *Model) Links() []*Link { return m.links }

// Link returns the named link.
func (m *Model) Link(name string) (*Link, bool) {
	l, ok := m.byName[strings.TrimPrefix(name, "/")]
	return l, ok
}

// HasLink returns whether the model has the named link.
func (m *Model) HasLink(name string) bool {
	_, ok := m.Link(name)
	return ok
}

// LinkNames returns every link name, parents before children.
func (m *Model) LinkNames() []string {
	return lo.Map(m.links, func(l *Link, _ int) string { return l.name })
}

// LinkNamesWithGeometry returns the links that have collision shapes.
func (m *Model) LinkNamesWithGeometry() []string {
	withGeometry := lo.Filter(m.links, func(l *Link, _ int) bool { return len(l.geometry) > 0 })
	return lo.Map(withGeometry, func(l *Link, _ int) string { return l.name })
}

// JointNames returns the movable joints in tree order.
func (m *Model) JointNames() []string { return m.jointIDs }

// HasJoint returns whether the model has the named movable joint.
func (m *Model) HasJoint(name string) bool {
	_, ok := m.joints[name]
	return ok
}

// JointLimit returns the limit of the named joint.
func (m *Model) JointLimit(name string) (Limit, bool) {
	l, ok := m.joints[name]
	if !ok {
		return Limit{}, false
	}
	return l.joint.DoF()[0], true
}

// DefaultPositions returns the default value of every joint.
func (m *Model) DefaultPositions() map[string]float64 {
	out := make(map[string]float64, len(m.joints))
	for j, l := range m.joints {
		out[j] = l.defaultPos
	}
	return out
}

// Group returns the links of a named group.
func (m *Model) Group(name string) ([]string, bool) {
	g, ok := m.groups[name]
	return g, ok
}

// GroupNames returns the sorted group names.
func (m *Model) GroupNames() []string {
	names := lo.Keys(m.groups)
	sort.Strings(names)
	return names
}

// DisabledCollisionPairs returns link pairs that never need to be checked against each other.
func (m *Model) DisabledCollisionPairs() [][2]string { return m.disabled }

// ComputeLinkTransforms returns the pose of every link in the model frame. Joints missing from positions take their
// default value. Out of bounds values are used as given.
func (m *Model) ComputeLinkTransforms(positions map[string]float64) (map[string]spatial.Pose, error) {
	out := make(map[string]spatial.Pose, len(m.links))
	for _, l := range m.links {
		if l.parent == "" {
			out[l.name] = spatial.NewZeroPose()
			continue
		}
		local := l.origin
		if l.joint != nil {
			v, ok := positions[l.joint.Name()]
			if !ok {
				v = l.defaultPos
			}
			jp, err := l.joint.Transform([]Input{{v}})
			if jp == nil {
				return nil, errors.Wrapf(err, "joint %q", l.joint.Name())
			}
			local = spatial.Compose(l.origin, jp)
		}
		out[l.name] = spatial.Compose(out[l.parent], local)
	}
	return out, nil
}

// DescendantLinks returns the named link and every link below it.
func (m *Model) DescendantLinks(name string) []string {
	l, ok := m.Link(name)
	if !ok {
		return nil
	}
	out := []string{l.name}
	for _, c := range l.children {
		out = append(out, m.DescendantLinks(c)...)
	}
	return out
}
