package collision

import (
	"github.com/samber/lo"

	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
	spatial "go.viam.com/planningscene/spatialmath"
)

// BoundingAllocatorName is the registry name of the bounding volume back end.
const BoundingAllocatorName = "bounding"

func init() {
	RegisterAllocator(NewBoundingAllocator())
}

type boundingAllocator struct{}

// NewBoundingAllocator returns the allocator of the bounding volume back end. Boxes and spheres are checked exactly,
// cylinders, cones and meshes by their oriented bounding box, planes as half spaces and occupancy trees as one box
// per occupied voxel.
func NewBoundingAllocator() Allocator {
	return boundingAllocator{}
}

func (boundingAllocator) Name() string { return BoundingAllocatorName }

func (boundingAllocator) AllocateEnv(world *World, model *referenceframe.Model) Env {
	return &boundingEnv{linkParams: newLinkParams(model), world: world}
}

func (boundingAllocator) AllocateEnvFrom(env Env, world *World) Env {
	e := &boundingEnv{linkParams: newLinkParams(env.Model()), world: world}
	e.SetLinkPadding(env.LinkPadding())
	e.SetLinkScale(env.LinkScale())
	return e
}

type boundingEnv struct {
	linkParams
	world *World
}

// body is one named collision entity.
type body struct {
	name    string
	kind    BodyType
	link    string
	inGroup bool
	touches func(link string) bool
	volumes []spatial.Geometry
	planes  []halfSpace
}

func (b *body) add(vols []spatial.Geometry, planes []halfSpace) {
	b.volumes = append(b.volumes, vols...)
	b.planes = append(b.planes, planes...)
}

func (b *body) empty() bool {
	return len(b.volumes) == 0 && len(b.planes) == 0
}

func (e *boundingEnv) World() *World { return e.world }

func (e *boundingEnv) robotBodies(req Request, state *robotstate.State, padded bool) []*body {
	// no-op unless joint values changed since the last update
	state.UpdateCollisionBodyTransforms()
	var group map[string]bool
	if req.GroupName != "" {
		if links, ok := e.model.Group(req.GroupName); ok {
			group = lo.SliceToMap(links, func(l string) (string, bool) { return l, true })
		}
	}
	inGroup := func(link string) bool { return group == nil || group[link] }
	params := func(link string) (float64, float64) {
		pad := 0.
		if padded {
			pad = e.paddingFor(link)
		}
		return e.scaleFor(link), pad
	}

	var bodies []*body
	for _, link := range e.model.Links() {
		if len(link.Geometry()) == 0 {
			continue
		}
		tf, err := state.GlobalLinkTransform(link.Name())
		if err != nil {
			continue
		}
		b := &body{name: link.Name(), kind: RobotLink, link: link.Name(), inGroup: inGroup(link.Name())}
		scale, pad := params(link.Name())
		for _, g := range link.Geometry() {
			b.add(shapeVolumes(g.Shape, spatial.Compose(tf, g.Pose), scale, pad))
		}
		bodies = append(bodies, b)
	}
	for _, ab := range state.AttachedBodies() {
		b := &body{
			name:    ab.Name(),
			kind:    RobotAttached,
			link:    ab.AttachedLinkName(),
			inGroup: inGroup(ab.AttachedLinkName()),
			touches: ab.Touches,
		}
		scale, pad := params(ab.AttachedLinkName())
		poses := ab.GlobalCollisionBodyTransforms()
		for i, s := range ab.Shapes() {
			if i < len(poses) {
				b.add(shapeVolumes(s, poses[i], scale, pad))
			}
		}
		if !b.empty() {
			bodies = append(bodies, b)
		}
	}
	return bodies
}

func (e *boundingEnv) worldBodies() []*body {
	var bodies []*body
	for _, id := range e.world.ObjectIDs() {
		obj, _ := e.world.Object(id)
		b := &body{name: id, kind: WorldObject}
		for i, s := range obj.Shapes {
			b.add(shapeVolumes(s, obj.GlobalShapePoses[i], 1, 0))
		}
		if !b.empty() {
			bodies = append(bodies, b)
		}
	}
	return bodies
}

// CheckRobotCollision checks robot bodies, padded when the request asks for it, against every world object.
func (e *boundingEnv) CheckRobotCollision(req Request, res *Result, state *robotstate.State, acm *AllowedCollisionMatrix) {
	robot := e.robotBodies(req, state, req.PadEnvironmentCollisions)
	world := e.worldBodies()
	for _, rb := range robot {
		if !rb.inGroup {
			continue
		}
		for _, wb := range world {
			if e.checkPair(req, res, rb, wb, acm) {
				return
			}
		}
	}
}

// CheckSelfCollision checks robot bodies, padded when the request asks for it, against each other.
func (e *boundingEnv) CheckSelfCollision(req Request, res *Result, state *robotstate.State, acm *AllowedCollisionMatrix) {
	robot := e.robotBodies(req, state, req.PadSelfCollisions)
	for i, a := range robot {
		for _, b := range robot[i+1:] {
			if !a.inGroup && !b.inGroup {
				continue
			}
			if skipSelfPair(a, b) || skipSelfPair(b, a) {
				continue
			}
			if e.checkPair(req, res, a, b, acm) {
				return
			}
		}
	}
}

// skipSelfPair reports whether attached body a is exempt from colliding with link b.
func skipSelfPair(a, b *body) bool {
	if a.kind != RobotAttached || b.kind != RobotLink {
		return false
	}
	return a.link == b.link || a.touches(b.link)
}

// checkPair evaluates every volume of a against every volume of b and reports whether the query is done.
func (e *boundingEnv) checkPair(req Request, res *Result, a, b *body, acm *AllowedCollisionMatrix) bool {
	allowed, decide, _ := acm.AllowedCollision(a.name, b.name)
	if allowed == Always {
		return false
	}
	record := func(sep float64, c Contact, cs CostSource) bool {
		if req.Distance && sep < res.Distance {
			res.Distance = sep
		}
		if sep >= 0 {
			return false
		}
		c.Depth = -sep
		c.Body1, c.Body2 = a.name, b.name
		c.BodyType1, c.BodyType2 = a.kind, b.kind
		if allowed == Conditional && decide != nil && decide(c) {
			return false
		}
		res.Collision = true
		res.addContact(req, c)
		cs.Cost = cs.Volume()
		res.addCostSource(req, cs)
		return res.done(req)
	}
	for _, va := range a.volumes {
		for _, vb := range b.volumes {
			sep, err := spatial.SeparationBetween(va, vb)
			if err != nil {
				continue
			}
			if record(sep.Distance, Contact{Pos: sep.Point, Normal: sep.Normal}, overlapAABB(va, vb)) {
				return true
			}
		}
		for j := range b.planes {
			sep, pt := planeSeparation(&b.planes[j], va)
			if record(sep, Contact{Pos: pt, Normal: b.planes[j].normal}, overlapAABB(va, va)) {
				return true
			}
		}
	}
	for i := range a.planes {
		for _, vb := range b.volumes {
			sep, pt := planeSeparation(&a.planes[i], vb)
			if record(sep, Contact{Pos: pt, Normal: a.planes[i].normal.Mul(-1)}, overlapAABB(vb, vb)) {
				return true
			}
		}
	}
	return false
}
