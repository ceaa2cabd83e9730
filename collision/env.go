package collision

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
	"go.viam.com/planningscene/referenceframe"
	"go.viam.com/planningscene/robotstate"
)

// Env answers collision queries for one robot model against one world.
type Env interface {
	// CheckRobotCollision checks the robot bodies of state against the world.
	CheckRobotCollision(req Request, res *Result, state *robotstate.State, acm *AllowedCollisionMatrix)
	// CheckSelfCollision checks the robot bodies of state against each other.
	CheckSelfCollision(req Request, res *Result, state *robotstate.State, acm *AllowedCollisionMatrix)

	World() *World
	Model() *referenceframe.Model

	LinkPadding() map[string]float64
	SetLinkPadding(padding map[string]float64)
	LinkScale() map[string]float64
	SetLinkScale(scale map[string]float64)
	// SetPadding applies one padding to every link.
	SetPadding(padding float64)
	// SetScale applies one scale to every link.
	SetScale(scale float64)
	PaddingMsgs() []msgs.LinkPadding
	ScaleMsgs() []msgs.LinkScale
	SetPaddingMsgs(padding []msgs.LinkPadding)
	SetScaleMsgs(scale []msgs.LinkScale)
}

// Allocator builds collision environments of one back end.
type Allocator interface {
	Name() string
	// AllocateEnv builds an environment for model over world.
	AllocateEnv(world *World, model *referenceframe.Model) Env
	// AllocateEnvFrom builds an environment over world with the model and link parameters of env.
	AllocateEnvFrom(env Env, world *World) Env
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Allocator{}
)

// RegisterAllocator makes an allocator available by name. Registering a name twice panics.
func RegisterAllocator(a Allocator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[a.Name()]; ok {
		panic(errors.Errorf("collision allocator %q already registered", a.Name()))
	}
	registry[a.Name()] = a
}

// LookupAllocator returns the allocator registered under name.
func LookupAllocator(name string) (Allocator, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown collision detector %q, known: %v", name, allocatorNamesLocked())
	}
	return a, nil
}

// AllocatorNames returns the registered allocator names, sorted.
func AllocatorNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return allocatorNamesLocked()
}

func allocatorNamesLocked() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}

// linkParams is the per-link padding and scale shared by environments.
type linkParams struct {
	model   *referenceframe.Model
	padding map[string]float64
	scale   map[string]float64
}

func newLinkParams(model *referenceframe.Model) linkParams {
	return linkParams{model: model, padding: map[string]float64{}, scale: map[string]float64{}}
}

func (p *linkParams) Model() *referenceframe.Model { return p.model }

func (p *linkParams) paddingFor(link string) float64 {
	return p.padding[link]
}

func (p *linkParams) scaleFor(link string) float64 {
	if s, ok := p.scale[link]; ok {
		return s
	}
	return 1
}

func (p *linkParams) LinkPadding() map[string]float64 { return lo.Assign(p.padding) }

func (p *linkParams) SetLinkPadding(padding map[string]float64) {
	for k, v := range padding {
		p.padding[k] = v
	}
}

func (p *linkParams) LinkScale() map[string]float64 { return lo.Assign(p.scale) }

func (p *linkParams) SetLinkScale(scale map[string]float64) {
	for k, v := range scale {
		p.scale[k] = v
	}
}

func (p *linkParams) SetPadding(padding float64) {
	for _, l := range p.model.LinkNames() {
		p.padding[l] = padding
	}
}

func (p *linkParams) SetScale(scale float64) {
	for _, l := range p.model.LinkNames() {
		p.scale[l] = scale
	}
}

func (p *linkParams) PaddingMsgs() []msgs.LinkPadding {
	return lo.Map(p.model.LinkNames(), func(l string, _ int) msgs.LinkPadding {
		return msgs.LinkPadding{LinkName: l, Padding: p.paddingFor(l)}
	})
}

func (p *linkParams) ScaleMsgs() []msgs.LinkScale {
	return lo.Map(p.model.LinkNames(), func(l string, _ int) msgs.LinkScale {
		return msgs.LinkScale{LinkName: l, Scale: p.scaleFor(l)}
	})
}

func (p *linkParams) SetPaddingMsgs(padding []msgs.LinkPadding) {
	for _, lp := range padding {
		p.padding[lp.LinkName] = lp.Padding
	}
}

func (p *linkParams) SetScaleMsgs(scale []msgs.LinkScale) {
	for _, ls := range scale {
		p.scale[ls.LinkName] = ls.Scale
	}
}
