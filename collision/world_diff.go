package collision

import (
	"sort"

	"github.com/samber/lo"
)

// WorldDiff records, per object id, the accumulated actions applied to a world since the log was opened or reset.
type WorldDiff struct {
	world   *World
	handle  ObserverHandle
	changes map[string]Action
}

// NewWorldDiff opens a log on world.
func NewWorldDiff(world *World) *WorldDiff {
	d := &WorldDiff{changes: map[string]Action{}}
	d.Reset(world)
	return d
}

// Reset clears the log and starts observing world, which may differ from the world observed so far.
func (d *WorldDiff) Reset(world *World) {
	d.Detach()
	d.changes = map[string]Action{}
	d.world = world
	if world != nil {
		d.handle = world.AddObserver(d.notify)
	}
}

// Clear forgets every recorded change while keeping the observed world.
func (d *WorldDiff) Clear() {
	d.changes = map[string]Action{}
}

// Detach stops observing the world. The recorded changes are kept.
func (d *WorldDiff) Detach() {
	if d.world != nil {
		d.world.RemoveObserver(d.handle)
		d.world = nil
	}
}

// World returns the observed world, nil when detached.
func (d *WorldDiff) World() *World {
	return d.world
}

func (d *WorldDiff) notify(o *Object, action Action) {
	if action&ActionDestroy != 0 {
		d.changes[o.ID] = ActionDestroy
		return
	}
	d.changes[o.ID] |= action
}

// Set overwrites the recorded action for id.
func (d *WorldDiff) Set(id string, action Action) {
	d.changes[id] = action
}

// Get returns the recorded action for id.
func (d *WorldDiff) Get(id string) (Action, bool) {
	a, ok := d.changes[id]
	return a, ok
}

// Len returns the number of ids with recorded changes.
func (d *WorldDiff) Len() int {
	return len(d.changes)
}

// Changes returns a copy of every recorded change.
func (d *WorldDiff) Changes() map[string]Action {
	return lo.Assign(d.changes)
}

// IDs returns the ids with recorded changes, sorted.
func (d *WorldDiff) IDs() []string {
	ids := lo.Keys(d.changes)
	sort.Strings(ids)
	return ids
}
