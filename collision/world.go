// Package collision holds the collision world, its change log, the allowed collision matrix, and the collision
// environment interface with its allocator registry and a bounding-volume back end.
package collision

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// Action is a bitmask describing what happened to a world object.
type Action uint8

// World actions.
const (
	ActionCreate Action = 1 << iota
	ActionDestroy
	ActionMove
	ActionAddShape
	ActionRemoveShape
)

func (a Action) String() string {
	var parts []string
	for _, named := range []struct {
		bit  Action
		name string
	}{
		{ActionCreate, "CREATE"},
		{ActionDestroy, "DESTROY"},
		{ActionMove, "MOVE"},
		{ActionAddShape, "ADD_SHAPE"},
		{ActionRemoveShape, "REMOVE_SHAPE"},
	} {
		if a&named.bit != 0 {
			parts = append(parts, named.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Object is an immutable snapshot of a world object. Shape poses and subframes are relative to Pose, which is in the
// world frame.
type Object struct {
	ID         string
	Pose       spatial.Pose
	Shapes     []shapes.Shape
	ShapePoses []spatial.Pose
	Subframes  map[string]spatial.Pose

	GlobalShapePoses    []spatial.Pose
	GlobalSubframePoses map[string]spatial.Pose
}

func (o *Object) clone() *Object {
	return &Object{
		ID:         o.ID,
		Pose:       o.Pose,
		Shapes:     append([]shapes.Shape(nil), o.Shapes...),
		ShapePoses: append([]spatial.Pose(nil), o.ShapePoses...),
		Subframes:  lo.Assign(o.Subframes),
	}
}

func (o *Object) updateGlobalPoses() {
	o.GlobalShapePoses = make([]spatial.Pose, len(o.ShapePoses))
	for i, p := range o.ShapePoses {
		o.GlobalShapePoses[i] = spatial.Compose(o.Pose, p)
	}
	o.GlobalSubframePoses = make(map[string]spatial.Pose, len(o.Subframes))
	for name, p := range o.Subframes {
		o.GlobalSubframePoses[name] = spatial.Compose(o.Pose, p)
	}
}

// Observer is notified synchronously of every change to a world. It must not modify the world.
type Observer func(obj *Object, action Action)

// ObserverHandle identifies a registered observer.
type ObserverHandle int

// World is a set of named objects. Objects are replaced, never mutated in place, so snapshots handed out stay
// valid and clones can share them.
type World struct {
	objects   map[string]*Object
	observers map[ObserverHandle]Observer
	nextID    ObserverHandle
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{objects: map[string]*Object{}, observers: map[ObserverHandle]Observer{}}
}

// Clone returns a world with the same objects and no observers.
func (w *World) Clone() *World {
	return &World{objects: lo.Assign(w.objects), observers: map[ObserverHandle]Observer{}}
}

// ObjectIDs returns the sorted object ids.
func (w *World) ObjectIDs() []string {
	ids := lo.Keys(w.objects)
	sort.Strings(ids)
	return ids
}

// Size returns the number of objects.
func (w *World) Size() int {
	return len(w.objects)
}

// Object returns the named object snapshot.
func (w *World) Object(id string) (*Object, bool) {
	o, ok := w.objects[id]
	return o, ok
}

// HasObject returns whether the named object exists.
func (w *World) HasObject(id string) bool {
	_, ok := w.objects[id]
	return ok
}

func (w *World) store(o *Object, action Action) {
	o.updateGlobalPoses()
	w.objects[o.ID] = o
	w.notify(o, action)
}

// AddToObject sets the pose of an object and appends shapes to it, creating the object if needed.
func (w *World) AddToObject(id string, pose spatial.Pose, objShapes []shapes.Shape, shapePoses []spatial.Pose) {
	action := ActionAddShape
	var o *Object
	if old, ok := w.objects[id]; ok {
		o = old.clone()
	} else {
		o = &Object{ID: id, Subframes: map[string]spatial.Pose{}}
		action |= ActionCreate
	}
	o.Pose = pose
	o.Shapes = append(o.Shapes, objShapes...)
	o.ShapePoses = append(o.ShapePoses, shapePoses...)
	w.store(o, action)
}

// SetObjectPose moves an object to pose.
func (w *World) SetObjectPose(id string, pose spatial.Pose) bool {
	old, ok := w.objects[id]
	if !ok {
		return false
	}
	o := old.clone()
	o.Pose = pose
	w.store(o, ActionMove)
	return true
}

// MoveObject applies transform to the object pose.
func (w *World) MoveObject(id string, transform spatial.Pose) bool {
	old, ok := w.objects[id]
	if !ok {
		return false
	}
	return w.SetObjectPose(id, spatial.Compose(transform, old.Pose))
}

// MoveShapesInObject replaces every shape pose. The count must match the shape count.
func (w *World) MoveShapesInObject(id string, shapePoses []spatial.Pose) bool {
	old, ok := w.objects[id]
	if !ok || len(shapePoses) != len(old.Shapes) {
		return false
	}
	o := old.clone()
	o.ShapePoses = append([]spatial.Pose(nil), shapePoses...)
	w.store(o, ActionMove)
	return true
}

// MoveShapeInObject moves the given shape, matched by identity.
func (w *World) MoveShapeInObject(id string, shape shapes.Shape, pose spatial.Pose) bool {
	old, ok := w.objects[id]
	if !ok {
		return false
	}
	for i, s := range old.Shapes {
		if s == shape {
			o := old.clone()
			o.ShapePoses[i] = pose
			w.store(o, ActionMove)
			return true
		}
	}
	return false
}

// RemoveShapeFromObject removes the given shape, matched by identity. Removing the last shape removes the object.
func (w *World) RemoveShapeFromObject(id string, shape shapes.Shape) bool {
	old, ok := w.objects[id]
	if !ok {
		return false
	}
	for i, s := range old.Shapes {
		if s != shape {
			continue
		}
		o := old.clone()
		o.Shapes = append(o.Shapes[:i], o.Shapes[i+1:]...)
		o.ShapePoses = append(o.ShapePoses[:i], o.ShapePoses[i+1:]...)
		if len(o.Shapes) == 0 {
			delete(w.objects, id)
			w.notify(old, ActionDestroy)
			return true
		}
		w.store(o, ActionRemoveShape)
		return true
	}
	return false
}

// RemoveObject removes an object and reports whether it existed.
func (w *World) RemoveObject(id string) bool {
	o, ok := w.objects[id]
	if !ok {
		return false
	}
	delete(w.objects, id)
	w.notify(o, ActionDestroy)
	return true
}

// ClearObjects removes every object.
func (w *World) ClearObjects() {
	for _, id := range w.ObjectIDs() {
		w.RemoveObject(id)
	}
}

// SetSubframesOfObject replaces the subframes of an object. Observers are not notified.
func (w *World) SetSubframesOfObject(id string, subframes map[string]spatial.Pose) bool {
	old, ok := w.objects[id]
	if !ok {
		return false
	}
	o := old.clone()
	o.Subframes = lo.Assign(subframes)
	o.updateGlobalPoses()
	w.objects[id] = o
	return true
}

// KnowsTransform returns whether name is an object id or an "<object>/<subframe>" name.
func (w *World) KnowsTransform(name string) bool {
	_, ok := w.Transform(name)
	return ok
}

// Transform resolves an object id or an "<object>/<subframe>" name to a pose in the world frame.
func (w *World) Transform(name string) (spatial.Pose, bool) {
	if o, ok := w.objects[name]; ok {
		return o.Pose, true
	}
	if idx := strings.Index(name, "/"); idx > 0 {
		if o, ok := w.objects[name[:idx]]; ok {
			p, ok := o.GlobalSubframePoses[name[idx+1:]]
			return p, ok
		}
	}
	return nil, false
}

// AddObserver registers an observer and returns its handle.
func (w *World) AddObserver(obs Observer) ObserverHandle {
	w.nextID++
	w.observers[w.nextID] = obs
	return w.nextID
}

// RemoveObserver unregisters an observer.
func (w *World) RemoveObserver(h ObserverHandle) {
	delete(w.observers, h)
}

// NotifyObserverAllObjects replays action for every current object to one observer.
func (w *World) NotifyObserverAllObjects(h ObserverHandle, action Action) {
	obs, ok := w.observers[h]
	if !ok {
		return
	}
	for _, id := range w.ObjectIDs() {
		obs(w.objects[id], action)
	}
}

func (w *World) notify(o *Object, action Action) {
	handles := lo.Keys(w.observers)
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		w.observers[h](o, action)
	}
}
