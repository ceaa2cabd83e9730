package planningscene

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
)

// ObjectType returns the type of an object, looking through the parent chain.
func (s *Scene) ObjectType(id string) (msgs.ObjectType, bool) {
	if t, ok := s.objectTypes[id]; ok {
		return t, true
	}
	if s.parent != nil {
		return s.parent.ObjectType(id)
	}
	return msgs.ObjectType{}, false
}

// HasObjectType returns whether an object has a type.
func (s *Scene) HasObjectType(id string) bool {
	_, ok := s.ObjectType(id)
	return ok
}

// SetObjectType records the type of an object.
func (s *Scene) SetObjectType(id string, t msgs.ObjectType) {
	if s.objectTypes == nil {
		s.objectTypes = map[string]msgs.ObjectType{}
	}
	s.objectTypes[id] = t
}

// RemoveObjectType forgets the type of an object. Types only known to a parent are kept.
func (s *Scene) RemoveObjectType(id string) {
	delete(s.objectTypes, id)
}

// KnownObjectTypes returns every known type, local entries overriding the parent's.
func (s *Scene) KnownObjectTypes() map[string]msgs.ObjectType {
	out := map[string]msgs.ObjectType{}
	if s.parent != nil {
		out = s.parent.KnownObjectTypes()
	}
	return lo.Assign(out, s.objectTypes)
}

// ObjectColor returns the color of an object, looking through the parent chain.
func (s *Scene) ObjectColor(id string) (msgs.ColorRGBA, bool) {
	if c, ok := s.objectColors[id]; ok {
		return c, true
	}
	if s.parent != nil {
		return s.parent.ObjectColor(id)
	}
	return msgs.ColorRGBA{}, false
}

// HasObjectColor returns whether an object has a color.
func (s *Scene) HasObjectColor(id string) bool {
	_, ok := s.ObjectColor(id)
	return ok
}

// OriginalObjectColor returns the first color ever set for an object, looking through the parent chain.
func (s *Scene) OriginalObjectColor(id string) (msgs.ColorRGBA, bool) {
	if c, ok := s.originalColors[id]; ok {
		return c, true
	}
	if s.parent != nil {
		return s.parent.OriginalObjectColor(id)
	}
	return msgs.ColorRGBA{}, false
}

// SetObjectColor records the color of an object. The first color set for an id is also kept as its original color.
func (s *Scene) SetObjectColor(id string, color msgs.ColorRGBA) error {
	if id == "" {
		return errors.Wrap(ErrMalformed, "cannot set the color of an object with an empty id")
	}
	if s.objectColors == nil {
		s.objectColors = map[string]msgs.ColorRGBA{}
	}
	if _, ok := s.OriginalObjectColor(id); !ok {
		if s.originalColors == nil {
			s.originalColors = map[string]msgs.ColorRGBA{}
		}
		s.originalColors[id] = color
	}
	s.objectColors[id] = color
	return nil
}

// RemoveObjectColor forgets the color of an object. Colors only known to a parent are kept.
func (s *Scene) RemoveObjectColor(id string) {
	delete(s.objectColors, id)
}

// KnownObjectColors returns every known color, local entries overriding the parent's.
func (s *Scene) KnownObjectColors() map[string]msgs.ColorRGBA {
	out := map[string]msgs.ColorRGBA{}
	if s.parent != nil {
		out = s.parent.KnownObjectColors()
	}
	return lo.Assign(out, s.objectColors)
}

func (s *Scene) knownOriginalColors() map[string]msgs.ColorRGBA {
	out := map[string]msgs.ColorRGBA{}
	if s.parent != nil {
		out = s.parent.knownOriginalColors()
	}
	return lo.Assign(out, s.originalColors)
}

// ObjectColorMsgs returns the colors set on this scene itself, sorted by id.
func (s *Scene) ObjectColorMsgs() []msgs.ObjectColor {
	return colorMsgs(s.objectColors)
}

func colorMsgs(colors map[string]msgs.ColorRGBA) []msgs.ObjectColor {
	ids := lo.Keys(colors)
	sort.Strings(ids)
	return lo.Map(ids, func(id string, _ int) msgs.ObjectColor {
		return msgs.ObjectColor{ID: id, Color: colors[id]}
	})
}
