package planningscene

import (
	"fmt"

	commonpb "go.viam.com/api/common/v1"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// WorldStateProto exports the world objects as obstacles of a viam WorldState, in the planning frame. Boxes,
// spheres and cylinders are exported; a cylinder becomes a capsule when it is long enough to hold one and a box
// otherwise. Other shapes have no obstacle form and are left out, as is the octomap.
func (s *Scene) WorldStateProto() *commonpb.WorldState {
	var geoms []*commonpb.Geometry
	for _, id := range s.CollisionObjectIDs() {
		obj, ok := s.world.Object(id)
		if !ok {
			continue
		}
		for i, sh := range obj.Shapes {
			label := id
			if len(obj.Shapes) > 1 {
				label = fmt.Sprintf("%s/%d", id, i)
			}
			g := geometryProto(spatial.Compose(obj.Pose, obj.ShapePoses[i]), sh, label)
			if g == nil {
				s.logger.Debugw("shape has no obstacle form", "id", id, "kind", sh.Kind())
				continue
			}
			geoms = append(geoms, g)
		}
	}
	ws := &commonpb.WorldState{}
	if len(geoms) > 0 {
		ws.Obstacles = []*commonpb.GeometriesInFrame{{ReferenceFrame: s.PlanningFrame(), Geometries: geoms}}
	}
	return ws
}

func geometryProto(center spatial.Pose, sh shapes.Shape, label string) *commonpb.Geometry {
	switch v := sh.(type) {
	case *shapes.Box:
		return spatial.BoxToProtobuf(center, v.Size, label)
	case *shapes.Sphere:
		return spatial.SphereToProtobuf(center, v.Radius, label)
	case *shapes.Cylinder:
		if v.Length >= 2*v.Radius {
			return spatial.CapsuleToProtobuf(center, v.Radius, v.Length, label)
		}
		return spatial.BoxToProtobuf(center, shapes.NewBox(2*v.Radius, 2*v.Radius, v.Length).Size, label)
	default:
		return nil
	}
}
