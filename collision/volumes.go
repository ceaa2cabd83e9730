package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/planningscene/shapes"
	spatial "go.viam.com/planningscene/spatialmath"
)

// halfSpace is the set of points x with normal.x <= offset.
type halfSpace struct {
	normal r3.Vector
	offset float64
}

func boxVolume(pose spatial.Pose, dims r3.Vector) []spatial.Geometry {
	g, err := spatial.NewBox(pose, dims, "")
	if err != nil {
		return nil
	}
	return []spatial.Geometry{g}
}

// shapeVolumes approximates s placed at pose, scaled about its origin and inflated by padding.
func shapeVolumes(s shapes.Shape, pose spatial.Pose, scale, padding float64) ([]spatial.Geometry, []halfSpace) {
	pad := r3.Vector{X: 2 * padding, Y: 2 * padding, Z: 2 * padding}
	switch sh := s.(type) {
	case *shapes.Box:
		return boxVolume(pose, sh.Size.Mul(scale).Add(pad)), nil
	case *shapes.Sphere:
		g, err := spatial.NewSphere(pose, sh.Radius*scale+padding, "")
		if err != nil {
			return nil, nil
		}
		return []spatial.Geometry{g}, nil
	case *shapes.Cylinder:
		dims := r3.Vector{X: 2 * sh.Radius, Y: 2 * sh.Radius, Z: sh.Length}
		return boxVolume(pose, dims.Mul(scale).Add(pad)), nil
	case *shapes.Cone:
		dims := r3.Vector{X: 2 * sh.Radius, Y: 2 * sh.Radius, Z: sh.Length}
		return boxVolume(pose, dims.Mul(scale).Add(pad)), nil
	case *shapes.Mesh:
		if len(sh.Vertices) == 0 {
			return nil, nil
		}
		minV, maxV := sh.Vertices[0], sh.Vertices[0]
		for _, v := range sh.Vertices[1:] {
			minV = r3.Vector{X: math.Min(minV.X, v.X), Y: math.Min(minV.Y, v.Y), Z: math.Min(minV.Z, v.Z)}
			maxV = r3.Vector{X: math.Max(maxV.X, v.X), Y: math.Max(maxV.Y, v.Y), Z: math.Max(maxV.Z, v.Z)}
		}
		local := spatial.NewPoseFromPoint(minV.Add(maxV).Mul(scale / 2))
		return boxVolume(spatial.Compose(pose, local), maxV.Sub(minV).Mul(scale).Add(pad)), nil
	case *shapes.Plane:
		n := sh.Normal()
		point := n.Mul(-sh.SignedDistance(r3.Vector{}))
		gn := spatial.TransformPoint(spatial.NewPoseFromOrientation(pose.Orientation()), n)
		gp := spatial.TransformPoint(pose, point)
		return nil, []halfSpace{{normal: gn, offset: gn.Dot(gp)}}
	case *shapes.OcTree:
		if sh.Tree == nil {
			return nil, nil
		}
		centers, sizes := sh.Tree.OccupiedCenters()
		vols := make([]spatial.Geometry, 0, len(centers))
		for i, c := range centers {
			side := sizes[i] * scale
			voxel := spatial.Compose(pose, spatial.NewPoseFromPoint(c.Mul(scale)))
			vols = append(vols, boxVolume(voxel, r3.Vector{X: side, Y: side, Z: side}.Add(pad))...)
		}
		return vols, nil
	}
	return nil, nil
}

// planeSeparation returns the signed separation of g from the half space and the contact point on the plane.
func planeSeparation(h *halfSpace, g spatial.Geometry) (float64, r3.Vector) {
	c := g.Pose().Point()
	dist := h.normal.Dot(c) - h.offset
	return dist - spatial.ProjectedExtent(g, h.normal), c.Sub(h.normal.Mul(dist))
}

func overlapAABB(a, b spatial.Geometry) CostSource {
	aMin, aMax := spatial.BoundingBox(a)
	bMin, bMax := spatial.BoundingBox(b)
	return CostSource{
		AABBMin: r3.Vector{X: math.Max(aMin.X, bMin.X), Y: math.Max(aMin.Y, bMin.Y), Z: math.Max(aMin.Z, bMin.Z)},
		AABBMax: r3.Vector{X: math.Min(aMax.X, bMax.X), Y: math.Min(aMax.Y, bMax.Y), Z: math.Min(aMax.Z, bMax.Z)},
	}
}
