package planningscene

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/planningscene/msgs"
)

func TestWorldStateProto(t *testing.T) {
	s := newScene(t)
	test.That(t, s.WorldStateProto().GetObstacles(), test.ShouldBeEmpty)

	addBox(t, s, "table", r3.Vector{X: 1}, 0.5)
	pillars := boxMsg("pillars", r3.Vector{Y: 2}, 0.1)
	pillars.Primitives = []msgs.SolidPrimitive{
		{Type: msgs.PrimitiveCylinder, Dimensions: []float64{1, 0.1}},
		{Type: msgs.PrimitiveCylinder, Dimensions: []float64{0.1, 0.5}},
	}
	pillars.PrimitivePoses = []msgs.Pose{msgs.IdentityPose(), msgs.IdentityPose()}
	test.That(t, s.ProcessCollisionObjectMsg(pillars), test.ShouldBeNil)
	addOctomap(t, s, 0.1, r3.Vector{Z: 3})

	ws := s.WorldStateProto()
	test.That(t, ws.GetObstacles(), test.ShouldHaveLength, 1)
	gif := ws.GetObstacles()[0]
	test.That(t, gif.GetReferenceFrame(), test.ShouldEqual, "base")
	geoms := gif.GetGeometries()
	test.That(t, geoms, test.ShouldHaveLength, 3)

	test.That(t, geoms[0].GetLabel(), test.ShouldEqual, "pillars/0")
	test.That(t, geoms[0].GetCapsule().GetRadiusMm(), test.ShouldAlmostEqual, 100)
	test.That(t, geoms[0].GetCapsule().GetLengthMm(), test.ShouldAlmostEqual, 1000)
	test.That(t, geoms[0].GetCenter().GetY(), test.ShouldAlmostEqual, 2000)

	test.That(t, geoms[1].GetLabel(), test.ShouldEqual, "pillars/1")
	dims := geoms[1].GetBox().GetDimsMm()
	test.That(t, dims.GetX(), test.ShouldAlmostEqual, 1000)
	test.That(t, dims.GetZ(), test.ShouldAlmostEqual, 100)

	test.That(t, geoms[2].GetLabel(), test.ShouldEqual, "table")
	test.That(t, geoms[2].GetBox().GetDimsMm().GetY(), test.ShouldAlmostEqual, 500)
	test.That(t, geoms[2].GetCenter().GetX(), test.ShouldAlmostEqual, 1000)
}
