package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// obbSATMaxGap computes the maximum separation gap across the 15 separating axes of two oriented boxes, using
// Ericson's precomputed relative rotation ("Real-Time Collision Detection" 4.4). A positive gap is a lower bound on
// the distance between the boxes; a negative gap is their penetration depth. Zero half sizes degenerate a box into a
// segment, which is how capsules are tested.
//
// The axis of the largest gap is returned as well, oriented from A towards B.
func obbSATMaxGap(rmA, rmB *RotationMatrix, hA, hB [3]float64, centerDist r3.Vector) (float64, r3.Vector) {
	const eps = 1e-10

	// t[i] is the center distance in A's frame, r[i][j] the rotation of B relative to A.
	var t [3]float64
	var r, ar [3][3]float64
	for i := 0; i < 3; i++ {
		axisA := rmA.Row(i)
		t[i] = axisA.Dot(centerDist)
		for j := 0; j < 3; j++ {
			r[i][j] = axisA.Dot(rmB.Row(j))
			ar[i][j] = math.Abs(r[i][j]) + eps
		}
	}

	best := math.Inf(-1)
	var bestAxis r3.Vector
	consider := func(gap float64, axis func() r3.Vector) {
		if gap > best {
			best = gap
			bestAxis = axis()
		}
	}

	for i := 0; i < 3; i++ {
		gap := math.Abs(t[i]) - hA[i] - (hB[0]*ar[i][0] + hB[1]*ar[i][1] + hB[2]*ar[i][2])
		consider(gap, func() r3.Vector { return rmA.Row(i) })
	}
	for j := 0; j < 3; j++ {
		proj := t[0]*r[0][j] + t[1]*r[1][j] + t[2]*r[2][j]
		gap := math.Abs(proj) - hB[j] - (hA[0]*ar[0][j] + hA[1]*ar[1][j] + hA[2]*ar[2][j])
		consider(gap, func() r3.Vector { return rmB.Row(j) })
	}

	// edge axes a_i x b_j, normalized by their length sqrt(1 - r[i][j]^2)
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			l2 := 1 - r[i][j]*r[i][j]
			if l2 <= eps {
				// parallel edges are covered by the face axes
				continue
			}
			j1, j2 := (j+1)%3, (j+2)%3
			raw := math.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) -
				(hA[i1]*ar[i2][j] + hA[i2]*ar[i1][j]) -
				(hB[j1]*ar[i][j2] + hB[j2]*ar[i][j1])
			consider(raw/math.Sqrt(l2), func() r3.Vector { return rmA.Row(i).Cross(rmB.Row(j)).Normalize() })
		}
	}

	if bestAxis.Dot(centerDist) < 0 {
		bestAxis = bestAxis.Mul(-1)
	}
	return best, bestAxis
}
