package spatialmath

import "github.com/golang/geo/r3"

// ClosestPointSegmentPoint returns the point on segment ab closest to pt.
func ClosestPointSegmentPoint(a, b, pt r3.Vector) r3.Vector {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom < floatEpsilon*floatEpsilon {
		return a
	}
	t := ClampFloat(pt.Sub(a).Dot(ab)/denom, 0, 1)
	return a.Add(ab.Mul(t))
}

// DistToLineSegment returns the distance from pt to segment ab.
func DistToLineSegment(a, b, pt r3.Vector) float64 {
	return pt.Sub(ClosestPointSegmentPoint(a, b, pt)).Norm()
}

// ClosestPointsSegmentSegment returns the closest pair of points on segments a1b1 and a2b2.
// Reference: Ericson, Real-Time Collision Detection, 5.1.9.
func ClosestPointsSegmentSegment(a1, b1, a2, b2 r3.Vector) (r3.Vector, r3.Vector) {
	d1 := b1.Sub(a1)
	d2 := b2.Sub(a2)
	r := a1.Sub(a2)
	l1 := d1.Norm2()
	l2 := d2.Norm2()
	f := d2.Dot(r)
	const eps = 1e-20

	var s, t float64
	switch {
	case l1 <= eps && l2 <= eps:
		return a1, a2
	case l1 <= eps:
		t = ClampFloat(f/l2, 0, 1)
	default:
		c := d1.Dot(r)
		if l2 <= eps {
			s = ClampFloat(-c/l1, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := l1*l2 - b*b
			if denom != 0 {
				s = ClampFloat((b*f-c*l2)/denom, 0, 1)
			}
			t = (b*s + f) / l2
			if t < 0 {
				t = 0
				s = ClampFloat(-c/l1, 0, 1)
			} else if t > 1 {
				t = 1
				s = ClampFloat((b-c)/l1, 0, 1)
			}
		}
	}
	return a1.Add(d1.Mul(s)), a2.Add(d2.Mul(t))
}

// SegmentDistanceToSegment returns the distance between segments a1b1 and a2b2.
func SegmentDistanceToSegment(a1, b1, a2, b2 r3.Vector) float64 {
	p, q := ClosestPointsSegmentSegment(a1, b1, a2, b2)
	return p.Sub(q).Norm()
}
