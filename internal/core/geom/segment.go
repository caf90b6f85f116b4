package geom

import "math"

// LineSegment2 is an ordered pair of points. Its normal is the
// counter-clockwise perpendicular of B-A, so walls are authored with the room
// on the left of A→B.
type LineSegment2 struct {
	A, B Vector2
}

// Seg is shorthand for building a segment from four coordinates.
func Seg(ax, ay, bx, by float64) LineSegment2 {
	return LineSegment2{A: Vector2{ax, ay}, B: Vector2{bx, by}}
}

// Direction returns B-A (not normalised)
func (s LineSegment2) Direction() Vector2 {
	return s.B.Sub(s.A)
}

// Normal returns the unit counter-clockwise perpendicular of the direction.
func (s LineSegment2) Normal() Vector2 {
	d := s.Direction()
	return Vector2{-d.Y, d.X}.Normalize()
}

func (s LineSegment2) Midpoint() Vector2 {
	return s.A.Add(s.B).Scale(0.5)
}

func (s LineSegment2) Len() float64 {
	return s.Direction().Len()
}

func (s LineSegment2) LenSq() float64 {
	return s.Direction().LenSq()
}

// TOf projects p onto the segment's line and returns its parameter, where 0 is
// A and 1 is B. The result is not clamped.
func (s LineSegment2) TOf(p Vector2) float64 {
	d := s.Direction()
	l := d.LenSq()
	if l == 0 {
		return 0
	}
	return p.Sub(s.A).Dot(d) / l
}

// AtT returns A + t*(B-A)
func (s LineSegment2) AtT(t float64) Vector2 {
	return s.A.Add(s.Direction().Scale(t))
}

// Reverse swaps the endpoints, flipping the normal.
func (s LineSegment2) Reverse() LineSegment2 {
	return LineSegment2{A: s.B, B: s.A}
}

// Intersection returns the point where s and o cross, or the NaN vector when
// the segments are parallel or the crossing lies outside [0,1] on either one.
func (s LineSegment2) Intersection(o LineSegment2) Vector2 {
	// s: P = s.A + t*r, o: Q = o.A + u*q
	r := s.Direction()
	q := o.Direction()

	denominator := r.Cross(q)
	if math.Abs(denominator) < Epsilon {
		return NaN()
	}

	diff := o.A.Sub(s.A)
	t := diff.Cross(q) / denominator
	u := diff.Cross(r) / denominator

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return NaN()
	}
	return s.AtT(t)
}

// Intersects reports whether the segments cross.
func (s LineSegment2) Intersects(o LineSegment2) bool {
	return !s.Intersection(o).IsNaN()
}

// Colinear reports whether o lies on the same infinite line as s.
func (s LineSegment2) Colinear(o LineSegment2, eps float64) bool {
	d := s.Direction().Normalize()
	return math.Abs(d.Cross(o.A.Sub(s.A))) <= eps && math.Abs(d.Cross(o.B.Sub(s.A))) <= eps
}
