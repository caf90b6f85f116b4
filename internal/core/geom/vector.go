// Package geom holds the 2D value types the world and the ray tracer are built on.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used by AlmostEqual and the parallel-line test.
const Epsilon = 1e-9

// Vector2 represents a point or direction in a region's plane
type Vector2 struct {
	X, Y float64
}

// NaN returns the sentinel vector meaning "no value", used for missed intersections.
func NaN() Vector2 {
	return Vector2{math.NaN(), math.NaN()}
}

// IsNaN reports whether v is the no-value sentinel (either component NaN).
func (v Vector2) IsNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y)
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}
func (v Vector2) Neg() Vector2 { return Vector2{-v.X, -v.Y} }

// Dot returns the scalar product
func (v Vector2) Dot(o Vector2) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the z component of the 3D cross product
func (v Vector2) Cross(o Vector2) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vector2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vector2) Len() float64   { return math.Sqrt(v.LenSq()) }

// Normalize returns the unit vector with the same direction. The zero vector
// stays zero.
func (v Vector2) Normalize() Vector2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vector2{v.X / l, v.Y / l}
}

// Rotate turns v counter-clockwise by angle radians.
func (v Vector2) Rotate(angle float64) Vector2 {
	r := mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{v.X, v.Y})
	return Vector2{r[0], r[1]}
}

// Reflect mirrors v about a surface with the given unit normal:
// v' = v - 2 * dot(v, n) * n
func (v Vector2) Reflect(normal Vector2) Vector2 {
	return v.Sub(normal.Scale(2 * v.Dot(normal)))
}

// Angle returns the direction of v in radians, in (-π, π].
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// AngleBetween returns the signed angle that rotates v onto o.
func (v Vector2) AngleBetween(o Vector2) float64 {
	return math.Atan2(v.Cross(o), v.Dot(o))
}

// AlmostEqual compares component-wise within eps.
func (v Vector2) AlmostEqual(o Vector2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// DistanceSq returns the squared euclidean distance between two points
func DistanceSq(a, b Vector2) float64 {
	return b.Sub(a).LenSq()
}

// Distance returns the euclidean distance between two points
func Distance(a, b Vector2) float64 {
	return b.Sub(a).Len()
}
