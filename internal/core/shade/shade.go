// Package shade holds colours, surface materials and the light transport terms
// used by the lighting cache.
package shade

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colour is a linear RGB triple, nominally in [0,1] but allowed to exceed 1
// while contributions are summed.
type Colour struct {
	R, G, B float64
}

var (
	Black = Colour{0, 0, 0}
	White = Colour{1, 1, 1}
)

// Hex parses "#rrggbb".
func Hex(s string) (Colour, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Colour{}, err
	}
	return Colour{c.R, c.G, c.B}, nil
}

func (c Colour) Add(o Colour) Colour   { return Colour{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c Colour) Scale(s float64) Colour { return Colour{c.R * s, c.G * s, c.B * s} }

// Mul multiplies component-wise
func (c Colour) Mul(o Colour) Colour { return Colour{c.R * o.R, c.G * o.G, c.B * o.B} }

// Clamped limits every channel to [0,1].
func (c Colour) Clamped() Colour {
	cc := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped()
	return Colour{cc.R, cc.G, cc.B}
}

// RGBA converts to an opaque byte colour, clamping first.
func (c Colour) RGBA() color.RGBA {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

// Material describes how a wall or floor responds to light.
type Material struct {
	Colour    Colour
	Ambient   float64
	Diffuse   float64
	Specular  float64
	Shininess float64
}

// Phong evaluates one light's contribution at a surface point.
//
// toLight and toEye are unit vectors from the point, normal is the surface
// normal (either side), att the distance attenuation and lit reports whether
// the point is on the lit side and outside shadow. The ambient term is always
// returned; diffuse and specular only when lit.
func Phong(m Material, intensity Colour, toLight, toEye, normal [3]float64, att float64, lit bool) Colour {
	out := m.Colour.Mul(intensity).Scale(m.Ambient * att)
	if !lit {
		return out
	}

	n := normal
	if dot3(n, toEye) < 0 {
		n = [3]float64{-n[0], -n[1], -n[2]}
	}

	diff := math.Max(0, dot3(toLight, n))
	out = out.Add(m.Colour.Mul(intensity).Scale(m.Diffuse * diff * att))

	if m.Specular > 0 && diff > 0 {
		// reflect the incoming light direction about n
		k := 2 * dot3(toLight, n)
		refl := [3]float64{k*n[0] - toLight[0], k*n[1] - toLight[1], k*n[2] - toLight[2]}
		spec := math.Pow(math.Max(0, dot3(refl, toEye)), m.Shininess)
		out = out.Add(intensity.Scale(m.Specular * spec * att))
	}
	return out
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Attenuation is the inverse-square style falloff used on walls:
// 1 / (1 + (d/falloff)²).
func Attenuation(d, falloff float64) float64 {
	if falloff <= 0 {
		return 1
	}
	x := d / falloff
	return 1 / (1 + x*x)
}

// ColumnFalloff integrates the irradiance a floor point at horizontal distance
// r receives from a vertical light column spanning heights [h, h+height]:
//
//	∫ z / (r²+z²)^(3/2) dz = 1/√(r²+h²) − 1/√(r²+(h+height)²)
//
// normalised so the value directly under the column is 1.
func ColumnFalloff(r, h, height float64) float64 {
	if h <= 0 || height <= 0 {
		return 0
	}
	top := h + height
	norm := 1/h - 1/top
	v := 1/math.Sqrt(r*r+h*h) - 1/math.Sqrt(r*r+top*top)
	return v / norm
}
