package view

import (
	"image/color"
	"math"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/render"
	"chosenoffset.com/portalrooms/internal/world"
)

// Overlay colours
var (
	WallColor   = color.RGBA{180, 180, 180, 255}
	PortalColor = color.RGBA{60, 140, 255, 255}
	RayColor    = color.RGBA{255, 220, 80, 255}
	EntityColor = color.RGBA{120, 255, 120, 255}
)

// Transform maps world coordinates onto a surface.
type Transform struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

func (t Transform) Apply(p geom.Vector2) (x, y float64) {
	return p.X*t.ScaleX + t.OffsetX, p.Y*t.ScaleY + t.OffsetY
}

// Fit returns the transform that shows every wall of the world on a
// width x height surface with a margin. aspect is the height of one surface
// unit relative to its width (about 2 for terminal cells).
func Fit(v world.View, width, height int, aspect float64) Transform {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range v.Regions() {
		for _, w := range v.Walls(r) {
			for _, p := range [2]geom.Vector2{w.Line.A, w.Line.B} {
				minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
				minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
			}
		}
	}
	if math.IsInf(minX, 0) || maxX == minX || maxY == minY {
		return Transform{ScaleX: 1, ScaleY: 1 / aspect}
	}

	const margin = 0.05
	w, h := float64(width)*(1-2*margin), float64(height)*aspect*(1-2*margin)
	k := math.Min(w/(maxX-minX), h/(maxY-minY))
	return Transform{
		ScaleX:  k,
		ScaleY:  k / aspect,
		OffsetX: float64(width)*margin - minX*k,
		OffsetY: float64(height)*margin - minY*k/aspect,
	}
}

// Overlay draws the 2D debug map: every wall, entity bounds and a fan of rays
// from the eye with each leg drawn in its own region's coordinates.
type Overlay struct {
	Opts  raytrace.Options
	Scene *Scene // supplies the field of view
	Rays  int
}

// Draw renders the map onto s.
func (o *Overlay) Draw(v world.View, s render.Surface, t Transform, eye world.EntityID) {
	line := func(seg geom.LineSegment2) {
		x0, y0 := t.Apply(seg.A)
		x1, y1 := t.Apply(seg.B)
		s.DrawLine(x0, y0, x1, y1)
	}

	for _, r := range v.Regions() {
		for _, w := range v.Walls(r) {
			if _, ok := v.Portal(w.ID); ok {
				s.SetColor(PortalColor)
			} else {
				s.SetColor(WallColor)
			}
			line(w.Line)
		}

		reg, _ := v.Region(r)
		s.SetColor(EntityColor)
		reg.Entities.Each(func(id world.EntityID) {
			e, ok := v.Entity(id)
			if !ok {
				return
			}
			for _, b := range e.Bounds() {
				line(b)
			}
		})
	}

	e, ok := v.Entity(eye)
	if !ok || o.Rays <= 0 {
		return
	}
	s.SetColor(RayColor)
	for i := 0; i < o.Rays; i++ {
		dir := o.Scene.ColumnDirection(e.Facing, i, o.Rays)
		tr := raytrace.RayTrace(v, o.Opts, e.Position, dir, e.Region)
		for {
			seg, ok := tr.Next()
			if !ok {
				break
			}
			line(seg.Line)
		}
	}
}
