package view

import (
	"fmt"
	"image/color"
	"math"
	"runtime"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/render/lighting"
	"chosenoffset.com/portalrooms/internal/world"

	"golang.org/x/sync/errgroup"
)

// ceilingShade darkens the ceiling relative to the floor below it.
const ceilingShade = 0.45

// Scene renders the first-person view one screen column per ray.
type Scene struct {
	Opts    raytrace.Options
	Lights  *lighting.Cache
	Zoom    float64
	FOV     float64
	Workers int // 0 = one per CPU
}

// leg is one traced segment together with where it starts along the ray as
// seen from the eye. scale converts eye distances into the leg's region.
type leg struct {
	seg   raytrace.Segment
	start float64
	scale float64
}

// Render draws the view from entity eye into pix, an RGBA buffer of
// width*height pixels. All columns read the same world snapshot; they are
// split across workers.
func (s *Scene) Render(w *world.World, eye world.EntityID, pix []byte, width, height int) error {
	if len(pix) < width*height*4 {
		return fmt.Errorf("render: buffer holds %d bytes, need %d", len(pix), width*height*4)
	}
	return w.Read(func(v world.View) error {
		e, ok := v.Entity(eye)
		if !ok {
			return fmt.Errorf("render from entity %v: %w", eye, world.ErrNotFound)
		}

		workers := s.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		workers = min(workers, width)

		var g errgroup.Group
		for i := 0; i < workers; i++ {
			x0, x1 := i*width/workers, (i+1)*width/workers
			g.Go(func() error {
				for x := x0; x < x1; x++ {
					s.column(v, e, x, pix, width, height)
				}
				return nil
			})
		}
		return g.Wait()
	})
}

func (s *Scene) column(v world.View, e world.Entity, x int, pix []byte, width, height int) {
	angle := s.columnAngle(x, width)
	dir := e.Facing.Rotate(angle)
	cos := math.Cos(angle)

	var legs []leg
	dist, scale := 0.0, 1.0
	tr := raytrace.RayTrace(v, s.Opts, e.Position, dir, e.Region)
	for {
		seg, ok := tr.Next()
		if !ok {
			break
		}
		legs = append(legs, leg{seg: seg, start: dist, scale: scale})
		dist += seg.Len() / scale
		if p, crossed := tr.Crossed(); crossed {
			scale *= p.Scale
		}
	}

	set := func(y int, c color.RGBA) {
		i := (y*width + x) * 4
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}

	top, bottom := Project(dist*cos, height, s.Zoom)
	wall := color.RGBA{A: 255}
	if len(legs) == 0 {
		return
	}
	if last := legs[len(legs)-1].seg; last.HasHit && !last.Exhausted {
		wall = s.Lights.VerticalSurfaceColour(v, last.Line.B, last.Wall, last.Direction).RGBA()
	}
	for y := top; y < bottom; y++ {
		set(y, wall)
	}

	for y := bottom; y < height; y++ {
		set(y, s.floorAt(v, legs, Unproject(y, height, s.Zoom)/cos).RGBA())
	}
	for y := 0; y < top; y++ {
		set(y, s.floorAt(v, legs, Unproject(y, height, s.Zoom)/cos).Scale(ceilingShade).RGBA())
	}
}

// floorAt shades the floor at eye distance along the ray described by legs.
func (s *Scene) floorAt(v world.View, legs []leg, along float64) shade.Colour {
	for i := len(legs) - 1; i >= 0; i-- {
		l := legs[i]
		if along < l.start {
			continue
		}
		p := l.seg.Line.A.Add(l.seg.Direction.Scale((along - l.start) * l.scale))
		return s.Lights.HorizontalSurfaceColour(v, l.seg.Region, p)
	}
	return shade.Black
}

func (s *Scene) columnAngle(x, width int) float64 {
	return (float64(x)+0.5)/float64(width)*s.FOV - s.FOV/2
}

// ColumnDirection returns the ray direction of screen column x.
func (s *Scene) ColumnDirection(facing geom.Vector2, x, width int) geom.Vector2 {
	return facing.Rotate(s.columnAngle(x, width))
}
