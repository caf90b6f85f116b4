package simulation

import (
	"fmt"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/world"
	"chosenoffset.com/portalrooms/internal/world/maze"
)

// Materials derived from the palette
func wallMaterial(c shade.Colour) shade.Material {
	return shade.Material{Colour: c, Ambient: 0.25, Diffuse: 0.75, Specular: 0.15, Shininess: 12}
}

func floorMaterial(c shade.Colour) shade.Material {
	return shade.Material{Colour: c, Ambient: 0.3, Diffuse: 0.7}
}

func portalMaterial(c shade.Colour) shade.Material {
	return shade.Material{Colour: c, Ambient: 0.6, Diffuse: 0.4, Specular: 0.4, Shininess: 24}
}

// Layout records the notable handles of a generated world.
type Layout struct {
	Maze   world.RegionID
	Annex  world.RegionID // zero without an annex
	Player world.EntityID
}

// NewWorld generates the maze world described by cfg. The maze becomes one
// region lit by a light every LightEvery cells. When AnnexSize is set, a
// square room beside the maze is joined to the maze's north-east cell by a
// fixed portal pair. The player starts in the north-west cell facing east.
func NewWorld(cfg *Config) (*world.World, Layout, error) {
	wc := cfg.World
	if wc.Width <= 0 || wc.Height <= 0 || wc.CellSize <= 0 {
		return nil, Layout{}, fmt.Errorf("failed to generate world: invalid maze size %dx%d@%v", wc.Width, wc.Height, wc.CellSize)
	}
	pal, err := cfg.Palette()
	if err != nil {
		return nil, Layout{}, fmt.Errorf("failed to generate world: %w", err)
	}

	grid := maze.Generate(maze.Config{
		Width:    wc.Width,
		Height:   wc.Height,
		Braiding: wc.Braiding,
		Seed:     wc.Seed,
	})

	s := wc.CellSize
	wallMat, floorMat := wallMaterial(pal.Wall), floorMaterial(pal.Floor)

	b := world.NewBuilder()
	var layout Layout
	layout.Maze = b.MazeRegion(grid, s, wallMat, floorMat)

	centre := func(x, y int) geom.Vector2 {
		return geom.Vector2{X: (float64(x) + 0.5) * s, Y: (float64(y) + 0.5) * s}
	}
	if wc.LightEvery > 0 {
		for i := 0; i < wc.Width*wc.Height; i += wc.LightEvery {
			b.Light(layout.Maze, centre(i%wc.Width, i/wc.Width), pal.Light)
		}
	}

	if wc.AnnexSize > 0 {
		layout.Annex = addAnnex(b, cfg, layout.Maze, pal, wallMat, floorMat)
	}

	layout.Player = b.Entity(world.Entity{
		Kind:     world.KindPlayer,
		Region:   layout.Maze,
		Position: centre(0, 0),
		Facing:   geom.Vector2{X: 1},
		Size:     cfg.Movement.PlayerSize,
	})

	w, err := b.Build()
	if err != nil {
		return nil, Layout{}, fmt.Errorf("failed to generate world: %w", err)
	}
	return w, layout, nil
}

// addAnnex builds the annex east of the maze. Its west side carries a
// cell-high portal linked to a portal standing just inside the maze's east
// boundary at the north-east cell.
func addAnnex(b *world.Builder, cfg *Config, mazeRegion world.RegionID, pal Palette, wallMat, floorMat shade.Material) world.RegionID {
	wc := cfg.World
	s := wc.CellSize
	east := float64(wc.Width) * s
	size := float64(wc.AnnexSize) * s

	x0, y0 := east+2*s, 0.0
	x1, y1 := x0+size, y0+size

	annex := b.Region(floorMat)
	walls := b.Polygon(annex, wallMat,
		geom.Vector2{X: x0, Y: y0},
		geom.Vector2{X: x1, Y: y0},
		geom.Vector2{X: x1, Y: y1},
		geom.Vector2{X: x0, Y: y1},
		geom.Vector2{X: x0, Y: y0 + s},
	)
	annexPortal := walls[len(walls)-1]

	px := east - cfg.Portal.Offset
	mazePortal := b.Wall(mazeRegion, geom.Seg(px, 0, px, s), portalMaterial(pal.Portal))
	b.LinkPair(mazePortal, annexPortal)

	b.Light(annex, geom.Vector2{X: (x0 + x1) / 2, Y: (y0 + y1) / 2}, pal.Light)
	b.Entity(world.Entity{
		Kind:     world.KindProp,
		Region:   annex,
		Position: geom.Vector2{X: x1 - s/2, Y: y1 - s/2},
		Facing:   geom.Vector2{X: -1},
		Size:     s / 8,
	})
	return annex
}
