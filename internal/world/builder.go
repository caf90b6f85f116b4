package world

import (
	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/world/maze"
)

// Builder batch-constructs a world before anything else can see it. The first
// error sticks and is reported by Build; later calls become no-ops.
type Builder struct {
	w   *World
	tx  Tx
	err error
}

// NewBuilder starts an empty world.
func NewBuilder() *Builder {
	w := New()
	return &Builder{w: w, tx: Tx{View{w: w}}}
}

func (b *Builder) Region(floor shade.Material) RegionID {
	if b.err != nil {
		return RegionID{}
	}
	return b.tx.AddRegion(floor)
}

func (b *Builder) Wall(region RegionID, line geom.LineSegment2, mat shade.Material) WallID {
	if b.err != nil {
		return WallID{}
	}
	id, err := b.tx.AddWall(region, line, mat)
	b.err = err
	return id
}

// Polygon adds one wall per edge of a closed polygon given in counter-clockwise
// order, so every normal faces inward.
func (b *Builder) Polygon(region RegionID, mat shade.Material, pts ...geom.Vector2) []WallID {
	ids := make([]WallID, 0, len(pts))
	for i := range pts {
		ids = append(ids, b.Wall(region, geom.LineSegment2{A: pts[i], B: pts[(i+1)%len(pts)]}, mat))
	}
	return ids
}

func (b *Builder) Light(region RegionID, pos geom.Vector2, intensity shade.Colour) LightID {
	if b.err != nil {
		return LightID{}
	}
	id, err := b.tx.AddLight(region, pos, intensity)
	b.err = err
	return id
}

// Link makes from a one-way portal into to.
func (b *Builder) Link(from, to WallID) {
	if b.err != nil {
		return
	}
	b.err = b.tx.Link(from, to)
}

func (b *Builder) LinkPair(a, c WallID) {
	if b.err != nil {
		return
	}
	b.err = b.tx.LinkPair(a, c)
}

func (b *Builder) Entity(e Entity) EntityID {
	if b.err != nil {
		return EntityID{}
	}
	id, err := b.tx.AddEntity(e)
	b.err = err
	return id
}

// MazeRegion turns a maze grid into a single region whose walls are the
// merged cell edges.
func (b *Builder) MazeRegion(g maze.Grid, cellSize float64, wallMat, floor shade.Material) RegionID {
	region := b.Region(floor)
	for _, seg := range MazeWalls(g, cellSize) {
		b.Wall(region, seg, wallMat)
	}
	return region
}

// Build returns the finished world.
func (b *Builder) Build() (*World, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.w, nil
}

type edgeKind int

const (
	edgeNorth edgeKind = iota
	edgeEast
	edgeSouth
	edgeWest
)

// MazeWalls emits a wall for every cell side without a link, wound so the
// normal faces into the cell, then merges colinear neighbours into longer
// walls.
func MazeWalls(g maze.Grid, cellSize float64) []geom.LineSegment2 {
	w, h := g.Width(), g.Height()
	s := cellSize

	side := func(x, y int, kind edgeKind) (geom.LineSegment2, bool) {
		c := g.Cell(x, y)
		x0, y0 := float64(x)*s, float64(y)*s
		x1, y1 := x0+s, y0+s
		switch kind {
		case edgeNorth:
			return geom.Seg(x0, y0, x1, y0), !c.Linked(maze.Point{X: x, Y: y - 1})
		case edgeEast:
			return geom.Seg(x1, y0, x1, y1), !c.Linked(maze.Point{X: x + 1, Y: y})
		case edgeSouth:
			return geom.Seg(x1, y1, x0, y1), !c.Linked(maze.Point{X: x, Y: y + 1})
		default:
			return geom.Seg(x0, y1, x0, y0), !c.Linked(maze.Point{X: x - 1, Y: y})
		}
	}

	var walls []geom.LineSegment2

	// Horizontal edges scan row by row, vertical edges column by column, so
	// touching edges of one kind arrive consecutively.
	for _, kind := range []edgeKind{edgeNorth, edgeSouth} {
		for y := 0; y < h; y++ {
			var m merger
			for x := 0; x < w; x++ {
				if seg, ok := side(x, y, kind); ok {
					walls = m.push(walls, seg)
				} else {
					walls = m.flush(walls)
				}
			}
			walls = m.flush(walls)
		}
	}
	for _, kind := range []edgeKind{edgeEast, edgeWest} {
		for x := 0; x < w; x++ {
			var m merger
			for y := 0; y < h; y++ {
				if seg, ok := side(x, y, kind); ok {
					walls = m.push(walls, seg)
				} else {
					walls = m.flush(walls)
				}
			}
			walls = m.flush(walls)
		}
	}
	return walls
}

// merger accumulates a run of touching colinear segments.
type merger struct {
	run    geom.LineSegment2
	active bool
}

const mergeEpsilon = 0.001

func (m *merger) push(out []geom.LineSegment2, seg geom.LineSegment2) []geom.LineSegment2 {
	if !m.active {
		m.run, m.active = seg, true
		return out
	}
	if m.run.Colinear(seg, mergeEpsilon) {
		switch {
		case m.run.B.AlmostEqual(seg.A, mergeEpsilon):
			m.run.B = seg.B
			return out
		case seg.B.AlmostEqual(m.run.A, mergeEpsilon):
			m.run.A = seg.A
			return out
		}
	}
	out = m.flush(out)
	m.run, m.active = seg, true
	return out
}

func (m *merger) flush(out []geom.LineSegment2) []geom.LineSegment2 {
	if m.active {
		out = append(out, m.run)
		m.active = false
	}
	return out
}
