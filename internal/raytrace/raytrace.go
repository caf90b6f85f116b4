// Package raytrace casts rays through regions, following portals.
//
// All functions take a world.View, so they must run inside World.Read or
// World.Mutate.
package raytrace

import (
	"math"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/world"
)

// Options tunes the tracer.
type Options struct {
	// ViewDist is the length of every probe ray.
	ViewDist float64
	// PortalLimit caps how many region legs one trace may produce.
	PortalLimit int
	// EdgeMargin rejects portal hits this close (in wall parameter space) to
	// either end of the wall, so rays do not leak around portal corners.
	EdgeMargin float64
	// Nudge moves the probe origin forward after a portal hop so the exit
	// wall is not hit again.
	Nudge float64
	// SampleLength is the spacing of sample points along a wall used by
	// FindShortestPath.
	SampleLength float64
	// Epsilon is the distance tolerance for clear-path checks.
	Epsilon float64
}

// DefaultOptions returns the settings of the first-person view.
func DefaultOptions() Options {
	return Options{
		ViewDist:     1000,
		PortalLimit:  15,
		EdgeMargin:   0.01,
		Nudge:        1,
		SampleLength: 4,
		Epsilon:      1e-6,
	}
}

// Segment is one leg of a traced ray inside a single region.
type Segment struct {
	Region    world.RegionID
	Line      geom.LineSegment2
	Direction geom.Vector2 // unit
	Wall      world.Wall   // the wall at Line.B, valid when HasHit
	HasHit    bool
	// Exhausted marks the last leg of a trace cut short by PortalLimit while
	// it was still passing through portals.
	Exhausted bool
}

// Len returns the leg length.
func (s Segment) Len() float64 { return s.Line.Len() }

// SingleRayTrace intersects a ray with every wall of one region and returns
// the closest hit, or a miss of length ViewDist. On equal distances the wall
// listed first wins.
func SingleRayTrace(v world.View, opts Options, origin, direction geom.Vector2, region world.RegionID) Segment {
	dir := direction.Normalize()
	probe := geom.LineSegment2{A: origin, B: origin.Add(dir.Scale(opts.ViewDist))}

	seg := Segment{Region: region, Line: probe, Direction: dir}
	best := math.Inf(1)
	for _, wall := range v.Walls(region) {
		p := probe.Intersection(wall.Line)
		if p.IsNaN() {
			continue
		}
		if d := geom.DistanceSq(origin, p); d < best {
			best = d
			seg.Line.B = p
			seg.Wall = wall
			seg.HasHit = true
		}
	}
	return seg
}

// Trace is a lazily evaluated, finite sequence of legs. It cannot be
// restarted.
type Trace struct {
	v      world.View
	opts   Options
	start  geom.Vector2 // where the next leg begins
	probe  geom.Vector2 // where the next probe ray begins
	dir    geom.Vector2
	region world.RegionID
	legs   int
	done   bool

	crossed    world.Portal
	hasCrossed bool
}

// RayTrace starts a portal-following trace.
func RayTrace(v world.View, opts Options, origin, direction geom.Vector2, region world.RegionID) *Trace {
	return &Trace{
		v:      v,
		opts:   opts,
		start:  origin,
		probe:  origin,
		dir:    direction.Normalize(),
		region: region,
	}
}

// Next returns the next leg, or false once the trace has ended.
func (t *Trace) Next() (Segment, bool) {
	if t.done || t.opts.PortalLimit <= 0 {
		return Segment{}, false
	}

	seg := SingleRayTrace(t.v, t.opts, t.probe, t.dir, t.region)
	seg.Line.A = t.start
	t.legs++
	t.hasCrossed = false

	portal, ok := t.consumes(seg)
	if !ok {
		t.done = true
		return seg, true
	}
	if t.legs >= t.opts.PortalLimit {
		seg.Exhausted = true
		t.done = true
		return seg, true
	}

	t.crossed, t.hasCrossed = portal, true
	t.start = portal.Translate(seg.Line.B)
	t.dir = portal.Rotate(t.dir).Normalize()
	t.probe = t.start.Add(t.dir.Scale(t.opts.Nudge))
	t.region = portal.To.Region
	return seg, true
}

// Crossed returns the portal the most recent leg passed through, if any.
func (t *Trace) Crossed() (world.Portal, bool) {
	return t.crossed, t.hasCrossed
}

// consumes reports whether the leg ends on a portal the ray passes through.
func (t *Trace) consumes(seg Segment) (world.Portal, bool) {
	if !seg.HasHit {
		return world.Portal{}, false
	}
	portal, ok := t.v.Portal(seg.Wall.ID)
	if !ok {
		return world.Portal{}, false
	}
	tt := seg.Wall.Line.TOf(seg.Line.B)
	if tt < t.opts.EdgeMargin || tt > 1-t.opts.EdgeMargin {
		return world.Portal{}, false
	}
	if seg.Wall.Normal.Dot(seg.Direction) > 0 {
		return world.Portal{}, false
	}
	return portal, true
}

// Collect drains the remaining legs.
func (t *Trace) Collect() []Segment {
	var out []Segment
	for {
		seg, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, seg)
	}
}
