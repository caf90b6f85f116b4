package raytrace

import (
	"math"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/world"
)

// ClearPathBetween traces from origin toward target, following portals, and
// returns the legs up to target when nothing blocks the way. target is given
// in origin's frame; every portal crossed carries it (and the remaining
// distance) into the next region's frame. The last leg is cut at the target
// distance and the path only counts as clear when it ends on the carried
// target.
func ClearPathBetween(v world.View, opts Options, origin, target geom.Vector2, region world.RegionID) ([]Segment, bool) {
	delta := target.Sub(origin)
	remaining := delta.Len()
	if remaining <= opts.Epsilon {
		return []Segment{{Region: region, Line: geom.LineSegment2{A: origin, B: origin}}}, true
	}

	var path []Segment
	tr := RayTrace(v, opts, origin, delta, region)
	for {
		seg, ok := tr.Next()
		if !ok {
			return nil, false
		}
		l := seg.Len()
		if remaining <= l+opts.Epsilon {
			end := seg.Line.A.Add(seg.Direction.Scale(remaining))
			if remaining < l-opts.Epsilon {
				seg.HasHit = false
				seg.Wall = world.Wall{}
			}
			seg.Line.B = end
			seg.Exhausted = false
			path = append(path, seg)
			return path, end.AlmostEqual(target, opts.Epsilon*math.Max(1, remaining))
		}
		path = append(path, seg)

		portal, crossed := tr.Crossed()
		if !crossed {
			return nil, false
		}
		target = portal.Translate(target)
		remaining = (remaining - l) * portal.Scale
	}
}

// ClearPathNoPortalsBetween is ClearPathBetween restricted to one region:
// portals count as solid walls.
func ClearPathNoPortalsBetween(v world.View, opts Options, origin, target geom.Vector2, region world.RegionID) (Segment, bool) {
	delta := target.Sub(origin)
	dist := delta.Len()
	if dist <= opts.Epsilon {
		return Segment{Region: region, Line: geom.LineSegment2{A: origin, B: origin}}, true
	}
	seg := SingleRayTrace(v, opts, origin, delta, region)
	if seg.Len()+opts.Epsilon < dist {
		return Segment{}, false
	}
	if seg.Len() > dist+opts.Epsilon {
		seg.HasHit = false
		seg.Wall = world.Wall{}
	}
	seg.Line.B = target
	return seg, true
}

// ShortestPath is the result of FindShortestPath.
type ShortestPath struct {
	Segment Segment
	Sample  geom.Vector2 // the point on the wall the path reaches
	// Evaluated counts the sample points that were traced.
	Evaluated int
}

// PortalSamples spreads floor(len/spacing) points along seg, each centred in
// its own slice of the segment.
func PortalSamples(seg geom.LineSegment2, spacing float64) []geom.Vector2 {
	if spacing <= 0 {
		return nil
	}
	n := int(math.Floor(seg.Len() / spacing))
	out := make([]geom.Vector2, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, seg.AtT((float64(i)+0.5)/float64(n)))
	}
	return out
}

// FindShortestPath samples points along wallSeg and keeps the shortest clear
// straight path from pos that reaches the wall from its front side.
func FindShortestPath(v world.View, opts Options, region world.RegionID, pos, wallNormal geom.Vector2, wallSeg geom.LineSegment2) (ShortestPath, bool) {
	samples := PortalSamples(wallSeg, opts.SampleLength)

	var best ShortestPath
	bestDist := math.Inf(1)
	found := false
	for _, p := range samples {
		seg, ok := ClearPathNoPortalsBetween(v, opts, pos, p, region)
		if !ok {
			continue
		}
		if seg.Direction.Dot(wallNormal) >= -opts.Epsilon {
			continue
		}
		if d := geom.DistanceSq(pos, p); d < bestDist {
			bestDist = d
			best = ShortestPath{Segment: seg, Sample: p}
			found = true
		}
	}
	best.Evaluated = len(samples)
	return best, found
}
