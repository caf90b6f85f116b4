package raytrace

import (
	"math"
	"testing"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/world"
)

var plain = shade.Material{Colour: shade.White, Ambient: 0.2, Diffuse: 0.8}

func read(t *testing.T, w *world.World, fn func(v world.View)) {
	t.Helper()
	if err := w.Read(func(v world.View) error { fn(v); return nil }); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
}

// box builds a counter-clockwise square region with inward normals.
func box(b *world.Builder, x0, y0, x1, y1 float64) world.RegionID {
	r := b.Region(plain)
	b.Polygon(r, plain,
		geom.Vector2{X: x0, Y: y0},
		geom.Vector2{X: x1, Y: y0},
		geom.Vector2{X: x1, Y: y1},
		geom.Vector2{X: x0, Y: y1},
	)
	return r
}

func TestEmptyRegionMisses(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	opts := DefaultOptions()
	read(t, w, func(v world.View) {
		segs := RayTrace(v, opts, geom.Vector2{}, geom.Vector2{X: 0, Y: 3}, r).Collect()
		if len(segs) != 1 {
			t.Fatalf("Expected a single segment, got %d", len(segs))
		}
		if segs[0].HasHit {
			t.Error("Expected a miss")
		}
		if l := segs[0].Len(); math.Abs(l-opts.ViewDist) > 1e-9 {
			t.Errorf("Expected length %v, got %v", opts.ViewDist, l)
		}
	})
}

func TestSingleRayTraceClosestWallWins(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	b.Wall(r, geom.Seg(20, 10, 20, -10), plain)
	near := b.Wall(r, geom.Seg(10, 10, 10, -10), plain)
	first := b.Wall(r, geom.Seg(30, 10, 30, -10), plain)
	dup := b.Wall(r, geom.Seg(30, 10, 30, -10), plain)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	read(t, w, func(v world.View) {
		seg := SingleRayTrace(v, DefaultOptions(), geom.Vector2{}, geom.Vector2{X: 1}, r)
		if !seg.HasHit || seg.Wall.ID != near {
			t.Fatalf("Expected hit on nearest wall %v, got %v", near, seg.Wall.ID)
		}
		if !seg.Line.B.AlmostEqual(geom.Vector2{X: 10}, 1e-9) {
			t.Errorf("Expected hit at (10,0), got %+v", seg.Line.B)
		}

		// only the two coincident walls are ahead of this origin
		seg = SingleRayTrace(v, DefaultOptions(), geom.Vector2{X: 25}, geom.Vector2{X: 1}, r)
		if seg.Wall.ID != first || seg.Wall.ID == dup {
			t.Errorf("Expected tie to go to first listed wall %v, got %v", first, seg.Wall.ID)
		}
	})
}

// twoRooms links A=(0,0)-(0,10) in R1 to B=(100,0)-(100,10) in R2 and closes
// R2 with a solid wall at x=50.
func twoRooms(t *testing.T) (w *world.World, r1, r2 world.RegionID, a, bw, solid world.WallID) {
	t.Helper()
	b := world.NewBuilder()
	r1 = b.Region(plain)
	r2 = b.Region(plain)
	a = b.Wall(r1, geom.Seg(0, 0, 0, 10), plain)
	bw = b.Wall(r2, geom.Seg(100, 0, 100, 10), plain)
	solid = b.Wall(r2, geom.Seg(50, 10, 50, 0), plain)
	b.LinkPair(a, bw)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return w, r1, r2, a, bw, solid
}

func TestRayTraceThroughPortalPair(t *testing.T) {
	w, r1, r2, a, _, solid := twoRooms(t)

	read(t, w, func(v world.View) {
		segs := RayTrace(v, DefaultOptions(), geom.Vector2{X: -5, Y: 5}, geom.Vector2{X: 1}, r1).Collect()
		if len(segs) != 2 {
			t.Fatalf("Expected 2 legs, got %d", len(segs))
		}

		first := segs[0]
		if first.Region != r1 || first.Wall.ID != a {
			t.Errorf("Expected first leg in R1 ending on A, got region %v wall %v", first.Region, first.Wall.ID)
		}
		if !first.Line.B.AlmostEqual(geom.Vector2{X: 0, Y: 5}, 1e-9) {
			t.Errorf("Expected portal hit at (0,5), got %+v", first.Line.B)
		}

		second := segs[1]
		if second.Region != r2 {
			t.Errorf("Expected second leg in R2, got %v", second.Region)
		}
		if !second.Line.A.AlmostEqual(geom.Vector2{X: 100, Y: 5}, 1e-9) {
			t.Errorf("Expected continuation from (100,5), got %+v", second.Line.A)
		}
		if !second.Direction.AlmostEqual(geom.Vector2{X: -1}, 1e-9) {
			t.Errorf("Expected direction (-1,0), got %+v", second.Direction)
		}
		if !second.HasHit || second.Wall.ID != solid {
			t.Errorf("Expected second leg to stop on the solid wall")
		}
		if !second.Line.B.AlmostEqual(geom.Vector2{X: 50, Y: 5}, 1e-9) {
			t.Errorf("Expected stop at (50,5), got %+v", second.Line.B)
		}
	})
}

func TestRayTraceIgnoresPortalEdgesAndBackFaces(t *testing.T) {
	w, r1, _, a, _, _ := twoRooms(t)

	read(t, w, func(v world.View) {
		// within 1% of the wall end: treated as solid
		segs := RayTrace(v, DefaultOptions(), geom.Vector2{X: -5, Y: 0.05}, geom.Vector2{X: 1}, r1).Collect()
		if len(segs) != 1 || segs[0].Wall.ID != a {
			t.Errorf("Expected edge hit to stop on A, got %d legs", len(segs))
		}

		// from behind the wall
		segs = RayTrace(v, DefaultOptions(), geom.Vector2{X: 5, Y: 5}, geom.Vector2{X: -1}, r1).Collect()
		if len(segs) != 1 || segs[0].Wall.ID != a {
			t.Errorf("Expected back-face hit to stop on A, got %d legs", len(segs))
		}
	})
}

func TestFacingPortalsStopAtHopLimit(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	left := b.Wall(r, geom.Seg(0, 10, 0, 0), plain)
	right := b.Wall(r, geom.Seg(10, 0, 10, 10), plain)
	b.LinkPair(left, right)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	opts := DefaultOptions()
	read(t, w, func(v world.View) {
		segs := RayTrace(v, opts, geom.Vector2{X: 5, Y: 5}, geom.Vector2{X: -1}, r).Collect()
		if len(segs) != opts.PortalLimit {
			t.Fatalf("Expected %d legs, got %d", opts.PortalLimit, len(segs))
		}
		last := segs[len(segs)-1]
		if !last.Exhausted {
			t.Error("Expected last leg to be marked exhausted")
		}
		for _, s := range segs[:len(segs)-1] {
			if s.Exhausted {
				t.Fatal("Only the last leg may be exhausted")
			}
		}
	})
}

func TestSelfLinkedPortalsStopAtHopLimit(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	// each wall leads back into itself: rotated by 180° and mirrored along
	// its length
	left := b.Wall(r, geom.Seg(0, 10, 0, 0), plain)
	right := b.Wall(r, geom.Seg(10, 0, 10, 10), plain)
	b.Link(left, left)
	b.Link(right, right)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	opts := DefaultOptions()
	opts.PortalLimit = 5
	read(t, w, func(v world.View) {
		p, ok := v.Portal(left)
		if !ok || math.Abs(math.Abs(p.Angle())-math.Pi) > 1e-9 {
			t.Fatalf("Expected a 180° self portal, got angle %v", p.Angle())
		}

		segs := RayTrace(v, opts, geom.Vector2{X: 5, Y: 3}, geom.Vector2{X: -1}, r).Collect()
		if len(segs) != opts.PortalLimit || !segs[len(segs)-1].Exhausted {
			t.Fatalf("Expected %d legs ending exhausted, got %d", opts.PortalLimit, len(segs))
		}
		// mirrored offset: y alternates between 3 and 7
		if !segs[1].Line.A.AlmostEqual(geom.Vector2{X: 0, Y: 7}, 1e-9) {
			t.Errorf("Expected exit at (0,7), got %+v", segs[1].Line.A)
		}
		if !segs[1].Direction.AlmostEqual(geom.Vector2{X: 1}, 1e-9) {
			t.Errorf("Expected exit heading +x, got %+v", segs[1].Direction)
		}
	})
}

func TestClearPathBetween(t *testing.T) {
	b := world.NewBuilder()
	r := box(b, 0, 0, 100, 100)
	b.Wall(r, geom.Seg(50, 20, 50, 80), plain)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	opts := DefaultOptions()
	read(t, w, func(v world.View) {
		path, ok := ClearPathBetween(v, opts, geom.Vector2{X: 10, Y: 10}, geom.Vector2{X: 90, Y: 10}, r)
		if !ok {
			t.Fatal("Expected a clear path below the blocker")
		}
		if end := path[len(path)-1].Line.B; !end.AlmostEqual(geom.Vector2{X: 90, Y: 10}, 1e-9) {
			t.Errorf("Expected path to end on the target, got %+v", end)
		}

		if _, ok := ClearPathBetween(v, opts, geom.Vector2{X: 10, Y: 50}, geom.Vector2{X: 90, Y: 50}, r); ok {
			t.Error("Expected the blocker to occlude the path")
		}

		if _, ok := ClearPathNoPortalsBetween(v, opts, geom.Vector2{X: 10, Y: 50}, geom.Vector2{X: 40, Y: 50}, r); !ok {
			t.Error("Expected a clear path in front of the blocker")
		}
		if _, ok := ClearPathNoPortalsBetween(v, opts, geom.Vector2{X: 10, Y: 50}, geom.Vector2{X: 90, Y: 50}, r); ok {
			t.Error("Expected the blocker to occlude the single-region path")
		}

		// a target on a wall counts as reached
		if _, ok := ClearPathNoPortalsBetween(v, opts, geom.Vector2{X: 10, Y: 50}, geom.Vector2{X: 50, Y: 50}, r); !ok {
			t.Error("Expected a point on the blocker to be reachable")
		}
	})
}

func TestClearPathBetweenThroughPortal(t *testing.T) {
	w, r1, r2, _, _, _ := twoRooms(t)

	read(t, w, func(v world.View) {
		path, ok := ClearPathBetween(v, DefaultOptions(), geom.Vector2{X: -5, Y: 5}, geom.Vector2{X: 5, Y: 5}, r1)
		if !ok {
			t.Fatal("Expected a clear path through the portal")
		}
		last := path[len(path)-1]
		if last.Region != r2 {
			t.Errorf("Expected path to end in R2, got %v", last.Region)
		}
		if !last.Line.B.AlmostEqual(geom.Vector2{X: 95, Y: 5}, 1e-9) {
			t.Errorf("Expected end at (95,5), got %+v", last.Line.B)
		}

		// beyond the solid wall in R2
		if _, ok := ClearPathBetween(v, DefaultOptions(), geom.Vector2{X: -5, Y: 5}, geom.Vector2{X: 70, Y: 5}, r1); ok {
			t.Error("Expected the solid wall in R2 to block the path")
		}
	})
}

func TestPortalSamplesCount(t *testing.T) {
	seg := geom.Seg(0, 0, 0, 10)
	got := PortalSamples(seg, 3)
	if len(got) != 3 {
		t.Fatalf("Expected floor(10/3)=3 samples, got %d", len(got))
	}
	for _, p := range got {
		if tt := seg.TOf(p); tt <= 0 || tt >= 1 {
			t.Errorf("Sample %+v falls on a wall end (t=%v)", p, tt)
		}
	}
	if n := len(PortalSamples(seg, 20)); n != 0 {
		t.Errorf("Expected no samples when the wall is shorter than the spacing, got %d", n)
	}
}

func TestFindShortestPath(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	target := b.Wall(r, geom.Seg(0, 0, 0, 10), plain) // normal (-1,0)
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	opts := DefaultOptions()
	opts.SampleLength = 3
	read(t, w, func(v world.View) {
		wall, _ := v.Wall(target)
		res, ok := FindShortestPath(v, opts, r, geom.Vector2{X: -20, Y: 5}, wall.Normal, wall.Line)
		if !ok {
			t.Fatal("Expected the wall to be visible")
		}
		if res.Evaluated != 3 {
			t.Errorf("Expected floor(10/3)=3 evaluated samples, got %d", res.Evaluated)
		}
		if !res.Sample.AlmostEqual(geom.Vector2{X: 0, Y: 5}, 1e-9) {
			t.Errorf("Expected the middle sample to be closest, got %+v", res.Sample)
		}

		// from behind the wall nothing arrives on the front side
		if _, ok := FindShortestPath(v, opts, r, geom.Vector2{X: 20, Y: 5}, wall.Normal, wall.Line); ok {
			t.Error("Expected no path from behind the wall")
		}
	})
}

func TestFindShortestPathOccluded(t *testing.T) {
	b := world.NewBuilder()
	r := b.Region(plain)
	target := b.Wall(r, geom.Seg(0, 0, 0, 10), plain)
	b.Wall(r, geom.Seg(-10, 20, -10, -10), plain) // blocker, facing +x
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	read(t, w, func(v world.View) {
		wall, _ := v.Wall(target)
		if _, ok := FindShortestPath(v, DefaultOptions(), r, geom.Vector2{X: -20, Y: 5}, wall.Normal, wall.Line); ok {
			t.Error("Expected a fully occluded wall to yield no path")
		}
	})
}
