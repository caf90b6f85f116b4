package world

import (
	"errors"
	"math"
	"slices"
	"testing"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/world/maze"
)

var grey = shade.Material{Colour: shade.Colour{R: 0.5, G: 0.5, B: 0.5}, Ambient: 0.2, Diffuse: 0.8}

func TestArenaGenerations(t *testing.T) {
	var a Arena[string]
	first := a.Insert("first")
	if !a.Remove(first) {
		t.Fatal("Expected removal of live handle to succeed")
	}
	second := a.Insert("second")

	if first.index != second.index {
		t.Fatalf("Expected slot reuse, got indices %d and %d", first.index, second.index)
	}
	if _, ok := a.Get(first); ok {
		t.Error("Stale handle must not resolve after its slot is reused")
	}
	if v, ok := a.Get(second); !ok || *v != "second" {
		t.Errorf("Expected 'second', got %v (ok=%v)", v, ok)
	}
	if a.Remove(first) {
		t.Error("Removing a stale handle should report false")
	}
	if _, ok := a.Get(ID[string]{}); ok {
		t.Error("Zero handle must never resolve")
	}
	if a.Len() != 1 {
		t.Errorf("Expected 1 live value, got %d", a.Len())
	}
}

func TestMutateDuringReadIsRejected(t *testing.T) {
	w := New()
	err := w.Read(func(v View) error {
		return w.Mutate(func(tx Tx) error {
			tx.AddRegion(grey)
			return nil
		})
	})
	if !errors.Is(err, ErrWorldBusy) {
		t.Fatalf("Expected ErrWorldBusy, got %v", err)
	}

	err = w.Mutate(func(tx Tx) error {
		return w.Read(func(View) error { return nil })
	})
	if !errors.Is(err, ErrWorldBusy) {
		t.Fatalf("Expected ErrWorldBusy for read inside mutation, got %v", err)
	}

	if err := w.Read(func(v View) error {
		if n := len(v.Regions()); n != 0 {
			t.Errorf("Rejected mutation must not apply, found %d regions", n)
		}
		return nil
	}); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
}

func TestNestedReadsAreAllowed(t *testing.T) {
	w := New()
	err := w.Read(func(View) error {
		return w.Read(func(View) error { return nil })
	})
	if err != nil {
		t.Fatalf("Expected nested reads to succeed, got %v", err)
	}
}

func buildTwoRooms(t *testing.T) (*World, RegionID, RegionID, WallID, WallID, EntityID) {
	t.Helper()
	b := NewBuilder()
	r1 := b.Region(grey)
	r2 := b.Region(grey)
	// R1 lies left of x=0, R2 left of x=100
	a := b.Wall(r1, geom.Seg(0, 0, 0, 10), grey)
	c := b.Wall(r2, geom.Seg(100, 0, 100, 10), grey)
	p := b.Entity(Entity{Kind: KindPlayer, Region: r1, Position: geom.Vector2{X: -5, Y: 5}, Facing: geom.Vector2{X: 1}, Size: 1})
	w, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return w, r1, r2, a, c, p
}

func TestPortalTranslateScenario(t *testing.T) {
	w, _, _, a, c, _ := buildTwoRooms(t)

	err := w.Mutate(func(tx Tx) error { return tx.LinkPair(a, c) })
	if err != nil {
		t.Fatalf("LinkPair failed: %v", err)
	}

	_ = w.Read(func(v View) error {
		p, ok := v.Portal(a)
		if !ok {
			t.Fatal("Expected portal on wall A")
		}
		if p.Scale != 1 {
			t.Errorf("Expected scale factor 1, got %v", p.Scale)
		}
		if got := p.Translate(geom.Vector2{X: 0, Y: 5}); !got.AlmostEqual(geom.Vector2{X: 100, Y: 5}, 1e-9) {
			t.Errorf("Expected (100,5), got %+v", got)
		}
		if got := p.Rotate(geom.Vector2{X: 1}); !got.AlmostEqual(geom.Vector2{X: -1}, 1e-9) {
			t.Errorf("Expected direction (-1,0), got %+v", got)
		}
		// a point in front of A lands behind B
		if got := p.Translate(geom.Vector2{X: -3, Y: 2}); !got.AlmostEqual(geom.Vector2{X: 103, Y: 8}, 1e-9) {
			t.Errorf("Expected (103,8), got %+v", got)
		}
		return nil
	})
}

func TestPortalScaleFactor(t *testing.T) {
	from := Wall{Line: geom.Seg(0, 0, 0, 10)}
	from.Normal = from.Line.Normal()
	to := Wall{Line: geom.Seg(50, 0, 50, 20)}
	to.Normal = to.Line.Normal()

	p := NewPortal(from, to)
	if math.Abs(p.Scale-2) > 1e-12 {
		t.Fatalf("Expected scale 2, got %v", p.Scale)
	}
	if got := p.Translate(geom.Vector2{X: -1, Y: 5}); !got.AlmostEqual(geom.Vector2{X: 52, Y: 10}, 1e-9) {
		t.Errorf("Expected (52,10), got %+v", got)
	}
}

func TestPortalRotateLeavesIntoTarget(t *testing.T) {
	from := Wall{Line: geom.Seg(0, 0, 0, 10)}
	from.Normal = from.Line.Normal()
	to := Wall{Line: geom.Seg(100, 0, 100, 10)}
	to.Normal = to.Line.Normal()
	p := NewPortal(from, to)

	s := math.Sqrt2 / 2
	tests := []struct {
		name    string
		dir     geom.Vector2
		turned  geom.Vector2
		rotated geom.Vector2
	}{
		{"front face", geom.Vector2{X: 1}, geom.Vector2{X: -1}, geom.Vector2{X: -1}},
		{"turned into the target wall", geom.Vector2{X: -1}, geom.Vector2{X: 1}, geom.Vector2{X: -1}},
		{"oblique into the target wall", geom.Vector2{X: -s, Y: s}, geom.Vector2{X: s, Y: -s}, geom.Vector2{X: -s, Y: s}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Turn(tt.dir); !got.AlmostEqual(tt.turned, 1e-9) {
				t.Errorf("Expected turn %+v, got %+v", tt.turned, got)
			}
			got := p.Rotate(tt.dir)
			if !got.AlmostEqual(tt.rotated, 1e-9) {
				t.Errorf("Expected rotation %+v, got %+v", tt.rotated, got)
			}
			if got.Dot(to.Normal) < 0 {
				t.Errorf("Expected %+v to leave into the target region", got)
			}
		})
	}
}

func TestRemoveEntityWithStaleFlashlight(t *testing.T) {
	w, r1, _, _, _, player := buildTwoRooms(t)

	err := w.Mutate(func(tx Tx) error {
		light, err := tx.AddLight(r1, geom.Vector2{X: -5, Y: 5}, shade.White)
		if err != nil {
			return err
		}
		if err := tx.UpdateEntity(player, func(e *Entity) { e.Light = light }); err != nil {
			return err
		}
		if err := tx.RemoveLight(light); err != nil {
			return err
		}
		return tx.RemoveEntity(player)
	})
	if err != nil {
		t.Fatalf("Expected a stale flashlight to be skipped, got %v", err)
	}
	_ = w.Read(func(v View) error {
		if _, ok := v.Entity(player); ok {
			t.Error("Expected the entity removed")
		}
		return nil
	})
}

func TestPlaceThenClearRestoresWalls(t *testing.T) {
	w, r1, _, _, _, player := buildTwoRooms(t)

	var before []WallID
	_ = w.Read(func(v View) error {
		r, _ := v.Region(r1)
		before = slices.Clone(r.Walls)
		return nil
	})

	var placed WallID
	err := w.Mutate(func(tx Tx) error {
		var err error
		placed, err = tx.PlacePortal(player, Wall{Region: r1, Line: geom.Seg(-10, 0, -10, 4), Material: grey}, 0, 1)
		if err != nil {
			return err
		}
		return tx.ClearPortal(player, 0)
	})
	if err != nil {
		t.Fatalf("Place/clear failed: %v", err)
	}

	_ = w.Read(func(v View) error {
		r, _ := v.Region(r1)
		if !slices.Equal(before, r.Walls) {
			t.Errorf("Expected walls %v, got %v", before, r.Walls)
		}
		if _, ok := v.Wall(placed); ok {
			t.Error("Cleared portal wall still resolves")
		}
		e, _ := v.Entity(player)
		if !e.Portals[0].IsZero() {
			t.Errorf("Expected empty slot, got %v", e.Portals[0])
		}
		return nil
	})
}

func TestPortalPairLinkingAndStalePartner(t *testing.T) {
	w, r1, r2, _, _, player := buildTwoRooms(t)

	var first, second WallID
	err := w.Mutate(func(tx Tx) error {
		var err error
		first, err = tx.PlacePortal(player, Wall{Region: r1, Line: geom.Seg(-10, 0, -10, 4), Material: grey}, 0, 1)
		if err != nil {
			return err
		}
		second, err = tx.PlacePortal(player, Wall{Region: r2, Line: geom.Seg(90, 0, 90, 4), Material: grey}, 1, 0)
		return err
	})
	if err != nil {
		t.Fatalf("PlacePortal failed: %v", err)
	}

	_ = w.Read(func(v View) error {
		if p, ok := v.Portal(first); !ok || p.To.ID != second {
			t.Errorf("Expected first to lead to second, got %+v (ok=%v)", p.To.ID, ok)
		}
		if p, ok := v.Portal(second); !ok || p.To.ID != first {
			t.Errorf("Expected second to lead to first, got %+v (ok=%v)", p.To.ID, ok)
		}
		return nil
	})

	if err := w.Mutate(func(tx Tx) error { return tx.ClearPortal(player, 0) }); err != nil {
		t.Fatalf("ClearPortal failed: %v", err)
	}

	_ = w.Read(func(v View) error {
		if _, ok := v.Portal(second); ok {
			t.Error("Partner of a cleared portal must degrade to a plain wall")
		}
		if _, ok := v.Wall(second); !ok {
			t.Error("Partner wall itself should remain")
		}
		return nil
	})
}

func TestPlacePortalErrors(t *testing.T) {
	w, r1, _, _, _, player := buildTwoRooms(t)
	err := w.Mutate(func(tx Tx) error {
		_, err := tx.PlacePortal(player, Wall{Region: r1, Line: geom.Seg(0, 0, 1, 0)}, 0, 0)
		return err
	})
	if !errors.Is(err, ErrSlotRange) {
		t.Errorf("Expected ErrSlotRange, got %v", err)
	}

	err = w.Mutate(func(tx Tx) error {
		_, err := tx.PlacePortal(EntityID{}, Wall{Region: r1, Line: geom.Seg(0, 0, 1, 0)}, 0, 1)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateEntityMovesBetweenRegionSets(t *testing.T) {
	w, r1, r2, _, _, player := buildTwoRooms(t)
	err := w.Mutate(func(tx Tx) error {
		return tx.UpdateEntity(player, func(e *Entity) { e.Region = r2 })
	})
	if err != nil {
		t.Fatalf("UpdateEntity failed: %v", err)
	}
	_ = w.Read(func(v View) error {
		a, _ := v.Region(r1)
		b, _ := v.Region(r2)
		if a.Entities.Has(player) || !b.Entities.Has(player) {
			t.Error("Expected player to move from region 1 set to region 2 set")
		}
		return nil
	})
}

func TestMazeWallsMergeColinearEdges(t *testing.T) {
	// a 3x1 corridor: every cell linked to its neighbour
	m := maze.New(3, 1)
	m.Link(maze.Point{X: 0, Y: 0}, maze.Point{X: 1, Y: 0})
	m.Link(maze.Point{X: 1, Y: 0}, maze.Point{X: 2, Y: 0})

	walls := MazeWalls(m, 10)
	if len(walls) != 4 {
		t.Fatalf("Expected 4 merged walls, got %d: %v", len(walls), walls)
	}

	want := map[geom.LineSegment2]bool{
		geom.Seg(0, 0, 30, 0):   true,
		geom.Seg(30, 10, 0, 10): true,
		geom.Seg(30, 0, 30, 10): true,
		geom.Seg(0, 10, 0, 0):   true,
	}
	for _, w := range walls {
		if !want[w] {
			t.Errorf("Unexpected wall %v", w)
		}
	}

	// normals face into the corridor
	centre := geom.Vector2{X: 15, Y: 5}
	for _, w := range walls {
		if centre.Sub(w.Midpoint()).Dot(w.Normal()) <= 0 {
			t.Errorf("Wall %v faces away from the interior", w)
		}
	}
}

func TestMazeWallsSplitAtOpenings(t *testing.T) {
	// 2x2 with the two top cells linked only to their lower neighbours
	m := maze.New(2, 2)
	m.Link(maze.Point{X: 0, Y: 0}, maze.Point{X: 0, Y: 1})
	m.Link(maze.Point{X: 1, Y: 0}, maze.Point{X: 1, Y: 1})
	m.Link(maze.Point{X: 0, Y: 1}, maze.Point{X: 1, Y: 1})

	walls := MazeWalls(m, 1)
	// north row merged, south row merged, west/east columns merged, plus the
	// two faces of the divider between the top cells
	if len(walls) != 6 {
		t.Fatalf("Expected 6 walls, got %d: %v", len(walls), walls)
	}
}
