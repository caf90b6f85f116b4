// Package world stores the region/wall/portal/light/entity graph.
//
// Everything is addressed through generation-checked handles into per-kind
// arenas, so a reference to a removed wall resolves to not-found rather than
// to whatever took its slot. Access is split into two phases: Read hands out
// a View for queries (ray tracing, lighting, rendering) and Mutate hands out a
// Tx for structural changes. The phases exclude each other; a call that would
// overlap the other phase fails with ErrWorldBusy instead of waiting.
package world

import (
	"errors"
	"fmt"
	"sync"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"

	"github.com/zyedidia/generic/mapset"
)

var (
	// ErrNotFound is returned when a handle no longer resolves.
	ErrNotFound = errors.New("world: not found")
	// ErrWorldBusy is returned when a mutation is attempted during a read
	// phase, or a read during a mutation.
	ErrWorldBusy = errors.New("world: busy")
	// ErrSlotRange is returned for an invalid portal slot.
	ErrSlotRange = errors.New("world: portal slot out of range")
)

// World owns the arenas. The zero value is not usable; call New.
type World struct {
	mu       sync.RWMutex
	regions  Arena[Region]
	walls    Arena[Wall]
	lights   Arena[LightSource]
	entities Arena[Entity]
	version  uint64
}

// New creates an empty world.
func New() *World {
	return &World{}
}

// Read runs fn with a read-only view. Views must not be retained after fn
// returns.
func (w *World) Read(fn func(v View) error) error {
	if !w.mu.TryRLock() {
		return ErrWorldBusy
	}
	defer w.mu.RUnlock()
	return fn(View{w: w})
}

// Mutate runs fn with exclusive access. It fails fast with ErrWorldBusy if
// any reader is active.
func (w *World) Mutate(fn func(tx Tx) error) error {
	if !w.mu.TryLock() {
		return ErrWorldBusy
	}
	defer w.mu.Unlock()
	return fn(Tx{View{w: w}})
}

// View is the query side of the world.
type View struct {
	w *World
}

// Version increases on every change that affects lighting or tracing.
func (v View) Version() uint64 { return v.w.version }

func (v View) Region(id RegionID) (Region, bool) {
	r, ok := v.w.regions.Get(id)
	if !ok {
		return Region{}, false
	}
	return *r, true
}

func (v View) Wall(id WallID) (Wall, bool) {
	wl, ok := v.w.walls.Get(id)
	if !ok {
		return Wall{}, false
	}
	return *wl, true
}

func (v View) Light(id LightID) (LightSource, bool) {
	l, ok := v.w.lights.Get(id)
	if !ok {
		return LightSource{}, false
	}
	return *l, true
}

func (v View) Entity(id EntityID) (Entity, bool) {
	e, ok := v.w.entities.Get(id)
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Regions lists every region in creation order.
func (v View) Regions() []RegionID {
	ids := make([]RegionID, 0, v.w.regions.Len())
	v.w.regions.Each(func(id RegionID, _ *Region) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Walls returns the walls of a region in authoring order.
func (v View) Walls(region RegionID) []Wall {
	r, ok := v.w.regions.Get(region)
	if !ok {
		return nil
	}
	out := make([]Wall, 0, len(r.Walls))
	for _, id := range r.Walls {
		if wl, ok := v.w.walls.Get(id); ok {
			out = append(out, *wl)
		}
	}
	return out
}

// Lights returns the real lights of a region.
func (v View) Lights(region RegionID) []LightSource {
	r, ok := v.w.regions.Get(region)
	if !ok {
		return nil
	}
	out := make([]LightSource, 0, len(r.Lights))
	for _, id := range r.Lights {
		if l, ok := v.w.lights.Get(id); ok {
			out = append(out, *l)
		}
	}
	return out
}

// Portal resolves the portal leaving wall id. It reports false when the wall
// has no link or the linked wall is gone.
func (v View) Portal(id WallID) (Portal, bool) {
	from, ok := v.w.walls.Get(id)
	if !ok || from.Next.IsZero() {
		return Portal{}, false
	}
	to, ok := v.w.walls.Get(from.Next)
	if !ok {
		return Portal{}, false
	}
	return NewPortal(*from, *to), true
}

// Tx is the mutation side of the world. It embeds View so queries (including
// ray traces) can run inside a mutation.
type Tx struct {
	View
}

func (tx Tx) touch() { tx.w.version++ }

// AddRegion creates an empty region.
func (tx Tx) AddRegion(floor shade.Material) RegionID {
	id := tx.w.regions.Insert(Region{Floor: floor, Entities: mapset.New[EntityID]()})
	r, _ := tx.w.regions.Get(id)
	r.ID = id
	tx.touch()
	return id
}

// AddWall appends a wall to a region. The normal is derived from the segment
// winding.
func (tx Tx) AddWall(region RegionID, line geom.LineSegment2, mat shade.Material) (WallID, error) {
	if !tx.w.regions.Contains(region) {
		return WallID{}, fmt.Errorf("add wall to region %v: %w", region, ErrNotFound)
	}
	id := tx.w.walls.Insert(Wall{
		Region:   region,
		Line:     line,
		Normal:   line.Normal(),
		Material: mat,
	})
	wl, _ := tx.w.walls.Get(id)
	wl.ID = id
	r, _ := tx.w.regions.Get(region)
	r.Walls = append(r.Walls, id)
	tx.touch()
	return id, nil
}

// RemoveWall deletes a wall and drops it from its region's wall list. Walls
// linking to it are left alone; their link stops resolving.
func (tx Tx) RemoveWall(id WallID) error {
	wl, ok := tx.w.walls.Get(id)
	if !ok {
		return fmt.Errorf("remove wall %v: %w", id, ErrNotFound)
	}
	if r, ok := tx.w.regions.Get(wl.Region); ok {
		for i, wid := range r.Walls {
			if wid == id {
				r.Walls = append(r.Walls[:i], r.Walls[i+1:]...)
				break
			}
		}
	}
	tx.w.walls.Remove(id)
	tx.touch()
	return nil
}

// Link makes from a portal into to. Pass a zero to to clear the link.
func (tx Tx) Link(from, to WallID) error {
	wl, ok := tx.w.walls.Get(from)
	if !ok {
		return fmt.Errorf("link from wall %v: %w", from, ErrNotFound)
	}
	if !to.IsZero() && !tx.w.walls.Contains(to) {
		return fmt.Errorf("link to wall %v: %w", to, ErrNotFound)
	}
	wl.Next = to
	tx.touch()
	return nil
}

// LinkPair links a and b to each other.
func (tx Tx) LinkPair(a, b WallID) error {
	if err := tx.Link(a, b); err != nil {
		return err
	}
	return tx.Link(b, a)
}

// AddLight places a light in a region.
func (tx Tx) AddLight(region RegionID, pos geom.Vector2, intensity shade.Colour) (LightID, error) {
	r, ok := tx.w.regions.Get(region)
	if !ok {
		return LightID{}, fmt.Errorf("add light to region %v: %w", region, ErrNotFound)
	}
	id := tx.w.lights.Insert(LightSource{Region: region, Position: pos, Intensity: intensity})
	l, _ := tx.w.lights.Get(id)
	l.ID = id
	r.Lights = append(r.Lights, id)
	tx.touch()
	return id, nil
}

// MoveLight repositions a light, moving it between regions when needed.
func (tx Tx) MoveLight(id LightID, region RegionID, pos geom.Vector2) error {
	l, ok := tx.w.lights.Get(id)
	if !ok {
		return fmt.Errorf("move light %v: %w", id, ErrNotFound)
	}
	if l.Region != region {
		dst, ok := tx.w.regions.Get(region)
		if !ok {
			return fmt.Errorf("move light %v to region %v: %w", id, region, ErrNotFound)
		}
		if src, ok := tx.w.regions.Get(l.Region); ok {
			src.Lights = removeID(src.Lights, id)
		}
		dst.Lights = append(dst.Lights, id)
		l.Region = region
	}
	l.Position = pos
	tx.touch()
	return nil
}

// RemoveLight deletes a light.
func (tx Tx) RemoveLight(id LightID) error {
	l, ok := tx.w.lights.Get(id)
	if !ok {
		return fmt.Errorf("remove light %v: %w", id, ErrNotFound)
	}
	if r, ok := tx.w.regions.Get(l.Region); ok {
		r.Lights = removeID(r.Lights, id)
	}
	tx.w.lights.Remove(id)
	tx.touch()
	return nil
}

// AddEntity stores e and registers it with its region.
func (tx Tx) AddEntity(e Entity) (EntityID, error) {
	r, ok := tx.w.regions.Get(e.Region)
	if !ok {
		return EntityID{}, fmt.Errorf("add entity to region %v: %w", e.Region, ErrNotFound)
	}
	e.Facing = e.Facing.Normalize()
	e.Dirty = true
	id := tx.w.entities.Insert(e)
	stored, _ := tx.w.entities.Get(id)
	stored.ID = id
	r.Entities.Put(id)
	return id, nil
}

// UpdateEntity applies fn to the stored entity. Region changes made by fn are
// reflected in the regions' entity sets.
func (tx Tx) UpdateEntity(id EntityID, fn func(e *Entity)) error {
	e, ok := tx.w.entities.Get(id)
	if !ok {
		return fmt.Errorf("update entity %v: %w", id, ErrNotFound)
	}
	before := e.Region
	fn(e)
	if e.Region == before {
		return nil
	}
	dst, ok := tx.w.regions.Get(e.Region)
	if !ok {
		target := e.Region
		e.Region = before
		return fmt.Errorf("move entity %v to region %v: %w", id, target, ErrNotFound)
	}
	if src, ok := tx.w.regions.Get(before); ok {
		src.Entities.Remove(id)
	}
	dst.Entities.Put(id)
	return nil
}

// RemoveEntity deletes an entity together with the portals and light it owns.
func (tx Tx) RemoveEntity(id EntityID) error {
	e, ok := tx.w.entities.Get(id)
	if !ok {
		return fmt.Errorf("remove entity %v: %w", id, ErrNotFound)
	}
	for slot := range e.Portals {
		if err := tx.ClearPortal(id, slot); err != nil {
			return err
		}
	}
	if !e.Light.IsZero() {
		if err := tx.RemoveLight(e.Light); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if r, ok := tx.w.regions.Get(e.Region); ok {
		r.Entities.Remove(id)
	}
	tx.w.entities.Remove(id)
	return nil
}

func removeID[T any](ids []ID[T], id ID[T]) []ID[T] {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
