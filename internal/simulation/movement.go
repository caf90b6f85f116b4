package simulation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/world"
)

// ErrNoSurface is returned by ShootPortal when the shot does not end on a
// plain wall.
var ErrNoSurface = errors.New("simulation: no wall to place a portal on")

// MoveEntity moves an entity by delta. The movement follows the ray tracer:
// portals it passes carry the entity into their target region (position,
// facing and size remapped), solid walls stop it Size short of the wall, and
// the leftover motion slides along the wall once.
func MoveEntity(tx world.Tx, opts raytrace.Options, id world.EntityID, delta geom.Vector2) error {
	e, ok := tx.Entity(id)
	if !ok {
		return fmt.Errorf("move entity %v: %w", id, world.ErrNotFound)
	}
	remaining := delta.Len()
	if remaining <= opts.Epsilon {
		return nil
	}

	pos, region, facing, size := e.Position, e.Region, e.Facing, e.Size
	dir := delta.Normalize()

	for attempt := 0; attempt < 2 && remaining > opts.Epsilon; attempt++ {
		tr := raytrace.RayTrace(tx.View, opts, pos, dir, region)
		for {
			seg, ok := tr.Next()
			if !ok {
				break
			}
			l := seg.Len()
			portal, crossed := tr.Crossed()
			if crossed && remaining > l {
				remaining = (remaining - l) * portal.Scale
				size *= portal.Scale
				facing = portal.Turn(facing).Normalize()
				region = portal.To.Region
				continue
			}

			travel := math.Min(remaining, l)
			var normal geom.Vector2
			if seg.HasHit && !crossed {
				normal = seg.Wall.Normal
				if seg.Direction.Dot(normal) > 0 {
					normal = normal.Neg()
				}
				if approach := -seg.Direction.Dot(normal); approach > opts.Epsilon {
					gap := seg.Line.A.Sub(seg.Line.B).Dot(normal)
					travel = math.Min(travel, math.Max(0, (gap-size)/approach))
				}
			}
			pos = seg.Line.A.Add(seg.Direction.Scale(travel))
			dir = seg.Direction
			remaining -= travel
			region = seg.Region

			if !seg.HasHit || remaining <= opts.Epsilon {
				remaining = 0
				break
			}
			// slide: keep the part of the motion along the wall
			tangent := dir.Sub(normal.Scale(dir.Dot(normal)))
			remaining *= tangent.Len()
			dir = tangent.Normalize()
			break
		}
	}

	moved := !pos.AlmostEqual(e.Position, opts.Epsilon) || region != e.Region
	return tx.UpdateEntity(id, func(e *world.Entity) {
		e.Moving = delta
		if !moved {
			return
		}
		e.Position = pos
		e.Region = region
		e.Facing = facing
		e.Size = size
		e.Dirty = true
	})
}

// ShootPortal traces along the entity's facing and, when the shot ends on a
// plain wall, places a portal of cfg.Width on it in slot. The portal is
// parallel to the host wall, cfg.Offset in front of it on the shooter's side
// and kept within the wall's ends. Shots that would overlap another portal
// are refused. It links with the portal held in the other slot.
func ShootPortal(tx world.Tx, opts raytrace.Options, cfg PortalConfig, mat shade.Material, id world.EntityID, slot int) (world.WallID, error) {
	if slot < 0 || slot >= world.PortalSlots {
		return world.WallID{}, fmt.Errorf("shoot portal into slot %d: %w", slot, world.ErrSlotRange)
	}
	e, ok := tx.Entity(id)
	if !ok {
		return world.WallID{}, fmt.Errorf("shoot portal for entity %v: %w", id, world.ErrNotFound)
	}

	segs := raytrace.RayTrace(tx.View, opts, e.Position, e.Facing, e.Region).Collect()
	if len(segs) == 0 {
		return world.WallID{}, ErrNoSurface
	}
	last := segs[len(segs)-1]
	if !last.HasHit || last.Exhausted {
		return world.WallID{}, ErrNoSurface
	}
	host := last.Wall
	if !host.Next.IsZero() {
		return world.WallID{}, ErrNoSurface
	}
	for _, owned := range e.Portals {
		if owned == host.ID {
			return world.WallID{}, ErrNoSurface
		}
	}

	hl := host.Line.Len()
	if hl <= opts.Epsilon {
		return world.WallID{}, ErrNoSurface
	}
	width := math.Min(cfg.Width, hl)
	half := width / 2 / hl
	t := math.Max(half, math.Min(1-half, host.Line.TOf(last.Line.B)))

	// Maze walls come in back-to-back pairs, so the hit wall may face away
	// from the shooter. The portal always goes on the shooter's side.
	normal := host.Normal
	facingAway := last.Direction.Dot(normal) > 0
	if facingAway {
		normal = normal.Neg()
	}
	off := normal.Scale(cfg.Offset)
	line := geom.LineSegment2{
		A: host.Line.AtT(t - half).Add(off),
		B: host.Line.AtT(t + half).Add(off),
	}
	if facingAway {
		line = line.Reverse()
	}
	if overlapsPortal(tx.View, opts, e, slot, host.Region, line) {
		return world.WallID{}, ErrNoSurface
	}

	// the slot indices are validated above; PortalSlots is 2
	connecting := 1 - slot
	return tx.PlacePortal(id, world.Wall{Region: host.Region, Line: line, Material: mat}, slot, connecting)
}

// overlapsPortal reports whether line would lie over a linked wall of region
// or over the entity's other portal. The portal being replaced does not count.
func overlapsPortal(v world.View, opts raytrace.Options, e world.Entity, slot int, region world.RegionID, line geom.LineSegment2) bool {
	for _, wl := range v.Walls(region) {
		if wl.ID == e.Portals[slot] {
			continue
		}
		if wl.Next.IsZero() && !slices.Contains(e.Portals[:], wl.ID) {
			continue
		}
		if !wl.Line.Colinear(line, opts.Epsilon) {
			continue
		}
		t0, t1 := wl.Line.TOf(line.A), wl.Line.TOf(line.B)
		if math.Max(t0, t1) > opts.Epsilon && math.Min(t0, t1) < 1-opts.Epsilon {
			return true
		}
	}
	return false
}
