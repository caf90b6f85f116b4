package world

import (
	"fmt"
	"math"

	"chosenoffset.com/portalrooms/internal/core/geom"
)

// Portal is the transform carried by a linked wall pair. Entering From at
// parameter t leaves To at parameter 1-t, which is the rigid mapping once
// From's inward normal is rotated onto the reverse of To's.
type Portal struct {
	From, To Wall
	// Scale relates the two wall lengths: sqrt(len(To)² / len(From)²).
	Scale float64
	angle float64
}

// NewPortal builds the transform from one wall into another.
func NewPortal(from, to Wall) Portal {
	scale := 1.0
	if l := from.Line.LenSq(); l > 0 {
		scale = math.Sqrt(to.Line.LenSq() / l)
	}
	return Portal{
		From:  from,
		To:    to,
		Scale: scale,
		angle: from.Normal.Neg().AngleBetween(to.Normal),
	}
}

// Angle is the rotation applied to directions crossing the portal.
func (p Portal) Angle() float64 { return p.angle }

// Translate maps a point in From's region into To's region. Points on the
// From wall land on the To wall; points in front of From land behind To.
func (p Portal) Translate(pt geom.Vector2) geom.Vector2 {
	u := p.From.Line.TOf(pt)
	offset := pt.Sub(p.From.Line.AtT(u)).Dot(p.From.Normal)
	return p.To.Line.AtT(1 - u).Sub(p.To.Normal.Scale(offset * p.Scale))
}

// Turn rotates a direction by the portal angle.
func (p Portal) Turn(d geom.Vector2) geom.Vector2 {
	return d.Rotate(p.angle)
}

// Rotate maps a ray direction through the portal. A result pointing back
// into the To wall is flipped so the ray always leaves into To's region.
func (p Portal) Rotate(d geom.Vector2) geom.Vector2 {
	r := p.Turn(d)
	if r.Dot(p.To.Normal) < 0 {
		r = r.Neg()
	}
	return r
}

// PlacePortal installs w as the entity's portal in slot replacing. Any
// portal already in that slot is cleared first. If slot connecting holds a
// live portal the two walls are linked in both directions.
func (tx Tx) PlacePortal(entity EntityID, w Wall, replacing, connecting int) (WallID, error) {
	if replacing < 0 || replacing >= PortalSlots || connecting < 0 || connecting >= PortalSlots || replacing == connecting {
		return WallID{}, fmt.Errorf("place portal in slot %d/%d: %w", replacing, connecting, ErrSlotRange)
	}
	if !tx.w.entities.Contains(entity) {
		return WallID{}, fmt.Errorf("place portal for entity %v: %w", entity, ErrNotFound)
	}
	if err := tx.ClearPortal(entity, replacing); err != nil {
		return WallID{}, err
	}

	id, err := tx.AddWall(w.Region, w.Line, w.Material)
	if err != nil {
		return WallID{}, fmt.Errorf("place portal: %w", err)
	}

	e, _ := tx.w.entities.Get(entity)
	if partner := e.Portals[connecting]; tx.w.walls.Contains(partner) {
		if err := tx.LinkPair(id, partner); err != nil {
			return WallID{}, err
		}
	}
	e.Portals[replacing] = id
	return id, nil
}

// ClearPortal removes the wall held in slot, if any. The former partner keeps
// its link, which no longer resolves.
func (tx Tx) ClearPortal(entity EntityID, slot int) error {
	if slot < 0 || slot >= PortalSlots {
		return fmt.Errorf("clear portal slot %d: %w", slot, ErrSlotRange)
	}
	e, ok := tx.w.entities.Get(entity)
	if !ok {
		return fmt.Errorf("clear portal for entity %v: %w", entity, ErrNotFound)
	}
	id := e.Portals[slot]
	e.Portals[slot] = WallID{}
	if id.IsZero() || !tx.w.walls.Contains(id) {
		return nil
	}
	return tx.RemoveWall(id)
}
