package world

import (
	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"

	"github.com/zyedidia/generic/mapset"
)

type (
	RegionID = ID[Region]
	WallID   = ID[Wall]
	LightID  = ID[LightSource]
	EntityID = ID[Entity]
)

// PortalSlots is the number of portals an entity can own at once.
const PortalSlots = 2

// Region is a closed room. Wall order is authoring order and is what ray
// tracing uses for tie-breaks.
type Region struct {
	ID       RegionID
	Walls    []WallID
	Lights   []LightID
	Floor    shade.Material
	Entities mapset.Set[EntityID]
}

// Wall bounds a region. A non-zero Next links it as a portal to another wall;
// a link whose target was removed behaves like no link.
type Wall struct {
	ID       WallID
	Region   RegionID
	Line     geom.LineSegment2
	Normal   geom.Vector2 // points into Region
	Material shade.Material
	Next     WallID
}

// LightSource is a point light owned by a region.
type LightSource struct {
	ID        LightID
	Region    RegionID
	Position  geom.Vector2
	Intensity shade.Colour
}

// Kind tags what an entity is.
type Kind int

const (
	KindPlayer Kind = iota
	KindProp
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindProp:
		return "prop"
	default:
		return "unknown"
	}
}

// Entity is a thing that lives in a region and moves through portals.
type Entity struct {
	ID       EntityID
	Kind     Kind
	Position geom.Vector2
	Facing   geom.Vector2 // unit
	Moving   geom.Vector2
	Region   RegionID
	Size     float64 // half extent of the bounding square
	Portals  [PortalSlots]WallID
	Light    LightID // flashlight, zero when off
	Dirty    bool
}

// Bounds returns the entity's axis-aligned bounding square as four segments
// wound like walls, normals facing outward.
func (e *Entity) Bounds() [4]geom.LineSegment2 {
	p, s := e.Position, e.Size
	return [4]geom.LineSegment2{
		geom.Seg(p.X+s, p.Y-s, p.X-s, p.Y-s),
		geom.Seg(p.X-s, p.Y-s, p.X-s, p.Y+s),
		geom.Seg(p.X-s, p.Y+s, p.X+s, p.Y+s),
		geom.Seg(p.X+s, p.Y+s, p.X+s, p.Y-s),
	}
}
