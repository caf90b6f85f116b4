package lighting

import (
	"log"
	"math"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/world"

	"github.com/zyedidia/generic/mapset"
)

// Config tunes light falloff
type Config struct {
	Ambient      float64 `json:"ambient"`       // Global ambient light level (0.0 = pitch black)
	Falloff      float64 `json:"falloff"`       // Distance at which wall lighting drops to half
	LightHeight  float64 `json:"light_height"`  // Height of the light column's base above the floor
	ColumnHeight float64 `json:"column_height"` // Height of the light column
	Debug        bool    `json:"debug"`
}

// DefaultConfig returns the lighting used by the first-person view
func DefaultConfig() Config {
	return Config{
		Ambient:      0.15,
		Falloff:      120,
		LightHeight:  24,
		ColumnHeight: 16,
	}
}

// Key identifies a portal light by the light it comes from and the portal it
// enters. It is stable across rebuilds.
type Key struct {
	Source   world.LightID
	PortalIn world.WallID
}

// PortalLight is a light from another region seen through a portal
type PortalLight struct {
	ID        Key
	Source    world.LightID
	PortalIn  world.WallID // the portal wall on the light's side
	PortalOut world.WallID // the wall the light shines out of
	Region    world.RegionID
	Position  geom.Vector2 // fake origin behind PortalOut
	Entry     geom.Vector2 // where the light's shortest path lands on PortalOut
	Intensity shade.Colour
}

// Cache holds the portal lights of every region. Shading queries use it
// together with the regions' real lights.
type Cache struct {
	cfg      Config
	opts     raytrace.Options
	byRegion map[world.RegionID][]PortalLight
	version  uint64
	built    bool
}

// NewCache creates an empty cache. Call Rebuild or Sync before shading.
func NewCache(cfg Config, opts raytrace.Options) *Cache {
	return &Cache{
		cfg:      cfg,
		opts:     opts,
		byRegion: make(map[world.RegionID][]PortalLight),
	}
}

// SetAmbientLight sets the global ambient light level
func (c *Cache) SetAmbientLight(level float64) {
	c.cfg.Ambient = level
}

// GetAmbientLight returns the current ambient light level
func (c *Cache) GetAmbientLight() float64 {
	return c.cfg.Ambient
}

// Rebuild discards every portal light and derives them again from the world.
//
// For each real light and each portal wall in the light's region, the light
// must reach the wall's front side along a clear path. If it does, a portal
// light is placed in the region on the far side at the light's position
// carried through the portal. Only one portal hop is followed.
func (c *Cache) Rebuild(v world.View) {
	seen := mapset.New[Key]()
	byRegion := make(map[world.RegionID][]PortalLight)
	count := 0

	for _, region := range v.Regions() {
		walls := v.Walls(region)
		for _, light := range v.Lights(region) {
			for _, wall := range walls {
				portal, ok := v.Portal(wall.ID)
				if !ok {
					continue
				}
				key := Key{Source: light.ID, PortalIn: wall.ID}
				if seen.Has(key) {
					continue
				}
				path, ok := raytrace.FindShortestPath(v, c.opts, region, light.Position, wall.Normal, wall.Line)
				if !ok {
					continue
				}
				seen.Put(key)

				pl := PortalLight{
					ID:        key,
					Source:    light.ID,
					PortalIn:  wall.ID,
					PortalOut: portal.To.ID,
					Region:    portal.To.Region,
					Position:  portal.Translate(light.Position),
					Entry:     portal.Translate(path.Sample),
					Intensity: light.Intensity,
				}
				byRegion[pl.Region] = append(byRegion[pl.Region], pl)
				count++
			}
		}
	}

	c.byRegion = byRegion
	c.version = v.Version()
	c.built = true
	if c.cfg.Debug {
		log.Printf("DEBUG: rebuilt %d portal lights at world version %d", count, c.version)
	}
}

// Sync rebuilds the cache if the world changed since the last rebuild and
// reports whether it did.
func (c *Cache) Sync(v world.View) bool {
	if c.built && c.version == v.Version() {
		return false
	}
	c.Rebuild(v)
	return true
}

// ForRegion returns the portal lights shining into region.
func (c *Cache) ForRegion(region world.RegionID) []PortalLight {
	return c.byRegion[region]
}

// Count returns the number of cached portal lights.
func (c *Cache) Count() int {
	n := 0
	for _, pls := range c.byRegion {
		n += len(pls)
	}
	return n
}

// emitter is a light as seen from inside one region.
type emitter struct {
	pos       geom.Vector2
	intensity shade.Colour
	reaches   func(p geom.Vector2) bool
}

func (c *Cache) emitters(v world.View, region world.RegionID) []emitter {
	lights := v.Lights(region)
	portal := c.byRegion[region]
	out := make([]emitter, 0, len(lights)+len(portal))

	for _, l := range lights {
		out = append(out, emitter{
			pos:       l.Position,
			intensity: l.Intensity,
			reaches: func(p geom.Vector2) bool {
				_, ok := raytrace.ClearPathNoPortalsBetween(v, c.opts, l.Position, p, region)
				return ok
			},
		})
	}
	for _, pl := range portal {
		out = append(out, emitter{
			pos:       pl.Position,
			intensity: pl.Intensity,
			reaches: func(p geom.Vector2) bool {
				return c.throughAperture(v, pl, p)
			},
		})
	}
	return out
}

// apertureStep moves the shadow probe off the portal wall it starts on.
const apertureStep = 1e-3

// throughAperture reports whether the line from a portal light's fake origin
// to p passes through the portal it shines out of and then reaches p
// unblocked.
func (c *Cache) throughAperture(v world.View, pl PortalLight, p geom.Vector2) bool {
	out, ok := v.Wall(pl.PortalOut)
	if !ok {
		return false
	}
	cross := geom.LineSegment2{A: pl.Position, B: p}.Intersection(out.Line)
	if cross.IsNaN() {
		return false
	}
	rest := p.Sub(cross)
	if rest.Len() <= apertureStep {
		return true
	}
	start := cross.Add(rest.Normalize().Scale(apertureStep))
	_, ok = raytrace.ClearPathNoPortalsBetween(v, c.opts, start, p, pl.Region)
	return ok
}

// VerticalSurfaceColour shades a wall at hit, seen along incoming.
func (c *Cache) VerticalSurfaceColour(v world.View, hit geom.Vector2, wall world.Wall, incoming geom.Vector2) shade.Colour {
	m := wall.Material
	out := m.Colour.Scale(c.cfg.Ambient)

	n := flat(wall.Normal)
	toEye := flat(incoming.Neg().Normalize())
	eyeSide := dot3(toEye, n)

	for _, e := range c.emitters(v, wall.Region) {
		d := e.pos.Sub(hit)
		toLight := flat(d.Normalize())
		att := shade.Attenuation(d.Len(), c.cfg.Falloff)
		lit := sameSide(dot3(toLight, n), eyeSide) && e.reaches(hit)
		out = out.Add(shade.Phong(m, e.intensity, toLight, toEye, n, att, lit))
	}
	return out
}

// HorizontalSurfaceColour shades the floor of region at point. Each light is
// treated as a vertical column above its position.
func (c *Cache) HorizontalSurfaceColour(v world.View, region world.RegionID, point geom.Vector2) shade.Colour {
	r, ok := v.Region(region)
	if !ok {
		return shade.Black
	}
	m := r.Floor
	out := m.Colour.Scale(c.cfg.Ambient)
	up := [3]float64{0, 0, 1}

	for _, e := range c.emitters(v, region) {
		d := e.pos.Sub(point)
		dist := d.Len()
		toLight := normalize3([3]float64{d.X, d.Y, c.cfg.LightHeight})
		att := shade.ColumnFalloff(dist, c.cfg.LightHeight, c.cfg.ColumnHeight)
		out = out.Add(shade.Phong(m, e.intensity, toLight, up, up, att, e.reaches(point)))
	}
	return out
}

func flat(v geom.Vector2) [3]float64 { return [3]float64{v.X, v.Y, 0} }

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func normalize3(a [3]float64) [3]float64 {
	l := math.Sqrt(dot3(a, a))
	if l == 0 {
		return a
	}
	return [3]float64{a[0] / l, a[1] / l, a[2] / l}
}

func sameSide(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
