// Package simulation runs the per-frame world step: movement through
// portals, portal shooting, the flashlight and keeping the lighting cache in
// sync. Its rules are loaded from a JSON file so they can be tuned without a
// rebuild.
package simulation

import (
	"encoding/json"
	"fmt"
	"os"

	"chosenoffset.com/portalrooms/internal/core/shade"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/render/lighting"
)

// Config holds all simulation rules
type Config struct {
	// Ray tracing
	Tracer TracerConfig `json:"tracer"`

	// Light falloff and ambient level
	Lighting lighting.Config `json:"lighting"`

	// Movement rules
	Movement MovementConfig `json:"movement"`

	// Portal gun
	Portal PortalConfig `json:"portal"`

	// Screen projection
	View ViewConfig `json:"view"`

	// Generated world
	World WorldConfig `json:"world"`
}

// TracerConfig tunes the portal-following ray tracer
type TracerConfig struct {
	ViewDist           float64 `json:"view_dist"`            // Length of a probe ray
	PortalLimit        int     `json:"portal_limit"`         // Legs per trace in the 3D view
	OverlayPortalLimit int     `json:"overlay_portal_limit"` // Legs per trace in the 2D overlay
	EdgeMargin         float64 `json:"edge_margin"`          // Portal hits this close to a wall end are solid
	Nudge              float64 `json:"nudge"`                // Step past the exit wall after a hop
	SampleLength       float64 `json:"sample_length"`        // Spacing of light samples along a portal
	Epsilon            float64 `json:"epsilon"`
}

// MovementConfig defines how entities move
type MovementConfig struct {
	Speed      float64 `json:"speed"`       // Distance per step
	TurnSpeed  float64 `json:"turn_speed"`  // Radians per unit of mouse movement
	PlayerSize float64 `json:"player_size"` // Half extent of the player's bounding square
}

// PortalConfig defines placed portals
type PortalConfig struct {
	Width  float64 `json:"width"`  // Width of a placed portal, clamped to the host wall
	Offset float64 `json:"offset"` // Distance in front of the host wall
	Colour string  `json:"colour"` // Hex colour of a portal with no partner
}

// ViewConfig defines the first-person projection
type ViewConfig struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Zoom    float64 `json:"zoom"`    // Column height is zoom / distance
	FOV     float64 `json:"fov"`     // Horizontal field of view in radians
	Workers int     `json:"workers"` // Goroutines rendering columns (0 = one per CPU)
}

// WorldConfig defines the generated maze world
type WorldConfig struct {
	Width      int     `json:"width"`       // Maze width in cells
	Height     int     `json:"height"`      // Maze height in cells
	CellSize   float64 `json:"cell_size"`   // World units per cell
	Braiding   float64 `json:"braiding"`    // 0.0 = perfect maze
	Seed       int64   `json:"seed"`        // 0 = random
	LightEvery int     `json:"light_every"` // A light every N cells (0 = none)
	AnnexSize  int     `json:"annex_size"`  // Side of the annex room in cells (0 = no annex)

	WallColour  string `json:"wall_colour"`
	FloorColour string `json:"floor_colour"`
	LightColour string `json:"light_colour"`
	Flashlight  string `json:"flashlight_colour"`
}

// Palette holds the parsed colours of a WorldConfig and PortalConfig.
type Palette struct {
	Wall, Floor, Light, Flashlight, Portal shade.Colour
}

// DefaultConfig returns the settings of the bundled maze
func DefaultConfig() *Config {
	return &Config{
		Tracer: TracerConfig{
			ViewDist:           1000,
			PortalLimit:        15,
			OverlayPortalLimit: 5,
			EdgeMargin:         0.01,
			Nudge:              1,
			SampleLength:       4,
			Epsilon:            1e-6,
		},
		Lighting: lighting.DefaultConfig(),
		Movement: MovementConfig{
			Speed:      2,
			TurnSpeed:  0.004,
			PlayerSize: 4,
		},
		Portal: PortalConfig{
			Width:  24,
			Offset: 0.5,
			Colour: "#3c8cff",
		},
		View: ViewConfig{
			Width:  640,
			Height: 400,
			Zoom:   20000,
			FOV:    1.2,
		},
		World: WorldConfig{
			Width:       8,
			Height:      8,
			CellSize:    64,
			Braiding:    0.3,
			LightEvery:  7,
			AnnexSize:   3,
			WallColour:  "#b0a890",
			FloorColour: "#504840",
			LightColour: "#ffe0b0",
			Flashlight:  "#d0e0ff",
		},
	}
}

// LoadConfig loads simulation config from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}
	if _, err := config.Palette(); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	return config, nil
}

// TracerOptions returns the tracer settings for the 3D view.
func (c *Config) TracerOptions() raytrace.Options {
	return raytrace.Options{
		ViewDist:     c.Tracer.ViewDist,
		PortalLimit:  c.Tracer.PortalLimit,
		EdgeMargin:   c.Tracer.EdgeMargin,
		Nudge:        c.Tracer.Nudge,
		SampleLength: c.Tracer.SampleLength,
		Epsilon:      c.Tracer.Epsilon,
	}
}

// OverlayOptions returns the tracer settings for the 2D overlay.
func (c *Config) OverlayOptions() raytrace.Options {
	opts := c.TracerOptions()
	opts.PortalLimit = c.Tracer.OverlayPortalLimit
	return opts
}

// Palette parses the configured hex colours.
func (c *Config) Palette() (Palette, error) {
	var p Palette
	for _, f := range []struct {
		name string
		hex  string
		dst  *shade.Colour
	}{
		{"wall_colour", c.World.WallColour, &p.Wall},
		{"floor_colour", c.World.FloorColour, &p.Floor},
		{"light_colour", c.World.LightColour, &p.Light},
		{"flashlight_colour", c.World.Flashlight, &p.Flashlight},
		{"portal colour", c.Portal.Colour, &p.Portal},
	} {
		col, err := shade.Hex(f.hex)
		if err != nil {
			return Palette{}, fmt.Errorf("invalid %s %q: %w", f.name, f.hex, err)
		}
		*f.dst = col
	}
	return p, nil
}
