package simulation

import (
	"errors"
	"fmt"
	"log"

	"chosenoffset.com/portalrooms/internal/core/geom"
	"chosenoffset.com/portalrooms/internal/raytrace"
	"chosenoffset.com/portalrooms/internal/render/lighting"
	"chosenoffset.com/portalrooms/internal/world"
)

// Button identifies a mouse button
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Input is one frame of player input.
type Input struct {
	Forward, Back, Left, Right bool
	// Flashlight is set on the frame the flashlight key goes down.
	Flashlight bool
	// MouseDX is the horizontal mouse movement since the last frame.
	MouseDX float64
	// Clicks lists the buttons pressed this frame.
	Clicks []Button
}

// Simulation owns the world, the player and the lighting cache.
type Simulation struct {
	cfg     *Config
	world   *world.World
	player  world.EntityID
	opts    raytrace.Options
	lights  *lighting.Cache
	palette Palette
}

// New wraps a world for stepping. The lighting cache is built immediately.
func New(cfg *Config, w *world.World, player world.EntityID) (*Simulation, error) {
	pal, err := cfg.Palette()
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}
	s := &Simulation{
		cfg:     cfg,
		world:   w,
		player:  player,
		opts:    cfg.TracerOptions(),
		lights:  lighting.NewCache(cfg.Lighting, cfg.TracerOptions()),
		palette: pal,
	}
	err = w.Read(func(v world.View) error {
		if _, ok := v.Entity(player); !ok {
			return fmt.Errorf("player %v: %w", player, world.ErrNotFound)
		}
		s.lights.Rebuild(v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}
	return s, nil
}

func (s *Simulation) World() *world.World       { return s.world }
func (s *Simulation) Player() world.EntityID    { return s.player }
func (s *Simulation) Lighting() *lighting.Cache { return s.lights }
func (s *Simulation) Config() *Config           { return s.cfg }

// Step applies one frame of input in a single mutation (turning, movement,
// flashlight, then portal clicks) and brings the lighting cache up to date
// before anything renders.
func (s *Simulation) Step(in Input) error {
	if err := s.world.Mutate(func(tx world.Tx) error { return s.apply(tx, in) }); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	return s.world.Read(func(v world.View) error {
		s.lights.Sync(v)
		return nil
	})
}

func (s *Simulation) apply(tx world.Tx, in Input) error {
	before := tx.Version()
	if _, ok := tx.Entity(s.player); !ok {
		return fmt.Errorf("player %v: %w", s.player, world.ErrNotFound)
	}

	turned := in.MouseDX != 0
	if turned {
		err := tx.UpdateEntity(s.player, func(e *world.Entity) {
			e.Facing = e.Facing.Rotate(in.MouseDX * s.cfg.Movement.TurnSpeed).Normalize()
		})
		if err != nil {
			return err
		}
	}

	if move := s.heading(tx, in); move.LenSq() > 0 {
		if err := MoveEntity(tx, s.opts, s.player, move.Normalize().Scale(s.cfg.Movement.Speed)); err != nil {
			return err
		}
	}

	if in.Flashlight {
		if err := s.toggleFlashlight(tx); err != nil {
			return err
		}
	}
	if err := s.followFlashlight(tx); err != nil {
		return err
	}

	for _, b := range in.Clicks {
		if err := s.click(tx, b); err != nil {
			return err
		}
	}

	if turned || tx.Version() != before {
		return tx.UpdateEntity(s.player, func(e *world.Entity) { e.Dirty = true })
	}
	return nil
}

// heading turns the pressed direction keys into a world-space vector.
func (s *Simulation) heading(tx world.Tx, in Input) geom.Vector2 {
	e, _ := tx.Entity(s.player)
	f := e.Facing
	right := geom.Vector2{X: -f.Y, Y: f.X}

	var move geom.Vector2
	if in.Forward {
		move = move.Add(f)
	}
	if in.Back {
		move = move.Sub(f)
	}
	if in.Right {
		move = move.Add(right)
	}
	if in.Left {
		move = move.Sub(right)
	}
	return move
}

func (s *Simulation) toggleFlashlight(tx world.Tx) error {
	e, _ := tx.Entity(s.player)
	if !e.Light.IsZero() {
		if err := tx.RemoveLight(e.Light); err != nil && !errors.Is(err, world.ErrNotFound) {
			return err
		}
		return tx.UpdateEntity(s.player, func(e *world.Entity) { e.Light = world.LightID{} })
	}

	id, err := tx.AddLight(e.Region, e.Position, s.palette.Flashlight)
	if err != nil {
		return err
	}
	return tx.UpdateEntity(s.player, func(e *world.Entity) { e.Light = id })
}

// followFlashlight keeps the player's light on the player.
func (s *Simulation) followFlashlight(tx world.Tx) error {
	e, _ := tx.Entity(s.player)
	if e.Light.IsZero() {
		return nil
	}
	l, ok := tx.Light(e.Light)
	if ok && l.Region == e.Region && l.Position.AlmostEqual(e.Position, s.opts.Epsilon) {
		return nil
	}
	if !ok {
		return tx.UpdateEntity(s.player, func(e *world.Entity) { e.Light = world.LightID{} })
	}
	return tx.MoveLight(e.Light, e.Region, e.Position)
}

func (s *Simulation) click(tx world.Tx, b Button) error {
	switch b {
	case ButtonLeft, ButtonRight:
		slot := 0
		if b == ButtonRight {
			slot = 1
		}
		_, err := ShootPortal(tx, s.opts, s.cfg.Portal, portalMaterial(s.palette.Portal), s.player, slot)
		if errors.Is(err, ErrNoSurface) {
			log.Printf("No surface for portal %d", slot)
			return nil
		}
		return err
	case ButtonMiddle:
		for slot := 0; slot < world.PortalSlots; slot++ {
			if err := tx.ClearPortal(s.player, slot); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dirty reports whether the player or the world changed since the last
// ClearDirty.
func (s *Simulation) Dirty() bool {
	dirty := false
	_ = s.world.Read(func(v world.View) error {
		e, _ := v.Entity(s.player)
		dirty = e.Dirty
		return nil
	})
	return dirty
}

// ClearDirty marks the current frame as rendered.
func (s *Simulation) ClearDirty() error {
	return s.world.Mutate(func(tx world.Tx) error {
		return tx.UpdateEntity(s.player, func(e *world.Entity) { e.Dirty = false })
	})
}
