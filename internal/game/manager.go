package game

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"chosenoffset.com/portalrooms/internal/render"
	"chosenoffset.com/portalrooms/internal/simulation"
)

// ErrQuit is returned from Update when the player leaves the game.
var ErrQuit = errors.New("game: quit")

var pausedBackdrop = color.RGBA{20, 20, 40, 255}

// Manager handles the overall game state, including pausing and world
// generation.
type Manager struct {
	Config   *simulation.Config
	State    State
	Game     *Game
	Renderer render.Renderer
	InputMgr render.InputManager

	// CaptureCursor is called when play starts or pauses. It may be nil.
	CaptureCursor func(captured bool)
}

// NewManager creates a new game manager.
func NewManager(cfg *simulation.Config, r render.Renderer, input render.InputManager) *Manager {
	return &Manager{
		Config:   cfg,
		State:    StatePaused,
		Renderer: r,
		InputMgr: input,
	}
}

// LoadGame generates a fresh world from the config and starts playing it.
func (m *Manager) LoadGame() error {
	w, layout, err := simulation.NewWorld(m.Config)
	if err != nil {
		return fmt.Errorf("failed to generate world: %w", err)
	}
	sim, err := simulation.New(m.Config, w, layout.Player)
	if err != nil {
		return fmt.Errorf("failed to start simulation: %w", err)
	}
	log.Printf("Generated %dx%d maze with %d portal lights", m.Config.World.Width, m.Config.World.Height, sim.Lighting().Count())

	m.Game = NewGame(sim, m.Renderer, m.InputMgr)
	m.setState(StatePlaying)
	log.Printf("Game loaded successfully")
	return nil
}

func (m *Manager) setState(s State) {
	m.State = s
	if m.CaptureCursor != nil {
		m.CaptureCursor(s == StatePlaying)
	}
	if m.Game != nil {
		m.Game.ResetCursor()
	}
}

// Update updates the game state. Escape pauses; Escape again quits, a click
// resumes.
func (m *Manager) Update() error {
	switch m.State {
	case StatePaused:
		if m.InputMgr.IsKeyJustPressed(render.KeyEscape) {
			return ErrQuit
		}
		if m.InputMgr.IsMouseButtonJustPressed(render.MouseButtonLeft) {
			if m.Game == nil {
				return m.LoadGame()
			}
			m.setState(StatePlaying)
		}
	case StatePlaying:
		if m.InputMgr.IsKeyJustPressed(render.KeyEscape) {
			m.setState(StatePaused)
			return nil
		}
		if m.Game != nil {
			return m.Game.Update()
		}
	}
	return nil
}

// Draw draws the current state.
func (m *Manager) Draw(screen render.Image) {
	switch m.State {
	case StatePaused:
		if m.Game != nil {
			m.Game.Draw(screen)
		} else {
			screen.Fill(pausedBackdrop)
		}
		m.Renderer.DrawText(screen, "Paused: click to play, Esc to quit", 4, m.Config.View.Height/2)
	case StatePlaying:
		if m.Game != nil {
			m.Game.Draw(screen)
		}
	}
}

// Layout returns the configured view size; the window scales it.
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	return m.Config.View.Width, m.Config.View.Height
}
