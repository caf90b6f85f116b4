package game

import (
	"log"

	"chosenoffset.com/portalrooms/internal/render"
	"chosenoffset.com/portalrooms/internal/render/view"
	"chosenoffset.com/portalrooms/internal/simulation"
)

// arrowTurn is the mouse movement one frame of an arrow key stands for.
const arrowTurn = 8

// Game holds the running simulation and its views.
type Game struct {
	ScreenWidth  int
	ScreenHeight int
	Sim          *simulation.Simulation
	Scene        *view.Scene
	Overlay      *view.Overlay
	Renderer     render.Renderer
	InputMgr     render.InputManager

	// Frame holds the last rendered first-person view. It is only redrawn
	// when the simulation reports a change.
	Frame render.Image
	pix   []byte

	// UI state
	ShowMap  bool
	Messages []Message

	cursorX     int
	cursorKnown bool

	// Debug
	FrameCount int
}

// NewGame builds the views of sim at the configured resolution.
func NewGame(sim *simulation.Simulation, r render.Renderer, input render.InputManager) *Game {
	cfg := sim.Config()
	scene := &view.Scene{
		Opts:    cfg.TracerOptions(),
		Lights:  sim.Lighting(),
		Zoom:    cfg.View.Zoom,
		FOV:     cfg.View.FOV,
		Workers: cfg.View.Workers,
	}
	return &Game{
		ScreenWidth:  cfg.View.Width,
		ScreenHeight: cfg.View.Height,
		Sim:          sim,
		Scene:        scene,
		Overlay:      &view.Overlay{Opts: cfg.OverlayOptions(), Scene: scene, Rays: 24},
		Renderer:     r,
		InputMgr:     input,
	}
}

// Update handles game logic updates.
func (g *Game) Update() error {
	// Delta time for timers (assuming 60 FPS)
	dt := 1.0 / 60.0
	g.updateMessages(dt)

	if g.InputMgr.IsKeyJustPressed(render.KeyTab) {
		g.ShowMap = !g.ShowMap
		if g.ShowMap {
			g.ShowMessage("Map overlay on")
		} else {
			g.ShowMessage("Map overlay off")
		}
	}

	// A failed step skips the frame; the next one tries again.
	if err := g.Sim.Step(g.readInput()); err != nil {
		log.Printf("Step failed: %v", err)
	}
	return nil
}

// readInput samples the input manager into one frame of simulation input.
func (g *Game) readInput() simulation.Input {
	in := simulation.Input{
		Forward:    g.InputMgr.IsKeyPressed(render.KeyW) || g.InputMgr.IsKeyPressed(render.KeyUp),
		Back:       g.InputMgr.IsKeyPressed(render.KeyS) || g.InputMgr.IsKeyPressed(render.KeyDown),
		Left:       g.InputMgr.IsKeyPressed(render.KeyA),
		Right:      g.InputMgr.IsKeyPressed(render.KeyD),
		Flashlight: g.InputMgr.IsKeyJustPressed(render.KeyL),
	}

	x, _ := g.InputMgr.GetCursorPosition()
	if g.cursorKnown {
		in.MouseDX = float64(x - g.cursorX)
	}
	g.cursorX, g.cursorKnown = x, true

	if g.InputMgr.IsKeyPressed(render.KeyLeft) {
		in.MouseDX -= arrowTurn
	}
	if g.InputMgr.IsKeyPressed(render.KeyRight) {
		in.MouseDX += arrowTurn
	}

	buttons := []struct {
		mouse render.MouseButton
		sim   simulation.Button
	}{
		{render.MouseButtonLeft, simulation.ButtonLeft},
		{render.MouseButtonRight, simulation.ButtonRight},
		{render.MouseButtonMiddle, simulation.ButtonMiddle},
	}
	for _, b := range buttons {
		if g.InputMgr.IsMouseButtonJustPressed(b.mouse) {
			in.Clicks = append(in.Clicks, b.sim)
		}
	}
	return in
}

// ResetCursor forgets the last cursor position so the next frame does not
// turn by the jump a released and recaptured cursor makes.
func (g *Game) ResetCursor() {
	g.cursorKnown = false
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenWidth, g.ScreenHeight
}

func (g *Game) updateMessages(dt float64) {
	var active []Message
	for _, msg := range g.Messages {
		msg.TimeLeft -= dt
		if msg.TimeLeft > 0 {
			active = append(active, msg)
		}
	}
	g.Messages = active
}

// ShowMessage adds a new message to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.Messages = append(g.Messages, Message{
		Text:     text,
		TimeLeft: 3.0,
		MaxTime:  3.0,
	})

	log.Printf("Message: %s", text)
}
