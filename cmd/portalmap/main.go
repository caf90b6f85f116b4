// Command portalmap shows the generated world as a 2D map in the terminal.
// WASD moves, the arrow keys turn, [ and ] place portals, q quits.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"chosenoffset.com/portalrooms/internal/render/terminal"
	"chosenoffset.com/portalrooms/internal/render/view"
	"chosenoffset.com/portalrooms/internal/simulation"
	"chosenoffset.com/portalrooms/internal/world"
)

// turnStep is the mouse movement one arrow key press stands for.
const turnStep = 40

func main() {
	configPath := flag.String("config", "portalrooms.json", "Path to the simulation config")
	rays := flag.Int("rays", 9, "Rays drawn from the player")
	logPath := flag.String("log", "", "File to log to while the map is shown (default: discard)")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	w, layout, err := simulation.NewWorld(cfg)
	if err != nil {
		log.Fatalf("Failed to generate world: %v", err)
	}
	sim, err := simulation.New(cfg, w, layout.Player)
	if err != nil {
		log.Fatalf("Failed to start simulation: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to init screen: %v", err)
	}
	// The screen owns the terminal; log lines would draw over the map.
	restore, err := redirectLog(*logPath)
	if err != nil {
		screen.Fini()
		log.Fatalf("Failed to open log: %v", err)
	}
	defer restore()
	defer screen.Fini()

	overlay := &view.Overlay{
		Opts:  cfg.OverlayOptions(),
		Scene: &view.Scene{FOV: cfg.View.FOV},
		Rays:  *rays,
	}
	surface := terminal.NewSurface(screen)

	for {
		draw(screen, surface, overlay, sim)

		in, quit := readKey(screen.PollEvent())
		if quit {
			return
		}
		if err := sim.Step(in); err != nil {
			log.Printf("Step failed: %v", err)
		}
	}
}

func draw(screen tcell.Screen, surface *terminal.Surface, overlay *view.Overlay, sim *simulation.Simulation) {
	screen.Clear()
	width, height := surface.Size()
	err := sim.World().Read(func(v world.View) error {
		// Terminal cells are about twice as tall as they are wide.
		overlay.Draw(v, surface, view.Fit(v, width, height, 2), sim.Player())
		return nil
	})
	if err != nil {
		log.Printf("Draw skipped: %v", err)
	}
	screen.Show()
}

// readKey turns one terminal event into a frame of input.
func readKey(ev tcell.Event) (in simulation.Input, quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		return in, false
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return in, true
		case tcell.KeyUp:
			in.Forward = true
		case tcell.KeyDown:
			in.Back = true
		case tcell.KeyLeft:
			in.MouseDX = -turnStep
		case tcell.KeyRight:
			in.MouseDX = turnStep
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return in, true
			case 'w':
				in.Forward = true
			case 's':
				in.Back = true
			case 'a':
				in.Left = true
			case 'd':
				in.Right = true
			case 'l':
				in.Flashlight = true
			case '[':
				in.Clicks = []simulation.Button{simulation.ButtonLeft}
			case ']':
				in.Clicks = []simulation.Button{simulation.ButtonRight}
			case 'c':
				in.Clicks = []simulation.Button{simulation.ButtonMiddle}
			}
		}
	}
	return in, false
}

// redirectLog sends the standard logger to the file at path, or discards it
// when path is empty. restore puts the previous output back.
func redirectLog(path string) (restore func(), err error) {
	prev := log.Writer()
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(prev) }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		f.Close()
	}, nil
}
