package main

import (
	"errors"
	"flag"
	"log"

	"chosenoffset.com/portalrooms/internal/game"
	ebitenrender "chosenoffset.com/portalrooms/internal/render/ebiten"
	"chosenoffset.com/portalrooms/internal/simulation"
)

func main() {
	configPath := flag.String("config", "portalrooms.json", "Path to the simulation config")
	seed := flag.Int64("seed", 0, "Maze seed (overrides the config when set)")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}

	// Initialize the renderer backend (ebiten)
	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	engine := ebitenrender.NewEngine()

	gameManager := game.NewManager(cfg, renderer, inputMgr)
	gameManager.CaptureCursor = engine.SetCursorCaptured
	if err := gameManager.LoadGame(); err != nil {
		log.Fatalf("Failed to load game: %v", err)
	}

	// Set up the window
	engine.SetWindowSize(cfg.View.Width*2, cfg.View.Height*2)
	engine.SetWindowTitle("Portal Rooms")
	engine.SetWindowResizable(true)

	log.Println("Starting game...")
	if err := engine.RunGame(gameManager); err != nil && !errors.Is(err, game.ErrQuit) {
		log.Fatal(err)
	}
}
