package game

import (
	"fmt"
	"image/color"
	"log"

	"chosenoffset.com/portalrooms/internal/render"
	"chosenoffset.com/portalrooms/internal/render/view"
	"chosenoffset.com/portalrooms/internal/world"
)

var mapBackdrop = color.RGBA{0, 0, 0, 160}

// Draw renders the game to the screen.
func (g *Game) Draw(screen render.Image) {
	w, h := g.ScreenWidth, g.ScreenHeight

	// Ensure the frame texture exists and is the right size
	if g.Frame == nil || needsResize(g.Frame, w, h) {
		if g.Frame != nil {
			g.Frame.Dispose()
		}
		g.Frame = g.Renderer.NewImage(w, h)
		g.pix = make([]byte, w*h*4)
		g.renderFrame(true)
	} else {
		g.renderFrame(false)
	}

	screen.DrawImage(g.Frame, nil)

	if g.ShowMap {
		g.drawMap(screen)
	}
	g.drawUI(screen)
}

func needsResize(img render.Image, w, h int) bool {
	bounds := img.Bounds()
	return bounds.Dx() != w || bounds.Dy() != h
}

// renderFrame redraws the first-person view when the simulation changed
// since the last frame, or when forced.
func (g *Game) renderFrame(force bool) {
	if !force && !g.Sim.Dirty() {
		return
	}
	if err := g.Scene.Render(g.Sim.World(), g.Sim.Player(), g.pix, g.ScreenWidth, g.ScreenHeight); err != nil {
		log.Printf("Render failed: %v", err)
		return
	}
	g.Frame.WritePixels(g.pix)
	g.FrameCount++
	if err := g.Sim.ClearDirty(); err != nil {
		log.Printf("Failed to clear dirty flag: %v", err)
	}
}

func (g *Game) drawMap(screen render.Image) {
	backdrop := g.Renderer.NewImage(g.ScreenWidth, g.ScreenHeight)
	defer backdrop.Dispose()
	backdrop.Fill(mapBackdrop)
	screen.DrawImage(backdrop, nil)

	surface := g.Renderer.NewSurface(screen)
	err := g.Sim.World().Read(func(v world.View) error {
		t := view.Fit(v, g.ScreenWidth, g.ScreenHeight, 1)
		g.Overlay.Draw(v, surface, t, g.Sim.Player())
		return nil
	})
	if err != nil {
		log.Printf("Map overlay skipped: %v", err)
	}
}

func (g *Game) drawUI(screen render.Image) {
	g.Renderer.DrawText(screen, fmt.Sprintf("frames %d  portal lights %d", g.FrameCount, g.Sim.Lighting().Count()), 4, 4)

	// Draw on-screen messages
	_, lineHeight := g.Renderer.MeasureText("M")
	y := 4 + 2*lineHeight
	for _, msg := range g.Messages {
		g.Renderer.DrawText(screen, msg.Text, 4, y)
		y += lineHeight + 4
	}
}
