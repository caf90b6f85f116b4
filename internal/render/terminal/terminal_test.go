package terminal

import (
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	screen.SetSize(20, 10)
	t.Cleanup(screen.Fini)
	return screen
}

func TestDrawLinePlotsEveryCell(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		cells          [][2]int
	}{
		{"horizontal", 2, 3, 6, 3, [][2]int{{2, 3}, {3, 3}, {4, 3}, {5, 3}, {6, 3}}},
		{"vertical reversed", 4, 5, 4, 2, [][2]int{{4, 5}, {4, 4}, {4, 3}, {4, 2}}},
		{"diagonal", 0, 0, 3, 3, [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{"single point", 7.2, 1.8, 6.9, 2.1, [][2]int{{7, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newScreen(t)
			s := NewSurface(screen)
			s.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1)

			want := map[[2]int]bool{}
			for _, c := range tt.cells {
				want[c] = true
			}
			w, h := screen.Size()
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					r, _, _, _ := screen.GetContent(x, y)
					if got := r == Block; got != want[[2]int{x, y}] {
						t.Errorf("Cell (%d,%d): expected plotted=%v, got %v", x, y, want[[2]int{x, y}], got)
					}
				}
			}
		})
	}
}

func TestDrawLineClipsToScreen(t *testing.T) {
	screen := newScreen(t)
	s := NewSurface(screen)
	s.DrawLine(-5, 1, 25, 1)

	for x := 0; x < 20; x++ {
		if r, _, _, _ := screen.GetContent(x, 1); r != Block {
			t.Errorf("Expected cell (%d,1) plotted", x)
		}
	}
}

func TestSetColor(t *testing.T) {
	screen := newScreen(t)
	s := NewSurface(screen)
	s.SetColor(color.RGBA{R: 60, G: 140, B: 255, A: 255})
	s.DrawLine(1, 1, 1, 1)

	_, _, style, _ := screen.GetContent(1, 1)
	fg, _, _ := style.Decompose()
	if want := tcell.NewRGBColor(60, 140, 255); fg != want {
		t.Errorf("Expected foreground %v, got %v", want, fg)
	}
}

func TestSize(t *testing.T) {
	s := NewSurface(newScreen(t))
	if w, h := s.Size(); w != 20 || h != 10 {
		t.Errorf("Expected 20x10, got %dx%d", w, h)
	}
}
