// Package terminal draws overlay lines into a tcell screen, one cell per
// plotted point.
package terminal

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"chosenoffset.com/portalrooms/internal/render"
)

// Block is the rune plotted for every line cell.
const Block = '█'

// Surface implements render.Surface over a tcell.Screen.
type Surface struct {
	screen tcell.Screen
	style  tcell.Style
}

var _ render.Surface = (*Surface)(nil)

// NewSurface wraps screen. Lines are white until SetColor is called.
func NewSurface(screen tcell.Screen) *Surface {
	return &Surface{
		screen: screen,
		style:  tcell.StyleDefault.Foreground(tcell.ColorWhite),
	}
}

// SetColor sets the foreground of subsequent lines.
func (s *Surface) SetColor(clr color.Color) {
	s.style = tcell.StyleDefault.Foreground(toTcell(clr))
}

// DrawLine plots the cells between the two points with Bresenham's
// algorithm. Cells off the screen are skipped.
func (s *Surface) DrawLine(x0, y0, x1, y1 float64) {
	ax, ay := int(math.Round(x0)), int(math.Round(y0))
	bx, by := int(math.Round(x1)), int(math.Round(y1))

	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}

	w, h := s.screen.Size()
	e := dx + dy
	for {
		if ax >= 0 && ax < w && ay >= 0 && ay < h {
			s.screen.SetContent(ax, ay, Block, nil, s.style)
		}
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// Size returns the screen size in cells.
func (s *Surface) Size() (width, height int) {
	return s.screen.Size()
}

func toTcell(clr color.Color) tcell.Color {
	r, g, b, _ := clr.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
