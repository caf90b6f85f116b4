// Package view turns traced rays into pixels: the first-person column
// renderer and the 2D debug overlay.
package view

import "math"

// Project maps a perpendicular distance to the vertical pixel band a wall
// occupies. The band is zoom/distance tall, centred on the horizon and
// clamped to the screen.
func Project(distance float64, screenHeight int, zoom float64) (top, bottom int) {
	h := float64(screenHeight)
	if distance <= 0 {
		return 0, screenHeight
	}
	half := zoom / distance / 2
	mid := h / 2
	return int(math.Max(0, mid-half)), int(math.Min(h, mid+half))
}

// Unproject is the inverse of Project for a floor or ceiling row: it returns
// the perpendicular distance whose band ends at row y. Ceiling rows mirror
// floor rows about the horizon.
func Unproject(y, screenHeight int, zoom float64) float64 {
	dy := math.Abs(float64(y) + 0.5 - float64(screenHeight)/2)
	if dy == 0 {
		return math.Inf(1)
	}
	return zoom / (2 * dy)
}
