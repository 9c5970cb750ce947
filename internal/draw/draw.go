// Package draw provides the 1-bit drawing surface the module
// renderers paint on, plus font loading and text measurement for the
// e-paper panel.
package draw

import (
	"image"

	"golang.org/x/image/font"
)

// Rect is a placement box in panel coordinates.
type Rect struct {
	X, Y, W, H int
}

func (self Rect) Empty() bool { return self.W <= 0 || self.H <= 0 }

func (self Rect) Contains(x, y int) bool {
	return x >= self.X && x < self.X+self.W && y >= self.Y && y < self.Y+self.H
}

// Inset shrinks the box by n pixels on every side.
func (self Rect) Inset(n int) Rect {
	return Rect{X: self.X + n, Y: self.Y + n, W: self.W - 2*n, H: self.H - 2*n}
}

// Surface is what renderers draw on. The concrete implementation is
// Canvas; tests substitute recording fakes.
type Surface interface {
	Size() (w, h int)
	Clear()
	SetPixel(x, y int, black bool)
	FillRect(r Rect, black bool)
	DrawRect(r Rect, thickness int)
	DrawLine(x0, y0, x1, y1 int)

	// PasteBitmap thresholds img to 1-bit and pastes it with its
	// top-left corner at x,y.
	PasteBitmap(x, y int, img image.Image)

	// DrawText paints text with its top-left corner at x,y.
	DrawText(x, y int, text string, face font.Face)
	TextWidth(text string, face font.Face) int
}
