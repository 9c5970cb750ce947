package draw

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas is a black and white frame buffer matching the panel
// resolution. White is the paper background.
type Canvas struct {
	w, h int
	img  *image.Gray
}

var _ Surface = (*Canvas)(nil)

func NewCanvas(w, h int) *Canvas {
	self := &Canvas{
		w:   w,
		h:   h,
		img: image.NewGray(image.Rect(0, 0, w, h)),
	}
	self.Clear()
	return self
}

func (self *Canvas) Size() (int, int) { return self.w, self.h }

// Clear resets the whole canvas to white.
func (self *Canvas) Clear() {
	for i := range self.img.Pix {
		self.img.Pix[i] = 0xff
	}
}

func (self *Canvas) SetPixel(x, y int, black bool) {
	if x < 0 || x >= self.w || y < 0 || y >= self.h {
		return
	}
	if black {
		self.img.Pix[y*self.img.Stride+x] = 0
	} else {
		self.img.Pix[y*self.img.Stride+x] = 0xff
	}
}

func (self *Canvas) Black(x, y int) bool {
	if x < 0 || x >= self.w || y < 0 || y >= self.h {
		return false
	}
	return self.img.Pix[y*self.img.Stride+x] < 0x80
}

func (self *Canvas) FillRect(r Rect, black bool) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			self.SetPixel(x, y, black)
		}
	}
}

func (self *Canvas) DrawRect(r Rect, thickness int) {
	for t := 0; t < thickness; t++ {
		in := r.Inset(t)
		if in.Empty() {
			return
		}
		for x := in.X; x < in.X+in.W; x++ {
			self.SetPixel(x, in.Y, true)
			self.SetPixel(x, in.Y+in.H-1, true)
		}
		for y := in.Y; y < in.Y+in.H; y++ {
			self.SetPixel(in.X, y, true)
			self.SetPixel(in.X+in.W-1, y, true)
		}
	}
}

// DrawLine paints a 1px Bresenham line.
func (self *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		self.SetPixel(x0, y0, true)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// PasteBitmap copies an image onto the canvas, thresholding to black
// and white at mid gray. Icon assets are prepared as 1-bit bitmaps so
// the threshold only matters for anti-aliased sources.
func (self *Canvas) PasteBitmap(x, y int, img image.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	for iy := b.Min.Y; iy < b.Max.Y; iy++ {
		for ix := b.Min.X; ix < b.Max.X; ix++ {
			c := color.GrayModel.Convert(img.At(ix, iy)).(color.Gray)
			self.SetPixel(x+ix-b.Min.X, y+iy-b.Min.Y, c.Y < 0x80)
		}
	}
}

func (self *Canvas) DrawText(x, y int, text string, face font.Face) {
	if face == nil || text == "" {
		return
	}
	m := face.Metrics()
	d := font.Drawer{
		Dst:  self.img,
		Src:  image.NewUniform(color.Gray{Y: 0}),
		Face: face,
		Dot:  fixed.P(x, y+m.Ascent.Ceil()),
	}
	d.DrawString(text)
}

func (self *Canvas) TextWidth(text string, face font.Face) int {
	if face == nil || text == "" {
		return 0
	}
	return font.MeasureString(face, text).Ceil()
}

// Image exposes the backing pixels for tests and PNG dumps.
func (self *Canvas) Image() *image.Gray { return self.img }

// Pack serializes the canvas into the panel wire format: one bit per
// pixel, MSB first within a byte, bit set means white.
func (self *Canvas) Pack() []byte {
	stride := (self.w + 7) / 8
	buf := make([]byte, stride*self.h)
	for y := 0; y < self.h; y++ {
		for x := 0; x < self.w; x++ {
			if !self.Black(x, y) {
				buf[y*stride+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return buf
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
