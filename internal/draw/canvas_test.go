package draw

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font/basicfont"
)

func TestCanvasClearWhite(t *testing.T) {
	t.Parallel()
	c := NewCanvas(16, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			assert.False(t, c.Black(x, y))
		}
	}
}

func TestCanvasSetPixelBounds(t *testing.T) {
	t.Parallel()
	c := NewCanvas(16, 8)
	// out of bounds writes must not panic
	c.SetPixel(-1, 0, true)
	c.SetPixel(16, 0, true)
	c.SetPixel(0, 8, true)
	c.SetPixel(3, 2, true)
	assert.True(t, c.Black(3, 2))
	c.SetPixel(3, 2, false)
	assert.False(t, c.Black(3, 2))
}

func TestCanvasRect(t *testing.T) {
	t.Parallel()
	c := NewCanvas(20, 20)
	c.DrawRect(Rect{X: 2, Y: 2, W: 10, H: 10}, 1)
	assert.True(t, c.Black(2, 2))
	assert.True(t, c.Black(11, 11))
	assert.True(t, c.Black(2, 7))
	assert.False(t, c.Black(3, 3), "interior stays white")

	c.FillRect(Rect{X: 15, Y: 15, W: 3, H: 3}, true)
	assert.True(t, c.Black(16, 16))
}

func TestCanvasPack(t *testing.T) {
	t.Parallel()
	c := NewCanvas(16, 2)
	buf := c.Pack()
	assert.Len(t, buf, 4) // 16px = 2 bytes per row
	for _, b := range buf {
		assert.Equal(t, byte(0xff), b, "all white after clear")
	}

	c.SetPixel(0, 0, true) // MSB of first byte
	c.SetPixel(15, 1, true)
	buf = c.Pack()
	assert.Equal(t, byte(0x7f), buf[0])
	assert.Equal(t, byte(0xfe), buf[3])
}

func TestCanvasPackOddWidth(t *testing.T) {
	t.Parallel()
	c := NewCanvas(10, 1)
	assert.Len(t, c.Pack(), 2)
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	c := NewCanvas(200, 40)
	face := basicfont.Face7x13

	assert.Equal(t, "kort", Truncate(c, "kort", face, 100))

	long := "Kraftiga byar av regn och snö"
	cut := Truncate(c, long, face, 70) // 10 chars at 7px
	assert.NotEqual(t, long, cut)
	assert.True(t, c.TextWidth(cut, face) <= 70)
	assert.Contains(t, cut, "…")
}

func TestTruncateTooNarrow(t *testing.T) {
	t.Parallel()
	c := NewCanvas(10, 10)
	assert.Equal(t, "", Truncate(c, "text", basicfont.Face7x13, 0))
}

func TestCanvasPasteBitmap(t *testing.T) {
	t.Parallel()
	c := NewCanvas(16, 8)
	icon := image.NewGray(image.Rect(0, 0, 2, 2))
	icon.SetGray(0, 0, color.Gray{Y: 0})
	icon.SetGray(1, 1, color.Gray{Y: 0xff})
	c.PasteBitmap(4, 2, icon)
	assert.True(t, c.Black(4, 2))
	assert.False(t, c.Black(5, 3))
	// partially off canvas must not panic
	c.PasteBitmap(15, 7, icon)
	c.PasteBitmap(0, 0, nil)
}
