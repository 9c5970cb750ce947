package epd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()
	c := Config{}
	c.Normalize()
	assert.Equal(t, "SPI0.0", c.SPI)
	assert.Equal(t, 800, c.Width)
	assert.Equal(t, 480, c.Height)
	assert.Equal(t, 800/8*480, c.FrameLength())
}

func TestConfigOddWidthFrameLength(t *testing.T) {
	t.Parallel()
	c := Config{Width: 10, Height: 2}
	assert.Equal(t, 4, c.FrameLength())
}

func TestMockPanel(t *testing.T) {
	t.Parallel()
	m := NewMock(Config{Width: 16, Height: 2})

	err := m.Display(make([]byte, 4))
	require.Error(t, err, "display before init")

	require.NoError(t, m.Init())
	assert.Error(t, m.Display(make([]byte, 3)), "wrong frame length")
	require.NoError(t, m.Display([]byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, m.LastFrame())

	require.NoError(t, m.Sleep())
	require.NoError(t, m.Close())
	assert.True(t, m.Slept)
	assert.True(t, m.Closed)
}
