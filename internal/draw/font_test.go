package draw

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

	"epaperd/log2"
)

func TestLoadFontsBuiltin(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)

	fs := LoadFonts(log, FontConfig{})
	assert.Equal(t, basicfont.Face7x13, fs.Tiny)

	// unreadable path degrades to the builtin face
	fs = LoadFonts(log, FontConfig{Path: "/nonexistent/font.ttf"})
	assert.Equal(t, basicfont.Face7x13, fs.HeroTemp)
}

func TestLoadFontsBadData(t *testing.T) {
	t.Parallel()
	f, err := ioutil.TempFile("", "epaperd-font")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString("definitely not a font")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fs := LoadFonts(log2.NewTest(t, log2.LError), FontConfig{Path: f.Name()})
	assert.Equal(t, basicfont.Face7x13, fs.SmallMain)
}
