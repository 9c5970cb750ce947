package draw

import (
	"io/ioutil"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"epaperd/log2"
)

// FontSet holds the faces used across modules, sized at load time.
type FontSet struct {
	HeroTemp   font.Face
	HeroDesc   font.Face
	MediumMain font.Face
	MediumDesc font.Face
	SmallMain  font.Face
	SmallDesc  font.Face
	Tiny       font.Face
}

type FontConfig struct {
	Path string `hcl:"path"`

	SizeHeroTemp   int `hcl:"size_hero_temp"`
	SizeHeroDesc   int `hcl:"size_hero_desc"`
	SizeMediumMain int `hcl:"size_medium_main"`
	SizeMediumDesc int `hcl:"size_medium_desc"`
	SizeSmallMain  int `hcl:"size_small_main"`
	SizeSmallDesc  int `hcl:"size_small_desc"`
	SizeTiny       int `hcl:"size_tiny"`
}

func (self *FontConfig) normalize() {
	setDefault := func(p *int, v int) {
		if *p <= 0 {
			*p = v
		}
	}
	setDefault(&self.SizeHeroTemp, 96)
	setDefault(&self.SizeHeroDesc, 32)
	setDefault(&self.SizeMediumMain, 42)
	setDefault(&self.SizeMediumDesc, 24)
	setDefault(&self.SizeSmallMain, 28)
	setDefault(&self.SizeSmallDesc, 18)
	setDefault(&self.SizeTiny, 14)
}

// LoadFonts parses the configured TTF/OTF once and derives all faces.
// A missing font file degrades to the built-in bitmap face so the
// panel still shows something readable.
func LoadFonts(log *log2.Log, config FontConfig) *FontSet {
	config.normalize()
	if config.Path != "" {
		fs, err := loadOpentype(config)
		if err == nil {
			return fs
		}
		log.Error(errors.Annotatef(err, "font %s, using builtin", config.Path))
	}
	b := basicfont.Face7x13
	return &FontSet{
		HeroTemp:   b,
		HeroDesc:   b,
		MediumMain: b,
		MediumDesc: b,
		SmallMain:  b,
		SmallDesc:  b,
		Tiny:       b,
	}
}

func loadOpentype(config FontConfig) (*FontSet, error) {
	raw, err := ioutil.ReadFile(config.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	parsed, err := opentype.Parse(raw)
	if err != nil {
		return nil, errors.Annotate(err, "parse")
	}
	face := func(size int) (font.Face, error) {
		return opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	fs := &FontSet{}
	for _, f := range []struct {
		dst  *font.Face
		size int
	}{
		{&fs.HeroTemp, config.SizeHeroTemp},
		{&fs.HeroDesc, config.SizeHeroDesc},
		{&fs.MediumMain, config.SizeMediumMain},
		{&fs.MediumDesc, config.SizeMediumDesc},
		{&fs.SmallMain, config.SizeSmallMain},
		{&fs.SmallDesc, config.SizeSmallDesc},
		{&fs.Tiny, config.SizeTiny},
	} {
		if *f.dst, err = face(f.size); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return fs, nil
}

// Truncate shortens text with an ellipsis until it fits maxWidth on
// the given surface.
func Truncate(s Surface, text string, face font.Face, maxWidth int) string {
	if s.TextWidth(text, face) <= maxWidth {
		return text
	}
	const ellipsis = "…"
	runes := []rune(strings.TrimSpace(text))
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		cut := strings.TrimRight(string(runes), " ") + ellipsis
		if s.TextWidth(cut, face) <= maxWidth {
			return cut
		}
	}
	return ""
}
