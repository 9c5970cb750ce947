package render

import (
	"fmt"

	"epaperd/internal/draw"
)

// windRenderer takes over the forecast area in strong wind.
type windRenderer struct {
	fonts *draw.FontSet
}

func (self *windRenderer) Render(s draw.Surface, box draw.Rect, fr *Frame) error {
	p := fr.Weather
	if p == nil {
		return errNoWeather
	}
	in := box.Inset(8)

	header := fmt.Sprintf("%.0f m/s %s", p.WindSpeed, compassShort(p.WindDirection))
	detail := windLabel(p.WindSpeed)

	y := in.Y
	s.DrawText(in.X, y, draw.Truncate(s, header, self.fonts.MediumMain, in.W), self.fonts.MediumMain)
	y += in.H / 2
	s.DrawText(in.X, y, draw.Truncate(s, detail, self.fonts.SmallDesc, in.W), self.fonts.SmallDesc)
	return nil
}

// compassShort maps meteorological degrees to the Swedish 8 point
// compass.
func compassShort(deg float64) string {
	dirs := []string{"N", "NO", "O", "SO", "S", "SV", "V", "NV"}
	idx := int((deg+22.5)/45) % 8
	if idx < 0 {
		idx += 8
	}
	return dirs[idx]
}

// windLabel classifies wind speed in m/s per the common Swedish land
// scale.
func windLabel(ms float64) string {
	switch {
	case ms < 0.3:
		return "lugnt"
	case ms < 3.4:
		return "svag vind"
	case ms < 8.0:
		return "måttlig vind"
	case ms < 13.9:
		return "frisk vind"
	case ms < 24.5:
		return "hård vind"
	default:
		return "storm"
	}
}
