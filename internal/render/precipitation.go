package render

import (
	"fmt"

	"epaperd/internal/draw"
)

// precipitationRenderer takes over the forecast area while rain is
// falling or expected within two hours.
type precipitationRenderer struct {
	fonts *draw.FontSet
}

func (self *precipitationRenderer) Render(s draw.Surface, box draw.Rect, fr *Frame) error {
	p := fr.Weather
	if p == nil {
		return errNoWeather
	}
	in := box.Inset(8)

	var header, detail string
	switch {
	case p.Precipitation >= 0.1:
		header = "REGNAR NU"
		detail = fmt.Sprintf("%.1f mm/h, %s", p.Precipitation, intensityOrRain(p.Precipitation))
	case p.Window2h.Expected:
		header = "REGN VÄNTAT"
		detail = fmt.Sprintf("ca %s, %s", p.Window2h.StartsAt.In(fr.Now.Location()).Format("15:04"),
			p.Window2h.Intensity)
		if kind := precipKind(p.Window2h.Category); kind != "" {
			detail += ", " + kind
		}
	default:
		header = "UPPEHÅLL"
		detail = "ingen nederbörd väntas"
	}

	y := in.Y
	s.DrawText(in.X, y, draw.Truncate(s, header, self.fonts.MediumMain, in.W), self.fonts.MediumMain)
	y += in.H / 2
	s.DrawText(in.X, y, draw.Truncate(s, detail, self.fonts.SmallDesc, in.W), self.fonts.SmallDesc)
	return nil
}
