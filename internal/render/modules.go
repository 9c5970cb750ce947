package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"

	"epaperd/internal/draw"
	"epaperd/internal/weather"
)

var errNoWeather = errors.New("no weather payload")

// Legacy draw functions for the modules that never got dedicated
// renderer types. The factory wraps them in the callback adapter.
func LegacyCallbacks(fonts *draw.FontSet) map[string]Func {
	return map[string]Func{
		"main_weather":      func(s draw.Surface, b draw.Rect, fr *Frame) error { return drawMainWeather(s, b, fr, fonts) },
		"barometer_module":  func(s draw.Surface, b draw.Rect, fr *Frame) error { return drawBarometer(s, b, fr, fonts) },
		"tomorrow_forecast": func(s draw.Surface, b draw.Rect, fr *Frame) error { return drawTomorrow(s, b, fr, fonts) },
		"clock_module":      func(s draw.Surface, b draw.Rect, fr *Frame) error { return drawClock(s, b, fr, fonts) },
		"status_module":     func(s draw.Surface, b draw.Rect, fr *Frame) error { return drawStatus(s, b, fr, fonts) },
	}
}

func drawMainWeather(s draw.Surface, box draw.Rect, fr *Frame, fonts *draw.FontSet) error {
	p := fr.Weather
	if p == nil {
		return errNoWeather
	}
	in := box.Inset(10)
	temp := fmt.Sprintf("%.1f°", p.Temperature)
	s.DrawText(in.X, in.Y, temp, fonts.HeroTemp)
	desc := draw.Truncate(s, p.Description, fonts.HeroDesc, in.W)
	s.DrawText(in.X, in.Y+in.H*2/3, desc, fonts.HeroDesc)
	if p.TemperatureSource == weather.SourceNetatmo {
		s.DrawText(in.X+in.W-s.TextWidth("ute", fonts.Tiny), in.Y, "ute", fonts.Tiny)
	}
	return nil
}

func drawBarometer(s draw.Surface, box draw.Rect, fr *Frame, fonts *draw.FontSet) error {
	p := fr.Weather
	if p == nil {
		return errNoWeather
	}
	in := box.Inset(10)
	s.DrawText(in.X, in.Y, fmt.Sprintf("%.0f hPa", p.Pressure), fonts.MediumMain)

	y := in.Y + in.H/2
	s.DrawText(in.X, y, p.Trend.Text(), fonts.SmallMain)
	drawTrendArrow(s, draw.Rect{X: in.X + in.W - 36, Y: y, W: 28, H: 28}, p.Trend.Arrow())
	if p.Trend.Direction != weather.TrendInsufficient {
		delta := fmt.Sprintf("%+.1f hPa/3h", p.Trend.Change3h)
		s.DrawText(in.X, y+30, delta, fonts.Tiny)
	}
	return nil
}

// drawTrendArrow paints a simple line arrow for the trend direction.
func drawTrendArrow(s draw.Surface, box draw.Rect, arrow string) {
	cx := box.X + box.W/2
	cy := box.Y + box.H/2
	h := box.H / 2
	switch arrow {
	case "up":
		s.DrawLine(cx, cy+h, cx, cy-h)
		s.DrawLine(cx, cy-h, cx-h/2, cy-h/2)
		s.DrawLine(cx, cy-h, cx+h/2, cy-h/2)
	case "down":
		s.DrawLine(cx, cy-h, cx, cy+h)
		s.DrawLine(cx, cy+h, cx-h/2, cy+h/2)
		s.DrawLine(cx, cy+h, cx+h/2, cy+h/2)
	case "right":
		s.DrawLine(cx-h, cy, cx+h, cy)
		s.DrawLine(cx+h, cy, cx+h/2, cy-h/2)
		s.DrawLine(cx+h, cy, cx+h/2, cy+h/2)
	}
}

func drawTomorrow(s draw.Surface, box draw.Rect, fr *Frame, fonts *draw.FontSet) error {
	p := fr.Weather
	if p == nil {
		return errNoWeather
	}
	in := box.Inset(10)
	s.DrawText(in.X, in.Y, "Imorgon", fonts.SmallDesc)
	s.DrawText(in.X, in.Y+in.H/3, fmt.Sprintf("%.0f°", p.Tomorrow.Temperature), fonts.MediumMain)
	desc := draw.Truncate(s, p.Tomorrow.Description, fonts.SmallDesc, in.W)
	s.DrawText(in.X, in.Y+in.H*3/4, desc, fonts.SmallDesc)
	return nil
}

func drawClock(s draw.Surface, box draw.Rect, fr *Frame, fonts *draw.FontSet) error {
	in := box.Inset(10)
	now := fr.Now
	s.DrawText(in.X, in.Y, now.Format("15:04"), fonts.MediumMain)
	date := fmt.Sprintf("%s %d %s", weekdaySwedish(now.Weekday()), now.Day(), monthSwedish(now.Month()))
	s.DrawText(in.X, in.Y+in.H/2, draw.Truncate(s, date, fonts.SmallDesc, in.W), fonts.SmallDesc)
	return nil
}

func drawStatus(s draw.Surface, box draw.Rect, fr *Frame, fonts *draw.FontSet) error {
	in := box.Inset(6)
	line := "uppdaterad " + fr.Now.Format("15:04")
	if p := fr.Weather; p != nil {
		if p.Location != "" {
			line = p.Location + " " + line
		}
		if len(p.Sources) > 0 {
			line += " [" + strings.Join(p.Sources, ",") + "]"
		}
		if !p.Sun.Sunrise.IsZero() {
			sun := fmt.Sprintf("sol %s-%s", p.Sun.Sunrise.Format("15:04"), p.Sun.Sunset.Format("15:04"))
			s.DrawText(in.X, in.Y+in.H/2, sun, fonts.Tiny)
		}
	}
	s.DrawText(in.X, in.Y, draw.Truncate(s, line, fonts.Tiny, in.W), fonts.Tiny)
	return nil
}

func intensityOrRain(mmh float64) string {
	if l := weather.IntensityLabel(mmh); l != "Inget regn" {
		return l
	}
	return "Lätt regn"
}

func precipKind(pcat int) string {
	k := weather.CategoryLabel(pcat)
	if k == "Regn" {
		// the header already says rain
		return ""
	}
	return k
}

func weekdaySwedish(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "måndag"
	case time.Tuesday:
		return "tisdag"
	case time.Wednesday:
		return "onsdag"
	case time.Thursday:
		return "torsdag"
	case time.Friday:
		return "fredag"
	case time.Saturday:
		return "lördag"
	}
	return "söndag"
}

func monthSwedish(m time.Month) string {
	names := [...]string{"januari", "februari", "mars", "april", "maj", "juni",
		"juli", "augusti", "september", "oktober", "november", "december"}
	return names[int(m)-1]
}
