// Package weather fetches and merges observations from SMHI forecast
// data and a local Netatmo station into a single payload consumed by
// the render and update pipeline.
package weather

import (
	"fmt"
	"time"
)

// Source tags where a measurement came from.
type Source string

const (
	SourceSMHI     Source = "smhi"
	SourceNetatmo  Source = "netatmo"
	SourceFallback Source = "fallback"
)

// TrendDirection is the classified 3 hour pressure movement.
type TrendDirection string

const (
	TrendRising       TrendDirection = "rising"
	TrendFalling      TrendDirection = "falling"
	TrendStable       TrendDirection = "stable"
	TrendInsufficient TrendDirection = "insufficient"
)

// PressureTrend carries the barometer trend classification.
// DataHours is the time span actually covered by stored samples,
// it may be shorter than the nominal 3 hour window after a restart.
type PressureTrend struct {
	Direction TrendDirection
	Change3h  float64 // hPa normalized to a 3 hour window
	DataHours float64
}

// Text returns the Swedish label shown on the barometer module.
func (self PressureTrend) Text() string {
	switch self.Direction {
	case TrendRising:
		return "Stigande"
	case TrendFalling:
		return "Fallande"
	case TrendStable:
		return "Stabilt"
	default:
		return "Samlar data"
	}
}

// Arrow returns the glyph hint for the trend direction.
func (self PressureTrend) Arrow() string {
	switch self.Direction {
	case TrendRising:
		return "up"
	case TrendFalling:
		return "down"
	case TrendStable:
		return "right"
	default:
		return ""
	}
}

// Forecast is tomorrow's midday outlook.
type Forecast struct {
	Temperature float64
	Symbol      int
	Description string
}

// PrecipWindow is the short range precipitation scan over the next
// two hours of forecast data.
type PrecipWindow struct {
	Expected  bool
	MaxMM     float64 // worst mm/h seen in the window
	Category  int     // SMHI pcat of the worst slot
	StartsAt  time.Time
	Intensity string
}

// Sun holds the computed daylight window for the current date.
type Sun struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Daylight reports whether at is between sunrise and sunset.
func (self Sun) Daylight(at time.Time) bool {
	if self.Sunrise.IsZero() || self.Sunset.IsZero() {
		return false
	}
	return !at.Before(self.Sunrise) && at.Before(self.Sunset)
}

// Payload is one merged weather snapshot. All fields are plain values,
// the struct is copied freely between pipeline stages.
type Payload struct {
	Temperature       float64
	TemperatureSource Source
	Symbol            int
	Description       string
	Pressure          float64
	PressureSource    Source
	Trend             PressureTrend
	WindSpeed         float64 // m/s
	WindDirection     float64 // degrees, meteorological
	Precipitation     float64 // mm/h right now
	Window2h          PrecipWindow
	Tomorrow          Forecast
	Sun               Sun
	Location          string
	Sources           []string
	FetchedAt         time.Time
}

func (self *Payload) String() string {
	if self == nil {
		return "weather=nil"
	}
	return fmt.Sprintf("t=%.1f(%s) p=%.1f(%s) trend=%s wind=%.1f precip=%.1f sym=%d tomorrow=%.1f/%d",
		self.Temperature, self.TemperatureSource, self.Pressure, self.PressureSource,
		self.Trend.Direction, self.WindSpeed, self.Precipitation, self.Symbol,
		self.Tomorrow.Temperature, self.Tomorrow.Symbol)
}

// IntensityLabel maps an mm/h rate to the Swedish intensity wording
// used by the precipitation module.
func IntensityLabel(mmh float64) string {
	switch {
	case mmh < 0.1:
		return "Inget regn"
	case mmh < 0.5:
		return "Lätt duggregn"
	case mmh < 1.0:
		return "Lätt regn"
	case mmh < 2.5:
		return "Måttligt regn"
	case mmh < 10:
		return "Kraftigt regn"
	default:
		return "Mycket kraftigt regn"
	}
}

// CategoryLabel maps SMHI pcat to precipitation type.
func CategoryLabel(pcat int) string {
	switch pcat {
	case 1:
		return "Snö"
	case 2:
		return "Snöblandat regn"
	case 3:
		return "Regn"
	case 4:
		return "Hagel"
	case 5:
		return "Hagel + regn"
	case 6:
		return "Hagel + snö"
	default:
		return ""
	}
}
