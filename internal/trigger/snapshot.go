package trigger

import (
	"time"

	"epaperd/internal/weather"
)

// Snapshot is the fixed set of signals a condition may reference.
// Values are captured once per iteration so every trigger evaluates
// against the same inputs.
type Snapshot struct {
	Precipitation  float64 // mm/h right now
	Forecast2h     float64 // worst mm/h expected within 2 hours
	Temperature    float64
	WindSpeed      float64
	PressureTrend  string // rising, falling, stable, insufficient
	Hour           int    // 0..23 local
	Month          int    // 1..12
	UserPreference string
	Daylight       bool
}

var signalNames = map[string]struct{}{
	"precipitation":             {},
	"forecast_precipitation_2h": {},
	"temperature":               {},
	"wind_speed":                {},
	"pressure_trend":            {},
	"time_hour":                 {},
	"time_month":                {},
	"user_preference":           {},
	"is_daylight":               {},
}

// KnownSignal reports whether name is in the signal whitelist.
func KnownSignal(name string) bool {
	_, ok := signalNames[name]
	return ok
}

func (self *Snapshot) signal(name string) (value, bool) {
	switch name {
	case "precipitation":
		return numValue(self.Precipitation), true
	case "forecast_precipitation_2h":
		return numValue(self.Forecast2h), true
	case "temperature":
		return numValue(self.Temperature), true
	case "wind_speed":
		return numValue(self.WindSpeed), true
	case "pressure_trend":
		return strValue(self.PressureTrend), true
	case "time_hour":
		return numValue(float64(self.Hour)), true
	case "time_month":
		return numValue(float64(self.Month)), true
	case "user_preference":
		return strValue(self.UserPreference), true
	case "is_daylight":
		return boolValue(self.Daylight), true
	}
	return value{}, false
}

// FromWeather projects a payload into a snapshot. A nil payload gives
// safe zero values so triggers fall through to defaults instead of
// failing.
func FromWeather(p *weather.Payload, now time.Time, userPreference string) *Snapshot {
	snap := &Snapshot{
		Hour:           now.Hour(),
		Month:          int(now.Month()),
		UserPreference: userPreference,
	}
	if p == nil {
		return snap
	}
	snap.Precipitation = p.Precipitation
	if p.Window2h.Expected {
		snap.Forecast2h = p.Window2h.MaxMM
	}
	snap.Temperature = p.Temperature
	snap.WindSpeed = p.WindSpeed
	snap.PressureTrend = string(p.Trend.Direction)
	snap.Daylight = p.Sun.Daylight(now)
	return snap
}
