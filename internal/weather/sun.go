package weather

import (
	"math"
	"time"

	"github.com/juju/errors"
)

// official zenith including refraction and solar disc radius
const sunZenith = 90.833

var ErrPolar = errors.New("sun never rises or sets on this date")

// ComputeSun calculates sunrise and sunset for the given date and
// coordinates using the classic NOAA almanac approximation. No network
// access is involved. Polar day and night yield ErrPolar.
func ComputeSun(date time.Time, lat, lon float64) (Sun, error) {
	rise, err := sunEvent(date, lat, lon, true)
	if err != nil {
		return Sun{}, errors.Trace(err)
	}
	set, err := sunEvent(date, lat, lon, false)
	if err != nil {
		return Sun{}, errors.Trace(err)
	}
	return Sun{Sunrise: rise, Sunset: set}, nil
}

func sunEvent(date time.Time, lat, lon float64, rising bool) (time.Time, error) {
	n := float64(date.YearDay())
	lngHour := lon / 15

	var t float64
	if rising {
		t = n + ((6 - lngHour) / 24)
	} else {
		t = n + ((18 - lngHour) / 24)
	}

	// mean anomaly and true longitude of the sun
	m := (0.9856 * t) - 3.289
	l := m + (1.916 * sinDeg(m)) + (0.020 * sinDeg(2*m)) + 282.634
	l = wrap(l, 360)

	// right ascension, folded into the same quadrant as l
	ra := atanDeg(0.91764 * tanDeg(l))
	ra = wrap(ra, 360)
	ra += (math.Floor(l/90) - math.Floor(ra/90)) * 90
	ra /= 15

	sinDec := 0.39782 * sinDeg(l)
	cosDec := cosDeg(asinDeg(sinDec))

	cosH := (cosDeg(sunZenith) - (sinDec * sinDeg(lat))) / (cosDec * cosDeg(lat))
	if cosH > 1 || cosH < -1 {
		return time.Time{}, ErrPolar
	}

	var h float64
	if rising {
		h = 360 - acosDeg(cosH)
	} else {
		h = acosDeg(cosH)
	}
	h /= 15

	localMean := h + ra - (0.06571 * t) - 6.622
	ut := wrap(localMean-lngHour, 24)

	utc := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(ut * float64(time.Hour)))
	return utc.In(date.Location()), nil
}

func wrap(v, period float64) float64 {
	v = math.Mod(v, period)
	if v < 0 {
		v += period
	}
	return v
}

func sinDeg(d float64) float64  { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64  { return math.Cos(d * math.Pi / 180) }
func tanDeg(d float64) float64  { return math.Tan(d * math.Pi / 180) }
func asinDeg(v float64) float64 { return math.Asin(v) * 180 / math.Pi }
func acosDeg(v float64) float64 { return math.Acos(v) * 180 / math.Pi }
func atanDeg(v float64) float64 { return math.Atan(v) * 180 / math.Pi }
