// Package update decides whether the e-paper panel needs a redraw.
// E-paper refreshes are slow and visibly flash, so the detector
// compares only fields the panel actually shows and skips redundant
// updates. Comparison failures err on the side of redrawing.
package update

import (
	"fmt"
	"math"
	"time"

	"epaperd/internal/layout"
	"epaperd/internal/weather"
	"epaperd/log2"
)

const (
	// DefaultWatchdog forces a redraw after this long without one, so
	// the clock module never lags badly even on a calm day.
	DefaultWatchdog = 30 * time.Minute

	// DefaultTolerance absorbs sensor noise on temperature and
	// pressure comparisons.
	DefaultTolerance = 0.1
)

// Observable is the projection of a payload onto what the panel
// displays. Two payloads with equal observables produce identical
// frames.
type Observable struct {
	Temperature  float64
	Symbol       int
	Description  string
	Pressure     float64
	TrendText    string
	TrendArrow   string
	TomorrowTemp float64
	TomorrowSym  int
	TomorrowDesc string
	Sunrise      string // HH:MM
	Sunset       string // HH:MM
	Date         string // YYYY-MM-DD
}

// Observe projects a payload at a wall clock instant.
func Observe(p *weather.Payload, now time.Time) Observable {
	o := Observable{Date: now.Format("2006-01-02")}
	if p == nil {
		return o
	}
	o.Temperature = p.Temperature
	o.Symbol = p.Symbol
	o.Description = p.Description
	o.Pressure = p.Pressure
	o.TrendText = p.Trend.Text()
	o.TrendArrow = p.Trend.Arrow()
	o.TomorrowTemp = p.Tomorrow.Temperature
	o.TomorrowSym = p.Tomorrow.Symbol
	o.TomorrowDesc = p.Tomorrow.Description
	if !p.Sun.Sunrise.IsZero() {
		o.Sunrise = p.Sun.Sunrise.Format("15:04")
		o.Sunset = p.Sun.Sunset.Format("15:04")
	}
	return o
}

// Accepted is the state of the panel after the last successful redraw.
// The daemon owns exactly one of these, nil before the first frame.
type Accepted struct {
	Observable
	Layout    *layout.State
	RedrawnAt time.Time
}

type Decision struct {
	Redraw bool
	Reason string
}

type Detector struct {
	Log       *log2.Log
	Watchdog  time.Duration
	Tolerance float64
}

func NewDetector(log *log2.Log) *Detector {
	return &Detector{
		Log:       log,
		Watchdog:  DefaultWatchdog,
		Tolerance: DefaultTolerance,
	}
}

// Check runs the decision chain in fixed order: layout change, first
// run, watchdog, date rollover, then field comparison. Any panic while
// comparing converts to a redraw, a broken comparison must never
// freeze the panel.
func (self *Detector) Check(now time.Time, current *layout.State, p *weather.Payload, prev *Accepted) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			self.Log.Errorf("update check panic: %v", r)
			d = Decision{Redraw: true, Reason: fmt.Sprintf("comparison failure: %v", r)}
		}
	}()

	if prev == nil {
		return Decision{Redraw: true, Reason: "first run"}
	}

	if !current.Equal(prev.Layout) {
		return Decision{Redraw: true, Reason: "layout " + current.Diff(prev.Layout)}
	}

	if since := now.Sub(prev.RedrawnAt); since >= self.Watchdog {
		return Decision{Redraw: true, Reason: fmt.Sprintf("watchdog %.0fmin", since.Minutes())}
	}

	o := Observe(p, now)
	if o.Date != prev.Date {
		return Decision{Redraw: true, Reason: "date " + prev.Date + ">" + o.Date}
	}

	if reason := self.diff(&o, &prev.Observable); reason != "" {
		return Decision{Redraw: true, Reason: reason}
	}
	return Decision{Redraw: false, Reason: "no change"}
}

// diff returns the first differing field, empty when equal within
// tolerance.
func (self *Detector) diff(cur, prev *Observable) string {
	if !self.close(cur.Temperature, prev.Temperature) {
		return fmt.Sprintf("temperature %.2f>%.2f", prev.Temperature, cur.Temperature)
	}
	if cur.Symbol != prev.Symbol {
		return fmt.Sprintf("symbol %d>%d", prev.Symbol, cur.Symbol)
	}
	if cur.Description != prev.Description {
		return "description changed"
	}
	if !self.close(cur.Pressure, prev.Pressure) {
		return fmt.Sprintf("pressure %.2f>%.2f", prev.Pressure, cur.Pressure)
	}
	if cur.TrendText != prev.TrendText || cur.TrendArrow != prev.TrendArrow {
		return "trend " + prev.TrendText + ">" + cur.TrendText
	}
	if !self.close(cur.TomorrowTemp, prev.TomorrowTemp) {
		return fmt.Sprintf("tomorrow temperature %.2f>%.2f", prev.TomorrowTemp, cur.TomorrowTemp)
	}
	if cur.TomorrowSym != prev.TomorrowSym || cur.TomorrowDesc != prev.TomorrowDesc {
		return "tomorrow forecast changed"
	}
	if cur.Sunrise != prev.Sunrise || cur.Sunset != prev.Sunset {
		return "sun times changed"
	}
	return ""
}

// close compares within tolerance. Exceeding it by exactly the
// tolerance is still equal, the panel rounds to one decimal anyway.
func (self *Detector) close(a, b float64) bool {
	return math.Abs(a-b) <= self.Tolerance+1e-9
}
