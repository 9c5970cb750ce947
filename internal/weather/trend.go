package weather

import (
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/extremofile"

	"epaperd/log2"
)

type pressureSample struct {
	Unix     int64   `json:"t"`
	Pressure float64 `json:"p"`
}

// TrendTracker keeps a short pressure history on disk and classifies
// the movement over the configured window. History survives restarts
// via extremofile's double-write storage.
type TrendTracker struct {
	Log     *log2.Log
	config  *Config
	store   trendStore
	samples []pressureSample
}

type trendStore interface {
	Read() ([]byte, error)
	Write([]byte) (int, error)
}

func NewTrendTracker(log *log2.Log, config *Config, persistDir string) *TrendTracker {
	self := &TrendTracker{
		Log:    log,
		config: config,
	}
	if persistDir != "" {
		self.store = extremofile.New(extremofile.Config{
			Dir:        persistDir,
			FilePrefix: "pressure-history.",
		})
	}
	self.load()
	return self
}

func (self *TrendTracker) load() {
	if self.store == nil {
		return
	}
	b, err := self.store.Read()
	if err != nil {
		if extremofile.IsCritical(err) || extremofile.IsCorrupt(err) {
			self.Log.Error(errors.Annotate(err, "pressure history read"))
		}
		return
	}
	var samples []pressureSample
	if err = json.Unmarshal(b, &samples); err != nil {
		self.Log.Error(errors.Annotate(err, "pressure history parse"))
		return
	}
	self.samples = samples
}

// Record appends a pressure sample and prunes samples older than the
// retention window.
func (self *TrendTracker) Record(now time.Time, pressure float64) {
	if pressure <= 0 {
		return
	}
	self.samples = append(self.samples, pressureSample{Unix: now.Unix(), Pressure: pressure})
	cutoff := now.Add(-time.Duration(self.config.Trend.RetentionHours * float64(time.Hour))).Unix()
	keep := self.samples[:0]
	for _, s := range self.samples {
		if s.Unix >= cutoff {
			keep = append(keep, s)
		}
	}
	self.samples = keep
	self.persist()
}

func (self *TrendTracker) persist() {
	if self.store == nil {
		return
	}
	b, err := json.Marshal(self.samples)
	if err != nil {
		self.Log.Error(errors.Annotate(err, "pressure history encode"))
		return
	}
	if _, err = self.store.Write(b); err != nil {
		self.Log.Error(errors.Annotate(err, "pressure history write"))
	}
}

// Classify computes the trend at now. With less history than the
// configured minimum the direction is TrendInsufficient and the
// barometer module shows "Samlar data".
func (self *TrendTracker) Classify(now time.Time) PressureTrend {
	if len(self.samples) < 2 {
		return PressureTrend{Direction: TrendInsufficient}
	}
	newest := self.samples[len(self.samples)-1]
	oldest := self.samples[0]

	// prefer the sample closest to window_hours back
	target := now.Add(-time.Duration(self.config.Trend.WindowHours * float64(time.Hour))).Unix()
	ref := oldest
	refD := absInt64(oldest.Unix - target)
	for _, s := range self.samples {
		if d := absInt64(s.Unix - target); d < refD {
			ref, refD = s, d
		}
	}

	spanHours := float64(newest.Unix-oldest.Unix) / 3600
	trend := PressureTrend{DataHours: spanHours}
	if spanHours < self.config.Trend.MinHours {
		trend.Direction = TrendInsufficient
		return trend
	}

	refHours := float64(newest.Unix-ref.Unix) / 3600
	if refHours <= 0 {
		trend.Direction = TrendInsufficient
		return trend
	}
	// normalize the observed change to the nominal window
	trend.Change3h = (newest.Pressure - ref.Pressure) / refHours * self.config.Trend.WindowHours

	switch {
	case trend.Change3h >= self.config.Trend.ThresholdHPa:
		trend.Direction = TrendRising
	case trend.Change3h <= -self.config.Trend.ThresholdHPa:
		trend.Direction = TrendFalling
	default:
		trend.Direction = TrendStable
	}
	return trend
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
