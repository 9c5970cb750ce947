package weather

import (
	"context"
	"time"

	"github.com/juju/errors"

	"epaperd/log2"
)

// Provider is the single entry point the daemon polls each iteration.
type Provider interface {
	Fetch(ctx context.Context, now time.Time) (*Payload, error)
}

// Client merges SMHI forecast data, Netatmo station measurements, the
// computed daylight window and the persisted pressure trend into one
// payload. Station failures degrade to forecast values, forecast
// failures degrade to the last good payload.
type Client struct {
	Log     *log2.Log
	config  *Config
	smhi    *SMHI
	netatmo *Netatmo
	trend   *TrendTracker

	lastGood *Payload
}

func NewClient(log *log2.Log, config *Config, persistDir string) *Client {
	config.Normalize()
	self := &Client{
		Log:    log,
		config: config,
		trend:  NewTrendTracker(log, config, persistDir),
	}
	if config.SMHI.Enabled {
		self.smhi = NewSMHI(log, config)
	}
	if config.Netatmo.Enabled {
		self.netatmo = NewNetatmo(log, config)
	}
	return self
}

func (self *Client) Fetch(ctx context.Context, now time.Time) (*Payload, error) {
	p := &Payload{
		Location:  self.config.Location,
		FetchedAt: now,
	}

	var errSMHI, errNetatmo error
	if self.smhi != nil {
		errSMHI = self.smhi.Fetch(ctx, now, p)
		if errSMHI == nil {
			p.Sources = append(p.Sources, string(SourceSMHI))
		}
	}
	if errSMHI != nil || self.smhi == nil {
		if errSMHI == nil {
			errSMHI = errors.Errorf("no weather source enabled")
		}
		if self.lastGood != nil {
			self.Log.Error(errors.Annotate(errSMHI, "smhi unavailable, reusing last payload"))
			prev := *self.lastGood
			p = &prev
			p.FetchedAt = now
		} else {
			// nothing to show otherwise, static defaults beat a blank panel
			self.Log.Error(errors.Annotate(errSMHI, "smhi unavailable, using fallback data"))
			p = fallbackPayload(self.config.Location, now)
		}
		p.Sources = []string{string(SourceFallback)}
		p.TemperatureSource = SourceFallback
		p.PressureSource = SourceFallback
	}

	if self.netatmo != nil {
		if errNetatmo = self.netatmo.Fetch(ctx, p); errNetatmo != nil {
			self.Log.Error(errors.Annotate(errNetatmo, "netatmo unavailable, forecast values kept"))
		} else {
			p.Sources = append(p.Sources, string(SourceNetatmo))
		}
	}

	if sun, err := ComputeSun(now, self.config.SMHI.Latitude, self.config.SMHI.Longitude); err != nil {
		self.Log.Debug(errors.Annotate(err, "sun").Error())
	} else {
		p.Sun = sun
	}

	self.trend.Record(now, p.Pressure)
	p.Trend = self.trend.Classify(now)

	if errSMHI == nil && self.smhi != nil {
		good := *p
		self.lastGood = &good
	}
	return p, nil
}

// fallbackPayload is shown when no forecast was ever fetched, so the
// panel still renders something readable on a dead network.
func fallbackPayload(location string, now time.Time) *Payload {
	return &Payload{
		Location:    location,
		FetchedAt:   now,
		Temperature: 20.0,
		Symbol:      1,
		Description: "Data ej tillgänglig",
		Pressure:    1013,
		Tomorrow:    Forecast{Temperature: 18.0, Description: "Okänt"},
	}
}
