package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/juju/errors"

	"epaperd/log2"
)

// SMHI reads the pmp3g point forecast from opendata-download-metfcst.
type SMHI struct {
	Log    *log2.Log
	config *Config
	http   *http.Client
}

func NewSMHI(log *log2.Log, config *Config) *SMHI {
	return &SMHI{
		Log:    log,
		config: config,
		http:   &http.Client{Timeout: config.smhiTimeout()},
	}
}

type smhiResponse struct {
	TimeSeries []smhiEntry `json:"timeSeries"`
}

type smhiEntry struct {
	ValidTime  time.Time       `json:"validTime"`
	Parameters []smhiParameter `json:"parameters"`
}

type smhiParameter struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func (self smhiEntry) value(name string) (float64, bool) {
	for _, p := range self.Parameters {
		if p.Name == name && len(p.Values) > 0 {
			return p.Values[0], true
		}
	}
	return 0, false
}

// Fetch downloads the point forecast and fills the SMHI owned fields
// of the payload: temperature, symbol, pressure, wind, precipitation,
// the 2 hour precipitation window and tomorrow's outlook.
func (self *SMHI) Fetch(ctx context.Context, now time.Time, p *Payload) error {
	url := fmt.Sprintf("%s/api/category/pmp3g/version/2/geotype/point/lon/%.6f/lat/%.6f/data.json",
		self.config.SMHI.BaseURL, self.config.SMHI.Longitude, self.config.SMHI.Latitude)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.Annotate(err, "smhi request")
	}
	req = req.WithContext(ctx)
	resp, err := self.http.Do(req)
	if err != nil {
		return errors.Annotate(err, "smhi fetch")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("smhi fetch: status %d", resp.StatusCode)
	}
	var sr smhiResponse
	if err = json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return errors.Annotate(err, "smhi decode")
	}
	if len(sr.TimeSeries) == 0 {
		return errors.Errorf("smhi fetch: empty time series")
	}
	self.apply(now, &sr, p)
	return nil
}

func (self *SMHI) apply(now time.Time, sr *smhiResponse, p *Payload) {
	cur := nearestEntry(sr.TimeSeries, now)
	if t, ok := cur.value("t"); ok {
		p.Temperature = t
		p.TemperatureSource = SourceSMHI
	}
	if v, ok := cur.value("msl"); ok {
		p.Pressure = v
		p.PressureSource = SourceSMHI
	}
	if v, ok := cur.value("ws"); ok {
		p.WindSpeed = v
	}
	if v, ok := cur.value("wd"); ok {
		p.WindDirection = v
	}
	if v, ok := cur.value("pmin"); ok {
		p.Precipitation = v
	}
	if v, ok := cur.value("Wsymb2"); ok {
		p.Symbol = int(v)
		p.Description = SymbolLabel(p.Symbol)
	}
	p.Window2h = scanWindow(sr.TimeSeries, now, 2*time.Hour)
	p.Tomorrow = tomorrowOutlook(sr.TimeSeries, now)
}

// nearestEntry picks the forecast slot closest to now. SMHI series
// start at the current hour so this is usually the first element.
func nearestEntry(series []smhiEntry, now time.Time) smhiEntry {
	best := series[0]
	bestD := absDuration(best.ValidTime.Sub(now))
	for _, e := range series[1:] {
		if d := absDuration(e.ValidTime.Sub(now)); d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// scanWindow walks forecast slots inside (now, now+span] and reports
// the worst precipitation rate found.
func scanWindow(series []smhiEntry, now time.Time, span time.Duration) PrecipWindow {
	w := PrecipWindow{}
	end := now.Add(span)
	for _, e := range series {
		if !e.ValidTime.After(now) || e.ValidTime.After(end) {
			continue
		}
		mm, ok := e.value("pmin")
		if !ok || mm < 0.1 {
			continue
		}
		if !w.Expected || mm > w.MaxMM {
			w.MaxMM = mm
			if cat, ok := e.value("pcat"); ok {
				w.Category = int(cat)
			}
		}
		if !w.Expected {
			w.StartsAt = e.ValidTime
			w.Expected = true
		}
	}
	if w.Expected {
		w.Intensity = IntensityLabel(w.MaxMM)
	}
	return w
}

// tomorrowOutlook picks the slot closest to 12:00 local time on the
// next calendar day.
func tomorrowOutlook(series []smhiEntry, now time.Time) Forecast {
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location()).Add(24 * time.Hour)
	var best *smhiEntry
	var bestD time.Duration
	for i := range series {
		e := &series[i]
		if e.ValidTime.In(now.Location()).Day() != noon.Day() {
			continue
		}
		d := absDuration(e.ValidTime.Sub(noon))
		if best == nil || d < bestD {
			best, bestD = e, d
		}
	}
	f := Forecast{}
	if best == nil {
		return f
	}
	if t, ok := best.value("t"); ok {
		f.Temperature = t
	}
	if v, ok := best.value("Wsymb2"); ok {
		f.Symbol = int(v)
		f.Description = SymbolLabel(f.Symbol)
	}
	return f
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

var symbolLabels = map[int]string{
	1:  "Klart",
	2:  "Mest klart",
	3:  "Växlande molnighet",
	4:  "Halvklart",
	5:  "Molnigt",
	6:  "Mulet",
	7:  "Dimma",
	8:  "Lätta regnskurar",
	9:  "Regnskurar",
	10: "Kraftiga regnskurar",
	11: "Åskskurar",
	12: "Lätta byar av regn och snö",
	13: "Byar av regn och snö",
	14: "Kraftiga byar av regn och snö",
	15: "Lätta snöbyar",
	16: "Snöbyar",
	17: "Kraftiga snöbyar",
	18: "Lätt regn",
	19: "Regn",
	20: "Kraftigt regn",
	21: "Åska",
	22: "Lätt snöblandat regn",
	23: "Snöblandat regn",
	24: "Kraftigt snöblandat regn",
	25: "Lätt snöfall",
	26: "Snöfall",
	27: "Ymnigt snöfall",
}

// SymbolLabel translates SMHI Wsymb2 to the Swedish description.
func SymbolLabel(symbol int) string {
	if s, ok := symbolLabels[symbol]; ok {
		return s
	}
	return "Okänt"
}
