package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epaperd/log2"
)

func smhiEntryJSON(valid time.Time, params map[string]float64) string {
	ps := make([]string, 0, len(params))
	for name, v := range params {
		ps = append(ps, fmt.Sprintf(`{"name":%q,"values":[%g]}`, name, v))
	}
	return fmt.Sprintf(`{"validTime":%q,"parameters":[%s]}`,
		valid.Format(time.RFC3339), strings.Join(ps, ","))
}

func TestSMHIFetch(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"timeSeries":[%s,%s,%s,%s]}`,
		smhiEntryJSON(now, map[string]float64{
			"t": 4.2, "msl": 1008.5, "ws": 6.1, "wd": 220, "pmin": 0, "Wsymb2": 5,
		}),
		smhiEntryJSON(now.Add(time.Hour), map[string]float64{
			"t": 3.9, "pmin": 0.7, "pcat": 3, "Wsymb2": 19,
		}),
		smhiEntryJSON(now.Add(2*time.Hour), map[string]float64{
			"t": 3.7, "pmin": 0.2, "pcat": 3, "Wsymb2": 18,
		}),
		smhiEntryJSON(now.Add(25*time.Hour), map[string]float64{
			"t": 7.5, "Wsymb2": 3,
		}),
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/geotype/point/")
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	config := &Config{}
	config.SMHI.BaseURL = ts.URL
	config.Normalize()
	client := NewSMHI(log2.NewTest(t, log2.LError), config)

	p := &Payload{}
	require.NoError(t, client.Fetch(context.Background(), now, p))

	assert.Equal(t, 4.2, p.Temperature)
	assert.Equal(t, SourceSMHI, p.TemperatureSource)
	assert.Equal(t, 1008.5, p.Pressure)
	assert.Equal(t, 6.1, p.WindSpeed)
	assert.Equal(t, 220.0, p.WindDirection)
	assert.Equal(t, 5, p.Symbol)
	assert.Equal(t, "Molnigt", p.Description)

	// worst slot inside the 2h window is 0.7 mm/h rain
	assert.True(t, p.Window2h.Expected)
	assert.Equal(t, 0.7, p.Window2h.MaxMM)
	assert.Equal(t, 3, p.Window2h.Category)
	assert.Equal(t, now.Add(time.Hour), p.Window2h.StartsAt.UTC())
	assert.Equal(t, "Lätt regn", p.Window2h.Intensity)

	assert.Equal(t, 7.5, p.Tomorrow.Temperature)
	assert.Equal(t, 3, p.Tomorrow.Symbol)
}

func TestSMHIFetchError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	config := &Config{}
	config.SMHI.BaseURL = ts.URL
	config.Normalize()
	client := NewSMHI(log2.NewTest(t, log2.LError), config)

	err := client.Fetch(context.Background(), time.Now(), &Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestScanWindowBelowThreshold(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	series := []smhiEntry{
		{ValidTime: now.Add(time.Hour), Parameters: []smhiParameter{
			{Name: "pmin", Values: []float64{0.05}},
		}},
	}
	w := scanWindow(series, now, 2*time.Hour)
	assert.False(t, w.Expected)
}

func TestIntensityLabels(t *testing.T) {
	t.Parallel()
	cases := []struct {
		mmh    float64
		expect string
	}{
		{0.05, "Inget regn"},
		{0.3, "Lätt duggregn"},
		{0.7, "Lätt regn"},
		{1.5, "Måttligt regn"},
		{5, "Kraftigt regn"},
		{12, "Mycket kraftigt regn"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, IntensityLabel(c.mmh), "mmh=%v", c.mmh)
	}
}
