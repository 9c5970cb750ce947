package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epaperd/hardware/epd"
	"epaperd/internal/state"
	"epaperd/internal/weather"
	"epaperd/log2"
)

const testConfig = `
display { mock = true width = 800 height = 480 }
timing { update_interval_sec = 60 watchdog_min = 30 }
layout {
  section "top" {
    group "normal" { modules = ["main_weather", "barometer_module"] }
  }
  section "bottom" {
    group "normal" { modules = ["tomorrow_forecast", "clock_module"] }
    group "precipitation_active" { modules = ["precipitation_module", "clock_module"] }
  }
  trigger "rain_now" {
    condition = "precipitation > 0.2"
    target_section = "bottom"
    activate_group = "precipitation_active"
    priority = 100
  }
  module "main_weather" { x = 0 y = 0 width = 400 height = 300 }
  module "barometer_module" { x = 400 y = 0 width = 400 height = 300 }
  module "tomorrow_forecast" { x = 0 y = 300 width = 400 height = 180 }
  module "clock_module" { x = 400 y = 300 width = 400 height = 180 }
  module "precipitation_module" { x = 0 y = 300 width = 400 height = 180 }
}
`

type fakeProvider struct {
	payload *weather.Payload
	err     error
	calls   int
}

func (self *fakeProvider) Fetch(ctx context.Context, now time.Time) (*weather.Payload, error) {
	self.calls++
	if self.err != nil {
		return nil, self.err
	}
	p := *self.payload
	p.FetchedAt = now
	return &p, nil
}

func testPayload() *weather.Payload {
	return &weather.Payload{
		Temperature: 4.2,
		Symbol:      5,
		Description: "Molnigt",
		Pressure:    1013,
		Trend:       weather.PressureTrend{Direction: weather.TrendStable},
		Tomorrow:    weather.Forecast{Temperature: 7, Symbol: 1, Description: "Klart"},
	}
}

func testDaemon(t testing.TB, provider weather.Provider) (*Daemon, *epd.Mock, context.Context) {
	log := log2.NewTest(t, log2.LError)
	ctx, g := state.NewContext(log)
	cfg := state.MustReadConfig(log, state.NewMockFullReader(map[string]string{
		"test": testConfig,
	}), "test")
	require.NoError(t, g.Init(ctx, cfg))

	mock := epd.NewMock(cfg.Display)
	g.SetPanel(mock)
	g.SetWeather(provider)

	d, err := New(ctx)
	require.NoError(t, err)
	return d, mock, ctx
}

func TestIterateFirstRunDisplays(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov := &fakeProvider{payload: testPayload()}
	d, mock, ctx := testDaemon(t, prov)

	dec, err := d.Iterate(ctx, now)
	require.NoError(t, err)
	assert.True(t, dec.Redraw)
	assert.Equal(t, "first run", dec.Reason)
	require.Len(t, mock.Frames, 1)
	assert.Len(t, mock.LastFrame(), 800/8*480)
	assert.True(t, mock.Slept, "panel sleeps between refreshes")
}

func TestIterateNoChangeSkips(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov := &fakeProvider{payload: testPayload()}
	d, mock, ctx := testDaemon(t, prov)

	_, err := d.Iterate(ctx, now)
	require.NoError(t, err)
	dec, err := d.Iterate(ctx, now.Add(time.Minute))
	require.NoError(t, err)

	assert.False(t, dec.Redraw)
	assert.Equal(t, "no change", dec.Reason)
	assert.Len(t, mock.Frames, 1, "no second frame pushed")
}

func TestIterateTriggerSwitchesLayout(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov := &fakeProvider{payload: testPayload()}
	d, mock, ctx := testDaemon(t, prov)

	_, err := d.Iterate(ctx, now)
	require.NoError(t, err)

	// rain starts, trigger fires, layout switches, redraw
	prov.payload.Precipitation = 0.3
	dec, err := d.Iterate(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, dec.Redraw)
	assert.Contains(t, dec.Reason, "layout")
	assert.Len(t, mock.Frames, 2)

	// below the threshold falls back to normal
	prov.payload.Precipitation = 0.1
	dec, err = d.Iterate(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, dec.Redraw)
	assert.Contains(t, dec.Reason, "precipitation_active>normal")
}

func TestIterateFetchErrorKeepsFrame(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov := &fakeProvider{payload: testPayload()}
	d, mock, ctx := testDaemon(t, prov)

	_, err := d.Iterate(ctx, now)
	require.NoError(t, err)

	prov.err = errors.Errorf("smhi down")
	_, err = d.Iterate(ctx, now.Add(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smhi down")
	assert.Len(t, mock.Frames, 1, "stale frame stays on the panel")
}

func TestIterateDisplayErrorRetries(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prov := &fakeProvider{payload: testPayload()}
	d, mock, ctx := testDaemon(t, prov)

	mock.DisplayErr = errors.Errorf("spi glitch")
	_, err := d.Iterate(ctx, now)
	require.Error(t, err)

	// accepted state not recorded, next iteration redraws again
	mock.DisplayErr = nil
	dec, err := d.Iterate(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, dec.Redraw)
	assert.Equal(t, "first run", dec.Reason)
	assert.Len(t, mock.Frames, 1)
}

func TestCleanup(t *testing.T) {
	t.Parallel()
	prov := &fakeProvider{payload: testPayload()}
	d, mock, _ := testDaemon(t, prov)
	d.Cleanup()
	assert.True(t, mock.Slept)
	assert.True(t, mock.Closed)
}
