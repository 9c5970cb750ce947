package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epaperd/log2"
)

const configBase = `
display {
  mock = true
  width = 800
  height = 480
}
weather {
  location = "Stockholm"
  smhi { enabled = true latitude = 59.3293 longitude = 18.0686 }
}
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
  module "main_weather" { enabled = true x = 0 y = 0 width = 400 height = 300 }
  module "barometer_module" { enabled = true x = 400 y = 0 width = 400 height = 300 }
  module "tomorrow_forecast" { enabled = true x = 0 y = 300 width = 400 height = 180 }
  module "clock_module" { enabled = true x = 400 y = 300 width = 400 height = 180 }
  module "precipitation_module" { x = 0 y = 300 width = 400 height = 180 }
}
`

func TestReadConfig(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)
	fs := NewMockFullReader(map[string]string{
		"test-inline": configBase,
	})
	c, err := ReadConfig(log, fs, "test-inline")
	require.NoError(t, err)

	assert.True(t, c.Display.Mock)
	assert.Equal(t, 800, c.Display.Width)
	assert.Equal(t, "Stockholm", c.Weather.Location)
	assert.InDelta(t, 59.3293, c.Weather.SMHI.Latitude, 1e-6)

	require.Len(t, c.Layout.Sections, 2)
	assert.Equal(t, "top", c.Layout.Sections[0].Name)
	require.Len(t, c.Layout.Sections[1].Groups, 2)
	assert.Equal(t, []string{"precipitation_module", "clock_module"},
		c.Layout.Sections[1].Groups[1].Modules)

	require.Len(t, c.Layout.Triggers, 1)
	assert.Equal(t, "rain_now", c.Layout.Triggers[0].Name)
	assert.Equal(t, 100, c.Layout.Triggers[0].Priority)

	place, ok := c.Layout.Placement("clock_module")
	require.True(t, ok)
	assert.Equal(t, 400, place.X)
	assert.Equal(t, 300, place.Y)

	// defaults fill in
	assert.Equal(t, 60, c.Timing.UpdateIntervalSec)
	assert.Equal(t, 30, c.Timing.WatchdogMin)
}

func TestReadConfigInclude(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)
	fs := NewMockFullReader(map[string]string{
		"main": `
include "extra" {}
include "missing" { optional = true }
` + configBase,
		"extra": `
timing { update_interval_sec = 120 }
tele { enabled = false }
`,
	})
	c, err := ReadConfig(log, fs, "main")
	require.NoError(t, err)
	assert.Equal(t, 120, c.Timing.UpdateIntervalSec)
	assert.True(t, c.Display.Mock)
}

func TestReadConfigRequiredMissing(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)
	fs := NewMockFullReader(map[string]string{})
	_, err := ReadConfig(log, fs, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config required")
}

func TestReadConfigBadLayout(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LError)
	fs := NewMockFullReader(map[string]string{
		"bad": configBase + `
layout {
  trigger "dangling" {
    condition = "is_daylight"
    target_section = "nowhere"
    activate_group = "x"
  }
}
`,
	})
	_, err := ReadConfig(log, fs, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section")
}
