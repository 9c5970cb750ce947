package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epaperd/internal/trigger"
	"epaperd/log2"
)

func testConfig() *Config {
	c := &Config{
		Sections: []Section{
			{Name: "top", Groups: []Group{
				{Name: "normal", Modules: []string{"main_weather", "barometer_module"}},
			}},
			{Name: "bottom", Groups: []Group{
				{Name: "normal", Modules: []string{"tomorrow_forecast", "clock_module"}},
				{Name: "precipitation_active", Modules: []string{"precipitation_module", "clock_module"}},
				{Name: "wind_warning", Modules: []string{"wind_module", "clock_module"}},
			}},
		},
		Triggers: []Trigger{
			{Name: "rain_now", Condition: "precipitation > 0.2",
				TargetSection: "bottom", ActivateGroup: "precipitation_active", Priority: 100},
			{Name: "strong_wind", Condition: "wind_speed > 10",
				TargetSection: "bottom", ActivateGroup: "wind_warning", Priority: 80},
		},
		Modules: []ModulePlacement{
			{Name: "main_weather", Enabled: true, X: 0, Y: 0, Width: 400, Height: 300},
			{Name: "barometer_module", Enabled: true, X: 400, Y: 0, Width: 400, Height: 300},
			{Name: "tomorrow_forecast", Enabled: true, X: 0, Y: 300, Width: 400, Height: 180},
			{Name: "clock_module", Enabled: true, X: 400, Y: 300, Width: 400, Height: 180},
			{Name: "precipitation_module", X: 0, Y: 300, Width: 400, Height: 180},
			{Name: "wind_module", X: 0, Y: 300, Width: 400, Height: 180},
		},
	}
	c.Normalize()
	return c
}

func testResolver(t testing.TB, c *Config) *Resolver {
	log := log2.NewTest(t, log2.LError)
	return NewResolver(log, c, trigger.NewEvaluator(log))
}

func TestResolveResting(t *testing.T) {
	t.Parallel()
	r := testResolver(t, testConfig())
	st := r.Resolve(&trigger.Snapshot{}, time.Now())
	assert.Equal(t, "normal", st.ActiveGroups["top"])
	assert.Equal(t, "normal", st.ActiveGroups["bottom"])
	assert.Equal(t, []string{"main_weather", "barometer_module", "tomorrow_forecast", "clock_module"}, st.Modules)
}

func TestResolveTriggerFires(t *testing.T) {
	t.Parallel()
	r := testResolver(t, testConfig())

	st := r.Resolve(&trigger.Snapshot{Precipitation: 0.3}, time.Now())
	assert.Equal(t, "precipitation_active", st.ActiveGroups["bottom"])
	assert.Contains(t, st.Modules, "precipitation_module")
	assert.NotContains(t, st.Modules, "tomorrow_forecast")

	st = r.Resolve(&trigger.Snapshot{Precipitation: 0.1}, time.Now())
	assert.Equal(t, "normal", st.ActiveGroups["bottom"])
	assert.NotContains(t, st.Modules, "precipitation_module")
}

// Forecast rain alone, with no precipitation falling yet, swaps the
// bottom section through an OR condition.
func TestResolveForecastOnlyRain(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.Triggers[0].Condition = "precipitation > 0 or forecast_precipitation_2h > 0.2"
	r := testResolver(t, c)

	st := r.Resolve(&trigger.Snapshot{Forecast2h: 0.3}, time.Now())
	assert.Equal(t, "precipitation_active", st.ActiveGroups["bottom"])
	assert.Equal(t, []string{"main_weather", "barometer_module", "precipitation_module", "clock_module"}, st.Modules)

	st = r.Resolve(&trigger.Snapshot{Forecast2h: 0.1}, time.Now())
	assert.Equal(t, "normal", st.ActiveGroups["bottom"])
	assert.NotContains(t, st.Modules, "precipitation_module")
}

func TestResolvePriority(t *testing.T) {
	t.Parallel()
	r := testResolver(t, testConfig())

	// both fire, rain_now has higher priority
	st := r.Resolve(&trigger.Snapshot{Precipitation: 0.5, WindSpeed: 15}, time.Now())
	assert.Equal(t, "precipitation_active", st.ActiveGroups["bottom"])

	st = r.Resolve(&trigger.Snapshot{WindSpeed: 15}, time.Now())
	assert.Equal(t, "wind_warning", st.ActiveGroups["bottom"])
}

func TestResolveTieDeclarationOrder(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.Triggers[0].Priority = 80 // same as strong_wind
	r := testResolver(t, c)
	st := r.Resolve(&trigger.Snapshot{Precipitation: 0.5, WindSpeed: 15}, time.Now())
	assert.Equal(t, "precipitation_active", st.ActiveGroups["bottom"], "declared first wins the tie")
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()
	r := testResolver(t, testConfig())
	snap := &trigger.Snapshot{Precipitation: 0.3, WindSpeed: 15}
	a := r.Resolve(snap, time.Now())
	b := r.Resolve(snap, time.Now().Add(time.Minute))
	assert.True(t, a.Equal(b))
}

func TestResolveBrokenTriggerIsolated(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.Triggers = append([]Trigger{{
		Name: "broken", Condition: "garbage ###", TargetSection: "bottom",
		ActivateGroup: "wind_warning", Priority: 200,
	}}, c.Triggers...)
	c.Normalize()
	r := testResolver(t, c)
	st := r.Resolve(&trigger.Snapshot{Precipitation: 0.5}, time.Now())
	assert.Equal(t, "precipitation_active", st.ActiveGroups["bottom"])
}

func TestNormalizeCommentedEntries(t *testing.T) {
	t.Parallel()
	c := testConfig()
	c.Triggers = append(c.Triggers, Trigger{
		Name: "_experimental", Condition: "temperature < -10",
		TargetSection: "bottom", ActivateGroup: "wind_warning", Priority: 300,
	})
	c.Sections = append(c.Sections, Section{Name: "_scratch", Groups: []Group{{Name: "x"}}})
	c.Normalize()
	for _, tr := range c.Triggers {
		assert.NotEqual(t, "_experimental", tr.Name)
	}
	for _, s := range c.Sections {
		assert.NotEqual(t, "_scratch", s.Name)
	}
}

func TestNormalizeDefaultPriority(t *testing.T) {
	t.Parallel()
	c := &Config{Triggers: []Trigger{{Name: "t", Condition: "is_daylight"}}}
	c.Normalize()
	assert.Equal(t, defaultPriority, c.Triggers[0].Priority)
}

func TestRestingGroupFirstDeclared(t *testing.T) {
	t.Parallel()
	c := &Config{
		Sections: []Section{{Name: "side", Groups: []Group{
			{Name: "compact", Modules: []string{"clock_module"}},
			{Name: "wide", Modules: []string{"status_module"}},
		}}},
	}
	c.Normalize()
	r := testResolver(t, c)
	st := r.Resolve(&trigger.Snapshot{}, time.Now())
	assert.Equal(t, "compact", st.ActiveGroups["side"], "no normal group, first declared is the resting state")
}

func TestLegacyFlatMode(t *testing.T) {
	t.Parallel()
	c := &Config{
		Modules: []ModulePlacement{
			{Name: "main_weather", Enabled: true},
			{Name: "clock_module", Enabled: false},
			{Name: "status_module", Enabled: true},
		},
	}
	c.Normalize()
	r := testResolver(t, c)
	st := r.Resolve(&trigger.Snapshot{}, time.Now())
	assert.Equal(t, []string{"main_weather", "status_module"}, st.Modules)
	assert.Empty(t, st.ActiveGroups)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	c := testConfig()
	require.NoError(t, c.Validate())

	c.Triggers = append(c.Triggers, Trigger{
		Name: "bad", Condition: "is_daylight", TargetSection: "nowhere", ActivateGroup: "x",
	})
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section")
}

func TestStateEqualAndDiff(t *testing.T) {
	t.Parallel()
	a := &State{ActiveGroups: map[string]string{"bottom": "normal"}, Modules: []string{"x"}}
	b := &State{ActiveGroups: map[string]string{"bottom": "normal"}, Modules: []string{"x"}}
	assert.True(t, a.Equal(b))
	assert.Equal(t, "", b.Diff(a))

	b.ActiveGroups["bottom"] = "precipitation_active"
	assert.False(t, a.Equal(b))
	assert.Equal(t, "bottom:normal>precipitation_active", b.Diff(a))
	assert.Equal(t, "initial", b.Diff(nil))
}
