// Package daemon runs the panel update loop: poll weather, resolve
// layout, decide redraw, render and push the frame. Everything runs
// on one goroutine, e-paper cannot show partial frames anyway.
package daemon

import (
	"context"
	"image/png"
	"os"
	"time"

	"github.com/juju/errors"

	"epaperd/hardware/epd"
	"epaperd/helpers"
	"epaperd/internal/draw"
	"epaperd/internal/layout"
	"epaperd/internal/render"
	"epaperd/internal/state"
	"epaperd/internal/tele"
	"epaperd/internal/trigger"
	"epaperd/internal/update"
	"epaperd/internal/weather"
	"epaperd/log2"
)

const fetchTimeout = 30 * time.Second

type Daemon struct {
	Log *log2.Log

	g        *state.Global
	provider weather.Provider
	resolver *layout.Resolver
	detector *update.Detector
	factory  *render.Factory
	executor *render.Executor
	canvas   *draw.Canvas
	panel    epd.Panel

	// accepted is the panel's last displayed state, nil before the
	// first frame. Owned by the loop goroutine, no locking.
	accepted *update.Accepted

	backoff helpers.Backoff
}

func New(ctx context.Context) (*Daemon, error) {
	g := state.GetGlobal(ctx)
	cfg := g.Config

	panel, err := g.Panel()
	if err != nil {
		return nil, errors.Trace(err)
	}

	fonts := draw.LoadFonts(g.Log, cfg.Fonts)
	factory := render.NewFactory(g.Log, fonts)
	eval := trigger.NewEvaluator(g.Log)
	resolver := layout.NewResolver(g.Log, &cfg.Layout, eval)

	detector := update.NewDetector(g.Log)
	detector.Watchdog = helpers.IntMinuteDefault(cfg.Timing.WatchdogMin, update.DefaultWatchdog)

	self := &Daemon{
		Log:      g.Log,
		g:        g,
		provider: g.Weather(),
		resolver: resolver,
		detector: detector,
		factory:  factory,
		canvas:   draw.NewCanvas(cfg.Display.Width, cfg.Display.Height),
		panel:    panel,
	}
	self.executor = &render.Executor{
		Log:       g.Log,
		Factory:   factory,
		Placement: resolver.Placement,
		Legacy:    render.LegacyCallbacks(fonts),
	}
	self.backoff = helpers.Backoff{
		Min: helpers.IntSecondDefault(cfg.Timing.UpdateIntervalSec, time.Minute),
		Max: 15 * time.Minute,
		K:   2,
	}
	return self, nil
}

// Run loops until Alive stops. Weather failures stretch the poll
// interval with backoff, the panel keeps its last frame meanwhile.
func (self *Daemon) Run(ctx context.Context) {
	a := self.g.Alive
	a.Add(1)
	defer a.Done()
	defer self.Cleanup()

	interval := helpers.IntSecondDefault(self.g.Config.Timing.UpdateIntervalSec, time.Minute)
	for a.IsRunning() {
		_, err := self.Iterate(ctx, time.Now())
		wait := interval
		if err != nil {
			self.backoff.Failure()
			if d := self.backoff.DelayBefore(); d > wait {
				wait = d
			}
			self.g.Error(err)
		} else {
			self.backoff.Reset()
		}

		select {
		case <-a.StopChan():
			return
		case <-time.After(wait):
		}
	}
}

// Iterate runs one poll/decide/render pass. The returned decision is
// what the detector said, the error covers fetch and display
// problems. Render errors of single modules are logged and reported
// but do not fail the iteration.
func (self *Daemon) Iterate(ctx context.Context, now time.Time) (update.Decision, error) {
	begin := time.Now()

	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	payload, err := self.provider.Fetch(fctx, now)
	cancel()
	if err != nil {
		return update.Decision{}, errors.Annotate(err, "weather")
	}

	snap := trigger.FromWeather(payload, now, self.g.Config.User.Preference)
	st := self.resolver.Resolve(snap, now)
	d := self.detector.Check(now, st, payload, self.accepted)

	report := &tele.Report{
		Time:        now.Unix(),
		Redraw:      d.Redraw,
		Reason:      d.Reason,
		Layout:      st.String(),
		Temperature: payload.Temperature,
		Pressure:    payload.Pressure,
	}

	var displayErr error
	if d.Redraw {
		fr := &render.Frame{Weather: payload, Snapshot: snap, Now: now}
		self.canvas.Clear()
		rendered, rerr := self.executor.Compose(self.canvas, st, fr)
		report.Rendered = rendered
		if rerr != nil {
			report.Error = rerr.Error()
			self.g.Error(errors.Annotate(rerr, "render"))
		}
		if displayErr = self.display(); displayErr == nil {
			self.accepted = &update.Accepted{
				Observable: update.Observe(payload, now),
				Layout:     st,
				RedrawnAt:  now,
			}
		}
	}

	report.DurationMS = int64(time.Since(begin) / time.Millisecond)
	self.g.Tele.Report(report)
	self.Log.Infof("iteration redraw=%t reason=%q layout=[%s] weather=[%s] dur=%dms",
		d.Redraw, d.Reason, st.String(), payload.String(), report.DurationMS)

	if displayErr != nil {
		return d, errors.Annotate(displayErr, "display")
	}
	return d, nil
}

func (self *Daemon) display() error {
	if err := self.panel.Init(); err != nil {
		return errors.Trace(err)
	}
	if err := self.panel.Display(self.canvas.Pack()); err != nil {
		return errors.Trace(err)
	}
	self.dumpPNG()
	// deep sleep between refreshes, the image persists unpowered
	return self.panel.Sleep()
}

// dumpPNG writes the composed frame to disk when debug.png_dump is
// set. Handy for layout work without hardware.
func (self *Daemon) dumpPNG() {
	path := self.g.Config.Debug.PNGDump
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		self.Log.Error(errors.Annotate(err, "png dump"))
		return
	}
	defer f.Close()
	if err = png.Encode(f, self.canvas.Image()); err != nil {
		self.Log.Error(errors.Annotate(err, "png dump"))
	}
}

// Cleanup releases renderer instances and puts the panel to sleep.
func (self *Daemon) Cleanup() {
	self.factory.ClearCache()
	if err := self.panel.Sleep(); err != nil {
		self.Log.Error(errors.Annotate(err, "panel sleep"))
	}
	if err := self.panel.Close(); err != nil {
		self.Log.Error(errors.Annotate(err, "panel close"))
	}
}
