package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"epaperd/hardware/epd"
	"epaperd/internal/tele"
	"epaperd/internal/weather"
	"epaperd/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Tele         tele.Teler

	panel         epd.Panel
	initPanelOnce sync.Once

	weather         weather.Provider
	initWeatherOnce sync.Once
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}
	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, ContextKey, g) //nolint:staticcheck
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	if g.Config.Persist.Root == "" {
		g.Config.Persist.Root = "./tmp-epaperd-db"
		g.Log.Errorf("config: persist.root=empty changed=%s", g.Config.Persist.Root)
	}
	g.Log.Debugf("config: persist.root=%s", g.Config.Persist.Root)

	// tele is the remote error reporting mechanism, init before the rest
	if g.Tele == nil {
		t, err := tele.New(g.Log, g.Config.Tele)
		if err != nil {
			return errors.Annotate(err, "tele init")
		}
		g.Tele = t
	}
	return nil
}

func (g *Global) Error(e error, args ...interface{}) {
	if e != nil {
		if len(args) > 0 {
			msg := args[0].(string)
			args = args[1:]
			e = errors.Annotatef(e, msg, args...)
		}
		g.Log.Errorf(errors.ErrorStack(e))
		if g.Tele != nil {
			g.Tele.Error(e)
		}
	}
}

// Panel lazy-inits the display, the mock when config says so.
func (g *Global) Panel() (epd.Panel, error) {
	var err error
	g.initPanelOnce.Do(func() {
		if g.Config.Display.Mock {
			g.Log.Info("display: mock panel")
			g.panel = epd.NewMock(g.Config.Display)
			return
		}
		g.panel, err = epd.NewWaveshare426(g.Log, g.Config.Display)
	})
	if err != nil {
		return nil, errors.Annotate(err, "panel init")
	}
	if g.panel == nil {
		return nil, errors.Errorf("panel init failed earlier")
	}
	return g.panel, nil
}

// SetPanel overrides the lazy init, for tests.
func (g *Global) SetPanel(p epd.Panel) {
	g.initPanelOnce.Do(func() {})
	g.panel = p
}

// Weather lazy-inits the merged weather provider.
func (g *Global) Weather() weather.Provider {
	g.initWeatherOnce.Do(func() {
		if g.weather == nil {
			g.weather = weather.NewClient(g.Log, &g.Config.Weather, g.Config.Persist.Root)
		}
	})
	return g.weather
}

// SetWeather overrides the lazy init, for tests.
func (g *Global) SetWeather(p weather.Provider) {
	g.initWeatherOnce.Do(func() {})
	g.weather = p
}

func (g *Global) Stop() {
	g.Alive.Stop()
}
