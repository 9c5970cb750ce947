// Package render paints weather modules onto the panel surface. A
// factory hands out cached renderer instances per module id, with an
// adapter for legacy callback style draw functions and a failing
// fallback for unknown modules.
package render

import (
	"time"

	"github.com/juju/errors"

	"epaperd/internal/draw"
	"epaperd/internal/trigger"
	"epaperd/internal/weather"
	"epaperd/log2"
)

// Frame carries everything a renderer may show for one iteration.
type Frame struct {
	Weather  *weather.Payload
	Snapshot *trigger.Snapshot
	Now      time.Time
}

// Renderer draws one module into its box. The box is the module's
// full placement including the frame border.
type Renderer interface {
	Render(s draw.Surface, box draw.Rect, fr *Frame) error
}

// Func is the legacy callback form, kept for modules that have not
// been promoted to dedicated renderers.
type Func func(s draw.Surface, box draw.Rect, fr *Frame) error

type funcRenderer struct {
	name string
	fn   Func
}

func (self *funcRenderer) Render(s draw.Surface, box draw.Rect, fr *Frame) error {
	return self.fn(s, box, fr)
}

// failRenderer draws nothing and reports the missing module, so the
// executor paints its placeholder instead of leaving a stale area.
type failRenderer struct{ name string }

func (self *failRenderer) Render(draw.Surface, draw.Rect, *Frame) error {
	return errors.NotFoundf("renderer %s", self.name)
}

type builder func(*Factory) Renderer

// dedicated renderer constructors by module id
var registry = map[string]builder{
	"precipitation_module": func(f *Factory) Renderer { return &precipitationRenderer{fonts: f.Fonts} },
	"wind_module":          func(f *Factory) Renderer { return &windRenderer{fonts: f.Fonts} },
}

// Factory caches renderer instances per module id. Renderers are
// stateless apart from fonts, caching avoids rebuilding them every
// iteration.
type Factory struct {
	Log   *log2.Log
	Fonts *draw.FontSet
	cache map[string]Renderer
}

func NewFactory(log *log2.Log, fonts *draw.FontSet) *Factory {
	return &Factory{
		Log:   log,
		Fonts: fonts,
		cache: make(map[string]Renderer),
	}
}

// Renderer resolves a module id. Dedicated renderers win, then the
// legacy callback, then the failing fallback. All three variants are
// cached under the module id.
func (self *Factory) Renderer(moduleID string, legacy Func) Renderer {
	if r, ok := self.cache[moduleID]; ok {
		return r
	}
	var r Renderer
	switch {
	case registry[moduleID] != nil:
		r = registry[moduleID](self)
	case legacy != nil:
		r = &funcRenderer{name: moduleID, fn: legacy}
		self.Log.Debug("module " + moduleID + ": legacy callback renderer")
	default:
		r = &failRenderer{name: moduleID}
		self.Log.Errorf("module %s: no renderer registered", moduleID)
	}
	self.cache[moduleID] = r
	return r
}

// ClearCache drops all cached instances. Called on daemon shutdown
// and after font reload.
func (self *Factory) ClearCache() {
	self.cache = make(map[string]Renderer)
}
