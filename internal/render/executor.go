package render

import (
	"fmt"

	"github.com/juju/errors"

	"epaperd/helpers"
	"epaperd/internal/draw"
	"epaperd/internal/layout"
	"epaperd/log2"
)

const moduleBorder = 2

// Executor walks the active module list and renders each into its
// configured box. A failing module gets a bounded placeholder, the
// rest of the frame is unaffected.
type Executor struct {
	Log       *log2.Log
	Factory   *Factory
	Placement func(module string) (layout.ModulePlacement, bool)
	Legacy    map[string]Func
}

// Compose renders all modules of the resolved layout. The returned
// error aggregates per-module failures, the frame is complete and
// displayable even when it is non-nil.
func (self *Executor) Compose(s draw.Surface, st *layout.State, fr *Frame) (rendered int, err error) {
	errs := make([]error, 0, 4)
	for _, moduleID := range st.Modules {
		place, ok := self.Placement(moduleID)
		if !ok {
			errs = append(errs, errors.Errorf("module %s: no placement", moduleID))
			continue
		}
		box := draw.Rect{X: place.X, Y: place.Y, W: place.Width, H: place.Height}
		if box.Empty() {
			errs = append(errs, errors.Errorf("module %s: empty placement", moduleID))
			continue
		}
		if rerr := self.renderOne(s, box, moduleID, fr); rerr != nil {
			errs = append(errs, errors.Annotate(rerr, moduleID))
			self.placeholder(s, box, moduleID)
			continue
		}
		rendered++
	}
	return rendered, helpers.FoldErrors(errs)
}

// renderOne isolates a single module render, converting panics into
// errors so one bad renderer cannot take the iteration down.
func (self *Executor) renderOne(s draw.Surface, box draw.Rect, moduleID string, fr *Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("render panic: %v", r)
		}
	}()
	r := self.Factory.Renderer(moduleID, self.Legacy[moduleID])
	s.DrawRect(box, moduleBorder)
	return r.Render(s, box.Inset(moduleBorder), fr)
}

// placeholder marks a failed module area: border, warning glyph and
// the module id, all clipped to the box.
func (self *Executor) placeholder(s draw.Surface, box draw.Rect, moduleID string) {
	s.FillRect(box, false)
	s.DrawRect(box, 1)
	inner := box.Inset(moduleBorder + 4)
	if inner.Empty() {
		return
	}
	face := self.Factory.Fonts.SmallMain
	s.DrawText(inner.X, inner.Y, "!", face)
	msg := draw.Truncate(s, fmt.Sprintf("fel: %s", moduleID), self.Factory.Fonts.Tiny, inner.W)
	s.DrawText(inner.X, inner.Y+inner.H/2, msg, self.Factory.Fonts.Tiny)
}
