// Package layout turns trigger conditions into the set of modules
// shown on the panel. Sections are screen areas, each section shows
// exactly one of its module groups, triggers switch groups.
package layout

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"epaperd/internal/trigger"
	"epaperd/log2"
)

// State is the resolved layout for one iteration. ActiveGroups maps
// section name to the winning group. EvaluatedAt is diagnostic only
// and excluded from comparison.
type State struct {
	ActiveGroups map[string]string
	Modules      []string
	EvaluatedAt  time.Time
}

// Equal compares resolved layouts, ignoring EvaluatedAt.
func (self *State) Equal(other *State) bool {
	if self == nil || other == nil {
		return self == other
	}
	if len(self.ActiveGroups) != len(other.ActiveGroups) {
		return false
	}
	for k, v := range self.ActiveGroups {
		if other.ActiveGroups[k] != v {
			return false
		}
	}
	if len(self.Modules) != len(other.Modules) {
		return false
	}
	for i := range self.Modules {
		if self.Modules[i] != other.Modules[i] {
			return false
		}
	}
	return true
}

// Diff describes group changes versus a previous state, for logging
// and the redraw reason.
func (self *State) Diff(prev *State) string {
	if prev == nil {
		return "initial"
	}
	parts := make([]string, 0, 2)
	names := make([]string, 0, len(self.ActiveGroups))
	for name := range self.ActiveGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if old, cur := prev.ActiveGroups[name], self.ActiveGroups[name]; old != cur {
			parts = append(parts, fmt.Sprintf("%s:%s>%s", name, old, cur))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}

func (self *State) String() string {
	if self == nil {
		return "layout=nil"
	}
	names := make([]string, 0, len(self.ActiveGroups))
	for name := range self.ActiveGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+self.ActiveGroups[name])
	}
	return strings.Join(parts, " ")
}

// Resolver evaluates all triggers against a snapshot and produces the
// layout state. Trigger evaluation is isolated: one broken condition
// only disables that trigger.
type Resolver struct {
	Log    *log2.Log
	config *Config
	eval   *trigger.Evaluator

	// sorted by priority descending, declaration order breaks ties
	ordered []int
}

func NewResolver(log *log2.Log, config *Config, eval *trigger.Evaluator) *Resolver {
	self := &Resolver{
		Log:    log,
		config: config,
		eval:   eval,
	}
	self.ordered = make([]int, len(config.Triggers))
	for i := range self.ordered {
		self.ordered[i] = i
	}
	sort.SliceStable(self.ordered, func(a, b int) bool {
		return config.Triggers[self.ordered[a]].Priority > config.Triggers[self.ordered[b]].Priority
	})
	return self
}

// Resolve computes the active group per section. The first firing
// trigger in priority order wins a section, later triggers only claim
// sections still at rest. No sections configured means legacy flat
// mode with the enabled module list.
func (self *Resolver) Resolve(snap *trigger.Snapshot, now time.Time) *State {
	st := &State{
		ActiveGroups: make(map[string]string, len(self.config.Sections)),
		EvaluatedAt:  now,
	}
	if self.config.FlatMode() {
		st.Modules = self.config.LegacyModules()
		return st
	}

	claimed := make(map[string]bool, len(self.config.Sections))
	for _, idx := range self.ordered {
		t := &self.config.Triggers[idx]
		if claimed[t.TargetSection] {
			continue
		}
		if !self.eval.Evaluate(t.Condition, snap) {
			continue
		}
		section := self.config.section(t.TargetSection)
		if section == nil || section.group(t.ActivateGroup) == nil {
			// Validate warned at startup, skip quietly here
			continue
		}
		st.ActiveGroups[t.TargetSection] = t.ActivateGroup
		claimed[t.TargetSection] = true
		self.Log.Debug("trigger " + t.Name + " fired: " + t.TargetSection + "=" + t.ActivateGroup)
	}

	for i := range self.config.Sections {
		section := &self.config.Sections[i]
		if claimed[section.Name] {
			continue
		}
		if g := section.restingGroup(); g != nil {
			st.ActiveGroups[section.Name] = g.Name
		}
	}

	// module list follows section declaration order
	for i := range self.config.Sections {
		section := &self.config.Sections[i]
		g := section.group(st.ActiveGroups[section.Name])
		if g == nil {
			continue
		}
		st.Modules = append(st.Modules, g.Modules...)
	}
	return st
}

// Placement exposes module boxes to the render stage.
func (self *Resolver) Placement(module string) (ModulePlacement, bool) {
	return self.config.Placement(module)
}
