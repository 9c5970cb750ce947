package layout

import (
	"strings"

	"github.com/juju/errors"
)

// defaultPriority applies to triggers that do not set one.
const defaultPriority = 50

// DefaultGroup is preferred as a section's resting state when present.
const DefaultGroup = "normal"

// Config is the layout part of the HCL config tree. Declaration order
// of triggers is significant, it breaks priority ties.
type Config struct {
	Sections []Section         `hcl:"section"`
	Triggers []Trigger         `hcl:"trigger"`
	Modules  []ModulePlacement `hcl:"module"`
}

type Section struct {
	Name   string  `hcl:"name,key"`
	Groups []Group `hcl:"group"`
}

type Group struct {
	Name    string   `hcl:"name,key"`
	Modules []string `hcl:"modules"`
}

type Trigger struct {
	Name          string `hcl:"name,key"`
	Condition     string `hcl:"condition"`
	TargetSection string `hcl:"target_section"`
	ActivateGroup string `hcl:"activate_group"`
	Priority      int    `hcl:"priority"`
}

// ModulePlacement positions one module on the panel. Enabled is only
// consulted in legacy flat mode, group membership decides otherwise.
type ModulePlacement struct {
	Name    string `hcl:"name,key"`
	Enabled bool   `hcl:"enabled"`
	X       int    `hcl:"x"`
	Y       int    `hcl:"y"`
	Width   int    `hcl:"width"`
	Height  int    `hcl:"height"`
}

// commented reports config entries parked by prefixing their name
// with an underscore. They stay in the file but are ignored.
func commented(name string) bool { return strings.HasPrefix(name, "_") }

// Normalize strips commented entries and fills trigger defaults.
func (self *Config) Normalize() {
	sections := self.Sections[:0]
	for _, s := range self.Sections {
		if commented(s.Name) {
			continue
		}
		groups := make([]Group, 0, len(s.Groups))
		for _, g := range s.Groups {
			if commented(g.Name) {
				continue
			}
			groups = append(groups, g)
		}
		s.Groups = groups
		sections = append(sections, s)
	}
	self.Sections = sections

	triggers := self.Triggers[:0]
	for _, t := range self.Triggers {
		if commented(t.Name) {
			continue
		}
		if t.Priority == 0 {
			t.Priority = defaultPriority
		}
		triggers = append(triggers, t)
	}
	self.Triggers = triggers

	modules := self.Modules[:0]
	for _, m := range self.Modules {
		if commented(m.Name) {
			continue
		}
		modules = append(modules, m)
	}
	self.Modules = modules
}

// Validate checks cross references after Normalize.
func (self *Config) Validate() error {
	errs := make([]error, 0)
	for _, s := range self.Sections {
		if len(s.Groups) == 0 {
			errs = append(errs, errors.Errorf("section %s: no groups", s.Name))
		}
	}
	for _, t := range self.Triggers {
		s := self.section(t.TargetSection)
		if s == nil {
			errs = append(errs, errors.Errorf("trigger %s: unknown section %q", t.Name, t.TargetSection))
			continue
		}
		if s.group(t.ActivateGroup) == nil {
			errs = append(errs, errors.Errorf("trigger %s: section %s has no group %q",
				t.Name, t.TargetSection, t.ActivateGroup))
		}
	}
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return errors.Errorf("layout config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (self *Config) section(name string) *Section {
	for i := range self.Sections {
		if self.Sections[i].Name == name {
			return &self.Sections[i]
		}
	}
	return nil
}

func (self *Section) group(name string) *Group {
	for i := range self.Groups {
		if self.Groups[i].Name == name {
			return &self.Groups[i]
		}
	}
	return nil
}

// restingGroup is the group a section shows when no trigger fires:
// "normal" when declared, otherwise the first declared group.
func (self *Section) restingGroup() *Group {
	if g := self.group(DefaultGroup); g != nil {
		return g
	}
	if len(self.Groups) > 0 {
		return &self.Groups[0]
	}
	return nil
}

// Placement returns the panel box for a module.
func (self *Config) Placement(module string) (ModulePlacement, bool) {
	for _, m := range self.Modules {
		if m.Name == module {
			return m, true
		}
	}
	return ModulePlacement{}, false
}

// LegacyModules lists enabled flat-mode modules in declaration order.
// Used when no sections are configured.
func (self *Config) LegacyModules() []string {
	names := make([]string, 0, len(self.Modules))
	for _, m := range self.Modules {
		if m.Enabled {
			names = append(names, m.Name)
		}
	}
	return names
}

// FlatMode reports whether the config predates sections and groups.
func (self *Config) FlatMode() bool { return len(self.Sections) == 0 }
