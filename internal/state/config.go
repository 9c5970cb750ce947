package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"epaperd/hardware/epd"
	"epaperd/helpers"
	"epaperd/internal/draw"
	"epaperd/internal/layout"
	"epaperd/internal/tele"
	"epaperd/internal/weather"
	"epaperd/log2"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Display epd.Config      `hcl:"display"`
	Fonts   draw.FontConfig `hcl:"fonts"`
	Layout  layout.Config   `hcl:"layout"`
	Weather weather.Config  `hcl:"weather"`
	Tele    tele.Config     `hcl:"tele"`

	Timing struct {
		UpdateIntervalSec int `hcl:"update_interval_sec"`
		WatchdogMin       int `hcl:"watchdog_min"`
	} `hcl:"timing"`

	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`

	User struct {
		Preference string `hcl:"preference"`
	} `hcl:"user"`

	Debug struct {
		LogLevel string `hcl:"log_level"`
		PNGDump  string `hcl:"png_dump"`
	} `hcl:"debug"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
			return
		}
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		c.normalize(log, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) normalize(log *log2.Log, errs *[]error) {
	c.Display.Normalize()
	c.Weather.Normalize()
	c.Layout.Normalize()
	if err := c.Layout.Validate(); err != nil {
		*errs = append(*errs, err)
	}
	if c.Timing.UpdateIntervalSec == 0 {
		c.Timing.UpdateIntervalSec = 60
	}
	if c.Timing.WatchdogMin == 0 {
		c.Timing.WatchdogMin = 30
	}
}
