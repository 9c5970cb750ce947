package epd

import (
	"sync"

	"github.com/juju/errors"
)

// Mock records panel calls for tests and --dry-run.
type Mock struct {
	Config Config

	mu         sync.Mutex
	Inited     bool
	Slept      bool
	Closed     bool
	Cleared    int
	Frames     [][]byte
	DisplayErr error
}

var _ Panel = (*Mock)(nil)

func NewMock(config Config) *Mock {
	config.Normalize()
	return &Mock{Config: config}
}

func (self *Mock) Init() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Inited = true
	self.Slept = false
	return nil
}

func (self *Mock) Display(frame []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.Inited {
		return errors.Errorf("display before init")
	}
	if want := self.Config.FrameLength(); len(frame) != want {
		return errors.Errorf("display: frame %d bytes, want %d", len(frame), want)
	}
	if self.DisplayErr != nil {
		return self.DisplayErr
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	self.Frames = append(self.Frames, cp)
	return nil
}

func (self *Mock) Clear() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Cleared++
	return nil
}

func (self *Mock) Sleep() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Slept = true
	return nil
}

func (self *Mock) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Closed = true
	return nil
}

// LastFrame returns the most recent displayed buffer, nil if none.
func (self *Mock) LastFrame() []byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(self.Frames) == 0 {
		return nil
	}
	return self.Frames[len(self.Frames)-1]
}
