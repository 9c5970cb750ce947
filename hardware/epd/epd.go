// Package epd drives the e-paper panel. The daemon talks to the
// Panel interface; the real implementation is the Waveshare 4.26"
// module on SPI, tests and dry runs use the mock.
package epd

// Panel is the display contract. Frame buffers are packed 1bpp, MSB
// first, bit set means white, row stride rounded up to whole bytes.
type Panel interface {
	// Init wakes the controller and runs the power-on sequence.
	Init() error
	// Display pushes a full frame and triggers a refresh. Blocks
	// until the panel reports ready.
	Display(frame []byte) error
	// Clear flashes the panel to white.
	Clear() error
	// Sleep puts the controller into deep sleep. E-paper keeps its
	// image unpowered, sleeping between refreshes avoids ghosting
	// and saves the panel.
	Sleep() error
	Close() error
}

type Config struct {
	Mock     bool   `hcl:"mock"`
	SPI      string `hcl:"spi"`
	GPIOChip string `hcl:"gpio_chip"`
	PinDC    uint32 `hcl:"pin_dc"`
	PinReset uint32 `hcl:"pin_reset"`
	PinBusy  uint32 `hcl:"pin_busy"`
	Width    int    `hcl:"width"`
	Height   int    `hcl:"height"`
}

// Defaults match the Waveshare e-paper HAT wiring on a Raspberry Pi.
func (self *Config) Normalize() {
	if self.SPI == "" {
		self.SPI = "SPI0.0"
	}
	if self.GPIOChip == "" {
		self.GPIOChip = "/dev/gpiochip0"
	}
	if self.PinDC == 0 {
		self.PinDC = 25
	}
	if self.PinReset == 0 {
		self.PinReset = 17
	}
	if self.PinBusy == 0 {
		self.PinBusy = 24
	}
	if self.Width == 0 {
		self.Width = 800
	}
	if self.Height == 0 {
		self.Height = 480
	}
}

// FrameLength is the expected Display buffer size for the configured
// resolution.
func (self *Config) FrameLength() int {
	return (self.Width + 7) / 8 * self.Height
}
