package epd

import (
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"epaperd/log2"
)

// SSD1677 command subset used by the 4.26" module
const (
	cmdDriverOutput  = 0x01
	cmdDeepSleep     = 0x10
	cmdDataEntry     = 0x11
	cmdSWReset       = 0x12
	cmdTempSensor    = 0x18
	cmdActivate      = 0x20
	cmdUpdateControl = 0x22
	cmdWriteRAM      = 0x24
	cmdBorder        = 0x3C
	cmdRAMXRange     = 0x44
	cmdRAMYRange     = 0x45
	cmdRAMXCounter   = 0x4E
	cmdRAMYCounter   = 0x4F
)

const (
	busyTimeout = 15 * time.Second
	spiChunk    = 4096
)

// Waveshare426 is the 800x480 black/white module on the SPI HAT.
type Waveshare426 struct {
	Log    *log2.Log
	config Config

	spiPort  spi.PortCloser
	spiConn  spi.Conn
	chip     gpio.Chiper
	outLines gpio.Lineser
	setDC    gpio.LineSetFunc
	setReset gpio.LineSetFunc
	busy     gpio.Eventer
}

var _ Panel = (*Waveshare426)(nil)

func NewWaveshare426(log *log2.Log, config Config) (*Waveshare426, error) {
	config.Normalize()
	self := &Waveshare426{Log: log, config: config}

	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	spiPort, err := spireg.Open(config.SPI)
	if err != nil {
		return nil, errors.Annotatef(err, "SPI open %s", config.SPI)
	}
	spiConn, err := spiPort.Connect(4*physic.MegaHertz, spi.Mode(0), 8)
	if err != nil {
		spiPort.Close()
		return nil, errors.Annotate(err, "SPI connect")
	}
	self.spiPort = spiPort
	self.spiConn = spiConn

	chip, err := gpio.Open(config.GPIOChip, "epaperd")
	if err != nil {
		spiPort.Close()
		return nil, errors.Annotatef(err, "gpio open chip=%s", config.GPIOChip)
	}
	self.chip = chip

	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "epaperd",
		config.PinDC, config.PinReset)
	if err != nil {
		self.Close()
		return nil, errors.Annotate(err, "gpio output lines")
	}
	self.outLines = lines
	self.setDC = lines.SetFunc(config.PinDC)
	self.setReset = lines.SetFunc(config.PinReset)

	// busy line is high while the controller works, watch the
	// falling edge and read the level directly
	busy, err := chip.GetLineEvent(config.PinBusy, 0,
		gpio.GPIOEVENT_REQUEST_FALLING_EDGE, "epaperd")
	if err != nil {
		self.Close()
		return nil, errors.Annotate(err, "gpio busy line")
	}
	self.busy = busy
	return self, nil
}

func (self *Waveshare426) Init() error {
	if err := self.reset(); err != nil {
		return errors.Annotate(err, "reset")
	}
	if err := self.command(cmdSWReset); err != nil {
		return errors.Trace(err)
	}
	if err := self.waitIdle(); err != nil {
		return errors.Annotate(err, "swreset")
	}

	if err := self.command(cmdTempSensor, 0x80); err != nil {
		return errors.Trace(err)
	}

	// gate lines = height-1
	gates := uint16(self.config.Height - 1)
	if err := self.command(cmdDriverOutput, byte(gates), byte(gates>>8), 0x02); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdDataEntry, 0x01); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdBorder, 0x01); err != nil {
		return errors.Trace(err)
	}
	if err := self.setWindow(); err != nil {
		return errors.Trace(err)
	}
	return self.waitIdle()
}

func (self *Waveshare426) setWindow() error {
	xEnd := uint16(self.config.Width - 1)
	yEnd := uint16(self.config.Height - 1)
	if err := self.command(cmdRAMXRange, 0, 0, byte(xEnd), byte(xEnd>>8)); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdRAMYRange, 0, 0, byte(yEnd), byte(yEnd>>8)); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdRAMXCounter, 0, 0); err != nil {
		return errors.Trace(err)
	}
	return self.command(cmdRAMYCounter, 0, 0)
}

func (self *Waveshare426) Display(frame []byte) error {
	if want := self.config.FrameLength(); len(frame) != want {
		return errors.Errorf("display: frame %d bytes, want %d", len(frame), want)
	}
	if err := self.setWindow(); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdWriteRAM); err != nil {
		return errors.Trace(err)
	}
	if err := self.data(frame); err != nil {
		return errors.Trace(err)
	}
	return self.refresh()
}

func (self *Waveshare426) Clear() error {
	frame := make([]byte, self.config.FrameLength())
	for i := range frame {
		frame[i] = 0xff
	}
	return self.Display(frame)
}

func (self *Waveshare426) refresh() error {
	if err := self.command(cmdUpdateControl, 0xf7); err != nil {
		return errors.Trace(err)
	}
	if err := self.command(cmdActivate); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(self.waitIdle(), "refresh")
}

func (self *Waveshare426) Sleep() error {
	return self.command(cmdDeepSleep, 0x01)
}

func (self *Waveshare426) Close() error {
	if self.busy != nil {
		self.busy.Close()
	}
	if self.outLines != nil {
		self.outLines.Close()
	}
	if self.chip != nil {
		self.chip.Close()
	}
	if self.spiPort != nil {
		return self.spiPort.Close()
	}
	return nil
}

func (self *Waveshare426) reset() error {
	steps := []struct {
		level byte
		wait  time.Duration
	}{
		{1, 20 * time.Millisecond},
		{0, 2 * time.Millisecond},
		{1, 20 * time.Millisecond},
	}
	for _, st := range steps {
		self.setReset(st.level)
		if err := self.outLines.Flush(); err != nil {
			return errors.Trace(err)
		}
		time.Sleep(st.wait)
	}
	return nil
}

func (self *Waveshare426) command(cmd byte, args ...byte) error {
	self.setDC(0)
	if err := self.outLines.Flush(); err != nil {
		return errors.Trace(err)
	}
	if err := self.spiConn.Tx([]byte{cmd}, nil); err != nil {
		return errors.Annotatef(err, "command %02x", cmd)
	}
	if len(args) == 0 {
		return nil
	}
	return self.data(args)
}

func (self *Waveshare426) data(b []byte) error {
	self.setDC(1)
	if err := self.outLines.Flush(); err != nil {
		return errors.Trace(err)
	}
	for len(b) > 0 {
		n := len(b)
		if n > spiChunk {
			n = spiChunk
		}
		if err := self.spiConn.Tx(b[:n], nil); err != nil {
			return errors.Annotate(err, "data")
		}
		b = b[n:]
	}
	return nil
}

// waitIdle blocks until the busy line drops. The panel takes several
// seconds for a full refresh.
func (self *Waveshare426) waitIdle() error {
	deadline := time.Now().Add(busyTimeout)
	for {
		level, err := self.busy.Read()
		if err != nil {
			return errors.Annotate(err, "busy read")
		}
		if level == 0 {
			return nil
		}
		remain := time.Until(deadline)
		if remain <= 0 {
			return errors.Errorf("busy timeout after %s", busyTimeout)
		}
		if _, err = self.busy.Wait(remain); err != nil && !gpio.IsTimeout(err) {
			return errors.Annotate(err, "busy wait")
		}
	}
}
