// Package preview adapts the teacher's three-color e-paper driver logic
// into a pipeline.Sink: a black/red/white framebuffer fed one decoded
// RGB24 line at a time, flushed to a Bus once full. Pin-level reset and
// busy-wait handshaking are kept but driven through a small interface
// instead of `machine.Pin`/`drivers.SPI`, so the same buffer-packing and
// command-sequence logic runs on any transport, not just SPI.
package preview

import (
	"errors"
	"time"
)

// Bus is the transport a Display writes command/data bytes over. A real
// implementation drives chip-select/DC pins around each Transfer the
// way the teacher's epd2in66b.Device does; a test or CLI implementation
// can just record bytes.
type Bus interface {
	Command(b byte) error
	Data(p []byte) error
	Reset()
	WaitIdle()
}

// ErrSizeMismatch is returned when a line's width doesn't match the
// display's configured width.
var ErrSizeMismatch = errors.New("preview: line width does not match display width")

// Display is a monochrome-plus-red e-paper-style framebuffer: each
// pixel is packed into one bit of a "black" plane (1=white, 0=black, as
// the hardware's RAM convention requires) and one bit of a "red" plane.
type Display struct {
	bus    Bus
	Width  int
	Height int

	blackBuffer []byte
	redBuffer   []byte
	row         int
}

// New allocates a Display of the given pixel dimensions, width*height
// must be a multiple of 8 (one buffer byte packs 8 columns).
func New(bus Bus, width, height int) (*Display, error) {
	if (width*height)%8 != 0 {
		return nil, ErrSizeMismatch
	}
	n := width * height / 8
	d := &Display{bus: bus, Width: width, Height: height, blackBuffer: make([]byte, n), redBuffer: make([]byte, n)}
	d.ClearBuffer()
	return d, nil
}

// ClearBuffer resets both planes to all-white.
func (d *Display) ClearBuffer() {
	for i := range d.blackBuffer {
		d.blackBuffer[i] = 0xff
	}
	for i := range d.redBuffer {
		d.redBuffer[i] = 0x00
	}
}

// WriteRGB24Line quantizes one RGB24 line (in pipeline byte order) to
// black/white/red and packs it into row y of the framebuffer. Quantization
// mirrors the teacher's SetPixel rule: pure white stays white, a pixel
// with a nonzero red and zero green and blue becomes red, everything
// else becomes black.
func (d *Display) WriteRGB24Line(y int, line []byte) error {
	if len(line) != d.Width*3 {
		return ErrSizeMismatch
	}
	if y < 0 || y >= d.Height {
		return nil
	}
	for x := 0; x < d.Width; x++ {
		r, g, b := line[x*3], line[x*3+1], line[x*3+2]
		bytePos, bitPos := pixelPos(x, y, d.Width)
		switch {
		case r == 0xff && g == 0xff && b == 0xff:
			setBit(d.blackBuffer, bytePos, bitPos, true)
			setBit(d.redBuffer, bytePos, bitPos, false)
		case r > 0 && g == 0 && b == 0:
			setBit(d.blackBuffer, bytePos, bitPos, true)
			setBit(d.redBuffer, bytePos, bitPos, true)
		default:
			setBit(d.blackBuffer, bytePos, bitPos, false)
			setBit(d.redBuffer, bytePos, bitPos, false)
		}
	}
	return nil
}

// Write implements pipeline.Sink for a palette_decode -> preview chain:
// each call is one RGB24 line, appended at the next row in order.
func (d *Display) Write(p []byte) error {
	if err := d.WriteRGB24Line(d.row, p); err != nil {
		return err
	}
	d.row++
	if d.row >= d.Height {
		d.row = 0
		return d.Flush()
	}
	return nil
}

func setBit(buf []byte, bytePos, bitPos int, v bool) {
	if v {
		buf[bytePos] |= 1 << bitPos
	} else {
		buf[bytePos] &^= 1 << bitPos
	}
}

func pixelPos(x, y, width int) (bytePos, bitPos int) {
	p := x + y*width
	return p / 8, 7 - p%8
}

// Flush pushes both planes to the bus and triggers a display refresh,
// exactly the two-RAM-write-plus-activate sequence the teacher's
// Display method uses.
func (d *Display) Flush() error {
	if err := d.bus.Command(0x24); err != nil {
		return err
	}
	if err := d.bus.Data(d.blackBuffer); err != nil {
		return err
	}
	if err := d.bus.Command(0x26); err != nil {
		return err
	}
	if err := d.bus.Data(d.redBuffer); err != nil {
		return err
	}
	if err := d.bus.Command(0x20); err != nil { // master activation
		return err
	}
	d.bus.WaitIdle()
	return nil
}

// Reset drives the panel's hardware reset sequence through the bus.
func (d *Display) Reset() {
	d.bus.Reset()
	d.bus.WaitIdle()
}

// NopBus is a Bus that performs no I/O and never blocks; useful for
// tests and for running a pipeline headless.
type NopBus struct {
	Commands []byte
	DataLen  int
}

func (b *NopBus) Command(c byte) error { b.Commands = append(b.Commands, c); return nil }
func (b *NopBus) Data(p []byte) error  { b.DataLen += len(p); return nil }
func (b *NopBus) Reset()               {}
func (b *NopBus) WaitIdle()            { time.Sleep(0) }
