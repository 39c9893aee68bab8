// Package hostport defines the host port: the small set of primitives a
// target must provide so the pipeline engine can allocate memory, tell
// time, and optionally drive a capture device's exposure control. It is
// the same seam the teacher uses for `machine` and `drivers.SPI`: the
// core never touches hardware directly, only this interface.
package hostport

import "time"

// Source identifies which pool a buffer was allocated from, so Free
// never frees a buffer the caller owns (e.g. the source image buffer
// handed to pipeline.FromBuf is always Source=User and is never freed by
// the engine).
type Source int

const (
	// User-supplied buffer; Free on this source is a no-op.
	User Source = iota
	// Engine-managed ring or scratch memory.
	Engine
)

// Port is the host port contract. A target provides one implementation;
// Default satisfies it using the Go runtime allocator and clock, which
// is the correct behavior for anything that isn't cross-compiled down to
// a microcontroller without an OS.
type Port interface {
	Alloc(size int, source Source) []byte
	Free(buf []byte, source Source)
	UptimeUS() uint32

	// InitExposure reports the device's default and maximum exposure
	// register values. Implementations with no controllable device
	// return ok=false.
	InitExposure(dev any) (def, max int, ok bool)
	// SetExposure writes a new exposure register value to the device.
	// Implementations with no controllable device are a no-op.
	SetExposure(dev any, value int)
}

// Default is the host port for any target with a normal Go runtime: a
// CLI tool, a test, or a Linux/RTOS board running full Go. Microcontroller
// targets built with TinyGo provide their own Port wired to their camera
// driver's exposure registers.
type Default struct {
	start time.Time
}

// NewDefault returns a host port whose clock is relative to the moment
// it is constructed, matching the "wrap tolerated" monotonic counter
// spec.md requires without depending on wall-clock time.
func NewDefault() *Default {
	return &Default{start: time.Now()}
}

func (d *Default) Alloc(size int, _ Source) []byte { return make([]byte, size) }

func (d *Default) Free(_ []byte, _ Source) {}

func (d *Default) UptimeUS() uint32 {
	return uint32(time.Since(d.start).Microseconds())
}

func (d *Default) InitExposure(_ any) (int, int, bool) { return 0, 0, false }

func (d *Default) SetExposure(_ any, _ int) {}
