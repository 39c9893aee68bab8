package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

// TestImageChainsDebayerAndResize runs a full multi-stage pipeline
// (debayer1x1 -> resize) through Image.Process and checks the output
// end to end, exercising runLoop's iterative scheduling across more
// than one stage boundary.
func TestImageChainsDebayerAndResize(t *testing.T) {
	c := qt.New(t)
	row0 := []byte{100, 50, 100, 50}
	row1 := []byte{50, 200, 50, 200}
	src := append(append(append([]byte{}, row0...), row1...), append(append([]byte{}, row0...), row1...)...)
	fd := format.Format{FourCC: format.RGGB, Width: 4, Height: 4}
	img := FromBuf(src, fd, hostport.NewDefault())
	c.Assert(img.Add(KindDebayer1x1, nil), qt.IsNil)
	c.Assert(img.Add(KindResize, []int{2, 2}), qt.IsNil)

	var lines [][]byte
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error {
		lines = append(lines, append([]byte(nil), p...))
		return nil
	})), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)

	c.Assert(len(lines), qt.Equals, 2)
	want := []byte{100, 50, 200, 100, 50, 200}
	c.Assert(lines[0], qt.DeepEquals, want)
	c.Assert(lines[1], qt.DeepEquals, want)
}

// steppingPort is a hostport.Port whose clock advances by a fixed
// amount on every read, so runLoop's per-op timing accumulation can be
// asserted deterministically.
type steppingPort struct {
	now uint32
}

func (p *steppingPort) Alloc(size int, _ hostport.Source) []byte { return make([]byte, size) }
func (p *steppingPort) Free(_ []byte, _ hostport.Source)         {}
func (p *steppingPort) UptimeUS() uint32 {
	p.now += 10
	return p.now
}
func (p *steppingPort) InitExposure(_ any) (int, int, bool) { return 0, 0, false }
func (p *steppingPort) SetExposure(_ any, _ int)            {}

func TestRunLoopAccumulatesPerOpTiming(t *testing.T) {
	c := qt.New(t)
	src := []byte{10, 20, 30, 40, 50, 60}
	fd := format.Format{FourCC: format.RGB24, Width: 2, Height: 1}
	img := FromBuf(src, fd, &steppingPort{})
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error { return nil })), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)

	ops := img.Ops()
	c.Assert(len(ops), qt.Equals, 1)
	c.Assert(ops[0].TotalRunUS() > 0, qt.IsTrue)
}

func TestImageAddRejectsUnknownKind(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.RGB24, Width: 2, Height: 2}
	img := FromBuf(make([]byte, 12), fd, hostport.NewDefault())
	err := img.Add(Kind(999), nil)
	c.Assert(err, qt.ErrorIs, ErrUnsupported)
}
