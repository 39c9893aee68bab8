package palette

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/stats"
)

func TestNearestIndex(t *testing.T) {
	c := qt.New(t)
	var p Palette
	p.FourCC = format.PALETTE2
	p.Colors[0] = [3]byte{0, 0, 0}
	p.Colors[1] = [3]byte{255, 255, 255}
	p.Colors[2] = [3]byte{255, 0, 0}
	p.Colors[3] = [3]byte{0, 255, 0}

	c.Assert(p.NearestIndex([3]byte{10, 10, 10}), qt.Equals, 0)
	c.Assert(p.NearestIndex([3]byte{250, 250, 250}), qt.Equals, 1)
	c.Assert(p.NearestIndex([3]byte{200, 20, 20}), qt.Equals, 2)
}

func TestOptimizeConvergesTowardsSolidColor(t *testing.T) {
	c := qt.New(t)
	var p Palette
	p.FourCC = format.PALETTE1
	p.Colors[0] = [3]byte{10, 10, 10}
	p.Colors[1] = [3]byte{200, 200, 200}

	fd := format.Format{FourCC: format.RGB24, Width: 4, Height: 4}
	buf := make([]byte, 4*4*3)
	for i := 0; i < len(buf); i += 3 {
		buf[i], buf[i+1], buf[i+2] = 100, 150, 200
	}

	g := stats.NewLCG(3)
	for iter := 0; iter < 4; iter++ {
		Optimize(&p, g, buf, fd, 64)
	}
	// Every sample is identical, so nearest-index routes all of them to
	// entry 1 (the closer one), which becomes the fill color; entry 0
	// receives no samples and is nudged up by 16 per iteration. Neither
	// entry ends at zero.
	c.Assert(int(p.Colors[0][0])+int(p.Colors[1][0]), qt.Not(qt.Equals), 0)
}

func TestOptimizeEmptyClusterWrapsRatherThanClamps(t *testing.T) {
	c := qt.New(t)
	var p Palette
	p.FourCC = format.PALETTE1
	p.Colors[0] = [3]byte{250, 250, 250}
	p.Colors[1] = [3]byte{0, 0, 0}

	fd := format.Format{FourCC: format.RGB24, Width: 1, Height: 1}
	buf := []byte{0, 0, 0} // every sample routes to index 1

	g := stats.NewLCG(9)
	Optimize(&p, g, buf, fd, 8)
	// index 0 got no samples: 250+16 wraps past 255 rather than clamping.
	c.Assert(p.Colors[0][0], qt.Equals, byte(10))
}
