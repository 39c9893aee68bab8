package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
)

// TestWindowStateClampsTopEdgeByRepetition exercises windowState.tick's
// edge handling indirectly through the blur kernel: the corner pixel's
// window reaches one row above the frame, which should be served by
// repeating row 0 rather than a zero-padded or wrapped row.
func TestWindowStateClampsTopEdgeByRepetition(t *testing.T) {
	c := qt.New(t)
	src := grey3x3()
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	lines := runKernel(c, src, fd, KindKernelConvolve3x3, append(KernelBlur3x3[:], 9))

	c.Assert(len(lines), qt.Equals, 3)
	// Row -1 repeats row 0, column -1 repeats column 0: the weighted
	// sum is (10,10,20)+(10,10,20)+(40,40,50) == 210, /9 == 23.
	c.Assert(lines[0][0], qt.Equals, byte(23))
}
