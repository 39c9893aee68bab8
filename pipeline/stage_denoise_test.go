package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

func TestDenoiseRemovesCenterImpulse(t *testing.T) {
	c := qt.New(t)
	src := []byte{
		10, 10, 10,
		10, 200, 10,
		10, 10, 10,
	}
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	lines := runKernel(c, src, fd, KindDenoise3x3, nil)

	c.Assert(len(lines), qt.Equals, 3)
	// The center pixel's full 3x3 neighborhood never touches a clamped
	// border, so its median over eight 10s and one 200 is exactly 10.
	c.Assert(lines[1][1], qt.Equals, byte(10))
}

func TestDenoiseRejectsParams(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	img := FromBuf(make([]byte, 9), fd, hostport.NewDefault())
	c.Assert(img.Add(KindDenoise3x3, []int{1}), qt.ErrorIs, ErrInvalidArgument)
}
