package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

func grey3x3() []byte {
	return []byte{
		10, 20, 30,
		40, 50, 60,
		70, 80, 90,
	}
}

func runKernel(c *qt.C, src []byte, fd format.Format, kind Kind, params []int) [][]byte {
	img := FromBuf(src, fd, hostport.NewDefault())
	c.Assert(img.Add(kind, params), qt.IsNil)
	var lines [][]byte
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error {
		lines = append(lines, append([]byte(nil), p...))
		return nil
	})), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)
	return lines
}

func TestKernelIdentityReproducesInput(t *testing.T) {
	c := qt.New(t)
	src := grey3x3()
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	lines := runKernel(c, src, fd, KindKernelConvolve3x3, append(KernelIdentity3x3[:], 8))

	c.Assert(len(lines), qt.Equals, 3)
	c.Assert(lines[0], qt.DeepEquals, src[0:3])
	c.Assert(lines[1], qt.DeepEquals, src[3:6])
	c.Assert(lines[2], qt.DeepEquals, src[6:9])
}

func TestKernelBlurCenterPixel(t *testing.T) {
	c := qt.New(t)
	src := grey3x3()
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	lines := runKernel(c, src, fd, KindKernelConvolve3x3, append(KernelBlur3x3[:], 9))

	// Center pixel's 3x3 neighborhood never touches a clamped border
	// row/column, so its blurred value is the exact mean of all nine
	// source samples: (10+...+90)/9 == 50.
	c.Assert(len(lines), qt.Equals, 3)
	c.Assert(lines[1][1], qt.Equals, byte(50))
}

func TestKernelRejectsBadParamCount(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.GREY, Width: 3, Height: 3}
	img := FromBuf(make([]byte, 9), fd, hostport.NewDefault())
	c.Assert(img.Add(KindKernelConvolve3x3, []int{1, 2, 3}), qt.ErrorIs, ErrInvalidArgument)
}
