package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

func TestJPEGEncodeGrayStreamFramedBySOIAndEOI(t *testing.T) {
	c := qt.New(t)
	src := make([]byte, 8*8*3)
	for i := range src {
		src[i] = byte(i % 256)
	}
	fd := format.Format{FourCC: format.RGB24, Width: 8, Height: 8}
	img := FromBuf(src, fd, hostport.NewDefault())
	c.Assert(img.Add(KindJPEGEncode, []int{80, 1}), qt.IsNil)

	var got []byte
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error {
		got = append(got, p...)
		return nil
	})), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)

	c.Assert(len(got) > 4, qt.IsTrue)
	c.Assert(got[0:2], qt.DeepEquals, []byte{0xff, 0xd8})
	c.Assert(got[len(got)-2:], qt.DeepEquals, []byte{0xff, 0xd9})
}

func TestJPEGEncodeRejectsNonRGB24Input(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.GREY, Width: 8, Height: 8}
	img := FromBuf(make([]byte, 64), fd, hostport.NewDefault())
	c.Assert(img.Add(KindJPEGEncode, []int{80, 0}), qt.ErrorIs, ErrUnsupported)
}
