package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

func TestCropKeepsInteriorRectangle(t *testing.T) {
	c := qt.New(t)
	src := []byte{
		0, 1, 2, 3,
		10, 11, 12, 13,
		20, 21, 22, 23,
		30, 31, 32, 33,
	}
	fd := format.Format{FourCC: format.GREY, Width: 4, Height: 4}
	img := FromBuf(src, fd, hostport.NewDefault())
	c.Assert(img.Add(KindCrop, []int{1, 1, 2, 2}), qt.IsNil)

	var lines [][]byte
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error {
		lines = append(lines, append([]byte(nil), p...))
		return nil
	})), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)

	c.Assert(len(lines), qt.Equals, 2)
	c.Assert(lines[0], qt.DeepEquals, []byte{11, 12})
	c.Assert(lines[1], qt.DeepEquals, []byte{21, 22})
}

func TestCropRejectsOutOfBoundsRectangle(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.GREY, Width: 4, Height: 4}
	img := FromBuf(make([]byte, 16), fd, hostport.NewDefault())
	c.Assert(img.Add(KindCrop, []int{3, 3, 2, 2}), qt.ErrorIs, ErrInvalidArgument)
}
