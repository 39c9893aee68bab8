package pipeline

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
)

func TestConvertRGB24ToRGB565RoundTrip(t *testing.T) {
	c := qt.New(t)
	src := []byte{
		10, 20, 30, 200, 150, 100,
		0, 0, 0, 255, 255, 255,
	}
	fd := format.Format{FourCC: format.RGB24, Width: 2, Height: 2}
	img := FromBuf(src, fd, hostport.NewDefault())
	c.Assert(img.Add(KindConvert, []int{int(format.RGB565)}), qt.IsNil)
	var got []byte
	c.Assert(img.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img.SetSink(sinkFunc(func(p []byte) error {
		got = append(got, p...)
		return nil
	})), qt.IsNil)
	c.Assert(img.Process(src, len(src)), qt.IsNil)
	c.Assert(len(got), qt.Equals, 2*format.Pitch(format.Format{FourCC: format.RGB565, Width: 2}))

	// Converting back should be within RGB565's quantization tolerance
	// (5/6/5 bits per channel loses up to ~13 levels per channel).
	fd2 := format.Format{FourCC: format.RGB565, Width: 2, Height: 2}
	img2 := FromBuf(got, fd2, hostport.NewDefault())
	c.Assert(img2.Add(KindConvert, []int{int(format.RGB24)}), qt.IsNil)
	var back []byte
	c.Assert(img2.Add(KindCallback, nil), qt.IsNil)
	c.Assert(img2.SetSink(sinkFunc(func(p []byte) error {
		back = append(back, p...)
		return nil
	})), qt.IsNil)
	c.Assert(img2.Process(got, len(got)), qt.IsNil)

	for i := range src {
		diff := int(src[i]) - int(back[i])
		if diff < 0 {
			diff = -diff
		}
		c.Assert(diff <= 13, qt.IsTrue)
	}
}

func TestConvertRejectsBayerInput(t *testing.T) {
	c := qt.New(t)
	fd := format.Format{FourCC: format.RGGB, Width: 2, Height: 2}
	img := FromBuf(make([]byte, 4), fd, hostport.NewDefault())
	err := img.Add(KindConvert, []int{int(format.RGB24)})
	c.Assert(err, qt.ErrorIs, ErrUnsupported)
}

// sinkFunc adapts a plain function to the Sink interface for tests.
type sinkFunc func(p []byte) error

func (f sinkFunc) Write(p []byte) error { return f(p) }
