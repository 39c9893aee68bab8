package jpegenc

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

type sliceSink struct{ b []byte }

func (s *sliceSink) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}

func TestNewEncoderMaxQualityClampsQuantTableToOne(t *testing.T) {
	c := qt.New(t)
	e := NewEncoder(&sliceSink{}, 8, 8, 100, true)
	for _, row := range e.quant {
		for _, v := range row {
			c.Assert(v, qt.Equals, byte(1))
		}
	}
}

func TestEncoderGrayStreamFramedBySOIAndEOI(t *testing.T) {
	c := qt.New(t)
	sink := &sliceSink{}
	e := NewEncoder(sink, 8, 8, 80, true)
	c.Assert(e.EncodeBegin(8, 8), qt.IsNil)

	var mcu MCU // flat mid-gray block: every sample already level-shifted to 0
	c.Assert(e.AddMCU(&mcu), qt.IsNil)
	c.Assert(e.EncodeEnd(), qt.IsNil)

	c.Assert(sink.b[0:2], qt.DeepEquals, []byte{0xff, 0xd8})
	c.Assert(sink.b[len(sink.b)-2:], qt.DeepEquals, []byte{0xff, 0xd9})
}

func TestFdctOfFlatBlockIsAllZero(t *testing.T) {
	c := qt.New(t)
	var b block // already level-shifted flat input: all zero
	fdct(&b)
	for _, v := range b {
		c.Assert(v, qt.Equals, int32(0))
	}
}
