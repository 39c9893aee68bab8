package preview

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestNewRejectsNonByteAlignedSize(t *testing.T) {
	c := qt.New(t)
	_, err := New(&NopBus{}, 3, 1)
	c.Assert(err, qt.ErrorIs, ErrSizeMismatch)
}

func TestWriteRGB24LineClassifiesWhiteRedBlack(t *testing.T) {
	c := qt.New(t)
	d, err := New(&NopBus{}, 8, 1)
	c.Assert(err, qt.IsNil)

	line := []byte{
		255, 255, 255, // white
		200, 0, 0, // red-dominant
		0, 0, 0, // black
		255, 255, 255, // white
		150, 0, 0, // red-dominant
		10, 20, 30, // other -> black
		255, 255, 255, // white
		5, 5, 5, // other -> black
	}
	c.Assert(d.WriteRGB24Line(0, line), qt.IsNil)
	c.Assert(d.blackBuffer[0], qt.Equals, byte(218))
	c.Assert(d.redBuffer[0], qt.Equals, byte(72))
}

func TestWriteRGB24LineRejectsWrongWidth(t *testing.T) {
	c := qt.New(t)
	d, err := New(&NopBus{}, 8, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(d.WriteRGB24Line(0, make([]byte, 9)), qt.ErrorIs, ErrSizeMismatch)
}

func TestWriteAutoFlushesAtLastRow(t *testing.T) {
	c := qt.New(t)
	bus := &NopBus{}
	d, err := New(bus, 8, 2)
	c.Assert(err, qt.IsNil)

	line := make([]byte, 8*3)
	c.Assert(d.Write(line), qt.IsNil)
	c.Assert(bus.Commands, qt.HasLen, 0)
	c.Assert(d.Write(line), qt.IsNil)

	c.Assert(bus.Commands, qt.DeepEquals, []byte{0x24, 0x26, 0x20})
	c.Assert(bus.DataLen, qt.Equals, 4) // two 2-byte plane writes for an 8x2 display
	c.Assert(d.row, qt.Equals, 0)
}
