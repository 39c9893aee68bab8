package format

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPitch(t *testing.T) {
	c := qt.New(t)
	c.Assert(Pitch(Format{FourCC: RGB24, Width: 10}), qt.Equals, 30)
	c.Assert(Pitch(Format{FourCC: RGB565, Width: 10}), qt.Equals, 20)
	c.Assert(Pitch(Format{FourCC: PALETTE1, Width: 16}), qt.Equals, 2)
	c.Assert(Pitch(Format{FourCC: PALETTE4, Width: 16}), qt.Equals, 8)
}

func TestBayerLineDownAlternates(t *testing.T) {
	c := qt.New(t)
	c.Assert(LineDown(RGGB), qt.Equals, GBRG)
	c.Assert(LineDown(GBRG), qt.Equals, RGGB)
	c.Assert(LineDown(LineDown(RGGB)), qt.Equals, RGGB)
}

func TestPaletteBitDepth(t *testing.T) {
	c := qt.New(t)
	c.Assert(PaletteBitDepth(PALETTE1), qt.Equals, 1)
	c.Assert(PaletteBitDepth(PALETTE8), qt.Equals, 8)
	c.Assert(PaletteBitDepth(RGB24), qt.Equals, 0)
}

func TestSniff(t *testing.T) {
	c := qt.New(t)
	f, ok := Sniff([]byte("qoif\x00\x00\x00\x02"))
	c.Assert(ok, qt.IsTrue)
	c.Assert(f, qt.Equals, QOI)

	f, ok = Sniff([]byte{0xff, 0xd8, 0xff, 0xe0})
	c.Assert(ok, qt.IsTrue)
	c.Assert(f, qt.Equals, JPEG)

	_, ok = Sniff([]byte{0x01, 0x02})
	c.Assert(ok, qt.IsFalse)
}
