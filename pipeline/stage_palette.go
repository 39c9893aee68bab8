package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/palette"
)

func init() {
	Register(KindPaletteEncode, addPaletteEncode)
	Register(KindPaletteDecode, addPaletteDecode)
}

// paletteEncodeStage maps each RGB24 input pixel to its nearest palette
// entry and packs the resulting indices at the palette's bit depth. The
// palette itself is supplied later through Image.SetPalette; until then
// every pixel maps to index 0.
type paletteEncodeStage struct {
	palette *palette.Palette
	outFmt  format.FourCC
}

func addPaletteEncode(img *Image, params []int) error {
	if len(params) != 1 {
		return ErrInvalidArgument
	}
	outFourCC := format.FourCC(params[0])
	if format.PaletteBitDepth(outFourCC) == 0 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: outFourCC, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindPaletteEncode, &paletteEncodeStage{outFmt: outFourCC}, inFmt, outFmt, 1)
	return nil
}

func (s *paletteEncodeStage) run(c *opCtx) error {
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	depth := format.PaletteBitDepth(s.outFmt)
	w := len(line) / 3
	for x := 0; x < w; x++ {
		idx := 0
		if s.palette != nil {
			rgb := [3]byte{line[x*3], line[x*3+1], line[x*3+2]}
			idx = s.palette.NearestIndex(rgb)
		}
		packIndex(dst, x, depth, idx)
	}
	return c.inputDone(1)
}

// bitShift returns the byte offset and bit shift for pixel x at the
// given bit depth, packing the first pixel in a byte into its
// high-order bits (MSB-first) as the wire format requires.
func bitShift(x, depth int) (o, shift int) {
	n := 8 / depth
	o = x / n
	p := x % n
	shift = (n - 1 - p) * depth
	return o, shift
}

func packIndex(dst []byte, x, depth, idx int) {
	if depth == 8 {
		dst[x] = byte(idx)
		return
	}
	mask := (1 << depth) - 1
	o, shift := bitShift(x, depth)
	dst[o] = (dst[o] &^ (byte(mask) << shift)) | byte(idx&mask)<<shift
}

func unpackIndex(src []byte, x, depth int) int {
	if depth == 8 {
		return int(src[x])
	}
	mask := (1 << depth) - 1
	o, shift := bitShift(x, depth)
	return int(src[o]>>shift) & mask
}

// paletteDecodeStage is the inverse of paletteEncodeStage: it expands
// packed indices back into RGB24 using the palette's color table.
type paletteDecodeStage struct {
	palette *palette.Palette
}

func addPaletteDecode(img *Image, params []int) error {
	if len(params) != 0 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if format.PaletteBitDepth(inFmt.FourCC) == 0 {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: format.RGB24, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindPaletteDecode, &paletteDecodeStage{}, inFmt, outFmt, 1)
	return nil
}

func (s *paletteDecodeStage) run(c *opCtx) error {
	op := c.op()
	depth := format.PaletteBitDepth(op.inFmt.FourCC)
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	w := op.inFmt.Width
	for x := 0; x < w; x++ {
		idx := unpackIndex(line, x, depth)
		var rgb [3]byte
		if s.palette != nil && idx < s.palette.Size() {
			rgb = s.palette.Colors[idx]
		}
		dst[x*3], dst[x*3+1], dst[x*3+2] = rgb[0], rgb[1], rgb[2]
	}
	return c.inputDone(1)
}
