package pipeline

import "tinygo.org/x/mpix/format"

func init() {
	Register(KindConvert, addConvert)
}

// convertStage re-encodes one pixel format into another, line by line,
// with no cross-line state: RGB24/YUV24/RGB565/RGB565X/RGB332/GREY/YUYV
// are all convertible between each other.
type convertStage struct{}

func addConvert(img *Image, params []int) error {
	if len(params) != 1 {
		return ErrInvalidArgument
	}
	outFourCC := format.FourCC(params[0])
	inFmt := img.lastOutputFormat()
	if format.IsBayer(inFmt.FourCC) || format.IsBayer(outFourCC) {
		return ErrUnsupported
	}
	if format.PaletteBitDepth(inFmt.FourCC) != 0 || format.PaletteBitDepth(outFourCC) != 0 {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: outFourCC, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindConvert, &convertStage{}, inFmt, outFmt, 1)
	return nil
}

func (s *convertStage) run(c *opCtx) error {
	op := c.op()
	pitch := format.Pitch(op.inFmt)
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	out, err := c.outputLine()
	if err != nil {
		return err
	}
	w := op.inFmt.Width
	for x := 0; x < w; x++ {
		rgb := decodePixel(line, x, op.inFmt.FourCC)
		encodePixel(out, x, op.outFmt.FourCC, rgb)
	}
	_ = pitch
	return c.inputDone(1)
}

// decodePixel reads the pixel at column x of one packed input line into
// an RGB24 triple.
func decodePixel(line []byte, x int, fourcc format.FourCC) [3]byte {
	switch fourcc {
	case format.RGB24:
		o := x * 3
		return [3]byte{line[o], line[o+1], line[o+2]}
	case format.YUV24:
		o := x * 3
		return yuv24ToRGB(line[o], line[o+1], line[o+2])
	case format.GREY:
		v := line[x]
		return [3]byte{v, v, v}
	case format.RGB332:
		b := line[x]
		return [3]byte{b & 0xe0, (b << 3) & 0xe0, (b << 6) & 0xc0}
	case format.RGB565:
		o := x * 2
		v := uint16(line[o+1])<<8 | uint16(line[o])
		return unpack565(v)
	case format.RGB565X:
		o := x * 2
		v := uint16(line[o])<<8 | uint16(line[o+1])
		return unpack565(v)
	case format.YUYV:
		xe := x &^ 1
		o := xe * 2
		y, u, v := line[o], line[o+1], line[o+3]
		if x != xe {
			y = line[o+2]
		}
		return yuv24ToRGB(y, u, v)
	default:
		return [3]byte{}
	}
}

func unpack565(v uint16) [3]byte {
	r5 := uint8(v>>11) & 0x1f
	g6 := uint8(v>>5) & 0x3f
	b5 := uint8(v) & 0x1f
	return [3]byte{r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2}
}

func yuv24ToRGB(y, u, v byte) [3]byte {
	c := int(y) - 16
	d := int(u) - 128
	e := int(v) - 128
	r := clampByte((298*c + 409*e + 128) >> 8)
	g := clampByte((298*c - 100*d - 208*e + 128) >> 8)
	b := clampByte((298*c + 516*d + 128) >> 8)
	return [3]byte{r, g, b}
}

func rgbToYUV24(r, g, b byte) [3]byte {
	ri, gi, bi := int(r), int(g), int(b)
	y := clampByte((66*ri + 129*gi + 25*bi + 128) >> 8 + 16)
	u := clampByte((-38*ri - 74*gi + 112*bi + 128) >> 8 + 128)
	v := clampByte((112*ri - 94*gi - 18*bi + 128) >> 8 + 128)
	return [3]byte{y, u, v}
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// encodePixel writes rgb into column x of one packed output line.
func encodePixel(line []byte, x int, fourcc format.FourCC, rgb [3]byte) {
	switch fourcc {
	case format.RGB24:
		o := x * 3
		line[o], line[o+1], line[o+2] = rgb[0], rgb[1], rgb[2]
	case format.YUV24:
		o := x * 3
		yuv := rgbToYUV24(rgb[0], rgb[1], rgb[2])
		line[o], line[o+1], line[o+2] = yuv[0], yuv[1], yuv[2]
	case format.GREY:
		line[x] = clampByte((int(rgb[0])*299 + int(rgb[1])*587 + int(rgb[2])*114) / 1000)
	case format.RGB332:
		line[x] = (rgb[0] & 0xe0) | (rgb[1]&0xe0)>>3 | (rgb[2]&0xc0)>>6
	case format.RGB565:
		o := x * 2
		v := pack565(rgb)
		line[o], line[o+1] = byte(v), byte(v>>8)
	case format.RGB565X:
		o := x * 2
		v := pack565(rgb)
		line[o], line[o+1] = byte(v>>8), byte(v)
	case format.YUYV:
		xe := x &^ 1
		o := xe * 2
		yuv := rgbToYUV24(rgb[0], rgb[1], rgb[2])
		if x == xe {
			line[o] = yuv[0]
		} else {
			line[o+2] = yuv[0]
		}
		line[o+1] = yuv[1]
		line[o+3] = yuv[2]
	}
}

func pack565(rgb [3]byte) uint16 {
	r5 := uint16(rgb[0]) >> 3
	g6 := uint16(rgb[1]) >> 2
	b5 := uint16(rgb[2]) >> 3
	return r5<<11 | g6<<5 | b5
}
