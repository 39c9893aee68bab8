package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/internal/jpegenc"
	"tinygo.org/x/mpix/ring"
)

func init() {
	Register(KindJPEGEncode, addJPEGEncode)
}

// byteBuf is a growable in-memory jpegenc.Sink: each stripe's entropy
// coded bytes are accumulated here, then pushed downstream in chunks of
// at most one downstream ring's size rather than one ring.Write per
// emitted byte — the
// encoder's bit-level writer and the pipeline's windowed ring otherwise
// don't compose cleanly (a mid-byte suspend would leave the Huffman bit
// buffer out of sync with what was actually committed downstream).
type byteBuf struct{ b []byte }

func (bb *byteBuf) Write(p []byte) (int, error) {
	bb.b = append(bb.b, p...)
	return len(p), nil
}

// jpegEncodeStage drives jpegenc.Encoder one MCU stripe at a time:
// window=8 (grayscale) or window=16 (4:2:0 chroma subsampled) rows of
// buffered RGB24 input become one row of MCUs, entropy coded and
// flushed downstream together.
type jpegEncodeStage struct {
	enc      *jpegenc.Encoder
	sink     byteBuf
	gray     bool
	began    bool
	ended    bool
	rowBuf   [][]byte // up to stripeHeight raw RGB24 rows, reused per stripe
	rowsHave int
	outRow   int // input rows consumed so far
}

func addJPEGEncode(img *Image, params []int) error {
	if len(params) != 2 {
		return ErrInvalidArgument
	}
	quality, gray := params[0], params[1] != 0
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: format.JPEG, Width: inFmt.Width, Height: inFmt.Height}
	stripe := 16
	if gray {
		stripe = 8
	}
	s := &jpegEncodeStage{gray: gray, rowBuf: make([][]byte, stripe)}
	s.enc = jpegenc.NewEncoder(&s.sink, inFmt.Width, inFmt.Height, quality, gray)
	img.appendOp(KindJPEGEncode, s, inFmt, outFmt, stripe)
	return nil
}

func (s *jpegEncodeStage) stripeHeight() int { return len(s.rowBuf) }

func (s *jpegEncodeStage) run(c *opCtx) error {
	op := c.op()
	height := op.inFmt.Height

	// Bytes left over from an earlier flush go downstream before more
	// input is encoded.
	if len(s.sink.b) > 0 {
		return s.flush(c)
	}

	if !s.began {
		if err := s.enc.EncodeBegin(op.inFmt.Width, height); err != nil {
			return err
		}
		s.began = true
		return s.flush(c)
	}

	if s.outRow >= height {
		if s.ended {
			return ring.ErrWouldBlock
		}
		if err := s.enc.EncodeEnd(); err != nil {
			return err
		}
		s.ended = true
		return s.flush(c)
	}

	stripeH := s.stripeHeight()
	want := stripeH
	if height-s.outRow < want {
		want = height - s.outRow
	}
	lines, err := c.inputLines(want)
	if err != nil {
		return err
	}
	pitch := format.Pitch(op.inFmt)
	for i := 0; i < stripeH; i++ {
		src := i
		if src >= want {
			src = want - 1
		}
		s.rowBuf[i] = lines[src*pitch : src*pitch+pitch]
	}

	mcuW := stripeH // square MCU: 8x8 gray, 16x16 color
	for x := 0; x < op.inFmt.Width; x += mcuW {
		mcu := s.buildMCU(x, op.inFmt.Width)
		if err := s.enc.AddMCU(&mcu); err != nil {
			return err
		}
	}
	s.outRow += want
	if err := c.inputDone(want); err != nil {
		return err
	}
	return s.flush(c)
}

func (s *jpegEncodeStage) buildMCU(x0, width int) jpegenc.MCU {
	var mcu jpegenc.MCU
	if s.gray {
		fillBlock((*[64]int32)(&mcu.Y[0]), s.rowBuf, x0, width, 0, 8)
		return mcu
	}
	var y, cb, cr [16][16]int32
	for j := 0; j < 16; j++ {
		row := s.rowBuf[j]
		for i := 0; i < 16; i++ {
			sx := clampIdx(x0+i, width)
			o := sx * 3
			yy, cbv, crv := rgbToYCbCr(row[o], row[o+1], row[o+2])
			y[j][i], cb[j][i], cr[j][i] = int32(yy)-128, int32(cbv)-128, int32(crv)-128
		}
	}
	for q := 0; q < 4; q++ {
		xo, yo := (q&1)*8, (q&2)*4
		for j := 0; j < 8; j++ {
			for i := 0; i < 8; i++ {
				mcu.Y[q][j*8+i] = y[yo+j][xo+i]
			}
		}
	}
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			mcu.Cb[j*8+i] = avgBlock2x2(cb, i, j)
			mcu.Cr[j*8+i] = avgBlock2x2(cr, i, j)
		}
	}
	return mcu
}

func avgBlock2x2(plane [16][16]int32, i, j int) int32 {
	y0, x0 := j*2, i*2
	return (plane[y0][x0] + plane[y0][x0+1] + plane[y0+1][x0] + plane[y0+1][x0+1]) / 4
}

func fillBlock(b *[64]int32, rowBuf [][]byte, x0, width, yOff, size int) {
	for j := 0; j < size; j++ {
		row := rowBuf[yOff+j]
		for i := 0; i < size; i++ {
			sx := clampIdx(x0+i, width)
			v := row[sx*3] // grayscale RGB24 has r==g==b; use red channel
			b[j*size+i] = int32(v) - 128
		}
	}
}

func rgbToYCbCr(r, g, b byte) (y, cb, cr byte) {
	ri, gi, bi := int(r), int(g), int(b)
	yy := (19595*ri + 38470*gi + 7471*bi + 1<<15) >> 16
	cbv := (-11059*ri - 21709*gi + 32768*bi + 257<<15) >> 16
	crv := (32768*ri - 27439*gi - 5329*bi + 257<<15) >> 16
	return clampByte(yy), clampByte(cbv), clampByte(crv)
}

func (s *jpegEncodeStage) flush(c *opCtx) error {
	n := len(s.sink.b)
	if n == 0 {
		return nil
	}
	if c.hasNext() && n > c.next().ring.Size() {
		n = c.next().ring.Size()
	}
	dst, err := c.outputBytes(n)
	if err != nil {
		return err
	}
	copy(dst, s.sink.b[:n])
	s.sink.b = s.sink.b[:copy(s.sink.b, s.sink.b[n:])]
	return nil
}
