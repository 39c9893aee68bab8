package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

func init() {
	Register(KindQOIEncode, addQOIEncode)
}

const (
	qoiOpIndex = 0x00 // 00xxxxxx
	qoiOpDiff  = 0x40 // 01xxxxxx
	qoiOpLuma  = 0x80 // 10xxxxxx
	qoiOpRun   = 0xc0 // 11xxxxxx
	qoiOpRGB   = 0xfe
)

// qoiCodecState is the mutable encoder state (previous pixel, 64-entry
// seen-color cache, pending run length) that persists across lines since
// a run can span a row boundary. It is kept separate from qoiEncodeStage
// so run can try an encode against a scratch copy and commit it only
// once the downstream write actually succeeds.
type qoiCodecState struct {
	prev      [3]byte
	cache     [64][3]byte
	cacheSeen [64]bool
	run       int
}

// qoiEncodeStage implements the QOI lossless image codec end to end:
// a 14-byte header, then one of RUN/INDEX/DIFF/LUMA/RGB per pixel in
// that priority order, and an 8-byte end marker once the last pixel has
// been encoded.
type qoiEncodeStage struct {
	headerDone  bool
	trailerDone bool
	state       qoiCodecState
	row         int
}

func addQOIEncode(img *Image, params []int) error {
	if len(params) != 0 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: format.QOI, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindQOIEncode, &qoiEncodeStage{}, inFmt, outFmt, 1)
	return nil
}

func (s *qoiEncodeStage) run(c *opCtx) error {
	op := c.op()
	if !s.headerDone {
		hdr := qoiHeader(op.inFmt.Width, op.inFmt.Height)
		dst, err := c.outputBytes(len(hdr))
		if err != nil {
			return err
		}
		copy(dst, hdr)
		s.headerDone = true
		return nil
	}
	if s.row >= op.inFmt.Height {
		if s.trailerDone {
			return ring.ErrWouldBlock
		}
		trial := s.state
		var buf [8]byte
		n := trial.flushRun(buf[:0])
		buf2 := append(buf[:n:n], 0, 0, 0, 0, 0, 0, 0, 1)
		dst, err := c.outputBytes(len(buf2))
		if err != nil {
			return err
		}
		copy(dst, buf2)
		s.state = trial
		s.trailerDone = true
		return nil
	}

	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	// Worst case per line: one raw-RGB byte sequence (4 bytes) per
	// pixel, plus a leftover run byte.
	trial := s.state
	scratch := make([]byte, 0, op.inFmt.Width*4+1)
	w := op.inFmt.Width
	for x := 0; x < w; x++ {
		px := [3]byte{line[x*3], line[x*3+1], line[x*3+2]}
		scratch = trial.encodePixel(scratch, px)
	}
	dst, err := c.outputBytes(len(scratch))
	if err != nil {
		return err
	}
	copy(dst, scratch)
	s.state = trial
	s.row++
	return c.inputDone(1)
}

func qoiHeader(w, h int) []byte {
	hdr := make([]byte, 14)
	copy(hdr, "qoif")
	hdr[4] = byte(w >> 24)
	hdr[5] = byte(w >> 16)
	hdr[6] = byte(w >> 8)
	hdr[7] = byte(w)
	hdr[8] = byte(h >> 24)
	hdr[9] = byte(h >> 16)
	hdr[10] = byte(h >> 8)
	hdr[11] = byte(h)
	hdr[12] = 3 // channels: RGB, no alpha
	hdr[13] = 0 // colorspace: sRGB with linear alpha
	return hdr
}

func qoiHash(px [3]byte) int {
	return (int(px[0])*3 + int(px[1])*5 + int(px[2])*7 + 255*11) % 64
}

func (s *qoiCodecState) flushRun(dst []byte) int {
	if s.run == 0 {
		return 0
	}
	dst = append(dst, byte(qoiOpRun|(s.run-1)))
	n := len(dst)
	s.run = 0
	return n
}

// encodePixel appends the encoding of one pixel to dst and returns the
// extended slice, trying RUN, INDEX, DIFF, LUMA, and finally RAW RGB in
// that priority order exactly as the QOI format requires.
func (s *qoiCodecState) encodePixel(dst []byte, px [3]byte) []byte {
	if px == s.prev {
		s.run++
		if s.run == 62 {
			dst = append(dst, byte(qoiOpRun|(s.run-1)))
			s.run = 0
		}
		return dst
	}
	if s.run > 0 {
		dst = append(dst, byte(qoiOpRun|(s.run-1)))
		s.run = 0
	}

	hash := qoiHash(px)
	if s.cacheSeen[hash] && s.cache[hash] == px {
		dst = append(dst, byte(qoiOpIndex|hash))
		s.prev = px
		return dst
	}
	s.cache[hash] = px
	s.cacheSeen[hash] = true

	dr := int(px[0]) - int(s.prev[0])
	dg := int(px[1]) - int(s.prev[1])
	db := int(px[2]) - int(s.prev[2])

	if dr >= -2 && dr <= 1 && dg >= -2 && dg <= 1 && db >= -2 && db <= 1 {
		dst = append(dst, byte(qoiOpDiff|(dr+2)<<4|(dg+2)<<2|(db+2)))
		s.prev = px
		return dst
	}

	drg := dr - dg
	dbg := db - dg
	if dg >= -32 && dg <= 31 && drg >= -8 && drg <= 7 && dbg >= -8 && dbg <= 7 {
		dst = append(dst, byte(qoiOpLuma|(dg+32)), byte((drg+8)<<4|(dbg+8)))
		s.prev = px
		return dst
	}

	dst = append(dst, qoiOpRGB, px[0], px[1], px[2])
	s.prev = px
	return dst
}
