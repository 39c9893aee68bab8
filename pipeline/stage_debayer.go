package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

func init() {
	Register(KindDebayer1x1, addDebayer1x1)
	Register(KindDebayer3x3, addDebayer3x3)
}

// debayer1x1Stage reconstructs RGB24 from a raw bayer stream using only
// the 2x2 tile a pixel belongs to (nearest-neighbor demosaic). Each
// even/odd row pair is read once, turned into one RGB row, and that row
// is emitted twice (once for each member of the tile) without needing
// to re-peek input.
type debayer1x1Stage struct {
	basePhase format.FourCC
	outRow    int
	haveTile  bool
	tileRow   []byte
}

func addDebayer1x1(img *Image, params []int) error {
	inFmt := img.lastOutputFormat()
	if !format.IsBayer(inFmt.FourCC) {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: format.RGB24, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindDebayer1x1, &debayer1x1Stage{basePhase: inFmt.FourCC}, inFmt, outFmt, 3)
	return nil
}

func (s *debayer1x1Stage) run(c *opCtx) error {
	height := c.op().inFmt.Height
	if s.outRow >= height {
		return ring.ErrWouldBlock
	}
	if s.haveTile {
		dst, err := c.outputLine()
		if err != nil {
			return err
		}
		copy(dst, s.tileRow)
		s.haveTile = false
		s.outRow++
		return nil
	}

	pitch := format.Pitch(c.op().inFmt)
	var top, bot []byte
	if s.outRow+1 < height {
		both, err := c.inputBytes(pitch * 2)
		if err != nil {
			return err
		}
		top, bot = both[:pitch], both[pitch:]
	} else {
		// Last unpaired row: reuse it as both members of the tile
		// (edge replication instead of a separate padding pass).
		one, err := c.inputBytes(pitch)
		if err != nil {
			return err
		}
		top, bot = one, one
	}

	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	phase := format.RowParityFourCC(s.basePhase, s.outRow)
	debayerTile(phase, top, bot, dst)

	if s.outRow+1 < height {
		s.tileRow = append(s.tileRow[:0], dst...)
		s.haveTile = true
		if err := c.inputDone(2); err != nil {
			return err
		}
	} else {
		if err := c.inputDone(1); err != nil {
			return err
		}
	}
	s.outRow++
	return nil
}

func debayerTile(phase format.FourCC, top, bot, dst []byte) {
	w := len(top)
	for bx := 0; bx+1 < w; bx += 2 {
		r, g, b := bayerQuad(phase, top[bx], top[bx+1], bot[bx], bot[bx+1])
		o := bx * 3
		dst[o], dst[o+1], dst[o+2] = r, g, b
		dst[o+3], dst[o+4], dst[o+5] = r, g, b
	}
}

func bayerQuad(phase format.FourCC, p00, p01, p10, p11 byte) (r, g, b byte) {
	switch phase {
	case format.RGGB:
		return p00, avgByte(p01, p10), p11
	case format.BGGR:
		return p11, avgByte(p01, p10), p00
	case format.GRBG:
		return p01, avgByte(p00, p11), p10
	case format.GBRG:
		return p10, avgByte(p00, p11), p01
	default:
		return 0, 0, 0
	}
}

func avgByte(a, b byte) byte { return byte((int(a) + int(b)) / 2) }

// debayer3x3Stage reconstructs RGB24 using a full 3x3 neighborhood per
// output pixel (bilinear demosaic), needing one line of context on
// each side of the current row.
type debayer3x3Stage struct {
	win      windowState
	basePhase format.FourCC
}

func addDebayer3x3(img *Image, params []int) error {
	inFmt := img.lastOutputFormat()
	if !format.IsBayer(inFmt.FourCC) {
		return ErrUnsupported
	}
	outFmt := format.Format{FourCC: format.RGB24, Width: inFmt.Width, Height: inFmt.Height}
	img.appendOp(KindDebayer3x3, &debayer3x3Stage{win: windowState{Lines: 3}, basePhase: inFmt.FourCC}, inFmt, outFmt, 4)
	return nil
}

func (s *debayer3x3Stage) run(c *opCtx) error {
	height := c.op().inFmt.Height
	return s.win.tick(c, height, func(rows [][]byte, outRow int, dst []byte) error {
		return s.compute(rows, outRow, dst)
	})
}

// bayerSample reports which channel the raw sample at column x of a row
// tagged with phase actually measures: a row only ever carries one of
// {R,G} or {G,B} (RGGB/GBRG pairing) or one of {G,R} or {B,G}
// (GRBG/BGGR pairing), alternating by column parity.
func bayerSample(phase format.FourCC, x int) byte {
	even := x%2 == 0
	switch phase {
	case format.RGGB:
		if even {
			return 'r'
		}
		return 'g'
	case format.GBRG:
		if even {
			return 'g'
		}
		return 'b'
	case format.GRBG:
		if even {
			return 'g'
		}
		return 'r'
	case format.BGGR:
		if even {
			return 'b'
		}
		return 'g'
	default:
		return 'g'
	}
}

func (s *debayer3x3Stage) compute(rows [][]byte, outRow int, dst []byte) error {
	prev, cur, next := rows[0], rows[1], rows[2]
	phase := format.RowParityFourCC(s.basePhase, outRow)
	w := len(cur)
	for x := 0; x < w; x++ {
		left, right := clampIdx(x-1, w), clampIdx(x+1, w)
		here := cur[x]
		var r, g, b byte
		switch bayerSample(phase, x) {
		case 'r':
			r = here
			g = avg4(cur[left], cur[right], prev[x], next[x])
			b = avg4(prev[left], prev[right], next[left], next[right])
		case 'b':
			b = here
			g = avg4(cur[left], cur[right], prev[x], next[x])
			r = avg4(prev[left], prev[right], next[left], next[right])
		default: // green sample: the row's other color is horizontal,
			// the one missing from this row entirely comes from the
			// rows above/below.
			g = here
			if phase == format.RGGB || phase == format.GRBG {
				r = avgByte(cur[left], cur[right])
				b = avgByte(prev[x], next[x])
			} else {
				b = avgByte(cur[left], cur[right])
				r = avgByte(prev[x], next[x])
			}
		}
		o := x * 3
		dst[o], dst[o+1], dst[o+2] = r, g, b
	}
	return nil
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func avg4(a, b, c, d byte) byte {
	return byte((int(a) + int(b) + int(c) + int(d)) / 4)
}
