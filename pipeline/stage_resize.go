package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

func init() {
	Register(KindResize, addResize)
}

// resizeStage performs nearest-neighbor resampling, independently in
// each dimension: for every output row it skips forward to the nearest
// source row, then samples the nearest source column for every output
// column. No interpolation, no overshoot — the teacher's drivers favor
// small, predictable arithmetic over float-heavy filters on
// memory-constrained targets, and nearest-neighbor keeps this stage to
// one buffered line.
type resizeStage struct {
	outW, outH int
	outRow     int
}

func addResize(img *Image, params []int) error {
	if len(params) != 2 {
		return ErrInvalidArgument
	}
	outW, outH := params[0], params[1]
	inFmt := img.lastOutputFormat()
	if outW <= 0 || outH <= 0 || format.IsBayer(inFmt.FourCC) || format.PaletteBitDepth(inFmt.FourCC) != 0 {
		return ErrInvalidArgument
	}
	outFmt := format.Format{FourCC: inFmt.FourCC, Width: outW, Height: outH}
	img.appendOp(KindResize, &resizeStage{outW: outW, outH: outH}, inFmt, outFmt, 1)
	return nil
}

func (s *resizeStage) run(c *opCtx) error {
	op := c.op()
	if s.outRow >= s.outH {
		return ring.ErrWouldBlock
	}
	srcRow := s.outRow * op.inFmt.Height / s.outH
	// Skip (and discard) every source row strictly before srcRow; they
	// are never sampled by any remaining output row since srcRow only
	// increases as outRow increases.
	for op.lineOffset < srcRow {
		if _, err := c.inputLines(1); err != nil {
			return err
		}
		if err := c.inputDone(1); err != nil {
			return err
		}
	}
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	bpp := format.BitsPerPixel(op.inFmt.FourCC)
	bytesPerPixel := bpp / 8
	if bytesPerPixel == 0 {
		bytesPerPixel = 1
	}
	for ox := 0; ox < s.outW; ox++ {
		sx := ox * op.inFmt.Width / s.outW
		copy(dst[ox*bytesPerPixel:], line[sx*bytesPerPixel:sx*bytesPerPixel+bytesPerPixel])
	}
	s.outRow++
	// Only retire the sampled row once no future output row can still
	// need it (i.e. once outH's mapping has moved past srcRow).
	nextSrcRow := srcRow
	if s.outRow < s.outH {
		nextSrcRow = s.outRow * op.inFmt.Height / s.outH
	} else {
		nextSrcRow = op.inFmt.Height
	}
	if nextSrcRow > srcRow {
		return c.inputDone(1)
	}
	return nil
}
