package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

// opCtx is the handle a stage's run method uses to talk to its own
// input ring and to the next op's input ring, mirroring spec.md §4.D's
// run_K contract primitives (peek/read on input, write on output).
type opCtx struct {
	im  *Image
	idx int
}

func (c *opCtx) op() *Op { return c.im.ops[c.idx] }

// hasNext reports whether there is a downstream op to write into.
func (c *opCtx) hasNext() bool { return c.idx+1 < len(c.im.ops) }

func (c *opCtx) next() *Op { return c.im.ops[c.idx+1] }

// inputBytes peeks n bytes of this op's input, starting at the oldest
// unconsumed byte, without consuming them.
func (c *opCtx) inputBytes(n int) ([]byte, error) {
	r := c.op().ring
	r.ResetPeek()
	return r.Peek(n)
}

// inputLines peeks n whole lines (at this op's input pitch) without
// consuming them.
func (c *opCtx) inputLines(n int) ([]byte, error) {
	pitch := format.Pitch(c.op().inFmt)
	return c.inputBytes(pitch * n)
}

// inputDoneBytes consumes n bytes from this op's input, advancing
// lineOffset by the equivalent number of whole lines.
func (c *opCtx) inputDoneBytes(n int) error {
	op := c.op()
	if _, err := op.ring.Read(n); err != nil {
		return err
	}
	pitch := format.Pitch(op.inFmt)
	if pitch > 0 {
		op.lineOffset += n / pitch
	}
	return nil
}

// inputDone consumes n whole lines from this op's input.
func (c *opCtx) inputDone(n int) error {
	pitch := format.Pitch(c.op().inFmt)
	return c.inputDoneBytes(pitch * n)
}

// outputBytes reserves n bytes of room in the next op's input ring. If
// there is no downstream op, the bytes are discarded — this op is the
// chain's sink and nothing reads them back.
func (c *opCtx) outputBytes(n int) ([]byte, error) {
	if !c.hasNext() {
		return make([]byte, n), nil
	}
	return c.next().ring.Write(n)
}

// outputLine reserves one whole output line (at this op's output
// pitch) in the next op's input ring.
func (c *opCtx) outputLine() ([]byte, error) {
	pitch := format.Pitch(c.op().outFmt)
	return c.outputBytes(pitch)
}

// outputDone is a no-op placeholder for symmetry with inputDone: once
// outputLine's bytes are filled in by compute, the write is already
// committed (Write returns a live slice into the ring), so there is
// nothing further to flush.
func (c *opCtx) outputDone() {}

// windowState is the generic sliding-window tick helper shared by every
// stage whose output row depends on several input rows (3x3 debayer,
// convolution, denoise): each tick peeks a window of Lines
// input rows centered on the row being produced, clamping to the top
// and bottom edges by repeating the boundary row rather than running a
// separate padding pass, then retires whichever input rows no future
// window will need again.
type windowState struct {
	Lines  int // window height, always odd for symmetric kernels
	outRow int // next output row to produce, 0-based
}

// tick drives one step of the sliding window against an op whose source
// frame is height rows tall. compute is handed Lines row slices (each
// exactly one input line, edge rows repeated verbatim) and must fill
// dst, one output line in the op's output format. tick returns
// ring.ErrWouldBlock, unmodified, when the rows the current window
// needs have not all arrived yet.
func (w *windowState) tick(c *opCtx, height int, compute func(rows [][]byte, outRow int, dst []byte) error) error {
	if w.outRow >= height {
		return ring.ErrWouldBlock
	}
	pad := w.Lines / 2
	op := c.op()
	pitch := format.Pitch(op.inFmt)

	highest := w.outRow + pad
	if highest > height-1 {
		highest = height - 1
	}
	avail := op.ring.Used() / pitch
	lastAvailRow := op.lineOffset + avail - 1
	if lastAvailRow < highest {
		return ring.ErrWouldBlock
	}

	nLines := highest - op.lineOffset + 1
	buf, err := c.inputBytes(pitch * nLines)
	if err != nil {
		return err
	}

	first := w.outRow - pad
	rows := make([][]byte, w.Lines)
	for i := 0; i < w.Lines; i++ {
		src := first + i
		if src < 0 {
			src = 0
		}
		if src > height-1 {
			src = height - 1
		}
		rel := src - op.lineOffset
		if rel < 0 {
			rel = 0
		}
		if rel > nLines-1 {
			rel = nLines - 1
		}
		rows[i] = buf[rel*pitch : rel*pitch+pitch]
	}

	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	if err := compute(rows, w.outRow, dst); err != nil {
		return err
	}
	c.outputDone()

	// Retire every input row earlier than what the NEXT window will
	// reach back to; later windows never look further back than that.
	retireBefore := w.outRow + 1 - pad
	if retireBefore > op.lineOffset {
		n := retireBefore - op.lineOffset
		if n > avail {
			n = avail
		}
		if n > 0 {
			if err := c.inputDone(n); err != nil && err != ring.ErrWouldBlock {
				return err
			}
		}
	}
	w.outRow++
	return nil
}
