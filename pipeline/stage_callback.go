package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

func init() {
	Register(KindCallback, addCallback)
}

// Sink receives finished output, one already-produced chunk at a time
// (one line for uncompressed formats, one arbitrary-sized chunk for
// compressed streams). A Sink that returns an error aborts Process.
type Sink interface {
	Write(p []byte) error
}

// callbackStage is the pipeline's terminal sink: it has no downstream
// ring of its own, it just hands every input chunk to a caller-supplied
// Sink (a file writer, an MQTT publish, a preview display) and retires
// it immediately.
type callbackStage struct {
	sink Sink
}

func addCallback(img *Image, params []int) error {
	if len(params) != 0 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	img.appendOp(KindCallback, &callbackStage{}, inFmt, inFmt, 1)
	return nil
}

// SetSink attaches the Sink the last-added callback stage writes into.
// Call after Add(KindCallback, nil).
func (im *Image) SetSink(sink Sink) error {
	for i := len(im.ops) - 1; i >= 0; i-- {
		if im.ops[i].kind == KindCallback {
			im.ops[i].impl.(*callbackStage).sink = sink
			return nil
		}
	}
	return ErrNotFound
}

func (s *callbackStage) run(c *opCtx) error {
	op := c.op()
	pitch := format.Pitch(op.inFmt)
	if pitch <= 0 {
		pitch = 1
	}
	n := pitch
	if avail := op.ring.PeekSize(); avail < n {
		n = avail
	}
	if n == 0 {
		return ring.ErrWouldBlock
	}
	chunk, err := c.inputBytes(n)
	if err != nil {
		return err
	}
	if s.sink != nil {
		cp := append([]byte(nil), chunk...)
		if err := s.sink.Write(cp); err != nil {
			return err
		}
	}
	return c.inputDoneBytes(n)
}
