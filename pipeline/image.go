package pipeline

import (
	"fmt"

	"tinygo.org/x/mpix/control"
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
	"tinygo.org/x/mpix/palette"
	"tinygo.org/x/mpix/ring"
	"tinygo.org/x/mpix/stats"
)

// Image owns a pipeline chain end to end: every Op and every Ring it
// allocates, plus the control registry later stages' parameters are
// tuned through. The source buffer is borrowed, never freed by Image.
type Image struct {
	ops []*Op

	srcBuf []byte
	fmt    format.Format // output format after the last added stage

	ctrl *control.Table
	port hostport.Port

	rng *stats.LCG
}

// FromBuf attaches a read-only source buffer describing an image of the
// given format. The buffer is borrowed: Image never frees it.
func FromBuf(buf []byte, fmtDesc format.Format, port hostport.Port) *Image {
	if port == nil {
		port = hostport.NewDefault()
	}
	return &Image{
		srcBuf: buf,
		fmt:    fmtDesc,
		ctrl:   control.NewTable(),
		port:   port,
		rng:    stats.NewLCG(1),
	}
}

// Format returns the current output format, i.e. what the next Add call
// will see as its input.
func (im *Image) Format() format.Format { return im.fmt }

// Controls returns the image's control registry.
func (im *Image) Controls() *control.Table { return im.ctrl }

// Port returns the image's host port.
func (im *Image) Port() hostport.Port { return im.port }

// Ops returns the image's stage chain, in order, for diagnostics
// (per-stage cumulative run time via Op.TotalRunUS).
func (im *Image) Ops() []*Op { return im.ops }

// Add validates and appends one stage of the given kind, exactly
// mirroring spec.md's pipeline_add/add_K contract.
func (im *Image) Add(kind Kind, params []int) error {
	fn, ok := registry[kind]
	if !ok {
		return fmt.Errorf("%s: %w", kind, ErrUnsupported)
	}
	if err := fn(im, params); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

// appendOp is the shared tail of every add_K: push a new Op, set the
// image's running output format, and allocate its ring (ringLines input
// lines, at least one).
func (im *Image) appendOp(kind Kind, impl stage, inFmt, outFmt format.Format, ringLines int) *Op {
	op := &Op{
		kind:   kind,
		impl:   impl,
		inFmt:  inFmt,
		outFmt: outFmt,
	}
	pitch := format.Pitch(inFmt)
	size := pitch * ringLines
	if size <= 0 {
		size = pitch
	}
	op.ring = ring.New(size)
	im.ops = append(im.ops, op)
	im.fmt = outFmt
	return op
}

// lastOutputFormat returns the format the next Add call will see as its
// input: the source format if no stage has been added yet, or the most
// recently added stage's output format.
func (im *Image) lastOutputFormat() format.Format { return im.fmt }

// Process binds buf as the first stage's pre-filled input, allocates a
// ring for any downstream op that has none (appendOp has already
// allocated each op's ring when it was added, so this is not normally
// needed), then drives the chain to a fixed point exactly
// as spec.md's pipeline_process/run_loop describe.
func (im *Image) Process(buf []byte, size int) error {
	if len(im.ops) == 0 {
		return nil
	}
	if size > len(buf) {
		size = len(buf)
	}
	first := im.ops[0]
	first.ring = ring.Wrap(buf[:size])
	for i := 1; i < len(im.ops); i++ {
		op := im.ops[i]
		if op.ring == nil || op.ring.Size() == 0 {
			pitch := format.Pitch(op.inFmt)
			op.ring = ring.New(pitch * 4)
		}
	}
	return im.runLoop()
}

// runLoop implements the redesigned (non-recursive) scheduler from
// spec.md's design notes §9: scan the chain front to back, running each
// stage until it yields, and repeat until a full pass makes no
// progress. This is behaviorally equivalent to the original's recursive
// output_done call chain but bounds stack depth to O(1) regardless of
// how many stages are chained.
func (im *Image) runLoop() error {
	for {
		progressed := false
		for i, op := range im.ops {
			for {
				start := im.port.UptimeUS()
				err := op.impl.run(&opCtx{im: im, idx: i})
				op.totalRunUS += uint64(im.port.UptimeUS() - start)
				if err == ring.ErrWouldBlock {
					break
				}
				if err != nil {
					return fmt.Errorf("%s: %w", op.kind, err)
				}
				progressed = true
			}
		}
		if !progressed {
			return nil
		}
	}
}

// CtrlValue writes value into the control slot registered under cid.
func (im *Image) CtrlValue(cid control.ID, value int) error {
	return im.ctrl.Set(cid, value)
}

// SetPalette installs palette on every palette_encode stage whose
// downstream format matches the palette's fourcc, and every
// palette_decode stage whose own format matches it.
func (im *Image) SetPalette(p *palette.Palette) error {
	found := false
	for i, op := range im.ops {
		switch op.kind {
		case KindPaletteEncode:
			if i+1 < len(im.ops) && im.ops[i+1].inFmt.FourCC == p.FourCC {
				op.impl.(*paletteEncodeStage).palette = p
				found = true
			} else if op.outFmt.FourCC == p.FourCC {
				op.impl.(*paletteEncodeStage).palette = p
				found = true
			}
		case KindPaletteDecode:
			if op.inFmt.FourCC == p.FourCC {
				op.impl.(*paletteDecodeStage).palette = p
				found = true
			}
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// PaletteFourCC scans for the first palette-related stage and returns
// its palette fourcc.
func (im *Image) PaletteFourCC() (format.FourCC, error) {
	for _, op := range im.ops {
		if op.kind == KindPaletteEncode {
			return op.outFmt.FourCC, nil
		}
		if op.kind == KindPaletteDecode {
			return op.inFmt.FourCC, nil
		}
	}
	return 0, ErrNotFound
}

// OptimizePalette runs one K-means refinement iteration (spec.md §4.H)
// against the image's source buffer, sampling numSamples pixels.
func (im *Image) OptimizePalette(p *palette.Palette, numSamples int) {
	palette.Optimize(p, im.rng, im.srcBuf, im.fmtAtSource(), numSamples)
}

func (im *Image) fmtAtSource() format.Format {
	if len(im.ops) == 0 {
		return im.fmt
	}
	return im.ops[0].inFmt
}
