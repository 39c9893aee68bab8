package pipeline

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/ring"
)

// Kind names a registered stage type. New kinds are added by calling
// Register from an init() in the stage's own file (the same "register
// yourself" convention the standard image package uses for codecs),
// which is the idiomatic Go stand-in for spec.md's "explicit enum +
// match" dispatch: one small, independently testable type per kind
// instead of one big switch statement or a preprocessor macro pass.
type Kind int

const (
	KindConvert Kind = iota
	KindDebayer1x1
	KindDebayer3x3
	KindCrop
	KindResize
	KindKernelConvolve3x3
	KindKernelConvolve5x5
	KindDenoise3x3
	KindDenoise5x5
	KindCorrectBlackLevel
	KindCorrectWhiteBalance
	KindCorrectColorMatrix
	KindCorrectGamma
	KindPaletteEncode
	KindPaletteDecode
	KindQOIEncode
	KindJPEGEncode
	KindCallback
)

var kindNames = map[Kind]string{
	KindConvert:             "convert",
	KindDebayer1x1:          "debayer_1x1",
	KindDebayer3x3:          "debayer_3x3",
	KindCrop:                "crop",
	KindResize:              "resize",
	KindKernelConvolve3x3:   "kernel_convolve_3x3",
	KindKernelConvolve5x5:   "kernel_convolve_5x5",
	KindDenoise3x3:          "kernel_denoise_3x3",
	KindDenoise5x5:          "kernel_denoise_5x5",
	KindCorrectBlackLevel:   "correct_black_level",
	KindCorrectWhiteBalance: "correct_white_balance",
	KindCorrectColorMatrix:  "correct_color_matrix",
	KindCorrectGamma:        "correct_gamma",
	KindPaletteEncode:       "palette_encode",
	KindPaletteDecode:       "palette_decode",
	KindQOIEncode:           "qoi_encode",
	KindJPEGEncode:          "jpeg_encode",
	KindCallback:            "callback",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// stage is the per-kind behavior an Op delegates to. run makes at most a
// bounded amount of progress (one output line or one small block) and
// must return ring.ErrWouldBlock, unmodified, if it cannot without
// mutating state — the suspension protocol spec.md's operation contract
// requires of every run_K.
type stage interface {
	run(c *opCtx) error
}

// Op is one stage in the pipeline chain: the shared base spec.md calls
// out (kind, formats, line offset, input ring, timing) plus whatever
// state its concrete stage needs.
type Op struct {
	kind  Kind
	impl  stage
	inFmt  format.Format // format of lines this op reads from its ring
	outFmt format.Format // format of lines this op writes downstream

	lineOffset int // input lines consumed so far this frame
	ring       *ring.Ring

	totalRunUS uint64 // cumulative time spent in run(), for diagnostics
}

func (op *Op) Kind() Kind               { return op.kind }
func (op *Op) InputFormat() format.Format  { return op.inFmt }
func (op *Op) OutputFormat() format.Format { return op.outFmt }
func (op *Op) LineOffset() int           { return op.lineOffset }

// TotalRunUS returns the cumulative microseconds this op's run has spent
// executing, accumulated by runLoop via the host port's uptime clock.
func (op *Op) TotalRunUS() uint64 { return op.totalRunUS }

// AddFunc validates params and appends a new Op (with its ring already
// allocated) to an Image's chain, setting img.fmt to the
// new stage's output format.
type AddFunc func(img *Image, params []int) error

var registry = map[Kind]AddFunc{}

// Register publishes the add_K function for kind. Called from each
// stage file's init().
func Register(kind Kind, fn AddFunc) {
	registry[kind] = fn
}
