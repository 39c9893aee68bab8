package pipeline

import "tinygo.org/x/mpix/format"

func init() {
	Register(KindDenoise3x3, addDenoise3x3)
	Register(KindDenoise5x5, addDenoise5x5)
}

// denoiseStage replaces each pixel with the per-channel median of its
// NxN neighborhood (edges clamped, not padded). The median is found by
// an in-place linear insertion sort of the small fixed-size sample
// window rather than a full sort call, matching the bounded, allocation
// free style the rest of this package's window stages use.
type denoiseStage struct {
	win windowState
	n   int
}

func addDenoise3x3(img *Image, params []int) error {
	return addDenoiseN(img, params, 3, KindDenoise3x3)
}

func addDenoise5x5(img *Image, params []int) error {
	return addDenoiseN(img, params, 5, KindDenoise5x5)
}

func addDenoiseN(img *Image, params []int, n int, kind Kind) error {
	if len(params) != 0 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 && inFmt.FourCC != format.GREY {
		return ErrUnsupported
	}
	img.appendOp(kind, &denoiseStage{win: windowState{Lines: n}, n: n}, inFmt, inFmt, n)
	return nil
}

func (s *denoiseStage) run(c *opCtx) error {
	height := c.op().inFmt.Height
	grey := c.op().inFmt.FourCC == format.GREY
	return s.win.tick(c, height, func(rows [][]byte, outRow int, dst []byte) error {
		return s.compute(rows, grey, dst)
	})
}

func (s *denoiseStage) compute(rows [][]byte, grey bool, dst []byte) error {
	pad := s.n / 2
	if grey {
		w := len(rows[0])
		var sample [25]byte
		for x := 0; x < w; x++ {
			dst[x] = s.median(rows, x, w, pad, 0, 1, sample[:0])
		}
		return nil
	}
	w := len(rows[0]) / 3
	var sample [25]byte
	for x := 0; x < w; x++ {
		for ch := 0; ch < 3; ch++ {
			dst[x*3+ch] = s.median(rows, x, w, pad, ch, 3, sample[:0])
		}
	}
	return nil
}

func (s *denoiseStage) median(rows [][]byte, x, w, pad, ch, stride int, scratch []byte) byte {
	for ky := 0; ky < s.n; ky++ {
		row := rows[ky]
		for kx := 0; kx < s.n; kx++ {
			sx := x + kx - pad
			if sx < 0 {
				sx = 0
			}
			if sx >= w {
				sx = w - 1
			}
			v := row[sx*stride+ch]
			// Linear insertion into the sorted scratch slice.
			i := len(scratch)
			scratch = append(scratch, v)
			for i > 0 && scratch[i-1] > v {
				scratch[i] = scratch[i-1]
				i--
			}
			scratch[i] = v
		}
	}
	return scratch[len(scratch)/2]
}
