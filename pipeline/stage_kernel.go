package pipeline

import "tinygo.org/x/mpix/format"

func init() {
	Register(KindKernelConvolve3x3, addKernel3x3)
	Register(KindKernelConvolve5x5, addKernel5x5)
}

// Named 3x3 kernel weights. The stage divides the weighted sum by a
// divisor passed alongside the weights (KernelIdentity3x3 with divisor 8
// reproduces the source pixel).
var (
	KernelIdentity3x3   = [9]int{0, 0, 0, 0, 8, 0, 0, 0, 0}
	KernelEdgeDetect3x3 = [9]int{-1, -1, -1, -1, 8, -1, -1, -1, -1}
	KernelBlur3x3       = [9]int{1, 1, 1, 1, 1, 1, 1, 1, 1}
	KernelSharpen3x3    = [9]int{0, -1, 0, -1, 40, -1, 0, -1, 0}
)

// kernelStage applies an NxN convolution kernel (N odd) to each RGB24 or
// GREY pixel independently per channel. shift is the divisor applied
// after the weighted sum (shift==8 for the identity/edge kernels so the
// center weight of 8 reproduces the source pixel unchanged).
type kernelStage struct {
	win    windowState
	n      int
	kernel []int
	shift  int
}

func addKernel3x3(img *Image, params []int) error {
	return addKernelN(img, params, 3, KindKernelConvolve3x3)
}

func addKernel5x5(img *Image, params []int) error {
	return addKernelN(img, params, 5, KindKernelConvolve5x5)
}

func addKernelN(img *Image, params []int, n int, kind Kind) error {
	if len(params) != n*n+1 {
		return ErrInvalidArgument
	}
	shift := params[len(params)-1]
	if shift == 0 {
		return ErrInvalidArgument
	}
	kernel := append([]int(nil), params[:n*n]...)
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 && inFmt.FourCC != format.GREY {
		return ErrUnsupported
	}
	img.appendOp(kind, &kernelStage{win: windowState{Lines: n}, n: n, kernel: kernel, shift: shift}, inFmt, inFmt, n)
	return nil
}

func (s *kernelStage) run(c *opCtx) error {
	height := c.op().inFmt.Height
	grey := c.op().inFmt.FourCC == format.GREY
	return s.win.tick(c, height, func(rows [][]byte, outRow int, dst []byte) error {
		return s.compute(rows, grey, dst)
	})
}

func (s *kernelStage) compute(rows [][]byte, grey bool, dst []byte) error {
	w := len(rows[0])
	pad := s.n / 2
	if grey {
		for x := 0; x < w; x++ {
			dst[x] = clampByte(s.convolveChannel(rows, x, w, pad, 0, 1))
		}
		return nil
	}
	w /= 3
	for x := 0; x < w; x++ {
		for ch := 0; ch < 3; ch++ {
			dst[x*3+ch] = clampByte(s.convolveChannel(rows, x, w, pad, ch, 3))
		}
	}
	return nil
}

func (s *kernelStage) convolveChannel(rows [][]byte, x, w, pad, ch, stride int) int {
	sum := 0
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
			sum += s.kernel[ky*s.n+kx] * int(row[sx*stride+ch])
		}
	}
	return sum / s.shift
}
