package pipeline

import (
	"math"

	"tinygo.org/x/mpix/control"
	"tinygo.org/x/mpix/format"
)

func init() {
	Register(KindCorrectBlackLevel, addCorrectBlackLevel)
	Register(KindCorrectWhiteBalance, addCorrectWhiteBalance)
	Register(KindCorrectColorMatrix, addCorrectColorMatrix)
	Register(KindCorrectGamma, addCorrectGamma)
}

// correctBlackLevelStage subtracts a constant level from every sample,
// floored at zero. The level is a registered control so autoctrl.AutoBlackLevel
// can retune it between frames.
type correctBlackLevelStage struct {
	level int
}

func addCorrectBlackLevel(img *Image, params []int) error {
	if len(params) != 1 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	s := &correctBlackLevelStage{level: params[0]}
	img.ctrl.Register(control.BlackLevel, &s.level)
	img.appendOp(KindCorrectBlackLevel, s, inFmt, inFmt, 1)
	return nil
}

func (s *correctBlackLevelStage) run(c *opCtx) error {
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	for i, v := range line {
		x := int(v) - s.level
		if x < 0 {
			x = 0
		}
		dst[i] = byte(x)
	}
	return c.inputDone(1)
}

// correctWhiteBalanceStage scales red and blue channels by Q10 gain
// factors (1024 == 1.0x), driven by autoctrl.AutoWhiteBalance.
type correctWhiteBalanceStage struct {
	redQ10, blueQ10 int
}

func addCorrectWhiteBalance(img *Image, params []int) error {
	if len(params) != 2 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 {
		return ErrUnsupported
	}
	s := &correctWhiteBalanceStage{redQ10: params[0], blueQ10: params[1]}
	img.ctrl.Register(control.RedBalance, &s.redQ10)
	img.ctrl.Register(control.BlueBalance, &s.blueQ10)
	img.appendOp(KindCorrectWhiteBalance, s, inFmt, inFmt, 1)
	return nil
}

func (s *correctWhiteBalanceStage) run(c *opCtx) error {
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	for o := 0; o+2 < len(line); o += 3 {
		dst[o] = clampByte(int(line[o]) * s.redQ10 / 1024)
		dst[o+1] = line[o+1]
		dst[o+2] = clampByte(int(line[o+2]) * s.blueQ10 / 1024)
	}
	return c.inputDone(1)
}

// correctColorMatrixStage applies a 3x3 Q10 color transform matrix to
// every RGB24 pixel.
type correctColorMatrixStage struct {
	m [9]int32
}

func addCorrectColorMatrix(img *Image, params []int) error {
	if len(params) != 9 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	if inFmt.FourCC != format.RGB24 {
		return ErrUnsupported
	}
	s := &correctColorMatrixStage{}
	for i, p := range params {
		s.m[i] = int32(p)
	}
	img.ctrl.RegisterArray(control.ColorMatrix, s.m[:])
	img.appendOp(KindCorrectColorMatrix, s, inFmt, inFmt, 1)
	return nil
}

func (s *correctColorMatrixStage) run(c *opCtx) error {
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	for o := 0; o+2 < len(line); o += 3 {
		r, g, b := int(line[o]), int(line[o+1]), int(line[o+2])
		dst[o] = clampByte((int(s.m[0])*r + int(s.m[1])*g + int(s.m[2])*b) / 1024)
		dst[o+1] = clampByte((int(s.m[3])*r + int(s.m[4])*g + int(s.m[5])*b) / 1024)
		dst[o+2] = clampByte((int(s.m[6])*r + int(s.m[7])*g + int(s.m[8])*b) / 1024)
	}
	return c.inputDone(1)
}

// correctGammaStage applies a precomputed 256-entry lookup table,
// rebuilt from a gamma level whenever gammaLevel is mutated through the
// control table. Exponent is level/16, so level=16 is the identity
// (unity) exponent.
type correctGammaStage struct {
	gammaLevel int
	lut        [256]byte
	built      int // gammaLevel value the lut was last built for
}

func addCorrectGamma(img *Image, params []int) error {
	if len(params) != 1 {
		return ErrInvalidArgument
	}
	inFmt := img.lastOutputFormat()
	s := &correctGammaStage{gammaLevel: params[0]}
	img.ctrl.Register(control.Gamma, &s.gammaLevel)
	img.appendOp(KindCorrectGamma, s, inFmt, inFmt, 1)
	return nil
}

func (s *correctGammaStage) ensureLUT() {
	if s.built == s.gammaLevel && s.built != 0 {
		return
	}
	gamma := float64(s.gammaLevel) / 16.0
	if gamma <= 0 {
		gamma = 1
	}
	for i := 0; i < 256; i++ {
		v := float64(i) / 255.0
		out := math.Pow(v, gamma) * 255.0
		s.lut[i] = clampByte(int(out + 0.5))
	}
	s.built = s.gammaLevel
}

func (s *correctGammaStage) run(c *opCtx) error {
	s.ensureLUT()
	line, err := c.inputLines(1)
	if err != nil {
		return err
	}
	dst, err := c.outputLine()
	if err != nil {
		return err
	}
	for i, v := range line {
		dst[i] = s.lut[v]
	}
	return c.inputDone(1)
}
