// Package stats implements the statistics sampler: pseudo-random pixel
// sampling with format-aware decode, building luma/RGB histograms and
// averages used by the auto-control algorithms and the palette
// optimizer.
package stats

import "tinygo.org/x/mpix/format"

const numBuckets = 64

// Stats accumulates sample statistics over a run of sampled pixels.
type Stats struct {
	YHistogram     [numBuckets]int
	YHistogramVals [numBuckets]int // mean luma of each bucket
	YHistogramTotal int
	RGBAverage      [3]float64
	RGBMin          [3]uint8
	RGBMax          [3]uint8
	NVals           int // requested sample count; 0 means "use the default"
}

const defaultSamples = 256

// LCG is the 32-bit linear congruential generator spec.md requires for
// pixel sampling: x <- x*1103515245 + 12345. Determinism across runs is
// not promised by spec.md, only within a single seeded generator.
type LCG struct {
	x uint32
}

// NewLCG returns a generator seeded with seed.
func NewLCG(seed uint32) *LCG { return &LCG{x: seed} }

// Next returns the next pseudo-random 32-bit value.
func (g *LCG) Next() uint32 {
	g.x = g.x*1103515245 + 12345
	return g.x
}

// Intn returns a pseudo-random integer in [0, n).
func (g *LCG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.Next() % uint32(n))
}

// SampleRandomRGB decodes one pseudo-random pixel from buf (laid out as
// fmt) into an RGB24 triple.
func SampleRandomRGB(g *LCG, buf []byte, fmtDesc format.Format) [3]byte {
	pitch := format.Pitch(fmtDesc)
	switch {
	case format.IsBayer(fmtDesc.FourCC):
		return sampleBayer(g, buf, fmtDesc, pitch)
	default:
		return samplePacked(g, buf, fmtDesc, pitch)
	}
}

func samplePacked(g *LCG, buf []byte, fmtDesc format.Format, pitch int) [3]byte {
	if fmtDesc.Height <= 0 || fmtDesc.Width <= 0 {
		return [3]byte{}
	}
	y := g.Intn(fmtDesc.Height)
	x := g.Intn(fmtDesc.Width)
	line := buf[y*pitch:]
	switch fmtDesc.FourCC {
	case format.RGB24, format.YUV24:
		o := x * 3
		if o+3 > len(line) {
			return [3]byte{}
		}
		return [3]byte{line[o], line[o+1], line[o+2]}
	case format.GREY:
		if x >= len(line) {
			return [3]byte{}
		}
		v := line[x]
		return [3]byte{v, v, v}
	case format.RGB332:
		if x >= len(line) {
			return [3]byte{}
		}
		b := line[x]
		r := b & 0xe0
		gg := (b << 3) & 0xe0
		bb := (b << 6) & 0xc0
		return [3]byte{r, gg, bb}
	case format.RGB565, format.RGB565X, format.YUYV:
		o := x * 2
		if o+2 > len(line) {
			return [3]byte{}
		}
		var v uint16
		if fmtDesc.FourCC == format.RGB565X {
			v = uint16(line[o])<<8 | uint16(line[o+1])
		} else if fmtDesc.FourCC == format.RGB565 {
			v = uint16(line[o+1])<<8 | uint16(line[o])
		} else {
			// YUYV: decode the nearest even-x Y/U/V/Y group.
			xe := x &^ 1
			oe := xe * 2
			if oe+4 > len(line) {
				return [3]byte{}
			}
			yy := line[oe]
			u := line[oe+1]
			vv := line[oe+3]
			if x != xe {
				yy = line[oe+2]
			}
			return yuvToRGB(yy, u, vv)
		}
		r5 := uint8(v>>11) & 0x1f
		g6 := uint8(v>>5) & 0x3f
		b5 := uint8(v) & 0x1f
		return [3]byte{r5 << 3, g6 << 2, b5 << 3}
	default:
		return [3]byte{}
	}
}

func yuvToRGB(y, u, v byte) [3]byte {
	c := int(y) - 16
	d := int(u) - 128
	e := int(v) - 128
	r := clamp8((298*c + 409*e + 128) >> 8)
	g := clamp8((298*c - 100*d - 208*e + 128) >> 8)
	b := clamp8((298*c + 516*d + 128) >> 8)
	return [3]byte{r, g, b}
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// sampleBayer picks a 2x2 aligned block and packs its four bayer cells
// into one RGB triple according to the sensor's phase.
func sampleBayer(g *LCG, buf []byte, fmtDesc format.Format, pitch int) [3]byte {
	if fmtDesc.Height < 2 || fmtDesc.Width < 2 {
		return [3]byte{}
	}
	by := g.Intn(fmtDesc.Height/2) * 2
	bx := g.Intn(fmtDesc.Width/2) * 2
	row0 := buf[by*pitch:]
	row1 := buf[(by+1)*pitch:]
	if bx+1 >= len(row0) || bx+1 >= len(row1) {
		return [3]byte{}
	}
	p00, p01 := row0[bx], row0[bx+1]
	p10, p11 := row1[bx], row1[bx+1]
	switch fmtDesc.FourCC {
	case format.RGGB:
		return [3]byte{p00, avg(p01, p10), p11}
	case format.BGGR:
		return [3]byte{p11, avg(p01, p10), p00}
	case format.GRBG:
		return [3]byte{p01, avg(p00, p11), p10}
	case format.GBRG:
		return [3]byte{p10, avg(p00, p11), p01}
	default:
		return [3]byte{}
	}
}

func avg(a, b byte) byte { return byte((int(a) + int(b)) / 2) }

// FromBuf draws NVals samples (or defaultSamples if NVals==0) from buf
// and accumulates mean/min/max/histogram into s. s's accumulators are
// reset first.
func FromBuf(s *Stats, g *LCG, buf []byte, fmtDesc format.Format) {
	n := s.NVals
	if n == 0 {
		n = defaultSamples
	}
	*s = Stats{NVals: s.NVals}
	var sum [3]float64
	min := [3]byte{255, 255, 255}
	max := [3]byte{0, 0, 0}
	bucketSum := [numBuckets]int{}

	for i := 0; i < n; i++ {
		rgb := SampleRandomRGB(g, buf, fmtDesc)
		for c := 0; c < 3; c++ {
			sum[c] += float64(rgb[c])
			if rgb[c] < min[c] {
				min[c] = rgb[c]
			}
			if rgb[c] > max[c] {
				max[c] = rgb[c]
			}
		}
		luma := int(0.299*float64(rgb[0]) + 0.587*float64(rgb[1]) + 0.114*float64(rgb[2]))
		bucket := luma * numBuckets / 256
		if bucket >= numBuckets {
			bucket = numBuckets - 1
		}
		s.YHistogram[bucket]++
		bucketSum[bucket] += luma
		s.YHistogramTotal++
	}
	for b := 0; b < numBuckets; b++ {
		if s.YHistogram[b] > 0 {
			s.YHistogramVals[b] = bucketSum[b] / s.YHistogram[b]
		}
	}
	for c := 0; c < 3; c++ {
		if n > 0 {
			s.RGBAverage[c] = sum[c] / float64(n)
		}
		s.RGBMin[c] = min[c]
		s.RGBMax[c] = max[c]
	}
}
