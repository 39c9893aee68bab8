// Package palette implements the palette data type and the K-means
// refinement step used to optimize a color palette against sampled
// image pixels.
package palette

import (
	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/stats"
)

// Palette is a fixed 256-entry RGB24 color table; only the first
// 1<<bitDepth entries are meaningful, the rest is unused tail.
type Palette struct {
	FourCC format.FourCC
	Colors [256][3]byte
}

// Size returns 1<<bitDepth(fourcc), the number of meaningful entries.
func (p *Palette) Size() int {
	d := format.PaletteBitDepth(p.FourCC)
	if d == 0 {
		return 0
	}
	return 1 << d
}

// NearestIndex returns the palette entry whose color is closest to rgb
// by squared Euclidean distance in RGB space.
//
// spec.md flags that one code path in the original source accidentally
// computed r*r + g*g + b + b (blue added linearly twice instead of
// squared); that is "likely a typo" per spec.md §9 and this
// reimplementation always uses the correct squared distance, matching
// the other path in the original that did so.
func (p *Palette) NearestIndex(rgb [3]byte) int {
	best, bestDist := 0, -1
	size := p.Size()
	for i := 0; i < size; i++ {
		d := squaredDistance(rgb, p.Colors[i])
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func squaredDistance(a, b [3]byte) int {
	dr := int(a[0]) - int(b[0])
	dg := int(a[1]) - int(b[1])
	db := int(a[2]) - int(b[2])
	return dr*dr + dg*dg + db*db
}

// Optimize performs one K-means refinement iteration: it draws
// numSamples random pixels from buf (in the given format), assigns each
// to its nearest palette entry, and replaces every entry with the mean
// color of its assigned samples. An entry that received no samples is
// nudged by shifting each channel up by 16, using raw 8-bit wraparound
// arithmetic — spec.md §9 flags this as possibly-unintentional wrap
// behavior in the original source, kept here for bit-exact
// reimplementation rather than guessed-at clamping.
//
// Call this num_iterations times (from the caller) to converge; a
// single call is one iteration, O(numSamples * palette size).
func Optimize(p *Palette, g *stats.LCG, buf []byte, fmtDesc format.Format, numSamples int) {
	size := p.Size()
	if size == 0 {
		return
	}
	sums := make([][3]int, size)
	nums := make([]int, size)

	for i := 0; i < numSamples; i++ {
		rgb := stats.SampleRandomRGB(g, buf, fmtDesc)
		idx := p.NearestIndex(rgb)
		sums[idx][0] += int(rgb[0])
		sums[idx][1] += int(rgb[1])
		sums[idx][2] += int(rgb[2])
		nums[idx]++
	}

	for i := 0; i < size; i++ {
		if nums[i] == 0 {
			p.Colors[i][0] += 16
			p.Colors[i][1] += 16
			p.Colors[i][2] += 16
			continue
		}
		p.Colors[i][0] = byte(sums[i][0] / nums[i])
		p.Colors[i][1] = byte(sums[i][1] / nums[i])
		p.Colors[i][2] = byte(sums[i][2] / nums[i])
	}
}
