// Package autoctrl implements the auto-exposure, auto-black-level and
// auto-white-balance algorithms driven by the statistics sampler,
// writing their results into the image's control registry (and
// optionally a capture device through the host port).
package autoctrl

import (
	"tinygo.org/x/mpix/control"
	"tinygo.org/x/mpix/hostport"
	"tinygo.org/x/mpix/stats"
)

// Exposure rate scales linearly between these two bounds as the luma
// error grows from the caller's threshold up to the maximum possible
// error of 128.
const (
	MinRate = 1  // percent adjustment at the threshold
	MaxRate = 32 // percent adjustment at |error| == 128
)

// AutoExposure adjusts the exposure_level control towards target mean
// luma. dev is passed through to the host port's SetExposure call; pass
// nil if there is no controllable device.
func AutoExposure(tbl *control.Table, port hostport.Port, dev any, s *stats.Stats, target, threshold, maxLevel int) error {
	mean := weightedMeanLuma(s)
	errAbs := mean - target
	if errAbs < 0 {
		errAbs = -errAbs
	}
	if errAbs <= threshold {
		return nil
	}

	rate := MinRate
	if errAbs >= 128 {
		rate = MaxRate
	} else if span := 128 - threshold; span > 0 {
		rate = MinRate + (errAbs-threshold)*(MaxRate-MinRate)/span
	}

	level, err := tbl.Get(control.ExposureLevel)
	if err != nil {
		return err
	}
	if mean < target {
		level = level * (100 + rate) / 100
	} else {
		level = level * (100 - rate) / 100
	}
	if level < 1 {
		level = 1
	}
	if level > maxLevel {
		level = maxLevel
	}
	if err := tbl.Set(control.ExposureLevel, level); err != nil {
		return err
	}
	if port != nil {
		port.SetExposure(dev, level)
	}
	return nil
}

func weightedMeanLuma(s *stats.Stats) int {
	if s.YHistogramTotal == 0 {
		return 0
	}
	sum := 0
	for b, count := range s.YHistogram {
		sum += count * s.YHistogramVals[b]
	}
	return sum / s.YHistogramTotal
}

// AutoBlackLevel finds the lowest luma bucket whose cumulative count
// exceeds minCount and sets the black_level control to that bucket's
// mean luma. It then subtracts the new level from s's statistics
// in-place so later auto algorithms see corrected values; per spec.md
// §9's flagged behavior this second update is applied as if to a single
// pixel (len==1), which is kept here for fidelity.
func AutoBlackLevel(tbl *control.Table, s *stats.Stats, minCount int) error {
	cum := 0
	level := 0
	for b := 0; b < len(s.YHistogram); b++ {
		cum += s.YHistogram[b]
		if cum > minCount {
			level = s.YHistogramVals[b]
			break
		}
	}
	if err := tbl.Set(control.BlackLevel, level); err != nil {
		return err
	}
	for c := 0; c < 3; c++ {
		v := s.RGBAverage[c] - float64(level)
		if v < 0 {
			v = 0
		}
		s.RGBAverage[c] = v
	}
	return nil
}

// AutoWhiteBalance implements gray-world white balance: it scales red
// and blue gains so the three channel averages match green, writing
// Q.10 fixed point gains into the red_balance/blue_balance controls.
func AutoWhiteBalance(tbl *control.Table, s *stats.Stats) error {
	g := s.RGBAverage[1]
	if s.RGBAverage[0] <= 0 || s.RGBAverage[2] <= 0 || g <= 0 {
		return nil
	}
	redQ10 := int(g*1024/s.RGBAverage[0] + 0.5)
	blueQ10 := int(g*1024/s.RGBAverage[2] + 0.5)
	if err := tbl.Set(control.RedBalance, redQ10); err != nil {
		return err
	}
	if err := tbl.Set(control.BlueBalance, blueQ10); err != nil {
		return err
	}
	s.RGBAverage[0] = g
	s.RGBAverage[2] = g
	return nil
}
