// Package statusled drives a WS2812/SK6812 addressable LED as an
// at-a-glance pipeline status indicator: idle, running, suspended on
// backpressure, or aborted with an error.
//
// Adapted from the teacher's ws2812 driver, which wrote colors straight
// to a machine.Pin using the strip's one-wire bit protocol. That pin
// dependency is replaced here with the small BitWriter interface so the
// indicator can be driven by any one-wire bus implementation, not just
// a TinyGo machine.Pin.
package statusled

import "image/color"

// BitWriter writes a single raw protocol byte to the LED strip's data
// line (one WriteByte call per GRB(A) byte), the same shape as the
// teacher's Device.WriteByte method on machine.Pin.
type BitWriter interface {
	WriteByte(b byte) error
}

type deviceType uint8

const (
	ws2812 deviceType = iota
	sk6812
)

// Strip wraps a BitWriter for an easy status-color interface.
type Strip struct {
	w    BitWriter
	kind deviceType
}

// NewWS2812 returns a Strip driving an RGB (3-byte) WS2812 strip.
func NewWS2812(w BitWriter) Strip { return Strip{w: w, kind: ws2812} }

// NewSK6812 returns a Strip driving an RGBW (4-byte) SK6812 strip.
func NewSK6812(w BitWriter) Strip { return Strip{w: w, kind: sk6812} }

// State is a pipeline lifecycle phase the strip can indicate.
type State int

const (
	Idle State = iota
	Running
	Suspended
	Error
)

var stateColor = map[State]color.RGBA{
	Idle:      {R: 0, G: 0, B: 32, A: 255},   // dim blue
	Running:   {R: 0, G: 64, B: 0, A: 255},   // green
	Suspended: {R: 64, G: 48, B: 0, A: 255},  // amber
	Error:     {R: 96, G: 0, B: 0, A: 255},   // red
}

// Show writes the color associated with s to the strip.
func (s Strip) Show(st State) error {
	return s.WriteColor(stateColor[st])
}

// WriteColor writes one pixel's worth of color data in the strip's
// native GRB(A) byte order.
func (s Strip) WriteColor(c color.RGBA) error {
	if err := s.w.WriteByte(c.G); err != nil {
		return err
	}
	if err := s.w.WriteByte(c.R); err != nil {
		return err
	}
	if err := s.w.WriteByte(c.B); err != nil {
		return err
	}
	if s.kind == sk6812 {
		return s.w.WriteByte(c.A)
	}
	return nil
}
