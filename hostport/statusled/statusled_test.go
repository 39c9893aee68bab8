package statusled

import (
	"errors"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"
)

type recordingWriter struct {
	bytes []byte
	err   error
}

func (w *recordingWriter) WriteByte(b byte) error {
	if w.err != nil {
		return w.err
	}
	w.bytes = append(w.bytes, b)
	return nil
}

func TestWS2812WritesGRBOrderNoAlpha(t *testing.T) {
	c := qt.New(t)
	w := &recordingWriter{}
	s := NewWS2812(w)
	c.Assert(s.WriteColor(color.RGBA{R: 10, G: 20, B: 30, A: 255}), qt.IsNil)
	c.Assert(w.bytes, qt.DeepEquals, []byte{20, 10, 30})
}

func TestSK6812WritesGRBAOrder(t *testing.T) {
	c := qt.New(t)
	w := &recordingWriter{}
	s := NewSK6812(w)
	c.Assert(s.WriteColor(color.RGBA{R: 10, G: 20, B: 30, A: 128}), qt.IsNil)
	c.Assert(w.bytes, qt.DeepEquals, []byte{20, 10, 30, 128})
}

func TestShowUsesStateColor(t *testing.T) {
	c := qt.New(t)
	w := &recordingWriter{}
	s := NewWS2812(w)
	c.Assert(s.Show(Running), qt.IsNil)
	want := stateColor[Running]
	c.Assert(w.bytes, qt.DeepEquals, []byte{want.G, want.R, want.B})
}

func TestWriteColorPropagatesWriteError(t *testing.T) {
	c := qt.New(t)
	wantErr := errors.New("bus down")
	w := &recordingWriter{err: wantErr}
	s := NewWS2812(w)
	err := s.WriteColor(color.RGBA{})
	c.Assert(err, qt.ErrorIs, wantErr)
}
