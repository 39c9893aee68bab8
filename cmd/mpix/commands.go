package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tinygo.org/x/mpix/format"
	"tinygo.org/x/mpix/hostport"
	"tinygo.org/x/mpix/pipeline"
)

// opKind maps the CLI's command name (identical to Kind.String(), the
// same convention spec.md's grammar requires: "one command per
// registered op kind") back to the Kind constant.
var opKind = map[string]pipeline.Kind{
	"convert":               pipeline.KindConvert,
	"debayer_1x1":           pipeline.KindDebayer1x1,
	"debayer_3x3":           pipeline.KindDebayer3x3,
	"crop":                  pipeline.KindCrop,
	"resize":                pipeline.KindResize,
	"kernel_convolve_3x3":   pipeline.KindKernelConvolve3x3,
	"kernel_convolve_5x5":   pipeline.KindKernelConvolve5x5,
	"kernel_denoise_3x3":    pipeline.KindDenoise3x3,
	"kernel_denoise_5x5":    pipeline.KindDenoise5x5,
	"correct_black_level":   pipeline.KindCorrectBlackLevel,
	"correct_white_balance": pipeline.KindCorrectWhiteBalance,
	"correct_color_matrix":  pipeline.KindCorrectColorMatrix,
	"correct_gamma":         pipeline.KindCorrectGamma,
	"palette_encode":        pipeline.KindPaletteEncode,
	"palette_decode":        pipeline.KindPaletteDecode,
	"qoi_encode":            pipeline.KindQOIEncode,
	"jpeg_encode":           pipeline.KindJPEGEncode,
}

// run executes one `!`-chained command sequence: the first group must
// be a source, `read` or `mqttread`; everything after it is either an
// op command, `write`, or one of the network sink commands (mqttwrite,
// mcast).
func run(groups [][]string) error {
	if len(groups) == 0 || len(groups[0]) == 0 {
		return fmt.Errorf("empty command chain")
	}
	var buf []byte
	var size int
	var fmtDesc format.Format
	var err error
	switch groups[0][0] {
	case "read":
		buf, size, fmtDesc, err = doRead(groups[0][1:])
	case "mqttread":
		buf, size, fmtDesc, err = doMQTTRead(groups[0][1:])
	default:
		return fmt.Errorf("first command must be read or mqttread, got %q", groups[0][0])
	}
	if err != nil {
		return fmt.Errorf("%s: %w", groups[0][0], err)
	}
	logf("read %d bytes as %s %dx%d", size, fmtDesc.FourCC, fmtDesc.Width, fmtDesc.Height)

	img := pipeline.FromBuf(buf, fmtDesc, hostport.NewDefault())
	var sinks []func() error

	for _, g := range groups[1:] {
		if len(g) == 0 {
			continue
		}
		name, args := g[0], g[1:]
		switch name {
		case "write":
			if len(args) != 1 {
				return fmt.Errorf("write: expected 1 argument, got %d", len(args))
			}
			flush, err := addWriteSink(img, args[0])
			if err != nil {
				return fmt.Errorf("write: %w", err)
			}
			sinks = append(sinks, flush)
		case "mqttwrite":
			flush, err := addMQTTWriteSink(img, args)
			if err != nil {
				return fmt.Errorf("mqttwrite: %w", err)
			}
			sinks = append(sinks, flush)
		case "mcast":
			flush, err := addMcastSink(img, args)
			if err != nil {
				return fmt.Errorf("mcast: %w", err)
			}
			sinks = append(sinks, flush)
		case "mqttread":
			return fmt.Errorf("mqttread: must be the first command, not chained after read")
		default:
			kind, ok := opKind[name]
			if !ok {
				return fmt.Errorf("unrecognized command %q", name)
			}
			params, err := parseParams(args)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := img.Add(kind, params); err != nil {
				return err
			}
			logf("added %s %v -> %s", name, params, img.Format().FourCC)
		}
	}

	if err := img.Process(buf, size); err != nil {
		return err
	}
	for _, op := range img.Ops() {
		logf("%s: %dus", op.Kind(), op.TotalRunUS())
	}
	for _, flush := range sinks {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

// parseParams converts each positional argument to the integer
// pipeline.Add expects. A token that isn't a plain integer is tried as
// a fourcc name (format.RGB24, format.PALETTE4, ...) so commands like
// `convert RGB565` and `palette_encode PALETTE4` read naturally instead
// of forcing the caller to spell out packed numeric fourccs.
func parseParams(args []string) ([]int, error) {
	params := make([]int, len(args))
	for i, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			params[i] = n
			continue
		}
		fc, ok := format.Parse(strings.ToUpper(a))
		if !ok {
			return nil, fmt.Errorf("argument %d (%q) is neither an integer nor a known format name", i, a)
		}
		params[i] = int(fc)
	}
	return params, nil
}

// doRead loads a raw or QOI-header-carrying file from disk. args is
// `<file> [<width> <format>]`; width and format are optional only when
// the file is QOI (width and height come from its header). A sniffed
// JPEG stream, or any other file, requires both.
func doRead(args []string) ([]byte, int, format.Format, error) {
	if len(args) < 1 {
		return nil, 0, format.Format{}, fmt.Errorf("expected <file> [<width> <format>]")
	}
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return nil, 0, format.Format{}, err
	}
	if len(args) >= 3 {
		fmtDesc, err := rawFormat(args[1], args[2], len(buf))
		if err != nil {
			return nil, 0, format.Format{}, err
		}
		return buf, len(buf), fmtDesc, nil
	}
	if fc, ok := format.Sniff(buf); ok {
		w, h, err := sniffQOIDims(fc, buf)
		if err != nil {
			return nil, 0, format.Format{}, err
		}
		return buf, len(buf), format.Format{FourCC: fc, Width: w, Height: h}, nil
	}
	return nil, 0, format.Format{}, fmt.Errorf("%s: unknown format, pass <width> <format>", args[0])
}

// rawFormat resolves a header-less frame's geometry from its CLI-supplied
// <width> <format> pair, deriving height from the buffer length and the
// format's pitch.
func rawFormat(widthArg, fmtArg string, bufLen int) (format.Format, error) {
	width, err := strconv.Atoi(widthArg)
	if err != nil {
		return format.Format{}, err
	}
	fc, ok := format.Parse(strings.ToUpper(fmtArg))
	if !ok {
		return format.Format{}, fmt.Errorf("unknown format %q", fmtArg)
	}
	pitch := format.Pitch(format.Format{FourCC: fc, Width: width})
	height := 0
	if pitch > 0 {
		height = bufLen / pitch
	}
	return format.Format{FourCC: fc, Width: width, Height: height}, nil
}

// sniffQOIDims reads a QOI header's big-endian width/height fields.
// JPEG's own SOF0 marker would need to be parsed similarly, but this
// engine only ever produces JPEG, never reads it back in, so only QOI
// needs a dimension reader here.
func sniffQOIDims(fc format.FourCC, buf []byte) (int, int, error) {
	if fc != format.QOI || len(buf) < 14 {
		return 0, 0, fmt.Errorf("cannot determine dimensions for sniffed format")
	}
	w := int(buf[4])<<24 | int(buf[5])<<16 | int(buf[6])<<8 | int(buf[7])
	h := int(buf[8])<<24 | int(buf[9])<<16 | int(buf[10])<<8 | int(buf[11])
	return w, h, nil
}

// fileSink buffers every chunk handed to it by the callback stage and
// writes the file in one shot on flush, matching Process's "errors
// never partially roll back, but the caller controls when output lands
// on disk" contract.
type fileSink struct {
	path string
	buf  []byte
}

func (s *fileSink) Write(p []byte) error {
	s.buf = append(s.buf, p...)
	return nil
}

func addWriteSink(img *pipeline.Image, path string) (flush func() error, err error) {
	if err := img.Add(pipeline.KindCallback, nil); err != nil {
		return nil, err
	}
	sink := &fileSink{path: path}
	if err := img.SetSink(sink); err != nil {
		return nil, err
	}
	return func() error {
		return os.WriteFile(sink.path, sink.buf, 0o644)
	}, nil
}
