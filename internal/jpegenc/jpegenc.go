package jpegenc

import "math"

// block is one 8x8 DCT coefficient block in natural (row-major) order.
type block [blockSize]int32

// fdct computes the forward 2D DCT-II of b in place (b holds pixel
// values already level-shifted by -128 on entry), scaled by an extra
// factor of 8 so that Encoder.emitBlock's div(coeff, 8*quant) matches
// the quantization tables' intended magnitude.
func fdct(b *block) {
	var tmp [blockSize]float64
	for i, v := range b {
		tmp[i] = float64(v)
	}
	var rows [8][8]float64
	for y := 0; y < 8; y++ {
		for u := 0; u < 8; u++ {
			sum := 0.0
			for x := 0; x < 8; x++ {
				sum += tmp[y*8+x] * math.Cos(math.Pi/8*(float64(x)+0.5)*float64(u))
			}
			cu := 1.0
			if u == 0 {
				cu = 1 / math.Sqrt2
			}
			rows[y][u] = sum * cu * 0.5
		}
	}
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			sum := 0.0
			for y := 0; y < 8; y++ {
				sum += rows[y][u] * math.Cos(math.Pi/8*(float64(y)+0.5)*float64(v))
			}
			cv := 1.0
			if v == 0 {
				cv = 1 / math.Sqrt2
			}
			b[v*8+u] = int32(math.Round(sum * cv * 0.5 * 8))
		}
	}
}

// Sink receives finished entropy-coded bytes as they are produced.
// Errors from Sink abort the encode and propagate out of AddMCU/EncodeEnd.
type Sink interface {
	Write(p []byte) (int, error)
}

// bitWriter accumulates sub-byte-granularity Huffman codes and flushes
// whole bytes to a Sink, byte-stuffing 0xff as the JPEG stream format
// requires.
type bitWriter struct {
	sink      Sink
	bits      uint32
	nBits     uint32
	err       error
	scratch   [2]byte
}

func (w *bitWriter) writeByte(b byte) {
	if w.err != nil {
		return
	}
	w.scratch[0] = b
	if _, err := w.sink.Write(w.scratch[:1]); err != nil {
		w.err = err
	}
}

func (w *bitWriter) emit(bits, nBits uint32) {
	if w.err != nil {
		return
	}
	nBits += w.nBits
	bits <<= 32 - nBits
	bits |= w.bits
	for nBits >= 8 {
		b := byte(bits >> 24)
		w.writeByte(b)
		if b == 0xff {
			w.writeByte(0x00)
		}
		bits <<= 8
		nBits -= 8
	}
	w.bits, w.nBits = bits, nBits
}

func (w *bitWriter) emitHuff(h huffIndex, value int32) {
	x := theHuffmanLUT[h][value]
	w.emit(x&(1<<24-1), x>>24)
}

func (w *bitWriter) emitHuffRLE(h huffIndex, runLength, value int32) {
	a, b := value, value
	if a < 0 {
		a, b = -value, value-1
	}
	var nBits uint32
	if a < 0x100 {
		nBits = uint32(bitCount[a])
	} else {
		nBits = 8 + uint32(bitCount[a>>8])
	}
	w.emitHuff(h, runLength<<4|int32(nBits))
	if nBits > 0 {
		w.emit(uint32(b)&(1<<nBits-1), nBits)
	}
}

func (w *bitWriter) padAndFlush() {
	if w.nBits > 0 {
		w.emit(0x7f, 7)
	}
}

// Encoder implements the streaming stripe-at-a-time JPEG entropy coding
// contract (8-row stripes for grayscale, 16-row stripes for 4:2:0
// color): EncodeBegin writes the header and quantization/Huffman
// tables, AddMCU takes one already-color-converted 8x8 (grayscale) or
// 16x16 (4:2:0 YCbCr) block of source samples and entropy-codes it
// immediately, and EncodeEnd flushes the bit buffer and writes EOI.
// Nothing beyond one stripe's worth of MCUs is ever buffered.
type Encoder struct {
	w          bitWriter
	quant      [nQuantIndex][blockSize]byte
	gray       bool
	prevDCY    int32
	prevDCCb   int32
	prevDCCr   int32
}

// NewEncoder builds an Encoder for a width x height image at the given
// JPEG quality (1-100), writing grayscale (single Y component, no
// subsampling) if gray is true, or 4:2:0 YCbCr otherwise.
func NewEncoder(sink Sink, width, height, quality int, gray bool) *Encoder {
	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}
	scale := 200 - quality*2
	if quality < 50 {
		scale = 5000 / quality
	}
	e := &Encoder{w: bitWriter{sink: sink}, gray: gray}
	for i := range e.quant {
		for j := range e.quant[i] {
			x := int(unscaledQuant[i][j])
			x = (x*scale + 50) / 100
			if x < 1 {
				x = 1
			} else if x > 255 {
				x = 255
			}
			e.quant[i][j] = byte(x)
		}
	}
	return e
}

// EncodeBegin writes SOI, DQT, SOF0 and DHT for a frame of the given
// pixel dimensions.
func (e *Encoder) EncodeBegin(width, height int) error {
	e.writeMarker(markerSOI, nil)
	e.writeDQT()
	e.writeSOF(width, height)
	e.writeDHT()
	e.writeSOSHeader()
	return e.w.err
}

func (e *Encoder) writeMarker(marker byte, payload []byte) {
	e.w.writeByte(0xff)
	e.w.writeByte(marker)
	if payload != nil {
		n := len(payload) + 2
		e.w.writeByte(byte(n >> 8))
		e.w.writeByte(byte(n))
		for _, b := range payload {
			e.w.writeByte(b)
		}
	}
}

func (e *Encoder) writeDQT() {
	payload := make([]byte, 0, 2*(1+blockSize))
	for i := range e.quant {
		payload = append(payload, byte(i))
		payload = append(payload, e.quant[i][:]...)
	}
	e.writeMarker(markerDQT, payload)
}

func (e *Encoder) writeSOF(width, height int) {
	nComp := 3
	if e.gray {
		nComp = 1
	}
	payload := make([]byte, 0, 6+3*nComp)
	payload = append(payload, 8, byte(height>>8), byte(height), byte(width>>8), byte(width), byte(nComp))
	if nComp == 1 {
		payload = append(payload, 1, 0x11, 0x00)
	} else {
		samp := []byte{0x22, 0x11, 0x11}
		tab := []byte{0x00, 0x01, 0x01}
		for i := 0; i < 3; i++ {
			payload = append(payload, byte(i+1), samp[i], tab[i])
		}
	}
	e.writeMarker(markerSOF0, payload)
}

func (e *Encoder) writeDHT() {
	specs := theHuffmanSpec[:]
	if e.gray {
		specs = specs[:2]
	}
	payload := []byte{}
	ids := []byte{0x00, 0x10, 0x01, 0x11}
	for i, s := range specs {
		payload = append(payload, ids[i])
		payload = append(payload, s.count[:]...)
		payload = append(payload, s.value...)
	}
	e.writeMarker(markerDHT, payload)
}

func (e *Encoder) writeSOSHeader() {
	if e.gray {
		e.writeMarker(markerSOS, []byte{0x01, 0x01, 0x00, 0x00, 0x3f, 0x00})
		return
	}
	e.writeMarker(markerSOS, []byte{0x03, 0x01, 0x00, 0x02, 0x11, 0x03, 0x11, 0x00, 0x3f, 0x00})
}

// MCU is one already color-converted minimum-coded-unit's worth of
// source samples: Y holds one (grayscale) or four (4:2:0, raster order
// top-left/top-right/bottom-left/bottom-right) 8x8 blocks; Cb and Cr
// hold one 8x8 block each, already 2x2 box-downsampled by the caller.
type MCU struct {
	Y      [4]block
	Cb, Cr block
}

// AddMCU entropy-codes one MCU immediately: no block of the image is
// buffered beyond the single MCU passed in.
func (e *Encoder) AddMCU(m *MCU) error {
	if e.gray {
		b := m.Y[0]
		fdct(&b)
		e.prevDCY = e.emitBlock(&b, quantLuminance, huffLumaDC, huffLumaAC, e.prevDCY)
		return e.w.err
	}
	for i := 0; i < 4; i++ {
		b := m.Y[i]
		fdct(&b)
		e.prevDCY = e.emitBlock(&b, quantLuminance, huffLumaDC, huffLumaAC, e.prevDCY)
	}
	cb := m.Cb
	fdct(&cb)
	e.prevDCCb = e.emitBlock(&cb, quantChrominance, huffChromaDC, huffChromaAC, e.prevDCCb)
	cr := m.Cr
	fdct(&cr)
	e.prevDCCr = e.emitBlock(&cr, quantChrominance, huffChromaDC, huffChromaAC, e.prevDCCr)
	return e.w.err
}

func (e *Encoder) emitBlock(b *block, q quantIndex, dcIdx, acIdx huffIndex, prevDC int32) int32 {
	dc := div(b[0], 8*int32(e.quant[q][0]))
	e.w.emitHuffRLE(dcIdx, 0, dc-prevDC)
	runLength := int32(0)
	for zig := 1; zig < blockSize; zig++ {
		ac := div(b[unzig[zig]], 8*int32(e.quant[q][zig]))
		if ac == 0 {
			runLength++
			continue
		}
		for runLength > 15 {
			e.w.emitHuff(acIdx, 0xf0)
			runLength -= 16
		}
		e.w.emitHuffRLE(acIdx, runLength, ac)
		runLength = 0
	}
	if runLength > 0 {
		e.w.emitHuff(acIdx, 0x00)
	}
	return dc
}

// EncodeEnd pads the final byte, flushes, and writes EOI.
func (e *Encoder) EncodeEnd() error {
	e.w.padAndFlush()
	e.writeMarker(markerEOI, nil)
	return e.w.err
}
