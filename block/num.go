package block

import (
	"math/bits"

	"github.com/zxc-codec/zxc/internal/bitio"
)

// NUM targets blocks that are really arrays of little-endian u32
// values with small steps between consecutive entries: timestamps,
// counters, sorted indices. Payload layout:
//
//	first_value  : 32 bits
//	residual_bits: 5 bits
//	residuals    : (n-1) signed two's-complement values, residual_bits
//	               wide each, one per value after the first

// encodeNUM returns ok=false when the block length isn't a multiple of
// 4, or the residual range would need all 32 bits (no narrower than
// RAW's 32-bit values, so NUM cannot help).
func encodeNUM(src []byte) (Encoded, bool) {
	if len(src) == 0 || len(src)%4 != 0 {
		return Encoded{}, false
	}
	n := len(src) / 4
	values := make([]uint32, n)
	for i := 0; i < n; i++ {
		values[i] = bitio.LE32(src[i*4:])
	}

	var width uint8
	residuals := make([]int64, n-1)
	for i := 1; i < n; i++ {
		d := int64(values[i]) - int64(values[i-1])
		residuals[i-1] = d
		if w := residualWidth(d); w > width {
			width = w
		}
	}
	if width > 31 {
		return Encoded{}, false
	}

	totalBits := 32 + 5 + int(width)*(n-1)
	buf := make([]byte, (totalBits+7)/8)
	w := bitio.NewBitWriter(buf)
	w.Write(uint64(values[0]), 32)
	w.Write(uint64(width), 5)
	var mask uint64
	if width > 0 {
		mask = uint64(1)<<width - 1
	}
	for _, d := range residuals {
		w.Write(uint64(d)&mask, width)
	}
	written := w.Flush()

	return Encoded{Type: NUM, Payload: buf[:written]}, true
}

// residualWidth returns the number of bits needed to represent d in
// two's complement, or 0 if d is exactly zero (the common case for
// constant-step sequences, where it costs nothing per residual).
func residualWidth(d int64) uint8 {
	if d == 0 {
		return 0
	}
	if d > 0 {
		return uint8(bits.Len64(uint64(d))) + 1
	}
	mag := uint64(-d)
	return uint8(bits.Len64(mag-1)) + 1
}

func decodeNUM(payload []byte, uncompressedLen int) ([]byte, error) {
	if uncompressedLen%4 != 0 {
		return nil, ErrMalformed
	}
	n := uncompressedLen / 4
	if n == 0 {
		return []byte{}, nil
	}
	if len(payload) < 5 {
		return nil, ErrMalformed
	}

	r := bitio.NewBitReader(payload)
	r.Ensure(32)
	values := make([]uint32, n)
	values[0] = uint32(r.Read(32))
	r.Ensure(5)
	width := uint8(r.Read(5))
	if width > 31 {
		return nil, ErrMalformed
	}

	for i := 1; i < n; i++ {
		var d int32
		if width > 0 {
			r.Ensure(width)
			d = r.ReadSigned(width)
		}
		values[i] = uint32(int64(values[i-1]) + int64(d))
	}

	dst := make([]byte, uncompressedLen)
	for i, v := range values {
		bitio.PutLE32(dst[i*4:], v)
	}
	return dst, nil
}
