package block

import (
	"math/bits"

	"github.com/zxc-codec/zxc/internal/bitio"
)

// GHI targets near-uniform byte distributions, where Huffman coding
// cannot beat a flat code and its per-symbol bookkeeping is pure
// overhead. The descriptor is a 256-bit presence bitmap; the decoder
// rebuilds the symbol table (and therefore the code width) by counting
// set bits, with no further side information. Payload layout:
//
//	descriptor := bitmap[32]byte            // bit i set => symbol i present
//	body       := bit-packed direct indices, one per input byte, width
//	              = ceil(log2(presentCount)), 0 bits if presentCount<=1
func encodeGHI(src []byte) (Encoded, bool) {
	var present [32]byte
	var index [256]int
	count := 0
	for _, b := range src {
		byteIdx, bit := b/8, b%8
		if present[byteIdx]&(1<<bit) == 0 {
			present[byteIdx] |= 1 << bit
			count++
		}
	}

	// Build the symbol->index table in ascending symbol order, matching
	// how the decoder reconstructs it from the bitmap alone.
	next := 0
	for sym := 0; sym < 256; sym++ {
		byteIdx, bit := sym/8, sym%8
		if present[byteIdx]&(1<<bit) != 0 {
			index[sym] = next
			next++
		}
	}

	width := widthFor(count)
	values := make([]uint32, len(src))
	for i, b := range src {
		values[i] = uint32(index[b])
	}

	bodyLen := bitio.PackedLen(len(values), width)
	body := make([]byte, bodyLen)
	if width > 0 {
		if n := bitio.BitPackStream(values, body, width); n == 0 && bodyLen > 0 {
			return Encoded{}, false
		}
	}

	payload := make([]byte, 0, 32+bodyLen)
	payload = append(payload, present[:]...)
	payload = append(payload, body...)

	return Encoded{Type: GHI, Payload: payload}, true
}

// widthFor returns the number of bits needed to index count distinct
// direct-coded symbols.
func widthFor(count int) uint8 {
	if count <= 1 {
		return 0
	}
	return uint8(bits.Len(uint(count - 1)))
}

func decodeGHI(payload []byte, uncompressedLen int) ([]byte, error) {
	if len(payload) < 32 {
		return nil, ErrMalformed
	}
	present := payload[:32]
	body := payload[32:]

	var symbols []byte
	for sym := 0; sym < 256; sym++ {
		byteIdx, bit := sym/8, sym%8
		if present[byteIdx]&(1<<bit) != 0 {
			symbols = append(symbols, byte(sym))
		}
	}

	if uncompressedLen == 0 {
		return []byte{}, nil
	}
	if len(symbols) == 0 {
		return nil, ErrMalformed
	}

	width := widthFor(len(symbols))
	dst := make([]byte, uncompressedLen)
	if width == 0 {
		for i := range dst {
			dst[i] = symbols[0]
		}
		return dst, nil
	}

	r := bitio.NewBitReader(body)
	for i := range dst {
		r.Ensure(width)
		idx := int(r.Read(width))
		if idx >= len(symbols) {
			return nil, ErrMalformed
		}
		dst[i] = symbols[idx]
	}
	return dst, nil
}
