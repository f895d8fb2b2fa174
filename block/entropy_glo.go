package block

import "github.com/zxc-codec/zxc/internal/bitio"

// GLO targets skewed byte distributions: a canonical Huffman code built
// from the block's own symbol frequencies. Payload layout:
//
//	descriptor := (length:u8 runLength-1:u8)+ // encodeLengths, 256 symbols total
//	body       := bit-packed canonical codes, one per input byte
func encodeGLO(src []byte) (Encoded, bool) {
	var freq [256]int
	for _, b := range src {
		freq[b]++
	}

	lengths, ok := buildHuffmanLengths(freq)
	if !ok {
		return Encoded{}, false
	}

	codes := assignCanonicalCodes(lengths)
	descriptor := encodeLengths(lengths)

	maxBits := 0
	for sym, c := range codes {
		maxBits += freq[sym] * int(c.length)
	}
	body := make([]byte, (maxBits+7)/8+8)
	w := bitio.NewBitWriter(body)
	for _, b := range src {
		c := codes[int(b)]
		if c.length == 0 {
			return Encoded{}, false
		}
		if !w.Write(uint64(reverseBits(c.code, c.length)), c.length) {
			return Encoded{}, false
		}
	}
	n := w.Flush()

	payload := make([]byte, 0, len(descriptor)+n)
	payload = append(payload, descriptor...)
	payload = append(payload, body[:n]...)

	return Encoded{Type: GLO, Payload: payload}, true
}

func decodeGLO(payload []byte, uncompressedLen int) ([]byte, error) {
	lengths, consumed, err := decodeLengths(payload)
	if err != nil {
		return nil, err
	}
	body := payload[consumed:]

	dec := newCanonicalDecoder(lengths)
	dst := make([]byte, 0, uncompressedLen)
	r := bitio.NewBitReader(body)
	for len(dst) < uncompressedLen {
		sym, ok := dec.decodeOne(r)
		if !ok {
			return nil, ErrMalformed
		}
		dst = append(dst, byte(sym))
	}
	return dst, nil
}
