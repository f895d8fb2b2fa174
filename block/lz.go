package block

// The LZ payload is a sequence of tokens, each a literal run optionally
// followed by a match:
//
//	token        := litLenCode:4 matchLenCode:4
//	litLenCode   == 15  => extLen+  (zero or more 0xFF bytes, then one byte < 0xFF)
//	literal bytes
//	offset       := 1 or 2 little-endian bytes, per Params.Offset16
//	matchLenCode == 15  => extLen+
//
// matchLenCode stores (length-MinMatch); the final token of a block may
// carry a literal run with no following match.

// encodeLZ runs the hash-chain matcher once to discover the tokens and
// the largest offset they need, then (only if that offset does not fit
// in a byte) re-runs the search to emit the wide-offset encoding. Most
// blocks take the cheap single-pass path.
func encodeLZ(src []byte, level Level) (Encoded, bool) {
	payload, maxOffset := lzPass(src, level, false)
	wide := maxOffset > 0xFF
	if wide {
		payload, _ = lzPass(src, level, true)
	}
	return Encoded{Type: LZ, Params: Params{Offset16: wide}, Payload: payload}, true
}

func lzPass(src []byte, level Level, wide bool) (dst []byte, maxOffset int) {
	n := len(src)
	dst = make([]byte, 0, n+n/255+16)
	matcher := newHashChainMatcher(src, effortForLevel(level))
	lazy := matcher.effort.lazy

	pos := 0
	literalStart := 0

	for pos < n {
		offset, length := matcher.findMatch(pos)
		matcher.insert(pos)

		if length >= MinMatch && lazy && pos+1 < n {
			_, nextLen := matcher.findMatch(pos + 1)
			if nextLen > length {
				pos++
				continue
			}
		}
		if length < MinMatch {
			pos++
			continue
		}

		literalLen := pos - literalStart
		litCode := literalLen
		if litCode > 15 {
			litCode = 15
		}
		matchCode := length - MinMatch
		if matchCode > 15 {
			matchCode = 15
		}
		dst = append(dst, byte(litCode<<4|matchCode))
		dst = appendExtLen(dst, literalLen, 15)
		dst = append(dst, src[literalStart:pos]...)

		if offset > maxOffset {
			maxOffset = offset
		}
		if wide {
			dst = append(dst, byte(offset), byte(offset>>8))
		} else {
			dst = append(dst, byte(offset))
		}
		dst = appendExtLen(dst, length-MinMatch, 15)

		for i := pos + 1; i < pos+length; i++ {
			matcher.insert(i)
		}
		pos += length
		literalStart = pos
	}

	if literalStart < n {
		literalLen := n - literalStart
		litCode := literalLen
		if litCode > 15 {
			litCode = 15
		}
		dst = append(dst, byte(litCode<<4))
		dst = appendExtLen(dst, literalLen, 15)
		dst = append(dst, src[literalStart:]...)
	}
	return dst, maxOffset
}

// appendExtLen appends the LZ4-style extension bytes for a length whose
// 4-bit code saturated at base: repeated 0xFF bytes followed by the
// remainder.
func appendExtLen(dst []byte, length, base int) []byte {
	if length < base {
		return dst
	}
	remaining := length - base
	for remaining >= 255 {
		dst = append(dst, 255)
		remaining -= 255
	}
	return append(dst, byte(remaining))
}

func decodeLZ(payload []byte, uncompressedLen int, params Params) ([]byte, error) {
	dst := make([]byte, 0, uncompressedLen)
	pos := 0

	readExtLen := func() (int, error) {
		total := 0
		for {
			if pos >= len(payload) {
				return 0, ErrMalformed
			}
			b := payload[pos]
			pos++
			total += int(b)
			if b != 255 {
				return total, nil
			}
		}
	}

	for len(dst) < uncompressedLen {
		if pos >= len(payload) {
			return nil, ErrMalformed
		}
		token := payload[pos]
		pos++

		litLen := int(token >> 4)
		if litLen == 15 {
			ext, err := readExtLen()
			if err != nil {
				return nil, err
			}
			litLen += ext
		}
		if litLen < 0 || pos+litLen > len(payload) || len(dst)+litLen > uncompressedLen {
			return nil, ErrMalformed
		}
		dst = append(dst, payload[pos:pos+litLen]...)
		pos += litLen

		if len(dst) == uncompressedLen {
			break
		}
		if pos >= len(payload) {
			return nil, ErrMalformed
		}

		var offset int
		if params.Offset16 {
			if pos+2 > len(payload) {
				return nil, ErrMalformed
			}
			offset = int(payload[pos]) | int(payload[pos+1])<<8
			pos += 2
		} else {
			offset = int(payload[pos])
			pos++
		}
		if offset == 0 || offset > len(dst) {
			return nil, ErrMalformed
		}

		matchLen := int(token & 0x0F)
		if matchLen == 15 {
			ext, err := readExtLen()
			if err != nil {
				return nil, err
			}
			matchLen += ext
		}
		matchLen += MinMatch

		if len(dst)+matchLen > uncompressedLen {
			return nil, ErrMalformed
		}

		start := len(dst) - offset
		for i := 0; i < matchLen; i++ {
			dst = append(dst, dst[start+i])
		}
	}

	return dst, nil
}
