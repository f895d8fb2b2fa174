package block

// Encode picks an encoder for src via Select and returns the record
// fields the frame layer needs to write.
func Encode(src []byte, level Level) Encoded {
	return Select(src, level)
}

// Decode dispatches to the decoder named by t and validates that it
// produced exactly uncompressedLen bytes, the invariant every decoder
// in this package must uphold.
func Decode(t Type, params Params, payload []byte, uncompressedLen int) ([]byte, error) {
	if uncompressedLen > Max {
		return nil, ErrBlockTooLarge
	}

	var (
		out []byte
		err error
	)
	switch t {
	case RAW:
		out, err = decodeRAW(payload, uncompressedLen)
	case LZ:
		out, err = decodeLZ(payload, uncompressedLen, params)
	case GHI:
		out, err = decodeGHI(payload, uncompressedLen)
	case GLO:
		out, err = decodeGLO(payload, uncompressedLen)
	case NUM:
		out, err = decodeNUM(payload, uncompressedLen)
	default:
		return nil, ErrUnknownType
	}
	if err != nil {
		return nil, err
	}
	if len(out) != uncompressedLen {
		return nil, ErrMalformed
	}
	return out, nil
}
