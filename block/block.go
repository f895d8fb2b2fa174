// Package block implements the ZXC block-level encoders and decoders:
// the family of entropy-and-match coders that turn one raw block into a
// compact payload and back, plus the content-heuristic selector that
// picks among them.
package block

import "errors"

// Type identifies which coder produced a block's payload. It occupies
// the low nibble of the frame record's tag byte.
type Type uint8

const (
	RAW Type = iota
	LZ
	GHI
	GLO
	NUM
	// Terminator is never stored as a real block; it marks end-of-stream
	// in the frame codec.
	Terminator Type = 0xF
)

func (t Type) String() string {
	switch t {
	case RAW:
		return "RAW"
	case LZ:
		return "LZ"
	case GHI:
		return "GHI"
	case GLO:
		return "GLO"
	case NUM:
		return "NUM"
	case Terminator:
		return "TERMINATOR"
	default:
		return "UNKNOWN"
	}
}

const (
	// Max is the largest number of uncompressed bytes a single block may
	// hold. The last block of a stream may be shorter.
	Max = 256 * 1024

	// MinMatch is the shortest match length the LZ coder will emit.
	MinMatch = 4

	// rawThreshold is the block size below which the selector never
	// bothers trying anything but RAW: the fixed overhead of any other
	// encoder's header outweighs the savings.
	rawThreshold = 16
)

// FlagOffset16 is the LZ encoder-local flag value (high nibble bit 0
// clear) meaning "offsets are stored as two little-endian bytes" rather
// than one.
const FlagOffset16 = 0

// FlagOffset8 is the LZ encoder-local flag value (high nibble bit 0 set)
// meaning "offsets are stored as a single byte".
const FlagOffset8 = 1

var (
	// ErrBlockTooLarge is returned when a caller presents a block longer
	// than Max.
	ErrBlockTooLarge = errors.New("block: uncompressed length exceeds block.Max")
	// ErrMalformed is returned by a decoder when the payload does not
	// parse as a valid instance of its declared type.
	ErrMalformed = errors.New("block: malformed payload")
	// ErrUnknownType is returned when a tag's low nibble does not name a
	// known encoder.
	ErrUnknownType = errors.New("block: unknown encoder type")
	// ErrUnknownFlag is returned when a tag's high nibble carries a bit
	// the named encoder does not define.
	ErrUnknownFlag = errors.New("block: unknown encoder-local flag")
)

// Params carries the per-block, encoder-local choices the selector made
// at compress time that the decoder needs in order to parse the
// payload. Only the field relevant to the chosen Type is meaningful.
type Params struct {
	// Offset16 is true when an LZ block's match offsets are 2 bytes
	// wide instead of 1.
	Offset16 bool
}

// Flags packs Params into the tag byte's high nibble for the given
// Type.
func (p Params) Flags(t Type) uint8 {
	if t != LZ {
		return 0
	}
	if p.Offset16 {
		return FlagOffset16
	}
	return FlagOffset8
}

// ParamsFromFlags unpacks a tag byte's high nibble into Params for the
// given Type, rejecting any bit the encoder does not define.
func ParamsFromFlags(t Type, flags uint8) (Params, error) {
	switch t {
	case LZ:
		if flags&^1 != 0 {
			return Params{}, ErrUnknownFlag
		}
		return Params{Offset16: flags&FlagOffset8 == 0}, nil
	case RAW, GHI, GLO, NUM:
		if flags != 0 {
			return Params{}, ErrUnknownFlag
		}
		return Params{}, nil
	default:
		return Params{}, ErrUnknownType
	}
}

// Level controls how much search effort the LZ coder spends finding
// matches. It never changes the on-wire token grammar, so a decoder
// never needs to know which level produced a block.
type Level int

const (
	MinLevel     Level = 1
	DefaultLevel Level = 3
	MaxLevel     Level = 5
)

// Clamp normalizes l into [MinLevel, MaxLevel]: 0 maps to DefaultLevel,
// values below MinLevel to MinLevel, and values above MaxLevel to
// MaxLevel.
func (l Level) Clamp() Level {
	if l == 0 {
		return DefaultLevel
	}
	if l < MinLevel {
		return MinLevel
	}
	if l > MaxLevel {
		return MaxLevel
	}
	return l
}

// Encoded is the result of compressing one block: the chosen encoder,
// its local parameters, and the payload bytes.
type Encoded struct {
	Type    Type
	Params  Params
	Payload []byte
}
