package zxc

import (
	"errors"

	"github.com/zxc-codec/zxc/block"
	"github.com/zxc-codec/zxc/frame"
)

// Kind classifies a zxc error the way a caller typically needs to
// react to it, independent of which internal package raised it.
type Kind int

const (
	// KindInvalidArgument covers bad caller input: a destination buffer
	// too small for the result, a negative length, or a checksum-required
	// decode of a stream written without checksums. An out-of-range level
	// is clamped into range rather than rejected, and a nil source or
	// sink is not checked for.
	KindInvalidArgument Kind = iota
	// KindIO covers short reads/writes against the caller's byte source
	// or sink.
	KindIO
	// KindMalformedFrame covers anything wrong with the wire format
	// itself: bad magic, unknown version or tag, inconsistent lengths,
	// an LZ match or NUM residual width outside its valid domain.
	KindMalformedFrame
	// KindChecksumMismatch means a block decoded cleanly but its hash
	// does not match the stored checksum.
	KindChecksumMismatch
	// KindOverflow covers size arithmetic that would overflow, notably
	// in CompressBound.
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindIO:
		return "io error"
	case KindMalformedFrame:
		return "malformed frame"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Error is the error type every exported zxc operation returns on
// failure. Callers that only care about the category can switch on
// Kind; callers that want the underlying cause can errors.Unwrap it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "zxc: " + e.Kind.String()
	}
	return "zxc: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrInvalidArgument, ErrOverflow etc. are sentinels for errors.Is
// comparisons against a Kind without needing the *Error wrapper type.
var (
	ErrInvalidArgument = errors.New("zxc: invalid argument")
	ErrOverflow        = errors.New("zxc: overflow")
)

// Causes wrapped by the InvalidArgument/Overflow errors this package
// constructs itself (as opposed to ones classified from a lower layer).
var (
	errDstTooSmall      = errors.New("destination buffer smaller than required bound")
	errNegativeLength   = errors.New("negative length")
	errBoundOverflow    = errors.New("compress bound exceeds representable size")
	errChecksumRequired = errors.New("stream was not written with per-block checksums")
)

func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidArgument:
		return target == ErrInvalidArgument
	case KindOverflow:
		return target == ErrOverflow
	default:
		return false
	}
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// classify maps an error returned by the block/frame/pipeline layers
// onto the Kind taxonomy, so every exported zxc function returns a
// uniform *Error regardless of which internal package raised it.
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr
	}

	switch {
	case errors.Is(err, frame.ErrChecksumMismatch):
		return newError(KindChecksumMismatch, err)
	case errors.Is(err, frame.ErrBadMagic),
		errors.Is(err, frame.ErrUnsupportedVersion),
		errors.Is(err, frame.ErrUnknownHeaderFlag),
		errors.Is(err, frame.ErrTruncated),
		errors.Is(err, block.ErrBlockTooLarge),
		errors.Is(err, block.ErrMalformed),
		errors.Is(err, block.ErrUnknownType),
		errors.Is(err, block.ErrUnknownFlag):
		return newError(KindMalformedFrame, err)
	default:
		return newError(KindIO, err)
	}
}
