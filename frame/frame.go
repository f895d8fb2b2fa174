// Package frame implements the ZXC wire format: the stream header, the
// per-block record layout, and the end-of-stream terminator. It knows
// nothing about how a block's payload was produced — that's the block
// package's job — only how to lay the bytes out and read them back.
package frame

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/zxc-codec/zxc/block"
	"github.com/zxc-codec/zxc/internal/checksum"
)

// Version is the single on-wire format version this package writes and
// the only one it accepts on read.
const Version uint8 = 1

// flagChecksum is the stream header bit meaning every record carries a
// trailing 32-bit checksum of its original (pre-compression) bytes.
const flagChecksum = 1 << 0

// tagTerminator is the full tag byte (both nibbles set) marking
// end-of-stream. It is never a valid (type, flags) combination for a
// real block, since block.Terminator never appears as a stored type.
const tagTerminator = 0xFF

const headerSize = 7
const recordHeaderSize = 9
const checksumSize = 4

var (
	// ErrBadMagic is returned when a stream does not begin with "ZXC".
	ErrBadMagic = errors.New("frame: bad magic")
	// ErrUnsupportedVersion is returned when the header's version byte
	// does not match Version.
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	// ErrUnknownHeaderFlag is returned when the header's flags byte sets
	// a bit this package does not define.
	ErrUnknownHeaderFlag = errors.New("frame: unknown header flag")
	// ErrTruncated is returned when the source ends in the middle of a
	// record.
	ErrTruncated = errors.New("frame: truncated record")
	// ErrChecksumMismatch is returned by Record.Verify when the decoded
	// bytes do not hash to the record's stored checksum.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

// Header is the stream-level preamble, written exactly once.
type Header struct {
	Version  uint8
	Checksum bool
}

func (h Header) flags() uint8 {
	if h.Checksum {
		return flagChecksum
	}
	return 0
}

// WriteHeader writes h's wire representation to w.
func WriteHeader(w io.Writer, h Header) error {
	var buf [headerSize]byte
	buf[0], buf[1], buf[2] = 'Z', 'X', 'C'
	buf[3] = h.Version
	buf[4] = h.flags()
	_, err := w.Write(buf[:])
	return err
}

// ReadHeader reads and validates a stream header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, ErrBadMagic
		}
		return Header{}, err
	}
	if buf[0] != 'Z' || buf[1] != 'X' || buf[2] != 'C' {
		return Header{}, ErrBadMagic
	}
	if buf[3] != Version {
		return Header{}, ErrUnsupportedVersion
	}
	flags := buf[4]
	if flags&^uint8(flagChecksum) != 0 {
		return Header{}, ErrUnknownHeaderFlag
	}
	// buf[5:7] (reserved) is accepted regardless of content, per the
	// wire format's forward-compatibility stance on unclaimed bits
	// outside the flags byte.
	return Header{Version: buf[3], Checksum: flags&flagChecksum != 0}, nil
}

// Record is one decoded block record: the fields the block package
// needs to invert the payload, plus the checksum if the stream carries
// one.
type Record struct {
	Type            block.Type
	Params          block.Params
	UncompressedLen int
	Payload         []byte
	HasChecksum     bool
	Checksum        uint32
}

// Verify checks decoded (the bytes block.Decode produced for this
// record) against the record's stored checksum. It is a no-op
// returning nil when the stream carries no checksums.
func (r Record) Verify(decoded []byte) error {
	if !r.HasChecksum {
		return nil
	}
	if checksum.Hash32(decoded) != r.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// WriteRecord writes one block record to w. original is the
// pre-compression block bytes, needed only to compute the trailing
// checksum when withChecksum is set.
func WriteRecord(w io.Writer, enc block.Encoded, original []byte, withChecksum bool) error {
	var hdr [recordHeaderSize]byte
	hdr[0] = byte(enc.Type) | enc.Params.Flags(enc.Type)<<4
	binary.LittleEndian.PutUint32(hdr[1:5], uint32(len(original)))
	binary.LittleEndian.PutUint32(hdr[5:9], uint32(len(enc.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(enc.Payload) > 0 {
		if _, err := w.Write(enc.Payload); err != nil {
			return err
		}
	}
	if withChecksum {
		var c [checksumSize]byte
		binary.LittleEndian.PutUint32(c[:], checksum.Hash32(original))
		if _, err := w.Write(c[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTerminator writes the end-of-stream marker to w.
func WriteTerminator(w io.Writer) error {
	var hdr [recordHeaderSize]byte
	hdr[0] = tagTerminator
	_, err := w.Write(hdr[:])
	return err
}

// ReadRecord reads one record from r. isTerminator is true (with a
// zero Record) when the terminator was read instead of a block record.
func ReadRecord(r io.Reader, withChecksum bool) (rec Record, isTerminator bool, err error) {
	var hdr [recordHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return Record{}, false, io.ErrUnexpectedEOF
		}
		return Record{}, false, err
	}
	if hdr[0] == tagTerminator {
		return Record{}, true, nil
	}

	typ := block.Type(hdr[0] & 0x0F)
	flags := hdr[0] >> 4
	params, err := block.ParamsFromFlags(typ, flags)
	if err != nil {
		return Record{}, false, err
	}

	ulen := binary.LittleEndian.Uint32(hdr[1:5])
	clen := binary.LittleEndian.Uint32(hdr[5:9])
	if ulen > block.Max {
		return Record{}, false, block.ErrBlockTooLarge
	}

	payload := make([]byte, clen)
	if clen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Record{}, false, ErrTruncated
		}
	}

	rec = Record{
		Type:            typ,
		Params:          params,
		UncompressedLen: int(ulen),
		Payload:         payload,
	}

	if withChecksum {
		var c [checksumSize]byte
		if _, err := io.ReadFull(r, c[:]); err != nil {
			return Record{}, false, ErrTruncated
		}
		rec.HasChecksum = true
		rec.Checksum = binary.LittleEndian.Uint32(c[:])
	}

	return rec, false, nil
}
