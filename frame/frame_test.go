package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zxc-codec/zxc/block"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := Header{Version: Version, Checksum: true}
	require.NoError(t, WriteHeader(&buf, h))
	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("ABC\x01\x00\x00\x00\x00")))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadHeaderRejectsUnsupportedVersion(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("ZXC\x09\x00\x00\x00\x00")))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestReadHeaderRejectsUnknownFlag(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte{'Z', 'X', 'C', Version, 0x02, 0, 0, 0}))
	require.ErrorIs(t, err, ErrUnknownHeaderFlag)
}

func TestReadHeaderRejectsTruncated(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("ZX")))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestRecordRoundTripNoChecksum(t *testing.T) {
	src := bytes.Repeat([]byte("hello frame world "), 50)
	enc := block.Encode(src, block.DefaultLevel)

	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, enc, src, false))

	rec, isTerm, err := ReadRecord(&buf, false)
	require.NoError(t, err)
	require.False(t, isTerm)
	require.Equal(t, enc.Type, rec.Type)
	require.Equal(t, enc.Params, rec.Params)
	require.Equal(t, len(src), rec.UncompressedLen)
	require.Equal(t, enc.Payload, rec.Payload)
	require.False(t, rec.HasChecksum)

	decoded, err := block.Decode(rec.Type, rec.Params, rec.Payload, rec.UncompressedLen)
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, decoded))
	require.NoError(t, rec.Verify(decoded))
}

func TestRecordRoundTripWithChecksum(t *testing.T) {
	src := bytes.Repeat([]byte("CHECKSUMCHECKSUM"), 200)
	enc := block.Encode(src, block.DefaultLevel)

	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, enc, src, true))

	rec, isTerm, err := ReadRecord(&buf, true)
	require.NoError(t, err)
	require.False(t, isTerm)
	require.True(t, rec.HasChecksum)

	decoded, err := block.Decode(rec.Type, rec.Params, rec.Payload, rec.UncompressedLen)
	require.NoError(t, err)
	require.NoError(t, rec.Verify(decoded))
}

func TestRecordVerifyDetectsTamperedPayload(t *testing.T) {
	src := bytes.Repeat([]byte("tamper me please "), 100)
	enc := block.Encode(src, block.DefaultLevel)

	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, enc, src, true))

	raw := buf.Bytes()
	raw[recordHeaderSize] ^= 0xFF // flip a payload byte

	rec, _, err := ReadRecord(bytes.NewReader(raw), true)
	require.NoError(t, err)
	decoded, decErr := block.Decode(rec.Type, rec.Params, rec.Payload, rec.UncompressedLen)
	if decErr != nil {
		return // a malformed payload is an acceptable detection outcome too
	}
	require.Error(t, rec.Verify(decoded))
}

func TestTerminatorRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTerminator(&buf))
	_, isTerm, err := ReadRecord(&buf, false)
	require.NoError(t, err)
	require.True(t, isTerm)
}

func TestReadRecordRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	enc := block.Encode(bytes.Repeat([]byte("xyz"), 50), block.DefaultLevel)
	require.NoError(t, WriteRecord(&buf, enc, nil, false))

	truncated := buf.Bytes()[:buf.Len()-1]
	_, _, err := ReadRecord(bytes.NewReader(truncated), false)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadRecordRejectsOversizedLength(t *testing.T) {
	var hdr [recordHeaderSize]byte
	hdr[0] = byte(block.RAW)
	hdr[1] = 0xFF
	hdr[2] = 0xFF
	hdr[3] = 0xFF
	hdr[4] = 0xFF
	_, _, err := ReadRecord(bytes.NewReader(hdr[:]), false)
	require.ErrorIs(t, err, block.ErrBlockTooLarge)
}

func TestReadRecordRejectsUnknownFlagBit(t *testing.T) {
	var hdr [recordHeaderSize]byte
	hdr[0] = byte(block.RAW) | (1 << 4)
	_, _, err := ReadRecord(bytes.NewReader(hdr[:]), false)
	require.Error(t, err)
}

func TestStreamOfRecordsAndTerminator(t *testing.T) {
	blocks := [][]byte{
		bytes.Repeat([]byte("a"), 20),
		bytes.Repeat([]byte("bc"), 300),
		[]byte("tiny"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, Header{Version: Version, Checksum: true}))
	for _, b := range blocks {
		enc := block.Encode(b, block.DefaultLevel)
		require.NoError(t, WriteRecord(&buf, enc, b, true))
	}
	require.NoError(t, WriteTerminator(&buf))

	h, err := ReadHeader(&buf)
	require.NoError(t, err)
	require.True(t, h.Checksum)

	var got [][]byte
	for {
		rec, isTerm, err := ReadRecord(&buf, h.Checksum)
		require.NoError(t, err)
		if isTerm {
			break
		}
		decoded, err := block.Decode(rec.Type, rec.Params, rec.Payload, rec.UncompressedLen)
		require.NoError(t, err)
		require.NoError(t, rec.Verify(decoded))
		got = append(got, decoded)
	}

	require.Len(t, got, len(blocks))
	for i, b := range blocks {
		require.True(t, bytes.Equal(b, got[i]))
	}
}
