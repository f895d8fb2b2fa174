package bitio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 3, 7, 15, 31, 63, 127, 255, 12345}
	dst := make([]byte, 64)
	n := BitPackStream(values, dst, 14)
	require.NotZero(t, n)

	r := NewBitReader(dst[:n])
	for _, want := range values {
		r.Ensure(14)
		got := uint32(r.Read(14))
		require.Equal(t, want&((1<<14)-1), got)
	}
}

func TestBitPackStreamShortBuffer(t *testing.T) {
	dst := make([]byte, 1)
	n := BitPackStream([]uint32{1, 2, 3, 4, 5}, dst, 8)
	require.Zero(t, n)
}

func TestBitPackStream32Bits(t *testing.T) {
	values := []uint32{0xFFFFFFFF, 0, 0x12345678}
	dst := make([]byte, PackedLen(len(values), 32))
	n := BitPackStream(values, dst, 32)
	require.Equal(t, len(dst), n)

	r := NewBitReader(dst)
	for _, want := range values {
		r.Ensure(32)
		require.Equal(t, want, uint32(r.Read(32)))
	}
}

func TestBitReaderTailReadsAreZero(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	r.Ensure(8)
	require.Equal(t, uint64(0xFF), r.Read(8))
	// Reading beyond the exhausted source must not panic and yields zero.
	r.Ensure(32)
	require.Equal(t, uint64(0), r.Read(32))
}

func TestReadSignedSignExtension(t *testing.T) {
	dst := make([]byte, 4)
	w := NewBitWriter(dst)
	// -3 in 4-bit two's complement is 0b1101
	w.Write(0b1101, 4)
	w.Flush()

	r := NewBitReader(dst)
	r.Ensure(4)
	require.Equal(t, int32(-3), r.ReadSigned(4))
}

func TestLoadStoreLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	PutLE32(buf, 0xAABBCCDD)
	require.Equal(t, uint32(0xAABBCCDD), LE32(buf))

	PutLE64(buf, 0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), LE64(buf))
}
