package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zxc-codec/zxc/block"
)

func TestCompressDecompressRoundTripVariousWorkerCounts(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 20000) // > one block
	for _, workers := range []int{0, 1, 2, 4, 8} {
		var compressed bytes.Buffer
		n, err := Compress(&compressed, bytes.NewReader(src), workers, block.DefaultLevel, true)
		require.NoError(t, err)
		require.EqualValues(t, len(src), n)

		var decompressed bytes.Buffer
		m, err := Decompress(&decompressed, bytes.NewReader(compressed.Bytes()), workers)
		require.NoError(t, err)
		require.EqualValues(t, len(src), m)
		require.True(t, bytes.Equal(src, decompressed.Bytes()), "worker count %d", workers)
	}
}

func TestCompressDecompressEmptyInput(t *testing.T) {
	var compressed bytes.Buffer
	n, err := Compress(&compressed, bytes.NewReader(nil), 2, block.DefaultLevel, false)
	require.NoError(t, err)
	require.Zero(t, n)

	var decompressed bytes.Buffer
	m, err := Decompress(&decompressed, bytes.NewReader(compressed.Bytes()), 2)
	require.NoError(t, err)
	require.Zero(t, m)
	require.Empty(t, decompressed.Bytes())
}

func TestCompressDeterministicAtOneWorker(t *testing.T) {
	src := bytes.Repeat([]byte("deterministic content, repeated. "), 5000)

	var a, b bytes.Buffer
	_, err := Compress(&a, bytes.NewReader(src), 1, block.DefaultLevel, true)
	require.NoError(t, err)
	_, err = Compress(&b, bytes.NewReader(src), 1, block.DefaultLevel, true)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a.Bytes(), b.Bytes()))
}

func TestCompressSpansMultipleBlocks(t *testing.T) {
	src := make([]byte, block.Max*3+777)
	for i := range src {
		src[i] = byte(i % 251)
	}

	var compressed bytes.Buffer
	_, err := Compress(&compressed, bytes.NewReader(src), 4, block.DefaultLevel, true)
	require.NoError(t, err)

	var decompressed bytes.Buffer
	_, err = Decompress(&decompressed, bytes.NewReader(compressed.Bytes()), 4)
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, decompressed.Bytes()))
}

type erroringReader struct{}

func (erroringReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestCompressPropagatesSourceError(t *testing.T) {
	var dst bytes.Buffer
	_, err := Compress(&dst, erroringReader{}, 2, block.DefaultLevel, false)
	require.Error(t, err)
}

type shortWriter struct{ n int }

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return len(p), nil
}

func TestCompressPropagatesSinkError(t *testing.T) {
	src := bytes.Repeat([]byte("abc"), 1000)
	_, err := Compress(&shortWriter{n: 4}, bytes.NewReader(src), 2, block.DefaultLevel, false)
	require.Error(t, err)
}

func TestDecompressDetectsChecksumMismatch(t *testing.T) {
	src := bytes.Repeat([]byte("checksum coverage data "), 500)
	var compressed bytes.Buffer
	_, err := Compress(&compressed, bytes.NewReader(src), 2, block.DefaultLevel, true)
	require.NoError(t, err)

	raw := compressed.Bytes()
	// Flip a byte inside the first record's payload, well past the header.
	raw[20] ^= 0xFF

	var decompressed bytes.Buffer
	_, err = Decompress(&decompressed, bytes.NewReader(raw), 2)
	require.Error(t, err)
}

func TestDecompressRejectsTruncatedStream(t *testing.T) {
	src := bytes.Repeat([]byte("truncate this stream "), 500)
	var compressed bytes.Buffer
	_, err := Compress(&compressed, bytes.NewReader(src), 2, block.DefaultLevel, false)
	require.NoError(t, err)

	truncated := compressed.Bytes()[:compressed.Len()-5]
	var decompressed bytes.Buffer
	_, err = Decompress(&decompressed, bytes.NewReader(truncated), 2)
	require.Error(t, err)
}

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestWithLoggerReceivesLifecycleEvents(t *testing.T) {
	src := bytes.Repeat([]byte("logged pipeline run "), 2000)

	var compressLog recordingLogger
	var compressed bytes.Buffer
	_, err := Compress(&compressed, bytes.NewReader(src), 2, block.DefaultLevel, true, WithLogger(&compressLog))
	require.NoError(t, err)
	require.NotEmpty(t, compressLog.lines)

	var decompressLog recordingLogger
	var decompressed bytes.Buffer
	_, err = Decompress(&decompressed, bytes.NewReader(compressed.Bytes()), 2, WithLogger(&decompressLog))
	require.NoError(t, err)
	require.NotEmpty(t, decompressLog.lines)
	require.True(t, bytes.Equal(src, decompressed.Bytes()))
}

func TestNormalizeWorkers(t *testing.T) {
	require.GreaterOrEqual(t, normalizeWorkers(0), 1)
	require.GreaterOrEqual(t, normalizeWorkers(-3), 1)
	require.Equal(t, 5, normalizeWorkers(5))
}
