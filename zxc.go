// Package zxc implements the ZXC block-oriented compression codec: a
// custom framed wire format built from five interchangeable block
// encoders (RAW, LZ, GHI, GLO, NUM) and a worker-pool pipeline that
// keeps output in strict input order regardless of how many goroutines
// did the compressing.
//
// Use Compress/Decompress for in-memory buffers, or StreamCompress/
// StreamDecompress to run the parallel pipeline directly against an
// io.Reader/io.Writer pair.
package zxc

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"github.com/zxc-codec/zxc/block"
	"github.com/zxc-codec/zxc/pipeline"
)

// perBlockOverhead is the worst case a single block record adds beyond
// its payload: the 9-byte record header, a trailing 4-byte checksum,
// and the handful of extra bytes an encoder might need over raw size
// before the selector falls back to RAW.
const perBlockOverhead = 9 + 4 + 16

const streamOverhead = 7 + 9 // header + terminator record

// Option configures optional streaming behavior. The only Option
// today is WithLogger; more can be added without breaking callers
// since StreamCompress/StreamDecompress take Option as a variadic tail
// argument.
type Option = pipeline.Option

// WithLogger routes a stream's lifecycle events (worker count chosen,
// a run aborting partway through) to l instead of discarding them. A
// nil Logger is equivalent to omitting WithLogger entirely.
func WithLogger(l Logger) Option {
	if l == nil {
		l = discardLogger
	}
	return pipeline.WithLogger(l)
}

// Compress compresses src into dst at the given level, returning the
// number of bytes written to dst. dst must be at least
// CompressBound(len(src)) bytes; a too-small dst is InvalidArgument.
func Compress(src, dst []byte, level int, checksum bool) (int, error) {
	bound, err := CompressBound(len(src))
	if err != nil {
		return 0, newError(KindOverflow, err)
	}
	if len(dst) < bound {
		return 0, newError(KindInvalidArgument, errDstTooSmall)
	}

	var buf bytes.Buffer
	buf.Grow(bound)
	if _, err := pipeline.Compress(&buf, bytes.NewReader(src), 1, block.Level(level).Clamp(), checksum); err != nil {
		return 0, classify(err)
	}
	return copy(dst, buf.Bytes()), nil
}

// Decompress decompresses src into dst, returning the number of bytes
// written. When requireChecksum is true, a stream that was written
// without per-block checksums is rejected as InvalidArgument rather
// than silently skipping verification.
func Decompress(src, dst []byte, requireChecksum bool) (int, error) {
	var out bytes.Buffer
	n, err := StreamDecompress(&out, bytes.NewReader(src), 1, requireChecksum)
	if err != nil {
		return 0, err
	}
	if int64(len(dst)) < n {
		return 0, newError(KindInvalidArgument, errDstTooSmall)
	}
	return copy(dst, out.Bytes()), nil
}

// CompressBound returns an upper bound on the compressed size of any
// input of length n: the stream header and terminator, plus n bytes of
// payload, plus per-block-record overhead for however many blocks n
// would be split into. It is monotonic non-decreasing in n, at least n
// for n>0, and positive for n=0 (an empty stream still has a header
// and terminator). It returns an overflow error rather than 0, since a
// 0 return with a nil error would be ambiguous with a genuine bound.
func CompressBound(n int) (int, error) {
	if n < 0 {
		return 0, newError(KindInvalidArgument, errNegativeLength)
	}
	numBlocks := 0
	if n > 0 {
		numBlocks = (n + block.Max - 1) / block.Max
	}

	total := int64(streamOverhead) + int64(n) + int64(numBlocks)*int64(perBlockOverhead)
	if total > math.MaxInt32 {
		return 0, newError(KindOverflow, errBoundOverflow)
	}
	return int(total), nil
}

// StreamCompress runs the parallel compress pipeline: it reads src to
// exhaustion and writes a complete ZXC stream to dst, using numThreads
// worker goroutines (0 or negative means auto-detect, minimum 1). It
// returns the number of input bytes consumed. Pass io.Discard as dst
// for a dry run that validates the input and reports its size without
// retaining output.
func StreamCompress(dst io.Writer, src io.Reader, numThreads, level int, checksum bool, opts ...Option) (int64, error) {
	n, err := pipeline.Compress(dst, src, numThreads, block.Level(level).Clamp(), checksum, opts...)
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}

// StreamDecompress runs the parallel decompress pipeline against src,
// writing reconstructed bytes to dst in order. requireChecksum rejects
// a stream that was not written with per-block checksums, since a
// caller asking for verification presumably wants a hard guarantee
// rather than a silent downgrade. Pass io.Discard as dst for a dry
// run.
func StreamDecompress(dst io.Writer, src io.Reader, numThreads int, requireChecksum bool, opts ...Option) (int64, error) {
	if requireChecksum {
		br := bufio.NewReader(src)
		header, err := br.Peek(7)
		if err != nil {
			return 0, newError(KindMalformedFrame, err)
		}
		const flagChecksum = 1 << 0
		if header[4]&flagChecksum == 0 {
			return 0, newError(KindInvalidArgument, errChecksumRequired)
		}
		src = br
	}
	n, err := pipeline.Decompress(dst, src, numThreads, opts...)
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}
