// Package pipeline runs the ZXC compress/decompress transform as a
// dispatcher/worker-pool/writer pipeline: one goroutine partitions the
// source (or parses records, on decode) into sequence-numbered units,
// a pool of goroutines performs the CPU-bound block transform, and the
// calling goroutine reassembles results in strict sequence order before
// writing them to the sink.
package pipeline

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zxc-codec/zxc/block"
	"github.com/zxc-codec/zxc/frame"
)

// queueFactor sets how many pending units each worker may have
// buffered ahead of it, bounding memory use to O(workers *
// queueFactor) blocks regardless of input size.
const queueFactor = 2

// ErrFailed names an aborted pipeline run. Compress and Decompress do
// not return it: when a run aborts they return the first error
// encountered (I/O or a malformed frame) as is.
var ErrFailed = errors.New("pipeline: aborted")

// Logger receives optional diagnostic events from a pipeline run: the
// worker count chosen, a stream aborting partway through. Compress and
// Decompress never require one.
type Logger interface {
	Debugf(format string, args ...any)
}

// Option configures optional pipeline behavior, applied by Compress
// and Decompress before they start their worker pool.
type Option func(*config)

// WithLogger routes a run's lifecycle events to l instead of
// discarding them.
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

type config struct {
	logger Logger
}

// debugf is a no-op when no Logger was supplied via WithLogger.
func (c *config) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// normalizeWorkers maps T<=0 to the host's CPU count, per the spec's
// "0 or negative means auto" rule, with a floor of one worker so the
// queue machinery is always exercised even in degenerate single-thread
// mode.
func normalizeWorkers(t int) int {
	if t <= 0 {
		t = runtime.NumCPU()
	}
	if t < 1 {
		t = 1
	}
	return t
}

type compressJob struct {
	seq  int
	data []byte
}

type compressResult struct {
	seq      int
	encoded  block.Encoded
	original []byte
}

// failureTracker is shared by the dispatcher, every worker, and the
// writer so that the first error anywhere flips a single flag: workers
// finish their in-flight block and stop picking up new ones, and the
// writer stops emitting once it observes the flag.
type failureTracker struct {
	failed atomic.Bool
	once   sync.Once
	err    error
}

func (f *failureTracker) fail(err error) {
	if err == nil {
		return
	}
	f.once.Do(func() { f.err = err })
	f.failed.Store(true)
}

func (f *failureTracker) isFailed() bool { return f.failed.Load() }

// Compress reads src to exhaustion, splitting it into block.Max-sized
// chunks, compresses each at level across numWorkers goroutines, and
// writes a complete ZXC stream (header, records in input order,
// terminator) to dst. It returns the number of input bytes consumed.
func Compress(dst io.Writer, src io.Reader, numWorkers int, level block.Level, withChecksum bool, opts ...Option) (int64, error) {
	cfg := newConfig(opts)
	numWorkers = normalizeWorkers(numWorkers)
	cfg.debugf("pipeline: compress starting, workers=%d level=%d checksum=%v", numWorkers, level, withChecksum)
	if err := frame.WriteHeader(dst, frame.Header{Version: frame.Version, Checksum: withChecksum}); err != nil {
		return 0, err
	}

	jobs := make(chan compressJob, numWorkers*queueFactor)
	results := make(chan compressResult, numWorkers*queueFactor)
	tracker := &failureTracker{}

	var workers sync.WaitGroup
	workers.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer workers.Done()
			for job := range jobs {
				if tracker.isFailed() {
					continue
				}
				enc := block.Encode(job.data, level)
				results <- compressResult{seq: job.seq, encoded: enc, original: job.data}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	var total atomic.Int64
	dispatchDone := make(chan struct{})
	go func() {
		defer close(jobs)
		defer close(dispatchDone)
		buf := make([]byte, block.Max)
		seq := 0
		for {
			if tracker.isFailed() {
				return
			}
			n, err := io.ReadFull(src, buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				jobs <- compressJob{seq: seq, data: chunk}
				seq++
				total.Add(int64(n))
			}
			switch {
			case err == io.EOF, err == io.ErrUnexpectedEOF:
				return
			case err != nil:
				tracker.fail(err)
				return
			}
		}
	}()

	pending := make(map[int]compressResult)
	next := 0
	for res := range results {
		pending[res.seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if tracker.isFailed() {
				continue
			}
			if err := frame.WriteRecord(dst, r.encoded, r.original, withChecksum); err != nil {
				tracker.fail(err)
			}
		}
	}
	<-dispatchDone

	if tracker.isFailed() {
		cfg.debugf("pipeline: compress aborted after %d bytes: %v", total.Load(), tracker.err)
		return total.Load(), tracker.err
	}
	if err := frame.WriteTerminator(dst); err != nil {
		return total.Load(), err
	}
	cfg.debugf("pipeline: compress finished, %d bytes read", total.Load())
	return total.Load(), nil
}

type decodeJob struct {
	seq int
	rec frame.Record
}

type decodeResult struct {
	seq  int
	data []byte
	err  error
}

// Decompress parses a ZXC stream from src, decodes each record's block
// across numWorkers goroutines, and writes the reconstructed bytes to
// dst in order. It returns the number of output bytes written.
//
// Record parsing itself is inherently sequential (each record's offset
// follows the last), so only the CPU-bound block.Decode call is
// parallelized; the dispatcher goroutine here plays the role of a fast
// sequential reader feeding the worker pool.
func Decompress(dst io.Writer, src io.Reader, numWorkers int, opts ...Option) (int64, error) {
	cfg := newConfig(opts)
	numWorkers = normalizeWorkers(numWorkers)
	cfg.debugf("pipeline: decompress starting, workers=%d", numWorkers)
	h, err := frame.ReadHeader(src)
	if err != nil {
		return 0, err
	}

	jobs := make(chan decodeJob, numWorkers*queueFactor)
	results := make(chan decodeResult, numWorkers*queueFactor)
	tracker := &failureTracker{}

	var workers sync.WaitGroup
	workers.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer workers.Done()
			for job := range jobs {
				if tracker.isFailed() {
					continue
				}
				decoded, err := block.Decode(job.rec.Type, job.rec.Params, job.rec.Payload, job.rec.UncompressedLen)
				if err == nil {
					err = job.rec.Verify(decoded)
				}
				results <- decodeResult{seq: job.seq, data: decoded, err: err}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(jobs)
		defer close(dispatchDone)
		seq := 0
		for {
			if tracker.isFailed() {
				return
			}
			rec, isTerm, err := frame.ReadRecord(src, h.Checksum)
			if err != nil {
				tracker.fail(err)
				return
			}
			if isTerm {
				return
			}
			jobs <- decodeJob{seq: seq, rec: rec}
			seq++
		}
	}()

	var total atomic.Int64
	pending := make(map[int]decodeResult)
	next := 0
	for res := range results {
		pending[res.seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if tracker.isFailed() {
				continue
			}
			if r.err != nil {
				tracker.fail(r.err)
				continue
			}
			if len(r.data) > 0 {
				if _, err := dst.Write(r.data); err != nil {
					tracker.fail(err)
					continue
				}
			}
			total.Add(int64(len(r.data)))
		}
	}
	<-dispatchDone

	if tracker.isFailed() {
		cfg.debugf("pipeline: decompress aborted after %d bytes: %v", total.Load(), tracker.err)
		return total.Load(), tracker.err
	}
	cfg.debugf("pipeline: decompress finished, %d bytes written", total.Load())
	return total.Load(), nil
}
