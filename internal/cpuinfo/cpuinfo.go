// Package cpuinfo exposes the CPU feature bits that the LZ matcher
// uses to scale search effort. Detection never changes
// the on-wire format, only how hard the encoder looks for matches.
package cpuinfo

import "sync"

// Features summarizes the vector extensions available on the current
// CPU.
type Features struct {
	WideALU bool // 64-bit-wide comparisons are cheap (true on amd64/arm64)
	AVX2    bool
}

var (
	once   sync.Once
	cached Features
)

// Detect returns the detected feature set, probing the hardware at most
// once per process.
func Detect() Features {
	once.Do(func() {
		cached = detect()
	})
	return cached
}

// ChainDepthBoost returns a multiplier applied to the hash-chain search
// depth at a given compression level: 2 when AVX2 is available, 1
// otherwise (WideALU alone does not raise it).
func ChainDepthBoost() int {
	f := Detect()
	switch {
	case f.AVX2:
		return 2
	case f.WideALU:
		return 1
	default:
		return 1
	}
}
