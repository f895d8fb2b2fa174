//go:build arm64

package cpuinfo

func detect() Features {
	// ARM64 has no AVX2 equivalent in the x/sys/cpu feature set we key
	// off; NEON's 128-bit lanes still make the comparison loop cheap.
	return Features{WideALU: true}
}
