//go:build amd64

package cpuinfo

import "golang.org/x/sys/cpu"

func detect() Features {
	return Features{
		WideALU: true,
		AVX2:    cpu.X86.HasAVX2,
	}
}
