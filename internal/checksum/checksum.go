// Package checksum computes the 32-bit per-block content hash used to
// detect frame corruption.
package checksum

import "github.com/cespare/xxhash/v2"

// Hash32 returns a 32-bit, well-avalanched hash of data, derived from
// the low 32 bits of xxHash64. It is used over the original block bytes
// before compression, never over the compressed payload.
func Hash32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}
