package block

import (
	"sort"

	"github.com/zxc-codec/zxc/internal/bitio"
)

// maxHuffmanLen bounds the canonical code length the builder will ever
// produce. A block can hold at most block.Max symbol occurrences, and
// the minimum total weight a Huffman tree of depth d can be built from
// grows like the Fibonacci sequence, so depth is bounded well under
// this limit for any block this codec will ever see; it exists purely
// as a sanity backstop against pathological input.
const maxHuffmanLen = 31

// huffmanCode is one symbol's canonical code.
type huffmanCode struct {
	length uint8
	code   uint32
}

// reverseBits reverses the low length bits of v. canonicalDecoder
// accumulates incoming bits as code = code<<1|bit, i.e. it expects a
// code's most significant bit first; bitio.BitWriter.Write emits its
// argument least-significant-bit first, so callers writing a
// huffmanCode must reverse it before handing it to Write.
func reverseBits(v uint32, length uint8) uint32 {
	var rev uint32
	for i := uint8(0); i < length; i++ {
		rev = rev<<1 | (v & 1)
		v >>= 1
	}
	return rev
}

// buildHuffmanLengths runs a textbook Huffman construction over a
// 256-bucket frequency histogram and returns one code length per
// symbol (0 for symbols absent from the block). It returns ok=false if
// the resulting tree would need more than maxHuffmanLen bits for any
// symbol.
func buildHuffmanLengths(freq [256]int) (lengths [256]uint8, ok bool) {
	type node struct {
		weight      int
		left, right int // child indices into nodes, -1 if leaf
		symbol      int // valid only when left == -1
	}

	var nodes []node
	for sym, f := range freq {
		if f > 0 {
			nodes = append(nodes, node{weight: f, left: -1, right: -1, symbol: sym})
		}
	}

	switch len(nodes) {
	case 0:
		return lengths, true
	case 1:
		lengths[nodes[0].symbol] = 1
		return lengths, true
	}

	// active holds indices of nodes not yet merged into a parent,
	// kept sorted by weight (stable, lowest first).
	active := make([]int, len(nodes))
	for i := range active {
		active[i] = i
	}

	for len(active) > 1 {
		sort.SliceStable(active, func(i, j int) bool {
			return nodes[active[i]].weight < nodes[active[j]].weight
		})
		a, b := active[0], active[1]
		parent := node{weight: nodes[a].weight + nodes[b].weight, left: a, right: b}
		nodes = append(nodes, parent)
		active = append([]int{len(nodes) - 1}, active[2:]...)
	}

	root := active[0]
	var walk func(idx int, depth uint8) bool
	walk = func(idx int, depth uint8) bool {
		n := nodes[idx]
		if n.left == -1 {
			d := depth
			if d == 0 {
				d = 1 // single-path root edge case
			}
			if d > maxHuffmanLen {
				return false
			}
			lengths[n.symbol] = d
			return true
		}
		return walk(n.left, depth+1) && walk(n.right, depth+1)
	}
	if !walk(root, 0) {
		return lengths, false
	}
	return lengths, true
}

// assignCanonicalCodes derives canonical codes from a length table: for
// each length in increasing order, symbols (in ascending symbol order)
// receive consecutive code values, and the code shifts left between
// length groups. This matches the classic canonical-Huffman
// construction and is exactly what the decoder reconstructs from the
// lengths alone.
func assignCanonicalCodes(lengths [256]uint8) map[int]huffmanCode {
	var maxLen uint8
	countByLen := make(map[uint8]int)
	for _, l := range lengths {
		if l > 0 {
			countByLen[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}

	firstCode := make(map[uint8]uint32)
	var code uint32
	for l := uint8(1); l <= maxLen; l++ {
		firstCode[l] = code
		code = (code + uint32(countByLen[l])) << 1
	}

	next := make(map[uint8]uint32, len(firstCode))
	for l, c := range firstCode {
		next[l] = c
	}

	codes := make(map[int]huffmanCode)
	for sym := 0; sym < 256; sym++ {
		l := lengths[sym]
		if l == 0 {
			continue
		}
		codes[sym] = huffmanCode{length: l, code: next[l]}
		next[l]++
	}
	return codes
}

// canonicalDecoder supports the sequential bit-at-a-time canonical
// decode: for each length, it tracks the first code of that length and
// the running count of shorter-length symbols, so a partial code can be
// checked against the span of valid codes at each length as bits
// arrive.
type canonicalDecoder struct {
	maxLen      uint8
	firstCode   [maxHuffmanLen + 2]uint32
	firstSymIdx [maxHuffmanLen + 2]int
	symbolsByLen []int // symbols ordered by (length, symbol), grouped contiguously
}

func newCanonicalDecoder(lengths [256]uint8) *canonicalDecoder {
	d := &canonicalDecoder{}
	countByLen := make(map[uint8]int)
	for _, l := range lengths {
		if l > 0 {
			countByLen[l]++
			if l > d.maxLen {
				d.maxLen = l
			}
		}
	}

	var code uint32
	idx := 0
	for l := uint8(1); l <= d.maxLen; l++ {
		d.firstCode[l] = code
		d.firstSymIdx[l] = idx
		idx += countByLen[l]
		code = (code + uint32(countByLen[l])) << 1
	}

	d.symbolsByLen = make([]int, idx)
	cursor := make([]int, d.maxLen+1)
	for l := uint8(1); l <= d.maxLen; l++ {
		cursor[l] = d.firstSymIdx[l]
	}
	for sym := 0; sym < 256; sym++ {
		l := lengths[sym]
		if l == 0 {
			continue
		}
		d.symbolsByLen[cursor[l]] = sym
		cursor[l]++
	}
	return d
}

// decodeOne reads one symbol from r, or returns ok=false if the bits
// read never land inside a valid code's span (a corrupt stream).
func (d *canonicalDecoder) decodeOne(r *bitio.BitReader) (symbol int, ok bool) {
	if d.maxLen == 0 {
		return 0, false
	}
	var code uint32
	for l := uint8(1); l <= d.maxLen; l++ {
		r.Ensure(1)
		code = code<<1 | uint32(r.Read(1))

		count := 0
		if l < d.maxLen {
			count = d.firstSymIdx[l+1] - d.firstSymIdx[l]
		} else {
			count = len(d.symbolsByLen) - d.firstSymIdx[l]
		}
		if count > 0 && code >= d.firstCode[l] && code-d.firstCode[l] < uint32(count) {
			return d.symbolsByLen[d.firstSymIdx[l]+int(code-d.firstCode[l])], true
		}
	}
	return 0, false
}

// encodeLengths packs the 256-entry length table as (length, runLength-1)
// byte pairs, a compact descriptor for the common case where most
// lengths repeat in long runs (many absent symbols in a row, or a
// plateau of equally-likely ones).
func encodeLengths(lengths [256]uint8) []byte {
	var out []byte
	i := 0
	for i < 256 {
		v := lengths[i]
		run := 1
		for i+run < 256 && lengths[i+run] == v && run < 256 {
			run++
		}
		out = append(out, v, byte(run-1))
		i += run
	}
	return out
}

// decodeLengths is the inverse of encodeLengths. It consumes exactly as
// many bytes as needed to cover all 256 symbols and reports how many
// descriptor bytes it read.
func decodeLengths(buf []byte) (lengths [256]uint8, consumed int, err error) {
	i := 0
	filled := 0
	for filled < 256 {
		if i+2 > len(buf) {
			return lengths, 0, ErrMalformed
		}
		v := buf[i]
		run := int(buf[i+1]) + 1
		i += 2
		if filled+run > 256 {
			return lengths, 0, ErrMalformed
		}
		for j := 0; j < run; j++ {
			lengths[filled+j] = v
		}
		filled += run
	}
	return lengths, i, nil
}
