package block

import "github.com/zxc-codec/zxc/internal/cpuinfo"

// matchEffort holds the hash-chain search parameters for one
// compression level. Levels only change how hard the matcher looks;
// the token grammar it emits is identical at every level.
type matchEffort struct {
	maxAttempts int
	lazy        bool
}

func effortForLevel(level Level) matchEffort {
	boost := cpuinfo.ChainDepthBoost()
	switch level.Clamp() {
	case 1:
		return matchEffort{maxAttempts: 4 * boost, lazy: false}
	case 2:
		return matchEffort{maxAttempts: 8 * boost, lazy: false}
	case 3:
		return matchEffort{maxAttempts: 16 * boost, lazy: true}
	case 4:
		return matchEffort{maxAttempts: 32 * boost, lazy: true}
	default: // 5
		return matchEffort{maxAttempts: 64 * boost, lazy: true}
	}
}

const (
	hashLog  = 16
	hashSize = 1 << hashLog
	hashMask = hashSize - 1
)

// hashChainMatcher finds byte-string matches within a single block
// using a 4-byte rolling hash into a chain of prior occurrences. Offsets
// only ever point backward within the same block: blocks are
// self-contained, per the no-cross-block-dictionary non-goal.
type hashChainMatcher struct {
	buf        []byte
	hashTable  [hashSize]int32
	chainTable []int32
	effort     matchEffort
	pos        int
}

func newHashChainMatcher(src []byte, effort matchEffort) *hashChainMatcher {
	m := &hashChainMatcher{
		buf:        src,
		chainTable: make([]int32, len(src)),
		effort:     effort,
	}
	for i := range m.hashTable {
		m.hashTable[i] = -1
	}
	for i := range m.chainTable {
		m.chainTable[i] = -1
	}
	return m
}

func (m *hashChainMatcher) hash4(pos int) uint32 {
	v := uint32(m.buf[pos]) | uint32(m.buf[pos+1])<<8 | uint32(m.buf[pos+2])<<16 | uint32(m.buf[pos+3])<<24
	return (v * 2654435761) >> (32 - hashLog) & hashMask
}

func (m *hashChainMatcher) insert(pos int) {
	if pos+MinMatch > len(m.buf) {
		return
	}
	h := m.hash4(pos)
	m.chainTable[pos] = m.hashTable[h]
	m.hashTable[h] = int32(pos)
}

// findMatch searches for the longest match at pos, returning its
// (offset, length) or (0, 0) if nothing reaches MinMatch. It does not
// mutate the tables; callers insert explicitly via insert so that lazy
// matching can look one byte ahead without corrupting state.
func (m *hashChainMatcher) findMatch(pos int) (offset, length int) {
	end := len(m.buf)
	if pos+MinMatch > end {
		return 0, 0
	}

	h := m.hash4(pos)
	current := m.hashTable[h]
	attempts := m.effort.maxAttempts
	bestLen := 0
	bestOff := 0

	for current >= 0 && attempts > 0 {
		attempts--
		c := int(current)
		if pos-c > 0xFFFF {
			break // beyond what a 2-byte offset can address
		}

		if m.buf[c] == m.buf[pos] && m.buf[c+1] == m.buf[pos+1] &&
			m.buf[c+2] == m.buf[pos+2] && m.buf[c+3] == m.buf[pos+3] {
			l := 4
			maxLen := end - pos
			for l < maxLen && m.buf[c+l] == m.buf[pos+l] {
				l++
			}
			if l > bestLen {
				bestLen = l
				bestOff = pos - c
				if l >= maxLen {
					break
				}
			}
		}
		current = m.chainTable[c]
	}

	if bestLen >= MinMatch {
		return bestOff, bestLen
	}
	return 0, 0
}
