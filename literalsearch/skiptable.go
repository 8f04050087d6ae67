// Package literalsearch implements the CPU literal search engine: a
// Boyer-Moore-Horspool scanner with a 256-byte skip table, word-boundary
// validation, and line-wise invert-match / empty-pattern special cases.
package literalsearch

// SkipTable is a 256-entry Boyer-Moore-Horspool skip table: SkipTable[b] is
// the number of bytes to advance the scan window when the byte aligned with
// the pattern's last position is b and does not complete a match.
type SkipTable [256]byte

// BuildSkipTable constructs a BMH skip table for pattern.
//
// Algorithm:
//  1. Every entry defaults to min(len(pattern), 255).
//  2. For every byte at position i except the last, entry[pattern[i]] is set
//     to len(pattern)-1-i (distance from that byte to the window end).
//  3. The last pattern byte never updates the table — this forces a full
//     comparison on a tentative match instead of accepting on skip alone.
//  4. When caseInsensitive, both case-pair entries receive the same value so
//     a probe against either case lands on the correct skip distance.
func BuildSkipTable(pattern []byte, caseInsensitive bool) SkipTable {
	var table SkipTable
	n := len(pattern)

	def := n
	if def > 255 {
		def = 255
	}
	for i := range table {
		table[i] = byte(def)
	}

	for i := 0; i < n-1; i++ {
		dist := n - 1 - i
		if dist > 255 {
			dist = 255
		}
		b := pattern[i]
		table[b] = byte(dist)
		if caseInsensitive {
			if other, ok := caseSwap(b); ok {
				table[other] = byte(dist)
			}
		}
	}

	return table
}

// caseSwap returns the other-case partner of an ASCII letter.
func caseSwap(b byte) (byte, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 'A', true
	case b >= 'A' && b <= 'Z':
		return b - 'A' + 'a', true
	default:
		return 0, false
	}
}

// foldByte returns the lowercase ASCII fold of b.
func foldByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// foldPattern returns a case-folded copy of pattern, built once at
// Compile so the scan loop compares against pre-folded bytes.
func foldPattern(pattern []byte) []byte {
	out := make([]byte, len(pattern))
	for i, b := range pattern {
		out[i] = foldByte(b)
	}
	return out
}
