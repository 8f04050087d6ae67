package dispatch

import (
	"github.com/coregx/grepcore/matchset"
)

// commonEnglishLetters are the set the "contains >= 3 common English
// letters" rule checks against, the classic ETAOIN SHRDLU frequency
// ordering also behind simd.ByteFrequencies' high ranks.
const commonEnglishLetters = "etaoinshrl"

// Score computes the additive workload score used to weigh GPU dispatch:
// a base GPU advantage, adjusted by text size, pattern length (the most
// specific length bucket wins), requested search options, and pattern
// rarity. The caller adds the result to cfg.GPUBias and compares against
// zero — Score itself does not apply the bias, so tests can exercise the
// rules in isolation.
func Score(pattern []byte, opts matchset.SearchOptions, textSize uint64, cfg Config) int {
	score := 3 // base GPU advantage

	if textSize >= 1<<20 {
		score++
	}
	if textSize >= 4<<20 {
		score++
	}

	n := len(pattern)
	switch {
	case n == 1:
		score += 6
	case n <= cfg.ShortPatternLen:
		score += 4
	case n >= 5 && n <= 7:
		score += 2
	case n >= cfg.LongPatternLen:
		score += 1
	}

	if opts.CaseInsensitive {
		score += 6
	}
	if opts.WordBoundary {
		score += 5
	}

	if countCommonLetters(pattern) >= 3 {
		score += 2
	}
	if isRarePattern(pattern) {
		score -= 3
	}

	return score
}

// countCommonLetters returns the number of distinct bytes in pattern
// (case-folded) that belong to commonEnglishLetters.
func countCommonLetters(pattern []byte) int {
	var seen [26]bool
	count := 0
	for _, b := range pattern {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if b < 'a' || b > 'z' {
			continue
		}
		idx := b - 'a'
		if seen[idx] {
			continue
		}
		for i := 0; i < len(commonEnglishLetters); i++ {
			if commonEnglishLetters[i] == b {
				seen[idx] = true
				count++
				break
			}
		}
	}
	return count
}

// isRarePattern flags patterns that favor running on CPU over GPU:
// all-uppercase identifiers of at least 8 bytes, or any pattern that
// contains a digit or an underscore — the GPU's per-byte scan gains the
// least when the pattern's bytes are already rare in ordinary text.
func isRarePattern(pattern []byte) bool {
	if len(pattern) >= 8 && isAllUpper(pattern) {
		return true
	}
	for _, b := range pattern {
		if b == '_' || (b >= '0' && b <= '9') {
			return true
		}
	}
	return false
}

func isAllUpper(pattern []byte) bool {
	hasLetter := false
	for _, b := range pattern {
		switch {
		case b >= 'A' && b <= 'Z':
			hasLetter = true
		case b == '_' || (b >= '0' && b <= '9'):
			// allowed inside an all-upper identifier
		default:
			return false
		}
	}
	return hasLetter
}
