package backend

import "github.com/coregx/grepcore/matchset"

// InvertFromMatches turns a set of forward match records (as produced by a
// kernel run with the invert flag off) into invert-match
// result: one synthetic whole-line record per line that contains none of
// the given matches. Both GPU backends share this helper rather than
// teaching their kernels a second code path, since the host already has
// the full match set in hand after a kernel dispatch completes.
func InvertFromMatches(text []byte, matches []matchset.MatchRecord) matchset.SearchResult {
	matchedLines := make(map[uint32]bool, len(matches))
	for _, m := range matches {
		matchedLines[m.LineStart] = true
	}

	var records []matchset.MatchRecord
	var total uint64
	start := 0
	n := len(text)
	for start < n {
		end := start
		for end < n && text[end] != '\n' {
			end++
		}
		if !matchedLines[uint32(start)] {
			total++
			records = append(records, matchset.MatchRecord{
				Position:  uint32(start),
				MatchLen:  uint32(end - start),
				LineStart: uint32(start),
			})
		}
		start = end + 1
	}

	return matchset.SearchResult{Matches: records, TotalMatches: total}
}
