package matchset

// Searcher runs a single pattern/options search over text and returns raw
// (unaggregated) matches. dispatch.Dispatcher and the CPU engines implement
// this shape; UnionPatterns stays agnostic of which backend produced them.
type Searcher func(text []byte, patternIdx int) (SearchResult, error)

// UnionPatterns runs search once per pattern, keeps only the first record
// seen for each line (by LineStart), and returns the union sorted by
// LineStart. This mimics grep's `-e p1 -e p2`.
func UnionPatterns(text []byte, numPatterns int, search Searcher) (SearchResult, error) {
	seen := make(map[uint32]struct{})
	var all []MatchRecord
	var total uint64

	for idx := 0; idx < numPatterns; idx++ {
		res, err := search(text, idx)
		if err != nil {
			return SearchResult{}, err
		}
		total += res.TotalMatches
		for _, rec := range res.Matches {
			if _, dup := seen[rec.LineStart]; dup {
				continue
			}
			seen[rec.LineStart] = struct{}{}
			rec.PatternIdx = uint32(idx)
			all = append(all, rec)
		}
	}

	aggregated := Aggregate(text, all, true)
	return SearchResult{Matches: aggregated, TotalMatches: total}, nil
}
