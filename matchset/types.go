// Package matchset defines the common result model shared by every search
// backend (CPU, Metal, Vulkan): the match record shape, the search options
// every backend must honor identically, and the aggregation logic that turns
// backend-specific output into a single ordered, deduplicated result.
package matchset

// SearchOptions configures a single search. The same SearchOptions produces
// the same match set regardless of which backend executes it.
type SearchOptions struct {
	// CaseInsensitive folds ASCII case (A-Z <-> a-z only) before comparing.
	CaseInsensitive bool

	// WordBoundary requires that neither byte adjacent to a match be a word
	// character ([A-Za-z0-9_]).
	WordBoundary bool

	// InvertMatch selects lines that do NOT contain a match, instead of
	// occurrences that do.
	InvertMatch bool

	// FixedString treats the pattern as literal bytes, disabling regex
	// interpretation entirely.
	FixedString bool

	// Extended selects ERE syntax when regex is active. When false and
	// FixedString is false, BRE syntax is used.
	Extended bool

	// Perl routes the pattern through the external PCRE adapter instead of
	// the built-in compiler/engine.
	Perl bool
}

// IsWordByte reports whether b is a word character: [A-Za-z0-9_].
func IsWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// MatchRecord is the common match representation produced by every backend.
//
// Invariants:
//   - LineStart <= Position <= Position+MatchLen <= len(text)
//   - two records on the same line share LineStart
//   - MatchLen == 0 only for synthetic line-records (invert-match, empty pattern)
//   - if LineNum > 0, LineNum-1 equals the number of newlines strictly before LineStart
type MatchRecord struct {
	Position   uint32
	MatchLen   uint32
	LineStart  uint32
	LineNum    uint32 // 0 means "unset; compute lazily"
	PatternIdx uint32
}

// End returns Position + MatchLen.
func (m MatchRecord) End() uint32 { return m.Position + m.MatchLen }

// SearchResult is an owned sequence of match records plus the true match
// count, which may exceed len(Matches) when a backend truncates output at
// its implementation cap (the GPU 1,000,000-record ceiling, see gpuproto).
type SearchResult struct {
	Matches      []MatchRecord
	TotalMatches uint64
}

// Truncated reports whether TotalMatches exceeds the number of records
// actually returned.
func (r SearchResult) Truncated() bool {
	return r.TotalMatches > uint64(len(r.Matches))
}
