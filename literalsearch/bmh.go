package literalsearch

import (
	"errors"
	"fmt"

	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/simd"
)

// MaxPatternLen is the largest literal pattern this engine accepts:
// length 1..256 inclusive.
const MaxPatternLen = 256

// ErrPatternTooLong is a configuration error: the pattern exceeds MaxPatternLen.
var ErrPatternTooLong = errors.New("literalsearch: pattern exceeds 256 bytes")

// Engine is a compiled Boyer-Moore-Horspool literal scanner.
type Engine struct {
	pattern         []byte // original bytes
	folded          []byte // case-folded bytes, used for comparisons when caseInsensitive
	skip            SkipTable
	caseInsensitive bool
	wordBoundary    bool
}

// Compile builds an Engine for pattern under the given case-folding /
// word-boundary options. pattern may be empty (Search then emits one
// zero-length record per line) and must be at most MaxPatternLen bytes.
func Compile(pattern []byte, caseInsensitive, wordBoundary bool) (*Engine, error) {
	if len(pattern) > MaxPatternLen {
		return nil, fmt.Errorf("%w: got %d bytes", ErrPatternTooLong, len(pattern))
	}

	e := &Engine{
		pattern:         pattern,
		caseInsensitive: caseInsensitive,
		wordBoundary:    wordBoundary,
	}
	if caseInsensitive {
		e.folded = foldPattern(pattern)
		e.skip = BuildSkipTable(e.folded, true)
	} else {
		e.skip = BuildSkipTable(pattern, false)
	}
	return e, nil
}

// compareBytes returns the bytes the scan loop should compare windows
// against: the case-folded pattern when case-insensitive, else the literal.
func (e *Engine) compareBytes() []byte {
	if e.caseInsensitive {
		return e.folded
	}
	return e.pattern
}

// Search runs the literal engine over text and returns matches.
func (e *Engine) Search(text []byte, invert bool) matchset.SearchResult {
	if len(e.pattern) == 0 {
		return searchEmptyPattern(text)
	}
	if invert {
		return e.searchInvert(text)
	}
	return e.searchForward(text)
}

// searchForward implements the main BMH loop: non-overlapping, left-to-right,
// advancing by max(skip,1) on mismatch and by len(pattern) after a match.
func (e *Engine) searchForward(text []byte) matchset.SearchResult {
	n := len(text)
	m := len(e.pattern)
	if n < m {
		return matchset.SearchResult{}
	}

	cmp := e.compareBytes()
	var records []matchset.MatchRecord
	var total uint64

	pos := 0
	for pos+m <= n {
		if e.windowMatches(text[pos:pos+m], cmp) {
			if !e.wordBoundary || isWordBoundaryMatch(text, pos, pos+m) {
				total++
				records = append(records, matchset.MatchRecord{
					Position:  uint32(pos),
					MatchLen:  uint32(m),
					LineStart: uint32(lineStartBefore(text, pos)),
				})
			}
			pos += m
			continue
		}

		lastByte := text[pos+m-1]
		if e.caseInsensitive {
			lastByte = foldByte(lastByte)
		}
		skip := int(e.skip[lastByte])
		if skip < 1 {
			skip = 1
		}
		pos += skip
	}

	return matchset.SearchResult{Matches: records, TotalMatches: total}
}

// windowMatches compares a pattern-length window of text (folded if
// caseInsensitive) against cmp, in fixed-width chunks with a scalar
// tail.
func (e *Engine) windowMatches(window, cmp []byte) bool {
	n := len(window)
	i := 0

	chunk := 8
	if simd.HasWideLanes() {
		chunk = 16
	}

	for ; i+chunk <= n; i += chunk {
		for j := 0; j < chunk; j++ {
			wb := window[i+j]
			if e.caseInsensitive {
				wb = foldByte(wb)
			}
			if wb != cmp[i+j] {
				return false
			}
		}
	}
	for ; i < n; i++ {
		wb := window[i]
		if e.caseInsensitive {
			wb = foldByte(wb)
		}
		if wb != cmp[i] {
			return false
		}
	}
	return true
}

// isWordBoundaryMatch validates the word-boundary rule: neither byte
// immediately outside [start,end) may be a word character.
func isWordBoundaryMatch(text []byte, start, end int) bool {
	if start > 0 && matchset.IsWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && matchset.IsWordByte(text[end]) {
		return false
	}
	return true
}

// lineStartBefore returns the offset of the first byte of the line
// containing pos: one past the nearest newline before pos, or 0 if there
// is none.
func lineStartBefore(text []byte, pos int) int {
	i := pos - 1
	for ; i >= 0; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// searchEmptyPattern emits one zero-length record per line, including a
// final line without a trailing newline.
func searchEmptyPattern(text []byte) matchset.SearchResult {
	if len(text) == 0 {
		return matchset.SearchResult{}
	}

	var records []matchset.MatchRecord
	lineStart := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			records = append(records, matchset.MatchRecord{
				Position:  uint32(lineStart),
				MatchLen:  0,
				LineStart: uint32(lineStart),
			})
			lineStart = i + 1
		}
	}
	if lineStart < len(text) {
		// Trailing line with no terminating newline.
		records = append(records, matchset.MatchRecord{
			Position:  uint32(lineStart),
			MatchLen:  0,
			LineStart: uint32(lineStart),
		})
	}
	return matchset.SearchResult{Matches: records, TotalMatches: uint64(len(records))}
}

// searchInvert implements the invert-match path: scan text line by line,
// and for each line that does not contain the pattern, emit a synthetic
// whole-line record.
func (e *Engine) searchInvert(text []byte) matchset.SearchResult {
	var records []matchset.MatchRecord
	var total uint64

	start := 0
	n := len(text)
	for start < n {
		end := findNextNewline(text, start)
		line := text[start:end]
		if !e.lineContainsMatch(line) {
			total++
			records = append(records, matchset.MatchRecord{
				Position:  uint32(start),
				MatchLen:  uint32(len(line)),
				LineStart: uint32(start),
			})
		}
		start = end + 1
	}

	return matchset.SearchResult{Matches: records, TotalMatches: total}
}

// findNextNewline returns the offset of the next '\n' at or after start,
// or len(text) if none remains. simd.Memchr scans 8 bytes per
// iteration.
func findNextNewline(text []byte, start int) int {
	if start >= len(text) {
		return len(text)
	}
	if idx := simd.Memchr(text[start:], '\n'); idx >= 0 {
		return start + idx
	}
	return len(text)
}

// lineContainsMatch reports whether e's pattern occurs anywhere in line,
// restricting the BMH scan to the line's bytes.
func (e *Engine) lineContainsMatch(line []byte) bool {
	m := len(e.pattern)
	if m == 0 {
		return true
	}
	if len(line) < m {
		return false
	}
	cmp := e.compareBytes()
	pos := 0
	for pos+m <= len(line) {
		if e.windowMatches(line[pos:pos+m], cmp) {
			if !e.wordBoundary || isWordBoundaryMatch(line, pos, pos+m) {
				return true
			}
			pos++
			continue
		}
		lastByte := line[pos+m-1]
		if e.caseInsensitive {
			lastByte = foldByte(lastByte)
		}
		skip := int(e.skip[lastByte])
		if skip < 1 {
			skip = 1
		}
		pos += skip
	}
	return false
}
