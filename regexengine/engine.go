// Package regexengine ties regexcompile's BRE/ERE compiler and nfa's
// PikeVM together into public search contract: a compiled
// pattern that returns non-overlapping, greedy, left-to-right matches as
// matchset.MatchRecord values, with the same invert-match and empty-pattern
// special cases literalsearch implements for the literal engine.
package regexengine

import (
	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/nfa"
	"github.com/coregx/grepcore/regexcompile"
)

// Engine is a compiled regex ready to search text buffers.
type Engine struct {
	compiled *nfa.NFA
	opts     matchset.SearchOptions
}

// Compile parses pattern as BRE or ERE (per opts.Extended) and lowers it to
// an NFA. Case-insensitivity is baked into the compiled automaton (case
// folding at the byte-range level); opts.WordBoundary is not compiled in,
// but applied by Search as a post-filter on each match, the same rule
// literalsearch uses.
func Compile(pattern []byte, opts matchset.SearchOptions) (*Engine, error) {
	n, err := regexcompile.Compile(string(pattern), regexcompile.Options{
		Extended:        opts.Extended,
		CaseInsensitive: opts.CaseInsensitive,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{compiled: n, opts: opts}, nil
}

// Search runs the engine over text: non-overlapping greedy left-to-right
// matches, or (when opts.InvertMatch) one synthetic line-record per
// non-matching line.
func (e *Engine) Search(text []byte) matchset.SearchResult {
	vm := nfa.NewPikeVM(e.compiled)

	if e.opts.InvertMatch {
		return e.searchInvert(vm, text)
	}

	matches := vm.SearchAll(text)
	var records []matchset.MatchRecord
	for _, m := range matches {
		if e.opts.WordBoundary && !isWordBoundaryMatch(text, m.Start, m.End) {
			continue
		}
		records = append(records, matchset.MatchRecord{
			Position:  uint32(m.Start),
			MatchLen:  uint32(m.End - m.Start),
			LineStart: uint32(lineStartBefore(text, m.Start)),
		})
	}
	return matchset.SearchResult{Matches: records, TotalMatches: uint64(len(records))}
}

func (e *Engine) searchInvert(vm *nfa.PikeVM, text []byte) matchset.SearchResult {
	var records []matchset.MatchRecord
	var total uint64

	start := 0
	n := len(text)
	for start < n {
		end := findNextNewline(text, start)
		line := text[start:end]
		if !e.lineHasMatch(vm, line) {
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

func (e *Engine) lineHasMatch(vm *nfa.PikeVM, line []byte) bool {
	_, _, ok := vm.Search(line)
	if !ok {
		return false
	}
	if !e.opts.WordBoundary {
		return true
	}
	matches := vm.SearchAll(line)
	for _, m := range matches {
		if isWordBoundaryMatch(line, m.Start, m.End) {
			return true
		}
	}
	return false
}

func isWordBoundaryMatch(text []byte, start, end int) bool {
	if start > 0 && matchset.IsWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && matchset.IsWordByte(text[end]) {
		return false
	}
	return true
}

func lineStartBefore(text []byte, pos int) int {
	for i := pos - 1; i >= 0; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func findNextNewline(text []byte, start int) int {
	for i := start; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	return len(text)
}
