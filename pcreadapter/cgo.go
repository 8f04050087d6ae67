//go:build pcre

package pcreadapter

/*
#cgo LDFLAGS: -lpcre
#include <pcre.h>
#include <stdlib.h>
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/coregx/grepcore/matchset"
)

// Engine wraps a compiled pcre pattern. Compilation is the expensive
// step, so this type is built once per pattern and reused across Search
// calls.
type Engine struct {
	re   *C.pcre
	opts matchset.SearchOptions
}

// Compile lowers pattern through pcre_compile. opts.CaseInsensitive maps
// to PCRE_CASELESS; opts.WordBoundary has no direct PCRE flag and is
// applied as a post-filter, matching literalsearch/regexengine's
// approach for patterns that don't use `\b` directly.
func Compile(pattern []byte, opts matchset.SearchOptions) (*Engine, error) {
	cPattern := C.CString(string(pattern))
	defer C.free(unsafe.Pointer(cPattern))

	var errPtr *C.char
	var errOffset C.int
	flags := C.int(0)
	if opts.CaseInsensitive {
		flags |= C.PCRE_CASELESS
	}

	re := C.pcre_compile(cPattern, flags, &errPtr, &errOffset, nil)
	if re == nil {
		return nil, &CompileError{
			Pattern: string(pattern),
			Message: C.GoString(errPtr),
			Offset:  int(errOffset),
		}
	}

	e := &Engine{re: re, opts: opts}
	runtime.SetFinalizer(e, (*Engine).Close)
	return e, nil
}

// Close releases the compiled pattern. Safe to call more than once.
func (e *Engine) Close() {
	if e.re != nil {
		C.pcre_free(unsafe.Pointer(e.re))
		e.re = nil
		runtime.SetFinalizer(e, nil)
	}
}

// Search runs find_all semantics: repeated non-overlapping pcre_exec
// calls advancing past each match (and past zero-length matches by one
// byte, the standard PCRE idiom to avoid an infinite loop), converted to
// matchset.MatchRecord values. Invert-match is handled the same way the
// built-in engines handle it: scan by line, keep lines with no match.
func (e *Engine) Search(text []byte) (matchset.SearchResult, error) {
	if e.opts.InvertMatch {
		return e.searchInvert(text), nil
	}

	var records []matchset.MatchRecord
	offset := 0
	n := len(text)
	ovector := make([]C.int, 3)

	cText := (*C.char)(unsafe.Pointer(nil))
	if n > 0 {
		cText = (*C.char)(unsafe.Pointer(&text[0]))
	}

	for offset <= n {
		rc := C.pcre_exec(e.re, nil, cText, C.int(n), C.int(offset), 0, &ovector[0], 3)
		if rc < 0 {
			break
		}
		start, end := int(ovector[0]), int(ovector[1])
		if e.opts.WordBoundary && !isWordBoundaryMatch(text, start, end) {
			if end > offset {
				offset = end
			} else {
				offset++
			}
			continue
		}

		records = append(records, matchset.MatchRecord{
			Position:  uint32(start),
			MatchLen:  uint32(end - start),
			LineStart: uint32(lineStartBefore(text, start)),
		})

		if end == start {
			offset = end + 1
		} else {
			offset = end
		}
	}

	return matchset.SearchResult{Matches: records, TotalMatches: uint64(len(records))}, nil
}

func (e *Engine) searchInvert(text []byte) matchset.SearchResult {
	var records []matchset.MatchRecord
	var total uint64

	start := 0
	n := len(text)
	for start < n {
		end := start
		for end < n && text[end] != '\n' {
			end++
		}
		if !e.lineHasMatch(text[start:end]) {
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

func (e *Engine) lineHasMatch(line []byte) bool {
	if len(line) == 0 {
		rc := C.pcre_exec(e.re, nil, nil, 0, 0, 0, nil, 0)
		return rc >= 0
	}
	ovector := make([]C.int, 3)
	rc := C.pcre_exec(e.re, nil, (*C.char)(unsafe.Pointer(&line[0])), C.int(len(line)), 0, 0, &ovector[0], 3)
	return rc >= 0
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
	for i := pos; i > 0; i-- {
		if text[i-1] == '\n' {
			return i
		}
	}
	return 0
}
