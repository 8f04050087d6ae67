// Package pcreadapter implements a PCRE adapter: an opaque
// compile/find_all/free contract fronting libpcre, used when
// matchset.SearchOptions.Perl is set. A runtime.SetFinalizer safety net
// backs the explicit Close, and the surface is narrowed to this engine's
// find-all-non-overlapping-matches use case rather than a general PCRE
// binding with a Matcher/capture-group API.
//
// The cgo implementation (cgo.go) only builds under the "pcre" build
// tag, since linking libpcre is an optional system dependency this
// module should not force on every build; without the tag, stub.go
// reports ErrNotCompiledIn and the caller (the CLI, see cmd/grepcore)
// surfaces that as a normal compile error rather than crashing.
package pcreadapter

import "fmt"

// CompileError reports a pattern libpcre rejected, carrying the byte
// offset libpcre blamed.
type CompileError struct {
	Pattern string
	Message string
	Offset  int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pcreadapter: %s (offset %d) in pattern %q", e.Message, e.Offset, e.Pattern)
}
