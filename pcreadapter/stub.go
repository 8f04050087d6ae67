//go:build !pcre

package pcreadapter

import (
	"errors"

	"github.com/coregx/grepcore/matchset"
)

// ErrNotCompiledIn is returned by Compile when this binary was built
// without the "pcre" build tag (and therefore without linking libpcre).
var ErrNotCompiledIn = errors.New("pcreadapter: built without libpcre support (build with -tags pcre)")

// Engine is an opaque handle; in this build it never holds a live
// compiled pattern.
type Engine struct{}

// Compile always fails in a non-"pcre" build.
func Compile(pattern []byte, opts matchset.SearchOptions) (*Engine, error) {
	return nil, ErrNotCompiledIn
}

// Search is unreachable since Compile always errors first.
func (e *Engine) Search(text []byte) (matchset.SearchResult, error) {
	return matchset.SearchResult{}, ErrNotCompiledIn
}

// Close is a no-op.
func (e *Engine) Close() {}
