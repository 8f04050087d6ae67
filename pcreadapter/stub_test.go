//go:build !pcre

package pcreadapter

import (
	"errors"
	"testing"

	"github.com/coregx/grepcore/matchset"
)

func TestCompileWithoutPCRETag(t *testing.T) {
	_, err := Compile([]byte("foo"), matchset.SearchOptions{})
	if !errors.Is(err, ErrNotCompiledIn) {
		t.Fatalf("Compile() err = %v, want ErrNotCompiledIn", err)
	}
}
