// Package regexcompile parses BRE/ERE patterns into a host nfa.NFA and
// serializes that NFA into the packed GPU state table the dispatch
// layer's GPU kernels consume. The front end is a recursive-descent ERE
// parser (parser.go, charclass.go) with a BRE-to-ERE rewriting pre-pass
// (bre.go); the lowering pass (lower.go) emits Thompson-construction
// fragments through nfa.Builder.
package regexcompile

import "github.com/coregx/grepcore/nfa"

// Compile parses pattern under opts and lowers it to a host NFA. Returns a
// *CompileError on any grammar or capacity failure.
func Compile(pattern string, opts Options) (*nfa.NFA, error) {
	n, numGroups, err := Parse(pattern, opts)
	if err != nil {
		return nil, err
	}
	return Lower(n, numGroups)
}
