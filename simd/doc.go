// Package simd provides SIMD-flavored byte-search primitives for the literal
// search engine: single/multi-byte scanning and substring search.
//
// All primitives are pure Go, built on the SWAR (SIMD Within A Register)
// technique: 8 bytes are packed into a uint64 and compared with a handful
// of integer ops instead of a byte-by-byte loop. golang.org/x/sys/cpu is
// used only to report, through HasWideLanes, whether the host has wide
// lanes; there is no assembly backing this package, so
// there is exactly one code path per function and it runs identically on
// every architecture Go supports.
package simd

import "golang.org/x/sys/cpu"

// hasAVX2 records whether the host CPU advertises AVX2. Only HasWideLanes
// reads it (literalsearch uses that to pick its window-compare chunk
// width); no scanning function in this package consults it, and no AVX2
// instruction is ever issued directly by this package.
var hasAVX2 = cpu.X86.HasAVX2
