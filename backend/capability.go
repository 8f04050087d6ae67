// Package backend defines the shared host-driver contract both GPU
// backends (backend/metalgpu, backend/vulkangpu) implement and dispatch
// consumes: capability-probe fields and the literal/regex search entry
// points. Putting the interface here (rather than in
// dispatch, or duplicated per-backend) keeps dispatch free of a direct
// dependency on cgo-gated, platform-specific packages beyond the two
// single-file build-tag shims that pick which one to construct.
package backend

import (
	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/regexcompile"
)

// Capabilities reports the device limits names: max
// threadgroup threads, max buffer length, recommended working-set size,
// and the unified-memory flag (from which is_discrete is derived: a
// device without unified memory is treated as discrete).
type Capabilities struct {
	MaxThreadgroupThreads    uint32
	MaxBufferLength          uint64
	RecommendedWorkingSetSize uint64
	UnifiedMemory            bool
}

// Discrete reports whether the device should be treated as a discrete GPU
// for hardware-tier classification, derived from the capability fields
// rather than probed directly.
func (c Capabilities) Discrete() bool { return !c.UnifiedMemory }

// GPU is the contract both the Metal and Vulkan host drivers satisfy:
// literal search (bmh_search kernel) and regex search (regex_search /
// regex_search_lines kernels), plus the capability probe and the
// dispose-on-exit lifecycle "Resource lifetimes" requires.
type GPU interface {
	// Name identifies the backend for logging ("metal" or "vulkan").
	Name() string

	// Capabilities returns the one-time capability probe result.
	Capabilities() Capabilities

	// SearchLiteral dispatches the bmh_search kernel over text for pattern.
	SearchLiteral(text, pattern []byte, opts matchset.SearchOptions) (matchset.SearchResult, error)

	// SearchRegex dispatches the regex_search_lines kernel over text
	// using the already-packed NFA form (regexcompile.Pack's output).
	SearchRegex(text []byte, packed regexcompile.PackedNFA, opts matchset.SearchOptions) (matchset.SearchResult, error)

	// Close releases the device, command queue, and pipelines acquired at
	// construction. Pipelines, pools, and devices are acquired during New
	// and must be released exactly once here.
	Close() error
}
