// Package vulkangpu is the Vulkan host driver: it loads the embedded
// bmh_search and regex_search_lines SPIR-V modules (backend/shaders),
// builds a compute pipeline around each, and dispatches them over
// device-resident copies of the search inputs.
//
// Structurally this mirrors backend/metalgpu: a context struct holding
// every long-lived handle, a New that wraps bridge init errors, buffer
// helpers, and a Close method — translated from Metal's simpler object
// model to Vulkan's explicit instance/device/queue/descriptor-set
// ceremony via the bridge.h/bridge.c shim.
//
//go:build !darwin

package vulkangpu

/*
#cgo LDFLAGS: -lvulkan
#include "bridge.h"
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sort"
	"unsafe"

	"github.com/coregx/grepcore/backend"
	"github.com/coregx/grepcore/backend/shaders"
	"github.com/coregx/grepcore/gpuproto"
	"github.com/coregx/grepcore/literalsearch"
	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/regexcompile"
)

// ErrTooManyStates is returned by SearchRegex when the packed NFA exceeds
// the kernel's per-thread state cap; the dispatcher treats it like any
// other GPU failure and re-runs the search on the CPU evaluator.
var ErrTooManyStates = errors.New("vulkangpu: NFA exceeds the regex kernel's state cap")

// Backend is the Vulkan implementation of backend.GPU.
type Backend struct {
	ctx  C.vk_context
	caps backend.Capabilities
}

// New creates a Vulkan instance, selects a compute-capable device, and
// builds the bmh_search and regex_search_lines pipelines from the
// embedded SPIR-V modules.
func New() (*Backend, error) {
	litSpirv, err := shaders.LiteralSPIRV()
	if err != nil {
		return nil, fmt.Errorf("vulkangpu: loading kernel source: %w", err)
	}
	rgxSpirv, err := shaders.RegexSPIRV()
	if err != nil {
		return nil, fmt.Errorf("vulkangpu: loading kernel source: %w", err)
	}

	b := &Backend{}
	cLit := C.CBytes(litSpirv)
	defer C.free(cLit)
	cRgx := C.CBytes(rgxSpirv)
	defer C.free(cRgx)

	var errMsg *C.char
	rc := C.vk_create_context(&b.ctx,
		cLit, C.size_t(len(litSpirv)),
		cRgx, C.size_t(len(rgxSpirv)),
		&errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return nil, fmt.Errorf("vulkangpu: %s", C.GoString(errMsg))
	}

	var maxThreads C.uint32_t
	var maxBufLen, heapSize C.ulonglong
	var unified C.int
	C.vk_capabilities(&b.ctx, &maxThreads, &maxBufLen, &heapSize, &unified)
	b.caps = backend.Capabilities{
		MaxThreadgroupThreads:     uint32(maxThreads),
		MaxBufferLength:           uint64(maxBufLen),
		RecommendedWorkingSetSize: uint64(heapSize),
		UnifiedMemory:             unified != 0,
	}

	return b, nil
}

func (b *Backend) Name() string { return "vulkan" }

func (b *Backend) Capabilities() backend.Capabilities { return b.caps }

func (b *Backend) Close() error {
	C.vk_release_context(&b.ctx)
	return nil
}

// SearchLiteral runs the bmh_search compute shader over text. Unlike the
// Metal driver, which builds the skip table on the device with
// build_skip_table, this driver computes the table on the host
// (buildSkipTableHost) and uploads it as a read-only buffer, so
// bmh_search sees the same buffer layout on both drivers.
func (b *Backend) SearchLiteral(text, pattern []byte, opts matchset.SearchOptions) (matchset.SearchResult, error) {
	if len(pattern) == 0 || len(pattern) > literalsearch.MaxPatternLen {
		return matchset.SearchResult{}, literalsearch.ErrPatternTooLong
	}

	skipTable := buildSkipTableHost(pattern, opts.CaseInsensitive)

	flags := uint32(0)
	if opts.CaseInsensitive {
		flags |= gpuproto.FlagCaseInsensitive
	}
	if opts.WordBoundary {
		flags |= gpuproto.FlagWordBoundary
	}

	workgroup := gpuproto.WorkgroupSize(b.caps.MaxThreadgroupThreads)
	workItems := gpuproto.PositionWorkItems(uint32(len(text)))
	grid := gpuproto.GridSize(workItems, workgroup)
	positionsPerThread := uint32(len(text))/max32(workItems, 1) + 1

	cfg := gpuproto.LiteralSearchConfig{
		TextLen:            uint32(len(text)),
		PatternLen:         uint32(len(pattern)),
		NumPatterns:        1,
		Flags:              flags,
		PositionsPerThread: positionsPerThread,
		BatchOffset:        0,
	}
	cfgBytes := cfg.Encode()

	textBuf := b.newBuffer(text)
	defer C.vk_release_buffer(&b.ctx, textBuf)
	patBuf := b.newBuffer(pattern)
	defer C.vk_release_buffer(&b.ctx, patBuf)
	skipBuf := b.newBuffer(skipTable)
	defer C.vk_release_buffer(&b.ctx, skipBuf)
	cfgBuf := b.newBuffer(cfgBytes[:])
	defer C.vk_release_buffer(&b.ctx, cfgBuf)

	resultsBuf := b.newZeroedBuffer(gpuproto.MaxResults * 32)
	defer C.vk_release_buffer(&b.ctx, resultsBuf)
	countBuf := b.newZeroedBuffer(4)
	defer C.vk_release_buffer(&b.ctx, countBuf)
	totalBuf := b.newZeroedBuffer(4)
	defer C.vk_release_buffer(&b.ctx, totalBuf)

	buffers := [7]unsafe.Pointer{textBuf, patBuf, skipBuf, cfgBuf, resultsBuf, countBuf, totalBuf}

	var errMsg *C.char
	rc := C.vk_dispatch_bmh(&b.ctx, (*unsafe.Pointer)(unsafe.Pointer(&buffers[0])), C.uint32_t(grid), &errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return matchset.SearchResult{}, fmt.Errorf("vulkangpu: bmh_search dispatch: %s", C.GoString(errMsg))
	}

	var total uint32
	b.readBuffer(totalBuf, (*[4]byte)(unsafe.Pointer(&total))[:])
	var count uint32
	b.readBuffer(countBuf, (*[4]byte)(unsafe.Pointer(&count))[:])
	written := count
	if written > gpuproto.MaxResults {
		written = gpuproto.MaxResults
	}

	raw := make([]byte, int(written)*32)
	if written > 0 {
		b.readBuffer(resultsBuf, raw)
	}

	records := make([]matchset.MatchRecord, 0, written)
	for i := uint32(0); i < written; i++ {
		rec := gpuproto.DecodeLiteralMatchRecord(raw[i*32 : i*32+32])
		records = append(records, matchset.MatchRecord{
			Position:  rec.Position,
			MatchLen:  rec.MatchLen,
			LineStart: rec.LineStart,
			LineNum:   rec.LineNum,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	if opts.InvertMatch {
		return backend.InvertFromMatches(text, records), nil
	}
	return matchset.SearchResult{Matches: records, TotalMatches: uint64(total)}, nil
}

// SearchRegex dispatches regex_search_lines over text: one thread per
// line, each running the packed NFA state table. Line numbers come
// straight off the thread index, so no host-side newline counting is
// needed on this path.
func (b *Backend) SearchRegex(text []byte, packed regexcompile.PackedNFA, opts matchset.SearchOptions) (matchset.SearchResult, error) {
	if packed.Header.NumStates == 0 || packed.Header.NumStates > gpuproto.MaxGPUStates {
		return matchset.SearchResult{}, ErrTooManyStates
	}

	offsets, lengths := backend.SplitLines(text)
	if len(offsets) == 0 {
		return matchset.SearchResult{}, nil
	}

	flags := uint32(0)
	if opts.CaseInsensitive {
		flags |= gpuproto.FlagCaseInsensitive
	}
	if opts.WordBoundary {
		flags |= gpuproto.FlagWordBoundary
	}
	if opts.InvertMatch {
		flags |= gpuproto.FlagInvertMatch
	}

	workgroup := gpuproto.WorkgroupSize(b.caps.MaxThreadgroupThreads)
	workItems := gpuproto.LineWorkItems(uint32(len(offsets)))
	grid := gpuproto.GridSize(workItems, workgroup)
	dispatchWidth := int(grid * workgroup)

	cfg := gpuproto.RegexSearchConfig{
		TextLen:     uint32(len(text)),
		NumStates:   packed.Header.NumStates,
		StartState:  packed.Header.StartState,
		HeaderFlags: packed.Header.Flags,
		NumBitmaps:  uint32(len(packed.Bitmaps) / 32),
		MaxResults:  gpuproto.MaxResults,
		Flags:       flags,
		LineOffset:  0,
	}
	cfgBytes := cfg.Encode()

	bitmaps := packed.Bitmaps
	if len(bitmaps) == 0 {
		bitmaps = make([]byte, 32) // the kernel binds a non-empty buffer even for bitmap-free patterns
	}

	textBuf := b.newBuffer(text)
	defer C.vk_release_buffer(&b.ctx, textBuf)
	statesBuf := b.newBuffer(packed.States)
	defer C.vk_release_buffer(&b.ctx, statesBuf)
	bitmapsBuf := b.newBuffer(bitmaps)
	defer C.vk_release_buffer(&b.ctx, bitmapsBuf)
	cfgBuf := b.newBuffer(cfgBytes[:])
	defer C.vk_release_buffer(&b.ctx, cfgBuf)
	offsetsBuf := b.newBuffer(gpuproto.EncodeUint32s(offsets, dispatchWidth, gpuproto.InvalidLineOffset))
	defer C.vk_release_buffer(&b.ctx, offsetsBuf)
	lengthsBuf := b.newBuffer(gpuproto.EncodeUint32s(lengths, dispatchWidth, 0))
	defer C.vk_release_buffer(&b.ctx, lengthsBuf)

	resultsBuf := b.newZeroedBuffer(gpuproto.MaxResults * 32)
	defer C.vk_release_buffer(&b.ctx, resultsBuf)
	countBuf := b.newZeroedBuffer(4)
	defer C.vk_release_buffer(&b.ctx, countBuf)
	totalBuf := b.newZeroedBuffer(4)
	defer C.vk_release_buffer(&b.ctx, totalBuf)

	buffers := [9]unsafe.Pointer{textBuf, statesBuf, bitmapsBuf, cfgBuf, offsetsBuf, lengthsBuf, resultsBuf, countBuf, totalBuf}

	var errMsg *C.char
	rc := C.vk_dispatch_regex_lines(&b.ctx, (*unsafe.Pointer)(unsafe.Pointer(&buffers[0])), C.uint32_t(grid), &errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return matchset.SearchResult{}, fmt.Errorf("vulkangpu: regex_search_lines dispatch: %s", C.GoString(errMsg))
	}

	var total uint32
	b.readBuffer(totalBuf, (*[4]byte)(unsafe.Pointer(&total))[:])
	var count uint32
	b.readBuffer(countBuf, (*[4]byte)(unsafe.Pointer(&count))[:])
	written := count
	if written > gpuproto.MaxResults {
		written = gpuproto.MaxResults
	}

	raw := make([]byte, int(written)*32)
	if written > 0 {
		b.readBuffer(resultsBuf, raw)
	}

	records := make([]matchset.MatchRecord, 0, written)
	for i := uint32(0); i < written; i++ {
		rec := gpuproto.DecodeRegexMatchRecord(raw[i*32 : i*32+32])
		if !rec.Valid() {
			continue
		}
		records = append(records, matchset.MatchRecord{
			Position:  rec.Start,
			MatchLen:  rec.End - rec.Start,
			LineStart: rec.LineStart,
			LineNum:   rec.LineNum,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	return matchset.SearchResult{Matches: records, TotalMatches: uint64(total)}, nil
}

// buildSkipTableHost computes the same 256-entry BMH skip table the
// build_skip_table Metal kernel produces on-device; the Vulkan driver
// builds it host-side once per search instead of dispatching a second
// kernel, since the table only costs O(pattern_len) to compute.
func buildSkipTableHost(pattern []byte, caseInsensitive bool) []byte {
	table := make([]byte, 256)
	m := len(pattern)
	dist := byte(m)
	if m > 255 {
		dist = 255
	}
	for i := range table {
		table[i] = dist
	}
	for i := 0; i+1 < m; i++ {
		b := pattern[i]
		if caseInsensitive && b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		table[b] = byte(m - 1 - i)
	}
	return table
}

func (b *Backend) newBuffer(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return C.vk_new_buffer(&b.ctx, nil, 0)
	}
	return C.vk_new_buffer(&b.ctx, unsafe.Pointer(&data[0]), C.size_t(len(data)))
}

func (b *Backend) newZeroedBuffer(n int) unsafe.Pointer {
	return C.vk_new_buffer(&b.ctx, nil, C.size_t(n))
}

func (b *Backend) readBuffer(buf unsafe.Pointer, dst []byte) {
	if len(dst) == 0 {
		return
	}
	C.vk_buffer_contents(&b.ctx, buf, unsafe.Pointer(&dst[0]), C.size_t(len(dst)))
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
