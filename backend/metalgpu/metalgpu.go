// Package metalgpu is the Metal host driver: it loads the embedded Metal
// Shading Language sources (backend/shaders), compiles the
// build_skip_table, bmh_search, and regex_search_lines pipelines, and
// dispatches them over device-resident copies of the search inputs.
//
// All Metal API interaction goes through the bridge.h/bridge.m shim,
// since cgo cannot send Objective-C messages directly: the context struct
// holds every long-lived handle (device, queue, libraries, pipelines),
// New wraps the bridge init error, and Close releases everything exactly
// once.
//
//go:build darwin

package metalgpu

/*
#cgo LDFLAGS: -framework Metal -framework Foundation
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
var ErrTooManyStates = errors.New("metalgpu: NFA exceeds the regex kernel's state cap")

// Backend is the Metal implementation of backend.GPU.
type Backend struct {
	ctx  C.mtl_context
	caps backend.Capabilities
}

// New probes for a default Metal device, compiles the embedded kernel
// sources, and builds the compute pipelines. Returns an error if no
// Metal-capable device is present or a kernel source fails to compile.
func New() (*Backend, error) {
	litSrc, err := shaders.MetalSource()
	if err != nil {
		return nil, fmt.Errorf("metalgpu: loading kernel source: %w", err)
	}
	rgxSrc, err := shaders.MetalRegexSource()
	if err != nil {
		return nil, fmt.Errorf("metalgpu: loading kernel source: %w", err)
	}

	b := &Backend{}
	cLit := C.CBytes(litSrc)
	defer C.free(cLit)
	cRgx := C.CBytes(rgxSrc)
	defer C.free(cRgx)

	var errMsg *C.char
	rc := C.mtl_create_context(&b.ctx,
		(*C.char)(cLit), C.size_t(len(litSrc)),
		(*C.char)(cRgx), C.size_t(len(rgxSrc)),
		&errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return nil, fmt.Errorf("metalgpu: %s", C.GoString(errMsg))
	}

	var maxThreads C.uint32_t
	var maxBufLen, workingSet C.ulonglong
	var unified C.int
	C.mtl_capabilities(&b.ctx, &maxThreads, &maxBufLen, &workingSet, &unified)
	b.caps = backend.Capabilities{
		MaxThreadgroupThreads:     uint32(maxThreads),
		MaxBufferLength:           uint64(maxBufLen),
		RecommendedWorkingSetSize: uint64(workingSet),
		UnifiedMemory:             unified != 0,
	}

	return b, nil
}

func (b *Backend) Name() string { return "metal" }

func (b *Backend) Capabilities() backend.Capabilities { return b.caps }

func (b *Backend) Close() error {
	C.mtl_release_context(&b.ctx)
	return nil
}

// SearchLiteral dispatches build_skip_table then bmh_search over text,
// two-phase literal kernel contract.
func (b *Backend) SearchLiteral(text, pattern []byte, opts matchset.SearchOptions) (matchset.SearchResult, error) {
	if len(pattern) == 0 || len(pattern) > literalsearch.MaxPatternLen {
		return matchset.SearchResult{}, literalsearch.ErrPatternTooLong
	}

	skipTable, err := b.buildSkipTable(pattern, opts.CaseInsensitive)
	if err != nil {
		return matchset.SearchResult{}, err
	}

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
	defer C.mtl_release_buffer(textBuf)
	patBuf := b.newBuffer(pattern)
	defer C.mtl_release_buffer(patBuf)
	skipBuf := b.newBuffer(skipTable)
	defer C.mtl_release_buffer(skipBuf)
	cfgBuf := b.newBuffer(cfgBytes[:])
	defer C.mtl_release_buffer(cfgBuf)

	resultsBuf := b.newZeroedBuffer(gpuproto.MaxResults * 32)
	defer C.mtl_release_buffer(resultsBuf)
	countBuf := b.newZeroedBuffer(4)
	defer C.mtl_release_buffer(countBuf)
	totalBuf := b.newZeroedBuffer(4)
	defer C.mtl_release_buffer(totalBuf)

	buffers := [7]unsafe.Pointer{textBuf, patBuf, skipBuf, cfgBuf, resultsBuf, countBuf, totalBuf}

	var errMsg *C.char
	rc := C.mtl_dispatch_bmh(&b.ctx, (*unsafe.Pointer)(unsafe.Pointer(&buffers[0])), C.size_t(grid*workgroup), C.size_t(workgroup), &errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return matchset.SearchResult{}, fmt.Errorf("metalgpu: bmh_search dispatch: %s", C.GoString(errMsg))
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
	defer C.mtl_release_buffer(textBuf)
	statesBuf := b.newBuffer(packed.States)
	defer C.mtl_release_buffer(statesBuf)
	bitmapsBuf := b.newBuffer(bitmaps)
	defer C.mtl_release_buffer(bitmapsBuf)
	cfgBuf := b.newBuffer(cfgBytes[:])
	defer C.mtl_release_buffer(cfgBuf)
	offsetsBuf := b.newBuffer(gpuproto.EncodeUint32s(offsets, dispatchWidth, gpuproto.InvalidLineOffset))
	defer C.mtl_release_buffer(offsetsBuf)
	lengthsBuf := b.newBuffer(gpuproto.EncodeUint32s(lengths, dispatchWidth, 0))
	defer C.mtl_release_buffer(lengthsBuf)

	resultsBuf := b.newZeroedBuffer(gpuproto.MaxResults * 32)
	defer C.mtl_release_buffer(resultsBuf)
	countBuf := b.newZeroedBuffer(4)
	defer C.mtl_release_buffer(countBuf)
	totalBuf := b.newZeroedBuffer(4)
	defer C.mtl_release_buffer(totalBuf)

	buffers := [9]unsafe.Pointer{textBuf, statesBuf, bitmapsBuf, cfgBuf, offsetsBuf, lengthsBuf, resultsBuf, countBuf, totalBuf}

	var errMsg *C.char
	rc := C.mtl_dispatch_regex_lines(&b.ctx, (*unsafe.Pointer)(unsafe.Pointer(&buffers[0])), C.size_t(dispatchWidth), C.size_t(workgroup), &errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return matchset.SearchResult{}, fmt.Errorf("metalgpu: regex_search_lines dispatch: %s", C.GoString(errMsg))
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

func (b *Backend) buildSkipTable(pattern []byte, caseInsensitive bool) ([]byte, error) {
	patBuf := b.newBuffer(pattern)
	defer C.mtl_release_buffer(patBuf)

	patLen := uint32(len(pattern))
	lenBuf := b.newBuffer((*[4]byte)(unsafe.Pointer(&patLen))[:])
	defer C.mtl_release_buffer(lenBuf)

	ci := uint32(0)
	if caseInsensitive {
		ci = 1
	}
	ciBuf := b.newBuffer((*[4]byte)(unsafe.Pointer(&ci))[:])
	defer C.mtl_release_buffer(ciBuf)

	skipBuf := b.newZeroedBuffer(256)
	defer C.mtl_release_buffer(skipBuf)

	var errMsg *C.char
	rc := C.mtl_dispatch_skip_table(&b.ctx, patBuf, lenBuf, ciBuf, skipBuf, &errMsg)
	if rc != 0 {
		defer C.free(unsafe.Pointer(errMsg))
		return nil, fmt.Errorf("metalgpu: build_skip_table dispatch: %s", C.GoString(errMsg))
	}

	out := make([]byte, 256)
	b.readBuffer(skipBuf, out)
	return out, nil
}

func (b *Backend) newBuffer(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return C.mtl_new_buffer(&b.ctx, nil, 0)
	}
	return C.mtl_new_buffer(&b.ctx, unsafe.Pointer(&data[0]), C.size_t(len(data)))
}

func (b *Backend) newZeroedBuffer(n int) unsafe.Pointer {
	return C.mtl_new_buffer(&b.ctx, nil, C.size_t(n))
}

func (b *Backend) readBuffer(buf unsafe.Pointer, dst []byte) {
	if len(dst) == 0 {
		return
	}
	C.mtl_buffer_contents(buf, unsafe.Pointer(&dst[0]), C.size_t(len(dst)))
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
