// Package gpuproto defines the wire format shared by the Metal and
// Vulkan host drivers: struct layouts, flag bits, kernel names, and
// dispatch geometry. GPU kernels interpret these as raw bytes, so every
// encode/decode here is an explicit, offset-exact little-endian packing
// rather than Go struct layout, which the compiler is free to
// rearrange/pad differently than a shader expects.
package gpuproto

import "encoding/binary"

// Search flag bits, shared by the literal and regex kernel configs.
const (
	FlagCaseInsensitive uint32 = 0x01
	FlagWordBoundary    uint32 = 0x02
	FlagInvertMatch     uint32 = 0x10
	FlagFixedString     uint32 = 0x20
)

// MaxResults is the per-search match cap both kernels enforce via the
// atomic result counter; beyond it TotalMatches still counts accurately but
// individual records are not written.
const MaxResults = 1_000_000

// MaxGPUStates is the largest NFA the regex kernels accept: their
// per-thread state lists and visited bitmaps are sized for 256 states.
// Larger automata stay on the CPU evaluator, which has no such bound.
const MaxGPUStates = 256

// RegexHeader flag bits.
const (
	RegexHeaderAnchoredStart   uint32 = 0x01
	RegexHeaderAnchoredEnd     uint32 = 0x02
	RegexHeaderCaseInsensitive uint32 = 0x04
)

// InvalidLineOffset pads the line_offsets buffer out to the dispatch
// width for regex_search_lines: threads whose tid falls past the last
// real line read this sentinel and return without touching the text.
const InvalidLineOffset uint32 = 0xFFFFFFFF

// Kernel names as the embedded shader sources export them; no embedded
// source implements regex_search.
const (
	KernelBuildSkipTable   = "build_skip_table"
	KernelBMHSearch        = "bmh_search"
	KernelRegexSearch      = "regex_search"
	KernelRegexSearchLines = "regex_search_lines"
)

const (
	literalConfigSize = 32
	literalRecordSize = 32
	regexConfigSize   = 32
	regexRecordSize   = 32
	regexHeaderSize   = 16
)

// LiteralSearchConfig is the 32-byte config buffer bmh_search reads.
type LiteralSearchConfig struct {
	TextLen            uint32
	PatternLen         uint32
	NumPatterns        uint32
	Flags              uint32
	PositionsPerThread uint32
	BatchOffset        uint32
}

// Encode packs c into the kernel's exact 32-byte layout.
func (c LiteralSearchConfig) Encode() [literalConfigSize]byte {
	var buf [literalConfigSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], c.TextLen)
	binary.LittleEndian.PutUint32(buf[4:8], c.PatternLen)
	binary.LittleEndian.PutUint32(buf[8:12], c.NumPatterns)
	binary.LittleEndian.PutUint32(buf[12:16], c.Flags)
	binary.LittleEndian.PutUint32(buf[16:20], c.PositionsPerThread)
	binary.LittleEndian.PutUint32(buf[20:24], c.BatchOffset)
	// bytes 24-31: reserved padding, left zero.
	return buf
}

// DecodeLiteralSearchConfig reverses Encode; gpuproto_test.go uses it to
// check the round trip.
func DecodeLiteralSearchConfig(buf []byte) LiteralSearchConfig {
	return LiteralSearchConfig{
		TextLen:            binary.LittleEndian.Uint32(buf[0:4]),
		PatternLen:         binary.LittleEndian.Uint32(buf[4:8]),
		NumPatterns:        binary.LittleEndian.Uint32(buf[8:12]),
		Flags:              binary.LittleEndian.Uint32(buf[12:16]),
		PositionsPerThread: binary.LittleEndian.Uint32(buf[16:20]),
		BatchOffset:        binary.LittleEndian.Uint32(buf[20:24]),
	}
}

// LiteralMatchRecord is the 32-byte record bmh_search writes per match.
type LiteralMatchRecord struct {
	Position   uint32
	PatternIdx uint32
	MatchLen   uint32
	LineStart  uint32
	LineNum    uint32
}

// Encode packs r into its exact 32-byte layout (12 bytes of trailing pad).
func (r LiteralMatchRecord) Encode() [literalRecordSize]byte {
	var buf [literalRecordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], r.Position)
	binary.LittleEndian.PutUint32(buf[4:8], r.PatternIdx)
	binary.LittleEndian.PutUint32(buf[8:12], r.MatchLen)
	binary.LittleEndian.PutUint32(buf[12:16], r.LineStart)
	binary.LittleEndian.PutUint32(buf[16:20], r.LineNum)
	return buf
}

// DecodeLiteralMatchRecord reverses Encode.
func DecodeLiteralMatchRecord(buf []byte) LiteralMatchRecord {
	return LiteralMatchRecord{
		Position:   binary.LittleEndian.Uint32(buf[0:4]),
		PatternIdx: binary.LittleEndian.Uint32(buf[4:8]),
		MatchLen:   binary.LittleEndian.Uint32(buf[8:12]),
		LineStart:  binary.LittleEndian.Uint32(buf[12:16]),
		LineNum:    binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// RegexSearchConfig is the 32-byte config buffer regex_search(_lines) reads.
type RegexSearchConfig struct {
	TextLen     uint32
	NumStates   uint32
	StartState  uint32
	HeaderFlags uint32
	NumBitmaps  uint32
	MaxResults  uint32
	Flags       uint32
	LineOffset  uint32
}

// Encode packs c into its exact 32-byte layout.
func (c RegexSearchConfig) Encode() [regexConfigSize]byte {
	var buf [regexConfigSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], c.TextLen)
	binary.LittleEndian.PutUint32(buf[4:8], c.NumStates)
	binary.LittleEndian.PutUint32(buf[8:12], c.StartState)
	binary.LittleEndian.PutUint32(buf[12:16], c.HeaderFlags)
	binary.LittleEndian.PutUint32(buf[16:20], c.NumBitmaps)
	binary.LittleEndian.PutUint32(buf[20:24], c.MaxResults)
	binary.LittleEndian.PutUint32(buf[24:28], c.Flags)
	binary.LittleEndian.PutUint32(buf[28:32], c.LineOffset)
	return buf
}

// DecodeRegexSearchConfig reverses Encode.
func DecodeRegexSearchConfig(buf []byte) RegexSearchConfig {
	return RegexSearchConfig{
		TextLen:     binary.LittleEndian.Uint32(buf[0:4]),
		NumStates:   binary.LittleEndian.Uint32(buf[4:8]),
		StartState:  binary.LittleEndian.Uint32(buf[8:12]),
		HeaderFlags: binary.LittleEndian.Uint32(buf[12:16]),
		NumBitmaps:  binary.LittleEndian.Uint32(buf[16:20]),
		MaxResults:  binary.LittleEndian.Uint32(buf[20:24]),
		Flags:       binary.LittleEndian.Uint32(buf[24:28]),
		LineOffset:  binary.LittleEndian.Uint32(buf[28:32]),
	}
}

// RegexMatchFlagValid is bit 0 of RegexMatchRecord.Flags: the slot holds a
// real match rather than unwritten/zeroed memory.
const RegexMatchFlagValid uint32 = 0x01

// RegexMatchRecord is the 32-byte record regex_search(_lines) writes.
type RegexMatchRecord struct {
	Start     uint32
	End       uint32
	LineStart uint32
	Flags     uint32
	LineNum   uint32
}

// Encode packs r into its exact 32-byte layout (12 bytes of trailing pad).
func (r RegexMatchRecord) Encode() [regexRecordSize]byte {
	var buf [regexRecordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], r.Start)
	binary.LittleEndian.PutUint32(buf[4:8], r.End)
	binary.LittleEndian.PutUint32(buf[8:12], r.LineStart)
	binary.LittleEndian.PutUint32(buf[12:16], r.Flags)
	binary.LittleEndian.PutUint32(buf[16:20], r.LineNum)
	return buf
}

// DecodeRegexMatchRecord reverses Encode.
func DecodeRegexMatchRecord(buf []byte) RegexMatchRecord {
	return RegexMatchRecord{
		Start:     binary.LittleEndian.Uint32(buf[0:4]),
		End:       binary.LittleEndian.Uint32(buf[4:8]),
		LineStart: binary.LittleEndian.Uint32(buf[8:12]),
		Flags:     binary.LittleEndian.Uint32(buf[12:16]),
		LineNum:   binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// Valid reports whether RegexMatchFlagValid is set.
func (r RegexMatchRecord) Valid() bool { return r.Flags&RegexMatchFlagValid != 0 }

// RegexHeader is the 16-byte header prefixing a packed NFA state table.
type RegexHeader struct {
	NumStates  uint32
	StartState uint32
	NumGroups  uint32
	Flags      uint32
}

// Encode packs h into its exact 16-byte layout.
func (h RegexHeader) Encode() [regexHeaderSize]byte {
	var buf [regexHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.NumStates)
	binary.LittleEndian.PutUint32(buf[4:8], h.StartState)
	binary.LittleEndian.PutUint32(buf[8:12], h.NumGroups)
	binary.LittleEndian.PutUint32(buf[12:16], h.Flags)
	return buf
}

// DecodeRegexHeader reverses Encode.
func DecodeRegexHeader(buf []byte) RegexHeader {
	return RegexHeader{
		NumStates:  binary.LittleEndian.Uint32(buf[0:4]),
		StartState: binary.LittleEndian.Uint32(buf[4:8]),
		NumGroups:  binary.LittleEndian.Uint32(buf[8:12]),
		Flags:      binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// WorkgroupSize returns the thread count per workgroup for a position- or
// line-partitioned dispatch, capped at the device's max threadgroup size
// and at 256.
func WorkgroupSize(deviceMaxThreadgroup uint32) uint32 {
	if deviceMaxThreadgroup < 256 {
		return deviceMaxThreadgroup
	}
	return 256
}

// GridSize returns the number of workgroups needed to cover workItems items
// at the given workgroup size: max(1, ceil(workItems/workgroupSize)).
func GridSize(workItems, workgroupSize uint32) uint32 {
	if workgroupSize == 0 {
		return 1
	}
	grid := (workItems + workgroupSize - 1) / workgroupSize
	if grid < 1 {
		grid = 1
	}
	return grid
}

// PositionWorkItems returns the work-item count for a position-partitioned
// kernel (bmh_search, regex_search): max(1, textLen/64).
func PositionWorkItems(textLen uint32) uint32 {
	items := textLen / 64
	if items < 1 {
		items = 1
	}
	return items
}

// LineWorkItems returns the work-item count for a line-partitioned kernel
// (regex_search_lines): one thread per line.
func LineWorkItems(numLines uint32) uint32 {
	if numLines < 1 {
		return 1
	}
	return numLines
}

// EncodeUint32s packs values into a little-endian u32 buffer, padded with
// pad out to total entries (the dispatch width, so every launched thread
// has an in-bounds slot to read).
func EncodeUint32s(values []uint32, total int, pad uint32) []byte {
	if total < len(values) {
		total = len(values)
	}
	buf := make([]byte, total*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	for i := len(values); i < total; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], pad)
	}
	return buf
}
