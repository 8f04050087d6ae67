package regexcompile

import (
	"encoding/binary"

	"github.com/coregx/grepcore/gpuproto"
	"github.com/coregx/grepcore/nfa"
)

// GPU wire kind tags, byte 0 of each packed state. Values are this
// package's own choice: the wire contract pins byte offsets and widths,
// not specific tag numbers, as long as host and device agree.
const (
	gpuKindLiteral = iota
	gpuKindCharClass
	gpuKindDot
	gpuKindSplit
	gpuKindMatch
	gpuKindGroupStart
	gpuKindGroupEnd
	gpuKindWordBoundary
	gpuKindNotWordBoundary
	gpuKindLineStart
	gpuKindLineEnd
	gpuKindStartText
	gpuKindEndText
	gpuKindFail
	gpuKindEpsilon
)

// Flags, byte 1.
const (
	gpuFlagCaseInsensitive = 0x01
	gpuFlagNegated         = 0x02
)

const packedStateSize = 12
const noEdge = 0xFFFF

// PackedNFA is the GPU-serialized form of a host nfa.NFA: a header, a flat
// array of 12-byte states, and a bitmap buffer (8 x u32 per character
// class, appended in compile order).
type PackedNFA struct {
	Header  gpuproto.RegexHeader
	States  []byte // packedStateSize bytes per state
	Bitmaps []byte // 32 bytes (8 x u32) per class state, in first-seen order
}

// Pack walks n in arena order and serializes it to the packed GPU state
// wire layout. Class/dot states' Transitions are folded back into a
// 256-bit bitmap; the bitmap offset (in u32 words) is written into bytes
// 8-11 of that state's packed record.
func Pack(n *nfa.NFA) PackedNFA {
	states := n.Iter()
	out := make([]byte, len(states)*packedStateSize)
	var bitmaps []byte
	nextBitmapWordOffset := uint32(0)

	for i, s := range states {
		rec := out[i*packedStateSize : (i+1)*packedStateSize]
		packState(rec, &s, &bitmaps, &nextBitmapWordOffset)
	}

	headerFlags := uint32(0)
	if n.AnchoredStart() {
		headerFlags |= gpuproto.RegexHeaderAnchoredStart
	}
	if n.AnchoredEnd() {
		headerFlags |= gpuproto.RegexHeaderAnchoredEnd
	}
	return PackedNFA{
		Header: gpuproto.RegexHeader{
			NumStates:  uint32(len(states)),
			StartState: uint32(n.Start()),
			NumGroups:  uint32(n.CaptureCount()),
			Flags:      headerFlags,
		},
		States:  out,
		Bitmaps: bitmaps,
	}
}

func packState(rec []byte, s *nfa.State, bitmaps *[]byte, nextWordOffset *uint32) {
	var kind byte
	var flags byte
	var out1, out2 uint16 = noEdge, noEdge
	var literalByte byte
	var groupIdx byte
	var bitmapOffset uint32

	switch s.Kind() {
	case nfa.StateMatch:
		kind = gpuKindMatch

	case nfa.StateFail:
		kind = gpuKindFail

	case nfa.StateByteRange:
		lo, hi, next := s.ByteRange()
		out1 = edge16(next)
		if s.CaseInsensitive() {
			flags |= gpuFlagCaseInsensitive
		}
		if lo == hi {
			kind = gpuKindLiteral
			literalByte = lo
		} else {
			kind = gpuKindCharClass
			bm := rangeBitmap(lo, hi)
			bitmapOffset = appendBitmap(bitmaps, bm, nextWordOffset)
		}

	case nfa.StateSparse:
		transitions := s.Transitions()
		kind = gpuKindCharClass
		if isDotShaped(transitions) {
			kind = gpuKindDot
		}
		if s.CaseInsensitive() {
			flags |= gpuFlagCaseInsensitive
		}
		bm := transitionsBitmap(transitions)
		bitmapOffset = appendBitmap(bitmaps, bm, nextWordOffset)
		if len(transitions) > 0 {
			out1 = edge16(transitions[0].Next)
		}

	case nfa.StateSplit:
		kind = gpuKindSplit
		left, right := s.Split()
		out1 = edge16(left)
		out2 = edge16(right)

	case nfa.StateEpsilon:
		kind = gpuKindEpsilon
		out1 = edge16(s.Epsilon())

	case nfa.StateCapture:
		idx, isStart, next := s.Capture()
		out1 = edge16(next)
		groupIdx = byte(idx)
		if isStart {
			kind = gpuKindGroupStart
		} else {
			kind = gpuKindGroupEnd
		}

	case nfa.StateLook:
		look, next := s.LookAssertion()
		out1 = edge16(next)
		switch look {
		case nfa.LookStartText:
			kind = gpuKindStartText
		case nfa.LookEndText:
			kind = gpuKindEndText
		case nfa.LookStartLine:
			kind = gpuKindLineStart
		case nfa.LookEndLine:
			kind = gpuKindLineEnd
		case nfa.LookWordBoundary:
			kind = gpuKindWordBoundary
		case nfa.LookNotWordBoundary:
			kind = gpuKindNotWordBoundary
		}
	}

	rec[0] = kind
	rec[1] = flags
	binary.LittleEndian.PutUint16(rec[2:4], out1)
	binary.LittleEndian.PutUint16(rec[4:6], out2)
	rec[6] = literalByte
	rec[7] = groupIdx
	binary.LittleEndian.PutUint32(rec[8:12], bitmapOffset)
}

func edge16(id nfa.StateID) uint16 {
	if id == nfa.InvalidState || id > 0xFFFE {
		return noEdge
	}
	return uint16(id)
}

// appendBitmap appends a 32-byte (8 x u32) bitmap and returns its word
// offset, advancing the shared cursor.
func appendBitmap(bitmaps *[]byte, bm [32]byte, nextWordOffset *uint32) uint32 {
	offset := *nextWordOffset
	*bitmaps = append(*bitmaps, bm[:]...)
	*nextWordOffset += 8 // 32 bytes == 8 u32 words
	return offset
}

func rangeBitmap(lo, hi byte) [32]byte {
	var bm [32]byte
	for c := int(lo); c <= int(hi); c++ {
		setBit(&bm, byte(c))
	}
	return bm
}

func transitionsBitmap(transitions []nfa.Transition) [32]byte {
	var bm [32]byte
	for _, tr := range transitions {
		for c := int(tr.Lo); c <= int(tr.Hi); c++ {
			setBit(&bm, byte(c))
		}
	}
	return bm
}

// isDotShaped reports whether transitions is exactly "every byte except
// newline", the shape dotTransitions() produces.
func isDotShaped(transitions []nfa.Transition) bool {
	if len(transitions) != 2 {
		return false
	}
	return transitions[0].Lo == 0x00 && transitions[0].Hi == '\n'-1 &&
		transitions[1].Lo == '\n'+1 && transitions[1].Hi == 0xFF
}
