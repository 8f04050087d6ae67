package regexcompile

import (
	"encoding/binary"
	"testing"

	"github.com/coregx/grepcore/nfa"
)

// This file interprets the packed GPU state table on the host, with the
// same stepping rules the regex_search_lines kernel implements, and checks
// that executing the serialized form yields the same matches as running
// the host NFA on the PikeVM. It is the CI-reachable half of the
// cross-backend determinism guarantee: the kernel reads the identical
// bytes this interpreter reads.

type packedState struct {
	kind       byte
	flags      byte
	out1, out2 uint16
	lit        byte
	group      byte
	bitmapWord uint32
}

func decodePackedStates(t *testing.T, p PackedNFA) []packedState {
	t.Helper()
	if len(p.States)%packedStateSize != 0 {
		t.Fatalf("packed state buffer length %d not a multiple of %d", len(p.States), packedStateSize)
	}
	n := len(p.States) / packedStateSize
	out := make([]packedState, n)
	for i := 0; i < n; i++ {
		rec := p.States[i*packedStateSize : (i+1)*packedStateSize]
		out[i] = packedState{
			kind:       rec[0],
			flags:      rec[1],
			out1:       binary.LittleEndian.Uint16(rec[2:4]),
			out2:       binary.LittleEndian.Uint16(rec[4:6]),
			lit:        rec[6],
			group:      rec[7],
			bitmapWord: binary.LittleEndian.Uint32(rec[8:12]),
		}
	}
	return out
}

func simBitmapTest(bitmaps []byte, wordOff uint32, b byte) bool {
	byteOff := int(wordOff)*4 + int(b)/8
	return bitmaps[byteOff]&(1<<(b%8)) != 0
}

func simFold(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

func simWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func simWordBoundaryAt(text []byte, p int) bool {
	before := p > 0 && simWordByte(text[p-1])
	after := p < len(text) && simWordByte(text[p])
	return before != after
}

// simClosure mirrors the kernel's add_closure: follow zero-width edges
// from sid, collecting consuming states and flagging a reached match.
func simClosure(ps []packedState, text []byte, p int, sid uint16, visited []bool, list *[]uint16, matched *bool) {
	if sid == noEdge || int(sid) >= len(ps) || visited[sid] {
		return
	}
	visited[sid] = true
	s := ps[sid]
	switch s.kind {
	case gpuKindMatch:
		*matched = true
	case gpuKindLiteral, gpuKindCharClass, gpuKindDot:
		*list = append(*list, sid)
	case gpuKindSplit:
		simClosure(ps, text, p, s.out1, visited, list, matched)
		simClosure(ps, text, p, s.out2, visited, list, matched)
	case gpuKindEpsilon, gpuKindGroupStart, gpuKindGroupEnd:
		simClosure(ps, text, p, s.out1, visited, list, matched)
	case gpuKindWordBoundary:
		if simWordBoundaryAt(text, p) {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	case gpuKindNotWordBoundary:
		if !simWordBoundaryAt(text, p) {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	case gpuKindLineStart:
		if p == 0 || text[p-1] == '\n' {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	case gpuKindLineEnd:
		if p == len(text) || text[p] == '\n' {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	case gpuKindStartText:
		if p == 0 {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	case gpuKindEndText:
		if p == len(text) {
			simClosure(ps, text, p, s.out1, visited, list, matched)
		}
	}
}

// simRun mirrors the kernel's run_nfa: the longest match starting at pos,
// or -1.
func simRun(ps []packedState, bitmaps []byte, text []byte, start uint16, pos int) int {
	visited := make([]bool, len(ps))
	var cur []uint16
	matched := false
	simClosure(ps, text, pos, start, visited, &cur, &matched)

	last := -1
	if matched {
		last = pos
	}
	for p := pos; p < len(text) && len(cur) > 0; p++ {
		b := text[p]
		visited = make([]bool, len(ps))
		var nxt []uint16
		matched = false
		for _, sid := range cur {
			s := ps[sid]
			consume := false
			switch s.kind {
			case gpuKindLiteral:
				want, have := s.lit, b
				if s.flags&gpuFlagCaseInsensitive != 0 {
					want, have = simFold(want), simFold(have)
				}
				consume = want == have
			case gpuKindCharClass:
				in := simBitmapTest(bitmaps, s.bitmapWord, b)
				if s.flags&gpuFlagNegated != 0 {
					in = !in
				}
				consume = in
			case gpuKindDot:
				consume = b != '\n'
			}
			if consume {
				simClosure(ps, text, p+1, s.out1, visited, &nxt, &matched)
			}
		}
		cur = nxt
		if matched {
			last = p + 1
		}
	}
	return last
}

// simSearchAll mirrors the kernel's per-line scan applied to the whole
// buffer: non-overlapping greedy matches, zero-length matches advance by
// one.
func simSearchAll(ps []packedState, bitmaps []byte, text []byte, start uint16) []nfa.Match {
	var out []nfa.Match
	pos := 0
	for pos <= len(text) {
		end := simRun(ps, bitmaps, text, start, pos)
		if end < 0 {
			pos++
			continue
		}
		out = append(out, nfa.Match{Start: pos, End: end})
		if end > pos {
			pos = end
		} else {
			pos++
		}
	}
	return out
}

func TestPackedExecutionMatchesPikeVM(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
	}{
		{"literal", "hello", "hello world hello"},
		{"plus", "ab+c", "ac abc abbc abbbc"},
		{"alternation", "cat|dog", "cat dog bird cat"},
		{"dot", "a.c", "abc adc a\nc axc ac"},
		{"class", "[a-z0-9]+", "Ab3 xy9 Z"},
		{"negated class", "[^0-9]+", "ab12cd34"},
		{"quest", "colou?r", "color colour colouur"},
		{"bounded", "a{2,4}", "a aa aaa aaaaa"},
		{"group alt", "(cat|dog)s?", "cats dog dogs catdog"},
		{"anchor start", "^abc", "abc\nxabc\nabcd"},
		{"anchor end", "xyz$", "xyz\nxyza\nwxyz"},
		{"word boundary", `\bcat\b`, "cat concat cats cat."},
		{"digit escape", `\d+`, "a12b345c"},
		{"mixed", "a[0-9]+b", "a12b axb a9b a123b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Compile(tt.pattern, Options{Extended: true})
			if err != nil {
				t.Fatalf("Compile(%q) = %v", tt.pattern, err)
			}
			packed := Pack(n)
			ps := decodePackedStates(t, packed)

			vm := nfa.NewPikeVM(n)
			want := vm.SearchAll([]byte(tt.text))
			got := simSearchAll(ps, packed.Bitmaps, []byte(tt.text), uint16(packed.Header.StartState))

			if len(got) != len(want) {
				t.Fatalf("packed execution found %d matches %v, PikeVM found %d %v",
					len(got), got, len(want), want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("match %d: packed = %v, PikeVM = %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestPackAnchorFlags(t *testing.T) {
	n, err := Compile("^abc$", Options{Extended: true})
	if err != nil {
		t.Fatalf("Compile = %v", err)
	}
	packed := Pack(n)
	if packed.Header.Flags&0x01 == 0 {
		t.Error("anchored_start flag not set for ^abc$")
	}
	if packed.Header.Flags&0x02 == 0 {
		t.Error("anchored_end flag not set for ^abc$")
	}

	n2, err := Compile("abc", Options{Extended: true})
	if err != nil {
		t.Fatalf("Compile = %v", err)
	}
	if Pack(n2).Header.Flags != 0 {
		t.Errorf("unanchored pattern has header flags %#x, want 0", Pack(n2).Header.Flags)
	}
}
