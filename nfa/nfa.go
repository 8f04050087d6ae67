// Package nfa implements a Thompson-construction NFA: an arena of States
// addressed by index (never by pointer), and a PikeVM evaluator that runs a
// parallel-state simulation over a text buffer.
//
// The arena-of-states design eliminates cycles as a lifetime
// concern — alternation and repetition routinely close an edge back to an
// earlier state — and makes serializing the automaton into the GPU's packed
// 12-byte-per-state wire format (see gpuproto, regexcompile) a straight walk
// over a slice instead of a pointer-graph traversal.
package nfa

import "fmt"

// StateID uniquely identifies an NFA state: an index into NFA.states.
type StateID uint32

// InvalidState is the sentinel "no edge" value used by every State field
// that can be absent.
const InvalidState StateID = 0xFFFFFFFF

// StateKind identifies which fields of a State are meaningful.
type StateKind uint8

const (
	// StateMatch accepts: the thread reaching it has found a match.
	StateMatch StateKind = iota
	// StateByteRange consumes one byte in [lo, hi] and moves to Next.
	StateByteRange
	// StateSparse consumes one byte matching any of several disjoint byte
	// ranges (used for character classes), each with its own target.
	StateSparse
	// StateSplit is a zero-width fork to two states (alternation, ?, *, +).
	StateSplit
	// StateEpsilon is a zero-width transition to exactly one state.
	StateEpsilon
	// StateCapture marks a capture-group boundary and is zero-width.
	StateCapture
	// StateLook is a zero-width assertion: word boundary, line/text anchor.
	StateLook
	// StateFail is a dead end; no thread survives here.
	StateFail
)

func (k StateKind) String() string {
	switch k {
	case StateMatch:
		return "Match"
	case StateByteRange:
		return "ByteRange"
	case StateSparse:
		return "Sparse"
	case StateSplit:
		return "Split"
	case StateEpsilon:
		return "Epsilon"
	case StateCapture:
		return "Capture"
	case StateLook:
		return "Look"
	case StateFail:
		return "Fail"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Look enumerates the zero-width assertions a StateLook can test, matching
// NFA state kinds word_boundary/not_word_boundary/line_start/
// line_end (plus the two text-boundary variants BRE/ERE anchoring needs).
type Look uint8

const (
	LookStartText Look = iota
	LookEndText
	LookStartLine
	LookEndLine
	LookWordBoundary
	LookNotWordBoundary
)

// Transition is one arm of a StateSparse state: bytes in [Lo, Hi] move to Next.
type Transition struct {
	Lo, Hi byte
	Next   StateID
}

// State is one node in the NFA arena. Only the fields relevant to Kind are
// meaningful; the rest are zero.
type State struct {
	id   StateID
	kind StateKind

	lo, hi byte    // StateByteRange
	next   StateID // StateByteRange / StateEpsilon / StateCapture / StateLook target

	transitions []Transition // StateSparse

	left, right StateID // StateSplit

	captureIndex uint32 // StateCapture
	captureStart bool   // StateCapture: true = group open, false = group close

	look Look // StateLook

	caseInsensitive bool // StateByteRange/StateSparse: compiled from a case-insensitive pattern
}

func (s *State) ID() StateID     { return s.id }
func (s *State) Kind() StateKind { return s.kind }
func (s *State) IsMatch() bool   { return s.kind == StateMatch }

// ByteRange returns (lo, hi, next) for a StateByteRange state.
func (s *State) ByteRange() (lo, hi byte, next StateID) {
	return s.lo, s.hi, s.next
}

// CaseInsensitive reports whether this ByteRange/Sparse state was compiled
// from a case-insensitive pattern. The lowerer emits both case variants as
// separate transitions, and PikeVM does no folding of its own.
func (s *State) CaseInsensitive() bool { return s.caseInsensitive }

// Split returns the two epsilon targets of a StateSplit state.
func (s *State) Split() (left, right StateID) { return s.left, s.right }

// Epsilon returns the single target of a StateEpsilon state.
func (s *State) Epsilon() StateID { return s.next }

// Transitions returns the byte-range arms of a StateSparse state.
func (s *State) Transitions() []Transition { return s.transitions }

// Capture returns the group index, open/close flag, and target of a
// StateCapture state.
func (s *State) Capture() (index uint32, isStart bool, next StateID) {
	return s.captureIndex, s.captureStart, s.next
}

// LookAssertion returns the assertion kind and target of a StateLook state.
func (s *State) LookAssertion() (look Look, next StateID) {
	return s.look, s.next
}

// NFA is a compiled, immutable Thompson automaton.
type NFA struct {
	states        []State
	start         StateID
	captureCount  int
	anchoredStart bool
	anchoredEnd   bool
}

func (n *NFA) Start() StateID      { return n.start }
func (n *NFA) States() int         { return len(n.states) }
func (n *NFA) CaptureCount() int   { return n.captureCount }
func (n *NFA) AnchoredStart() bool { return n.anchoredStart }
func (n *NFA) AnchoredEnd() bool   { return n.anchoredEnd }

// State returns the state at id, or nil if id is out of range.
func (n *NFA) State(id StateID) *State {
	if id == InvalidState || int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// IsMatch reports whether id names a match state.
func (n *NFA) IsMatch(id StateID) bool {
	if s := n.State(id); s != nil {
		return s.IsMatch()
	}
	return false
}

// Iter returns the states in arena order, for serialization (regexcompile's
// GPU packer walks the NFA this way).
func (n *NFA) Iter() []State { return n.states }

func (n *NFA) String() string {
	return fmt.Sprintf("NFA{states: %d, start: %d, anchoredStart: %v, anchoredEnd: %v}",
		len(n.states), n.start, n.anchoredStart, n.anchoredEnd)
}
