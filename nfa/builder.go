package nfa

import "fmt"

// Builder constructs an NFA incrementally: each Add* call appends one state
// to the arena and returns its StateID, so earlier calls can wire later
// states' edges (or vice versa — states may reference not-yet-added IDs,
// since loops are simply index values, not pointers).
type Builder struct {
	states []State
	start  StateID

	anchoredStart bool
	anchoredEnd   bool
	captureCount  int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{states: make([]State, 0, 16), start: InvalidState}
}

func (b *Builder) nextID() StateID { return StateID(len(b.states)) }

// AddMatch appends a match (accepting) state.
func (b *Builder) AddMatch() StateID {
	id := b.nextID()
	b.states = append(b.states, State{id: id, kind: StateMatch})
	return id
}

// AddByteRange appends a state consuming one byte in [lo, hi], moving to next.
func (b *Builder) AddByteRange(lo, hi byte, caseInsensitive bool, next StateID) StateID {
	id := b.nextID()
	b.states = append(b.states, State{
		id: id, kind: StateByteRange,
		lo: lo, hi: hi, next: next,
		caseInsensitive: caseInsensitive,
	})
	return id
}

// AddSparse appends a character-class state: transitions is copied to avoid
// aliasing the caller's backing array.
func (b *Builder) AddSparse(transitions []Transition, caseInsensitive bool) StateID {
	id := b.nextID()
	cp := make([]Transition, len(transitions))
	copy(cp, transitions)
	b.states = append(b.states, State{
		id: id, kind: StateSparse,
		transitions: cp, caseInsensitive: caseInsensitive,
	})
	return id
}

// AddSplit appends an alternation fork: both left and right are followed,
// left first. PikeVM's Search still reports the leftmost-longest match, so
// the order only decides which thread reaches a shared state first and
// whose captures it carries.
func (b *Builder) AddSplit(left, right StateID) StateID {
	id := b.nextID()
	b.states = append(b.states, State{id: id, kind: StateSplit, left: left, right: right})
	return id
}

// AddEpsilon appends a single zero-width transition to next.
func (b *Builder) AddEpsilon(next StateID) StateID {
	id := b.nextID()
	b.states = append(b.states, State{id: id, kind: StateEpsilon, next: next})
	return id
}

// AddCapture appends a capture-group boundary marker.
func (b *Builder) AddCapture(groupIndex uint32, isStart bool, next StateID) StateID {
	id := b.nextID()
	b.states = append(b.states, State{
		id: id, kind: StateCapture,
		captureIndex: groupIndex, captureStart: isStart, next: next,
	})
	if isStart && int(groupIndex)+1 > b.captureCount {
		b.captureCount = int(groupIndex) + 1
	}
	return id
}

// AddLook appends a zero-width assertion state.
func (b *Builder) AddLook(look Look, next StateID) StateID {
	id := b.nextID()
	b.states = append(b.states, State{id: id, kind: StateLook, look: look, next: next})
	return id
}

// AddFail appends a dead state with no outgoing transitions.
func (b *Builder) AddFail() StateID {
	id := b.nextID()
	b.states = append(b.states, State{id: id, kind: StateFail})
	return id
}

// Patch rewrites every InvalidState "next"/"left"/"right" edge on state id
// that points nowhere yet, to target. Used when a sub-expression's exit
// edges must be wired up only after its continuation is known (e.g. closing
// a `*` loop back to its own split state).
func (b *Builder) Patch(id StateID, target StateID) {
	if int(id) >= len(b.states) {
		return
	}
	s := &b.states[id]
	switch s.kind {
	case StateByteRange, StateEpsilon, StateCapture, StateLook:
		if s.next == InvalidState {
			s.next = target
		}
	case StateSparse:
		for i := range s.transitions {
			if s.transitions[i].Next == InvalidState {
				s.transitions[i].Next = target
			}
		}
	case StateSplit:
		if s.left == InvalidState {
			s.left = target
		}
		if s.right == InvalidState {
			s.right = target
		}
	}
}

// SetStart records the NFA's single entry point.
func (b *Builder) SetStart(id StateID) { b.start = id }

// SetAnchors records whether the pattern is anchored at the start and/or end.
func (b *Builder) SetAnchors(start, end bool) {
	b.anchoredStart = start
	b.anchoredEnd = end
}

// NumStates returns the number of states appended so far.
func (b *Builder) NumStates() int { return len(b.states) }

// Build finalizes the arena into an immutable NFA. numCaptures overrides the
// count inferred from AddCapture calls when the caller already knows the
// true group count (e.g. groups with no match-time use still reserve slots).
func (b *Builder) Build(numCaptures int) (*NFA, error) {
	if len(b.states) == 0 {
		return nil, &BuildError{Message: "empty NFA: no states added"}
	}
	if b.start == InvalidState {
		return nil, &BuildError{Message: "no start state set", StateID: InvalidState}
	}
	if numCaptures < b.captureCount {
		numCaptures = b.captureCount
	}
	return &NFA{
		states:        b.states,
		start:         b.start,
		captureCount:  numCaptures,
		anchoredStart: b.anchoredStart,
		anchoredEnd:   b.anchoredEnd,
	}, nil
}

// String renders the builder's current state list for debugging.
func (b *Builder) String() string {
	return fmt.Sprintf("Builder{%d states, start=%d}", len(b.states), b.start)
}
