package nfa

import "testing"

// buildLiteral constructs an NFA matching the exact byte sequence s using
// only Builder primitives, mirroring how regexcompile's lowerer chains
// AddByteRange calls for a literal run.
func buildLiteral(t *testing.T, s string) *NFA {
	t.Helper()
	b := NewBuilder()
	matchID := b.AddMatch()
	next := matchID
	for i := len(s) - 1; i >= 0; i-- {
		next = b.AddByteRange(s[i], s[i], false, next)
	}
	b.SetStart(next)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return n
}

func TestBuilderAddMatch(t *testing.T) {
	b := NewBuilder()
	id := b.AddMatch()
	if id != 0 {
		t.Fatalf("first state id = %d, want 0", id)
	}
	if b.NumStates() != 1 {
		t.Fatalf("NumStates() = %d, want 1", b.NumStates())
	}
}

func TestBuilderAddByteRangeChain(t *testing.T) {
	n := buildLiteral(t, "ab")
	if n.States() != 3 {
		t.Fatalf("States() = %d, want 3 (2 byte states + 1 match)", n.States())
	}
	lo, hi, next := n.Iter()[n.Start()].ByteRange()
	if lo != 'a' || hi != 'a' {
		t.Fatalf("first state byte range = [%c,%c], want [a,a]", lo, hi)
	}
	if next == InvalidState {
		t.Fatal("expected a wired next state")
	}
}

func TestBuilderAddSplit(t *testing.T) {
	b := NewBuilder()
	left := b.AddMatch()
	right := b.AddFail()
	split := b.AddSplit(left, right)
	s := b.states[split]
	if s.kind != StateSplit {
		t.Fatalf("kind = %v, want StateSplit", s.kind)
	}
	l, r := s.Split()
	if l != left || r != right {
		t.Fatalf("Split() = (%d,%d), want (%d,%d)", l, r, left, right)
	}
}

func TestBuilderPatchByteRange(t *testing.T) {
	b := NewBuilder()
	matchID := b.AddMatch()
	byteState := b.AddByteRange('x', 'x', false, InvalidState)
	b.Patch(byteState, matchID)
	_, _, next := b.states[byteState].ByteRange()
	if next != matchID {
		t.Fatalf("Patch did not wire next: got %d, want %d", next, matchID)
	}
}

func TestBuilderPatchSplit(t *testing.T) {
	b := NewBuilder()
	split := b.AddSplit(InvalidState, InvalidState)
	target := b.AddMatch()
	b.Patch(split, target)
	l, r := b.states[split].Split()
	if l != target || r != target {
		t.Fatalf("Patch did not wire both split arms: got (%d,%d), want (%d,%d)", l, r, target, target)
	}
}

func TestBuilderPatchSparse(t *testing.T) {
	b := NewBuilder()
	sparse := b.AddSparse([]Transition{
		{Lo: 'a', Hi: 'f', Next: InvalidState},
		{Lo: '0', Hi: '9', Next: InvalidState},
	}, false)
	target := b.AddMatch()
	b.Patch(sparse, target)
	for i, tr := range b.states[sparse].Transitions() {
		if tr.Next != target {
			t.Fatalf("Patch did not wire sparse arm %d: got %d, want %d", i, tr.Next, target)
		}
	}
}

func TestBuilderPatchDoesNotOverwriteWiredEdge(t *testing.T) {
	b := NewBuilder()
	already := b.AddMatch()
	byteState := b.AddByteRange('x', 'x', false, already)
	other := b.AddFail()
	b.Patch(byteState, other)
	_, _, next := b.states[byteState].ByteRange()
	if next != already {
		t.Fatalf("Patch overwrote an already-wired edge: got %d, want %d", next, already)
	}
}

func TestBuilderPatchOutOfRangeIsNoop(t *testing.T) {
	b := NewBuilder()
	b.AddMatch()
	b.Patch(StateID(99), 0) // must not panic
}

func TestBuildEmptyNFAErrors(t *testing.T) {
	b := NewBuilder()
	if _, err := b.Build(0); err == nil {
		t.Fatal("expected error building an NFA with no states")
	}
}

func TestBuildNoStartErrors(t *testing.T) {
	b := NewBuilder()
	b.AddMatch()
	if _, err := b.Build(0); err == nil {
		t.Fatal("expected error building an NFA with no start state set")
	}
}

func TestBuildCaptureCountInferredAndOverridden(t *testing.T) {
	b := NewBuilder()
	matchID := b.AddMatch()
	capEnd := b.AddCapture(0, false, matchID)
	capStart := b.AddCapture(0, true, capEnd)
	b.SetStart(capStart)

	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if n.CaptureCount() != 1 {
		t.Fatalf("CaptureCount() = %d, want 1 (inferred)", n.CaptureCount())
	}

	b2 := NewBuilder()
	m2 := b2.AddMatch()
	b2.SetStart(m2)
	n2, err := b2.Build(3)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if n2.CaptureCount() != 3 {
		t.Fatalf("CaptureCount() = %d, want 3 (explicit override)", n2.CaptureCount())
	}
}

func TestBuilderSetAnchors(t *testing.T) {
	b := NewBuilder()
	m := b.AddMatch()
	b.SetStart(m)
	b.SetAnchors(true, false)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !n.AnchoredStart() || n.AnchoredEnd() {
		t.Fatalf("anchors = (%v,%v), want (true,false)", n.AnchoredStart(), n.AnchoredEnd())
	}
}

func TestBuilderString(t *testing.T) {
	b := NewBuilder()
	b.AddMatch()
	if got := b.String(); got == "" {
		t.Fatal("String() returned empty")
	}
}
