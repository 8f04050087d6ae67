package nfa

import "testing"

// buildAltNFA builds the pattern "cat|dog" by hand via Builder primitives,
// the shape regexcompile's lowerer produces for top-level alternation.
func buildAltNFA(t *testing.T) *NFA {
	t.Helper()
	b := NewBuilder()
	matchID := b.AddMatch()

	left := buildWord(b, "cat", matchID)
	right := buildWord(b, "dog", matchID)
	split := b.AddSplit(left, right)

	b.SetStart(split)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return n
}

func buildWord(b *Builder, s string, final StateID) StateID {
	next := final
	for i := len(s) - 1; i >= 0; i-- {
		next = b.AddByteRange(s[i], s[i], false, next)
	}
	return next
}

func TestPikeVMSearchLiteral(t *testing.T) {
	n := buildLiteral(t, "foo")
	vm := NewPikeVM(n)
	start, end, ok := vm.Search([]byte("xx foo yy"))
	if !ok || start != 3 || end != 6 {
		t.Fatalf("Search() = (%d,%d,%v), want (3,6,true)", start, end, ok)
	}
}

func TestPikeVMSearchNoMatch(t *testing.T) {
	n := buildLiteral(t, "zzz")
	vm := NewPikeVM(n)
	_, _, ok := vm.Search([]byte("abc"))
	if ok {
		t.Fatal("expected no match")
	}
}

func TestPikeVMSearchAlternation(t *testing.T) {
	n := buildAltNFA(t)
	vm := NewPikeVM(n)
	for _, text := range []string{"a cat sat", "a dog ran"} {
		if _, _, ok := vm.Search([]byte(text)); !ok {
			t.Errorf("Search(%q) found no match, want one", text)
		}
	}
	if _, _, ok := vm.Search([]byte("a bird flew")); ok {
		t.Error("Search() matched text with neither alternative present")
	}
}

func TestPikeVMSearchAllNonOverlapping(t *testing.T) {
	n := buildLiteral(t, "ab")
	vm := NewPikeVM(n)
	matches := vm.SearchAll([]byte("abababab"))
	if len(matches) != 4 {
		t.Fatalf("got %d matches, want 4: %+v", len(matches), matches)
	}
	for i, m := range matches {
		wantStart := i * 2
		if m.Start != wantStart || m.End != wantStart+2 {
			t.Errorf("match %d = %+v, want start=%d end=%d", i, m, wantStart, wantStart+2)
		}
	}
}

func TestPikeVMAnchoredStart(t *testing.T) {
	b := NewBuilder()
	matchID := b.AddMatch()
	next := buildWord(b, "go", matchID)
	b.SetStart(next)
	b.SetAnchors(true, false)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	vm := NewPikeVM(n)

	if _, _, ok := vm.Search([]byte("go west")); !ok {
		t.Error("expected anchored match at the very start")
	}
	if _, _, ok := vm.Search([]byte("we go west")); ok {
		t.Error("anchored pattern should not match mid-string")
	}
}

func TestPikeVMEmptyHaystackMatchesEmptyPattern(t *testing.T) {
	b := NewBuilder()
	m := b.AddMatch()
	b.SetStart(m)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	vm := NewPikeVM(n)
	start, end, ok := vm.Search(nil)
	if !ok || start != 0 || end != 0 {
		t.Fatalf("Search(nil) = (%d,%d,%v), want (0,0,true)", start, end, ok)
	}
}

func TestPikeVMSearchWithCaptures(t *testing.T) {
	b := NewBuilder()
	matchID := b.AddMatch()
	groupEnd := b.AddCapture(0, false, matchID)
	word := buildWord(b, "ab", groupEnd)
	groupStart := b.AddCapture(0, true, word)
	b.SetStart(groupStart)
	n, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	vm := NewPikeVM(n)
	m := vm.SearchWithCaptures([]byte("xxabyy"))
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Start != 2 || m.End != 4 {
		t.Fatalf("match span = (%d,%d), want (2,4)", m.Start, m.End)
	}
	if len(m.Captures) == 0 || m.Captures[0][0] != 2 || m.Captures[0][1] != 4 {
		t.Fatalf("Captures[0] = %v, want [2 4]", m.Captures[0])
	}
}
