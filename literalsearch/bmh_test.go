package literalsearch

import (
	"slices"
	"strings"
	"testing"
)

func positions(t *testing.T, pattern, text string, caseInsensitive, wordBoundary bool) []uint32 {
	t.Helper()
	eng, err := Compile([]byte(pattern), caseInsensitive, wordBoundary)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", pattern, err)
	}
	res := eng.Search([]byte(text), false)
	got := make([]uint32, len(res.Matches))
	for i, m := range res.Matches {
		got[i] = m.Position
	}
	return got
}

func TestSearchForward(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []uint32
	}{
		{"single match", "quick", "the quick fox", []uint32{4}},
		{"multiple non-overlapping", "foo", "foofoofoo", []uint32{0, 3, 6}},
		{"no match", "quick", "banana", nil},
		{"adjacent overlap not double counted", "aa", "aaaa", []uint32{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positions(t, tt.pattern, tt.text, false, false)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	got := positions(t, "ERROR", "an Error occurred, then another ERROR", true, false)
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(got), got)
	}
}

func TestSearchWordBoundary(t *testing.T) {
	eng, err := Compile([]byte("cat"), false, true)
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Search([]byte("cat catalog concatenate cat"), false)
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2 (word-bounded 'cat' only): %v", len(res.Matches), res.Matches)
	}
	for _, m := range res.Matches {
		if m.Position != 0 && m.Position != 24 {
			t.Fatalf("unexpected match position %d", m.Position)
		}
	}
}

func TestSearchEmptyPattern(t *testing.T) {
	eng, err := Compile(nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Search([]byte("a\nb\nc"), false)
	if len(res.Matches) != 3 {
		t.Fatalf("got %d records, want 3 (one per line): %v", len(res.Matches), res.Matches)
	}
	for _, m := range res.Matches {
		if m.MatchLen != 0 {
			t.Fatalf("expected zero-length record, got %d", m.MatchLen)
		}
	}
}

func TestSearchInvert(t *testing.T) {
	eng, err := Compile([]byte("err"), false, false)
	if err != nil {
		t.Fatal(err)
	}
	text := "line with err\nclean line\nanother err line\nplain"
	res := eng.Search([]byte(text), true)
	if len(res.Matches) != 2 {
		t.Fatalf("got %d non-matching lines, want 2: %v", len(res.Matches), res.Matches)
	}
}

func TestCompilePatternTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxPatternLen+1)
	_, err := Compile([]byte(long), false, false)
	if err == nil {
		t.Fatal("expected error for over-long pattern")
	}
}

func TestLineStartAssigned(t *testing.T) {
	eng, err := Compile([]byte("needle"), false, false)
	if err != nil {
		t.Fatal(err)
	}
	text := "first line\nsecond needle line\nthird"
	res := eng.Search([]byte(text), false)
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(res.Matches))
	}
	wantLineStart := uint32(len("first line\n"))
	if res.Matches[0].LineStart != wantLineStart {
		t.Fatalf("LineStart = %d, want %d", res.Matches[0].LineStart, wantLineStart)
	}
}
