package regexengine

import (
	"testing"

	"github.com/coregx/grepcore/matchset"
)

func search(t *testing.T, pattern, text string, opts matchset.SearchOptions) matchset.SearchResult {
	t.Helper()
	eng, err := Compile([]byte(pattern), opts)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", pattern, err)
	}
	return eng.Search([]byte(text))
}

func TestSearchBasicERE(t *testing.T) {
	res := search(t, "fo+", "fo foo fooo", matchset.SearchOptions{Extended: true})
	if len(res.Matches) != 3 {
		t.Fatalf("got %d matches, want 3: %+v", len(res.Matches), res.Matches)
	}
	wantLens := []uint32{2, 3, 4}
	for i, m := range res.Matches {
		if m.MatchLen != wantLens[i] {
			t.Errorf("match %d len = %d, want %d", i, m.MatchLen, wantLens[i])
		}
	}
}

func TestSearchAlternation(t *testing.T) {
	res := search(t, "cat|dog", "a cat and a dog", matchset.SearchOptions{Extended: true})
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(res.Matches), res.Matches)
	}
}

func TestSearchBRE(t *testing.T) {
	res := search(t, `a\+b`, "aaab ab", matchset.SearchOptions{Extended: false})
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(res.Matches), res.Matches)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	res := search(t, "error", "ERROR seen, then Error again", matchset.SearchOptions{
		Extended:        true,
		CaseInsensitive: true,
	})
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(res.Matches), res.Matches)
	}
}

func TestSearchWordBoundaryFiltersSubstringMatches(t *testing.T) {
	res := search(t, "cat", "cat catalog concatenate cat", matchset.SearchOptions{
		Extended:     true,
		WordBoundary: true,
	})
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2 (word-bounded only): %+v", len(res.Matches), res.Matches)
	}
}

func TestSearchInvertMatch(t *testing.T) {
	res := search(t, "err", "line with err\nclean line\nanother err\nplain", matchset.SearchOptions{
		Extended:    true,
		InvertMatch: true,
	})
	if len(res.Matches) != 2 {
		t.Fatalf("got %d non-matching lines, want 2: %+v", len(res.Matches), res.Matches)
	}
}

func TestSearchNoMatch(t *testing.T) {
	res := search(t, "xyz", "abc def", matchset.SearchOptions{Extended: true})
	if len(res.Matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(res.Matches))
	}
	if res.TotalMatches != 0 {
		t.Fatalf("TotalMatches = %d, want 0", res.TotalMatches)
	}
}

func TestSearchLineStartAssigned(t *testing.T) {
	res := search(t, "needle", "first line\nsecond needle line", matchset.SearchOptions{Extended: true})
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(res.Matches))
	}
	want := uint32(len("first line\n"))
	if res.Matches[0].LineStart != want {
		t.Fatalf("LineStart = %d, want %d", res.Matches[0].LineStart, want)
	}
}

func TestCompileInvalidPatternReturnsError(t *testing.T) {
	_, err := Compile([]byte("a(b"), matchset.SearchOptions{Extended: true})
	if err == nil {
		t.Fatal("expected error for unmatched paren")
	}
}
