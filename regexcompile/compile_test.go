package regexcompile

import (
	"testing"

	"github.com/coregx/grepcore/nfa"
)

func TestCompileERE(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"literal", "hello", false},
		{"alternation", "cat|dog", false},
		{"star", "ab*c", false},
		{"plus", "ab+c", false},
		{"quest", "colou?r", false},
		{"bounded", "a{2,4}", false},
		{"exact bound", "a{3}", false},
		{"unbounded min", "a{2,}", false},
		{"group", "(abc)+", false},
		{"nested group alt", "(cat|dog)s?", false},
		{"char class", "[a-z0-9]+", false},
		{"negated class", "[^0-9]", false},
		{"posix class", "[[:digit:]]+", false},
		{"dot", "a.c", false},
		{"anchors", "^abc$", false},
		{"escape digit class", `\d+`, false},
		{"escape word boundary", `\bcat\b`, false},
		{"unmatched paren", "(abc", true},
		{"unmatched bracket", "[abc", true},
		{"bad range", "[z-a]", true},
		{"bad quantifier", "a{5,2}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Compile(tt.pattern, Options{Extended: true})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Compile(%q) = nil error, want error", tt.pattern)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile(%q) = %v, want success", tt.pattern, err)
			}
			if n.States() == 0 {
				t.Fatalf("Compile(%q) produced an empty NFA", tt.pattern)
			}
		})
	}
}

func TestCompileBREEscaping(t *testing.T) {
	// In BRE, '+' '?' '|' '(' ')' '{' '}' are literal unless escaped.
	n, err := Compile("a+b", Options{Extended: false})
	if err != nil {
		t.Fatalf("Compile(BRE a+b) = %v", err)
	}
	vm := nfa.NewPikeVM(n)
	start, end, ok := vm.Search([]byte("a+b"))
	if !ok || start != 0 || end != 3 {
		t.Fatalf("BRE 'a+b' should match literal 'a+b': got (%d,%d,%v)", start, end, ok)
	}

	n2, err := Compile(`a\+b`, Options{Extended: false})
	if err != nil {
		t.Fatalf("Compile(BRE a\\+b) = %v", err)
	}
	vm2 := nfa.NewPikeVM(n2)
	if _, _, ok := vm2.Search([]byte("a+b")); ok {
		t.Fatal("BRE 'a\\+b' should not match literal 'a+b': '\\+' is the one-or-more quantifier")
	}
	if start, end, ok := vm2.Search([]byte("aaab")); !ok || start != 0 || end != 4 {
		t.Fatalf("BRE 'a\\+b' should match 'aaab': got (%d,%d,%v)", start, end, ok)
	}
}

func TestCompileAndSearchScenarios(t *testing.T) {
	// Mirrors concrete end-to-end scenarios for the regex path.
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []nfa.Match
	}{
		{
			name:    "plus quantifier",
			pattern: "ab+c",
			text:    "ac abc abbc abbbc",
			want: []nfa.Match{
				{Start: 3, End: 6},
				{Start: 7, End: 11},
				{Start: 12, End: 17},
			},
		},
		{
			name:    "alternation",
			pattern: "cat|dog",
			text:    "cat dog bird cat",
			want: []nfa.Match{
				{Start: 0, End: 3},
				{Start: 4, End: 7},
				{Start: 13, End: 16},
			},
		},
		{
			name:    "dot mid-pattern",
			pattern: "a.c",
			text:    "abc adc a\nc axc",
			want: []nfa.Match{
				{Start: 0, End: 3},
				{Start: 4, End: 7},
				{Start: 12, End: 15},
			},
		},
		{
			name:    "class mid-pattern",
			pattern: "a[0-9]+b",
			text:    "a12b axb a9b",
			want: []nfa.Match{
				{Start: 0, End: 4},
				{Start: 9, End: 12},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Compile(tt.pattern, Options{Extended: true})
			if err != nil {
				t.Fatalf("Compile(%q) = %v", tt.pattern, err)
			}
			vm := nfa.NewPikeVM(n)
			got := vm.SearchAll([]byte(tt.text))
			if len(got) != len(tt.want) {
				t.Fatalf("SearchAll(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("match %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPackRoundTripShape(t *testing.T) {
	n, err := Compile("a[0-9]+b", Options{Extended: true})
	if err != nil {
		t.Fatalf("Compile = %v", err)
	}
	packed := Pack(n)
	if len(packed.States) != n.States()*packedStateSize {
		t.Fatalf("packed state bytes = %d, want %d", len(packed.States), n.States()*packedStateSize)
	}
	if packed.Header.NumStates != uint32(n.States()) {
		t.Fatalf("header.NumStates = %d, want %d", packed.Header.NumStates, n.States())
	}
	if len(packed.Bitmaps)%32 != 0 {
		t.Fatalf("bitmap buffer length %d not a multiple of 32", len(packed.Bitmaps))
	}
}

func TestParseErrorKinds(t *testing.T) {
	tests := []struct {
		pattern  string
		wantKind ErrorKind
	}{
		{"(abc", UnmatchedParen},
		{"[abc", UnmatchedBracket},
		{"[z-a]", InvalidRange},
		{"a{5,2}", InvalidQuantifier},
	}
	for _, tt := range tests {
		_, _, err := Parse(tt.pattern, Options{Extended: true})
		if err == nil {
			t.Fatalf("Parse(%q) = nil error, want kind %v", tt.pattern, tt.wantKind)
		}
		ce, ok := err.(*CompileError)
		if !ok {
			t.Fatalf("Parse(%q) error type = %T, want *CompileError", tt.pattern, err)
		}
		if ce.Kind != tt.wantKind {
			t.Fatalf("Parse(%q) kind = %v, want %v", tt.pattern, ce.Kind, tt.wantKind)
		}
	}
}
