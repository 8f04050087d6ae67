package pcreadapter

import "testing"

func TestCompileErrorMessage(t *testing.T) {
	err := &CompileError{Pattern: "a(b", Message: "missing )", Offset: 3}
	got := err.Error()
	want := `pcreadapter: missing ) (offset 3) in pattern "a(b"`
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
