package regexcompile

import "errors"

var (
	errUnmatchedParen        = errors.New("unmatched '('")
	errUnmatchedBracket      = errors.New("unmatched '['")
	errBadQuantifier         = errors.New("malformed {n,m} quantifier")
	errUnterminatedQuantifier = errors.New("unterminated {n,m} quantifier")
	errQuantifierRange       = errors.New("quantifier max less than min")
	errRepeatTooLarge        = errors.New("repeat count exceeds state cap")
	errTooManyStates         = errors.New("pattern needs more NFA states than the cap")
	errBadRange              = errors.New("character range reversed (a > b)")
	errUnknownPosixClass     = errors.New("unknown POSIX class name")
	errUnknownEscape         = errors.New("unknown escape sequence")
	errTrailingBackslash     = errors.New("pattern ends with an unescaped backslash")
	errTrailingInput         = errors.New("unexpected trailing input")
)

// bretranslate rewrites a BRE pattern into ERE-equivalent syntax by swapping
// the specialness of the metacharacters `+ ? | ( ) { }`: unescaped, they are
// literal in BRE; escaped (`\+ \? \| \( \) \{ \}`), they are the ERE
// metacharacter. Per BRE pre-pass, this lets the same ERE
// grammar parse both dialects.
//
// BRE additionally treats a leading '^' and trailing '$' as anchors and
// elsewhere as literals, and treats '*' at the start of the pattern (or a
// subexpression) as a literal. The ERE grammar above already accepts '^'/'$'
// anywhere as an assertion, which is a harmless superset for this engine's
// purposes.
func bretranslate(pattern string) (string, error) {
	out := make([]byte, 0, len(pattern)+8)
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '+', '?', '|', '(', ')', '{', '}':
			// Unescaped in BRE: literal. Escape it so the ERE parser treats
			// it literally too (parseEscape maps backslash-escapes of these
			// to literals).
			out = append(out, '\\', c)
			i++
		case '\\':
			if i+1 >= len(pattern) {
				return "", &CompileError{Kind: InvalidEscape, Pattern: pattern, Pos: i, Err: errTrailingBackslash}
			}
			next := pattern[i+1]
			switch next {
			case '+', '?', '|', '(', ')', '{', '}':
				// Escaped in BRE: becomes the ERE metacharacter.
				out = append(out, next)
				i += 2
			default:
				out = append(out, c, next)
				i += 2
			}
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out), nil
}
