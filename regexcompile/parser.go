package regexcompile

import (
	"github.com/coregx/grepcore/nfa"
)

// Options selects the dialect and case-folding behavior the parser applies.
type Options struct {
	Extended        bool // ERE when true, BRE otherwise
	CaseInsensitive bool
}

// parser is a recursive-descent BRE/ERE parser. BRE is implemented as a
// pre-pass (bretranslate) that swaps the specialness of + ? | ( ) { }
// and rewrites the pattern into ERE-equivalent syntax, so the same ERE
// grammar parses both dialects.
type parser struct {
	src             string
	pos             int
	caseInsensitive bool
	numGroups       uint32
}

// Parse compiles pattern under opts into an AST, or a *CompileError.
func Parse(pattern string, opts Options) (node, uint32, error) {
	src := pattern
	if !opts.Extended {
		translated, err := bretranslate(pattern)
		if err != nil {
			return nil, 0, err
		}
		src = translated
	}

	p := &parser{src: src, caseInsensitive: opts.CaseInsensitive}
	n, err := p.parseAlt()
	if err != nil {
		return nil, 0, err
	}
	if p.pos != len(p.src) {
		if p.src[p.pos] == ')' {
			return nil, 0, &CompileError{Kind: UnmatchedParen, Pattern: pattern, Pos: p.pos, Err: errUnmatchedParen}
		}
		return nil, 0, &CompileError{Kind: InvalidPattern, Pattern: pattern, Pos: p.pos, Err: errTrailingInput}
	}
	return n, p.numGroups, nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) parseAlt() (node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	branches := []node{first}
	for {
		b, ok := p.peek()
		if !ok || b != '|' {
			break
		}
		p.pos++
		next, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, next)
	}
	if len(branches) == 1 {
		return first, nil
	}
	return altNode{branches: branches}, nil
}

func (p *parser) parseConcat() (node, error) {
	var parts []node
	for {
		b, ok := p.peek()
		if !ok || b == '|' || b == ')' {
			break
		}
		factor, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		parts = append(parts, factor)
	}
	if len(parts) == 0 {
		return concatNode{}, nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return concatNode{parts: parts}, nil
}

func (p *parser) parseFactor() (node, error) {
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}

	b, ok := p.peek()
	if !ok {
		return base, nil
	}

	switch b {
	case '*':
		p.pos++
		return repeatNode{sub: base, min: 0, max: -1, greedy: true}, nil
	case '+':
		p.pos++
		return repeatNode{sub: base, min: 1, max: -1, greedy: true}, nil
	case '?':
		p.pos++
		return repeatNode{sub: base, min: 0, max: 1, greedy: true}, nil
	case '{':
		return p.parseBoundedRepeat(base)
	}
	return base, nil
}

func (p *parser) parseBoundedRepeat(base node) (node, error) {
	start := p.pos
	p.pos++ // consume '{'
	min, ok := p.parseInt()
	if !ok {
		p.pos = start
		return base, nil // '{' with no digits is a literal in this grammar
	}
	max := min
	if b, ok2 := p.peek(); ok2 && b == ',' {
		p.pos++
		if b2, ok3 := p.peek(); ok3 && b2 == '}' {
			max = -1
		} else {
			m, ok4 := p.parseInt()
			if !ok4 {
				return nil, &CompileError{Kind: InvalidQuantifier, Pos: p.pos, Err: errBadQuantifier}
			}
			max = m
		}
	}
	b, ok5 := p.peek()
	if !ok5 || b != '}' {
		return nil, &CompileError{Kind: InvalidQuantifier, Pos: p.pos, Err: errUnterminatedQuantifier}
	}
	p.pos++
	if max != -1 && max < min {
		return nil, &CompileError{Kind: InvalidQuantifier, Pos: p.pos, Err: errQuantifierRange}
	}
	if min > maxRepeatCount || max > maxRepeatCount {
		return nil, &CompileError{Kind: PatternTooComplex, Pos: p.pos, Err: errRepeatTooLarge}
	}
	return repeatNode{sub: base, min: min, max: max, greedy: true}, nil
}

// maxRepeatCount bounds {n,m} unrolling so state duplication cannot blow
// past the implementation's NFA state cap; beyond it, compilation rejects
// the pattern as PatternTooComplex.
const maxRepeatCount = 1000

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	for {
		b, ok := p.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n := 0
	for i := start; i < p.pos; i++ {
		n = n*10 + int(p.src[i]-'0')
	}
	return n, true
}

func (p *parser) parseBase() (node, error) {
	b, ok := p.peek()
	if !ok {
		return concatNode{}, nil
	}

	switch b {
	case '(':
		p.pos++
		p.numGroups++
		idx := p.numGroups
		sub, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		closeB, ok2 := p.peek()
		if !ok2 || closeB != ')' {
			return nil, &CompileError{Kind: UnmatchedParen, Pos: p.pos, Err: errUnmatchedParen}
		}
		p.pos++
		return groupNode{sub: sub, index: idx}, nil

	case '[':
		return p.parseClass()

	case '.':
		p.pos++
		return anyNode{}, nil

	case '^':
		p.pos++
		return lookNode{look: nfa.LookStartLine}, nil

	case '$':
		p.pos++
		return lookNode{look: nfa.LookEndLine}, nil

	case '\\':
		p.pos++
		return p.parseEscape()

	default:
		p.pos++
		return literalNode{b: b, caseInsensitive: p.caseInsensitive}, nil
	}
}

func (p *parser) parseEscape() (node, error) {
	b, ok := p.peek()
	if !ok {
		return nil, &CompileError{Kind: InvalidEscape, Pos: p.pos, Err: errTrailingBackslash}
	}
	p.pos++

	switch b {
	case 'd':
		return classNode{bitmap: digitBitmap()}, nil
	case 'D':
		return classNode{bitmap: digitBitmap(), negated: true}, nil
	case 'w':
		return classNode{bitmap: wordBitmap()}, nil
	case 'W':
		return classNode{bitmap: wordBitmap(), negated: true}, nil
	case 's':
		return classNode{bitmap: spaceBitmap()}, nil
	case 'S':
		return classNode{bitmap: spaceBitmap(), negated: true}, nil
	case 'b':
		return lookNode{look: nfa.LookWordBoundary}, nil
	case 'B':
		return lookNode{look: nfa.LookNotWordBoundary}, nil
	case 'n':
		return literalNode{b: '\n'}, nil
	case 't':
		return literalNode{b: '\t'}, nil
	case 'r':
		return literalNode{b: '\r'}, nil
	case '.', '*', '+', '?', '|', '(', ')', '[', ']', '{', '}', '^', '$', '\\':
		return literalNode{b: b, caseInsensitive: p.caseInsensitive}, nil
	default:
		if isASCIILetter(b) || isASCIIDigit(b) {
			return nil, &CompileError{Kind: InvalidEscape, Pos: p.pos, Err: errUnknownEscape}
		}
		return literalNode{b: b, caseInsensitive: p.caseInsensitive}, nil
	}
}

func isASCIILetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isASCIIDigit(b byte) bool  { return b >= '0' && b <= '9' }
