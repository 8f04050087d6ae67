package regexcompile

import "github.com/coregx/grepcore/nfa"

// lowerer walks an AST and emits NFA states via nfa.Builder using the
// Thompson fragment idiom: each compile step returns (start, end
// StateID), where end is a dangling edge the caller patches to whatever
// continuation follows.
type lowerer struct {
	b           *nfa.Builder
	numCaptures int
}

// Lower compiles an AST (from Parse) into a host nfa.NFA.
func Lower(n node, numGroups uint32) (*nfa.NFA, error) {
	l := &lowerer{b: nfa.NewBuilder()}

	start, end, err := l.compile(n)
	if err != nil {
		return nil, err
	}

	matchID := l.b.AddMatch()
	l.b.Patch(end, matchID)
	l.b.SetStart(start)
	l.b.SetAnchors(isLeadingAnchor(n), isTrailingAnchor(n))

	if l.b.NumStates() > maxNFAStates {
		return nil, &CompileError{Kind: PatternTooComplex, Err: errTooManyStates}
	}

	nfaOut, err := l.b.Build(int(numGroups) + 1)
	if err != nil {
		return nil, &CompileError{Kind: InvalidPattern, Err: err}
	}
	return nfaOut, nil
}

// maxNFAStates caps the arena so every state index fits the packed GPU
// form's 16-bit edge fields (0xFFFF is the no-edge sentinel). Patterns
// needing more reject as PatternTooComplex rather than truncate.
const maxNFAStates = 0xFFFF

func (l *lowerer) compile(n node) (start, end nfa.StateID, err error) {
	switch v := n.(type) {
	case literalNode:
		return l.compileLiteral(v)
	case anyNode:
		// '.' matches any byte except newline.
		id := l.b.AddSparse(dotTransitions(), false)
		return id, id, nil
	case classNode:
		id := l.b.AddSparse(bitmapTransitions(v.bitmap, v.negated), false)
		return id, id, nil
	case concatNode:
		return l.compileConcat(v.parts)
	case altNode:
		return l.compileAlt(v.branches)
	case repeatNode:
		return l.compileRepeat(v)
	case groupNode:
		return l.compileGroup(v)
	case lookNode:
		id := l.b.AddLook(v.look, nfa.InvalidState)
		return id, id, nil
	default:
		id := l.b.AddEpsilon(nfa.InvalidState)
		return id, id, nil
	}
}

// isLeadingAnchor reports whether n's outermost structure guarantees a
// ^/\A assertion as its very first symbol on every matching path: n is
// itself such a look, or n is a concatenation whose first part is. It does
// not recurse into groupNode/altNode, so an anchor nested inside a group
// (e.g. "(^a)") or present in only one alternation branch (e.g. "a|^b")
// is never reported as a leading anchor. A false negative only costs the
// AnchoredStart fast path in nfa.PikeVM.Search; a false positive would
// wrongly skip match attempts at positions > 0.
func isLeadingAnchor(n node) bool {
	switch v := n.(type) {
	case lookNode:
		return v.look == nfa.LookStartText || v.look == nfa.LookStartLine
	case concatNode:
		if len(v.parts) == 0 {
			return false
		}
		return isLeadingAnchor(v.parts[0])
	default:
		return false
	}
}

// isTrailingAnchor is isLeadingAnchor's mirror for $/\z at the end of the
// outermost concatenation.
func isTrailingAnchor(n node) bool {
	switch v := n.(type) {
	case lookNode:
		return v.look == nfa.LookEndText || v.look == nfa.LookEndLine
	case concatNode:
		if len(v.parts) == 0 {
			return false
		}
		return isTrailingAnchor(v.parts[len(v.parts)-1])
	default:
		return false
	}
}

func (l *lowerer) compileLiteral(v literalNode) (start, end nfa.StateID, err error) {
	if v.caseInsensitive {
		if other, ok := caseSwap(v.b); ok {
			lo, hi := v.b, other
			if lo > hi {
				lo, hi = hi, lo
			}
			if hi-lo == ('a' - 'A') || lo == hi {
				id := l.b.AddSparse([]nfa.Transition{
					{Lo: lo, Hi: lo, Next: nfa.InvalidState},
					{Lo: hi, Hi: hi, Next: nfa.InvalidState},
				}, true)
				return id, id, nil
			}
		}
	}
	id := l.b.AddByteRange(v.b, v.b, false, nfa.InvalidState)
	return id, id, nil
}

func (l *lowerer) compileConcat(parts []node) (start, end nfa.StateID, err error) {
	if len(parts) == 0 {
		id := l.b.AddEpsilon(nfa.InvalidState)
		return id, id, nil
	}
	start, prevEnd, err := l.compile(parts[0])
	if err != nil {
		return nfa.InvalidState, nfa.InvalidState, err
	}
	for _, p := range parts[1:] {
		pStart, pEnd, err := l.compile(p)
		if err != nil {
			return nfa.InvalidState, nfa.InvalidState, err
		}
		l.b.Patch(prevEnd, pStart)
		prevEnd = pEnd
	}
	return start, prevEnd, nil
}

func (l *lowerer) compileAlt(branches []node) (start, end nfa.StateID, err error) {
	if len(branches) == 1 {
		return l.compile(branches[0])
	}

	// Chain of binary splits: split(b0, split(b1, split(b2, ...))).
	// All branch ends funnel to one shared epsilon join state.
	join := l.b.AddEpsilon(nfa.InvalidState)

	starts := make([]nfa.StateID, len(branches))
	for i, br := range branches {
		s, e, err := l.compile(br)
		if err != nil {
			return nfa.InvalidState, nfa.InvalidState, err
		}
		l.b.Patch(e, join)
		starts[i] = s
	}

	cur := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		cur = l.b.AddSplit(starts[i], cur)
	}
	return cur, join, nil
}

func (l *lowerer) compileRepeat(v repeatNode) (start, end nfa.StateID, err error) {
	switch {
	case v.min == 0 && v.max == -1:
		return l.compileStar(v.sub)
	case v.min == 1 && v.max == -1:
		return l.compilePlus(v.sub)
	case v.min == 0 && v.max == 1:
		return l.compileQuest(v.sub)
	default:
		return l.compileBounded(v.sub, v.min, v.max)
	}
}

// compileStar implements '*': split(body, out); body's end loops back to
// the split.
func (l *lowerer) compileStar(sub node) (start, end nfa.StateID, err error) {
	split := l.b.AddSplit(nfa.InvalidState, nfa.InvalidState)
	bodyStart, bodyEnd, err := l.compile(sub)
	if err != nil {
		return nfa.InvalidState, nfa.InvalidState, err
	}
	l.b.Patch(split, bodyStart) // left arm: enter body
	l.b.Patch(bodyEnd, split)   // body loops back to split
	// right arm (the "out" edge) stays InvalidState, patched by the caller.
	return split, split, nil
}

// compilePlus implements '+': body once, then split(body-again, out).
func (l *lowerer) compilePlus(sub node) (start, end nfa.StateID, err error) {
	bodyStart, bodyEnd, err := l.compile(sub)
	if err != nil {
		return nfa.InvalidState, nfa.InvalidState, err
	}
	split := l.b.AddSplit(bodyStart, nfa.InvalidState)
	l.b.Patch(bodyEnd, split)
	return bodyStart, split, nil
}

// compileQuest implements '?': split(body, out).
func (l *lowerer) compileQuest(sub node) (start, end nfa.StateID, err error) {
	bodyStart, bodyEnd, err := l.compile(sub)
	if err != nil {
		return nfa.InvalidState, nfa.InvalidState, err
	}
	split := l.b.AddSplit(bodyStart, nfa.InvalidState)
	join := l.b.AddEpsilon(nfa.InvalidState)
	l.b.Patch(bodyEnd, join)
	l.b.Patch(split, join) // fills split's still-open skip arm
	return split, join, nil
}

// compileBounded implements '{n,m}' by unrolling: n mandatory copies
// followed by (m-n) optional copies, or an unbounded '*' tail when m == -1.
func (l *lowerer) compileBounded(sub node, min, max int) (start, end nfa.StateID, err error) {
	if max == 0 {
		id := l.b.AddEpsilon(nfa.InvalidState)
		return id, id, nil
	}

	var parts []node
	for i := 0; i < min; i++ {
		parts = append(parts, sub)
	}

	if max == -1 {
		if min == 0 {
			return l.compileStar(sub)
		}
		parts = append(parts, repeatNode{sub: sub, min: 0, max: -1, greedy: true})
		return l.compileConcat(parts)
	}

	for i := min; i < max; i++ {
		parts = append(parts, repeatNode{sub: sub, min: 0, max: 1, greedy: true})
	}
	if len(parts) == 0 {
		id := l.b.AddEpsilon(nfa.InvalidState)
		return id, id, nil
	}
	return l.compileConcat(parts)
}

func (l *lowerer) compileGroup(v groupNode) (start, end nfa.StateID, err error) {
	bodyStart, bodyEnd, err := l.compile(v.sub)
	if err != nil {
		return nfa.InvalidState, nfa.InvalidState, err
	}
	if v.index == 0 {
		return bodyStart, bodyEnd, nil
	}
	openID := l.b.AddCapture(v.index, true, bodyStart)
	closeID := l.b.AddCapture(v.index, false, nfa.InvalidState)
	l.b.Patch(bodyEnd, closeID)
	return openID, closeID, nil
}

// dotTransitions returns the byte-range arms for '.': every byte except '\n'.
// Next edges start unwired (InvalidState) so Builder.Patch can fill them.
func dotTransitions() []nfa.Transition {
	return []nfa.Transition{
		{Lo: 0x00, Hi: '\n' - 1, Next: nfa.InvalidState},
		{Lo: '\n' + 1, Hi: 0xFF, Next: nfa.InvalidState},
	}
}

// bitmapTransitions converts a 256-bit class bitmap into sparse-state byte
// ranges, merging adjacent set bits into runs.
func bitmapTransitions(bitmap [32]byte, negated bool) []nfa.Transition {
	var transitions []nfa.Transition
	inRun := false
	var runStart byte

	flush := func(endExclusive int) {
		if inRun {
			transitions = append(transitions, nfa.Transition{Lo: runStart, Hi: byte(endExclusive - 1), Next: nfa.InvalidState})
			inRun = false
		}
	}

	for c := 0; c < 256; c++ {
		set := testBit(bitmap, byte(c))
		if negated {
			set = !set
		}
		if set && !inRun {
			inRun = true
			runStart = byte(c)
		} else if !set && inRun {
			flush(c)
		}
	}
	flush(256)

	return transitions
}
