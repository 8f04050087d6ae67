package nfa

import (
	"github.com/coregx/grepcore/internal/sparse"
	"github.com/coregx/grepcore/matchset"
)

// PikeVM implements Ken Thompson's construction as a parallel-thread
// simulation: every active thread advances one byte per step, so the whole
// search runs in O(n) regardless of how many alternatives the pattern has.
//
// PikeVM trades the speed of a compiled DFA for full generality: capture
// groups, and now the Look assertions component D's zero-width rules need,
// fall out of the same thread-stepping loop without a separate engine.
type PikeVM struct {
	nfa *NFA

	queue     []thread
	nextQueue []thread

	visited *sparse.SparseSet
}

// thread is one candidate path through the NFA at the current byte position.
type thread struct {
	state    StateID
	startPos int
	captures cowCaptures
}

// cowCaptures gives capture slots copy-on-write semantics: splitting a
// thread (StateSplit) is then a pointer copy, and only a thread that
// actually records a capture pays for an allocation.
type cowCaptures struct {
	shared *sharedCaptures
}

type sharedCaptures struct {
	data []int
	refs int
}

func (c cowCaptures) clone() cowCaptures {
	if c.shared == nil {
		return cowCaptures{}
	}
	c.shared.refs++
	return cowCaptures{shared: c.shared}
}

func (c cowCaptures) update(slotIndex, value int) cowCaptures {
	if c.shared == nil || slotIndex < 0 || slotIndex >= len(c.shared.data) {
		return c
	}
	if c.shared.refs > 1 {
		c.shared.refs--
		newData := make([]int, len(c.shared.data))
		copy(newData, c.shared.data)
		newData[slotIndex] = value
		return cowCaptures{shared: &sharedCaptures{data: newData, refs: 1}}
	}
	c.shared.data[slotIndex] = value
	return c
}

func (c cowCaptures) copyData() []int {
	if c.shared == nil {
		return nil
	}
	dst := make([]int, len(c.shared.data))
	copy(dst, c.shared.data)
	return dst
}

// Match is a bare start/end byte-offset pair.
type Match struct {
	Start int
	End   int
}

// MatchWithCaptures extends Match with capture-group spans; Captures[0] is
// always the whole match.
type MatchWithCaptures struct {
	Start    int
	End      int
	Captures [][]int
}

// NewPikeVM prepares a PikeVM to search with nfa, pre-sizing its thread
// queues and sparse visited-set to the automaton's state count.
func NewPikeVM(nfa *NFA) *PikeVM {
	capacity := nfa.States()
	if capacity < 16 {
		capacity = 16
	}
	return &PikeVM{
		nfa:       nfa,
		queue:     make([]thread, 0, capacity),
		nextQueue: make([]thread, 0, capacity),
		visited:   sparse.NewSparseSet(uint32(capacity)),
	}
}

func (p *PikeVM) newCaptures() cowCaptures {
	numSlots := p.nfa.CaptureCount() * 2
	if numSlots == 0 {
		return cowCaptures{}
	}
	data := make([]int, numSlots)
	for i := range data {
		data[i] = -1
	}
	return cowCaptures{shared: &sharedCaptures{data: data, refs: 1}}
}

func updateCapture(caps cowCaptures, groupIndex uint32, isStart bool, pos int) cowCaptures {
	slotIndex := int(groupIndex) * 2
	if !isStart {
		slotIndex++
	}
	return caps.update(slotIndex, pos)
}

// Search returns the leftmost-longest match in haystack, or (-1,-1,false).
func (p *PikeVM) Search(haystack []byte) (int, int, bool) {
	if len(haystack) == 0 {
		if p.matchesEmpty(0) {
			return 0, 0, true
		}
		return -1, -1, false
	}
	if p.nfa.AnchoredStart() {
		return p.searchAt(haystack, 0)
	}
	return p.searchUnanchored(haystack)
}

// searchUnanchored runs the classic "implicit .*? prefix" parallel
// simulation: a fresh start thread is seeded at every position until the
// first match is found, so every possible match start is explored without
// restarting the scan from scratch (O(n) total, not O(n^2)).
func (p *PikeVM) searchUnanchored(haystack []byte) (int, int, bool) {
	p.queue = p.queue[:0]
	p.nextQueue = p.nextQueue[:0]
	p.visited.Clear()

	bestStart := -1
	bestEnd := -1

	for pos := 0; pos <= len(haystack); pos++ {
		if bestStart == -1 {
			p.visited.Clear()
			p.addThread(thread{state: p.nfa.Start(), startPos: pos}, haystack, pos)
		}

		for _, t := range p.queue {
			if p.nfa.IsMatch(t.state) {
				if bestStart == -1 || t.startPos < bestStart ||
					(t.startPos == bestStart && pos > bestEnd) {
					bestStart = t.startPos
					bestEnd = pos
				}
			}
		}

		if pos >= len(haystack) {
			break
		}

		if bestStart != -1 {
			hasLeftmostCandidate := false
			for _, t := range p.queue {
				if t.startPos <= bestStart {
					hasLeftmostCandidate = true
					break
				}
			}
			if !hasLeftmostCandidate {
				break
			}
		}

		if len(p.queue) == 0 {
			break
		}

		b := haystack[pos]
		p.visited.Clear()
		for _, t := range p.queue {
			p.step(t, b, haystack, pos+1)
		}
		p.queue, p.nextQueue = p.nextQueue, p.queue[:0]
	}

	if bestStart != -1 {
		return bestStart, bestEnd, true
	}
	return -1, -1, false
}

// SearchWithCaptures is Search plus capture-group spans.
func (p *PikeVM) SearchWithCaptures(haystack []byte) *MatchWithCaptures {
	if len(haystack) == 0 {
		if p.matchesEmpty(0) {
			return &MatchWithCaptures{Start: 0, End: 0, Captures: p.buildCapturesResult(nil, 0, 0)}
		}
		return nil
	}
	if p.nfa.AnchoredStart() {
		return p.searchAtWithCaptures(haystack, 0)
	}
	return p.searchUnanchoredWithCaptures(haystack)
}

func (p *PikeVM) searchUnanchoredWithCaptures(haystack []byte) *MatchWithCaptures {
	p.queue = p.queue[:0]
	p.nextQueue = p.nextQueue[:0]
	p.visited.Clear()

	bestStart := -1
	bestEnd := -1
	var bestCaptures []int

	for pos := 0; pos <= len(haystack); pos++ {
		if bestStart == -1 {
			p.visited.Clear()
			caps := p.newCaptures()
			p.addThread(thread{state: p.nfa.Start(), startPos: pos, captures: caps}, haystack, pos)
		}

		for _, t := range p.queue {
			if p.nfa.IsMatch(t.state) {
				if bestStart == -1 || t.startPos < bestStart ||
					(t.startPos == bestStart && pos > bestEnd) {
					bestStart = t.startPos
					bestEnd = pos
					bestCaptures = t.captures.copyData()
				}
			}
		}

		if pos >= len(haystack) {
			break
		}

		if bestStart != -1 {
			hasLeftmostCandidate := false
			for _, t := range p.queue {
				if t.startPos <= bestStart {
					hasLeftmostCandidate = true
					break
				}
			}
			if !hasLeftmostCandidate {
				break
			}
		}

		if len(p.queue) == 0 {
			break
		}

		b := haystack[pos]
		p.visited.Clear()
		for _, t := range p.queue {
			p.step(t, b, haystack, pos+1)
		}
		p.queue, p.nextQueue = p.nextQueue, p.queue[:0]
	}

	if bestStart != -1 {
		return &MatchWithCaptures{
			Start:    bestStart,
			End:      bestEnd,
			Captures: p.buildCapturesResult(bestCaptures, bestStart, bestEnd),
		}
	}
	return nil
}

func (p *PikeVM) searchAtWithCaptures(haystack []byte, startPos int) *MatchWithCaptures {
	p.queue = p.queue[:0]
	p.nextQueue = p.nextQueue[:0]
	p.visited.Clear()

	caps := p.newCaptures()
	p.addThread(thread{state: p.nfa.Start(), startPos: startPos, captures: caps}, haystack, startPos)

	lastMatchPos := -1
	var lastMatchCaptures []int

	for pos := startPos; pos <= len(haystack); pos++ {
		for _, t := range p.queue {
			if p.nfa.IsMatch(t.state) {
				lastMatchPos = pos
				lastMatchCaptures = t.captures.copyData()
				break
			}
		}

		if len(p.queue) == 0 {
			break
		}
		if pos >= len(haystack) {
			break
		}

		b := haystack[pos]
		p.visited.Clear()
		for _, t := range p.queue {
			p.step(t, b, haystack, pos+1)
		}
		p.queue, p.nextQueue = p.nextQueue, p.queue[:0]
	}

	if lastMatchPos != -1 {
		return &MatchWithCaptures{
			Start:    startPos,
			End:      lastMatchPos,
			Captures: p.buildCapturesResult(lastMatchCaptures, startPos, lastMatchPos),
		}
	}
	return nil
}

func (p *PikeVM) buildCapturesResult(caps []int, matchStart, matchEnd int) [][]int {
	numGroups := p.nfa.CaptureCount()
	if numGroups == 0 {
		return [][]int{{matchStart, matchEnd}}
	}

	result := make([][]int, numGroups)
	result[0] = []int{matchStart, matchEnd}

	if caps != nil {
		for i := 1; i < numGroups; i++ {
			startIdx := i * 2
			endIdx := startIdx + 1
			if startIdx < len(caps) && endIdx < len(caps) {
				start := caps[startIdx]
				end := caps[endIdx]
				if start >= 0 && end >= 0 {
					result[i] = []int{start, end}
				}
			}
		}
	}
	return result
}

// SearchAll returns every non-overlapping match in haystack, in order.
func (p *PikeVM) SearchAll(haystack []byte) []Match {
	var matches []Match
	pos := 0

	for pos <= len(haystack) {
		start, end, matched := p.searchAt(haystack, pos)
		if !matched {
			pos++
			continue
		}
		matches = append(matches, Match{Start: start, End: end})
		if end > pos {
			pos = end
		} else {
			pos++
		}
	}
	return matches
}

func (p *PikeVM) searchAt(haystack []byte, startPos int) (int, int, bool) {
	p.queue = p.queue[:0]
	p.nextQueue = p.nextQueue[:0]
	p.visited.Clear()

	p.addThread(thread{state: p.nfa.Start(), startPos: startPos}, haystack, startPos)

	lastMatchPos := -1

	for pos := startPos; pos <= len(haystack); pos++ {
		for _, t := range p.queue {
			if p.nfa.IsMatch(t.state) {
				lastMatchPos = pos
				break
			}
		}

		if len(p.queue) == 0 {
			break
		}
		if pos >= len(haystack) {
			break
		}

		b := haystack[pos]
		p.visited.Clear()
		for _, t := range p.queue {
			p.step(t, b, haystack, pos+1)
		}
		p.queue, p.nextQueue = p.nextQueue, p.queue[:0]
	}

	if lastMatchPos != -1 {
		return startPos, lastMatchPos, true
	}
	return -1, -1, false
}

// addThread follows zero-width transitions (epsilon, split, capture, look)
// from t until it reaches a consuming state or a match state, appending each
// terminal thread to the current generation's queue. visited dedups states
// already reached this generation — without it, alternations of character
// classes cause exponential thread blow-up.
func (p *PikeVM) addThread(t thread, haystack []byte, pos int) {
	if p.visited.Contains(uint32(t.state)) {
		return
	}
	p.visited.Insert(uint32(t.state))

	state := p.nfa.State(t.state)
	if state == nil {
		return
	}

	switch state.Kind() {
	case StateMatch:
		p.queue = append(p.queue, t)

	case StateByteRange, StateSparse:
		p.queue = append(p.queue, t)

	case StateEpsilon:
		if next := state.Epsilon(); next != InvalidState {
			p.addThread(thread{state: next, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}

	case StateSplit:
		left, right := state.Split()
		if left != InvalidState {
			p.addThread(thread{state: left, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}
		if right != InvalidState {
			p.addThread(thread{state: right, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}

	case StateCapture:
		groupIndex, isStart, next := state.Capture()
		if next != InvalidState {
			newCaps := updateCapture(t.captures, groupIndex, isStart, pos)
			p.addThread(thread{state: next, startPos: t.startPos, captures: newCaps}, haystack, pos)
		}

	case StateLook:
		look, next := state.LookAssertion()
		if next != InvalidState && evalLook(look, haystack, pos) {
			p.addThread(thread{state: next, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}

	case StateFail:
	}
}

// step advances a single consuming thread across byte b, queuing any
// resulting thread into the next generation via addThreadToNext.
func (p *PikeVM) step(t thread, b byte, haystack []byte, nextPos int) {
	state := p.nfa.State(t.state)
	if state == nil {
		return
	}

	switch state.Kind() {
	case StateByteRange:
		lo, hi, next := state.ByteRange()
		if b >= lo && b <= hi {
			p.addThreadToNext(thread{state: next, startPos: t.startPos, captures: t.captures}, haystack, nextPos)
		}

	case StateSparse:
		for _, tr := range state.Transitions() {
			if b >= tr.Lo && b <= tr.Hi {
				p.addThreadToNext(thread{state: tr.Next, startPos: t.startPos, captures: t.captures}, haystack, nextPos)
			}
		}
	}
}

// addThreadToNext is addThread's counterpart for the next generation: it
// resolves zero-width states (including StateLook, evaluated against the
// position the byte just consumed landed on) before a thread is queued to
// run against the following byte.
func (p *PikeVM) addThreadToNext(t thread, haystack []byte, pos int) {
	if p.visited.Contains(uint32(t.state)) {
		return
	}
	p.visited.Insert(uint32(t.state))

	state := p.nfa.State(t.state)
	if state == nil {
		return
	}

	switch state.Kind() {
	case StateEpsilon:
		if next := state.Epsilon(); next != InvalidState {
			p.addThreadToNext(thread{state: next, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}
		return

	case StateSplit:
		left, right := state.Split()
		if left != InvalidState {
			p.addThreadToNext(thread{state: left, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}
		if right != InvalidState {
			p.addThreadToNext(thread{state: right, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}
		return

	case StateCapture:
		groupIndex, isStart, next := state.Capture()
		if next != InvalidState {
			newCaps := updateCapture(t.captures, groupIndex, isStart, pos)
			p.addThreadToNext(thread{state: next, startPos: t.startPos, captures: newCaps}, haystack, pos)
		}
		return

	case StateLook:
		look, next := state.LookAssertion()
		if next != InvalidState && evalLook(look, haystack, pos) {
			p.addThreadToNext(thread{state: next, startPos: t.startPos, captures: t.captures}, haystack, pos)
		}
		return
	}

	p.nextQueue = append(p.nextQueue, t)
}

// evalLook decides whether a zero-width assertion holds with the cursor at
// pos in haystack (pos is the index of the next byte to consume, i.e. the
// boundary between haystack[pos-1] and haystack[pos]).
func evalLook(look Look, haystack []byte, pos int) bool {
	switch look {
	case LookStartText:
		return pos == 0
	case LookEndText:
		return pos == len(haystack)
	case LookStartLine:
		return pos == 0 || haystack[pos-1] == '\n'
	case LookEndLine:
		return pos == len(haystack) || haystack[pos] == '\n'
	case LookWordBoundary:
		return wordBoundaryAt(haystack, pos)
	case LookNotWordBoundary:
		return !wordBoundaryAt(haystack, pos)
	default:
		return false
	}
}

func wordBoundaryAt(haystack []byte, pos int) bool {
	before := pos > 0 && matchset.IsWordByte(haystack[pos-1])
	after := pos < len(haystack) && matchset.IsWordByte(haystack[pos])
	return before != after
}

// matchesEmpty reports whether the NFA accepts at pos via epsilon/split/
// capture/look transitions alone, with no byte consumed.
func (p *PikeVM) matchesEmpty(pos int) bool {
	p.queue = p.queue[:0]
	p.visited.Clear()

	var stack []StateID
	start := p.nfa.Start()
	stack = append(stack, start)
	p.visited.Insert(uint32(start))

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.nfa.IsMatch(id) {
			return true
		}

		state := p.nfa.State(id)
		if state == nil {
			continue
		}

		switch state.Kind() {
		case StateEpsilon:
			next := state.Epsilon()
			if next != InvalidState && !p.visited.Contains(uint32(next)) {
				p.visited.Insert(uint32(next))
				stack = append(stack, next)
			}

		case StateSplit:
			left, right := state.Split()
			if left != InvalidState && !p.visited.Contains(uint32(left)) {
				p.visited.Insert(uint32(left))
				stack = append(stack, left)
			}
			if right != InvalidState && !p.visited.Contains(uint32(right)) {
				p.visited.Insert(uint32(right))
				stack = append(stack, right)
			}

		case StateCapture:
			_, _, next := state.Capture()
			if next != InvalidState && !p.visited.Contains(uint32(next)) {
				p.visited.Insert(uint32(next))
				stack = append(stack, next)
			}

		case StateLook:
			look, next := state.LookAssertion()
			if next != InvalidState && evalLook(look, nil, pos) && !p.visited.Contains(uint32(next)) {
				p.visited.Insert(uint32(next))
				stack = append(stack, next)
			}
		}
	}

	return false
}
