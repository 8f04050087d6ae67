package matchset

import "sort"

// LineIndex answers "how many newlines occur strictly before offset" in
// amortized O(1) per query when queries arrive in non-decreasing offset
// order, which is how Aggregate calls it (records are sorted by LineStart
// first). It keeps a running cursor instead of rescanning from the buffer
// start for every record.
type LineIndex struct {
	text   []byte
	cursor int // byte offset already scanned
	lines  int // newlines found before cursor
}

// NewLineIndex creates a line index over text, positioned at offset 0.
func NewLineIndex(text []byte) *LineIndex {
	return &LineIndex{text: text}
}

// LineNumberAt returns the 1-based line number containing offset. offset
// must be >= any offset previously passed to LineNumberAt on this index.
func (li *LineIndex) LineNumberAt(offset uint32) uint32 {
	target := int(offset)
	if target < li.cursor {
		// Out-of-order query: fall back to a fresh scan rather than produce
		// a wrong answer.
		li.cursor = 0
		li.lines = 0
	}
	for li.cursor < target && li.cursor < len(li.text) {
		if li.text[li.cursor] == '\n' {
			li.lines++
		}
		li.cursor++
	}
	return uint32(li.lines) + 1
}

// Aggregate converts raw backend matches into the canonical presentation
// order: sorted by (LineStart, Position), line numbers filled in, and
// (when dedupLines is true, the default for line-oriented output) at most
// one record kept per line.
func Aggregate(text []byte, records []MatchRecord, dedupLines bool) []MatchRecord {
	if len(records) == 0 {
		return records
	}

	sorted := make([]MatchRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LineStart != sorted[j].LineStart {
			return sorted[i].LineStart < sorted[j].LineStart
		}
		return sorted[i].Position < sorted[j].Position
	})

	li := NewLineIndex(text)
	out := make([]MatchRecord, 0, len(sorted))
	var lastLine uint32 = 1<<32 - 1
	seenLine := false

	for _, rec := range sorted {
		if rec.LineNum == 0 {
			rec.LineNum = li.LineNumberAt(rec.LineStart)
		}
		if dedupLines {
			if seenLine && rec.LineStart == lastLine {
				continue
			}
			seenLine = true
			lastLine = rec.LineStart
		}
		out = append(out, rec)
	}
	return out
}
