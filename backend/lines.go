package backend

// SplitLines returns the per-line start offsets and lengths (newline
// excluded) the line-partitioned regex kernel consumes as its
// line_offsets[]/line_lengths[] buffers. The line model matches the rest
// of the engine: a trailing line without a newline still counts, and a
// trailing newline does not open a final empty line.
func SplitLines(text []byte) (offsets, lengths []uint32) {
	start := 0
	n := len(text)
	for start < n {
		end := start
		for end < n && text[end] != '\n' {
			end++
		}
		offsets = append(offsets, uint32(start))
		lengths = append(lengths, uint32(end-start))
		start = end + 1
	}
	return offsets, lengths
}
