package utils

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// SplitRange divides [0, n) into at most parts contiguous chunks of
// near-equal size. Chunk sizes differ by at most one; empty chunks are
// not produced, so fewer than parts ranges are returned when n < parts.
func SplitRange(n, parts int) []Range {
	if n <= 0 || parts <= 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	ranges := make([]Range, 0, parts)
	size := n / parts
	rem := n % parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges
}
