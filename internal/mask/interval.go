package mask

import (
	"slices"
)

// Interval is a closed range [Start, End] of 1-based positions on a contig.
type Interval struct {
	Contig string `csv:"contig"`
	Start  int64  `csv:"start"`
	End    int64  `csv:"end"`
}

// Len returns the number of positions covered by the interval.
func (iv Interval) Len() int64 {
	return iv.End - iv.Start + 1
}

// Span is a closed range [Lo, Hi] of integer positions.
type Span struct {
	Lo, Hi int64
}

// Extract merges a set of positions into maximal runs of consecutive
// integers. Input order and duplicates do not matter; the input slice is
// not modified. The result is sorted, non-overlapping, and covers exactly
// the input set.
func Extract(positions []int64) []Span {
	if len(positions) == 0 {
		return nil
	}

	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var spans []Span
	cur := Span{Lo: sorted[0], Hi: sorted[0]}
	for _, p := range sorted[1:] {
		if p == cur.Hi+1 {
			cur.Hi = p
			continue
		}
		spans = append(spans, cur)
		cur = Span{Lo: p, Hi: p}
	}
	return append(spans, cur)
}

// Expand returns every position covered by spans, in span order.
func Expand(spans []Span) []int64 {
	var out []int64
	for _, s := range spans {
		for p := s.Lo; p <= s.Hi; p++ {
			out = append(out, p)
		}
	}
	return out
}
