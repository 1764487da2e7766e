package mask

import (
	"github.com/inodb/gvcf-reduce/internal/depth"
)

// DepthSource exposes accumulated per-contig depth arrays.
type DepthSource interface {
	Contigs() []string
	Depths(contig string) ([]int32, bool)
}

var _ DepthSource = (*depth.Table)(nil)

// Build computes the low-coverage mask for every contig in declaration
// order. A position is masked when its depth is strictly below minDepth.
func Build(src DepthSource, minDepth int32) []Interval {
	var out []Interval
	for _, contig := range src.Contigs() {
		depths, _ := src.Depths(contig)
		out = append(out, ContigMask(contig, depths, minDepth)...)
	}
	return out
}

// ContigMask computes the mask for a single contig. depths is 0-based;
// emitted intervals are 1-based.
func ContigMask(contig string, depths []int32, minDepth int32) []Interval {
	var low []int64
	for i, d := range depths {
		if d < minDepth {
			low = append(low, int64(i))
		}
	}

	spans := Extract(low)
	out := make([]Interval, len(spans))
	for i, s := range spans {
		out[i] = Interval{Contig: contig, Start: s.Lo + 1, End: s.Hi + 1}
	}
	return out
}

// MaskedBases sums the lengths of the intervals on contig.
func MaskedBases(intervals []Interval, contig string) int64 {
	var n int64
	for _, iv := range intervals {
		if iv.Contig == contig {
			n += iv.Len()
		}
	}
	return n
}
