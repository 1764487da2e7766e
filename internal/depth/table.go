// Package depth accumulates per-position read depth over declared contigs.
package depth

import (
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// Table holds one dense depth array per declared contig. Arrays are sized
// from the declared length up front and never grow, so every write is O(1)
// per position. Index i holds the depth of 1-based position i+1.
type Table struct {
	names  []string // declaration order
	index  map[string]int
	depths [][]int32
}

// NewTable creates an empty depth table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// DeclareContig allocates a zero-filled depth array of exactly length positions.
func (t *Table) DeclareContig(name string, length int64) error {
	if _, ok := t.index[name]; ok {
		return gvcferr.Configurationf("contig %q declared more than once", name)
	}
	if length < 0 {
		return gvcferr.Configurationf("contig %q has negative length %d", name, length)
	}

	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.depths = append(t.depths, make([]int32, length))
	return nil
}

// Record writes depth into every position of [start, end] on contig,
// overwriting earlier values. Later records win over earlier ones.
func (t *Table) Record(contig string, start, end int64, depth int32) error {
	i, ok := t.index[contig]
	if !ok {
		return gvcferr.Rangef("contig %q is not declared in the header", contig)
	}
	d := t.depths[i]
	if start < 1 || start > end || end > int64(len(d)) {
		return gvcferr.Rangef("range %d-%d outside contig %q of length %d", start, end, contig, len(d))
	}

	span := d[start-1 : end]
	for j := range span {
		span[j] = depth
	}
	return nil
}

// Contigs returns contig names in declaration order.
func (t *Table) Contigs() []string {
	return t.names
}

// Depths returns the depth array for contig. The slice is owned by the table.
func (t *Table) Depths(contig string) ([]int32, bool) {
	i, ok := t.index[contig]
	if !ok {
		return nil, false
	}
	return t.depths[i], true
}
