// Package vcf provides gVCF reading and writing.
package vcf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// RefBlockAllele is the ALT placeholder of a gVCF reference block.
const RefBlockAllele = "<*>"

// Contig is a ##contig header declaration.
type Contig struct {
	Name   string
	Length int64
}

// Variant represents a single record from a gVCF file.
type Variant struct {
	Chrom         string                 // Chromosome name (e.g., "MN908947.3")
	Pos           int64                  // 1-based genomic position
	ID            string                 // Variant identifier
	Ref           string                 // Reference allele
	Alt           string                 // ALT column as written, may list several alleles
	Qual          float64                // Quality score
	Filter        string                 // Filter status (PASS or filter name)
	Info          map[string]interface{} // INFO key-value pairs; flags map to true
	SampleColumns string                 // FORMAT and sample columns, tab-joined
	Line          string                 // Raw record line without line terminator
}

// Alts returns the alternate alleles listed in the ALT column.
func (v *Variant) Alts() []string {
	if v.Alt == "" || v.Alt == "." {
		return nil
	}
	return strings.Split(v.Alt, ",")
}

// IsMultiAllelic reports whether the record lists more than one alternate allele.
func (v *Variant) IsMultiAllelic() bool {
	return strings.Contains(v.Alt, ",")
}

// IsRefBlock reports whether the record is a gVCF reference block.
func (v *Variant) IsRefBlock() bool {
	return v.Alt == RefBlockAllele
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// End returns the 1-based inclusive end position of the record. The INFO END
// key takes precedence; otherwise the end is derived from the reference allele.
func (v *Variant) End() (int64, error) {
	if _, ok := v.Info["END"]; ok {
		end, err := v.IntInfo("END")
		if err != nil {
			return 0, err
		}
		return end, nil
	}
	if v.Ref == "" {
		return 0, gvcferr.Formatf("empty reference allele")
	}
	return v.Pos + int64(len(v.Ref)) - 1, nil
}

// StringInfo returns the raw value of an INFO key.
func (v *Variant) StringInfo(key string) (string, bool) {
	s, ok := v.Info[key].(string)
	return s, ok
}

// IntInfo returns an integer INFO value. For list-valued keys (Number=A,
// Number=R) the first element is returned.
func (v *Variant) IntInfo(key string) (int64, error) {
	raw, ok := v.Info[key]
	if !ok {
		return 0, gvcferr.Formatf("missing INFO/%s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return 0, gvcferr.Formatf("INFO/%s has no value", key)
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, gvcferr.Formatf("invalid INFO/%s value %q", key, raw)
	}
	if n < 0 {
		return 0, gvcferr.Formatf("negative INFO/%s value %d", key, n)
	}
	return n, nil
}

// Format renders the variant as a VCF data line. The raw input line is used
// when available so records pass through byte-for-byte.
func (v *Variant) Format() string {
	if v.Line != "" {
		return v.Line
	}

	id := v.ID
	if id == "" {
		id = "."
	}
	qual := "."
	if v.Qual != 0 {
		qual = strconv.FormatFloat(v.Qual, 'g', -1, 64)
	}
	filter := v.Filter
	if filter == "" {
		filter = "."
	}

	fields := []string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		id,
		v.Ref,
		v.Alt,
		qual,
		filter,
		formatInfo(v.Info),
	}
	if v.SampleColumns != "" {
		fields = append(fields, v.SampleColumns)
	}
	return strings.Join(fields, "\t")
}

// formatInfo renders INFO with keys in sorted order.
func formatInfo(info map[string]interface{}) string {
	if len(info) == 0 {
		return "."
	}
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch val := info[k].(type) {
		case bool:
			if val {
				parts = append(parts, k)
			}
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, val))
		}
	}
	return strings.Join(parts, ";")
}
