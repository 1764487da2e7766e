// Package vcf provides gVCF reading and writing.
package vcf

// VariantParser is the interface for parsers that read variants from a
// header-declared set of contigs.
type VariantParser interface {
	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// Header returns the raw header lines, including the #CHROM line.
	Header() []string

	// Contigs returns the ##contig declarations in header order.
	Contigs() []Contig

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
