package vcf

import (
	"bufio"
	"io"

	"github.com/biogo/hts/bgzf"
)

// Writer writes a gVCF header followed by records, optionally BGZF-compressed.
type Writer struct {
	w    *bufio.Writer
	bgzf *bgzf.Writer
}

// NewWriter creates a writer on w. When compress is set the stream is
// written in BGZF blocks so the output stays tabix-indexable.
func NewWriter(w io.Writer, compress bool) *Writer {
	vw := &Writer{}
	if compress {
		vw.bgzf = bgzf.NewWriter(w, 1)
		vw.w = bufio.NewWriter(vw.bgzf)
	} else {
		vw.w = bufio.NewWriter(w)
	}
	return vw
}

// WriteHeader writes the header lines unchanged.
func (vw *Writer) WriteHeader(lines []string) error {
	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes one record.
func (vw *Writer) Write(v *Variant) error {
	_, err := vw.w.WriteString(v.Format() + "\n")
	return err
}

// Close flushes buffered output and terminates the BGZF stream. It does not
// close the underlying writer.
func (vw *Writer) Close() error {
	if err := vw.w.Flush(); err != nil {
		return err
	}
	if vw.bgzf != nil {
		return vw.bgzf.Close()
	}
	return nil
}
