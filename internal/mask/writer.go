package mask

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// Write writes intervals as headerless tab-separated lines.
func Write(w io.Writer, intervals []Interval) error {
	if len(intervals) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	sw := gocsv.NewSafeCSVWriter(cw)
	if err := gocsv.MarshalCSVWithoutHeaders(&intervals, sw); err != nil {
		return err
	}
	sw.Flush()
	return sw.Error()
}

// Read parses a mask written by Write.
func Read(r io.Reader) ([]Interval, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err == io.EOF {
		return nil, nil
	}

	cr := csv.NewReader(br)
	cr.Comma = '\t'
	cr.FieldsPerRecord = 3

	var intervals []Interval
	if err := gocsv.UnmarshalCSVWithoutHeaders(cr, &intervals); err != nil {
		return nil, err
	}
	return intervals, nil
}
