// Package gvcferr defines the error kinds reported while reducing a gVCF.
package gvcferr

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the reduction pipeline wraps exactly
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrFormat marks malformed input: multi-allelic records, reference
	// blocks wider than one base, missing or unparseable fields.
	ErrFormat = errors.New("format error")

	// ErrConfiguration marks invalid settings or duplicate contig declarations.
	ErrConfiguration = errors.New("configuration error")

	// ErrRange marks records that reference an undeclared contig or fall
	// outside the declared contig length.
	ErrRange = errors.New("range error")
)

// RecordError locates a failure at a specific input record.
type RecordError struct {
	Index  int    // 1-based record index (header lines excluded)
	Line   int    // 1-based line number in the input file
	Contig string // contig of the offending record
	Pos    int64  // 1-based start position of the offending record
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (line %d, %s:%d): %v", e.Index, e.Line, e.Contig, e.Pos, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Formatf returns a format error with the given message.
func Formatf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Configurationf returns a configuration error with the given message.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Rangef returns a range error with the given message.
func Rangef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}
