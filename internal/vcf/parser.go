// Package vcf provides gVCF reading and writing.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// Parser reads variants from a gVCF file.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	contigs     []Contig
}

// NewParser creates a new parser for the given file, or stdin for "-".
// Supports plain, gzipped and bgzipped input.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}
	if err := p.init(file); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
// Gzipped streams are detected from their magic bytes.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{}
	if err := p.init(r); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// init sets up decompression if needed and reads the header.
func (p *Parser) init(r io.Reader) error {
	br := bufio.NewReader(r)

	// Check for gzip magic number (0x1f, 0x8b). BGZF is multistream gzip.
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read vcf header: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	return p.parseHeader()
}

// parseHeader reads and stores header lines and contig declarations.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			if strings.HasPrefix(line, "##contig=") {
				c, err := parseContig(line)
				if err != nil {
					return &ParseError{Line: p.lineNumber, Message: err.Error()}
				}
				p.contigs = append(p.contigs, c)
			}
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// parseContig parses a ##contig=<ID=...,length=...> line.
func parseContig(line string) (Contig, error) {
	attrs, err := parseStructuredMeta(strings.TrimPrefix(line, "##contig="))
	if err != nil {
		return Contig{}, err
	}

	id := attrs["ID"]
	if id == "" {
		return Contig{}, fmt.Errorf("contig declaration without ID")
	}
	rawLength, ok := attrs["length"]
	if !ok {
		return Contig{}, fmt.Errorf("contig %s declared without length", id)
	}
	length, err := strconv.ParseInt(rawLength, 10, 64)
	if err != nil || length < 0 {
		return Contig{}, fmt.Errorf("contig %s has invalid length %q", id, rawLength)
	}

	return Contig{Name: id, Length: length}, nil
}

// parseStructuredMeta parses the <key=value,...> body of a structured
// header line. Values may be double-quoted and contain commas.
func parseStructuredMeta(s string) (map[string]string, error) {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return nil, fmt.Errorf("malformed structured header %q", s)
	}
	body := s[1 : len(s)-1]

	attrs := make(map[string]string)
	var (
		key, val strings.Builder
		inValue  bool
		inQuote  bool
	)
	flush := func() {
		if key.Len() > 0 {
			attrs[strings.TrimSpace(key.String())] = val.String()
		}
		key.Reset()
		val.Reset()
		inValue = false
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inQuote:
			if c == '\\' && i+1 < len(body) {
				i++
				val.WriteByte(body[i])
			} else if c == '"' {
				inQuote = false
			} else {
				val.WriteByte(c)
			}
		case c == '"' && inValue:
			inQuote = true
		case c == '=' && !inValue:
			inValue = true
		case c == ',':
			flush()
		case inValue:
			val.WriteByte(c)
		default:
			key.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in structured header %q", s)
	}
	flush()

	return attrs, nil
}

// Next reads the next variant from the file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue // Skip empty lines
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	qual := 0.0
	if fields[5] != "." {
		qual, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid quality: %s", fields[5]),
			}
		}
	}

	v := &Variant{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Qual:   qual,
		Filter: fields[6],
		Info:   parseInfo(fields[7]),
		Line:   line,
	}

	// Capture FORMAT + sample columns if present
	if len(fields) > 8 {
		v.SampleColumns = strings.Join(fields[8:], "\t")
	}

	return v, nil
}

// parseInfo parses the INFO field into a map.
func parseInfo(info string) map[string]interface{} {
	result := make(map[string]interface{})
	if info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			// Flag-type INFO field
			result[parts[0]] = true
		}
	}

	return result
}

// Header returns the header lines.
func (p *Parser) Header() []string {
	return p.header
}

// Contigs returns the ##contig declarations in header order.
func (p *Parser) Contigs() []Contig {
	return p.contigs
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// Unwrap classifies every parse error as a format error.
func (e *ParseError) Unwrap() error {
	return gvcferr.ErrFormat
}
