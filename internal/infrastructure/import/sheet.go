package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much of the file is checked for blank content and
// undecodable bytes before parsing starts
const sniffSize = 4 << 10

// Sheet is an uploaded spreadsheet export read one row at a time. Cells are
// keyed by the normalized column title.
type Sheet struct {
	csv     *csv.Reader
	columns []string
	index   map[string]int
	line    int
}

// SheetOption configures OpenSheet
type SheetOption func(*csv.Reader)

// WithDelimiter reads files separated by d instead of commas
func WithDelimiter(d rune) SheetOption {
	return func(r *csv.Reader) { r.Comma = d }
}

// OpenSheet checks the encoding of r and reads its header row. A UTF-8 byte
// order mark is skipped and UTF-16 with a byte order mark is transcoded.
func OpenSheet(r io.Reader, opts ...SheetOption) (*Sheet, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	buf := bufio.NewReaderSize(decoded, sniffSize)

	head, err := buf.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	// the decoder replaces bytes it cannot decode with U+FFFD
	if bytes.ContainsRune(head, utf8.RuneError) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(cr)
	}

	s := &Sheet{csv: cr, index: make(map[string]int)}
	if err := s.readHeader(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheet) readHeader() error {
	titles, err := s.csv.Read()
	switch {
	case errors.Is(err, io.EOF):
		return ErrMissingHeader
	case err != nil:
		return fmt.Errorf("read header: %w", err)
	}
	s.line = 1
	for i, title := range titles {
		name := NormalizeHeader(title)
		if name == "" {
			continue
		}
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = i
		s.columns = append(s.columns, name)
	}
	if len(s.columns) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// NormalizeHeader folds a column title to a field name so "Flat Number",
// "FLAT-NUMBER" and "flat_number" select the same column
func NormalizeHeader(title string) string {
	words := strings.FieldsFunc(cases.Fold().String(title), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(words, "_")
}

// Columns returns the normalized titles in file order. A repeated title
// keeps its first column.
func (s *Sheet) Columns() []string { return s.columns }

// Missing returns the names in required the header lacks
func (s *Sheet) Missing(required []string) []string {
	var out []string
	for _, name := range required {
		if _, ok := s.index[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Line is the 1-based line of the row read last
func (s *Sheet) Line() int { return s.line }

// Next reads the next row, returning io.EOF after the last one. Cells are
// trimmed and columns a short row lacks read as empty.
func (s *Sheet) Next() (*Row, error) {
	record, err := s.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	s.line++
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", s.line, err)
	}
	row := &Row{LineNumber: s.line, Data: make(map[string]string, len(s.columns))}
	for _, name := range s.columns {
		var cell string
		if i := s.index[name]; i < len(record) {
			cell = strings.TrimSpace(record[i])
		}
		row.Data[name] = cell
	}
	return row, nil
}

// Row is one data line, keyed by normalized column name
type Row struct {
	LineNumber int               `json:"line"`
	Data       map[string]string `json:"data"`
}

func (r *Row) Get(column string) string { return r.Data[column] }

// GetOrDefault returns def for a blank or absent cell
func (r *Row) GetOrDefault(column, def string) string {
	if v := r.Data[column]; v != "" {
		return v
	}
	return def
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}
