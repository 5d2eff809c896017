package csvimport

import (
	"errors"
	"fmt"
)

// Codes of the problems reported against rows
const (
	CodeMalformedRow     = "IMPORT_MALFORMED_ROW"
	CodeMissingColumn    = "IMPORT_MISSING_COLUMN"
	CodeTooManyRows      = "IMPORT_TOO_MANY_ROWS"
	CodeRejected         = "IMPORT_REJECTED"
	CodeRequired         = "IMPORT_REQUIRED"
	CodeWrongType        = "IMPORT_WRONG_TYPE"
	CodeLength           = "IMPORT_LENGTH"
	CodeOutOfRange       = "IMPORT_OUT_OF_RANGE"
	CodeNotAChoice       = "IMPORT_NOT_A_CHOICE"
	CodePattern          = "IMPORT_PATTERN"
	CodeDuplicateInFile  = "IMPORT_DUPLICATE_IN_FILE"
	CodeAlreadyStored    = "IMPORT_ALREADY_STORED"
	CodeUnknownReference = "IMPORT_UNKNOWN_REFERENCE"
)

var (
	ErrEmptyFile       = errors.New("csv file is empty")
	ErrInvalidEncoding = errors.New("csv file is not UTF-8 or UTF-16 text")
	ErrMissingHeader   = errors.New("csv file has no header row")
)

// RowError is a problem found on one line of the file. Row 1 is the header.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// WithValue echoes the offending cell back to the client
func (e RowError) WithValue(v string) RowError {
	e.Value = v
	return e
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Column, e.Message)
}

// defaultProblemLimit bounds what a session reports back
const defaultProblemLimit = 100

// Problems keeps the first problems of a file in the order they were found
// and counts the ones past its limit
type Problems struct {
	kept  []RowError
	limit int
	total int
}

// NewProblems keeps at most limit problems; limit <= 0 keeps 100
func NewProblems(limit int) *Problems {
	if limit <= 0 {
		limit = defaultProblemLimit
	}
	return &Problems{limit: limit, kept: make([]RowError, 0)}
}

func (p *Problems) Add(errs ...RowError) {
	for _, e := range errs {
		p.total++
		if len(p.kept) < p.limit {
			p.kept = append(p.kept, e)
		}
	}
}

// List returns the kept problems
func (p *Problems) List() []RowError { return p.kept }

// Total counts every problem added, kept or not
func (p *Problems) Total() int { return p.total }

// Truncated reports whether problems were dropped
func (p *Problems) Truncated() bool { return p.total > len(p.kept) }
