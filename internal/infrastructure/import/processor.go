package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowCheck validates a whole row once its cells are well formed, typically
// references spanning several columns
type RowCheck func(ctx context.Context, row *Row) []RowError

// Schema describes the file of one entity
type Schema struct {
	Rules    []FieldRule
	RowCheck RowCheck
}

// RequiredColumns lists the columns the header must have
func (s Schema) RequiredColumns() []string {
	var cols []string
	for _, r := range s.Rules {
		if r.required {
			cols = append(cols, r.column)
		}
	}
	return cols
}

// ReferenceLookup reports whether a record of refType is identified by value
type ReferenceLookup func(ctx context.Context, refType, value string) (bool, error)

// UniqueLookup reports whether a stored record of entity has value in field
type UniqueLookup func(ctx context.Context, entity EntityType, field, value string) (bool, error)

// ImportProcessor validates files against a Schema without writing anything
type ImportProcessor struct {
	maxRows     int
	maxErrors   int
	previewRows int
	references  ReferenceLookup
	uniques     UniqueLookup
}

// ProcessorOption configures an ImportProcessor
type ProcessorOption func(*ImportProcessor)

// WithMaxRows caps the data rows of a file
func WithMaxRows(n int) ProcessorOption {
	return func(p *ImportProcessor) { p.maxRows = n }
}

// WithMaxErrors caps the problems a session reports
func WithMaxErrors(n int) ProcessorOption {
	return func(p *ImportProcessor) { p.maxErrors = n }
}

// WithPreviewRows sets how many valid rows are echoed back
func WithPreviewRows(n int) ProcessorOption {
	return func(p *ImportProcessor) { p.previewRows = n }
}

// WithReferenceLookup enables Reference rules
func WithReferenceLookup(fn ReferenceLookup) ProcessorOption {
	return func(p *ImportProcessor) { p.references = fn }
}

// WithUniqueLookup checks Unique columns against stored records in
// ConflictModeFail
func WithUniqueLookup(fn UniqueLookup) ProcessorOption {
	return func(p *ImportProcessor) { p.uniques = fn }
}

// NewImportProcessor defaults to 10000 rows, 100 problems and 5 preview rows
func NewImportProcessor(opts ...ProcessorOption) *ImportProcessor {
	p := &ImportProcessor{maxRows: 10000, maxErrors: defaultProblemLimit, previewRows: 5}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate reads the whole file and checks every row, keeping the valid
// rows on the session. The session ends validated when nothing is wrong and
// failed otherwise. A file that cannot be read at all is returned as an
// error.
func (p *ImportProcessor) Validate(ctx context.Context, session *ImportSession, r io.Reader, schema Schema) error {
	session.UpdateState(StateValidating)
	sheet, err := OpenSheet(r)
	if err != nil {
		session.UpdateState(StateFailed)
		return err
	}

	problems := NewProblems(p.maxErrors)
	if missing := sheet.Missing(schema.RequiredColumns()); len(missing) > 0 {
		for _, col := range missing {
			problems.Add(NewRowError(1, col, CodeMissingColumn, "required column "+col+" is missing"))
		}
		session.report(problems)
		session.UpdateState(StateFailed)
		return nil
	}

	v := &rowValidator{
		ImportProcessor: p,
		schema:          schema,
		session:         session,
		seen:            make(map[string]map[string]int),
		known:           make(map[string]bool),
	}
	for {
		if err := ctx.Err(); err != nil {
			session.UpdateState(StateCancelled)
			return err
		}
		row, err := sheet.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			problems.Add(NewRowError(sheet.Line(), "", CodeMalformedRow, err.Error()))
			session.ErrorRows++
			continue
		}
		if row.IsEmpty() {
			continue
		}
		session.TotalRows++
		if session.TotalRows > p.maxRows {
			problems.Add(NewRowError(row.LineNumber, "", CodeTooManyRows, fmt.Sprintf("files are limited to %d rows", p.maxRows)))
			session.ErrorRows++
			break
		}

		if errs := v.validate(ctx, row); len(errs) > 0 {
			problems.Add(errs...)
			session.ErrorRows++
			continue
		}
		session.ValidRows++
		session.rows = append(session.rows, row)
		if len(session.Preview) < p.previewRows {
			session.Preview = append(session.Preview, preview(row))
		}
	}

	session.report(problems)
	if session.ErrorRows > 0 {
		session.UpdateState(StateFailed)
	} else {
		session.UpdateState(StateValidated)
	}
	return nil
}

func preview(row *Row) map[string]any {
	out := make(map[string]any, len(row.Data))
	for k, v := range row.Data {
		out[k] = v
	}
	return out
}

// rowValidator carries what validating one row needs from the rows before it
type rowValidator struct {
	*ImportProcessor
	schema  Schema
	session *ImportSession
	seen    map[string]map[string]int // column, folded value: first line
	known   map[string]bool           // refType + "\x00" + value: exists
}

func (v *rowValidator) validate(ctx context.Context, row *Row) []RowError {
	var errs []RowError
	for _, rule := range v.schema.Rules {
		if e := v.validateCell(ctx, rule, row); e != nil {
			errs = append(errs, *e)
		}
	}
	if len(errs) == 0 && v.schema.RowCheck != nil {
		errs = v.schema.RowCheck(ctx, row)
	}
	return errs
}

func (v *rowValidator) validateCell(ctx context.Context, rule FieldRule, row *Row) *RowError {
	value := row.Get(rule.column)
	if e := rule.check(row.LineNumber, value); e != nil || value == "" {
		return e
	}
	line := row.LineNumber
	problem := func(code, msg string) *RowError {
		e := NewRowError(line, rule.column, code, msg).WithValue(value)
		return &e
	}

	if rule.unique {
		key := strings.ToLower(value)
		if v.seen[rule.column] == nil {
			v.seen[rule.column] = make(map[string]int)
		}
		if first, dup := v.seen[rule.column][key]; dup {
			return problem(CodeDuplicateInFile, fmt.Sprintf("%s also appears on row %d", value, first))
		}
		v.seen[rule.column][key] = line
	}

	if rule.reference != "" && v.references != nil {
		exists, err := v.referenced(ctx, rule.reference, value)
		if err != nil {
			return problem(CodeRejected, fmt.Sprintf("could not check %s: %v", rule.reference, err))
		}
		if !exists {
			return problem(CodeUnknownReference, fmt.Sprintf("%s %s not found", rule.reference, value))
		}
	}

	if rule.unique && v.uniques != nil && v.session.ConflictMode == ConflictModeFail {
		taken, err := v.uniques(ctx, v.session.EntityType, rule.column, value)
		if err != nil {
			return problem(CodeRejected, fmt.Sprintf("could not check uniqueness: %v", err))
		}
		if taken {
			return problem(CodeAlreadyStored, value+" already exists")
		}
	}
	return nil
}

// referenced caches lookups since import files repeat the same references
func (v *rowValidator) referenced(ctx context.Context, refType, value string) (bool, error) {
	key := refType + "\x00" + value
	if exists, ok := v.known[key]; ok {
		return exists, nil
	}
	exists, err := v.references(ctx, refType, value)
	if err != nil {
		return false, err
	}
	v.known[key] = exists
	return exists, nil
}
