package csvimport

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is what a column's cells must parse as
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
)

// DateLayout is the layout of date cells
const DateLayout = time.DateOnly

// FieldRule constrains the cells of one column. Rules are built by chaining
// from Field:
//
//	Field("rent_amount").Required().Decimal().MinValue(decimal.Zero).Build()
type FieldRule struct {
	column      string
	kind        FieldType
	required    bool
	minLen      int
	maxLen      int
	min, max    *decimal.Decimal
	choices     []string
	pattern     *regexp.Regexp
	patternDesc string
	unique      bool
	reference   string
}

// Field starts a rule for column, by default an optional string
func Field(column string) *FieldRule {
	return &FieldRule{column: column, kind: TypeString}
}

func (r *FieldRule) Required() *FieldRule {
	r.required = true
	return r
}

func (r *FieldRule) Int() *FieldRule {
	r.kind = TypeInt
	return r
}

func (r *FieldRule) Decimal() *FieldRule {
	r.kind = TypeDecimal
	return r
}

func (r *FieldRule) Date() *FieldRule {
	r.kind = TypeDate
	return r
}

func (r *FieldRule) Email() *FieldRule {
	r.kind = TypeEmail
	return r
}

// MaxLength caps the cell at n characters
func (r *FieldRule) MaxLength(n int) *FieldRule {
	r.maxLen = n
	return r
}

// Length bounds the cell to minLen..maxLen characters
func (r *FieldRule) Length(minLen, maxLen int) *FieldRule {
	r.minLen, r.maxLen = minLen, maxLen
	return r
}

func (r *FieldRule) MinValue(v decimal.Decimal) *FieldRule {
	r.min = &v
	return r
}

func (r *FieldRule) Range(lo, hi decimal.Decimal) *FieldRule {
	r.min, r.max = &lo, &hi
	return r
}

// OneOf restricts the cell to choices, ignoring case. Choices are given in
// lower case.
func (r *FieldRule) OneOf(choices ...string) *FieldRule {
	r.choices = choices
	return r
}

// Pattern requires a match of expr; desc completes "value must be ..."
func (r *FieldRule) Pattern(expr, desc string) *FieldRule {
	r.pattern = regexp.MustCompile(expr)
	r.patternDesc = desc
	return r
}

// Unique forbids a value twice in the file and, when conflicts fail the
// import, a value already stored
func (r *FieldRule) Unique() *FieldRule {
	r.unique = true
	return r
}

// Reference requires the cell to name an existing record of refType
func (r *FieldRule) Reference(refType string) *FieldRule {
	r.reference = refType
	return r
}

// Build returns a copy of the rule
func (r *FieldRule) Build() FieldRule { return *r }

func (r FieldRule) Column() string { return r.column }

// check returns the first problem with value, or nil. Uniqueness and
// references need state and are checked by the processor.
func (r FieldRule) check(line int, value string) *RowError {
	fail := func(code, msg string) *RowError {
		e := NewRowError(line, r.column, code, msg).WithValue(value)
		return &e
	}
	if value == "" {
		if r.required {
			e := NewRowError(line, r.column, CodeRequired, r.column+" is required")
			return &e
		}
		return nil
	}
	if !parses(r.kind, value) {
		return fail(CodeWrongType, "expected "+describeType(r.kind))
	}
	if msg, ok := r.checkLength(value); !ok {
		return fail(CodeLength, msg)
	}
	if r.kind == TypeInt || r.kind == TypeDecimal {
		if msg, ok := r.checkRange(value); !ok {
			return fail(CodeOutOfRange, "value must be "+msg)
		}
	}
	if len(r.choices) > 0 && !slices.Contains(r.choices, strings.ToLower(value)) {
		return fail(CodeNotAChoice, "must be one of: "+strings.Join(r.choices, ", "))
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return fail(CodePattern, "value must be "+r.patternDesc)
	}
	return nil
}

func (r FieldRule) checkLength(value string) (string, bool) {
	n := len([]rune(value))
	tooLong := r.maxLen > 0 && n > r.maxLen
	tooShort := r.minLen > 0 && n < r.minLen
	switch {
	case !tooLong && !tooShort:
		return "", true
	case r.minLen > 0 && r.maxLen > 0:
		return fmt.Sprintf("length must be between %d and %d", r.minLen, r.maxLen), false
	case tooLong:
		return fmt.Sprintf("length must be at most %d", r.maxLen), false
	}
	return fmt.Sprintf("length must be at least %d", r.minLen), false
}

func (r FieldRule) checkRange(value string) (string, bool) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "a number", false
	}
	below := r.min != nil && d.LessThan(*r.min)
	above := r.max != nil && d.GreaterThan(*r.max)
	switch {
	case !below && !above:
		return "", true
	case r.min != nil && r.max != nil:
		return fmt.Sprintf("between %s and %s", r.min, r.max), false
	case below:
		return "at least " + r.min.String(), false
	}
	return "at most " + r.max.String(), false
}

func parses(kind FieldType, value string) bool {
	var err error
	switch kind {
	case TypeInt:
		_, err = strconv.ParseInt(value, 10, 64)
	case TypeDecimal:
		_, err = decimal.NewFromString(value)
	case TypeDate:
		_, err = time.Parse(DateLayout, value)
	case TypeEmail:
		_, err = mail.ParseAddress(value)
	}
	return err == nil
}

func describeType(kind FieldType) string {
	switch kind {
	case TypeInt:
		return "a whole number"
	case TypeDecimal:
		return "a number"
	case TypeDate:
		return "a date (YYYY-MM-DD)"
	case TypeEmail:
		return "an email address"
	}
	return string(kind)
}
