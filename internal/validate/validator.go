// Package validate checks single imported rows against format and category rules.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"expensetab/internal/core"
)

// Row-level error kinds. RowError unwraps to one of these.
var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrBadDateFormat     = errors.New("bad date format")
	ErrInvalidDate       = errors.New("invalid calendar date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrAmbiguousCategory = errors.New("ambiguous category")
)

var datePattern = regexp.MustCompile(`^(0?[1-9]|1[0-2])/(0?[1-9]|[12][0-9]|3[01])/(\d{4})$`)

// RawRow is one untyped record as read from an import file.
type RawRow struct {
	Date        string
	Description string
	Amount      string
	Category    string
}

// Empty reports whether every field is blank.
func (r RawRow) Empty() bool {
	return strings.TrimSpace(r.Date) == "" &&
		strings.TrimSpace(r.Description) == "" &&
		strings.TrimSpace(r.Amount) == "" &&
		strings.TrimSpace(r.Category) == ""
}

// Fields returns the four fields in canonical column order.
func (r RawRow) Fields() []string {
	return []string{r.Date, r.Description, r.Amount, r.Category}
}

// Record is a row that passed validation, normalized to domain types.
type Record struct {
	Date        core.Date
	Description string
	Amount      decimal.Decimal
	CategoryID  string
}

// Expense converts the record into an expense without an identifier.
func (r Record) Expense() core.Expense {
	return core.Expense{
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.CategoryID,
		Date:        r.Date,
		Tags:        []string{},
	}
}

// RowError ties a validation failure to its 1-based display row.
type RowError struct {
	Row     int
	Kind    error
	Message string
}

func (e RowError) Error() string {
	return e.Message
}

func (e RowError) Unwrap() error {
	return e.Kind
}

// Result is either a valid Record or a non-empty list of errors.
type Result struct {
	Row    int
	Record Record
	Errors []RowError
}

// Valid reports whether the row passed every check.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Validator validates rows against a fixed category collection.
// It holds no mutable state after construction.
type Validator struct {
	byName map[string][]core.Category
	names  []string
}

// New indexes categories by their case-folded, trimmed name.
func New(categories []core.Category) *Validator {
	v := &Validator{
		byName: make(map[string][]core.Category, len(categories)),
		names:  make([]string, 0, len(categories)),
	}
	for _, c := range categories {
		key := FoldName(c.Name)
		v.byName[key] = append(v.byName[key], c)
		v.names = append(v.names, c.Name)
	}
	return v
}

// FoldName returns the case-insensitive matching key for a category name.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Validate is a shorthand for New(categories).Row(raw, row).
func Validate(raw RawRow, row int, categories []core.Category) Result {
	return New(categories).Row(raw, row)
}

// Row validates one raw row. Missing required fields stop further checks;
// otherwise every failing check contributes its own error.
func (v *Validator) Row(raw RawRow, row int) Result {
	res := Result{Row: row}

	dateStr := strings.TrimSpace(raw.Date)
	amountStr := strings.TrimSpace(raw.Amount)
	categoryStr := strings.TrimSpace(raw.Category)

	if dateStr == "" || amountStr == "" || categoryStr == "" {
		res.Errors = append(res.Errors, rowError(row, ErrMissingFields, "Missing required fields"))
		return res
	}

	date, err := ParseDisplayDate(dateStr)
	switch {
	case errors.Is(err, ErrBadDateFormat):
		res.Errors = append(res.Errors, rowError(row, ErrBadDateFormat, "Invalid date format. Use MM/DD/YYYY"))
	case errors.Is(err, ErrInvalidDate):
		res.Errors = append(res.Errors, rowError(row, ErrInvalidDate,
			fmt.Sprintf("Invalid date %q. The day does not exist in that month", dateStr)))
	}

	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		res.Errors = append(res.Errors, rowError(row, ErrInvalidAmount, "Invalid amount. Must be a positive number"))
	}

	matches := v.byName[FoldName(categoryStr)]
	switch len(matches) {
	case 0:
		res.Errors = append(res.Errors, rowError(row, ErrUnknownCategory,
			fmt.Sprintf("Invalid category %q. Valid categories are: %s", categoryStr, strings.Join(v.names, ", "))))
	case 1:
		res.Record.CategoryID = matches[0].ID
	default:
		res.Errors = append(res.Errors, rowError(row, ErrAmbiguousCategory,
			fmt.Sprintf("Ambiguous category %q. It matches %d categories", categoryStr, len(matches))))
	}

	if len(res.Errors) > 0 {
		res.Record = Record{}
		return res
	}

	res.Record.Date = date
	res.Record.Amount = amount
	res.Record.Description = strings.TrimSpace(raw.Description)
	return res
}

// ParseDisplayDate parses a MM/DD/YYYY date with 1-2 digit month and day.
// A string with the right shape that names a non-existent day, such as
// 02/30/2024, yields ErrInvalidDate rather than ErrBadDateFormat.
func ParseDisplayDate(s string) (core.Date, error) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return core.Date{}, ErrBadDateFormat
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if day > core.DaysIn(year, time.Month(month)) {
		return core.Date{}, ErrInvalidDate
	}
	return core.NewDate(year, month, day), nil
}

func rowError(row int, kind error, msg string) RowError {
	return RowError{Row: row, Kind: kind, Message: fmt.Sprintf("Row %d: %s", row, msg)}
}
