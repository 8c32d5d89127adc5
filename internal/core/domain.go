package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DateLayout is the canonical storage format for calendar dates.
const DateLayout = "2006-01-02"

// DisplayLayout is the MM/DD/YYYY form used by import and export files.
const DisplayLayout = "01/02/2006"

// MonthLayout is the canonical format for budget months and month filters.
const MonthLayout = "2006-01"

type (
	Frequency string

	Theme string

	// Date is a calendar date without a time component, always in UTC.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"` // Category ID
		Date        Date            `json:"date"`
		Tags        []string        `json:"tags"`
		IsRecurring bool            `json:"isRecurring,omitempty"`
		Frequency   Frequency       `json:"recurringFrequency,omitempty"`
		Note        string          `json:"note,omitempty"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon,omitempty"`
	}

	// Budget holds the target amount for one calendar month (YYYY-MM).
	Budget struct {
		Month  string          `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	}
)

var (
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrInvalidFrequency  = errors.New("invalid recurring frequency")
	ErrInvalidMonth      = errors.New("invalid month, expected YYYY-MM")
	ErrNegativeBudget    = errors.New("budget amount cannot be negative")
	ErrInvalidTheme      = errors.New("invalid theme")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Display renders the date as MM/DD/YYYY.
func (d Date) Display() string {
	return d.Format(DisplayLayout)
}

// MonthKey returns the YYYY-MM prefix used by month filters and budgets.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseFrequency accepts a frequency name in any letter case.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return s, nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := CheckAmount(e.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.IsRecurring && !e.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	return nil
}

// Clone returns a copy that shares no slices with e.
func (e Expense) Clone() Expense {
	out := e
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	return out
}

// RecurringLabel renders the human-readable recurring column value.
func (e Expense) RecurringLabel() string {
	if !e.IsRecurring {
		return "No"
	}
	return "Yes (" + string(e.Frequency) + ")"
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

func (b Budget) Validate() error {
	if _, err := ParseMonth(b.Month); err != nil {
		return err
	}
	if b.Amount.IsNegative() {
		return ErrNegativeBudget
	}
	if !inRange(b.Amount) {
		return ErrInvalidAmount
	}
	return nil
}
