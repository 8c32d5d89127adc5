package recurrence

import (
	"expensetab/internal/core"
)

// SeriesLength is the total number of occurrences in a recurring series,
// the original included.
const SeriesLength = 12

// Expand returns the SeriesLength-1 copies that follow e in its series,
// each with a fresh identifier from newID and an advanced date. Every other
// field is carried over unchanged. A non-recurring expense yields nil.
func Expand(e core.Expense, newID func() string) ([]core.Expense, error) {
	if !e.IsRecurring {
		return nil, nil
	}
	stepper, err := GetStepper(e.Frequency)
	if err != nil {
		return nil, err
	}
	if err := e.Date.Validate(); err != nil {
		return nil, err
	}

	out := make([]core.Expense, 0, SeriesLength-1)
	for n := 1; n < SeriesLength; n++ {
		next := e.Clone()
		next.ID = newID()
		next.Date = stepper.Nth(e.Date, n)
		out = append(out, next)
	}
	return out, nil
}

// Dates lists every occurrence date of a series of the given length,
// starting with anchor.
func Dates(anchor core.Date, f core.Frequency, count int) ([]core.Date, error) {
	stepper, err := GetStepper(f)
	if err != nil {
		return nil, err
	}
	out := make([]core.Date, 0, count)
	for n := 0; n < count; n++ {
		out = append(out, stepper.Nth(anchor, n))
	}
	return out, nil
}
