// Package recurrence expands a recurring expense into its fixed series of dated copies.
//
// Each frequency has its own Stepper strategy. Month and year steps are
// anchored on the first occurrence's day of month and clamp to the last day
// of shorter months, so a series starting on January 31 lands on
// February 29 (or 28), March 31, April 30 and so on without drifting.
package recurrence

import (
	"fmt"
	"time"

	"expensetab/internal/core"
)

// Stepper computes the date of the nth occurrence of a series.
type Stepper interface {
	// Nth returns the date n steps after anchor. Nth(anchor, 0) is anchor.
	Nth(anchor core.Date, n int) core.Date
}

// DailyStepper advances one calendar day per step.
type DailyStepper struct{}

func (DailyStepper) Nth(anchor core.Date, n int) core.Date {
	return anchor.AddDays(n)
}

// WeeklyStepper advances seven days per step.
type WeeklyStepper struct{}

func (WeeklyStepper) Nth(anchor core.Date, n int) core.Date {
	return anchor.AddDays(7 * n)
}

// MonthlyStepper advances one calendar month per step, clamping the day.
type MonthlyStepper struct{}

func (MonthlyStepper) Nth(anchor core.Date, n int) core.Date {
	return addMonthsClamped(anchor, n)
}

// YearlyStepper advances one calendar year per step, clamping February 29.
type YearlyStepper struct{}

func (YearlyStepper) Nth(anchor core.Date, n int) core.Date {
	return addMonthsClamped(anchor, 12*n)
}

func addMonthsClamped(anchor core.Date, months int) core.Date {
	total := int(anchor.Month()) - 1 + months
	year := anchor.Year() + total/12
	month := time.Month(total%12 + 1)
	day := anchor.Day()
	if last := core.DaysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, int(month), day)
}

var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper registered for a frequency.
func GetStepper(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, f)
	}
	return s, nil
}

// RegisterStepper installs or replaces the stepper for a frequency.
func RegisterStepper(f core.Frequency, s Stepper) {
	steppers[f] = s
}
