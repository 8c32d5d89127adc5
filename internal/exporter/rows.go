// Package exporter renders expenses into CSV and XLSX files and builds import templates.
package exporter

import (
	"strings"

	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

// Row is one exported expense in display form.
type Row struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
	Tags        string `csv:"Tags"`
	Note        string `csv:"Note"`
	Recurring   string `csv:"Recurring"`

	amount decimal.Decimal `csv:"-"`
}

// Header lists the export column titles in order.
var Header = []string{"Date", "Description", "Amount", "Category", "Tags", "Note", "Recurring"}

var columnWidths = []float64{12, 30, 10, 15, 20, 30, 15}

// FormatRow renders a single expense. categoryName is empty when the
// category no longer exists.
func FormatRow(e core.Expense, categoryName string) Row {
	return Row{
		Date:        e.Date.Display(),
		Description: e.Description,
		Amount:      core.FormatAmount(e.Amount),
		Category:    categoryName,
		Tags:        strings.Join(e.Tags, ", "),
		Note:        e.Note,
		Recurring:   e.RecurringLabel(),
		amount:      e.Amount,
	}
}

// Rows renders the exportable part of a collection, keeping input order.
// Expenses missing a date, amount or category, and those whose category no
// longer resolves, are left out.
func Rows(expenses []core.Expense, categories []core.Category) []Row {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	out := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		name, ok := names[e.Category]
		if !ok || e.Date.IsZero() || !e.Amount.IsPositive() || e.Category == "" {
			continue
		}
		out = append(out, FormatRow(e, name))
	}
	return out
}

// Strings returns the row cells in Header order.
func (r Row) Strings() []string {
	return []string{r.Date, r.Description, r.Amount, r.Category, r.Tags, r.Note, r.Recurring}
}

// Table returns the header followed by every row, as plain strings.
func Table(rows []Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range rows {
		out = append(out, r.Strings())
	}
	return out
}
