package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"expensetab/internal/core"
)

type templateRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
}

var templateWidths = []float64{12, 30, 10, 15}

var sampleAmounts = []decimal.Decimal{
	decimal.RequireFromString("50.00"),
	decimal.RequireFromString("15.50"),
}

// templateRows returns the instruction row followed by two sample rows.
// Samples use the first two categories, or an empty name when missing.
func templateRows(categories []core.Category, today core.Date) []templateRow {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	nameAt := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return ""
	}
	day := today.Display()
	return []templateRow{
		{
			Date:        fmt.Sprintf("# Format: MM/DD/YYYY (e.g., %s)", day),
			Description: "Text",
			Amount:      "Number",
			Category:    "One of: " + strings.Join(names, ", "),
		},
		{Date: day, Description: "Sample Expense", Amount: core.FormatAmount(sampleAmounts[0]), Category: nameAt(0)},
		{Date: day, Description: "Lunch", Amount: core.FormatAmount(sampleAmounts[1]), Category: nameAt(1)},
	}
}

// Template writes an import template for the given categories.
func Template(w io.Writer, format Format, categories []core.Category, today core.Date) error {
	rows := templateRows(categories, today)
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
			return fmt.Errorf("write csv template: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeXLSXTemplate(w, rows)
	default:
		return fmt.Errorf("unsupported template format %q", format)
	}
}

func writeXLSXTemplate(w io.Writer, rows []templateRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Template")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	addHeader(sheet, []string{"date", "description", "amount", "category"})
	for i, r := range rows {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Date)
		xr.AddCell().SetString(r.Description)
		if i == 0 {
			xr.AddCell().SetString(r.Amount)
		} else {
			xr.AddCell().SetFloatWithFormat(sampleAmounts[i-1].InexactFloat64(), amountFormat)
		}
		xr.AddCell().SetString(r.Category)
	}
	if err := setWidths(sheet, templateWidths); err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx template: %w", err)
	}
	return nil
}
