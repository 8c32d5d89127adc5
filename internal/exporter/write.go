package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/tealeg/xlsx"

	"expensetab/internal/core"
)

// Format names an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension including the dot. CSV output is
// tab-separated but keeps the .csv extension so spreadsheets open it directly.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export writes the exportable expenses in the chosen format and returns
// how many rows were written.
func Export(w io.Writer, format Format, expenses []core.Expense, categories []core.Category) (int, error) {
	rows := Rows(expenses, categories)
	switch format {
	case FormatCSV:
		return len(rows), WriteCSV(w, rows)
	case FormatXLSX:
		return len(rows), WriteXLSX(w, rows)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes a tab-separated file with a header row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a styled header row.
// Amounts are stored as numbers with two decimals.
func WriteXLSX(w io.Writer, rows []Row) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Expenses")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	addHeader(sheet, Header)
	for _, r := range rows {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Date)
		xr.AddCell().SetString(r.Description)
		xr.AddCell().SetFloatWithFormat(r.amount.InexactFloat64(), amountFormat)
		xr.AddCell().SetString(r.Category)
		xr.AddCell().SetString(r.Tags)
		xr.AddCell().SetString(r.Note)
		xr.AddCell().SetString(r.Recurring)
	}
	if err := setWidths(sheet, columnWidths); err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

const amountFormat = "#,##0.00"

func headerStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.Fill = *xlsx.NewFill("solid", "00CCCCCC", "FF000000")
	style.ApplyFont = true
	style.ApplyFill = true
	return style
}

func addHeader(sheet *xlsx.Sheet, titles []string) {
	style := headerStyle()
	row := sheet.AddRow()
	for _, t := range titles {
		cell := row.AddCell()
		cell.SetString(t)
		cell.SetStyle(style)
	}
}

func setWidths(sheet *xlsx.Sheet, widths []float64) error {
	for i, wdt := range widths {
		if err := sheet.SetColWidth(i, i, wdt); err != nil {
			return fmt.Errorf("set column %d width: %w", i, err)
		}
	}
	return nil
}
