package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"expensetab/internal/core"
	"expensetab/internal/importer"
)

var testCats = []core.Category{
	{ID: "4", Name: "Food"},
	{ID: "1", Name: "Shopping"},
}

func sampleExpenses() []core.Expense {
	return []core.Expense{
		{
			ID: "a", Description: "Groceries", Amount: decimal.RequireFromString("45.1"),
			Category: "4", Date: core.NewDate(2024, 1, 2), Tags: []string{"weekly", "home"},
		},
		{
			ID: "b", Description: "Desk", Amount: decimal.RequireFromString("1200.5"),
			Category: "1", Date: core.NewDate(2024, 2, 10), Note: "office",
			IsRecurring: true, Frequency: core.Monthly,
		},
		{
			ID: "c", Description: "Orphan", Amount: decimal.RequireFromString("3"),
			Category: "gone", Date: core.NewDate(2024, 2, 11),
		},
	}
}

func TestFormatRow(t *testing.T) {
	e := sampleExpenses()[1]
	r := FormatRow(e, "Shopping")
	assert.Equal(t, []string{"02/10/2024", "Desk", "1200.50", "Shopping", "", "office", "Yes (monthly)"}, r.Strings())

	orphan := FormatRow(sampleExpenses()[2], "")
	assert.Equal(t, "", orphan.Category)
	assert.Equal(t, "No", orphan.Recurring)
}

func TestRowsExcludeUnresolvedCategory(t *testing.T) {
	rows := Rows(sampleExpenses(), testCats)
	require.Len(t, rows, 2)
	assert.Equal(t, "Groceries", rows[0].Description)
	assert.Equal(t, "weekly, home", rows[0].Tags)
	assert.Equal(t, "Desk", rows[1].Description)

	table := Table(rows)
	assert.Equal(t, Header, table[0])
	assert.Len(t, table, 3)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := Export(&buf, FormatCSV, sampleExpenses(), testCats)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "Date\tDescription\tAmount\tCategory\tTags\tNote\tRecurring\n" +
		"01/02/2024\tGroceries\t45.10\tFood\tweekly, home\t\tNo\n" +
		"02/10/2024\tDesk\t1200.50\tShopping\t\toffice\tYes (monthly)\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(&buf, FormatXLSX, sampleExpenses(), testCats)
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3)

	for i, h := range Header {
		assert.Equal(t, h, sheet.Rows[0].Cells[i].Value)
	}
	amount, err := sheet.Rows[2].Cells[2].Float()
	require.NoError(t, err)
	assert.InDelta(t, 1200.5, amount, 1e-9)
	assert.Equal(t, "Shopping", sheet.Rows[2].Cells[3].Value)
}

func TestExportRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Export(&buf, format, sampleExpenses(), testCats)
			require.NoError(t, err)

			res := importer.Parse("export"+format.Extension(), &buf, testCats)
			require.Equal(t, importer.OutcomeSuccess, res.Outcome, res.Summary())
			require.Len(t, res.Records, 2)

			for i, want := range sampleExpenses()[:2] {
				got := res.Records[i]
				assert.True(t, got.Date.Equal(want.Date.Time))
				assert.Equal(t, want.Description, got.Description)
				assert.True(t, got.Amount.Equal(want.Amount), "%s != %s", got.Amount, want.Amount)
				assert.Equal(t, want.Category, got.CategoryID)
			}
		})
	}
}

func TestTemplateCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Template(&buf, FormatCSV, testCats, core.NewDate(2024, 5, 6)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date\tdescription\tamount\tcategory", lines[0])
	assert.Equal(t, "# Format: MM/DD/YYYY (e.g., 05/06/2024)\tText\tNumber\tOne of: Food, Shopping", lines[1])
	assert.Equal(t, "05/06/2024\tSample Expense\t50.00\tFood", lines[2])
	assert.Equal(t, "05/06/2024\tLunch\t15.50\tShopping", lines[3])
}

func TestTemplateImportsCleanly(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		var buf bytes.Buffer
		require.NoError(t, Template(&buf, format, testCats, core.NewDate(2024, 5, 6)))
		res := importer.Parse("template"+format.Extension(), &buf, testCats)
		require.Equal(t, importer.OutcomeSuccess, res.Outcome, res.Summary())
		assert.Len(t, res.Records, 2)
		assert.Equal(t, 1, res.Skipped)
	}
}

func TestTemplateFewCategories(t *testing.T) {
	rows := templateRows([]core.Category{{ID: "x", Name: "Only"}}, core.NewDate(2024, 1, 1))
	require.Len(t, rows, 3)
	assert.Equal(t, "Only", rows[1].Category)
	assert.Equal(t, "", rows[2].Category)

	rows = templateRows(nil, core.NewDate(2024, 1, 1))
	assert.Equal(t, "One of: ", rows[0].Category)
	assert.Equal(t, "", rows[1].Category)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", f.Extension())
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
