package importer

import (
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"expensetab/internal/validate"
)

var canonicalHeader = []string{"date", "description", "amount", "category"}

type tableRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
}

// tableReader serves already-split rows to gocsv, normalizing the header.
type tableReader struct {
	rows [][]string
	pos  int
}

var _ gocsv.CSVReader = (*tableReader)(nil)

func newTableReader(rows [][]string) *tableReader {
	if len(rows) > 0 {
		rows = append([][]string{normalizeHeader(rows[0])}, rows[1:]...)
	}
	return &tableReader{rows: rows}
}

func (t *tableReader) Read() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

func (t *tableReader) ReadAll() ([][]string, error) {
	rest := t.rows[t.pos:]
	t.pos = len(t.rows)
	return rest, nil
}

// normalizeHeader lower-cases and trims header cells. A header that names
// none of the canonical columns is treated as positional.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	known := false
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, c := range canonicalHeader {
			if out[i] == c {
				known = true
			}
		}
	}
	if !known {
		for i := 0; i < len(out) && i < len(canonicalHeader); i++ {
			out[i] = canonicalHeader[i]
		}
	}
	return out
}

// decodeTable maps the rows below the header onto RawRows.
func decodeTable(rows [][]string) ([]validate.RawRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var decoded []tableRow
	if err := gocsv.UnmarshalCSV(newTableReader(rows), &decoded); err != nil {
		return nil, err
	}
	out := make([]validate.RawRow, len(decoded))
	for i, r := range decoded {
		out[i] = validate.RawRow{
			Date:        r.Date,
			Description: r.Description,
			Amount:      r.Amount,
			Category:    r.Category,
		}
	}
	return out, nil
}
