package importer

import (
	"errors"

	"github.com/tealeg/xlsx"

	"expensetab/internal/core"
)

// readXLSX returns the cell text of the first worksheet. Numeric cells keep
// their raw value so amounts arrive as plain decimal strings, and cells in the
// date column that carry a date serial are rendered as MM/DD/YYYY.
func readXLSX(data []byte) ([][]string, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := file.Sheets[0]

	dateCol := -1
	rows := make([][]string, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell == nil {
				continue
			}
			cells[j] = cell.Value
			if i > 0 && j == dateCol && isDateSerial(cell) {
				if t, err := cell.GetTime(file.Date1904); err == nil {
					cells[j] = core.DateOf(t).Display()
				}
			}
		}
		if i == 0 {
			dateCol = columnIndex(normalizeHeader(cells), "date")
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func isDateSerial(cell *xlsx.Cell) bool {
	switch cell.Type() {
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		return cell.Value != ""
	default:
		return false
	}
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
