package importer

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// sniffDelimiter picks tab or comma by counting both on the first non-blank line.
func sniffDelimiter(data []byte) rune {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := strings.Count(line, "\t")
		commas := strings.Count(line, ",")
		if tabs > 0 && tabs >= commas {
			return '\t'
		}
		return ','
	}
	return ','
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}
