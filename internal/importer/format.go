package importer

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) (Format, error) {
	if strings.TrimSpace(name) == "" {
		return "", fileError(ErrNoFileSelected, name, nil)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fileError(ErrFileTypeRejected, name, nil)
	}
}

func (f Format) String() string {
	return string(f)
}
