// Package sheets defines the spreadsheet channel used to push exported rows
// to a remote sheet and to pull rows back through the import pipeline.
package sheets

import (
	"context"
)

// Ports for outbound adapters.
type (
	// RowWriter replaces the sheet contents with rows, header first.
	RowWriter interface {
		WriteRows(ctx context.Context, rows [][]string) (ref string, err error)
	}

	// RowReader returns every non-empty row of the sheet, header first.
	RowReader interface {
		ReadRows(ctx context.Context) ([][]string, error)
	}

	Sheet interface {
		RowWriter
		RowReader
	}
)
