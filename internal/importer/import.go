// Package importer turns CSV and spreadsheet files into validated expense records.
//
// Every import ends in exactly one Outcome. Row-level problems are collected
// into the Result; problems reading or decoding the file itself are reported
// as a FileError and never escape as panics.
package importer

import (
	"fmt"
	"io"
	"strings"

	"expensetab/internal/core"
	"expensetab/internal/validate"
)

// Outcome classifies how an import attempt ended.
type Outcome int

const (
	// OutcomeSuccess means every remaining row was valid.
	OutcomeSuccess Outcome = iota
	// OutcomePartial means some rows were valid and some failed.
	OutcomePartial
	// OutcomeFailed means every remaining row failed validation.
	OutcomeFailed
	// OutcomeNoValidRows means nothing was left after skipping blank,
	// comment and instruction rows.
	OutcomeNoValidRows
	// OutcomeReadFailure means the file could not be read or decoded.
	OutcomeReadFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	case OutcomeNoValidRows:
		return "no_valid_rows"
	case OutcomeReadFailure:
		return "read_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the reported outcome of one import attempt.
type Result struct {
	Outcome Outcome
	Format  Format
	Records []validate.Record
	Errors  []validate.RowError
	Skipped int
	// Err is set only for OutcomeReadFailure and is always a *FileError.
	Err error
}

// Committable reports whether the records may be applied to the store.
// Any row error blocks the whole file.
func (r Result) Committable() bool {
	return r.Outcome == OutcomeSuccess
}

// Summary renders a one-paragraph human readable description.
func (r Result) Summary() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("Successfully imported %d expenses", len(r.Records))
	case OutcomeNoValidRows:
		return "No valid expenses found in file"
	case OutcomeReadFailure:
		return fmt.Sprintf("Error reading file: %v", r.Err)
	default:
		msgs := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			msgs[i] = e.Message
		}
		return "Validation errors:\n" + strings.Join(msgs, "\n")
	}
}

// Parse reads a whole file and validates its rows against categories.
// The format is chosen from name's extension.
func Parse(name string, r io.Reader, categories []core.Category) Result {
	format, err := DetectFormat(name)
	if err != nil {
		return readFailure(err)
	}
	if r == nil {
		return readFailure(fileError(ErrNoFileSelected, name, nil))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return readFailure(fileError(ErrFileRead, name, err))
	}

	rows, err := decode(format, data)
	if err != nil {
		out := readFailure(fileError(ErrDecode, name, err))
		out.Format = format
		return out
	}
	out := ParseRows(rows, categories)
	out.Format = format
	return out
}

// ParseRows validates rows whose first element is the header row.
// It is used directly for rows pulled from sources other than files.
func ParseRows(rows [][]string, categories []core.Category) Result {
	raws, err := decodeTable(rows)
	if err != nil {
		return readFailure(fileError(ErrDecode, "rows", err))
	}

	v := validate.New(categories)
	var res Result
	for i, raw := range raws {
		if skipRow(raw) {
			res.Skipped++
			continue
		}
		vr := v.Row(raw, i+2)
		if !vr.Valid() {
			res.Errors = append(res.Errors, vr.Errors...)
			continue
		}
		res.Records = append(res.Records, vr.Record)
	}

	switch {
	case len(res.Errors) > 0 && len(res.Records) > 0:
		res.Outcome = OutcomePartial
	case len(res.Errors) > 0:
		res.Outcome = OutcomeFailed
	case len(res.Records) == 0:
		res.Outcome = OutcomeNoValidRows
	default:
		res.Outcome = OutcomeSuccess
	}
	return res
}

// decode converts raw bytes into rows. Spreadsheet libraries may panic on
// malformed input, which is reported as a decode error.
func decode(format Format, data []byte) (rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows = nil
			err = fmt.Errorf("malformed %s content: %v", format, p)
		}
	}()

	switch format {
	case FormatCSV:
		return readCSV(data)
	case FormatXLSX:
		return readXLSX(data)
	case FormatXLS:
		return readXLS(data)
	default:
		return nil, fmt.Errorf("no decoder for %s", format)
	}
}

// skipRow reports blank rows, comment rows and template instruction rows.
func skipRow(raw validate.RawRow) bool {
	if raw.Empty() {
		return true
	}
	for _, f := range raw.Fields() {
		if strings.HasPrefix(strings.TrimSpace(f), "#") || strings.Contains(f, "Format:") {
			return true
		}
	}
	return false
}

func readFailure(err error) Result {
	return Result{Outcome: OutcomeReadFailure, Err: err}
}
