package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"expensetab/internal/exporter"
	"expensetab/internal/importer"
	"expensetab/internal/log"
)

var (
	// ErrImportInProgress is returned when an import is started while
	// another one is still running.
	ErrImportInProgress = errors.New("an import is already in progress")
	ErrSheetsDisabled   = errors.New("google sheets is not configured")
)

// ImportOutcome is the single result delivered by ImportAsync.
type ImportOutcome struct {
	Result importer.Result
	// Err is set when the guard refused the import or a valid file could
	// not be committed. It is nil for files rejected by validation.
	Err error
}

// Import parses the file and, when every row is valid, stores its records
// in a single save. Row and file problems are reported in the Result; the
// error covers the import guard and store failures.
func (s *ExpenseService) Import(ctx context.Context, name string, r io.Reader) (importer.Result, error) {
	if !s.importSlot.TryAcquire(1) {
		return importer.Result{}, ErrImportInProgress
	}
	defer s.importSlot.Release(1)

	return s.importLocked(ctx, name, r)
}

func (s *ExpenseService) importLocked(ctx context.Context, name string, r io.Reader) (importer.Result, error) {
	res := importer.Parse(name, r, s.store.Categories())
	return s.commit(ctx, name, res)
}

func (s *ExpenseService) commit(ctx context.Context, source string, res importer.Result) (importer.Result, error) {
	var err error
	if res.Committable() {
		if _, err = s.store.AddRecords(ctx, res.Records); err != nil {
			err = fmt.Errorf("commit import: %w", err)
		}
	}
	s.events.LogImport(ctx, source, string(res.Format), res.Outcome.String(),
		len(res.Records), len(res.Errors), res.Skipped, res.Err)
	if len(res.Errors) > 0 {
		s.logger.WarnContext(ctx, "Import rows rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldFileName, source,
			log.FieldErrorCount, len(res.Errors))
	}
	if err != nil {
		return res, err
	}
	if res.Committable() {
		s.publish(ctx, log.OpImport, len(res.Records))
	}
	return res, nil
}

// ImportAsync runs an import in the background. open is called on the
// background goroutine; whatever it returns is closed before the outcome
// is delivered, even when parsing panics. The channel receives exactly one
// outcome and is then closed.
func (s *ExpenseService) ImportAsync(ctx context.Context, name string, open func() (io.ReadCloser, error)) <-chan ImportOutcome {
	out := make(chan ImportOutcome, 1)
	if !s.importSlot.TryAcquire(1) {
		out <- ImportOutcome{Err: ErrImportInProgress}
		close(out)
		return out
	}

	go func() {
		var outcome ImportOutcome
		defer func() {
			if p := recover(); p != nil {
				s.logger.ErrorContext(ctx, "Import panicked", "panic", fmt.Sprint(p))
				outcome = ImportOutcome{Result: importer.Result{
					Outcome: importer.OutcomeReadFailure,
					Err: &importer.FileError{
						Kind: importer.ErrFileRead,
						Name: name,
						Err:  fmt.Errorf("panic: %v", p),
					},
				}}
			}
			s.importSlot.Release(1)
			out <- outcome
			close(out)
		}()

		rc, err := open()
		if err != nil {
			outcome.Result = importer.Result{
				Outcome: importer.OutcomeReadFailure,
				Err:     &importer.FileError{Kind: importer.ErrFileRead, Name: name, Err: err},
			}
			s.events.LogImport(ctx, name, "", outcome.Result.Outcome.String(), 0, 0, 0, outcome.Result.Err)
			return
		}
		defer rc.Close()

		outcome.Result, outcome.Err = s.importLocked(ctx, name, rc)
	}()
	return out
}

// PushToSheet replaces the configured sheet with the export rows and
// returns the updated range and the number of expenses written.
func (s *ExpenseService) PushToSheet(ctx context.Context) (string, int, error) {
	if s.sheet == nil {
		return "", 0, ErrSheetsDisabled
	}
	snap := s.store.Snapshot()
	rows := exporter.Table(exporter.Rows(snap.Expenses, snap.Categories))
	ref, err := s.sheet.WriteRows(ctx, rows)
	if err != nil {
		return "", 0, fmt.Errorf("push to sheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses pushed to sheet",
		log.FieldOperation, log.OpPush,
		log.FieldSheetsRef, ref,
		log.FieldRowCount, len(rows)-1)
	return ref, len(rows) - 1, nil
}

// Reload picks up writes made by another process sharing the backend.
func (s *ExpenseService) Reload(ctx context.Context) error {
	return s.store.Reload(ctx)
}

// PullFromSheet reads the configured sheet through the import pipeline. It
// shares the import guard with file imports.
func (s *ExpenseService) PullFromSheet(ctx context.Context) (importer.Result, error) {
	if s.sheet == nil {
		return importer.Result{}, ErrSheetsDisabled
	}
	if !s.importSlot.TryAcquire(1) {
		return importer.Result{}, ErrImportInProgress
	}
	defer s.importSlot.Release(1)

	rows, err := s.sheet.ReadRows(ctx)
	if err != nil {
		return importer.Result{}, fmt.Errorf("pull from sheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Rows pulled from sheet",
		log.FieldOperation, log.OpPull,
		log.FieldRowCount, len(rows))
	res := importer.ParseRows(rows, s.store.Categories())
	return s.commit(ctx, "sheet", res)
}
