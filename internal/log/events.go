package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the application's recurring events with a fixed
// set of fields so they can be queried consistently.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs client errors as warnings and server errors as errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseCreated records a new expense; seriesLength is above one for
// recurring series.
func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id, desc, amount, category string, seriesLength int) {
	fields := NewFields().
		WithExpense(id, desc, amount, category).
		WithOperation(OpCreate).
		WithComponent(ComponentExpense).
		ToSlice()

	sl.logger.InfoContext(ctx, "Expense created", append(fields, FieldRowCount, seriesLength)...)
}

// LogImport logs the outcome of an import attempt. Read failures are warnings.
func (sl *StructuredLogger) LogImport(ctx context.Context, fileName, format, outcome string, rows, errors, skipped int, err error) {
	fields := NewFields().
		WithImport(fileName, format, outcome, rows, errors, skipped).
		WithOperation(OpImport).
		WithComponent(ComponentImport).
		WithError(err)

	if err != nil {
		sl.logger.WarnContext(ctx, "Import failed to read file", fields.ToSlice()...)
		return
	}
	sl.logger.InfoContext(ctx, "Import finished", fields.ToSlice()...)
}

// LogSheetSync records one mirror of the collection to the sheet.
func (sl *StructuredLogger) LogSheetSync(ctx context.Context, trigger, ref string, rows int, err error) {
	fields := NewFields().
		WithOperation(OpPush).
		WithComponent(ComponentWorker).
		WithError(err).
		ToSlice()
	fields = append(fields, "trigger", trigger, FieldSheetsRef, ref, FieldRowCount, rows)

	if err != nil {
		sl.logger.ErrorContext(ctx, "Sheet sync failed", fields...)
		return
	}
	sl.logger.InfoContext(ctx, "Sheet synchronized", fields...)
}
