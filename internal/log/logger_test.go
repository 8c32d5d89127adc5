package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: "test", Format: FormatJSON, Output: &buf})
	logger.Info("hello", FieldOutcome, "success")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if rec["component"] != "test" || rec[FieldOutcome] != "success" {
		t.Errorf("unexpected record: %v", rec)
	}

	buf.Reset()
	logger = New(Config{Level: slog.LevelInfo, Component: "test", Format: "bogus", Output: &buf})
	logger.Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}

	buf.Reset()
	logger = New(Config{Level: slog.LevelInfo, Component: "cli", Format: FormatPretty, Output: &buf})
	logger.Info("pretty line")
	if !strings.Contains(buf.String(), "pretty line") {
		t.Errorf("expected pretty output, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: ParseLevel("warn"), Format: FormatText, Output: &buf})
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogImport(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf}))

	sl.LogImport(context.Background(), "in.csv", "csv", "partial", 3, 2, 1, nil)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["level"] != "INFO" || rec[FieldErrorCount] != float64(2) || rec[FieldOutcome] != "partial" {
		t.Errorf("unexpected record: %v", rec)
	}

	buf.Reset()
	sl.LogImport(context.Background(), "in.xls", "xls", "read_failure", 0, 0, 0, errors.New("corrupt"))
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), "corrupt") {
		t.Errorf("expected warning with error, got %q", buf.String())
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().WithExpense("id-1", "Coffee", "3.50", "4").WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Error("nil error should not be recorded")
	}
	if len(f.ToSlice()) != 8 {
		t.Errorf("expected 8 slice entries, got %d", len(f.ToSlice()))
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger without a stored one")
	}

	logger := Nop().WithComponent(ComponentHTTP)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected the stored logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf}))
	r := httptest.NewRequest("POST", "/api/expenses?x=1", nil)

	for status, level := range map[int]string{200: "INFO", 404: "WARN", 503: "ERROR"} {
		buf.Reset()
		sl.LogHTTPEnd(context.Background(), r, status, 12, "10.0.0.1")
		if !strings.Contains(buf.String(), `"level":"`+level+`"`) {
			t.Errorf("status %d: expected level %s, got %q", status, level, buf.String())
		}
	}
}

func TestLogSheetSync(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf}))

	sl.LogSheetSync(context.Background(), "event", "Expenses!A1:F3", 2, nil)
	if !strings.Contains(buf.String(), `"trigger":"event"`) || !strings.Contains(buf.String(), `"level":"INFO"`) {
		t.Errorf("unexpected record: %q", buf.String())
	}

	buf.Reset()
	sl.LogSheetSync(context.Background(), "periodic", "", 0, errors.New("quota"))
	if !strings.Contains(buf.String(), `"level":"ERROR"`) || !strings.Contains(buf.String(), "quota") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}
