package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSheetWriteAndRead(t *testing.T) {
	s := New(nil)
	rows := [][]string{{"Date", "Amount"}, {"01/02/2024", "3.50"}}

	ref, err := s.WriteRows(context.Background(), rows)
	if err != nil || ref != "mem!A1:R2" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
	rows[1][1] = "changed"

	got, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1][1] != "3.50" {
		t.Fatalf("sheet must keep its own copy, got %v", got)
	}
	got[0][0] = "changed"
	again, _ := s.ReadRows(context.Background())
	if again[0][0] != "Date" {
		t.Fatalf("reads must return copies, got %v", again)
	}
	if s.Writes() != 1 {
		t.Fatalf("writes = %d, want 1", s.Writes())
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	if rows, _ := NewFromFile(filepath.Join(dir, "missing.tsv")).ReadRows(context.Background()); len(rows) != 0 {
		t.Fatalf("expected empty sheet for a missing file, got %v", rows)
	}

	path := filepath.Join(dir, "sheet.tsv")
	content := "# seed\ndate\tdescription\tamount\tcategory\n\n01/02/2024\tBus\t2.40\tTransport\r\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	rows, _ := NewFromFile(path).ReadRows(context.Background())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if rows[1][3] != "Transport" {
		t.Fatalf("unexpected row %v", rows[1])
	}
}
