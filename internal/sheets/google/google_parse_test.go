package google

import (
	"reflect"
	"testing"
)

func TestToRows(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Description", "Amount", "Category"},
		{"01/02/2024", " Bus ", 2.4, "Transport"},
		{},
		{"01/03/2024", "Rent", 1200.0, "Housing"},
		{"", ""},
		{},
	}
	got := toRows(values)
	want := [][]string{
		{"Date", "Description", "Amount", "Category"},
		{"01/02/2024", "Bus", "2.4", "Transport"},
		{},
		{"01/03/2024", "Rent", "1200", "Housing"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("toRows() = %v, want %v", got, want)
	}
	if len(toRows(nil)) != 0 {
		t.Fatal("toRows(nil) should be empty")
	}
}

func TestToValues(t *testing.T) {
	got := toValues([][]string{{"a", "b"}, {}})
	if len(got) != 2 || got[0][1] != "b" || len(got[1]) != 0 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "A", 1: "A", 7: "G", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for n, want := range tests {
		if got := columnLetter(n); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's Expenses"); got != "'Bob''s Expenses'" {
		t.Errorf("quoteSheet() = %q", got)
	}
}
