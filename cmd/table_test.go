package cmd

import (
	"strings"
	"testing"
)

func TestRenderTableEmptyHeaders(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}, nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	got := renderTable(
		[]string{"NAME", "SIZE"},
		[][]string{{"alpha", "1.0 KiB"}, {"beta"}},
		[]columnAlignment{alignLeft, alignRight},
	)

	lines := strings.Split(got, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], "NAME") || !strings.Contains(lines[1], "SIZE") {
		t.Fatalf("expected header line, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "alpha") || !strings.Contains(lines[3], "1.0 KiB") {
		t.Fatalf("expected first row, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "beta") {
		t.Fatalf("expected second row, got %q", lines[4])
	}
	if len([]rune(lines[3])) != len([]rune(lines[4])) {
		t.Fatalf("rows not padded to equal width:\n%s", got)
	}
}

func TestRenderTableRightAlign(t *testing.T) {
	got := renderTable(
		[]string{"N", "VALUE"},
		[][]string{{"a", "1"}, {"b", "12345"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(got, "     1 │") {
		t.Fatalf("expected right-aligned value, got:\n%s", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a long release name", 8, "a long …"},
		{"Überlänge", 5, "Über…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
