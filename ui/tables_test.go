package ui

import (
	"fmt"
	"strings"
	"testing"
)

func makeRecords(n int) []map[string]any {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{"id": float64(i), "name": fmt.Sprintf("row%d", i)}
	}
	return records
}

func countRows(html string) int {
	return strings.Count(html, "<tr>") - 1 // header row
}

func TestRenderTable_Windows(t *testing.T) {
	records := makeRecords(100)

	tests := []struct {
		name      string
		window    Window
		wantRows  int
		wantFirst string
		wantLast  string
	}{
		{"head 5 of 100", Head(5), 5, "row0", "row4"},
		{"tail 5 of 100", Tail(5), 5, "row95", "row99"},
		{"full 100", Full, 100, "row0", "row99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, ok := RenderTable(records, []string{"id", "name"}, tt.window)
			if !ok {
				t.Fatal("Expected rendered table")
			}
			s := string(html)
			if got := countRows(s); got != tt.wantRows {
				t.Errorf("Expected %d rows, got %d", tt.wantRows, got)
			}
			if !strings.Contains(s, tt.wantFirst) {
				t.Errorf("Expected first row %s in output", tt.wantFirst)
			}
			if !strings.Contains(s, tt.wantLast) {
				t.Errorf("Expected last row %s in output", tt.wantLast)
			}
		})
	}
}

func TestRenderTable_HeadLargerThanRecords(t *testing.T) {
	html, ok := RenderTable(makeRecords(3), []string{"id", "name"}, Head(5))
	if !ok {
		t.Fatal("Expected rendered table")
	}
	if got := countRows(string(html)); got != 3 {
		t.Errorf("Expected all 3 rows without error, got %d", got)
	}
}

func TestRenderTable_EmptyIsNoOp(t *testing.T) {
	// Deliberate: empty input keeps prior content instead of flashing an
	// empty table.
	if _, ok := RenderTable(nil, nil, Full); ok {
		t.Error("Expected no-op for empty records")
	}
}

func TestRenderTable_NullPlaceholder(t *testing.T) {
	records := []map[string]any{
		{"a": nil, "b": ""},
	}
	html, ok := RenderTable(records, []string{"a", "b"}, Full)
	if !ok {
		t.Fatal("Expected rendered table")
	}
	s := string(html)
	if !strings.Contains(s, nullToken) {
		t.Error("Expected distinct placeholder for null cell")
	}
	// An empty string cell must not render the null token.
	if strings.Count(s, nullToken) != 1 {
		t.Error("Empty string conflated with null")
	}
}

func TestRenderTable_ColumnsFromFirstRecord(t *testing.T) {
	records := []map[string]any{{"b": 1.0, "a": 2.0}}
	html, ok := RenderTable(records, nil, Full)
	if !ok {
		t.Fatal("Expected rendered table")
	}
	s := string(html)
	if !strings.Contains(s, "<th>a</th><th>b</th>") {
		t.Errorf("Expected deterministic column order, got %s", s)
	}
}

func TestRenderTable_EscapesContent(t *testing.T) {
	records := []map[string]any{{"a": "<script>alert(1)</script>"}}
	html, _ := RenderTable(records, []string{"a"}, Full)
	if strings.Contains(string(html), "<script>") {
		t.Error("Cell content must be escaped")
	}
}
