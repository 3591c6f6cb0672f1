package ui

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// windowKind selects which slice of the records a table shows.
type windowKind int

const (
	windowHead windowKind = iota
	windowTail
	windowFull
)

// Window is a table view: the first n rows, the last n rows, or all rows.
type Window struct {
	kind windowKind
	n    int
}

// Head is a window over the first n rows.
func Head(n int) Window { return Window{kind: windowHead, n: n} }

// Tail is a window over the last n rows.
func Tail(n int) Window { return Window{kind: windowTail, n: n} }

// Full is the window over all rows.
var Full = Window{kind: windowFull}

// apply slices records per the window. A window larger than the record set
// yields the whole set.
func (w Window) apply(records []map[string]any) []map[string]any {
	switch w.kind {
	case windowHead:
		if w.n < len(records) {
			return records[:w.n]
		}
	case windowTail:
		if w.n < len(records) {
			return records[len(records)-w.n:]
		}
	}
	return records
}

// nullToken is the placeholder for null cells. It is never conflated with
// an empty string value.
const nullToken = "(null)"

// RenderTable builds a windowed HTML table from the records. Columns follow
// the given order; with a nil order they derive from the first record's key
// set, sorted for determinism. Empty records are a no-op: the empty return
// tells the caller to keep prior content rather than flash an empty table.
// Each call produces complete markup; there is no incremental diffing.
func RenderTable(records []map[string]any, columns []string, window Window) (template.HTML, bool) {
	if len(records) == 0 {
		return "", false
	}

	if columns == nil {
		columns = make([]string, 0, len(records[0]))
		for col := range records[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	var b strings.Builder
	b.WriteString(`<table class="data-table"><thead><tr>`)
	for _, col := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", template.HTMLEscapeString(col))
	}
	b.WriteString("</tr></thead><tbody>")

	for _, record := range window.apply(records) {
		b.WriteString("<tr>")
		for _, col := range columns {
			b.WriteString("<td>")
			b.WriteString(cellText(record[col]))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return template.HTML(b.String()), true
}

func cellText(v any) string {
	if v == nil {
		return `<span class="null-cell">` + template.HTMLEscapeString(nullToken) + `</span>`
	}
	switch t := v.(type) {
	case string:
		return template.HTMLEscapeString(t)
	case float64:
		// Render integral floats without a trailing .0, the way the
		// source numbers looked.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return template.HTMLEscapeString(fmt.Sprintf("%v", t))
	}
}
