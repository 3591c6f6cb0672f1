package ui

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"edadash/models"
)

// ToggleState selects which view of the missing-value-handling data the
// panel shows. Exactly one state is active at a time.
type ToggleState int

const (
	StateBefore ToggleState = iota
	StateHandling
	StateAfter
)

func (s ToggleState) String() string {
	switch s {
	case StateHandling:
		return "handling"
	case StateAfter:
		return "after"
	default:
		return "before"
	}
}

// ParseToggleState maps a control name to its state.
func ParseToggleState(name string) (ToggleState, error) {
	switch name {
	case "before":
		return StateBefore, nil
	case "handling":
		return StateHandling, nil
	case "after":
		return StateAfter, nil
	}
	return StateBefore, fmt.Errorf("unknown toggle state %q", name)
}

// TogglePanel is the missing-value panel state machine. Its controls are
// mounted once as stable endpoints that read the current result from the
// store, so a re-upload can never stack a second handler on them: N uploads
// still fire each control exactly once.
type TogglePanel struct {
	state ToggleState
}

// NewTogglePanel creates the panel in its initial BEFORE state.
func NewTogglePanel() *TogglePanel {
	return &TogglePanel{state: StateBefore}
}

// State returns the active state.
func (p *TogglePanel) State() ToggleState {
	return p.state
}

// Reset returns the panel to BEFORE, as after a fresh mount.
func (p *TogglePanel) Reset() {
	p.state = StateBefore
}

// Select transitions to the given state and re-renders the whole panel body
// from the handling map. There is no partial patching: every transition
// rebuilds the body in full.
func (p *TogglePanel) Select(state ToggleState, process map[string]models.MissingHandlingStep) template.HTML {
	p.state = state
	return p.Render(process)
}

// Render builds the full panel body for the active state.
func (p *TogglePanel) Render(process map[string]models.MissingHandlingStep) template.HTML {
	columns := make([]string, 0, len(process))
	for col := range process {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var b strings.Builder
	b.WriteString(`<div class="toggle-controls">`)
	for _, s := range []ToggleState{StateBefore, StateHandling, StateAfter} {
		active := ""
		if s == p.state {
			active = " active"
		}
		fmt.Fprintf(&b, `<button class="toggle-btn%s" hx-post="/toggle/%s" hx-target="#missing-panel">%s</button>`,
			active, s, strings.ToUpper(s.String()))
	}
	b.WriteString(`</div>`)

	b.WriteString(`<table class="data-table"><thead><tr><th>Column</th>`)
	switch p.state {
	case StateHandling:
		b.WriteString(`<th>Type</th><th>Method</th><th>Strategy</th><th>Fill value</th>`)
	default:
		b.WriteString(`<th>Missing</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)

	for _, col := range columns {
		step := process[col]
		fmt.Fprintf(&b, "<tr><td>%s</td>", template.HTMLEscapeString(col))
		switch p.state {
		case StateBefore:
			fmt.Fprintf(&b, "<td>%d</td>", step.MissingBefore)
		case StateAfter:
			fmt.Fprintf(&b, "<td>%d</td>", step.MissingAfter)
		case StateHandling:
			fmt.Fprintf(&b, "<td>%s</td><td>%s</td><td>%s</td><td>%s</td>",
				template.HTMLEscapeString(step.ColType),
				template.HTMLEscapeString(step.Method),
				template.HTMLEscapeString(step.FillStrategy),
				cellText(step.FillValue))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return template.HTML(b.String())
}
