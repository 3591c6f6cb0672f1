package ui

import (
	"strings"
	"testing"

	"edadash/models"
)

func handlingProcess() map[string]models.MissingHandlingStep {
	return map[string]models.MissingHandlingStep{
		"age": {MissingBefore: 2, MissingAfter: 0, Method: "median",
			FillValue: 31.0, FillStrategy: "fill with column median", ColType: "numeric"},
		"city": {MissingBefore: 1, MissingAfter: 0, Method: "mode",
			FillValue: "NY", FillStrategy: "fill with most frequent value", ColType: "categorical"},
	}
}

func TestTogglePanel_InitialState(t *testing.T) {
	p := NewTogglePanel()
	if p.State() != StateBefore {
		t.Errorf("Expected BEFORE after mount, got %s", p.State())
	}
}

func TestTogglePanel_ExactlyOneActive(t *testing.T) {
	p := NewTogglePanel()
	html := string(p.Render(handlingProcess()))
	if got := strings.Count(html, `toggle-btn active`); got != 1 {
		t.Errorf("Expected exactly one active control, got %d", got)
	}
}

func TestTogglePanel_TransitionSequence(t *testing.T) {
	p := NewTogglePanel()
	process := handlingProcess()

	p.Select(StateHandling, process)
	html := string(p.Select(StateAfter, process))

	if p.State() != StateAfter {
		t.Errorf("Expected AFTER active after clicking HANDLING then AFTER, got %s", p.State())
	}
	if got := strings.Count(html, `toggle-btn active`); got != 1 {
		t.Errorf("Expected the others inactive, got %d active controls", got)
	}
}

func TestTogglePanel_BodyPerState(t *testing.T) {
	p := NewTogglePanel()
	process := handlingProcess()

	tests := []struct {
		state ToggleState
		want  string
	}{
		{StateBefore, "<td>2</td>"},
		{StateHandling, "median"},
		{StateAfter, "<td>0</td>"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			html := string(p.Select(tt.state, process))
			if !strings.Contains(html, tt.want) {
				t.Errorf("Expected %q in %s body", tt.want, tt.state)
			}
		})
	}
}

func TestTogglePanel_ResetReturnsToBefore(t *testing.T) {
	p := NewTogglePanel()
	p.Select(StateAfter, handlingProcess())
	p.Reset()
	if p.State() != StateBefore {
		t.Errorf("Expected BEFORE after rebuild, got %s", p.State())
	}
}

func TestParseToggleState(t *testing.T) {
	for _, name := range []string{"before", "handling", "after"} {
		if _, err := ParseToggleState(name); err != nil {
			t.Errorf("Unexpected error for %q: %v", name, err)
		}
	}
	if _, err := ParseToggleState("sideways"); err == nil {
		t.Error("Expected error for unknown state")
	}
}
