package ui

import "html/template"

// ViewID names a rendering target on the dashboard page.
type ViewID string

const (
	ViewOverview     ViewID = "overview"
	ViewQuality      ViewID = "quality"
	ViewStructure    ViewID = "structure"
	ViewValueCounts  ViewID = "value-counts"
	ViewChart        ViewID = "chart"
	ViewCorrelation  ViewID = "correlation"
	ViewInsights     ViewID = "insights"
	ViewPreview      ViewID = "preview"
	ViewMissingPanel ViewID = "missing-panel"
	ViewDatasetInfo  ViewID = "dataset-info"
	ViewFilter       ViewID = "filter"
)

// ViewCaps is the capability set of the current layout, declared once at
// startup. A renderer whose target is not in the set silently no-ops;
// absence of an optional panel is never an error.
type ViewCaps map[ViewID]bool

// DefaultViewCaps declares the full layout.
func DefaultViewCaps() ViewCaps {
	return ViewCaps{
		ViewOverview:     true,
		ViewQuality:      true,
		ViewStructure:    true,
		ViewValueCounts:  true,
		ViewChart:        true,
		ViewCorrelation:  true,
		ViewInsights:     true,
		ViewPreview:      true,
		ViewMissingPanel: true,
		ViewDatasetInfo:  true,
		ViewFilter:       true,
	}
}

// viewSet holds the rendered fragment per target. Each render fully
// replaces the prior fragment for its target.
type viewSet struct {
	caps  ViewCaps
	frags map[ViewID]template.HTML
}

func newViewSet(caps ViewCaps) *viewSet {
	return &viewSet{caps: caps, frags: make(map[ViewID]template.HTML)}
}

// set installs a fragment. It reports whether the target exists in the
// layout; a missing target is a silent no-op.
func (v *viewSet) set(id ViewID, html template.HTML) bool {
	if !v.caps[id] {
		return false
	}
	v.frags[id] = html
	return true
}

// get returns the current fragment for the target, empty if never rendered.
func (v *viewSet) get(id ViewID) template.HTML {
	return v.frags[id]
}
