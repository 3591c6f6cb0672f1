package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"

	"edadash/internal"
	"edadash/internal/store"
	"edadash/models"
)

// mainSlot and corrSlot are the two chart slots the default layout owns.
const (
	mainSlot = "main"
	corrSlot = "correlation"
)

// Dashboard is the rendering orchestrator: it sequences every sub-renderer
// against one immutable analysis result and owns the shared selector,
// chart-slot, and toggle state.
//
// Reactions are serialized: each one runs to completion under the mutex
// before the next is processed, so no two renderers ever execute
// concurrently against the same result.
type Dashboard struct {
	mu        sync.Mutex
	store     *store.ResultStore
	views     *viewSet
	charts    *ChartManager
	selectors SelectorState
	toggle    *TogglePanel
	notices   *noticeLog
	log       *internal.Logger
}

// NewDashboard creates a dashboard with the given layout capabilities and
// an empty current-result store.
func NewDashboard(st *store.ResultStore, caps ViewCaps) *Dashboard {
	return &Dashboard{
		store:   st,
		views:   newViewSet(caps),
		charts:  NewChartManager(),
		toggle:  NewTogglePanel(),
		notices: &noticeLog{},
		log:     internal.DefaultLogger,
	}
}

// Apply installs a freshly received result under its upload generation and,
// when it is still current, renders everything. A stale generation is
// discarded untouched and the visible state keeps the newer result.
func (d *Dashboard) Apply(result *models.AnalysisResult, gen uint64) bool {
	if !d.store.Install(result, gen) {
		d.log.Warn("discarding stale analysis result (generation %d)", gen)
		return false
	}
	d.RenderAll(result)
	return true
}

// RenderAll invokes every sub-renderer against result in fixed order; the
// chart builder and filter population read selector state the overview step
// fills in, so the order matters. Each step is isolated: a failure raises a
// scoped notice and the remaining steps still run. Calling RenderAll twice
// with the same result yields the same visible state; handlers are mounted
// once on the router, so repeated renders never accumulate bindings.
func (d *Dashboard) RenderAll(result *models.AnalysisResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.notices.reset()
	steps := []struct {
		name string
		fn   func(*models.AnalysisResult) error
	}{
		{"overview", d.renderOverview},
		{"quality", d.renderQuality},
		{"structure", d.renderStructure},
		{"value-counts", d.renderValueCounts},
		{"charts", d.renderCharts},
		{"correlation", d.renderCorrelation},
		{"insights", d.renderInsights},
		{"preview", d.renderPreview},
	}
	for _, step := range steps {
		d.runStep(step.name, step.fn, result)
	}
}

// runStep isolates one renderer: errors and panics surface as scoped
// notices, never abort the pass.
func (d *Dashboard) runStep(name string, fn func(*models.AnalysisResult) error, result *models.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("renderer %s panicked: %v", name, r)
			d.notices.add(name, fmt.Sprintf("%s view could not be rendered", name))
		}
	}()
	if err := fn(result); err != nil {
		d.log.Warn("renderer %s: %v", name, err)
		d.notices.add(name, err.Error())
	}
}

func (d *Dashboard) renderOverview(result *models.AnalysisResult) error {
	// Later steps read these selectors; populate before rendering.
	d.selectors.PopulateOptions(result.Overview)

	ov := result.Overview
	var b strings.Builder
	b.WriteString(`<dl class="overview">`)
	fmt.Fprintf(&b, "<dt>Rows</dt><dd>%d</dd>", ov.Rows)
	fmt.Fprintf(&b, "<dt>Columns</dt><dd>%d</dd>", ov.Columns)
	fmt.Fprintf(&b, "<dt>Numeric</dt><dd>%s</dd>", template.HTMLEscapeString(strings.Join(ov.NumericColumns, ", ")))
	fmt.Fprintf(&b, "<dt>Categorical</dt><dd>%s</dd>", template.HTMLEscapeString(strings.Join(ov.CategoricalColumns, ", ")))
	fmt.Fprintf(&b, "<dt>Datetime</dt><dd>%s</dd>", template.HTMLEscapeString(strings.Join(ov.DatetimeColumns, ", ")))
	b.WriteString("</dl>")
	d.views.set(ViewOverview, template.HTML(b.String()))
	return nil
}

func (d *Dashboard) renderQuality(result *models.AnalysisResult) error {
	var b strings.Builder
	if result.DataQuality == nil {
		// Optional in some deployments; absence is not an error.
		b.WriteString(`<p class="muted">Data quality metrics not provided.</p>`)
	} else {
		fmt.Fprintf(&b, `<p><strong>%d</strong> duplicate rows</p>`, result.DataQuality.Duplicates)
		b.WriteString(missingTable(result.DataQuality.MissingValues))
	}
	d.views.set(ViewQuality, template.HTML(b.String()))

	// The missing-handling panel rebuilds from scratch on every upload:
	// fresh BEFORE state, full body re-render. An empty handling map still
	// replaces the prior upload's panel.
	d.toggle.Reset()
	if len(result.MissingHandling) > 0 {
		d.views.set(ViewMissingPanel, d.toggle.Render(result.MissingHandling))
	} else {
		d.views.set(ViewMissingPanel, template.HTML(`<p class="muted">No missing value handling was needed.</p>`))
	}
	return nil
}

func missingTable(missing map[string]int) string {
	cols := make([]string, 0, len(missing))
	for col := range missing {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString(`<table class="data-table"><thead><tr><th>Column</th><th>Missing</th></tr></thead><tbody>`)
	for _, col := range cols {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>", template.HTMLEscapeString(col), missing[col])
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func (d *Dashboard) renderStructure(result *models.AnalysisResult) error {
	cols := result.Overview.AllColumns()
	kind := map[string]string{}
	for _, c := range result.Overview.NumericColumns {
		kind[c] = "numeric"
	}
	for _, c := range result.Overview.CategoricalColumns {
		kind[c] = "categorical"
	}
	for _, c := range result.Overview.DatetimeColumns {
		kind[c] = "datetime"
	}

	var b strings.Builder
	b.WriteString(`<table class="data-table"><thead><tr><th>Column</th><th>Type</th><th>Distinct</th></tr></thead><tbody>`)
	for _, col := range cols {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td></tr>",
			template.HTMLEscapeString(col), kind[col], result.NUnique[col])
	}
	b.WriteString("</tbody></table>")
	d.views.set(ViewStructure, template.HTML(b.String()))

	if result.DatasetInfo != "" {
		rendered := markdown.ToHTML([]byte(result.DatasetInfo), nil, nil)
		d.views.set(ViewDatasetInfo, template.HTML(rendered))
	}
	return nil
}

func (d *Dashboard) renderValueCounts(result *models.AnalysisResult) error {
	column := d.selectors.FilterColumn.Selected
	if column == "" {
		return fmt.Errorf("no categorical columns to count values for")
	}
	if err := d.selectors.SelectFilterColumn(result, column); err != nil {
		return err
	}

	counts := result.ValueCounts[column]
	var b strings.Builder
	fmt.Fprintf(&b, `<h3>%s</h3>`, template.HTMLEscapeString(column))
	b.WriteString(`<table class="data-table"><thead><tr><th>Value</th><th>Count</th></tr></thead><tbody>`)
	for _, v := range rankedValues(counts) {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>", template.HTMLEscapeString(v), counts[v])
	}
	b.WriteString("</tbody></table>")
	d.views.set(ViewValueCounts, template.HTML(b.String()))
	return nil
}

func (d *Dashboard) renderCharts(result *models.AnalysisResult) error {
	// Default chart: histogram of the first numeric column, else category
	// bar of the first categorical one.
	var spec ChartSpec
	switch {
	case d.selectors.Numeric.Selected != "":
		spec = HistogramSpec{Column: d.selectors.Numeric.Selected}
	case d.selectors.Categorical.Selected != "":
		spec = CategoricalBarSpec{Column: d.selectors.Categorical.Selected}
	default:
		return fmt.Errorf("no columns available to chart")
	}

	if err := d.charts.Create(mainSlot, spec, result); err != nil {
		return err
	}
	d.views.set(ViewChart, chartMount(mainSlot, d.charts.Active(mainSlot)))
	return nil
}

func (d *Dashboard) renderCorrelation(result *models.AnalysisResult) error {
	table, err := RenderCorrelationTable(result)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(string(table))

	// A single-column matrix has no off-diagonal values to chart; the table
	// alone is the correct render then.
	row := d.selectors.Numeric.Selected
	if err := d.charts.Create(corrSlot, corrRowSpec{Row: row}, result); err == nil {
		b.WriteString(string(chartMount(corrSlot, d.charts.Active(corrSlot))))
	}

	d.views.set(ViewCorrelation, template.HTML(b.String()))
	return nil
}

// corrRowSpec adapts the derived correlation bar series to the chart slot
// lifecycle.
type corrRowSpec struct {
	Row string
}

func (s corrRowSpec) Kind() ChartKind { return KindCategoricalBar }

func (s corrRowSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	return CorrelationBarSeries(result, s.Row)
}

func (d *Dashboard) renderInsights(result *models.AnalysisResult) error {
	if len(result.Insights) == 0 {
		return fmt.Errorf("no insights in result")
	}
	var b strings.Builder
	b.WriteString(`<ul class="insights">`)
	for _, line := range result.Insights {
		fmt.Fprintf(&b, "<li>%s</li>", template.HTMLEscapeString(line))
	}
	b.WriteString("</ul>")
	d.views.set(ViewInsights, template.HTML(b.String()))
	return nil
}

func (d *Dashboard) renderPreview(result *models.AnalysisResult) error {
	html, ok := RenderTable(result.Preview, result.Overview.AllColumns(), Full)
	if !ok {
		// Deliberate: keep whatever the preview view showed before rather
		// than flash an empty table.
		return nil
	}
	d.views.set(ViewPreview, html)
	return nil
}

// View returns the current fragment for a target.
func (d *Dashboard) View(id ViewID) template.HTML {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.views.get(id)
}

// Notices returns the notices raised by the most recent render pass.
func (d *Dashboard) Notices() []Notice {
	return d.notices.all()
}

// Selectors returns a copy of the shared selector state.
func (d *Dashboard) Selectors() SelectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectors
}

// ToggleState returns the missing panel's active state.
func (d *Dashboard) ToggleState() ToggleState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.toggle.State()
}

// SelectToggle transitions the missing panel and returns the rebuilt body.
// The handler behind this is mounted once; it reads the current result from
// the store on every invocation.
func (d *Dashboard) SelectToggle(state ToggleState) (template.HTML, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := d.store.Current()
	if result == nil {
		return "", fmt.Errorf("no dataset uploaded yet")
	}
	html := d.toggle.Select(state, result.MissingHandling)
	d.views.set(ViewMissingPanel, html)
	return html, nil
}

// SelectFilterColumn repopulates the dependent value selector and returns
// the refreshed value-counts fragment.
func (d *Dashboard) SelectFilterColumn(column string) (template.HTML, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := d.store.Current()
	if result == nil {
		return "", fmt.Errorf("no dataset uploaded yet")
	}
	if err := d.selectors.SelectFilterColumn(result, column); err != nil {
		return "", err
	}
	if err := d.renderValueCounts(result); err != nil {
		return "", err
	}
	return d.views.get(ViewValueCounts), nil
}

// ApplyFilter recomputes the dependent views from the filtered sample and
// returns the filter fragment.
func (d *Dashboard) ApplyFilter(column, value string) (template.HTML, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := d.store.Current()
	if result == nil {
		return "", fmt.Errorf("no dataset uploaded yet")
	}
	outcome, err := ApplyFilter(result, column, value)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<p class="muted">%s</p>`, template.HTMLEscapeString(outcome.Caveat))
	fmt.Fprintf(&b, `<p><strong>%d</strong> of %d sampled rows match %s = %s</p>`,
		len(outcome.Rows), len(result.Preview),
		template.HTMLEscapeString(column), template.HTMLEscapeString(value))
	if table, ok := RenderTable(outcome.Rows, result.Overview.AllColumns(), Full); ok {
		b.WriteString(string(table))
	}
	d.views.set(ViewFilter, template.HTML(b.String()))
	return d.views.get(ViewFilter), nil
}

// SelectChart rebuilds the main chart slot from a user-chosen spec. On a
// bad spec the slot keeps its prior chart and the error surfaces as the
// user-visible notice.
func (d *Dashboard) SelectChart(spec ChartSpec) (template.HTML, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := d.store.Current()
	if result == nil {
		return "", fmt.Errorf("no dataset uploaded yet")
	}
	if err := d.charts.Create(mainSlot, spec, result); err != nil {
		return "", err
	}
	html := chartMount(mainSlot, d.charts.Active(mainSlot))
	d.views.set(ViewChart, html)
	return html, nil
}

// chartMount renders a slot's canvas plus its config payload.
func chartMount(slot string, chart *ActiveChart) template.HTML {
	if chart == nil {
		return ""
	}
	return chartMountConfig(slot, chart.Config)
}

func chartMountConfig(slot string, config *ChartConfig) template.HTML {
	// json.Marshal escapes <, > and & so the payload is safe inside the
	// script element.
	payload, err := json.Marshal(config)
	if err != nil {
		return ""
	}
	return template.HTML(fmt.Sprintf(
		`<canvas id="chart-%s"></canvas><script type="application/json" data-chart-slot="%s">%s</script>`,
		slot, slot, payload))
}
