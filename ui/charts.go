package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"edadash/models"
)

// ChartKind tags the chart spec variants.
type ChartKind string

const (
	KindHistogram      ChartKind = "histogram"
	KindScatter        ChartKind = "scatter"
	KindCategoricalBar ChartKind = "categorical_bar"
	KindLine           ChartKind = "line"
	KindPie            ChartKind = "pie"
	KindRadar          ChartKind = "radar"
)

// ChartSpec is a tagged chart description: one variant per chart kind, one
// builder per variant. Build validates the spec against the result and
// returns the renderable config, or an error when the data the spec needs
// was not materialized.
type ChartSpec interface {
	Kind() ChartKind
	Build(result *models.AnalysisResult) (*ChartConfig, error)
}

// ChartConfig is the chart-library-shaped payload handed to the page.
type ChartConfig struct {
	Type string    `json:"type"`
	Data ChartData `json:"data"`
}

// ChartData carries labels and datasets.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one series. Data is either []float64 or []ScatterPoint.
type ChartDataset struct {
	Label           string   `json:"label"`
	Data            any      `json:"data"`
	BackgroundColor []string `json:"backgroundColor,omitempty"`
}

// ScatterPoint is one scatter-chart point.
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const (
	colorPositive = "rgba(54, 162, 235, 0.7)"
	colorNegative = "rgba(255, 99, 132, 0.7)"
)

var chartPalette = []string{
	"rgba(54, 162, 235, 0.7)",
	"rgba(255, 99, 132, 0.7)",
	"rgba(255, 206, 86, 0.7)",
	"rgba(75, 192, 192, 0.7)",
	"rgba(153, 102, 255, 0.7)",
	"rgba(255, 159, 64, 0.7)",
}

// HistogramSpec renders the binned distribution of one numeric column.
type HistogramSpec struct {
	Column string
}

func (s HistogramSpec) Kind() ChartKind { return KindHistogram }

func (s HistogramSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	h, ok := result.Visualization.Histograms[s.Column]
	if !ok {
		return nil, fmt.Errorf("no histogram available for column %q", s.Column)
	}

	labels := make([]string, len(h.Counts))
	data := make([]float64, len(h.Counts))
	for i, n := range h.Counts {
		labels[i] = fmt.Sprintf("%.2f - %.2f", h.BinEdges[i], h.BinEdges[i+1])
		data[i] = float64(n)
	}
	return &ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{{Label: s.Column, Data: data, BackgroundColor: []string{colorPositive}}},
		},
	}, nil
}

// ScatterSpec plots two numeric columns against each other over the preview
// sample.
type ScatterSpec struct {
	X, Y string
}

func (s ScatterSpec) Kind() ChartKind { return KindScatter }

func (s ScatterSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	var points []ScatterPoint
	for _, record := range result.Preview {
		x, okX := numericCell(record[s.X])
		y, okY := numericCell(record[s.Y])
		if okX && okY {
			points = append(points, ScatterPoint{X: x, Y: y})
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no paired numeric values for %q vs %q", s.X, s.Y)
	}
	return &ChartConfig{
		Type: "scatter",
		Data: ChartData{
			Datasets: []ChartDataset{{
				Label:           fmt.Sprintf("%s vs %s", s.X, s.Y),
				Data:            points,
				BackgroundColor: []string{colorPositive},
			}},
		},
	}, nil
}

// CategoricalBarSpec renders category counts of one categorical column.
type CategoricalBarSpec struct {
	Column string
}

func (s CategoricalBarSpec) Kind() ChartKind { return KindCategoricalBar }

func (s CategoricalBarSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	labels, data, err := categorySeries(result, s.Column)
	if err != nil {
		return nil, err
	}
	return &ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{{Label: s.Column, Data: data, BackgroundColor: paletteFor(len(labels))}},
		},
	}, nil
}

// LineSpec renders one numeric column's preview values in row order.
type LineSpec struct {
	Column string
}

func (s LineSpec) Kind() ChartKind { return KindLine }

func (s LineSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	var (
		labels []string
		data   []float64
	)
	for i, record := range result.Preview {
		if v, ok := numericCell(record[s.Column]); ok {
			labels = append(labels, fmt.Sprintf("%d", i))
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no numeric values for column %q", s.Column)
	}
	return &ChartConfig{
		Type: "line",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{{Label: s.Column, Data: data}},
		},
	}, nil
}

// PieSpec renders category shares of one categorical column.
type PieSpec struct {
	Column string
}

func (s PieSpec) Kind() ChartKind { return KindPie }

func (s PieSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	labels, data, err := categorySeries(result, s.Column)
	if err != nil {
		return nil, err
	}
	return &ChartConfig{
		Type: "pie",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{{Label: s.Column, Data: data, BackgroundColor: paletteFor(len(labels))}},
		},
	}, nil
}

// RadarSpec renders category counts of one categorical column as a radar.
type RadarSpec struct {
	Column string
}

func (s RadarSpec) Kind() ChartKind { return KindRadar }

func (s RadarSpec) Build(result *models.AnalysisResult) (*ChartConfig, error) {
	labels, data, err := categorySeries(result, s.Column)
	if err != nil {
		return nil, err
	}
	return &ChartConfig{
		Type: "radar",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{{Label: s.Column, Data: data}},
		},
	}, nil
}

// categorySeries extracts category counts for col, most frequent first,
// ties broken by label.
func categorySeries(result *models.AnalysisResult, col string) ([]string, []float64, error) {
	counts, ok := result.Visualization.CategoryCounts[col]
	if !ok || len(counts) == 0 {
		return nil, nil, fmt.Errorf("no category counts available for column %q", col)
	}

	labels := make([]string, 0, len(counts))
	for v := range counts {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	data := make([]float64, len(labels))
	for i, v := range labels {
		data[i] = float64(counts[v])
	}
	return labels, data, nil
}

func paletteFor(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = chartPalette[i%len(chartPalette)]
	}
	return colors
}

func numericCell(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// SlotState is the lifecycle state of a chart slot.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotActive
)

// ActiveChart is the live chart bound to a slot.
type ActiveChart struct {
	Spec   ChartSpec
	Config *ChartConfig
}

// ChartManager owns the named rendering slots. Invariant: at most one live
// chart per slot, never two.
type ChartManager struct {
	mu    sync.Mutex
	slots map[string]*ActiveChart
}

// NewChartManager creates a manager with every slot empty.
func NewChartManager() *ChartManager {
	return &ChartManager{slots: make(map[string]*ActiveChart)}
}

// Create builds a chart from spec and binds it to slot, destroying any
// prior chart there. The spec is validated against the result before the
// prior chart is touched: on failure the slot keeps its prior state, so a
// bad spec can neither clear a slot nor leave a stale chart behind.
func (m *ChartManager) Create(slot string, spec ChartSpec, result *models.AnalysisResult) error {
	config, err := spec.Build(result)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = &ActiveChart{Spec: spec, Config: config}
	return nil
}

// Destroy releases the slot's chart. No-op when the slot is already empty.
func (m *ChartManager) Destroy(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
}

// DestroyAll releases every slot.
func (m *ChartManager) DestroyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = make(map[string]*ActiveChart)
}

// State reports the slot's lifecycle state.
func (m *ChartManager) State(slot string) SlotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[slot] != nil {
		return SlotActive
	}
	return SlotEmpty
}

// Active returns the slot's live chart, nil when empty.
func (m *ChartManager) Active(slot string) *ActiveChart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot]
}
