package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// AnalysisResult is the single structured payload describing an uploaded
// dataset: summary statistics, cleaning lineage, and chart-ready aggregates.
// It is immutable once received; the rendering layer treats it as read-only
// and replaces it wholesale on each successful upload.
type AnalysisResult struct {
	Overview              Overview                       `json:"overview" validate:"required"`
	DataQuality           *DataQuality                   `json:"data_quality,omitempty"`
	Statistics            map[string]map[string]*float64 `json:"statistics,omitempty"`
	Insights              []string                       `json:"insights"`
	Preview               []map[string]any               `json:"preview"`
	Visualization         Visualization                  `json:"visualization"`
	AdvancedVisualization AdvancedVisualization          `json:"advanced_visualization"`
	NUnique               map[string]int                 `json:"nunique"`
	MissingHandling       map[string]MissingHandlingStep `json:"missing_handling_process"`
	ValueCounts           map[string]map[string]int      `json:"value_counts"`
	DatasetInfo           string                         `json:"dataset_info"`
}

// Overview summarizes dataset shape and column typing. The three column
// lists partition the full column set: no overlaps, union covers everything.
type Overview struct {
	Rows               int      `json:"rows" validate:"gte=0"`
	Columns            int      `json:"columns" validate:"gte=0"`
	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
	DatetimeColumns    []string `json:"datetime_columns"`
}

// DataQuality carries duplicate and per-column missing counts. Optional in
// some deployments.
type DataQuality struct {
	Duplicates    int            `json:"duplicates" validate:"gte=0"`
	MissingValues map[string]int `json:"missing_values"`
}

// Histogram is the standardized binned representation: len(BinEdges) is
// always len(Counts)+1.
type Histogram struct {
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int     `json:"counts"`
}

// Visualization holds chart-ready aggregates for the basic chart set.
type Visualization struct {
	Histograms     map[string]Histogram      `json:"histograms"`
	CategoryCounts map[string]map[string]int `json:"category_counts"`
}

// AdvancedVisualization holds the correlation matrix and missing-value
// counts backing the advanced panels.
type AdvancedVisualization struct {
	Correlation   map[string]map[string]float64 `json:"correlation"`
	MissingValues map[string]int                `json:"missing_values"`
}

// MissingHandlingStep records the cleaning lineage of one column: how many
// values were missing before and after, and how the gap was filled.
type MissingHandlingStep struct {
	MissingBefore int    `json:"missing_before"`
	MissingAfter  int    `json:"missing_after"`
	Method        string `json:"method"`
	FillValue     any    `json:"fill_value"`
	FillStrategy  string `json:"fill_strategy"`
	ColType       string `json:"col_type"`
}

// ErrorPayload is the failure shape of the analysis endpoint: only the
// error string is guaranteed present.
type ErrorPayload struct {
	Error string `json:"error"`
}

var validate = validator.New()

// DecodeResult parses an analysis response body. The error field is checked
// before anything else is read; a payload carrying error never yields a
// result.
func DecodeResult(data []byte) (*AnalysisResult, error) {
	var probe ErrorPayload
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}
	if probe.Error != "" {
		return nil, fmt.Errorf("analysis failed: %s", probe.Error)
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate enforces the structural invariants the renderers rely on.
func (r *AnalysisResult) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid analysis result: %w", err)
	}

	if err := r.Overview.validatePartition(); err != nil {
		return err
	}

	for col, h := range r.Visualization.Histograms {
		if len(h.BinEdges) != len(h.Counts)+1 {
			return fmt.Errorf("histogram for %q: %d bin edges for %d counts", col, len(h.BinEdges), len(h.Counts))
		}
	}

	return validateCorrelation(r.AdvancedVisualization.Correlation)
}

// validatePartition checks that the typed column lists are disjoint and
// together account for every column.
func (o *Overview) validatePartition() error {
	seen := make(map[string]string, o.Columns)
	lists := map[string][]string{
		"numeric":     o.NumericColumns,
		"categorical": o.CategoricalColumns,
		"datetime":    o.DatetimeColumns,
	}
	total := 0
	for kind, cols := range lists {
		for _, col := range cols {
			if prior, dup := seen[col]; dup {
				return fmt.Errorf("column %q listed as both %s and %s", col, prior, kind)
			}
			seen[col] = kind
			total++
		}
	}
	if total != o.Columns {
		return fmt.Errorf("overview lists %d typed columns but declares %d", total, o.Columns)
	}
	return nil
}

// validateCorrelation requires a square matrix keyed identically on both
// axes with values in [-1,1].
func validateCorrelation(matrix map[string]map[string]float64) error {
	for row, cells := range matrix {
		if len(cells) != len(matrix) {
			return fmt.Errorf("correlation row %q has %d cells for a %d-key matrix", row, len(cells), len(matrix))
		}
		for col, v := range cells {
			if _, ok := matrix[col]; !ok {
				return fmt.Errorf("correlation row %q references unknown column %q", row, col)
			}
			if math.IsNaN(v) || v < -1 || v > 1 {
				return fmt.Errorf("correlation[%s][%s] = %v out of [-1,1]", row, col, v)
			}
		}
	}
	return nil
}

// AllColumns returns every column in source order: numeric first, then
// categorical, then datetime, matching the order the overview declares.
func (o *Overview) AllColumns() []string {
	cols := make([]string, 0, o.Columns)
	cols = append(cols, o.NumericColumns...)
	cols = append(cols, o.CategoricalColumns...)
	cols = append(cols, o.DatetimeColumns...)
	return cols
}

// HasHistogram reports whether a histogram was materialized for col.
func (r *AnalysisResult) HasHistogram(col string) bool {
	_, ok := r.Visualization.Histograms[col]
	return ok
}

// HasCategoryCounts reports whether category counts were materialized for col.
func (r *AnalysisResult) HasCategoryCounts(col string) bool {
	_, ok := r.Visualization.CategoryCounts[col]
	return ok
}
