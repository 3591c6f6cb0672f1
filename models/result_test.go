package models

import (
	"strings"
	"testing"
)

func validPayload() string {
	return `{
		"overview": {"rows": 3, "columns": 2, "numeric_columns": ["age"], "categorical_columns": ["city"], "datetime_columns": []},
		"data_quality": {"duplicates": 0, "missing_values": {"age": 1, "city": 0}},
		"insights": ["Dataset contains 3 rows and 2 columns."],
		"preview": [{"age": 31, "city": "NY"}, {"age": null, "city": "LA"}],
		"visualization": {
			"histograms": {"age": {"bin_edges": [20, 30, 40], "counts": [1, 2]}},
			"category_counts": {"city": {"NY": 2, "LA": 1}}
		},
		"advanced_visualization": {
			"correlation": {"age": {"age": 1}},
			"missing_values": {"age": 1, "city": 0}
		},
		"nunique": {"age": 3, "city": 2},
		"missing_handling_process": {"age": {"missing_before": 1, "missing_after": 0, "method": "median", "fill_value": 31, "fill_strategy": "fill with column median", "col_type": "numeric"}},
		"value_counts": {"city": {"NY": 2, "LA": 1}},
		"dataset_info": "### data.csv"
	}`
}

func TestDecodeResult_Valid(t *testing.T) {
	result, err := DecodeResult([]byte(validPayload()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Overview.Rows != 3 {
		t.Errorf("Expected 3 rows, got %d", result.Overview.Rows)
	}
	if len(result.Overview.NumericColumns) != 1 || result.Overview.NumericColumns[0] != "age" {
		t.Errorf("Unexpected numeric columns: %v", result.Overview.NumericColumns)
	}
	if result.Preview[1]["age"] != nil {
		t.Errorf("Expected null preview cell, got %v", result.Preview[1]["age"])
	}
}

func TestDecodeResult_ErrorFieldCheckedFirst(t *testing.T) {
	// The failure payload carries only an error string; nothing else is
	// guaranteed present and nothing else may be read.
	_, err := DecodeResult([]byte(`{"error": "Unsupported file format"}`))
	if err == nil {
		t.Fatal("Expected error for error payload, got nil")
	}
	if !strings.Contains(err.Error(), "Unsupported file format") {
		t.Errorf("Expected engine error message, got: %v", err)
	}
}

func TestDecodeResult_Malformed(t *testing.T) {
	if _, err := DecodeResult([]byte(`{not json`)); err == nil {
		t.Fatal("Expected error for malformed payload, got nil")
	}
}

func TestValidate_ColumnPartition(t *testing.T) {
	tests := []struct {
		name        string
		overview    Overview
		expectError bool
	}{
		{
			name: "valid partition",
			overview: Overview{Rows: 1, Columns: 3,
				NumericColumns:     []string{"a", "b"},
				CategoricalColumns: []string{"c"},
				DatetimeColumns:    []string{}},
			expectError: false,
		},
		{
			name: "overlapping lists",
			overview: Overview{Rows: 1, Columns: 2,
				NumericColumns:     []string{"a"},
				CategoricalColumns: []string{"a"},
				DatetimeColumns:    []string{}},
			expectError: true,
		},
		{
			name: "union does not cover declared count",
			overview: Overview{Rows: 1, Columns: 3,
				NumericColumns:     []string{"a"},
				CategoricalColumns: []string{"b"},
				DatetimeColumns:    []string{}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.overview.validatePartition()
			if tt.expectError && err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
		})
	}
}

func TestValidate_HistogramShape(t *testing.T) {
	result := &AnalysisResult{
		Overview: Overview{Rows: 1, Columns: 1, NumericColumns: []string{"x"}},
		Visualization: Visualization{
			Histograms: map[string]Histogram{
				"x": {BinEdges: []float64{0, 1}, Counts: []int{1, 2}},
			},
		},
	}
	if err := result.Validate(); err == nil {
		t.Fatal("Expected error for bin_edges/counts mismatch, got nil")
	}
}

func TestValidate_Correlation(t *testing.T) {
	tests := []struct {
		name        string
		matrix      map[string]map[string]float64
		expectError bool
	}{
		{
			name: "valid square matrix",
			matrix: map[string]map[string]float64{
				"a": {"a": 1, "b": 0.5},
				"b": {"a": 0.5, "b": 1},
			},
			expectError: false,
		},
		{
			name: "value out of range",
			matrix: map[string]map[string]float64{
				"a": {"a": 1.5},
			},
			expectError: true,
		},
		{
			name: "not square",
			matrix: map[string]map[string]float64{
				"a": {"a": 1, "b": 0.5},
				"b": {"a": 0.5},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCorrelation(tt.matrix)
			if tt.expectError && err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
		})
	}
}

func TestAllColumns_SourceOrder(t *testing.T) {
	ov := Overview{
		Columns:            4,
		NumericColumns:     []string{"age", "income"},
		CategoricalColumns: []string{"city"},
		DatetimeColumns:    []string{"joined"},
	}
	got := ov.AllColumns()
	want := []string{"age", "income", "city", "joined"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Column %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
