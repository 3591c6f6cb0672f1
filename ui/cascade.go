package ui

import (
	"fmt"
	"sort"

	"edadash/models"
)

// Selector is one dropdown: its options in source order and the current
// selection.
type Selector struct {
	Options  []string
	Selected string
}

func (s *Selector) populate(options []string) {
	s.Options = append([]string(nil), options...)
	if len(s.Options) > 0 {
		s.Selected = s.Options[0]
	} else {
		s.Selected = ""
	}
}

// Select moves the selection if the option exists.
func (s *Selector) Select(option string) bool {
	for _, o := range s.Options {
		if o == option {
			s.Selected = option
			return true
		}
	}
	return false
}

// SelectorState is the shared dropdown state the cascade maintains. The
// chart builder and the filter both read from it after the overview step
// populates it.
type SelectorState struct {
	Numeric      Selector
	Categorical  Selector
	Datetime     Selector
	FilterColumn Selector
	FilterValue  Selector
}

// PopulateOptions fills the semantic selectors from the overview column
// lists, preserving source order; the first option of each becomes the
// default selection.
func (s *SelectorState) PopulateOptions(ov models.Overview) {
	s.Numeric.populate(ov.NumericColumns)
	s.Categorical.populate(ov.CategoricalColumns)
	s.Datetime.populate(ov.DatetimeColumns)
	s.FilterColumn.populate(ov.CategoricalColumns)
}

// SelectFilterColumn repopulates the dependent value selector with the
// distinct values of column.
//
// Values are sourced from the precomputed value_counts map (not recomputed
// from the preview sample), so the option list is complete only up to the
// cardinality cutoff the engine materialized; columns above the cutoff show
// their most frequent values. Ordering is by count, most frequent first,
// ties by value.
func (s *SelectorState) SelectFilterColumn(result *models.AnalysisResult, column string) error {
	counts, ok := result.ValueCounts[column]
	if !ok {
		return fmt.Errorf("no value counts available for column %q", column)
	}
	s.FilterColumn.Select(column)
	s.FilterValue.populate(rankedValues(counts))
	return nil
}

func rankedValues(counts map[string]int) []string {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})
	return values
}

// FilterOutcome is the recomputed state after applying a filter over the
// preview sample.
type FilterOutcome struct {
	Column string
	Value  string
	// Rows is the matching subset of the preview sample.
	Rows []map[string]any
	// CategoryCounts are recomputed per categorical column over Rows; the
	// dependent charts rebuild from these.
	CategoryCounts map[string]map[string]int
	// Caveat states the completeness limit of sample-based filtering.
	Caveat string
}

// ApplyFilter filters by exact string-coerced equality over the rows held
// client-side and recomputes the dependent aggregates from the subset.
//
// Only the preview sample is held client-side, so the recomputed numbers
// cover the sampled rows, not the full dataset; the outcome says so
// explicitly rather than silently doing nothing.
func ApplyFilter(result *models.AnalysisResult, column, value string) (*FilterOutcome, error) {
	if len(result.Preview) == 0 {
		return nil, fmt.Errorf("no sample rows available to filter")
	}
	if _, ok := result.Preview[0][column]; !ok {
		return nil, fmt.Errorf("column %q not present in sample rows", column)
	}

	outcome := &FilterOutcome{
		Column:         column,
		Value:          value,
		CategoryCounts: map[string]map[string]int{},
		Caveat: fmt.Sprintf("Filtered over the %d sampled rows held client-side, not the full dataset.",
			len(result.Preview)),
	}

	for _, record := range result.Preview {
		if coerce(record[column]) == value {
			outcome.Rows = append(outcome.Rows, record)
		}
	}

	for _, col := range result.Overview.CategoricalColumns {
		counts := map[string]int{}
		for _, record := range outcome.Rows {
			if record[col] == nil {
				continue
			}
			counts[coerce(record[col])]++
		}
		outcome.CategoryCounts[col] = counts
	}
	return outcome, nil
}

// coerce renders a cell value as the string a user would type. Null never
// matches anything.
func coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00null"
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
