// Package engine is the in-process analysis backend: it turns an uploaded
// CSV/XLSX/XML file into the AnalysisResult the dashboard renders. A remote
// engine speaking the same payload can be substituted via internal/analysis.
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"edadash/internal"
	"edadash/models"
)

// Options tunes the materialized aggregates.
type Options struct {
	// PreviewRows is how many head rows the preview sample carries.
	PreviewRows int
	// CategoryCutoff caps the distinct values materialized per categorical
	// column in category_counts and value_counts.
	CategoryCutoff int
}

// Engine computes analysis results from tabular files.
type Engine struct {
	opts Options
	log  *internal.Logger
}

// New creates an engine. Zero option fields get sensible defaults.
func New(opts Options) *Engine {
	if opts.PreviewRows < 1 {
		opts.PreviewRows = 5
	}
	if opts.CategoryCutoff < 1 {
		opts.CategoryCutoff = 20
	}
	return &Engine{opts: opts, log: internal.DefaultLogger}
}

// Analyze reads the file and computes the full analysis result. Per-column
// profiling fans out across goroutines; everything downstream of the
// profiles is assembled deterministically.
func (e *Engine) Analyze(ctx context.Context, filename string, r io.Reader) (*models.AnalysisResult, error) {
	table, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}
	e.log.Debug("analyzing %s: %s", filename, table)

	profiles := make([]*columnProfile, len(table.columns))
	g, gctx := errgroup.WithContext(ctx)
	for i := range table.columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profiles[i] = profileColumn(table.columns[i], table.column(i), e.opts.CategoryCutoff)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := e.assemble(filename, table, profiles)
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("engine produced inconsistent result: %w", err)
	}
	return result, nil
}

func (e *Engine) assemble(filename string, table *rawTable, profiles []*columnProfile) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Overview: models.Overview{
			Rows:               len(table.rows),
			Columns:            len(table.columns),
			NumericColumns:     []string{},
			CategoricalColumns: []string{},
			DatetimeColumns:    []string{},
		},
		Statistics:      map[string]map[string]*float64{},
		Preview:         e.preview(table, profiles),
		NUnique:         map[string]int{},
		MissingHandling: map[string]models.MissingHandlingStep{},
		ValueCounts:     map[string]map[string]int{},
		Visualization: models.Visualization{
			Histograms:     map[string]models.Histogram{},
			CategoryCounts: map[string]map[string]int{},
		},
		AdvancedVisualization: models.AdvancedVisualization{
			Correlation:   map[string]map[string]float64{},
			MissingValues: map[string]int{},
		},
	}

	missing := map[string]int{}
	for _, p := range profiles {
		switch p.kind {
		case kindNumeric:
			result.Overview.NumericColumns = append(result.Overview.NumericColumns, p.name)
			result.Statistics[p.name] = p.describe
			if p.hist != nil {
				result.Visualization.Histograms[p.name] = *p.hist
			}
		case kindDatetime:
			result.Overview.DatetimeColumns = append(result.Overview.DatetimeColumns, p.name)
		default:
			result.Overview.CategoricalColumns = append(result.Overview.CategoricalColumns, p.name)
			result.Visualization.CategoryCounts[p.name] = p.counts
			result.ValueCounts[p.name] = p.counts
		}
		missing[p.name] = p.missing
		result.NUnique[p.name] = p.nunique
		result.MissingHandling[p.name] = p.handling
	}

	result.DataQuality = &models.DataQuality{
		Duplicates:    duplicateRows(table),
		MissingValues: missing,
	}
	result.AdvancedVisualization.MissingValues = missing
	result.AdvancedVisualization.Correlation = correlationMatrix(table, profiles)
	result.Insights = e.insights(result, profiles)
	result.DatasetInfo = e.datasetInfo(filename, result)
	return result
}

// preview returns the head rows as records, numeric cells as numbers and
// missing cells as nulls.
func (e *Engine) preview(table *rawTable, profiles []*columnProfile) []map[string]any {
	n := e.opts.PreviewRows
	if n > len(table.rows) {
		n = len(table.rows)
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		record := make(map[string]any, len(table.columns))
		for j, p := range profiles {
			raw := table.cell(i, j)
			switch {
			case raw == "":
				record[p.name] = nil
			case p.kind == kindNumeric:
				f, _ := strconv.ParseFloat(raw, 64)
				record[p.name] = f
			default:
				record[p.name] = raw
			}
		}
		out[i] = record
	}
	return out
}

func duplicateRows(table *rawTable) int {
	seen := make(map[string]bool, len(table.rows))
	dups := 0
	for _, row := range table.rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// correlationMatrix computes pairwise Pearson correlation over the numeric
// columns, using only rows where both values are present. Pairs with
// undefined correlation (zero variance, too few rows) get 0.
func correlationMatrix(table *rawTable, profiles []*columnProfile) map[string]map[string]float64 {
	type numericCol struct {
		name   string
		values []float64 // aligned by row, NaN = missing
	}
	var cols []numericCol
	for i, p := range profiles {
		if p.kind != kindNumeric {
			continue
		}
		aligned := make([]float64, len(table.rows))
		for row := range table.rows {
			raw := table.cell(row, i)
			if raw == "" {
				aligned[row] = math.NaN()
				continue
			}
			aligned[row], _ = strconv.ParseFloat(raw, 64)
		}
		cols = append(cols, numericCol{name: p.name, values: aligned})
	}

	matrix := make(map[string]map[string]float64, len(cols))
	for _, a := range cols {
		matrix[a.name] = make(map[string]float64, len(cols))
		for _, b := range cols {
			if a.name == b.name {
				matrix[a.name][b.name] = 1
				continue
			}
			var xs, ys []float64
			for row := range a.values {
				if math.IsNaN(a.values[row]) || math.IsNaN(b.values[row]) {
					continue
				}
				xs = append(xs, a.values[row])
				ys = append(ys, b.values[row])
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			// Guard against float drift past the unit interval.
			matrix[a.name][b.name] = math.Max(-1, math.Min(1, r))
		}
	}
	return matrix
}

// insights builds the human-readable summary lines.
func (e *Engine) insights(result *models.AnalysisResult, profiles []*columnProfile) []string {
	ov := result.Overview
	lines := []string{
		fmt.Sprintf("Dataset contains %d rows and %d columns.", ov.Rows, ov.Columns),
		fmt.Sprintf("%d numeric columns detected.", len(ov.NumericColumns)),
		fmt.Sprintf("%d categorical columns detected.", len(ov.CategoricalColumns)),
		fmt.Sprintf("%d duplicate rows found.", result.DataQuality.Duplicates),
	}
	if len(ov.DatetimeColumns) > 0 {
		lines = append(lines, fmt.Sprintf("%d datetime columns detected.", len(ov.DatetimeColumns)))
	}

	for _, p := range profiles {
		if p.kind != kindNumeric {
			continue
		}
		if n := iqrOutliers(p.values); n > 0 {
			lines = append(lines, fmt.Sprintf("%d outliers detected in '%s'.", n, p.name))
		}
	}

	for _, p := range profiles {
		if ov.Rows > 0 && p.missing*2 > ov.Rows {
			lines = append(lines, fmt.Sprintf("Column '%s' is more than half missing.", p.name))
		}
	}
	return lines
}

func iqrOutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr
	n := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// datasetInfo is the opaque descriptive text panel, emitted as markdown.
func (e *Engine) datasetInfo(filename string, result *models.AnalysisResult) string {
	ov := result.Overview
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", filename)
	fmt.Fprintf(&b, "- **Rows:** %d\n", ov.Rows)
	fmt.Fprintf(&b, "- **Columns:** %d\n", ov.Columns)
	if len(ov.NumericColumns) > 0 {
		fmt.Fprintf(&b, "- **Numeric:** %s\n", strings.Join(ov.NumericColumns, ", "))
	}
	if len(ov.CategoricalColumns) > 0 {
		fmt.Fprintf(&b, "- **Categorical:** %s\n", strings.Join(ov.CategoricalColumns, ", "))
	}
	if len(ov.DatetimeColumns) > 0 {
		fmt.Fprintf(&b, "- **Datetime:** %s\n", strings.Join(ov.DatetimeColumns, ", "))
	}
	fmt.Fprintf(&b, "- **Duplicate rows:** %d\n", result.DataQuality.Duplicates)
	return b.String()
}
