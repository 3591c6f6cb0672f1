package ui

import (
	"fmt"
	"html/template"
	"math"
	"sort"
	"strings"

	"edadash/models"
)

// ClassifyCorrelation bands a coefficient for visual emphasis: |v| >= 0.7
// is strong, 0.3 <= |v| < 0.7 moderate, anything weaker just "weak" with no
// sign qualifier.
func ClassifyCorrelation(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 0.7:
		if v < 0 {
			return "strong negative"
		}
		return "strong positive"
	case abs >= 0.3:
		if v < 0 {
			return "moderate negative"
		}
		return "moderate positive"
	default:
		return "weak"
	}
}

// correlationOrder fixes the axis order: the overview's numeric column
// order where the matrix covers it, otherwise sorted keys.
func correlationOrder(result *models.AnalysisResult) []string {
	matrix := result.AdvancedVisualization.Correlation
	var order []string
	for _, col := range result.Overview.NumericColumns {
		if _, ok := matrix[col]; ok {
			order = append(order, col)
		}
	}
	if len(order) == len(matrix) {
		return order
	}
	order = order[:0]
	for col := range matrix {
		order = append(order, col)
	}
	sort.Strings(order)
	return order
}

// RenderCorrelationTable renders the square matrix as a colored table: one
// row and column per key, cells at fixed two-decimal precision, a CSS class
// per classification band.
func RenderCorrelationTable(result *models.AnalysisResult) (template.HTML, error) {
	matrix := result.AdvancedVisualization.Correlation
	if len(matrix) == 0 {
		return "", fmt.Errorf("no correlation matrix available")
	}
	order := correlationOrder(result)

	var b strings.Builder
	b.WriteString(`<table class="corr-table"><thead><tr><th></th>`)
	for _, col := range order {
		fmt.Fprintf(&b, "<th>%s</th>", template.HTMLEscapeString(col))
	}
	b.WriteString("</tr></thead><tbody>")

	for _, row := range order {
		fmt.Fprintf(&b, "<tr><th>%s</th>", template.HTMLEscapeString(row))
		for _, col := range order {
			v := matrix[row][col]
			band := strings.ReplaceAll(ClassifyCorrelation(v), " ", "-")
			fmt.Fprintf(&b, `<td class="corr-%s">%.2f</td>`, band, v)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return template.HTML(b.String()), nil
}

// CorrelationBarSeries derives a bar chart of one row's off-diagonal values
// against every other column, bars colored by sign.
func CorrelationBarSeries(result *models.AnalysisResult, row string) (*ChartConfig, error) {
	matrix := result.AdvancedVisualization.Correlation
	cells, ok := matrix[row]
	if !ok {
		return nil, fmt.Errorf("no correlation row for column %q", row)
	}

	var (
		labels []string
		data   []float64
		colors []string
	)
	for _, col := range correlationOrder(result) {
		if col == row {
			continue
		}
		v := cells[col]
		labels = append(labels, col)
		data = append(data, v)
		if v < 0 {
			colors = append(colors, colorNegative)
		} else {
			colors = append(colors, colorPositive)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("correlation row %q has no other columns", row)
	}

	return &ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{{
				Label:           fmt.Sprintf("correlation with %s", row),
				Data:            data,
				BackgroundColor: colors,
			}},
		},
	}, nil
}
