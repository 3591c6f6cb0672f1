package engine

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"edadash/models"
)

// columnKind mirrors the pandas dtype split the dashboard consumes.
type columnKind int

const (
	kindNumeric columnKind = iota
	kindCategorical
	kindDatetime
)

func (k columnKind) String() string {
	switch k {
	case kindNumeric:
		return "numeric"
	case kindDatetime:
		return "datetime"
	default:
		return "categorical"
	}
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
}

// columnProfile is everything the engine derives from a single column.
type columnProfile struct {
	name     string
	kind     columnKind
	missing  int
	nunique  int
	values   []float64      // numeric columns, missing excluded
	counts   map[string]int // categorical columns, capped
	describe map[string]*float64
	hist     *models.Histogram
	handling models.MissingHandlingStep
}

// inferKind classifies a column from its non-missing raw values. A column
// with no values at all is categorical.
func inferKind(raw []string) columnKind {
	seen := false
	numeric := true
	datetime := true
	for _, v := range raw {
		if v == "" {
			continue
		}
		seen = true
		if numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		if datetime && !parsesAsTime(v) {
			datetime = false
		}
		if !numeric && !datetime {
			return kindCategorical
		}
	}
	switch {
	case !seen:
		return kindCategorical
	case numeric:
		return kindNumeric
	case datetime:
		return kindDatetime
	default:
		return kindCategorical
	}
}

func parsesAsTime(v string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// profileColumn computes everything derivable from one column in isolation.
func profileColumn(name string, raw []string, cutoff int) *columnProfile {
	p := &columnProfile{name: name, kind: inferKind(raw)}

	distinct := map[string]int{}
	for _, v := range raw {
		if v == "" {
			p.missing++
			continue
		}
		distinct[v]++
	}
	p.nunique = len(distinct)

	switch p.kind {
	case kindNumeric:
		p.values = make([]float64, 0, len(raw)-p.missing)
		for _, v := range raw {
			if v == "" {
				continue
			}
			f, _ := strconv.ParseFloat(v, 64)
			p.values = append(p.values, f)
		}
		p.describe = describe(p.values)
		p.hist = histogram(p.values)
	default:
		p.counts = topCounts(distinct, cutoff)
	}

	p.handling = handlingStep(p, distinct)
	return p
}

// describe mirrors pandas DataFrame.describe for one numeric column.
// Undefined moments (std of a single value, anything over an empty column)
// come back nil and serialize as null.
func describe(values []float64) map[string]*float64 {
	count := float64(len(values))
	out := map[string]*float64{"count": &count}
	if len(values) == 0 {
		return out
	}

	put := func(key string, v float64, err error) {
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			out[key] = nil
			return
		}
		out[key] = &v
	}

	mean, err := stats.Mean(values)
	put("mean", mean, err)
	std, err := stats.StandardDeviationSample(values)
	put("std", std, err)
	min, err := stats.Min(values)
	put("min", min, err)
	q1, err := stats.Percentile(values, 25)
	put("25%", q1, err)
	med, err := stats.Median(values)
	put("50%", med, err)
	q3, err := stats.Percentile(values, 75)
	put("75%", q3, err)
	max, err := stats.Max(values)
	put("max", max, err)
	return out
}

// histogram bins values with the Sturges rule into the standardized
// {bin_edges, counts} shape: len(bin_edges) == len(counts)+1.
func histogram(values []float64) *models.Histogram {
	if len(values) == 0 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	bins := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if bins < 1 {
		bins = 1
	}
	if max == min {
		return &models.Histogram{
			BinEdges: []float64{min, min + 1},
			Counts:   []int{len(values)},
		}
	}

	width := (max - min) / float64(bins)
	h := &models.Histogram{
		BinEdges: make([]float64, bins+1),
		Counts:   make([]int, bins),
	}
	for i := 0; i <= bins; i++ {
		h.BinEdges[i] = min + width*float64(i)
	}
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h
}

// topCounts keeps the cutoff most frequent distinct values, ties broken by
// value so output is deterministic.
func topCounts(distinct map[string]int, cutoff int) map[string]int {
	if len(distinct) <= cutoff {
		out := make(map[string]int, len(distinct))
		for v, n := range distinct {
			out[v] = n
		}
		return out
	}

	type vc struct {
		value string
		n     int
	}
	ranked := make([]vc, 0, len(distinct))
	for v, n := range distinct {
		ranked = append(ranked, vc{v, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].value < ranked[j].value
	})

	out := make(map[string]int, cutoff)
	for _, r := range ranked[:cutoff] {
		out[r.value] = r.n
	}
	return out
}

// handlingStep records how this column's missing values would be filled:
// median for numeric, mode for categorical, forward fill for datetime.
func handlingStep(p *columnProfile, distinct map[string]int) models.MissingHandlingStep {
	step := models.MissingHandlingStep{
		MissingBefore: p.missing,
		ColType:       p.kind.String(),
	}
	if p.missing == 0 {
		step.Method = "none"
		step.FillStrategy = "no missing values"
		return step
	}

	switch p.kind {
	case kindNumeric:
		step.Method = "median"
		step.FillStrategy = "fill with column median"
		if med, err := stats.Median(p.values); err == nil {
			step.FillValue = med
		}
	case kindDatetime:
		step.Method = "ffill"
		step.FillStrategy = "propagate last valid observation"
	default:
		step.Method = "mode"
		step.FillStrategy = "fill with most frequent value"
		step.FillValue = modeOf(distinct)
	}

	// Columns with at least one observed value fill completely.
	if len(distinct) > 0 {
		step.MissingAfter = 0
	} else {
		step.MissingAfter = p.missing
	}
	return step
}

func modeOf(distinct map[string]int) any {
	var (
		best  string
		bestN = -1
	)
	for v, n := range distinct {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	if bestN < 0 {
		return nil
	}
	return best
}
