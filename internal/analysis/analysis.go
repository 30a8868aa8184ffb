// Package analysis computes descriptive statistics over a feature table.
package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/tipgen/internal/dataset"
)

// Summary holds describe-style statistics for one numeric column.
// Std is the sample standard deviation. Quartiles use linear interpolation
// of the empirical CDF. All values are NaN for an empty column.
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe summarizes every numeric column in schema order.
func Describe(t *dataset.Table) ([]Summary, error) {
	cols := dataset.NumericColumns()
	out := make([]Summary, 0, len(cols))
	for _, name := range cols {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(name, vals))
	}
	return out, nil
}

// Summarize computes a Summary for x. x is not modified.
func Summarize(name string, x []float64) Summary {
	s := Summary{Column: name, Count: len(x)}
	if len(x) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)

	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return s
}

// CorrelationMatrix holds pairwise Pearson correlations. Values[i][j]
// correlates Columns[i] with Columns[j]. Pairs involving a constant
// column are NaN.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// At returns the correlation between two named columns.
func (m CorrelationMatrix) At(a, b string) (float64, error) {
	i := slices.Index(m.Columns, a)
	j := slices.Index(m.Columns, b)
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("unknown column pair %q, %q", a, b)
	}
	return m.Values[i][j], nil
}

// Correlation computes the Pearson correlation matrix over all numeric columns.
func Correlation(t *dataset.Table) (CorrelationMatrix, error) {
	cols := dataset.NumericColumns()
	data := make([][]float64, len(cols))
	for i, name := range cols {
		vals, err := t.Floats(name)
		if err != nil {
			return CorrelationMatrix{}, err
		}
		data[i] = vals
	}

	m := CorrelationMatrix{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(data[i], data[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.StdDev(x, nil) == 0 || stat.StdDev(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Group summarizes tip_percent for one category value.
type Group struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Median   float64 `json:"median"`
}

// GroupMeans groups rows by a categorical column and summarizes
// tip_percent per category, ordered by category name.
func GroupMeans(t *dataset.Table, column string) ([]Group, error) {
	return GroupBy(t, column, dataset.ColTipPercent)
}

// GroupBy groups rows by a categorical column and summarizes a numeric
// column per category, ordered by category name.
func GroupBy(t *dataset.Table, column, value string) ([]Group, error) {
	keys, err := t.Strings(column)
	if err != nil {
		return nil, err
	}
	vals, err := t.Floats(value)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]float64)
	for i, k := range keys {
		byKey[k] = append(byKey[k], vals[i])
	}

	names := make([]string, 0, len(byKey))
	for k := range byKey {
		names = append(names, k)
	}
	slices.Sort(names)

	out := make([]Group, 0, len(names))
	for _, k := range names {
		s := Summarize(k, byKey[k])
		out = append(out, Group{Category: k, Count: s.Count, Mean: s.Mean, Std: s.Std, Median: s.Median})
	}
	return out, nil
}
