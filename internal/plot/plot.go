// Package plot renders exploratory charts of a feature table as PNG files.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/nvandessel/tipgen/internal/analysis"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// HistogramBins is the bin count used for the tip-percent histogram.
const HistogramBins = 30

// ErrEmptyTable is returned when there are no rows to plot.
var ErrEmptyTable = errors.New("no rows to plot")

var (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

// Histogram plots the distribution of a numeric column.
func Histogram(t *dataset.Table, column string, bins int, path string) error {
	vals, err := nonEmptyFloats(t, column)
	if err != nil {
		return err
	}

	p := gonumplot.New()
	p.Title.Text = "Distribution of " + column
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)

	return save(p, path)
}

// Scatter plots column y against column x.
func Scatter(t *dataset.Table, x, y, path string) error {
	xs, err := nonEmptyFloats(t, x)
	if err != nil {
		return err
	}
	ys, err := t.Floats(y)
	if err != nil {
		return err
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}

	p := gonumplot.New()
	p.Title.Text = y + " vs " + x
	p.X.Label.Text = x
	p.Y.Label.Text = y

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Color = color.RGBA{R: 70, G: 130, B: 180, A: 160}
	p.Add(s)

	return save(p, path)
}

// BoxByCategory draws one box of value per category of a categorical
// column, ordered by category name.
func BoxByCategory(t *dataset.Table, category, value, path string) error {
	if t.Len() == 0 {
		return ErrEmptyTable
	}
	keys, err := t.Strings(category)
	if err != nil {
		return err
	}
	vals, err := t.Floats(value)
	if err != nil {
		return err
	}

	groups := make(map[string]plotter.Values)
	for i, k := range keys {
		groups[k] = append(groups[k], vals[i])
	}
	names := make([]string, 0, len(groups))
	for k := range groups {
		names = append(names, k)
	}
	slices.Sort(names)

	p := gonumplot.New()
	p.Title.Text = value + " by " + category
	p.Y.Label.Text = value

	for i, name := range names {
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), groups[name])
		if err != nil {
			return fmt.Errorf("building box for %q: %w", name, err)
		}
		p.Add(b)
	}
	p.NominalX(names...)

	return save(p, path)
}

// CorrelationHeatmap draws the Pearson correlation matrix of the numeric
// columns on a blue-red scale from -1 to 1.
func CorrelationHeatmap(t *dataset.Table, path string) error {
	if t.Len() == 0 {
		return ErrEmptyTable
	}
	m, err := analysis.Correlation(t)
	if err != nil {
		return err
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(correlationGrid(m), cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := gonumplot.New()
	p.Title.Text = "Correlation matrix"
	p.Add(hm)
	p.NominalX(m.Columns...)
	p.NominalY(m.Columns...)
	p.X.Tick.Label.Rotation = math.Pi / 5
	p.X.Tick.Label.XAlign = draw.XRight

	return save(p, path)
}

// correlationGrid adapts a CorrelationMatrix to plotter.GridXYZ.
type correlationGrid analysis.CorrelationMatrix

func (g correlationGrid) Dims() (c, r int)   { return len(g.Columns), len(g.Columns) }
func (g correlationGrid) Z(c, r int) float64 { return g.Values[r][c] }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

// WriteAll renders the standard exploratory set into dir and returns the
// written paths: a tip_percent histogram, a scatter of each numeric
// feature against tip_percent, a tip_percent box plot per categorical
// column, and the correlation heatmap.
func WriteAll(t *dataset.Table, dir string) ([]string, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating plot directory: %w", err)
	}

	var written []string
	emit := func(name string, render func(path string) error) error {
		path := filepath.Join(dir, name)
		if err := render(path); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	err := emit("hist_"+dataset.ColTipPercent+".png", func(path string) error {
		return Histogram(t, dataset.ColTipPercent, HistogramBins, path)
	})
	if err != nil {
		return written, err
	}

	for _, col := range dataset.NumericColumns() {
		if col == dataset.ColTipPercent || col == dataset.ColTipAmount {
			continue
		}
		err := emit("scatter_"+col+".png", func(path string) error {
			return Scatter(t, col, dataset.ColTipPercent, path)
		})
		if err != nil {
			return written, err
		}
	}

	for _, col := range dataset.CategoricalColumns() {
		err := emit("box_"+col+".png", func(path string) error {
			return BoxByCategory(t, col, dataset.ColTipPercent, path)
		})
		if err != nil {
			return written, err
		}
	}

	err = emit("correlation.png", func(path string) error {
		return CorrelationHeatmap(t, path)
	})
	return written, err
}

func nonEmptyFloats(t *dataset.Table, column string) ([]float64, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}
	return t.Floats(column)
}

func save(p *gonumplot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
