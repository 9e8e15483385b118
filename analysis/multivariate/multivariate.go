// Package multivariate computes grouped summaries and the correlation
// structure across several columns at once.
package multivariate

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/render"
)

// Table is a named result frame.
type Table struct {
	Name  string
	Frame *dataset.Frame
}

// Result holds the tables a variant computed and the figure it rendered, if
// any.
type Result struct {
	Tables   []Table
	Artifact *render.Artifact
}

// Factory dispatches to one multivariate variant.
type Factory = strategy.Factory[*dataset.Frame, Result]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, Result]) *Factory {
	return strategy.NewFactory(s)
}

// CorrelationHeatmap computes the Pearson correlation between every pair of
// numeric columns over the rows where both are present, and renders it as
// an annotated heatmap.
type CorrelationHeatmap struct {
	Renderer *render.Renderer
}

// Execute draws the heatmap and returns the correlation table with it.
func (c *CorrelationHeatmap) Execute(df *dataset.Frame) (Result, error) {
	numeric := df.SelectKinds(dataset.Numeric)
	if numeric.NCols() == 0 {
		return Result{}, errors.NewValueError("CorrelationHeatmap", "frame has no numeric columns")
	}
	names := numeric.Columns()
	corr := Correlation(numeric)

	cols := []*dataset.Series{dataset.NewCategorical("Column", names)}
	for j, name := range names {
		cols = append(cols, dataset.NewNumeric(name, mat.Col(nil, j, corr)))
	}
	table, err := dataset.New(cols...)
	if err != nil {
		return Result{}, err
	}

	p, err := render.Heatmap("Correlation Heatmap", "", "", corr, names, names, render.HeatmapOptions{
		Min: -1, Max: 1, Annotate: true, Format: "%.2f", ColorMap: moreland.SmoothBlueRed(),
	})
	if err != nil {
		return Result{}, err
	}
	art, err := c.Renderer.Save("Correlation Heatmap", p)
	if err != nil {
		return Result{}, err
	}
	return Result{Tables: []Table{{Name: "correlation", Frame: table}}, Artifact: &art}, nil
}

// Correlation returns the pairwise-complete Pearson correlation matrix of
// the numeric frame. Pairs with fewer than two shared rows or no variance
// are NaN.
func Correlation(numeric *dataset.Frame) *mat.SymDense {
	series := numeric.Series()
	n := len(series)
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var xs, ys []float64
			for r := 0; r < numeric.NRows(); r++ {
				if series[i].IsNull(r) || series[j].IsNull(r) {
					continue
				}
				xs = append(xs, series[i].Float(r))
				ys = append(ys, series[j].Float(r))
			}
			v := math.NaN()
			if len(xs) > 1 {
				v = stat.Correlation(xs, ys, nil)
			}
			corr.SetSym(i, j, v)
		}
	}
	return corr
}
