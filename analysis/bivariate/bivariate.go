// Package bivariate plots the relationship between two columns.
package bivariate

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot/plotter"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/render"
)

// Request names the two columns to relate.
type Request struct {
	Frame    *dataset.Frame
	Feature1 string
	Feature2 string
}

// Factory dispatches to one bivariate variant.
type Factory = strategy.Factory[Request, render.Artifact]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[Request, render.Artifact]) *Factory {
	return strategy.NewFactory(s)
}

// DefaultBins is the number of bins per axis used by Histogram2D.
const DefaultBins = 30

// Scatter draws Feature2 against Feature1. Both must be numeric.
type Scatter struct {
	Renderer *render.Renderer
}

// Execute draws Feature2 against Feature1 as points.
func (s *Scatter) Execute(req Request) (render.Artifact, error) {
	xys, err := numericPairs("bivariate.Scatter", req)
	if err != nil {
		return render.Artifact{}, err
	}
	title := fmt.Sprintf("Scatter Plot of %s vs %s", req.Feature1, req.Feature2)
	p, err := render.Scatter(title, req.Feature1, req.Feature2, xys)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.Renderer.Save(title, p)
}

// Line draws the mean of Feature2 at each distinct value of Feature1,
// ordered by Feature1. Both must be numeric.
type Line struct {
	Renderer *render.Renderer
}

// Execute draws Feature2 against Feature1 as a line.
func (l *Line) Execute(req Request) (render.Artifact, error) {
	xys, err := numericPairs("bivariate.Line", req)
	if err != nil {
		return render.Artifact{}, err
	}
	sums := make(map[float64][2]float64)
	for _, pt := range xys {
		acc := sums[pt.X]
		sums[pt.X] = [2]float64{acc[0] + pt.Y, acc[1] + 1}
	}
	means := make(plotter.XYs, 0, len(sums))
	for x, acc := range sums {
		means = append(means, plotter.XY{X: x, Y: acc[0] / acc[1]})
	}
	sort.Slice(means, func(i, j int) bool { return means[i].X < means[j].X })

	title := fmt.Sprintf("Line Plot of %s vs %s", req.Feature1, req.Feature2)
	p, err := render.Line(title, req.Feature1, req.Feature2, means)
	if err != nil {
		return render.Artifact{}, err
	}
	return l.Renderer.Save(title, p)
}

// Box draws the distribution of numeric Feature2 for each value of
// Feature1.
type Box struct {
	Renderer *render.Renderer
}

// Execute draws one box of Feature2 per Feature1 category.
func (b *Box) Execute(req Request) (render.Artifact, error) {
	names, groups, err := groupValues("bivariate.Box", req)
	if err != nil {
		return render.Artifact{}, err
	}
	title := fmt.Sprintf("Box Plot of %s by %s", req.Feature2, req.Feature1)
	p, err := render.BoxPlots(title, req.Feature1, req.Feature2, names, groups)
	if err != nil {
		return render.Artifact{}, err
	}
	return b.Renderer.Save(title, p)
}

// Bar draws the mean of numeric Feature2 for each value of Feature1.
type Bar struct {
	Renderer *render.Renderer
}

// Execute draws one bar of Feature2 per Feature1 category.
func (b *Bar) Execute(req Request) (render.Artifact, error) {
	names, groups, err := groupValues("bivariate.Bar", req)
	if err != nil {
		return render.Artifact{}, err
	}
	means := make(plotter.Values, len(groups))
	for i, g := range groups {
		means[i] = dataset.Mean(g)
	}
	title := fmt.Sprintf("Bar Plot of %s by %s", req.Feature2, req.Feature1)
	p, err := render.BarChart(title, req.Feature1, req.Feature2, names, means)
	if err != nil {
		return render.Artifact{}, err
	}
	return b.Renderer.Save(title, p)
}

// Histogram2D draws the joint counts of two numeric features on a
// Bins x Bins grid. Bins defaults to DefaultBins.
type Histogram2D struct {
	Renderer *render.Renderer
	Bins     int
}

// Execute bins Feature1 and Feature2 into a heatmap.
func (h *Histogram2D) Execute(req Request) (render.Artifact, error) {
	xys, err := numericPairs("bivariate.Histogram2D", req)
	if err != nil {
		return render.Artifact{}, err
	}
	bins := h.Bins
	if bins == 0 {
		bins = DefaultBins
	}
	title := fmt.Sprintf("Hist 2d Plot of %s vs %s", req.Feature1, req.Feature2)
	p, err := render.Histogram2D(title, req.Feature1, req.Feature2, xys, bins)
	if err != nil {
		return render.Artifact{}, err
	}
	return h.Renderer.Save(title, p)
}

// numericPairs returns the rows where both features are present.
func numericPairs(op string, req Request) (plotter.XYs, error) {
	if err := req.Frame.Require(op, req.Feature1, req.Feature2); err != nil {
		return nil, err
	}
	x, err := req.Frame.NumericColumn(op, req.Feature1)
	if err != nil {
		return nil, err
	}
	y, err := req.Frame.NumericColumn(op, req.Feature2)
	if err != nil {
		return nil, err
	}
	var xys plotter.XYs
	for i := 0; i < x.Len(); i++ {
		if x.IsNull(i) || y.IsNull(i) {
			continue
		}
		xys = append(xys, plotter.XY{X: x.Float(i), Y: y.Float(i)})
	}
	return xys, nil
}

// groupValues splits numeric Feature2 by the values of Feature1. Groups are
// in order of first appearance.
func groupValues(op string, req Request) ([]string, [][]float64, error) {
	if err := req.Frame.Require(op, req.Feature1, req.Feature2); err != nil {
		return nil, nil, err
	}
	key, err := req.Frame.Column(req.Feature1)
	if err != nil {
		return nil, nil, err
	}
	y, err := req.Frame.NumericColumn(op, req.Feature2)
	if err != nil {
		return nil, nil, err
	}
	index := make(map[string]int)
	var names []string
	var groups [][]float64
	for i := 0; i < key.Len(); i++ {
		k, ok := key.Key(i)
		if !ok || y.IsNull(i) {
			continue
		}
		g, seen := index[k]
		if !seen {
			g = len(names)
			index[k] = g
			names = append(names, k)
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], y.Float(i))
	}
	return names, groups, nil
}
