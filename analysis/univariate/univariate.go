// Package univariate plots the distribution of each column on its own.
package univariate

import (
	"fmt"

	"gonum.org/v1/plot"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/render"
)

// Factory dispatches to one univariate variant.
type Factory = strategy.Factory[*dataset.Frame, render.Artifact]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, render.Artifact]) *Factory {
	return strategy.NewFactory(s)
}

// Numerical draws a histogram with a density curve and a box plot for every
// numeric column. Panels fill a grid with one column per feature, row by row.
type Numerical struct {
	Renderer *render.Renderer
}

// Execute draws two panels per numeric column.
func (n *Numerical) Execute(df *dataset.Frame) (render.Artifact, error) {
	numeric := df.SelectKinds(dataset.Numeric)
	if numeric.NCols() == 0 {
		return render.Artifact{}, errors.NewValueError("univariate.Numerical", "frame has no numeric columns")
	}
	var panels []*plot.Plot
	for _, s := range numeric.Series() {
		values := s.Valid()
		if len(values) == 0 {
			continue
		}
		hist, err := render.Histogram(fmt.Sprintf("Distribution of %s", s.Name()), s.Name(), values)
		if err != nil {
			return render.Artifact{}, err
		}
		box, err := render.BoxPlots(fmt.Sprintf("Boxplot of %s", s.Name()), "", s.Name(), []string{s.Name()}, [][]float64{values})
		if err != nil {
			return render.Artifact{}, err
		}
		panels = append(panels, hist, box)
	}
	if len(panels) == 0 {
		return render.Artifact{}, errors.NewValueError("univariate.Numerical", "every numeric column is empty")
	}
	return n.Renderer.SaveGrid("Numerical Univariate Analysis", render.Tile(panels, numeric.NCols()))
}

// Categorical draws the category counts of every categorical column, two
// charts per row. At most MaxCategories bars are drawn per chart; the rest
// are folded into one "Other" bar. Zero means no limit.
type Categorical struct {
	Renderer      *render.Renderer
	MaxCategories int
}

// Execute draws one count chart per categorical column.
func (c *Categorical) Execute(df *dataset.Frame) (render.Artifact, error) {
	categorical := df.SelectKinds(dataset.Categorical)
	if categorical.NCols() == 0 {
		return render.Artifact{}, errors.NewValueError("univariate.Categorical", "frame has no categorical columns")
	}
	var panels []*plot.Plot
	for _, s := range categorical.Series() {
		if s.NullCount() == s.Len() {
			continue
		}
		p, err := render.CountChart(fmt.Sprintf("Countplot of %s", s.Name()), s, c.MaxCategories)
		if err != nil {
			return render.Artifact{}, err
		}
		panels = append(panels, p)
	}
	if len(panels) == 0 {
		return render.Artifact{}, errors.NewValueError("univariate.Categorical", "every categorical column is empty")
	}
	return c.Renderer.SaveGrid("Categorical Univariate Analysis", render.Tile(panels, 2))
}
