// Package missing fills missing values in numeric and categorical columns.
package missing

import (
	"gonum.org/v1/gonum/interp"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Factory dispatches to one imputation variant.
type Factory = strategy.Factory[*dataset.Frame, *dataset.Frame]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, *dataset.Frame]) *Factory {
	return strategy.NewFactory(s)
}

// NumericImputer interpolates missing numeric values along row order with an
// Akima spline through the observed (row, value) points. Rows before the
// first or after the last observation take the nearest observed value. A
// column with a single observation is filled with it; an empty column is
// left as is.
type NumericImputer struct{}

// Execute fills every numeric column of a copy of df.
func (NumericImputer) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	logger := log.GetLoggerWithName("missing").With(log.OperationKey, log.OperationImpute)
	out := df.Copy()
	total := 0
	for _, s := range df.SelectKinds(dataset.Numeric).Series() {
		nulls := s.NullCount()
		if nulls == 0 || nulls == s.Len() {
			continue
		}
		filled, err := interpolate(s)
		if err != nil {
			return nil, err
		}
		if err := out.Set(filled); err != nil {
			return nil, err
		}
		total += nulls
		logger.Info("numeric column interpolated", log.ColumnKey, s.Name(), log.FilledKey, nulls)
	}
	if total == 0 {
		logger.Info("no missing numeric values")
	}
	return out, nil
}

func interpolate(s *dataset.Series) (*dataset.Series, error) {
	var xs, ys []float64
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			xs = append(xs, float64(i))
			ys = append(ys, s.Float(i))
		}
	}
	values := s.Floats()
	if len(xs) == 1 {
		for i := range values {
			values[i] = ys[0]
		}
		return dataset.NewNumeric(s.Name(), values), nil
	}

	var spline interp.AkimaSpline
	if err := spline.Fit(xs, ys); err != nil {
		return nil, errors.Wrapf(err, "interpolating %q", s.Name())
	}
	for i := range values {
		if !s.IsNull(i) {
			continue
		}
		x := float64(i)
		switch {
		case x < xs[0]:
			values[i] = ys[0]
		case x > xs[len(xs)-1]:
			values[i] = ys[len(ys)-1]
		default:
			values[i] = spline.Predict(x)
		}
	}
	return dataset.NewNumeric(s.Name(), values), nil
}

// CategoricalImputer fills missing categorical values with the column mode.
// Ties resolve to the lexically smallest value. Columns with no observed
// value have no mode and are left as is.
type CategoricalImputer struct{}

// Execute fills every categorical column of a copy of df.
func (CategoricalImputer) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	logger := log.GetLoggerWithName("missing").With(log.OperationKey, log.OperationImpute)
	out := df.Copy()
	total := 0
	for _, s := range df.SelectKinds(dataset.Categorical).Series() {
		nulls := s.NullCount()
		if nulls == 0 {
			continue
		}
		mode, ok := s.Mode()
		if !ok {
			logger.Warn("column has no mode, left unfilled", log.ColumnKey, s.Name())
			continue
		}
		values := s.Strings()
		for i := range values {
			if s.IsNull(i) {
				values[i] = mode
			}
		}
		if err := out.Set(dataset.NewCategorical(s.Name(), values)); err != nil {
			return nil, err
		}
		total += nulls
		logger.Info("categorical column filled with mode", log.ColumnKey, s.Name(), "mode", mode, log.FilledKey, nulls)
	}
	if total == 0 {
		logger.Info("no missing categorical values")
	}
	return out, nil
}
