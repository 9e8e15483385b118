package preprocessing

import (
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// DefaultScaleColumns are standardized by StandardScale when Columns is empty.
var DefaultScaleColumns = []string{"Age", "Billing Amount", "Room Number"}

// StandardScale standardizes numeric Columns in place of the originals. A
// fitted Scaler is reused; otherwise one is fitted on df and kept.
type StandardScale struct {
	Columns []string
	Scaler  *StandardScaler
}

// Execute returns a copy of df with Columns standardized.
func (s *StandardScale) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	columns := s.Columns
	if len(columns) == 0 {
		columns = DefaultScaleColumns
	}
	if err := df.Require("StandardScale", columns...); err != nil {
		return nil, err
	}
	X, err := df.Matrix(columns...)
	if err != nil {
		return nil, err
	}
	if s.Scaler == nil {
		s.Scaler = NewStandardScalerDefault()
	}
	if !s.Scaler.IsFitted() {
		if err := s.Scaler.Fit(X); err != nil {
			return nil, err
		}
	}
	scaled, err := s.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	frame, err := dataset.FromMatrix(scaled, columns)
	if err != nil {
		return nil, err
	}
	out := df.Copy()
	for _, c := range frame.Series() {
		if err := out.Set(c); err != nil {
			return nil, err
		}
	}
	log.GetLoggerWithName("preprocessing").Info("columns standardized",
		log.OperationKey, log.OperationTransform, log.ColumnsKey, columns, log.SamplesKey, df.NRows())
	return out, nil
}
