package modeling

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/core/model"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Load reads a model written by RandomForest. A missing or undecodable
// file is reported as a ModelLoadError.
func Load(path string) (*Model, error) {
	if path == "" {
		path = DefaultPath
	}
	var m Model
	if err := model.LoadModel(&m, path); err != nil {
		return nil, err
	}
	if m.Forest == nil || !m.Forest.IsFitted() {
		return nil, errors.NewModelLoadError(path, errors.New("file holds no fitted forest"))
	}
	return &m, nil
}

// Predictor predicts class codes for a feature frame with the model at
// Path. The frame's columns must equal the trained features in order. The
// loaded model is kept in Model; set Model directly to skip loading.
type Predictor struct {
	Path  string
	Model *Model
}

// Execute returns one class code per row. Rows holding NaN or Inf are rejected.
func (p *Predictor) Execute(df *dataset.Frame) (*mat.VecDense, error) {
	if p.Model == nil {
		m, err := Load(p.Path)
		if err != nil {
			return nil, err
		}
		p.Model = m
	}
	m := p.Model
	if !slices.Equal(df.Columns(), m.Features) {
		return nil, errors.NewIncompatibleFeatureSetError(m.Features, df.Columns())
	}
	if df.NRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Predictor")
	}
	X, err := df.Matrix()
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("Predictor", X.RawMatrix().Data); err != nil {
		return nil, err
	}
	pred, err := m.Forest.Predict(X)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("modeling").Info("predicted",
		log.OperationKey, log.OperationPredict, log.SamplesKey, df.NRows())
	return mat.NewVecDense(df.NRows(), mat.Col(nil, 0, pred)), nil
}
