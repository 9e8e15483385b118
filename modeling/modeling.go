// Package modeling trains, persists and applies the random forest that
// predicts test results, and scores its predictions.
package modeling

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/preprocessing"
	"github.com/YuminosukeSato/medlens/sklearn/ensemble"
)

// DefaultPath is where a trained model is written when no path is given.
const DefaultPath = "model.gob"

// TrainingSet is the model input: X holds the features and Y the single
// encoded target column.
type TrainingSet struct {
	X *dataset.Frame
	Y *dataset.Frame
}

// Model is the persisted form of a trained classifier. Features are the
// input columns in training order.
type Model struct {
	Features      []string
	Target        string
	Forest        *ensemble.RandomForestClassifier
	Preprocessing *Preprocessing
}

// Preprocessing carries the fitted encoders a model was trained behind, so
// raw records can be brought into the model's feature space.
type Preprocessing struct {
	Ordinal *preprocessing.OrdinalEncode
	Scale   *preprocessing.StandardScale
	Labels  *preprocessing.LabelEncoder
}

// Apply encodes and scales df with the fitted encoders. Nil steps are
// skipped.
func (p *Preprocessing) Apply(df *dataset.Frame) (*dataset.Frame, error) {
	if p == nil {
		return df, nil
	}
	var err error
	if p.Ordinal != nil {
		if df, err = p.Ordinal.Execute(df); err != nil {
			return nil, err
		}
	}
	if p.Scale != nil {
		if df, err = p.Scale.Execute(df); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// Prepare applies the model's preprocessing to raw records and keeps the
// trained features in training order.
func (m *Model) Prepare(df *dataset.Frame) (*dataset.Frame, error) {
	encoded, err := m.Preprocessing.Apply(df)
	if err != nil {
		return nil, err
	}
	return encoded.Select(m.Features...)
}

// ClassNames maps predicted codes back to target labels. Without a label
// encoder the codes are formatted as numbers.
func (m *Model) ClassNames(codes mat.Vector) ([]string, error) {
	if m.Preprocessing != nil && m.Preprocessing.Labels != nil {
		return m.Preprocessing.Labels.InverseTransform(codes)
	}
	out := make([]string, codes.Len())
	series := dataset.NewNumeric("", mat.Col(nil, 0, codes))
	for i := range out {
		out[i] = series.Format(i)
	}
	return out, nil
}

// Trainer fits and persists a model.
type Trainer = strategy.Factory[TrainingSet, *Model]

// NewTrainer returns a factory holding s.
func NewTrainer(s strategy.Strategy[TrainingSet, *Model]) *Trainer {
	return strategy.NewFactory(s)
}

// PredictionFactory applies a model to a feature frame.
type PredictionFactory = strategy.Factory[*dataset.Frame, *mat.VecDense]

// NewPredictionFactory returns a factory holding s.
func NewPredictionFactory(s strategy.Strategy[*dataset.Frame, *mat.VecDense]) *PredictionFactory {
	return strategy.NewFactory(s)
}

// Evaluator scores predictions against the truth.
type Evaluator = strategy.Factory[Evaluation, Scores]

// NewEvaluator returns a factory holding s.
func NewEvaluator(s strategy.Strategy[Evaluation, Scores]) *Evaluator {
	return strategy.NewFactory(s)
}
