package modeling

import (
	"time"

	"github.com/YuminosukeSato/medlens/core/model"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
	"github.com/YuminosukeSato/medlens/sklearn/ensemble"
)

// RandomForest fits a random forest on a TrainingSet and writes the model
// to Path (DefaultPath when empty). Preprocessing, when set, is stored with
// the model.
type RandomForest struct {
	Path          string
	Options       []ensemble.Option
	Preprocessing *Preprocessing
}

// Execute fits the forest on set, saves it and returns the model.
func (r *RandomForest) Execute(set TrainingSet) (*Model, error) {
	if set.X == nil || set.Y == nil {
		return nil, errors.NewValueError("RandomForest", "training set needs both X and Y")
	}
	if set.Y.NCols() != 1 {
		return nil, errors.NewDimensionError("RandomForest", 1, set.Y.NCols(), 1)
	}
	if set.X.NRows() != set.Y.NRows() {
		return nil, errors.NewDimensionError("RandomForest", set.X.NRows(), set.Y.NRows(), 0)
	}
	target := set.Y.Columns()[0]
	features := set.X.Columns()

	X, err := set.X.Matrix()
	if err != nil {
		return nil, err
	}
	y, err := set.Y.Matrix()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	forest := ensemble.NewRandomForestClassifier(r.Options...)
	if err := forest.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "fit random forest")
	}
	m := &Model{
		Features:      features,
		Target:        target,
		Forest:        forest,
		Preprocessing: r.Preprocessing,
	}

	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	if err := model.SaveModel(m, path); err != nil {
		return nil, errors.Wrapf(err, "save model to %s", path)
	}
	log.GetLoggerWithName("modeling").Info("model trained",
		log.ModelNameKey, "RandomForestClassifier",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, set.X.NRows(),
		log.FeaturesKey, len(features),
		log.ColumnsKey, features,
		log.PathKey, path,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}
