package modeling

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/preprocessing"
	"github.com/YuminosukeSato/medlens/render"
	"github.com/YuminosukeSato/medlens/sklearn/ensemble"
)

func trainingSet() TrainingSet {
	n := 24
	age := make([]float64, n)
	billing := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		class := i % 3
		age[i] = float64(20 + class*20 + i%4)
		billing[i] = float64(1000*(class+1) + i)
		target[i] = float64(class)
	}
	return TrainingSet{
		X: dataset.MustNew(dataset.NewNumeric("Age", age), dataset.NewNumeric("Billing Amount", billing)),
		Y: dataset.MustNew(dataset.NewNumeric("Test Results", target)),
	}
}

func forestOptions() []ensemble.Option {
	return []ensemble.Option{ensemble.WithNEstimators(10), ensemble.WithRandomState(42)}
}

func TestRandomForestTrainsAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "forest.gob")
	m, err := NewTrainer(&RandomForest{Path: path, Options: forestOptions()}).Execute(trainingSet())
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Billing Amount"}, m.Features)
	assert.Equal(t, "Test Results", m.Target)
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Features, loaded.Features)

	set := trainingSet()
	pred, err := NewPredictionFactory(&Predictor{Path: path}).Execute(set.X)
	require.NoError(t, err)
	truth, _ := set.Y.Vector("Test Results")
	acc := 0
	for i := 0; i < pred.Len(); i++ {
		if pred.AtVec(i) == truth.AtVec(i) {
			acc++
		}
	}
	assert.Equal(t, pred.Len(), acc)
}

func TestRandomForestRejectsBadTrainingSet(t *testing.T) {
	set := trainingSet()
	set.Y = dataset.MustNew(dataset.NewNumeric("a", []float64{1}), dataset.NewNumeric("b", []float64{1}))
	_, err := (&RandomForest{Path: filepath.Join(t.TempDir(), "m.gob")}).Execute(set)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = (&RandomForest{}).Execute(TrainingSet{})
	assert.Error(t, err)
}

func TestPredictorMissingModel(t *testing.T) {
	_, err := (&Predictor{Path: filepath.Join(t.TempDir(), "absent.gob")}).Execute(trainingSet().X)
	var loadErr *errors.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "absent.gob")
}

func TestPredictorCorruptModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))
	_, err := (&Predictor{Path: path}).Execute(trainingSet().X)
	var loadErr *errors.ModelLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestPredictorIncompatibleFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	_, err := (&RandomForest{Path: path, Options: forestOptions()}).Execute(trainingSet())
	require.NoError(t, err)

	x := trainingSet().X
	reordered, err := x.Select("Billing Amount", "Age")
	require.NoError(t, err)
	_, err = (&Predictor{Path: path}).Execute(reordered)
	var featErr *errors.IncompatibleFeatureSetError
	require.True(t, errors.As(err, &featErr))
	assert.Equal(t, []string{"Age", "Billing Amount"}, featErr.Expected)
	assert.Equal(t, []string{"Billing Amount", "Age"}, featErr.Got)

	missing, err := x.Select("Age")
	require.NoError(t, err)
	_, err = (&Predictor{Path: path}).Execute(missing)
	assert.True(t, errors.As(err, &featErr))
}

func TestPredictorRejectsNonFiniteFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	m, err := NewTrainer(&RandomForest{Path: path, Options: forestOptions()}).Execute(trainingSet())
	require.NoError(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		x := dataset.MustNew(
			dataset.NewNumeric("Age", []float64{25, v}),
			dataset.NewNumeric("Billing Amount", []float64{1000, 2000}),
		)
		_, err := NewPredictionFactory(&Predictor{Model: m}).Execute(x)
		var valErr *errors.ValueError
		require.True(t, errors.As(err, &valErr), "value %v", v)
		assert.Equal(t, "Predictor", valErr.Op)
	}
}

func TestModelPrepareAppliesPreprocessing(t *testing.T) {
	raw := dataset.MustNew(
		dataset.NewCategorical("Gender", []string{"Male", "Female", "Female", "Male"}),
		dataset.NewNumeric("Age", []float64{30, 40, 50, 60}),
		dataset.NewCategorical("Name", []string{"a", "b", "c", "d"}),
	)
	pre := &Preprocessing{
		Ordinal: &preprocessing.OrdinalEncode{Columns: []string{"Gender"}},
		Scale:   &preprocessing.StandardScale{Columns: []string{"Age"}},
	}
	_, err := pre.Apply(raw)
	require.NoError(t, err)

	m := &Model{Features: []string{"Age", "Gender"}, Preprocessing: pre}
	out, err := m.Prepare(raw.Head(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Gender"}, out.Columns())
	gender, _ := out.Column("Gender")
	assert.Equal(t, []float64{1, 0}, gender.Floats())
}

func TestModelClassNames(t *testing.T) {
	labels := preprocessing.NewLabelEncoder()
	require.NoError(t, labels.Fit([]string{"Normal", "Abnormal", "Inconclusive"}))
	m := &Model{Preprocessing: &Preprocessing{Labels: labels}}
	names, err := m.ClassNames(mat.NewVecDense(2, []float64{2, 0}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Normal", "Abnormal"}, names)

	names, err = (&Model{}).ClassNames(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, names)
}

func TestConfusionMatrixEvaluator(t *testing.T) {
	r := render.New(t.TempDir(), "png", 4, 4)
	ev := Evaluation{
		YTrue:      mat.NewVecDense(5, []float64{0, 0, 1, 2, 2}),
		YPred:      mat.NewVecDense(5, []float64{0, 1, 1, 2, 0}),
		ClassNames: []string{"Abnormal", "Inconclusive", "Normal"},
	}
	scores, err := NewEvaluator(&ConfusionMatrixEvaluator{Renderer: r}).Execute(ev)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, scores.Accuracy, 1e-12)
	assert.Equal(t, []string{"Abnormal", "Inconclusive", "Normal"}, scores.Labels)
	assert.Equal(t, [][]float64{{1, 1, 0}, {0, 1, 0}, {1, 0, 1}}, scores.Confusion)
	require.NotNil(t, scores.Artifact)
	assert.Equal(t, "Confusion Matrix", scores.Artifact.Title)
	assert.FileExists(t, scores.Artifact.Path)
}

func TestAccuracyEvaluator(t *testing.T) {
	ev := Evaluation{
		YTrue: mat.NewVecDense(4, []float64{0, 0, 1, 1}),
		YPred: mat.NewVecDense(4, []float64{0, 0, 1, 1}),
	}
	scores, err := NewEvaluator(AccuracyEvaluator{}).Execute(ev)
	require.NoError(t, err)
	assert.Equal(t, Scores{Accuracy: 1, Precision: 1, Recall: 1, F1: 1}, scores)

	_, err = AccuracyEvaluator{}.Execute(Evaluation{YTrue: mat.NewVecDense(1, []float64{0}), YPred: mat.NewVecDense(2, []float64{0, 1})})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
