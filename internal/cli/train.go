package cli

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/medlens/config"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/modeling"
	"github.com/YuminosukeSato/medlens/pkg/log"
	"github.com/YuminosukeSato/medlens/preprocessing"
)

var noFigure bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the test-result classifier and evaluate it on a held-out split",
	Long: `Train the test-result classifier.

The dataset is cleaned and prepared, categorical columns are ordinal encoded,
features are selected by their chi-squared score against the target, and the
rows are split into train and test sets. The selected scale columns are then
standardized on the training rows, a random forest is fitted and saved to
model.path, and the held-out rows are scored.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().BoolVar(&noFigure, "no-figure", false, "skip the confusion matrix heatmap")
	rootCmd.AddCommand(trainCmd)
}

// trainReport is what train prints.
type trainReport struct {
	ModelPath string             `json:"model_path" yaml:"model_path"`
	Features  []string           `json:"features" yaml:"features"`
	Scores    map[string]float64 `json:"chi2_scores" yaml:"chi2_scores"`
	Train     int                `json:"train_rows" yaml:"train_rows"`
	Test      int                `json:"test_rows" yaml:"test_rows"`
	Result    modeling.Scores    `json:"evaluation" yaml:"evaluation"`
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	df, err := loadPrepared(cfg)
	if err != nil {
		return err
	}
	report, err := train(cfg, df, !noFigure)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), report, func(w io.Writer) error {
		return writeTrainReport(w, report)
	})
}

// train runs encoding, selection, splitting, scaling, fitting and
// evaluation over a prepared frame.
func train(cfg *config.Config, df *dataset.Frame, figure bool) (*trainReport, error) {
	logger := log.GetLoggerWithName("train")
	feats := cfg.Features

	ordinal := &preprocessing.OrdinalEncode{Columns: feats.OrdinalColumns}
	labels := &preprocessing.LabelEncode{Column: feats.Target}
	encoding := preprocessing.NewFrameFactory(ordinal)
	encoded, err := encoding.Execute(df)
	if err != nil {
		return nil, err
	}
	encoding.SetStrategy(labels)
	if encoded, err = encoding.Execute(encoded); err != nil {
		return nil, err
	}

	// Chi2 needs non-negative input; score on a shifted copy and keep the
	// original values.
	shifted, err := shiftNonNegative(encoded, feats.Target)
	if err != nil {
		return nil, err
	}
	selector := &preprocessing.ChiSquareSelect{Target: feats.Target, Threshold: feats.SelectionThreshold}
	encoding.SetStrategy(selector)
	if _, err := encoding.Execute(shifted); err != nil {
		return nil, err
	}
	selected, err := encoded.Select(append(slices.Clone(selector.Selected), feats.Target)...)
	if err != nil {
		return nil, err
	}

	split, err := preprocessing.NewSplitFactory(&preprocessing.TrainTestSplit{
		Target:   feats.Target,
		TestSize: cfg.Split.TestSize,
		Seed:     cfg.Split.Seed,
	}).Execute(selected)
	if err != nil {
		return nil, err
	}

	prep := &modeling.Preprocessing{Ordinal: ordinal, Labels: labels.Encoder}
	var scaleColumns []string
	for _, c := range feats.ScaleColumns {
		if slices.Contains(selector.Selected, c) {
			scaleColumns = append(scaleColumns, c)
		}
	}
	xTrain, xTest := split.XTrain, split.XTest
	if len(scaleColumns) > 0 {
		prep.Scale = &preprocessing.StandardScale{Columns: scaleColumns}
		scaling := preprocessing.NewFrameFactory(prep.Scale)
		if xTrain, err = scaling.Execute(xTrain); err != nil {
			return nil, err
		}
		if xTest, err = scaling.Execute(xTest); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no scale column was selected; features left unscaled", log.ColumnsKey, feats.ScaleColumns)
	}

	m, err := modeling.NewTrainer(&modeling.RandomForest{
		Path:          cfg.Model.Path,
		Options:       cfg.Model.ForestOptions(),
		Preprocessing: prep,
	}).Execute(modeling.TrainingSet{X: xTrain, Y: split.YTrain})
	if err != nil {
		return nil, err
	}

	yPred, err := modeling.NewPredictionFactory(&modeling.Predictor{Model: m}).Execute(xTest)
	if err != nil {
		return nil, err
	}
	yTrue, err := split.YTest.Vector(feats.Target)
	if err != nil {
		return nil, err
	}
	ev := modeling.Evaluation{YTrue: yTrue, YPred: yPred, ClassNames: labels.Encoder.Classes}

	evaluator := modeling.NewEvaluator(modeling.AccuracyEvaluator{})
	weighted, err := evaluator.Execute(ev)
	if err != nil {
		return nil, err
	}
	confusion := &modeling.ConfusionMatrixEvaluator{}
	if figure {
		confusion.Renderer = cfg.Output.Renderer()
	}
	evaluator.SetStrategy(confusion)
	result, err := evaluator.Execute(ev)
	if err != nil {
		return nil, err
	}
	result.Precision, result.Recall, result.F1 = weighted.Precision, weighted.Recall, weighted.F1

	scores := make(map[string]float64, len(selector.Scores))
	for name, v := range selector.Scores {
		if !math.IsNaN(v) {
			scores[name] = v
		}
	}
	return &trainReport{
		ModelPath: cfg.Model.Path,
		Features:  m.Features,
		Scores:    scores,
		Train:     xTrain.NRows(),
		Test:      xTest.NRows(),
		Result:    result,
	}, nil
}

// shiftNonNegative returns a copy of df in which every numeric column
// except target with a negative minimum is shifted so its minimum is zero.
func shiftNonNegative(df *dataset.Frame, target string) (*dataset.Frame, error) {
	out := df.Copy()
	for _, s := range df.SelectKinds(dataset.Numeric).Series() {
		if s.Name() == target || len(s.Valid()) == 0 {
			continue
		}
		lo := floats.Min(s.Valid())
		if lo >= 0 {
			continue
		}
		if err := out.Set(s.MapFloats(func(v float64) float64 { return v - lo })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeTrainReport(w io.Writer, r *trainReport) error {
	res := r.Result
	lines := []string{
		fmt.Sprintf("model saved to %s", r.ModelPath),
		fmt.Sprintf("features: %v", r.Features),
		fmt.Sprintf("rows: %d train, %d test", r.Train, r.Test),
		fmt.Sprintf("accuracy:  %.4f", res.Accuracy),
		fmt.Sprintf("precision: %.4f (weighted)", res.Precision),
		fmt.Sprintf("recall:    %.4f (weighted)", res.Recall),
		fmt.Sprintf("f1:        %.4f (weighted)", res.F1),
	}
	if res.Artifact != nil {
		lines = append(lines, fmt.Sprintf("confusion matrix: %s", res.Artifact.Path))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
