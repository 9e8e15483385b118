package cli

import (
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/analysis/preparation"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/modeling"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

var (
	predictIn    string
	predictSheet string
	predictModel string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict test results for new patient records with a trained model",
	Example: `
  medlens predict --in patients.csv
  medlens predict --in patients.xlsx --model models/forest.gob --output json`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictIn, "in", "", "records to predict (.csv or .xlsx)")
	predictCmd.Flags().StringVar(&predictSheet, "sheet", "", "sheet name for .xlsx input")
	predictCmd.Flags().StringVar(&predictModel, "model", "", "model file (defaults to model.path)")
	rootCmd.AddCommand(predictCmd)
}

type prediction struct {
	Row   int     `json:"row" yaml:"row"`
	Code  float64 `json:"code" yaml:"code"`
	Label string  `json:"label" yaml:"label"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictIn == "" {
		return errors.NewValidationError("in", "an input file is required", predictIn)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := predictModel
	if path == "" {
		path = cfg.Model.Path
	}
	m, err := modeling.Load(path)
	if err != nil {
		return err
	}
	df, err := dataset.Load(predictIn, predictSheet)
	if err != nil {
		return err
	}
	preds, err := predict(m, df)
	if err != nil {
		return err
	}
	log.GetLoggerWithName("cli").Info("records predicted", log.PathKey, predictIn, log.SamplesKey, len(preds))

	return printResult(cmd.OutOrStdout(), preds, func(w io.Writer) error {
		rows := make([]float64, len(preds))
		codes := make([]float64, len(preds))
		labels := make([]string, len(preds))
		for i, p := range preds {
			rows[i], codes[i], labels[i] = float64(p.Row), p.Code, p.Label
		}
		table := dataset.MustNew(
			dataset.NewNumeric("row", rows),
			dataset.NewNumeric("code", codes),
			dataset.NewCategorical(m.Target, labels),
		)
		return table.WriteTable(w)
	})
}

// predict cleans raw records, derives the prepared columns when the inputs
// for them are present, and applies the model.
func predict(m *modeling.Model, df *dataset.Frame) ([]prediction, error) {
	df, err := clean(df)
	if err != nil {
		return nil, err
	}
	if df.Require("predict", preparation.Required...) == nil {
		if df, err = preparation.NewFactory(preparation.Preparation{}).Execute(df); err != nil {
			return nil, err
		}
	}
	X, err := m.Prepare(df)
	if err != nil {
		return nil, err
	}
	codes, err := modeling.NewPredictionFactory(&modeling.Predictor{Model: m}).Execute(X)
	if err != nil {
		return nil, err
	}
	names, err := m.ClassNames(codes)
	if err != nil {
		return nil, err
	}
	out := make([]prediction, codes.Len())
	raw := mat.Col(nil, 0, codes)
	for i := range out {
		out[i] = prediction{Row: i, Code: raw[i], Label: names[i]}
	}
	return out, nil
}
