package modeling

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/metrics"
	"github.com/YuminosukeSato/medlens/pkg/log"
	"github.com/YuminosukeSato/medlens/render"
)

// Evaluation pairs true and predicted class codes. ClassNames, indexed by
// code, label the confusion matrix when given.
type Evaluation struct {
	YTrue      *mat.VecDense
	YPred      *mat.VecDense
	ClassNames []string
}

// Scores is what an evaluator reports. Fields a variant does not compute
// are left zero.
type Scores struct {
	Accuracy  float64          `json:"accuracy" yaml:"accuracy"`
	Precision float64          `json:"precision,omitempty" yaml:"precision,omitempty"`
	Recall    float64          `json:"recall,omitempty" yaml:"recall,omitempty"`
	F1        float64          `json:"f1,omitempty" yaml:"f1,omitempty"`
	Labels    []string         `json:"labels,omitempty" yaml:"labels,omitempty"`
	Confusion [][]float64      `json:"confusion_matrix,omitempty" yaml:"confusion_matrix,omitempty"`
	Artifact  *render.Artifact `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// ConfusionMatrixEvaluator computes the confusion matrix and accuracy and,
// with a Renderer, draws the matrix as an annotated heatmap.
type ConfusionMatrixEvaluator struct {
	Renderer *render.Renderer
}

// Execute scores ev and draws the heatmap when Renderer is set.
func (c *ConfusionMatrixEvaluator) Execute(ev Evaluation) (Scores, error) {
	cm, codes, err := metrics.ConfusionMatrix(ev.YTrue, ev.YPred)
	if err != nil {
		return Scores{}, err
	}
	acc, err := metrics.Accuracy(ev.YTrue, ev.YPred)
	if err != nil {
		return Scores{}, err
	}
	labels := classLabels(codes, ev.ClassNames)
	rows, _ := cm.Dims()
	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = mat.Row(nil, i, cm)
	}
	scores := Scores{Accuracy: acc, Labels: labels, Confusion: matrix}

	log.GetLoggerWithName("modeling").Info("confusion matrix",
		log.OperationKey, log.OperationScore,
		log.AccuracyKey, acc,
		"labels", labels,
		"matrix", matrix,
	)

	if c.Renderer != nil {
		p, err := render.Heatmap("Confusion Matrix", "Predicted Labels", "Actual Labels", cm, labels, labels,
			render.HeatmapOptions{Annotate: true, Format: "%.0f"})
		if err != nil {
			return Scores{}, err
		}
		art, err := c.Renderer.Save("Confusion Matrix", p)
		if err != nil {
			return Scores{}, err
		}
		scores.Artifact = &art
	}
	return scores, nil
}

// AccuracyEvaluator reports accuracy with support-weighted precision,
// recall and F1.
type AccuracyEvaluator struct{}

// Execute scores ev with weighted averages over the classes.
func (AccuracyEvaluator) Execute(ev Evaluation) (Scores, error) {
	acc, err := metrics.Accuracy(ev.YTrue, ev.YPred)
	if err != nil {
		return Scores{}, err
	}
	precision, recall, f1, err := metrics.PrecisionRecallFScore(ev.YTrue, ev.YPred, metrics.AverageWeighted)
	if err != nil {
		return Scores{}, err
	}
	log.GetLoggerWithName("modeling").Info("classification scores",
		log.OperationKey, log.OperationScore,
		log.AccuracyKey, acc,
		log.PrecisionKey, precision,
		log.RecallKey, recall,
		log.F1ScoreKey, f1,
	)
	return Scores{Accuracy: acc, Precision: precision, Recall: recall, F1: f1}, nil
}

func classLabels(codes []float64, names []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		if k := int(c); float64(k) == c && k >= 0 && k < len(names) {
			out[i] = names[k]
		} else {
			out[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
	}
	return out
}
