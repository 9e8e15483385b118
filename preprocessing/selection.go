package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// DefaultChiSquareThreshold is the minimum score a feature needs to be kept.
const DefaultChiSquareThreshold = 0.3

// Chi2 scores each column of X against the class labels y with the
// chi-squared statistic between observed and expected per-class feature
// sums. X must be non-negative. Features with zero expected sums score NaN.
func Chi2(X mat.Matrix, y []float64) ([]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("Chi2", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("Chi2", r, len(y), 0)
	}
	if mat.Min(X) < 0 {
		return nil, errors.NewValueError("Chi2", "input X must be non-negative")
	}

	classes := make(map[float64]int)
	var order []float64
	for _, v := range y {
		if _, ok := classes[v]; !ok {
			classes[v] = 0
			order = append(order, v)
		}
	}
	sort.Float64s(order)
	for i, v := range order {
		classes[v] = i
	}
	k := len(order)

	// observed[k][j] is the sum of feature j over rows of class k.
	observed := mat.NewDense(k, c, nil)
	classCount := make([]float64, k)
	featureSum := make([]float64, c)
	for i := 0; i < r; i++ {
		ci := classes[y[i]]
		classCount[ci]++
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			observed.Set(ci, j, observed.At(ci, j)+v)
			featureSum[j] += v
		}
	}

	scores := make([]float64, c)
	for j := 0; j < c; j++ {
		var chi2 float64
		for ci := 0; ci < k; ci++ {
			expected := classCount[ci] / float64(r) * featureSum[j]
			diff := observed.At(ci, j) - expected
			chi2 += diff * diff / expected
		}
		scores[j] = chi2
	}
	return scores, nil
}

// ChiSquareSelect keeps the numeric features whose chi-squared score
// against Target exceeds Threshold, followed by Target. Non-numeric columns
// are dropped. The scores of the last call are kept in Scores.
type ChiSquareSelect struct {
	Target    string
	Threshold float64

	Scores   map[string]float64
	Selected []string
}

// NewChiSquareSelect returns a selector with the default target and threshold.
func NewChiSquareSelect() *ChiSquareSelect {
	return &ChiSquareSelect{Target: DefaultTarget, Threshold: DefaultChiSquareThreshold}
}

// Execute scores every numeric feature and returns the selected columns.
func (c *ChiSquareSelect) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	target := c.Target
	if target == "" {
		target = DefaultTarget
	}
	labels, err := df.NumericColumn("ChiSquareSelect", target)
	if err != nil {
		return nil, err
	}
	var features []string
	for _, name := range df.SelectKinds(dataset.Numeric).Columns() {
		if name != target {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, errors.NewValueError("ChiSquareSelect", "no numeric features besides the target")
	}
	X, err := df.Matrix(features...)
	if err != nil {
		return nil, err
	}
	scores, err := Chi2(X, labels.Floats())
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("preprocessing").With(log.OperationKey, log.OperationSelect)
	c.Scores = make(map[string]float64, len(features))
	c.Selected = nil
	for j, name := range features {
		c.Scores[name] = scores[j]
		logger.Debug("feature scored", log.ColumnKey, name, log.ScoreKey, scores[j])
		if scores[j] > c.Threshold {
			c.Selected = append(c.Selected, name)
		}
	}
	if len(c.Selected) == 0 {
		return nil, errors.NewValueError("ChiSquareSelect",
			fmt.Sprintf("no feature scored above %v", c.Threshold))
	}
	logger.Info("features selected", log.ColumnsKey, c.Selected, log.FeaturesKey, len(c.Selected))
	return df.Select(append(append([]string(nil), c.Selected...), target)...)
}
