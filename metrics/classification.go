// Package metrics provides classification metrics over label vectors.
package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// Averaging modes for PrecisionRecallFScore.
const (
	AverageWeighted = "weighted"
	AverageMacro    = "macro"
)

// checkPair は入力ベクトルの長さを検証し、サンプル数を返す
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は混同行列を返す。行が正解、列が予測で、
// 順序はyTrueとyPredに現れるラベルの昇順
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*mat.Dense, []float64, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}
	labels := unionLabels(yTrue, yPred)
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, c := index[yTrue.AtVec(i)], index[yPred.AtVec(i)]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// ClassScores holds per-class precision, recall, F1 and support.
type ClassScores struct {
	Label     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PrecisionRecallFScore は適合率・再現率・F1を計算し、averageで平均する
// 分母が0になる指標は0とし、UndefinedMetricWarningを発行する
func PrecisionRecallFScore(yTrue, yPred *mat.VecDense, average string) (precision, recall, f1 float64, err error) {
	perClass, err := PerClassScores(yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}

	var totalSupport int
	for _, c := range perClass {
		totalSupport += c.Support
	}
	for _, c := range perClass {
		var w float64
		switch average {
		case AverageWeighted:
			w = errors.SafeDivide(float64(c.Support), float64(totalSupport))
		case AverageMacro:
			w = 1 / float64(len(perClass))
		default:
			return 0, 0, 0, errors.NewValidationError("average", "must be weighted or macro", average)
		}
		precision += w * c.Precision
		recall += w * c.Recall
		f1 += w * c.F1
	}
	return precision, recall, f1, nil
}

// PerClassScores returns precision, recall and F1 for every label of the
// confusion matrix.
func PerClassScores(yTrue, yPred *mat.VecDense) ([]ClassScores, error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	k := len(labels)
	out := make([]ClassScores, k)
	for i, label := range labels {
		var tp, predicted, actual float64
		tp = cm.At(i, i)
		for j := 0; j < k; j++ {
			predicted += cm.At(j, i)
			actual += cm.At(i, j)
		}
		s := ClassScores{Label: label, Support: int(actual)}
		s.Precision = ratio("precision", label, tp, predicted, "no predicted samples")
		s.Recall = ratio("recall", label, tp, actual, "no true samples")
		s.F1 = ratio("f1-score", label, 2*s.Precision*s.Recall, s.Precision+s.Recall, "precision and recall are zero")
		out[i] = s
	}
	return out, nil
}

func ratio(metric string, label, num, den float64, condition string) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, fmt.Sprintf("label %v: %s", label, condition), 0))
		return 0
	}
	return num / den
}

func unionLabels(vs ...*mat.VecDense) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			x := v.AtVec(i)
			if _, ok := seen[x]; !ok {
				seen[x] = struct{}{}
				out = append(out, x)
			}
		}
	}
	sort.Float64s(out)
	return out
}
