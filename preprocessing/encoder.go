package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/core/model"
	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// OrdinalEncoder はscikit-learn互換の順序エンコーダー
// 各列のカテゴリを辞書順に並べ、0, 1, 2, ... の整数コードに変換する
type OrdinalEncoder struct {
	model.BaseEstimator

	// Categories は列ごとの辞書順カテゴリ
	Categories [][]string

	codes []map[string]int
}

// NewOrdinalEncoder は新しいOrdinalEncoderを作成する
func NewOrdinalEncoder() *OrdinalEncoder {
	return &OrdinalEncoder{}
}

// Fit は各列のカテゴリを学習する。X は行ごとの値 (n_samples × n_features)
func (e *OrdinalEncoder) Fit(X [][]string) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.NewModelError("OrdinalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	c := len(X[0])
	e.Categories = make([][]string, c)
	for j := 0; j < c; j++ {
		col := make([]string, len(X))
		for i, row := range X {
			if len(row) != c {
				return errors.NewDimensionError("OrdinalEncoder.Fit", c, len(row), 1)
			}
			col[i] = row[j]
		}
		e.Categories[j] = sortedUnique(col)
	}
	e.index()
	e.SetFitted()
	return nil
}

// Transform は学習済みのカテゴリを使ってコードに変換する
// 未知のカテゴリは ValueError になる
func (e *OrdinalEncoder) Transform(X [][]string) (*mat.Dense, error) {
	if err := e.RequireFitted("OrdinalEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, errors.NewModelError("OrdinalEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	e.index()
	c := len(e.Categories)
	out := mat.NewDense(len(X), c, nil)
	for i, row := range X {
		if len(row) != c {
			return nil, errors.NewDimensionError("OrdinalEncoder.Transform", c, len(row), 1)
		}
		for j, v := range row {
			code, ok := e.codes[j][v]
			if !ok {
				return nil, errors.NewValueError("OrdinalEncoder.Transform",
					fmt.Sprintf("found unknown category %q in column %d during transform", v, j))
			}
			out.Set(i, j, float64(code))
		}
	}
	return out, nil
}

// FitTransform は学習と変換を同時に行う
func (e *OrdinalEncoder) FitTransform(X [][]string) (*mat.Dense, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// InverseTransform はコードを元のカテゴリに戻す
func (e *OrdinalEncoder) InverseTransform(X mat.Matrix) ([][]string, error) {
	if err := e.RequireFitted("OrdinalEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != len(e.Categories) {
		return nil, errors.NewDimensionError("OrdinalEncoder.InverseTransform", len(e.Categories), c, 1)
	}
	out := make([][]string, r)
	for i := range out {
		out[i] = make([]string, c)
		for j := 0; j < c; j++ {
			v, err := decode("OrdinalEncoder.InverseTransform", e.Categories[j], X.At(i, j))
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// index rebuilds the lookup tables, which are not serialized.
func (e *OrdinalEncoder) index() {
	if len(e.codes) == len(e.Categories) {
		return
	}
	e.codes = make([]map[string]int, len(e.Categories))
	for j, cats := range e.Categories {
		e.codes[j] = lookup(cats)
	}
}

// LabelEncoder はターゲットラベルを 0..n_classes-1 に変換する
type LabelEncoder struct {
	model.BaseEstimator

	// Classes は辞書順のクラスラベル
	Classes []string

	codes map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit はクラスラベルを学習する
func (e *LabelEncoder) Fit(y []string) error {
	if len(y) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	e.Classes = sortedUnique(y)
	e.codes = lookup(e.Classes)
	e.SetFitted()
	return nil
}

// Transform はラベルをクラス番号に変換する
func (e *LabelEncoder) Transform(y []string) (*mat.VecDense, error) {
	if err := e.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, errors.NewModelError("LabelEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	if e.codes == nil {
		e.codes = lookup(e.Classes)
	}
	out := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		code, ok := e.codes[v]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", fmt.Sprintf("y contains previously unseen label %q", v))
		}
		out.SetVec(i, float64(code))
	}
	return out, nil
}

// FitTransform は学習と変換を同時に行う
func (e *LabelEncoder) FitTransform(y []string) (*mat.VecDense, error) {
	if err := e.Fit(y); err != nil {
		return nil, err
	}
	return e.Transform(y)
}

// InverseTransform はクラス番号をラベルに戻す
func (e *LabelEncoder) InverseTransform(y mat.Vector) ([]string, error) {
	if err := e.RequireFitted("LabelEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	out := make([]string, y.Len())
	for i := range out {
		v, err := decode("LabelEncoder.InverseTransform", e.Classes, y.AtVec(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func lookup(categories []string) map[string]int {
	m := make(map[string]int, len(categories))
	for i, v := range categories {
		m[v] = i
	}
	return m
}

func decode(op string, categories []string, code float64) (string, error) {
	i := int(code)
	if code != math.Trunc(code) || i < 0 || i >= len(categories) {
		return "", errors.NewValueError(op, fmt.Sprintf("code %v is not a fitted category", code))
	}
	return categories[i], nil
}
