// Package tree provides a CART decision tree classifier compatible with
// scikit-learn's DecisionTreeClassifier.
package tree

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/core/model"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

const modelName = "DecisionTreeClassifier"

// Node は木の1ノード。Leftが-1のノードは葉
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Impurity  float64
	Samples   int
	Value     []float64 // クラスごとの割合（classes_の順）
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool { return n.Left < 0 }

var _ model.Classifier = (*DecisionTreeClassifier)(nil)

// DecisionTreeClassifier はCARTアルゴリズムによる決定木分類器
// scikit-learnのDecisionTreeClassifierと互換性を持つ
type DecisionTreeClassifier struct {
	model.BaseEstimator

	// ハイパーパラメータ
	criterion       string // "gini" または "entropy"
	maxDepth        int    // 最大深さ（0以下は無制限）
	minSamplesSplit int    // 分割に必要な最小サンプル数
	minSamplesLeaf  int    // 葉の最小サンプル数
	maxFeatures     int    // 各分割で検討する特徴量数（0以下は全特徴量）
	randomState     int64  // 乱数シード（負の値は時刻から生成）

	// 学習パラメータ
	nodes               []Node
	classes_            []float64
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
	depth_              int
	nLeaves_            int

	rng *rand.Rand
}

// Option はDecisionTreeClassifierの設定オプション
type Option func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier は新しいDecisionTreeClassifierを作成
func NewDecisionTreeClassifier(options ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     -1,
	}
	for _, opt := range options {
		opt(dt)
	}
	return dt
}

// WithCriterion は不純度の指標を設定
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth は最大深さを設定
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures は各分割で検討する特徴量数を設定
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithRandomState は乱数シードを設定
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

func (dt *DecisionTreeClassifier) validate() error {
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	return nil
}

// Fit は訓練データから木を構築する。yはn×1の行列
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if err := dt.validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	labels, err := columnVector("DecisionTreeClassifier.Fit", y, rows)
	if err != nil {
		return err
	}
	data := mat.DenseCopyOf(X)
	if err := errors.CheckNumericalStability("DecisionTreeClassifier.Fit", data.RawMatrix().Data); err != nil {
		return err
	}

	dt.Reset()
	seed := dt.randomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	dt.rng = rand.New(rand.NewSource(seed))

	dt.classes_ = uniqueSorted(labels)
	dt.nClasses_ = len(dt.classes_)
	dt.nFeatures_ = cols
	classIndex := make(map[float64]int, dt.nClasses_)
	for i, c := range dt.classes_ {
		classIndex[c] = i
	}
	encoded := make([]int, rows)
	for i, v := range labels {
		encoded[i] = classIndex[v]
	}

	b := &builder{
		dt:          dt,
		X:           data,
		y:           encoded,
		total:       float64(rows),
		importances: make([]float64, cols),
	}
	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	dt.nodes = dt.nodes[:0]
	dt.depth_, dt.nLeaves_ = 0, 0
	b.grow(indices, 0)

	var sum float64
	for _, v := range b.importances {
		sum += v
	}
	if sum > 0 {
		for j := range b.importances {
			b.importances[j] /= sum
		}
	}
	dt.featureImportances_ = b.importances

	dt.SetFitted()
	log.GetLoggerWithName("tree").Debug("tree grown",
		log.ModelNameKey, modelName,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"depth", dt.depth_,
		"leaves", dt.nLeaves_,
	)
	return nil
}

// builder holds the state of a single Fit call.
type builder struct {
	dt          *DecisionTreeClassifier
	X           *mat.Dense
	y           []int
	total       float64
	importances []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int // number of samples sent left
	impurity  [2]float64
	gain      float64
}

func (b *builder) grow(indices []int, depth int) int {
	dt := b.dt
	counts := make([]float64, dt.nClasses_)
	for _, i := range indices {
		counts[b.y[i]]++
	}
	n := len(indices)
	impurity := dt.impurity(counts, float64(n))
	value := make([]float64, dt.nClasses_)
	for k, c := range counts {
		value[k] = c / float64(n)
	}

	id := len(dt.nodes)
	dt.nodes = append(dt.nodes, Node{Feature: -1, Left: -1, Right: -1, Impurity: impurity, Samples: n, Value: value})
	if depth > dt.depth_ {
		dt.depth_ = depth
	}

	leaf := impurity <= 1e-12 ||
		n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		(dt.maxDepth > 0 && depth >= dt.maxDepth)
	var best *split
	if !leaf {
		best = b.bestSplit(indices, counts, impurity)
	}
	if best == nil {
		dt.nLeaves_++
		return id
	}

	left := make([]int, 0, best.pos)
	right := make([]int, 0, n-best.pos)
	for _, i := range indices {
		if b.X.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	nl, nr := float64(len(left)), float64(len(right))
	b.importances[best.feature] += (float64(n)*impurity - nl*best.impurity[0] - nr*best.impurity[1]) / b.total

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	dt.nodes[id].Feature = best.feature
	dt.nodes[id].Threshold = best.threshold
	dt.nodes[id].Left = l
	dt.nodes[id].Right = r
	return id
}

// bestSplit scans candidate features for the threshold with the largest
// weighted impurity decrease. Ties keep the first candidate seen. With
// maxFeatures set, features are drawn at random until that many
// non-constant ones have been examined.
func (b *builder) bestSplit(indices []int, counts []float64, impurity float64) *split {
	dt := b.dt
	features, limit := dt.candidateFeatures()
	n := float64(len(indices))
	var best *split

	sorted := append([]int(nil), indices...)
	left := make([]float64, dt.nClasses_)
	right := make([]float64, dt.nClasses_)
	visited := 0
	for _, f := range features {
		if visited >= limit {
			break
		}
		sortByFeature(b.X, sorted, f)
		if b.X.At(sorted[len(sorted)-1], f) <= b.X.At(sorted[0], f) {
			continue
		}
		visited++
		for k := range left {
			left[k] = 0
			right[k] = counts[k]
		}
		for pos := 1; pos < len(sorted); pos++ {
			moved := b.y[sorted[pos-1]]
			left[moved]++
			right[moved]--

			lo, hi := b.X.At(sorted[pos-1], f), b.X.At(sorted[pos], f)
			if hi <= lo {
				continue
			}
			if pos < dt.minSamplesLeaf || len(sorted)-pos < dt.minSamplesLeaf {
				continue
			}
			nl, nr := float64(pos), n-float64(pos)
			il, ir := dt.impurity(left, nl), dt.impurity(right, nr)
			gain := impurity - (nl*il+nr*ir)/n
			if best == nil || gain > best.gain+1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = &split{feature: f, threshold: threshold, pos: pos, impurity: [2]float64{il, ir}, gain: gain}
			}
		}
	}
	return best
}

// candidateFeatures returns the order in which features are examined and
// how many non-constant ones to look at.
func (dt *DecisionTreeClassifier) candidateFeatures() ([]int, int) {
	k := dt.maxFeatures
	if k <= 0 || k >= dt.nFeatures_ {
		features := make([]int, dt.nFeatures_)
		for i := range features {
			features[i] = i
		}
		return features, dt.nFeatures_
	}
	return dt.rng.Perm(dt.nFeatures_), k
}

func sortByFeature(X *mat.Dense, indices []int, f int) {
	sort.SliceStable(indices, func(a, b int) bool {
		return X.At(indices[a], f) < X.At(indices[b], f)
	})
}

func (dt *DecisionTreeClassifier) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	var v float64
	switch dt.criterion {
	case "entropy":
		for _, c := range counts {
			if c > 0 {
				p := c / n
				v -= p * math.Log2(p)
			}
		}
	default:
		v = 1
		for _, c := range counts {
			p := c / n
			v -= p * p
		}
	}
	return v
}

func (dt *DecisionTreeClassifier) leaf(row []float64) Node {
	node := dt.nodes[0]
	for !node.IsLeaf() {
		if row[node.Feature] <= node.Threshold {
			node = dt.nodes[node.Left]
		} else {
			node = dt.nodes[node.Right]
		}
	}
	return node
}

func (dt *DecisionTreeClassifier) checkInput(method string, X mat.Matrix) (int, error) {
	if err := dt.RequireFitted(modelName, method); err != nil {
		return 0, err
	}
	rows, cols := X.Dims()
	if cols != dt.nFeatures_ {
		return 0, errors.NewDimensionError(modelName+"."+method, dt.nFeatures_, cols, 1)
	}
	return rows, nil
}

// PredictProba は各クラスの所属確率を返す（列はClasses()の順）
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	rows, err := dt.checkInput("PredictProba", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, dt.nClasses_, nil)
	row := make([]float64, dt.nFeatures_)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		if err := errors.CheckNumericalStability(modelName+".PredictProba", row); err != nil {
			return nil, err
		}
		out.SetRow(i, dt.leaf(row).Value)
	}
	return out, nil
}

// Predict はクラスラベルをn×1の行列で返す
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, dt.classes_[argmax(mat.Row(nil, i, proba))])
	}
	return out, nil
}

// Score は正解率を返す。予測できない場合は0
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	rows, _ := pred.Dims()
	truth, err := columnVector("DecisionTreeClassifier.Score", y, rows)
	if err != nil || rows == 0 {
		return 0
	}
	correct := 0
	for i, v := range truth {
		if pred.At(i, 0) == v {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

// Classes は学習時のクラスラベルを昇順で返す
func (dt *DecisionTreeClassifier) Classes() []float64 {
	return append([]float64(nil), dt.classes_...)
}

// GetFeatureImportances は不純度減少に基づく特徴量重要度（合計1）を返す
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth は根を深さ0とした木の深さを返す
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth_ }

// GetNLeaves は葉の数を返す
func (dt *DecisionTreeClassifier) GetNLeaves() int { return dt.nLeaves_ }

// Nodes returns a copy of the fitted nodes; index 0 is the root.
func (dt *DecisionTreeClassifier) Nodes() []Node {
	return append([]Node(nil), dt.nodes...)
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			dt.criterion, ok = value.(string)
		case "max_depth":
			dt.maxDepth, ok = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf, ok = value.(int)
		case "max_features":
			dt.maxFeatures, ok = value.(int)
		case "random_state":
			dt.randomState, ok = value.(int64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return dt.validate()
}

// snapshot is the gob form of a DecisionTreeClassifier.
type snapshot struct {
	State           model.EstimatorState
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     int64
	Nodes           []Node
	Classes         []float64
	NFeatures       int
	Importances     []float64
	Depth           int
	NLeaves         int
}

// MarshalBinary implements encoding.BinaryMarshaler for gob persistence.
func (dt *DecisionTreeClassifier) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		State:           dt.State,
		Criterion:       dt.criterion,
		MaxDepth:        dt.maxDepth,
		MinSamplesSplit: dt.minSamplesSplit,
		MinSamplesLeaf:  dt.minSamplesLeaf,
		MaxFeatures:     dt.maxFeatures,
		RandomState:     dt.randomState,
		Nodes:           dt.nodes,
		Classes:         dt.classes_,
		NFeatures:       dt.nFeatures_,
		Importances:     dt.featureImportances_,
		Depth:           dt.depth_,
		NLeaves:         dt.nLeaves_,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode decision tree")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (dt *DecisionTreeClassifier) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return errors.Wrap(err, "decode decision tree")
	}
	*dt = DecisionTreeClassifier{
		BaseEstimator:       model.BaseEstimator{State: s.State},
		criterion:           s.Criterion,
		maxDepth:            s.MaxDepth,
		minSamplesSplit:     s.MinSamplesSplit,
		minSamplesLeaf:      s.MinSamplesLeaf,
		maxFeatures:         s.MaxFeatures,
		randomState:         s.RandomState,
		nodes:               s.Nodes,
		classes_:            s.Classes,
		nClasses_:           len(s.Classes),
		nFeatures_:          s.NFeatures,
		featureImportances_: s.Importances,
		depth_:              s.Depth,
		nLeaves_:            s.NLeaves,
	}
	return nil
}

// columnVector reads an n×1 matrix (or a vector) of labels.
func columnVector(op string, y mat.Matrix, rows int) ([]float64, error) {
	r, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	if r != rows {
		return nil, errors.NewDimensionError(op, rows, r, 0)
	}
	out := mat.Col(nil, 0, y)
	if err := errors.CheckNumericalStability(op, out); err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueSorted(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	var out []float64
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
