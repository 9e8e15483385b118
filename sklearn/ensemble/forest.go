// Package ensemble provides a bagged random forest built from the CART trees
// in sklearn/tree.
package ensemble

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/core/model"
	"github.com/YuminosukeSato/medlens/core/parallel"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
	"github.com/YuminosukeSato/medlens/sklearn/tree"
)

const modelName = "RandomForestClassifier"

var (
	_ model.Classifier      = (*RandomForestClassifier)(nil)
	_ model.ParameterGetter = (*RandomForestClassifier)(nil)
)

// RandomForestClassifier はブートストラップ標本で学習した決定木の平均で分類する
// scikit-learnのRandomForestClassifierと互換性を持つ
type RandomForestClassifier struct {
	state *model.StateManager

	// ハイパーパラメータ
	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt", "log2", "all"
	bootstrap       bool
	randomState     int64
	nJobs           int

	// 学習パラメータ
	estimators_         []*tree.DecisionTreeClassifier
	classes_            []float64
	featureImportances_ []float64
}

// Option はRandomForestClassifierの設定オプション
type Option func(*RandomForestClassifier)

// NewRandomForestClassifier は新しいRandomForestClassifierを作成
func NewRandomForestClassifier(options ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       "gini",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		bootstrap:       true,
		randomState:     -1,
		nJobs:           runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(rf)
	}
	return rf
}

// WithNEstimators は木の本数を設定
func WithNEstimators(n int) Option {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithCriterion は不純度の指標を設定
func WithCriterion(criterion string) Option {
	return func(rf *RandomForestClassifier) { rf.criterion = criterion }
}

// WithMaxDepth は各木の最大深さを設定（0以下は無制限）
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定
func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestClassifier) { rf.minSamplesSplit = n }
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestClassifier) { rf.minSamplesLeaf = n }
}

// WithMaxFeatures は分割ごとに検討する特徴量数の規則を設定
func WithMaxFeatures(rule string) Option {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = rule }
}

// WithBootstrap はブートストラップ標本を使うかを設定
func WithBootstrap(bootstrap bool) Option {
	return func(rf *RandomForestClassifier) { rf.bootstrap = bootstrap }
}

// WithRandomState は乱数シードを設定。i番目の木はseed+iを使う
func WithRandomState(seed int64) Option {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// WithNJobs は並列数を設定
func WithNJobs(n int) Option {
	return func(rf *RandomForestClassifier) { rf.nJobs = n }
}

func (rf *RandomForestClassifier) featuresPerSplit(nFeatures int) (int, error) {
	switch rf.maxFeatures {
	case "sqrt":
		return max(1, int(math.Sqrt(float64(nFeatures)))), nil
	case "log2":
		return max(1, int(math.Log2(float64(nFeatures)))), nil
	case "all", "":
		return nFeatures, nil
	}
	return 0, errors.NewValidationError("max_features", "must be sqrt, log2 or all", rf.maxFeatures)
}

// Fit は各木をブートストラップ標本で並列に学習する
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr, _ := y.Dims(); yr != rows {
		return errors.NewDimensionError("RandomForestClassifier.Fit", rows, yr, 0)
	}
	k, err := rf.featuresPerSplit(cols)
	if err != nil {
		return err
	}

	start := time.Now()
	rf.state.Reset()
	data := mat.DenseCopyOf(X)
	labels := mat.Col(nil, 0, y)
	seed := rf.randomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}

	estimators := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	err = parallel.ForEach(rf.nEstimators, rf.nJobs, "RandomForestClassifier.Fit", func(i int) error {
		treeSeed := seed + int64(i)
		Xb, yb := data, mat.NewDense(rows, 1, labels)
		if rf.bootstrap {
			Xb, yb = bootstrapSample(data, labels, rand.New(rand.NewSource(treeSeed)))
		}
		dt := tree.NewDecisionTreeClassifier(
			tree.WithCriterion(rf.criterion),
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesSplit(rf.minSamplesSplit),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(k),
			tree.WithRandomState(treeSeed),
		)
		if err := dt.Fit(Xb, yb); err != nil {
			return errors.Wrapf(err, "fit tree %d", i)
		}
		estimators[i] = dt
		return nil
	})
	if err != nil {
		return err
	}

	rf.estimators_ = estimators
	rf.classes_ = uniqueSorted(labels)
	rf.featureImportances_ = make([]float64, cols)
	for _, dt := range estimators {
		for j, v := range dt.GetFeatureImportances() {
			rf.featureImportances_[j] += v / float64(len(estimators))
		}
	}
	rf.state.SetDimensions(cols, rows)
	rf.state.SetFitted()

	log.GetLoggerWithName("ensemble").Info("forest fitted",
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.EstimatorsKey, rf.nEstimators,
		log.RandomSeedKey, seed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func bootstrapSample(X *mat.Dense, y []float64, rng *rand.Rand) (*mat.Dense, *mat.Dense) {
	rows, cols := X.Dims()
	Xb := mat.NewDense(rows, cols, nil)
	yb := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		r := rng.Intn(rows)
		Xb.SetRow(i, X.RawRowView(r))
		yb.Set(i, 0, y[r])
	}
	return Xb, yb
}

// PredictProba は全ての木の確率の平均を返す（列はClasses()の順）
// ブートストラップ標本に現れなかったクラスの確率は0として扱う
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted(modelName, "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := rf.state.RequireFeatures(modelName+".PredictProba", cols); err != nil {
		return nil, err
	}

	classIndex := make(map[float64]int, len(rf.classes_))
	for i, c := range rf.classes_ {
		classIndex[c] = i
	}
	partial := make([]*mat.Dense, len(rf.estimators_))
	err := parallel.ForEach(len(rf.estimators_), rf.nJobs, "RandomForestClassifier.PredictProba", func(i int) error {
		dt := rf.estimators_[i]
		proba, err := dt.PredictProba(X)
		if err != nil {
			return err
		}
		out := mat.NewDense(rows, len(rf.classes_), nil)
		for k, c := range dt.Classes() {
			col := classIndex[c]
			for r := 0; r < rows; r++ {
				out.Set(r, col, proba.At(r, k))
			}
		}
		partial[i] = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Summing in estimator order keeps the result independent of scheduling.
	sum := mat.NewDense(rows, len(rf.classes_), nil)
	for _, p := range partial {
		sum.Add(sum, p)
	}
	sum.Scale(1/float64(len(partial)), sum)
	return sum, nil
}

// Predict は平均確率が最大のクラスをn×1の行列で返す
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, proba)
		best := 0
		for k, v := range row {
			if v > row[best] {
				best = k
			}
		}
		out.Set(i, 0, rf.classes_[best])
	}
	return out, nil
}

// Score は正解率を返す
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := pred.Dims()
	if yr, _ := y.Dims(); yr != rows {
		return 0, errors.NewDimensionError("RandomForestClassifier.Score", rows, yr, 0)
	}
	correct := 0
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestClassifier) IsFitted() bool { return rf.state.IsFitted() }

// Classes は学習時のクラスラベルを昇順で返す
func (rf *RandomForestClassifier) Classes() []float64 {
	return append([]float64(nil), rf.classes_...)
}

// Estimators returns the fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	return append([]*tree.DecisionTreeClassifier(nil), rf.estimators_...)
}

// GetFeatureImportances は木ごとの重要度の平均を返す
func (rf *RandomForestClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), rf.featureImportances_...)
}

// GetParams returns the model hyperparameters
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"criterion":         rf.criterion,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"bootstrap":         rf.bootstrap,
		"random_state":      rf.randomState,
		"n_jobs":            rf.nJobs,
	}
}

type snapshot struct {
	Fitted          bool
	NFeatures       int
	NSamples        int
	NEstimators     int
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     string
	Bootstrap       bool
	RandomState     int64
	Estimators      []*tree.DecisionTreeClassifier
	Classes         []float64
	Importances     []float64
}

// MarshalBinary implements encoding.BinaryMarshaler for gob persistence.
func (rf *RandomForestClassifier) MarshalBinary() ([]byte, error) {
	nFeatures, nSamples := rf.state.GetDimensions()
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		Fitted:          rf.state.IsFitted(),
		NFeatures:       nFeatures,
		NSamples:        nSamples,
		NEstimators:     rf.nEstimators,
		Criterion:       rf.criterion,
		MaxDepth:        rf.maxDepth,
		MinSamplesSplit: rf.minSamplesSplit,
		MinSamplesLeaf:  rf.minSamplesLeaf,
		MaxFeatures:     rf.maxFeatures,
		Bootstrap:       rf.bootstrap,
		RandomState:     rf.randomState,
		Estimators:      rf.estimators_,
		Classes:         rf.classes_,
		Importances:     rf.featureImportances_,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode random forest")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (rf *RandomForestClassifier) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return errors.Wrap(err, "decode random forest")
	}
	state := model.NewStateManager()
	state.SetDimensions(s.NFeatures, s.NSamples)
	if s.Fitted {
		state.SetFitted()
	}
	*rf = RandomForestClassifier{
		state:               state,
		nEstimators:         s.NEstimators,
		criterion:           s.Criterion,
		maxDepth:            s.MaxDepth,
		minSamplesSplit:     s.MinSamplesSplit,
		minSamplesLeaf:      s.MinSamplesLeaf,
		maxFeatures:         s.MaxFeatures,
		bootstrap:           s.Bootstrap,
		randomState:         s.RandomState,
		nJobs:               runtime.NumCPU(),
		estimators_:         s.Estimators,
		classes_:            s.Classes,
		featureImportances_: s.Importances,
	}
	return nil
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
