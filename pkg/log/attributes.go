package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or strategy type.
	// Examples: "RandomForestClassifier", "StandardScaler", "Preparation"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "component"

	// StrategyKey names the strategy a factory dispatched to.
	StrategyKey = "strategy"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnKey names the dataset column an entry is about.
	ColumnKey = "data.column"

	// ColumnsKey lists the dataset columns an entry is about.
	ColumnsKey = "data.columns"

	// FilledKey records how many missing cells were imputed.
	FilledKey = "data.filled"

	// PathKey records a file path read or written.
	PathKey = "io.path"
)

// Performance and evaluation metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	PrecisionKey = "metrics.precision"
	RecallKey    = "metrics.recall"
	F1ScoreKey   = "metrics.f1"

	// ScoreKey records a per-feature score such as chi2.
	ScoreKey = "metrics.score"
)

// Configuration.
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// EstimatorsKey records the number of trees in an ensemble.
	EstimatorsKey = "config.n_estimators"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationRender       = "render"
	OperationImpute       = "impute"
	OperationSelect       = "select"
	OperationSplit        = "split"
)
