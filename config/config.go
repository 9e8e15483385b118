// Package config loads the pipeline settings from a YAML file, MEDLENS_*
// environment variables and command-line flags, and validates them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/preprocessing"
	"github.com/YuminosukeSato/medlens/render"
	"github.com/YuminosukeSato/medlens/sklearn/ensemble"
)

// EnvPrefix prefixes environment overrides, e.g. MEDLENS_MODEL_PATH.
const EnvPrefix = "MEDLENS"

// Config is the full set of pipeline settings.
type Config struct {
	Data     DataConfig     `mapstructure:"data" yaml:"data" json:"data"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
	Features FeaturesConfig `mapstructure:"features" yaml:"features" json:"features"`
	Split    SplitConfig    `mapstructure:"split" yaml:"split" json:"split"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model" json:"model"`
}

// DataConfig locates the input dataset. Sheet applies to .xlsx files.
type DataConfig struct {
	Path  string `mapstructure:"path" yaml:"path" json:"path"`
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// OutputConfig controls where and how figures are written. Sizes are in
// inches per plot.
type OutputConfig struct {
	Dir    string  `mapstructure:"dir" yaml:"dir" json:"dir" validate:"required"`
	Format string  `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=png svg jpg pdf"`
	Width  float64 `mapstructure:"width" yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `mapstructure:"height" yaml:"height" json:"height" validate:"gt=0"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

// FeaturesConfig names the target and the columns each preprocessing step
// works on.
type FeaturesConfig struct {
	Target             string   `mapstructure:"target" yaml:"target" json:"target" validate:"required"`
	OrdinalColumns     []string `mapstructure:"ordinal_columns" yaml:"ordinal_columns" json:"ordinal_columns" validate:"dive,required"`
	ScaleColumns       []string `mapstructure:"scale_columns" yaml:"scale_columns" json:"scale_columns" validate:"dive,required"`
	SelectionThreshold float64  `mapstructure:"selection_threshold" yaml:"selection_threshold" json:"selection_threshold" validate:"gte=0"`
}

// SplitConfig controls the train/test split.
type SplitConfig struct {
	TestSize float64 `mapstructure:"test_size" yaml:"test_size" json:"test_size" validate:"gt=0,lt=1"`
	Seed     int64   `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// ModelConfig holds the forest hyperparameters and where the trained model
// is stored. MaxDepth 0 grows trees until their leaves are pure.
type ModelConfig struct {
	Path            string `mapstructure:"path" yaml:"path" json:"path" validate:"required"`
	NEstimators     int    `mapstructure:"n_estimators" yaml:"n_estimators" json:"n_estimators" validate:"gte=1"`
	MaxDepth        int    `mapstructure:"max_depth" yaml:"max_depth" json:"max_depth" validate:"gte=0"`
	Criterion       string `mapstructure:"criterion" yaml:"criterion" json:"criterion" validate:"oneof=gini entropy"`
	MinSamplesSplit int    `mapstructure:"min_samples_split" yaml:"min_samples_split" json:"min_samples_split" validate:"gte=2"`
	MinSamplesLeaf  int    `mapstructure:"min_samples_leaf" yaml:"min_samples_leaf" json:"min_samples_leaf" validate:"gte=1"`
	Seed            int64  `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Data: DataConfig{Path: "healthcare_dataset.csv"},
		Output: OutputConfig{
			Dir:    "figures",
			Format: "png",
			Width:  8,
			Height: 6,
		},
		Log: LogConfig{Level: "info"},
		Features: FeaturesConfig{
			Target:             preprocessing.DefaultTarget,
			OrdinalColumns:     append([]string(nil), preprocessing.DefaultOrdinalColumns...),
			ScaleColumns:       append([]string(nil), preprocessing.DefaultScaleColumns...),
			SelectionThreshold: preprocessing.DefaultChiSquareThreshold,
		},
		Split: SplitConfig{TestSize: preprocessing.DefaultTestSize, Seed: preprocessing.DefaultSeed},
		Model: ModelConfig{
			Path:            "model.gob",
			NEstimators:     100,
			Criterion:       "gini",
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			Seed:            42,
		},
	}
}

// SetDefaults registers every key with its default so environment
// variables and flags can override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.sheet", d.Data.Sheet)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.width", d.Output.Width)
	v.SetDefault("output.height", d.Output.Height)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("features.target", d.Features.Target)
	v.SetDefault("features.ordinal_columns", d.Features.OrdinalColumns)
	v.SetDefault("features.scale_columns", d.Features.ScaleColumns)
	v.SetDefault("features.selection_threshold", d.Features.SelectionThreshold)
	v.SetDefault("split.test_size", d.Split.TestSize)
	v.SetDefault("split.seed", d.Split.Seed)
	v.SetDefault("model.path", d.Model.Path)
	v.SetDefault("model.n_estimators", d.Model.NEstimators)
	v.SetDefault("model.max_depth", d.Model.MaxDepth)
	v.SetDefault("model.criterion", d.Model.Criterion)
	v.SetDefault("model.min_samples_split", d.Model.MinSamplesSplit)
	v.SetDefault("model.min_samples_leaf", d.Model.MinSamplesLeaf)
	v.SetDefault("model.seed", d.Model.Seed)
}

// BindEnv makes MEDLENS_SECTION_KEY override section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v over the defaults and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML config file with environment overrides applied.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	BindEnv(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Load(v)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the struct tags. The first failing field is returned as
// a ValidationError named by its config key, e.g. "model.n_estimators".
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate config")
	}
	fe := fieldErrs[0]
	reason := fe.Tag()
	if fe.Param() != "" {
		reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	return errors.NewValidationError(key, "failed "+reason, fe.Value())
}

// Save writes c as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}

// Renderer returns a renderer for the output settings.
func (o OutputConfig) Renderer() *render.Renderer {
	return render.New(o.Dir, o.Format, o.Width, o.Height)
}

// ForestOptions translates the model settings into forest options.
func (m ModelConfig) ForestOptions() []ensemble.Option {
	return []ensemble.Option{
		ensemble.WithNEstimators(m.NEstimators),
		ensemble.WithCriterion(m.Criterion),
		ensemble.WithMaxDepth(m.MaxDepth),
		ensemble.WithMinSamplesSplit(m.MinSamplesSplit),
		ensemble.WithMinSamplesLeaf(m.MinSamplesLeaf),
		ensemble.WithRandomState(m.Seed),
	}
}
