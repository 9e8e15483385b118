package cli

import (
	"github.com/YuminosukeSato/medlens/analysis/missing"
	"github.com/YuminosukeSato/medlens/analysis/preparation"
	"github.com/YuminosukeSato/medlens/config"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// loadData reads the configured dataset.
func loadData(cfg *config.Config) (*dataset.Frame, error) {
	if cfg.Data.Path == "" {
		return nil, errors.NewValidationError("data.path", "no dataset given; use --data or set data.path", "")
	}
	df, err := dataset.Load(cfg.Data.Path, cfg.Data.Sheet)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("cli").Info("dataset loaded",
		log.PathKey, cfg.Data.Path, log.SamplesKey, df.NRows(), log.FeaturesKey, df.NCols())
	return df, nil
}

// clean fills missing numeric cells by interpolation and missing
// categorical cells with the column mode.
func clean(df *dataset.Frame) (*dataset.Frame, error) {
	imputer := missing.NewFactory(missing.NumericImputer{})
	df, err := imputer.Execute(df)
	if err != nil {
		return nil, err
	}
	imputer.SetStrategy(missing.CategoricalImputer{})
	return imputer.Execute(df)
}

// prepare cleans df and adds the derived columns.
func prepare(df *dataset.Frame) (*dataset.Frame, error) {
	df, err := clean(df)
	if err != nil {
		return nil, err
	}
	return preparation.NewFactory(preparation.Preparation{}).Execute(df)
}

// loadPrepared reads, cleans and prepares the configured dataset.
func loadPrepared(cfg *config.Config) (*dataset.Frame, error) {
	df, err := loadData(cfg)
	if err != nil {
		return nil, err
	}
	return prepare(df)
}
