// Package medlens is an exploratory analysis and classification toolkit for
// tabular hospital admission records.
//
// It loads a healthcare dataset from CSV or Excel, imputes missing values,
// derives age, billing and length-of-stay columns, renders univariate,
// bivariate, multivariate and per-condition charts, and trains a random
// forest that predicts each admission's test result.
//
// # Command line
//
// The medlens binary exposes the pipeline:
//
//	medlens inspect --data healthcare_dataset.csv
//	medlens clean --out clean.csv
//	medlens plot condition
//	medlens aggregate --output yaml
//	medlens train
//	medlens predict --in new_patients.csv
//
// # Packages
//
//   - dataset: column-typed frames, CSV/Excel I/O, grouping
//   - analysis/...: inspection, missing values, preparation and the chart families
//   - preprocessing: encoders, scaler, chi-squared selection, train/test split
//   - sklearn/tree, sklearn/ensemble: CART trees and the random forest
//   - metrics: accuracy, confusion matrix, precision, recall, F1
//   - modeling: training, persistence, prediction and evaluation strategies
//   - render: gonum/plot figures written to disk
//   - config: viper-backed settings with validation
//   - core/strategy: the dispatch holder every step is selected through
//   - core/model, core/parallel: estimator state, gob persistence, worker fan-out
//   - pkg/errors, pkg/log: error taxonomy and zerolog-backed logging
//
// # Library use
//
//	df, err := dataset.Load("healthcare_dataset.csv", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	df, err = missing.NewFactory(missing.NumericImputer{}).Execute(df)
//	// ...
//	m, err := modeling.NewTrainer(&modeling.RandomForest{Path: "model.gob"}).
//	    Execute(modeling.TrainingSet{X: X, Y: y})
package medlens
