package preprocessing

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Split is a train/test partition of features and target.
type Split struct {
	XTrain *dataset.Frame
	XTest  *dataset.Frame
	YTrain *dataset.Frame
	YTest  *dataset.Frame
}

// SplitFactory dispatches to one splitting variant.
type SplitFactory = strategy.Factory[*dataset.Frame, Split]

// NewSplitFactory returns a factory holding s.
func NewSplitFactory(s strategy.Strategy[*dataset.Frame, Split]) *SplitFactory {
	return strategy.NewFactory(s)
}

// Split defaults.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

// TrainTestSplit shuffles the rows with a seeded permutation and takes the
// first ceil(TestSize*n) for testing. The same input and seed always give
// the same partition.
type TrainTestSplit struct {
	Target   string
	TestSize float64
	Seed     int64
}

// NewTrainTestSplit returns a splitter with the default target, test size
// and seed.
func NewTrainTestSplit() *TrainTestSplit {
	return &TrainTestSplit{Target: DefaultTarget, TestSize: DefaultTestSize, Seed: DefaultSeed}
}

// Execute partitions df into features and Target for training and testing.
func (s *TrainTestSplit) Execute(df *dataset.Frame) (Split, error) {
	target := s.Target
	if target == "" {
		target = DefaultTarget
	}
	if s.TestSize <= 0 || s.TestSize >= 1 {
		return Split{}, errors.NewValidationError("test_size", "must be in (0, 1)", s.TestSize)
	}
	if err := df.Require("TrainTestSplit", target); err != nil {
		return Split{}, err
	}
	n := df.NRows()
	nTest := int(math.Ceil(s.TestSize * float64(n)))
	if nTest < 1 || n-nTest < 1 {
		return Split{}, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%v the train or test set would be empty", n, s.TestSize))
	}

	perm := rand.New(rand.NewSource(s.Seed)).Perm(n)
	test, train := perm[:nTest], perm[nTest:]

	X, err := df.Drop(target)
	if err != nil {
		return Split{}, err
	}
	y, err := df.Select(target)
	if err != nil {
		return Split{}, err
	}
	log.GetLoggerWithName("preprocessing").Info("rows split",
		log.OperationKey, log.OperationSplit, "train", len(train), "test", len(test), log.RandomSeedKey, s.Seed)
	return Split{
		XTrain: X.Take(train),
		XTest:  X.Take(test),
		YTrain: y.Take(train),
		YTest:  y.Take(test),
	}, nil
}
