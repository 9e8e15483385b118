// Package strategy provides the single dispatch mechanism every analysis and
// modeling area is built on: a one-method capability (Strategy) and a holder
// (Factory) that forwards calls to whichever variant the caller selected.
//
//	f := strategy.NewFactory[*dataset.Frame, *dataset.Frame](&missing.NumericImputer{})
//	clean, err := f.Execute(df)
package strategy

import (
	"fmt"
	"time"

	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Strategy is a single-method capability.
type Strategy[In, Out any] interface {
	Execute(in In) (Out, error)
}

// Func adapts a plain function to Strategy.
type Func[In, Out any] func(in In) (Out, error)

// Execute calls f.
func (f Func[In, Out]) Execute(in In) (Out, error) {
	return f(in)
}

// Factory holds one strategy and forwards calls to it.
type Factory[In, Out any] struct {
	strategy Strategy[In, Out]
	logger   log.Logger
}

// NewFactory returns a factory holding s.
func NewFactory[In, Out any](s Strategy[In, Out]) *Factory[In, Out] {
	return &Factory[In, Out]{
		strategy: s,
		logger:   log.GetLoggerWithName("strategy"),
	}
}

// SetStrategy replaces the held strategy.
func (f *Factory[In, Out]) SetStrategy(s Strategy[In, Out]) {
	f.strategy = s
}

// Strategy returns the held strategy.
func (f *Factory[In, Out]) Strategy() Strategy[In, Out] {
	return f.strategy
}

// SetLogger overrides the dispatch logger.
func (f *Factory[In, Out]) SetLogger(l log.Logger) {
	f.logger = l
}

// Execute forwards in to the held strategy and returns its result unchanged.
// Errors are not wrapped. A panic in the strategy is returned as a
// *errors.PanicError.
func (f *Factory[In, Out]) Execute(in In) (out Out, err error) {
	if f.strategy == nil {
		return out, errors.NewValueError("Factory.Execute", errors.ErrNoStrategy.Error())
	}

	name := Name(f.strategy)
	defer errors.Recover(&err, name)

	start := time.Now()
	out, err = f.strategy.Execute(in)
	f.logger.Debug("strategy executed",
		log.StrategyKey, name,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return out, err
}

// Name returns the type name used to identify s in logs and errors.
func Name(s any) string {
	return fmt.Sprintf("%T", s)
}
