// Package preprocessing turns a prepared dataset into model input: encoders
// and scalers over gonum matrices, plus frame-level strategies that encode,
// scale, select features and split rows.
package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// FrameFactory dispatches to one frame-to-frame preprocessing step.
type FrameFactory = strategy.Factory[*dataset.Frame, *dataset.Frame]

// NewFrameFactory returns a factory holding s.
func NewFrameFactory(s strategy.Strategy[*dataset.Frame, *dataset.Frame]) *FrameFactory {
	return strategy.NewFactory(s)
}

// DefaultTarget is the label column.
const DefaultTarget = "Test Results"

// DefaultOrdinalColumns are encoded by OrdinalEncode when Columns is empty.
var DefaultOrdinalColumns = []string{"Gender", "Admission Type", "Medical Condition", "Insurance Provider", "Medication"}

// OrdinalEncode replaces categorical Columns with their ordinal codes. When
// Encoder is already fitted it is reused, so the same mapping can be applied
// to new data; otherwise it is fitted here and kept.
type OrdinalEncode struct {
	Columns []string
	Encoder *OrdinalEncoder
}

// Execute returns a copy of df with Columns replaced by their codes.
func (o *OrdinalEncode) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	columns := o.Columns
	if len(columns) == 0 {
		columns = DefaultOrdinalColumns
	}
	rows, err := categoricalRows("OrdinalEncode", df, columns)
	if err != nil {
		return nil, err
	}
	if o.Encoder == nil {
		o.Encoder = NewOrdinalEncoder()
	}
	if !o.Encoder.IsFitted() {
		if err := o.Encoder.Fit(rows); err != nil {
			return nil, err
		}
	}
	codes, err := o.Encoder.Transform(rows)
	if err != nil {
		return nil, err
	}
	encoded, err := dataset.FromMatrix(codes, columns)
	if err != nil {
		return nil, err
	}

	out := df.Copy()
	for _, s := range encoded.Series() {
		if err := out.Set(s); err != nil {
			return nil, err
		}
	}
	log.GetLoggerWithName("preprocessing").Info("columns ordinal encoded",
		log.OperationKey, log.OperationTransform, log.ColumnsKey, columns)
	return out, nil
}

// Decode maps encoded Columns of df back to their categories.
func (o *OrdinalEncode) Decode(df *dataset.Frame) (*dataset.Frame, error) {
	if o.Encoder == nil {
		return nil, errors.NewNotFittedError("OrdinalEncode", "Decode")
	}
	columns := o.Columns
	if len(columns) == 0 {
		columns = DefaultOrdinalColumns
	}
	codes, err := df.Matrix(columns...)
	if err != nil {
		return nil, err
	}
	values, err := o.Encoder.InverseTransform(codes)
	if err != nil {
		return nil, err
	}
	out := df.Copy()
	for j, name := range columns {
		col := make([]string, len(values))
		for i := range values {
			col[i] = values[i][j]
		}
		if err := out.Set(dataset.NewCategorical(name, col)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LabelEncode replaces the target Column with class numbers. Column
// defaults to DefaultTarget. A fitted Encoder is reused.
type LabelEncode struct {
	Column  string
	Encoder *LabelEncoder
}

// Execute returns a copy of df with Column replaced by class numbers.
func (l *LabelEncode) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	column := l.Column
	if column == "" {
		column = DefaultTarget
	}
	rows, err := categoricalRows("LabelEncode", df, []string{column})
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row[0]
	}
	if l.Encoder == nil {
		l.Encoder = NewLabelEncoder()
	}
	if !l.Encoder.IsFitted() {
		if err := l.Encoder.Fit(labels); err != nil {
			return nil, err
		}
	}
	codes, err := l.Encoder.Transform(labels)
	if err != nil {
		return nil, err
	}
	out := df.Copy()
	if err := out.Set(dataset.NewNumeric(column, codes.RawVector().Data)); err != nil {
		return nil, err
	}
	log.GetLoggerWithName("preprocessing").Info("target label encoded",
		log.OperationKey, log.OperationTransform, log.ColumnKey, column, "classes", l.Encoder.Classes)
	return out, nil
}

// categoricalRows returns the named columns as rows of strings. Numeric and
// datetime columns are formatted; missing cells are rejected.
func categoricalRows(op string, df *dataset.Frame, columns []string) ([][]string, error) {
	if err := df.Require(op, columns...); err != nil {
		return nil, err
	}
	if df.NRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	rows := make([][]string, df.NRows())
	for i := range rows {
		rows[i] = make([]string, len(columns))
	}
	for j, name := range columns {
		s, _ := df.Column(name)
		if n := s.NullCount(); n > 0 {
			return nil, errors.NewValueError(op, fmt.Sprintf("column %q has %d missing values; impute before encoding", name, n))
		}
		for i := range rows {
			rows[i][j] = s.Format(i)
		}
	}
	return rows, nil
}
