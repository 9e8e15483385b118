// Package dataset provides Frame, the column-oriented table passed between
// pipeline stages, with CSV and XLSX I/O and grouped aggregation.
package dataset

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// Frame is an ordered set of equal-length named columns.
type Frame struct {
	cols  []*Series
	index map[string]int
	nrows int
}

// New builds a frame from columns. Column names must be unique and all
// columns must have the same length.
func New(cols ...*Series) (*Frame, error) {
	f := &Frame{index: make(map[string]int)}
	for _, c := range cols {
		if f.Has(c.Name()) {
			return nil, errors.NewValueError("dataset.New", fmt.Sprintf("duplicate column %q", c.Name()))
		}
		if err := f.Set(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(cols ...*Series) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// NRows returns the number of rows.
func (f *Frame) NRows() int { return f.nrows }

// NCols returns the number of columns.
func (f *Frame) NCols() int { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Series returns the columns in order. The slice is a copy; the series are shared.
func (f *Frame) Series() []*Series {
	return append([]*Series(nil), f.cols...)
}

// Has reports whether the frame contains column name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column or a MissingColumnError.
func (f *Frame) Column(name string) (*Series, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, errors.NewMissingColumnError("Frame.Column", name, f.Columns())
	}
	return f.cols[i], nil
}

// Require returns a MissingColumnError for the first absent name.
func (f *Frame) Require(op string, names ...string) error {
	for _, name := range names {
		if !f.Has(name) {
			return errors.NewMissingColumnError(op, name, f.Columns())
		}
	}
	return nil
}

// NumericColumn returns the named column, requiring it to be numeric.
func (f *Frame) NumericColumn(op, name string) (*Series, error) {
	s, err := f.Column(name)
	if err != nil {
		return nil, errors.NewMissingColumnError(op, name, f.Columns())
	}
	if s.Kind() != Numeric {
		return nil, errors.NewSchemaMismatchError(op, name, Numeric.String(), s.Kind().String())
	}
	return s, nil
}

// Set replaces the column with the same name or appends s. The first column
// added to an empty frame fixes the row count.
func (f *Frame) Set(s *Series) error {
	if len(f.cols) > 0 && s.Len() != f.nrows {
		return errors.NewSchemaMismatchError("Frame.Set", s.Name(),
			fmt.Sprintf("%d rows", f.nrows), fmt.Sprintf("%d rows", s.Len()))
	}
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[s.Name()]; ok {
		f.cols[i] = s
		return nil
	}
	if len(f.cols) == 0 {
		f.nrows = s.Len()
	}
	f.index[s.Name()] = len(f.cols)
	f.cols = append(f.cols, s)
	return nil
}

// Copy returns a deep copy of f.
func (f *Frame) Copy() *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols)), nrows: f.nrows}
	for _, c := range f.cols {
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c.Copy())
	}
	return out
}

// Select returns a frame with the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{index: make(map[string]int, len(names)), nrows: f.nrows}
	for _, name := range names {
		s, err := f.Column(name)
		if err != nil {
			return nil, errors.NewMissingColumnError("Frame.Select", name, f.Columns())
		}
		out.index[name] = len(out.cols)
		out.cols = append(out.cols, s)
	}
	return out, nil
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	if err := f.Require("Frame.Drop", names...); err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []string
	for _, n := range f.Columns() {
		if !drop[n] {
			keep = append(keep, n)
		}
	}
	return f.Select(keep...)
}

// SelectKinds returns the columns of the given kinds, in frame order.
func (f *Frame) SelectKinds(kinds ...Kind) *Frame {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var names []string
	for _, c := range f.cols {
		if want[c.Kind()] {
			names = append(names, c.Name())
		}
	}
	out, _ := f.Select(names...)
	return out
}

// Take returns the rows at the given positions, in that order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols)), nrows: len(rows)}
	for _, c := range f.cols {
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c.Take(rows))
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	var rows []int
	for i := 0; i < f.nrows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.nrows {
		n = f.nrows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return f.Take(rows)
}

// SortBy returns the rows ordered by column name. The sort is stable and
// missing values go last.
func (f *Frame) SortBy(name string, descending bool) (*Frame, error) {
	s, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	rows := make([]int, f.nrows)
	for i := range rows {
		rows[i] = i
	}
	less := func(a, b int) bool {
		switch s.Kind() {
		case Numeric:
			return s.Float(a) < s.Float(b)
		case Categorical:
			return s.Str(a) < s.Str(b)
		default:
			return s.Time(a).Before(s.Time(b))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if s.IsNull(a) || s.IsNull(b) {
			return !s.IsNull(a) && s.IsNull(b)
		}
		if descending {
			return less(b, a)
		}
		return less(a, b)
	})
	return f.Take(rows), nil
}

// Matrix converts the named numeric columns (all columns when none are
// named) into a rows x columns matrix.
func (f *Frame) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = f.Columns()
	}
	if f.nrows == 0 || len(names) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Frame.Matrix")
	}
	m := mat.NewDense(f.nrows, len(names), nil)
	for j, name := range names {
		s, err := f.NumericColumn("Frame.Matrix", name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < f.nrows; i++ {
			m.Set(i, j, s.Float(i))
		}
	}
	return m, nil
}

// Vector returns a numeric column as a vector.
func (f *Frame) Vector(name string) (*mat.VecDense, error) {
	s, err := f.NumericColumn("Frame.Vector", name)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Frame.Vector")
	}
	return mat.NewVecDense(s.Len(), s.Floats()), nil
}

// FromMatrix builds a numeric frame from m using names for the columns.
func FromMatrix(m mat.Matrix, names []string) (*Frame, error) {
	r, c := m.Dims()
	if c != len(names) {
		return nil, errors.NewDimensionError("dataset.FromMatrix", len(names), c, 1)
	}
	cols := make([]*Series, c)
	for j := 0; j < c; j++ {
		values := make([]float64, r)
		for i := 0; i < r; i++ {
			values[i] = m.At(i, j)
		}
		cols[j] = NewNumeric(names[j], values)
	}
	return New(cols...)
}
