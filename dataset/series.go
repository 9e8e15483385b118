package dataset

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind is the dtype of a Series.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a missing value.
	Numeric Kind = iota
	// Categorical columns hold strings with a null mask.
	Categorical
	// Datetime columns hold time.Time values; the zero time marks a missing value.
	Datetime
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "float64"
	case Categorical:
		return "object"
	case Datetime:
		return "datetime64"
	default:
		return "unknown"
	}
}

// Series is one named column.
type Series struct {
	name    string
	kind    Kind
	floats  []float64
	strings []string
	null    []bool
	times   []time.Time
}

// NewNumeric returns a numeric series. NaN values are missing.
func NewNumeric(name string, values []float64) *Series {
	return &Series{name: name, kind: Numeric, floats: append([]float64(nil), values...)}
}

// NewCategorical returns a categorical series with no missing values.
func NewCategorical(name string, values []string) *Series {
	return &Series{
		name:    name,
		kind:    Categorical,
		strings: append([]string(nil), values...),
		null:    make([]bool, len(values)),
	}
}

// NewCategoricalWithNulls returns a categorical series; null[i] marks row i missing.
func NewCategoricalWithNulls(name string, values []string, null []bool) *Series {
	s := NewCategorical(name, values)
	copy(s.null, null)
	return s
}

// NewDatetime returns a datetime series. Zero times are missing.
func NewDatetime(name string, values []time.Time) *Series {
	return &Series{name: name, kind: Datetime, times: append([]time.Time(nil), values...)}
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Kind returns the column dtype.
func (s *Series) Kind() Kind { return s.kind }

// Len returns the number of rows.
func (s *Series) Len() int {
	switch s.kind {
	case Numeric:
		return len(s.floats)
	case Categorical:
		return len(s.strings)
	default:
		return len(s.times)
	}
}

// Rename returns a copy of s with a new name.
func (s *Series) Rename(name string) *Series {
	c := s.Copy()
	c.name = name
	return c
}

// Float returns the numeric value at row i.
func (s *Series) Float(i int) float64 { return s.floats[i] }

// Str returns the categorical value at row i. Missing values are "".
func (s *Series) Str(i int) string { return s.strings[i] }

// Time returns the datetime value at row i.
func (s *Series) Time(i int) time.Time { return s.times[i] }

// IsNull reports whether row i is missing.
func (s *Series) IsNull(i int) bool {
	switch s.kind {
	case Numeric:
		return math.IsNaN(s.floats[i])
	case Categorical:
		return s.null[i]
	default:
		return s.times[i].IsZero()
	}
}

// NullCount returns the number of missing rows.
func (s *Series) NullCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			n++
		}
	}
	return n
}

// Floats returns a copy of the numeric values.
func (s *Series) Floats() []float64 { return append([]float64(nil), s.floats...) }

// Strings returns a copy of the categorical values.
func (s *Series) Strings() []string { return append([]string(nil), s.strings...) }

// Times returns a copy of the datetime values.
func (s *Series) Times() []time.Time { return append([]time.Time(nil), s.times...) }

// Valid returns the non-missing numeric values in row order.
func (s *Series) Valid() []float64 {
	out := make([]float64, 0, len(s.floats))
	for _, v := range s.floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Format renders row i the way it is written to CSV. Missing values render as "".
func (s *Series) Format(i int) string {
	if s.IsNull(i) {
		return ""
	}
	switch s.kind {
	case Numeric:
		return strconv.FormatFloat(s.floats[i], 'f', -1, 64)
	case Categorical:
		return s.strings[i]
	default:
		t := s.times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	}
}

// Copy returns a deep copy of s.
func (s *Series) Copy() *Series {
	return &Series{
		name:    s.name,
		kind:    s.kind,
		floats:  append([]float64(nil), s.floats...),
		strings: append([]string(nil), s.strings...),
		null:    append([]bool(nil), s.null...),
		times:   append([]time.Time(nil), s.times...),
	}
}

// Take returns the rows at the given positions, in that order.
func (s *Series) Take(rows []int) *Series {
	out := &Series{name: s.name, kind: s.kind}
	switch s.kind {
	case Numeric:
		out.floats = make([]float64, len(rows))
		for i, r := range rows {
			out.floats[i] = s.floats[r]
		}
	case Categorical:
		out.strings = make([]string, len(rows))
		out.null = make([]bool, len(rows))
		for i, r := range rows {
			out.strings[i] = s.strings[r]
			out.null[i] = s.null[r]
		}
	default:
		out.times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.times[i] = s.times[r]
		}
	}
	return out
}

// Key returns a comparable representation of row i used for grouping and
// counting. Missing values yield ok=false.
func (s *Series) Key(i int) (key string, ok bool) {
	if s.IsNull(i) {
		return "", false
	}
	return s.Format(i), true
}

// Unique returns the distinct non-missing values in order of first appearance.
func (s *Series) Unique() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < s.Len(); i++ {
		k, ok := s.Key(i)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// NUnique returns the number of distinct non-missing values.
func (s *Series) NUnique() int {
	return len(s.Unique())
}

// ValueCount is one entry of ValueCounts.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the count of each non-missing value, most frequent
// first. Ties keep order of first appearance.
func (s *Series) ValueCounts() []ValueCount {
	index := make(map[string]int)
	var out []ValueCount
	for i := 0; i < s.Len(); i++ {
		k, ok := s.Key(i)
		if !ok {
			continue
		}
		if j, seen := index[k]; seen {
			out[j].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, ValueCount{Value: k, Count: 1})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// Mode returns the most frequent non-missing value. Ties resolve to the
// smallest value in lexical order. ok is false when every row is missing.
func (s *Series) Mode() (mode string, ok bool) {
	counts := s.ValueCounts()
	if len(counts) == 0 {
		return "", false
	}
	best := counts[0]
	for _, vc := range counts[1:] {
		if vc.Count < best.Count {
			break
		}
		if vc.Value < best.Value {
			best = vc
		}
	}
	return best.Value, true
}

// MapStrings applies fn to every non-missing categorical value.
func (s *Series) MapStrings(fn func(string) string) *Series {
	out := s.Copy()
	for i := range out.strings {
		if !out.null[i] {
			out.strings[i] = fn(out.strings[i])
		}
	}
	return out
}

// MapFloats applies fn to every numeric value, including NaN.
func (s *Series) MapFloats(fn func(float64) float64) *Series {
	out := s.Copy()
	for i, v := range out.floats {
		out.floats[i] = fn(v)
	}
	return out
}

// ToCategorical converts any series to a categorical one using Format.
func (s *Series) ToCategorical() *Series {
	if s.kind == Categorical {
		return s.Copy()
	}
	n := s.Len()
	values := make([]string, n)
	null := make([]bool, n)
	for i := 0; i < n; i++ {
		values[i] = s.Format(i)
		null[i] = s.IsNull(i)
	}
	return NewCategoricalWithNulls(s.name, values, null)
}
