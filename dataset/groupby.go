package dataset

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// AggFunc reduces the non-missing values of one group to a scalar.
type AggFunc func(values []float64) float64

// Mean is the arithmetic mean; NaN for an empty group.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Median averages the two middle values for even-sized groups.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks, the pandas default. NaN for empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// Count is the number of non-missing values.
func Count(values []float64) float64 {
	return float64(len(values))
}

// Grouping is the result of Frame.GroupBy.
type Grouping struct {
	frame  *Frame
	keys   []*Series
	groups [][]int
	labels [][]string
	aggs   []aggregation
}

type aggregation struct {
	column string
	fn     AggFunc
	out    string
	size   bool
}

// GroupBy groups rows by the given key columns. Rows with a missing key are
// dropped. Groups are ordered by their key values.
func (f *Frame) GroupBy(keys ...string) (*Grouping, error) {
	if len(keys) == 0 {
		return nil, errors.NewValueError("Frame.GroupBy", "at least one key is required")
	}
	g := &Grouping{frame: f}
	for _, k := range keys {
		s, err := f.Column(k)
		if err != nil {
			return nil, errors.NewMissingColumnError("Frame.GroupBy", k, f.Columns())
		}
		g.keys = append(g.keys, s)
	}

	index := make(map[string]int)
rows:
	for i := 0; i < f.NRows(); i++ {
		label := make([]string, len(g.keys))
		for j, s := range g.keys {
			v, ok := s.Key(i)
			if !ok {
				continue rows
			}
			label[j] = v
		}
		id := strings.Join(label, "\x00")
		gi, seen := index[id]
		if !seen {
			gi = len(g.groups)
			index[id] = gi
			g.groups = append(g.groups, nil)
			g.labels = append(g.labels, label)
		}
		g.groups[gi] = append(g.groups[gi], i)
	}

	order := make([]int, len(g.groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.lessRows(g.groups[order[a]][0], g.groups[order[b]][0])
	})
	groups := make([][]int, len(order))
	labels := make([][]string, len(order))
	for i, o := range order {
		groups[i], labels[i] = g.groups[o], g.labels[o]
	}
	g.groups, g.labels = groups, labels
	return g, nil
}

// lessRows orders two groups by the key values of their first rows.
func (g *Grouping) lessRows(a, b int) bool {
	for _, s := range g.keys {
		switch s.Kind() {
		case Numeric:
			if s.Float(a) != s.Float(b) {
				return s.Float(a) < s.Float(b)
			}
		case Datetime:
			if !s.Time(a).Equal(s.Time(b)) {
				return s.Time(a).Before(s.Time(b))
			}
		default:
			if s.Str(a) != s.Str(b) {
				return s.Str(a) < s.Str(b)
			}
		}
	}
	return false
}

// NGroups returns the number of groups.
func (g *Grouping) NGroups() int { return len(g.groups) }

// Agg adds an aggregation of column named out.
func (g *Grouping) Agg(column string, fn AggFunc, out string) *Grouping {
	g.aggs = append(g.aggs, aggregation{column: column, fn: fn, out: out})
	return g
}

// Size adds a column counting the rows of each group.
func (g *Grouping) Size(out string) *Grouping {
	g.aggs = append(g.aggs, aggregation{out: out, size: true})
	return g
}

// Frame materializes the grouping: one row per group with the key columns
// followed by the aggregations in the order they were added.
func (g *Grouping) Frame() (*Frame, error) {
	var cols []*Series
	for j, s := range g.keys {
		if s.Kind() == Numeric {
			values := make([]float64, len(g.groups))
			for i, rows := range g.groups {
				values[i] = s.Float(rows[0])
			}
			cols = append(cols, NewNumeric(s.Name(), values))
			continue
		}
		values := make([]string, len(g.labels))
		for i, label := range g.labels {
			values[i] = label[j]
		}
		cols = append(cols, NewCategorical(s.Name(), values))
	}

	for _, a := range g.aggs {
		values := make([]float64, len(g.groups))
		if a.size {
			for i, rows := range g.groups {
				values[i] = float64(len(rows))
			}
			cols = append(cols, NewNumeric(a.out, values))
			continue
		}
		s, err := g.frame.NumericColumn("Grouping.Agg", a.column)
		if err != nil {
			return nil, err
		}
		for i, rows := range g.groups {
			group := make([]float64, 0, len(rows))
			for _, r := range rows {
				if !s.IsNull(r) {
					group = append(group, s.Float(r))
				}
			}
			values[i] = a.fn(group)
		}
		cols = append(cols, NewNumeric(a.out, values))
	}
	return New(cols...)
}

// Groups returns each group's key values and row positions.
func (g *Grouping) Groups() (labels [][]string, rows [][]int) {
	return g.labels, g.groups
}
