// Package inspection prints and tabulates an overview of a dataset.
package inspection

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// Factory dispatches to one inspection variant.
type Factory = strategy.Factory[*dataset.Frame, *dataset.Frame]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, *dataset.Frame]) *Factory {
	return strategy.NewFactory(s)
}

// Statistic row labels of SummaryStatistics, in order.
var summaryRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// DataInfo prints the shape, dtypes, non-null counts and memory usage of the
// frame and returns it unchanged.
type DataInfo struct {
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Execute writes the overview to Out.
func (d *DataInfo) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	out := writerOrStdout(d.Out)
	fmt.Fprintf(out, "<medlens Frame>\n")
	if df.NRows() > 0 {
		fmt.Fprintf(out, "RangeIndex: %d entries, 0 to %d\n", df.NRows(), df.NRows()-1)
	} else {
		fmt.Fprintf(out, "RangeIndex: 0 entries\n")
	}
	fmt.Fprintf(out, "Data columns (total %d columns):\n", df.NCols())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tDtype")
	fmt.Fprintln(tw, "---\t------\t--------------\t-----")
	kinds := make(map[dataset.Kind]int)
	var bytes int
	for i, s := range df.Series() {
		kinds[s.Kind()]++
		bytes += memoryUsage(s)
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", i, s.Name(), s.Len()-s.NullCount(), s.Kind())
	}
	if err := tw.Flush(); err != nil {
		return nil, errors.WithStack(err)
	}

	var dtypes []string
	for _, k := range []dataset.Kind{dataset.Datetime, dataset.Numeric, dataset.Categorical} {
		if kinds[k] > 0 {
			dtypes = append(dtypes, fmt.Sprintf("%s(%d)", k, kinds[k]))
		}
	}
	fmt.Fprintf(out, "dtypes: %s\n", strings.Join(dtypes, ", "))
	fmt.Fprintf(out, "memory usage: %s\n", humanBytes(bytes))
	return df, nil
}

// SummaryStatistics prints count, mean, std, min, quartiles and max of every
// numeric column and returns that table, one row per statistic.
type SummaryStatistics struct {
	Out io.Writer
}

// Execute writes and returns the statistics table.
func (s *SummaryStatistics) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	numeric := df.SelectKinds(dataset.Numeric)
	if numeric.NCols() == 0 {
		return nil, errors.NewValueError("SummaryStatistics", "frame has no numeric columns to describe")
	}
	cols := []*dataset.Series{dataset.NewCategorical("statistic", summaryRows)}
	for _, c := range numeric.Series() {
		d := Describe(c.Valid())
		cols = append(cols, dataset.NewNumeric(c.Name(), []float64{
			d.Count, d.Mean, d.Std, d.Min, d.Q1, d.Median, d.Q3, d.Max,
		}))
	}
	table, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}
	if err := table.WriteTable(writerOrStdout(s.Out)); err != nil {
		return nil, errors.WithStack(err)
	}
	return table, nil
}

// DescriptiveStatistics returns one row per column with its sample count,
// missing values and cardinality. Numeric columns also get mean, std,
// min, quartiles and max; for other columns those cells are missing.
type DescriptiveStatistics struct{}

// Execute builds the table without printing it.
func (DescriptiveStatistics) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	n := df.NCols()
	names := make([]string, n)
	stats := map[string][]float64{}
	order := []string{"Sample Count", "Missing Values", "Number of Unique", "Unique (%)",
		"mean", "std", "min", "25%", "50%", "75%", "max"}
	for _, k := range order {
		stats[k] = make([]float64, n)
	}

	rows := float64(df.NRows())
	for i, s := range df.Series() {
		names[i] = s.Name()
		unique := float64(s.NUnique())
		stats["Sample Count"][i] = float64(s.Len() - s.NullCount())
		stats["Missing Values"][i] = float64(s.NullCount())
		stats["Number of Unique"][i] = unique
		stats["Unique (%)"][i] = errors.SafeDivide(unique, rows) * 100

		d := Description{Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Q1: math.NaN(),
			Median: math.NaN(), Q3: math.NaN(), Max: math.NaN()}
		if s.Kind() == dataset.Numeric {
			d = Describe(s.Valid())
		}
		for k, v := range map[string]float64{
			"mean": d.Mean, "std": d.Std, "min": d.Min, "25%": d.Q1,
			"50%": d.Median, "75%": d.Q3, "max": d.Max,
		} {
			stats[k][i] = v
		}
	}

	cols := []*dataset.Series{dataset.NewCategorical("Column", names)}
	for _, k := range order {
		cols = append(cols, dataset.NewNumeric(k, stats[k]))
	}
	return dataset.New(cols...)
}

// Description summarizes a numeric sample.
type Description struct {
	Count, Mean, Std, Min, Q1, Median, Q3, Max float64
}

// Describe computes the summary of values. std is the sample standard
// deviation; quantiles interpolate linearly between ranks.
func Describe(values []float64) Description {
	d := Description{Count: float64(len(values))}
	if len(values) == 0 {
		nan := math.NaN()
		d.Mean, d.Std, d.Min, d.Q1, d.Median, d.Q3, d.Max = nan, nan, nan, nan, nan, nan, nan
		return d
	}
	d.Mean = stat.Mean(values, nil)
	d.Std = math.NaN()
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	d.Min = dataset.Quantile(values, 0)
	d.Q1 = dataset.Quantile(values, 0.25)
	d.Median = dataset.Quantile(values, 0.5)
	d.Q3 = dataset.Quantile(values, 0.75)
	d.Max = dataset.Quantile(values, 1)
	return d
}

func memoryUsage(s *dataset.Series) int {
	switch s.Kind() {
	case dataset.Numeric:
		return 8 * s.Len()
	case dataset.Datetime:
		return 24 * s.Len()
	}
	total := 0
	for i := 0; i < s.Len(); i++ {
		total += 17 + len(s.Str(i))
	}
	return total
}

func humanBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d bytes", n)
	}
	v := float64(n)
	for _, suffix := range []string{"KB", "MB", "GB"} {
		v /= unit
		if v < unit {
			return fmt.Sprintf("%.1f+ %s", v, suffix)
		}
	}
	return fmt.Sprintf("%.1f+ TB", v/unit)
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
