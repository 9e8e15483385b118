package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// WriteTable prints the frame as aligned text columns with a leading row
// position, the way a notebook would display it. Missing values print as NaN.
func (f *Frame) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(f.Columns(), "\t"))
	for i := 0; i < f.nrows; i++ {
		cells := make([]string, len(f.cols))
		for j, c := range f.cols {
			cells[j] = displayCell(c, i)
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func displayCell(s *Series, i int) string {
	if s.IsNull(i) {
		return "NaN"
	}
	if s.Kind() == Numeric {
		return strconv.FormatFloat(s.Float(i), 'g', 6, 64)
	}
	return s.Format(i)
}

// Records returns one map per row keyed by column name, suitable for JSON or
// YAML encoding. Missing values are nil.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.nrows)
	for i := range out {
		row := make(map[string]any, len(f.cols))
		for _, c := range f.cols {
			switch {
			case c.IsNull(i):
				row[c.Name()] = nil
			case c.Kind() == Numeric:
				row[c.Name()] = c.Float(i)
			default:
				row[c.Name()] = c.Format(i)
			}
		}
		out[i] = row
	}
	return out
}
