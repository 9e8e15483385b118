package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// OtherLabel collects the categories beyond the display limit.
const OtherLabel = "Other"

// Counts returns category labels and their counts, most frequent first.
// When maxCategories > 0 the tail is folded into OtherLabel.
func Counts(s *dataset.Series, maxCategories int) ([]string, plotter.Values) {
	vc := s.ValueCounts()
	var labels []string
	var counts plotter.Values
	other := 0
	for i, c := range vc {
		if maxCategories > 0 && i >= maxCategories {
			other += c.Count
			continue
		}
		labels = append(labels, c.Value)
		counts = append(counts, float64(c.Count))
	}
	if other > 0 {
		labels = append(labels, OtherLabel)
		counts = append(counts, float64(other))
	}
	return labels, counts
}

// NewPlot returns a plot with title and axis labels set.
func NewPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

// RotateXTicks slants nominal x labels so long category names stay readable.
func RotateXTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// BarChart draws one bar per label.
func BarChart(title, xlabel, ylabel string, labels []string, values plotter.Values) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, errors.NewValueError("render.BarChart", fmt.Sprintf("%s: no values to plot", title))
	}
	p := NewPlot(title, xlabel, ylabel)
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	if len(labels) > 4 {
		RotateXTicks(p)
	}
	return p, nil
}

// CountChart draws the category counts of s.
func CountChart(title string, s *dataset.Series, maxCategories int) (*plot.Plot, error) {
	labels, counts := Counts(s, maxCategories)
	return BarChart(title, s.Name(), "count", labels, counts)
}

// GroupedBars draws len(groups) bar series side by side over categories.
// values[g][c] is the height of group g in category c.
func GroupedBars(title, xlabel, ylabel string, categories, groups []string, values [][]float64) (*plot.Plot, error) {
	if len(categories) == 0 || len(groups) == 0 {
		return nil, errors.NewValueError("render.GroupedBars", fmt.Sprintf("%s: no values to plot", title))
	}
	p := NewPlot(title, xlabel, ylabel)
	width := vg.Points(10)
	for g, name := range groups {
		bars, err := plotter.NewBarChart(plotter.Values(values[g]), width)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		bars.Color = plotutil.Color(g)
		bars.LineStyle.Width = 0
		bars.Offset = width * vg.Length(2*g-len(groups)+1) / 2
		p.Add(bars)
		p.Legend.Add(name, bars)
	}
	p.Legend.Top = true
	p.NominalX(categories...)
	if len(categories) > 4 {
		RotateXTicks(p)
	}
	return p, nil
}

// Histogram draws a density-normalized histogram of values with a Gaussian
// kernel density estimate on top.
func Histogram(title, xlabel string, values []float64) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, errors.NewValueError("render.Histogram", fmt.Sprintf("%s: no values to plot", title))
	}
	p := NewPlot(title, xlabel, "density")
	hist, err := plotter.NewHist(plotter.Values(values), SturgesBins(len(values)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	hist.Normalize(1)
	hist.FillColor = plotutil.Color(0)
	p.Add(hist)

	if kde := DensityLine(values, 100); kde != nil {
		line, err := plotter.NewLine(kde)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		line.Color = plotutil.Color(1)
		line.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

// SturgesBins returns ceil(log2 n) + 1.
func SturgesBins(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// DensityLine evaluates a Gaussian KDE with Scott's bandwidth at points
// evenly spaced over the data range padded by three bandwidths. It returns
// nil when the data has no spread.
func DensityLine(values []float64, points int) plotter.XYs {
	n := float64(len(values))
	std := stat.StdDev(values, nil)
	if len(values) < 2 || std == 0 || math.IsNaN(std) {
		return nil
	}
	bw := std * math.Pow(n, -1.0/5)
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo, hi = lo-3*bw, hi+3*bw

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	xys := make(plotter.XYs, points)
	step := (hi - lo) / float64(points-1)
	for i := range xys {
		x := lo + float64(i)*step
		var d float64
		for _, v := range values {
			d += kernel.Prob(x - v)
		}
		xys[i] = plotter.XY{X: x, Y: d / n}
	}
	return xys
}

// BoxPlots draws one box per group at positions 0..n-1.
func BoxPlots(title, xlabel, ylabel string, names []string, groups [][]float64) (*plot.Plot, error) {
	p := NewPlot(title, xlabel, ylabel)
	var labels []string
	for i, values := range groups {
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(len(labels)), plotter.Values(values))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
		labels = append(labels, names[i])
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("render.BoxPlots", fmt.Sprintf("%s: no values to plot", title))
	}
	p.NominalX(labels...)
	if len(labels) > 4 {
		RotateXTicks(p)
	}
	return p, nil
}

// matrixGrid adapts a matrix to plotter.GridXYZ with row 0 drawn on top.
type matrixGrid struct {
	m        mat.Matrix
	min, max float64
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }
func (g matrixGrid) Min() float64    { return g.min }
func (g matrixGrid) Max() float64    { return g.max }

// HeatmapOptions controls Heatmap.
type HeatmapOptions struct {
	// Min and Max fix the color scale; when equal the data range is used.
	Min, Max float64
	// Annotate writes each cell value using Format.
	Annotate bool
	Format   string
	// ColorMap defaults to moreland.Kindlmann.
	ColorMap palette.ColorMap
}

// Heatmap draws z with xLabels along the columns and yLabels down the rows.
func Heatmap(title, xlabel, ylabel string, z mat.Matrix, xLabels, yLabels []string, opts HeatmapOptions) (*plot.Plot, error) {
	rows, cols := z.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewValueError("render.Heatmap", fmt.Sprintf("%s: empty matrix", title))
	}
	lo, hi := opts.Min, opts.Max
	if lo == hi {
		lo, hi = mat.Min(z), mat.Max(z)
	}
	cm := opts.ColorMap
	if cm == nil {
		cm = moreland.Kindlmann()
	}

	p := NewPlot(title, xlabel, ylabel)
	heat := plotter.NewHeatMap(matrixGrid{m: z, min: lo, max: hi}, cm.Palette(255))
	p.Add(heat)

	if opts.Annotate {
		format := opts.Format
		if format == "" {
			format = "%.2f"
		}
		var xys plotter.XYs
		var labels []string
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				xys = append(xys, plotter.XY{X: float64(j), Y: float64(rows - 1 - i)})
				labels = append(labels, fmt.Sprintf(format, z.At(i, j)))
			}
		}
		annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for i := range annotations.TextStyle {
			annotations.TextStyle[i].XAlign = text.XCenter
			annotations.TextStyle[i].YAlign = text.YCenter
			annotations.TextStyle[i].Color = plotutil.Color(1)
		}
		p.Add(annotations)
	}

	if xLabels != nil {
		p.NominalX(xLabels...)
		if len(xLabels) > 4 {
			RotateXTicks(p)
		}
	}
	if yLabels != nil {
		reversed := make([]string, len(yLabels))
		for i, l := range yLabels {
			reversed[len(yLabels)-1-i] = l
		}
		p.NominalY(reversed...)
	}
	return p, nil
}

// Scatter draws one point per (x, y) pair.
func Scatter(title, xlabel, ylabel string, xys plotter.XYs) (*plot.Plot, error) {
	if len(xys) == 0 {
		return nil, errors.NewValueError("render.Scatter", fmt.Sprintf("%s: no points to plot", title))
	}
	p := NewPlot(title, xlabel, ylabel)
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.GlyphStyle.Color = plotutil.Color(0)
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	return p, nil
}

// Line joins xys in order with a line and marks each point.
func Line(title, xlabel, ylabel string, xys plotter.XYs) (*plot.Plot, error) {
	if len(xys) == 0 {
		return nil, errors.NewValueError("render.Line", fmt.Sprintf("%s: no points to plot", title))
	}
	p := NewPlot(title, xlabel, ylabel)
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	line.Color = plotutil.Color(0)
	points.Color = plotutil.Color(0)
	p.Add(line, points)
	return p, nil
}

// binGrid is a 2D histogram laid out on the data coordinates of its bin
// centers.
type binGrid struct {
	counts         [][]float64 // [x][y]
	x0, y0, dx, dy float64
	max            float64
}

func (g binGrid) Dims() (c, r int)   { return len(g.counts), len(g.counts[0]) }
func (g binGrid) Z(c, r int) float64 { return g.counts[c][r] }
func (g binGrid) X(c int) float64    { return g.x0 + (float64(c)+0.5)*g.dx }
func (g binGrid) Y(r int) float64    { return g.y0 + (float64(r)+0.5)*g.dy }
func (g binGrid) Min() float64       { return 0 }
func (g binGrid) Max() float64       { return g.max }

// Histogram2D counts the (x, y) pairs in a bins x bins grid spanning the data
// range and draws the counts as a heatmap.
func Histogram2D(title, xlabel, ylabel string, xys plotter.XYs, bins int) (*plot.Plot, error) {
	if len(xys) == 0 {
		return nil, errors.NewValueError("render.Histogram2D", fmt.Sprintf("%s: no points to plot", title))
	}
	if bins < 1 {
		return nil, errors.NewValueError("render.Histogram2D", fmt.Sprintf("bins must be positive, got %d", bins))
	}
	xmin, xmax, ymin, ymax := plotter.XYRange(xys)
	g := binGrid{x0: xmin, y0: ymin, dx: binWidth(xmin, xmax, bins), dy: binWidth(ymin, ymax, bins)}
	g.counts = make([][]float64, bins)
	for i := range g.counts {
		g.counts[i] = make([]float64, bins)
	}
	for _, pt := range xys {
		c := binIndex(pt.X, xmin, g.dx, bins)
		r := binIndex(pt.Y, ymin, g.dy, bins)
		g.counts[c][r]++
		g.max = math.Max(g.max, g.counts[c][r])
	}

	p := NewPlot(title, xlabel, ylabel)
	heat := plotter.NewHeatMap(g, palette.Reverse(moreland.BlackBody()).Palette(255))
	p.Add(heat)
	return p, nil
}

func binWidth(lo, hi float64, bins int) float64 {
	if hi <= lo {
		return 1
	}
	return (hi - lo) / float64(bins)
}

func binIndex(v, lo, width float64, bins int) int {
	i := int((v - lo) / width)
	if i >= bins {
		i = bins - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
