// Package render writes gonum/plot figures to image files. Every
// visualization strategy draws through a Renderer instead of a display.
package render

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Formats lists the supported output formats.
var Formats = []string{"png", "svg", "jpg", "pdf"}

// Artifact identifies a rendered figure on disk.
type Artifact struct {
	Title string `json:"title" yaml:"title"`
	Path  string `json:"path" yaml:"path"`
}

// Renderer saves plots under Dir using Format. Width and Height are the
// size of a single plot; grids scale with their tile count.
type Renderer struct {
	Dir    string
	Format string
	Width  vg.Length
	Height vg.Length

	logger log.Logger
}

// New returns a renderer writing to dir. Sizes are in inches.
func New(dir, format string, width, height float64) *Renderer {
	if format == "" {
		format = "png"
	}
	return &Renderer{
		Dir:    dir,
		Format: strings.ToLower(format),
		Width:  vg.Length(width) * vg.Inch,
		Height: vg.Length(height) * vg.Inch,
		logger: log.GetLoggerWithName("render"),
	}
}

// Path returns the file a figure called name is written to.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.Dir, Slug(name)+"."+r.Format)
}

// Save writes a single plot.
func (r *Renderer) Save(name string, p *plot.Plot) (Artifact, error) {
	return r.SaveGrid(name, [][]*plot.Plot{{p}})
}

// SaveGrid tiles plots row-major into one figure. Rows may be ragged and
// entries may be nil; empty cells are left blank.
func (r *Renderer) SaveGrid(name string, plots [][]*plot.Plot) (Artifact, error) {
	rows, cols := len(plots), 0
	for _, row := range plots {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if rows == 0 || cols == 0 {
		return Artifact{}, errors.NewValueError("Renderer.SaveGrid", "no plots to render")
	}
	grid := make([][]*plot.Plot, rows)
	for i, row := range plots {
		grid[i] = make([]*plot.Plot, cols)
		copy(grid[i], row)
	}

	canvas, err := draw.NewFormattedCanvas(r.Width*vg.Length(cols), r.Height*vg.Length(rows), r.Format)
	if err != nil {
		return Artifact{}, errors.Wrapf(err, "unsupported format %q", r.Format)
	}
	dc := draw.New(canvas)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	cells := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(cells[i][j])
			}
		}
	}

	path := r.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Artifact{}, errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	file, err := os.Create(path)
	if err != nil {
		return Artifact{}, errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()
	if _, err := canvas.WriteTo(file); err != nil {
		return Artifact{}, errors.Wrapf(err, "failed to write %s", path)
	}

	r.logger.Info("figure rendered", log.PathKey, path, "tiles", rows*cols)
	return Artifact{Title: name, Path: path}, nil
}

// Tile lays plots out row by row, cols per row. The last row may be short.
func Tile(plots []*plot.Plot, cols int) [][]*plot.Plot {
	if cols < 1 {
		cols = 1
	}
	var grid [][]*plot.Plot
	for start := 0; start < len(plots); start += cols {
		end := start + cols
		if end > len(plots) {
			end = len(plots)
		}
		grid = append(grid, plots[start:end])
	}
	return grid
}

// Slug turns a title into a file name: lower case, runs of anything other
// than letters and digits collapsed to "_".
func Slug(title string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "figure"
	}
	return b.String()
}
