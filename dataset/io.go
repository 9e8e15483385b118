package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// ReadCSV reads a header row followed by records. A column whose non-empty
// cells all parse as numbers becomes Numeric; anything else is Categorical.
// Empty cells are missing.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	return fromRecords(records)
}

// LoadCSV reads a CSV file.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()
	return ReadCSV(file)
}

// WriteCSV writes a header row followed by one record per row.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns()); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	for _, record := range f.records() {
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "failed to write CSV record")
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

// SaveCSV writes the frame to a CSV file.
func (f *Frame) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()
	return f.WriteCSV(file)
}

// LoadExcel reads a worksheet. An empty sheet name selects the first sheet.
func LoadExcel(path, sheet string) (*Frame, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer book.Close()

	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
	}
	return fromRecords(rows)
}

// SaveExcel writes the frame to a worksheet of a new workbook. Numeric cells
// are written as numbers and missing cells are left blank.
func (f *Frame) SaveExcel(path, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}
	book := excelize.NewFile()
	defer book.Close()

	if book.GetSheetName(0) != sheet {
		if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
			return errors.Wrap(err, "failed to name sheet")
		}
	}

	for j, name := range f.Columns() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := book.SetCellValue(sheet, cell, name); err != nil {
			return errors.WithStack(err)
		}
	}
	for j, s := range f.cols {
		for i := 0; i < f.nrows; i++ {
			if s.IsNull(i) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return errors.WithStack(err)
			}
			var value interface{} = s.Format(i)
			if s.Kind() == Numeric {
				value = s.Float(i)
			}
			if err := book.SetCellValue(sheet, cell, value); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return errors.WithStack(book.SaveAs(path))
}

// Load dispatches on the file extension: .xlsx uses LoadExcel, anything
// else is read as CSV.
func Load(path, sheet string) (*Frame, error) {
	if strings.EqualFold(extension(path), ".xlsx") {
		return LoadExcel(path, sheet)
	}
	return LoadCSV(path)
}

// Save dispatches on the file extension like Load.
func (f *Frame) Save(path, sheet string) error {
	if strings.EqualFold(extension(path), ".xlsx") {
		return f.SaveExcel(path, sheet)
	}
	return f.SaveCSV(path)
}

func extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

func (f *Frame) records() [][]string {
	out := make([][]string, f.nrows)
	for i := range out {
		record := make([]string, len(f.cols))
		for j, s := range f.cols {
			record[j] = s.Format(i)
		}
		out[i] = record
	}
	return out
}

func fromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "missing header row")
	}
	header := records[0]
	body := records[1:]

	cols := make([]*Series, len(header))
	for j, name := range header {
		cells := make([]string, len(body))
		for i, rec := range body {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		cols[j] = inferSeries(strings.TrimSpace(name), cells)
	}
	return New(cols...)
}

func inferSeries(name string, cells []string) *Series {
	values := make([]float64, len(cells))
	numeric := true
	for i, c := range cells {
		if c == "" {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = v
	}
	if numeric {
		return NewNumeric(name, values)
	}

	null := make([]bool, len(cells))
	for i, c := range cells {
		null[i] = c == ""
	}
	return NewCategoricalWithNulls(name, cells, null)
}
