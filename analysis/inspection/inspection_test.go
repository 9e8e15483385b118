package inspection

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/dataset"
)

func patients() *dataset.Frame {
	return dataset.MustNew(
		dataset.NewNumeric("Age", []float64{15, 25, math.NaN(), 65}),
		dataset.NewCategorical("Gender", []string{"Male", "Female", "Female", "Male"}),
		dataset.NewNumeric("Billing Amount", []float64{500, 2000, 6000, 12000}),
	)
}

func TestDataInfoPrintsDtypes(t *testing.T) {
	var buf bytes.Buffer
	df := patients()

	out, err := NewFactory(&DataInfo{Out: &buf}).Execute(df)
	require.NoError(t, err)
	assert.Same(t, df, out)

	text := buf.String()
	assert.Contains(t, text, "RangeIndex: 4 entries, 0 to 3")
	assert.Contains(t, text, "Data columns (total 3 columns)")
	assert.Contains(t, text, "3 non-null")
	assert.Contains(t, text, "dtypes: float64(2), object(1)")
	assert.Contains(t, text, "memory usage:")
}

func TestSummaryStatistics(t *testing.T) {
	var buf bytes.Buffer
	table, err := (&SummaryStatistics{Out: &buf}).Execute(patients())
	require.NoError(t, err)

	assert.Equal(t, []string{"statistic", "Age", "Billing Amount"}, table.Columns())
	billing, err := table.Column("Billing Amount")
	require.NoError(t, err)
	assert.Equal(t, 4.0, billing.Float(0))
	assert.Equal(t, 5125.0, billing.Float(1))
	assert.Equal(t, 500.0, billing.Float(3))
	assert.Equal(t, 1625.0, billing.Float(4))
	assert.Equal(t, 12000.0, billing.Float(7))

	age, err := table.Column("Age")
	require.NoError(t, err)
	assert.Equal(t, 3.0, age.Float(0))
	assert.Contains(t, buf.String(), "Billing Amount")
}

func TestSummaryStatisticsWithoutNumericColumns(t *testing.T) {
	df := dataset.MustNew(dataset.NewCategorical("Gender", []string{"Male"}))
	_, err := (&SummaryStatistics{Out: &bytes.Buffer{}}).Execute(df)
	assert.Error(t, err)
}

func TestDescriptiveStatistics(t *testing.T) {
	desc, err := DescriptiveStatistics{}.Execute(patients())
	require.NoError(t, err)
	require.Equal(t, 3, desc.NRows())

	count, _ := desc.Column("Sample Count")
	missing, _ := desc.Column("Missing Values")
	unique, _ := desc.Column("Number of Unique")
	pct, _ := desc.Column("Unique (%)")
	mean, _ := desc.Column("mean")

	assert.Equal(t, []float64{3, 4, 4}, count.Floats())
	assert.Equal(t, []float64{1, 0, 0}, missing.Floats())
	assert.Equal(t, []float64{3, 2, 4}, unique.Floats())
	assert.Equal(t, 50.0, pct.Float(1))
	assert.InDelta(t, 35.0, mean.Float(0), 1e-9)
	assert.True(t, mean.IsNull(1))
}

func TestDescribeSampleStd(t *testing.T) {
	d := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, d.Mean)
	assert.InDelta(t, 2.138, d.Std, 1e-3)
	assert.Equal(t, 4.0, d.Q1)
	assert.Equal(t, 4.5, d.Median)
	assert.Equal(t, 5.5, d.Q3)

	single := Describe([]float64{3})
	assert.True(t, math.IsNaN(single.Std))
}
