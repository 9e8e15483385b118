package missing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/dataset"
)

func TestNumericImputerFillsEveryGap(t *testing.T) {
	nan := math.NaN()
	df := dataset.MustNew(
		dataset.NewNumeric("Age", []float64{nan, 20, 30, nan, 50, 60, nan}),
		dataset.NewNumeric("Room Number", []float64{101, nan, 103, 104, 105, 106, 107}),
		dataset.NewNumeric("Empty", []float64{nan, nan, nan, nan, nan, nan, nan}),
		dataset.NewCategoricalWithNulls("Gender", []string{"", "Male", "", "", "", "", ""},
			[]bool{true, false, true, true, true, true, true}),
	)

	out, err := NewFactory(NumericImputer{}).Execute(df)
	require.NoError(t, err)
	assert.Equal(t, df.Columns(), out.Columns())

	age, _ := out.Column("Age")
	assert.Zero(t, age.NullCount())
	assert.Equal(t, 20.0, age.Float(0), "leading gap takes the first observation")
	assert.Equal(t, 60.0, age.Float(6), "trailing gap takes the last observation")
	assert.InDelta(t, 40.0, age.Float(3), 1e-9, "linear data stays linear")

	room, _ := out.Column("Room Number")
	assert.InDelta(t, 102.0, room.Float(1), 1e-9)

	empty, _ := out.Column("Empty")
	assert.Equal(t, 7, empty.NullCount())

	gender, _ := out.Column("Gender")
	assert.Equal(t, 6, gender.NullCount(), "categorical columns are untouched")

	original, _ := df.Column("Age")
	assert.Equal(t, 3, original.NullCount(), "input frame is not modified")
}

func TestNumericImputerSingleObservation(t *testing.T) {
	nan := math.NaN()
	df := dataset.MustNew(dataset.NewNumeric("Billing Amount", []float64{nan, 750, nan}))

	out, err := NumericImputer{}.Execute(df)
	require.NoError(t, err)
	s, _ := out.Column("Billing Amount")
	assert.Equal(t, []float64{750, 750, 750}, s.Floats())
}

func TestCategoricalImputer(t *testing.T) {
	blood := dataset.NewCategoricalWithNulls("Blood Type",
		[]string{"B+", "A+", "", "B+", "A+"}, []bool{false, false, true, false, false})
	empty := dataset.NewCategoricalWithNulls("Medication",
		[]string{"", "", "", "", ""}, []bool{true, true, true, true, true})
	age := dataset.NewNumeric("Age", []float64{1, math.NaN(), 3, 4, 5})
	df := dataset.MustNew(blood, empty, age)

	out, err := NewFactory(CategoricalImputer{}).Execute(df)
	require.NoError(t, err)

	filled, _ := out.Column("Blood Type")
	assert.Zero(t, filled.NullCount())
	assert.Equal(t, "A+", filled.Str(2), "ties go to the lexically smallest value")

	unchanged, _ := out.Column("Medication")
	assert.Equal(t, 5, unchanged.NullCount())

	num, _ := out.Column("Age")
	assert.Equal(t, 1, num.NullCount())
}
