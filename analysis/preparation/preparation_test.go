package preparation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
)

func TestCategorizeAgeBoundaries(t *testing.T) {
	tests := []struct {
		age  float64
		want string
	}{
		{0, ChildrenTeenagers},
		{19.99, ChildrenTeenagers},
		{20, YoungAdults},
		{39.5, YoungAdults},
		{40, MiddleAgedAdults},
		{59, MiddleAgedAdults},
		{60, Seniors},
		{101, Seniors},
	}
	for _, tt := range tests {
		got, ok := CategorizeAge(tt.age)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "age %v", tt.age)
	}
	_, ok := CategorizeAge(math.NaN())
	assert.False(t, ok)
}

func TestCategorizeBillingBoundaries(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{-10, BillingLow},
		{999.99, BillingLow},
		{1000, BillingMedium},
		{4999, BillingMedium},
		{5000, BillingHigh},
		{9999.99, BillingHigh},
		{10000, BillingVeryHigh},
	}
	for _, tt := range tests {
		got, ok := CategorizeBilling(tt.amount)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "amount %v", tt.amount)
	}
	_, ok := CategorizeBilling(math.NaN())
	assert.False(t, ok)
}

func admissions() *dataset.Frame {
	return dataset.MustNew(
		dataset.NewNumeric(Age, []float64{15, 25, 45, 65}),
		dataset.NewNumeric(BillingAmount, []float64{500, 2000, 6000, 12000}),
		dataset.NewCategorical(DateOfAdmission, []string{"2024-01-01", "2024/02/10", "03/01/2024", "not a date"}),
		dataset.NewCategorical(DischargeDate, []string{"2024-01-05", "2024-02-10", "2024-03-15 12:00:00", "2024-04-01"}),
		dataset.NewCategorical(Gender, []string{"male", "FEMALE", "Female", "mALE"}),
		dataset.NewCategorical(InsuranceProvider, []string{"  blue cross ", "aetna", "UNITEDHEALTHCARE", "medicare"}),
		dataset.NewCategorical(AdmissionType, []string{"emergency", "Elective", "URGENT", "urgent"}),
	)
}

func TestPreparationScenario(t *testing.T) {
	df := admissions()
	out, err := NewFactory(Preparation{}).Execute(df)
	require.NoError(t, err)

	ageGroup, err := out.Column(AgeGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{ChildrenTeenagers, YoungAdults, MiddleAgedAdults, Seniors}, ageGroup.Strings())

	billing, err := out.Column(BillingCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{BillingLow, BillingMedium, BillingHigh, BillingVeryHigh}, billing.Strings())

	stay, err := out.Column(LengthOfStay)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stay.Float(0))
	assert.Equal(t, 0.0, stay.Float(1))
	assert.Equal(t, 14.0, stay.Float(2), "partial days are floored")
	assert.True(t, stay.IsNull(3), "unparsable admission date")

	admitted, _ := out.Column(DateOfAdmission)
	assert.Equal(t, dataset.Datetime, admitted.Kind())

	gender, _ := out.Column(Gender)
	assert.Equal(t, []string{"Male", "Female", "Female", "Male"}, gender.Strings())
	insurance, _ := out.Column(InsuranceProvider)
	assert.Equal(t, []string{"Blue Cross", "Aetna", "Unitedhealthcare", "Medicare"}, insurance.Strings())
	admission, _ := out.Column(AdmissionType)
	assert.Equal(t, []string{"Emergency", "Elective", "Urgent", "Urgent"}, admission.Strings())
}

func TestPreparationMissingValues(t *testing.T) {
	df := admissions()
	require.NoError(t, df.Set(dataset.NewNumeric(Age, []float64{math.NaN(), 25, 45, 65})))
	require.NoError(t, df.Set(dataset.NewCategoricalWithNulls(Gender,
		[]string{"", "male", "female", "male"}, []bool{true, false, false, false})))

	out, err := Preparation{}.Execute(df)
	require.NoError(t, err)

	ageGroup, _ := out.Column(AgeGroup)
	assert.True(t, ageGroup.IsNull(0))
	gender, _ := out.Column(Gender)
	assert.True(t, gender.IsNull(0))
}

func TestPreparationRequiresColumns(t *testing.T) {
	df, err := admissions().Drop(DischargeDate)
	require.NoError(t, err)

	_, err = Preparation{}.Execute(df)
	var colErr *errors.MissingColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, DischargeDate, colErr.Column)
}
