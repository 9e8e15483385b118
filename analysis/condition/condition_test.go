package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/render"
)

func patients() *dataset.Frame {
	return dataset.MustNew(
		dataset.NewCategorical("Gender", []string{"Male", "Female", "Female", "Male", "Female", "Male"}),
		dataset.NewCategorical("Medical Condition", []string{"Cancer", "Cancer", "Asthma", "Diabetes", "Cancer", "Asthma"}),
		dataset.NewCategorical("Age Group", []string{"Seniors", "Young Adults", "Seniors", "Middle-aged Adults", "Seniors", "Children/Teenagers"}),
	)
}

func TestWordFrequencies(t *testing.T) {
	s := dataset.NewCategoricalWithNulls("Medical Condition",
		[]string{"Cancer", "Heart Disease", "Cancer", "", "Heart Failure"},
		[]bool{false, false, false, true, false})

	words := WordFrequencies(s)
	require.Len(t, words, 4)
	assert.Equal(t, dataset.ValueCount{Value: "Cancer", Count: 2}, words[0])
	assert.Equal(t, dataset.ValueCount{Value: "Heart", Count: 2}, words[1])
}

func TestWordCloud(t *testing.T) {
	r := render.New(t.TempDir(), "png", 6, 3)
	art, err := NewFactory(&WordCloud{Renderer: r}).Execute(patients())
	require.NoError(t, err)
	assert.Equal(t, "Medical Condition Word Cloud", art.Title)
	assert.FileExists(t, art.Path)
}

func TestMedicalCondition(t *testing.T) {
	r := render.New(t.TempDir(), "png", 3, 3)
	art, err := (&MedicalCondition{Renderer: r}).Execute(patients())
	require.NoError(t, err)
	assert.FileExists(t, art.Path)

	df, err := patients().Drop("Age Group")
	require.NoError(t, err)
	_, err = (&MedicalCondition{Renderer: r}).Execute(df)
	var colErr *errors.MissingColumnError
	assert.True(t, errors.As(err, &colErr))
}

func TestDistributionConstructors(t *testing.T) {
	r := render.New(t.TempDir(), "png", 4, 3)
	constructors := []func(*render.Renderer) *Distribution{Cancer, Arthritis, Diabetes, Hypertension, Obesity, Asthma}
	for i, newDist := range constructors {
		assert.Equal(t, Conditions[i], newDist(r).Condition)
	}

	f := NewFactory(Cancer(r))
	art, err := f.Execute(patients())
	require.NoError(t, err)
	assert.Equal(t, "Cancer Distribution by Age Group and Gender", art.Title)
	assert.FileExists(t, art.Path)

	f.SetStrategy(Obesity(r))
	_, err = f.Execute(patients())
	assert.Error(t, err, "no obese patients in the sample")
}

func TestOrderedValues(t *testing.T) {
	s := dataset.NewCategorical("Age Group", []string{"Seniors", "Unknown", "Young Adults", "Seniors"})
	got := orderedValues(s, ageGroupOrder)
	assert.Equal(t, []string{"Young Adults", "Seniors", "Unknown"}, got)
}
