package univariate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/render"
)

func frame() *dataset.Frame {
	return dataset.MustNew(
		dataset.NewNumeric("Age", []float64{15, 25, 45, 65, 33, math.NaN()}),
		dataset.NewNumeric("Billing Amount", []float64{500, 2000, 6000, 12000, 800, 4300}),
		dataset.NewCategorical("Gender", []string{"Male", "Female", "Female", "Male", "Male", "Female"}),
		dataset.NewCategorical("Medication", []string{"Aspirin", "Ibuprofen", "Lipitor", "Paracetamol", "Penicillin", "Aspirin"}),
		dataset.NewCategorical("Blood Type", []string{"A+", "B-", "O+", "AB+", "A+", "O-"}),
	)
}

func TestNumerical(t *testing.T) {
	r := render.New(t.TempDir(), "png", 3, 3)
	art, err := NewFactory(&Numerical{Renderer: r}).Execute(frame())
	require.NoError(t, err)
	assert.Equal(t, "Numerical Univariate Analysis", art.Title)
	assert.FileExists(t, art.Path)
}

func TestCategorical(t *testing.T) {
	r := render.New(t.TempDir(), "svg", 3, 3)
	f := NewFactory(&Categorical{Renderer: r, MaxCategories: 3})
	art, err := f.Execute(frame())
	require.NoError(t, err)
	assert.FileExists(t, art.Path)
	assert.Equal(t, r.Path("Categorical Univariate Analysis"), art.Path)
}

func TestNoMatchingColumns(t *testing.T) {
	r := render.New(t.TempDir(), "png", 3, 3)
	onlyText := dataset.MustNew(dataset.NewCategorical("Gender", []string{"Male"}))
	_, err := (&Numerical{Renderer: r}).Execute(onlyText)
	assert.Error(t, err)

	onlyNumbers := dataset.MustNew(dataset.NewNumeric("Age", []float64{1}))
	_, err = (&Categorical{Renderer: r}).Execute(onlyNumbers)
	assert.Error(t, err)
}
