package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/medlens/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		rows     int
		cols     int
		wantMean []float64
		wantStd  []float64
	}{
		{
			name:     "two features",
			data:     []float64{1, 10, 2, 20, 3, 30, 4, 40},
			rows:     4,
			cols:     2,
			wantMean: []float64{2.5, 25},
			wantStd:  []float64{math.Sqrt(1.25), math.Sqrt(125)},
		},
		{
			name:     "constant feature keeps scale 1",
			data:     []float64{5, 1, 5, 2, 5, 3},
			rows:     3,
			cols:     2,
			wantMean: []float64{5, 2},
			wantStd:  []float64{1, math.Sqrt(2.0 / 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X := mat.NewDense(tt.rows, tt.cols, tt.data)
			scaler := NewStandardScalerDefault()
			scaled, err := scaler.FitTransform(X)
			if err != nil {
				t.Fatalf("FitTransform() error = %v", err)
			}
			for j := 0; j < tt.cols; j++ {
				if math.Abs(scaler.Mean[j]-tt.wantMean[j]) > 1e-10 {
					t.Errorf("Mean[%d] = %v, want %v", j, scaler.Mean[j], tt.wantMean[j])
				}
				if math.Abs(scaler.Scale[j]-tt.wantStd[j]) > 1e-10 {
					t.Errorf("Scale[%d] = %v, want %v", j, scaler.Scale[j], tt.wantStd[j])
				}
			}

			col := mat.Col(nil, 1, scaled)
			mean, std := stat.PopMeanStdDev(col, nil)
			if math.Abs(mean) > 1e-10 {
				t.Errorf("scaled mean = %v, want 0", mean)
			}
			if math.Abs(std-1) > 1e-10 {
				t.Errorf("scaled std = %v, want 1", std)
			}

			back, err := scaler.InverseTransform(scaled)
			if err != nil {
				t.Fatalf("InverseTransform() error = %v", err)
			}
			if !mat.EqualApprox(back, X, 1e-10) {
				t.Errorf("InverseTransform() = %v, want %v", mat.Formatted(back), mat.Formatted(X))
			}
		})
	}
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Fatalf("Transform() before Fit error = %v, want NotFittedError", err)
	}

	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("Transform() with 3 features error = %v, want DimensionError", err)
	}

	err = scaler.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}))
	var valueErr *errors.ValueError
	if !errors.As(err, &valueErr) {
		t.Errorf("Fit() with NaN error = %v, want ValueError", err)
	}
}

func TestOrdinalEncoderRoundTrip(t *testing.T) {
	X := [][]string{
		{"Male", "Urgent"},
		{"Female", "Elective"},
		{"Female", "Emergency"},
		{"Male", "Urgent"},
	}
	enc := NewOrdinalEncoder()
	codes, err := enc.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	want := mat.NewDense(4, 2, []float64{1, 2, 0, 0, 0, 1, 1, 2})
	if !mat.Equal(codes, want) {
		t.Errorf("codes = %v, want %v", mat.Formatted(codes), mat.Formatted(want))
	}

	back, err := enc.InverseTransform(codes)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}
	for i := range X {
		for j := range X[i] {
			if back[i][j] != X[i][j] {
				t.Errorf("back[%d][%d] = %q, want %q", i, j, back[i][j], X[i][j])
			}
		}
	}

	_, err = enc.Transform([][]string{{"Other", "Urgent"}})
	var valueErr *errors.ValueError
	if !errors.As(err, &valueErr) {
		t.Errorf("Transform() unknown category error = %v, want ValueError", err)
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder()
	y := []string{"Normal", "Abnormal", "Inconclusive", "Normal"}
	codes, err := enc.FitTransform(y)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	want := []float64{2, 0, 1, 2}
	for i, w := range want {
		if codes.AtVec(i) != w {
			t.Errorf("code[%d] = %v, want %v", i, codes.AtVec(i), w)
		}
	}
	back, err := enc.InverseTransform(codes)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}
	for i := range y {
		if back[i] != y[i] {
			t.Errorf("back[%d] = %q, want %q", i, back[i], y[i])
		}
	}
	if _, err := enc.InverseTransform(mat.NewVecDense(1, []float64{3})); err == nil {
		t.Error("InverseTransform() of code 3 should fail")
	}
}
