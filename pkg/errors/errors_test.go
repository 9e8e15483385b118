package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "medlens: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "medlens: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 1)

	want := "medlens: Predict: dimension mismatch on axis 1 (features). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RandomForestClassifier", "Predict")

	want := "medlens: RandomForestClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("Preparation", "Age", []string{"Name", "Gender"})

	want := `medlens: Preparation: column "Age" not found (available: Name, Gender)`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var colErr *MissingColumnError
	if !As(err, &colErr) {
		t.Fatal("Error should be castable to *MissingColumnError")
	}
	if colErr.Column != "Age" {
		t.Errorf("Column = %q, want %q", colErr.Column, "Age")
	}
}

func TestNewSchemaMismatchError(t *testing.T) {
	err := NewSchemaMismatchError("Matrix", "Gender", "numeric", "categorical")

	want := `medlens: Matrix: column "Gender" has schema categorical, expected numeric`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var schemaErr *SchemaMismatchError
	if !As(err, &schemaErr) {
		t.Error("Error should be castable to *SchemaMismatchError")
	}
}

func TestNewModelLoadError(t *testing.T) {
	cause := fmt.Errorf("no such file")
	err := NewModelLoadError("model.gob", cause)

	if !strings.Contains(err.Error(), "model.gob") {
		t.Errorf("Error() = %v, want it to mention the path", err.Error())
	}
	if !Is(err, cause) {
		t.Error("ModelLoadError should unwrap to its cause")
	}

	var loadErr *ModelLoadError
	if !As(err, &loadErr) {
		t.Error("Error should be castable to *ModelLoadError")
	}
}

func TestNewIncompatibleFeatureSetError(t *testing.T) {
	err := NewIncompatibleFeatureSetError([]string{"Age", "Gender"}, []string{"Gender", "Age"})

	want := "medlens: incompatible feature set: model was trained on [Age, Gender], got [Gender, Age]"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var featErr *IncompatibleFeatureSetError
	if !As(err, &featErr) {
		t.Error("Error should be castable to *IncompatibleFeatureSetError")
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("chi2", "input X must be non-negative")

	if err.Error() != "medlens: chi2: input X must be non-negative" {
		t.Errorf("Error() = %v", err.Error())
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	want := "'precision' is ill-defined and being set to 0.000000 due to no predicted samples."
	if got[0].Error() != want {
		t.Errorf("Error() = %v, want %v", got[0].Error(), want)
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "ReadCSV", 1)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in ReadCSV: expected 1 rows"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("Fit", []float64{1, 2, 3}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("Fit", []float64{1, nanValue(), 3})
	if err == nil {
		t.Fatal("expected error for NaN input")
	}
	if !strings.Contains(err.Error(), "position 1") {
		t.Errorf("Error() = %v, want position 1", err.Error())
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %v, want 0", got)
	}
	if got := SafeDivide(3, 2); got != 1.5 {
		t.Errorf("SafeDivide(3, 2) = %v, want 1.5", got)
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
