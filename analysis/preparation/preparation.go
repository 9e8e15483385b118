// Package preparation derives the Age Group, Billing Category and Length of
// Stay columns and normalizes the free-text categorical columns.
package preparation

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/log"
)

// Factory dispatches to one preparation variant.
type Factory = strategy.Factory[*dataset.Frame, *dataset.Frame]

// NewFactory returns a factory holding s.
func NewFactory(s strategy.Strategy[*dataset.Frame, *dataset.Frame]) *Factory {
	return strategy.NewFactory(s)
}

// Column names read and written by Preparation.
const (
	Age               = "Age"
	BillingAmount     = "Billing Amount"
	DateOfAdmission   = "Date of Admission"
	DischargeDate     = "Discharge Date"
	Gender            = "Gender"
	InsuranceProvider = "Insurance Provider"
	AdmissionType     = "Admission Type"

	AgeGroup        = "Age Group"
	BillingCategory = "Billing Category"
	LengthOfStay    = "Length of Stay"
)

// Required lists the input columns Preparation needs.
var Required = []string{Age, BillingAmount, DateOfAdmission, DischargeDate, Gender, InsuranceProvider, AdmissionType}

// DateLayouts are the admission and discharge date formats accepted.
var DateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Age group labels.
const (
	ChildrenTeenagers = "Children/Teenagers"
	YoungAdults       = "Young Adults"
	MiddleAgedAdults  = "Middle-aged Adults"
	Seniors           = "Seniors"
)

// Billing category labels.
const (
	BillingLow      = "Low"
	BillingMedium   = "Medium"
	BillingHigh     = "High"
	BillingVeryHigh = "Very High"
)

// CategorizeAge buckets an age into half-open ranges [0,20), [20,40),
// [40,60) and [60,inf). ok is false for NaN.
func CategorizeAge(age float64) (label string, ok bool) {
	switch {
	case math.IsNaN(age):
		return "", false
	case age < 20:
		return ChildrenTeenagers, true
	case age < 40:
		return YoungAdults, true
	case age < 60:
		return MiddleAgedAdults, true
	default:
		return Seniors, true
	}
}

// CategorizeBilling buckets a billing amount with boundaries at 1000, 5000
// and 10000. ok is false for NaN.
func CategorizeBilling(amount float64) (label string, ok bool) {
	switch {
	case math.IsNaN(amount):
		return "", false
	case amount < 1000:
		return BillingLow, true
	case amount < 5000:
		return BillingMedium, true
	case amount < 10000:
		return BillingHigh, true
	default:
		return BillingVeryHigh, true
	}
}

// Preparation adds Age Group, Billing Category and Length of Stay, parses
// the date columns and normalizes Gender, Insurance Provider and Admission
// Type. The input frame is updated in place and returned.
type Preparation struct{}

// Execute derives the prepared columns. df must hold every Required column.
func (Preparation) Execute(df *dataset.Frame) (*dataset.Frame, error) {
	if err := df.Require("Preparation", Required...); err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("preparation")

	age, err := df.NumericColumn("Preparation", Age)
	if err != nil {
		return nil, err
	}
	billing, err := df.NumericColumn("Preparation", BillingAmount)
	if err != nil {
		return nil, err
	}
	admission, err := parseDates(df, DateOfAdmission)
	if err != nil {
		return nil, err
	}
	discharge, err := parseDates(df, DischargeDate)
	if err != nil {
		return nil, err
	}

	title := cases.Title(language.English)
	replacements := []struct {
		column string
		fn     func(string) string
	}{
		{Gender, capitalize},
		{InsuranceProvider, func(v string) string { return title.String(strings.TrimSpace(v)) }},
		{AdmissionType, title.String},
	}
	var normalized []*dataset.Series
	for _, r := range replacements {
		s, err := df.Column(r.column)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, s.ToCategorical().MapStrings(r.fn))
	}

	derived := []*dataset.Series{
		admission,
		discharge,
		bucket(AgeGroup, age, CategorizeAge),
		lengthOfStay(admission, discharge),
		bucket(BillingCategory, billing, CategorizeBilling),
	}
	for _, s := range append(derived, normalized...) {
		if err := df.Set(s); err != nil {
			return nil, err
		}
	}
	logger.Info("dataset prepared", log.SamplesKey, df.NRows(), log.ColumnsKey, []string{AgeGroup, BillingCategory, LengthOfStay})
	return df, nil
}

func parseDates(df *dataset.Frame, name string) (*dataset.Series, error) {
	s, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	return dataset.ToDatetime(s, DateLayouts...)
}

func bucket(name string, s *dataset.Series, fn func(float64) (string, bool)) *dataset.Series {
	values := make([]string, s.Len())
	null := make([]bool, s.Len())
	for i := range values {
		values[i], null[i] = fn(s.Float(i))
		null[i] = !null[i]
	}
	return dataset.NewCategoricalWithNulls(name, values, null)
}

// lengthOfStay is the whole number of days between admission and discharge,
// rounded toward negative infinity.
func lengthOfStay(admission, discharge *dataset.Series) *dataset.Series {
	days := make([]float64, admission.Len())
	for i := range days {
		if admission.IsNull(i) || discharge.IsNull(i) {
			days[i] = math.NaN()
			continue
		}
		days[i] = math.Floor(discharge.Time(i).Sub(admission.Time(i)).Hours() / 24)
	}
	return dataset.NewNumeric(LengthOfStay, days)
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(v string) string {
	r, size := utf8.DecodeRuneInString(v)
	if r == utf8.RuneError {
		return v
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(v[size:])
}
