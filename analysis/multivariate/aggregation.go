package multivariate

import (
	"math"

	"github.com/YuminosukeSato/medlens/dataset"
)

// Columns used by the aggregations.
const (
	ageGroup          = "Age Group"
	gender            = "Gender"
	medicalCondition  = "Medical Condition"
	admissionType     = "Admission Type"
	insuranceProvider = "Insurance Provider"
	bloodType         = "Blood Type"
	medication        = "Medication"
	billingAmount     = "Billing Amount"
	roomNumber        = "Room Number"
	lengthOfStay      = "Length of Stay"
	patientCount      = "Patient Count"
	count             = "Count"
)

// TopN is the number of rows kept by the ranked aggregations.
const TopN = 10

// DataAggregation computes the grouped summaries of a prepared dataset. The
// frame needs the Age Group and Length of Stay columns added by preparation.
// Every summary is also available on its own.
type DataAggregation struct{}

// Execute returns all thirteen summaries in a fixed order.
func (a DataAggregation) Execute(df *dataset.Frame) (Result, error) {
	summaries := []struct {
		name string
		fn   func(*dataset.Frame) (*dataset.Frame, error)
	}{
		{"top_billing_by_age_medical_gender", a.TopBillingByAgeMedicalGender},
		{"median_billing_by_admission_insurance", a.MedianBillingByAdmissionInsurance},
		{"patient_count_by_blood_age_gender", a.PatientCountByBloodAgeGender},
		{"mean_billing_room_by_age_admission", a.MeanBillingRoomByAgeAdmission},
		{"average_length_of_stay_by_age_gender", a.AverageLengthOfStayByAgeGender},
		{"top_medications_by_medical_condition", a.TopMedicationsByMedicalCondition},
		{"patient_count_by_medical_age_gender", a.PatientCountByMedicalAgeGender},
		{"avg_billing_by_admission_medical_gender", a.AvgBillingByAdmissionMedicalGender},
		{"median_length_of_stay_by_age_insurance", a.MedianLengthOfStayByAgeInsurance},
		{"avg_billing_by_blood_age_gender", a.AvgBillingByBloodAgeGender},
		{"patient_count_by_admission_age_gender", a.PatientCountByAdmissionAgeGender},
		{"avg_billing_by_medication_age_gender", a.AvgBillingByMedicationAgeGender},
		{"avg_length_of_stay_by_admission_age_gender", a.AvgLengthOfStayByAdmissionAgeGender},
	}
	var res Result
	for _, s := range summaries {
		table, err := s.fn(df)
		if err != nil {
			return Result{}, err
		}
		res.Tables = append(res.Tables, Table{Name: s.name, Frame: table})
	}
	return res, nil
}

type measure struct {
	column string
	fn     dataset.AggFunc
}

// summarize groups df by keys, applies the measures (a row count named
// sizeName when measures is empty), sorts by sortBy descending and keeps the
// first limit rows. An empty sortBy keeps the groups in key order. limit <= 0
// keeps every row.
func summarize(df *dataset.Frame, keys []string, measures []measure, sizeName, sortBy string, limit int) (*dataset.Frame, error) {
	if err := df.Require("DataAggregation", keys...); err != nil {
		return nil, err
	}
	for _, m := range measures {
		if err := df.Require("DataAggregation", m.column); err != nil {
			return nil, err
		}
	}
	g, err := df.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	if len(measures) == 0 {
		g.Size(sizeName)
	}
	for _, m := range measures {
		g.Agg(m.column, m.fn, m.column)
	}
	out, err := g.Frame()
	if err != nil {
		return nil, err
	}
	if sortBy != "" {
		if out, err = out.SortBy(sortBy, true); err != nil {
			return nil, err
		}
	}
	if limit > 0 {
		out = out.Head(limit)
	}
	return out, nil
}

func (DataAggregation) TopBillingByAgeMedicalGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{ageGroup, medicalCondition, gender},
		[]measure{{billingAmount, dataset.Mean}}, "", billingAmount, TopN)
}

// MedianBillingByAdmissionInsurance keeps the first TopN groups in key order.
func (DataAggregation) MedianBillingByAdmissionInsurance(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{admissionType, insuranceProvider},
		[]measure{{billingAmount, dataset.Median}}, "", "", TopN)
}

func (DataAggregation) PatientCountByBloodAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{bloodType, ageGroup, gender}, nil, patientCount, patientCount, TopN)
}

// MeanBillingRoomByAgeAdmission keeps every group, in key order.
func (DataAggregation) MeanBillingRoomByAgeAdmission(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{ageGroup, admissionType},
		[]measure{{billingAmount, dataset.Mean}, {roomNumber, dataset.Mean}}, "", "", 0)
}

func (DataAggregation) AverageLengthOfStayByAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{ageGroup, gender},
		[]measure{{lengthOfStay, dataset.Mean}}, "", lengthOfStay, TopN)
}

func (DataAggregation) TopMedicationsByMedicalCondition(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{medicalCondition, medication}, nil, count, count, TopN)
}

func (DataAggregation) PatientCountByMedicalAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{medicalCondition, ageGroup, gender}, nil, patientCount, patientCount, TopN)
}

func (DataAggregation) AvgBillingByAdmissionMedicalGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{admissionType, medicalCondition, gender},
		[]measure{{billingAmount, dataset.Mean}}, "", billingAmount, TopN)
}

func (DataAggregation) MedianLengthOfStayByAgeInsurance(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{ageGroup, insuranceProvider},
		[]measure{{lengthOfStay, dataset.Median}}, "", lengthOfStay, TopN)
}

func (DataAggregation) AvgBillingByBloodAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{bloodType, ageGroup, gender},
		[]measure{{billingAmount, dataset.Mean}}, "", billingAmount, TopN)
}

func (DataAggregation) PatientCountByAdmissionAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{admissionType, ageGroup, gender}, nil, patientCount, patientCount, TopN)
}

func (DataAggregation) AvgBillingByMedicationAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	return summarize(df, []string{medication, ageGroup, gender},
		[]measure{{billingAmount, dataset.Mean}}, "", billingAmount, TopN)
}

// AvgLengthOfStayByAdmissionAgeGender rounds the mean stay to whole days,
// half to even.
func (DataAggregation) AvgLengthOfStayByAdmissionAgeGender(df *dataset.Frame) (*dataset.Frame, error) {
	out, err := summarize(df, []string{admissionType, ageGroup, gender},
		[]measure{{lengthOfStay, dataset.Mean}}, "", lengthOfStay, TopN)
	if err != nil {
		return nil, err
	}
	stay, err := out.Column(lengthOfStay)
	if err != nil {
		return nil, err
	}
	if err := out.Set(stay.MapFloats(math.RoundToEven)); err != nil {
		return nil, err
	}
	return out, nil
}
