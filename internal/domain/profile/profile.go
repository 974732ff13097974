// Package profile defines the applicant profile accepted by the premium engine
// and the schema every raw profile is validated against.
package profile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wire keys of the applicant profile. They are exact and case-sensitive.
const (
	FieldAge              = "Age"
	FieldDependants       = "Number of Dependants"
	FieldIncomeLakhs      = "Income in Lakhs"
	FieldGeneticalRisk    = "Genetical Risk"
	FieldInsurancePlan    = "Insurance Plan"
	FieldEmploymentStatus = "Employment Status"
	FieldGender           = "Gender"
	FieldMaritalStatus    = "Marital Status"
	FieldBMICategory      = "BMI Category"
	FieldSmokingStatus    = "Smoking Status"
	FieldRegion           = "Region"
	FieldMedicalHistory   = "Medical History"
)

// Baseline values that describe the lowest-risk applicant.
const (
	NoDisease  = "No Disease"
	NoSmoking  = "No Smoking"
	NormalBMI  = "Normal"
	minimumAge = 18
)

// Kind describes how a field is typed on the wire.
type Kind string

const (
	KindInteger     Kind = "integer"
	KindCategorical Kind = "categorical"
)

// FieldSpec declares the domain of a single profile field.
type FieldSpec struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Min    int      `json:"min,omitempty"`
	Max    int      `json:"max,omitempty"`
	Values []string `json:"values,omitempty"`
}

// MarshalJSON always emits both bounds of integer fields, including a zero
// minimum, and omits them for categorical fields.
func (f FieldSpec) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name   string   `json:"name"`
		Kind   Kind     `json:"kind"`
		Min    *int     `json:"min,omitempty"`
		Max    *int     `json:"max,omitempty"`
		Values []string `json:"values,omitempty"`
	}
	w := wire{Name: f.Name, Kind: f.Kind, Values: f.Values}
	if f.Kind == KindInteger {
		lo, hi := f.Min, f.Max
		w.Min, w.Max = &lo, &hi
	}
	return json.Marshal(w)
}

// Contains reports whether v is one of the declared categorical values.
func (f FieldSpec) Contains(v string) bool {
	for _, allowed := range f.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// fields is the canonical field order. Validation reports violations in this order.
var fields = []FieldSpec{ //nolint:gochecknoglobals // fixed input contract
	{Name: FieldAge, Kind: KindInteger, Min: 18, Max: 100},
	{Name: FieldDependants, Kind: KindInteger, Min: 0, Max: 20},
	{Name: FieldIncomeLakhs, Kind: KindInteger, Min: 0, Max: 200},
	{Name: FieldGeneticalRisk, Kind: KindInteger, Min: 0, Max: 5},
	{Name: FieldInsurancePlan, Kind: KindCategorical, Values: []string{"Bronze", "Silver", "Gold"}},
	{Name: FieldEmploymentStatus, Kind: KindCategorical, Values: []string{"Salaried", "Self-Employed", "Freelancer", ""}},
	{Name: FieldGender, Kind: KindCategorical, Values: []string{"Male", "Female"}},
	{Name: FieldMaritalStatus, Kind: KindCategorical, Values: []string{"Unmarried", "Married"}},
	{Name: FieldBMICategory, Kind: KindCategorical, Values: []string{"Normal", "Obesity", "Overweight", "Underweight"}},
	{Name: FieldSmokingStatus, Kind: KindCategorical, Values: []string{"No Smoking", "Regular", "Occasional"}},
	{Name: FieldRegion, Kind: KindCategorical, Values: []string{"Northwest", "Southeast", "Northeast", "Southwest"}},
	{Name: FieldMedicalHistory, Kind: KindCategorical, Values: []string{
		"No Disease",
		"Diabetes",
		"High blood pressure",
		"Diabetes & High blood pressure",
		"Thyroid",
		"Heart disease",
		"High blood pressure & Heart disease",
		"Diabetes & Thyroid",
		"Diabetes & Heart disease",
	}},
}

// Fields returns a copy of the field specs in canonical order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		f.Values = append([]string(nil), f.Values...)
		out[i] = f
	}
	return out
}

// Spec returns the spec for a wire key.
func Spec(name string) (FieldSpec, bool) {
	for _, f := range fields {
		if f.Name == name {
			f.Values = append([]string(nil), f.Values...)
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Profile is a validated applicant profile. Values are only produced by
// Validate, so every field is within its declared domain.
type Profile struct {
	Age              int
	Dependants       int
	IncomeLakhs      int
	GeneticalRisk    int
	InsurancePlan    string
	EmploymentStatus string
	Gender           string
	MaritalStatus    string
	BMICategory      string
	SmokingStatus    string
	Region           string
	MedicalHistory   string
}

// Numeric returns the value of an integer field as float64.
func (p Profile) Numeric(field string) (float64, bool) {
	switch field {
	case FieldAge:
		return float64(p.Age), true
	case FieldDependants:
		return float64(p.Dependants), true
	case FieldIncomeLakhs:
		return float64(p.IncomeLakhs), true
	case FieldGeneticalRisk:
		return float64(p.GeneticalRisk), true
	}
	return 0, false
}

// Category returns the value of a categorical field.
func (p Profile) Category(field string) (string, bool) {
	switch field {
	case FieldInsurancePlan:
		return p.InsurancePlan, true
	case FieldEmploymentStatus:
		return p.EmploymentStatus, true
	case FieldGender:
		return p.Gender, true
	case FieldMaritalStatus:
		return p.MaritalStatus, true
	case FieldBMICategory:
		return p.BMICategory, true
	case FieldSmokingStatus:
		return p.SmokingStatus, true
	case FieldRegion:
		return p.Region, true
	case FieldMedicalHistory:
		return p.MedicalHistory, true
	}
	return "", false
}

// Key returns a canonical fingerprint of the profile. Two profiles share a key
// only if every field is equal.
func (p Profile) Key() string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('|')
		}
		if f.Kind == KindInteger {
			v, _ := p.Numeric(f.Name)
			b.WriteString(strconv.Itoa(int(v)))
			continue
		}
		v, _ := p.Category(f.Name)
		b.WriteString(strconv.Quote(v))
	}
	return b.String()
}

// Map returns the wire form of the profile.
func (p Profile) Map() map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Kind == KindInteger {
			v, _ := p.Numeric(f.Name)
			out[f.Name] = int(v)
			continue
		}
		v, _ := p.Category(f.Name)
		out[f.Name] = v
	}
	return out
}

// MinimumRisk returns base with every risk-bearing field set to its lowest value.
// Plan, employment, gender, marital status and region are kept from base.
func MinimumRisk(base Profile) Profile {
	base.Age = minimumAge
	base.Dependants = 0
	base.IncomeLakhs = 0
	base.GeneticalRisk = 0
	base.MedicalHistory = NoDisease
	base.SmokingStatus = NoSmoking
	base.BMICategory = NormalBMI
	return base
}
