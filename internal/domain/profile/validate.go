package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Validation reasons.
const (
	reasonMissing    = "required field missing"
	reasonNotInteger = "must be an integer"
	reasonNotString  = "must be a string"
	reasonUnknown    = "unknown field"
)

// Validate checks raw against the profile schema and returns the typed profile.
// The first violation, in canonical field order, is returned as *ValidationError.
func Validate(raw map[string]any) (Profile, error) {
	var p Profile
	for _, f := range fields {
		v, ok := raw[f.Name]
		if !ok {
			return Profile{}, newValidationError(f.Name, reasonMissing)
		}
		if f.Kind == KindInteger {
			n, err := checkInteger(f, v)
			if err != nil {
				return Profile{}, err
			}
			p.setInteger(f.Name, n)
			continue
		}
		s, err := checkCategory(f, v)
		if err != nil {
			return Profile{}, err
		}
		p.setCategory(f.Name, s)
	}

	if len(raw) > len(fields) {
		extra := make([]string, 0, len(raw)-len(fields))
		for k := range raw {
			if _, ok := Spec(k); !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		return Profile{}, newValidationError(extra[0], reasonUnknown)
	}
	return p, nil
}

func checkInteger(f FieldSpec, v any) (int, error) {
	n, ok := asInteger(v)
	if !ok {
		return 0, newValidationError(f.Name, reasonNotInteger)
	}
	if n < int64(f.Min) || n > int64(f.Max) {
		return 0, newValidationError(f.Name, fmt.Sprintf("must be between %d and %d", f.Min, f.Max))
	}
	return int(n), nil
}

func checkCategory(f FieldSpec, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", newValidationError(f.Name, reasonNotString)
	}
	if !f.Contains(s) {
		return "", newValidationError(f.Name, "must be one of "+quoteAll(f.Values))
	}
	return s, nil
}

// asInteger accepts Go integer kinds, integral floats and json.Number.
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return clampUint(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return clampUint(n)
	case float32:
		return integralFloat(float64(n))
	case float64:
		return integralFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	}
	return 0, false
}

func clampUint(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func quoteAll(values []string) string {
	out := "["
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(v)
	}
	return out + "]"
}

func (p *Profile) setInteger(field string, n int) {
	switch field {
	case FieldAge:
		p.Age = n
	case FieldDependants:
		p.Dependants = n
	case FieldIncomeLakhs:
		p.IncomeLakhs = n
	case FieldGeneticalRisk:
		p.GeneticalRisk = n
	}
}

func (p *Profile) setCategory(field, v string) {
	switch field {
	case FieldInsurancePlan:
		p.InsurancePlan = v
	case FieldEmploymentStatus:
		p.EmploymentStatus = v
	case FieldGender:
		p.Gender = v
	case FieldMaritalStatus:
		p.MaritalStatus = v
	case FieldBMICategory:
		p.BMICategory = v
	case FieldSmokingStatus:
		p.SmokingStatus = v
	case FieldRegion:
		p.Region = v
	case FieldMedicalHistory:
		p.MedicalHistory = v
	}
}
