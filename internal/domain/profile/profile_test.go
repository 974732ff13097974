package profile_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/premium/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func validRaw() map[string]any {
	return map[string]any{
		"Age":                  35,
		"Number of Dependants": 2,
		"Income in Lakhs":      10,
		"Genetical Risk":       1,
		"Insurance Plan":       "Silver",
		"Employment Status":    "Salaried",
		"Gender":               "Male",
		"Marital Status":       "Married",
		"BMI Category":         "Normal",
		"Smoking Status":       "No Smoking",
		"Region":               "Northwest",
		"Medical History":      "No Disease",
	}
}

func with(key string, value any) map[string]any {
	raw := validRaw()
	raw[key] = value
	return raw
}

func without(key string) map[string]any {
	raw := validRaw()
	delete(raw, key)
	return raw
}

func fieldOf(err error) string {
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}

func TestValidate(t *testing.T) {
	Convey("Given a complete raw profile", t, func() {
		Convey("When validating it", func() {
			p, err := profile.Validate(validRaw())

			Convey("Then every field should be typed", func() {
				So(err, ShouldBeNil)
				So(p.Age, ShouldEqual, 35)
				So(p.Dependants, ShouldEqual, 2)
				So(p.IncomeLakhs, ShouldEqual, 10)
				So(p.GeneticalRisk, ShouldEqual, 1)
				So(p.InsurancePlan, ShouldEqual, "Silver")
				So(p.MedicalHistory, ShouldEqual, "No Disease")
			})
		})

		Convey("When integers arrive as JSON numbers or integral floats", func() {
			raw := with("Age", json.Number("100"))
			raw["Income in Lakhs"] = float64(200)
			p, err := profile.Validate(raw)

			Convey("Then they should be accepted", func() {
				So(err, ShouldBeNil)
				So(p.Age, ShouldEqual, 100)
				So(p.IncomeLakhs, ShouldEqual, 200)
			})
		})

		Convey("When employment status is empty", func() {
			p, err := profile.Validate(with("Employment Status", ""))

			Convey("Then it should be accepted as a declared value", func() {
				So(err, ShouldBeNil)
				So(p.EmploymentStatus, ShouldEqual, "")
			})
		})
	})

	Convey("Given the age boundaries", t, func() {
		for _, age := range []int{18, 100} {
			_, err := profile.Validate(with("Age", age))
			So(err, ShouldBeNil)
		}
		for _, age := range []int{17, 101} {
			_, err := profile.Validate(with("Age", age))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, profile.ErrValidation), ShouldBeTrue)
			So(fieldOf(err), ShouldEqual, "Age")
		}
	})

	Convey("Given values outside every declared domain", t, func() {
		cases := []struct {
			field string
			value any
		}{
			{"Number of Dependants", -1},
			{"Number of Dependants", 21},
			{"Income in Lakhs", 201},
			{"Genetical Risk", 6},
			{"Genetical Risk", 2.5},
			{"Age", "35"},
			{"Age", true},
			{"Insurance Plan", "Platinum"},
			{"Insurance Plan", "silver"},
			{"Employment Status", "Retired"},
			{"Gender", "Other"},
			{"Marital Status", "Divorced"},
			{"BMI Category", "normal"},
			{"Smoking Status", "Sometimes"},
			{"Region", "Central"},
			{"Medical History", "Asthma"},
			{"Medical History", 3},
		}

		for _, c := range cases {
			_, err := profile.Validate(with(c.field, c.value))
			So(err, ShouldNotBeNil)
			So(fieldOf(err), ShouldEqual, c.field)
		}
	})

	Convey("Given a profile with a missing field", t, func() {
		_, err := profile.Validate(without("Region"))

		Convey("Then the error should name the field", func() {
			var verr *profile.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, "Region")
			So(verr.Reason, ShouldEqual, "required field missing")
		})
	})

	Convey("Given a profile with several violations", t, func() {
		raw := with("Gender", "Other")
		raw["Age"] = 5

		Convey("Then the first field in canonical order should be reported", func() {
			_, err := profile.Validate(raw)
			So(fieldOf(err), ShouldEqual, "Age")
		})
	})

	Convey("Given a profile with an undeclared key", t, func() {
		_, err := profile.Validate(with("Name", "Asha"))

		Convey("Then it should be rejected", func() {
			So(fieldOf(err), ShouldEqual, "Name")
		})
	})
}

func TestProfileHelpers(t *testing.T) {
	Convey("Given a validated profile", t, func() {
		p, err := profile.Validate(validRaw())
		So(err, ShouldBeNil)

		Convey("Then Map should round-trip through Validate", func() {
			again, err := profile.Validate(p.Map())
			So(err, ShouldBeNil)
			So(again, ShouldResemble, p)
		})

		Convey("Then Key should be stable and field sensitive", func() {
			So(p.Key(), ShouldEqual, p.Key())
			other := p
			other.GeneticalRisk = 2
			So(other.Key(), ShouldNotEqual, p.Key())
		})

		Convey("Then MinimumRisk should keep non-risk fields", func() {
			m := profile.MinimumRisk(p)
			So(m.Age, ShouldEqual, 18)
			So(m.IncomeLakhs, ShouldEqual, 0)
			So(m.MedicalHistory, ShouldEqual, profile.NoDisease)
			So(m.SmokingStatus, ShouldEqual, profile.NoSmoking)
			So(m.BMICategory, ShouldEqual, profile.NormalBMI)
			So(m.InsurancePlan, ShouldEqual, p.InsurancePlan)
			So(m.Region, ShouldEqual, p.Region)
		})

		Convey("Then lookups should reject unknown fields", func() {
			_, ok := p.Numeric("Gender")
			So(ok, ShouldBeFalse)
			_, ok = p.Category("Age")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the schema", t, func() {
		specs := profile.Fields()

		Convey("Then it should declare all twelve fields", func() {
			So(len(specs), ShouldEqual, 12)
			spec, ok := profile.Spec("Medical History")
			So(ok, ShouldBeTrue)
			So(len(spec.Values), ShouldEqual, 9)
		})

		Convey("When encoded as JSON", func() {
			income, _ := profile.Spec(profile.FieldIncomeLakhs)
			gender, _ := profile.Spec(profile.FieldGender)
			a, err := json.Marshal(income)
			So(err, ShouldBeNil)
			b, err := json.Marshal(gender)
			So(err, ShouldBeNil)

			Convey("Then integer fields should carry both bounds, zero included", func() {
				So(string(a), ShouldEqual, `{"name":"Income in Lakhs","kind":"integer","min":0,"max":200}`)
				So(string(b), ShouldEqual, `{"name":"Gender","kind":"categorical","values":["Male","Female"]}`)
			})
		})

		Convey("Then mutating a copy should not leak", func() {
			specs[4].Values[0] = "Platinum"
			spec, _ := profile.Spec("Insurance Plan")
			So(spec.Values[0], ShouldEqual, "Bronze")
		})
	})
}
