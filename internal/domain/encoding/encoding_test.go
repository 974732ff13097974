package encoding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/encoding"
	"github.com/okian/premium/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleProfile() profile.Profile {
	return profile.Profile{
		Age:              35,
		Dependants:       2,
		IncomeLakhs:      10,
		GeneticalRisk:    1,
		InsurancePlan:    "Silver",
		EmploymentStatus: "Salaried",
		Gender:           "Male",
		MaritalStatus:    "Married",
		BMICategory:      "Normal",
		SmokingStatus:    "No Smoking",
		Region:           "Northwest",
		MedicalHistory:   "No Disease",
	}
}

func TestEncoder(t *testing.T) {
	Convey("Given an encoder built from the default artifact", t, func() {
		art, err := artifact.Default(context.Background())
		So(err, ShouldBeNil)
		enc, err := encoding.New(art)
		So(err, ShouldBeNil)

		Convey("When encoding a profile", func() {
			v := enc.Encode(sampleProfile())

			Convey("Then the vector should follow the artifact columns", func() {
				So(v.Len(), ShouldEqual, 18)
				So(v.Columns, ShouldResemble, art.Columns())
			})

			Convey("Then numeric fields should be min-max scaled", func() {
				So(v.Values[0], ShouldAlmostEqual, 17.0/82.0)
				So(v.Values[1], ShouldAlmostEqual, 0.1)
				So(v.Values[2], ShouldAlmostEqual, 0.05)
				So(v.Values[3], ShouldAlmostEqual, 0.2)
			})

			Convey("Then categorical fields should use the level tables", func() {
				So(v.Values[4], ShouldEqual, 2.0)                       // Silver
				So(v.Values[5:8], ShouldResemble, []float64{1, 0, 0})   // Salaried
				So(v.Values[8], ShouldEqual, 1.0)                       // Male
				So(v.Values[9], ShouldEqual, 0.0)                       // Married
				So(v.Values[15:18], ShouldResemble, []float64{1, 0, 0}) // Northwest
			})
		})

		Convey("When encoding the same profile twice", func() {
			a := enc.Encode(sampleProfile())
			b := enc.Encode(sampleProfile())

			Convey("Then the vectors should be identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When the caller mutates the returned columns", func() {
			v := enc.Encode(sampleProfile())
			v.Columns[0] = "mutated"

			Convey("Then the encoder should be unaffected", func() {
				So(enc.Columns()[0], ShouldEqual, "age")
			})
		})

		Convey("When employment status is empty", func() {
			p := sampleProfile()
			p.EmploymentStatus = ""
			v := enc.Encode(p)

			Convey("Then every employment column should be zero", func() {
				So(v.Values[5:8], ShouldResemble, []float64{0, 0, 0})
			})
		})
	})

	Convey("Given a standard-scaled artifact", t, func() {
		art, err := artifact.Default(context.Background())
		So(err, ShouldBeNil)
		art.Numeric[0].Scaler = artifact.ScalerStandard
		art.Numeric[0].Mean = 40
		art.Numeric[0].Std = 10

		enc, err := encoding.New(art)
		So(err, ShouldBeNil)

		Convey("Then age should be standardised", func() {
			So(enc.Encode(sampleProfile()).Values[0], ShouldAlmostEqual, -0.5)
		})
	})

	Convey("Given broken artifacts", t, func() {
		art, err := artifact.Default(context.Background())
		So(err, ShouldBeNil)

		Convey("When the artifact is nil", func() {
			_, err := encoding.New(nil)
			So(errors.Is(err, encoding.ErrEncoderConfig), ShouldBeTrue)
		})

		Convey("When a level is missing", func() {
			art.Categorical[2].Levels = art.Categorical[2].Levels[:1]
			_, err := encoding.New(art)
			So(errors.Is(err, encoding.ErrEncoderConfig), ShouldBeTrue)
		})

		Convey("When an encoding has the wrong width", func() {
			art.Categorical[1].Levels[0].Encoding = []float64{1, 0}
			_, err := encoding.New(art)
			So(errors.Is(err, encoding.ErrEncoderConfig), ShouldBeTrue)
		})
	})
}
