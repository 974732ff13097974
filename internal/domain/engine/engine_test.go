package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/encoding"
	"github.com/okian/premium/internal/domain/engine"
	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/internal/domain/risk"
	"github.com/okian/premium/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func scenario() map[string]any {
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

func defaultEngine(opts ...engine.Option) *engine.Engine {
	art, err := artifact.Default(context.Background())
	So(err, ShouldBeNil)
	e, err := engine.New(art, opts...)
	So(err, ShouldBeNil)
	return e
}

type fixedScorer float64

func (f fixedScorer) Score(encoding.Vector, risk.Score) (float64, error) { return float64(f), nil }

func TestPredict(t *testing.T) {
	Convey("Given an engine over the default artifact", t, func() {
		e := defaultEngine()

		Convey("When predicting the reference scenario", func() {
			first, err := e.Predict(scenario())
			So(err, ShouldBeNil)
			second, err := e.Predict(scenario())
			So(err, ShouldBeNil)

			Convey("Then it should return one non-negative, repeatable premium", func() {
				So(first, ShouldEqual, 11541.0)
				So(second, ShouldEqual, first)
			})
		})

		Convey("When evaluating the reference scenario", func() {
			b, err := e.Evaluate(scenario())

			Convey("Then the breakdown should trace every stage", func() {
				So(err, ShouldBeNil)
				So(b.Features.Len(), ShouldEqual, 18)
				So(b.Risk.Medical, ShouldEqual, 0.0)
				So(b.Raw, ShouldAlmostEqual, 11540.686233980985, 1e-6)
				So(b.Premium, ShouldEqual, 11541.0)
				So(b.Clamped, ShouldBeFalse)
			})
		})

		Convey("When the input is invalid", func() {
			raw := scenario()
			raw["Age"] = 101
			_, err := e.Predict(raw)

			Convey("Then it should fail with a validation error", func() {
				So(errors.Is(err, profile.ErrValidation), ShouldBeTrue)
				var verr *profile.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "Age")
			})
		})

		Convey("When increasing genetical risk from 0 to 5", func() {
			raw := scenario()
			prev := -1.0
			for g := 0; g <= 5; g++ {
				raw["Genetical Risk"] = g
				got, err := e.Predict(raw)
				So(err, ShouldBeNil)
				So(got, ShouldBeGreaterThanOrEqualTo, prev)
				prev = got
			}
		})

		Convey("When comparing profiles with their minimum-risk counterpart", func() {
			variants := []func(m map[string]any){
				func(m map[string]any) { m["Medical History"] = "Diabetes & Heart disease" },
				func(m map[string]any) { m["Smoking Status"] = "Occasional" },
				func(m map[string]any) { m["BMI Category"] = "Underweight" },
				func(m map[string]any) { m["Age"] = 100; m["Income in Lakhs"] = 200 },
				func(m map[string]any) { m["Marital Status"] = "Unmarried"; m["Region"] = "Southwest" },
			}
			for _, mutate := range variants {
				raw := scenario()
				mutate(raw)
				b, err := e.Evaluate(raw)
				So(err, ShouldBeNil)
				floor, err := e.EvaluateProfile(profile.MinimumRisk(b.Profile))
				So(err, ShouldBeNil)
				So(floor.Premium, ShouldBeLessThanOrEqualTo, b.Premium)
				So(floor.Premium, ShouldBeGreaterThanOrEqualTo, 0)
			}
		})

		Convey("When called concurrently", func() {
			want, err := e.Predict(scenario())
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			results := make([]float64, 32)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = e.Predict(scenario())
				}(i)
			}
			wg.Wait()

			Convey("Then every call should agree", func() {
				for _, r := range results {
					So(r, ShouldEqual, want)
				}
			})
		})

		Convey("Then it should describe itself", func() {
			So(e.Version(), ShouldEqual, "2024.1-linear")
			So(e.Currency(), ShouldEqual, "INR")
			cols := e.Columns()
			So(len(cols), ShouldEqual, 20)
			So(cols[18], ShouldEqual, risk.ColumnMedical)
			So(cols[19], ShouldEqual, risk.ColumnComposite)
		})
	})

	Convey("Given the minimum-risk probe", t, func() {
		e := defaultEngine()
		b, err := e.EvaluateProfile(engine.Probe())

		Convey("Then it should score at the intercept plus fixed categories", func() {
			So(err, ShouldBeNil)
			So(b.Risk.Composite, ShouldEqual, 0.0)
			So(b.Premium, ShouldEqual, 5650.0)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given artifacts out of step with the engine", t, func() {
		art, err := artifact.Default(context.Background())
		So(err, ShouldBeNil)

		Convey("When the model carries an extra weight", func() {
			art.Model.Weights = append(art.Model.Weights, artifact.Weight{Column: "legacy_feature", Weight: 1})
			So(art.Validate(), ShouldBeNil)
			_, err := engine.New(art)

			Convey("Then the self-check should report a shape error", func() {
				So(errors.Is(err, scoring.ErrModelShape), ShouldBeTrue)
			})
		})

		Convey("When the model columns are out of order", func() {
			w := art.Model.Weights
			w[0], w[1] = w[1], w[0]
			_, err := engine.New(art)
			So(errors.Is(err, scoring.ErrModelShape), ShouldBeTrue)
		})

		Convey("When genetical risk lowers the premium and nothing lists it as monotone", func() {
			art.Model.Monotone = nil
			for i := range art.Model.Weights {
				if art.Model.Weights[i].Column == "genetical_risk" {
					art.Model.Weights[i].Weight = -9000
				}
			}
			_, err := engine.New(art)

			Convey("Then the engine should refuse the artifact", func() {
				So(errors.Is(err, artifact.ErrInvalidArtifact), ShouldBeTrue)
			})
		})

		Convey("When the artifact is nil", func() {
			_, err := engine.New(nil)
			So(errors.Is(err, artifact.ErrInvalidArtifact), ShouldBeTrue)
		})
	})

	Convey("Given a negative pluggable scorer and a floor", t, func() {
		e := defaultEngine(engine.WithScorer(fixedScorer(-400)), engine.WithFloor(250), engine.WithPrecision(2))

		Convey("Then premiums should clamp to the floor", func() {
			b, err := e.Evaluate(scenario())
			So(err, ShouldBeNil)
			So(b.Premium, ShouldEqual, 250.0)
			So(b.Clamped, ShouldBeTrue)
			So(e.Floor(), ShouldEqual, 250.0)
			So(e.Precision(), ShouldEqual, 2)
		})
	})

	Convey("Given two engines over different artifacts", t, func() {
		art, err := artifact.Default(context.Background())
		So(err, ShouldBeNil)
		cheap := art.Clone()
		cheap.Version = "cheap"
		cheap.Model.Intercept = 0

		a, err := engine.New(art)
		So(err, ShouldBeNil)
		b, err := engine.New(cheap)
		So(err, ShouldBeNil)

		Convey("Then they should coexist independently", func() {
			pa, _ := a.Predict(scenario())
			pb, _ := b.Predict(scenario())
			So(pa-pb, ShouldEqual, 3000.0)
			So(b.Version(), ShouldEqual, "cheap")
		})

		Convey("Then mutating the source artifact should not affect a built engine", func() {
			art.Model.Intercept = 1e6
			pa, _ := a.Predict(scenario())
			So(pa, ShouldEqual, 11541.0)
		})
	})
}
