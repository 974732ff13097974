// Package risk derives engineered risk indicators from the health and
// lifestyle fields of a profile.
//
// Two indicators are produced. The medical indicator sums the points of each
// condition in the medical history. The composite indicator adds smoking, BMI
// and weighted genetical risk on top. Both are normalised over the full profile
// domain so the lowest-risk applicant always maps to 0 and the highest to 1.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/profile"
)

// Output column names, in the order Score.Values returns them.
const (
	ColumnMedical   = artifact.ColumnMedicalRisk
	ColumnComposite = artifact.ColumnCompositeRisk
)

// Score holds the risk indicators of one profile.
type Score struct {
	Medical   float64 `json:"medical_risk"`
	Composite float64 `json:"composite_risk"`
	// Points are the unnormalised totals, kept for explanations.
	MedicalPoints   float64 `json:"medical_points"`
	CompositePoints float64 `json:"composite_points"`
}

// Columns returns the indicator column names.
func Columns() []string {
	return []string{ColumnMedical, ColumnComposite}
}

// Values returns the indicators in column order.
func (s Score) Values() []float64 {
	return []float64{s.Medical, s.Composite}
}

// Scorer applies a risk rule. It is immutable and safe for concurrent use.
type Scorer struct {
	separator  string
	conditions map[string]float64
	histories  map[string]float64
	smoking    map[string]float64
	bmi        map[string]float64
	genetical  float64

	medical   span
	composite span
}

type span struct{ floor, ceiling float64 }

func (s span) normalise(x float64) float64 {
	if s.ceiling <= s.floor {
		return 0
	}
	return (x - s.floor) / (s.ceiling - s.floor)
}

// New compiles rule. Every condition named by an allowed medical history must be
// known to the rule, and each baseline must carry its table's minimum points.
func New(rule artifact.RiskRule) (*Scorer, error) {
	if rule.Separator == "" {
		return nil, fmt.Errorf("%w: empty separator", ErrRiskConfig)
	}
	if rule.GeneticalWeight < 0 {
		return nil, fmt.Errorf("%w: negative genetical weight", ErrRiskConfig)
	}
	s := &Scorer{
		separator:  rule.Separator,
		conditions: table(rule.Conditions),
		histories:  make(map[string]float64),
		smoking:    table(rule.Smoking),
		bmi:        table(rule.BMI),
		genetical:  rule.GeneticalWeight,
	}

	histories, _ := profile.Spec(profile.FieldMedicalHistory)
	s.medical = span{floor: math.Inf(1), ceiling: math.Inf(-1)}
	for _, h := range histories.Values {
		total := 0.0
		for _, part := range strings.Split(h, s.separator) {
			p, ok := s.conditions[normalise(part)]
			if !ok {
				return nil, fmt.Errorf("%w: condition %q of %q has no points", ErrRiskConfig, part, h)
			}
			total += p
		}
		s.histories[h] = total
		s.medical = widen(s.medical, total)
	}

	smokingFloor, smokingCeil, err := bounds(s.smoking, profile.FieldSmokingStatus, profile.NoSmoking)
	if err != nil {
		return nil, err
	}
	bmiFloor, bmiCeil, err := bounds(s.bmi, profile.FieldBMICategory, profile.NormalBMI)
	if err != nil {
		return nil, err
	}
	if s.histories[profile.NoDisease] != s.medical.floor {
		return nil, fmt.Errorf("%w: %q must carry the minimum medical points", ErrRiskConfig, profile.NoDisease)
	}

	genetic, _ := profile.Spec(profile.FieldGeneticalRisk)
	s.composite = span{
		floor:   s.medical.floor + smokingFloor + bmiFloor + s.genetical*float64(genetic.Min),
		ceiling: s.medical.ceiling + smokingCeil + bmiCeil + s.genetical*float64(genetic.Max),
	}
	return s, nil
}

// Score computes the indicators of p. p must come from profile.Validate.
func (s *Scorer) Score(p profile.Profile) Score {
	medical, ok := s.histories[p.MedicalHistory]
	if !ok {
		for _, part := range strings.Split(p.MedicalHistory, s.separator) {
			medical += s.conditions[normalise(part)]
		}
	}
	composite := medical +
		s.smoking[normalise(p.SmokingStatus)] +
		s.bmi[normalise(p.BMICategory)] +
		s.genetical*float64(p.GeneticalRisk)

	return Score{
		Medical:         s.medical.normalise(medical),
		Composite:       s.composite.normalise(composite),
		MedicalPoints:   medical,
		CompositePoints: composite,
	}
}

func table(points []artifact.Points) map[string]float64 {
	out := make(map[string]float64, len(points))
	for _, p := range points {
		out[normalise(p.Name)] = p.Points
	}
	return out
}

// bounds returns the min and max points over field's domain.
func bounds(t map[string]float64, field, baseline string) (float64, float64, error) {
	spec, _ := profile.Spec(field)
	sp := span{floor: math.Inf(1), ceiling: math.Inf(-1)}
	for _, v := range spec.Values {
		p, ok := t[normalise(v)]
		if !ok {
			return 0, 0, fmt.Errorf("%w: %s %q has no points", ErrRiskConfig, field, v)
		}
		sp = widen(sp, p)
	}
	if t[normalise(baseline)] != sp.floor {
		return 0, 0, fmt.Errorf("%w: %q must carry the minimum %s points", ErrRiskConfig, baseline, field)
	}
	return sp.floor, sp.ceiling, nil
}

func widen(s span, x float64) span {
	return span{floor: math.Min(s.floor, x), ceiling: math.Max(s.ceiling, x)}
}

func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
