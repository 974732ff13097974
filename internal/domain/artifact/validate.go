package artifact

import (
	"math"
	"strings"

	"github.com/okian/premium/internal/domain/profile"
)

// Validate checks the artifact is internally consistent and covers the full
// profile domain. Shape agreement with the engine is checked by the engine.
// Medical history needs no encoding columns because the risk rule consumes it.
func (a *ModelArtifact) Validate() error {
	if strings.TrimSpace(a.Version) == "" {
		return invalid("version must not be empty")
	}
	if err := a.validateEncodings(); err != nil {
		return err
	}
	if err := a.Risk.validate(); err != nil {
		return err
	}
	if err := a.Model.validate(); err != nil {
		return err
	}
	return a.validateMonotone()
}

// validateMonotone requires non-negative weights on every column that grows
// with risk, whether or not the artifact lists it as monotone. All scalers are
// increasing, so a non-negative weight keeps the premium non-decreasing in
// Genetical Risk and never below the minimum-risk premium.
func (a *ModelArtifact) validateMonotone() error {
	required := []string{ColumnMedicalRisk, ColumnCompositeRisk}
	for _, n := range a.Numeric {
		if n.Field == profile.FieldGeneticalRisk {
			required = append(required, n.Column)
		}
	}
	for _, col := range required {
		for _, w := range a.Model.Weights {
			if w.Column == col && w.Weight < 0 {
				return invalid("risk column %q has negative weight %v", col, w.Weight)
			}
		}
	}
	return nil
}

func (a *ModelArtifact) validateEncodings() error {
	covered := make(map[string]bool)
	columns := make(map[string]bool)
	addColumn := func(c string) error {
		if strings.TrimSpace(c) == "" {
			return invalid("empty column name")
		}
		if columns[c] {
			return invalid("duplicate column %q", c)
		}
		columns[c] = true
		return nil
	}

	for _, n := range a.Numeric {
		spec, ok := profile.Spec(n.Field)
		if !ok || spec.Kind != profile.KindInteger {
			return invalid("numeric feature %q is not an integer profile field", n.Field)
		}
		if covered[n.Field] {
			return invalid("field %q encoded twice", n.Field)
		}
		covered[n.Field] = true
		if err := addColumn(n.Column); err != nil {
			return err
		}
		switch n.Scaler {
		case ScalerNone:
		case ScalerMinMax:
			if !(n.Max > n.Min) {
				return invalid("minmax scaler for %q needs max > min", n.Field)
			}
		case ScalerStandard:
			if !(n.Std > 0) {
				return invalid("standard scaler for %q needs std > 0", n.Field)
			}
		default:
			return invalid("unknown scaler %q for %q", n.Scaler, n.Field)
		}
	}

	for _, c := range a.Categorical {
		spec, ok := profile.Spec(c.Field)
		if !ok || spec.Kind != profile.KindCategorical {
			return invalid("categorical feature %q is not a categorical profile field", c.Field)
		}
		if covered[c.Field] {
			return invalid("field %q encoded twice", c.Field)
		}
		covered[c.Field] = true
		if len(c.Columns) == 0 {
			return invalid("categorical feature %q has no columns", c.Field)
		}
		for _, col := range c.Columns {
			if err := addColumn(col); err != nil {
				return err
			}
		}
		levels := make(map[string]bool, len(c.Levels))
		for _, l := range c.Levels {
			if levels[l.Value] {
				return invalid("duplicate level %q for %q", l.Value, c.Field)
			}
			levels[l.Value] = true
			if len(l.Encoding) != len(c.Columns) {
				return invalid("level %q of %q has %d values, want %d", l.Value, c.Field, len(l.Encoding), len(c.Columns))
			}
		}
		for _, v := range spec.Values {
			if !levels[v] {
				return invalid("categorical feature %q has no level for %q", c.Field, v)
			}
		}
	}

	for _, f := range profile.Fields() {
		if !covered[f.Name] && !riskInputs[f.Name] {
			return invalid("field %q is not encoded", f.Name)
		}
	}
	return nil
}

// riskInputs may be left to the risk scorer instead of the encoder.
var riskInputs = map[string]bool{ //nolint:gochecknoglobals // fixed input contract
	profile.FieldMedicalHistory: true,
	profile.FieldSmokingStatus:  true,
	profile.FieldBMICategory:    true,
	profile.FieldGeneticalRisk:  true,
}

func (r RiskRule) validate() error {
	if r.Separator == "" {
		return invalid("risk separator must not be empty")
	}
	if r.GeneticalWeight < 0 || math.IsNaN(r.GeneticalWeight) {
		return invalid("genetical weight must be non-negative")
	}
	if err := checkPoints("condition", r.Conditions, nil, profile.NoDisease); err != nil {
		return err
	}
	smoking, _ := profile.Spec(profile.FieldSmokingStatus)
	if err := checkPoints("smoking", r.Smoking, smoking.Values, profile.NoSmoking); err != nil {
		return err
	}
	bmi, _ := profile.Spec(profile.FieldBMICategory)
	return checkPoints("bmi", r.BMI, bmi.Values, profile.NormalBMI)
}

// checkPoints requires non-negative points, coverage of domain (when given)
// and that baseline carries the minimum points of the table.
func checkPoints(kind string, table []Points, domain []string, baseline string) error {
	if len(table) == 0 {
		return invalid("risk %s table is empty", kind)
	}
	seen := make(map[string]float64, len(table))
	lowest := math.Inf(1)
	for _, p := range table {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if _, dup := seen[key]; dup {
			return invalid("duplicate risk %s %q", kind, p.Name)
		}
		if p.Points < 0 || math.IsNaN(p.Points) || math.IsInf(p.Points, 0) {
			return invalid("risk %s %q must have finite non-negative points", kind, p.Name)
		}
		seen[key] = p.Points
		lowest = math.Min(lowest, p.Points)
	}
	for _, v := range domain {
		if _, ok := seen[strings.ToLower(v)]; !ok {
			return invalid("risk %s table has no entry for %q", kind, v)
		}
	}
	base, ok := seen[strings.ToLower(baseline)]
	if !ok {
		return invalid("risk %s table has no entry for baseline %q", kind, baseline)
	}
	if base != lowest {
		return invalid("risk %s baseline %q must carry the minimum points", kind, baseline)
	}
	return nil
}

func (m LinearModel) validate() error {
	switch m.Link {
	case LinkIdentity, LinkLog:
	default:
		return invalid("unknown link %q", m.Link)
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return invalid("intercept must be finite")
	}
	if len(m.Weights) == 0 {
		return invalid("model has no weights")
	}
	weights := make(map[string]float64, len(m.Weights))
	for _, w := range m.Weights {
		if strings.TrimSpace(w.Column) == "" {
			return invalid("weight with empty column")
		}
		if _, dup := weights[w.Column]; dup {
			return invalid("duplicate weight for %q", w.Column)
		}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return invalid("weight for %q must be finite", w.Column)
		}
		weights[w.Column] = w.Weight
	}
	for _, col := range m.Monotone {
		w, ok := weights[col]
		if !ok {
			return invalid("monotone column %q has no weight", col)
		}
		if w < 0 {
			return invalid("monotone column %q has negative weight %v", col, w)
		}
	}
	return nil
}
