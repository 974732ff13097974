// Package artifact holds the trained, versioned parameters of the premium model.
//
// An artifact bundles the numeric scaling statistics, the categorical encoding
// tables, the risk combination rule and the scoring coefficients. It is loaded
// once at process start and shared read-only afterwards.
package artifact

// Scaler kinds for numeric features.
const (
	ScalerNone     = "none"
	ScalerMinMax   = "minmax"
	ScalerStandard = "standard"
)

// Link functions for the scoring model.
const (
	LinkIdentity = "identity"
	LinkLog      = "log"
)

// Risk indicator columns appended by the risk scorer after the encoder columns.
const (
	ColumnMedicalRisk   = "medical_risk"
	ColumnCompositeRisk = "composite_risk"
)

// ModelArtifact is the immutable parameter set consumed by the engine.
type ModelArtifact struct {
	Version     string               `koanf:"version"`
	Description string               `koanf:"description"`
	Currency    string               `koanf:"currency"`
	Numeric     []NumericFeature     `koanf:"numeric"`
	Categorical []CategoricalFeature `koanf:"categorical"`
	Risk        RiskRule             `koanf:"risk"`
	Model       LinearModel          `koanf:"model"`
}

// NumericFeature maps an integer profile field to one scaled column.
type NumericFeature struct {
	Field  string  `koanf:"field"`
	Column string  `koanf:"column"`
	Scaler string  `koanf:"scaler"`
	Min    float64 `koanf:"min"`
	Max    float64 `koanf:"max"`
	Mean   float64 `koanf:"mean"`
	Std    float64 `koanf:"std"`
}

// CategoricalFeature maps a categorical profile field to one or more columns.
// Each level carries the encoding emitted for it (one-hot or ordinal).
type CategoricalFeature struct {
	Field   string   `koanf:"field"`
	Columns []string `koanf:"columns"`
	Levels  []Level  `koanf:"levels"`
}

// Level is the encoding of one categorical value.
type Level struct {
	Value    string    `koanf:"value"`
	Encoding []float64 `koanf:"encoding"`
}

// RiskRule configures how health and lifestyle fields combine into risk points.
type RiskRule struct {
	// Separator splits combined medical histories such as "Diabetes & Thyroid".
	Separator       string   `koanf:"separator"`
	Conditions      []Points `koanf:"conditions"`
	Smoking         []Points `koanf:"smoking"`
	BMI             []Points `koanf:"bmi"`
	GeneticalWeight float64  `koanf:"genetical_weight"`
}

// Points assigns risk points to a named condition or categorical value.
type Points struct {
	Name   string  `koanf:"name"`
	Points float64 `koanf:"points"`
}

// LinearModel is a generalized linear scoring function over the final vector.
type LinearModel struct {
	Link      string   `koanf:"link"`
	Intercept float64  `koanf:"intercept"`
	Weights   []Weight `koanf:"weights"`
	// Monotone lists columns whose weight must be non-negative.
	Monotone []string `koanf:"monotone"`
}

// Weight is the coefficient of one named column.
type Weight struct {
	Column string  `koanf:"column"`
	Weight float64 `koanf:"weight"`
}

// Columns returns the encoder columns in artifact order: numeric first, then categorical.
func (a *ModelArtifact) Columns() []string {
	var cols []string
	for _, n := range a.Numeric {
		cols = append(cols, n.Column)
	}
	for _, c := range a.Categorical {
		cols = append(cols, c.Columns...)
	}
	return cols
}

// Clone returns a deep copy so callers can never mutate a shared artifact.
func (a *ModelArtifact) Clone() *ModelArtifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Numeric = append([]NumericFeature(nil), a.Numeric...)
	out.Categorical = make([]CategoricalFeature, len(a.Categorical))
	for i, c := range a.Categorical {
		c.Columns = append([]string(nil), c.Columns...)
		levels := make([]Level, len(c.Levels))
		for j, l := range c.Levels {
			l.Encoding = append([]float64(nil), l.Encoding...)
			levels[j] = l
		}
		c.Levels = levels
		out.Categorical[i] = c
	}
	out.Risk.Conditions = append([]Points(nil), a.Risk.Conditions...)
	out.Risk.Smoking = append([]Points(nil), a.Risk.Smoking...)
	out.Risk.BMI = append([]Points(nil), a.Risk.BMI...)
	out.Model.Weights = append([]Weight(nil), a.Model.Weights...)
	out.Model.Monotone = append([]string(nil), a.Model.Monotone...)
	return &out
}
