// Package scoring applies the trained premium model to a feature vector.
package scoring

import (
	"math"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/encoding"
	"github.com/okian/premium/internal/domain/risk"
)

// Scorer computes a raw premium estimate from encoded features and risk indicators.
type Scorer interface {
	// Score fails with a *ModelShapeError when the inputs do not match the model.
	Score(features encoding.Vector, r risk.Score) (float64, error)
}

// Model is a generalized linear model: link(intercept + Σ wᵢ·xᵢ).
// Parameters are copied on construction and never mutated.
type Model struct {
	link      string
	intercept float64
	columns   []string
	weights   []float64
}

var _ Scorer = (*Model)(nil)

// New builds a model from the artifact's linear parameters.
func New(m artifact.LinearModel) *Model {
	out := &Model{
		link:      m.Link,
		intercept: m.Intercept,
		columns:   make([]string, len(m.Weights)),
		weights:   make([]float64, len(m.Weights)),
	}
	if out.link == "" {
		out.link = artifact.LinkIdentity
	}
	for i, w := range m.Weights {
		out.columns[i] = w.Column
		out.weights[i] = w.Weight
	}
	return out
}

// Columns returns the input columns the model expects, in order.
func (m *Model) Columns() []string {
	return append([]string(nil), m.columns...)
}

// ParameterCount returns the number of weights, excluding the intercept.
func (m *Model) ParameterCount() int { return len(m.weights) }

// Score concatenates features and risk indicators and applies the model.
func (m *Model) Score(features encoding.Vector, r risk.Score) (float64, error) {
	riskCols := risk.Columns()
	got := features.Len() + len(riskCols)
	if got != len(m.weights) || len(features.Columns) != features.Len() {
		return 0, &ModelShapeError{Expected: len(m.weights), Got: got}
	}
	for i, col := range features.Columns {
		if col != m.columns[i] {
			return 0, &ModelShapeError{Expected: len(m.weights), Got: got, Column: col}
		}
	}
	offset := features.Len()
	for i, col := range riskCols {
		if col != m.columns[offset+i] {
			return 0, &ModelShapeError{Expected: len(m.weights), Got: got, Column: col}
		}
	}

	eta := m.intercept
	for i, x := range features.Values {
		eta += m.weights[i] * x
	}
	for i, x := range r.Values() {
		eta += m.weights[offset+i] * x
	}

	if m.link == artifact.LinkLog {
		return math.Exp(eta), nil
	}
	return eta, nil
}
