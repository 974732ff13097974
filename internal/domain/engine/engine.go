// Package engine wires the premium estimation pipeline:
// validate, encode, score risk, apply the model, then format.
//
// An Engine captures one immutable artifact. Every call is a pure,
// synchronous function of its input, so a single Engine may be shared by any
// number of goroutines and several engines with different artifacts may
// coexist in one process.
package engine

import (
	"fmt"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/encoding"
	"github.com/okian/premium/internal/domain/premium"
	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/internal/domain/risk"
	"github.com/okian/premium/internal/domain/scoring"
)

// Option applies a configuration option to the Engine.
type Option func(*options)

type options struct {
	formatter []premium.Option
	scorer    scoring.Scorer
}

// WithFloor sets the premium floor applied by the formatter.
func WithFloor(floor float64) Option {
	return func(o *options) { o.formatter = append(o.formatter, premium.WithFloor(floor)) }
}

// WithPrecision sets the number of decimal places in returned premiums.
func WithPrecision(digits int) Option {
	return func(o *options) { o.formatter = append(o.formatter, premium.WithPrecision(digits)) }
}

// WithScorer replaces the artifact's linear model with another scoring function.
func WithScorer(s scoring.Scorer) Option {
	return func(o *options) {
		if s != nil {
			o.scorer = s
		}
	}
}

// Breakdown is the full trace of one prediction.
type Breakdown struct {
	Profile  profile.Profile
	Features encoding.Vector
	Risk     risk.Score
	Raw      float64
	Premium  float64
	Clamped  bool
}

// Engine runs predictions against one artifact.
type Engine struct {
	version   string
	currency  string
	encoder   *encoding.Encoder
	risk      *risk.Scorer
	scorer    scoring.Scorer
	formatter *premium.Formatter
	columns   []string
}

// New builds the pipeline for art and runs a self-check on the minimum-risk
// profile. Shape mismatches between the encoder and the model surface here
// as scoring.ErrModelShape instead of at request time.
func New(art *artifact.ModelArtifact, opts ...Option) (*Engine, error) {
	if art == nil {
		return nil, fmt.Errorf("build engine: %w: nil artifact", artifact.ErrInvalidArtifact)
	}
	art = art.Clone()
	if err := art.Validate(); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	enc, err := encoding.New(art)
	if err != nil {
		return nil, fmt.Errorf("build encoder: %w", err)
	}
	rs, err := risk.New(art.Risk)
	if err != nil {
		return nil, fmt.Errorf("build risk scorer: %w", err)
	}
	scorer := o.scorer
	if scorer == nil {
		scorer = scoring.New(art.Model)
	}

	e := &Engine{
		version:   art.Version,
		currency:  art.Currency,
		encoder:   enc,
		risk:      rs,
		scorer:    scorer,
		formatter: premium.NewFormatter(o.formatter...),
		columns:   append(enc.Columns(), risk.Columns()...),
	}
	if err := e.selfCheck(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) selfCheck() error {
	if _, err := e.EvaluateProfile(Probe()); err != nil {
		return fmt.Errorf("engine self-check for artifact %q: %w", e.version, err)
	}
	return nil
}

// Probe returns the minimum-risk profile used by the startup self-check.
func Probe() profile.Profile {
	return profile.MinimumRisk(profile.Profile{
		InsurancePlan:    "Bronze",
		EmploymentStatus: "Salaried",
		Gender:           "Female",
		MaritalStatus:    "Married",
		Region:           "Northeast",
	})
}

// Predict validates raw and returns the formatted premium.
func (e *Engine) Predict(raw map[string]any) (float64, error) {
	b, err := e.Evaluate(raw)
	if err != nil {
		return 0, err
	}
	return b.Premium, nil
}

// Evaluate validates raw and returns the full breakdown. Invalid input fails
// with a *profile.ValidationError before any computation runs.
func (e *Engine) Evaluate(raw map[string]any) (Breakdown, error) {
	p, err := profile.Validate(raw)
	if err != nil {
		return Breakdown{}, err
	}
	return e.EvaluateProfile(p)
}

// EvaluateProfile runs the pipeline on an already validated profile.
func (e *Engine) EvaluateProfile(p profile.Profile) (Breakdown, error) {
	features := e.encoder.Encode(p)
	r := e.risk.Score(p)
	raw, err := e.scorer.Score(features, r)
	if err != nil {
		return Breakdown{}, err
	}
	out, clamped := e.formatter.FormatClamped(raw)
	return Breakdown{
		Profile:  p,
		Features: features,
		Risk:     r,
		Raw:      raw,
		Premium:  out,
		Clamped:  clamped,
	}, nil
}

// Format applies this engine's floor and precision to a raw model output.
func (e *Engine) Format(raw float64) (float64, bool) {
	return e.formatter.FormatClamped(raw)
}

// Version returns the artifact version the engine was built from.
func (e *Engine) Version() string { return e.version }

// Currency returns the currency unit of returned premiums.
func (e *Engine) Currency() string { return e.currency }

// Columns returns the full model input columns: encoded features then risk indicators.
func (e *Engine) Columns() []string { return append([]string(nil), e.columns...) }

// Floor returns the premium floor.
func (e *Engine) Floor() float64 { return e.formatter.Floor() }

// Precision returns the number of decimal places in returned premiums.
func (e *Engine) Precision() int { return e.formatter.Precision() }
