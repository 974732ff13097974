// Package encoding turns a validated profile into the fixed-order numeric
// feature vector the premium model was trained on.
package encoding

import (
	"fmt"

	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/profile"
)

// Vector is an ordered set of named features.
type Vector struct {
	Columns []string
	Values  []float64
}

// Len returns the number of features.
func (v Vector) Len() int { return len(v.Values) }

// Encoder applies the artifact's scaling statistics and encoding tables.
// It holds only immutable lookup tables and is safe for concurrent use.
type Encoder struct {
	columns     []string
	numeric     []numericColumn
	categorical []categoricalColumns
}

type numericColumn struct {
	field  string
	scaler string
	offset float64
	scale  float64
}

type categoricalColumns struct {
	field  string
	width  int
	levels map[string][]float64
}

// New precompiles the encoder tables. Errors indicate a broken artifact.
func New(art *artifact.ModelArtifact) (*Encoder, error) {
	if art == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrEncoderConfig)
	}
	e := &Encoder{columns: art.Columns()}

	for _, n := range art.Numeric {
		if _, ok := profile.Spec(n.Field); !ok {
			return nil, fmt.Errorf("%w: unknown numeric field %q", ErrEncoderConfig, n.Field)
		}
		col := numericColumn{field: n.Field, scaler: n.Scaler, scale: 1}
		switch n.Scaler {
		case artifact.ScalerMinMax:
			if n.Max <= n.Min {
				return nil, fmt.Errorf("%w: minmax range of %q is empty", ErrEncoderConfig, n.Field)
			}
			col.offset, col.scale = n.Min, n.Max-n.Min
		case artifact.ScalerStandard:
			if n.Std <= 0 {
				return nil, fmt.Errorf("%w: std of %q must be positive", ErrEncoderConfig, n.Field)
			}
			col.offset, col.scale = n.Mean, n.Std
		case artifact.ScalerNone, "":
		default:
			return nil, fmt.Errorf("%w: unknown scaler %q", ErrEncoderConfig, n.Scaler)
		}
		e.numeric = append(e.numeric, col)
	}

	for _, c := range art.Categorical {
		spec, ok := profile.Spec(c.Field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown categorical field %q", ErrEncoderConfig, c.Field)
		}
		table := categoricalColumns{field: c.Field, width: len(c.Columns), levels: make(map[string][]float64, len(c.Levels))}
		for _, l := range c.Levels {
			if len(l.Encoding) != table.width {
				return nil, fmt.Errorf("%w: level %q of %q has width %d, want %d", ErrEncoderConfig, l.Value, c.Field, len(l.Encoding), table.width)
			}
			table.levels[l.Value] = append([]float64(nil), l.Encoding...)
		}
		for _, v := range spec.Values {
			if _, ok := table.levels[v]; !ok {
				return nil, fmt.Errorf("%w: %q has no encoding for %q", ErrEncoderConfig, c.Field, v)
			}
		}
		e.categorical = append(e.categorical, table)
	}
	return e, nil
}

// Columns returns a copy of the output column names.
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Encode maps p to its feature vector. p must come from profile.Validate.
func (e *Encoder) Encode(p profile.Profile) Vector {
	values := make([]float64, 0, len(e.columns))
	for _, n := range e.numeric {
		x, _ := p.Numeric(n.field)
		if n.scaler == artifact.ScalerMinMax || n.scaler == artifact.ScalerStandard {
			x = (x - n.offset) / n.scale
		}
		values = append(values, x)
	}
	for _, c := range e.categorical {
		v, _ := p.Category(c.field)
		enc, ok := c.levels[v]
		if !ok {
			// unreachable for validated profiles; keep the shape fixed
			enc = make([]float64, c.width)
		}
		values = append(values, enc...)
	}
	return Vector{Columns: e.Columns(), Values: values}
}
