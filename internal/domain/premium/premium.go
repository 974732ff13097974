// Package premium turns raw model estimates into presentable premium figures.
package premium

import "math"

const (
	defaultPrecision = 0
	maxPrecision     = 6
)

// Option applies a configuration option to the Formatter.
type Option func(*Formatter)

// WithFloor sets the lowest premium ever returned. Negative floors clamp to 0.
func WithFloor(floor float64) Option {
	return func(f *Formatter) {
		if floor > 0 && !math.IsInf(floor, 0) {
			f.floor = floor
		}
	}
}

// WithPrecision sets the number of decimal places kept, capped at 6.
func WithPrecision(digits int) Option {
	return func(f *Formatter) {
		switch {
		case digits < 0:
			f.precision = 0
		case digits > maxPrecision:
			f.precision = maxPrecision
		default:
			f.precision = digits
		}
	}
}

// Formatter clamps and rounds raw estimates. It is a pure, total function.
type Formatter struct {
	floor     float64
	precision int
	scale     float64
}

// NewFormatter creates a formatter with a zero floor and whole-unit precision by default.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{precision: defaultPrecision}
	for _, opt := range opts {
		opt(f)
	}
	f.scale = math.Pow10(f.precision)
	// keep the floor itself representable at the chosen precision
	f.floor = math.Ceil(f.floor*f.scale) / f.scale
	return f
}

// Floor returns the configured floor.
func (f *Formatter) Floor() float64 { return f.floor }

// Precision returns the number of decimal places kept.
func (f *Formatter) Precision() int { return f.precision }

// Format clamps raw to the floor and rounds half away from zero.
// NaN maps to the floor and +Inf to the largest finite float.
func (f *Formatter) Format(raw float64) float64 {
	out, _ := f.FormatClamped(raw)
	return out
}

// FormatClamped is Format that also reports whether the floor was applied.
func (f *Formatter) FormatClamped(raw float64) (float64, bool) {
	switch {
	case math.IsNaN(raw):
		return f.floor, true
	case math.IsInf(raw, 1):
		return math.MaxFloat64, false
	}
	if raw < f.floor {
		return f.floor, true
	}
	rounded := math.Round(raw*f.scale) / f.scale
	if math.IsInf(rounded, 0) || math.IsNaN(rounded) {
		rounded = raw
	}
	if rounded < f.floor {
		return f.floor, true
	}
	return rounded, false
}
