package scoring

import (
	"errors"
	"fmt"
)

// ErrModelShape marks a feature vector that does not fit the loaded model.
// It indicates artifact and engine version skew and is never retried.
var ErrModelShape = errors.New("model shape mismatch")

// ModelShapeError carries the details of a shape mismatch.
type ModelShapeError struct {
	Expected int
	Got      int
	// Column is the first column whose name disagrees, if any.
	Column string
}

func (e *ModelShapeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: unexpected column %q (expected %d inputs, got %d)", ErrModelShape, e.Column, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: expected %d inputs, got %d", ErrModelShape, e.Expected, e.Got)
}

func (e *ModelShapeError) Unwrap() error { return ErrModelShape }
