package artifact

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Both are fatal at startup.
var (
	ErrLoadArtifact    = errors.New("load model artifact failed")
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}
