package loadgen

import "errors"

// Sentinel errors reported by a run.
var (
	ErrUnhealthy        = errors.New("service is not ready")
	ErrNoProfiles       = errors.New("no profiles to submit")
	ErrNondeterministic = errors.New("repeated profile priced differently")
	ErrNotRejected      = errors.New("invalid profile was not rejected")
)
