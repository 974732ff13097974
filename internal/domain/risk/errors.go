package risk

import "errors"

// ErrRiskConfig reports a risk rule that cannot score the full profile domain.
var ErrRiskConfig = errors.New("invalid risk rule")
