package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumProfiles int           // Number of profiles to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated profiles; empty skips saving
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Profile is a wire-format applicant profile.
type Profile map[string]any

// Quote is the subset of the /predict response the generator checks.
type Quote struct {
	Premium         float64 `json:"premium"`
	Currency        string  `json:"currency"`
	ArtifactVersion string  `json:"artifact_version"`
	Cached          bool    `json:"cached"`
}

// ErrorResponse is the error body returned for rejected requests.
type ErrorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Stats holds run statistics.
type Stats struct {
	ProfilesGenerated int
	Submitted         int
	Successful        int
	Failed            int
	CachedResponses   int

	DeterminismChecked    int
	DeterminismMismatches int

	InvalidSubmitted int
	InvalidRejected  int

	MinPremium float64
	MaxPremium float64
	SumPremium float64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
