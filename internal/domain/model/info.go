package model

// ModelInfo describes the artifact a service is running.
type ModelInfo struct {
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Currency    string   `json:"currency"`
	Link        string   `json:"link"`
	Columns     []string `json:"columns"`
	Parameters  int      `json:"parameters"`
	Floor       float64  `json:"floor"`
	Precision   int      `json:"precision"`
}
