// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Estimate is the cacheable result of one prediction. It depends only on the
// profile and the artifact version.
type Estimate struct {
	Premium float64 `json:"premium"`
	Raw     float64 `json:"raw"`
	Clamped bool    `json:"clamped,omitempty"`
}

// Quote is a premium estimate issued to a caller.
// Fields mirror the OpenAPI schema for /predict.
type Quote struct {
	ID              string    `json:"quote_id"`         // unique per response
	Premium         float64   `json:"premium"`          // formatted, non-negative
	Currency        string    `json:"currency"`         // artifact currency unit
	ArtifactVersion string    `json:"artifact_version"` // model that produced the estimate
	Cached          bool      `json:"cached"`           // served from the quote cache
	CreatedAt       time.Time `json:"created_at"`
}

// NewQuote wraps an estimate into a quote with a fresh ID.
func NewQuote(e Estimate, currency, version string, cached bool) Quote {
	return Quote{
		ID:              uuid.New().String(),
		Premium:         e.Premium,
		Currency:        currency,
		ArtifactVersion: version,
		Cached:          cached,
		CreatedAt:       time.Now().UTC(),
	}
}

// BatchItem is the outcome of one profile in a batch request. Exactly one of
// Premium or Error is meaningful.
type BatchItem struct {
	Index   int      `json:"index"`
	Premium *float64 `json:"premium,omitempty"`
	Field   string   `json:"field,omitempty"`
	Error   string   `json:"error,omitempty"`
}
