package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("batch queue is saturated")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum size")
)
