// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/premium/internal/app"
	"github.com/okian/premium/internal/domain/engine"
	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/internal/domain/scoring"
)

// Request body limits.
const (
	maxProfileBytes = 64 << 10
	maxBatchBytes   = 8 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, raw map[string]any) (model.Quote, error)
	Explain(ctx context.Context, raw map[string]any) (engine.Breakdown, error)
	PredictBatch(ctx context.Context, raws []map[string]any) ([]model.BatchItem, error)

	Schema() []profile.FieldSpec
	ModelInfo() (model.ModelInfo, error)
	Ready() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	modelHandler   *ModelHandler
	limiter        *RateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit enables a token bucket over the prediction routes.
// A non-positive rps leaves limiting off.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = NewRateLimiter(rps, burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		modelHandler:   NewModelHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limit := s.limiter.Middleware

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/schema", MetricsMiddleware(s.modelHandler.HandleSchema, "schema"))
	mux.HandleFunc("/model", MetricsMiddleware(s.modelHandler.HandleModel, "model"))
	mux.HandleFunc("/predict", MetricsMiddleware(limit(s.predictHandler.HandlePredict), "predict"))
	mux.HandleFunc("/predict/explain", MetricsMiddleware(limit(s.predictHandler.HandleExplain), "predict_explain"))
	mux.HandleFunc("/predict/batch", MetricsMiddleware(limit(s.predictHandler.HandleBatch), "predict_batch"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error to its status code and body.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "validation_error",
			Field:   verr.Field,
			Message: verr.Reason,
		})
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
	case errors.Is(err, scoring.ErrModelShape):
		writeError(w, http.StatusServiceUnavailable, "model_error", WrapKind(op, ErrNotReady, err))
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large", WrapKind(op, ErrTooLarge, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// decodeBody decodes a JSON body keeping numbers as json.Number so integer
// checks stay exact. Trailing content after the value is rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected content after JSON body")
	}
	return nil
}
