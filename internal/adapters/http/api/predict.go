package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/premium/internal/domain/engine"
	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/risk"
)

// PredictDependencies defines the interface for prediction operations.
type PredictDependencies interface {
	Predict(ctx context.Context, raw map[string]any) (model.Quote, error)
	Explain(ctx context.Context, raw map[string]any) (engine.Breakdown, error)
	PredictBatch(ctx context.Context, raws []map[string]any) ([]model.BatchItem, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// batchRequest mirrors the OpenAPI schema for POST /predict/batch.
type batchRequest struct {
	Profiles []map[string]any `json:"profiles"`
}

type batchResponse struct {
	Results []model.BatchItem `json:"results"`
}

// explainResponse mirrors the OpenAPI schema for POST /predict/explain.
type explainResponse struct {
	Columns  []string   `json:"columns"`
	Features []float64  `json:"features"`
	Risk     risk.Score `json:"risk"`
	Raw      float64    `json:"raw"`
	Premium  float64    `json:"premium"`
	Clamped  bool       `json:"clamped"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var raw map[string]any
	if !decodeOrReject(w, r, op, maxProfileBytes, &raw) {
		return
	}
	quote, err := h.deps.Predict(r.Context(), raw)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// HandleExplain handles POST /predict/explain requests.
func (h *PredictHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var raw map[string]any
	if !decodeOrReject(w, r, op, maxProfileBytes, &raw) {
		return
	}
	b, err := h.deps.Explain(r.Context(), raw)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{
		Columns:  b.Features.Columns,
		Features: b.Features.Values,
		Risk:     b.Risk,
		Raw:      b.Raw,
		Premium:  b.Premium,
		Clamped:  b.Clamped,
	})
}

// HandleBatch handles POST /predict/batch requests.
func (h *PredictHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if !decodeOrReject(w, r, op, maxBatchBytes, &req) {
		return
	}
	if req.Profiles == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing profiles")))
		return
	}
	items, err := h.deps.PredictBatch(r.Context(), req.Profiles)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

// decodeOrReject decodes the body into v and writes 400 or 413 when it cannot.
func decodeOrReject(w http.ResponseWriter, r *http.Request, op string, limit int64, v any) bool {
	err := decodeBody(w, r, limit, v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
		return false
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	return false
}
