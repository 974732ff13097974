package api

import (
	"net/http"

	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/profile"
)

// ModelDependencies exposes what the engine accepts and runs.
type ModelDependencies interface {
	Schema() []profile.FieldSpec
	ModelInfo() (model.ModelInfo, error)
}

// ModelHandler serves schema and artifact metadata.
type ModelHandler struct {
	deps ModelDependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps ModelDependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

type schemaResponse struct {
	Fields []profile.FieldSpec `json:"fields"`
}

// HandleSchema handles GET /schema requests.
func (h *ModelHandler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Fields: h.deps.Schema()})
}

// HandleModel handles GET /model requests.
func (h *ModelHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.model"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info, err := h.deps.ModelInfo()
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
