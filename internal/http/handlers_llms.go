package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/domain/model"
	"github.com/target/llmlab/internal/service"
)

// LLMHandlers serves the model catalog and synchronous generation.
type LLMHandlers struct {
	Svc     *service.ExperimentService
	Catalog core.ModelCatalog
	Logger  *slog.Logger
}

// Providers lists the models requests may name.
func (h *LLMHandlers) Providers(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, model.ModelsResponse{Models: h.Catalog.Models(r.Context())})
}

// Generate records an experiment for the request, runs it to completion on
// the request's context and returns the aggregated results.
func (h *LLMHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.LLMRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	exp, resp, err := h.Svc.SubmitSync(r.Context(), &req)
	if err != nil {
		if h.Logger != nil && exp != nil {
			h.Logger.ErrorContext(r.Context(), "generation failed", "experiment_id", exp.ID, "error", err)
		}
		WriteAppError(w, err, "generation_failed")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
