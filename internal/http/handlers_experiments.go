// Package httpx provides the HTTP API for submitting and tracking LLM experiments.
package httpx

import (
	"errors"
	"net/http"

	"github.com/target/llmlab/internal/domain/model"
	"github.com/target/llmlab/internal/service"
)

// ExperimentHandlers provides HTTP handlers for experiment operations.
type ExperimentHandlers struct {
	Svc *service.ExperimentService
}

// Create validates the request, records a pending experiment and starts it in
// the background. The response is sent before any provider call completes.
func (h *ExperimentHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.LLMRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	exp, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err, "create_failed")
		return
	}

	WriteJSON(w, http.StatusAccepted, model.StartExperimentResponse{
		ExperimentID: exp.ID,
		Status:       exp.Status,
	})
}

// List returns experiments, newest first, optionally filtered by status.
func (h *ExperimentHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := model.ListExperimentsOptions{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("status"); raw != "" {
		var status model.ExperimentStatus
		if err := status.UnmarshalText([]byte(raw)); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_query", Err: err})
			return
		}
		opts.Status = &status
	}

	experiments, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err, "list_failed")
		return
	}
	if experiments == nil {
		experiments = []*model.Experiment{}
	}
	WriteJSON(w, http.StatusOK, experiments)
}

// Get returns the experiment status view; results are included once completed.
func (h *ExperimentHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := experimentIDFromPath(w, r)
	if !ok {
		return
	}

	view, err := h.Svc.Status(r.Context(), id)
	if err != nil {
		WriteAppError(w, err, "status_failed")
		return
	}
	if view == nil {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("experiment not found")})
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Cancel stops a live run. Cancelled is false when nothing was running.
func (h *ExperimentHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := experimentIDFromPath(w, r)
	if !ok {
		return
	}

	cancelled, err := h.Svc.Cancel(r.Context(), id)
	if err != nil {
		WriteAppError(w, err, "cancel_failed")
		return
	}
	WriteJSON(w, http.StatusOK, model.CancelExperimentResponse{ExperimentID: id, Cancelled: cancelled})
}
