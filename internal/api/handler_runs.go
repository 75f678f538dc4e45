package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lakeload/internal/domain"
	"lakeload/internal/middleware"
)

// CreateRunRequest is the body of POST /v1/runs.
type CreateRunRequest struct {
	Stages []string `json:"stages"`
}

// ListRunsResponse is the body of GET /v1/runs.
type ListRunsResponse struct {
	Runs  []domain.Run `json:"runs"`
	Total int64        `json:"total"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateRun executes a run synchronously. A failed run is returned with 500
// alongside the error; a run already in progress yields 409.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body CreateRunRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	req := domain.RunRequest{TriggerType: domain.TriggerTypeAPI, TriggeredBy: "api"}
	for _, s := range body.Stages {
		stage, err := domain.ParseStage(s)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		req.Stages = append(req.Stages, stage)
	}

	run, err := h.runner.Run(r.Context(), req)
	if err != nil {
		if run == nil {
			writeDomainError(w, r, err)
			return
		}
		h.logger.Warn("run failed", "run_id", run.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:      http.StatusInternalServerError,
			Message:   err.Error(),
			RequestID: middleware.RequestIDFromContext(r.Context()),
			Run:       run,
		})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListRuns returns run history, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := domain.RunFilter{}
	q := r.URL.Query()
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > domain.MaxMaxResults {
			writeDomainError(w, r, domain.ErrValidation("max_results must be between 1 and %d", domain.MaxMaxResults))
			return
		}
		filter.Page.MaxResults = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeDomainError(w, r, domain.ErrValidation("offset must be a non-negative integer"))
			return
		}
		filter.Page.Offset = n
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}

	runs, total, err := h.runs.ListRuns(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Total: total})
}

// GetRun returns one run with its steps.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
