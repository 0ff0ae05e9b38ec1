// Package handlers contains the REST endpoint handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindweave-backend/application/ports"
	"mindweave-backend/internal/service/expansion"
	"mindweave-backend/pkg/common"
	pkgerrors "mindweave-backend/pkg/errors"
)

// ownerHeader carries the requesting user's identity
const ownerHeader = "X-User-ID"

// ExpansionHandler handles expansion job endpoints
type ExpansionHandler struct {
	engine   *expansion.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewExpansionHandler creates a new expansion handler
func NewExpansionHandler(engine *expansion.Engine, logger *zap.Logger) *ExpansionHandler {
	return &ExpansionHandler{
		engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
}

// startExpansionRequest is the request body for starting an expansion
type startExpansionRequest struct {
	ContextRef           string   `json:"context_ref" validate:"required"`
	Depth                int      `json:"depth" validate:"required,min=1"`
	FanoutFactor         float64  `json:"fanout_factor" validate:"omitempty,gt=0"`
	MaxNewPerNode        int      `json:"max_new_per_node" validate:"required,min=1"`
	MaxTotalNew          int      `json:"max_total_new" validate:"required,min=1"`
	ProviderID           string   `json:"provider_id"`
	Strategy             string   `json:"strategy"`
	FocusNodeIDs         []string `json:"focus_node_ids"`
	ExcludeNodeIDs       []string `json:"exclude_node_ids"`
	MemoryAdmissionRatio float64  `json:"memory_admission_ratio" validate:"min=0,max=1"`
}

// StartExpansion handles POST /api/expansions
func (h *ExpansionHandler) StartExpansion(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header is required")
		return
	}

	var req startExpansionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	opts := ports.ExpansionOptions{
		Depth:                req.Depth,
		FanoutFactor:         req.FanoutFactor,
		MaxNewPerNode:        req.MaxNewPerNode,
		MaxTotalNew:          req.MaxTotalNew,
		ProviderID:           req.ProviderID,
		Strategy:             req.Strategy,
		FocusNodeIDs:         toSet(req.FocusNodeIDs),
		ExcludeNodeIDs:       toSet(req.ExcludeNodeIDs),
		MemoryAdmissionRatio: req.MemoryAdmissionRatio,
	}

	job, err := h.engine.Start(r.Context(), ownerID, req.ContextRef, opts)
	if err != nil {
		h.logger.Debug("Failed to start expansion",
			zap.String("owner_id", ownerID),
			zap.String("context_ref", req.ContextRef),
			zap.Error(err))
		RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, job)
}

// GetExpansion handles GET /api/expansions/{jobID}
func (h *ExpansionHandler) GetExpansion(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "job ID is required")
		return
	}

	job, err := h.engine.Status(r.Context(), jobID)
	if err != nil {
		RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, job)
}

// CancelExpansion handles DELETE /api/expansions/{jobID}
func (h *ExpansionHandler) CancelExpansion(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "job ID is required")
		return
	}

	if err := h.engine.Cancel(r.Context(), jobID); err != nil {
		RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(ports.JobStatusCancelling),
	})
}

// GetExpansionResult handles GET /api/expansions/{jobID}/result
func (h *ExpansionHandler) GetExpansionResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "job ID is required")
		return
	}

	result, err := h.engine.Results(r.Context(), jobID)
	if err != nil {
		RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// RespondAppError maps application error types to HTTP status codes
func RespondAppError(w http.ResponseWriter, err error) {
	switch {
	case pkgerrors.IsValidation(err):
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case pkgerrors.IsNotFound(err):
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case pkgerrors.IsTimeout(err):
		common.RespondError(w, http.StatusRequestTimeout, "TIMEOUT", err.Error())
	case pkgerrors.IsCacheFormat(err):
		common.RespondError(w, http.StatusUnprocessableEntity, "INVALID_FORMAT", err.Error())
	default:
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
