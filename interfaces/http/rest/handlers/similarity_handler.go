package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindweave-backend/internal/service/embedding"
	"mindweave-backend/pkg/common"
)

// SimilarityHandler handles embedding similarity endpoints
type SimilarityHandler struct {
	cache    *embedding.Cache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSimilarityHandler creates a new similarity handler
func NewSimilarityHandler(cache *embedding.Cache, logger *zap.Logger) *SimilarityHandler {
	return &SimilarityHandler{
		cache:    cache,
		validate: validator.New(),
		logger:   logger,
	}
}

// similaritySearchRequest is the request body for a similarity search
type similaritySearchRequest struct {
	Query      string   `json:"query" validate:"required"`
	Candidates []string `json:"candidates" validate:"required,min=1"`
	Threshold  float64  `json:"threshold" validate:"min=0,max=1"`
	Limit      int      `json:"limit" validate:"min=0"`
}

// similaritySearchResponse carries the ranked matches
type similaritySearchResponse struct {
	Query   string            `json:"query"`
	Matches []embedding.Match `json:"matches"`
}

// Search handles POST /api/similarity/search
func (h *SimilarityHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req similaritySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	matches, err := h.cache.FindSimilar(r.Context(), req.Query, req.Candidates, req.Threshold, req.Limit)
	if err != nil {
		h.logger.Debug("Similarity search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		RespondAppError(w, err)
		return
	}
	if matches == nil {
		matches = []embedding.Match{}
	}

	common.RespondJSON(w, http.StatusOK, similaritySearchResponse{
		Query:   req.Query,
		Matches: matches,
	})
}

// ExportSnapshot handles GET /api/similarity/snapshot
func (h *SimilarityHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := h.cache.ExportSnapshot()
	common.RespondJSON(w, http.StatusOK, snapshot)
}

// ImportSnapshot handles PUT /api/similarity/snapshot
func (h *SimilarityHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot embedding.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		return
	}

	clear := r.URL.Query().Get("clear") == "true"
	if err := h.cache.ImportSnapshot(&snapshot, embedding.ImportOptions{
		ClearExisting:     clear,
		ValidateDimension: true,
	}); err != nil {
		RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]int{"entries": h.cache.Len()})
}
