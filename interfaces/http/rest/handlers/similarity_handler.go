package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	qrybus "loupe-backend/application/queries/bus"
	"loupe-backend/pkg/auth"
	"loupe-backend/pkg/common"
	"loupe-backend/pkg/utils"
)

// SimilarityHandler serves the vector similarity endpoints.
type SimilarityHandler struct {
	queryBus *qrybus.QueryBus
	logger   *zap.Logger
}

// NewSimilarityHandler creates a new handler instance
func NewSimilarityHandler(queryBus *qrybus.QueryBus, logger *zap.Logger) *SimilarityHandler {
	return &SimilarityHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

type similarSourcesRequest struct {
	ProjectID     string   `json:"projectId" validate:"required,uuid"`
	NodeID        string   `json:"nodeId" validate:"required,uuid"`
	SourceURL     string   `json:"sourceUrl" validate:"required"`
	Limit         int      `json:"limit" validate:"omitempty,min=1,max=50"`
	MinSimilarity *float64 `json:"minSimilarity" validate:"omitempty,min=0,max=1"`
}

type similarGuidesRequest struct {
	Query         string   `json:"query" validate:"required,max=2000"`
	Limit         int      `json:"limit" validate:"omitempty,min=1,max=50"`
	MinSimilarity *float64 `json:"minSimilarity" validate:"omitempty,min=0,max=1"`
}

type similarAnswersRequest struct {
	NodeID        string   `json:"nodeId" validate:"required,uuid"`
	MinSimilarity *float64 `json:"minSimilarity" validate:"omitempty,min=0,max=1"`
}

// SimilarSources handles POST /api/v1/similar/sources
func (h *SimilarityHandler) SimilarSources(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req similarSourcesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindSimilarSourcesQuery{
		OwnerID:       principal.UserID,
		ProjectID:     req.ProjectID,
		NodeID:        req.NodeID,
		SourceURL:     req.SourceURL,
		Limit:         req.Limit,
		MinSimilarity: thresholdOrDefault(req.MinSimilarity),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	matches, _ := result.([]ports.SimilarSource)
	common.RespondJSON(w, http.StatusOK, toSimilarSourceViews(matches))
}

// SimilarGuides handles POST /api/v1/similar/guides
func (h *SimilarityHandler) SimilarGuides(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req similarGuidesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindSimilarGuidesQuery{
		OwnerID:       principal.UserID,
		Query:         req.Query,
		Limit:         req.Limit,
		MinSimilarity: thresholdOrDefault(req.MinSimilarity),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	matches, _ := result.([]ports.SimilarGuide)
	common.RespondJSON(w, http.StatusOK, toSimilarGuideViews(matches))
}

// SimilarAnswers handles POST /api/v1/similar/answers
func (h *SimilarityHandler) SimilarAnswers(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req similarAnswersRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindSimilarAnswersQuery{
		OwnerID:       principal.UserID,
		NodeID:        req.NodeID,
		MinSimilarity: thresholdOrDefault(req.MinSimilarity),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	matches, _ := result.([]ports.SimilarAnswer)
	common.RespondJSON(w, http.StatusOK, toSimilarAnswerViews(matches))
}

// thresholdOrDefault maps an absent threshold to the negative sentinel
// the query handlers replace with their per-query default.
func thresholdOrDefault(value *float64) float64 {
	if value == nil {
		return -1
	}
	return *value
}
