package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"loupe-backend/application/services"
	"loupe-backend/pkg/auth"
	"loupe-backend/pkg/common"
	"loupe-backend/pkg/utils"
)

// ReportHandler serves the report and summary endpoints.
type ReportHandler struct {
	reports *services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new handler instance
func NewReportHandler(reports *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

type generateReportRequest struct {
	Query        string   `json:"query" validate:"required,min=1,max=2000"`
	SelectedKeys []string `json:"selectedKeys" validate:"required,min=1,dive,min=3"`
}

type summarizeRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// Generate handles POST /api/v1/reports
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req generateReportRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	report, err := h.reports.GenerateReport(r.Context(), principal.UserID, req.Query, req.SelectedKeys)
	if err != nil {
		respondWithError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"report": report})
}

// Summarize handles POST /api/v1/summaries
func (h *ReportHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetPrincipal(r.Context()); err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req summarizeRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	summary, err := h.reports.Summarize(r.Context(), req.Content)
	if err != nil {
		respondWithError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
