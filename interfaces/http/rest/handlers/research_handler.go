package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"loupe-backend/application/commands"
	cmdhandlers "loupe-backend/application/commands/handlers"
	"loupe-backend/pkg/auth"
	"loupe-backend/pkg/common"
	"loupe-backend/pkg/utils"
)

// ResearchHandler serves the research pipeline endpoint.
type ResearchHandler struct {
	orchestrator *cmdhandlers.DeriveNodeOrchestrator
	logger       *zap.Logger
}

// NewResearchHandler creates a new handler instance
func NewResearchHandler(orchestrator *cmdhandlers.DeriveNodeOrchestrator, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type researchRequest struct {
	Query     string `json:"query" validate:"required,min=1,max=2000"`
	ProjectID string `json:"projectId" validate:"omitempty,uuid"`
	ParentID  string `json:"parentId" validate:"omitempty,uuid"`
}

// Research handles POST /api/v1/research. It runs the full pipeline and
// returns the new node together with the project it landed in.
func (h *ResearchHandler) Research(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req researchRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.orchestrator.Handle(r.Context(), commands.DeriveNodeCommand{
		OwnerID:   principal.UserID,
		Query:     req.Query,
		ProjectID: req.ProjectID,
		ParentID:  req.ParentID,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"node":           toNodeView(result.Node),
		"project":        toProjectView(result.Project),
		"projectCreated": result.ProjectCreated,
	})
}
