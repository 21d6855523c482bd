package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"loupe-backend/application/commands"
	cmdbus "loupe-backend/application/commands/bus"
	cmdhandlers "loupe-backend/application/commands/handlers"
	"loupe-backend/application/queries"
	qrybus "loupe-backend/application/queries/bus"
	"loupe-backend/domain/core/entities"
	"loupe-backend/pkg/auth"
	"loupe-backend/pkg/common"
	"loupe-backend/pkg/utils"
)

// ProjectHandler serves the project CRUD endpoints.
type ProjectHandler struct {
	commandBus *cmdbus.CommandBus
	queryBus   *qrybus.QueryBus
	projects   *cmdhandlers.CreateProjectHandler
	logger     *zap.Logger
}

// NewProjectHandler creates a new handler instance
func NewProjectHandler(
	commandBus *cmdbus.CommandBus,
	queryBus *qrybus.QueryBus,
	projects *cmdhandlers.CreateProjectHandler,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		projects:   projects,
		logger:     logger,
	}
}

type createProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req createProjectRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	project, err := h.projects.HandleWithResult(r.Context(), commands.CreateProjectCommand{
		OwnerID: principal.UserID,
		Name:    req.Name,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toProjectView(project))
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListProjectsQuery{OwnerID: principal.UserID})
	if err != nil {
		respondWithError(w, err)
		return
	}

	projects, _ := result.([]*entities.Project)
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p))
	}
	common.RespondJSON(w, http.StatusOK, views)
}

// Get handles GET /api/v1/projects/{projectID}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetProjectDetailsQuery{
		OwnerID:   principal.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	details, ok := result.(*queries.ProjectDetailsResult)
	if !ok {
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected query result")
		return
	}

	history := make([]chatEntryView, 0, len(details.ChatHistory))
	for _, entry := range details.ChatHistory {
		history = append(history, toChatEntryView(entry))
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"project":     toProjectView(details.Project),
		"chatHistory": history,
	})
}

// Delete handles DELETE /api/v1/projects/{projectID}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	err = h.commandBus.Send(r.Context(), commands.DeleteProjectCommand{
		OwnerID:   principal.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Nodes handles GET /api/v1/projects/{projectID}/nodes
func (h *ProjectHandler) Nodes(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.GetPrincipal(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetProjectNodesQuery{
		OwnerID:   principal.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	res, ok := result.(*queries.ProjectNodesResult)
	if !ok {
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected query result")
		return
	}

	views := make([]nodeView, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		views = append(views, toNodeView(n))
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": views,
		"total": res.Total,
	})
}
