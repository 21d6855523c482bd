package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
	"loupe-backend/domain/core/valueobjects"
)

// GetProjectDetailsHandler returns a project with its chat history
type GetProjectDetailsHandler struct {
	projectRepo ports.ProjectRepository
}

// NewGetProjectDetailsHandler creates a new handler instance
func NewGetProjectDetailsHandler(projectRepo ports.ProjectRepository) *GetProjectDetailsHandler {
	return &GetProjectDetailsHandler{projectRepo: projectRepo}
}

// Handle implements bus.QueryHandler
func (h *GetProjectDetailsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetProjectDetailsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	projectID, err := valueobjects.ParseProjectID(q.ProjectID)
	if err != nil {
		return nil, err
	}

	project, err := h.projectRepo.GetByID(ctx, projectID, q.OwnerID)
	if err != nil {
		return nil, err
	}

	history, err := h.projectRepo.GetChatHistory(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &queries.ProjectDetailsResult{
		Project:     project,
		ChatHistory: history,
	}, nil
}
