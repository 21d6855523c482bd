package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
	"loupe-backend/domain/core/valueobjects"
)

// GetProjectNodesHandler returns a project's research history as a flat
// ordered node list
type GetProjectNodesHandler struct {
	projectRepo ports.ProjectRepository
	nodeRepo    ports.NodeRepository
}

// NewGetProjectNodesHandler creates a new handler instance
func NewGetProjectNodesHandler(projectRepo ports.ProjectRepository, nodeRepo ports.NodeRepository) *GetProjectNodesHandler {
	return &GetProjectNodesHandler{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
	}
}

// Handle implements bus.QueryHandler
func (h *GetProjectNodesHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetProjectNodesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	projectID, err := valueobjects.ParseProjectID(q.ProjectID)
	if err != nil {
		return nil, err
	}

	// Ownership check before touching the nodes.
	if _, err := h.projectRepo.GetByID(ctx, projectID, q.OwnerID); err != nil {
		return nil, err
	}

	nodes, err := h.nodeRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &queries.ProjectNodesResult{
		Nodes: nodes,
		Total: len(nodes),
	}, nil
}
