// Package handlers contains query handlers for read-only operations.
package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
)

// Logger interface for flexible logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ListProjectsHandler handles project listing
type ListProjectsHandler struct {
	projectRepo ports.ProjectRepository
}

// NewListProjectsHandler creates a new handler instance
func NewListProjectsHandler(projectRepo ports.ProjectRepository) *ListProjectsHandler {
	return &ListProjectsHandler{projectRepo: projectRepo}
}

// Handle implements bus.QueryHandler
func (h *ListProjectsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListProjectsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	return h.projectRepo.ListByOwner(ctx, q.OwnerID)
}
