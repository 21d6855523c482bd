package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/commands"
	"loupe-backend/application/commands/bus"
	"loupe-backend/application/ports"
	"loupe-backend/domain/core/valueobjects"
)

// DeleteProjectHandler handles project deletion
type DeleteProjectHandler struct {
	projectRepo ports.ProjectRepository
	logger      Logger
}

// NewDeleteProjectHandler creates a new handler instance
func NewDeleteProjectHandler(projectRepo ports.ProjectRepository, logger Logger) *DeleteProjectHandler {
	return &DeleteProjectHandler{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Handle implements bus.CommandHandler
func (h *DeleteProjectHandler) Handle(ctx context.Context, cmd bus.Command) error {
	deleteCmd, ok := cmd.(commands.DeleteProjectCommand)
	if !ok {
		return fmt.Errorf("invalid command type: %T", cmd)
	}

	projectID, err := valueobjects.ParseProjectID(deleteCmd.ProjectID)
	if err != nil {
		return err
	}

	// Ownership check happens inside the repository: deletion is scoped
	// to the owner and misses report not-found.
	if err := h.projectRepo.Delete(ctx, projectID, deleteCmd.OwnerID); err != nil {
		return err
	}

	h.logger.Info("Project deleted",
		"projectID", deleteCmd.ProjectID,
		"ownerID", deleteCmd.OwnerID,
	)
	return nil
}
