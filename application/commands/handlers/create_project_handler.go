package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/commands"
	"loupe-backend/application/commands/bus"
	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
)

// CreateProjectHandler handles project creation
type CreateProjectHandler struct {
	projectRepo ports.ProjectRepository
	logger      Logger
}

// NewCreateProjectHandler creates a new handler instance
func NewCreateProjectHandler(projectRepo ports.ProjectRepository, logger Logger) *CreateProjectHandler {
	return &CreateProjectHandler{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Handle implements bus.CommandHandler
func (h *CreateProjectHandler) Handle(ctx context.Context, cmd bus.Command) error {
	createCmd, ok := cmd.(commands.CreateProjectCommand)
	if !ok {
		return fmt.Errorf("invalid command type: %T", cmd)
	}

	project, err := entities.NewProject(createCmd.OwnerID, createCmd.Name)
	if err != nil {
		return err
	}

	if err := h.projectRepo.Save(ctx, project); err != nil {
		return err
	}

	h.logger.Info("Project created",
		"projectID", project.ID().String(),
		"ownerID", createCmd.OwnerID,
	)
	return nil
}

// HandleWithResult creates the project and returns it, for callers that
// need the generated ID.
func (h *CreateProjectHandler) HandleWithResult(ctx context.Context, cmd commands.CreateProjectCommand) (*entities.Project, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	project, err := entities.NewProject(cmd.OwnerID, cmd.Name)
	if err != nil {
		return nil, err
	}
	if err := h.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}

	h.logger.Info("Project created",
		"projectID", project.ID().String(),
		"ownerID", cmd.OwnerID,
	)
	return project, nil
}
