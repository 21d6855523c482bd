package commands

import (
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// DeleteProjectCommand removes a project and all nodes and sources
// under it.
type DeleteProjectCommand struct {
	OwnerID   string
	ProjectID string
}

// Validate validates the command
func (c DeleteProjectCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if c.ProjectID == "" {
		return errors.NewValidationError("project ID is required")
	}
	if _, err := valueobjects.ParseProjectID(c.ProjectID); err != nil {
		return errors.NewValidationError("invalid project ID format")
	}
	return nil
}
