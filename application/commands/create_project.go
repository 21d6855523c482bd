package commands

import (
	"strings"

	"loupe-backend/pkg/errors"
)

// CreateProjectCommand creates an empty research project.
type CreateProjectCommand struct {
	OwnerID string
	Name    string
}

// Validate validates the command
func (c CreateProjectCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewValidationError("project name cannot be empty")
	}
	return nil
}
