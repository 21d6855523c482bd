// Package commands defines state-changing operations and their payloads.
package commands

import (
	"strings"

	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// DeriveNodeCommand runs the full research pipeline for a query:
// web search, follow-up generation, node persistence, and embeddings.
// An empty ProjectID means a new project is created from the query.
type DeriveNodeCommand struct {
	OwnerID   string
	Query     string
	ProjectID string // optional, empty creates a new project
	ParentID  string // optional, requires ProjectID
}

// Validate validates the command
func (c DeriveNodeCommand) Validate() error {
	if c.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(c.Query) == "" {
		return errors.NewValidationError("query cannot be empty")
	}
	if c.ParentID != "" && c.ProjectID == "" {
		return errors.NewValidationError("parent node requires a project")
	}
	if c.ProjectID != "" {
		if _, err := valueobjects.ParseProjectID(c.ProjectID); err != nil {
			return errors.NewValidationError("invalid project ID format")
		}
	}
	if c.ParentID != "" {
		if _, err := valueobjects.ParseNodeID(c.ParentID); err != nil {
			return errors.NewValidationError("invalid parent node ID format")
		}
	}
	return nil
}

// DeriveNodeResult is the full outcome of one research step.
type DeriveNodeResult struct {
	Node           *entities.Node
	Project        *entities.Project
	ProjectCreated bool
}
