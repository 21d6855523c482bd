// Package queries defines the read-only operations of the service.
package queries

import (
	"strings"

	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// ListProjectsQuery returns all projects owned by a user.
type ListProjectsQuery struct {
	OwnerID string
}

// Validate validates the query
func (q ListProjectsQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	return nil
}

// GetProjectDetailsQuery returns a project with its chat history.
type GetProjectDetailsQuery struct {
	OwnerID   string
	ProjectID string
}

// Validate validates the query
func (q GetProjectDetailsQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if _, err := valueobjects.ParseProjectID(q.ProjectID); err != nil {
		return errors.NewValidationError("invalid project ID format")
	}
	return nil
}

// GetProjectNodesQuery returns a project's nodes as a flat list in
// creation order.
type GetProjectNodesQuery struct {
	OwnerID   string
	ProjectID string
}

// Validate validates the query
func (q GetProjectNodesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if _, err := valueobjects.ParseProjectID(q.ProjectID); err != nil {
		return errors.NewValidationError("invalid project ID format")
	}
	return nil
}

// FindSimilarSourcesQuery looks up sources within a project similar to
// a stored source's content, identified by node and URL.
type FindSimilarSourcesQuery struct {
	OwnerID       string
	ProjectID     string
	NodeID        string
	SourceURL     string
	Limit         int     // 0 means the default of 5
	MinSimilarity float64 // negative means the default of 0.7
}

// Validate validates the query
func (q FindSimilarSourcesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if _, err := valueobjects.ParseProjectID(q.ProjectID); err != nil {
		return errors.NewValidationError("invalid project ID format")
	}
	if _, err := valueobjects.ParseNodeID(q.NodeID); err != nil {
		return errors.NewValidationError("invalid node ID format")
	}
	if strings.TrimSpace(q.SourceURL) == "" {
		return errors.NewValidationError("source URL is required")
	}
	if q.Limit < 0 {
		return errors.NewValidationError("limit cannot be negative")
	}
	if q.MinSimilarity > 1 {
		return errors.NewValidationError("minimum similarity cannot exceed 1")
	}
	return nil
}

// FindSimilarGuidesQuery looks up stored sources across the owner's
// projects similar to a free-text query.
type FindSimilarGuidesQuery struct {
	OwnerID       string
	Query         string
	Limit         int     // 0 means the default of 4
	MinSimilarity float64 // negative means the default of 0.5
}

// Validate validates the query
func (q FindSimilarGuidesQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(q.Query) == "" {
		return errors.NewValidationError("query cannot be empty")
	}
	if q.Limit < 0 {
		return errors.NewValidationError("limit cannot be negative")
	}
	if q.MinSimilarity > 1 {
		return errors.NewValidationError("minimum similarity cannot exceed 1")
	}
	return nil
}

// FindSimilarAnswersQuery looks up a previously answered question across
// the owner's projects similar to a node's stored answer.
type FindSimilarAnswersQuery struct {
	OwnerID       string
	NodeID        string
	MinSimilarity float64 // negative means the default of 0.6
}

// Validate validates the query
func (q FindSimilarAnswersQuery) Validate() error {
	if q.OwnerID == "" {
		return errors.NewValidationError("owner ID is required")
	}
	if _, err := valueobjects.ParseNodeID(q.NodeID); err != nil {
		return errors.NewValidationError("invalid node ID format")
	}
	if q.MinSimilarity > 1 {
		return errors.NewValidationError("minimum similarity cannot exceed 1")
	}
	return nil
}
