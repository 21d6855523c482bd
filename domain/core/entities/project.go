// Package entities contains the domain entities of the research graph.
package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// maxProjectNameLength bounds names derived from free-form queries.
const maxProjectNameLength = 60

// Project groups a user's research nodes under one topic.
// Chat history lives in append-only entries keyed by the project.
type Project struct {
	id        valueobjects.ProjectID
	ownerID   string
	name      string
	createdAt time.Time
	updatedAt time.Time
}

// ChatEntry is one question/answer exchange recorded against a project.
type ChatEntry struct {
	NodeID    valueobjects.NodeID
	Question  string
	Answer    string
	Timestamp time.Time
}

// NewProject creates a project owned by the given user.
func NewProject(ownerID, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if ownerID == "" {
		return nil, errors.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, errors.NewValidationError("project name cannot be empty")
	}

	now := time.Now()
	return &Project{
		id:        valueobjects.NewProjectID(),
		ownerID:   ownerID,
		name:      truncateName(name),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NameFromQuery derives a project name from a research query,
// truncating long queries with an ellipsis.
func NameFromQuery(query string) string {
	return truncateName(strings.TrimSpace(query))
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxProjectNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxProjectNameLength]) + "…"
}

// ReconstructProject rebuilds a project from persisted state.
func ReconstructProject(
	id valueobjects.ProjectID,
	ownerID string,
	name string,
	createdAt time.Time,
	updatedAt time.Time,
) *Project {
	return &Project{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the project identifier.
func (p *Project) ID() valueobjects.ProjectID { return p.id }

// OwnerID returns the owning user's identifier.
func (p *Project) OwnerID() string { return p.ownerID }

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// CreatedAt returns the creation timestamp.
func (p *Project) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last modification timestamp.
func (p *Project) UpdatedAt() time.Time { return p.updatedAt }

// IsOwnedBy checks project ownership.
func (p *Project) IsOwnedBy(userID string) bool {
	return p.ownerID == userID
}

// Touch updates the modification timestamp.
func (p *Project) Touch() {
	p.updatedAt = time.Now()
}
