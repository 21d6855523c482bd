package entities

import (
	"strings"
	"time"

	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// Source is a stored web source with its content embedding. Sources
// belong to a node and are keyed by URL within it.
type Source struct {
	id              valueobjects.SourceID
	nodeID          valueobjects.NodeID
	projectID       valueobjects.ProjectID
	title           string
	url             string
	content         string
	embedding       valueobjects.Embedding
	embeddingStatus EmbeddingStatus
	createdAt       time.Time
}

// NewSource creates a source. A zero embedding leaves the source in the
// pending state so a backfill can retry later.
func NewSource(
	nodeID valueobjects.NodeID,
	projectID valueobjects.ProjectID,
	title, url, content string,
	embedding valueobjects.Embedding,
) (*Source, error) {
	url = strings.TrimSpace(url)
	if nodeID.IsZero() {
		return nil, errors.NewValidationError("node ID is required")
	}
	if projectID.IsZero() {
		return nil, errors.NewValidationError("project ID is required")
	}
	if url == "" {
		return nil, errors.NewValidationError("source URL cannot be empty")
	}

	status := EmbeddingPending
	if !embedding.IsZero() {
		status = EmbeddingDone
	}

	return &Source{
		id:              valueobjects.NewSourceID(),
		nodeID:          nodeID,
		projectID:       projectID,
		title:           title,
		url:             url,
		content:         content,
		embedding:       embedding,
		embeddingStatus: status,
		createdAt:       time.Now(),
	}, nil
}

// ReconstructSource rebuilds a source from persisted state.
func ReconstructSource(
	id valueobjects.SourceID,
	nodeID valueobjects.NodeID,
	projectID valueobjects.ProjectID,
	title, url, content string,
	embedding valueobjects.Embedding,
	embeddingStatus EmbeddingStatus,
	createdAt time.Time,
) *Source {
	return &Source{
		id:              id,
		nodeID:          nodeID,
		projectID:       projectID,
		title:           title,
		url:             url,
		content:         content,
		embedding:       embedding,
		embeddingStatus: embeddingStatus,
		createdAt:       createdAt,
	}
}

// ID returns the source identifier.
func (s *Source) ID() valueobjects.SourceID { return s.id }

// NodeID returns the owning node's identifier.
func (s *Source) NodeID() valueobjects.NodeID { return s.nodeID }

// ProjectID returns the owning project's identifier.
func (s *Source) ProjectID() valueobjects.ProjectID { return s.projectID }

// Title returns the source title.
func (s *Source) Title() string { return s.title }

// URL returns the source URL.
func (s *Source) URL() string { return s.url }

// Content returns the captured page content.
func (s *Source) Content() string { return s.content }

// Embedding returns the content embedding.
func (s *Source) Embedding() valueobjects.Embedding { return s.embedding }

// EmbeddingStatus reports the embedding lifecycle state.
func (s *Source) EmbeddingStatus() EmbeddingStatus { return s.embeddingStatus }

// CreatedAt returns the creation timestamp.
func (s *Source) CreatedAt() time.Time { return s.createdAt }

// AttachEmbedding records a computed content embedding.
func (s *Source) AttachEmbedding(embedding valueobjects.Embedding) error {
	if embedding.IsZero() {
		return errors.NewValidationError("embedding cannot be empty")
	}
	s.embedding = embedding
	s.embeddingStatus = EmbeddingDone
	return nil
}

// MarkEmbeddingFailed records that embedding the content failed.
func (s *Source) MarkEmbeddingFailed() {
	s.embeddingStatus = EmbeddingFailed
}
