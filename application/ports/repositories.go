// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations.
package ports

import (
	"context"

	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
)

// ProjectRepository persists projects and their chat history.
type ProjectRepository interface {
	// Save persists a new project.
	Save(ctx context.Context, project *entities.Project) error

	// GetByID retrieves a project scoped to its owner.
	// Returns a not-found error when the project does not exist or
	// belongs to another user.
	GetByID(ctx context.Context, id valueobjects.ProjectID, ownerID string) (*entities.Project, error)

	// ListByOwner returns all projects for a user, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Project, error)

	// Delete removes a project and everything under it.
	Delete(ctx context.Context, id valueobjects.ProjectID, ownerID string) error

	// AppendChatEntry atomically appends one exchange to the project's
	// chat history.
	AppendChatEntry(ctx context.Context, id valueobjects.ProjectID, entry entities.ChatEntry) error

	// GetChatHistory returns a project's chat entries in append order.
	GetChatHistory(ctx context.Context, id valueobjects.ProjectID) ([]entities.ChatEntry, error)
}

// NodeRepository persists research nodes.
type NodeRepository interface {
	// Save persists a new node.
	Save(ctx context.Context, node *entities.Node) error

	// GetByID retrieves a node by ID.
	GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// ListByProject returns a project's nodes in creation order.
	ListByProject(ctx context.Context, projectID valueobjects.ProjectID) ([]*entities.Node, error)

	// UpdateAnswerEmbedding records the node's answer embedding and
	// embedding status after the deferred embedding call completes.
	UpdateAnswerEmbedding(ctx context.Context, id valueobjects.NodeID, embedding valueobjects.Embedding, status entities.EmbeddingStatus) error
}

// SourceData is the subset of a stored source used for report synthesis.
type SourceData struct {
	Title   string
	URL     string
	Content string
}

// SourceRepository persists web sources and their embeddings.
type SourceRepository interface {
	// Save persists a source.
	Save(ctx context.Context, source *entities.Source) error

	// GetEmbedding returns the stored content embedding for a node's
	// source by URL. A zero embedding means none is stored.
	GetEmbedding(ctx context.Context, nodeID valueobjects.NodeID, url string) (valueobjects.Embedding, error)

	// ListByURLs returns the owner's stored sources matching the given
	// URLs, one entry per distinct URL.
	ListByURLs(ctx context.Context, ownerID string, urls []string) ([]SourceData, error)
}

// SimilarSource is one source matched by vector similarity.
type SimilarSource struct {
	NodeID      valueobjects.NodeID
	Query       string
	SourceTitle string
	SourceURL   string
	Similarity  float64
}

// SimilarAnswer is a previously answered question matched across the
// owner's projects.
type SimilarAnswer struct {
	NodeID        valueobjects.NodeID
	Query         string
	ProjectID     valueobjects.ProjectID
	ProjectName   string
	AnswerSnippet string
	Similarity    float64
}

// SimilarGuide is a stored source matched against a free-text query.
type SimilarGuide struct {
	Title      string
	URL        string
	Content    string
	Similarity float64
}

// SimilaritySearcher runs cosine-similarity queries over stored
// embeddings. Implementations return (nil, nil) for a zero query vector.
type SimilaritySearcher interface {
	// FindSimilarSources returns up to limit sources within the project
	// whose content similarity strictly exceeds minSimilarity, most
	// similar first.
	FindSimilarSources(ctx context.Context, projectID valueobjects.ProjectID, query valueobjects.Embedding, limit int, minSimilarity float64) ([]SimilarSource, error)

	// FindSimilarAnswers returns at most one prior answer across all of
	// the owner's projects with similarity at or above minSimilarity,
	// excluding the given node.
	FindSimilarAnswers(ctx context.Context, ownerID string, excludeNodeID valueobjects.NodeID, query valueobjects.Embedding, minSimilarity float64) ([]SimilarAnswer, error)

	// FindSimilarGuides returns up to limit sources across all of the
	// owner's projects whose content similarity strictly exceeds
	// minSimilarity, most similar first.
	FindSimilarGuides(ctx context.Context, ownerID string, query valueobjects.Embedding, limit int, minSimilarity float64) ([]SimilarGuide, error)
}
