package entities

import (
	"strings"
	"time"

	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// EmbeddingStatus tracks whether an entity's embedding has been computed.
type EmbeddingStatus string

const (
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingDone    EmbeddingStatus = "done"
	EmbeddingFailed  EmbeddingStatus = "failed"
)

// SearchResult is one web result captured at research time.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// ImageResult is one image returned by the search provider.
type ImageResult struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Node is one research step: a query, the synthesized answer, the raw
// search results, and suggested follow-ups. Nodes form a forest per
// project through the optional parent reference.
type Node struct {
	id                valueobjects.NodeID
	projectID         valueobjects.ProjectID
	parentID          *valueobjects.NodeID
	query             string
	answer            string
	results           []SearchResult
	images            []ImageResult
	followupQuestions []string
	relatedConcepts   []string
	answerEmbedding   valueobjects.Embedding
	embeddingStatus   EmbeddingStatus
	createdAt         time.Time
}

// NewNode creates a node for a completed research step. The answer
// embedding is attached later, once the embedding call returns.
func NewNode(
	projectID valueobjects.ProjectID,
	parentID *valueobjects.NodeID,
	query string,
	answer string,
	results []SearchResult,
	images []ImageResult,
	followupQuestions []string,
	relatedConcepts []string,
) (*Node, error) {
	query = strings.TrimSpace(query)
	if projectID.IsZero() {
		return nil, errors.NewValidationError("project ID is required")
	}
	if query == "" {
		return nil, errors.NewValidationError("query cannot be empty")
	}
	if parentID != nil && parentID.IsZero() {
		return nil, errors.NewValidationError("parent node ID cannot be empty when set")
	}

	return &Node{
		id:                valueobjects.NewNodeID(),
		projectID:         projectID,
		parentID:          parentID,
		query:             query,
		answer:            answer,
		results:           results,
		images:            images,
		followupQuestions: followupQuestions,
		relatedConcepts:   relatedConcepts,
		embeddingStatus:   EmbeddingPending,
		createdAt:         time.Now(),
	}, nil
}

// ReconstructNode rebuilds a node from persisted state.
func ReconstructNode(
	id valueobjects.NodeID,
	projectID valueobjects.ProjectID,
	parentID *valueobjects.NodeID,
	query string,
	answer string,
	results []SearchResult,
	images []ImageResult,
	followupQuestions []string,
	relatedConcepts []string,
	answerEmbedding valueobjects.Embedding,
	embeddingStatus EmbeddingStatus,
	createdAt time.Time,
) *Node {
	return &Node{
		id:                id,
		projectID:         projectID,
		parentID:          parentID,
		query:             query,
		answer:            answer,
		results:           results,
		images:            images,
		followupQuestions: followupQuestions,
		relatedConcepts:   relatedConcepts,
		answerEmbedding:   answerEmbedding,
		embeddingStatus:   embeddingStatus,
		createdAt:         createdAt,
	}
}

// ID returns the node identifier.
func (n *Node) ID() valueobjects.NodeID { return n.id }

// ProjectID returns the owning project's identifier.
func (n *Node) ProjectID() valueobjects.ProjectID { return n.projectID }

// ParentID returns the parent node reference, nil for root nodes.
func (n *Node) ParentID() *valueobjects.NodeID { return n.parentID }

// Query returns the research question.
func (n *Node) Query() string { return n.query }

// Answer returns the synthesized answer.
func (n *Node) Answer() string { return n.answer }

// Results returns the captured search results.
func (n *Node) Results() []SearchResult { return n.results }

// Images returns the captured image results.
func (n *Node) Images() []ImageResult { return n.images }

// FollowupQuestions returns the suggested follow-up questions.
func (n *Node) FollowupQuestions() []string { return n.followupQuestions }

// RelatedConcepts returns the suggested related concepts.
func (n *Node) RelatedConcepts() []string { return n.relatedConcepts }

// AnswerEmbedding returns the answer's embedding vector.
func (n *Node) AnswerEmbedding() valueobjects.Embedding { return n.answerEmbedding }

// EmbeddingStatus reports the embedding lifecycle state.
func (n *Node) EmbeddingStatus() EmbeddingStatus { return n.embeddingStatus }

// CreatedAt returns the creation timestamp.
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// IsRoot reports whether this node has no parent.
func (n *Node) IsRoot() bool { return n.parentID == nil }

// AttachAnswerEmbedding records a computed answer embedding.
func (n *Node) AttachAnswerEmbedding(embedding valueobjects.Embedding) error {
	if embedding.IsZero() {
		return errors.NewValidationError("embedding cannot be empty")
	}
	n.answerEmbedding = embedding
	n.embeddingStatus = EmbeddingDone
	return nil
}

// MarkEmbeddingFailed records that embedding the answer failed.
// The node remains usable; similarity search just skips it.
func (n *Node) MarkEmbeddingFailed() {
	n.embeddingStatus = EmbeddingFailed
}
