package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
	"loupe-backend/domain/core/valueobjects"
)

const defaultAnswerMinSimilarity = 0.6

// FindSimilarAnswersHandler finds a previously answered question across
// the owner's projects similar to a node's answer
type FindSimilarAnswersHandler struct {
	projectRepo ports.ProjectRepository
	nodeRepo    ports.NodeRepository
	searcher    ports.SimilaritySearcher
	logger      Logger
}

// NewFindSimilarAnswersHandler creates a new handler instance
func NewFindSimilarAnswersHandler(
	projectRepo ports.ProjectRepository,
	nodeRepo ports.NodeRepository,
	searcher ports.SimilaritySearcher,
	logger Logger,
) *FindSimilarAnswersHandler {
	return &FindSimilarAnswersHandler{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		searcher:    searcher,
		logger:      logger,
	}
}

// Handle implements bus.QueryHandler
func (h *FindSimilarAnswersHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindSimilarAnswersQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	nodeID, err := valueobjects.ParseNodeID(q.NodeID)
	if err != nil {
		return nil, err
	}

	node, err := h.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	// Ownership check through the node's project.
	if _, err := h.projectRepo.GetByID(ctx, node.ProjectID(), q.OwnerID); err != nil {
		return nil, err
	}

	embedding := node.AnswerEmbedding()
	// No answer embedding yet (pending or failed) means no matches.
	if embedding.IsZero() {
		h.logger.Debug("Node has no answer embedding",
			"nodeID", q.NodeID,
			"status", string(node.EmbeddingStatus()),
		)
		return []ports.SimilarAnswer{}, nil
	}

	minSimilarity := q.MinSimilarity
	if minSimilarity < 0 {
		minSimilarity = defaultAnswerMinSimilarity
	}

	matches, err := h.searcher.FindSimilarAnswers(ctx, q.OwnerID, nodeID, embedding, minSimilarity)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []ports.SimilarAnswer{}
	}
	return matches, nil
}
