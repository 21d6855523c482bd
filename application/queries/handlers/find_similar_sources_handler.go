package handlers

import (
	"context"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

const (
	defaultSourceLimit         = 5
	defaultSourceMinSimilarity = 0.7
)

// FindSimilarSourcesHandler finds sources within a project similar to a
// stored source's content
type FindSimilarSourcesHandler struct {
	projectRepo ports.ProjectRepository
	nodeRepo    ports.NodeRepository
	sourceRepo  ports.SourceRepository
	searcher    ports.SimilaritySearcher
	logger      Logger
}

// NewFindSimilarSourcesHandler creates a new handler instance
func NewFindSimilarSourcesHandler(
	projectRepo ports.ProjectRepository,
	nodeRepo ports.NodeRepository,
	sourceRepo ports.SourceRepository,
	searcher ports.SimilaritySearcher,
	logger Logger,
) *FindSimilarSourcesHandler {
	return &FindSimilarSourcesHandler{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		sourceRepo:  sourceRepo,
		searcher:    searcher,
		logger:      logger,
	}
}

// Handle implements bus.QueryHandler
func (h *FindSimilarSourcesHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindSimilarSourcesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	projectID, err := valueobjects.ParseProjectID(q.ProjectID)
	if err != nil {
		return nil, err
	}
	nodeID, err := valueobjects.ParseNodeID(q.NodeID)
	if err != nil {
		return nil, err
	}

	if _, err := h.projectRepo.GetByID(ctx, projectID, q.OwnerID); err != nil {
		return nil, err
	}

	// The reference source is only readable through a node in the
	// caller's own project.
	node, err := h.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !node.ProjectID().Equals(projectID) {
		return nil, errors.NewNotFoundError("node")
	}

	embedding, err := h.sourceRepo.GetEmbedding(ctx, nodeID, q.SourceURL)
	if err != nil {
		return nil, err
	}
	// A source without a stored embedding simply has no neighbors yet.
	if embedding.IsZero() {
		h.logger.Debug("No stored embedding for source",
			"nodeID", q.NodeID,
			"url", q.SourceURL,
		)
		return []ports.SimilarSource{}, nil
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultSourceLimit
	}
	minSimilarity := q.MinSimilarity
	if minSimilarity < 0 {
		minSimilarity = defaultSourceMinSimilarity
	}

	matches, err := h.searcher.FindSimilarSources(ctx, projectID, embedding, limit, minSimilarity)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []ports.SimilarSource{}
	}
	return matches, nil
}
