package handlers

import (
	"context"
	stderrors "errors"
	"fmt"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/application/queries/bus"
	"loupe-backend/pkg/errors"
)

const (
	defaultGuideLimit         = 4
	defaultGuideMinSimilarity = 0.5
)

// FindSimilarGuidesHandler finds stored sources across the owner's
// projects matching a free-text query
type FindSimilarGuidesHandler struct {
	embedder ports.Embedder
	searcher ports.SimilaritySearcher
	logger   Logger
}

// NewFindSimilarGuidesHandler creates a new handler instance
func NewFindSimilarGuidesHandler(
	embedder ports.Embedder,
	searcher ports.SimilaritySearcher,
	logger Logger,
) *FindSimilarGuidesHandler {
	return &FindSimilarGuidesHandler{
		embedder: embedder,
		searcher: searcher,
		logger:   logger,
	}
}

// Handle implements bus.QueryHandler
func (h *FindSimilarGuidesHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindSimilarGuidesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", query)
	}

	embedding, err := h.embedder.Embed(ctx, q.Query)
	if err != nil {
		if stderrors.Is(err, ports.ErrNoEmbedding) {
			h.logger.Debug("Query produced no embedding", "query", q.Query)
			return []ports.SimilarGuide{}, nil
		}
		return nil, errors.NewExternalError("query embedding", err).WithCode("EMBEDDING_FAILED")
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultGuideLimit
	}
	minSimilarity := q.MinSimilarity
	if minSimilarity < 0 {
		minSimilarity = defaultGuideMinSimilarity
	}

	matches, err := h.searcher.FindSimilarGuides(ctx, q.OwnerID, embedding, limit, minSimilarity)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []ports.SimilarGuide{}
	}
	return matches, nil
}
