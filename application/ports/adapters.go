package ports

import (
	"context"
	"errors"

	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
)

// ErrNoEmbedding indicates the embedding provider returned no vector
// for the given text.
var ErrNoEmbedding = errors.New("no embedding returned for text")

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (valueobjects.Embedding, error)
}

// SearchResponse is the outcome of one web search.
type SearchResponse struct {
	Answer  string
	Images  []entities.ImageResult
	Results []entities.SearchResult
}

// WebSearcher runs a web search and returns a synthesized answer with
// supporting results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// FollowupSet is the model's suggested continuations for a research step.
type FollowupSet struct {
	Questions []string
	Concepts  []string
}

// TextGenerator produces text with a language model.
type TextGenerator interface {
	// GenerateFollowups suggests follow-up questions and related
	// concepts for an answered query.
	GenerateFollowups(ctx context.Context, query, answer string) (*FollowupSet, error)

	// GenerateText runs a free-form generation with a system prompt.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
