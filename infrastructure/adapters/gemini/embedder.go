package gemini

import (
	"context"
	"fmt"
	"strings"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/valueobjects"
)

type embedRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed converts text into a 768-dimension vector.
func (c *Client) Embed(ctx context.Context, text string) (valueobjects.Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return valueobjects.Embedding{}, ports.ErrNoEmbedding
	}

	req := embedRequest{
		Model:   "models/" + c.config.EmbeddingModel,
		Content: embedContent{Parts: []embedPart{{Text: text}}},
	}

	var resp embedResponse
	if err := c.post(ctx, c.config.EmbeddingModel, "embedContent", req, &resp); err != nil {
		return valueobjects.Embedding{}, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Embedding.Values) == 0 {
		return valueobjects.Embedding{}, ports.ErrNoEmbedding
	}

	embedding, err := valueobjects.NewEmbedding(resp.Embedding.Values)
	if err != nil {
		return valueobjects.Embedding{}, fmt.Errorf("unexpected embedding shape: %w", err)
	}
	return embedding, nil
}
