package valueobjects

import (
	"fmt"
	"math"
)

// EmbeddingDim is the dimensionality of all stored embedding vectors.
const EmbeddingDim = 768

// Embedding is a fixed-dimension dense vector produced by the embedding
// model. The zero value represents "no embedding".
type Embedding struct {
	values []float32
}

// NewEmbedding validates the vector dimension and wraps it.
func NewEmbedding(values []float32) (Embedding, error) {
	if len(values) != EmbeddingDim {
		return Embedding{}, fmt.Errorf("embedding must have %d dimensions, got %d", EmbeddingDim, len(values))
	}
	copied := make([]float32, EmbeddingDim)
	copy(copied, values)
	return Embedding{values: copied}, nil
}

// Values returns a copy of the underlying vector.
func (e Embedding) Values() []float32 {
	if e.values == nil {
		return nil
	}
	copied := make([]float32, len(e.values))
	copy(copied, e.values)
	return copied
}

// IsZero reports whether no embedding is present.
func (e Embedding) IsZero() bool {
	return e.values == nil
}

// CosineSimilarity computes the cosine similarity with another embedding.
// Returns 0 when either vector is absent or has zero magnitude.
func (e Embedding) CosineSimilarity(other Embedding) float64 {
	if e.IsZero() || other.IsZero() {
		return 0
	}

	var dot, normA, normB float64
	for i := range e.values {
		a := float64(e.values[i])
		b := float64(other.values[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
