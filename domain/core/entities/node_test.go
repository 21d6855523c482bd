package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe-backend/domain/core/valueobjects"
)

func TestNewNode_Validation(t *testing.T) {
	projectID := valueobjects.NewProjectID()

	_, err := NewNode(valueobjects.ProjectID{}, nil, "query", "answer", nil, nil, nil, nil)
	assert.Error(t, err, "missing project")

	_, err = NewNode(projectID, nil, "  ", "answer", nil, nil, nil, nil)
	assert.Error(t, err, "blank query")

	node, err := NewNode(projectID, nil, "query", "answer", nil, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, node.IsRoot())
	assert.Equal(t, EmbeddingPending, node.EmbeddingStatus())
}

func TestNode_EmbeddingLifecycle(t *testing.T) {
	node, err := NewNode(valueobjects.NewProjectID(), nil, "query", "answer", nil, nil, nil, nil)
	require.NoError(t, err)

	values := make([]float32, valueobjects.EmbeddingDim)
	values[0] = 1
	embedding, err := valueobjects.NewEmbedding(values)
	require.NoError(t, err)

	require.NoError(t, node.AttachAnswerEmbedding(embedding))
	assert.Equal(t, EmbeddingDone, node.EmbeddingStatus())
	assert.False(t, node.AnswerEmbedding().IsZero())

	assert.Error(t, node.AttachAnswerEmbedding(valueobjects.Embedding{}))

	node.MarkEmbeddingFailed()
	assert.Equal(t, EmbeddingFailed, node.EmbeddingStatus())
}

func TestNewSource_EmbeddingStatus(t *testing.T) {
	nodeID := valueobjects.NewNodeID()
	projectID := valueobjects.NewProjectID()

	pending, err := NewSource(nodeID, projectID, "title", "https://example.com", "content", valueobjects.Embedding{})
	require.NoError(t, err)
	assert.Equal(t, EmbeddingPending, pending.EmbeddingStatus())

	values := make([]float32, valueobjects.EmbeddingDim)
	values[0] = 1
	embedding, err := valueobjects.NewEmbedding(values)
	require.NoError(t, err)

	done, err := NewSource(nodeID, projectID, "title", "https://example.com", "content", embedding)
	require.NoError(t, err)
	assert.Equal(t, EmbeddingDone, done.EmbeddingStatus())

	_, err = NewSource(nodeID, projectID, "title", "", "content", embedding)
	assert.Error(t, err, "blank URL")
}
