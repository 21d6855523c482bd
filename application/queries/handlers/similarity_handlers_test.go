package handlers

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe-backend/application/ports"
	"loupe-backend/application/queries"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/infrastructure/persistence/memory"
	"loupe-backend/pkg/errors"
)

type testLogger struct{}

func (testLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (testLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

func unitEmbedding(t *testing.T, index int) valueobjects.Embedding {
	t.Helper()
	values := make([]float32, valueobjects.EmbeddingDim)
	values[index] = 1
	e, err := valueobjects.NewEmbedding(values)
	require.NoError(t, err)
	return e
}

func seedProjectWithSource(t *testing.T, store *memory.Store, ownerID string, embedding valueobjects.Embedding) (*entities.Project, *entities.Node) {
	t.Helper()
	ctx := context.Background()

	project, err := entities.NewProject(ownerID, "Seeded")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Save(ctx, project))

	node, err := entities.NewNode(project.ID(), nil, "seed query", "seed answer", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Nodes().Save(ctx, node))

	source, err := entities.NewSource(node.ID(), project.ID(), "Seed", "https://seed.example", "content", embedding)
	require.NoError(t, err)
	require.NoError(t, store.Sources().Save(ctx, source))

	return project, node
}

func TestFindSimilarSourcesHandler_OwnershipEnforced(t *testing.T) {
	store := memory.NewStore()
	project, node := seedProjectWithSource(t, store, "user-1", unitEmbedding(t, 0))
	handler := NewFindSimilarSourcesHandler(store.Projects(), store.Nodes(), store.Sources(), store, testLogger{})

	_, err := handler.Handle(context.Background(), queries.FindSimilarSourcesQuery{
		OwnerID:       "intruder",
		ProjectID:     project.ID().String(),
		NodeID:        node.ID().String(),
		SourceURL:     "https://seed.example",
		MinSimilarity: -1,
	})
	assert.Error(t, err)
}

func TestFindSimilarSourcesHandler_MissingEmbeddingYieldsEmpty(t *testing.T) {
	store := memory.NewStore()
	project, node := seedProjectWithSource(t, store, "user-1", valueobjects.Embedding{})
	handler := NewFindSimilarSourcesHandler(store.Projects(), store.Nodes(), store.Sources(), store, testLogger{})

	result, err := handler.Handle(context.Background(), queries.FindSimilarSourcesQuery{
		OwnerID:       "user-1",
		ProjectID:     project.ID().String(),
		NodeID:        node.ID().String(),
		SourceURL:     "https://seed.example",
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarSource)
	require.True(t, ok)
	assert.Empty(t, matches)
}

func TestFindSimilarSourcesHandler_FindsNeighbors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	project, node := seedProjectWithSource(t, store, "user-1", unitEmbedding(t, 0))

	// A second source in the same project with an identical embedding.
	other, err := entities.NewNode(project.ID(), nil, "other query", "other answer", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Nodes().Save(ctx, other))
	neighbor, err := entities.NewSource(other.ID(), project.ID(), "Neighbor", "https://neighbor.example", "content", unitEmbedding(t, 0))
	require.NoError(t, err)
	require.NoError(t, store.Sources().Save(ctx, neighbor))

	handler := NewFindSimilarSourcesHandler(store.Projects(), store.Nodes(), store.Sources(), store, testLogger{})
	result, err := handler.Handle(ctx, queries.FindSimilarSourcesQuery{
		OwnerID:       "user-1",
		ProjectID:     project.ID().String(),
		NodeID:        node.ID().String(),
		SourceURL:     "https://seed.example",
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarSource)
	require.True(t, ok)
	// The query source itself matches too; both clear the 0.7 default.
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.InDelta(t, 1.0, m.Similarity, 1e-6)
	}
}

func TestFindSimilarAnswersHandler_NoEmbeddingYieldsEmpty(t *testing.T) {
	store := memory.NewStore()
	_, node := seedProjectWithSource(t, store, "user-1", valueobjects.Embedding{})
	handler := NewFindSimilarAnswersHandler(store.Projects(), store.Nodes(), store, testLogger{})

	result, err := handler.Handle(context.Background(), queries.FindSimilarAnswersQuery{
		OwnerID:       "user-1",
		NodeID:        node.ID().String(),
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarAnswer)
	require.True(t, ok)
	assert.Empty(t, matches)
}

func TestFindSimilarAnswersHandler_CrossProjectMatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, node := seedProjectWithSource(t, store, "user-1", valueobjects.Embedding{})
	require.NoError(t, store.Nodes().UpdateAnswerEmbedding(ctx, node.ID(), unitEmbedding(t, 0), entities.EmbeddingDone))

	// A prior answer in a different project of the same user.
	otherProject, err := entities.NewProject("user-1", "Earlier work")
	require.NoError(t, err)
	require.NoError(t, store.Projects().Save(ctx, otherProject))
	prior, err := entities.NewNode(otherProject.ID(), nil, "prior query", "prior answer", nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Nodes().Save(ctx, prior))
	require.NoError(t, store.Nodes().UpdateAnswerEmbedding(ctx, prior.ID(), unitEmbedding(t, 0), entities.EmbeddingDone))

	handler := NewFindSimilarAnswersHandler(store.Projects(), store.Nodes(), store, testLogger{})
	result, err := handler.Handle(ctx, queries.FindSimilarAnswersQuery{
		OwnerID:       "user-1",
		NodeID:        node.ID().String(),
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarAnswer)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "prior query", matches[0].Query)
	assert.Equal(t, "Earlier work", matches[0].ProjectName)
	assert.Equal(t, "prior answer", matches[0].AnswerSnippet)
}

func TestFindSimilarAnswersHandler_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, node := seedProjectWithSource(t, store, "user-1", unitEmbedding(t, 0))

	handler := NewFindSimilarAnswersHandler(store.Projects(), store.Nodes(), store, testLogger{})
	_, err := handler.Handle(ctx, queries.FindSimilarAnswersQuery{
		OwnerID:       "intruder",
		NodeID:        node.ID().String(),
		MinSimilarity: -1,
	})
	assert.Error(t, err)
}

func TestFindSimilarSourcesHandler_ForeignNodeRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// User A's node and source; user B owns an unrelated project.
	_, foreignNode := seedProjectWithSource(t, store, "user-a", unitEmbedding(t, 0))
	ownProject, _ := seedProjectWithSource(t, store, "user-b", unitEmbedding(t, 1))

	handler := NewFindSimilarSourcesHandler(store.Projects(), store.Nodes(), store.Sources(), store, testLogger{})
	_, err := handler.Handle(ctx, queries.FindSimilarSourcesQuery{
		OwnerID:       "user-b",
		ProjectID:     ownProject.ID().String(),
		NodeID:        foreignNode.ID().String(),
		SourceURL:     "https://seed.example",
		MinSimilarity: -1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

type fakeEmbedder struct {
	embedding valueobjects.Embedding
	err       error
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) (valueobjects.Embedding, error) {
	if f.err != nil {
		return valueobjects.Embedding{}, f.err
	}
	return f.embedding, nil
}

func TestFindSimilarGuidesHandler_OwnerScopedMatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedProjectWithSource(t, store, "user-1", unitEmbedding(t, 0))
	seedProjectWithSource(t, store, "user-2", unitEmbedding(t, 0))

	handler := NewFindSimilarGuidesHandler(fakeEmbedder{embedding: unitEmbedding(t, 0)}, store, testLogger{})
	result, err := handler.Handle(ctx, queries.FindSimilarGuidesQuery{
		OwnerID:       "user-1",
		Query:         "seed topic",
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarGuide)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "Seed", matches[0].Title)
	assert.Equal(t, "https://seed.example", matches[0].URL)
	assert.Equal(t, "content", matches[0].Content)
}

func TestFindSimilarGuidesHandler_NoEmbeddingYieldsEmpty(t *testing.T) {
	store := memory.NewStore()
	seedProjectWithSource(t, store, "user-1", unitEmbedding(t, 0))

	handler := NewFindSimilarGuidesHandler(fakeEmbedder{err: ports.ErrNoEmbedding}, store, testLogger{})
	result, err := handler.Handle(context.Background(), queries.FindSimilarGuidesQuery{
		OwnerID:       "user-1",
		Query:         "anything",
		MinSimilarity: -1,
	})
	require.NoError(t, err)

	matches, ok := result.([]ports.SimilarGuide)
	require.True(t, ok)
	assert.Empty(t, matches)
}

func TestFindSimilarGuidesHandler_EmbedderFailure(t *testing.T) {
	store := memory.NewStore()
	handler := NewFindSimilarGuidesHandler(fakeEmbedder{err: stderrors.New("provider down")}, store, testLogger{})

	_, err := handler.Handle(context.Background(), queries.FindSimilarGuidesQuery{
		OwnerID:       "user-1",
		Query:         "anything",
		MinSimilarity: -1,
	})
	assert.Error(t, err)
}
