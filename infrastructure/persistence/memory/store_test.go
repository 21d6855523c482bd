package memory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
)

func unitVector(t *testing.T, index int) valueobjects.Embedding {
	t.Helper()
	values := make([]float32, valueobjects.EmbeddingDim)
	values[index] = 1
	e, err := valueobjects.NewEmbedding(values)
	require.NoError(t, err)
	return e
}

// blendVector mixes two basis directions so the similarity against the
// first basis vector is cos(theta) for a chosen theta.
func blendVector(t *testing.T, similarity float64) valueobjects.Embedding {
	t.Helper()
	values := make([]float32, valueobjects.EmbeddingDim)
	values[0] = float32(similarity)
	values[1] = float32(math.Sqrt(1 - similarity*similarity))
	e, err := valueobjects.NewEmbedding(values)
	require.NoError(t, err)
	return e
}

func addProject(t *testing.T, store *Store, ownerID, name string) *entities.Project {
	t.Helper()
	project, err := entities.NewProject(ownerID, name)
	require.NoError(t, err)
	require.NoError(t, store.Projects().Save(context.Background(), project))
	return project
}

func addNode(t *testing.T, store *Store, project *entities.Project, query, answer string, answerEmbedding valueobjects.Embedding) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(project.ID(), nil, query, answer, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Nodes().Save(context.Background(), node))
	if !answerEmbedding.IsZero() {
		require.NoError(t, store.Nodes().UpdateAnswerEmbedding(context.Background(), node.ID(), answerEmbedding, entities.EmbeddingDone))
	}
	return node
}

func addSource(t *testing.T, store *Store, node *entities.Node, title, url, content string, embedding valueobjects.Embedding) *entities.Source {
	t.Helper()
	source, err := entities.NewSource(node.ID(), node.ProjectID(), title, url, content, embedding)
	require.NoError(t, err)
	if embedding.IsZero() {
		source.MarkEmbeddingFailed()
	}
	require.NoError(t, store.Sources().Save(context.Background(), source))
	return source
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	project := addProject(t, store, "user-1", "First")
	addProject(t, store, "user-1", "Second")
	addProject(t, store, "user-2", "Other user")

	// Newest first, scoped to owner.
	projects, err := store.Projects().ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Second", projects[0].Name())
	assert.Equal(t, "First", projects[1].Name())

	// Ownership scoping on reads.
	_, err = store.Projects().GetByID(ctx, project.ID(), "user-2")
	assert.Error(t, err)

	// Deletion cascades to nodes and chat history.
	node := addNode(t, store, project, "query", "answer", valueobjects.Embedding{})
	require.NoError(t, store.Projects().AppendChatEntry(ctx, project.ID(), entities.ChatEntry{
		NodeID:   node.ID(),
		Question: "query",
		Answer:   "answer",
	}))
	require.NoError(t, store.Projects().Delete(ctx, project.ID(), "user-1"))

	_, err = store.Nodes().GetByID(ctx, node.ID())
	assert.Error(t, err)
	history, err := store.Projects().GetChatHistory(ctx, project.ID())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatHistoryAppendOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "Project")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, store.Projects().AppendChatEntry(ctx, project.ID(), entities.ChatEntry{
			NodeID:   node.ID(),
			Question: q,
			Answer:   "answer to " + q,
		}))
	}

	history, err := store.Projects().GetChatHistory(ctx, project.ID())
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Question)
	assert.Equal(t, "two", history[1].Question)
	assert.Equal(t, "three", history[2].Question)
}

func TestFindSimilarSources_ScopedToProject(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	projectA := addProject(t, store, "user-1", "A")
	projectB := addProject(t, store, "user-1", "B")
	nodeA := addNode(t, store, projectA, "query a", "answer", valueobjects.Embedding{})
	nodeB := addNode(t, store, projectB, "query b", "answer", valueobjects.Embedding{})

	query := unitVector(t, 0)
	addSource(t, store, nodeA, "in scope", "https://a.example", "content", query)
	addSource(t, store, nodeB, "out of scope", "https://b.example", "content", query)

	matches, err := store.FindSimilarSources(ctx, projectA.ID(), query, 5, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "in scope", matches[0].SourceTitle)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestFindSimilarSources_ThresholdExclusive(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	query := unitVector(t, 0)
	addSource(t, store, node, "above", "https://above.example", "c", blendVector(t, 0.9))
	addSource(t, store, node, "below", "https://below.example", "c", blendVector(t, 0.5))

	matches, err := store.FindSimilarSources(ctx, project.ID(), query, 5, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "above", matches[0].SourceTitle)
}

func TestFindSimilarSources_ThresholdBoundaries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	query := unitVector(t, 0)
	addSource(t, store, node, "exact", "https://exact.example", "c", query)
	addSource(t, store, node, "orthogonal", "https://ortho.example", "c", unitVector(t, 1))

	// Threshold 0 admits everything, orthogonal vectors included.
	matches, err := store.FindSimilarSources(ctx, project.ID(), query, 5, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	// Threshold 1 admits only near-exact matches.
	matches, err = store.FindSimilarSources(ctx, project.ID(), query, 5, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "exact", matches[0].SourceTitle)
}

func TestFindSimilarSources_LimitAndOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	query := unitVector(t, 0)
	addSource(t, store, node, "mid", "https://mid.example", "c", blendVector(t, 0.8))
	addSource(t, store, node, "best", "https://best.example", "c", blendVector(t, 0.95))
	addSource(t, store, node, "worst", "https://worst.example", "c", blendVector(t, 0.75))

	matches, err := store.FindSimilarSources(ctx, project.ID(), query, 2, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "best", matches[0].SourceTitle)
	assert.Equal(t, "mid", matches[1].SourceTitle)
}

func TestFindSimilarSources_DuplicateContentKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	query := unitVector(t, 0)
	same := blendVector(t, 0.9)
	addSource(t, store, node, "first", "https://first.example", "c", same)
	addSource(t, store, node, "second", "https://second.example", "c", same)

	matches, err := store.FindSimilarSources(ctx, project.ID(), query, 5, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].SourceTitle)
	assert.Equal(t, "second", matches[1].SourceTitle)
}

func TestFindSimilarSources_SkipsMissingEmbeddingsAndZeroQuery(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	addSource(t, store, node, "no embedding", "https://none.example", "c", valueobjects.Embedding{})

	matches, err := store.FindSimilarSources(ctx, project.ID(), unitVector(t, 0), 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.FindSimilarSources(ctx, project.ID(), valueobjects.Embedding{}, 5, 0)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestFindSimilarSources_EmptyProject(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "Empty")

	matches, err := store.FindSimilarSources(ctx, project.ID(), unitVector(t, 0), 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSimilarAnswers_ClosestOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	projectA := addProject(t, store, "user-1", "A")
	projectB := addProject(t, store, "user-1", "B")

	query := unitVector(t, 0)
	self := addNode(t, store, projectA, "self", "answer", query)
	addNode(t, store, projectB, "close", "a close prior answer", blendVector(t, 0.9))
	addNode(t, store, projectB, "far", "a distant answer", blendVector(t, 0.3))

	matches, err := store.FindSimilarAnswers(ctx, "user-1", self.ID(), query, 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "close", matches[0].Query)
	assert.Equal(t, projectB.ID().String(), matches[0].ProjectID.String())
	assert.Equal(t, "B", matches[0].ProjectName)

	// When even the closest misses the bar, nothing comes back.
	matches, err = store.FindSimilarAnswers(ctx, "user-1", self.ID(), query, 0.95)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSimilarAnswers_ExcludesSelfAndOtherUsers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mine := addProject(t, store, "user-1", "Mine")
	theirs := addProject(t, store, "user-2", "Theirs")

	query := unitVector(t, 0)
	self := addNode(t, store, mine, "self", "answer", query)
	addNode(t, store, theirs, "other user's", "answer", query)

	matches, err := store.FindSimilarAnswers(ctx, "user-1", self.ID(), query, 0.6)
	require.NoError(t, err)
	assert.Empty(t, matches, "only the excluded node and another user's node exist")
}

func TestFindSimilarAnswers_SnippetTruncated(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	projectA := addProject(t, store, "user-1", "A")
	projectB := addProject(t, store, "user-1", "B")

	query := unitVector(t, 0)
	self := addNode(t, store, projectA, "self", "answer", query)

	longAnswer := ""
	for i := 0; i < 30; i++ {
		longAnswer += "lengthy "
	}
	addNode(t, store, projectB, "verbose", longAnswer, blendVector(t, 0.9))

	matches, err := store.FindSimilarAnswers(ctx, "user-1", self.ID(), query, 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, []rune(matches[0].AnswerSnippet), 100)
}

func TestSourceSaveReplacesByNodeAndURL(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project := addProject(t, store, "user-1", "P")
	node := addNode(t, store, project, "q", "a", valueobjects.Embedding{})

	addSource(t, store, node, "title", "https://same.example", "c", valueobjects.Embedding{})

	embedding, err := store.Sources().GetEmbedding(ctx, node.ID(), "https://same.example")
	require.NoError(t, err)
	assert.True(t, embedding.IsZero())

	// Re-saving the same (node, url) pair replaces the record, so a
	// backfill can fill in the embedding later.
	addSource(t, store, node, "title", "https://same.example", "c", unitVector(t, 0))

	embedding, err = store.Sources().GetEmbedding(ctx, node.ID(), "https://same.example")
	require.NoError(t, err)
	assert.False(t, embedding.IsZero())
}

func TestListByURLs_DedupesAndScopesToOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mine := addProject(t, store, "user-1", "Mine")
	theirs := addProject(t, store, "user-2", "Theirs")
	myNode := addNode(t, store, mine, "q", "a", valueobjects.Embedding{})
	otherNode := addNode(t, store, theirs, "q", "a", valueobjects.Embedding{})

	addSource(t, store, myNode, "mine", "https://shared.example", "c", valueobjects.Embedding{})
	addSource(t, store, otherNode, "theirs", "https://private.example", "c", valueobjects.Embedding{})

	sources, err := store.Sources().ListByURLs(ctx, "user-1", []string{
		"https://shared.example",
		"https://private.example",
		"https://unknown.example",
	})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "mine", sources[0].Title)
}

func TestFindSimilarGuides_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	mine := addProject(t, store, "user-1", "Mine")
	myNode := addNode(t, store, mine, "my query", "my answer", valueobjects.Embedding{})
	addSource(t, store, myNode, "My guide", "https://mine.example", "my content", unitVector(t, 0))

	theirs := addProject(t, store, "user-2", "Theirs")
	theirNode := addNode(t, store, theirs, "their query", "their answer", valueobjects.Embedding{})
	addSource(t, store, theirNode, "Their guide", "https://theirs.example", "their content", unitVector(t, 0))

	matches, err := store.FindSimilarGuides(ctx, "user-1", unitVector(t, 0), 4, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "My guide", matches[0].Title)
	assert.Equal(t, "https://mine.example", matches[0].URL)
	assert.Equal(t, "my content", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestFindSimilarGuides_CrossProjectRankedAndLimited(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := addProject(t, store, "user-1", "First")
	second := addProject(t, store, "user-1", "Second")
	firstNode := addNode(t, store, first, "q1", "a1", valueobjects.Embedding{})
	secondNode := addNode(t, store, second, "q2", "a2", valueobjects.Embedding{})

	addSource(t, store, firstNode, "Far", "https://far.example", "c", blendVector(t, 0.6))
	addSource(t, store, secondNode, "Near", "https://near.example", "c", blendVector(t, 0.9))
	addSource(t, store, firstNode, "Mid", "https://mid.example", "c", blendVector(t, 0.8))
	// Below the 0.5 floor, never returned.
	addSource(t, store, secondNode, "Off", "https://off.example", "c", blendVector(t, 0.3))

	matches, err := store.FindSimilarGuides(ctx, "user-1", unitVector(t, 0), 2, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Near", matches[0].Title)
	assert.Equal(t, "Mid", matches[1].Title)
}

func TestFindSimilarGuides_ZeroQueryVector(t *testing.T) {
	store := NewStore()
	matches, err := store.FindSimilarGuides(context.Background(), "user-1", valueobjects.Embedding{}, 4, 0.5)
	require.NoError(t, err)
	assert.Nil(t, matches)
}
