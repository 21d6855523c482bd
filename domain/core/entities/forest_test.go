package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe-backend/domain/core/valueobjects"
)

func newTestNode(t *testing.T, projectID valueobjects.ProjectID, parent *valueobjects.NodeID, query string) *Node {
	t.Helper()
	node, err := NewNode(projectID, parent, query, "answer", nil, nil, nil, nil)
	require.NoError(t, err)
	return node
}

func TestBuildForest(t *testing.T) {
	projectID := valueobjects.NewProjectID()

	root := newTestNode(t, projectID, nil, "root")
	rootID := root.ID()
	childA := newTestNode(t, projectID, &rootID, "child a")
	childB := newTestNode(t, projectID, &rootID, "child b")
	childAID := childA.ID()
	grandchild := newTestNode(t, projectID, &childAID, "grandchild")

	forest := BuildForest([]*Node{root, childA, childB, grandchild})

	require.Len(t, forest, 1)
	assert.Equal(t, "root", forest[0].Node.Query())
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "child a", forest[0].Children[0].Node.Query())
	assert.Equal(t, "child b", forest[0].Children[1].Node.Query())
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, "grandchild", forest[0].Children[0].Children[0].Node.Query())

	assert.Equal(t, 4, CountNodes(forest))
}

func TestBuildForest_MultipleRoots(t *testing.T) {
	projectID := valueobjects.NewProjectID()
	first := newTestNode(t, projectID, nil, "first")
	second := newTestNode(t, projectID, nil, "second")

	forest := BuildForest([]*Node{first, second})

	require.Len(t, forest, 2)
	assert.Equal(t, "first", forest[0].Node.Query())
	assert.Equal(t, "second", forest[1].Node.Query())
}

func TestBuildForest_OrphanPromotedToRoot(t *testing.T) {
	projectID := valueobjects.NewProjectID()
	missingParent := valueobjects.NewNodeID()
	orphan := newTestNode(t, projectID, &missingParent, "orphan")
	root := newTestNode(t, projectID, nil, "root")

	forest := BuildForest([]*Node{orphan, root})

	require.Len(t, forest, 2)
	assert.Equal(t, "orphan", forest[0].Node.Query())
	assert.Equal(t, "root", forest[1].Node.Query())
}

func TestBuildForest_Empty(t *testing.T) {
	assert.Empty(t, BuildForest(nil))
	assert.Equal(t, 0, CountNodes(nil))
}
