package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	project, err := NewProject("user-1", "Quantum computing")
	require.NoError(t, err)

	assert.False(t, project.ID().IsZero())
	assert.Equal(t, "user-1", project.OwnerID())
	assert.Equal(t, "Quantum computing", project.Name())
	assert.True(t, project.IsOwnedBy("user-1"))
	assert.False(t, project.IsOwnedBy("user-2"))
}

func TestNewProject_Validation(t *testing.T) {
	_, err := NewProject("", "name")
	assert.Error(t, err)

	_, err = NewProject("user-1", "")
	assert.Error(t, err)

	_, err = NewProject("user-1", "   ")
	assert.Error(t, err)
}

func TestNameFromQuery_Truncation(t *testing.T) {
	short := "What is photosynthesis?"
	assert.Equal(t, short, NameFromQuery(short))

	long := strings.Repeat("a", 100)
	name := NameFromQuery(long)
	assert.Equal(t, 61, len([]rune(name)))
	assert.True(t, strings.HasSuffix(name, "…"))
	assert.Equal(t, strings.Repeat("a", 60), strings.TrimSuffix(name, "…"))
}

func TestNameFromQuery_ExactBoundary(t *testing.T) {
	exact := strings.Repeat("b", 60)
	assert.Equal(t, exact, NameFromQuery(exact))
}
