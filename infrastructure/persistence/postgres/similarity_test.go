package postgres

import (
	stderrors "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loupe-backend/pkg/errors"
)

func TestClassifyError_MissingVectorColumn(t *testing.T) {
	s := NewSimilaritySearcher(nil, zap.NewNop())

	err := s.classifyError("similar sources", &pgconn.PgError{
		Code:       pgUndefinedColumn,
		ColumnName: "embedding",
	})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaMismatch(err))
}

func TestClassifyError_QueryFailureDegrades(t *testing.T) {
	s := NewSimilaritySearcher(nil, zap.NewNop())

	// Anything short of a missing column is swallowed so the caller
	// answers with an empty match list.
	assert.NoError(t, s.classifyError("similar sources", stderrors.New("connection reset")))
	assert.NoError(t, s.classifyError("similar answers", &pgconn.PgError{Code: "57014"}))
}

func TestDistanceBound(t *testing.T) {
	_, bounded := distanceBound(0)
	assert.False(t, bounded)
	_, bounded = distanceBound(-1)
	assert.False(t, bounded)

	maxDist, bounded := distanceBound(0.7)
	require.True(t, bounded)
	assert.InDelta(t, 0.3, maxDist, 1e-9)

	maxDist, bounded = distanceBound(1)
	require.True(t, bounded)
	assert.Equal(t, exactMatchDistance, maxDist)
}
