package postgres

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// pgUndefinedColumn is the error code a similarity query hits when the
// vector columns are missing, i.e. the schema was never migrated.
const pgUndefinedColumn = "42703"

// exactMatchDistance stands in for zero when the caller asks for
// similarity 1.0; cosine distance on floats never lands exactly on 0.
const exactMatchDistance = 1e-6

// SimilaritySearcher runs cosine-similarity queries with the pgvector
// distance operator. Schema mismatches are hard errors; transient query
// failures degrade to empty results so research flows keep working.
type SimilaritySearcher struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewSimilaritySearcher creates a new searcher instance
func NewSimilaritySearcher(pool *pgxpool.Pool, logger *zap.Logger) *SimilaritySearcher {
	return &SimilaritySearcher{pool: pool, logger: logger}
}

var _ ports.SimilaritySearcher = (*SimilaritySearcher)(nil)

// FindSimilarSources returns up to limit sources within the project
// whose content similarity strictly exceeds minSimilarity.
func (s *SimilaritySearcher) FindSimilarSources(ctx context.Context, projectID valueobjects.ProjectID, query valueobjects.Embedding, limit int, minSimilarity float64) ([]ports.SimilarSource, error) {
	if query.IsZero() {
		return nil, nil
	}

	vec := pgvector.NewVector(query.Values())
	sql := `SELECT n.id, n.query, s.title, s.url, 1 - (s.embedding <=> $1) AS similarity
		FROM sources s
		JOIN nodes n ON n.id = s.node_id
		WHERE s.project_id = $2 AND s.embedding IS NOT NULL`
	args := []interface{}{vec, projectID.String()}

	if maxDist, bounded := distanceBound(minSimilarity); bounded {
		sql += ` AND s.embedding <=> $1 < $3`
		args = append(args, maxDist)
	}
	if limit < 1 {
		limit = 1
	}
	sql += ` ORDER BY s.embedding <=> $1 LIMIT ` + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.classifyError("similar sources", err)
	}
	defer rows.Close()

	var matches []ports.SimilarSource
	for rows.Next() {
		var (
			nodeIDStr string
			match     ports.SimilarSource
		)
		if err := rows.Scan(&nodeIDStr, &match.Query, &match.SourceTitle, &match.SourceURL, &match.Similarity); err != nil {
			return nil, s.classifyError("similar sources", err)
		}
		nodeID, err := valueobjects.ParseNodeID(nodeIDStr)
		if err != nil {
			return nil, s.classifyError("similar sources", err)
		}
		match.NodeID = nodeID
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classifyError("similar sources", err)
	}
	return matches, nil
}

// FindSimilarAnswers returns the single closest prior answer across the
// owner's projects, or nothing when the closest falls below the
// threshold.
func (s *SimilaritySearcher) FindSimilarAnswers(ctx context.Context, ownerID string, excludeNodeID valueobjects.NodeID, query valueobjects.Embedding, minSimilarity float64) ([]ports.SimilarAnswer, error) {
	if query.IsZero() {
		return nil, nil
	}

	vec := pgvector.NewVector(query.Values())
	rows, err := s.pool.Query(ctx,
		`SELECT n.id, n.query, p.id, p.name, LEFT(n.answer, 100), 1 - (n.answer_embedding <=> $1) AS similarity
		 FROM nodes n
		 JOIN projects p ON p.id = n.project_id
		 WHERE p.owner_id = $2 AND n.id <> $3 AND n.answer_embedding IS NOT NULL
		 ORDER BY n.answer_embedding <=> $1
		 LIMIT 1`,
		vec, ownerID, excludeNodeID.String(),
	)
	if err != nil {
		return nil, s.classifyError("similar answers", err)
	}
	defer rows.Close()

	var matches []ports.SimilarAnswer
	for rows.Next() {
		var (
			nodeIDStr    string
			projectIDStr string
			match        ports.SimilarAnswer
		)
		if err := rows.Scan(&nodeIDStr, &match.Query, &projectIDStr, &match.ProjectName, &match.AnswerSnippet, &match.Similarity); err != nil {
			return nil, s.classifyError("similar answers", err)
		}
		nodeID, err := valueobjects.ParseNodeID(nodeIDStr)
		if err != nil {
			return nil, s.classifyError("similar answers", err)
		}
		projectID, err := valueobjects.ParseProjectID(projectIDStr)
		if err != nil {
			return nil, s.classifyError("similar answers", err)
		}
		match.NodeID = nodeID
		match.ProjectID = projectID
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classifyError("similar answers", err)
	}

	// Closest-or-nothing: the best match still has to clear the bar.
	if len(matches) == 1 && matches[0].Similarity < minSimilarity {
		return nil, nil
	}
	return matches, nil
}

// FindSimilarGuides returns up to limit of the owner's stored sources
// whose content similarity to the query strictly exceeds minSimilarity.
func (s *SimilaritySearcher) FindSimilarGuides(ctx context.Context, ownerID string, query valueobjects.Embedding, limit int, minSimilarity float64) ([]ports.SimilarGuide, error) {
	if query.IsZero() {
		return nil, nil
	}

	vec := pgvector.NewVector(query.Values())
	sql := `SELECT s.title, s.url, s.content, 1 - (s.embedding <=> $1) AS similarity
		FROM sources s
		JOIN projects p ON p.id = s.project_id
		WHERE p.owner_id = $2 AND s.embedding IS NOT NULL`
	args := []interface{}{vec, ownerID}

	if maxDist, bounded := distanceBound(minSimilarity); bounded {
		sql += ` AND s.embedding <=> $1 < $3`
		args = append(args, maxDist)
	}
	if limit < 1 {
		limit = 1
	}
	sql += ` ORDER BY s.embedding <=> $1 LIMIT ` + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.classifyError("similar guides", err)
	}
	defer rows.Close()

	var matches []ports.SimilarGuide
	for rows.Next() {
		var match ports.SimilarGuide
		if err := rows.Scan(&match.Title, &match.URL, &match.Content, &match.Similarity); err != nil {
			return nil, s.classifyError("similar guides", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classifyError("similar guides", err)
	}
	return matches, nil
}

// distanceBound converts a minimum similarity into a cosine distance
// upper bound. No bound at zero or below, an effectively exact match at
// one or above.
func distanceBound(minSimilarity float64) (float64, bool) {
	if minSimilarity <= 0 {
		return 0, false
	}
	if minSimilarity >= 1 {
		return exactMatchDistance, true
	}
	return 1 - minSimilarity, true
}

// classifyError turns a missing vector column into a hard schema error.
// Every other query failure is logged and swallowed so the caller
// degrades to an empty match list.
func (s *SimilaritySearcher) classifyError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		s.logger.Error("Vector column missing, schema out of date",
			zap.String("operation", operation),
			zap.String("column", pgErr.ColumnName),
			zap.Error(err),
		)
		return errors.NewSchemaMismatchError("vector columns missing, run migrations", err)
	}
	s.logger.Warn("Similarity query failed, returning no matches",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return nil
}
