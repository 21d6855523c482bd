package postgres

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// SourceRepository persists web sources in PostgreSQL.
type SourceRepository struct {
	pool *pgxpool.Pool
}

// NewSourceRepository creates a new repository instance
func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

var _ ports.SourceRepository = (*SourceRepository)(nil)

// Save persists a source. A repeated (node, url) pair replaces the
// stored embedding, which lets a backfill retry failed embeddings.
func (r *SourceRepository) Save(ctx context.Context, source *entities.Source) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sources (id, node_id, project_id, title, url, content, embedding, embedding_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (node_id, url) DO UPDATE
		 SET embedding = EXCLUDED.embedding, embedding_status = EXCLUDED.embedding_status`,
		source.ID().String(),
		source.NodeID().String(),
		source.ProjectID().String(),
		source.Title(),
		source.URL(),
		source.Content(),
		toVector(source.Embedding()),
		string(source.EmbeddingStatus()),
		source.CreatedAt(),
	)
	if err != nil {
		return errors.NewDatabaseError("save source", err)
	}
	return nil
}

// GetEmbedding returns the stored content embedding for a node's source
// by URL.
func (r *SourceRepository) GetEmbedding(ctx context.Context, nodeID valueobjects.NodeID, url string) (valueobjects.Embedding, error) {
	var embedding *pgvector.Vector
	err := r.pool.QueryRow(ctx,
		`SELECT embedding FROM sources WHERE node_id = $1 AND url = $2`,
		nodeID.String(), url,
	).Scan(&embedding)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Embedding{}, errors.NewNotFoundError("source")
		}
		return valueobjects.Embedding{}, errors.NewDatabaseError("get source embedding", err)
	}
	return fromVector(embedding), nil
}

// ListByURLs returns the owner's stored sources matching the given
// URLs, one row per distinct URL.
func (r *SourceRepository) ListByURLs(ctx context.Context, ownerID string, urls []string) ([]ports.SourceData, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (s.url) s.title, s.url, s.content
		 FROM sources s
		 JOIN projects p ON p.id = s.project_id
		 WHERE p.owner_id = $1 AND s.url = ANY($2)
		 ORDER BY s.url, s.created_at DESC`,
		ownerID, urls,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("list sources by URL", err)
	}
	defer rows.Close()

	var sources []ports.SourceData
	for rows.Next() {
		var src ports.SourceData
		if err := rows.Scan(&src.Title, &src.URL, &src.Content); err != nil {
			return nil, errors.NewDatabaseError("scan source", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("list sources by URL", err)
	}
	return sources, nil
}
