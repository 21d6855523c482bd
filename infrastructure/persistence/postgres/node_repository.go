package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// NodeRepository persists research nodes in PostgreSQL.
type NodeRepository struct {
	pool *pgxpool.Pool
}

// NewNodeRepository creates a new repository instance
func NewNodeRepository(pool *pgxpool.Pool) *NodeRepository {
	return &NodeRepository{pool: pool}
}

var _ ports.NodeRepository = (*NodeRepository)(nil)

// Save persists a new node.
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	results, err := json.Marshal(orEmpty(node.Results()))
	if err != nil {
		return errors.NewDatabaseError("encode results", err)
	}
	images, err := json.Marshal(orEmpty(node.Images()))
	if err != nil {
		return errors.NewDatabaseError("encode images", err)
	}
	followups, err := json.Marshal(orEmpty(node.FollowupQuestions()))
	if err != nil {
		return errors.NewDatabaseError("encode follow-ups", err)
	}
	concepts, err := json.Marshal(orEmpty(node.RelatedConcepts()))
	if err != nil {
		return errors.NewDatabaseError("encode concepts", err)
	}

	var parentID *string
	if node.ParentID() != nil {
		s := node.ParentID().String()
		parentID = &s
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO nodes (id, project_id, parent_id, query, answer, results, images,
			followup_questions, related_concepts, answer_embedding, embedding_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		node.ID().String(),
		node.ProjectID().String(),
		parentID,
		node.Query(),
		node.Answer(),
		results,
		images,
		followups,
		concepts,
		toVector(node.AnswerEmbedding()),
		string(node.EmbeddingStatus()),
		node.CreatedAt(),
	)
	if err != nil {
		return errors.NewDatabaseError("save node", err)
	}
	return nil
}

// GetByID retrieves a node by ID.
func (r *NodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, project_id, parent_id, query, answer, results, images,
			followup_questions, related_concepts, answer_embedding, embedding_status, created_at
		 FROM nodes WHERE id = $1`,
		id.String(),
	)

	node, err := scanNode(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("node")
		}
		return nil, errors.NewDatabaseError("get node", err)
	}
	return node, nil
}

// ListByProject returns a project's nodes in creation order.
func (r *NodeRepository) ListByProject(ctx context.Context, projectID valueobjects.ProjectID) ([]*entities.Node, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, parent_id, query, answer, results, images,
			followup_questions, related_concepts, answer_embedding, embedding_status, created_at
		 FROM nodes WHERE project_id = $1 ORDER BY created_at, id`,
		projectID.String(),
	)
	if err != nil {
		return nil, errors.NewDatabaseError("list nodes", err)
	}
	defer rows.Close()

	var nodes []*entities.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, errors.NewDatabaseError("scan node", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("list nodes", err)
	}
	return nodes, nil
}

// UpdateAnswerEmbedding records the answer embedding and status.
func (r *NodeRepository) UpdateAnswerEmbedding(ctx context.Context, id valueobjects.NodeID, embedding valueobjects.Embedding, status entities.EmbeddingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE nodes SET answer_embedding = $1, embedding_status = $2 WHERE id = $3`,
		toVector(embedding),
		string(status),
		id.String(),
	)
	if err != nil {
		return errors.NewDatabaseError("update answer embedding", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("node")
	}
	return nil
}

func scanNode(row pgx.Row) (*entities.Node, error) {
	var (
		idStr        string
		projectIDStr string
		parentIDStr  *string
		query        string
		answer       string
		resultsRaw   []byte
		imagesRaw    []byte
		followupsRaw []byte
		conceptsRaw  []byte
		embedding    *pgvector.Vector
		status       string
		createdAt    time.Time
	)
	if err := row.Scan(&idStr, &projectIDStr, &parentIDStr, &query, &answer,
		&resultsRaw, &imagesRaw, &followupsRaw, &conceptsRaw, &embedding, &status, &createdAt); err != nil {
		return nil, err
	}

	id, err := valueobjects.ParseNodeID(idStr)
	if err != nil {
		return nil, err
	}
	projectID, err := valueobjects.ParseProjectID(projectIDStr)
	if err != nil {
		return nil, err
	}
	var parentID *valueobjects.NodeID
	if parentIDStr != nil {
		pid, err := valueobjects.ParseNodeID(*parentIDStr)
		if err != nil {
			return nil, err
		}
		parentID = &pid
	}

	var results []entities.SearchResult
	if err := json.Unmarshal(resultsRaw, &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	var images []entities.ImageResult
	if err := json.Unmarshal(imagesRaw, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	var followups []string
	if err := json.Unmarshal(followupsRaw, &followups); err != nil {
		return nil, fmt.Errorf("decode follow-ups: %w", err)
	}
	var concepts []string
	if err := json.Unmarshal(conceptsRaw, &concepts); err != nil {
		return nil, fmt.Errorf("decode concepts: %w", err)
	}

	return entities.ReconstructNode(
		id, projectID, parentID, query, answer,
		results, images, followups, concepts,
		fromVector(embedding),
		entities.EmbeddingStatus(status),
		createdAt,
	), nil
}

// toVector converts an embedding to its column value, nil for absent.
func toVector(e valueobjects.Embedding) *pgvector.Vector {
	if e.IsZero() {
		return nil
	}
	v := pgvector.NewVector(e.Values())
	return &v
}

// fromVector converts a nullable column value back to an embedding.
func fromVector(v *pgvector.Vector) valueobjects.Embedding {
	if v == nil {
		return valueobjects.Embedding{}
	}
	embedding, err := valueobjects.NewEmbedding(v.Slice())
	if err != nil {
		return valueobjects.Embedding{}
	}
	return embedding
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
