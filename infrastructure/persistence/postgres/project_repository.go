package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loupe-backend/application/ports"
	"loupe-backend/domain/core/entities"
	"loupe-backend/domain/core/valueobjects"
	"loupe-backend/pkg/errors"
)

// ProjectRepository persists projects and chat entries in PostgreSQL.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new repository instance
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// Save persists a new project.
func (r *ProjectRepository) Save(ctx context.Context, project *entities.Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, owner_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		project.ID().String(),
		project.OwnerID(),
		project.Name(),
		project.CreatedAt(),
		project.UpdatedAt(),
	)
	if err != nil {
		return errors.NewDatabaseError("save project", err)
	}
	return nil
}

// GetByID retrieves a project scoped to its owner. A project owned by
// another user is indistinguishable from a missing one.
func (r *ProjectRepository) GetByID(ctx context.Context, id valueobjects.ProjectID, ownerID string) (*entities.Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, created_at, updated_at
		 FROM projects WHERE id = $1 AND owner_id = $2`,
		id.String(), ownerID,
	)

	project, err := scanProject(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("project")
		}
		return nil, errors.NewDatabaseError("get project", err)
	}
	return project, nil
}

// ListByOwner returns all projects for a user, newest first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, created_at, updated_at
		 FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("list projects", err)
	}
	defer rows.Close()

	var projects []*entities.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, errors.NewDatabaseError("scan project", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("list projects", err)
	}
	return projects, nil
}

// Delete removes a project; nodes, sources, and chat entries cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id valueobjects.ProjectID, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND owner_id = $2`,
		id.String(), ownerID,
	)
	if err != nil {
		return errors.NewDatabaseError("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("project")
	}
	return nil
}

// AppendChatEntry appends one exchange to the project's history. The
// insert is atomic, so concurrent research steps cannot overwrite each
// other's entries.
func (r *ProjectRepository) AppendChatEntry(ctx context.Context, id valueobjects.ProjectID, entry entities.ChatEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_entries (project_id, node_id, question, answer, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id.String(),
		entry.NodeID.String(),
		entry.Question,
		entry.Answer,
		entry.Timestamp,
	)
	if err != nil {
		return errors.NewDatabaseError("append chat entry", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE projects SET updated_at = now() WHERE id = $1`,
		id.String(),
	)
	if err != nil {
		return errors.NewDatabaseError("touch project", err)
	}
	return nil
}

// GetChatHistory returns a project's chat entries in append order.
func (r *ProjectRepository) GetChatHistory(ctx context.Context, id valueobjects.ProjectID) ([]entities.ChatEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT node_id, question, answer, created_at
		 FROM chat_entries WHERE project_id = $1 ORDER BY id`,
		id.String(),
	)
	if err != nil {
		return nil, errors.NewDatabaseError("get chat history", err)
	}
	defer rows.Close()

	var history []entities.ChatEntry
	for rows.Next() {
		var (
			nodeIDStr string
			entry     entities.ChatEntry
			createdAt time.Time
		)
		if err := rows.Scan(&nodeIDStr, &entry.Question, &entry.Answer, &createdAt); err != nil {
			return nil, errors.NewDatabaseError("scan chat entry", err)
		}
		nodeID, err := valueobjects.ParseNodeID(nodeIDStr)
		if err != nil {
			return nil, errors.NewDatabaseError("parse chat entry node ID", err)
		}
		entry.NodeID = nodeID
		entry.Timestamp = createdAt
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("get chat history", err)
	}
	return history, nil
}

func scanProject(row pgx.Row) (*entities.Project, error) {
	var (
		idStr     string
		ownerID   string
		name      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&idStr, &ownerID, &name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := valueobjects.ParseProjectID(idStr)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructProject(id, ownerID, name, createdAt, updatedAt), nil
}
