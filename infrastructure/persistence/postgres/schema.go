package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full DDL, idempotent so it can run on every startup.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS projects (
		id         UUID PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects (owner_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS chat_entries (
		id         BIGSERIAL PRIMARY KEY,
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		node_id    UUID NOT NULL,
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_entries_project ON chat_entries (project_id, id)`,

	`CREATE TABLE IF NOT EXISTS nodes (
		id                 UUID PRIMARY KEY,
		project_id         UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id          UUID REFERENCES nodes(id) ON DELETE SET NULL,
		query              TEXT NOT NULL,
		answer             TEXT NOT NULL,
		results            JSONB NOT NULL DEFAULT '[]',
		images             JSONB NOT NULL DEFAULT '[]',
		followup_questions JSONB NOT NULL DEFAULT '[]',
		related_concepts   JSONB NOT NULL DEFAULT '[]',
		answer_embedding   VECTOR(768),
		embedding_status   TEXT NOT NULL DEFAULT 'pending',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes (project_id, created_at)`,

	`CREATE INDEX IF NOT EXISTS idx_nodes_answer_embedding ON nodes
		USING hnsw (answer_embedding vector_cosine_ops)`,

	`CREATE TABLE IF NOT EXISTS sources (
		id               UUID PRIMARY KEY,
		node_id          UUID NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		project_id       UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title            TEXT NOT NULL DEFAULT '',
		url              TEXT NOT NULL,
		content          TEXT NOT NULL DEFAULT '',
		embedding        VECTOR(768),
		embedding_status TEXT NOT NULL DEFAULT 'pending',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (node_id, url)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sources_project ON sources (project_id)`,

	`CREATE INDEX IF NOT EXISTS idx_sources_embedding ON sources
		USING hnsw (embedding vector_cosine_ops)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
