package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		sub_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		company_id BIGINT NOT NULL REFERENCES companies(id),
		task_type TEXT NOT NULL,
		signature_method TEXT NOT NULL,
		schedule_type TEXT NOT NULL,
		schedule_detail TEXT NOT NULL DEFAULT '',
		contact_name TEXT,
		contact_phone TEXT,
		contact_email TEXT,
		detail_name TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS checklist_items (
		id BIGSERIAL PRIMARY KEY,
		task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		attachment_id TEXT,
		order_num INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS checklist_completions (
		id BIGSERIAL PRIMARY KEY,
		item_id BIGINT NOT NULL REFERENCES checklist_items(id) ON DELETE CASCADE,
		year INT NOT NULL,
		month INT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (item_id, year, month)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checklist_items_task ON checklist_items (task_id, order_num)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_item ON checklist_completions (item_id, year, month)`,
}

// EnsureSchema creates the tables on startup when they are missing, so a
// fresh database needs no manual migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
