package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Statements are idempotent so Migrate can run on every boot. The foreign
// keys back the service-level referential checks: personnels.department_id
// RESTRICTs department deletion, and a department's manager reference is
// cleared when the personnel record is removed.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id),
		key_digest TEXT NOT NULL UNIQUE,
		device     TEXT NOT NULL DEFAULT '',
		issued_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS tokens_user_id_idx ON tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS departments (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		manager_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS personnels (
		id            UUID PRIMARY KEY,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		gender        TEXT NOT NULL DEFAULT '',
		title         TEXT NOT NULL DEFAULT '',
		salary        DOUBLE PRECISION NOT NULL DEFAULT 0,
		department_id UUID NOT NULL REFERENCES departments(id) ON DELETE RESTRICT,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS personnels_department_id_idx ON personnels (department_id)`,
	`DO $$ BEGIN
		ALTER TABLE departments
			ADD CONSTRAINT departments_manager_fk
			FOREIGN KEY (manager_id) REFERENCES personnels(id) ON DELETE SET NULL;
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
}

// Migrate applies the schema to the connected database.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	cp.logger.Info("schema migrated", slog.Int("statements", len(migrations)))
	return nil
}
