package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables and indexes if they don't exist.
// On Supabase the projects table normally comes from a migration with RLS
// policies; this keeps local and test databases usable.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				owner_id UUID NOT NULL,
				title VARCHAR(255) NOT NULL,
				description TEXT,
				is_public BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Projects),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_id UUID NOT NULL UNIQUE REFERENCES %s(id) ON DELETE CASCADE,
				content JSONB NOT NULL,
				version INTEGER NOT NULL DEFAULT 1,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.ProjectContent, tables.Projects),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				user_id UUID PRIMARY KEY,
				preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.UserPreferences),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sprojects_owner_created ON %s(owner_id, created_at DESC)`,
			tablePrefix, tables.Projects),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// DropSchema drops all tables, children first
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.UserPreferences, tables.ProjectContent, tables.Projects} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
