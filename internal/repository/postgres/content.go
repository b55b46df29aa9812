package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
)

// PostgresContentRepository implements the ContentRepository interface
type PostgresContentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewContentRepository creates a new project content repository
func NewContentRepository(config *RepositoryConfig) repositories.ContentRepository {
	return &PostgresContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Get retrieves the content row for a project, nil if none was saved yet
func (r *PostgresContentRepository) Get(ctx context.Context, projectID string) (*models.ProjectContent, error) {
	query := fmt.Sprintf(`
		SELECT project_id, content, version, updated_at
		FROM %s
		WHERE project_id = $1
	`, r.tables.ProjectContent)

	content, err := r.scanOne(ctx, query, projectID)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		if IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project content: %w", err)
	}

	return content, nil
}

// Upsert writes the content in a single statement. The unique project_id
// constraint makes concurrent first saves collapse into insert + update
// instead of two inserts.
func (r *PostgresContentRepository) Upsert(ctx context.Context, projectID string, content json.RawMessage) (*models.ProjectContent, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (project_id, content, version, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (project_id) DO UPDATE SET
			content = EXCLUDED.content,
			version = %[1]s.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING project_id, content, version, updated_at
	`, r.tables.ProjectContent)

	saved, err := r.scanOne(ctx, query, projectID, content, time.Now())
	if err != nil {
		return nil, r.mapWriteError(projectID, err)
	}

	return saved, nil
}

// UpdateIfVersion performs an optimistic conditional write
func (r *PostgresContentRepository) UpdateIfVersion(ctx context.Context, projectID string, content json.RawMessage, expected int) (*models.ProjectContent, error) {
	var (
		saved *models.ProjectContent
		err   error
	)

	if expected == 0 {
		query := fmt.Sprintf(`
			INSERT INTO %s (project_id, content, version, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (project_id) DO NOTHING
			RETURNING project_id, content, version, updated_at
		`, r.tables.ProjectContent)
		saved, err = r.scanOne(ctx, query, projectID, content, time.Now())
	} else {
		query := fmt.Sprintf(`
			UPDATE %s
			SET content = $2, version = version + 1, updated_at = $3
			WHERE project_id = $1 AND version = $4
			RETURNING project_id, content, version, updated_at
		`, r.tables.ProjectContent)
		saved, err = r.scanOne(ctx, query, projectID, content, time.Now(), expected)
	}

	if err == nil {
		return saved, nil
	}
	if !IsPgNoRowsError(err) {
		return nil, r.mapWriteError(projectID, err)
	}

	// No row written: report what is stored now
	current, getErr := r.Get(ctx, projectID)
	if getErr != nil {
		return nil, getErr
	}
	currentVersion := 0
	if current != nil {
		currentVersion = current.Version
	}
	return nil, &domain.ConflictError{
		Message:        fmt.Sprintf("content of project %s is at version %d, expected %d", projectID, currentVersion, expected),
		ResourceType:   "project_content",
		ResourceID:     projectID,
		CurrentVersion: currentVersion,
	}
}

func (r *PostgresContentRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.ProjectContent, error) {
	var content models.ProjectContent
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&content.ProjectID,
		&content.Content,
		&content.Version,
		&content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *PostgresContentRepository) mapWriteError(projectID string, err error) error {
	if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
		return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}
	return fmt.Errorf("save project content: %w", err)
}
