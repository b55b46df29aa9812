package repositories

import (
	"context"
	"encoding/json"

	"platformo/internal/domain/models"
)

// ContentRepository persists the per-project workspace payload
type ContentRepository interface {
	// Get returns the stored content, or nil (no error) when the project has none yet
	Get(ctx context.Context, projectID string) (*models.ProjectContent, error)

	// Upsert inserts the row at version 1 or bumps the version of the
	// existing row, in one statement. Last write wins.
	Upsert(ctx context.Context, projectID string, content json.RawMessage) (*models.ProjectContent, error)

	// UpdateIfVersion writes only when the stored version equals expected.
	// Returns a *domain.ConflictError carrying the current version otherwise.
	// expected == 0 means "no row may exist yet".
	UpdateIfVersion(ctx context.Context, projectID string, content json.RawMessage, expected int) (*models.ProjectContent, error)
}
