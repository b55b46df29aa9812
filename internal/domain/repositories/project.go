package repositories

import (
	"context"

	"platformo/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create inserts a project and fills in the generated ID and created_at
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project by ID regardless of owner.
	// Access checks belong to the authorizer.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListByOwner retrieves all projects owned by a user, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)

	// Update writes title, description and is_public for an owned project
	Update(ctx context.Context, project *models.Project) error
}
