package services

import (
	"context"

	"platformo/internal/domain/models"
)

// ResourceAuthorizer checks if a user can access resources.
// Services call it before operating on a project.
type ResourceAuthorizer interface {
	// CanViewProject allows the owner and, for public projects, any signed-in user.
	// Returns the project so callers don't fetch it twice.
	CanViewProject(ctx context.Context, userID, projectID string) (*models.Project, error)

	// CanEditProject allows only the owner
	CanEditProject(ctx context.Context, userID, projectID string) (*models.Project, error)
}
