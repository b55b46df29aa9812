package auth

import (
	"context"
	"fmt"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// Owners may do anything with a project. Anyone signed in may read a
// public project.
type OwnerBasedAuthorizer struct {
	projectRepo repositories.ProjectRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(projectRepo repositories.ProjectRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{projectRepo: projectRepo}
}

// CanViewProject checks if user owns the project or the project is public
func (a *OwnerBasedAuthorizer) CanViewProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	project, err := a.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.IsOwnedBy(userID) || project.IsPublic {
		return project, nil
	}
	return nil, fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
}

// CanEditProject checks if user owns the project
func (a *OwnerBasedAuthorizer) CanEditProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	project, err := a.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !project.IsOwnedBy(userID) {
		return nil, fmt.Errorf("only the owner can modify project %s: %w", projectID, domain.ErrForbidden)
	}
	return project, nil
}
