package services

import (
	"context"

	"platformo/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	OwnerID     string  `json:"-"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsPublic    bool    `json:"is_public"`
}

// OptionalDescription tracks tri-state PATCH semantics for description.
// This is transport-agnostic - the handler maps from httputil.OptionalString.
//   - Present=false: field absent (don't change)
//   - Present=true, Value=nil: clear
//   - Present=true, Value=&"text": set
type OptionalDescription struct {
	Present bool
	Value   *string
}

// UpdateProjectRequest represents a PATCH on a project.
// Nil pointers leave the field unchanged.
type UpdateProjectRequest struct {
	Title       *string
	Description OptionalDescription
	IsPublic    *bool
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	// CreateProject creates a new project owned by req.OwnerID
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)

	// GetProject retrieves a project the user may view
	GetProject(ctx context.Context, id, userID string) (*models.Project, error)

	// ListProjects retrieves all projects owned by the user, newest first
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)

	// UpdateProject updates an owned project's metadata
	UpdateProject(ctx context.Context, id, userID string, req *UpdateProjectRequest) (*models.Project, error)
}
