package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"platformo/internal/config"
	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
	"platformo/internal/domain/services"
	"platformo/internal/realtime"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	publisher   realtime.Publisher
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	publisher realtime.Publisher,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateProject creates a new project
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project := &models.Project{
		OwnerID:     req.OwnerID,
		Title:       strings.TrimSpace(req.Title),
		Description: normalizeDescription(req.Description),
		IsPublic:    req.IsPublic,
		CreatedAt:   time.Now(),
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"title", project.Title,
		"user_id", req.OwnerID,
	)

	return project, nil
}

// GetProject retrieves a project the user may view
func (s *projectService) GetProject(ctx context.Context, id, userID string) (*models.Project, error) {
	if err := validateProjectID(id); err != nil {
		return nil, err
	}
	return s.authorizer.CanViewProject(ctx, userID, id)
}

// ListProjects retrieves the user's own projects, newest first
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	projects, err := s.projectRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// UpdateProject applies a partial update to an owned project
func (s *projectService) UpdateProject(ctx context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	if err := validateProjectID(id); err != nil {
		return nil, err
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var updated *models.Project
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		project, err := s.authorizer.CanEditProject(txCtx, userID, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			project.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description.Present {
			project.Description = normalizeDescription(req.Description.Value)
		}
		if req.IsPublic != nil {
			project.IsPublic = *req.IsPublic
		}

		if err := s.projectRepo.Update(txCtx, project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project updated",
		"id", updated.ID,
		"title", updated.Title,
		"is_public", updated.IsPublic,
		"user_id", userID,
	)

	if err := s.publisher.Publish(ctx, realtime.NewEvent(realtime.EventProjectUpdated, updated.ID)); err != nil {
		s.logger.Warn("publish project update failed", "id", updated.ID, "error", err)
	}

	return updated, nil
}

// validateCreateRequest validates a create project request
func (s *projectService) validateCreateRequest(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxProjectTitleLength),
			validation.By(validateTitle),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxProjectDescriptionLength)),
	)
}

// validateUpdateRequest validates an update project request. Absent fields
// are left alone, present ones follow the create rules.
func (s *projectService) validateUpdateRequest(req *services.UpdateProjectRequest) error {
	if req.Title == nil && !req.Description.Present && req.IsPublic == nil {
		return fmt.Errorf("at least one field must be provided")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxProjectTitleLength),
			validation.By(validateTitle),
		),
		validation.Field(&req.Description,
			validation.By(func(value interface{}) error {
				d, ok := value.(services.OptionalDescription)
				if ok && d.Value != nil && len(*d.Value) > config.MaxProjectDescriptionLength {
					return fmt.Errorf("the length must be no more than %d", config.MaxProjectDescriptionLength)
				}
				return nil
			}),
		),
	)
}

// validateTitle rejects whitespace-only titles
func validateTitle(value interface{}) error {
	var title string
	switch v := value.(type) {
	case string:
		title = v
	case *string:
		if v == nil {
			return nil
		}
		title = *v
	default:
		return fmt.Errorf("title must be a string")
	}

	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}

// normalizeDescription trims the description; blank becomes NULL
func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
