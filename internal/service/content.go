package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"platformo/internal/config"
	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
	"platformo/internal/domain/services"
	"platformo/internal/editor"
	"platformo/internal/realtime"
)

// contentService is the persistence gateway for project workspaces
type contentService struct {
	contentRepo repositories.ContentRepository
	authorizer  services.ResourceAuthorizer
	publisher   realtime.Publisher
	logger      *slog.Logger
}

// NewContentService creates a new content service
func NewContentService(
	contentRepo repositories.ContentRepository,
	authorizer services.ResourceAuthorizer,
	publisher realtime.Publisher,
	logger *slog.Logger,
) services.ContentService {
	return &contentService{
		contentRepo: contentRepo,
		authorizer:  authorizer,
		publisher:   publisher,
		logger:      logger,
	}
}

// GetProject loads the project the workspace is opened for
func (s *contentService) GetProject(ctx context.Context, projectID, userID string) (*models.Project, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	return s.authorizer.CanViewProject(ctx, userID, projectID)
}

// GetContent loads the stored workspace, or an empty one at version 0
func (s *contentService) GetContent(ctx context.Context, projectID, userID string) (*models.ProjectContent, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if _, err := s.authorizer.CanViewProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	content, err := s.contentRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if content != nil {
		return content, nil
	}

	empty, err := editor.EncodeContent(editor.EmptyWorkspaceXML)
	if err != nil {
		return nil, err
	}
	return &models.ProjectContent{ProjectID: projectID, Content: empty}, nil
}

// SaveContent validates and writes the workspace. Without an expected
// version the write is an atomic upsert (last write wins); with one it is
// a conditional update that fails with a ConflictError on mismatch.
func (s *contentService) SaveContent(ctx context.Context, req *services.SaveContentRequest) (*models.ProjectContent, error) {
	// Fails fast on a missing project id before touching storage
	if err := s.validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.authorizer.CanEditProject(ctx, req.UserID, req.ProjectID); err != nil {
		return nil, err
	}

	var (
		saved *models.ProjectContent
		err   error
	)
	if req.ExpectedVersion != nil {
		saved, err = s.contentRepo.UpdateIfVersion(ctx, req.ProjectID, req.Content, *req.ExpectedVersion)
	} else {
		saved, err = s.contentRepo.Upsert(ctx, req.ProjectID, req.Content)
	}
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("content version conflict",
				"project_id", req.ProjectID,
				"expected_version", *req.ExpectedVersion,
				"current_version", conflict.CurrentVersion,
			)
		}
		return nil, err
	}

	s.logger.Info("content saved",
		"project_id", req.ProjectID,
		"user_id", req.UserID,
		"version", saved.Version,
		"trigger", req.Trigger,
		"bytes", len(req.Content),
	)

	ev := realtime.NewEvent(realtime.EventContentSaved, req.ProjectID)
	ev.Version = saved.Version
	ev.Trigger = req.Trigger
	ev.SessionID = req.SessionID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The write succeeded; other sessions just miss the notification
		s.logger.Warn("publish content saved failed", "project_id", req.ProjectID, "error", err)
	}

	return saved, nil
}

func (s *contentService) validateSaveRequest(req *services.SaveContentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required, is.UUID),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Content,
			validation.Required,
			validation.Length(1, config.MaxContentBytes),
			validation.By(validateWorkspaceContent),
		),
		validation.Field(&req.ExpectedVersion, validation.Min(0)),
		validation.Field(&req.Trigger, validation.In(
			models.SaveTriggerAutosave,
			models.SaveTriggerManual,
			models.SaveTriggerAPI,
		)),
	)
}

// validateWorkspaceContent checks the envelope and that the XML parses, so
// a broken write never replaces a loadable workspace.
func validateWorkspaceContent(value interface{}) error {
	raw, ok := value.(json.RawMessage)
	if !ok {
		return fmt.Errorf("content must be JSON")
	}
	workspaceXML, err := editor.DecodeContent(raw)
	if err != nil {
		return err
	}
	return editor.ValidateWorkspace(workspaceXML)
}

// validateProjectID rejects an empty or non-UUID project id without a query
func validateProjectID(id string) error {
	if err := validation.Validate(id, validation.Required, is.UUID); err != nil {
		return fmt.Errorf("%w: project_id: %v", domain.ErrValidation, err)
	}
	return nil
}
