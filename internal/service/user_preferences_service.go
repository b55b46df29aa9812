package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"platformo/internal/config"
	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
	"platformo/internal/domain/services"
)

// UserPreferencesService implements the UserPreferencesService interface
type UserPreferencesService struct {
	prefsRepo repositories.UserPreferencesRepository
	languages []interface{}
	logger    *slog.Logger
}

// NewUserPreferencesService creates a new user preferences service.
// languages are the UI languages a preference may select.
func NewUserPreferencesService(
	prefsRepo repositories.UserPreferencesRepository,
	languages []string,
	logger *slog.Logger,
) services.UserPreferencesService {
	allowed := make([]interface{}, len(languages))
	for i, l := range languages {
		allowed[i] = l
	}
	return &UserPreferencesService{
		prefsRepo: prefsRepo,
		languages: allowed,
		logger:    logger,
	}
}

// getDefaultPreferences returns default preferences with namespaced structure
func (s *UserPreferencesService) getDefaultPreferences(userID string) *models.UserPreferences {
	now := time.Now()
	return &models.UserPreferences{
		UserID: userID,
		Preferences: models.JSONMap{
			"ui":     map[string]interface{}{"language": ""},
			"editor": map[string]interface{}{"autosave_debounce_ms": nil},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetPreferences retrieves preferences for a user
func (s *UserPreferencesService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	prefs, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	if prefs == nil {
		s.logger.Debug("no preferences found, returning defaults", "user_id", userID)
		prefs = s.getDefaultPreferences(userID)
	}

	return prefs, nil
}

// UpdatePreferences replaces the namespaces present in req
func (s *UserPreferencesService) UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validateUpdate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.UI != nil {
		if err := existing.SetNamespace("ui", req.UI); err != nil {
			return nil, fmt.Errorf("update ui namespace: %w", err)
		}
	}
	if req.Editor != nil {
		if err := existing.SetNamespace("editor", req.Editor); err != nil {
			return nil, fmt.Errorf("update editor namespace: %w", err)
		}
	}

	existing.UpdatedAt = time.Now()

	if err := s.prefsRepo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	s.logger.Info("user preferences updated",
		"user_id", userID,
		"has_ui", req.UI != nil,
		"has_editor", req.Editor != nil,
	)

	return existing, nil
}

func (s *UserPreferencesService) validateUpdate(req *models.UpdatePreferencesRequest) error {
	if req.UI == nil && req.Editor == nil {
		return fmt.Errorf("no preferences to update")
	}
	if req.UI != nil {
		if err := validation.ValidateStruct(req.UI,
			validation.Field(&req.UI.Language, validation.In(s.languages...)),
		); err != nil {
			return err
		}
	}
	if req.Editor != nil {
		if err := validation.ValidateStruct(req.Editor,
			validation.Field(&req.Editor.AutosaveDebounceMS,
				validation.Min(config.MinAutosaveDebounceMS),
				validation.Max(config.MaxAutosaveDebounceMS),
			),
		); err != nil {
			return err
		}
	}
	return nil
}
