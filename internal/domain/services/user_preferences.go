package services

import (
	"context"

	"platformo/internal/domain/models"
)

// UserPreferencesService defines the business logic for user preferences operations
type UserPreferencesService interface {
	// GetPreferences retrieves preferences for a user.
	// Returns default preferences if none exist yet.
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)

	// UpdatePreferences replaces the provided namespaces, creating the row if needed
	UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error)
}
