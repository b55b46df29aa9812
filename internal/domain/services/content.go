package services

import (
	"context"
	"encoding/json"

	"platformo/internal/domain/models"
)

// SaveContentRequest is one write of a project's workspace.
type SaveContentRequest struct {
	ProjectID string `json:"-"`
	UserID    string `json:"-"`
	// Content is the JSON envelope ({"blocklyXml": ...})
	Content json.RawMessage `json:"content"`
	// ExpectedVersion turns the write into an optimistic conditional update
	ExpectedVersion *int               `json:"expected_version,omitempty"`
	Trigger         models.SaveTrigger `json:"-"`
	// SessionID identifies the workspace session that wrote, for realtime echo suppression
	SessionID string `json:"-"`
}

// ContentService is the persistence gateway used by the workspace and the REST API.
type ContentService interface {
	// GetProject loads project metadata the user may view
	GetProject(ctx context.Context, projectID, userID string) (*models.Project, error)

	// GetContent loads the stored workspace. A project without saved content
	// yields an empty workspace at version 0.
	GetContent(ctx context.Context, projectID, userID string) (*models.ProjectContent, error)

	// SaveContent writes the workspace and publishes a realtime notification
	SaveContent(ctx context.Context, req *SaveContentRequest) (*models.ProjectContent, error)
}
