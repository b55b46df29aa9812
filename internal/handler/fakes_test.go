package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/httputil"
)

const (
	ownerID   = "11111111-1111-1111-1111-111111111111"
	otherID   = "22222222-2222-2222-2222-222222222222"
	projectID = "33333333-3333-3333-3333-333333333333"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser stands in for the auth middleware
func asUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, httputil.WithUserID(r, userID))
	})
}

type fakeProjects struct {
	mu      sync.Mutex
	created *services.CreateProjectRequest
	updated *services.UpdateProjectRequest
	err     error
}

func (f *fakeProjects) CreateProject(_ context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &models.Project{ID: projectID, OwnerID: req.OwnerID, Title: req.Title, CreatedAt: time.Now()}, nil
}

func (f *fakeProjects) GetProject(_ context.Context, id, userID string) (*models.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Project{ID: id, OwnerID: userID, Title: "Demo"}, nil
}

func (f *fakeProjects) ListProjects(_ context.Context, userID string) ([]models.Project, error) {
	return []models.Project{{ID: projectID, OwnerID: userID, Title: "Demo"}}, nil
}

func (f *fakeProjects) UpdateProject(_ context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = req
	return &models.Project{ID: id, OwnerID: userID, Title: "Demo"}, nil
}

// fakeContent holds one owned project
type fakeContent struct {
	mu       sync.Mutex
	project  models.Project
	stored   *models.ProjectContent
	saveErr  error
	lastSave *services.SaveContentRequest
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		project: models.Project{ID: projectID, OwnerID: ownerID, Title: "Demo"},
		stored: &models.ProjectContent{
			ProjectID: projectID,
			Content:   json.RawMessage(`{"blocklyXml":"<xml xmlns=\"https://developers.google.com/blockly/xml\"></xml>"}`),
			Version:   3,
		},
	}
}

func (f *fakeContent) GetProject(_ context.Context, id, userID string) (*models.Project, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if id != f.project.ID {
		return nil, domain.ErrNotFound
	}
	if !f.project.IsOwnedBy(userID) && !f.project.IsPublic {
		return nil, domain.ErrForbidden
	}
	p := f.project
	return &p, nil
}

func (f *fakeContent) GetContent(ctx context.Context, id, userID string) (*models.ProjectContent, error) {
	if _, err := f.GetProject(ctx, id, userID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *f.stored
	return &c, nil
}

func (f *fakeContent) SaveContent(_ context.Context, req *services.SaveContentRequest) (*models.ProjectContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSave = req
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.stored = &models.ProjectContent{
		ProjectID: req.ProjectID,
		Content:   req.Content,
		Version:   f.stored.Version + 1,
		UpdatedAt: time.Now(),
	}
	c := *f.stored
	return &c, nil
}

// fakePrefs keeps one preferences document per user
type fakePrefs struct {
	mu    sync.Mutex
	prefs map[string]*models.UserPreferences
	err   error
}

func (f *fakePrefs) GetPreferences(_ context.Context, userID string) (*models.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return &models.UserPreferences{UserID: userID, Preferences: models.JSONMap{}}, nil
}

func (f *fakePrefs) UpdatePreferences(_ context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if req.UI == nil && req.Editor == nil {
		return nil, domain.ErrValidation
	}
	if f.prefs == nil {
		f.prefs = make(map[string]*models.UserPreferences)
	}
	p, ok := f.prefs[userID]
	if !ok {
		p = &models.UserPreferences{UserID: userID, Preferences: models.JSONMap{}}
		f.prefs[userID] = p
	}
	if req.UI != nil {
		if err := p.SetNamespace("ui", req.UI); err != nil {
			return nil, err
		}
	}
	if req.Editor != nil {
		if err := p.SetNamespace("editor", req.Editor); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (f *fakePrefs) language(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[userID]
	if !ok {
		return ""
	}
	ui, _ := p.GetUI()
	return ui.Language
}
