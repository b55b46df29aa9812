package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/repositories"
	"platformo/internal/realtime"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryProjects is an in-memory ProjectRepository
type memoryProjects struct {
	mu       sync.Mutex
	projects map[string]models.Project
	queries  int
}

func newMemoryProjects() *memoryProjects {
	return &memoryProjects{projects: make(map[string]models.Project)}
}

func (r *memoryProjects) Create(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	p.ID = uuid.NewString()
	r.projects[p.ID] = *p
	return nil
}

func (r *memoryProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProjects) ListByOwner(_ context.Context, ownerID string) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	out := []models.Project{}
	for _, p := range r.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryProjects) Update(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if _, ok := r.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *memoryProjects) add(p models.Project) models.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.projects[p.ID] = p
	return p
}

func (r *memoryProjects) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries
}

// memoryContent is an in-memory ContentRepository with the same version
// semantics as the postgres one
type memoryContent struct {
	mu   sync.Mutex
	rows map[string]models.ProjectContent
	err  error
}

func newMemoryContent() *memoryContent {
	return &memoryContent{rows: make(map[string]models.ProjectContent)}
}

func (r *memoryContent) Get(_ context.Context, projectID string) (*models.ProjectContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row, ok := r.rows[projectID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memoryContent) Upsert(_ context.Context, projectID string, content json.RawMessage) (*models.ProjectContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row := r.rows[projectID]
	row.ProjectID = projectID
	row.Content = content
	row.Version++
	row.UpdatedAt = time.Now()
	r.rows[projectID] = row
	return &row, nil
}

func (r *memoryContent) UpdateIfVersion(_ context.Context, projectID string, content json.RawMessage, expected int) (*models.ProjectContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row := r.rows[projectID]
	if row.Version != expected {
		return nil, &domain.ConflictError{
			Message:        "content was modified by another session",
			ResourceType:   "project_content",
			ResourceID:     projectID,
			CurrentVersion: row.Version,
		}
	}
	row.ProjectID = projectID
	row.Content = content
	row.Version++
	row.UpdatedAt = time.Now()
	r.rows[projectID] = row
	return &row, nil
}

// passthroughTx runs fn directly
type passthroughTx struct {
	calls int
}

func (tx *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx.calls++
	return fn(ctx)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) published() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}
