package handler

import (
	"log/slog"
	"net/http"

	"platformo/internal/domain/services"
	"platformo/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// ListProjects retrieves all projects owned by the user
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	projects, err := h.projectService.ListProjects(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}
	req.OwnerID = userID

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a single project
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// updateProjectRequest is the PATCH body. A null description clears it.
type updateProjectRequest struct {
	Title       *string                 `json:"title"`
	Description httputil.OptionalString `json:"description"`
	IsPublic    *bool                   `json:"is_public"`
}

// UpdateProject updates project metadata
// PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var body updateProjectRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleParseError(w, err)
		return
	}

	req := &services.UpdateProjectRequest{
		Title: body.Title,
		Description: services.OptionalDescription{
			Present: body.Description.Present,
			Value:   body.Description.Value,
		},
		IsPublic: body.IsPublic,
	}

	project, err := h.projectService.UpdateProject(r.Context(), projectID, httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}
