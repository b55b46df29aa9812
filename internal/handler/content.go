package handler

import (
	"log/slog"
	"net/http"

	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/httputil"
)

// ContentHandler exposes the stored workspace of a project
type ContentHandler struct {
	contentService services.ContentService
	logger         *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService services.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetContent returns the stored workspace envelope and its version
// GET /api/projects/{id}/content
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	content, err := h.contentService.GetContent(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// SaveContent overwrites the workspace. With expected_version set, a stale
// write gets 409 and the stored version in current_version.
// PUT /api/projects/{id}/content
func (h *ContentHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req services.SaveContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}
	req.ProjectID = projectID
	req.UserID = httputil.GetUserID(r)
	req.Trigger = models.SaveTriggerAPI

	content, err := h.contentService.SaveContent(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Debug("content saved via api",
		"project_id", projectID,
		"version", content.Version,
	)
	httputil.RespondJSON(w, http.StatusOK, content)
}
