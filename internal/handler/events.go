package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"platformo/internal/domain/services"
	"platformo/internal/handler/sse"
	"platformo/internal/httputil"
	"platformo/internal/realtime"
)

// EventsHandler streams a project's realtime events over SSE, for clients
// that watch a project without editing it (project list, previews).
type EventsHandler struct {
	contentService services.ContentService
	hub            realtime.Hub
	config         *sse.Config
	logger         *slog.Logger
}

// NewEventsHandler creates a new events handler. A nil config uses the defaults.
func NewEventsHandler(contentService services.ContentService, hub realtime.Hub, config *sse.Config, logger *slog.Logger) *EventsHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &EventsHandler{
		contentService: contentService,
		hub:            hub,
		config:         config,
		logger:         logger,
	}
}

// StreamEvents handles GET /api/projects/{id}/events
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	ctx := r.Context()

	// Authorize before committing to a stream
	if _, err := h.contentService.GetProject(ctx, projectID, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	sub, err := h.hub.Subscribe(ctx, projectID)
	if err != nil {
		h.logger.Error("subscribe failed", "project_id", projectID, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "realtime unavailable")
		return
	}
	defer sub.Close()

	stream, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger := h.logger.With("project_id", projectID)
	logger.Debug("SSE stream established")

	if err := stream.WriteRetry(h.config.RetryMS); err != nil {
		return
	}

	ticker := time.NewTicker(h.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("SSE client disconnected")
			return

		case event, ok := <-sub.C:
			if !ok {
				logger.Debug("subscription closed, ending stream")
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("encode event", "error", err)
				continue
			}
			if err := stream.WriteEvent(event.ID, string(event.Type), data); err != nil {
				logger.Info("client disconnected during event write", "error", err)
				return
			}

		case <-ticker.C:
			if err := stream.WriteKeepAlive(); err != nil {
				logger.Info("client disconnected during keepalive", "error", err)
				return
			}
		}
	}
}
