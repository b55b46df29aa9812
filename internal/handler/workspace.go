package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"platformo/internal/config"
	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/httputil"
	"platformo/internal/i18n"
	"platformo/internal/realtime"
	"platformo/internal/workspace"
)

const workspaceWriteTimeout = 10 * time.Second

// WorkspaceHandler upgrades to a websocket and runs one workspace session
// per connection.
type WorkspaceHandler struct {
	baseCtx        context.Context
	contentService services.ContentService
	prefsService   services.UserPreferencesService
	hub            realtime.Hub
	translations   *i18n.Store
	debounce       time.Duration
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWorkspaceHandler creates a new workspace handler. Sessions end when
// baseCtx is cancelled, which the server does on shutdown since hijacked
// connections outlive http.Server.Shutdown.
func NewWorkspaceHandler(
	baseCtx context.Context,
	contentService services.ContentService,
	prefsService services.UserPreferencesService,
	hub realtime.Hub,
	translations *i18n.Store,
	debounce time.Duration,
	allowedOrigins []string,
	logger *slog.Logger,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		baseCtx:        baseCtx,
		contentService: contentService,
		prefsService:   prefsService,
		hub:            hub,
		translations:   translations,
		debounce:       debounce,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// OpenWorkspace handles GET /api/projects/{id}/workspace
func (h *WorkspaceHandler) OpenWorkspace(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)
	lang, debounce := h.sessionSettings(r, userID)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed", "project_id", projectID, "error", err)
		return
	}
	ws.SetReadLimit(config.MaxWorkspaceMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.baseCtx, cancel)
	defer stop()

	session := workspace.NewSession(workspace.Params{
		ProjectID:    projectID,
		UserID:       userID,
		Language:     lang,
		Conn:         &wsConn{Conn: ws},
		Content:      h.contentService,
		Hub:          h.hub,
		Translations: h.translations,
		Debounce:     debounce,
		OnLanguageChange: func(lang string) {
			h.rememberLanguage(userID, lang)
		},
		Logger: h.logger,
	})
	if err := session.Run(ctx); err != nil {
		h.logger.Info("workspace session ended with error",
			"project_id", projectID,
			"session_id", session.ID(),
			"error", err,
		)
	}
	_ = ws.Close()
}

// sessionSettings resolves the initial language and autosave debounce. An
// explicit ?lang wins, then the stored preference, then Accept-Language.
func (h *WorkspaceHandler) sessionSettings(r *http.Request, userID string) (string, time.Duration) {
	languages := h.translations.Languages()
	fallback := h.translations.DefaultLanguage()
	debounce := h.debounce

	prefs, err := h.prefsService.GetPreferences(r.Context(), userID)
	if err != nil {
		h.logger.Warn("preferences unavailable, using defaults", "user_id", userID, "error", err)
		return httputil.PreferredLanguage(r, languages, fallback), debounce
	}
	if editor, err := prefs.GetEditor(); err == nil && editor.AutosaveDebounceMS != nil {
		debounce = time.Duration(*editor.AutosaveDebounceMS) * time.Millisecond
	}
	if r.URL.Query().Get("lang") == "" {
		if ui, err := prefs.GetUI(); err == nil && slices.Contains(languages, ui.Language) {
			return ui.Language, debounce
		}
	}
	return httputil.PreferredLanguage(r, languages, fallback), debounce
}

// rememberLanguage stores a language switch made inside the workspace. It
// runs on the session goroutine, so it does not block on a slow database.
func (h *WorkspaceHandler) rememberLanguage(userID, lang string) {
	go func() {
		ctx, cancel := context.WithTimeout(h.baseCtx, 5*time.Second)
		defer cancel()
		_, err := h.prefsService.UpdatePreferences(ctx, userID, &models.UpdatePreferencesRequest{
			UI: &models.UIPreferences{Language: lang},
		})
		if err != nil {
			h.logger.Warn("failed to store language preference", "user_id", userID, "error", err)
		}
	}()
}

// wsConn bounds every write so a stalled client cannot block the session.
type wsConn struct {
	*websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	if err := c.SetWriteDeadline(time.Now().Add(workspaceWriteTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteJSON(v)
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin. "*" allows all.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
