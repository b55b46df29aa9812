// Package workspace runs the server side of an open project editor: one
// Session per websocket connection, composing the translation store, the
// persistence gateway, the editor surface and the autosave coordinator.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"platformo/internal/autosave"
	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/editor"
	"platformo/internal/i18n"
	"platformo/internal/realtime"
)

// Conn is the message transport. *websocket.Conn satisfies it. Frames are
// read whole so a malformed body can be told apart from a broken connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Params configures a Session.
type Params struct {
	ProjectID string
	UserID    string
	// Language is the initial UI language; unsupported values use the default
	Language     string
	Conn         Conn
	Content      services.ContentService
	Hub          realtime.Hub
	Translations *i18n.Store
	Debounce     time.Duration
	// OnLanguageChange, if set, is called after the client switches language
	OnLanguageChange func(lang string)
	Logger           *slog.Logger
}

// Session is one open workspace. It is scoped to a single project and
// connection and is not reused.
type Session struct {
	id        string
	projectID string
	userID    string
	conn      Conn
	content   services.ContentService
	hub       realtime.Hub
	language  *i18n.Active
	debounce  time.Duration
	onLang    func(string)
	logger    *slog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	surface     *editor.Surface
	coordinator *autosave.Coordinator
	project     *models.Project
	readOnly    bool
	version     int
}

// NewSession creates a session; Run starts it.
func NewSession(p Params) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		projectID: p.ProjectID,
		userID:    p.UserID,
		conn:      p.Conn,
		content:   p.Content,
		hub:       p.Hub,
		language:  p.Translations.NewActive(p.Language),
		debounce:  p.Debounce,
		onLang:    p.OnLanguageChange,
		logger: p.Logger.With(
			"session_id", id,
			"project_id", p.ProjectID,
			"user_id", p.UserID,
		),
	}
}

// ID returns the session id used to tag realtime events
func (s *Session) ID() string {
	return s.id
}

// Run loads the project, sends "ready" and processes client messages until
// the client closes, the connection fails or ctx is done. Teardown always
// cancels a pending autosave and disposes the surface.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	if err := s.open(ctx); err != nil {
		s.sendError(err)
		return err
	}
	defer s.teardown()

	sub, err := s.hub.Subscribe(ctx, s.projectID)
	if err != nil {
		s.sendError(err)
		return fmt.Errorf("subscribe to project events: %w", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.forwardRemote(sub)
	}()
	defer wg.Wait()
	defer sub.Close()

	s.sendReady()

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("workspace connection ended", "error", err)
			}
			return nil
		}

		var msg InboundMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			s.send(OutboundMessage{Type: MsgError, Code: "invalid_message", Error: err.Error()})
			continue
		}

		if err := msg.Validate(); err != nil {
			s.send(OutboundMessage{Type: MsgError, Code: "invalid_message", Error: err.Error()})
			continue
		}

		if msg.Type == MsgClose {
			return nil
		}
		s.handle(ctx, msg)
	}
}

// open loads the project and its content and builds the surface and
// coordinator.
func (s *Session) open(ctx context.Context) error {
	project, err := s.content.GetProject(ctx, s.projectID, s.userID)
	if err != nil {
		return err
	}
	stored, err := s.content.GetContent(ctx, s.projectID, s.userID)
	if err != nil {
		return err
	}

	workspaceXML, err := editor.LoadWorkspace(stored.Content)
	if err != nil {
		// The screen opens on an empty workspace instead of failing
		s.logger.Warn("stored content unreadable, opening empty workspace",
			"version", stored.Version,
			"error", err,
		)
	}

	surface := editor.NewSurface(editor.NewCatalog(s.language.Get()), workspaceXML)
	readOnly := !project.IsOwnedBy(s.userID)

	var coordinator *autosave.Coordinator
	if !readOnly {
		coordinator, err = autosave.New(ctx, autosave.Params{
			ProjectID:  s.projectID,
			Serializer: s,
			Gateway:    &contentGateway{svc: s.content, userID: s.userID, sessionID: s.id},
			Notifier:   s,
			Debounce:   s.debounce,
			Logger:     s.logger,
		})
		if err != nil {
			surface.Dispose()
			return err
		}
		surface.AddChangeListener(coordinator.HandleEvent)
	}

	s.mu.Lock()
	s.project = project
	s.surface = surface
	s.coordinator = coordinator
	s.readOnly = readOnly
	s.version = stored.Version
	s.mu.Unlock()

	s.logger.Info("workspace opened", "version", stored.Version, "read_only", readOnly)
	return nil
}

func (s *Session) teardown() {
	s.mu.Lock()
	coordinator, surface := s.coordinator, s.surface
	s.mu.Unlock()

	if coordinator != nil {
		coordinator.Close()
	}
	surface.Dispose()
	s.logger.Info("workspace closed")
}

func (s *Session) handle(ctx context.Context, msg InboundMessage) {
	switch msg.Type {
	case MsgEvent:
		s.currentSurface().Dispatch(*msg.Event)
	case MsgSave:
		s.handleSave(ctx, msg)
	case MsgRun:
		s.handleRun(msg)
	case MsgSetLanguage:
		s.handleSetLanguage(msg.Language)
	}
}

func (s *Session) handleSave(ctx context.Context, msg InboundMessage) {
	s.mu.Lock()
	readOnly, coordinator := s.readOnly, s.coordinator
	s.mu.Unlock()

	if readOnly {
		s.notify("toasts.readOnly", VariantDefault, "")
		return
	}
	if msg.Content != nil {
		if err := s.currentSurface().Replace(*msg.Content); err != nil {
			s.sendError(err)
			return
		}
	}
	// Outcome is reported through Saved/SaveFailed
	_ = coordinator.SaveNow(ctx)
}

func (s *Session) handleRun(msg InboundMessage) {
	surface := s.currentSurface()
	if msg.Content != nil {
		if err := surface.Replace(*msg.Content); err != nil {
			s.sendError(err)
			return
		}
	}

	workspaceXML, err := surface.Serialize()
	if err != nil {
		s.sendError(err)
		return
	}
	scene, err := editor.CompileScene(workspaceXML, surface.Catalog())
	if err != nil {
		s.send(OutboundMessage{Type: MsgError, Code: "invalid_workspace", Error: err.Error()})
		return
	}

	s.send(OutboundMessage{Type: MsgScene, Scene: scene})
	if scene.ObjectCount() == 0 {
		s.notify("toasts.sceneEmpty", VariantDefault, "")
	}
}

// handleSetLanguage rebuilds the surface with the new language's block
// definitions. The coordinator belongs to the project, so it and any
// pending autosave carry over.
func (s *Session) handleSetLanguage(lang string) {
	table, err := s.language.Set(lang)
	if err != nil {
		s.send(OutboundMessage{Type: MsgError, Code: "unsupported_language", Error: err.Error()})
		return
	}

	s.mu.Lock()
	next, err := s.surface.Rebuild(editor.NewCatalog(table))
	if err == nil {
		s.surface = next
	}
	s.mu.Unlock()
	if err != nil {
		s.sendError(err)
		return
	}

	s.logger.Debug("language changed", "language", table.Language)
	if s.onLang != nil {
		s.onLang(table.Language)
	}
	s.send(OutboundMessage{
		Type:     MsgLanguage,
		Language: table.Language,
		Blocks:   next.Catalog(),
		Strings:  table.Tree(),
	})
}

func (s *Session) forwardRemote(sub *realtime.Subscription) {
	for ev := range sub.C {
		if ev.Type != realtime.EventContentSaved || ev.SessionID == s.id {
			continue
		}
		s.send(OutboundMessage{Type: MsgRemoteSaved, Version: ev.Version, Trigger: ev.Trigger})
		s.notify("toasts.remoteSaved", VariantDefault, "")
	}
}

func (s *Session) currentSurface() *editor.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Serialize implements autosave.Serializer against whichever surface is
// current, so a language switch does not strand the coordinator. s.mu is
// held across the call so Rebuild cannot dispose the surface mid-read.
func (s *Session) Serialize() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Serialize()
}

// Saved implements autosave.Notifier
func (s *Session) Saved(trigger models.SaveTrigger, content *models.ProjectContent) {
	s.mu.Lock()
	s.version = content.Version
	s.mu.Unlock()

	s.send(OutboundMessage{Type: MsgSaved, Version: content.Version, Trigger: trigger})
	if trigger == models.SaveTriggerManual {
		s.notify("toasts.saved", VariantDefault, "")
	}
}

// SaveFailed implements autosave.Notifier
func (s *Session) SaveFailed(trigger models.SaveTrigger, err error) {
	s.notify("toasts.error", VariantDestructive, err.Error())
}

func (s *Session) sendReady() {
	s.mu.Lock()
	project, surface, readOnly, version := s.project, s.surface, s.readOnly, s.version
	s.mu.Unlock()

	workspaceXML, _ := surface.Serialize()
	table := s.language.Get()
	s.send(OutboundMessage{
		Type:      MsgReady,
		SessionID: s.id,
		Project:   project,
		ReadOnly:  readOnly,
		Content:   workspaceXML,
		Version:   version,
		Language:  table.Language,
		Blocks:    surface.Catalog(),
		Strings:   table.Tree(),
	})
	if readOnly {
		s.notify("toasts.readOnly", VariantDefault, "")
	}
}

// notify sends the localized toast under key (key.title, key.description)
func (s *Session) notify(key, variant, detail string) {
	table := s.language.Get()
	s.send(OutboundMessage{
		Type: MsgNotification,
		Notification: &Notification{
			Title:       table.T(key + ".title"),
			Description: table.T(key + ".description"),
			Variant:     variant,
			Detail:      detail,
		},
	})
}

func (s *Session) sendError(err error) {
	s.send(OutboundMessage{Type: MsgError, Code: errorCode(err), Error: err.Error()})
}

func (s *Session) send(msg OutboundMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("workspace write failed", "type", msg.Type, "error", err)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, editor.ErrDisposed):
		return "closed"
	default:
		return "internal_error"
	}
}

// contentGateway adapts the content service to the coordinator, wrapping
// the serialized XML in the stored envelope.
type contentGateway struct {
	svc       services.ContentService
	userID    string
	sessionID string
}

func (g *contentGateway) SaveContent(ctx context.Context, projectID, workspaceXML string, trigger models.SaveTrigger) (*models.ProjectContent, error) {
	raw, err := editor.EncodeContent(workspaceXML)
	if err != nil {
		return nil, err
	}
	return g.svc.SaveContent(ctx, &services.SaveContentRequest{
		ProjectID: projectID,
		UserID:    g.userID,
		Content:   raw,
		Trigger:   trigger,
		SessionID: g.sessionID,
	})
}
