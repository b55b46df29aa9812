package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/editor"
	"platformo/internal/i18n"
	"platformo/internal/realtime"
)

const (
	projectID = "7f9c2ba4-e88f-41a3-8b4e-0f6a3e0c2f10"
	debounce  = 2 * time.Second
)

const sceneXML = `<xml xmlns="https://developers.google.com/blockly/xml"><block type="ar_run" id="r"><statement name="BLOCKS"><block type="ar_3d_model" id="m"><field name="MODEL">SPHERE</field></block></statement></block></xml>`

// fakeConn feeds client messages from in and records server messages
type fakeConn struct {
	in  chan []byte
	mu  sync.Mutex
	out []OutboundMessage
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	b, ok := <-c.in
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, b, nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var msg OutboundMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, msg)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) sendJSON(t *testing.T, msg InboundMessage) {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	c.in <- b
}

// take returns and clears the messages written so far
func (c *fakeConn) take() []OutboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.out
	c.out = nil
	return out
}

func ofType(msgs []OutboundMessage, typ MessageType) []OutboundMessage {
	var out []OutboundMessage
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// fakeContent is an in-memory ContentService
type fakeContent struct {
	mu      sync.Mutex
	project models.Project
	stored  *models.ProjectContent
	saves   []*services.SaveContentRequest
	saveErr error
	hub     realtime.Publisher
}

func (f *fakeContent) GetProject(_ context.Context, id, userID string) (*models.Project, error) {
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
	if f.stored == nil {
		return &models.ProjectContent{ProjectID: id}, nil
	}
	c := *f.stored
	return &c, nil
}

func (f *fakeContent) SaveContent(ctx context.Context, req *services.SaveContentRequest) (*models.ProjectContent, error) {
	f.mu.Lock()
	f.saves = append(f.saves, req)
	if f.saveErr != nil {
		err := f.saveErr
		f.mu.Unlock()
		return nil, err
	}
	version := 1
	if f.stored != nil {
		version = f.stored.Version + 1
	}
	f.stored = &models.ProjectContent{ProjectID: req.ProjectID, Content: req.Content, Version: version}
	saved := *f.stored
	f.mu.Unlock()

	if f.hub != nil {
		ev := realtime.NewEvent(realtime.EventContentSaved, req.ProjectID)
		ev.Version = version
		ev.SessionID = req.SessionID
		_ = f.hub.Publish(ctx, ev)
	}
	return &saved, nil
}

func (f *fakeContent) savedXML(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, req := range f.saves {
		xml, err := editor.DecodeContent(req.Content)
		require.NoError(t, err)
		out = append(out, xml)
	}
	return out
}

type fixture struct {
	conn    *fakeConn
	content *fakeContent
	hub     *realtime.MemoryHub
	session *Session
	done    chan error

	langMu  sync.Mutex
	changed []string
}

func (f *fixture) changedLanguages() []string {
	f.langMu.Lock()
	defer f.langMu.Unlock()
	return append([]string(nil), f.changed...)
}

func start(t *testing.T, userID, lang string, stored json.RawMessage) *fixture {
	t.Helper()
	store, err := i18n.NewStore("en")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewMemoryHub(logger)
	content := &fakeContent{
		project: models.Project{ID: projectID, OwnerID: "alice", Title: "Demo", IsPublic: true},
		hub:     hub,
	}
	if stored != nil {
		content.stored = &models.ProjectContent{ProjectID: projectID, Content: stored, Version: 4}
	}

	f := &fixture{conn: newFakeConn(), content: content, hub: hub, done: make(chan error, 1)}
	f.session = NewSession(Params{
		ProjectID:    projectID,
		UserID:       userID,
		Language:     lang,
		Conn:         f.conn,
		Content:      content,
		Hub:          hub,
		Translations: store,
		Debounce:     debounce,
		OnLanguageChange: func(lang string) {
			f.langMu.Lock()
			f.changed = append(f.changed, lang)
			f.langMu.Unlock()
		},
		Logger: logger,
	})
	go func() { f.done <- f.session.Run(context.Background()) }()
	synctest.Wait()
	return f
}

func (f *fixture) stop(t *testing.T) {
	t.Helper()
	close(f.conn.in)
	require.NoError(t, <-f.done)
	f.hub.Close()
}

func event(kind editor.Kind, content string) InboundMessage {
	ev := editor.ChangeEvent{Kind: kind}
	if content != "" {
		ev.Content = &content
	}
	return InboundMessage{Type: MsgEvent, Event: &ev}
}

func envelope(t *testing.T, xml string) json.RawMessage {
	t.Helper()
	raw, err := editor.EncodeContent(xml)
	require.NoError(t, err)
	return raw
}

func TestSession_Ready(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "ru", envelope(t, sceneXML))
		defer f.stop(t)

		ready := ofType(f.conn.take(), MsgReady)
		require.Len(t, ready, 1)
		assert.Equal(t, f.session.ID(), ready[0].SessionID)
		assert.Equal(t, sceneXML, ready[0].Content)
		assert.Equal(t, 4, ready[0].Version)
		assert.False(t, ready[0].ReadOnly)
		assert.Equal(t, "ru", ready[0].Language)
		require.NotNil(t, ready[0].Blocks)
		assert.Equal(t, "ru", ready[0].Blocks.Language)
		assert.Equal(t, "Demo", ready[0].Project.Title)
		assert.Contains(t, ready[0].Strings, "toasts")
	})
}

func TestSession_MalformedContentOpensEmpty(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", json.RawMessage(`{"nodes": [], "edges": []}`))
		defer f.stop(t)

		ready := ofType(f.conn.take(), MsgReady)
		require.Len(t, ready, 1)
		assert.Equal(t, editor.EmptyWorkspaceXML, ready[0].Content)
	})
}

func TestSession_Autosave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		f.conn.sendJSON(t, event(editor.KindSelected, ""))
		f.conn.sendJSON(t, event(editor.KindDragStart, ""))
		f.conn.sendJSON(t, event(editor.KindMove, sceneXML))
		f.conn.sendJSON(t, event(editor.KindDragEnd, ""))
		time.Sleep(10 * debounce)
		synctest.Wait()
		assert.Empty(t, f.content.savedXML(t), "drag-only edits do not save")

		f.conn.sendJSON(t, event(editor.KindChange, sceneXML))
		time.Sleep(debounce - time.Millisecond)
		synctest.Wait()
		assert.Empty(t, f.content.savedXML(t))

		time.Sleep(time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{sceneXML}, f.content.savedXML(t))

		msgs := f.conn.take()
		saved := ofType(msgs, MsgSaved)
		require.Len(t, saved, 1)
		assert.Equal(t, 1, saved[0].Version)
		assert.Equal(t, models.SaveTriggerAutosave, saved[0].Trigger)
		assert.Empty(t, ofType(msgs, MsgNotification), "autosave is silent")
		assert.Empty(t, ofType(msgs, MsgRemoteSaved), "own saves are not echoed")

		f.content.mu.Lock()
		assert.Equal(t, f.session.ID(), f.content.saves[0].SessionID)
		f.content.mu.Unlock()
	})
}

func TestSession_ManualSave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		content := sceneXML
		f.conn.sendJSON(t, InboundMessage{Type: MsgSave, Content: &content})
		synctest.Wait()

		assert.Equal(t, []string{sceneXML}, f.content.savedXML(t))
		msgs := f.conn.take()
		require.Len(t, ofType(msgs, MsgSaved), 1)
		notes := ofType(msgs, MsgNotification)
		require.Len(t, notes, 1)
		assert.Equal(t, "Changes saved", notes[0].Notification.Title)
		assert.Equal(t, VariantDefault, notes[0].Notification.Variant)
	})
}

func TestSession_SaveFailureNotifies(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "ru", nil)
		defer f.stop(t)
		f.conn.take()
		f.content.saveErr = errors.New("backend unavailable")

		f.conn.sendJSON(t, event(editor.KindCreate, sceneXML))
		time.Sleep(debounce)
		synctest.Wait()

		notes := ofType(f.conn.take(), MsgNotification)
		require.Len(t, notes, 1)
		assert.Equal(t, "Ошибка", notes[0].Notification.Title)
		assert.Equal(t, VariantDestructive, notes[0].Notification.Variant)
		assert.Equal(t, "backend unavailable", notes[0].Notification.Detail)

		// No retry
		time.Sleep(10 * debounce)
		synctest.Wait()
		assert.Len(t, f.content.savedXML(t), 1)
	})
}

func TestSession_ReadOnlyForNonOwner(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "bob", "en", envelope(t, sceneXML))
		defer f.stop(t)

		msgs := f.conn.take()
		ready := ofType(msgs, MsgReady)
		require.Len(t, ready, 1)
		assert.True(t, ready[0].ReadOnly)
		require.Len(t, ofType(msgs, MsgNotification), 1)

		f.conn.sendJSON(t, event(editor.KindCreate, sceneXML))
		f.conn.sendJSON(t, InboundMessage{Type: MsgSave})
		time.Sleep(10 * debounce)
		synctest.Wait()

		assert.Empty(t, f.content.savedXML(t))
		notes := ofType(f.conn.take(), MsgNotification)
		require.Len(t, notes, 1)
		assert.Equal(t, "Read-only project", notes[0].Notification.Title)
	})
}

func TestSession_Run(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		f.conn.sendJSON(t, InboundMessage{Type: MsgRun})
		synctest.Wait()
		msgs := f.conn.take()
		scenes := ofType(msgs, MsgScene)
		require.Len(t, scenes, 1)
		assert.Equal(t, 0, scenes[0].Scene.ObjectCount())
		require.Len(t, ofType(msgs, MsgNotification), 1)

		content := sceneXML
		f.conn.sendJSON(t, InboundMessage{Type: MsgRun, Content: &content})
		synctest.Wait()
		scenes = ofType(f.conn.take(), MsgScene)
		require.Len(t, scenes, 1)
		require.Len(t, scenes[0].Scene.Runs, 1)
		assert.Equal(t, []editor.SceneObject{{Model: editor.ModelSphere, BlockID: "m"}}, scenes[0].Scene.Runs[0].Objects)
	})
}

func TestSession_SetLanguageKeepsPendingAutosave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		f.conn.sendJSON(t, event(editor.KindCreate, sceneXML))
		time.Sleep(time.Second)
		f.conn.sendJSON(t, InboundMessage{Type: MsgSetLanguage, Language: "ru"})
		synctest.Wait()

		langs := ofType(f.conn.take(), MsgLanguage)
		require.Len(t, langs, 1)
		assert.Equal(t, "ru", langs[0].Language)
		assert.Equal(t, "Запустить AR приложение", langs[0].Blocks.Block(editor.BlockTypeRun).Label)

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{sceneXML}, f.content.savedXML(t))

		f.conn.sendJSON(t, InboundMessage{Type: MsgSetLanguage, Language: "de"})
		synctest.Wait()
		errs := ofType(f.conn.take(), MsgError)
		require.Len(t, errs, 1)
		assert.Equal(t, "unsupported_language", errs[0].Code)
		assert.Equal(t, []string{"ru"}, f.changedLanguages())
	})
}

func TestSession_RemoteSaveNotification(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		ev := realtime.NewEvent(realtime.EventContentSaved, projectID)
		ev.Version = 9
		ev.SessionID = "another-session"
		require.NoError(t, f.hub.Publish(context.Background(), ev))
		synctest.Wait()

		msgs := f.conn.take()
		remote := ofType(msgs, MsgRemoteSaved)
		require.Len(t, remote, 1)
		assert.Equal(t, 9, remote[0].Version)
		require.Len(t, ofType(msgs, MsgNotification), 1)
	})
}

func TestSession_InvalidMessages(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)
		defer f.stop(t)
		f.conn.take()

		f.conn.in <- []byte(`{"type": "dance"}`)
		f.conn.in <- []byte(`{"type": "event"}`)
		f.conn.in <- []byte(`{"type": "event", "event": {"block_id": "x"}}`)
		f.conn.in <- []byte(`{"type": "set_language"}`)
		f.conn.in <- []byte(`{"type": `)
		f.conn.in <- []byte(`{"type": 7}`)
		synctest.Wait()

		errs := ofType(f.conn.take(), MsgError)
		require.Len(t, errs, 6)
		for _, e := range errs {
			assert.Equal(t, "invalid_message", e.Code)
		}
	})
}

func TestSession_CloseCancelsPendingAutosave(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", nil)

		f.conn.sendJSON(t, event(editor.KindCreate, sceneXML))
		time.Sleep(time.Second)
		f.conn.sendJSON(t, InboundMessage{Type: MsgClose})
		require.NoError(t, <-f.done)

		time.Sleep(10 * debounce)
		synctest.Wait()
		assert.Empty(t, f.content.savedXML(t))
		f.hub.Close()
	})
}

func TestSession_OpenFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		store, err := i18n.NewStore("en")
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		hub := realtime.NewMemoryHub(logger)
		defer hub.Close()

		conn := newFakeConn()
		s := NewSession(Params{
			ProjectID:    projectID,
			UserID:       "carol",
			Conn:         conn,
			Content:      &fakeContent{project: models.Project{ID: projectID, OwnerID: "alice"}},
			Hub:          hub,
			Translations: store,
			Logger:       logger,
		})

		err = s.Run(context.Background())
		assert.ErrorIs(t, err, domain.ErrForbidden)

		errs := ofType(conn.take(), MsgError)
		require.Len(t, errs, 1)
		assert.Equal(t, "forbidden", errs[0].Code)
	})
}

func TestSession_SerializeDuringLanguageSwitch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := start(t, "alice", "en", envelope(t, sceneXML))
		defer f.stop(t)
		f.conn.take()

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if _, err := f.session.Serialize(); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
		for i := range 20 {
			lang := "ru"
			if i%2 == 1 {
				lang = "en"
			}
			f.conn.sendJSON(t, InboundMessage{Type: MsgSetLanguage, Language: lang})
		}
		wg.Wait()
		synctest.Wait()

		assert.Empty(t, errs)
		xml, err := f.session.Serialize()
		require.NoError(t, err)
		assert.Equal(t, sceneXML, xml)
		assert.Len(t, ofType(f.conn.take(), MsgLanguage), 20)
	})
}
