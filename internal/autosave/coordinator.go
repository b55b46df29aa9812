// Package autosave decides when an open workspace is written back to storage.
//
// A Coordinator consumes the editor's change events one at a time. Drag
// markers toggle a drag flag, structural changes outside a drag (re)arm a
// single debounce timer, and everything else is ignored. When the timer
// fires and no drag is in progress, the current snapshot is serialized and
// handed to the gateway. Manual saves bypass the timer entirely.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"platformo/internal/config"
	"platformo/internal/domain/models"
	"platformo/internal/editor"
)

// ErrClosed is returned by SaveNow after Close.
var ErrClosed = errors.New("autosave coordinator closed")

// Serializer produces the current workspace snapshot.
type Serializer interface {
	Serialize() (string, error)
}

// Gateway persists a serialized workspace for a project.
type Gateway interface {
	SaveContent(ctx context.Context, projectID, workspaceXML string, trigger models.SaveTrigger) (*models.ProjectContent, error)
}

// Notifier is told the outcome of every write. Calls happen outside the
// coordinator's lock, on the goroutine that performed the write.
type Notifier interface {
	Saved(trigger models.SaveTrigger, content *models.ProjectContent)
	SaveFailed(trigger models.SaveTrigger, err error)
}

// Params configures a Coordinator.
type Params struct {
	ProjectID  string
	Serializer Serializer
	Gateway    Gateway
	Notifier   Notifier
	// Debounce is the quiet period after the last structural change.
	// Zero means config.DefaultAutosaveDebounceMS.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Coordinator is scoped to one project for the lifetime of one editing
// session and is never reused.
type Coordinator struct {
	ctx        context.Context
	projectID  string
	serializer Serializer
	gateway    Gateway
	notifier   Notifier
	debounce   time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	dragging bool
	timer    *time.Timer
	// gen identifies the armed timer; a callback whose generation is stale
	// lost a race with Close or a reschedule and must not write.
	gen    uint64
	closed bool
}

// New creates a coordinator. Writes run under ctx with cancellation
// stripped, so a write that has started completes even if the session ends.
func New(ctx context.Context, p Params) (*Coordinator, error) {
	if p.ProjectID == "" {
		return nil, fmt.Errorf("autosave: project id is required")
	}
	if p.Serializer == nil || p.Gateway == nil {
		return nil, fmt.Errorf("autosave: serializer and gateway are required")
	}
	if p.Debounce <= 0 {
		p.Debounce = config.DefaultAutosaveDebounceMS * time.Millisecond
	}
	if p.Notifier == nil {
		p.Notifier = nopNotifier{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	return &Coordinator{
		ctx:        context.WithoutCancel(ctx),
		projectID:  p.ProjectID,
		serializer: p.Serializer,
		gateway:    p.Gateway,
		notifier:   p.Notifier,
		debounce:   p.Debounce,
		logger:     p.Logger.With("project_id", p.ProjectID),
	}, nil
}

// HandleEvent applies the classification policy to one editor event. It is
// registered as the surface's change listener.
func (c *Coordinator) HandleEvent(ev editor.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	switch ev.Class() {
	case editor.ClassDragStart:
		c.dragging = true
	case editor.ClassDragEnd:
		// Settling a drag does not save by itself
		c.dragging = false
	case editor.ClassStructural:
		if c.dragging {
			return
		}
		c.scheduleLocked()
	}
}

// scheduleLocked replaces any pending timer with a fresh one.
func (c *Coordinator) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	dragging := c.dragging
	c.mu.Unlock()

	if dragging {
		// Skipped, not rescheduled: the next structural change after the
		// drag arms a new timer.
		c.logger.Debug("autosave skipped, drag in progress")
		return
	}

	workspaceXML, err := c.serializer.Serialize()
	if err != nil {
		c.serializeFailed(models.SaveTriggerAutosave, err)
		return
	}

	// Re-checked after serializing. A drag that starts once the write has
	// been issued does not stop it.
	c.mu.Lock()
	dragging = c.dragging
	c.mu.Unlock()
	if dragging {
		c.logger.Debug("autosave skipped, drag started while serializing")
		return
	}

	_ = c.write(c.ctx, workspaceXML, models.SaveTriggerAutosave)
}

// SaveNow serializes and writes immediately, whatever the drag or timer
// state. A pending autosave is left armed.
func (c *Coordinator) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return c.save(context.WithoutCancel(ctx), models.SaveTriggerManual)
}

func (c *Coordinator) save(ctx context.Context, trigger models.SaveTrigger) error {
	workspaceXML, err := c.serializer.Serialize()
	if err != nil {
		return c.serializeFailed(trigger, err)
	}
	return c.write(ctx, workspaceXML, trigger)
}

func (c *Coordinator) serializeFailed(trigger models.SaveTrigger, err error) error {
	c.logger.Warn("serialize workspace failed", "trigger", trigger, "error", err)
	c.notifier.SaveFailed(trigger, err)
	return fmt.Errorf("serialize workspace: %w", err)
}

func (c *Coordinator) write(ctx context.Context, workspaceXML string, trigger models.SaveTrigger) error {
	content, err := c.gateway.SaveContent(ctx, c.projectID, workspaceXML, trigger)
	if err != nil {
		// No retry and no re-arm; the next structural change tries again
		c.logger.Error("save content failed", "trigger", trigger, "error", err)
		c.notifier.SaveFailed(trigger, err)
		return err
	}

	c.logger.Debug("content saved", "trigger", trigger, "version", content.Version)
	c.notifier.Saved(trigger, content)
	return nil
}

// Close cancels any pending autosave. Writes already in flight complete.
// Safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

// Dragging reports whether a drag is in progress
func (c *Coordinator) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Pending reports whether an autosave is armed
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

type nopNotifier struct{}

func (nopNotifier) Saved(models.SaveTrigger, *models.ProjectContent) {}
func (nopNotifier) SaveFailed(models.SaveTrigger, error) {}
