// Package realtime fans project change notifications out to every open
// workspace and event stream watching the same project.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"platformo/internal/domain/models"
)

// EventType names a realtime notification.
type EventType string

const (
	// EventContentSaved is published after every successful content write
	EventContentSaved EventType = "content_saved"
	// EventProjectUpdated is published after project metadata changes
	EventProjectUpdated EventType = "project_updated"
)

// subscriptionBuffer is how many undelivered events a slow subscriber may
// hold before new ones are dropped for it.
const subscriptionBuffer = 16

// Event is one notification about a project.
type Event struct {
	ID        string             `json:"id"`
	Type      EventType          `json:"type"`
	ProjectID string             `json:"project_id"`
	Version   int                `json:"version,omitempty"`
	Trigger   models.SaveTrigger `json:"trigger,omitempty"`
	// SessionID is the workspace session that caused the event, if any
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// NewEvent stamps a new event with a ULID and the current time. ULIDs sort
// by creation time, so they double as SSE event ids.
func NewEvent(typ EventType, projectID string) Event {
	return Event{
		ID:        ulid.Make().String(),
		Type:      typ,
		ProjectID: projectID,
		At:        time.Now().UTC(),
	}
}

// Publisher delivers events to subscribers of the event's project.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Hub is a Publisher that also hands out subscriptions.
type Hub interface {
	Publisher

	// Subscribe starts receiving events for projectID. The subscription ends
	// when ctx is done or Close is called.
	Subscribe(ctx context.Context, projectID string) (*Subscription, error)

	Close() error
}

// Subscription receives events for one project on C. C is closed when the
// subscription ends.
type Subscription struct {
	C <-chan Event

	once   sync.Once
	cancel func()
}

func newSubscription(ch <-chan Event, cancel func()) *Subscription {
	return &Subscription{C: ch, cancel: cancel}
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
