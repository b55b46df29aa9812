package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("realtime hub closed")

// MemoryHub delivers events within a single process.
type MemoryHub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	closed bool
	logger *slog.Logger
}

// NewMemoryHub creates an in-process hub
func NewMemoryHub(logger *slog.Logger) *MemoryHub {
	return &MemoryHub{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *MemoryHub) Publish(ctx context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[ev.ProjectID] {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("realtime subscriber full, dropping event",
				"project_id", ev.ProjectID,
				"event_id", ev.ID,
				"type", ev.Type,
			)
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(ctx context.Context, projectID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	ch := make(chan Event, subscriptionBuffer)
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan Event]struct{})
	}
	h.subs[projectID][ch] = struct{}{}

	sub := newSubscription(ch, func() { h.remove(projectID, ch) })
	context.AfterFunc(ctx, sub.Close)
	return sub, nil
}

func (h *MemoryHub) remove(projectID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[projectID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		// Already closed by Close
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(h.subs, projectID)
	}
	close(ch)
}

// Close ends every subscription.
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for projectID, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, projectID)
	}
	return nil
}
