package editor

import (
	"errors"
	"sync"
)

// ErrDisposed is returned by a surface after Dispose.
var ErrDisposed = errors.New("editor surface disposed")

// Listener receives change events in the order they occurred.
type Listener func(ChangeEvent)

// Surface is the server-side mirror of one open block editor. It keeps the
// latest serialized graph reported by the client and fans events out to
// registered listeners.
type Surface struct {
	mu        sync.Mutex
	catalog   *Catalog
	snapshot  string
	listeners []Listener
	disposed  bool
}

// NewSurface creates a surface with its block definitions and initial workspace.
func NewSurface(catalog *Catalog, initialXML string) *Surface {
	if initialXML == "" {
		initialXML = EmptyWorkspaceXML
	}
	return &Surface{
		catalog:  catalog,
		snapshot: initialXML,
	}
}

// Catalog returns the block definitions the surface was built with
func (s *Surface) Catalog() *Catalog {
	return s.catalog
}

// AddChangeListener registers fn for every subsequent event
func (s *Surface) AddChangeListener(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Dispatch records the event's snapshot, if any, then delivers the event to
// each listener. Callers deliver events one at a time. A disposed surface
// drops events.
func (s *Surface) Dispatch(ev ChangeEvent) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	if ev.Content != nil {
		s.snapshot = *ev.Content
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Serialize returns the current workspace XML
func (s *Surface) Serialize() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return "", ErrDisposed
	}
	return s.snapshot, nil
}

// Replace sets the workspace snapshot without emitting an event, e.g. when
// the client reloads content.
func (s *Surface) Replace(workspaceXML string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	s.snapshot = workspaceXML
	return nil
}

// Rebuild disposes s and returns a new surface for catalog carrying over the
// snapshot and listeners.
func (s *Surface) Rebuild(catalog *Catalog) (*Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, ErrDisposed
	}

	next := &Surface{
		catalog:   catalog,
		snapshot:  s.snapshot,
		listeners: append([]Listener(nil), s.listeners...),
	}
	s.disposed = true
	s.listeners = nil
	return next, nil
}

// Dispose releases the surface. Safe to call more than once.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.listeners = nil
}

// Disposed reports whether Dispose has been called
func (s *Surface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
