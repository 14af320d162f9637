package hostsrv

import (
	"fmt"
	"sync"
	"time"

	"github.com/dialogrun/diavolo/internal/dialogue/runner"
)

// Session wraps one instantiated Runner behind a mutex: the runner is not
// safe for concurrent use, and a host may serve several HTTP requests for
// the same dialogue concurrently.
type Session struct {
	ID        string
	StartedAt time.Time

	mu  sync.Mutex
	run *runner.Runner
}

// Dispatch forwards one Action to the underlying Runner, serialized
// against any concurrent request for the same session.
func (s *Session) Dispatch(a runner.Action) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.Dispatch(a)
}

// View recomputes and returns the session's current View.
func (s *Session) View() runner.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.UpdateView()
	return *s.run.View()
}

// Terminated reports whether the underlying dialogue has finished.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.IsTerminated()
}

// Registry tracks every dialogue session managed by one Server instance.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register adds a session under its own ID. Returns an error if that ID
// already exists (ULID collisions are not expected in practice, but a
// caller-supplied ID is never trusted blindly).
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = s
	return nil
}

// Get returns a session by ID, or nil and false if not found.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns every tracked session ID.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Remove drops a session from the registry once its host has no further
// use for it (e.g. after the dialogue terminates and the result has been
// read).
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
