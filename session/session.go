/*
Package session holds the authenticated user's credentials between calls.

PURPOSE:
  Every backend call needs the bearer token issued at login, and most
  decisions need the logged-in user's account (age, admin flag, phone).
  A Session bundles the two; a Store persists exactly one session across
  process restarts.

  The session is always passed explicitly. Nothing in this repository
  reads it from a global or a context value - a handler loads it from
  the Store, checks it, and hands it down.

SEE ALSO:
  - store/sqlite: the durable Store implementation
  - withdraw/coordinator.go: the main consumer
*/
package session

import (
	"context"
	"sync"

	"github.com/relayhq/points-engine/points"
)

// Session is one authenticated login: the backend's bearer token plus
// the account it belongs to.
type Session struct {
	Token string
	User  points.UserAccount
}

// Valid reports whether the session can authenticate backend calls.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// Store persists at most one session. Load returns points.ErrNoSession
// when no session has been saved or the last one was cleared.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// =============================================================================
// MEMORY STORE - process-lifetime sessions, used by tests
// =============================================================================

// MemoryStore keeps the session in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	current *Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, points.ErrNoSession
	}
	copied := *m.current
	return &copied, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.current = &copied
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
