package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Manager owns the single active session. All reads and writes of the
// current user/token state go through it.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
}

// NewManager constructs a Manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Login records the user/token pair returned by the auth endpoint and
// persists it. The previous session, if any, is replaced.
func (m *Manager) Login(ctx context.Context, user User, tokens Tokens) (*Session, error) {
	if tokens.Access.Token == "" {
		return nil, errors.New("session: login response carried no access token")
	}
	sess := &Session{ID: uuid.NewString(), User: user, Tokens: tokens}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return sess, nil
}

// Resume loads a previously persisted session.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	sess, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return sess, nil
}

// Current returns the active session, nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Logout clears the active session and removes it from the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	m.current = nil
	m.mu.Unlock()
	if sess == nil {
		return nil
	}
	return m.store.Delete(ctx, sess.ID)
}
