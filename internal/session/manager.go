package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	SignedIn         Kind = "signed_in"
	SignedOut        Kind = "signed_out"
	UserUpdated      Kind = "user_updated"
	PasswordRecovery Kind = "password_recovery"
)

type Event struct {
	Kind    Kind
	Session Session
	// Global is set on sign-out from every device.
	Global bool
	// Removed counts the stored sessions a sign-out deleted. Bearer-only
	// callers have none.
	Removed int
}

type Listener func(Event)

// Manager owns the session store and notifies listeners of every change.
// Listeners run synchronously in subscription order.
type Manager struct {
	store Store
	now   func() time.Time

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	closed    bool
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:     store,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn and returns the function that removes it.
// Subscribing to a closed manager is a no-op.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Close drops every listener. Later signals are not delivered.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[int]Listener)
}

// Signal delivers an event to the current listeners.
func (m *Manager) Signal(kind Kind, s *Session) {
	m.emit(Event{Kind: kind, Session: *s})
}

func (m *Manager) emit(e Event) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Start stores a new session and announces the sign-in.
func (m *Manager) Start(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now().UTC()
	}
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.Signal(SignedIn, s)
	return nil
}

// Current resolves the session behind a cookie value.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, id); err != nil {
			logrus.WithError(err).Warn("failed to drop expired session")
		}
		return nil, ErrNotFound
	}
	return s, nil
}

// End removes the session, or every session of its user when global is set.
func (m *Manager) End(ctx context.Context, s *Session, global bool) error {
	removed := 0
	switch {
	case global:
		n, err := m.store.DeleteUser(ctx, s.UserID)
		if err != nil {
			return err
		}
		removed = n
		logrus.WithFields(logrus.Fields{"user_id": s.UserID, "sessions": n}).Info("signed out everywhere")
	case s.ID != "":
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
		removed = 1
	}
	m.emit(Event{Kind: SignedOut, Session: *s, Global: global, Removed: removed})
	return nil
}
