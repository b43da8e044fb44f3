package menu

import (
	"context"
	"errors"
	"sync"
)

type sessionSlot struct {
	lock    chan struct{}
	session *Session
}

// SessionStore hands out sessions one holder at a time. Holders of different
// session ids never wait on each other.
type SessionStore struct {
	mu       sync.Mutex
	slots    map[string]*sessionSlot
	newState func() any
}

// NewSessionStore creates a store that seeds new sessions with newState.
// A nil newState leaves Session.State nil.
func NewSessionStore(newState func() any) *SessionStore {
	return &SessionStore{
		slots:    make(map[string]*sessionSlot),
		newState: newState,
	}
}

// Acquire blocks until the session for id is free or ctx is done. The
// returned release func must be called exactly once.
func (s *SessionStore) Acquire(ctx context.Context, id string) (*Session, func(), error) {
	if s == nil {
		return nil, nil, errors.New("session store is not initialized")
	}
	if ctx == nil {
		return nil, nil, errors.New("context is required")
	}

	slot := s.slot(id)

	select {
	case slot.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-slot.lock })
	}

	return slot.session, release, nil
}

// Len returns the number of sessions seen so far.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.slots)
}

func (s *SessionStore) slot(id string) *sessionSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		session := &Session{ID: id}
		if s.newState != nil {
			session.State = s.newState()
		}
		slot = &sessionSlot{
			lock:    make(chan struct{}, 1),
			session: session,
		}
		s.slots[id] = slot
	}

	return slot
}
