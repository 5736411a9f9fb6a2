package utils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mesa-digital/restaurant-app/models"
)

type sessionEntry struct {
	ctx     models.SessionContext
	expires time.Time
}

// SessionStore keeps server-side sessions keyed by an opaque id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL is the lifetime given to new sessions.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create stores sc under a fresh id.
func (s *SessionStore) Create(sc models.SessionContext) (string, time.Time) {
	id := uuid.NewString()
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sessionEntry{ctx: sc, expires: expires}
	return id, expires
}

// Get returns the session for id unless it is unknown or expired.
func (s *SessionStore) Get(id string) (models.SessionContext, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return models.SessionContext{}, false
	}
	if !s.now().Before(entry.expires) {
		s.Delete(id)
		return models.SessionContext{}, false
	}
	return entry.ctx, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// DeleteUser ends every session of userID and returns how many were removed.
func (s *SessionStore) DeleteUser(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if entry.ctx.UserID == userID {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Cleanup drops expired sessions and returns how many were removed.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if !now.Before(entry.expires) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					InfoLogger.Debugf("Removed %d expired sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
