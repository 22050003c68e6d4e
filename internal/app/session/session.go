// Package session maps opaque session ids to user ids with a fixed lifetime.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidUser is returned when a session is requested for user id 0.
var ErrInvalidUser = errors.New("session requires a user id")

type Store interface {
	// Create starts a session for userID and returns its id.
	Create(ctx context.Context, userID int64) (string, error)
	// Get returns the user of a live session. ok is false for unknown or
	// expired ids.
	Get(ctx context.Context, id string) (userID int64, ok bool, err error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

type entry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Expired entries are dropped on read
// and by PurgeExpired.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID int64) (string, error) {
	if userID == 0 {
		return "", ErrInvalidUser
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = entry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return 0, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return 0, false, nil
	}
	return e.userID, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// PurgeExpired removes every expired session and reports how many went.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
