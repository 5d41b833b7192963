// internal/session/store.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when no live session exists for a player.
var ErrSessionNotFound = errors.New("session not found")

// DefaultTTL bounds how long a disconnected player may come back.
const DefaultTTL = time.Hour

// Session binds a player to the room they joined so a new connection can
// resume the seat.
type Session struct {
	PlayerID  string    `json:"playerId"`
	RoomID    string    `json:"roomId"`
	RoomKey   string    `json:"roomKey"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists sessions keyed by player id. Implementations expire
// entries after their TTL.
type Store interface {
	Load(ctx context.Context, playerID string) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context, playerID string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is not configured
// and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore returns an empty store. A ttl of zero means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Load(_ context.Context, playerID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[playerID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, playerID)
		return Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.PlayerID] = memoryEntry{session: s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, playerID)
	return nil
}
