// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON strings under "session:<playerID>"
// with a TTL, so reconnects survive a process restart of the web tier.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps an already connected client. A ttl of zero means
// DefaultTTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(playerID string) string {
	return "session:" + playerID
}

func (r *RedisStore) Load(ctx context.Context, playerID string) (Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session %s: %w", playerID, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", playerID, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(s.PlayerID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.PlayerID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, playerID string) error {
	if err := r.rdb.Del(ctx, sessionKey(playerID)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", playerID, err)
	}
	return nil
}
