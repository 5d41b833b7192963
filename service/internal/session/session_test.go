package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	_, err := store.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := Session{PlayerID: "p1", RoomID: "r1", RoomKey: "ABC123", Name: "Ana"}
	require.NoError(t, store.Save(ctx, s))
	got, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, store.Clear(ctx, "p1"))
	_, err = store.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, Session{PlayerID: "p1"}))
	now = now.Add(59 * time.Minute)
	_, err := store.Load(ctx, "p1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	s := Session{PlayerID: "p1", RoomID: "r1", RoomKey: "ABC123", Name: "Ana"}

	signed, err := tokens.Issue(s)
	require.NoError(t, err)

	got, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, s.PlayerID, got.PlayerID)
	assert.Equal(t, s.RoomID, got.RoomID)
	assert.Equal(t, s.RoomKey, got.RoomKey)
	assert.Equal(t, s.Name, got.Name)
}

func TestTokensRejectTampering(t *testing.T) {
	signed, err := NewTokens("secret", time.Hour).Issue(Session{PlayerID: "p1"})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokens("secret", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Now()
	tokens.now = func() time.Time { return issued }
	signed, err := tokens.Issue(Session{PlayerID: "p1"})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestRedisStore runs against a real server when REDIS_TEST_URL is set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	store := NewRedisStore(rdb, time.Minute)
	s := Session{PlayerID: "test-" + time.Now().Format("150405.000"), RoomID: "r1", RoomKey: "ABC123", Name: "Ana"}
	require.NoError(t, store.Save(ctx, s))
	defer store.Clear(ctx, s.PlayerID)

	got, err := store.Load(ctx, s.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, s.RoomKey, got.RoomKey)

	ttl, err := rdb.TTL(ctx, sessionKey(s.PlayerID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Clear(ctx, s.PlayerID))
	_, err = store.Load(ctx, s.PlayerID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
