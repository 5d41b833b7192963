package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsKey(t *testing.T) {
	assert.Equal(t, "room:abc:actions", ActionsKey("abc"))
}

// TestActionLog runs against a real server when REDIS_TEST_URL is set.
func TestActionLog(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	rdb, err := Connect(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	roomID := "test-" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, ActionsKey(roomID))

	sub := rdb.Subscribe(ctx, ActionsChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	log := NewActionLog(rdb)
	for i := 1; i <= 3; i++ {
		require.NoError(t, log.PublishGameAction(ctx, GameActionRecord{
			RoomID:        roomID,
			ActionIndex:   i,
			ActionType:    "draw",
			ActionPayload: map[string]interface{}{"source": "stock"},
			Timestamp:     time.Now().UnixMilli(),
		}))
	}

	recs, err := log.Actions(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.ActionIndex)
		assert.Equal(t, "stock", rec.ActionPayload["source"])
	}

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, roomID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}
