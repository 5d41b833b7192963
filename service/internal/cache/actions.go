// internal/cache/actions.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActionsChannel is the pub/sub channel every room action is published on.
const ActionsChannel = "room_actions"

// actionLogTTL keeps a room's action list around for a while after the
// last write so a finished game can still be inspected.
const actionLogTTL = 24 * time.Hour

// GameActionRecord is one entry in a room's action log.
type GameActionRecord struct {
	RoomID        string                 `json:"roomId"`
	ActionIndex   int                    `json:"actionIndex"`
	ActorID       string                 `json:"actorId,omitempty"`
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ActionLog appends records to a per-room Redis list and publishes them.
type ActionLog struct {
	rdb *redis.Client
}

func NewActionLog(rdb *redis.Client) *ActionLog {
	return &ActionLog{rdb: rdb}
}

// ActionsKey is the list holding the log of roomID.
func ActionsKey(roomID string) string {
	return "room:" + roomID + ":actions"
}

// PublishGameAction appends rec to its room's list and publishes it on
// ActionsChannel in one pipeline.
func (l *ActionLog) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode action %d: %w", rec.ActionIndex, err)
	}
	key := ActionsKey(rec.RoomID)
	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		pipe.Expire(ctx, key, actionLogTTL)
		pipe.Publish(ctx, ActionsChannel, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish action %d: %w", rec.ActionIndex, err)
	}
	return nil
}

// Actions returns the logged records of roomID in order.
func (l *ActionLog) Actions(ctx context.Context, roomID string) ([]GameActionRecord, error) {
	raws, err := l.rdb.LRange(ctx, ActionsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read actions of %s: %w", roomID, err)
	}
	out := make([]GameActionRecord, 0, len(raws))
	for _, raw := range raws {
		var rec GameActionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode action of %s: %w", roomID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
