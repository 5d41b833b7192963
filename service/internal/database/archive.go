// internal/database/archive.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kamikaze305/pablo-golf/engine"
)

// Archive stores completed rounds in round_history.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// SaveRound inserts one completed round of the room identified by roomID
// and roomKey.
func (a *Archive) SaveRound(ctx context.Context, roomID, roomKey string, h engine.RoundHistory) error {
	scores, err := json.Marshal(h.PlayerScores)
	if err != nil {
		return err
	}
	deltas, err := json.Marshal(h.RoundDeltas)
	if err != nil {
		return err
	}
	var caller *string
	if h.PabloCallerID != "" {
		caller = &h.PabloCallerID
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO round_history
			(room_id, room_key, round_number, pablo_caller_id, pablo_bonus, player_scores, round_deltas, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		roomID, roomKey, h.RoundNumber, caller, h.PabloBonus, scores, deltas, h.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round %d of %s: %w", h.RoundNumber, roomID, err)
	}
	return nil
}

// RoundsByKey returns the archived rounds of every room that used roomKey,
// oldest first.
func (a *Archive) RoundsByKey(ctx context.Context, roomKey string) ([]engine.RoundHistory, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT round_number, COALESCE(pablo_caller_id, ''), pablo_bonus, player_scores, round_deltas, ended_at
		FROM round_history
		WHERE room_key = $1
		ORDER BY ended_at, id`, roomKey)
	if err != nil {
		return nil, fmt.Errorf("query rounds of %s: %w", roomKey, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.RoundHistory, error) {
		var (
			h              engine.RoundHistory
			scores, deltas []byte
		)
		if err := row.Scan(&h.RoundNumber, &h.PabloCallerID, &h.PabloBonus, &scores, &deltas, &h.EndedAt); err != nil {
			return h, err
		}
		if err := json.Unmarshal(scores, &h.PlayerScores); err != nil {
			return h, err
		}
		if err := json.Unmarshal(deltas, &h.RoundDeltas); err != nil {
			return h, err
		}
		return h, nil
	})
}
