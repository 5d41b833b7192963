// internal/game/errors.go
package game

import "errors"

// Room-level rejections. Engine rule errors pass through unchanged.
var (
	ErrRoomClosed         = errors.New("room closed")
	ErrPlayerNotInRoom    = errors.New("player not in room")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotEnoughPlayers   = errors.New("at least two connected players are required")
	ErrEmptyChatMessage   = errors.New("empty chat message")
	ErrChatMessageTooLong = errors.New("chat message too long")
)
