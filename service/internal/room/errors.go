// internal/room/errors.go
package room

import (
	"errors"

	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/session"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrBadPassword        = errors.New("incorrect room password")
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrTooManyRooms       = errors.New("room limit reached")
	ErrTooManyConnections = errors.New("connection limit reached")
	ErrInvalidName        = errors.New("player name must be 1-20 characters")
	ErrInvalidRoomKey     = errors.New("room key must be 4-12 letters or digits")
	ErrRoomKeyTaken       = errors.New("room key already in use")
)

// Errors raised inside a room or by the session layer, re-exported so
// callers of the manager need a single package.
var (
	ErrNotHost          = game.ErrNotHost
	ErrNotEnoughPlayers = game.ErrNotEnoughPlayers
	ErrPlayerNotInRoom  = game.ErrPlayerNotInRoom
	ErrSessionNotFound  = session.ErrSessionNotFound
)
