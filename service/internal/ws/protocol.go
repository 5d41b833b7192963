// internal/ws/protocol.go
package ws

import (
	"encoding/json"
	"errors"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
	"github.com/kamikaze305/pablo-golf/service/internal/session"
)

// Request is the inbound envelope. ID, when set, is echoed on the reply so
// clients can match responses to requests.
type Request struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the outbound envelope for direct responses. Room events are
// written as game.Event, which carries the same "type" key.
type Reply struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Room and session requests. Game actions use the request types defined
// by the game package.
const (
	ReqCreateRoom = "room:create"
	ReqJoinRoom   = "room:join"
	ReqLeaveRoom  = "room:leave"
	ReqReconnect  = "room:reconnect"
	ReqChat       = "chat:post"
	ReqResync     = "game:resync"
	ReqPing       = "ping"
)

// Replies.
const (
	RepJoined = "room:joined"
	RepLeft   = "room:left"
	RepAck    = "ack"
	RepPong   = "pong"
	RepError  = string(game.EventError)
)

type createPayload struct {
	Name     string          `json:"name"`
	Settings engine.Settings `json:"settings"`
	Password string          `json:"password"`
}

type joinPayload struct {
	RoomKey  string `json:"roomKey"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type reconnectPayload struct {
	Token    string `json:"token"`
	RoomKey  string `json:"roomKey"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// ErrorPayload is the body of an error reply.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transport-level rejections.
var (
	ErrNotSeated     = errors.New("join or create a room first")
	ErrAlreadySeated = errors.New("already in a room")
)

// errorCodes maps sentinels to stable client-facing codes. The first
// match wins.
var errorCodes = []struct {
	err  error
	code string
}{
	{room.ErrRoomNotFound, "ROOM_NOT_FOUND"},
	{room.ErrBadPassword, "BAD_PASSWORD"},
	{room.ErrRoomFull, "ROOM_FULL"},
	{room.ErrGameInProgress, "GAME_IN_PROGRESS"},
	{room.ErrTooManyRooms, "TOO_MANY_ROOMS"},
	{room.ErrTooManyConnections, "TOO_MANY_CONNECTIONS"},
	{room.ErrInvalidName, "INVALID_NAME"},
	{room.ErrInvalidRoomKey, "INVALID_ROOM_KEY"},
	{room.ErrRoomKeyTaken, "ROOM_KEY_TAKEN"},
	{game.ErrNotHost, "NOT_HOST"},
	{game.ErrNotEnoughPlayers, "NOT_ENOUGH_PLAYERS"},
	{game.ErrPlayerNotInRoom, "NOT_IN_ROOM"},
	{game.ErrRoomClosed, "ROOM_NOT_FOUND"},
	{game.ErrEmptyChatMessage, "CHAT_EMPTY"},
	{game.ErrChatMessageTooLong, "CHAT_TOO_LONG"},
	{game.ErrUnknownRequest, "UNKNOWN_REQUEST"},
	{game.ErrBadPayload, "BAD_PAYLOAD"},
	{session.ErrSessionNotFound, "SESSION_NOT_FOUND"},
	{session.ErrInvalidToken, "INVALID_TOKEN"},
	{ErrNotSeated, "NOT_SEATED"},
	{ErrAlreadySeated, "ALREADY_SEATED"},
	{engine.ErrInvalidSettings, "INVALID_SETTINGS"},
	{engine.ErrUnknownAction, "UNKNOWN_ACTION"},
	{engine.ErrNotYourTurn, "NOT_YOUR_TURN"},
	{engine.ErrInvalidCardIndex, "INVALID_CARD_INDEX"},
	{engine.ErrEmptySlot, "EMPTY_SLOT"},
	{engine.ErrGameFull, "ROOM_FULL"},
	{engine.ErrGameInProgress, "GAME_IN_PROGRESS"},
	{engine.ErrCannotStartRound, "CANNOT_START_ROUND"},
	{engine.ErrCannotEndRound, "CANNOT_END_ROUND"},
	{engine.ErrNotPlaying, "NOT_PLAYING"},
	{engine.ErrNotPeeking, "NOT_PEEKING"},
	{engine.ErrPeekLimit, "PEEK_LIMIT"},
	{engine.ErrAlreadyPeekedCard, "ALREADY_PEEKED"},
	{engine.ErrStockEmpty, "STOCK_EMPTY"},
	{engine.ErrDiscardEmpty, "DISCARD_EMPTY"},
	{engine.ErrAlreadyDrew, "ALREADY_DREW"},
	{engine.ErrMustDrawFirst, "MUST_DRAW_FIRST"},
	{engine.ErrDrawPending, "DRAW_PENDING"},
	{engine.ErrPabloWindowOpen, "PABLO_WINDOW_OPEN"},
	{engine.ErrNoPabloWindow, "NO_PABLO_WINDOW"},
	{engine.ErrTricksDisabled, "TRICKS_DISABLED"},
	{engine.ErrNoTrickCard, "NO_TRICK_CARD"},
	{engine.ErrNoActiveTrick, "NO_ACTIVE_TRICK"},
	{engine.ErrNotTrickOwner, "NOT_TRICK_OWNER"},
	{engine.ErrWrongTrick, "WRONG_TRICK"},
	{engine.ErrTrickActive, "TRICK_ACTIVE"},
	{engine.ErrUnknownPlayer, "UNKNOWN_PLAYER"},
}

// ErrorCode returns the client-facing code for err, or "INTERNAL".
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "INTERNAL"
}

func errorReply(id string, err error) Reply {
	code := ErrorCode(err)
	msg := err.Error()
	if code == "INTERNAL" {
		msg = "internal error"
	}
	return Reply{Type: RepError, ID: id, Payload: ErrorPayload{Code: code, Message: msg}}
}
