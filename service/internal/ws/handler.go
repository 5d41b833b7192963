// internal/ws/handler.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
)

// Rooms is the part of the room manager the socket layer drives.
type Rooms interface {
	CreateRoom(ctx context.Context, settings engine.Settings, name string) (room.JoinResult, error)
	JoinRoom(ctx context.Context, roomKey, name, password string) (room.JoinResult, error)
	LeaveRoom(ctx context.Context, playerID string) error
	Disconnect(ctx context.Context, playerID string) error
	Reconnect(ctx context.Context, roomKey, playerID, name string) (room.JoinResult, error)
	ReconnectWithToken(ctx context.Context, token string) (room.JoinResult, error)
	Dispatch(ctx context.Context, roomID, playerID string, a engine.Action) error
	Chat(ctx context.Context, playerID, text string) error
	Resync(ctx context.Context, playerID string) error
}

// Options configures a Handler.
type Options struct {
	// OriginPatterns are the allowed Origin hosts, as accepted by
	// websocket.AcceptOptions. Empty allows same-origin only.
	OriginPatterns []string
	// MaxConnections caps open sockets. Zero disables the cap.
	MaxConnections int
	Log            *logrus.Entry
}

// Handler upgrades HTTP requests to WebSocket connections and routes
// client requests to the room manager.
type Handler struct {
	rooms Rooms
	hub   *Hub
	opts  Options
	log   *logrus.Entry
}

// NewHandler wires a handler to the manager and the hub the manager
// notifies through.
func NewHandler(rooms Rooms, hub *Hub, opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		rooms: rooms,
		hub:   hub,
		opts:  opts,
		log:   opts.Log.WithField("component", "ws"),
	}
}

// ServeHTTP accepts the connection and runs its read loop. A "token"
// query parameter resumes a seat immediately.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hub.acquire(h.opts.MaxConnections) {
		http.Error(w, room.ErrTooManyConnections.Error(), http.StatusServiceUnavailable)
		return
	}
	defer h.hub.release()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.opts.OriginPatterns})
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(conn, h.log.WithField("remote", r.RemoteAddr))
	go c.writeLoop(ctx)
	c.log.Debug("Client connected")

	if token := r.URL.Query().Get("token"); token != "" {
		h.handle(ctx, c, Request{Type: ReqReconnect, Payload: mustJSON(reconnectPayload{Token: token})})
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.log.WithError(err).Debug("Read ended")
			}
			break
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil || req.Type == "" {
			c.queue(errorReply("", fmt.Errorf("%w: invalid envelope", game.ErrBadPayload)))
			continue
		}
		h.handle(ctx, c, req)
	}

	h.drop(c)
}

// drop releases the seat route of a closed connection and tells the room
// the player went away. The seat itself survives for reconnects.
func (h *Handler) drop(c *Client) {
	playerID, _ := c.seat()
	if playerID != "" && h.hub.unbind(playerID, c) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.rooms.Disconnect(ctx, playerID); err != nil && !errors.Is(err, room.ErrPlayerNotInRoom) && !errors.Is(err, room.ErrRoomNotFound) {
			c.log.WithError(err).Warn("Failed to mark player disconnected")
		}
	}
	c.close(websocket.StatusNormalClosure, "")
	c.log.Debug("Client disconnected")
}

func (h *Handler) handle(ctx context.Context, c *Client, req Request) {
	reply, err := h.route(ctx, c, req)
	if err != nil {
		playerID, _ := c.seat()
		entry := c.log.WithFields(logrus.Fields{"request": req.Type, "player": playerID, "code": ErrorCode(err)})
		if ErrorCode(err) == "INTERNAL" {
			entry.WithError(err).Error("Request failed")
		} else {
			entry.WithError(err).Debug("Request rejected")
		}
		c.queue(errorReply(req.ID, err))
		return
	}
	if reply != nil {
		reply.ID = req.ID
		c.queue(*reply)
	} else if req.ID != "" {
		c.queue(Reply{Type: RepAck, ID: req.ID})
	}
}

func (h *Handler) route(ctx context.Context, c *Client, req Request) (*Reply, error) {
	playerID, roomID := c.seat()

	switch req.Type {
	case ReqPing:
		return &Reply{Type: RepPong}, nil

	case ReqCreateRoom:
		if playerID != "" {
			return nil, ErrAlreadySeated
		}
		var p createPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		p.Settings.JoinPassword = p.Password
		res, err := h.rooms.CreateRoom(ctx, p.Settings, p.Name)
		if err != nil {
			return nil, err
		}
		return h.seated(c, res), nil

	case ReqJoinRoom:
		if playerID != "" {
			return nil, ErrAlreadySeated
		}
		var p joinPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		res, err := h.rooms.JoinRoom(ctx, p.RoomKey, p.Name, p.Password)
		if err != nil {
			return nil, err
		}
		return h.seated(c, res), nil

	case ReqReconnect:
		var p reconnectPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		var (
			res room.JoinResult
			err error
		)
		if p.Token != "" {
			res, err = h.rooms.ReconnectWithToken(ctx, p.Token)
		} else {
			res, err = h.rooms.Reconnect(ctx, p.RoomKey, p.PlayerID, p.Name)
		}
		if err != nil {
			return nil, err
		}
		if playerID != "" && playerID != res.PlayerID {
			return nil, ErrAlreadySeated
		}
		return h.seated(c, res), nil

	case ReqLeaveRoom:
		if playerID == "" {
			return nil, ErrNotSeated
		}
		h.hub.unbind(playerID, c)
		c.setSeat("", "")
		if err := h.rooms.LeaveRoom(ctx, playerID); err != nil {
			return nil, err
		}
		return &Reply{Type: RepLeft, Payload: map[string]string{"roomId": roomID}}, nil

	case ReqChat:
		if playerID == "" {
			return nil, ErrNotSeated
		}
		var p chatPayload
		if err := decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return nil, h.rooms.Chat(ctx, playerID, p.Text)

	case ReqResync:
		if playerID == "" {
			return nil, ErrNotSeated
		}
		return nil, h.rooms.Resync(ctx, playerID)
	}

	if !game.IsActionRequest(req.Type) {
		return nil, fmt.Errorf("%w: %s", game.ErrUnknownRequest, req.Type)
	}
	if playerID == "" {
		return nil, ErrNotSeated
	}
	a, err := game.DecodeAction(playerID, req.Type, req.Payload)
	if err != nil {
		return nil, err
	}
	return nil, h.rooms.Dispatch(ctx, roomID, playerID, a)
}

// seated binds c to the player in res and builds the joined reply. Any
// other connection of the same player is closed.
func (h *Handler) seated(c *Client, res room.JoinResult) *Reply {
	c.setSeat(res.PlayerID, res.RoomID)
	if prev := h.hub.bind(res.PlayerID, c); prev != nil {
		prev.setSeat("", "")
		prev.close(websocket.StatusPolicyViolation, "connected from another session")
	}
	return &Reply{Type: RepJoined, Payload: res}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", game.ErrBadPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", game.ErrBadPayload, err)
	}
	return nil
}

func mustJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
