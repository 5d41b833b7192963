package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
	"github.com/kamikaze305/pablo-golf/service/internal/session"
)

type inbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	State   json.RawMessage `json:"state"`
}

type testServer struct {
	srv     *httptest.Server
	manager *room.Manager
	hub     *Hub
}

func newTestServer(t *testing.T, maxConns int) *testServer {
	t.Helper()
	hub := NewHub(nil)
	m, err := room.NewManager(room.Options{
		Timings: game.Timings{
			RoundEndDelay:       time.Hour,
			PabloWindowDuration: time.Hour,
			SpyRevealDuration:   time.Hour,
		},
		Notifier:      hub,
		Sessions:      session.NewMemoryStore(time.Hour),
		Tokens:        session.NewTokens("test-secret", time.Hour),
		EngineOptions: []engine.Option{engine.WithSeedSource(engine.FixedSeeds(3))},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(m, hub, Options{MaxConnections: maxConns}))
	t.Cleanup(func() {
		srv.Close()
		m.Close()
	})
	return &testServer{srv: srv, manager: m, hub: hub}
}

func (ts *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ, id string, payload interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := map[string]interface{}{"type": typ, "id": id}
	if payload != nil {
		req["payload"] = payload
	}
	require.NoError(t, wsjson.Write(ctx, conn, req))
}

// expect reads until a message of type typ arrives.
func expect(t *testing.T, conn *websocket.Conn, typ string) inbound {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg inbound
		require.NoError(t, wsjson.Read(ctx, conn, &msg), "waiting for %s", typ)
		if msg.Type == typ {
			return msg
		}
	}
}

func joined(t *testing.T, conn *websocket.Conn) room.JoinResult {
	t.Helper()
	msg := expect(t, conn, RepJoined)
	var res room.JoinResult
	require.NoError(t, json.Unmarshal(msg.Payload, &res))
	return res
}

func errorOf(t *testing.T, conn *websocket.Conn) ErrorPayload {
	t.Helper()
	msg := expect(t, conn, RepError)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	return p
}

func TestCreateJoinAndStart(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := ts.dial(t, "")
	bob := ts.dial(t, "")

	send(t, alice, ReqCreateRoom, "1", map[string]interface{}{"name": "Alice"})
	created := joined(t, alice)
	assert.NotEmpty(t, created.Token)

	send(t, bob, ReqJoinRoom, "2", map[string]interface{}{"roomKey": created.RoomKey, "name": "Bob"})
	bobSeat := joined(t, bob)
	assert.Equal(t, created.RoomID, bobSeat.RoomID)
	expect(t, alice, string(game.EventPlayerJoined))

	send(t, alice, game.ReqStartRound, "3", nil)
	ack := expect(t, alice, RepAck)
	assert.Equal(t, "3", ack.ID)

	started := expect(t, bob, string(game.EventRoundStarted))
	assert.Equal(t, string(game.EventRoundStarted), started.Type)

	patch := expect(t, bob, string(game.EventStatePatch))
	var st engine.GameState
	require.NoError(t, json.Unmarshal(patch.State, &st))
	assert.Equal(t, engine.PhasePeeking, st.Phase)
}

func TestErrorsGoToRequesterOnly(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := ts.dial(t, "")
	bob := ts.dial(t, "")

	send(t, alice, ReqCreateRoom, "", map[string]interface{}{"name": "Alice"})
	created := joined(t, alice)
	send(t, bob, ReqJoinRoom, "", map[string]interface{}{"roomKey": created.RoomKey, "name": "Bob"})
	joined(t, bob)

	send(t, bob, game.ReqStartRound, "x", nil)
	p := errorOf(t, bob)
	assert.Equal(t, "NOT_HOST", p.Code)

	// Alice only sees the ping answer, not Bob's error.
	send(t, alice, ReqPing, "p", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg inbound
		require.NoError(t, wsjson.Read(ctx, alice, &msg))
		require.NotEqual(t, RepError, msg.Type)
		if msg.Type == RepPong {
			break
		}
	}
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, 0)
	conn := ts.dial(t, "")

	send(t, conn, game.ReqDraw, "", map[string]string{"source": "stock"})
	assert.Equal(t, "NOT_SEATED", errorOf(t, conn).Code)

	send(t, conn, "room:dance", "", nil)
	assert.Equal(t, "UNKNOWN_REQUEST", errorOf(t, conn).Code)

	send(t, conn, ReqJoinRoom, "", nil)
	assert.Equal(t, "BAD_PAYLOAD", errorOf(t, conn).Code)

	send(t, conn, ReqJoinRoom, "", map[string]string{"roomKey": "NOPE42", "name": "Bob"})
	assert.Equal(t, "ROOM_NOT_FOUND", errorOf(t, conn).Code)

	send(t, conn, ReqCreateRoom, "", map[string]interface{}{"name": "Alice"})
	joined(t, conn)
	send(t, conn, ReqCreateRoom, "", map[string]interface{}{"name": "Alice"})
	assert.Equal(t, "ALREADY_SEATED", errorOf(t, conn).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	assert.Equal(t, "BAD_PAYLOAD", errorOf(t, conn).Code)
}

func TestPasswordProtectedRoom(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := ts.dial(t, "")
	bob := ts.dial(t, "")

	send(t, alice, ReqCreateRoom, "", map[string]interface{}{"name": "Alice", "password": "secret"})
	created := joined(t, alice)

	send(t, bob, ReqJoinRoom, "", map[string]string{"roomKey": created.RoomKey, "name": "Bob", "password": "guess"})
	assert.Equal(t, "BAD_PASSWORD", errorOf(t, bob).Code)

	send(t, bob, ReqJoinRoom, "", map[string]string{"roomKey": created.RoomKey, "name": "Bob", "password": "secret"})
	joined(t, bob)
}

func TestReconnectWithTokenQuery(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := ts.dial(t, "")
	bob := ts.dial(t, "")

	send(t, alice, ReqCreateRoom, "", map[string]interface{}{"name": "Alice"})
	created := joined(t, alice)
	send(t, bob, ReqJoinRoom, "", map[string]interface{}{"roomKey": created.RoomKey, "name": "Bob"})
	joined(t, bob)

	require.NoError(t, alice.Close(websocket.StatusNormalClosure, "bye"))
	left := expect(t, bob, string(game.EventPlayerLeft))
	assert.Equal(t, string(game.EventPlayerLeft), left.Type)

	again := ts.dial(t, "?token="+created.Token)
	res := joined(t, again)
	assert.Equal(t, created.PlayerID, res.PlayerID)
	expect(t, bob, string(game.EventPlayerReconnected))
}

func TestLeaveRoom(t *testing.T) {
	ts := newTestServer(t, 0)
	conn := ts.dial(t, "")

	send(t, conn, ReqCreateRoom, "", map[string]interface{}{"name": "Alice"})
	joined(t, conn)
	send(t, conn, ReqLeaveRoom, "", nil)
	expect(t, conn, RepLeft)
	assert.Equal(t, 0, ts.manager.Stats().Rooms)

	send(t, conn, ReqChat, "", map[string]string{"text": "anyone?"})
	assert.Equal(t, "NOT_SEATED", errorOf(t, conn).Code)
}

func TestConnectionCap(t *testing.T) {
	ts := newTestServer(t, 1)
	ts.dial(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http")
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_YOUR_TURN", ErrorCode(fmt.Errorf("wrapped: %w", engine.ErrNotYourTurn)))
	assert.Equal(t, "ROOM_FULL", ErrorCode(room.ErrRoomFull))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))

	r := errorReply("7", errors.New("db exploded"))
	assert.Equal(t, ErrorPayload{Code: "INTERNAL", Message: "internal error"}, r.Payload)
	assert.Equal(t, "7", r.ID)
}
