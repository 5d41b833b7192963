package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/config"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
)

type fakeLobby struct {
	rooms []room.RoomInfo
}

func (f fakeLobby) ListRooms(context.Context) []room.RoomInfo { return f.rooms }

func (f fakeLobby) Stats() room.Stats {
	return room.Stats{Rooms: len(f.rooms), MaxRooms: 50, Connections: 3, MaxConnections: 300}
}

type fakeHistory struct {
	rounds map[string][]engine.RoundHistory
	err    error
}

func (f fakeHistory) RoundsByKey(_ context.Context, key string) ([]engine.RoundHistory, error) {
	return f.rounds[key], f.err
}

func newRouter(t *testing.T, cfg *config.Config, history History) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lobby := fakeLobby{rooms: []room.RoomInfo{{
		Summary:     game.Summary{ID: "r1", Key: "ABC123", Phase: engine.PhaseWaiting, Players: 2, Connected: 2, MaxPlayers: 6, HostName: "Alice"},
		HasPassword: true,
	}}}
	socket := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	SetupRoutes(r, Deps{Config: cfg, Lobby: lobby, History: history, Socket: socket})
	return r
}

func devConfig() *config.Config {
	return &config.Config{Environment: "development", FrontendURL: "http://localhost:5173"}
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newRouter(t, devConfig(), nil)
	for _, path := range []string{"/health", "/api/health"} {
		w := get(r, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	}
}

func TestListRooms(t *testing.T) {
	r := newRouter(t, devConfig(), nil)
	w := get(r, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rooms []map[string]interface{} `json:"rooms"`
		Count int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ABC123", body.Rooms[0]["key"])
	assert.Equal(t, "waiting", body.Rooms[0]["phase"])
	assert.Equal(t, true, body.Rooms[0]["hasPassword"])
}

func TestStats(t *testing.T) {
	r := newRouter(t, devConfig(), nil)
	w := get(r, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var s room.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, room.Stats{Rooms: 1, MaxRooms: 50, Connections: 3, MaxConnections: 300}, s)
}

func TestRoomHistory(t *testing.T) {
	bonus := -5
	h := fakeHistory{rounds: map[string][]engine.RoundHistory{
		"ABC123": {{RoundNumber: 1, PlayerScores: map[string]int{"p1": 3}, PabloCallerID: "p1", PabloBonus: &bonus, EndedAt: time.Unix(0, 0).UTC()}},
	}}
	r := newRouter(t, devConfig(), h)

	w := get(r, "/api/rooms/abc123/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		RoomKey string                `json:"roomKey"`
		Rounds  []engine.RoundHistory `json:"rounds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ABC123", body.RoomKey)
	require.Len(t, body.Rounds, 1)
	assert.Equal(t, -5, *body.Rounds[0].PabloBonus)

	w = get(r, "/api/rooms/ZZZZ/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roomKey":"ZZZZ","rounds":[]}`, w.Body.String())
}

func TestRoomHistoryUnavailable(t *testing.T) {
	w := get(newRouter(t, devConfig(), nil), "/api/rooms/ABC123/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = get(newRouter(t, devConfig(), fakeHistory{err: errors.New("db down")}), "/api/rooms/ABC123/history", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSocketRoute(t *testing.T) {
	w := get(newRouter(t, devConfig(), nil), "/ws", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestCORS(t *testing.T) {
	r := newRouter(t, devConfig(), nil)

	w := get(r, "/api/rooms", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/api/rooms", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrigins(t *testing.T) {
	dev := &config.Config{Environment: "development", FrontendURL: "http://localhost:3000"}
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"}, AllowedOrigins(dev))
	assert.Equal(t, []string{"localhost:5173", "127.0.0.1:5173", "localhost:3000"}, OriginHosts(dev))

	prod := &config.Config{Environment: "production", FrontendURL: "https://pablo.example"}
	assert.Equal(t, []string{"https://pablo.example"}, AllowedOrigins(prod))
	assert.Equal(t, []string{"pablo.example"}, OriginHosts(prod))
}
