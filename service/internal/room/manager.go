// internal/room/manager.go
package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/game"
	"github.com/kamikaze305/pablo-golf/service/internal/session"
)

// Options configures a Manager. Notifier, Sessions and Tokens are
// required.
type Options struct {
	MaxRooms       int
	MaxConnections int
	Timings        game.Timings
	HostPolicy     game.HostPolicy

	Notifier game.Notifier
	Sessions session.Store
	Tokens   *session.Tokens
	Actions  game.ActionPublisher // optional
	Archive  game.RoundArchiver   // optional

	// IdleTTL is how long a room with nobody connected is kept for
	// reconnects. Zero means session.DefaultTTL.
	IdleTTL time.Duration

	Log           *logrus.Entry
	EngineOptions []engine.Option
}

// JoinResult is returned by create, join and reconnect.
type JoinResult struct {
	RoomID   string           `json:"roomId"`
	RoomKey  string           `json:"roomKey"`
	PlayerID string           `json:"playerId"`
	ShortID  string           `json:"shortId"`
	Token    string           `json:"token"`
	State    engine.GameState `json:"state"`
}

// RoomInfo is a lobby listing entry.
type RoomInfo struct {
	game.Summary
	HasPassword bool `json:"hasPassword"`
}

// Stats reports current usage against the limits.
type Stats struct {
	Rooms          int `json:"rooms"`
	MaxRooms       int `json:"maxRooms"`
	Connections    int `json:"connections"`
	MaxConnections int `json:"maxConnections"`
}

type roomEntry struct {
	game         *game.PabloGame
	passwordHash []byte
	emptySince   time.Time // zero while someone is connected
}

// Manager is the registry of live rooms. It owns the maps from room id,
// room key and player id to rooms; everything about a single room is
// delegated to that room's goroutine.
type Manager struct {
	opts Options
	log  *logrus.Entry
	now  func() time.Time

	mu      sync.RWMutex
	rooms   map[string]*roomEntry // by room id
	keys    map[string]string     // room key -> room id
	players map[string]string     // player id -> room id
}

// NewManager validates opts and returns an empty registry.
func NewManager(opts Options) (*Manager, error) {
	if opts.Notifier == nil || opts.Sessions == nil || opts.Tokens == nil {
		return nil, errors.New("room: notifier, sessions and tokens are required")
	}
	if opts.MaxRooms <= 0 {
		opts.MaxRooms = 50
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 300
	}
	if opts.HostPolicy == nil {
		opts.HostPolicy = game.EarliestHost
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = session.DefaultTTL
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		opts:    opts,
		log:     opts.Log.WithField("component", "manager"),
		now:     time.Now,
		rooms:   make(map[string]*roomEntry),
		keys:    make(map[string]string),
		players: make(map[string]string),
	}, nil
}

// CreateRoom opens a room with settings and seats the creator as host.
func (m *Manager) CreateRoom(ctx context.Context, settings engine.Settings, name string) (JoinResult, error) {
	name, err := validName(name)
	if err != nil {
		return JoinResult{}, err
	}
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return JoinResult{}, err
	}

	var hash []byte
	if settings.JoinPassword != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(settings.JoinPassword), bcrypt.DefaultCost)
		if err != nil {
			return JoinResult{}, fmt.Errorf("hash room password: %w", err)
		}
		settings.JoinPassword = ""
	}

	roomID := uuid.NewString()
	playerID := uuid.NewString()

	m.mu.Lock()
	if len(m.rooms) >= m.opts.MaxRooms {
		m.mu.Unlock()
		return JoinResult{}, ErrTooManyRooms
	}
	if len(m.players) >= m.opts.MaxConnections {
		m.mu.Unlock()
		return JoinResult{}, ErrTooManyConnections
	}
	key, err := m.claimKeyLocked(settings.RoomKey)
	if err != nil {
		m.mu.Unlock()
		return JoinResult{}, err
	}
	settings.RoomKey = key

	g, err := game.NewPabloGame(game.Config{
		ID:            roomID,
		Key:           key,
		Settings:      settings,
		Timings:       m.opts.Timings,
		Notifier:      m.opts.Notifier,
		HostPolicy:    m.opts.HostPolicy,
		Actions:       m.opts.Actions,
		Archive:       m.opts.Archive,
		Log:           m.opts.Log,
		EngineOptions: m.opts.EngineOptions,
	})
	if err != nil {
		delete(m.keys, key)
		m.mu.Unlock()
		return JoinResult{}, err
	}
	entry := &roomEntry{game: g, passwordHash: hash}
	m.rooms[roomID] = entry
	m.keys[key] = roomID
	m.players[playerID] = roomID
	m.mu.Unlock()

	res, err := m.seat(ctx, entry, playerID, name)
	if err != nil {
		m.deleteRoom(roomID)
		return JoinResult{}, err
	}
	m.log.WithFields(logrus.Fields{"room": key, "player": playerID}).Info("Room created")
	return res, nil
}

// claimKeyLocked reserves requested (or a generated key) for a new room.
// Caller holds m.mu.
func (m *Manager) claimKeyLocked(requested string) (string, error) {
	if requested != "" {
		key := NormalizeKey(requested)
		if !roomKeyPattern.MatchString(key) {
			return "", ErrInvalidRoomKey
		}
		if _, taken := m.keys[key]; taken {
			return "", ErrRoomKeyTaken
		}
		m.keys[key] = ""
		return key, nil
	}
	for attempt := 0; attempt < 20; attempt++ {
		key, err := generateRoomKey()
		if err != nil {
			return "", err
		}
		if _, taken := m.keys[key]; !taken {
			m.keys[key] = ""
			return key, nil
		}
	}
	return "", errors.New("room: could not find a free room key")
}

// JoinRoom seats a new player in the room identified by roomKey.
func (m *Manager) JoinRoom(ctx context.Context, roomKey, name, password string) (JoinResult, error) {
	name, err := validName(name)
	if err != nil {
		return JoinResult{}, err
	}
	key := NormalizeKey(roomKey)

	m.mu.Lock()
	roomID, ok := m.keys[key]
	entry := m.rooms[roomID]
	if !ok || entry == nil {
		m.mu.Unlock()
		return JoinResult{}, ErrRoomNotFound
	}
	if len(m.players) >= m.opts.MaxConnections {
		m.mu.Unlock()
		return JoinResult{}, ErrTooManyConnections
	}
	hash := entry.passwordHash
	m.mu.Unlock()

	if hash != nil {
		if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
			return JoinResult{}, ErrBadPassword
		}
	}

	playerID := uuid.NewString()
	m.mu.Lock()
	if m.rooms[roomID] != entry {
		m.mu.Unlock()
		return JoinResult{}, ErrRoomNotFound
	}
	m.players[playerID] = roomID
	m.mu.Unlock()

	res, err := m.seat(ctx, entry, playerID, name)
	if err != nil {
		m.mu.Lock()
		delete(m.players, playerID)
		m.mu.Unlock()
		switch {
		case errors.Is(err, engine.ErrGameFull):
			return JoinResult{}, ErrRoomFull
		case errors.Is(err, engine.ErrGameInProgress):
			return JoinResult{}, ErrGameInProgress
		case errors.Is(err, game.ErrRoomClosed):
			return JoinResult{}, ErrRoomNotFound
		}
		return JoinResult{}, err
	}
	m.log.WithFields(logrus.Fields{"room": key, "player": playerID}).Info("Player joined room")
	return res, nil
}

// seat adds the player to the room, stores their session and issues a
// reconnect token.
func (m *Manager) seat(ctx context.Context, entry *roomEntry, playerID, name string) (JoinResult, error) {
	g := entry.game
	p, err := g.AddPlayer(ctx, playerID, name)
	if err != nil {
		return JoinResult{}, err
	}
	m.mu.Lock()
	entry.emptySince = time.Time{}
	m.mu.Unlock()

	res, err := m.issue(ctx, g, playerID, name)
	if err != nil {
		return JoinResult{}, err
	}
	res.ShortID = p.ShortID
	return res, nil
}

// issue saves the session of playerID and returns a JoinResult carrying a
// fresh token and the player's current view.
func (m *Manager) issue(ctx context.Context, g *game.PabloGame, playerID, name string) (JoinResult, error) {
	s := session.Session{
		PlayerID:  playerID,
		RoomID:    g.ID,
		RoomKey:   g.Key,
		Name:      name,
		CreatedAt: m.now(),
	}
	if err := m.opts.Sessions.Save(ctx, s); err != nil {
		// A missing session only costs the ability to reconnect.
		m.log.WithError(err).WithField("player", playerID).Warn("Failed to save session")
	}
	token, err := m.opts.Tokens.Issue(s)
	if err != nil {
		return JoinResult{}, err
	}
	view, err := g.View(ctx, playerID)
	if err != nil {
		return JoinResult{}, err
	}
	res := JoinResult{
		RoomID:   g.ID,
		RoomKey:  g.Key,
		PlayerID: playerID,
		Token:    token,
		State:    view,
	}
	if p := view.Player(playerID); p != nil {
		res.ShortID = p.ShortID
	}
	return res, nil
}

// LeaveRoom removes playerID from play for good: they are marked
// disconnected, lose their session and the room is deleted once nobody is
// connected.
func (m *Manager) LeaveRoom(ctx context.Context, playerID string) error {
	entry, err := m.entryOfPlayer(playerID)
	if err != nil {
		return err
	}
	remaining, err := entry.game.HandleDisconnect(ctx, playerID)
	if err != nil {
		return err
	}
	if err := m.opts.Sessions.Clear(ctx, playerID); err != nil {
		m.log.WithError(err).WithField("player", playerID).Warn("Failed to clear session")
	}

	m.mu.Lock()
	delete(m.players, playerID)
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"room": entry.game.Key, "player": playerID}).Info("Player left room")
	if remaining == 0 {
		m.deleteRoom(entry.game.ID)
	}
	return nil
}

// Disconnect records a dropped connection. The seat and session are kept
// so the player can reconnect; an empty room is reaped after IdleTTL.
func (m *Manager) Disconnect(ctx context.Context, playerID string) error {
	entry, err := m.entryOfPlayer(playerID)
	if err != nil {
		return err
	}
	remaining, err := entry.game.HandleDisconnect(ctx, playerID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		m.mu.Lock()
		if entry.emptySince.IsZero() {
			entry.emptySince = m.now()
		}
		m.mu.Unlock()
	}
	return nil
}

// Reconnect resumes the seat of playerID in the room keyed roomKey using
// the stored session.
func (m *Manager) Reconnect(ctx context.Context, roomKey, playerID, name string) (JoinResult, error) {
	s, err := m.opts.Sessions.Load(ctx, playerID)
	if err != nil {
		return JoinResult{}, err
	}
	if s.RoomKey != NormalizeKey(roomKey) || (name != "" && s.Name != name) {
		return JoinResult{}, ErrSessionNotFound
	}

	m.mu.RLock()
	entry := m.rooms[s.RoomID]
	m.mu.RUnlock()
	if entry == nil {
		return JoinResult{}, ErrRoomNotFound
	}

	if _, err := entry.game.HandleReconnect(ctx, playerID); err != nil {
		if errors.Is(err, game.ErrRoomClosed) {
			return JoinResult{}, ErrRoomNotFound
		}
		return JoinResult{}, err
	}

	m.mu.Lock()
	m.players[playerID] = entry.game.ID
	entry.emptySince = time.Time{}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"room": entry.game.Key, "player": playerID}).Info("Player reconnected")
	return m.issue(ctx, entry.game, playerID, s.Name)
}

// ReconnectWithToken resumes a seat from a reconnect token.
func (m *Manager) ReconnectWithToken(ctx context.Context, token string) (JoinResult, error) {
	s, err := m.opts.Tokens.Parse(token)
	if err != nil {
		return JoinResult{}, err
	}
	return m.Reconnect(ctx, s.RoomKey, s.PlayerID, s.Name)
}

// Dispatch forwards an action from playerID to the room roomID.
func (m *Manager) Dispatch(ctx context.Context, roomID, playerID string, a engine.Action) error {
	m.mu.RLock()
	entry := m.rooms[roomID]
	seatedIn, seated := m.players[playerID]
	m.mu.RUnlock()
	if entry == nil {
		return ErrRoomNotFound
	}
	if !seated || seatedIn != roomID {
		return ErrPlayerNotInRoom
	}
	err := entry.game.Dispatch(ctx, playerID, a)
	if errors.Is(err, game.ErrRoomClosed) {
		return ErrRoomNotFound
	}
	return err
}

// Chat relays a chat line from playerID to their room.
func (m *Manager) Chat(ctx context.Context, playerID, text string) error {
	entry, err := m.entryOfPlayer(playerID)
	if err != nil {
		return err
	}
	return entry.game.Chat(ctx, playerID, text)
}

// Resync resends playerID their current view.
func (m *Manager) Resync(ctx context.Context, playerID string) error {
	entry, err := m.entryOfPlayer(playerID)
	if err != nil {
		return err
	}
	return entry.game.Resync(ctx, playerID)
}

// RoomOf returns the id of the room playerID is seated in.
func (m *Manager) RoomOf(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.players[playerID]
	return id, ok
}

// Room returns the live room with roomID.
func (m *Manager) Room(roomID string) (*game.PabloGame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	return entry.game, true
}

// ListRooms returns the lobby listing ordered by room key.
func (m *Manager) ListRooms(ctx context.Context) []RoomInfo {
	m.mu.RLock()
	entries := make([]*roomEntry, 0, len(m.rooms))
	for _, e := range m.rooms {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(entries))
	for _, e := range entries {
		s, err := e.game.Summary(ctx)
		if err != nil {
			continue
		}
		out = append(out, RoomInfo{Summary: s, HasPassword: e.passwordHash != nil})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Stats reports usage against the configured limits.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Rooms:          len(m.rooms),
		MaxRooms:       m.opts.MaxRooms,
		Connections:    len(m.players),
		MaxConnections: m.opts.MaxConnections,
	}
}

// Close shuts every room down.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.rooms {
		e.game.Close()
		delete(m.rooms, id)
	}
	m.keys = make(map[string]string)
	m.players = make(map[string]string)
}

func (m *Manager) entryOfPlayer(playerID string) (*roomEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomID, ok := m.players[playerID]
	if !ok {
		return nil, ErrPlayerNotInRoom
	}
	entry, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return entry, nil
}

// deleteRoom closes the room and drops every mapping pointing at it.
func (m *Manager) deleteRoom(roomID string) {
	m.mu.Lock()
	entry, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, roomID)
	delete(m.keys, entry.game.Key)
	for pid, rid := range m.players {
		if rid == roomID {
			delete(m.players, pid)
		}
	}
	m.mu.Unlock()

	entry.game.Close()
	m.log.WithField("room", entry.game.Key).Info("Room deleted")
}
