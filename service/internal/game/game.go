// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/cache"
)

// MaxChatLength caps a chat line in characters.
const MaxChatLength = 200

// Timings holds the durations of the room timers.
type Timings struct {
	RoundEndDelay       time.Duration // scored round on screen before returning to waiting
	PabloWindowDuration time.Duration // auto-pass after a turn if nobody acts
	SpyRevealDuration   time.Duration // how long a spied card stays visible
}

// DefaultTimings returns the production durations.
func DefaultTimings() Timings {
	return Timings{
		RoundEndDelay:       engine.DefaultRoundEndDelay,
		PabloWindowDuration: 15 * time.Second,
		SpyRevealDuration:   5 * time.Second,
	}
}

// ActionPublisher receives the action log of a room.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// RoundArchiver stores scored rounds.
type RoundArchiver interface {
	SaveRound(ctx context.Context, roomID, roomKey string, h engine.RoundHistory) error
}

// Config describes a new room. Notifier is required; Actions and Archive
// may be nil.
type Config struct {
	ID         string
	Key        string
	Settings   engine.Settings
	Timings    Timings
	Notifier   Notifier
	HostPolicy HostPolicy
	Actions    ActionPublisher
	Archive    RoundArchiver
	Log        *logrus.Entry

	// EngineOptions are passed to engine.NewGame after the room's own.
	EngineOptions []engine.Option
}

// Summary is the lobby listing entry of a room.
type Summary struct {
	ID          string       `json:"id"`
	Key         string       `json:"key"`
	Phase       engine.Phase `json:"phase"`
	Players     int          `json:"players"`
	Connected   int          `json:"connected"`
	MaxPlayers  int          `json:"maxPlayers"`
	RoundNumber int          `json:"roundNumber"`
	HostName    string       `json:"hostName,omitempty"`
}

type request struct {
	fn    func() error
	reply chan error
}

// PabloGame is one room: an engine.Game owned by a single goroutine. Every
// exported method is a request to that goroutine, and timers post their
// actions to the same inbox, so the engine never sees concurrent calls.
type PabloGame struct {
	ID  string // Unique identifier of the room.
	Key string // Short join code.

	engine     *engine.Game
	timings    Timings
	notifier   Notifier
	hostPolicy HostPolicy
	actions    ActionPublisher
	archive    RoundArchiver
	log        *logrus.Entry

	inbox     chan request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the room goroutine.
	actionIndex int
	windowGen   int
	revealGen   map[string]int
	timers      map[*time.Timer]struct{}
}

// NewPabloGame creates the engine game and starts the room goroutine.
func NewPabloGame(cfg Config) (*PabloGame, error) {
	if cfg.Notifier == nil {
		return nil, errors.New("game: notifier is required")
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}
	if cfg.HostPolicy == nil {
		cfg.HostPolicy = EarliestHost
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	opts := append([]engine.Option{engine.WithRoundEndDelay(cfg.Timings.RoundEndDelay)}, cfg.EngineOptions...)
	eg, err := engine.NewGame(cfg.ID, cfg.Settings, opts...)
	if err != nil {
		return nil, err
	}

	g := &PabloGame{
		ID:         cfg.ID,
		Key:        cfg.Key,
		engine:     eg,
		timings:    cfg.Timings,
		notifier:   cfg.Notifier,
		hostPolicy: cfg.HostPolicy,
		actions:    cfg.Actions,
		archive:    cfg.Archive,
		log:        cfg.Log.WithFields(logrus.Fields{"component": "room", "room": cfg.Key}),
		inbox:      make(chan request, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		revealGen:  make(map[string]int),
		timers:     make(map[*time.Timer]struct{}),
	}
	go g.loop()
	return g, nil
}

func (g *PabloGame) loop() {
	defer close(g.stopped)
	for {
		select {
		case <-g.done:
			for t := range g.timers {
				t.Stop()
			}
			return
		case req := <-g.inbox:
			err := req.fn()
			if req.reply != nil {
				req.reply <- err
			}
		}
	}
}

// do runs fn on the room goroutine and waits for its result.
func (g *PabloGame) do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case g.inbox <- req:
	case <-g.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-g.stopped:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting. Used by timers.
func (g *PabloGame) post(fn func()) {
	select {
	case g.inbox <- request{fn: func() error { fn(); return nil }}:
	case <-g.done:
	}
}

// after schedules fn on the room goroutine once d has elapsed. Pending
// timers are stopped when the room closes.
func (g *PabloGame) after(d time.Duration, fn func()) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		g.post(func() {
			delete(g.timers, t)
			fn()
		})
	})
	g.timers[t] = struct{}{}
}

// Close stops the room goroutine and its timers. Pending and later
// requests fail with ErrRoomClosed.
func (g *PabloGame) Close() {
	g.closeOnce.Do(func() { close(g.done) })
}

// Done is closed once the room goroutine has exited.
func (g *PabloGame) Done() <-chan struct{} { return g.stopped }

// ---------------------------------------------------------------------------
// Membership
// ---------------------------------------------------------------------------

// AddPlayer seats a new connected player and announces them. The short id
// is the room key followed by the seat number.
func (g *PabloGame) AddPlayer(ctx context.Context, id, name string) (engine.Player, error) {
	var seated engine.Player
	err := g.do(ctx, func() error {
		shortID := fmt.Sprintf("%s#%d", g.Key, len(g.engine.State().Players)+1)
		p, err := g.engine.AddPlayer(id, name, shortID)
		if err != nil {
			return err
		}
		seated = *p
		g.log.WithFields(logrus.Fields{"player": id, "name": name}).Info("Player joined")
		g.logAction(id, "player_join", map[string]interface{}{"name": name, "shortId": shortID})
		g.fireEvent(Event{Type: EventPlayerJoined, PlayerID: id, Payload: map[string]interface{}{
			"name":    name,
			"shortId": shortID,
			"isHost":  p.IsHost,
		}})
		g.broadcastSyncStateToAll()
		return nil
	})
	return seated, err
}

// HandleDisconnect marks a player disconnected. A departing host hands the
// room over according to the host policy. It returns how many players are
// still connected.
func (g *PabloGame) HandleDisconnect(ctx context.Context, playerID string) (int, error) {
	var connected int
	err := g.do(ctx, func() error {
		prev := g.engine.State()
		p := prev.Player(playerID)
		if p == nil {
			return ErrPlayerNotInRoom
		}
		if !p.IsConnected {
			g.log.WithField("player", playerID).Debug("Player already marked as disconnected")
			connected = prev.ConnectedCount()
			return nil
		}
		if err := g.engine.SetConnected(playerID, false); err != nil {
			return err
		}
		g.log.WithField("player", playerID).Info("Player disconnected")
		g.logAction(playerID, "player_disconnect", nil)
		g.fireEvent(Event{Type: EventPlayerLeft, PlayerID: playerID})
		if p.IsHost {
			g.reassignHost()
		}
		g.afterChange(prev, nil)
		st := g.engine.State()
		connected = st.ConnectedCount()
		return nil
	})
	return connected, err
}

// HandleReconnect marks a seated player connected again and returns their
// projected view.
func (g *PabloGame) HandleReconnect(ctx context.Context, playerID string) (engine.GameState, error) {
	var view engine.GameState
	err := g.do(ctx, func() error {
		prev := g.engine.State()
		p := prev.Player(playerID)
		if p == nil {
			g.logAction(playerID, "player_reconnect_fail", map[string]interface{}{"reason": "player not found"})
			return ErrPlayerNotInRoom
		}
		if err := g.engine.SetConnected(playerID, true); err != nil {
			return err
		}
		if host := prev.Host(); host == nil || !host.IsConnected {
			if err := g.engine.SetHost(playerID); err == nil {
				g.fireEvent(Event{Type: EventHostChanged, PlayerID: playerID})
			}
		}
		g.log.WithField("player", playerID).Info("Player reconnected")
		g.logAction(playerID, "player_reconnect", map[string]interface{}{"name": p.Name})
		g.fireEvent(Event{Type: EventPlayerReconnected, PlayerID: playerID})
		g.afterChange(prev, nil)
		view = engine.Project(g.engine.State(), playerID)
		return nil
	})
	return view, err
}

// reassignHost gives the host flag to the player picked by the policy.
// With nobody connected the flag stays where it is.
func (g *PabloGame) reassignHost() {
	st := g.engine.State()
	next := g.hostPolicy(st.Players)
	if next == "" {
		return
	}
	if err := g.engine.SetHost(next); err != nil {
		g.log.WithError(err).Error("Failed to reassign host")
		return
	}
	g.log.WithField("player", next).Info("Host reassigned")
	g.logAction(next, "host_changed", nil)
	g.fireEvent(Event{Type: EventHostChanged, PlayerID: next})
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// hostOnly lists the actions reserved to the host.
func hostOnly(a engine.Action) bool {
	switch a.(type) {
	case engine.StartRound, engine.EndRound, engine.ResetGame:
		return true
	}
	return false
}

// internalOnly lists the actions only the room's own timers may apply.
func internalOnly(a engine.Action) bool {
	switch a.(type) {
	case engine.FinishRound, engine.ClearReveal:
		return true
	}
	return false
}

// Dispatch applies an action on behalf of playerID. Rule violations come
// back as the engine's errors and leave the room untouched.
func (g *PabloGame) Dispatch(ctx context.Context, playerID string, a engine.Action) error {
	if a == nil {
		return engine.ErrUnknownAction
	}
	return g.do(ctx, func() error {
		prev := g.engine.State()
		p := prev.Player(playerID)
		if p == nil {
			return ErrPlayerNotInRoom
		}
		if internalOnly(a) {
			return fmt.Errorf("%w: %s", engine.ErrUnknownAction, a.Kind())
		}
		if actor := a.Actor(); actor != "" && actor != playerID {
			return fmt.Errorf("%w: action names %s", ErrPlayerNotInRoom, actor)
		}
		if hostOnly(a) && !p.IsHost {
			return ErrNotHost
		}
		if _, ok := a.(engine.StartRound); ok && prev.ConnectedCount() < engine.MinPlayers {
			return ErrNotEnoughPlayers
		}
		return g.apply(prev, playerID, a)
	})
}

// apply runs a on the engine and fans the result out.
func (g *PabloGame) apply(prev engine.GameState, actorID string, a engine.Action) error {
	if err := g.engine.Apply(a); err != nil {
		entry := g.log.WithFields(logrus.Fields{"player": actorID, "action": a.Kind()}).WithError(err)
		if errors.Is(err, engine.ErrUnknownAction) {
			entry.Error("Unknown action reached the engine")
		} else {
			entry.Debug("Action rejected")
		}
		return err
	}
	g.logAction(actorID, string(a.Kind()), actionPayload(a))
	g.afterChange(prev, a)
	return nil
}

// afterChange compares the state before a mutation with the current one,
// emits the matching events and (re)arms timers. a is nil for connection
// changes.
func (g *PabloGame) afterChange(prev engine.GameState, a engine.Action) {
	cur := g.engine.State()
	g.windowGen++

	if a != nil && !internalOnly(a) {
		g.fireEvent(Event{Type: EventTurnResult, PlayerID: a.Actor(), Payload: map[string]interface{}{
			"action": a.Kind(),
			"phase":  cur.Phase,
		}})
	}
	if cur.RoundNumber > prev.RoundNumber && cur.Phase == engine.PhasePeeking {
		g.log.WithFields(logrus.Fields{"round": cur.RoundNumber, "seed": cur.ShuffleSeed}).Info("Round started")
		g.fireEvent(Event{Type: EventRoundStarted, Payload: map[string]interface{}{
			"roundNumber": cur.RoundNumber,
		}})
	}
	if cur.PabloCalled && !prev.PabloCalled {
		g.log.WithField("player", cur.PabloCallerID).Info("Pablo called")
		g.fireEvent(Event{Type: EventPabloCalled, PlayerID: cur.PabloCallerID})
	}
	if len(cur.RoundHistory) > len(prev.RoundHistory) {
		g.roundScored(cur)
	}
	if _, ok := a.(engine.ResetGame); ok {
		g.log.Info("Game reset")
		g.fireEvent(Event{Type: EventGameReset})
	}
	if spy, ok := a.(engine.ExecuteSpy); ok {
		g.deliverSpyResult(spy.PlayerID)
	}

	g.broadcastSyncStateToAll()
	g.broadcastPlayerTurn(cur)

	if cur.PabloWindowOpen() {
		g.schedulePabloWindow(cur.CurrentPlayer().ID)
	}
}

// roundScored announces a freshly scored round, archives it and arms the
// countdown back to waiting.
func (g *PabloGame) roundScored(cur engine.GameState) {
	h := cur.RoundHistory[len(cur.RoundHistory)-1]
	totals := make(map[string]int, len(cur.Players))
	for _, p := range cur.Players {
		totals[p.ID] = p.TotalScore
	}
	payload := map[string]interface{}{
		"history": h,
		"totals":  totals,
		"phase":   cur.Phase,
	}
	if cur.Phase == engine.PhaseFinished {
		var winners []string
		for _, w := range g.engine.Winners() {
			winners = append(winners, w.ID)
		}
		payload["winners"] = winners
	}
	g.log.WithFields(logrus.Fields{"round": h.RoundNumber, "phase": cur.Phase}).Info("Round scored")
	g.logAction("", "round_scored", map[string]interface{}{"round": h.RoundNumber, "deltas": h.RoundDeltas})
	g.fireEvent(Event{Type: EventRoundScored, Payload: payload})

	if cur.Settings.AutosaveRoundState {
		g.archiveRound(h)
	}
	if cur.Phase == engine.PhaseRoundEnd {
		g.scheduleFinishRound(cur)
	}
}

// ---------------------------------------------------------------------------
// Timers
// ---------------------------------------------------------------------------

// schedulePabloWindow passes the window for playerID if nothing else
// happens in the room before it expires.
func (g *PabloGame) schedulePabloWindow(playerID string) {
	if g.timings.PabloWindowDuration <= 0 {
		return
	}
	gen := g.windowGen
	g.after(g.timings.PabloWindowDuration, func() {
		st := g.engine.State()
		if gen != g.windowGen || !st.PabloWindowOpen() || st.CurrentPlayer().ID != playerID {
			return
		}
		g.log.WithField("player", playerID).Debug("Pablo window expired")
		_ = g.apply(st, playerID, engine.PabloWindow{PlayerID: playerID})
	})
}

// scheduleFinishRound returns the table to waiting when the round-end
// countdown in cur runs out.
func (g *PabloGame) scheduleFinishRound(cur engine.GameState) {
	delay := g.timings.RoundEndDelay
	if cur.RoundEndsAt != nil {
		delay = max(time.Until(*cur.RoundEndsAt), 0)
	}
	round := cur.RoundNumber
	g.after(delay, func() {
		st := g.engine.State()
		if st.Phase != engine.PhaseRoundEnd || st.RoundNumber != round {
			return
		}
		_ = g.apply(st, "", engine.FinishRound{})
	})
}

// ---------------------------------------------------------------------------
// Queries and chat
// ---------------------------------------------------------------------------

// View returns the state projected for playerID.
func (g *PabloGame) View(ctx context.Context, playerID string) (engine.GameState, error) {
	var view engine.GameState
	err := g.do(ctx, func() error {
		st := g.engine.State()
		if st.Player(playerID) == nil {
			return ErrPlayerNotInRoom
		}
		view = engine.Project(st, playerID)
		return nil
	})
	return view, err
}

// Snapshot returns the unredacted state. Never send it to a client.
func (g *PabloGame) Snapshot(ctx context.Context) (engine.GameState, error) {
	var st engine.GameState
	err := g.do(ctx, func() error {
		st = g.engine.State()
		return nil
	})
	return st, err
}

// LegalActions lists what playerID may do right now.
func (g *PabloGame) LegalActions(ctx context.Context, playerID string) ([]engine.ActionKind, error) {
	var kinds []engine.ActionKind
	err := g.do(ctx, func() error {
		kinds = g.engine.LegalActions(playerID)
		return nil
	})
	return kinds, err
}

// Summary describes the room for the lobby listing.
func (g *PabloGame) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := g.do(ctx, func() error {
		st := g.engine.State()
		s = Summary{
			ID:          g.ID,
			Key:         g.Key,
			Phase:       st.Phase,
			Players:     len(st.Players),
			Connected:   st.ConnectedCount(),
			MaxPlayers:  st.Settings.MaxPlayers,
			RoundNumber: st.RoundNumber,
		}
		if h := st.Host(); h != nil {
			s.HostName = h.Name
		}
		return nil
	})
	return s, err
}

// Chat relays a message from playerID to everyone connected.
func (g *PabloGame) Chat(ctx context.Context, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyChatMessage
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		return ErrChatMessageTooLong
	}
	return g.do(ctx, func() error {
		st := g.engine.State()
		p := st.Player(playerID)
		if p == nil {
			return ErrPlayerNotInRoom
		}
		g.fireEvent(Event{Type: EventChatMessage, PlayerID: playerID, Payload: map[string]interface{}{
			"name":      p.Name,
			"text":      text,
			"timestamp": time.Now().UnixMilli(),
		}})
		return nil
	})
}

// ---------------------------------------------------------------------------
// Action log
// ---------------------------------------------------------------------------

// logAction publishes an action record asynchronously. Failures are logged
// and never affect the room.
func (g *PabloGame) logAction(actorID string, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.actions == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		RoomID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.actions.PublishGameAction(ctx, rec); err != nil {
			g.log.WithError(err).WithFields(logrus.Fields{
				"index":  rec.ActionIndex,
				"action": rec.ActionType,
			}).Warn("Failed publishing action")
		}
	}(record)
}

// archiveRound stores h asynchronously.
func (g *PabloGame) archiveRound(h engine.RoundHistory) {
	if g.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.archive.SaveRound(ctx, g.ID, g.Key, h); err != nil {
			g.log.WithError(err).WithField("round", h.RoundNumber).Warn("Failed archiving round")
		}
	}()
}

// actionPayload extracts the loggable arguments of a.
func actionPayload(a engine.Action) map[string]interface{} {
	switch a := a.(type) {
	case engine.PeekCard:
		return map[string]interface{}{"cardIndex": a.CardIndex}
	case engine.Draw:
		return map[string]interface{}{"source": a.Source}
	case engine.Replace:
		return map[string]interface{}{"cardIndex": a.CardIndex}
	case engine.ExecuteSwap:
		return map[string]interface{}{
			"sourceCardIndex": a.SourceCardIndex,
			"targetPlayerId":  a.TargetPlayerID,
			"targetCardIndex": a.TargetCardIndex,
		}
	case engine.ExecuteSpy:
		return map[string]interface{}{
			"targetPlayerId":  a.TargetPlayerID,
			"targetCardIndex": a.TargetCardIndex,
		}
	case engine.ClearReveal:
		return map[string]interface{}{"viewerId": a.ViewerID}
	}
	return nil
}
