// Package engine implements the rules of Pablo.
//
// A Game holds the authoritative state of one room. It is not safe for
// concurrent use: the owner (a room actor in the service) must serialize
// every call. All mutation goes through Apply, which either applies an
// action completely or returns an error and leaves the state unchanged.
package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Game wraps a GameState with the per-round RNG and the seed source used
// to pick a fresh seed every round.
type Game struct {
	state GameState
	rng   *RNG
	seeds func() uint32
	now   func() time.Time

	roundEndDelay time.Duration
}

// DefaultRoundEndDelay is how long a scored round stays on screen before
// the table returns to waiting.
const DefaultRoundEndDelay = 30 * time.Second

// Option configures a Game.
type Option func(*Game)

// WithSeedSource replaces the per-round seed source. Tests use it to get
// reproducible deals.
func WithSeedSource(f func() uint32) Option {
	return func(g *Game) { g.seeds = f }
}

// WithRoundEndDelay sets the delay recorded in GameState.RoundEndsAt.
func WithRoundEndDelay(d time.Duration) Option {
	return func(g *Game) { g.roundEndDelay = d }
}

// WithClock replaces time.Now.
func WithClock(f func() time.Time) Option {
	return func(g *Game) { g.now = f }
}

// FixedSeeds returns a seed source yielding seeds in order and then
// repeating the last one.
func FixedSeeds(seeds ...uint32) func() uint32 {
	i := 0
	return func() uint32 {
		if len(seeds) == 0 {
			return 1
		}
		s := seeds[min(i, len(seeds)-1)]
		i++
		return s
	}
}

// NewGame creates a game in the waiting phase with no players.
func NewGame(roomID string, settings Settings, opts ...Option) (*Game, error) {
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		seeds:         rand.Uint32,
		now:           time.Now,
		roundEndDelay: DefaultRoundEndDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.state = GameState{
		RoomID:      roomID,
		Settings:    settings,
		Phase:       PhaseWaiting,
		PeekedCards: map[string][]int{},
	}
	g.rng = NewRNG(0)
	return g, nil
}

// State returns a deep copy of the authoritative state.
func (g *Game) State() GameState { return g.state.Clone() }

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.state.Phase }

// Settings returns the room settings.
func (g *Game) Settings() Settings { return g.state.Settings }

// Apply validates and applies one action. On error the state is exactly
// what it was before the call.
func (g *Game) Apply(a Action) error {
	saved := g.save()
	if err := g.apply(a); err != nil {
		g.restore(saved)
		return err
	}
	return nil
}

func (g *Game) apply(a Action) error {
	switch a := a.(type) {
	case StartRound:
		return g.startRound()
	case PeekCard:
		return g.peekCard(a)
	case PlayerReady:
		return g.playerReady(a)
	case Draw:
		return g.draw(a)
	case Replace:
		return g.replace(a)
	case Discard:
		return g.discard(a)
	case CallPablo:
		return g.callPablo(a)
	case PabloWindow:
		return g.pabloWindow(a)
	case ActivateTrick:
		return g.activateTrick(a)
	case ExecuteSwap:
		return g.executeSwap(a)
	case ExecuteSpy:
		return g.executeSpy(a)
	case SkipTrick:
		return g.skipTrick(a)
	case EndRound:
		return g.endRound()
	case FinishRound:
		return g.finishRound()
	case ResetGame:
		g.resetGame()
		return nil
	case ClearReveal:
		g.clearReveal(a.ViewerID)
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

// ---------------------------------------------------------------------------
// Snapshot (Save / Restore)
// ---------------------------------------------------------------------------

type snapshot struct {
	state GameState
	rng   RNG
}

func (g *Game) save() snapshot { return snapshot{state: g.state.Clone(), rng: *g.rng} }

func (g *Game) restore(s snapshot) {
	g.state = s.state
	*g.rng = s.rng
}

// ---------------------------------------------------------------------------
// Players
// ---------------------------------------------------------------------------

// AddPlayer seats a new connected player. Only allowed while waiting. The
// first player becomes host.
func (g *Game) AddPlayer(id, name, shortID string) (*Player, error) {
	s := &g.state
	if s.Phase != PhaseWaiting {
		return nil, fmt.Errorf("%w: phase is %s", ErrGameInProgress, s.Phase)
	}
	if s.Player(id) != nil {
		return nil, ErrPlayerExists
	}
	if len(s.Players) >= s.Settings.MaxPlayers {
		return nil, ErrGameFull
	}
	p := &Player{
		ID:          id,
		Name:        name,
		ShortID:     shortID,
		IsConnected: true,
		IsHost:      len(s.Players) == 0,
		JoinedAt:    g.now(),
	}
	s.Players = append(s.Players, p)
	return p, nil
}

// SetHost makes id the only host.
func (g *Game) SetHost(id string) error {
	s := &g.state
	if s.Player(id) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	for _, p := range s.Players {
		p.IsHost = p.ID == id
	}
	return nil
}

// SetConnected flips a player's connection flag. A player who drops while
// holding the turn gives it up: a pending draw is discarded, an open window
// or trick is closed and play moves to the next connected player.
func (g *Game) SetConnected(id string, connected bool) error {
	s := &g.state
	p := s.Player(id)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if p.IsConnected == connected {
		return nil
	}
	p.IsConnected = connected
	if connected {
		// The turn may have stalled on a table where everyone had left.
		if cur := s.CurrentPlayer(); cur != nil && !cur.IsConnected && s.inTurnPhase() {
			s.CurrentPlayerIndex = s.PlayerIndex(id)
		}
		return nil
	}

	switch s.Phase {
	case PhasePeeking:
		g.checkAllReady()
	case PhasePlaying, PhaseTrickActive:
		if cur := s.CurrentPlayer(); cur == nil || cur.ID != id {
			return nil
		}
		if s.DrawPending() {
			drawn := g.takeDrawn()
			s.Discard = append(s.Discard, drawn)
		}
		if s.ActiveTrick != nil {
			s.ActiveTrick = nil
			s.Phase = PhasePlaying
		}
		s.LastAction = nil
		if s.FinalRoundStarted {
			g.markFinalTurn(id)
		}
		g.advanceTurn()
		g.endRoundIfFinalTurnsDone()
	}
	return nil
}

func (s *GameState) inTurnPhase() bool {
	return s.Phase == PhasePlaying || s.Phase == PhaseTrickActive
}

// advanceTurn moves CurrentPlayerIndex to the next connected player.
// Disconnected players passed over during the final round are counted as
// having had their final turn. If nobody is connected the index stays put.
func (g *Game) advanceTurn() {
	s := &g.state
	n := len(s.Players)
	if n == 0 {
		return
	}
	for step := 1; step <= n; step++ {
		idx := (s.CurrentPlayerIndex + step) % n
		p := s.Players[idx]
		if p.IsConnected {
			s.CurrentPlayerIndex = idx
			return
		}
		if s.FinalRoundStarted {
			g.markFinalTurn(p.ID)
		}
	}
}

// firstConnectedFrom returns the first connected index at or after start,
// or start itself when nobody is connected.
func (s *GameState) firstConnectedFrom(start int) int {
	n := len(s.Players)
	for step := 0; step < n; step++ {
		idx := (start + step) % n
		if s.Players[idx].IsConnected {
			return idx
		}
	}
	return start
}
