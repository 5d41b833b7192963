package engine

import "fmt"

// ActionKind is the wire name of an action.
type ActionKind string

const (
	ActionStartRound    ActionKind = "startRound"
	ActionPeekCard      ActionKind = "peekCard"
	ActionPlayerReady   ActionKind = "playerReady"
	ActionDraw          ActionKind = "draw"
	ActionReplace       ActionKind = "replace"
	ActionDiscard       ActionKind = "discard"
	ActionCallPablo     ActionKind = "callPablo"
	ActionPabloWindow   ActionKind = "pabloWindow"
	ActionActivateTrick ActionKind = "activateTrick"
	ActionExecuteSwap   ActionKind = "executeSwap"
	ActionExecuteSpy    ActionKind = "executeSpy"
	ActionSkipTrick     ActionKind = "skipTrick"
	ActionEndRound      ActionKind = "endRound"
	ActionFinishRound   ActionKind = "finishRound"
	ActionResetGame     ActionKind = "resetGame"
	ActionClearReveal   ActionKind = "clearReveal"
)

// Action is the closed set of inputs accepted by Game.Apply. The unexported
// marker keeps the set inside this package.
type Action interface {
	Kind() ActionKind
	// Actor is the player performing the action, or "" for room-level
	// actions (start, end, reset, timers).
	Actor() string
	isAction()
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

type StartRound struct{}

type PeekCard struct {
	PlayerID  string `json:"playerId"`
	CardIndex int    `json:"cardIndex"`
}

type PlayerReady struct {
	PlayerID string `json:"playerId"`
}

type Draw struct {
	PlayerID string     `json:"playerId"`
	Source   PileSource `json:"source"`
}

type Replace struct {
	PlayerID  string `json:"playerId"`
	CardIndex int    `json:"cardIndex"`
}

type Discard struct {
	PlayerID string `json:"playerId"`
}

type CallPablo struct {
	PlayerID string `json:"playerId"`
}

// PabloWindow closes the Pablo window and passes the turn.
type PabloWindow struct {
	PlayerID string `json:"playerId"`
}

type ActivateTrick struct {
	PlayerID string `json:"playerId"`
}

type ExecuteSwap struct {
	PlayerID        string `json:"playerId"`
	SourceCardIndex int    `json:"sourceCardIndex"`
	TargetPlayerID  string `json:"targetPlayerId"`
	TargetCardIndex int    `json:"targetCardIndex"`
}

type ExecuteSpy struct {
	PlayerID        string `json:"playerId"`
	TargetPlayerID  string `json:"targetPlayerId"`
	TargetCardIndex int    `json:"targetCardIndex"`
}

type SkipTrick struct {
	PlayerID string `json:"playerId"`
}

type EndRound struct{}

// FinishRound moves a scored round back to waiting. Fired by the room's
// round-end timer.
type FinishRound struct{}

type ResetGame struct{}

// ClearReveal removes every spy reveal addressed to ViewerID.
type ClearReveal struct {
	ViewerID string `json:"viewerId"`
}

func (StartRound) Kind() ActionKind    { return ActionStartRound }
func (PeekCard) Kind() ActionKind      { return ActionPeekCard }
func (PlayerReady) Kind() ActionKind   { return ActionPlayerReady }
func (Draw) Kind() ActionKind          { return ActionDraw }
func (Replace) Kind() ActionKind       { return ActionReplace }
func (Discard) Kind() ActionKind       { return ActionDiscard }
func (CallPablo) Kind() ActionKind     { return ActionCallPablo }
func (PabloWindow) Kind() ActionKind   { return ActionPabloWindow }
func (ActivateTrick) Kind() ActionKind { return ActionActivateTrick }
func (ExecuteSwap) Kind() ActionKind   { return ActionExecuteSwap }
func (ExecuteSpy) Kind() ActionKind    { return ActionExecuteSpy }
func (SkipTrick) Kind() ActionKind     { return ActionSkipTrick }
func (EndRound) Kind() ActionKind      { return ActionEndRound }
func (FinishRound) Kind() ActionKind   { return ActionFinishRound }
func (ResetGame) Kind() ActionKind     { return ActionResetGame }
func (ClearReveal) Kind() ActionKind   { return ActionClearReveal }

func (StartRound) Actor() string      { return "" }
func (a PeekCard) Actor() string      { return a.PlayerID }
func (a PlayerReady) Actor() string   { return a.PlayerID }
func (a Draw) Actor() string          { return a.PlayerID }
func (a Replace) Actor() string       { return a.PlayerID }
func (a Discard) Actor() string       { return a.PlayerID }
func (a CallPablo) Actor() string     { return a.PlayerID }
func (a PabloWindow) Actor() string   { return a.PlayerID }
func (a ActivateTrick) Actor() string { return a.PlayerID }
func (a ExecuteSwap) Actor() string   { return a.PlayerID }
func (a ExecuteSpy) Actor() string    { return a.PlayerID }
func (a SkipTrick) Actor() string     { return a.PlayerID }
func (EndRound) Actor() string        { return "" }
func (FinishRound) Actor() string     { return "" }
func (ResetGame) Actor() string       { return "" }
func (ClearReveal) Actor() string     { return "" }

func (StartRound) isAction()    {}
func (PeekCard) isAction()      {}
func (PlayerReady) isAction()   {}
func (Draw) isAction()          {}
func (Replace) isAction()       {}
func (Discard) isAction()       {}
func (CallPablo) isAction()     {}
func (PabloWindow) isAction()   {}
func (ActivateTrick) isAction() {}
func (ExecuteSwap) isAction()   {}
func (ExecuteSpy) isAction()    {}
func (SkipTrick) isAction()     {}
func (EndRound) isAction()      {}
func (FinishRound) isAction()   {}
func (ResetGame) isAction()     {}
func (ClearReveal) isAction()   {}

// ---------------------------------------------------------------------------
// Turn actions
// ---------------------------------------------------------------------------

// requireTurn checks that the game is in play and playerID holds the turn.
func (g *Game) requireTurn(playerID string) (*Player, error) {
	s := &g.state
	if s.Phase == PhaseTrickActive {
		return nil, ErrTrickActive
	}
	if s.Phase != PhasePlaying {
		return nil, ErrNotPlaying
	}
	p := s.Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if cur := s.CurrentPlayer(); cur == nil || cur.ID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// draw takes a card from stock (popped immediately) or discard (left on the
// pile until the player commits with replace or discard).
func (g *Game) draw(a Draw) error {
	if _, err := g.requireTurn(a.PlayerID); err != nil {
		return err
	}
	s := &g.state
	if s.DrawPending() {
		return ErrAlreadyDrew
	}
	if s.PabloWindowOpen() {
		return ErrPabloWindowOpen
	}

	var drawn Card
	switch a.Source {
	case SourceStock:
		if len(s.Stock) == 0 {
			g.reshuffleDiscard()
		}
		if len(s.Stock) == 0 {
			return ErrStockEmpty
		}
		drawn = s.Stock[len(s.Stock)-1]
		s.Stock = s.Stock[:len(s.Stock)-1]
	case SourceDiscard:
		if len(s.Discard) == 0 {
			return ErrDiscardEmpty
		}
		drawn = s.Discard[len(s.Discard)-1]
	default:
		return fmt.Errorf("invalid draw source %q", a.Source)
	}

	s.LastAction = &LastAction{
		Kind:      ActionDraw,
		PlayerID:  a.PlayerID,
		Source:    a.Source,
		Card:      &drawn,
		Timestamp: g.now(),
	}
	return nil
}

// reshuffleDiscard moves every discard card except the top one back into
// the stock and shuffles it with the round's RNG.
func (g *Game) reshuffleDiscard() {
	s := &g.state
	if len(s.Discard) <= 1 {
		return
	}
	top := s.Discard[len(s.Discard)-1]
	s.Stock = g.rng.Shuffle(s.Discard[:len(s.Discard)-1])
	s.Discard = []Card{top}
}

// takeDrawn commits the pending draw and returns the drawn card. A discard
// draw is popped from the discard pile here.
func (g *Game) takeDrawn() Card {
	s := &g.state
	la := s.LastAction
	if la.Source == SourceDiscard && len(s.Discard) > 0 {
		s.Discard = s.Discard[:len(s.Discard)-1]
	}
	return *la.Card
}

func (g *Game) replace(a Replace) error {
	p, err := g.requireTurn(a.PlayerID)
	if err != nil {
		return err
	}
	s := &g.state
	if !s.DrawPending() {
		return ErrMustDrawFirst
	}
	if a.CardIndex < 0 || a.CardIndex >= HandSize {
		return ErrInvalidCardIndex
	}

	drawn := g.takeDrawn()
	if old := p.Cards[a.CardIndex]; old != nil {
		s.Discard = append(s.Discard, *old)
	}
	p.Cards[a.CardIndex] = &drawn
	s.dropReveals(p.ID, a.CardIndex)

	idx := a.CardIndex
	g.endTurn(&LastAction{
		Kind:      ActionReplace,
		PlayerID:  a.PlayerID,
		Card:      &drawn,
		CardIndex: &idx,
		Timestamp: g.now(),
	})
	return nil
}

func (g *Game) discard(a Discard) error {
	if _, err := g.requireTurn(a.PlayerID); err != nil {
		return err
	}
	s := &g.state
	if !s.DrawPending() {
		return ErrMustDrawFirst
	}

	drawn := g.takeDrawn()
	s.Discard = append(s.Discard, drawn)

	g.endTurn(&LastAction{
		Kind:      ActionDiscard,
		PlayerID:  a.PlayerID,
		Card:      &drawn,
		Timestamp: g.now(),
	})
	return nil
}

// endTurn runs after a drawn card has been placed. In the final round the
// player's last turn is recorded and play moves on; otherwise the Pablo
// window opens for the same player.
func (g *Game) endTurn(record *LastAction) {
	s := &g.state
	if s.FinalRoundStarted {
		g.markFinalTurn(record.PlayerID)
		s.LastAction = record
		g.advanceTurn()
		g.endRoundIfFinalTurnsDone()
		return
	}
	s.LastAction = &LastAction{
		Kind:      ActionPabloWindow,
		PlayerID:  record.PlayerID,
		Card:      record.Card,
		CardIndex: record.CardIndex,
		Timestamp: record.Timestamp,
	}
}

func (g *Game) callPablo(a CallPablo) error {
	if _, err := g.requireTurn(a.PlayerID); err != nil {
		return err
	}
	s := &g.state
	if s.DrawPending() {
		return ErrDrawPending
	}

	record := &LastAction{Kind: ActionCallPablo, PlayerID: a.PlayerID, Timestamp: g.now()}
	if s.PabloCalled {
		s.LastAction = record
		return nil
	}

	s.PabloCalled = true
	s.PabloCallerID = a.PlayerID
	s.FinalRoundStarted = true
	s.FinalRoundPlayerIndex = s.CurrentPlayerIndex
	s.PlayersWhoHadFinalTurn = []string{a.PlayerID}
	s.LastAction = record
	g.advanceTurn()
	g.endRoundIfFinalTurnsDone()
	return nil
}

func (g *Game) pabloWindow(a PabloWindow) error {
	if _, err := g.requireTurn(a.PlayerID); err != nil {
		return err
	}
	s := &g.state
	if !s.PabloWindowOpen() {
		return ErrNoPabloWindow
	}

	s.LastAction = nil
	if s.FinalRoundStarted {
		g.markFinalTurn(a.PlayerID)
	}
	g.advanceTurn()
	if s.FinalRoundStarted {
		g.endRoundIfFinalTurnsDone()
	}
	return nil
}

// markFinalTurn records that id has had its final-round turn.
func (g *Game) markFinalTurn(id string) {
	s := &g.state
	for _, done := range s.PlayersWhoHadFinalTurn {
		if done == id {
			return
		}
	}
	s.PlayersWhoHadFinalTurn = append(s.PlayersWhoHadFinalTurn, id)
}

// endRoundIfFinalTurnsDone scores the round once every player has had a
// final turn.
func (g *Game) endRoundIfFinalTurnsDone() {
	s := &g.state
	if !s.FinalRoundStarted || len(s.PlayersWhoHadFinalTurn) < len(s.Players) {
		return
	}
	g.scoreRound()
}
